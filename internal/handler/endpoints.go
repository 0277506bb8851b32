package handler

import (
	"net/http"

	"wildwatch/internal/dto"
	"wildwatch/internal/logger"
	"wildwatch/internal/repository"
)

// RegisterTokenHandler handles POST /register-token {"token": "..."}.
// Registering the same token twice is a no-op that still answers ok.
func RegisterTokenHandler(endpoints repository.EndpointRepository, logger *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req dto.RegisterTokenRequest
		if err := decodeJSON(w, r, &req); err != nil {
			writeError(w, http.StatusBadRequest, "Invalid token")
			return
		}

		if err := endpoints.RegisterEndpoint(r.Context(), req.Token); err != nil {
			writeStoreError(w, logger, "Registering token", err)
			return
		}
		logger.Info("Push endpoint registered")
		writeJSON(w, http.StatusOK, dto.MessageResponse{Message: "ok"})
	}
}
