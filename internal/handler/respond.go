package handler

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"wildwatch/internal/dto"
	"wildwatch/internal/logger"
	"wildwatch/internal/model"
)

// maxBodyBytes bounds admin request bodies.
const maxBodyBytes = 64 << 10

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, dto.ErrorResponse{Error: msg})
}

// writeStoreError maps invalid input to 400 and everything else to 500.
func writeStoreError(w http.ResponseWriter, logger *logger.Logger, op string, err error) {
	if errors.Is(err, model.ErrInvalidInput) {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	logger.Error("%s failed: %v", op, err)
	writeError(w, http.StatusInternalServerError, "Internal Server Error")
}

// decodeJSON reads a bounded JSON body. Decoding errors wrap model.ErrInvalidInput.
func decodeJSON(w http.ResponseWriter, r *http.Request, v interface{}) error {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		return fmt.Errorf("%w: invalid JSON body: %v", model.ErrInvalidInput, err)
	}
	return nil
}
