package handler

import (
	"net/http"
	"os"

	"github.com/gorilla/mux"

	"wildwatch/internal/service/storage"
)

// ViewSnapshotHandler serves GET /snapshots/{name} from the snapshot directory.
func ViewSnapshotHandler(snapshots *storage.SnapshotStore) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		path, err := snapshots.Resolve(mux.Vars(r)["name"])
		if err != nil {
			writeError(w, http.StatusBadRequest, "Invalid snapshot name")
			return
		}

		if _, err := os.Stat(path); os.IsNotExist(err) {
			writeError(w, http.StatusNotFound, "Snapshot not found")
			return
		}

		w.Header().Set("Content-Type", "image/jpeg")
		http.ServeFile(w, r, path)
	}
}
