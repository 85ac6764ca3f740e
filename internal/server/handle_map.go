package server

import (
	"log/slog"
	"net/http"
	"os"

	"github.com/playperu/beasthike/internal/geo"
)

// handleLines serves the map overlay file. It is re-read on every request so
// the course can be edited without a restart.
func handleLines(logger *slog.Logger, path string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json; charset=utf-8")
		if path == "" {
			w.WriteHeader(http.StatusOK)
			_, _ = w.Write([]byte("[]"))
			return
		}

		data, err := os.ReadFile(path)
		if err != nil {
			logger.Error("reading map lines", "path", path, "error", err)
			writeError(w, http.StatusInternalServerError, "map lines unavailable")
			return
		}
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write(data)
	}
}

func handleScale(scale geo.Scale) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, scale)
	}
}
