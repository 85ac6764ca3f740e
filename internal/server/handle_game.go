package server

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/playperu/beasthike/internal/game"
	"github.com/playperu/beasthike/internal/geo"
)

func handleGameState(engine *game.Engine) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, engine.Snapshot(r.Context(), chi.URLParam(r, "playerID")))
	}
}

func handleJoin(engine *game.Engine) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req game.JoinRequest
		if err := readJSON(w, r, &req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid request body")
			return
		}

		if err := engine.Join(r.Context(), req); err != nil {
			writeGameError(w, err)
			return
		}
		w.WriteHeader(http.StatusOK)
	}
}

func handlePosition(engine *game.Engine) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		fix, err := parseFix(r)
		if err != nil {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}

		if err := engine.ReportPosition(r.Context(), chi.URLParam(r, "id"), fix); err != nil {
			writeGameError(w, err)
			return
		}
		w.WriteHeader(http.StatusOK)
	}
}

func parseFix(r *http.Request) (game.Fix, error) {
	var v [4]float64
	for i, name := range [...]string{"lat", "long", "speed", "acc"} {
		f, err := strconv.ParseFloat(chi.URLParam(r, name), 64)
		if err != nil {
			return game.Fix{}, fmt.Errorf("%s must be a number", name)
		}
		v[i] = f
	}
	return game.Fix{Coords: geo.P(v[0], v[1]), Speed: v[2], Accuracy: v[3]}, nil
}

// handleAction adapts a per-player engine action to a route. The response is
// 200 whether or not the action had any effect.
func handleAction(action func(ctx context.Context, playerID string)) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		action(r.Context(), chi.URLParam(r, "id"))
		w.WriteHeader(http.StatusOK)
	}
}

func handleReset(engine *game.Engine) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		engine.Reset(r.Context())
		w.WriteHeader(http.StatusOK)
	}
}

func handleStart(logger *slog.Logger, engine *game.Engine) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if err := engine.Start(r.Context()); err != nil {
			logger.Error("starting round", "error", err)
			writeError(w, http.StatusInternalServerError, "could not start round")
			return
		}
		w.WriteHeader(http.StatusOK)
	}
}

func writeGameError(w http.ResponseWriter, err error) {
	if errors.Is(err, game.ErrInvalidInput) {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	writeError(w, http.StatusInternalServerError, "internal error")
}
