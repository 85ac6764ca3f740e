package server

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"nhooyr.io/websocket"
	"nhooyr.io/websocket/wsjson"

	"github.com/playperu/beasthike/internal/game"
)

// handleWS pushes the caller's game state snapshot on connect and after every
// game event. Each push is a regular sync read, so the caller's message
// cursor advances exactly as it would when polling /gameState.
func handleWS(logger *slog.Logger, engine *game.Engine, broker *Broker) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		playerID := chi.URLParam(r, "playerID")

		conn, err := websocket.Accept(w, r, &websocket.AcceptOptions{
			InsecureSkipVerify: true,
		})
		if err != nil {
			logger.Error("websocket accept failed", "error", err)
			return
		}
		defer conn.CloseNow()

		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Hour)
		defer cancel()
		// Clients only listen; CloseRead handles their control frames.
		ctx = conn.CloseRead(ctx)

		ch := broker.Subscribe()
		defer broker.Unsubscribe(ch)

		push := func() error {
			wctx, wcancel := context.WithTimeout(ctx, 5*time.Second)
			defer wcancel()
			return wsjson.Write(wctx, conn, engine.Snapshot(ctx, playerID))
		}

		if err := push(); err != nil {
			logger.Debug("websocket write failed", "error", err)
			return
		}
		for {
			select {
			case <-ctx.Done():
				conn.Close(websocket.StatusNormalClosure, "")
				return
			case <-ch:
				if err := push(); err != nil {
					logger.Debug("websocket write failed", "error", err)
					return
				}
			}
		}
	}
}
