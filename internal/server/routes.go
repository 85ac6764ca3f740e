package server

import (
	"log/slog"
	"os"

	"github.com/go-chi/chi/v5"
	"github.com/swaggest/swgui/v5emb"

	"github.com/playperu/beasthike/internal/game"
	"github.com/playperu/beasthike/internal/handler/health"
)

func addRoutes(r chi.Router, logger *slog.Logger, engine *game.Engine, broker *Broker, opts Options) {
	r.Get("/openapi.json", handleOpenAPI())
	r.Mount("/docs", v5emb.New("Beast Hike API", "/openapi.json", "/docs"))
	r.Mount("/healthz", health.NewHandler(logger, opts.Checks).Routes())

	// Player routes. Ids are self-asserted; unknown ids are silently ignored.
	r.Get("/gameState/{playerID}", handleGameState(engine))
	r.Post("/join", handleJoin(engine))
	r.Post("/pos/{id}/{lat}/{long}/{speed}/{acc}", handlePosition(engine))
	r.Get("/reset-safety/{id}", handleAction(engine.ResetSafety))
	r.Get("/use-safety/{id}", handleAction(engine.UseSafety))
	r.Get("/attack/{id}", handleAction(engine.Attack))
	r.Get("/activate/{id}", handleAction(engine.Activate))
	r.Get("/deactivate/{id}", handleAction(engine.Deactivate))

	// Round control.
	r.Get("/reset", handleReset(engine))
	r.Post("/start", handleStart(logger, engine))

	// Map data for the client renderer.
	r.Get("/lines", handleLines(logger, opts.LinesPath))
	r.Get("/scale", handleScale(opts.Scale))

	// Push channels.
	r.Get("/events", handleEvents(broker))
	r.Get("/ws/{playerID}", handleWS(logger, engine, broker))

	if opts.StaticDir != "" {
		if info, err := os.Stat(opts.StaticDir); err == nil && info.IsDir() {
			logger.Info("serving static client", "dir", opts.StaticDir)
			r.NotFound(handleStatic(opts.StaticDir))
		}
	}
}
