package server

import (
	"log/slog"
	"os"

	"github.com/go-chi/chi/v5"
	"github.com/swaggest/swgui/v5emb"

	"github.com/amenassefagashaye/USA3/internal/handler/health"
)

func addRoutes(r chi.Router, logger *slog.Logger, deps Deps) {
	d := newDispatcher(logger, deps.Registry, deps.AdminHash, deps.DefaultStake)
	ws := handleWS(logger, d, deps.SendBuffer)

	r.Get("/ws", ws)
	r.Get("/admin/ws", ws)
	r.Get("/admin/stats", handleStats(newUptime()))

	r.Mount("/healthz", health.NewHandler(logger, deps.Checks).Routes())
	r.Get("/api/games", handleListGames(deps.Registry))
	r.Get("/api/config", handleBoardConfigs())
	if deps.Results != nil {
		r.Get("/api/results", handleResults(logger, deps.Results))
	}

	r.Get("/openapi.json", handleOpenAPI())
	r.Mount("/docs", v5emb.New("Bingo API", "/openapi.json", "/docs"))

	if deps.StaticDir != "" {
		if info, err := os.Stat(deps.StaticDir); err == nil && info.IsDir() {
			logger.Info("serving static files", "dir", deps.StaticDir)
			r.NotFound(handleStatic(deps.StaticDir))
		}
	}
}
