package server

import (
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/amenassefagashaye/USA3/internal/bingo"
	"github.com/amenassefagashaye/USA3/internal/protocol"
)

type StatsResponse struct {
	Status    string    `json:"status"`
	Timestamp time.Time `json:"timestamp"`
	Uptime    int64     `json:"uptime" description:"Seconds since the process started."`
}

type uptime struct {
	started time.Time
	now     func() time.Time
}

func newUptime() uptime {
	return uptime{started: time.Now(), now: time.Now}
}

func handleStats(u uptime) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		now := u.now()
		w.Header().Set("Access-Control-Allow-Origin", "*")
		writeJSON(w, http.StatusOK, StatsResponse{
			Status:    "ok",
			Timestamp: now.UTC(),
			Uptime:    int64(now.Sub(u.started).Seconds()),
		})
	}
}

func handleListGames(reg *bingo.Registry) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, gamesList(reg.List()))
	}
}

func handleBoardConfigs() http.HandlerFunc {
	types := bingo.GameTypes()
	layouts := make([]protocol.BoardLayout, 0, len(types))
	for _, t := range types {
		cfg, _ := bingo.ConfigFor(t)
		layouts = append(layouts, bingo.Layout(cfg))
	}

	return func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, layouts)
	}
}

func handleResults(logger *slog.Logger, store ResultLister) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		limit := 0
		if raw := r.URL.Query().Get("limit"); raw != "" {
			n, err := strconv.Atoi(raw)
			if err != nil || n < 1 {
				writeError(w, http.StatusBadRequest, "limit must be a positive integer")
				return
			}
			limit = n
		}

		list, err := store.List(r.Context(), limit)
		if err != nil {
			logger.Error("listing results failed", "error", err)
			writeError(w, http.StatusInternalServerError, "internal error")
			return
		}
		writeJSON(w, http.StatusOK, list)
	}
}
