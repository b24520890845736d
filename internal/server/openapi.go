package server

import (
	"encoding/json"
	"net/http"

	openapi "github.com/swaggest/openapi-go"
	"github.com/swaggest/openapi-go/openapi3"

	"github.com/amenassefagashaye/USA3/internal/protocol"
	"github.com/amenassefagashaye/USA3/internal/results"
)

// ErrorResponse is returned for all error responses.
type ErrorResponse struct {
	Error string `json:"error"`
}

type healthStatus struct {
	Status string `json:"status" enum:"ok,error"`
}

type resultsRequest struct {
	Limit int `query:"limit" minimum:"1" maximum:"500" description:"Maximum rounds to return (default 50)."`
}

func newOpenAPISpec() *openapi3.Spec {
	r := openapi3.NewReflector()
	r.Spec.Info.Title = "Bingo Game API"
	r.Spec.Info.Version = "0.1.0"
	r.Spec.Info.WithDescription("HTTP surface of the bingo game server. Gameplay runs over the /ws websocket.")

	// GET /healthz
	getHealthz, _ := r.NewOperationContext(http.MethodGet, "/healthz")
	getHealthz.SetSummary("Health check")
	getHealthz.SetDescription("Reports each dependency as ok or error.")
	getHealthz.AddRespStructure(map[string]healthStatus{}, openapi.WithHTTPStatus(http.StatusOK))
	getHealthz.AddRespStructure(map[string]healthStatus{}, openapi.WithHTTPStatus(http.StatusServiceUnavailable))
	_ = r.AddOperation(getHealthz)

	// GET /admin/stats
	getStats, _ := r.NewOperationContext(http.MethodGet, "/admin/stats")
	getStats.SetSummary("Server stats")
	getStats.AddRespStructure(StatsResponse{}, openapi.WithHTTPStatus(http.StatusOK))
	_ = r.AddOperation(getStats)

	// GET /ws
	getWS, _ := r.NewOperationContext(http.MethodGet, "/ws")
	getWS.SetSummary("Game websocket")
	getWS.SetDescription("Upgrades to a websocket carrying JSON {type, data} messages: " +
		"register, join, start, mark, claim, withdraw, getState and admin.")
	getWS.AddRespStructure(nil, openapi.WithHTTPStatus(http.StatusSwitchingProtocols),
		openapi.WithContentType("text/plain"))
	_ = r.AddOperation(getWS)

	// GET /admin/ws
	getAdminWS, _ := r.NewOperationContext(http.MethodGet, "/admin/ws")
	getAdminWS.SetSummary("Operator websocket")
	getAdminWS.SetDescription("Same protocol as /ws; admin messages carry the shared secret.")
	getAdminWS.AddRespStructure(nil, openapi.WithHTTPStatus(http.StatusSwitchingProtocols),
		openapi.WithContentType("text/plain"))
	_ = r.AddOperation(getAdminWS)

	// GET /api/games
	listGames, _ := r.NewOperationContext(http.MethodGet, "/api/games")
	listGames.SetSummary("List games")
	listGames.SetDescription("Summaries of every live game in creation order.")
	listGames.AddRespStructure(protocol.GamesList{}, openapi.WithHTTPStatus(http.StatusOK))
	_ = r.AddOperation(listGames)

	// GET /api/config
	getConfig, _ := r.NewOperationContext(http.MethodGet, "/api/config")
	getConfig.SetSummary("Board layouts")
	getConfig.SetDescription("Layout, number range and winning patterns of every game type.")
	getConfig.AddRespStructure([]protocol.BoardLayout{}, openapi.WithHTTPStatus(http.StatusOK))
	_ = r.AddOperation(getConfig)

	// GET /api/results
	getResults, _ := r.NewOperationContext(http.MethodGet, "/api/results")
	getResults.SetSummary("Completed rounds")
	getResults.SetDescription("Round ledger, newest first. Absent when the ledger is disabled.")
	getResults.AddReqStructure(resultsRequest{})
	getResults.AddRespStructure([]results.Result{}, openapi.WithHTTPStatus(http.StatusOK))
	getResults.AddRespStructure(ErrorResponse{}, openapi.WithHTTPStatus(http.StatusBadRequest))
	_ = r.AddOperation(getResults)

	return r.Spec
}

func handleOpenAPI() http.HandlerFunc {
	spec := newOpenAPISpec()
	data, _ := json.MarshalIndent(spec, "", "  ")

	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json; charset=utf-8")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write(data)
	}
}
