package server

import (
	"encoding/json"
	"net/http"

	openapi "github.com/swaggest/openapi-go"
	"github.com/swaggest/openapi-go/openapi3"

	"github.com/playperu/beasthike/internal/game"
	"github.com/playperu/beasthike/internal/geo"
)

// ErrorResponse is returned for all error responses.
type ErrorResponse struct {
	Error string `json:"error"`
}

// HealthStatus is one entry of the /healthz response map.
type HealthStatus struct {
	Status string `json:"status"`
}

type playerPath struct {
	ID string `path:"id"`
}

type positionPath struct {
	ID       string  `path:"id"`
	Lat      float64 `path:"lat"`
	Long     float64 `path:"long"`
	Speed    float64 `path:"speed"`
	Accuracy float64 `path:"acc"`
}

type gameStatePath struct {
	PlayerID string `path:"playerID"`
}

func newOpenAPISpec() *openapi3.Spec {
	r := openapi3.NewReflector()
	r.Spec.Info.Title = "Beast Hike API"
	r.Spec.Info.Version = "0.1.0"
	r.Spec.Info.WithDescription("Game server for a location-based Hikers vs Beast hide-and-seek game.")

	// GET /healthz
	getHealthz, _ := r.NewOperationContext(http.MethodGet, "/healthz")
	getHealthz.SetSummary("Health check")
	getHealthz.SetDescription("Returns the health status of backend dependencies.")
	getHealthz.AddRespStructure(map[string]HealthStatus{}, openapi.WithHTTPStatus(http.StatusOK))
	getHealthz.AddRespStructure(map[string]HealthStatus{}, openapi.WithHTTPStatus(http.StatusServiceUnavailable))
	_ = r.AddOperation(getHealthz)

	// GET /gameState/{playerID}
	getState, _ := r.NewOperationContext(http.MethodGet, "/gameState/{playerID}")
	getState.SetSummary("Poll game state")
	getState.SetDescription("Returns the full game state. For a known player the message log holds only " +
		"messages newer than their last read, and their read cursor advances. Unknown ids get the full log.")
	getState.AddReqStructure(gameStatePath{})
	getState.AddRespStructure(game.State{}, openapi.WithHTTPStatus(http.StatusOK))
	_ = r.AddOperation(getState)

	// POST /join
	postJoin, _ := r.NewOperationContext(http.MethodPost, "/join")
	postJoin.SetSummary("Join the lobby")
	postJoin.SetDescription("Adds a player while the game is inactive. Rejoining with a known id updates name and preference.")
	postJoin.AddReqStructure(game.JoinRequest{})
	postJoin.AddRespStructure(nil, openapi.WithHTTPStatus(http.StatusOK))
	postJoin.AddRespStructure(ErrorResponse{}, openapi.WithHTTPStatus(http.StatusBadRequest))
	_ = r.AddOperation(postJoin)

	// POST /pos/{id}/{lat}/{long}/{speed}/{acc}
	postPos, _ := r.NewOperationContext(http.MethodPost, "/pos/{id}/{lat}/{long}/{speed}/{acc}")
	postPos.SetSummary("Report position")
	postPos.SetDescription("Records a GPS fix. The hunt starts once every player stands at their start point.")
	postPos.AddReqStructure(positionPath{})
	postPos.AddRespStructure(nil, openapi.WithHTTPStatus(http.StatusOK))
	postPos.AddRespStructure(ErrorResponse{}, openapi.WithHTTPStatus(http.StatusBadRequest))
	_ = r.AddOperation(postPos)

	for _, a := range []struct{ path, summary, desc string }{
		{"/reset-safety/{id}", "Reset safety", "Restores the caller's personal safety."},
		{"/use-safety/{id}", "Use safety", "Spends personal safety to hold the shared safety token."},
		{"/attack/{id}", "Attack", "Catches the first living Hiker in reach of the caller."},
		{"/activate/{id}", "Activate generator", "Powers up the first inactive generator in reach."},
		{"/deactivate/{id}", "Deactivate generator", "Shuts down the first active generator in reach."},
	} {
		op, _ := r.NewOperationContext(http.MethodGet, a.path)
		op.SetSummary(a.summary)
		op.SetDescription(a.desc + " Always 200; actions without effect are ignored.")
		op.AddReqStructure(playerPath{})
		op.AddRespStructure(nil, openapi.WithHTTPStatus(http.StatusOK))
		_ = r.AddOperation(op)
	}

	// GET /reset
	getReset, _ := r.NewOperationContext(http.MethodGet, "/reset")
	getReset.SetSummary("Reset game")
	getReset.SetDescription("Clears the roster and returns to the inactive lobby.")
	getReset.AddRespStructure(nil, openapi.WithHTTPStatus(http.StatusOK))
	_ = r.AddOperation(getReset)

	// POST /start
	postStart, _ := r.NewOperationContext(http.MethodPost, "/start")
	postStart.SetSummary("Start round")
	postStart.SetDescription("Draws generators and roles and enters the hiding phase.")
	postStart.AddRespStructure(nil, openapi.WithHTTPStatus(http.StatusOK))
	postStart.AddRespStructure(ErrorResponse{}, openapi.WithHTTPStatus(http.StatusInternalServerError))
	_ = r.AddOperation(postStart)

	// GET /lines
	getLines, _ := r.NewOperationContext(http.MethodGet, "/lines")
	getLines.SetSummary("Map overlay")
	getLines.SetDescription("Returns the configured map overlay lines as JSON.")
	getLines.AddRespStructure([][]geo.Point{}, openapi.WithHTTPStatus(http.StatusOK))
	_ = r.AddOperation(getLines)

	// GET /scale
	getScale, _ := r.NewOperationContext(http.MethodGet, "/scale")
	getScale.SetSummary("Map scale")
	getScale.SetDescription("Projection constants for rendering the course.")
	getScale.AddRespStructure(geo.Scale{}, openapi.WithHTTPStatus(http.StatusOK))
	_ = r.AddOperation(getScale)

	// GET /events
	getEvents, _ := r.NewOperationContext(http.MethodGet, "/events")
	getEvents.SetSummary("SSE event stream")
	getEvents.SetDescription("Server-Sent Events announcing every game state change.")
	getEvents.AddRespStructure(nil, openapi.WithHTTPStatus(http.StatusOK),
		openapi.WithContentType("text/event-stream"))
	_ = r.AddOperation(getEvents)

	// GET /ws/{playerID}
	getWS, _ := r.NewOperationContext(http.MethodGet, "/ws/{playerID}")
	getWS.SetSummary("WebSocket state push")
	getWS.SetDescription("Upgrades to a WebSocket that pushes the caller's game state after every change.")
	getWS.AddReqStructure(gameStatePath{})
	getWS.AddRespStructure(nil, openapi.WithHTTPStatus(http.StatusSwitchingProtocols),
		openapi.WithContentType("application/json"))
	_ = r.AddOperation(getWS)

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
