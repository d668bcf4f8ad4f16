package rest

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/fortuna/juno/internal/league"
	"github.com/fortuna/juno/internal/service"
	"github.com/gorilla/mux"
)

// Dependencies are the services the REST API exposes. Refresh, Scheduler,
// Snapshots and MCP are optional.
type Dependencies struct {
	Analytics   *service.AnalyticsService
	Simulations *service.SimulationService
	Trades      *service.TradeService

	Refresh        RefreshService
	Scheduler      SchedulerStatus
	RefreshPeriods []league.Period

	Snapshots SnapshotLister
	LeagueID  string

	HealthChecks map[string]HealthChecker

	CorsOrigins []string

	// MCP is mounted at MCPPath when set.
	MCP     http.Handler
	MCPPath string
}

// Server represents the REST API server
type Server struct {
	port    string
	server  *http.Server
	handler http.Handler
}

// NewServer creates a new REST API server
func NewServer(port string, deps Dependencies) *Server {
	handler := NewHandler(deps)
	refreshHandler := NewRefreshHandler(deps.Refresh, deps.Scheduler, deps.RefreshPeriods)

	router := mux.NewRouter()

	// Apply middleware
	router.Use(RecoveryMiddleware)
	router.Use(LoggingMiddleware)

	// Health check
	router.HandleFunc("/health", handler.HealthCheck).Methods("GET")

	// API v1 routes
	api := router.PathPrefix("/api/v1").Subrouter()

	// League
	api.HandleFunc("/teams", handler.GetTeams).Methods("GET")
	api.HandleFunc("/weeks", handler.GetWeeks).Methods("GET")
	api.HandleFunc("/snapshots", handler.GetSnapshots).Methods("GET")

	// Z-scores and players
	api.HandleFunc("/z-scores", handler.GetZScores).Methods("GET")
	api.HandleFunc("/players", handler.GetPlayers).Methods("GET")
	api.HandleFunc("/all-players", handler.GetPlayers).Methods("GET")
	api.HandleFunc("/free-agents", handler.GetFreeAgents).Methods("GET")
	api.HandleFunc("/player/{name}/trends", handler.GetPlayerTrends).Methods("GET")
	api.HandleFunc("/player/{name}/balance", handler.GetPlayerBalance).Methods("GET")
	api.HandleFunc("/analytics/{teamID:[0-9]+}", handler.GetTeamAnalytics).Methods("GET")
	api.HandleFunc("/team-balance/{teamID:[0-9]+}", handler.GetTeamBalance).Methods("GET")

	// Dashboard
	api.HandleFunc("/dashboard/{teamID:[0-9]+}", handler.GetDashboard).Methods("GET")
	api.HandleFunc("/dashboard/{teamID:[0-9]+}/category-rankings", handler.GetCategoryRankings).Methods("GET")
	api.HandleFunc("/dashboard/{teamID:[0-9]+}/position-history", handler.GetPositionHistory).Methods("GET")
	api.HandleFunc("/dashboard/{teamID:[0-9]+}/matchup-details", handler.GetMatchupDetails).Methods("GET")
	api.HandleFunc("/dashboard/{teamID:[0-9]+}/matchup-history", handler.GetMatchupHistory).Methods("GET")

	// Simulation
	api.HandleFunc("/simulation/{week:[0-9]+}", handler.GetSimulation).Methods("GET")
	api.HandleFunc("/simulation-detailed/{week:[0-9]+}", handler.GetSimulationDetailed).Methods("GET")

	// Trades
	api.HandleFunc("/trade-analysis", handler.AnalyzeTrade).Methods("POST")
	api.HandleFunc("/multi-team-trade-analysis", handler.AnalyzeMultiTeamTrade).Methods("POST")
	api.HandleFunc("/trades/recent", handler.GetRecentTrades).Methods("GET")

	// Refresh operations
	api.HandleFunc("/refresh-league", refreshHandler.HandleRefreshRequest).Methods("POST")
	api.HandleFunc("/refresh/status", refreshHandler.HandleRefreshStatus).Methods("GET")

	if deps.MCP != nil {
		path := deps.MCPPath
		if path == "" {
			path = "/mcp"
		}
		router.Handle(path, deps.MCP)
	}

	// CORS wraps the router so preflight requests never reach route matching.
	root := CORSMiddleware(deps.CorsOrigins)(router)

	return &Server{
		port:    port,
		handler: root,
		server: &http.Server{
			Addr:              fmt.Sprintf(":%s", port),
			Handler:           root,
			ReadHeaderTimeout: 10 * time.Second,
		},
	}
}

// Handler exposes the router, e.g. for httptest.
func (s *Server) Handler() http.Handler {
	return s.handler
}

// Start starts the REST API server
func (s *Server) Start() error {
	return s.server.ListenAndServe()
}

// Shutdown gracefully shuts down the server
func (s *Server) Shutdown(ctx context.Context) error {
	if s.server != nil {
		return s.server.Shutdown(ctx)
	}
	return nil
}
