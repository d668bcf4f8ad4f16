package mcpserver

import (
	"context"
	"crypto/subtle"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"

	"github.com/fortuna/juno/internal/category"
	"github.com/fortuna/juno/internal/league"
	"github.com/fortuna/juno/internal/roster"
	"github.com/fortuna/juno/internal/service"
	"github.com/fortuna/juno/internal/simulation"
	"github.com/modelcontextprotocol/go-sdk/mcp"
)

// Version is reported to MCP clients during initialization.
const Version = "1.0.0"

type ZScoresArgs struct {
	Period    string `json:"period,omitempty" jsonschema:"Stat period such as 2026_total or 2026_last_15 (default season total)"`
	ExcludeIR bool   `json:"exclude_ir,omitempty" jsonschema:"Drop players stashed in IR slots"`
	TeamID    int    `json:"team_id,omitempty" jsonschema:"Only list this fantasy team (0 = whole league)"`
	Punt      string `json:"punt_categories,omitempty" jsonschema:"Comma separated categories left out of totals, e.g. FG%,TO"`
	Limit     int    `json:"limit,omitempty" jsonschema:"Maximum players returned (0 = all)"`
}

type SimulateArgs struct {
	Week          int      `json:"week,omitempty" jsonschema:"Scoring week (required in matchup mode)"`
	WeeksCount    int      `json:"weeks_count,omitempty" jsonschema:"Weeks ending at week to average in matchup mode (0 = all)"`
	Mode          string   `json:"mode,omitempty" jsonschema:"matchup, z_scores or team_stats_avg (default matchup)"`
	Period        string   `json:"period,omitempty" jsonschema:"Stat period for z_scores and team_stats_avg modes"`
	Scope         string   `json:"simulation_mode,omitempty" jsonschema:"all, exclude_ir or top_n (default all)"`
	TopN          int      `json:"top_n_players,omitempty" jsonschema:"Players per team in top_n scope"`
	CustomTeamID  int      `json:"custom_team_id,omitempty" jsonschema:"Team whose lineup is replaced by custom_team_players"`
	CustomPlayers []string `json:"custom_team_players,omitempty" jsonschema:"Player names forming the custom lineup"`
	Punt          string   `json:"punt_categories,omitempty" jsonschema:"Comma separated punted categories"`
	Detailed      bool     `json:"detailed,omitempty" jsonschema:"Include every head-to-head line"`
}

type TradeArgs struct {
	MyTeamID    int      `json:"my_team_id" jsonschema:"Team proposing the trade (required)"`
	TheirTeamID int      `json:"their_team_id" jsonschema:"Trade partner (required)"`
	Give        []string `json:"give,omitempty" jsonschema:"Player names my team sends"`
	Receive     []string `json:"receive,omitempty" jsonschema:"Player names my team receives"`
	Period      string   `json:"period,omitempty" jsonschema:"Stat period (default season total)"`
	Punt        string   `json:"punt_categories,omitempty" jsonschema:"Comma separated punted categories"`
	ExcludeIR   bool     `json:"exclude_ir,omitempty" jsonschema:"Drop IR players before evaluating"`
}

type CategoryRankingsArgs struct {
	TeamID    int    `json:"team_id" jsonschema:"Fantasy team id (required)"`
	Period    string `json:"period,omitempty" jsonschema:"Stat period (default season total)"`
	ExcludeIR bool   `json:"exclude_ir,omitempty" jsonschema:"Drop IR players"`
	Punt      string `json:"punt_categories,omitempty" jsonschema:"Comma separated punted categories"`
}

// Services are the engines the tools call into.
type Services struct {
	Analytics   *service.AnalyticsService
	Simulations *service.SimulationService
	Trades      *service.TradeService
}

// NewServer registers the league tools on a fresh MCP server.
func NewServer(svc Services) *mcp.Server {
	server := mcp.NewServer(
		&mcp.Implementation{
			Name:    "juno-mcp",
			Version: Version,
		},
		nil,
	)

	mcp.AddTool(server, &mcp.Tool{
		Name:        "z_scores",
		Description: "League-wide player z-scores ranked by total, with league metrics",
	}, func(ctx context.Context, req *mcp.CallToolRequest, args ZScoresArgs) (*mcp.CallToolResult, any, error) {
		period, err := parsePeriod(args.Period)
		if err != nil {
			return toolError(err), nil, nil
		}
		punt, err := category.ParseList(args.Punt)
		if err != nil {
			return toolError(err), nil, nil
		}
		return toolJSON(svc.Analytics.AllPlayers(ctx, service.PlayersQuery{
			Period:    period,
			ExcludeIR: args.ExcludeIR,
			TeamID:    args.TeamID,
			Punt:      punt,
			Limit:     args.Limit,
		}))
	})

	mcp.AddTool(server, &mcp.Tool{
		Name:        "simulate",
		Description: "All-play-all league simulation; ranks teams by category wins",
	}, func(ctx context.Context, req *mcp.CallToolRequest, args SimulateArgs) (*mcp.CallToolResult, any, error) {
		simReq, err := simulationRequest(args)
		if err != nil {
			return toolError(err), nil, nil
		}
		if args.Detailed {
			return toolJSON(svc.Simulations.SimulateDetailed(ctx, simReq))
		}
		return toolJSON(svc.Simulations.Simulate(ctx, simReq))
	})

	mcp.AddTool(server, &mcp.Tool{
		Name:        "trade_analysis",
		Description: "Evaluate a two-team trade: z-score, category rank and simulated standing deltas",
	}, func(ctx context.Context, req *mcp.CallToolRequest, args TradeArgs) (*mcp.CallToolResult, any, error) {
		period, err := parsePeriod(args.Period)
		if err != nil {
			return toolError(err), nil, nil
		}
		punt, err := category.ParseList(args.Punt)
		if err != nil {
			return toolError(err), nil, nil
		}
		return toolJSON(svc.Trades.Analyze(ctx, service.TradeRequest{
			MyTeamID:    args.MyTeamID,
			TheirTeamID: args.TheirTeamID,
			Give:        args.Give,
			Receive:     args.Receive,
			Period:      period,
			Punt:        punt,
			ExcludeIR:   args.ExcludeIR,
		}))
	})

	mcp.AddTool(server, &mcp.Tool{
		Name:        "category_rankings",
		Description: "One team's rank in every category with the league table behind it",
	}, func(ctx context.Context, req *mcp.CallToolRequest, args CategoryRankingsArgs) (*mcp.CallToolResult, any, error) {
		if args.TeamID == 0 {
			return toolError(fmt.Errorf("team_id is required")), nil, nil
		}
		period, err := parsePeriod(args.Period)
		if err != nil {
			return toolError(err), nil, nil
		}
		punt, err := category.ParseList(args.Punt)
		if err != nil {
			return toolError(err), nil, nil
		}
		return toolJSON(svc.Analytics.CategoryRankings(ctx, args.TeamID, period, args.ExcludeIR, punt))
	})

	return server
}

func simulationRequest(args SimulateArgs) (service.SimulationRequest, error) {
	mode, err := simulation.ParseMode(args.Mode)
	if err != nil {
		return service.SimulationRequest{}, err
	}
	scope, err := roster.ParseScope(args.Scope)
	if err != nil {
		return service.SimulationRequest{}, err
	}
	period, err := parsePeriod(args.Period)
	if err != nil {
		return service.SimulationRequest{}, err
	}
	punt, err := category.ParseList(args.Punt)
	if err != nil {
		return service.SimulationRequest{}, err
	}
	return service.SimulationRequest{
		Week:          args.Week,
		WeeksCount:    args.WeeksCount,
		Mode:          mode,
		Period:        period,
		Scope:         scope,
		Cap:           args.TopN,
		CustomTeamID:  args.CustomTeamID,
		CustomPlayers: args.CustomPlayers,
		Punt:          punt,
	}, nil
}

// parsePeriod maps empty input to the zero period, which the snapshot
// source resolves to the season total.
func parsePeriod(s string) (league.Period, error) {
	if strings.TrimSpace(s) == "" {
		return league.Period{}, nil
	}
	return league.ParsePeriod(s)
}

// Handler serves the MCP streamable HTTP transport. A non-empty apiKey must
// be presented in X-API-Key or as a bearer token.
func Handler(server *mcp.Server, apiKey string) http.Handler {
	handler := mcp.NewStreamableHTTPHandler(func(r *http.Request) *mcp.Server {
		return server
	}, &mcp.StreamableHTTPOptions{JSONResponse: true})
	return RequireAPIKey(apiKey, handler)
}

// RequireAPIKey rejects requests without the key. An empty key disables the
// check.
func RequireAPIKey(apiKey string, next http.Handler) http.Handler {
	apiKey = strings.TrimSpace(apiKey)
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if apiKey == "" {
			next.ServeHTTP(w, r)
			return
		}
		key := strings.TrimSpace(r.Header.Get("X-API-Key"))
		if key == "" {
			if authz := r.Header.Get("Authorization"); strings.HasPrefix(strings.ToLower(authz), "bearer ") {
				key = strings.TrimSpace(authz[7:])
			}
		}
		if subtle.ConstantTimeCompare([]byte(key), []byte(apiKey)) != 1 {
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusUnauthorized)
			w.Write([]byte(`{"error":"unauthorized"}`))
			return
		}
		next.ServeHTTP(w, r)
	})
}

func toolJSON(v any, err error) (*mcp.CallToolResult, any, error) {
	if err != nil {
		return toolError(err), nil, nil
	}
	b, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return toolError(err), nil, nil
	}
	return &mcp.CallToolResult{
		Content: []mcp.Content{
			&mcp.TextContent{Text: string(b)},
		},
	}, nil, nil
}

func toolError(err error) *mcp.CallToolResult {
	return &mcp.CallToolResult{
		IsError: true,
		Content: []mcp.Content{
			&mcp.TextContent{Text: fmt.Sprintf("error: %v", err)},
		},
	}
}
