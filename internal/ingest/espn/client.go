package espn

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/fortuna/juno/internal/logger"
	"github.com/sirupsen/logrus"
	"github.com/sony/gobreaker"
	"golang.org/x/time/rate"
)

const (
	BaseURL    = "https://lm-api-reads.fantasy.espn.com/apis/v3"
	Basketball = "fba"
)

// ErrUpstream is returned for non-2xx responses and HTML error pages.
var ErrUpstream = errors.New("espn upstream error")

// ClientConfig holds the league coordinates and credentials.
type ClientConfig struct {
	BaseURL  string
	LeagueID string
	Season   int
	// ESPNS2 and SWID are the cookies of a logged-in ESPN session; private
	// leagues reject requests without them.
	ESPNS2 string
	SWID   string
	// RateLimit is the maximum requests per second; 2 when zero.
	RateLimit float64
	Timeout   time.Duration
}

// Client handles ESPN fantasy API requests for one league.
type Client struct {
	cfg        ClientConfig
	httpClient *http.Client
	limiter    *rate.Limiter
	breaker    *gobreaker.CircuitBreaker
	log        *logrus.Entry
}

// NewClient creates a rate limited, circuit broken client.
func NewClient(cfg ClientConfig) *Client {
	if cfg.BaseURL == "" {
		cfg.BaseURL = BaseURL
	}
	cfg.BaseURL = strings.TrimRight(cfg.BaseURL, "/")
	if cfg.RateLimit <= 0 {
		cfg.RateLimit = 2
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 15 * time.Second
	}

	log := logger.WithComponent("espn-client")
	breaker := gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:        "espn-fantasy",
		MaxRequests: 1,
		Timeout:     30 * time.Second,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= 5
		},
		OnStateChange: func(name string, from gobreaker.State, to gobreaker.State) {
			log.WithFields(logrus.Fields{
				"breaker":    name,
				"from_state": from.String(),
				"to_state":   to.String(),
			}).Warn("⚠️  ESPN circuit breaker state changed")
		},
	})

	return &Client{
		cfg:        cfg,
		httpClient: &http.Client{Timeout: cfg.Timeout},
		limiter:    rate.NewLimiter(rate.Limit(cfg.RateLimit), 1),
		breaker:    breaker,
		log:        log,
	}
}

// LeagueID returns the configured league id.
func (c *Client) LeagueID() string { return c.cfg.LeagueID }

// Season returns the configured season.
func (c *Client) Season() int { return c.cfg.Season }

func (c *Client) leagueURL(views []string, extra url.Values) string {
	q := url.Values{}
	for _, v := range views {
		q.Add("view", v)
	}
	for k, vs := range extra {
		for _, v := range vs {
			q.Add(k, v)
		}
	}
	return fmt.Sprintf("%s/games/%s/seasons/%d/segments/0/leagues/%s?%s",
		c.cfg.BaseURL, Basketball, c.cfg.Season, url.PathEscape(c.cfg.LeagueID), q.Encode())
}

// FetchLeague fetches the league document with the given views, e.g.
// "mTeam" and "mRoster".
func (c *Client) FetchLeague(ctx context.Context, views ...string) (*LeagueResponse, error) {
	var out LeagueResponse
	if err := c.fetch(ctx, c.leagueURL(views, nil), nil, &out); err != nil {
		return nil, fmt.Errorf("fetching league %s: %w", c.cfg.LeagueID, err)
	}
	return &out, nil
}

// FetchMatchups fetches the schedule entries of one matchup period with the
// rosters used in it.
func (c *Client) FetchMatchups(ctx context.Context, week int) (*LeagueResponse, error) {
	filter := fmt.Sprintf(`{"schedule":{"filterMatchupPeriodIds":{"value":[%d]}}}`, week)
	headers := map[string]string{"x-fantasy-filter": filter}

	var out LeagueResponse
	u := c.leagueURL([]string{"mMatchupScore", "mScoreboard", "mTeam"}, nil)
	if err := c.fetch(ctx, u, headers, &out); err != nil {
		return nil, fmt.Errorf("fetching matchups for week %d: %w", week, err)
	}
	return &out, nil
}

// FetchFreeAgents fetches up to limit unrostered players (free agents and
// waivers), most owned first. slotIDs narrows the pool to players eligible
// for those lineup slots.
func (c *Client) FetchFreeAgents(ctx context.Context, slotIDs []int, limit int) (*LeagueResponse, error) {
	players := map[string]interface{}{
		"filterStatus":  map[string]interface{}{"value": []string{"FREEAGENT", "WAIVERS"}},
		"limit":         limit,
		"sortPercOwned": map[string]interface{}{"sortPriority": 1, "sortAsc": false},
	}
	if len(slotIDs) > 0 {
		players["filterSlotIds"] = map[string]interface{}{"value": slotIDs}
	}
	filter, err := json.Marshal(map[string]interface{}{"players": players})
	if err != nil {
		return nil, fmt.Errorf("encoding free agent filter: %w", err)
	}

	var out LeagueResponse
	u := c.leagueURL([]string{"kona_player_info"}, nil)
	if err := c.fetch(ctx, u, map[string]string{"x-fantasy-filter": string(filter)}, &out); err != nil {
		return nil, fmt.Errorf("fetching free agents: %w", err)
	}
	return &out, nil
}

func (c *Client) fetch(ctx context.Context, u string, headers map[string]string, dst interface{}) error {
	if err := c.limiter.Wait(ctx); err != nil {
		return err
	}

	body, err := c.breaker.Execute(func() (interface{}, error) {
		return c.do(ctx, u, headers)
	})
	if err != nil {
		c.log.WithError(err).WithField("url", u).Error("❌ ESPN request failed")
		return err
	}

	raw := body.([]byte)
	if err := json.Unmarshal(raw, dst); err != nil {
		return fmt.Errorf("decoding response: %w (body: %s)", err, preview(raw))
	}
	return nil
}

func (c *Client) do(ctx context.Context, u string, headers map[string]string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return nil, fmt.Errorf("building request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	if c.cfg.ESPNS2 != "" {
		req.AddCookie(&http.Cookie{Name: "espn_s2", Value: c.cfg.ESPNS2})
	}
	if c.cfg.SWID != "" {
		req.AddCookie(&http.Cookie{Name: "SWID", Value: c.cfg.SWID})
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request: %w", err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, 32<<20))
	if err != nil {
		return nil, fmt.Errorf("reading body: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, fmt.Errorf("%w: status %d: %s", ErrUpstream, resp.StatusCode, preview(raw))
	}
	// ESPN answers some auth failures with an HTML page and a 200.
	if len(raw) > 0 && raw[0] == '<' {
		return nil, fmt.Errorf("%w: HTML error page: %s", ErrUpstream, preview(raw))
	}

	c.log.WithField("bytes", len(raw)).Debug("✓ ESPN response")
	return raw, nil
}

func preview(b []byte) string {
	if len(b) > 200 {
		b = b[:200]
	}
	return string(b)
}
