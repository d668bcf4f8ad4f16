package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/fortuna/juno/internal/category"
	"github.com/fortuna/juno/internal/config"
	"github.com/fortuna/juno/internal/ingest/espn"
	"github.com/fortuna/juno/internal/league"
	"github.com/fortuna/juno/internal/logger"
	"github.com/fortuna/juno/internal/refresh"
	"github.com/fortuna/juno/internal/service"
	"github.com/sirupsen/logrus"
)

const (
	appName    = "juno-zrank"
	appVersion = "1.0.0"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		logrus.Fatalf("load config: %v", err)
	}

	var (
		leagueID  = flag.String("league", cfg.LeagueID, "ESPN league id")
		season    = flag.Int("season", cfg.Season, "Season year")
		periodStr = flag.String("period", "", "Stat period, e.g. 2026_last_15 (default season total)")
		teamID    = flag.Int("team", 0, "Only list this fantasy team (0 = all teams)")
		limit     = flag.Int("limit", 25, "Players printed (0 = all)")
		excludeIR = flag.Bool("exclude-ir", false, "Drop players stashed in IR slots")
		puntStr   = flag.String("punt", "", "Comma separated punted categories, e.g. FG%,TO")
		asJSON    = flag.Bool("json", false, "Print JSON instead of a table")
		verbose   = flag.Bool("v", false, "Log fetch progress")
	)
	flag.Parse()

	level := "warn"
	if *verbose {
		level = "debug"
	}
	log := logger.InitLogger(level, true)
	log.Infof("=== %s v%s ===", appName, appVersion)

	period := league.DefaultPeriod(*season)
	if *periodStr != "" {
		if period, err = league.ParsePeriod(*periodStr); err != nil {
			log.Fatalf("invalid -period: %v", err)
		}
	}
	punt, err := category.ParseList(*puntStr)
	if err != nil {
		log.Fatalf("invalid -punt: %v", err)
	}

	provider := espn.NewProvider(espn.NewClient(espn.ClientConfig{
		BaseURL:   cfg.ESPNAPIBase,
		LeagueID:  *leagueID,
		Season:    *season,
		ESPNS2:    cfg.ESPNS2,
		SWID:      cfg.SWID,
		RateLimit: cfg.ESPNRateLimit,
	}))
	source := service.NewSnapshotSource(provider, *leagueID, *season)

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()

	runner := refresh.NewRunner(provider, source, *leagueID, *season)
	spec := refresh.JobSpec{JobID: "zrank", Periods: []league.Period{period}}
	if err := runner.Run(ctx, spec, &consoleReporter{log: log}); err != nil {
		log.Fatalf("fetch failed: %v", err)
	}

	view, err := service.NewAnalyticsService(source).AllPlayers(ctx, service.PlayersQuery{
		Period:    period,
		ExcludeIR: *excludeIR,
		TeamID:    *teamID,
		Punt:      punt,
		Limit:     *limit,
	})
	if err != nil {
		log.Fatalf("ranking failed: %v", err)
	}

	if *asJSON {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		if err := enc.Encode(view); err != nil {
			log.Fatal(err)
		}
		return
	}
	printTable(view, punt)
}

func printTable(view *service.PlayersView, punt category.Set) {
	cats := punt.Active(category.All())

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	header := []string{"#", "PLAYER", "POS", "TEAM", "TOTAL Z"}
	for _, c := range cats {
		header = append(header, c.String())
	}
	fmt.Fprintln(w, strings.Join(header, "\t"))

	for _, p := range view.Players {
		row := []string{
			fmt.Sprint(p.Rank),
			p.Name,
			p.Position,
			p.TeamName,
			fmt.Sprintf("%.2f", p.TotalZ),
		}
		for _, c := range cats {
			row = append(row, fmt.Sprintf("%.2f", p.ZScores[c]))
		}
		fmt.Fprintln(w, strings.Join(row, "\t"))
	}
	w.Flush()

	fmt.Printf("\nPeriod %s, %d players", view.Period, len(view.Players))
	if len(punt) > 0 {
		fmt.Printf(", punting %s", strings.Join(punt.Strings(), ", "))
	}
	fmt.Println()
}

type consoleReporter struct {
	log *logrus.Logger
}

func (c *consoleReporter) OnJobStart(spec refresh.JobSpec) {
	c.log.Debugf("Fetching %d period(s)", len(spec.Periods))
}

func (c *consoleReporter) OnPeriodStart(period league.Period, index int, total int) {
	c.log.Debugf("[%d/%d] %s", index+1, total, period)
}

func (c *consoleReporter) OnSnapshot(snap *league.Snapshot) {
	c.log.Debugf("Snapshot %s: %d teams, %d players", snap.ID, len(snap.Teams), len(snap.Players))
}

func (c *consoleReporter) OnJobComplete() {
	c.log.Debug("Fetch complete")
}

func (c *consoleReporter) OnJobError(err error) {
	c.log.Errorf("Fetch error: %v", err)
}
