package refresh

import (
	"context"
	"fmt"

	"github.com/fortuna/juno/internal/league"
)

// Sink receives every snapshot a job produces.
type Sink interface {
	Accept(ctx context.Context, snap *league.Snapshot) error
}

// Runner fetches one snapshot per period from the provider.
type Runner struct {
	provider league.Provider
	sink     Sink
	leagueID string
	season   int
}

// NewRunner constructs a runner for one league.
func NewRunner(provider league.Provider, sink Sink, leagueID string, season int) *Runner {
	return &Runner{
		provider: provider,
		sink:     sink,
		leagueID: leagueID,
		season:   season,
	}
}

// Run executes the job spec, reporting progress via the Reporter if provided.
// Teams are fetched once and shared by every period's snapshot.
func (r *Runner) Run(ctx context.Context, spec JobSpec, reporter Reporter) error {
	if reporter != nil {
		reporter.OnJobStart(spec)
	}

	fail := func(err error) error {
		if reporter != nil {
			reporter.OnJobError(err)
		}
		return err
	}

	if len(spec.Periods) == 0 {
		return fail(fmt.Errorf("job %s has no periods", spec.JobID))
	}

	teams, err := r.provider.Teams(ctx)
	if err != nil {
		return fail(fmt.Errorf("fetching teams: %w", err))
	}

	total := len(spec.Periods)
	for idx, period := range spec.Periods {
		if err := ctx.Err(); err != nil {
			return err
		}
		if reporter != nil {
			reporter.OnPeriodStart(period, idx, total)
		}

		players, err := r.provider.PlayerStats(ctx, period)
		if err != nil {
			return fail(fmt.Errorf("fetching %s stats: %w", period, err))
		}

		snap := league.NewSnapshot(r.leagueID, r.season, period, teams, players)
		if err := r.sink.Accept(ctx, snap); err != nil {
			return fail(fmt.Errorf("storing %s snapshot: %w", period, err))
		}
		if reporter != nil {
			reporter.OnSnapshot(snap)
		}
	}

	if reporter != nil {
		reporter.OnJobComplete()
	}
	return nil
}
