package scheduler

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/fortuna/juno/internal/league"
	"github.com/fortuna/juno/internal/logger"
	"github.com/fortuna/juno/internal/refresh"
	"github.com/robfig/cron/v3"
	"github.com/sirupsen/logrus"
)

// Enqueuer accepts refresh requests.
type Enqueuer interface {
	Enqueue(ctx context.Context, req refresh.Request) (*refresh.JobView, error)
}

// Pruner trims stored snapshot history.
type Pruner interface {
	Prune(ctx context.Context, leagueID string, keep int) (int64, error)
}

// Config holds scheduler configuration
type Config struct {
	Schedule   string          // cron spec, default "@every 5m"
	Periods    []league.Period // periods refreshed on each tick
	RunOnStart bool            // enqueue a startup refresh
	MaxRetries int             // Default: 3
	RetryDelay time.Duration   // Default: 5s

	PruneSchedule string // cron spec for snapshot pruning, default "@daily"
	PruneKeep     int    // snapshots kept per period; 0 disables pruning
}

// DefaultConfig returns default scheduler configuration
func DefaultConfig(season int) *Config {
	return &Config{
		Schedule:   "@every 5m",
		Periods:    []league.Period{league.DefaultPeriod(season)},
		RunOnStart: true,
		MaxRetries: 3,
		RetryDelay: 5 * time.Second,

		PruneSchedule: "@daily",
	}
}

// Orchestrator enqueues league refreshes on a cron schedule.
type Orchestrator struct {
	cron     *cron.Cron
	enqueuer Enqueuer
	config   *Config
	log      *logrus.Entry

	ctx    context.Context
	cancel context.CancelFunc

	pruner   Pruner
	leagueID string

	mu        sync.Mutex
	running   bool
	entryID   cron.EntryID
	pruned    int64
	lastRun   time.Time
	lastJobID string
	lastError string
	ticks     int
	skipped   int
}

// NewOrchestrator creates a new scheduler orchestrator
func NewOrchestrator(enqueuer Enqueuer, config *Config) (*Orchestrator, error) {
	if config == nil || len(config.Periods) == 0 {
		return nil, fmt.Errorf("scheduler requires at least one period")
	}
	if config.Schedule == "" {
		config.Schedule = "@every 5m"
	}
	if config.MaxRetries <= 0 {
		config.MaxRetries = 1
	}
	if config.PruneSchedule == "" {
		config.PruneSchedule = "@daily"
	}

	log := logger.WithComponent("scheduler")
	ctx, cancel := context.WithCancel(context.Background())
	return &Orchestrator{
		cron:     cron.New(cron.WithLogger(cron.VerbosePrintfLogger(log))),
		enqueuer: enqueuer,
		config:   config,
		log:      log,
		ctx:      ctx,
		cancel:   cancel,
	}, nil
}

// Start registers the refresh entry and starts the cron loop.
func (o *Orchestrator) Start() error {
	o.mu.Lock()
	defer o.mu.Unlock()

	if o.running {
		return fmt.Errorf("scheduler is already running")
	}

	id, err := o.cron.AddFunc(o.config.Schedule, func() { o.tick(refresh.TriggerScheduled) })
	if err != nil {
		return fmt.Errorf("invalid refresh schedule %q: %w", o.config.Schedule, err)
	}
	o.entryID = id
	if o.pruner != nil && o.config.PruneKeep > 0 {
		if _, err := o.cron.AddFunc(o.config.PruneSchedule, o.prune); err != nil {
			o.cron.Remove(id)
			return fmt.Errorf("invalid prune schedule %q: %w", o.config.PruneSchedule, err)
		}
	}
	o.cron.Start()
	o.running = true

	o.log.WithFields(logrus.Fields{
		"schedule": o.config.Schedule,
		"periods":  len(o.config.Periods),
	}).Info("✓ scheduler started")

	if o.config.RunOnStart {
		go o.tick(refresh.TriggerStartup)
	}
	return nil
}

// Stop stops the cron loop and waits briefly for a running tick.
func (o *Orchestrator) Stop() {
	o.mu.Lock()
	defer o.mu.Unlock()

	if !o.running {
		return
	}
	o.cancel()

	ctx := o.cron.Stop()
	select {
	case <-ctx.Done():
		o.log.Info("✓ scheduler stopped")
	case <-time.After(5 * time.Second):
		o.log.Warn("⚠️  scheduler stop timed out")
	}
	o.running = false
}

// SetPruner enables periodic snapshot pruning for the league. Call it
// before Start.
func (o *Orchestrator) SetPruner(p Pruner, leagueID string) {
	o.pruner = p
	o.leagueID = leagueID
}

func (o *Orchestrator) prune() {
	ctx, cancel := context.WithTimeout(o.ctx, time.Minute)
	defer cancel()

	n, err := o.pruner.Prune(ctx, o.leagueID, o.config.PruneKeep)
	if err != nil {
		o.log.WithError(err).Warn("⚠️  snapshot prune failed")
		return
	}
	o.mu.Lock()
	o.pruned += n
	o.mu.Unlock()
	if n > 0 {
		o.log.WithField("deleted", n).Info("✓ pruned old snapshots")
	}
}

// TriggerNow enqueues a refresh outside the schedule.
func (o *Orchestrator) TriggerNow(ctx context.Context) (*refresh.JobView, error) {
	return o.enqueuer.Enqueue(ctx, refresh.Request{Trigger: refresh.TriggerManual, Periods: o.config.Periods})
}

func (o *Orchestrator) tick(trigger refresh.Trigger) {
	o.mu.Lock()
	o.ticks++
	o.lastRun = time.Now().UTC()
	o.mu.Unlock()

	var lastErr error
	for attempt := 1; attempt <= o.config.MaxRetries; attempt++ {
		job, err := o.enqueuer.Enqueue(o.ctx, refresh.Request{Trigger: trigger, Periods: o.config.Periods})
		if err == nil {
			o.record(job.JobID, "")
			return
		}
		if errors.Is(err, refresh.ErrJobPending) {
			o.mu.Lock()
			o.skipped++
			o.mu.Unlock()
			o.log.Debug("⊘ refresh already pending, skipping tick")
			return
		}

		lastErr = err
		o.log.WithError(err).WithField("attempt", attempt).Warn("⚠️  enqueue refresh failed")
		if attempt < o.config.MaxRetries {
			select {
			case <-o.ctx.Done():
				return
			case <-time.After(o.config.RetryDelay):
			}
		}
	}

	o.log.WithError(lastErr).Errorf("❌ all %d enqueue attempts failed", o.config.MaxRetries)
	o.record("", lastErr.Error())
}

func (o *Orchestrator) record(jobID, errText string) {
	o.mu.Lock()
	defer o.mu.Unlock()
	if jobID != "" {
		o.lastJobID = jobID
	}
	o.lastError = errText
}

// GetStatus returns scheduler state for the status endpoint.
func (o *Orchestrator) GetStatus() map[string]interface{} {
	o.mu.Lock()
	defer o.mu.Unlock()

	periods := make([]string, len(o.config.Periods))
	for i, p := range o.config.Periods {
		periods[i] = p.String()
	}

	status := map[string]interface{}{
		"running":  o.running,
		"schedule": o.config.Schedule,
		"periods":  periods,
		"ticks":    o.ticks,
		"skipped":  o.skipped,
		"pruned":   o.pruned,
	}
	if !o.lastRun.IsZero() {
		status["last_run"] = o.lastRun
	}
	if o.lastJobID != "" {
		status["last_job_id"] = o.lastJobID
	}
	if o.lastError != "" {
		status["last_error"] = o.lastError
	}
	if o.running {
		if next := o.cron.Entry(o.entryID).Next; !next.IsZero() {
			status["next_run"] = next
		}
	}
	return status
}
