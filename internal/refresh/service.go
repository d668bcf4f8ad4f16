package refresh

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/fortuna/juno/internal/league"
	"github.com/fortuna/juno/internal/logger"
	"github.com/sirupsen/logrus"
)

// ErrJobPending is returned when the league already has a queued or running job.
var ErrJobPending = errors.New("refresh already queued or running")

// Request represents a refresh invocation.
type Request struct {
	Trigger Trigger
	Periods []league.Period
}

// Service coordinates job persistence, execution, and status reporting.
type Service struct {
	repo     JobStore
	runner   *Runner
	leagueID string

	historyLimit int
	pollInterval time.Duration

	wake chan struct{}

	mu        sync.RWMutex
	listeners []func(Event)

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup

	log *logrus.Entry
}

// NewService constructs a Service. Call Start to launch the worker.
func NewService(repo JobStore, runner *Runner, leagueID string) *Service {
	ctx, cancel := context.WithCancel(context.Background())
	return &Service{
		repo:         repo,
		runner:       runner,
		leagueID:     leagueID,
		historyLimit: 10,
		pollInterval: 3 * time.Second,
		wake:         make(chan struct{}, 1),
		ctx:          ctx,
		cancel:       cancel,
		log:          logger.WithComponent("refresh"),
	}
}

// Subscribe registers a listener for job events. Listeners run on the
// worker goroutine and must not block.
func (s *Service) Subscribe(fn func(Event)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.listeners = append(s.listeners, fn)
}

func (s *Service) emit(ev Event) {
	if ev.At.IsZero() {
		ev.At = time.Now().UTC()
	}
	s.mu.RLock()
	listeners := append([]func(Event){}, s.listeners...)
	s.mu.RUnlock()
	for _, fn := range listeners {
		fn(ev)
	}
}

// Start launches the background worker loop.
func (s *Service) Start() {
	if err := s.repo.ResetStuckJobs(s.ctx); err != nil {
		s.log.WithError(err).Warn("⚠️  failed to reset stuck jobs")
	}

	s.wg.Add(1)
	go s.worker()
}

// Shutdown stops the worker and waits for the current job to return.
func (s *Service) Shutdown(ctx context.Context) error {
	s.cancel()

	done := make(chan struct{})
	go func() {
		defer close(done)
		s.wg.Wait()
	}()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-done:
		return nil
	}
}

// Enqueue creates a new job unless one is already pending for the league.
func (s *Service) Enqueue(ctx context.Context, req Request) (*JobView, error) {
	if len(req.Periods) == 0 {
		return nil, fmt.Errorf("refresh requires at least one period")
	}
	if req.Trigger == "" {
		req.Trigger = TriggerManual
	}

	pending, err := s.repo.HasPendingJob(ctx, s.leagueID)
	if err != nil {
		return nil, err
	}
	if pending {
		return nil, ErrJobPending
	}

	periods := make([]string, len(req.Periods))
	for i, p := range req.Periods {
		periods[i] = p.String()
	}

	job := &Job{
		Trigger:       req.Trigger,
		LeagueID:      s.leagueID,
		Periods:       periods,
		Status:        JobStatusQueued,
		StatusMessage: sql.NullString{String: "Queued", Valid: true},
		ProgressTotal: len(periods),
	}

	stored, err := s.repo.CreateJob(ctx, job)
	if err != nil {
		return nil, err
	}

	s.warnOnError(s.repo.AppendEvent(ctx, stored.JobID, EventQueued, "Job queued", nil, nil), stored.JobID, "append queued event")
	s.emit(Event{Type: EventQueued, JobID: stored.JobID, Message: "Job queued", Total: stored.ProgressTotal})

	select {
	case s.wake <- struct{}{}:
	default:
	}

	s.log.WithFields(logrus.Fields{
		"job_id":  stored.JobID,
		"trigger": stored.Trigger,
		"periods": periods,
	}).Info("✓ refresh job queued")
	return stored.View(), nil
}

// GetStatus returns the currently running job plus recent history.
func (s *Service) GetStatus(ctx context.Context) (*StatusSummary, error) {
	active, err := s.repo.GetActiveJob(ctx)
	if err != nil {
		return nil, err
	}

	history, err := s.repo.ListRecentJobs(ctx, s.historyLimit)
	if err != nil {
		return nil, err
	}

	summary := &StatusSummary{ActiveJob: active.View()}
	for _, j := range history {
		summary.History = append(summary.History, j.View())
	}
	return summary, nil
}

func (s *Service) worker() {
	defer s.wg.Done()

	ticker := time.NewTicker(s.pollInterval)
	defer ticker.Stop()

	for {
		if s.ctx.Err() != nil {
			return
		}

		job, err := s.repo.MarkNextJobRunning(s.ctx)
		if err != nil {
			s.log.WithError(err).Error("❌ claim job error")
			select {
			case <-s.ctx.Done():
				return
			case <-time.After(time.Second):
			}
			continue
		}
		if job == nil {
			select {
			case <-s.ctx.Done():
				return
			case <-s.wake:
			case <-ticker.C:
			}
			continue
		}

		s.executeJob(job)
	}
}

func (s *Service) executeJob(job *Job) {
	log := logger.WithJob(job.JobID)

	spec, err := buildSpec(job)
	if err != nil {
		log.WithError(err).Error("❌ invalid job spec")
		s.warnOnError(s.repo.UpdateStatus(s.ctx, job.JobID, JobStatusFailed, "Invalid job specification", err), job.JobID, "mark job failed")
		s.emit(Event{Type: EventFailed, JobID: job.JobID, Message: err.Error()})
		return
	}

	reporter := &jobReporter{
		ctx:   s.ctx,
		svc:   s,
		jobID: job.JobID,
		total: len(spec.Periods),
	}

	start := time.Now()
	if err := s.runner.Run(s.ctx, spec, reporter); err != nil {
		log.WithError(err).Error("❌ refresh job failed")
		s.warnOnError(s.repo.UpdateStatus(s.ctx, job.JobID, JobStatusFailed, "Job failed", err), job.JobID, "mark job failed")
		s.emit(Event{Type: EventFailed, JobID: job.JobID, Message: err.Error(), Current: reporter.current, Total: reporter.total})
		return
	}

	s.warnOnError(s.repo.UpdateStatus(s.ctx, job.JobID, JobStatusCompleted, "Job completed", nil), job.JobID, "mark job completed")
	s.emit(Event{Type: EventCompleted, JobID: job.JobID, Message: "Job completed", Current: reporter.total, Total: reporter.total})
	log.WithField("duration", time.Since(start).String()).Info("✓ refresh job completed")
}

// warnOnError logs job store failures that should not abort the job.
func (s *Service) warnOnError(err error, jobID, op string) {
	if err == nil {
		return
	}
	s.log.WithError(err).WithFields(logrus.Fields{"job_id": jobID, "op": op}).Warn("⚠️  job store write failed")
}

func buildSpec(job *Job) (JobSpec, error) {
	spec := JobSpec{JobID: job.JobID}
	if len(job.Periods) == 0 {
		return spec, fmt.Errorf("job missing periods")
	}
	for _, raw := range job.Periods {
		p, err := league.ParsePeriod(raw)
		if err != nil {
			return spec, err
		}
		spec.Periods = append(spec.Periods, p)
	}
	return spec, nil
}

type jobReporter struct {
	ctx     context.Context
	svc     *Service
	jobID   string
	total   int
	current int
}

func (r *jobReporter) OnJobStart(spec JobSpec) {
	r.warn(r.svc.repo.UpdateProgress(r.ctx, r.jobID, 0, r.total, "Job starting"), "update progress")
	r.warn(r.svc.repo.AppendEvent(r.ctx, r.jobID, EventStarted, "Job started", nil, nil), "append started event")
	r.svc.emit(Event{Type: EventStarted, JobID: r.jobID, Message: "Job started", Total: r.total})
}

func (r *jobReporter) OnPeriodStart(period league.Period, index int, total int) {
	msg := fmt.Sprintf("Fetching %s (%d/%d)", period, index+1, total)
	r.warn(r.svc.repo.UpdateProgress(r.ctx, r.jobID, index, total, msg), "update progress")
	r.svc.emit(Event{Type: EventPeriod, JobID: r.jobID, Message: msg, Period: period.String(), Current: index, Total: total})
}

func (r *jobReporter) OnSnapshot(snap *league.Snapshot) {
	r.current++
	msg := fmt.Sprintf("✓ %s snapshot stored (%d players)", snap.Period, len(snap.Players))
	current, total := r.current, r.total
	r.warn(r.svc.repo.UpdateProgress(r.ctx, r.jobID, current, total, msg), "update progress")
	r.warn(r.svc.repo.AppendEvent(r.ctx, r.jobID, EventSnapshot, msg, &current, &total), "append snapshot event")
	r.svc.emit(Event{
		Type:       EventSnapshot,
		JobID:      r.jobID,
		Message:    msg,
		Period:     snap.Period.String(),
		SnapshotID: snap.ID.String(),
		Current:    current,
		Total:      total,
	})
}

func (r *jobReporter) OnJobComplete() {
	r.warn(r.svc.repo.UpdateProgress(r.ctx, r.jobID, r.total, r.total, "Job complete"), "update progress")
}

func (r *jobReporter) OnJobError(err error) {
	r.warn(r.svc.repo.AppendEvent(r.ctx, r.jobID, EventFailed, err.Error(), nil, nil), "append failed event")
}

func (r *jobReporter) warn(err error, op string) {
	r.svc.warnOnError(err, r.jobID, op)
}
