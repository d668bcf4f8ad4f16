package refresh

import (
	"database/sql"
	"time"

	"github.com/fortuna/juno/internal/league"
	"github.com/lib/pq"
)

// Trigger records what enqueued a job.
type Trigger string

const (
	TriggerManual    Trigger = "manual"
	TriggerScheduled Trigger = "scheduled"
	TriggerStartup   Trigger = "startup"
)

// JobStatus represents the lifecycle state for a job.
type JobStatus string

const (
	JobStatusQueued    JobStatus = "queued"
	JobStatusRunning   JobStatus = "running"
	JobStatusCompleted JobStatus = "completed"
	JobStatusFailed    JobStatus = "failed"
	JobStatusCancelled JobStatus = "cancelled"
)

// Terminal reports whether the status ends a job.
func (s JobStatus) Terminal() bool {
	return s == JobStatusCompleted || s == JobStatusFailed || s == JobStatusCancelled
}

// Job models the database representation of a refresh job.
type Job struct {
	JobID           string
	Trigger         Trigger
	LeagueID        string
	Periods         pq.StringArray
	Status          JobStatus
	StatusMessage   sql.NullString
	ProgressCurrent int
	ProgressTotal   int
	LastError       sql.NullString
	RetryCount      int
	CreatedAt       time.Time
	UpdatedAt       time.Time
	StartedAt       sql.NullTime
	CompletedAt     sql.NullTime
}

// JobView is the API representation of a Job.
type JobView struct {
	JobID           string     `json:"job_id"`
	Trigger         Trigger    `json:"trigger"`
	LeagueID        string     `json:"league_id"`
	Periods         []string   `json:"periods"`
	Status          JobStatus  `json:"status"`
	StatusMessage   string     `json:"status_message,omitempty"`
	ProgressCurrent int        `json:"progress_current"`
	ProgressTotal   int        `json:"progress_total"`
	LastError       string     `json:"last_error,omitempty"`
	CreatedAt       time.Time  `json:"created_at"`
	StartedAt       *time.Time `json:"started_at,omitempty"`
	CompletedAt     *time.Time `json:"completed_at,omitempty"`
}

// View flattens the nullable columns.
func (j *Job) View() *JobView {
	if j == nil {
		return nil
	}
	v := &JobView{
		JobID:           j.JobID,
		Trigger:         j.Trigger,
		LeagueID:        j.LeagueID,
		Periods:         append([]string(nil), j.Periods...),
		Status:          j.Status,
		StatusMessage:   j.StatusMessage.String,
		ProgressCurrent: j.ProgressCurrent,
		ProgressTotal:   j.ProgressTotal,
		LastError:       j.LastError.String,
		CreatedAt:       j.CreatedAt,
	}
	if j.StartedAt.Valid {
		t := j.StartedAt.Time
		v.StartedAt = &t
	}
	if j.CompletedAt.Valid {
		t := j.CompletedAt.Time
		v.CompletedAt = &t
	}
	return v
}

// JobSpec describes the work to be performed by the runner.
type JobSpec struct {
	JobID   string
	Periods []league.Period
}

// Reporter receives lifecycle callbacks from the runner.
type Reporter interface {
	OnJobStart(spec JobSpec)
	OnPeriodStart(period league.Period, index int, total int)
	OnSnapshot(snap *league.Snapshot)
	OnJobComplete()
	OnJobError(err error)
}

// EventType names a job event.
type EventType string

const (
	EventQueued    EventType = "queued"
	EventStarted   EventType = "started"
	EventPeriod    EventType = "period"
	EventSnapshot  EventType = "snapshot"
	EventCompleted EventType = "completed"
	EventFailed    EventType = "failed"
)

// Event is pushed to listeners, e.g. websocket clients.
type Event struct {
	Type       EventType `json:"type"`
	JobID      string    `json:"job_id"`
	Message    string    `json:"message,omitempty"`
	Period     string    `json:"period,omitempty"`
	SnapshotID string    `json:"snapshot_id,omitempty"`
	Current    int       `json:"progress_current"`
	Total      int       `json:"progress_total"`
	At         time.Time `json:"at"`
}

// StatusSummary is returned to API callers.
type StatusSummary struct {
	ActiveJob *JobView   `json:"active_job,omitempty"`
	History   []*JobView `json:"recent_jobs,omitempty"`
}
