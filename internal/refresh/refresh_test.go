package refresh

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/fortuna/juno/internal/league"
	"github.com/sirupsen/logrus"
	logtest "github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type memStore struct {
	mu     sync.Mutex
	seq    int
	jobs   []*Job
	events []EventType
}

func (m *memStore) find(id string) *Job {
	for _, j := range m.jobs {
		if j.JobID == id {
			return j
		}
	}
	return nil
}

func (m *memStore) CreateJob(_ context.Context, job *Job) (*Job, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.seq++
	cpy := *job
	cpy.JobID = fmt.Sprintf("job-%d", m.seq)
	cpy.CreatedAt = time.Now()
	m.jobs = append(m.jobs, &cpy)
	out := cpy
	return &out, nil
}

func (m *memStore) UpdateStatus(_ context.Context, jobID string, status JobStatus, message string, lastErr error) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	j := m.find(jobID)
	j.Status = status
	j.StatusMessage = sql.NullString{String: message, Valid: true}
	if lastErr != nil {
		j.LastError = sql.NullString{String: lastErr.Error(), Valid: true}
	}
	if status.Terminal() {
		j.CompletedAt = sql.NullTime{Time: time.Now(), Valid: true}
	}
	return nil
}

func (m *memStore) UpdateProgress(_ context.Context, jobID string, current, total int, message string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	j := m.find(jobID)
	j.ProgressCurrent, j.ProgressTotal = current, total
	return nil
}

func (m *memStore) AppendEvent(_ context.Context, _ string, eventType EventType, _ string, _, _ *int) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.events = append(m.events, eventType)
	return nil
}

func (m *memStore) ResetStuckJobs(context.Context) error { return nil }

func (m *memStore) MarkNextJobRunning(context.Context) (*Job, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, j := range m.jobs {
		if j.Status == JobStatusQueued {
			j.Status = JobStatusRunning
			j.StartedAt = sql.NullTime{Time: time.Now(), Valid: true}
			out := *j
			return &out, nil
		}
	}
	return nil, nil
}

func (m *memStore) GetActiveJob(context.Context) (*Job, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, j := range m.jobs {
		if j.Status == JobStatusRunning {
			out := *j
			return &out, nil
		}
	}
	return nil, nil
}

func (m *memStore) HasPendingJob(_ context.Context, leagueID string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, j := range m.jobs {
		if j.LeagueID == leagueID && !j.Status.Terminal() {
			return true, nil
		}
	}
	return false, nil
}

func (m *memStore) ListRecentJobs(_ context.Context, limit int) ([]*Job, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []*Job
	for i := len(m.jobs) - 1; i >= 0 && len(out) < limit; i-- {
		cpy := *m.jobs[i]
		out = append(out, &cpy)
	}
	return out, nil
}

func (m *memStore) status(id string) JobStatus {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.find(id).Status
}

type fakeProvider struct {
	statsErr error
}

func (f *fakeProvider) Teams(context.Context) ([]league.Team, error) {
	return []league.Team{{ID: 1, Name: "Alpha"}, {ID: 2, Name: "Beta"}}, nil
}

func (f *fakeProvider) PlayerStats(_ context.Context, period league.Period) ([]league.PlayerStatLine, error) {
	if f.statsErr != nil {
		return nil, f.statsErr
	}
	return []league.PlayerStatLine{
		{Name: "P1", TeamID: 1, Stats: league.StatLine{Points: league.Float(20)}},
		{Name: "P2", TeamID: 2, Stats: league.StatLine{Points: league.Float(10)}},
	}, nil
}

func (f *fakeProvider) BoxScore(context.Context, int, int) (*league.TeamBoxScore, error) {
	return nil, nil
}

func (f *fakeProvider) CurrentWeek(context.Context) (int, error) { return 1, nil }

type memSink struct {
	mu    sync.Mutex
	snaps []*league.Snapshot
}

func (s *memSink) Accept(_ context.Context, snap *league.Snapshot) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.snaps = append(s.snaps, snap)
	return nil
}

func (s *memSink) count() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.snaps)
}

func periods(t *testing.T, raw ...string) []league.Period {
	t.Helper()
	var out []league.Period
	for _, r := range raw {
		p, err := league.ParsePeriod(r)
		require.NoError(t, err)
		out = append(out, p)
	}
	return out
}

func newTestService(provider league.Provider, sink Sink) (*Service, *memStore) {
	repo := &memStore{}
	svc := NewService(repo, NewRunner(provider, sink, "42", 2026), "42")
	svc.pollInterval = 10 * time.Millisecond
	return svc, repo
}

func TestService_RunsQueuedJob(t *testing.T) {
	sink := &memSink{}
	svc, repo := newTestService(&fakeProvider{}, sink)

	var mu sync.Mutex
	var seen []EventType
	svc.Subscribe(func(ev Event) {
		mu.Lock()
		defer mu.Unlock()
		seen = append(seen, ev.Type)
	})

	job, err := svc.Enqueue(context.Background(), Request{Periods: periods(t, "2026_total", "2026_last_15")})
	require.NoError(t, err)
	assert.Equal(t, TriggerManual, job.Trigger)
	assert.Equal(t, []string{"2026_total", "2026_last_15"}, job.Periods)
	assert.Equal(t, 2, job.ProgressTotal)

	svc.Start()
	defer svc.Shutdown(context.Background())

	require.Eventually(t, func() bool {
		return repo.status(job.JobID) == JobStatusCompleted
	}, 2*time.Second, 10*time.Millisecond)

	assert.Equal(t, 2, sink.count())
	sink.mu.Lock()
	assert.Equal(t, league.WindowLast15, sink.snaps[1].Period.Window)
	assert.Equal(t, "42", sink.snaps[0].LeagueID)
	assert.Len(t, sink.snaps[0].Teams, 2)
	sink.mu.Unlock()

	mu.Lock()
	defer mu.Unlock()
	assert.Equal(t, EventQueued, seen[0])
	assert.Contains(t, seen, EventStarted)
	assert.Contains(t, seen, EventSnapshot)
	assert.Equal(t, EventCompleted, seen[len(seen)-1])
}

func TestService_EnqueueRejectsPending(t *testing.T) {
	svc, _ := newTestService(&fakeProvider{}, &memSink{})

	_, err := svc.Enqueue(context.Background(), Request{Periods: periods(t, "2026_total")})
	require.NoError(t, err)

	_, err = svc.Enqueue(context.Background(), Request{Trigger: TriggerScheduled, Periods: periods(t, "2026_total")})
	assert.ErrorIs(t, err, ErrJobPending)
}

func TestService_EnqueueRequiresPeriods(t *testing.T) {
	svc, _ := newTestService(&fakeProvider{}, &memSink{})
	_, err := svc.Enqueue(context.Background(), Request{})
	assert.Error(t, err)
}

func TestService_FailedJob(t *testing.T) {
	sink := &memSink{}
	svc, repo := newTestService(&fakeProvider{statsErr: errors.New("espn down")}, sink)

	job, err := svc.Enqueue(context.Background(), Request{Periods: periods(t, "2026_total")})
	require.NoError(t, err)

	svc.Start()
	defer svc.Shutdown(context.Background())

	require.Eventually(t, func() bool {
		return repo.status(job.JobID) == JobStatusFailed
	}, 2*time.Second, 10*time.Millisecond)
	assert.Zero(t, sink.count())

	status, err := svc.GetStatus(context.Background())
	require.NoError(t, err)
	assert.Nil(t, status.ActiveJob)
	require.Len(t, status.History, 1)
	assert.Contains(t, status.History[0].LastError, "espn down")
	assert.NotNil(t, status.History[0].CompletedAt)

	_, err = svc.Enqueue(context.Background(), Request{Periods: periods(t, "2026_total")})
	assert.NoError(t, err, "failed jobs do not block new ones")
}

type eventlessStore struct {
	*memStore
}

func (eventlessStore) AppendEvent(context.Context, string, EventType, string, *int, *int) error {
	return errors.New("events table locked")
}

func TestService_StoreWriteFailuresAreLogged(t *testing.T) {
	repo := eventlessStore{memStore: &memStore{}}
	svc := NewService(repo, NewRunner(&fakeProvider{}, &memSink{}, "42", 2026), "42")
	svc.pollInterval = 10 * time.Millisecond
	log, hook := logtest.NewNullLogger()
	svc.log = logrus.NewEntry(log)

	job, err := svc.Enqueue(context.Background(), Request{Periods: periods(t, "2026_total")})
	require.NoError(t, err)

	svc.Start()
	defer svc.Shutdown(context.Background())

	require.Eventually(t, func() bool {
		return repo.status(job.JobID) == JobStatusCompleted
	}, 2*time.Second, 10*time.Millisecond)

	var warned int
	for _, entry := range hook.AllEntries() {
		if entry.Level == logrus.WarnLevel && entry.Data["op"] != nil {
			warned++
			assert.Equal(t, job.JobID, entry.Data["job_id"])
		}
	}
	assert.GreaterOrEqual(t, warned, 3, "queued, started and snapshot events all fail")
}

func TestBuildSpec(t *testing.T) {
	spec, err := buildSpec(&Job{JobID: "j", Periods: []string{"2026_total", "2025_projected"}})
	require.NoError(t, err)
	assert.Equal(t, periods(t, "2026_total", "2025_projected"), spec.Periods)

	_, err = buildSpec(&Job{JobID: "j", Periods: []string{"bogus"}})
	assert.Error(t, err)

	_, err = buildSpec(&Job{JobID: "j"})
	assert.Error(t, err)
}
