package cron

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"go.uber.org/multierr"

	"github.com/angelmondragon/catering-backend/pkg/logger"
)

type fakeLock struct {
	held       bool
	acquireErr error
	releases   int
	extends    int
	// lostAfter makes Extend fail once this many extends succeeded; zero
	// never loses the lease.
	lostAfter int
}

func (f *fakeLock) Extend(context.Context) (bool, error) {
	if f.lostAfter > 0 && f.extends >= f.lostAfter {
		return false, nil
	}
	f.extends++
	return f.held, nil
}

func (f *fakeLock) Acquire(context.Context) (bool, error) {
	if f.acquireErr != nil {
		return false, f.acquireErr
	}
	if f.held {
		return false, nil
	}
	f.held = true
	return true, nil
}

func (f *fakeLock) Release(context.Context) error {
	f.held = false
	f.releases++
	return nil
}

type testJob struct {
	name     string
	err      error
	runs     int
	deadline bool
}

func (j *testJob) Name() string { return j.name }

func (j *testJob) Run(ctx context.Context) error {
	j.runs++
	_, j.deadline = ctx.Deadline()
	return j.err
}

type fakeRecorder struct {
	success map[string]int
	failure map[string]int
	timed   map[string]int
}

func newFakeRecorder() *fakeRecorder {
	return &fakeRecorder{success: map[string]int{}, failure: map[string]int{}, timed: map[string]int{}}
}

func (f *fakeRecorder) ObserveRun(job string, _ time.Duration, err error) {
	f.timed[job]++
	if err != nil {
		f.failure[job]++
		return
	}
	f.success[job]++
}

func newTestCronService(t *testing.T, lock Lock, rec jobRecorder, jobs ...Job) *Service {
	t.Helper()
	svc, err := NewService(ServiceParams{
		Logger:   logger.New(logger.Options{ServiceName: "cron-test"}),
		Registry: NewRegistry(jobs...),
		Lock:     lock,
		Metrics:  rec,
	})
	require.NoError(t, err)
	return svc
}

func TestRunOnceRunsEveryJobAndCombinesFailures(t *testing.T) {
	overdue := &testJob{name: "invoice-overdue", err: errors.New("db down")}
	reminders := &testJob{name: "contract-reminder"}
	retention := &testJob{name: "outbox-retention", err: errors.New("locked table")}
	lock := &fakeLock{}
	rec := newFakeRecorder()

	svc := newTestCronService(t, lock, rec, overdue, reminders, retention)
	err := svc.RunOnce(context.Background())

	require.Error(t, err)
	require.Len(t, multierr.Errors(err), 2)
	require.Contains(t, err.Error(), "invoice-overdue")
	require.Contains(t, err.Error(), "outbox-retention")
	for _, job := range []*testJob{overdue, reminders, retention} {
		require.Equal(t, 1, job.runs, job.name)
		require.True(t, job.deadline, "job %s should run with a timeout", job.name)
	}
	require.Equal(t, 1, rec.success["contract-reminder"])
	require.Equal(t, 1, rec.failure["invoice-overdue"])
	require.Equal(t, 3, len(rec.timed))
	require.Equal(t, 2, lock.extends, "lease renewed before every job after the first")
	require.Equal(t, 1, lock.releases)
	require.False(t, lock.held)
}

func TestRunOnceStopsWhenLeaseLost(t *testing.T) {
	first := &testJob{name: "invoice-overdue"}
	second := &testJob{name: "contract-reminder"}
	third := &testJob{name: "outbox-retention"}
	lock := &fakeLock{lostAfter: 1}

	svc := newTestCronService(t, lock, nil, first, second, third)
	err := svc.RunOnce(context.Background())

	require.ErrorIs(t, err, errLockLost)
	require.Equal(t, 1, first.runs)
	require.Equal(t, 1, second.runs)
	require.Zero(t, third.runs)
}

func TestRunOnceSkipsWhenLockHeld(t *testing.T) {
	job := &testJob{name: "invoice-overdue"}
	lock := &fakeLock{held: true}

	svc := newTestCronService(t, lock, nil, job)
	require.NoError(t, svc.RunOnce(context.Background()))
	require.Zero(t, job.runs)
	require.Zero(t, lock.releases)
}

func TestRunOnceReportsLockErrors(t *testing.T) {
	job := &testJob{name: "invoice-overdue"}
	svc := newTestCronService(t, &fakeLock{acquireErr: errors.New("redis unavailable")}, nil, job)

	err := svc.RunOnce(context.Background())
	require.ErrorContains(t, err, "lock acquire")
	require.Zero(t, job.runs)
}

func TestRunStopsOnCancel(t *testing.T) {
	job := &testJob{name: "contract-reminder"}
	svc := newTestCronService(t, &fakeLock{}, nil, job)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	err := svc.Run(ctx)
	require.ErrorIs(t, err, context.Canceled)
	require.Zero(t, job.runs, "a canceled context should not start jobs")
}

func TestNewServiceRequiresLock(t *testing.T) {
	_, err := NewService(ServiceParams{Logger: logger.New(logger.Options{ServiceName: "cron-test"})})
	require.Error(t, err)
}
