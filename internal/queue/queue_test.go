package queue

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testQueue(workers, maxAttempts int) *Queue {
	return New(Config{
		Workers:     workers,
		MaxAttempts: maxAttempts,
		BackoffBase: 5 * time.Millisecond,
	})
}

func TestScheduleRejectsPastTimes(t *testing.T) {
	q := testQueue(1, 3)

	_, err := q.Schedule(PublishJob{ContentID: "c1"}, time.Now().Add(-time.Minute))
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrPastSchedule)

	// The rejected job never entered any state.
	assert.Equal(t, Metrics{}, q.Metrics())
}

func TestAddAndProcess(t *testing.T) {
	q := testQueue(2, 3)
	defer q.Stop()

	var processed int64
	q.StartWorkers(func(ctx context.Context, job PublishJob) (interface{}, error) {
		atomic.AddInt64(&processed, 1)
		return map[string]string{"post_id": "p-" + job.ContentID}, nil
	})

	id := q.Add(PublishJob{ContentID: "c1", ChannelID: "ch1", Content: "hello"})

	require.Eventually(t, func() bool {
		status, ok := q.JobStatus(id)
		return ok && status.State == StateCompleted
	}, 2*time.Second, 5*time.Millisecond)

	status, ok := q.JobStatus(id)
	require.True(t, ok)
	assert.Equal(t, 1, status.Attempts)
	assert.Empty(t, status.LastError)
	result, ok := status.Result.(map[string]string)
	require.True(t, ok)
	assert.Equal(t, "p-c1", result["post_id"])
	assert.Equal(t, int64(1), atomic.LoadInt64(&processed))
}

func TestRetryWithBackoffThenTerminalFailure(t *testing.T) {
	q := testQueue(1, 3)
	defer q.Stop()

	var attempts int64
	q.StartWorkers(func(ctx context.Context, job PublishJob) (interface{}, error) {
		atomic.AddInt64(&attempts, 1)
		return nil, errors.New("platform unavailable")
	})

	id := q.Add(PublishJob{ContentID: "c1"})

	require.Eventually(t, func() bool {
		status, ok := q.JobStatus(id)
		return ok && status.State == StateFailed
	}, 2*time.Second, 5*time.Millisecond)

	status, _ := q.JobStatus(id)
	assert.Equal(t, 3, status.Attempts)
	assert.Equal(t, "platform unavailable", status.LastError)

	// Terminally failed jobs are never retried again.
	time.Sleep(50 * time.Millisecond)
	assert.Equal(t, int64(3), atomic.LoadInt64(&attempts))
	m := q.Metrics()
	assert.Equal(t, 1, m.Failed)
}

func TestPermanentFailureSkipsRetry(t *testing.T) {
	q := testQueue(1, 3)
	defer q.Stop()

	var attempts int64
	q.StartWorkers(func(ctx context.Context, job PublishJob) (interface{}, error) {
		atomic.AddInt64(&attempts, 1)
		return nil, fmt.Errorf("%w: content exceeds the platform limit", ErrPermanent)
	})

	id := q.Add(PublishJob{ContentID: "c1"})

	require.Eventually(t, func() bool {
		status, ok := q.JobStatus(id)
		return ok && status.State == StateFailed
	}, 2*time.Second, 5*time.Millisecond)

	// Terminal on the first attempt, no backoff rounds.
	status, _ := q.JobStatus(id)
	assert.Equal(t, 1, status.Attempts)
	assert.Contains(t, status.LastError, "platform limit")

	time.Sleep(50 * time.Millisecond)
	assert.Equal(t, int64(1), atomic.LoadInt64(&attempts))
}

func TestTransientFailureThenSuccess(t *testing.T) {
	q := testQueue(1, 3)
	defer q.Stop()

	var attempts int64
	q.StartWorkers(func(ctx context.Context, job PublishJob) (interface{}, error) {
		if atomic.AddInt64(&attempts, 1) == 1 {
			return nil, errors.New("timeout")
		}
		return "ok", nil
	})

	id := q.Add(PublishJob{ContentID: "c1"})

	require.Eventually(t, func() bool {
		status, ok := q.JobStatus(id)
		return ok && status.State == StateCompleted
	}, 2*time.Second, 5*time.Millisecond)

	status, _ := q.JobStatus(id)
	assert.Equal(t, 2, status.Attempts)
	assert.Empty(t, status.LastError)
}

func TestCancelWaitingJob(t *testing.T) {
	q := testQueue(1, 3)
	// No workers started: the job stays waiting.

	id := q.Add(PublishJob{ContentID: "c1"})
	require.True(t, q.Cancel(id))

	status, ok := q.JobStatus(id)
	require.True(t, ok)
	assert.Equal(t, StateCancelled, status.State)

	// Cancelling twice is a no-op.
	assert.False(t, q.Cancel(id))
	assert.False(t, q.Cancel("no-such-job"))
}

func TestCancelActiveJobReturnsFalse(t *testing.T) {
	q := testQueue(1, 3)
	defer q.Stop()

	started := make(chan struct{})
	release := make(chan struct{})
	q.StartWorkers(func(ctx context.Context, job PublishJob) (interface{}, error) {
		close(started)
		<-release
		return "done", nil
	})

	id := q.Add(PublishJob{ContentID: "c1"})
	<-started

	assert.False(t, q.Cancel(id), "active jobs cannot be cancelled")
	close(release)

	require.Eventually(t, func() bool {
		status, _ := q.JobStatus(id)
		return status.State == StateCompleted
	}, 2*time.Second, 5*time.Millisecond)
}

func TestDelayedJobRunsAtScheduledTime(t *testing.T) {
	q := testQueue(1, 3)
	defer q.Stop()

	var mu sync.Mutex
	var ranAt time.Time
	q.StartWorkers(func(ctx context.Context, job PublishJob) (interface{}, error) {
		mu.Lock()
		ranAt = time.Now()
		mu.Unlock()
		return nil, nil
	})

	at := time.Now().Add(60 * time.Millisecond)
	id, err := q.Schedule(PublishJob{ContentID: "c1"}, at)
	require.NoError(t, err)

	status, ok := q.JobStatus(id)
	require.True(t, ok)
	assert.Equal(t, StateDelayed, status.State)

	require.Eventually(t, func() bool {
		status, _ := q.JobStatus(id)
		return status.State == StateCompleted
	}, 2*time.Second, 5*time.Millisecond)

	mu.Lock()
	defer mu.Unlock()
	assert.False(t, ranAt.Before(at), "job must not run before its scheduled time")
}

func TestPriorityOrdersReadyJobs(t *testing.T) {
	q := testQueue(1, 3)
	defer q.Stop()

	var mu sync.Mutex
	var order []string

	// Enqueue before starting workers so priorities are comparable.
	q.Add(PublishJob{ContentID: "low", Priority: 1})
	q.Add(PublishJob{ContentID: "high", Priority: 10})
	q.Add(PublishJob{ContentID: "mid", Priority: 5})

	q.StartWorkers(func(ctx context.Context, job PublishJob) (interface{}, error) {
		mu.Lock()
		order = append(order, job.ContentID)
		mu.Unlock()
		return nil, nil
	})

	require.Eventually(t, func() bool {
		mu.Lock()
		defer mu.Unlock()
		return len(order) == 3
	}, 2*time.Second, 5*time.Millisecond)

	mu.Lock()
	defer mu.Unlock()
	assert.Equal(t, []string{"high", "mid", "low"}, order)
}

func TestPauseAndResume(t *testing.T) {
	q := testQueue(1, 3)
	defer q.Stop()

	var processed int64
	q.StartWorkers(func(ctx context.Context, job PublishJob) (interface{}, error) {
		atomic.AddInt64(&processed, 1)
		return nil, nil
	})

	q.Pause()
	id := q.Add(PublishJob{ContentID: "c1"})

	time.Sleep(50 * time.Millisecond)
	assert.Equal(t, int64(0), atomic.LoadInt64(&processed), "paused queue must not dequeue")
	status, _ := q.JobStatus(id)
	assert.Equal(t, StateWaiting, status.State)

	q.Resume()
	require.Eventually(t, func() bool {
		status, _ := q.JobStatus(id)
		return status.State == StateCompleted
	}, 2*time.Second, 5*time.Millisecond)
}

func TestMetricsSnapshot(t *testing.T) {
	q := testQueue(1, 3)

	q.Add(PublishJob{ContentID: "w1"})
	q.Add(PublishJob{ContentID: "w2"})
	_, err := q.Schedule(PublishJob{ContentID: "d1"}, time.Now().Add(time.Hour))
	require.NoError(t, err)
	cancelled := q.Add(PublishJob{ContentID: "c1"})
	q.Cancel(cancelled)

	m := q.Metrics()
	assert.Equal(t, 2, m.Waiting)
	assert.Equal(t, 1, m.Delayed)
	assert.Equal(t, 1, m.Cancelled)
	assert.Equal(t, 0, m.Active)
}

func TestOnTransitionFires(t *testing.T) {
	q := testQueue(1, 3)
	defer q.Stop()

	var mu sync.Mutex
	states := map[string]bool{}
	q.OnTransition = func(s JobStatus) {
		mu.Lock()
		states[s.State] = true
		mu.Unlock()
	}

	q.StartWorkers(func(ctx context.Context, job PublishJob) (interface{}, error) {
		return nil, nil
	})
	q.Add(PublishJob{ContentID: "c1"})

	require.Eventually(t, func() bool {
		mu.Lock()
		defer mu.Unlock()
		return states[StateCompleted]
	}, 2*time.Second, 5*time.Millisecond)
}
