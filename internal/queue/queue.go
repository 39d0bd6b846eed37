// Package queue is the in-process publish job queue: a time-ordered job
// store with a fixed worker pool, delayed scheduling, automatic retry with
// exponential backoff, and an observable metrics snapshot.
package queue

import (
	"context"
	"errors"
	"fmt"
	"log"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
)

// Job states
const (
	StateDelayed   = "delayed"
	StateWaiting   = "waiting"
	StateActive    = "active"
	StateCompleted = "completed"
	StateFailed    = "failed"
	StateCancelled = "cancelled"
)

// PublishJob is the unit of work handed to the processor.
type PublishJob struct {
	ContentID     string   `json:"content_id"`
	ChannelID     string   `json:"channel_id"`
	PublicationID string   `json:"publication_id"`
	Content       string   `json:"content"`
	MediaURLs     []string `json:"media_urls,omitempty"`
	// Priority orders otherwise-ready jobs: higher values dequeue first.
	Priority int `json:"priority"`
}

// JobStatus is the externally visible view of one job.
type JobStatus struct {
	ID          string      `json:"id"`
	State       string      `json:"state"`
	Job         PublishJob  `json:"job"`
	Attempts    int         `json:"attempts"`
	MaxAttempts int         `json:"max_attempts"`
	LastError   string      `json:"last_error,omitempty"`
	Result      interface{} `json:"result,omitempty"`
	ReadyAt     time.Time   `json:"ready_at"`
	CreatedAt   time.Time   `json:"created_at"`
	FinishedAt  *time.Time  `json:"finished_at,omitempty"`
}

// Metrics is the read-only snapshot consumed by operational dashboards.
type Metrics struct {
	Waiting   int `json:"waiting"`
	Active    int `json:"active"`
	Delayed   int `json:"delayed"`
	Completed int `json:"completed"`
	Failed    int `json:"failed"`
	Cancelled int `json:"cancelled"`
}

// Processor handles one job. The returned value is stored as the job
// result; a returned error marks the attempt failed and triggers the
// retry policy.
type Processor func(ctx context.Context, job PublishJob) (interface{}, error)

type job struct {
	id         string
	payload    PublishJob
	state      string
	attempts   int
	lastError  string
	result     interface{}
	readyAt    time.Time
	createdAt  time.Time
	finishedAt *time.Time
}

type Config struct {
	Workers     int
	MaxAttempts int
	BackoffBase time.Duration
}

// Queue is safe for concurrent use. Workers pull ready jobs under a
// mutex; a buffered signal channel coalesces wakeups (so enqueues never
// block) and delayed jobs are picked up by deadline-aware waits.
type Queue struct {
	mu      sync.Mutex
	jobs    map[string]*job
	paused  bool
	stopped bool
	signal  chan struct{}

	workers     int
	maxAttempts int
	backoffBase time.Duration

	cancel context.CancelFunc
	wg     sync.WaitGroup

	// OnTransition, when set before StartWorkers, is invoked after every
	// state change with a status snapshot. Used for dashboard broadcasts.
	OnTransition func(JobStatus)
}

var ErrPastSchedule = errors.New("scheduled time is in the past")

// ErrPermanent marks a job failure that retrying cannot fix. Processors
// wrap validation failures in it so the job fails terminally on the first
// attempt instead of riding the retry policy.
var ErrPermanent = errors.New("permanent failure")

func New(cfg Config) *Queue {
	if cfg.Workers <= 0 {
		cfg.Workers = 3
	}
	if cfg.MaxAttempts <= 0 {
		cfg.MaxAttempts = 3
	}
	if cfg.BackoffBase <= 0 {
		cfg.BackoffBase = 5 * time.Second
	}
	return &Queue{
		jobs:        make(map[string]*job),
		signal:      make(chan struct{}, 1),
		workers:     cfg.Workers,
		maxAttempts: cfg.MaxAttempts,
		backoffBase: cfg.BackoffBase,
	}
}

// Add enqueues a job for immediate processing and returns its id.
func (q *Queue) Add(payload PublishJob) string {
	return q.enqueue(payload, time.Now())
}

// Schedule enqueues a job for a future time. Times in the past are
// rejected, never clamped to "run now".
func (q *Queue) Schedule(payload PublishJob, at time.Time) (string, error) {
	if time.Until(at) < 0 {
		return "", fmt.Errorf("%w: %s", ErrPastSchedule, at.Format(time.RFC3339))
	}
	return q.enqueue(payload, at), nil
}

func (q *Queue) enqueue(payload PublishJob, readyAt time.Time) string {
	j := &job{
		id:        uuid.NewString(),
		payload:   payload,
		readyAt:   readyAt,
		createdAt: time.Now(),
	}
	if readyAt.After(time.Now()) {
		j.state = StateDelayed
	} else {
		j.state = StateWaiting
	}

	q.mu.Lock()
	q.jobs[j.id] = j
	snapshot := q.snapshot(j)
	q.mu.Unlock()

	q.notify(snapshot)
	q.wake()
	return j.id
}

// Cancel removes a waiting or delayed job. Active and finished jobs are
// untouched and Cancel returns false; an in-flight publish cannot be
// stopped mid-call.
func (q *Queue) Cancel(id string) bool {
	q.mu.Lock()
	j, ok := q.jobs[id]
	if !ok || (j.state != StateWaiting && j.state != StateDelayed) {
		q.mu.Unlock()
		return false
	}
	now := time.Now()
	j.state = StateCancelled
	j.finishedAt = &now
	snapshot := q.snapshot(j)
	q.mu.Unlock()

	q.notify(snapshot)
	return true
}

// JobStatus returns the current view of a job.
func (q *Queue) JobStatus(id string) (JobStatus, bool) {
	q.mu.Lock()
	defer q.mu.Unlock()
	j, ok := q.jobs[id]
	if !ok {
		return JobStatus{}, false
	}
	return q.snapshot(j), true
}

// Metrics returns per-state job counts.
func (q *Queue) Metrics() Metrics {
	q.mu.Lock()
	defer q.mu.Unlock()

	var m Metrics
	now := time.Now()
	for _, j := range q.jobs {
		switch j.state {
		case StateWaiting:
			m.Waiting++
		case StateDelayed:
			// A delayed job whose time has come counts as waiting.
			if j.readyAt.After(now) {
				m.Delayed++
			} else {
				m.Waiting++
			}
		case StateActive:
			m.Active++
		case StateCompleted:
			m.Completed++
		case StateFailed:
			m.Failed++
		case StateCancelled:
			m.Cancelled++
		}
	}
	return m
}

// Pause stops dequeuing without losing queued state.
func (q *Queue) Pause() {
	q.mu.Lock()
	q.paused = true
	q.mu.Unlock()
}

// Resume restarts dequeuing.
func (q *Queue) Resume() {
	q.mu.Lock()
	q.paused = false
	q.mu.Unlock()
	q.wake()
}

// StartWorkers launches the bounded worker pool. Each worker processes
// one job to completion or failure before pulling the next.
func (q *Queue) StartWorkers(processor Processor) {
	ctx, cancel := context.WithCancel(context.Background())
	q.cancel = cancel

	for i := 0; i < q.workers; i++ {
		q.wg.Add(1)
		go q.runWorker(ctx, i, processor)
	}
}

// Stop shuts the pool down and waits for in-flight jobs to finish.
func (q *Queue) Stop() {
	q.mu.Lock()
	q.stopped = true
	q.mu.Unlock()
	if q.cancel != nil {
		q.cancel()
	}
	q.wg.Wait()
}

func (q *Queue) runWorker(ctx context.Context, id int, processor Processor) {
	defer q.wg.Done()
	for {
		j, wait := q.popReady()
		if j == nil {
			select {
			case <-ctx.Done():
				return
			case <-q.signal:
				continue
			case <-time.After(wait):
				continue
			}
		}

		// Cascade the wakeup so sibling workers can pick up remaining
		// ready jobs while this one is busy.
		q.wake()
		q.process(ctx, id, j, processor)
	}
}

// popReady pulls the best ready job: highest priority first, then oldest
// ready time. Returns the duration to wait before checking again when
// nothing is ready.
func (q *Queue) popReady() (*job, time.Duration) {
	q.mu.Lock()
	defer q.mu.Unlock()

	wait := time.Minute
	if q.paused || q.stopped {
		return nil, wait
	}

	now := time.Now()
	var candidates []*job
	for _, j := range q.jobs {
		switch j.state {
		case StateWaiting:
			candidates = append(candidates, j)
		case StateDelayed:
			if !j.readyAt.After(now) {
				candidates = append(candidates, j)
			} else if d := j.readyAt.Sub(now); d < wait {
				wait = d
			}
		}
	}
	if len(candidates) == 0 {
		return nil, wait
	}

	sort.Slice(candidates, func(a, b int) bool {
		if candidates[a].payload.Priority != candidates[b].payload.Priority {
			return candidates[a].payload.Priority > candidates[b].payload.Priority
		}
		return candidates[a].readyAt.Before(candidates[b].readyAt)
	})

	j := candidates[0]
	j.state = StateActive
	return j, 0
}

func (q *Queue) process(ctx context.Context, workerID int, j *job, processor Processor) {
	q.mu.Lock()
	j.attempts++
	attempt := j.attempts
	payload := j.payload
	q.notifyLocked(j)
	q.mu.Unlock()

	result, err := processor(ctx, payload)

	q.mu.Lock()
	now := time.Now()
	if err == nil {
		j.state = StateCompleted
		j.result = result
		j.lastError = ""
		j.finishedAt = &now
	} else {
		j.lastError = err.Error()
		if attempt >= q.maxAttempts || errors.Is(err, ErrPermanent) {
			j.state = StateFailed
			j.finishedAt = &now
			log.Printf("queue: job %s failed terminally after %d attempts: %v", j.id, attempt, err)
		} else {
			backoff := q.backoffBase << (attempt - 1)
			j.state = StateDelayed
			j.readyAt = now.Add(backoff)
			log.Printf("queue: worker %d job %s attempt %d failed, retrying in %s: %v", workerID, j.id, attempt, backoff, err)
		}
	}
	q.notifyLocked(j)
	q.mu.Unlock()

	q.wake()
}

func (q *Queue) snapshot(j *job) JobStatus {
	return JobStatus{
		ID:          j.id,
		State:       j.state,
		Job:         j.payload,
		Attempts:    j.attempts,
		MaxAttempts: q.maxAttempts,
		LastError:   j.lastError,
		Result:      j.result,
		ReadyAt:     j.readyAt,
		CreatedAt:   j.createdAt,
		FinishedAt:  j.finishedAt,
	}
}

// notifyLocked snapshots under the held lock and fires the callback after
// queueing on a goroutine so listeners cannot deadlock the queue.
func (q *Queue) notifyLocked(j *job) {
	if q.OnTransition == nil {
		return
	}
	snapshot := q.snapshot(j)
	go q.OnTransition(snapshot)
}

func (q *Queue) notify(s JobStatus) {
	if q.OnTransition != nil {
		go q.OnTransition(s)
	}
}

func (q *Queue) wake() {
	select {
	case q.signal <- struct{}{}:
	default:
	}
}
