// Package scheduler provides an inspectable queue of one-shot deferred jobs.
//
// Time is read from an injected clock. RunDue fires whatever is due at the
// clock's current instant, which lets tests advance a fake clock and step the
// queue deterministically. Run and RunUntilIdle drive the same queue with real
// timers in a running process.
package scheduler

import (
	"context"
	"log/slog"
	"sort"
	"sync"
	"time"
)

// JobInfo describes a job waiting in the queue.
type JobInfo struct {
	ID          uint64
	Key         string
	ScheduledAt time.Time
	DueAt       time.Time
}

type job struct {
	info JobInfo
	run  func(context.Context)
}

// Queue holds pending jobs ordered by due time. Jobs fire once and are never
// retried.
type Queue struct {
	mu     sync.Mutex
	now    func() time.Time
	jobs   []*job
	nextID uint64
	wake   chan struct{}
	logger *slog.Logger
}

// NewQueue constructs an empty queue reading time from now.
func NewQueue(now func() time.Time, logger *slog.Logger) *Queue {
	if now == nil {
		now = time.Now
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Queue{
		now:    now,
		wake:   make(chan struct{}, 1),
		logger: logger,
	}
}

// Schedule registers run to fire once delay has elapsed. Negative delays are
// treated as zero. The key is informational and need not be unique.
func (q *Queue) Schedule(key string, delay time.Duration, run func(context.Context)) JobInfo {
	if delay < 0 {
		delay = 0
	}

	q.mu.Lock()
	q.nextID++
	now := q.now()
	j := &job{
		info: JobInfo{ID: q.nextID, Key: key, ScheduledAt: now, DueAt: now.Add(delay)},
		run:  run,
	}
	q.jobs = append(q.jobs, j)
	sort.SliceStable(q.jobs, func(a, b int) bool {
		return q.jobs[a].info.DueAt.Before(q.jobs[b].info.DueAt)
	})
	q.mu.Unlock()

	select {
	case q.wake <- struct{}{}:
	default:
	}
	return j.info
}

// Pending returns a snapshot of waiting jobs in firing order.
func (q *Queue) Pending() []JobInfo {
	q.mu.Lock()
	defer q.mu.Unlock()

	out := make([]JobInfo, len(q.jobs))
	for i, j := range q.jobs {
		out[i] = j.info
	}
	return out
}

// Len returns the number of waiting jobs.
func (q *Queue) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.jobs)
}

// NextDue returns the due time of the earliest job.
func (q *Queue) NextDue() (time.Time, bool) {
	q.mu.Lock()
	defer q.mu.Unlock()
	if len(q.jobs) == 0 {
		return time.Time{}, false
	}
	return q.jobs[0].info.DueAt, true
}

// RunDue fires every job due at the current clock instant, in due order, and
// returns how many fired. Jobs scheduled while these run wait for a later call.
func (q *Queue) RunDue(ctx context.Context) int {
	due := q.takeDue(q.now())
	for _, j := range due {
		q.fire(ctx, j)
	}
	return len(due)
}

// Run fires jobs as they come due until ctx is done.
func (q *Queue) Run(ctx context.Context) error {
	return q.loop(ctx, false)
}

// RunUntilIdle fires jobs as they come due and returns once the queue is empty.
func (q *Queue) RunUntilIdle(ctx context.Context) error {
	return q.loop(ctx, true)
}

func (q *Queue) loop(ctx context.Context, stopWhenIdle bool) error {
	for {
		if err := ctx.Err(); err != nil {
			return err
		}

		dueAt, ok := q.NextDue()
		if !ok {
			if stopWhenIdle {
				return nil
			}
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-q.wake:
				continue
			}
		}

		wait := dueAt.Sub(q.now())
		if wait <= 0 {
			q.RunDue(ctx)
			continue
		}

		timer := time.NewTimer(wait)
		select {
		case <-ctx.Done():
			timer.Stop()
			return ctx.Err()
		case <-q.wake:
			timer.Stop()
		case <-timer.C:
			q.RunDue(ctx)
		}
	}
}

func (q *Queue) takeDue(now time.Time) []*job {
	q.mu.Lock()
	defer q.mu.Unlock()

	n := 0
	for n < len(q.jobs) && !q.jobs[n].info.DueAt.After(now) {
		n++
	}
	if n == 0 {
		return nil
	}
	due := make([]*job, n)
	copy(due, q.jobs[:n])
	q.jobs = append(q.jobs[:0:0], q.jobs[n:]...)
	return due
}

func (q *Queue) fire(ctx context.Context, j *job) {
	defer func() {
		if p := recover(); p != nil {
			q.logger.ErrorContext(ctx, "scheduled job panicked", "job_id", j.info.ID, "key", j.info.Key, "panic", p)
		}
	}()
	q.logger.DebugContext(ctx, "firing scheduled job", "job_id", j.info.ID, "key", j.info.Key)
	j.run(ctx)
}
