package memory

import (
	"context"
	"log"
	"sync"
	"sync/atomic"
	"time"

	"github.com/cenkalti/backoff/v5"
	"github.com/google/uuid"
)

// persistTask is one queued user-memory write.
type persistTask struct {
	id       string
	userID   string
	snapshot SessionSnapshot
}

// PersistQueue decouples user-memory persistence from the response path:
// Enqueue never blocks the caller beyond a buffered channel send, writes are
// retried with exponential backoff, and terminal failures only increment an
// observable counter. A full queue drops the task (best-effort by contract).
type PersistQueue struct {
	users      *UserStore
	tasks      chan persistTask
	maxRetries uint
	failures   atomic.Int64
	dropped    atomic.Int64
	wg         sync.WaitGroup
	cancel     context.CancelFunc
	startOnce  sync.Once
	stopOnce   sync.Once
}

func NewPersistQueue(users *UserStore, size int, maxRetries int) *PersistQueue {
	if size <= 0 {
		size = 64
	}
	if maxRetries <= 0 {
		maxRetries = 4
	}
	return &PersistQueue{
		users:      users,
		tasks:      make(chan persistTask, size),
		maxRetries: uint(maxRetries),
	}
}

func (q *PersistQueue) Start(ctx context.Context) {
	q.startOnce.Do(func() {
		runCtx, cancel := context.WithCancel(ctx)
		q.cancel = cancel
		q.wg.Add(1)
		go q.worker(runCtx)
	})
}

// Enqueue schedules a session merge for the user. Fire-and-forget: the
// response this task belongs to has already been returned.
func (q *PersistQueue) Enqueue(userID string, snap SessionSnapshot) {
	if userID == "" {
		return
	}
	task := persistTask{id: uuid.NewString(), userID: userID, snapshot: snap}
	select {
	case q.tasks <- task:
	default:
		q.dropped.Add(1)
		log.Printf("[memory] persist queue full, dropping task %s for user %s", task.id, userID)
	}
}

func (q *PersistQueue) worker(ctx context.Context) {
	defer q.wg.Done()
	for {
		select {
		case task := <-q.tasks:
			q.run(ctx, task)
		case <-ctx.Done():
			return
		}
	}
}

func (q *PersistQueue) run(ctx context.Context, task persistTask) {
	expo := backoff.NewExponentialBackOff()
	expo.InitialInterval = 200 * time.Millisecond
	expo.MaxInterval = 5 * time.Second

	operation := func() (struct{}, error) {
		_, err := q.users.MergeSession(ctx, task.userID, task.snapshot)
		return struct{}{}, err
	}

	_, err := backoff.Retry(ctx, operation,
		backoff.WithBackOff(expo),
		backoff.WithMaxTries(q.maxRetries),
	)
	if err != nil {
		q.failures.Add(1)
		log.Printf("[memory] persist task %s for user %s failed: %v", task.id, task.userID, err)
	}
}

// Failures reports how many persist tasks exhausted their retries.
func (q *PersistQueue) Failures() int64 {
	return q.failures.Load()
}

// Dropped reports how many tasks were rejected because the queue was full.
func (q *PersistQueue) Dropped() int64 {
	return q.dropped.Load()
}

func (q *PersistQueue) Stop() {
	q.stopOnce.Do(func() {
		if q.cancel != nil {
			q.cancel()
		}
		q.wg.Wait()
	})
}
