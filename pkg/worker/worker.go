package worker

import (
	"context"
	"errors"
	"sync"

	"github.com/nimasrn/baki-ledger/pkg/logger"
)

var ErrClosed = errors.New("worker manager is closed")

type WorkerHandler = func(ctx context.Context, workerIndex int, job interface{})

type WorkerManager struct {
	numberOfWorker int
	jobChannel     chan interface{}
	do             WorkerHandler
	waiter         sync.WaitGroup
	mu             sync.RWMutex
	started        bool
	closed         bool
}

// NewWorkerManager
// is a job manager based on go routines. Jobs published with Enqueue are
// distributed among numberOfWorkers goroutines. Drain stops accepting jobs
// and waits until every queued job has been handled.
func NewWorkerManager(bufferSize, numberOfWorkers int) *WorkerManager {
	if numberOfWorkers < 1 {
		numberOfWorkers = 1
	}
	if bufferSize < 0 {
		bufferSize = 0
	}
	return &WorkerManager{
		numberOfWorker: numberOfWorkers,
		jobChannel:     make(chan interface{}, bufferSize),
	}
}

func (w *WorkerManager) GetUnreadCount() int64 {
	return int64(len(w.jobChannel))
}

func (w *WorkerManager) SetWorker(worker WorkerHandler) {
	w.do = worker
}

// Start
// starts off the workers as many as defined by numberOfWorker. Workers stop
// when the job channel is drained after Drain, or when ctx is cancelled.
func (w *WorkerManager) Start(ctx context.Context) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.do == nil {
		return errors.New("worker handler is not set")
	}
	if w.started {
		return errors.New("workers already started")
	}
	w.started = true

	w.waiter.Add(w.numberOfWorker)
	for i := 0; i < w.numberOfWorker; i++ {
		go func(index int) {
			defer w.waiter.Done()
			for {
				select {
				case job, ok := <-w.jobChannel:
					if !ok {
						return
					}
					w.do(ctx, index, job)
				case <-ctx.Done():
					return
				}
			}
		}(i)
	}
	return nil
}

// Enqueue
// Publishes a job onto the channel, blocking while the buffer is full.
func (w *WorkerManager) Enqueue(ctx context.Context, job interface{}) error {
	w.mu.RLock()
	defer w.mu.RUnlock()
	if w.closed {
		return ErrClosed
	}
	select {
	case w.jobChannel <- job:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Drain closes the job channel and waits for the workers to finish.
func (w *WorkerManager) Drain() {
	w.mu.Lock()
	if !w.closed {
		w.closed = true
		close(w.jobChannel)
	}
	w.mu.Unlock()

	w.waiter.Wait()
	logger.Debug("worker manager drained", "workers", w.numberOfWorker)
}
