package usage

import (
	"context"
	"sync/atomic"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/platinummonkey/corpus/pkg/async"
)

const (
	// DefaultQueueSize bounds how many pending usage rows may wait for the
	// background writer before new ones are dropped.
	DefaultQueueSize = 1024

	writeTimeout = 5 * time.Second
)

// Recorder queues usage rows for background insertion. Record never blocks
// and never returns an error: a full queue or a failed write costs a log
// line and a counter bump, not a request.
type Recorder struct {
	writer *Writer
	pool   *async.WorkerPool
	log    *logrus.Logger

	queued  atomic.Int64
	dropped atomic.Int64
}

// NewRecorder starts the background writer. Close releases it.
func NewRecorder(ctx context.Context, writer *Writer, queueSize int, log *logrus.Logger) *Recorder {
	if log == nil {
		log = logrus.New()
	}
	if queueSize <= 0 {
		queueSize = DefaultQueueSize
	}

	r := &Recorder{
		writer: writer,
		pool:   async.NewWorkerPool(ctx, 1, queueSize, "usage log", writeTimeout),
		log:    log,
	}
	go r.drainErrors()
	return r
}

func (r *Recorder) drainErrors() {
	for {
		select {
		case err := <-r.pool.Errors():
			r.log.Warnf("Usage log write failed: %v", err)
		case <-r.pool.Done():
			return
		}
	}
}

// Record queues one usage row stamped with the current time.
func (r *Recorder) Record(apiKey, endpoint string) {
	ts := time.Now().Unix()
	ok := r.pool.TrySubmit(func(ctx context.Context) error {
		return r.writer.Insert(ctx, apiKey, endpoint, ts)
	})
	if !ok {
		r.dropped.Add(1)
		return
	}
	r.queued.Add(1)
}

// Stats reports how many rows were queued and dropped since start.
func (r *Recorder) Stats() (queued, dropped int64) {
	return r.queued.Load(), r.dropped.Load()
}

// Close drains the queue and stops the background writer.
func (r *Recorder) Close(timeout time.Duration) error {
	return r.pool.Shutdown(timeout)
}
