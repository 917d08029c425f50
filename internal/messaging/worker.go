package messaging

import (
	"context"
	"log/slog"
	"sync"

	"github.com/frahmantamala/expenseflow/internal/core/events"
)

type publishJob struct {
	ctx   context.Context
	event events.Event
}

type worker struct {
	id         int
	workerPool chan chan publishJob
	jobChannel chan publishJob
	logger     *slog.Logger
}

func newWorker(id int, workerPool chan chan publishJob, logger *slog.Logger) *worker {
	return &worker{
		id:         id,
		workerPool: workerPool,
		jobChannel: make(chan publishJob),
		logger:     logger,
	}
}

func (w *worker) start(ctx context.Context, wg *sync.WaitGroup, process func(publishJob)) {
	wg.Add(1)
	go func() {
		defer wg.Done()

		for {
			select {
			case w.workerPool <- w.jobChannel:
			case <-ctx.Done():
				return
			}

			select {
			case job := <-w.jobChannel:
				w.logger.Debug("worker publishing event", "worker_id", w.id, "event_id", job.event.EventID())
				process(job)
			case <-ctx.Done():
				w.logger.Debug("worker shutting down", "worker_id", w.id)
				return
			}
		}
	}()
}
