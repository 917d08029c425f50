package messaging

import (
	"context"
	"errors"
	"log/slog"
	"sync"

	"github.com/frahmantamala/expenseflow/internal/core/events"
)

var (
	ErrQueueFull       = errors.New("event publish queue is full")
	ErrPublisherClosed = errors.New("event publisher is shut down")
)

// EventSink is where queued events end up, normally a *Client.
type EventSink interface {
	Publish(ctx context.Context, event events.Event) error
}

type PublisherConfig struct {
	MaxWorkers   int
	JobQueueSize int
}

// Publisher takes events off the in-process bus and hands them to a pool of
// workers so request handlers never wait on the broker.
type Publisher struct {
	sink   EventSink
	logger *slog.Logger

	jobQueue   chan publishJob
	workerPool chan chan publishJob
	maxWorkers int
	ctx        context.Context
	cancel     context.CancelFunc
	wg         sync.WaitGroup
	once       sync.Once

	mu     sync.RWMutex
	closed bool
}

func NewPublisher(sink EventSink, config PublisherConfig, logger *slog.Logger) *Publisher {
	ctx, cancel := context.WithCancel(context.Background())

	maxWorkers := config.MaxWorkers
	if maxWorkers <= 0 {
		maxWorkers = 4
	}

	jobQueueSize := config.JobQueueSize
	if jobQueueSize <= 0 {
		jobQueueSize = 100
	}

	p := &Publisher{
		sink:       sink,
		logger:     logger,
		maxWorkers: maxWorkers,
		jobQueue:   make(chan publishJob, jobQueueSize),
		workerPool: make(chan chan publishJob, maxWorkers),
		ctx:        ctx,
		cancel:     cancel,
	}
	p.start()
	return p
}

func (p *Publisher) start() {
	p.once.Do(func() {
		for i := 0; i < p.maxWorkers; i++ {
			w := newWorker(i, p.workerPool, p.logger)
			w.start(p.ctx, &p.wg, p.process)
		}

		p.wg.Add(1)
		go p.dispatch()

		p.logger.Info("event publisher started",
			"max_workers", p.maxWorkers,
			"queue_size", cap(p.jobQueue))
	})
}

// dispatch hands queued jobs to idle workers. Once the queue is closed and
// drained it stops the workers.
func (p *Publisher) dispatch() {
	defer p.wg.Done()
	defer p.cancel()

	for job := range p.jobQueue {
		select {
		case jobChannel := <-p.workerPool:
			select {
			case jobChannel <- job:
			case <-p.ctx.Done():
				p.logger.Info("dispatcher shutting down")
				return
			}
		case <-p.ctx.Done():
			p.logger.Info("dispatcher shutting down")
			return
		}
	}
	p.logger.Info("event dispatcher drained")
}

func (p *Publisher) process(job publishJob) {
	if err := p.sink.Publish(job.ctx, job.event); err != nil {
		p.logger.Error("failed to publish event",
			"error", err,
			"event_id", job.event.EventID(),
			"event_type", job.event.EventType())
		return
	}
}

// Enqueue never blocks; a full queue drops the event.
func (p *Publisher) Enqueue(ctx context.Context, event events.Event) error {
	p.mu.RLock()
	defer p.mu.RUnlock()

	if p.closed {
		return ErrPublisherClosed
	}

	select {
	case p.jobQueue <- publishJob{ctx: context.WithoutCancel(ctx), event: event}:
		return nil
	default:
		p.logger.Warn("dropping event, publish queue full",
			"event_id", event.EventID(),
			"event_type", event.EventType())
		return ErrQueueFull
	}
}

// RegisterEventHandlers forwards every expense lifecycle event to the broker.
func (p *Publisher) RegisterEventHandlers(bus *events.EventBus) {
	for _, t := range events.ExpenseEventTypes {
		bus.Subscribe(t, p.Enqueue)
	}
	p.logger.Info("event publisher handlers registered", "handlers", events.ExpenseEventTypes)
}

// Shutdown stops accepting events and waits for queued ones to be published.
func (p *Publisher) Shutdown(ctx context.Context) error {
	p.mu.Lock()
	if !p.closed {
		p.closed = true
		close(p.jobQueue)
	}
	p.mu.Unlock()

	done := make(chan struct{})
	go func() {
		p.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		p.logger.Info("event publisher shutdown complete")
		return nil
	case <-ctx.Done():
		p.cancel()
		return ctx.Err()
	}
}
