package notification

import (
	"context"
	"log/slog"
	"sync"
)

type Message struct {
	Template  string
	Recipient string
	Data      map[string]interface{}
}

type SenderAPI interface {
	Send(ctx context.Context, templateName, recipient string, data map[string]interface{}) bool
}

type Worker struct {
	ID         int
	WorkerPool chan chan Message
	JobChannel chan Message
	Logger     *slog.Logger
}

func NewWorker(id int, workerPool chan chan Message, logger *slog.Logger) *Worker {
	return &Worker{
		ID:         id,
		WorkerPool: workerPool,
		JobChannel: make(chan Message),
		Logger:     logger,
	}
}

func (w *Worker) Start(ctx context.Context, wg *sync.WaitGroup, processFunc func(Message)) {
	wg.Add(1)
	go func() {
		defer wg.Done()

		for {
			w.WorkerPool <- w.JobChannel

			select {
			case msg := <-w.JobChannel:
				w.Logger.Debug("worker sending email", "worker_id", w.ID, "template", msg.Template)
				processFunc(msg)
			case <-ctx.Done():
				w.Logger.Debug("worker shutting down", "worker_id", w.ID)
				return
			}
		}
	}()
}

type PoolConfig struct {
	MaxWorkers   int
	JobQueueSize int
}

// Pool delivers emails on a bounded set of workers so that request and event
// handlers never wait on SMTP.
type Pool struct {
	sender     SenderAPI
	logger     *slog.Logger
	jobQueue   chan Message
	workerPool chan chan Message
	maxWorkers int

	ctx        context.Context
	cancel     context.CancelFunc
	wg         sync.WaitGroup
	dispatched chan struct{}

	mu     sync.RWMutex
	closed bool
	once   sync.Once
}

func NewPool(cfg PoolConfig, sender SenderAPI, logger *slog.Logger) *Pool {
	maxWorkers := cfg.MaxWorkers
	if maxWorkers <= 0 {
		maxWorkers = 4
	}
	queueSize := cfg.JobQueueSize
	if queueSize <= 0 {
		queueSize = 100
	}

	ctx, cancel := context.WithCancel(context.Background())
	p := &Pool{
		sender:     sender,
		logger:     logger,
		jobQueue:   make(chan Message, queueSize),
		workerPool: make(chan chan Message, maxWorkers),
		maxWorkers: maxWorkers,
		ctx:        ctx,
		cancel:     cancel,
		dispatched: make(chan struct{}),
	}
	p.start()
	return p
}

func (p *Pool) start() {
	for i := 0; i < p.maxWorkers; i++ {
		NewWorker(i, p.workerPool, p.logger).Start(p.ctx, &p.wg, p.process)
	}
	go p.dispatch()

	p.logger.Info("notification worker pool started",
		"max_workers", p.maxWorkers,
		"queue_size", cap(p.jobQueue))
}

func (p *Pool) dispatch() {
	defer close(p.dispatched)

	for msg := range p.jobQueue {
		jobChannel := <-p.workerPool
		jobChannel <- msg
	}
}

func (p *Pool) process(msg Message) {
	p.sender.Send(context.WithoutCancel(p.ctx), msg.Template, msg.Recipient, msg.Data)
}

// Enqueue reports false when the queue is full or the pool is shut down.
func (p *Pool) Enqueue(msg Message) bool {
	p.mu.RLock()
	defer p.mu.RUnlock()

	if p.closed {
		p.logger.Warn("notification pool closed, dropping email", "template", msg.Template)
		return false
	}

	select {
	case p.jobQueue <- msg:
		return true
	default:
		p.logger.Warn("notification queue full, dropping email",
			"template", msg.Template,
			"queue_capacity", cap(p.jobQueue))
		return false
	}
}

// Shutdown stops accepting messages, delivers what is queued and waits for
// the workers to exit.
func (p *Pool) Shutdown() {
	p.once.Do(func() {
		p.logger.Info("shutting down notification pool", "queued", len(p.jobQueue))

		p.mu.Lock()
		p.closed = true
		close(p.jobQueue)
		p.mu.Unlock()

		<-p.dispatched
		p.cancel()
		p.wg.Wait()

		p.logger.Info("notification pool shutdown complete")
	})
}
