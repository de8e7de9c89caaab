package webhook

import (
	"context"
	"log/slog"
	"sync"
)

// Deliverer is what the dispatcher hands events to. *Relay implements it.
type Deliverer interface {
	Deliver(ctx context.Context, e Event) error
}

// Dispatcher decouples request handlers from outbound delivery: Publish
// never blocks, and a single worker drains a bounded queue.
type Dispatcher struct {
	deliverer Deliverer
	logger    *slog.Logger
	queue     chan Event

	ctx    context.Context
	cancel context.CancelFunc

	mu      sync.RWMutex
	started bool
	stopped bool
	stopCh  chan struct{}
	doneCh  chan struct{}
}

// NewDispatcher creates a dispatcher with room for size queued events.
// A non-positive size defaults to 100.
func NewDispatcher(d Deliverer, logger *slog.Logger, size int) *Dispatcher {
	if size <= 0 {
		size = 100
	}
	if logger == nil {
		logger = slog.Default()
	}

	ctx, cancel := context.WithCancel(context.Background())
	return &Dispatcher{
		deliverer: d,
		logger:    logger,
		queue:     make(chan Event, size),
		ctx:       ctx,
		cancel:    cancel,
		stopCh:    make(chan struct{}),
		doneCh:    make(chan struct{}),
	}
}

// Start launches the worker. Calling it more than once is a no-op.
func (d *Dispatcher) Start() {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.started || d.stopped {
		return
	}
	d.started = true

	go d.run()
	d.logger.Info("webhook dispatcher started", "queue_size", cap(d.queue))
}

// Publish enqueues e without blocking. It fails with ErrQueueFull when the
// worker is behind and ErrDispatcherStopped after Stop.
func (d *Dispatcher) Publish(e Event) error {
	d.mu.RLock()
	defer d.mu.RUnlock()
	if d.stopped {
		return ErrDispatcherStopped
	}

	select {
	case d.queue <- e:
		return nil
	default:
		return ErrQueueFull
	}
}

// Stop stops accepting events and waits for the worker to drain the queue.
// When ctx ends first, in-flight deliveries are cancelled and ctx's error is
// returned once the worker exits.
func (d *Dispatcher) Stop(ctx context.Context) error {
	d.mu.Lock()
	if d.stopped {
		d.mu.Unlock()
		return nil
	}
	d.stopped = true
	started := d.started
	close(d.stopCh)
	d.mu.Unlock()

	if !started {
		d.cancel()
		return nil
	}

	select {
	case <-d.doneCh:
		d.cancel()
		d.logger.Info("webhook dispatcher stopped")
		return nil
	case <-ctx.Done():
		d.cancel()
		<-d.doneCh
		d.logger.Warn("webhook dispatcher stopped before queue drained")
		return ctx.Err()
	}
}

func (d *Dispatcher) run() {
	defer close(d.doneCh)

	for {
		select {
		case e := <-d.queue:
			d.deliver(e)
		case <-d.stopCh:
			for {
				select {
				case e := <-d.queue:
					d.deliver(e)
				default:
					return
				}
			}
		}
	}
}

func (d *Dispatcher) deliver(e Event) {
	if err := d.ctx.Err(); err != nil {
		d.logger.Warn("webhook dropped", "event", e.Event, "error", err)
		return
	}
	if err := d.deliverer.Deliver(d.ctx, e); err != nil {
		d.logger.Error("webhook delivery failed", "event", e.Event, "error", err)
		return
	}
	d.logger.Debug("webhook delivered", "event", e.Event)
}
