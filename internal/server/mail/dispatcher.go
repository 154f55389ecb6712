package mail

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/dmitrijs2005/taskkeeper/internal/logging"
)

// ErrQueueFull is returned by Enqueue when the backlog is at capacity.
var ErrQueueFull = errors.New("mail queue full")

// ErrClosed is returned by Enqueue after Close.
var ErrClosed = errors.New("mail dispatcher closed")

// Dispatcher hands messages to a Sender from a fixed pool of workers.
// Enqueue never blocks; delivery errors are logged and dropped.
type Dispatcher struct {
	sender  Sender
	logger  logging.Logger
	timeout time.Duration

	queue chan Message
	wg    sync.WaitGroup

	mu     sync.RWMutex
	closed bool
}

func NewDispatcher(sender Sender, logger logging.Logger, queueSize, workers int, timeout time.Duration) *Dispatcher {
	if queueSize < 1 {
		queueSize = 1
	}
	if workers < 1 {
		workers = 1
	}

	d := &Dispatcher{
		sender:  sender,
		logger:  logger.With("module", "mail"),
		timeout: timeout,
		queue:   make(chan Message, queueSize),
	}

	d.wg.Add(workers)
	for i := 0; i < workers; i++ {
		go d.worker()
	}
	return d
}

// Enqueue schedules msg for delivery.
func (d *Dispatcher) Enqueue(ctx context.Context, msg Message) error {
	d.mu.RLock()
	defer d.mu.RUnlock()

	if d.closed {
		return ErrClosed
	}

	select {
	case d.queue <- msg:
		return nil
	default:
		d.logger.Warn(ctx, "mail queue full, dropping message", "to", msg.To, "subject", msg.Subject)
		return ErrQueueFull
	}
}

// Close stops accepting messages and waits until queued ones are sent or
// ctx is done.
func (d *Dispatcher) Close(ctx context.Context) error {
	d.mu.Lock()
	if !d.closed {
		d.closed = true
		close(d.queue)
	}
	d.mu.Unlock()

	done := make(chan struct{})
	go func() {
		d.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (d *Dispatcher) worker() {
	defer d.wg.Done()
	for msg := range d.queue {
		d.deliver(msg)
	}
}

func (d *Dispatcher) deliver(msg Message) {
	ctx, cancel := context.WithTimeout(context.Background(), d.timeout)
	defer cancel()

	defer func() {
		if p := recover(); p != nil {
			d.logger.Error(ctx, "mail sender panicked", "to", msg.To, "panic", p)
		}
	}()

	if err := d.sender.Send(ctx, msg); err != nil {
		d.logger.Error(ctx, "failed to send email", "to", msg.To, "subject", msg.Subject, "error", err)
		return
	}
	d.logger.Debug(ctx, "email sent", "to", msg.To, "subject", msg.Subject)
}
