package notify

import (
	"context"
	"log"
	"sync"
	"time"
)

// DispatcherConfig tunes delivery behaviour. Zero values fall back to the
// defaults below.
type DispatcherConfig struct {
	Workers        int
	QueueSize      int
	MaxAttempts    int
	AttemptTimeout time.Duration
	RetryBackoff   time.Duration
}

const (
	defaultWorkers        = 4
	defaultQueueSize      = 256
	defaultMaxAttempts    = 3
	defaultAttemptTimeout = 10 * time.Second
	defaultRetryBackoff   = time.Second
)

// Dispatcher delivers drafts asynchronously with at-least-once semantics.
// Enqueue never blocks the caller; transient failures are retried with
// exponential backoff, and drafts that exhaust their attempts are logged
// and dropped.
type Dispatcher struct {
	channel Channel
	cfg     DispatcherConfig

	queue  chan Draft
	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

func NewDispatcher(channel Channel, cfg DispatcherConfig) *Dispatcher {
	if cfg.Workers <= 0 {
		cfg.Workers = defaultWorkers
	}
	if cfg.QueueSize <= 0 {
		cfg.QueueSize = defaultQueueSize
	}
	if cfg.MaxAttempts <= 0 {
		cfg.MaxAttempts = defaultMaxAttempts
	}
	if cfg.AttemptTimeout <= 0 {
		cfg.AttemptTimeout = defaultAttemptTimeout
	}
	if cfg.RetryBackoff <= 0 {
		cfg.RetryBackoff = defaultRetryBackoff
	}

	ctx, cancel := context.WithCancel(context.Background())

	return &Dispatcher{
		channel: channel,
		cfg:     cfg,
		queue:   make(chan Draft, cfg.QueueSize),
		ctx:     ctx,
		cancel:  cancel,
	}
}

// Start launches the delivery workers.
func (d *Dispatcher) Start() {
	for i := 0; i < d.cfg.Workers; i++ {
		d.wg.Add(1)
		go d.worker()
	}

	log.Printf("Notification dispatcher started with %d workers", d.cfg.Workers)
}

// Stop shuts the dispatcher down. In-flight deliveries finish their current
// attempt; drafts still queued are dropped with a trace in the log.
func (d *Dispatcher) Stop() {
	d.cancel()
	d.wg.Wait()

	// The queue stays open: late Enqueue fallbacks may still hold a
	// reference, and they bail out via the cancelled context.
	if dropped := len(d.queue); dropped > 0 {
		log.Printf("Dispatcher stopped with %d undelivered drafts", dropped)
	}
}

// Enqueue hands a draft to the background workers without blocking the
// request path. If the queue is momentarily full, handoff moves to a
// goroutine so the caller still returns immediately.
func (d *Dispatcher) Enqueue(draft Draft) {
	select {
	case <-d.ctx.Done():
		log.Printf("Dispatcher stopped, dropping draft %s for %s", draft.ID, draft.RecipientEmail)
		return
	default:
	}

	select {
	case d.queue <- draft:
	default:
		go func() {
			select {
			case d.queue <- draft:
			case <-d.ctx.Done():
				log.Printf("Dispatcher stopped, dropping draft %s for %s", draft.ID, draft.RecipientEmail)
			}
		}()
	}
}

func (d *Dispatcher) worker() {
	defer d.wg.Done()

	for {
		select {
		case <-d.ctx.Done():
			return
		case draft := <-d.queue:
			d.deliver(draft)
		}
	}
}

// deliver attempts the draft up to MaxAttempts times, doubling the backoff
// between attempts. Failures never propagate beyond this method.
func (d *Dispatcher) deliver(draft Draft) {
	backoff := d.cfg.RetryBackoff

	for attempt := 1; attempt <= d.cfg.MaxAttempts; attempt++ {
		attemptCtx, cancel := context.WithTimeout(d.ctx, d.cfg.AttemptTimeout)
		err := d.channel.Send(attemptCtx, draft.RecipientEmail, draft.Subject, draft.Body)
		cancel()

		if err == nil {
			log.Printf("Delivered draft %s to %s (attempt %d)", draft.ID, draft.RecipientEmail, attempt)
			return
		}

		if attempt == d.cfg.MaxAttempts {
			log.Printf("Draft %s to %s exhausted %d attempts, dropping: %v",
				draft.ID, draft.RecipientEmail, d.cfg.MaxAttempts, err)
			return
		}

		log.Printf("Delivery of draft %s to %s failed (attempt %d): %v",
			draft.ID, draft.RecipientEmail, attempt, err)

		select {
		case <-d.ctx.Done():
			log.Printf("Dispatcher stopping, dropping draft %s for %s", draft.ID, draft.RecipientEmail)
			return
		case <-time.After(backoff):
		}
		backoff *= 2
	}
}
