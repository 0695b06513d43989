// Package dispatch delivers lifecycle side effects (notifications,
// email) on a bounded background queue. Enqueue happens after the
// triggering write has committed; nothing here can fail or roll back a
// transition. Handlers are idempotent so a replayed event is safe.
package dispatch

import (
	"errors"
	"sync"
	"time"

	"jobbridge_backend/internal/email"
	"jobbridge_backend/internal/logger"
	"jobbridge_backend/internal/models"
	"jobbridge_backend/internal/repositories"
)

// NotificationSink persists notification records. Satisfied by the
// notification repository.
type NotificationSink interface {
	Create(n *models.Notification) error
}

type Options struct {
	QueueSize     int
	Workers       int
	MaxEmailTries int
	Backoff       Strategy
}

func (o *Options) defaults() {
	if o.QueueSize <= 0 {
		o.QueueSize = 256
	}
	if o.Workers <= 0 {
		o.Workers = 2
	}
	if o.MaxEmailTries <= 0 {
		o.MaxEmailTries = 3
	}
	if o.Backoff == nil {
		o.Backoff = DefaultStrategy()
	}
}

// Dispatcher owns the effect queue and its worker pool. Construct with
// NewDispatcher, start with Start, and Stop on shutdown; there is no
// implicit first-use initialization.
type Dispatcher struct {
	sink    NotificationSink
	mailer  email.Sender
	opts    Options
	queue   chan *Event
	wg      sync.WaitGroup
	started bool
	stopped bool
	mu      sync.Mutex
}

func NewDispatcher(sink NotificationSink, mailer email.Sender, opts Options) *Dispatcher {
	opts.defaults()
	return &Dispatcher{
		sink:   sink,
		mailer: mailer,
		opts:   opts,
		queue:  make(chan *Event, opts.QueueSize),
	}
}

// Start launches the worker pool.
func (d *Dispatcher) Start() {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.started {
		return
	}
	d.started = true

	for i := 0; i < d.opts.Workers; i++ {
		d.wg.Add(1)
		go d.worker()
	}
}

// Enqueue hands an event to the background workers. Never blocks: when
// the queue is full the event is dropped with a log line, keeping the
// request path unaffected by a backed-up side-effect pipeline.
func (d *Dispatcher) Enqueue(e *Event) {
	if e == nil {
		return
	}

	// The lock is held across the send so Stop cannot close the queue
	// between the stopped check and the send. The send itself never
	// blocks, so the critical section stays bounded.
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.stopped {
		logger.Warn("effect dropped: dispatcher stopped", "event", e.Kind, "event_id", e.ID)
		return
	}

	select {
	case d.queue <- e:
	default:
		logger.Warn("effect dropped: queue full", "event", e.Kind, "event_id", e.ID)
	}
}

// Stop closes the queue and waits for in-flight events to drain, up to
// the given timeout.
func (d *Dispatcher) Stop(timeout time.Duration) {
	d.mu.Lock()
	if !d.started || d.stopped {
		d.mu.Unlock()
		return
	}
	d.stopped = true
	close(d.queue)
	d.mu.Unlock()

	done := make(chan struct{})
	go func() {
		d.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(timeout):
		logger.Warn("dispatcher stopped before queue drained")
	}
}

func (d *Dispatcher) worker() {
	defer d.wg.Done()
	for e := range d.queue {
		d.handle(e)
	}
}

// handle delivers one event. A panic in a handler is contained here;
// it can never reach a request path.
func (d *Dispatcher) handle(e *Event) {
	defer func() {
		if r := recover(); r != nil {
			logger.Error("panic in effect handler", "event", e.Kind, "event_id", e.ID, "panic", r)
		}
	}()

	for i, spec := range e.Notifications {
		key := e.dedupeKey(i)
		n := &models.Notification{
			RecipientID:   spec.RecipientID,
			RecipientType: spec.RecipientType,
			Type:          spec.Type,
			Title:         spec.Title,
			Message:       spec.Message,
			Link:          spec.Link,
			DedupeKey:     &key,
		}
		if err := d.sink.Create(n); err != nil {
			if errors.Is(err, repositories.ErrDuplicateNotification) {
				logger.DispatchLog(e.Kind, "notification_duplicate", 1, nil)
				continue
			}
			// Logged and dropped; notification failures never
			// propagate to the transition that caused them.
			logger.DispatchLog(e.Kind, "notification_failed", 1, err)
		}
	}

	if e.Email != nil {
		d.deliverEmail(e)
	}
}

func (d *Dispatcher) deliverEmail(e *Event) {
	spec := e.Email

	for attempt := 1; attempt <= d.opts.MaxEmailTries; attempt++ {
		result := d.mailer.Send(spec.To, spec.TemplateKey, spec.Data, email.Meta{
			UserID: spec.UserID,
			Type:   spec.Type,
		})

		switch result.Status {
		case email.StatusSuccess:
			logger.DispatchLog(e.Kind, "email_sent", attempt, nil)
			return
		case email.StatusSkipped:
			logger.DispatchLog(e.Kind, "email_skipped", attempt, nil)
			return
		}

		var perm *email.PermanentError
		if errors.As(result.Err, &perm) {
			logger.DispatchLog(e.Kind, "email_permanent_failure", attempt, result.Err)
			return
		}

		if attempt < d.opts.MaxEmailTries {
			time.Sleep(d.opts.Backoff.Delay(attempt))
			continue
		}
		logger.DispatchLog(e.Kind, "email_gave_up", attempt, result.Err)
	}
}
