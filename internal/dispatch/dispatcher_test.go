package dispatch

import (
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"jobbridge_backend/internal/email"
	"jobbridge_backend/internal/models"
	"jobbridge_backend/internal/repositories"
)

type recordingSink struct {
	mu      sync.Mutex
	created []models.Notification
	seen    map[string]bool
	failAll bool
}

func newRecordingSink() *recordingSink {
	return &recordingSink{seen: map[string]bool{}}
}

func (s *recordingSink) Create(n *models.Notification) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.failAll {
		return errors.New("sink unavailable")
	}
	if n.DedupeKey != nil && s.seen[*n.DedupeKey] {
		return repositories.ErrDuplicateNotification
	}
	if n.DedupeKey != nil {
		s.seen[*n.DedupeKey] = true
	}
	s.created = append(s.created, *n)
	return nil
}

func (s *recordingSink) all() []models.Notification {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]models.Notification, len(s.created))
	copy(out, s.created)
	return out
}

type scriptedMailer struct {
	mu      sync.Mutex
	results []email.Result
	calls   int
}

func (m *scriptedMailer) Send(_, _ string, _ interface{}, _ email.Meta) email.Result {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls++
	if len(m.results) == 0 {
		return email.Result{Status: email.StatusSuccess}
	}
	r := m.results[0]
	m.results = m.results[1:]
	return r
}

func (m *scriptedMailer) callCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.calls
}

func testOptions() Options {
	return Options{
		QueueSize:     16,
		Workers:       1,
		MaxEmailTries: 3,
		Backoff:       &Constant{Interval: time.Millisecond},
	}
}

func TestDispatcher_PersistsNotifications(t *testing.T) {
	sink := newRecordingSink()
	d := NewDispatcher(sink, &scriptedMailer{}, testOptions())
	d.Start()

	event := NewEvent("job.approved")
	event.Notify(NotificationSpec{
		RecipientID:   "user-1",
		RecipientType: models.UserRoleCompany,
		Type:          "job_status",
		Title:         "Job posting approved",
		Message:       "Your job posting was approved",
	})
	event.Notify(NotificationSpec{
		RecipientID:   "user-2",
		RecipientType: models.UserRoleAdmin,
		Type:          "job_status",
		Title:         "Audit",
	})
	d.Enqueue(event)
	d.Stop(time.Second)

	created := sink.all()
	require.Len(t, created, 2)
	assert.Equal(t, "user-1", created[0].RecipientID)
	assert.Equal(t, event.ID+":0", *created[0].DedupeKey)
	assert.Equal(t, event.ID+":1", *created[1].DedupeKey)
}

func TestDispatcher_ReplayedEventIsDeduplicated(t *testing.T) {
	sink := newRecordingSink()
	d := NewDispatcher(sink, &scriptedMailer{}, testOptions())
	d.Start()

	event := NewEventWithID("fixed-id", "application.reviewed")
	event.Notify(NotificationSpec{RecipientID: "user-1", Type: "application_status", Title: "x"})

	d.Enqueue(event)
	replay := NewEventWithID("fixed-id", "application.reviewed")
	replay.Notify(NotificationSpec{RecipientID: "user-1", Type: "application_status", Title: "x"})
	d.Enqueue(replay)
	d.Stop(time.Second)

	assert.Len(t, sink.all(), 1)
}

func TestDispatcher_NotificationFailureDoesNotBlockEmail(t *testing.T) {
	sink := newRecordingSink()
	sink.failAll = true
	mailer := &scriptedMailer{}
	d := NewDispatcher(sink, mailer, testOptions())
	d.Start()

	event := NewEvent("application.hired")
	event.Notify(NotificationSpec{RecipientID: "user-1", Type: "application_status", Title: "x"})
	event.WithEmail(EmailSpec{To: "a@b.c", TemplateKey: "application_status"})
	d.Enqueue(event)
	d.Stop(time.Second)

	assert.Empty(t, sink.all())
	assert.Equal(t, 1, mailer.callCount())
}

func TestDispatcher_EmailRetriesUntilSuccess(t *testing.T) {
	mailer := &scriptedMailer{results: []email.Result{
		{Status: email.StatusError, Err: errors.New("smtp timeout")},
		{Status: email.StatusSuccess},
	}}
	d := NewDispatcher(newRecordingSink(), mailer, testOptions())
	d.Start()

	event := NewEvent("auth.registered")
	event.WithEmail(EmailSpec{To: "a@b.c", TemplateKey: "welcome"})
	d.Enqueue(event)
	d.Stop(time.Second)

	assert.Equal(t, 2, mailer.callCount())
}

func TestDispatcher_EmailGivesUpAfterMaxTries(t *testing.T) {
	mailer := &scriptedMailer{results: []email.Result{
		{Status: email.StatusError, Err: errors.New("smtp timeout")},
		{Status: email.StatusError, Err: errors.New("smtp timeout")},
		{Status: email.StatusError, Err: errors.New("smtp timeout")},
		{Status: email.StatusSuccess},
	}}
	d := NewDispatcher(newRecordingSink(), mailer, testOptions())
	d.Start()

	event := NewEvent("auth.registered")
	event.WithEmail(EmailSpec{To: "a@b.c", TemplateKey: "welcome"})
	d.Enqueue(event)
	d.Stop(time.Second)

	assert.Equal(t, 3, mailer.callCount())
}

func TestDispatcher_PermanentEmailFailureIsNotRetried(t *testing.T) {
	mailer := &scriptedMailer{results: []email.Result{
		{Status: email.StatusError, Err: &email.PermanentError{Err: errors.New("unknown template")}},
	}}
	d := NewDispatcher(newRecordingSink(), mailer, testOptions())
	d.Start()

	event := NewEvent("auth.registered")
	event.WithEmail(EmailSpec{To: "a@b.c", TemplateKey: "nope"})
	d.Enqueue(event)
	d.Stop(time.Second)

	assert.Equal(t, 1, mailer.callCount())
}

func TestDispatcher_SkippedEmailIsFinal(t *testing.T) {
	mailer := &scriptedMailer{results: []email.Result{
		{Status: email.StatusSkipped},
	}}
	d := NewDispatcher(newRecordingSink(), mailer, testOptions())
	d.Start()

	event := NewEvent("application.reviewed")
	event.WithEmail(EmailSpec{To: "a@b.c", UserID: "user-1", TemplateKey: "application_status"})
	d.Enqueue(event)
	d.Stop(time.Second)

	assert.Equal(t, 1, mailer.callCount())
}

func TestDispatcher_FullQueueDropsInsteadOfBlocking(t *testing.T) {
	sink := newRecordingSink()
	d := NewDispatcher(sink, &scriptedMailer{}, Options{
		QueueSize: 1,
		Workers:   1,
		Backoff:   &Constant{Interval: time.Millisecond},
	})
	// Not started: nothing drains the queue, so the second enqueue must
	// hit the full-queue path without blocking.
	d.Enqueue(NewEvent("a"))

	done := make(chan struct{})
	go func() {
		d.Enqueue(NewEvent("b"))
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("Enqueue blocked on a full queue")
	}
}

func TestDispatcher_EnqueueAfterStopIsDropped(t *testing.T) {
	sink := newRecordingSink()
	d := NewDispatcher(sink, &scriptedMailer{}, testOptions())
	d.Start()
	d.Stop(time.Second)

	event := NewEvent("late")
	event.Notify(NotificationSpec{RecipientID: "user-1", Type: "x", Title: "x"})
	d.Enqueue(event)

	assert.Empty(t, sink.all())
}

func TestDispatcher_PanicInHandlerIsContained(t *testing.T) {
	sink := &panicOnceSink{inner: newRecordingSink()}
	d := NewDispatcher(sink, &scriptedMailer{}, testOptions())
	d.Start()

	boom := NewEvent("boom")
	boom.Notify(NotificationSpec{RecipientID: "user-1", Type: "x", Title: "x"})
	d.Enqueue(boom)

	// A second event after the panic proves the worker survived.
	ok := NewEvent("ok")
	ok.Notify(NotificationSpec{RecipientID: "user-2", Type: "x", Title: "x"})
	d.Enqueue(ok)
	d.Stop(time.Second)

	created := sink.inner.all()
	require.Len(t, created, 1)
	assert.Equal(t, "user-2", created[0].RecipientID)
}

// panicOnceSink panics on the first Create and delegates afterwards.
type panicOnceSink struct {
	mu       sync.Mutex
	panicked bool
	inner    *recordingSink
}

func (s *panicOnceSink) Create(n *models.Notification) error {
	s.mu.Lock()
	first := !s.panicked
	s.panicked = true
	s.mu.Unlock()
	if first {
		panic("sink exploded")
	}
	return s.inner.Create(n)
}

func TestDispatcher_EnqueueDuringStopDoesNotPanic(t *testing.T) {
	// Producers race Stop closing the queue; every Enqueue must either
	// deliver or drop, never send on the closed channel.
	for i := 0; i < 100; i++ {
		d := NewDispatcher(newRecordingSink(), &scriptedMailer{}, testOptions())
		d.Start()

		var wg sync.WaitGroup
		for p := 0; p < 4; p++ {
			wg.Add(1)
			go func() {
				defer wg.Done()
				for j := 0; j < 25; j++ {
					e := NewEvent("stress")
					e.Notify(NotificationSpec{RecipientID: "user-1", Type: "x", Title: "x"})
					d.Enqueue(e)
				}
			}()
		}

		d.Stop(time.Second)
		wg.Wait()
	}
}
