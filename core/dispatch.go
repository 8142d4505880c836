package core

import (
	"context"
	stdlog "log"
	"sync"
	"time"
)

// EmailSender delivers verification codes. Implementations may block; the
// dispatcher isolates callers from that.
type EmailSender interface {
	// SendVerificationCode sends a verification code to the given address with
	// personalization. The name may be empty.
	SendVerificationCode(ctx context.Context, email, name, code string) error
}

// VerificationEmail is the transient message handed to a dispatcher. It is
// consumed once and never persisted.
type VerificationEmail struct {
	UserID string `json:"user_id"`
	Email  string `json:"email"`
	Name   string `json:"name"`
	Code   string `json:"code"`
}

// Dispatcher accepts a verification email for asynchronous delivery. Enqueue
// must not block on delivery; a nil error means the message was accepted, not
// that it was (or will be) delivered.
type Dispatcher interface {
	Enqueue(ctx context.Context, msg VerificationEmail) error
}

// DispatchState labels the terminal state of a dispatch attempt.
type DispatchState string

const (
	DispatchSent    DispatchState = "sent"
	DispatchFailed  DispatchState = "failed"
	DispatchDropped DispatchState = "dropped"
)

// DispatchOutcome is a best-effort delivery record. It is logged and optionally
// journaled to the ephemeral store; it is never surfaced in HTTP responses.
type DispatchOutcome struct {
	UserID string        `json:"user_id"`
	Email  string        `json:"email"`
	State  DispatchState `json:"state"`
	Error  string        `json:"error,omitempty"`
	At     time.Time     `json:"at"`
}

// OutcomeFunc observes terminal dispatch states.
type OutcomeFunc func(ctx context.Context, o DispatchOutcome)

// DispatcherOptions tunes the in-process dispatcher. Zero values get defaults.
type DispatcherOptions struct {
	QueueSize   int           // default 64
	Workers     int           // default 2
	SendTimeout time.Duration // default 30s
	Outcome     OutcomeFunc
}

// EmailDispatcher is a bounded in-process background worker for verification
// emails. It preserves the caller-does-not-wait contract: Enqueue hands the
// message to a fixed-size queue and returns immediately, dropping (with a
// logged outcome) when the queue is full.
type EmailDispatcher struct {
	sender  EmailSender
	queue   chan VerificationEmail
	outcome OutcomeFunc
	timeout time.Duration

	wg        sync.WaitGroup
	closeOnce sync.Once
}

func NewEmailDispatcher(sender EmailSender, opts DispatcherOptions) *EmailDispatcher {
	if opts.QueueSize <= 0 {
		opts.QueueSize = 64
	}
	if opts.Workers <= 0 {
		opts.Workers = 2
	}
	if opts.SendTimeout <= 0 {
		opts.SendTimeout = 30 * time.Second
	}
	d := &EmailDispatcher{
		sender:  sender,
		queue:   make(chan VerificationEmail, opts.QueueSize),
		outcome: opts.Outcome,
		timeout: opts.SendTimeout,
	}
	for i := 0; i < opts.Workers; i++ {
		d.wg.Add(1)
		go d.work()
	}
	return d
}

// Enqueue accepts the message without waiting on delivery. When the queue is
// full the message is dropped and the drop is observable via log/outcome only.
func (d *EmailDispatcher) Enqueue(ctx context.Context, msg VerificationEmail) error {
	select {
	case d.queue <- msg:
		return nil
	default:
		stdlog.Printf("[verifykit/dispatch] queue full, dropping email user=%s to=%s", msg.UserID, msg.Email)
		d.record(ctx, msg, DispatchDropped, "queue full")
		return nil
	}
}

// Close stops accepting work and waits for in-flight sends to finish.
func (d *EmailDispatcher) Close() {
	d.closeOnce.Do(func() { close(d.queue) })
	d.wg.Wait()
}

func (d *EmailDispatcher) work() {
	defer d.wg.Done()
	for msg := range d.queue {
		ctx, cancel := context.WithTimeout(context.Background(), d.timeout)
		err := d.sender.SendVerificationCode(ctx, msg.Email, msg.Name, msg.Code)
		cancel()
		if err != nil {
			stdlog.Printf("[verifykit/dispatch] send failed user=%s to=%s err=%v", msg.UserID, msg.Email, err)
			d.record(context.Background(), msg, DispatchFailed, err.Error())
			continue
		}
		d.record(context.Background(), msg, DispatchSent, "")
	}
}

func (d *EmailDispatcher) record(ctx context.Context, msg VerificationEmail, state DispatchState, errMsg string) {
	if d.outcome == nil {
		return
	}
	d.outcome(ctx, DispatchOutcome{
		UserID: msg.UserID,
		Email:  msg.Email,
		State:  state,
		Error:  errMsg,
		At:     time.Now(),
	})
}
