package riverjobs

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/riverqueue/river"

	"github.com/open-rails/verifykit/core"
)

type SendVerificationEmailArgs struct {
	UserID string `json:"user_id"`
	Email  string `json:"email"`
	Name   string `json:"name,omitempty"`
	Code   string `json:"code"`
}

func (SendVerificationEmailArgs) Kind() string { return "verifykit_send_verification_email" }

// InsertOpts caps attempts at one: a failed delivery is recorded, never retried.
// A retried job could deliver a code the user has since replaced.
func (SendVerificationEmailArgs) InsertOpts() river.InsertOpts {
	return river.InsertOpts{
		Queue:       river.QueueDefault,
		MaxAttempts: 1,
	}
}

// SendVerificationEmailWorker delivers one verification code email per job.
// The outcome hook, when set, receives the delivery result for observability.
type SendVerificationEmailWorker struct {
	river.WorkerDefaults[SendVerificationEmailArgs]
	sender  core.EmailSender
	outcome core.OutcomeFunc
}

func NewSendVerificationEmailWorker(sender core.EmailSender, outcome core.OutcomeFunc) *SendVerificationEmailWorker {
	return &SendVerificationEmailWorker{sender: sender, outcome: outcome}
}

func (w *SendVerificationEmailWorker) Timeout(*river.Job[SendVerificationEmailArgs]) time.Duration {
	return time.Minute
}

func (w *SendVerificationEmailWorker) Work(ctx context.Context, job *river.Job[SendVerificationEmailArgs]) error {
	if w == nil || w.sender == nil {
		return errors.New("verifykit send: email sender not configured")
	}
	args := job.Args
	err := w.sender.SendVerificationCode(ctx, args.Email, args.Name, args.Code)
	if w.outcome != nil {
		state := core.DispatchSent
		var errStr string
		if err != nil {
			state = core.DispatchFailed
			errStr = err.Error()
		}
		w.outcome(ctx, core.DispatchOutcome{
			UserID: args.UserID,
			Email:  args.Email,
			State:  state,
			Error:  errStr,
			At:     time.Now(),
		})
	}
	return err
}

// RiverDispatcher enqueues verification emails as durable River jobs instead of
// dispatching them from an in-process worker pool.
type RiverDispatcher struct {
	client *river.Client[pgx.Tx]
}

func NewRiverDispatcher(client *river.Client[pgx.Tx]) *RiverDispatcher {
	return &RiverDispatcher{client: client}
}

func (d *RiverDispatcher) Enqueue(ctx context.Context, msg core.VerificationEmail) error {
	if d == nil || d.client == nil {
		return errors.New("verifykit dispatch: river client not configured")
	}
	_, err := d.client.Insert(ctx, SendVerificationEmailArgs{
		UserID: msg.UserID,
		Email:  msg.Email,
		Name:   msg.Name,
		Code:   msg.Code,
	}, nil)
	return err
}
