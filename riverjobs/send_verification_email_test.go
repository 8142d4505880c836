package riverjobs

import (
	"context"
	"errors"
	"testing"

	"github.com/riverqueue/river"
	"github.com/stretchr/testify/require"

	"github.com/open-rails/verifykit/core"
)

type fakeSender struct {
	sent []string
	err  error
}

func (s *fakeSender) SendVerificationCode(ctx context.Context, email, name, code string) error {
	if s.err != nil {
		return s.err
	}
	s.sent = append(s.sent, email)
	return nil
}

func TestSendVerificationEmailArgs_SingleAttempt(t *testing.T) {
	opts := SendVerificationEmailArgs{}.InsertOpts()
	require.Equal(t, 1, opts.MaxAttempts)
}

func TestSendVerificationEmailWorker_ReportsOutcome(t *testing.T) {
	sender := &fakeSender{}
	var outcomes []core.DispatchOutcome
	w := NewSendVerificationEmailWorker(sender, func(ctx context.Context, o core.DispatchOutcome) {
		outcomes = append(outcomes, o)
	})

	job := &river.Job[SendVerificationEmailArgs]{
		Args: SendVerificationEmailArgs{UserID: "u1", Email: "u1@example.com", Code: "AB12"},
	}
	require.NoError(t, w.Work(context.Background(), job))
	require.Equal(t, []string{"u1@example.com"}, sender.sent)
	require.Len(t, outcomes, 1)
	require.Equal(t, core.DispatchSent, outcomes[0].State)

	sender.err = errors.New("smtp down")
	require.Error(t, w.Work(context.Background(), job))
	require.Len(t, outcomes, 2)
	require.Equal(t, core.DispatchFailed, outcomes[1].State)
	require.Contains(t, outcomes[1].Error, "smtp down")
}

func TestPurgeVerifiedCodesWorker_RequiresStore(t *testing.T) {
	w := NewPurgeVerifiedCodesWorker(nil)
	err := w.Work(context.Background(), &river.Job[PurgeVerifiedCodesArgs]{Args: PurgeVerifiedCodesArgs{}})
	require.Error(t, err)
}
