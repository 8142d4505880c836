package core

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

type blockingSender struct {
	mu      sync.Mutex
	sent    []string
	release chan struct{}
	err     error
}

func (s *blockingSender) SendVerificationCode(ctx context.Context, email, name, code string) error {
	if s.release != nil {
		select {
		case <-s.release:
		case <-ctx.Done():
			return ctx.Err()
		}
	}
	if s.err != nil {
		return s.err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sent = append(s.sent, email)
	return nil
}

func (s *blockingSender) sentTo() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]string(nil), s.sent...)
}

func TestEmailDispatcher_DeliversAndRecordsOutcome(t *testing.T) {
	sender := &blockingSender{}
	var mu sync.Mutex
	var outcomes []DispatchOutcome
	d := NewEmailDispatcher(sender, DispatcherOptions{
		Outcome: func(ctx context.Context, o DispatchOutcome) {
			mu.Lock()
			defer mu.Unlock()
			outcomes = append(outcomes, o)
		},
	})

	require.NoError(t, d.Enqueue(context.Background(), VerificationEmail{UserID: "u1", Email: "u1@example.com", Code: "AB12"}))
	d.Close()

	require.Equal(t, []string{"u1@example.com"}, sender.sentTo())
	mu.Lock()
	defer mu.Unlock()
	require.Len(t, outcomes, 1)
	require.Equal(t, DispatchSent, outcomes[0].State)
	require.Equal(t, "u1", outcomes[0].UserID)
}

func TestEmailDispatcher_RecordsFailure(t *testing.T) {
	sender := &blockingSender{err: errors.New("smtp down")}
	var mu sync.Mutex
	var outcomes []DispatchOutcome
	d := NewEmailDispatcher(sender, DispatcherOptions{
		Outcome: func(ctx context.Context, o DispatchOutcome) {
			mu.Lock()
			defer mu.Unlock()
			outcomes = append(outcomes, o)
		},
	})

	require.NoError(t, d.Enqueue(context.Background(), VerificationEmail{UserID: "u1", Email: "u1@example.com"}))
	d.Close()

	mu.Lock()
	defer mu.Unlock()
	require.Len(t, outcomes, 1)
	require.Equal(t, DispatchFailed, outcomes[0].State)
	require.Contains(t, outcomes[0].Error, "smtp down")
}

func TestEmailDispatcher_DropsWhenQueueFull(t *testing.T) {
	release := make(chan struct{})
	sender := &blockingSender{release: release}
	var mu sync.Mutex
	var dropped int
	d := NewEmailDispatcher(sender, DispatcherOptions{
		QueueSize: 1,
		Workers:   1,
		Outcome: func(ctx context.Context, o DispatchOutcome) {
			if o.State == DispatchDropped {
				mu.Lock()
				dropped++
				mu.Unlock()
			}
		},
	})

	// First message occupies the worker, second fills the queue, the rest drop.
	// Enqueue never blocks regardless.
	for i := 0; i < 5; i++ {
		require.NoError(t, d.Enqueue(context.Background(), VerificationEmail{UserID: "u", Email: "u@example.com"}))
	}
	// Give the worker a moment to pull the first message off the queue.
	time.Sleep(50 * time.Millisecond)
	close(release)
	d.Close()

	mu.Lock()
	defer mu.Unlock()
	require.GreaterOrEqual(t, dropped, 3)
}
