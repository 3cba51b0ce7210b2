package notifications_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/geocoder89/taskhub/internal/notifications"
)

type flakyNotifier struct {
	err   error
	calls int
}

func (f *flakyNotifier) SendWelcome(context.Context, notifications.AccountEmailInput) error {
	f.calls++
	return f.err
}

func (f *flakyNotifier) SendCancellation(context.Context, notifications.AccountEmailInput) error {
	f.calls++
	return f.err
}

func TestCircuitOpensAfterConsecutiveFailures(t *testing.T) {
	inner := &flakyNotifier{err: errors.New("provider down")}

	n := notifications.NewProtectedNotifier(inner, notifications.ProtectedNotifierConfig{
		FailureThreshold: 2,
		Cooldown:         time.Hour,
	})

	in := notifications.AccountEmailInput{Email: "a@example.com", Name: "A"}

	for i := 0; i < 2; i++ {
		if err := n.SendWelcome(context.Background(), in); err == nil {
			t.Fatal("expected inner failure to propagate")
		}
	}

	// circuit is open now: the inner notifier must not be reached
	err := n.SendWelcome(context.Background(), in)

	if !errors.Is(err, notifications.ErrCircuitOpen) {
		t.Fatalf("got %v, want ErrCircuitOpen", err)
	}

	if inner.calls != 2 {
		t.Fatalf("inner called %d times, want 2", inner.calls)
	}
}

func TestCircuitClosesAgainAfterHalfOpenSuccess(t *testing.T) {
	inner := &flakyNotifier{err: errors.New("provider down")}

	n := notifications.NewProtectedNotifier(inner, notifications.ProtectedNotifierConfig{
		FailureThreshold: 1,
		Cooldown:         time.Millisecond,
	})

	in := notifications.AccountEmailInput{Email: "a@example.com", Name: "A"}

	_ = n.SendCancellation(context.Background(), in) // opens the circuit

	time.Sleep(5 * time.Millisecond)

	inner.err = nil // provider recovered

	if err := n.SendCancellation(context.Background(), in); err != nil {
		t.Fatalf("half-open trial should pass through: %v", err)
	}

	if err := n.SendCancellation(context.Background(), in); err != nil {
		t.Fatalf("circuit should be closed again: %v", err)
	}
}
