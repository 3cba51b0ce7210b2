package notifications

import (
	"context"
	"fmt"
	"log"
	"os"
	"strconv"
	"time"
)

// LogNotifier is the dev/default notifier: it only logs what would be sent.
type LogNotifier struct{}

func NewLogNotifier() *LogNotifier { return &LogNotifier{} }

func (n *LogNotifier) SendWelcome(ctx context.Context, in AccountEmailInput) error {
	return n.send(ctx, "welcome", in)
}

func (n *LogNotifier) SendCancellation(ctx context.Context, in AccountEmailInput) error {
	return n.send(ctx, "cancellation", in)
}

func (n *LogNotifier) send(ctx context.Context, kind string, in AccountEmailInput) error {
	// Optional: simulate slow provider
	if msStr := os.Getenv("NOTIFIER_SLEEP_MS"); msStr != "" {
		ms, _ := strconv.Atoi(msStr)
		if ms > 0 {
			select {
			case <-time.After(time.Duration(ms) * time.Millisecond):
			case <-ctx.Done():
				return ctx.Err()
			}
		}
	}

	// Optional: simulate provider outage
	if os.Getenv("NOTIFIER_FAIL") == "1" {
		return fmt.Errorf("provider down (simulated)")
	}

	log.Printf("notification.%s email=%s name=%s", kind, in.Email, in.Name)
	return nil
}
