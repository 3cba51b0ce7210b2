package notifications

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/geocoder89/taskhub/internal/observability"
)

var ErrCircuitOpen = errors.New("circuit breaker open")

type ProtectedNotifierConfig struct {
	Timeout          time.Duration       // hard timeout per send
	FailureThreshold int                 // consecutive failures to open circuit
	Cooldown         time.Duration       // how long to stay open before half-open
	HalfOpenMaxCalls int                 // allow N trial calls in half-open
	Prom             *observability.Prom // optional send-outcome counters
}

// ProtectedNotifier wraps another notifier with a per-send timeout and a
// circuit breaker, so a dead mail provider cannot pile up goroutines.
type ProtectedNotifier struct {
	inner Notifier
	cfg   ProtectedNotifierConfig
	mu    sync.Mutex

	state string // "closed" | "open" | "half_open"

	consecutiveFailures int
	openedAt            time.Time
	halfOpenInFlight    int
}

func NewProtectedNotifier(inner Notifier, cfg ProtectedNotifierConfig) *ProtectedNotifier {
	//defaults
	if cfg.Timeout <= 0 {
		cfg.Timeout = 3 * time.Second
	}
	if cfg.FailureThreshold <= 0 {
		cfg.FailureThreshold = 3
	}
	if cfg.Cooldown <= 0 {
		cfg.Cooldown = 15 * time.Second
	}
	if cfg.HalfOpenMaxCalls <= 0 {
		cfg.HalfOpenMaxCalls = 1
	}

	return &ProtectedNotifier{
		inner: inner,
		cfg:   cfg,
		state: "closed",
	}
}

func (n *ProtectedNotifier) SendWelcome(ctx context.Context, input AccountEmailInput) error {
	return n.protect(ctx, "welcome", func(sendCtx context.Context) error {
		return n.inner.SendWelcome(sendCtx, input)
	})
}

func (n *ProtectedNotifier) SendCancellation(ctx context.Context, input AccountEmailInput) error {
	return n.protect(ctx, "cancellation", func(sendCtx context.Context) error {
		return n.inner.SendCancellation(sendCtx, input)
	})
}

func (n *ProtectedNotifier) protect(ctx context.Context, kind string, send func(context.Context) error) error {
	// fail-fast gate

	if !n.allowRequest() {
		n.observe(kind, "dropped")
		return ErrCircuitOpen
	}
	// enforce timeout

	sendCtx, cancel := context.WithTimeout(ctx, n.cfg.Timeout)
	defer cancel()

	err := send(sendCtx)

	n.afterRequest(err)

	if err != nil {
		n.observe(kind, "failed")
	} else {
		n.observe(kind, "sent")
	}

	return err
}

func (n *ProtectedNotifier) observe(kind, result string) {
	if n.cfg.Prom != nil {
		n.cfg.Prom.NotificationResults.WithLabelValues(kind, result).Inc()
	}
}

func (n *ProtectedNotifier) allowRequest() bool {
	n.mu.Lock()
	defer n.mu.Unlock()

	switch n.state {
	case "closed":
		return true
	case "open":
		// cooldown has passed? move to half open

		if time.Since(n.openedAt) >= n.cfg.Cooldown {
			n.state = "half_open"
			n.halfOpenInFlight = 0
			return true
		}
		return false
	case "half_open":
		if n.halfOpenInFlight >= n.cfg.HalfOpenMaxCalls {
			return false
		}
		n.halfOpenInFlight++
		return true

	default:
		// safe fallback
		return true
	}

}

func (n *ProtectedNotifier) afterRequest(err error) {
	n.mu.Lock()
	defer n.mu.Unlock()

	// half-open call just finished
	if n.state == "half_open" && n.halfOpenInFlight > 0 {
		n.halfOpenInFlight--
	}

	if err == nil {
		// success => close circuit and reset counters
		n.consecutiveFailures = 0
		n.state = "closed"
		return
	}

	// failure
	n.consecutiveFailures++

	// if half-open failed, reopen immediately
	if n.state == "half_open" {
		n.state = "open"
		n.openedAt = time.Now()
		return
	}

	// if failures reached threshold, open circuit
	if n.consecutiveFailures >= n.cfg.FailureThreshold {
		n.state = "open"
		n.openedAt = time.Now()
	}
}
