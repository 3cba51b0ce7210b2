package notifications

import "context"

type AccountEmailInput struct {
	Email string
	Name  string
}

type Notifier interface {
	SendWelcome(ctx context.Context, input AccountEmailInput) error
	SendCancellation(ctx context.Context, input AccountEmailInput) error
}
