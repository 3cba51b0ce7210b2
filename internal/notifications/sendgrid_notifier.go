package notifications

import (
	"context"
	"fmt"

	"github.com/sendgrid/sendgrid-go"
	"github.com/sendgrid/sendgrid-go/helpers/mail"
)

// SendGridNotifier delivers account lifecycle mail through SendGrid. Used in
// place of LogNotifier when an API key is configured.
type SendGridNotifier struct {
	client *sendgrid.Client
	from   *mail.Email
}

func NewSendGridNotifier(apiKey, fromName, fromAddr string) *SendGridNotifier {
	return &SendGridNotifier{
		client: sendgrid.NewSendClient(apiKey),
		from:   mail.NewEmail(fromName, fromAddr),
	}
}

func (n *SendGridNotifier) SendWelcome(ctx context.Context, in AccountEmailInput) error {
	subject := "Thanks for joining in!"
	body := fmt.Sprintf("Welcome to the app, %s. Let me know how you get along with the app.", in.Name)

	return n.send(ctx, in, subject, body)
}

func (n *SendGridNotifier) SendCancellation(ctx context.Context, in AccountEmailInput) error {
	subject := "Sorry to see you go"
	body := fmt.Sprintf("Goodbye, %s. Is there anything we could have done to keep you on board?", in.Name)

	return n.send(ctx, in, subject, body)
}

func (n *SendGridNotifier) send(ctx context.Context, in AccountEmailInput, subject, body string) error {
	to := mail.NewEmail(in.Name, in.Email)
	message := mail.NewSingleEmail(n.from, subject, to, body, body)

	resp, err := n.client.SendWithContext(ctx, message)

	if err != nil {
		return err
	}

	if resp.StatusCode >= 400 {
		return fmt.Errorf("sendgrid responded %d", resp.StatusCode)
	}

	return nil
}
