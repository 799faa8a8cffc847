package notify

import (
	"context"
	"fmt"

	"github.com/cardaverse-ai/cardaverse-customcard/core"
	"github.com/resend/resend-go/v2"
	"github.com/sirupsen/logrus"
)

type resendNotifier struct {
	client *resend.Client
	from   string
}

// NewResend sends through the Resend HTTP API.
func NewResend(apiKey, from string) *resendNotifier {
	return &resendNotifier{client: resend.NewClient(apiKey), from: from}
}

func (n *resendNotifier) Send(ctx context.Context, msg core.Notification) error {
	html, text, err := Render(msg)
	if err != nil {
		return err
	}

	resp, err := n.client.Emails.SendWithContext(ctx, &resend.SendEmailRequest{
		From:    n.from,
		To:      []string{msg.Recipient},
		Subject: msg.Subject,
		Html:    html,
		Text:    text,
	})
	if err != nil {
		return fmt.Errorf("resend: %w", err)
	}

	logrus.WithFields(logrus.Fields{
		"order_number": msg.OrderNumber,
		"email_id":     resp.Id,
	}).Info("Email accepted by Resend")
	return nil
}
