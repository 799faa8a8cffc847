package notify

import (
	"context"
	"fmt"
	"net"
	"net/smtp"

	"github.com/cardaverse-ai/cardaverse-customcard/core"
	"github.com/jhillyerd/enmime"
	"github.com/sirupsen/logrus"
)

type smtpNotifier struct {
	sender enmime.Sender
	from   string
}

// NewSMTP builds MIME messages with enmime and relays them through addr.
// Auth is PLAIN when username is set.
func NewSMTP(addr, username, password, from string) *smtpNotifier {
	var auth smtp.Auth
	if username != "" {
		host, _, err := net.SplitHostPort(addr)
		if err != nil {
			host = addr
		}
		auth = smtp.PlainAuth("", username, password, host)
	}
	return &smtpNotifier{sender: enmime.NewSMTP(addr, auth), from: from}
}

func (n *smtpNotifier) Send(ctx context.Context, msg core.Notification) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	html, text, err := Render(msg)
	if err != nil {
		return err
	}

	err = enmime.Builder().
		From("Cardaverse", n.from).
		To(msg.CustomerName, msg.Recipient).
		Subject(msg.Subject).
		Text([]byte(text)).
		HTML([]byte(html)).
		Send(n.sender)
	if err != nil {
		return fmt.Errorf("smtp: %w", err)
	}

	logrus.WithField("order_number", msg.OrderNumber).Info("Email sent over SMTP")
	return nil
}
