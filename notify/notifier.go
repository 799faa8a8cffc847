package notify

import (
	"context"
	"fmt"

	"github.com/cardaverse-ai/cardaverse-customcard/config"
	"github.com/cardaverse-ai/cardaverse-customcard/core"
	"github.com/sirupsen/logrus"
)

type logNotifier struct{}

// NewLog only logs the email. Used in development.
func NewLog() core.Notifier {
	return logNotifier{}
}

func (logNotifier) Send(ctx context.Context, msg core.Notification) error {
	entry := logrus.WithFields(logrus.Fields{
		"order_number": msg.OrderNumber,
		"recipient":    msg.Recipient,
		"subject":      msg.Subject,
	})
	for _, item := range msg.Items {
		entry.WithFields(logrus.Fields{
			"title":    item.Title,
			"quantity": item.Quantity,
			"url":      item.DownloadURL,
		}).Info("Download link")
	}
	return nil
}

func GetNotifier(cfg config.EmailConfig) (core.Notifier, error) {
	var notifier core.Notifier
	fields := logrus.Fields{"notifierType": cfg.Notifier, "from": cfg.From}

	switch cfg.Notifier {
	case "resend":
		if cfg.ResendAPIKey == "" {
			return nil, fmt.Errorf("RESEND_API_KEY must be set for resend notifier")
		}
		notifier = NewResend(cfg.ResendAPIKey, cfg.From)
	case "smtp":
		if cfg.SMTPAddr == "" {
			return nil, fmt.Errorf("SMTP_ADDR must be set for smtp notifier")
		}
		fields["smtpAddr"] = cfg.SMTPAddr
		notifier = NewSMTP(cfg.SMTPAddr, cfg.SMTPUsername, cfg.SMTPPassword, cfg.From)
	default:
		fields["notifierType"] = "log"
		notifier = NewLog()
	}
	logrus.WithFields(fields).Info("Use notifier")
	return notifier, nil
}
