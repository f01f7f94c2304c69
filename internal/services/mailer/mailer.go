package mailer

import (
	"context"
	"fmt"
	"time"

	"github.com/amaumene/tvshowfetcher/internal/config"
	"github.com/cenkalti/backoff/v4"
	"github.com/mailjet/mailjet-apiv3-go/v4"
	"github.com/sirupsen/logrus"
)

// CustomID tags every notification sent through Mailjet
const CustomID = "FetcherNotification"

// Notifier sends a plain text notification to the operator
type Notifier interface {
	Notify(ctx context.Context, subject, body string) error
}

// sendFunc matches mailjet.Client.SendMailV31
type sendFunc func(data *mailjet.MessagesV31, options ...mailjet.RequestOptions) (*mailjet.ResultsV31, error)

// Mailer sends notifications through the Mailjet Send API v3.1
type Mailer struct {
	send       sendFunc
	from       string
	to         []string
	maxRetries uint64
	logger     *logrus.Logger
}

// NewMailer creates a Mailjet backed notifier
func NewMailer(cfg *config.Config, logger *logrus.Logger) *Mailer {
	client := mailjet.NewMailjetClient(cfg.MailjetAPIKey, cfg.MailjetAPISecret)
	return &Mailer{
		send:       client.SendMailV31,
		from:       cfg.MailFrom,
		to:         cfg.MailTo,
		maxRetries: 3,
		logger:     logger,
	}
}

// BuildMessage assembles the single message sent for a notification
func BuildMessage(from string, to []string, subject, body string) *mailjet.MessagesV31 {
	recipients := make(mailjet.RecipientsV31, 0, len(to))
	for _, addr := range to {
		recipients = append(recipients, mailjet.RecipientV31{Email: addr})
	}

	return &mailjet.MessagesV31{
		Info: []mailjet.InfoMessagesV31{
			{
				From:     &mailjet.RecipientV31{Email: from},
				To:       &recipients,
				Subject:  subject,
				TextPart: body,
				CustomID: CustomID,
			},
		},
	}
}

// Notify sends the message, retrying transient failures with exponential backoff
func (m *Mailer) Notify(ctx context.Context, subject, body string) error {
	messages := BuildMessage(m.from, m.to, subject, body)

	policy := backoff.NewExponentialBackOff()
	policy.InitialInterval = 500 * time.Millisecond
	policy.MaxElapsedTime = 30 * time.Second

	attempt := 0
	operation := func() error {
		attempt++
		res, err := m.send(messages)
		if err != nil {
			m.logger.WithError(err).WithField("attempt", attempt).Warn("Mail send failed")
			return err
		}
		if res != nil {
			for _, r := range res.ResultsV31 {
				if r.Status != "success" {
					return backoff.Permanent(fmt.Errorf("mailjet rejected message: status %s", r.Status))
				}
			}
		}
		return nil
	}

	err := backoff.Retry(operation, backoff.WithContext(backoff.WithMaxRetries(policy, m.maxRetries), ctx))
	if err != nil {
		return fmt.Errorf("failed to send notification %q: %w", subject, err)
	}

	m.logger.WithFields(logrus.Fields{
		"subject":    subject,
		"recipients": len(m.to),
	}).Info("Notification sent")
	return nil
}

// LogNotifier writes notifications to the log when mail is not configured
type LogNotifier struct {
	logger *logrus.Logger
}

// NewLogNotifier creates a notifier that only logs
func NewLogNotifier(logger *logrus.Logger) *LogNotifier {
	return &LogNotifier{logger: logger}
}

func (n *LogNotifier) Notify(_ context.Context, subject, body string) error {
	n.logger.WithField("subject", subject).Info(body)
	return nil
}
