// Package notify delivers outbound email. Delivery is a side effect of the
// workflows that call it: failures are reported to the caller for logging
// and never undo a store mutation.
package notify

import (
	"context"

	"github.com/sirupsen/logrus"
	"teknologiumum.com/pesto/models"
)

type Notifier interface {
	Notify(ctx context.Context, email models.Email) error
}

// LogNotifier writes the message envelope to the log instead of sending it.
// It is used when no mail provider is configured.
type LogNotifier struct {
	logger *logrus.Entry
}

func NewLogNotifier() *LogNotifier {
	return &LogNotifier{
		logger: logrus.WithField("component", "log_notifier"),
	}
}

func (n *LogNotifier) Notify(_ context.Context, email models.Email) error {
	n.logger.WithFields(logrus.Fields{
		"to":      email.To,
		"subject": email.Subject,
	}).Info("mail provider not configured, email not sent")
	return nil
}
