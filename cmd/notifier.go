package cmd

import (
	helpers "github.com/Lineblocs/go-helpers"
	"github.com/sirupsen/logrus"
	"teknologiumum.com/pesto/internal/notify"
	"teknologiumum.com/pesto/models"
	"teknologiumum.com/pesto/utils"
)

// DirectNotifier sends through mailgun when credentials are set and logs
// the message otherwise.
func DirectNotifier(settings *models.Settings) notify.Notifier {
	if settings.UseMailgun() {
		return notify.NewMailgunNotifier(settings.MailgunDomain, settings.MailgunAPIKey, settings.MailgunAPIBase, settings.MailFrom)
	}
	helpers.Log(logrus.WarnLevel, "MAILGUN_API_KEY or MAILGUN_DOMAIN is not set, emails will only be logged")
	return notify.NewLogNotifier()
}

// CreateNotifier picks the queue when QUEUE_URL is set so the worker does the
// delivery, and falls back to DirectNotifier. The returned func releases the
// broker connection.
func CreateNotifier(settings *models.Settings, kind string) (notify.Notifier, func() error, error) {
	if !settings.UseQueue() {
		return DirectNotifier(settings), func() error { return nil }, nil
	}

	conn, ch, err := utils.CreateAMQPChannel(settings.QueueURL, settings.NotifyQueue)
	if err != nil {
		return nil, nil, err
	}
	release := func() error {
		_ = ch.Close()
		return conn.Close()
	}
	return notify.NewQueueNotifier(ch, settings.NotifyQueue, kind), release, nil
}
