package cmd

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/sirupsen/logrus"
	"teknologiumum.com/pesto/internal/notify"
	"teknologiumum.com/pesto/models"
)

// Disposition is what the consumer does with a delivery after processing.
type Disposition int

const (
	Ack Disposition = iota
	Requeue
	Drop
)

// NotificationWorker delivers queued NotificationTasks.
type NotificationWorker struct {
	notifier notify.Notifier
	timeout  time.Duration
	logger   *logrus.Entry
}

func NewNotificationWorker(notifier notify.Notifier, timeout time.Duration) *NotificationWorker {
	return &NotificationWorker{
		notifier: notifier,
		timeout:  timeout,
		logger:   logrus.WithField("component", "notification_worker"),
	}
}

// Process sends the task in body. Malformed tasks and permanent provider
// failures are dropped; everything else is retried.
func (w *NotificationWorker) Process(ctx context.Context, body []byte) Disposition {
	var task models.NotificationTask
	if err := json.Unmarshal(body, &task); err != nil {
		w.logger.WithError(err).Error("dropping malformed notification task")
		return Drop
	}
	if task.Email.To == "" {
		w.logger.WithField("task_id", task.ID).Error("dropping notification task without recipient")
		return Drop
	}

	log := w.logger.WithFields(logrus.Fields{
		"task_id": task.ID,
		"kind":    task.Kind,
		"to":      task.Email.To,
	})

	if w.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, w.timeout)
		defer cancel()
	}

	err := w.notifier.Notify(ctx, task.Email)
	if err == nil {
		log.Info("notification sent")
		return Ack
	}

	var delivery *notify.DeliveryError
	if errors.As(err, &delivery) && !delivery.Retryable() {
		log.WithError(err).Error("dropping notification after permanent failure")
		return Drop
	}
	log.WithError(err).Warn("notification failed, requeueing")
	return Requeue
}
