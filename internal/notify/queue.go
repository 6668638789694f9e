package notify

import (
	"context"
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	amqp "github.com/rabbitmq/amqp091-go"
	"teknologiumum.com/pesto/models"
)

// Publisher is the part of *amqp.Channel the queue notifier needs.
type Publisher interface {
	PublishWithContext(ctx context.Context, exchange, key string, mandatory, immediate bool, msg amqp.Publishing) error
}

// QueueNotifier hands emails to the notification worker through RabbitMQ
// instead of calling the mail provider inline.
type QueueNotifier struct {
	publisher Publisher
	queue     string
	kind      string
	now       func() time.Time
}

func NewQueueNotifier(publisher Publisher, queue string, kind string) *QueueNotifier {
	return &QueueNotifier{
		publisher: publisher,
		queue:     queue,
		kind:      kind,
		now:       time.Now,
	}
}

func (n *QueueNotifier) Notify(ctx context.Context, email models.Email) error {
	task := models.NotificationTask{
		ID:         uuid.NewString(),
		Kind:       n.kind,
		Email:      email,
		EnqueuedAt: n.now().UTC(),
	}
	body, err := json.Marshal(task)
	if err != nil {
		return errors.Wrap(err, "encoding notification task")
	}

	err = n.publisher.PublishWithContext(ctx, "", n.queue, false, false, amqp.Publishing{
		DeliveryMode: amqp.Persistent,
		ContentType:  "application/json",
		MessageId:    task.ID,
		Body:         body,
	})
	if err != nil {
		return &models.BackendError{Op: "publish", Key: n.queue, Err: err}
	}
	return nil
}
