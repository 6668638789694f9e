package cmd

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	helpers "github.com/Lineblocs/go-helpers"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"teknologiumum.com/pesto/internal/notify"
	"teknologiumum.com/pesto/models"
)

func taskBody(t *testing.T, email models.Email) []byte {
	t.Helper()
	body, err := json.Marshal(models.NotificationTask{ID: "task-1", Kind: models.TaskKindTokenIssued, Email: email})
	require.NoError(t, err)
	return body
}

func TestNotificationWorker(t *testing.T) {
	t.Parallel()
	helpers.InitLogrus("file")

	ctx := context.Background()
	email := models.Email{To: "ana@example.com", Subject: "hi", Text: "token"}

	t.Run("Should ack a delivered task", func(t *testing.T) {
		t.Parallel()

		notifier := &mockNotifier{}
		notifier.On("Notify", mock.Anything, email).Return(nil).Once()

		assert.Equal(t, Ack, NewNotificationWorker(notifier, time.Second).Process(ctx, taskBody(t, email)))
		notifier.AssertExpectations(t)
	})

	t.Run("Should drop malformed tasks without sending", func(t *testing.T) {
		t.Parallel()

		notifier := &mockNotifier{}
		worker := NewNotificationWorker(notifier, time.Second)

		assert.Equal(t, Drop, worker.Process(ctx, []byte("not json")))
		assert.Equal(t, Drop, worker.Process(ctx, taskBody(t, models.Email{Subject: "no recipient"})))
		notifier.AssertNotCalled(t, "Notify", mock.Anything, mock.Anything)
	})

	t.Run("Should requeue transient failures", func(t *testing.T) {
		t.Parallel()

		notifier := &mockNotifier{}
		notifier.On("Notify", mock.Anything, email).Return(&notify.DeliveryError{Kind: notify.UnderMaintenance, Status: http.StatusServiceUnavailable})
		assert.Equal(t, Requeue, NewNotificationWorker(notifier, time.Second).Process(ctx, taskBody(t, email)))

		notifier = &mockNotifier{}
		notifier.On("Notify", mock.Anything, email).Return(errors.New("unexpected"))
		assert.Equal(t, Requeue, NewNotificationWorker(notifier, time.Second).Process(ctx, taskBody(t, email)))
	})

	t.Run("Should drop permanent failures", func(t *testing.T) {
		t.Parallel()

		notifier := &mockNotifier{}
		notifier.On("Notify", mock.Anything, email).Return(&notify.DeliveryError{Kind: notify.Unauthorized, Status: http.StatusUnauthorized})
		assert.Equal(t, Drop, NewNotificationWorker(notifier, time.Second).Process(ctx, taskBody(t, email)))
	})

	t.Run("Should deliver through mailgun", func(t *testing.T) {
		t.Parallel()

		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("Content-Type", "application/json")
			_, _ = w.Write([]byte(`{"id":"<1@mg.example.com>","message":"Queued. Thank you."}`))
		}))
		defer srv.Close()

		settings := &models.Settings{
			MailgunDomain:  "mg.example.com",
			MailgunAPIKey:  "key-test",
			MailgunAPIBase: srv.URL + "/v3",
			MailFrom:       "pesto@example.com",
		}
		worker := NewNotificationWorker(DirectNotifier(settings), time.Second)
		assert.Equal(t, Ack, worker.Process(ctx, taskBody(t, email)))
	})
}

func TestCreateNotifier(t *testing.T) {
	t.Parallel()
	helpers.InitLogrus("file")

	t.Run("Should fall back to logging without mail credentials", func(t *testing.T) {
		t.Parallel()

		n, release, err := CreateNotifier(&models.Settings{}, models.TaskKindTokenIssued)
		require.NoError(t, err)
		defer release()
		assert.IsType(t, &notify.LogNotifier{}, n)
	})

	t.Run("Should send directly when no queue is configured", func(t *testing.T) {
		t.Parallel()

		n, release, err := CreateNotifier(&models.Settings{MailgunDomain: "mg.example.com", MailgunAPIKey: "key"}, models.TaskKindTokenIssued)
		require.NoError(t, err)
		defer release()
		assert.IsType(t, &notify.MailgunNotifier{}, n)
	})
}
