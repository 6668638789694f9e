package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	helpers "github.com/Lineblocs/go-helpers"
	"github.com/sirupsen/logrus"
	"teknologiumum.com/pesto/cmd"
	"teknologiumum.com/pesto/utils"
)

func main() {
	helpers.InitLogrus(utils.Config("LOG_DESTINATIONS"))
	settings := utils.LoadSettings()

	if !settings.UseQueue() {
		helpers.Log(logrus.ErrorLevel, "Critical: QUEUE_URL is not set")
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	conn, ch, err := utils.CreateAMQPChannel(settings.QueueURL, settings.NotifyQueue)
	if err != nil {
		helpers.Log(logrus.ErrorLevel, "Critical: "+err.Error())
		os.Exit(1)
	}
	defer conn.Close()
	defer ch.Close()

	// Prefetch(1) keeps one slow send from holding the rest of the queue
	if err := ch.Qos(1, 0, false); err != nil {
		helpers.Log(logrus.ErrorLevel, "Critical: "+err.Error())
		os.Exit(1)
	}
	msgs, err := ch.Consume(settings.NotifyQueue, "", false, false, false, false, nil)
	if err != nil {
		helpers.Log(logrus.ErrorLevel, "Critical: "+err.Error())
		os.Exit(1)
	}

	worker := cmd.NewNotificationWorker(cmd.DirectNotifier(settings), settings.NotifyTimeout)
	helpers.Log(logrus.InfoLevel, "Worker ready. Waiting for notification tasks...")

	for {
		select {
		case <-ctx.Done():
			return
		case d, ok := <-msgs:
			if !ok {
				helpers.Log(logrus.ErrorLevel, "delivery channel closed")
				return
			}
			switch worker.Process(ctx, d.Body) {
			case cmd.Ack, cmd.Drop:
				_ = d.Ack(false)
			case cmd.Requeue:
				_ = d.Nack(false, true)
			}
		}
	}
}
