package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	helpers "github.com/Lineblocs/go-helpers"
	"github.com/robfig/cron/v3"
	"github.com/sirupsen/logrus"
	"teknologiumum.com/pesto/cmd"
	"teknologiumum.com/pesto/internal/waitinglist"
	"teknologiumum.com/pesto/models"
	"teknologiumum.com/pesto/repository"
	"teknologiumum.com/pesto/utils"
)

const runTimeout = 10 * time.Minute

func main() {
	helpers.InitLogrus(utils.Config("LOG_DESTINATIONS"))
	settings := utils.LoadSettings()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	store, closeStore, err := utils.CreateRecordStore(ctx, settings)
	if err != nil {
		helpers.Log(logrus.ErrorLevel, "Critical: "+err.Error())
		os.Exit(1)
	}
	defer closeStore()

	locker, ok := store.(repository.Locker)
	if !ok {
		helpers.Log(logrus.ErrorLevel, "Critical: record store does not support locking")
		os.Exit(1)
	}

	db, err := utils.GetDBConnection(settings)
	if err != nil {
		helpers.Log(logrus.ErrorLevel, "audit database unavailable, digest will not list events: "+err.Error())
	}

	notifier, closeNotifier, err := cmd.CreateNotifier(settings, models.TaskKindPendingDigest)
	if err != nil {
		helpers.Log(logrus.ErrorLevel, "Critical: "+err.Error())
		os.Exit(1)
	}
	defer closeNotifier()

	job := cmd.NewPendingDigestJob(waitinglist.NewWaitingListService(store), repository.NewAuditRepository(db), notifier, settings.OperatorEmail)

	c := cron.New()
	_, err = c.AddFunc(settings.DigestSchedule, func() {
		runCtx, cancel := context.WithTimeout(ctx, runTimeout)
		defer cancel()

		ran, err := job.RunExclusive(runCtx, locker)
		if err != nil {
			helpers.Log(logrus.ErrorLevel, "pending digest failed: "+err.Error())
			return
		}
		if ran {
			helpers.Log(logrus.InfoLevel, "pending digest finished")
		}
	})
	if err != nil {
		helpers.Log(logrus.ErrorLevel, "Critical: invalid DIGEST_SCHEDULE "+settings.DigestSchedule+": "+err.Error())
		os.Exit(1)
	}

	helpers.Log(logrus.InfoLevel, "Digest distributor started with schedule "+settings.DigestSchedule)
	c.Start()

	<-ctx.Done()
	<-c.Stop().Done()
}
