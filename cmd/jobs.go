package cmd

import (
	"context"
	"fmt"
	"time"

	helpers "github.com/Lineblocs/go-helpers"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
	"teknologiumum.com/pesto/internal/waitinglist"
	"teknologiumum.com/pesto/models"
	"teknologiumum.com/pesto/repository"
	"teknologiumum.com/pesto/utils"
)

const jobTimeout = 5 * time.Minute

// AuditRetention is how long token events are kept.
const AuditRetention = 90 * 24 * time.Hour

// SendPendingDigest builds the digest job from the environment and runs it
// once.
func SendPendingDigest() error {
	settings := utils.LoadSettings()

	ctx, cancel := context.WithTimeout(context.Background(), jobTimeout)
	defer cancel()

	store, closeStore, err := utils.CreateRecordStore(ctx, settings)
	if err != nil {
		return err
	}
	defer closeStore()

	db, err := utils.GetDBConnection(settings)
	if err != nil {
		return err
	}

	notifier, closeNotifier, err := CreateNotifier(settings, models.TaskKindPendingDigest)
	if err != nil {
		return err
	}
	defer closeNotifier()

	job := NewPendingDigestJob(waitinglist.NewWaitingListService(store), repository.NewAuditRepository(db), notifier, settings.OperatorEmail)
	return job.Run(ctx)
}

// InitAudit creates the token_events table.
func InitAudit() error {
	settings := utils.LoadSettings()

	db, err := utils.GetDBConnection(settings)
	if err != nil {
		return err
	}
	if db == nil {
		return errors.New("MYSQL_DSN is not set")
	}

	ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
	defer cancel()

	return repository.NewAuditService(db).EnsureSchema(ctx)
}

// RemoveAuditEvents deletes token events older than the retention period.
func RemoveAuditEvents() error {
	settings := utils.LoadSettings()

	db, err := utils.GetDBConnection(settings)
	if err != nil {
		return err
	}
	if db == nil {
		return errors.New("MYSQL_DSN is not set")
	}

	ctx, cancel := context.WithTimeout(context.Background(), jobTimeout)
	defer cancel()

	removed, err := repository.NewAuditService(db).Prune(ctx, time.Now().Add(-AuditRetention))
	if err != nil {
		return err
	}
	helpers.Log(logrus.InfoLevel, fmt.Sprintf("removed %d token events", removed))
	return nil
}
