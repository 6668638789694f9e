package cmd

import (
	"context"
	"time"

	"github.com/sirupsen/logrus"
	"teknologiumum.com/pesto/internal/notify"
	"teknologiumum.com/pesto/internal/waitinglist"
	"teknologiumum.com/pesto/repository"
)

// DigestWindow is how far back the digest looks for lifecycle events.
const DigestWindow = 24 * time.Hour

type PendingDigestJob struct {
	waitingList *waitinglist.WaitingListService
	audit       repository.AuditRepository
	notifier    notify.Notifier
	operator    string
	now         func() time.Time
	logger      *logrus.Entry
}

func NewPendingDigestJob(waitingList *waitinglist.WaitingListService, audit repository.AuditRepository, notifier notify.Notifier, operator string) *PendingDigestJob {
	if audit == nil {
		audit = repository.NoopAudit{}
	}
	return &PendingDigestJob{
		waitingList: waitingList,
		audit:       audit,
		notifier:    notifier,
		operator:    operator,
		now:         time.Now,
		logger:      logrus.WithField("component", "pending_digest"),
	}
}

// Run mails the operator a summary of the waiting list. Nothing is sent when
// the list is empty or no operator address is configured.
func (j *PendingDigestJob) Run(ctx context.Context) error {
	if j.operator == "" {
		j.logger.Warn("OPERATOR_EMAIL is not set, skipping digest")
		return nil
	}

	pending, err := j.waitingList.ListAll(ctx)
	if err != nil {
		return err
	}
	if len(pending) == 0 {
		j.logger.Info("waiting list is empty, skipping digest")
		return nil
	}

	events, err := j.audit.Since(ctx, j.now().Add(-DigestWindow))
	if err != nil {
		// the digest is still useful without the event summary
		j.logger.WithError(err).Error("could not read audit events")
		events = nil
	}

	if err := j.notifier.Notify(ctx, notify.PendingDigestEmail(j.operator, pending, events)); err != nil {
		return err
	}

	j.logger.WithField("pending", len(pending)).Info("pending digest sent")
	return nil
}

const DigestLockTTL = 23 * time.Hour

// DigestLockKey names the lock that lets one replica send the digest per day.
func DigestLockKey(at time.Time) string {
	return "digest_run_lock:" + at.UTC().Format("2006-01-02")
}

// RunExclusive runs the job only if this caller wins the day's lock. It
// reports whether the job ran.
func (j *PendingDigestJob) RunExclusive(ctx context.Context, locker repository.Locker) (bool, error) {
	key := DigestLockKey(j.now())
	locked, err := locker.Acquire(ctx, key, DigestLockTTL)
	if err != nil {
		return false, err
	}
	if !locked {
		j.logger.WithField("lock", key).Info("digest lock held by another instance, skipping")
		return false, nil
	}
	return true, j.Run(ctx)
}
