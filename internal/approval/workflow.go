package approval

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"teknologiumum.com/pesto/internal/notify"
	"teknologiumum.com/pesto/internal/waitinglist"
	"teknologiumum.com/pesto/models"
	"teknologiumum.com/pesto/repository"
	"teknologiumum.com/pesto/utils"
)

const defaultNotifyTimeout = 15 * time.Second

// Workflow composes the waiting list, the approval service, the notifier and
// the audit trail into the operator-facing approve and revoke actions.
type Workflow struct {
	waitingList   *waitinglist.WaitingListService
	approval      *ApprovalService
	notifier      notify.Notifier
	audit         repository.AuditRepository
	notifyTimeout time.Duration
	now           func() time.Time
	wg            sync.WaitGroup
	logger        *logrus.Entry
}

func NewWorkflow(waitingList *waitinglist.WaitingListService, approval *ApprovalService, notifier notify.Notifier, audit repository.AuditRepository, notifyTimeout time.Duration) *Workflow {
	if audit == nil {
		audit = repository.NoopAudit{}
	}
	if notifyTimeout <= 0 {
		notifyTimeout = defaultNotifyTimeout
	}
	return &Workflow{
		waitingList:   waitingList,
		approval:      approval,
		notifier:      notifier,
		audit:         audit,
		notifyTimeout: notifyTimeout,
		now:           time.Now,
		logger:        logrus.WithField("component", "approval_workflow"),
	}
}

// Approve turns the pending registration for req.UserEmail into an active
// token. The email is sent in the background once the record is stored.
// Once stored, the token counts as issued: a failure to clear the waiting list
// entry is logged and does not fail the call.
func (w *Workflow) Approve(ctx context.Context, req models.ApprovalRequest) error {
	if req.Token == "" {
		return models.ErrEmptyToken
	}
	if req.MonthlyLimit < 0 {
		return models.ErrNegativeLimit
	}

	user, err := w.waitingList.FindByEmail(ctx, req.UserEmail)
	if err != nil {
		return err
	}

	_, err = w.approval.LookupByToken(ctx, req.Token)
	if err == nil {
		return models.ErrTokenAlreadyExists
	}
	if !models.IsNotFound(err) {
		return err
	}

	if err := w.approval.Approve(ctx, req); err != nil {
		return err
	}

	if err := w.waitingList.Remove(ctx, user); err != nil {
		w.logger.WithError(err).WithField("user_email", user.Email).Error("could not remove approved user from waiting list")
	}

	w.record(ctx, models.AuditApprove, req.UserEmail, req.Token)
	w.notifyIssued(user, req.Token)
	return nil
}

func (w *Workflow) Revoke(ctx context.Context, token string) error {
	if token == "" {
		return models.ErrEmptyToken
	}

	record, err := w.approval.LookupByToken(ctx, token)
	if err != nil {
		return err
	}
	if record.Revoked {
		return models.ErrAlreadyRevoked
	}

	if err := w.approval.Revoke(ctx, record); err != nil {
		return err
	}

	w.record(ctx, models.AuditRevoke, record.UserEmail, token)
	return nil
}

// Drain waits for in-flight notifications or until ctx is done.
func (w *Workflow) Drain(ctx context.Context) error {
	done := make(chan struct{})
	go func() {
		w.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (w *Workflow) notifyIssued(user models.HumanUser, token string) {
	email := notify.TokenIssuedEmail(user, token)

	w.wg.Add(1)
	go func() {
		defer w.wg.Done()

		ctx, cancel := context.WithTimeout(context.Background(), w.notifyTimeout)
		defer cancel()

		if err := w.notifier.Notify(ctx, email); err != nil {
			w.logger.WithError(err).WithField("user_email", user.Email).Error("could not send token email")
		}
	}()
}

func (w *Workflow) record(ctx context.Context, action models.AuditAction, userEmail string, token string) {
	err := w.audit.Record(ctx, models.AuditEvent{
		ID:        uuid.NewString(),
		Action:    action,
		UserEmail: userEmail,
		TokenHint: utils.MaskToken(token),
		CreatedAt: w.now(),
	})
	if err != nil {
		w.logger.WithError(err).WithField("action", action).Error("could not record audit event")
	}
}
