package trial

import (
	"context"
	"crypto/rand"
	"io"
	"time"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
	"teknologiumum.com/pesto/models"
	"teknologiumum.com/pesto/repository"
	"teknologiumum.com/pesto/utils"
)

const (
	TokenPrefix  = "TRIAL-"
	TokenLength  = 64
	MonthlyLimit = 10
	TTL          = 24 * time.Hour
)

// TrialService issues self-service tokens that expire after a day. Tokens
// are not checked for collisions against the store.
type TrialService struct {
	store       repository.RecordStore
	audit       repository.AuditRepository
	trialDomain string
	random      io.Reader
	logger      *logrus.Entry
}

func NewTrialService(store repository.RecordStore, audit repository.AuditRepository, trialDomain string) *TrialService {
	if audit == nil {
		audit = repository.NoopAudit{}
	}
	return &TrialService{
		store:       store,
		audit:       audit,
		trialDomain: trialDomain,
		random:      rand.Reader,
		logger:      logrus.WithField("component", "trial_issuer"),
	}
}

func (s *TrialService) Issue(ctx context.Context) (string, error) {
	suffix, err := utils.RandomAlphanumeric(s.random, TokenLength-len(TokenPrefix))
	if err != nil {
		return "", errors.Wrap(err, "generating trial token")
	}
	local, err := utils.RandomAlphanumeric(s.random, 20)
	if err != nil {
		return "", errors.Wrap(err, "generating trial email")
	}

	record := models.AccessRecord{
		Token:        TokenPrefix + suffix,
		UserEmail:    "trial-" + local + "@" + s.trialDomain,
		MonthlyLimit: MonthlyLimit,
		Revoked:      false,
	}
	serialized, err := record.Encode()
	if err != nil {
		return "", err
	}
	if err := s.store.SetWithExpiry(ctx, record.Token, serialized, TTL); err != nil {
		return "", errors.Wrap(err, "storing trial token")
	}

	err = s.audit.Record(ctx, models.AuditEvent{
		ID:        uuid.NewString(),
		Action:    models.AuditTrial,
		UserEmail: record.UserEmail,
		TokenHint: utils.MaskToken(record.Token),
		CreatedAt: time.Now(),
	})
	if err != nil {
		s.logger.WithError(err).Error("could not record trial issue")
	}

	return record.Token, nil
}
