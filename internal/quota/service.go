package quota

import (
	"context"
	"strconv"
	"strings"
	"time"

	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
	"teknologiumum.com/pesto/models"
	"teknologiumum.com/pesto/repository"
)

// CounterTTL keeps a monthly counter around a little longer than the month
// it counts, after which the store drops it.
const CounterTTL = 40 * 24 * time.Hour

// LedgerService tracks calls per user per calendar month (UTC). The period
// lives in the key, so a new month starts from an absent counter.
//
// Reads and writes are not atomic: two requests that read the same usage
// both write usage+1, so concurrent bursts are under-counted.
type LedgerService struct {
	store       repository.RecordStore
	trialDomain string
	now         func() time.Time
	logger      *logrus.Entry
}

func NewLedgerService(store repository.RecordStore, trialDomain string) *LedgerService {
	return &LedgerService{
		store:       store,
		trialDomain: trialDomain,
		now:         time.Now,
		logger:      logrus.WithField("component", "quota_ledger"),
	}
}

// WithClock replaces the time source that selects the billing period.
func (s *LedgerService) WithClock(now func() time.Time) *LedgerService {
	s.now = now
	return s
}

// CounterKey is the counter key of userEmail for the month containing at.
func CounterKey(userEmail string, at time.Time) string {
	return "counter/" + at.UTC().Format("2006-01") + "/" + userEmail
}

func (s *LedgerService) CurrentUsage(ctx context.Context, userEmail string) (int64, error) {
	key := CounterKey(userEmail, s.now())
	raw, ok, err := s.store.Get(ctx, key)
	if err != nil {
		return 0, errors.Wrapf(err, "getting counter %s", key)
	}
	if !ok {
		return 0, nil
	}

	usage, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		return 0, errors.Wrapf(models.ErrDecode, "parsing counter %s: %v", key, err)
	}
	return usage, nil
}

// RecordUsage stores previousUsage+1 for the current month. Trial accounts
// are never counted.
func (s *LedgerService) RecordUsage(ctx context.Context, userEmail string, previousUsage int64) error {
	if s.IsTrialEmail(userEmail) {
		s.logger.WithField("user_email", userEmail).Debug("skipping counter for trial account")
		return nil
	}

	key := CounterKey(userEmail, s.now())
	if err := s.store.SetWithExpiry(ctx, key, strconv.FormatInt(previousUsage+1, 10), CounterTTL); err != nil {
		return errors.Wrapf(err, "putting counter %s", key)
	}
	return nil
}

// IsTrialEmail matches trial*@<trial domain>, ignoring case on the prefix.
func (s *LedgerService) IsTrialEmail(userEmail string) bool {
	if len(userEmail) < len("trial") || !strings.EqualFold(userEmail[:len("trial")], "trial") {
		return false
	}
	return strings.HasSuffix(userEmail, "@"+s.trialDomain)
}
