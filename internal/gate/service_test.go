package gate

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"teknologiumum.com/pesto/internal/metrics"
	"teknologiumum.com/pesto/internal/quota"
	"teknologiumum.com/pesto/internal/registry"
	"teknologiumum.com/pesto/models"
	"teknologiumum.com/pesto/repository"
)

const trialDomain = "pesto.teknologiumum.com"

type mockLedger struct {
	mock.Mock
}

func (m *mockLedger) CurrentUsage(ctx context.Context, userEmail string) (int64, error) {
	args := m.Called(ctx, userEmail)
	return args.Get(0).(int64), args.Error(1)
}

func (m *mockLedger) RecordUsage(ctx context.Context, userEmail string, previousUsage int64) error {
	args := m.Called(ctx, userEmail, previousUsage)
	return args.Error(0)
}

type mockResolver struct {
	mock.Mock
}

func (m *mockResolver) Resolve(ctx context.Context, token string) (models.AccessRecord, error) {
	args := m.Called(ctx, token)
	return args.Get(0).(models.AccessRecord), args.Error(1)
}

func newGate(t *testing.T, store *repository.MemoryStore, recorder metrics.Recorder) *GateService {
	t.Helper()
	return NewGateService(registry.NewRegistryService(store), quota.NewLedgerService(store, trialDomain), recorder, time.Second)
}

func putRecord(t *testing.T, store *repository.MemoryStore, record models.AccessRecord) {
	t.Helper()
	raw, err := record.Encode()
	require.NoError(t, err)
	require.NoError(t, store.Set(context.Background(), record.Token, raw))
}

func TestAuthorize(t *testing.T) {
	t.Parallel()

	ctx := context.Background()

	t.Run("Should require a token", func(t *testing.T) {
		t.Parallel()

		d := newGate(t, repository.NewMemoryStore(), nil).Authorize(ctx, "")
		assert.Equal(t, Unauthorized, d.Outcome)
		assert.Equal(t, MessageTokenRequired, d.Message)
	})

	t.Run("Should reject tokens that are not registered", func(t *testing.T) {
		t.Parallel()

		d := newGate(t, repository.NewMemoryStore(), nil).Authorize(ctx, "abc")
		assert.Equal(t, Unauthorized, d.Outcome)
		assert.Equal(t, MessageNotRegistered, d.Message)
	})

	t.Run("Should reject revoked tokens regardless of usage", func(t *testing.T) {
		t.Parallel()

		store := repository.NewMemoryStore()
		putRecord(t, store, models.AccessRecord{Token: "abc", UserEmail: "a@b.com", MonthlyLimit: 1000, Revoked: true})

		d := newGate(t, store, nil).Authorize(ctx, "abc")
		assert.Equal(t, Unauthorized, d.Outcome)
		assert.Equal(t, MessageRevoked, d.Message)
	})

	t.Run("Should admit limit plus one calls and then rate limit", func(t *testing.T) {
		t.Parallel()

		store := repository.NewMemoryStore()
		putRecord(t, store, models.AccessRecord{Token: "abc", UserEmail: "a@b.com", MonthlyLimit: 5})
		g := newGate(t, store, nil)

		for i := 0; i < 6; i++ {
			d := g.Authorize(ctx, "abc")
			require.True(t, d.Allowed(), "call %d", i+1)
		}

		d := g.Authorize(ctx, "abc")
		assert.Equal(t, RateLimited, d.Outcome)
		assert.Equal(t, MessageLimitExceeded, d.Message)
	})

	t.Run("Should never exhaust a trial account", func(t *testing.T) {
		t.Parallel()

		store := repository.NewMemoryStore()
		putRecord(t, store, models.AccessRecord{Token: "TRIAL-abc", UserEmail: "trial-x@" + trialDomain, MonthlyLimit: 1})
		g := newGate(t, store, nil)

		for i := 0; i < 5; i++ {
			assert.True(t, g.Authorize(ctx, "TRIAL-abc").Allowed())
		}
	})

	t.Run("Should fail internally when the stored record is malformed", func(t *testing.T) {
		t.Parallel()

		store := repository.NewMemoryStore()
		require.NoError(t, store.Set(ctx, "abc", "garbage"))

		d := newGate(t, store, nil).Authorize(ctx, "abc")
		assert.Equal(t, Internal, d.Outcome)
		assert.Equal(t, MessageInternal, d.Message)
		assert.ErrorIs(t, d.Err, models.ErrDecode)
	})

	t.Run("Should fail internally when the registry is unreachable", func(t *testing.T) {
		t.Parallel()

		resolver := &mockResolver{}
		resolver.On("Resolve", mock.Anything, "abc").
			Return(models.AccessRecord{}, &models.BackendError{Op: "get", Key: "abc", Err: errors.New("dial tcp: refused")})
		ledger := &mockLedger{}

		d := NewGateService(resolver, ledger, nil, time.Second).Authorize(ctx, "abc")
		assert.Equal(t, Internal, d.Outcome)
		assert.ErrorIs(t, d.Err, models.ErrBackendUnavailable)
		ledger.AssertNotCalled(t, "CurrentUsage", mock.Anything, mock.Anything)
	})

	t.Run("Should fail internally when the usage cannot be read", func(t *testing.T) {
		t.Parallel()

		resolver := &mockResolver{}
		resolver.On("Resolve", mock.Anything, "abc").Return(models.AccessRecord{Token: "abc", UserEmail: "a@b.com", MonthlyLimit: 5}, nil)
		ledger := &mockLedger{}
		ledger.On("CurrentUsage", mock.Anything, "a@b.com").Return(int64(0), &models.BackendError{Op: "get", Err: errors.New("timeout")})

		d := NewGateService(resolver, ledger, nil, time.Second).Authorize(ctx, "abc")
		assert.Equal(t, Internal, d.Outcome)
		ledger.AssertNotCalled(t, "RecordUsage", mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("Should fail internally when the usage cannot be written", func(t *testing.T) {
		t.Parallel()

		resolver := &mockResolver{}
		resolver.On("Resolve", mock.Anything, "abc").Return(models.AccessRecord{Token: "abc", UserEmail: "a@b.com", MonthlyLimit: 5}, nil)
		ledger := &mockLedger{}
		ledger.On("CurrentUsage", mock.Anything, "a@b.com").Return(int64(2), nil)
		ledger.On("RecordUsage", mock.Anything, "a@b.com", int64(2)).Return(&models.BackendError{Op: "setex", Err: errors.New("timeout")})

		d := NewGateService(resolver, ledger, nil, time.Second).Authorize(ctx, "abc")
		assert.Equal(t, Internal, d.Outcome)
		ledger.AssertExpectations(t)
	})

	t.Run("Should count allowed calls per user and decisions per outcome", func(t *testing.T) {
		t.Parallel()

		store := repository.NewMemoryStore()
		putRecord(t, store, models.AccessRecord{Token: "abc", UserEmail: "a@b.com", MonthlyLimit: 0})
		recorder := metrics.NewPrometheusRecorder()
		g := newGate(t, store, recorder)

		g.Authorize(ctx, "abc")
		g.Authorize(ctx, "abc")
		g.Authorize(ctx, "")

		assert.Equal(t, 1.0, testutil.ToFloat64(recorder.AllowedCounter("a@b.com")))
		assert.Equal(t, 1.0, testutil.ToFloat64(recorder.DecisionCounter(string(RateLimited))))
		assert.Equal(t, 1.0, testutil.ToFloat64(recorder.DecisionCounter(string(Unauthorized))))
	})
}
