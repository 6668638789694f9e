package gate

import (
	"context"
	"errors"
	"time"

	"github.com/sirupsen/logrus"
	"teknologiumum.com/pesto/internal/metrics"
	"teknologiumum.com/pesto/models"
	"teknologiumum.com/pesto/utils"
)

type Outcome string

const (
	Allow        Outcome = "allow"
	Unauthorized Outcome = "unauthorized"
	RateLimited  Outcome = "rate_limited"
	Internal     Outcome = "internal"
)

const (
	MessageTokenRequired = "Token must be supplied"
	MessageNotRegistered = "Token not registered"
	MessageRevoked       = "Token has been revoked"
	MessageLimitExceeded = "Monthly limit exceeded"
	MessageInternal      = "Internal Server Error"
)

// Decision is the result of one admission check. Err carries the cause of
// an Internal outcome.
type Decision struct {
	Outcome Outcome
	Message string
	Err     error
}

func (d Decision) Allowed() bool {
	return d.Outcome == Allow
}

type TokenResolver interface {
	Resolve(ctx context.Context, token string) (models.AccessRecord, error)
}

type UsageLedger interface {
	CurrentUsage(ctx context.Context, userEmail string) (int64, error)
	RecordUsage(ctx context.Context, userEmail string, previousUsage int64) error
}

// GateService decides whether a request carrying a token may reach the
// execution engine. It keeps no state between calls.
type GateService struct {
	registry TokenResolver
	ledger   UsageLedger
	metrics  metrics.Recorder
	timeout  time.Duration
	logger   *logrus.Entry
}

func NewGateService(registry TokenResolver, ledger UsageLedger, recorder metrics.Recorder, timeout time.Duration) *GateService {
	if recorder == nil {
		recorder = metrics.Noop{}
	}
	return &GateService{
		registry: registry,
		ledger:   ledger,
		metrics:  recorder,
		timeout:  timeout,
		logger:   logrus.WithField("component", "access_gate"),
	}
}

func (g *GateService) Authorize(ctx context.Context, token string) Decision {
	d := g.authorize(ctx, token)
	g.metrics.Decision(string(d.Outcome))
	return d
}

func (g *GateService) authorize(ctx context.Context, token string) Decision {
	if token == "" {
		return Decision{Outcome: Unauthorized, Message: MessageTokenRequired}
	}

	if g.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, g.timeout)
		defer cancel()
	}

	log := g.logger.WithField("token", utils.MaskToken(token))

	record, err := g.registry.Resolve(ctx, token)
	if err != nil {
		if errors.Is(err, models.ErrTokenNotRegistered) {
			log.Debug("token not registered")
			return Decision{Outcome: Unauthorized, Message: MessageNotRegistered}
		}
		return g.internal(log, err)
	}

	if record.Revoked {
		log.Debug("token revoked")
		return Decision{Outcome: Unauthorized, Message: MessageRevoked}
	}

	usage, err := g.ledger.CurrentUsage(ctx, record.UserEmail)
	if err != nil {
		return g.internal(log, err)
	}

	// usage counts calls already made, so a limit of N admits N+1 calls
	if usage > record.MonthlyLimit {
		log.WithField("user_email", record.UserEmail).Debug("monthly limit exceeded")
		return Decision{Outcome: RateLimited, Message: MessageLimitExceeded}
	}

	if err := g.ledger.RecordUsage(ctx, record.UserEmail, usage); err != nil {
		return g.internal(log, err)
	}

	g.metrics.Allowed(record.UserEmail)
	return Decision{Outcome: Allow}
}

func (g *GateService) internal(log *logrus.Entry, err error) Decision {
	log.WithError(err).Error("authorize failed")
	return Decision{Outcome: Internal, Message: MessageInternal, Err: err}
}
