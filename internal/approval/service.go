package approval

import (
	"context"

	"github.com/pkg/errors"
	"teknologiumum.com/pesto/internal/registry"
	"teknologiumum.com/pesto/models"
	"teknologiumum.com/pesto/repository"
)

// ApprovalService writes access records for approved users and flips the
// revoked flag. Records are never deleted.
type ApprovalService struct {
	store    repository.RecordStore
	registry *registry.RegistryService
}

func NewApprovalService(store repository.RecordStore) *ApprovalService {
	return &ApprovalService{
		store:    store,
		registry: registry.NewRegistryService(store),
	}
}

func (s *ApprovalService) Approve(ctx context.Context, candidate models.ApprovalRequest) error {
	if candidate.Token == "" {
		return models.ErrEmptyToken
	}
	if candidate.MonthlyLimit < 0 {
		return models.ErrNegativeLimit
	}

	record := candidate.Record()
	serialized, err := record.Encode()
	if err != nil {
		return err
	}
	if err := s.store.Set(ctx, record.Token, serialized); err != nil {
		return errors.Wrap(err, "storing access record")
	}
	return nil
}

// Revoke rewrites the record with revoked set. Revoking twice leaves the
// same stored value. Any expiry on the key is kept, so a revoked trial token
// still lapses on time.
func (s *ApprovalService) Revoke(ctx context.Context, record models.AccessRecord) error {
	if record.Token == "" {
		return models.ErrEmptyToken
	}

	record.Revoked = true
	serialized, err := record.Encode()
	if err != nil {
		return err
	}
	if err := s.store.Replace(ctx, record.Token, serialized); err != nil {
		return errors.Wrap(err, "storing revoked record")
	}
	return nil
}

// LookupByToken has the same contract as the registry's Resolve. It is used
// to check the current state before a mutation.
func (s *ApprovalService) LookupByToken(ctx context.Context, token string) (models.AccessRecord, error) {
	return s.registry.Resolve(ctx, token)
}
