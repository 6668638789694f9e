package registry

import (
	"context"

	"github.com/pkg/errors"
	"teknologiumum.com/pesto/models"
	"teknologiumum.com/pesto/repository"
)

// RegistryService resolves tokens to their access records. It does not look
// at the revoked flag; callers decide what a revoked record means to them.
type RegistryService struct {
	store repository.RecordStore
}

func NewRegistryService(store repository.RecordStore) *RegistryService {
	return &RegistryService{
		store: store,
	}
}

func (s *RegistryService) Resolve(ctx context.Context, token string) (models.AccessRecord, error) {
	raw, ok, err := s.store.Get(ctx, token)
	if err != nil {
		return models.AccessRecord{}, errors.Wrap(err, "resolving token")
	}
	if !ok {
		return models.AccessRecord{}, models.ErrTokenNotRegistered
	}

	record, err := models.DecodeAccessRecord(token, raw)
	if err != nil {
		return models.AccessRecord{}, err
	}
	return record, nil
}
