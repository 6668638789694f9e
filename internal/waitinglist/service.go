package waitinglist

import (
	"context"
	"encoding/json"

	"github.com/pkg/errors"
	"teknologiumum.com/pesto/models"
	"teknologiumum.com/pesto/repository"
)

const Key = "waiting-list"

// WaitingListService keeps pending registrations as JSON entries of a single
// list. Emails are unique among pending entries.
type WaitingListService struct {
	store repository.RecordStore
}

func NewWaitingListService(store repository.RecordStore) *WaitingListService {
	return &WaitingListService{
		store: store,
	}
}

func (s *WaitingListService) Submit(ctx context.Context, user models.HumanUser) error {
	users, err := s.ListAll(ctx)
	if err != nil {
		return err
	}

	for _, existing := range users {
		if existing.Email == user.Email {
			return models.ErrEmailAlreadyExists
		}
	}

	serialized, err := json.Marshal(user)
	if err != nil {
		return errors.Wrap(models.ErrDecode, err.Error())
	}
	if err := s.store.ListAppend(ctx, Key, string(serialized)); err != nil {
		return errors.Wrap(err, "appending to waiting list")
	}
	return nil
}

func (s *WaitingListService) ListAll(ctx context.Context) ([]models.HumanUser, error) {
	values, err := s.store.ListRange(ctx, Key)
	if err != nil {
		return nil, errors.Wrap(err, "reading waiting list")
	}

	users := make([]models.HumanUser, 0, len(values))
	for _, value := range values {
		var user models.HumanUser
		if err := json.Unmarshal([]byte(value), &user); err != nil {
			return nil, errors.Wrapf(models.ErrDecode, "waiting list entry: %v", err)
		}
		users = append(users, user)
	}
	return users, nil
}

// FindByEmail returns the pending entry with email, or models.ErrUserNotFound.
func (s *WaitingListService) FindByEmail(ctx context.Context, email string) (models.HumanUser, error) {
	users, err := s.ListAll(ctx)
	if err != nil {
		return models.HumanUser{}, err
	}
	for _, user := range users {
		if user.Email == email {
			return user, nil
		}
	}
	return models.HumanUser{}, models.ErrUserNotFound
}

// Remove drops every entry with the user's email by rewriting the list.
// The read, delete and re-append are separate store calls; a Submit that
// lands in between is lost.
func (s *WaitingListService) Remove(ctx context.Context, user models.HumanUser) error {
	users, err := s.ListAll(ctx)
	if err != nil {
		return err
	}

	survivors := make([]string, 0, len(users))
	for _, existing := range users {
		if existing.Email == user.Email {
			continue
		}
		serialized, err := json.Marshal(existing)
		if err != nil {
			return errors.Wrap(models.ErrDecode, err.Error())
		}
		survivors = append(survivors, string(serialized))
	}

	if err := s.store.Delete(ctx, Key); err != nil {
		return errors.Wrap(err, "deleting waiting list")
	}
	for _, value := range survivors {
		if err := s.store.ListAppend(ctx, Key, value); err != nil {
			return errors.Wrap(err, "rewriting waiting list")
		}
	}
	return nil
}
