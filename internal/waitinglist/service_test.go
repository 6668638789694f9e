package waitinglist

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"teknologiumum.com/pesto/models"
	"teknologiumum.com/pesto/repository"
)

func TestWaitingListService(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	building := "a compiler playground"

	t.Run("Should reject a second submission with the same email", func(t *testing.T) {
		t.Parallel()

		svc := NewWaitingListService(repository.NewMemoryStore())
		user := models.HumanUser{Name: "X", Email: "x@y.com", Calls: 100}

		require.NoError(t, svc.Submit(ctx, user))
		err := svc.Submit(ctx, models.HumanUser{Name: "Other", Email: "x@y.com"})
		assert.ErrorIs(t, err, models.ErrEmailAlreadyExists)
		assert.ErrorIs(t, err, models.ErrAlreadyExists)

		users, err := svc.ListAll(ctx)
		require.NoError(t, err)
		assert.Len(t, users, 1)
		assert.Equal(t, "X", users[0].Name)
	})

	t.Run("Should compare emails case-sensitively", func(t *testing.T) {
		t.Parallel()

		svc := NewWaitingListService(repository.NewMemoryStore())
		require.NoError(t, svc.Submit(ctx, models.HumanUser{Email: "x@y.com"}))
		require.NoError(t, svc.Submit(ctx, models.HumanUser{Email: "X@y.com"}))

		users, err := svc.ListAll(ctx)
		require.NoError(t, err)
		assert.Len(t, users, 2)
	})

	t.Run("Should list entries in submission order", func(t *testing.T) {
		t.Parallel()

		svc := NewWaitingListService(repository.NewMemoryStore())
		require.NoError(t, svc.Submit(ctx, models.HumanUser{Name: "A", Email: "a@y.com", Building: &building, Calls: 5}))
		require.NoError(t, svc.Submit(ctx, models.HumanUser{Name: "B", Email: "b@y.com"}))

		users, err := svc.ListAll(ctx)
		require.NoError(t, err)
		require.Len(t, users, 2)
		assert.Equal(t, "a@y.com", users[0].Email)
		require.NotNil(t, users[0].Building)
		assert.Equal(t, building, *users[0].Building)
		assert.Equal(t, int64(5), users[0].Calls)
		assert.Nil(t, users[1].Building)
	})

	t.Run("Should find entries by email", func(t *testing.T) {
		t.Parallel()

		svc := NewWaitingListService(repository.NewMemoryStore())
		require.NoError(t, svc.Submit(ctx, models.HumanUser{Name: "A", Email: "a@y.com"}))

		user, err := svc.FindByEmail(ctx, "a@y.com")
		require.NoError(t, err)
		assert.Equal(t, "A", user.Name)

		_, err = svc.FindByEmail(ctx, "missing@y.com")
		assert.ErrorIs(t, err, models.ErrUserNotFound)
	})

	t.Run("Should remove only the matching entry", func(t *testing.T) {
		t.Parallel()

		svc := NewWaitingListService(repository.NewMemoryStore())
		for _, email := range []string{"a@y.com", "b@y.com", "c@y.com"} {
			require.NoError(t, svc.Submit(ctx, models.HumanUser{Email: email}))
		}

		require.NoError(t, svc.Remove(ctx, models.HumanUser{Email: "b@y.com"}))

		users, err := svc.ListAll(ctx)
		require.NoError(t, err)
		require.Len(t, users, 2)
		assert.Equal(t, "a@y.com", users[0].Email)
		assert.Equal(t, "c@y.com", users[1].Email)
	})

	t.Run("Should report a corrupt entry as a decode error", func(t *testing.T) {
		t.Parallel()

		store := repository.NewMemoryStore()
		require.NoError(t, store.ListAppend(ctx, Key, "not json"))

		_, err := NewWaitingListService(store).ListAll(ctx)
		assert.ErrorIs(t, err, models.ErrDecode)
	})
}
