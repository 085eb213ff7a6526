package memory_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tasktrail/tasktrail/internal/store"
	"github.com/tasktrail/tasktrail/internal/store/memory"
)

func TestUserStoreCRUD(t *testing.T) {
	s := memory.NewUserStore()
	ctx := context.Background()

	created, err := s.CreateUser(ctx, &store.User{
		Username: "alice",
		Email:    "alice@example.com",
	})
	require.NoError(t, err)
	assert.NotZero(t, created.ID)
	assert.False(t, created.CreatedAt.IsZero())

	byID, err := s.GetUserByID(ctx, created.ID)
	require.NoError(t, err)
	assert.Equal(t, "alice", byID.Username)

	byEmail, err := s.GetUserByEmail(ctx, "alice@example.com")
	require.NoError(t, err)
	assert.Equal(t, created.ID, byEmail.ID)

	byUsername, err := s.GetUserByUsername(ctx, "alice")
	require.NoError(t, err)
	assert.Equal(t, created.ID, byUsername.ID)

	_, err = s.GetUserByID(ctx, 999)
	assert.ErrorIs(t, err, store.ErrUserNotFound)
	_, err = s.GetUserByEmail(ctx, "nobody@example.com")
	assert.ErrorIs(t, err, store.ErrUserNotFound)
	_, err = s.GetUserByUsername(ctx, "nobody")
	assert.ErrorIs(t, err, store.ErrUserNotFound)
}

func TestUserStoreEmailIsCaseInsensitive(t *testing.T) {
	s := memory.NewUserStore()
	ctx := context.Background()

	_, err := s.CreateUser(ctx, &store.User{Username: "alice", Email: "Alice@Example.com"})
	require.NoError(t, err)

	found, err := s.GetUserByEmail(ctx, "alice@example.COM")
	require.NoError(t, err)
	assert.Equal(t, "alice", found.Username)

	_, err = s.CreateUser(ctx, &store.User{Username: "alice2", Email: "ALICE@example.com"})
	assert.ErrorIs(t, err, store.ErrDuplicateEmail)
}

func TestUserStoreDuplicates(t *testing.T) {
	s := memory.NewUserStore()
	ctx := context.Background()

	_, err := s.CreateUser(ctx, &store.User{Username: "alice", Email: "alice@example.com"})
	require.NoError(t, err)

	_, err = s.CreateUser(ctx, &store.User{Username: "alice2", Email: "alice@example.com"})
	assert.ErrorIs(t, err, store.ErrDuplicateEmail)

	_, err = s.CreateUser(ctx, &store.User{Username: "alice", Email: "other@example.com"})
	assert.ErrorIs(t, err, store.ErrDuplicateUsername)
}

func TestUserStoreReturnsCopies(t *testing.T) {
	s := memory.NewUserStore()
	ctx := context.Background()

	created, err := s.CreateUser(ctx, &store.User{Username: "alice", Email: "alice@example.com"})
	require.NoError(t, err)

	created.Username = "mutated"

	reloaded, err := s.GetUserByID(ctx, created.ID)
	require.NoError(t, err)
	assert.Equal(t, "alice", reloaded.Username, "mutating a returned user must not touch the store")

	reloaded.Email = "mutated@example.com"
	again, err := s.GetUserByID(ctx, created.ID)
	require.NoError(t, err)
	assert.Equal(t, "alice@example.com", again.Email)
}

func TestUpdatePasswordHash(t *testing.T) {
	s := memory.NewUserStore()
	ctx := context.Background()

	created, err := s.CreateUser(ctx, &store.User{Username: "alice", Email: "alice@example.com"})
	require.NoError(t, err)
	require.False(t, created.HasPassword())

	require.NoError(t, s.UpdatePasswordHash(ctx, created.ID, "$2a$10$hash"))

	reloaded, err := s.GetUserByID(ctx, created.ID)
	require.NoError(t, err)
	assert.Equal(t, "$2a$10$hash", reloaded.PasswordHash)

	assert.ErrorIs(t, s.UpdatePasswordHash(ctx, 999, "x"), store.ErrUserNotFound)
}

func TestTaskSeeder(t *testing.T) {
	seeder := memory.NewTaskSeeder()
	ctx := context.Background()

	require.NoError(t, seeder.SeedStarterTasks(ctx, 7))

	tasks := seeder.TasksFor(7)
	require.Len(t, tasks, len(store.StarterTasks()))
	for _, task := range tasks {
		assert.NotEmpty(t, task.ID)
		assert.Equal(t, int64(7), task.UserID)
		assert.False(t, task.Completed)
	}

	assert.Empty(t, seeder.TasksFor(8))
}
