// Package memory provides in-memory implementations of the store interfaces
// for single-process deployments and tests. Sessions are instance-local in
// this mode, so it must not be used behind a load balancer.
package memory

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/tasktrail/tasktrail/internal/store"
)

// UserStore is a mutex-guarded in-memory store.UserStore.
type UserStore struct {
	mu     sync.RWMutex
	nextID int64
	users  map[int64]*store.User
}

func NewUserStore() *UserStore {
	return &UserStore{
		nextID: 1,
		users:  make(map[int64]*store.User),
	}
}

func (s *UserStore) GetUserByID(ctx context.Context, id int64) (*store.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	user, ok := s.users[id]
	if !ok {
		return nil, store.ErrUserNotFound
	}
	cp := *user
	return &cp, nil
}

func (s *UserStore) GetUserByEmail(ctx context.Context, email string) (*store.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	for _, user := range s.users {
		if strings.EqualFold(user.Email, email) {
			cp := *user
			return &cp, nil
		}
	}
	return nil, store.ErrUserNotFound
}

func (s *UserStore) GetUserByUsername(ctx context.Context, username string) (*store.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	for _, user := range s.users {
		if user.Username == username {
			cp := *user
			return &cp, nil
		}
	}
	return nil, store.ErrUserNotFound
}

func (s *UserStore) CreateUser(ctx context.Context, user *store.User) (*store.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, existing := range s.users {
		if strings.EqualFold(existing.Email, user.Email) {
			return nil, store.ErrDuplicateEmail
		}
		if existing.Username == user.Username {
			return nil, store.ErrDuplicateUsername
		}
	}

	now := time.Now()
	cp := *user
	cp.ID = s.nextID
	cp.CreatedAt = now
	cp.UpdatedAt = now
	s.nextID++
	s.users[cp.ID] = &cp

	out := cp
	return &out, nil
}

func (s *UserStore) UpdatePasswordHash(ctx context.Context, userID int64, hash string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	user, ok := s.users[userID]
	if !ok {
		return store.ErrUserNotFound
	}
	user.PasswordHash = hash
	user.UpdatedAt = time.Now()
	return nil
}

// TaskSeeder keeps seeded tasks in memory, keyed by owner.
type TaskSeeder struct {
	mu    sync.Mutex
	tasks map[int64][]store.Task
}

func NewTaskSeeder() *TaskSeeder {
	return &TaskSeeder{tasks: make(map[int64][]store.Task)}
}

func (s *TaskSeeder) SeedStarterTasks(ctx context.Context, userID int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	seeded := make([]store.Task, 0, 3)
	for _, task := range store.StarterTasks() {
		task.ID = uuid.NewString()
		task.UserID = userID
		task.CreatedAt = time.Now()
		seeded = append(seeded, task)
	}
	s.tasks[userID] = seeded
	return nil
}

// TasksFor returns the seeded tasks for a user. Test helper.
func (s *TaskSeeder) TasksFor(userID int64) []store.Task {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.tasks[userID]
}
