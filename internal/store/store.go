package store

import (
	"context"
	"errors"
	"time"
)

var (
	ErrUserNotFound      = errors.New("user not found")
	ErrDuplicateEmail    = errors.New("email already registered")
	ErrDuplicateUsername = errors.New("username already taken")
)

// User is the canonical identity record shared by the local and OAuth login
// paths. PasswordHash is empty for pure-OAuth accounts and for legacy
// accounts that have not yet been through lazy migration.
type User struct {
	ID           int64     `json:"id"`
	Username     string    `json:"username"`
	Email        string    `json:"email"`
	DisplayName  string    `json:"displayName,omitempty"`
	PhotoURL     string    `json:"photoUrl,omitempty"`
	ProviderID   string    `json:"-"`
	PasswordHash string    `json:"-"`
	CreatedAt    time.Time `json:"createdAt"`
	UpdatedAt    time.Time `json:"updatedAt"`
}

// HasPassword reports whether local credentials exist for this account.
func (u *User) HasPassword() bool { return u.PasswordHash != "" }

// IsProviderAccount reports whether the account was created through an
// external identity provider.
func (u *User) IsProviderAccount() bool { return u.ProviderID != "" }

// UserStore is the credential store consumed by the auth gateway. Lookups
// return ErrUserNotFound when no row matches; CreateUser returns
// ErrDuplicateEmail or ErrDuplicateUsername on unique-constraint violations.
type UserStore interface {
	GetUserByID(ctx context.Context, id int64) (*User, error)
	GetUserByEmail(ctx context.Context, email string) (*User, error)
	GetUserByUsername(ctx context.Context, username string) (*User, error)
	CreateUser(ctx context.Context, user *User) (*User, error)

	// UpdatePasswordHash is the only partial update the gateway performs,
	// used by the one-time lazy migration backfill.
	UpdatePasswordHash(ctx context.Context, userID int64, hash string) error
}

// Task is owned by the task subsystem; the gateway only ever seeds a fixed
// starter set for new users and never reads tasks back.
type Task struct {
	ID        string    `json:"id"`
	UserID    int64     `json:"userId"`
	Title     string    `json:"title"`
	Notes     string    `json:"notes,omitempty"`
	Completed bool      `json:"completed"`
	CreatedAt time.Time `json:"createdAt"`
}

// TaskSeeder creates the starter tasks for a freshly created user.
type TaskSeeder interface {
	SeedStarterTasks(ctx context.Context, userID int64) error
}

// StarterTasks returns the fixed set every new account begins with.
func StarterTasks() []Task {
	return []Task{
		{Title: "Welcome to TaskTrail", Notes: "This is your task list. Click a task to edit it."},
		{Title: "Add your first task", Notes: "Use the + button to create a task of your own."},
		{Title: "Complete a task", Notes: "Check the box on the left when you are done."},
	}
}
