package auth_test

import (
	"context"
	"errors"
	"strings"
	"testing"

	"golang.org/x/crypto/bcrypt"

	"github.com/tasktrail/tasktrail/internal/auth"
	"github.com/tasktrail/tasktrail/internal/store"
	"github.com/tasktrail/tasktrail/internal/store/memory"
)

func setupVerifier(t *testing.T) (*auth.LocalVerifier, *memory.UserStore, *memory.TaskSeeder) {
	t.Helper()
	users := memory.NewUserStore()
	seeder := memory.NewTaskSeeder()
	return auth.NewLocalVerifier(users, seeder), users, seeder
}

func mustCreate(t *testing.T, users *memory.UserStore, user *store.User) *store.User {
	t.Helper()
	created, err := users.CreateUser(context.Background(), user)
	if err != nil {
		t.Fatalf("CreateUser: %v", err)
	}
	return created
}

func hashOf(t *testing.T, password string) string {
	t.Helper()
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.MinCost)
	if err != nil {
		t.Fatalf("bcrypt: %v", err)
	}
	return string(hash)
}

func TestVerify(t *testing.T) {
	verifier, users, _ := setupVerifier(t)
	ctx := context.Background()

	mustCreate(t, users, &store.User{
		Username:     "alice",
		Email:        "alice@example.com",
		PasswordHash: hashOf(t, "correct-horse1"),
	})
	mustCreate(t, users, &store.User{
		Username:   "bob",
		Email:      "bob@example.com",
		ProviderID: "provider-sub-42",
	})

	tests := []struct {
		name     string
		email    string
		password string
		wantErr  error
	}{
		{name: "successful login", email: "alice@example.com", password: "correct-horse1"},
		{name: "wrong password", email: "alice@example.com", password: "wrong", wantErr: auth.ErrInvalidCredentials},
		{name: "unknown email", email: "nobody@example.com", password: "correct-horse1", wantErr: auth.ErrInvalidCredentials},
		{name: "provider account only", email: "bob@example.com", password: "anything", wantErr: auth.ErrProviderAccountOnly},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			user, err := verifier.Verify(ctx, tt.email, tt.password)
			if tt.wantErr != nil {
				if !errors.Is(err, tt.wantErr) {
					t.Fatalf("expected %v, got %v", tt.wantErr, err)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if user.Email != tt.email {
				t.Errorf("expected email %q, got %q", tt.email, user.Email)
			}
		})
	}
}

func TestVerifyValidation(t *testing.T) {
	verifier, _, _ := setupVerifier(t)
	ctx := context.Background()

	tests := []struct {
		name     string
		email    string
		password string
		field    string
	}{
		{name: "malformed email", email: "not-an-email", password: "secret123", field: "email"},
		{name: "empty password", email: "alice@example.com", password: "", field: "password"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := verifier.Verify(ctx, tt.email, tt.password)
			var authErr *auth.AuthError
			if !errors.As(err, &authErr) {
				t.Fatalf("expected AuthError, got %v", err)
			}
			if authErr.Code != auth.ErrCodeValidation {
				t.Errorf("expected code %q, got %q", auth.ErrCodeValidation, authErr.Code)
			}
			if authErr.Field != tt.field {
				t.Errorf("expected field %q, got %q", tt.field, authErr.Field)
			}
		})
	}
}

func TestVerifyProviderAccountDoesNotGainHash(t *testing.T) {
	verifier, users, _ := setupVerifier(t)
	ctx := context.Background()

	created := mustCreate(t, users, &store.User{
		Username:   "carol",
		Email:      "carol@example.com",
		ProviderID: "provider-sub-7",
	})

	if _, err := verifier.Verify(ctx, "carol@example.com", "whatever1"); !errors.Is(err, auth.ErrProviderAccountOnly) {
		t.Fatalf("expected ErrProviderAccountOnly, got %v", err)
	}

	reloaded, err := users.GetUserByID(ctx, created.ID)
	if err != nil {
		t.Fatalf("GetUserByID: %v", err)
	}
	if reloaded.HasPassword() {
		t.Error("provider-only account must not gain a password hash")
	}
}

func TestVerifyLazyMigration(t *testing.T) {
	verifier, users, _ := setupVerifier(t)
	ctx := context.Background()

	// Legacy account: no hash, no provider subject.
	created := mustCreate(t, users, &store.User{
		Username: "dave",
		Email:    "dave@example.com",
	})

	// First login backfills the hash and succeeds.
	user, err := verifier.Verify(ctx, "dave@example.com", "legacy-pass1")
	if err != nil {
		t.Fatalf("first login: %v", err)
	}
	if user.ID != created.ID {
		t.Fatalf("expected user %d, got %d", created.ID, user.ID)
	}

	migrated, err := users.GetUserByID(ctx, created.ID)
	if err != nil {
		t.Fatalf("GetUserByID: %v", err)
	}
	if !migrated.HasPassword() {
		t.Fatal("expected password hash to be persisted on first login")
	}

	// Second login goes through hash comparison and must not rewrite it.
	if _, err := verifier.Verify(ctx, "dave@example.com", "legacy-pass1"); err != nil {
		t.Fatalf("second login: %v", err)
	}
	after, _ := users.GetUserByID(ctx, created.ID)
	if after.PasswordHash != migrated.PasswordHash {
		t.Error("stored hash changed on second login")
	}

	// Wrong password now fails like any other account.
	if _, err := verifier.Verify(ctx, "dave@example.com", "not-it"); !errors.Is(err, auth.ErrInvalidCredentials) {
		t.Fatalf("expected ErrInvalidCredentials, got %v", err)
	}
}

func TestRegister(t *testing.T) {
	verifier, _, seeder := setupVerifier(t)
	ctx := context.Background()

	user, err := verifier.Register(ctx, auth.RegisterParams{
		Email:           "a@x.com",
		Username:        "alice",
		DisplayName:     "Alice",
		Password:        "longenough1",
		ConfirmPassword: "longenough1",
	})
	if err != nil {
		t.Fatalf("Register: %v", err)
	}
	if user.Email != "a@x.com" {
		t.Errorf("expected email a@x.com, got %q", user.Email)
	}
	if !user.HasPassword() {
		t.Error("expected a password hash after registration")
	}
	if got := len(seeder.TasksFor(user.ID)); got != 3 {
		t.Errorf("expected 3 starter tasks, got %d", got)
	}

	// Login with the same credentials must succeed and return the same id.
	loggedIn, err := verifier.Verify(ctx, "a@x.com", "longenough1")
	if err != nil {
		t.Fatalf("Verify after Register: %v", err)
	}
	if loggedIn.ID != user.ID {
		t.Errorf("expected user %d, got %d", user.ID, loggedIn.ID)
	}
}

func TestRegisterValidation(t *testing.T) {
	verifier, _, _ := setupVerifier(t)
	ctx := context.Background()

	valid := auth.RegisterParams{
		Email:           "a@x.com",
		Username:        "alice",
		Password:        "longenough1",
		ConfirmPassword: "longenough1",
	}

	if _, err := verifier.Register(ctx, valid); err != nil {
		t.Fatalf("seed registration: %v", err)
	}

	tests := []struct {
		name    string
		mutate  func(*auth.RegisterParams)
		code    string
		errText string
	}{
		{
			name:   "duplicate email different username",
			mutate: func(p *auth.RegisterParams) { p.Username = "alice2" },
			code:   auth.ErrCodeDuplicateIdentity,
		},
		{
			name:   "duplicate username",
			mutate: func(p *auth.RegisterParams) { p.Email = "b@x.com" },
			code:   auth.ErrCodeDuplicateIdentity,
		},
		{
			name: "password mismatch",
			mutate: func(p *auth.RegisterParams) {
				p.Email = "c@x.com"
				p.Username = "carol"
				p.ConfirmPassword = "different1"
			},
			code: auth.ErrCodeValidation,
		},
		{
			name: "weak password",
			mutate: func(p *auth.RegisterParams) {
				p.Email = "d@x.com"
				p.Username = "dana"
				p.Password = "short"
				p.ConfirmPassword = "short"
			},
			code:    auth.ErrCodeValidation,
			errText: "at least 8 characters",
		},
		{
			name: "invalid email",
			mutate: func(p *auth.RegisterParams) {
				p.Email = "nope"
				p.Username = "erin"
			},
			code: auth.ErrCodeValidation,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			params := valid
			tt.mutate(&params)

			_, err := verifier.Register(ctx, params)
			var authErr *auth.AuthError
			if !errors.As(err, &authErr) {
				t.Fatalf("expected AuthError, got %v", err)
			}
			if authErr.Code != tt.code {
				t.Errorf("expected code %q, got %q", tt.code, authErr.Code)
			}
			if tt.errText != "" && !strings.Contains(authErr.Message, tt.errText) {
				t.Errorf("expected message containing %q, got %q", tt.errText, authErr.Message)
			}
		})
	}
}
