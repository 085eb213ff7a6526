package auth

import (
	"context"
	"errors"
	"fmt"
	"regexp"

	"github.com/rs/zerolog/log"
	"golang.org/x/crypto/bcrypt"

	"github.com/tasktrail/tasktrail/internal/store"
)

var (
	emailRegex    = regexp.MustCompile(`^[a-zA-Z0-9._%+-]+@[a-zA-Z0-9.-]+\.[a-zA-Z]{2,}$`)
	usernameRegex = regexp.MustCompile(`^[a-zA-Z0-9_-]{3,20}$`)
)

const minPasswordLength = 8

// LocalVerifier validates email+password pairs against stored hashes and
// owns the one-time lazy migration of legacy accounts that predate hashed
// passwords.
type LocalVerifier struct {
	Users  store.UserStore
	Seeder store.TaskSeeder
}

func NewLocalVerifier(users store.UserStore, seeder store.TaskSeeder) *LocalVerifier {
	return &LocalVerifier{Users: users, Seeder: seeder}
}

// Verify checks the supplied credentials and returns the matching user.
//
// A legacy account with no stored hash and no provider subject id is
// migrated on the spot: the supplied password becomes the account's hash
// and this call counts as a successful login. Every later login goes
// through normal hash comparison.
func (v *LocalVerifier) Verify(ctx context.Context, email, password string) (*store.User, error) {
	if !emailRegex.MatchString(email) {
		return nil, NewAuthError(ErrCodeValidation, "A valid email is required", "email")
	}
	if password == "" {
		return nil, NewAuthError(ErrCodeValidation, "Password is required", "password")
	}

	user, err := v.Users.GetUserByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, store.ErrUserNotFound) {
			return nil, ErrInvalidCredentials
		}
		return nil, fmt.Errorf("looking up user: %w", err)
	}

	if !user.HasPassword() {
		if user.IsProviderAccount() {
			return nil, ErrProviderAccountOnly
		}
		return v.migrateLegacyPassword(ctx, user, password)
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		return nil, ErrInvalidCredentials
	}
	return user, nil
}

func (v *LocalVerifier) migrateLegacyPassword(ctx context.Context, user *store.User, password string) (*store.User, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("hashing password: %w", err)
	}
	if err := v.Users.UpdatePasswordHash(ctx, user.ID, string(hash)); err != nil {
		return nil, fmt.Errorf("persisting migrated password: %w", err)
	}
	log.Info().Int64("user_id", user.ID).Msg("migrated legacy account to hashed password")
	user.PasswordHash = string(hash)
	return user, nil
}

// RegisterParams is the local signup payload.
type RegisterParams struct {
	Email           string `json:"email"`
	Username        string `json:"username"`
	DisplayName     string `json:"displayName"`
	Password        string `json:"password"`
	ConfirmPassword string `json:"confirmPassword"`
}

// Register validates the signup payload, creates the user with a hashed
// password and seeds the starter tasks.
func (v *LocalVerifier) Register(ctx context.Context, params RegisterParams) (*store.User, error) {
	if authErr := validateRegistration(params); authErr != nil {
		return nil, authErr
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(params.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("hashing password: %w", err)
	}

	user, err := v.Users.CreateUser(ctx, &store.User{
		Username:     params.Username,
		Email:        params.Email,
		DisplayName:  params.DisplayName,
		PasswordHash: string(hash),
	})
	if err != nil {
		if errors.Is(err, store.ErrDuplicateEmail) {
			return nil, NewAuthError(ErrCodeDuplicateIdentity, "Email is already registered", "email")
		}
		if errors.Is(err, store.ErrDuplicateUsername) {
			return nil, NewAuthError(ErrCodeDuplicateIdentity, "Username is already taken", "username")
		}
		return nil, fmt.Errorf("creating user: %w", err)
	}

	if err := v.Seeder.SeedStarterTasks(ctx, user.ID); err != nil {
		// Seeding is a courtesy for new accounts, not part of signup.
		log.Error().Err(err).Int64("user_id", user.ID).Msg("failed to seed starter tasks")
	}

	log.Info().Int64("user_id", user.ID).Str("username", user.Username).Msg("registered local user")
	return user, nil
}

func validateRegistration(params RegisterParams) *AuthError {
	if !emailRegex.MatchString(params.Email) {
		return NewAuthError(ErrCodeValidation, "Invalid email format", "email")
	}
	if !usernameRegex.MatchString(params.Username) {
		return NewAuthError(ErrCodeValidation, "Username must be 3-20 characters and contain only letters, numbers, underscores, and hyphens", "username")
	}
	if len(params.Password) < minPasswordLength {
		return NewAuthError(ErrCodeValidation, fmt.Sprintf("Password must be at least %d characters", minPasswordLength), "password")
	}
	if params.Password != params.ConfirmPassword {
		return NewAuthError(ErrCodeValidation, "Passwords do not match", "confirmPassword")
	}
	return nil
}
