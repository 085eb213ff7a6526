package auth

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/rs/zerolog/log"

	"github.com/tasktrail/tasktrail/internal/store"
)

// Profile is the provider-supplied identity used to resolve a local user.
// Email is the join key across both signup paths.
type Profile struct {
	Email       string
	DisplayName string
	PhotoURL    string
	ProviderID  string
}

// Resolver maps a verified external profile to a canonical user record,
// creating one on first login. Profile fields are first-write-wins: a
// repeat login never overwrites display name or photo.
type Resolver struct {
	Users  store.UserStore
	Seeder store.TaskSeeder
}

func NewResolver(users store.UserStore, seeder store.TaskSeeder) *Resolver {
	return &Resolver{Users: users, Seeder: seeder}
}

func (r *Resolver) Resolve(ctx context.Context, profile Profile) (*store.User, error) {
	if profile.Email == "" {
		return nil, fmt.Errorf("profile has no email")
	}

	user, err := r.Users.GetUserByEmail(ctx, profile.Email)
	if err == nil {
		return user, nil
	}
	if !errors.Is(err, store.ErrUserNotFound) {
		return nil, fmt.Errorf("looking up user: %w", err)
	}

	user, err = r.createUser(ctx, profile)
	if err != nil {
		return nil, err
	}

	if err := r.Seeder.SeedStarterTasks(ctx, user.ID); err != nil {
		log.Error().Err(err).Int64("user_id", user.ID).Msg("failed to seed starter tasks")
	}

	log.Info().Int64("user_id", user.ID).Str("username", user.Username).Msg("created user from provider profile")
	return user, nil
}

const maxUsernameAttempts = 10

func (r *Resolver) createUser(ctx context.Context, profile Profile) (*store.User, error) {
	base := usernameFromEmail(profile.Email)

	// Two unrelated emails can share a local part, so a collision on the
	// derived username gets a numeric suffix rather than failing signup.
	for attempt := 0; attempt < maxUsernameAttempts; attempt++ {
		username := base
		if attempt > 0 {
			username = fmt.Sprintf("%s%d", base, attempt)
		}

		user, err := r.Users.CreateUser(ctx, &store.User{
			Username:    username,
			Email:       profile.Email,
			DisplayName: profile.DisplayName,
			PhotoURL:    profile.PhotoURL,
			ProviderID:  profile.ProviderID,
		})
		if err == nil {
			return user, nil
		}
		if errors.Is(err, store.ErrDuplicateUsername) {
			continue
		}
		if errors.Is(err, store.ErrDuplicateEmail) {
			// Lost a race with a concurrent signup for the same email;
			// the existing record wins.
			return r.Users.GetUserByEmail(ctx, profile.Email)
		}
		return nil, fmt.Errorf("creating user: %w", err)
	}
	return nil, fmt.Errorf("could not find a free username for %q", base)
}

// usernameFromEmail derives a username from the text before the @, keeping
// only characters the username rules allow.
func usernameFromEmail(email string) string {
	local := email
	if idx := strings.Index(email, "@"); idx >= 0 {
		local = email[:idx]
	}
	var b strings.Builder
	for _, c := range local {
		switch {
		case c >= 'a' && c <= 'z', c >= 'A' && c <= 'Z', c >= '0' && c <= '9', c == '_', c == '-':
			b.WriteRune(c)
		}
	}
	out := b.String()
	if len(out) < 3 {
		out = out + "user"
	}
	if len(out) > 20 {
		out = out[:20]
	}
	return out
}
