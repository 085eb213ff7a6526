// Package session manages server-side authentication state on top of
// alexedwards/scs. Session identifiers are opaque, store-assigned tokens;
// the payload carries the authenticated user id and, during an in-flight
// OAuth handshake, the single-use CSRF state token.
package session

import (
	"context"
	"net/http"
	"time"

	"github.com/alexedwards/scs/v2"
	"github.com/alexedwards/scs/v2/memstore"

	"github.com/tasktrail/tasktrail/internal/config"
)

const (
	// CookieName is stable across requests for the lifetime of a login.
	CookieName = "tt_session"

	userIDKey     = "userID"
	oauthStateKey = "oauthState"
)

// Manager wraps an scs session manager with the gateway's contract:
// Establish, Destroy and AuthenticatedUser. Credentials are never
// re-verified after Establish; every request authenticates by session
// lookup alone.
type Manager struct {
	scs *scs.SessionManager
}

// New builds a Manager from the deployment profile. Store selection is a
// startup-time decision: the default scs store is replaced with the given
// one (nil keeps the built-in in-memory store).
func New(profile *config.DeploymentProfile, store scs.Store) *Manager {
	sm := scs.New()
	sm.Lifetime = profile.SessionTTL
	// Absolute expiry only; no idle sliding window.
	sm.IdleTimeout = 0
	sm.Cookie.Name = CookieName
	sm.Cookie.Path = "/"
	sm.Cookie.HttpOnly = true
	sm.Cookie.Secure = profile.SecureCookies
	sm.Cookie.SameSite = profile.SameSite
	sm.Cookie.Domain = profile.CookieDomain

	if store == nil {
		store = memstore.NewWithCleanupInterval(time.Minute)
	}
	sm.Store = store

	return &Manager{scs: sm}
}

// Middleware loads the session for every request and writes the cookie back
// when the session data changed.
func (m *Manager) Middleware() func(http.Handler) http.Handler {
	return m.scs.LoadAndSave
}

// Establish writes the user id into the session payload. The token is
// renewed first so a pre-login session id never becomes an authenticated
// one (fixation defence); the user id field transitions from absent to
// present exactly once per login.
func (m *Manager) Establish(ctx context.Context, userID int64) error {
	if err := m.scs.RenewToken(ctx); err != nil {
		return err
	}
	m.scs.Put(ctx, userIDKey, userID)
	return nil
}

// Destroy removes the session payload from the store and instructs the
// browser to drop the cookie. Destroying an absent or already-expired
// session is not an error.
func (m *Manager) Destroy(ctx context.Context) error {
	return m.scs.Destroy(ctx)
}

// AuthenticatedUser returns the user id bound to the current session.
// An expired or missing session is indistinguishable from anonymous.
func (m *Manager) AuthenticatedUser(ctx context.Context) (int64, bool) {
	if !m.scs.Exists(ctx, userIDKey) {
		return 0, false
	}
	return m.scs.GetInt64(ctx, userIDKey), true
}

// PutOAuthState stores the CSRF state token for an in-flight OAuth
// handshake on the caller's session.
func (m *Manager) PutOAuthState(ctx context.Context, state string) {
	m.scs.Put(ctx, oauthStateKey, state)
}

// ConsumeOAuthState returns the stored state token and removes it, so a
// token can never validate twice. Returns "" when none is stored — the
// caller must fail closed on mismatch.
func (m *Manager) ConsumeOAuthState(ctx context.Context) string {
	return m.scs.PopString(ctx, oauthStateKey)
}
