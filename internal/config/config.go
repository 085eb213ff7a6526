// Package config holds startup-time configuration for the gateway. Values
// are resolved once in cmd/server and passed by reference into constructors;
// nothing in the request path reads the environment.
package config

import (
	"fmt"
	"net/http"
	"time"
)

// Store kinds selectable at startup.
const (
	StoreMemory   = "memory"
	StorePostgres = "postgres"
)

// DeploymentProfile captures the cookie and store policy for the active
// deployment topology. Same-origin dev runs with lax cookies and the
// in-memory store; cross-origin production needs SameSite=None, Secure and
// the shared relational store.
type DeploymentProfile struct {
	// BaseURL is the externally visible origin of the app, used for
	// post-login redirects.
	BaseURL string

	// StoreKind selects the user/session backing store: StoreMemory or
	// StorePostgres. An in-memory store is instance-local and breaks any
	// horizontally scaled deployment.
	StoreKind string

	// SessionTTL is the absolute session lifetime from creation. There is
	// no idle sliding window.
	SessionTTL time.Duration

	SecureCookies bool
	SameSite      http.SameSite
	CookieDomain  string
}

func (p DeploymentProfile) Validate() error {
	switch p.StoreKind {
	case StoreMemory, StorePostgres:
	default:
		return fmt.Errorf("unknown store kind %q", p.StoreKind)
	}
	if p.SessionTTL <= 0 {
		return fmt.Errorf("session TTL must be greater than 0")
	}
	if p.SameSite == http.SameSiteNoneMode && !p.SecureCookies {
		return fmt.Errorf("SameSite=None requires secure cookies")
	}
	return nil
}

// ParseSameSite maps the config string to the http constant. Defaults to
// Lax, matching same-origin deployments.
func ParseSameSite(s string) (http.SameSite, error) {
	switch s {
	case "", "lax":
		return http.SameSiteLaxMode, nil
	case "strict":
		return http.SameSiteStrictMode, nil
	case "none":
		return http.SameSiteNoneMode, nil
	default:
		return 0, fmt.Errorf("unknown same-site policy %q", s)
	}
}

// OAuthConfig holds the external identity provider credentials. When
// Configured reports false the engine runs the development fallback path
// instead of the real redirect flow.
type OAuthConfig struct {
	ClientID     string
	ClientSecret string
	CallbackURL  string
}

func (c OAuthConfig) Configured() bool {
	return c.ClientID != "" && c.ClientSecret != ""
}
