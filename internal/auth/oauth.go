package auth

import (
	"crypto/rand"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"

	"github.com/rs/zerolog/log"
	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"

	"github.com/tasktrail/tasktrail/internal/config"
	"github.com/tasktrail/tasktrail/internal/session"
)

const googleUserInfoURL = "https://www.googleapis.com/oauth2/v2/userinfo"

// OAuth drives the Authorization Code flow against the external identity
// provider: authorization redirect, callback validation, code exchange,
// profile fetch and local user resolution. Every terminal failure becomes a
// redirect to the login page with a URL-encoded description; the browser
// never sees a raw error.
type OAuth struct {
	cfg      *oauth2.Config
	sessions *session.Manager
	resolver *Resolver

	// UserInfoURL is the provider's profile endpoint. Overridable in tests
	// along with cfg.Endpoint.
	UserInfoURL string

	// LoginURL and SuccessURL are where failure and success redirects land.
	LoginURL   string
	SuccessURL string
}

func NewOAuth(oc config.OAuthConfig, sessions *session.Manager, resolver *Resolver) *OAuth {
	return &OAuth{
		cfg: &oauth2.Config{
			ClientID:     oc.ClientID,
			ClientSecret: oc.ClientSecret,
			RedirectURL:  oc.CallbackURL,
			Scopes: []string{
				"https://www.googleapis.com/auth/userinfo.email",
				"https://www.googleapis.com/auth/userinfo.profile",
			},
			Endpoint: google.Endpoint,
		},
		sessions:    sessions,
		resolver:    resolver,
		UserInfoURL: googleUserInfoURL,
		LoginURL:    "/login",
		SuccessURL:  "/",
	}
}

// Endpoint exposes the oauth2 endpoint for test overrides.
func (o *OAuth) Endpoint() *oauth2.Endpoint { return &o.cfg.Endpoint }

// HandleLogin issues the authorization redirect. The CSRF state token is
// generated here and stored on the caller's session; no network call is
// made yet.
func (o *OAuth) HandleLogin(w http.ResponseWriter, r *http.Request) {
	state := generateStateToken()
	o.sessions.PutOAuthState(r.Context(), state)

	log.Debug().Msg("issuing provider authorization redirect")
	http.Redirect(w, r, o.cfg.AuthCodeURL(state), http.StatusFound)
}

// HandleCallback processes the provider redirect. The stored state token is
// consumed on every outcome so it can never be replayed; a missing or
// mismatched state fails closed.
func (o *OAuth) HandleCallback(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	storedState := o.sessions.ConsumeOAuthState(ctx)

	if errParam := r.URL.Query().Get("error"); errParam != "" {
		desc := r.URL.Query().Get("error_description")
		log.Warn().Str("error", errParam).Str("desc", desc).Msg("provider returned error on callback")
		o.failRedirect(w, r, FailProviderError, fmt.Sprintf("the identity provider reported: %s", errParam))
		return
	}

	if storedState == "" || r.URL.Query().Get("state") != storedState {
		log.Warn().Msg("oauth callback state mismatch")
		o.failRedirect(w, r, FailCSRFMismatch, "login request did not originate here, please retry")
		return
	}

	token, err := o.cfg.Exchange(ctx, r.URL.Query().Get("code"))
	if err != nil {
		detail := "the provider rejected the authorization code"
		var retrieveErr *oauth2.RetrieveError
		if errors.As(err, &retrieveErr) && retrieveErr.ErrorCode != "" {
			detail = fmt.Sprintf("%s: %s", retrieveErr.ErrorCode, retrieveErr.ErrorDescription)
		}
		log.Warn().Err(err).Msg("token exchange failed")
		o.failRedirect(w, r, FailTokenExchange, detail)
		return
	}

	profile, err := o.fetchProfile(r, token)
	if err != nil {
		log.Warn().Err(err).Msg("profile fetch failed")
		o.failRedirect(w, r, FailProfileFetch, "could not fetch your profile from the provider")
		return
	}
	if profile.Email == "" {
		o.failRedirect(w, r, FailMissingEmail, "the provider did not share an email address")
		return
	}

	o.resolveAndEstablish(w, r, profile)
}

func (o *OAuth) fetchProfile(r *http.Request, token *oauth2.Token) (Profile, error) {
	client := o.cfg.Client(r.Context(), token)
	resp, err := client.Get(o.UserInfoURL)
	if err != nil {
		return Profile{}, fmt.Errorf("fetching userinfo: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return Profile{}, fmt.Errorf("userinfo endpoint returned HTTP %d", resp.StatusCode)
	}

	var info struct {
		ID      string `json:"id"`
		Email   string `json:"email"`
		Name    string `json:"name"`
		Picture string `json:"picture"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&info); err != nil {
		return Profile{}, fmt.Errorf("decoding userinfo: %w", err)
	}

	return Profile{
		Email:       info.Email,
		DisplayName: info.Name,
		PhotoURL:    info.Picture,
		ProviderID:  info.ID,
	}, nil
}

func (o *OAuth) resolveAndEstablish(w http.ResponseWriter, r *http.Request, profile Profile) {
	user, err := o.resolver.Resolve(r.Context(), profile)
	if err != nil {
		log.Error().Err(err).Msg("failed to resolve provider profile")
		o.failRedirect(w, r, FailLogin, "could not sign you in, please retry")
		return
	}

	if err := o.sessions.Establish(r.Context(), user.ID); err != nil {
		log.Error().Err(err).Int64("user_id", user.ID).Msg("failed to establish session")
		o.failRedirect(w, r, FailLogin, "could not sign you in, please retry")
		return
	}

	log.Info().Int64("user_id", user.ID).Msg("provider login succeeded")
	http.Redirect(w, r, o.SuccessURL, http.StatusFound)
}

// HandleDevLogin is the development fallback used when provider credentials
// are not configured: it accepts a caller-supplied profile directly. The
// server wires it in place of the real flow, never alongside it.
func (o *OAuth) HandleDevLogin(w http.ResponseWriter, r *http.Request) {
	profile := Profile{
		Email:       r.FormValue("email"),
		DisplayName: r.FormValue("displayName"),
		PhotoURL:    r.FormValue("photoURL"),
	}
	if profile.Email == "" {
		o.failRedirect(w, r, FailMissingEmail, "email is required")
		return
	}
	log.Warn().Str("email", profile.Email).Msg("development login used, provider credentials not configured")
	o.resolveAndEstablish(w, r, profile)
}

func (o *OAuth) failRedirect(w http.ResponseWriter, r *http.Request, reason, detail string) {
	msg := fmt.Sprintf("%s: %s", reason, detail)
	http.Redirect(w, r, o.LoginURL+"?error="+url.QueryEscape(msg), http.StatusFound)
}

// generateStateToken returns a single-use CSRF state token binding the
// authorization redirect to its callback.
func generateStateToken() string {
	b := make([]byte, 16)
	rand.Read(b)
	return base64.URLEncoding.EncodeToString(b)
}
