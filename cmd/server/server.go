package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/alexedwards/scs/gormstore"
	"github.com/alexedwards/scs/v2"
	"github.com/gorilla/mux"
	"github.com/rs/zerolog/log"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"

	"github.com/tasktrail/tasktrail/internal/auth"
	"github.com/tasktrail/tasktrail/internal/config"
	"github.com/tasktrail/tasktrail/internal/session"
	"github.com/tasktrail/tasktrail/internal/store"
	taskgorm "github.com/tasktrail/tasktrail/internal/store/gormstore"
	"github.com/tasktrail/tasktrail/internal/store/memory"
)

type ServerCmd struct {
	Listen  string `help:"HTTP listen address." default:"localhost:8080" env:"TASKTRAIL_LISTEN"`
	BaseURL string `help:"Externally visible origin." default:"http://localhost:8080" env:"TASKTRAIL_BASE_URL"`

	GoogleClientID     string `help:"Google OAuth client id." default:"" env:"TASKTRAIL_GOOGLE_CLIENT_ID"`
	GoogleClientSecret string `help:"Google OAuth client secret." default:"" env:"TASKTRAIL_GOOGLE_CLIENT_SECRET"`
	GoogleCallbackURL  string `help:"Google OAuth callback URL." default:"" env:"TASKTRAIL_GOOGLE_CALLBACK_URL"`

	SessionTTL    time.Duration `help:"Absolute session lifetime." default:"168h" env:"TASKTRAIL_SESSION_TTL"`
	SecureCookies bool          `help:"Set the Secure flag on session cookies." default:"false" env:"TASKTRAIL_SECURE_COOKIES"`
	SameSite      string        `help:"Cookie SameSite policy (lax, strict or none)." default:"lax" env:"TASKTRAIL_SAME_SITE"`
	CookieDomain  string        `help:"Cookie Domain attribute, empty for host-only." default:"" env:"TASKTRAIL_COOKIE_DOMAIN"`

	StoreKind   string `help:"Backing store (memory or postgres)." default:"memory" env:"TASKTRAIL_STORE" enum:"memory,postgres"`
	PostgresDSN string `help:"PostgreSQL connection string." default:"" env:"TASKTRAIL_POSTGRES_DSN"`
}

func (s *ServerCmd) Run() error {
	sameSite, err := config.ParseSameSite(s.SameSite)
	if err != nil {
		return err
	}

	profile := &config.DeploymentProfile{
		BaseURL:       s.BaseURL,
		StoreKind:     s.StoreKind,
		SessionTTL:    s.SessionTTL,
		SecureCookies: s.SecureCookies,
		SameSite:      sameSite,
		CookieDomain:  s.CookieDomain,
	}
	if err := profile.Validate(); err != nil {
		return err
	}

	users, seeder, sessionStore, err := s.openStores()
	if err != nil {
		return err
	}

	sessions := session.New(profile, sessionStore)

	oauthCfg := config.OAuthConfig{
		ClientID:     s.GoogleClientID,
		ClientSecret: s.GoogleClientSecret,
		CallbackURL:  s.GoogleCallbackURL,
	}

	resolver := auth.NewResolver(users, seeder)
	verifier := auth.NewLocalVerifier(users, seeder)
	oauthEngine := auth.NewOAuth(oauthCfg, sessions, resolver)
	handler := auth.NewHandler(verifier, oauthEngine, sessions, users, oauthCfg.Configured())

	router := mux.NewRouter()
	router.Use(sessions.Middleware())
	handler.RegisterRoutes(router)

	server := &http.Server{
		Addr:              s.Listen,
		Handler:           router,
		ReadHeaderTimeout: time.Second,
		ReadTimeout:       time.Minute,
		WriteTimeout:      time.Minute,
		IdleTimeout:       5 * time.Minute,
		MaxHeaderBytes:    8 * 1024,
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	errCh := make(chan error, 1)
	go func() {
		log.Info().
			Str("listen", s.Listen).
			Str("store", s.StoreKind).
			Bool("provider_configured", oauthCfg.Configured()).
			Msg("tasktrail server started")
		errCh <- server.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
	case <-ctx.Done():
		log.Info().Msg("shutdown signal received")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			return err
		}
	}

	log.Info().Msg("tasktrail server stopped")
	return nil
}

// openStores selects the backing stores once at startup. The in-memory pair
// is instance-local; postgres is required for any horizontally scaled
// deployment so sessions survive instance hops.
func (s *ServerCmd) openStores() (store.UserStore, store.TaskSeeder, scs.Store, error) {
	if s.StoreKind == config.StoreMemory {
		return memory.NewUserStore(), memory.NewTaskSeeder(), nil, nil
	}

	db, err := gorm.Open(postgres.Open(s.PostgresDSN), &gorm.Config{TranslateError: true})
	if err != nil {
		return nil, nil, nil, err
	}
	if err := taskgorm.AutoMigrate(db); err != nil {
		return nil, nil, nil, err
	}

	sessionStore, err := gormstore.New(db)
	if err != nil {
		return nil, nil, nil, err
	}

	log.Info().Msg("postgres store ready")
	return taskgorm.NewUserStore(db), taskgorm.NewTaskSeeder(db), sessionStore, nil
}
