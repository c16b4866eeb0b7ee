// Package adapthttp implements the HTTP adapter for the application.
package adapthttp

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"bbt/internal/app"

	"github.com/coreos/go-oidc/v3/oidc"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"golang.org/x/oauth2"
)

// OIDCConfig holds the SSO provider. The zero value disables SSO.
type OIDCConfig struct {
	Enabled      bool
	Provider     *oidc.Provider
	OAuth2Config *oauth2.Config
}

// NewOIDCConfig discovers the issuer and builds the OAuth2 client.
func NewOIDCConfig(ctx context.Context, issuer, clientID, clientSecret, redirectURL string) (OIDCConfig, error) {
	provider, err := oidc.NewProvider(ctx, issuer)
	if err != nil {
		return OIDCConfig{}, fmt.Errorf("oidc discovery: %w", err)
	}
	return OIDCConfig{
		Enabled:  true,
		Provider: provider,
		OAuth2Config: &oauth2.Config{
			ClientID:     clientID,
			ClientSecret: clientSecret,
			RedirectURL:  redirectURL,
			Endpoint:     provider.Endpoint(),
			Scopes:       []string{oidc.ScopeOpenID, "profile", "email"},
		},
	}, nil
}

// Server is the driving HTTP adapter that routes requests to application
// services.
type Server struct {
	store      *app.RecordStore
	charts     *app.ChartsService
	authSvc    *app.AuthService
	oidcConfig OIDCConfig
	webDir     string
	log        *slog.Logger
	gatherer   prometheus.Gatherer
	now        func() time.Time

	disableAuth bool
	forwardAuth bool
}

// New creates a Server wired to the given application services.
func New(store *app.RecordStore, cs *app.ChartsService, authSvc *app.AuthService, webDir string, log *slog.Logger) *Server {
	return &Server{
		store:   store,
		charts:  cs,
		authSvc: authSvc,
		webDir:  webDir,
		log:     log,
		now:     time.Now,
	}
}

// WithOIDC enables SSO login.
func (s *Server) WithOIDC(cfg OIDCConfig) *Server {
	s.oidcConfig = cfg
	return s
}

// WithMetrics exposes g on /metrics.
func (s *Server) WithMetrics(g prometheus.Gatherer) *Server {
	s.gatherer = g
	return s
}

// WithForwardAuth honours the Remote-User header set by a trusted reverse
// proxy. Off by default.
func (s *Server) WithForwardAuth() *Server {
	s.forwardAuth = true
	return s
}

// WithoutAuth disables the session check. Used by tests.
func (s *Server) WithoutAuth() *Server {
	s.disableAuth = true
	return s
}

// Handler returns the root http.Handler for the application.
func (s *Server) Handler() http.Handler {
	api := http.NewServeMux()
	api.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]any{"ok": true})
	})

	api.HandleFunc("/login", s.handleLogin)
	api.HandleFunc("/logout", s.handleLogout)
	api.HandleFunc("/setup", s.handleSetupUser)
	api.HandleFunc("/config", s.handleConfig)
	api.HandleFunc("/sso/login", s.handleSSOLogin)
	api.HandleFunc("/sso/callback", s.handleSSOCallback)

	protected := http.NewServeMux()
	protected.HandleFunc("/me", s.handleMe)
	protected.HandleFunc("/temperature", s.handleTemperature)
	protected.HandleFunc("/temperature/recent", s.handleTemperatureRecent)
	protected.HandleFunc("/cycle/start", s.handleCycleStart)
	protected.HandleFunc("/cycle/current", s.handleCycleCurrent)
	protected.HandleFunc("/ovulation", s.handleOvulation)
	protected.HandleFunc("/charts/temperature", s.handleChartsTemperature)
	api.Handle("/", s.authMiddleware(protected))

	root := http.NewServeMux()
	root.Handle("/api/", http.StripPrefix("/api", api))
	if s.gatherer != nil {
		root.Handle("/metrics", promhttp.HandlerFor(s.gatherer, promhttp.HandlerOpts{}))
	}
	root.Handle("/", spaFromDisk(s.webDir))

	return s.loggingMiddleware(withNoCache(root))
}

func (s *Server) logger() *slog.Logger {
	if s.log == nil {
		return slog.Default()
	}
	return s.log
}

func (s *Server) today() time.Time {
	if s.now == nil {
		return time.Now()
	}
	return s.now()
}
