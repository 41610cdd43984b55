package server

import (
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/microcosm-cc/bluemonday"

	"inkshelf/internal/authclient"
	"inkshelf/internal/bookclient"
	"inkshelf/internal/metrics"
	"inkshelf/internal/ratelimit"
	"inkshelf/internal/session"
	"inkshelf/internal/userclient"
	"inkshelf/internal/util"
	"inkshelf/pkg/domain"
)

const defaultCookieName = "inkshelf_sid"

// Config wires required dependencies for the web client server.
type Config struct {
	Auth     *authclient.Client
	Books    *bookclient.Client
	Users    *userclient.Client
	Sessions *session.Manager

	AssetBaseURL string

	CookieName   string
	CookieSecure bool
	CookieMaxAge time.Duration

	TrustedProxies *util.TrustedProxies
	LoginLimiter   *ratelimit.FixedWindowLimiter
	SignupLimiter  *ratelimit.FixedWindowLimiter
	Metrics        *metrics.Collector

	MaxUploadBytes    int64
	AllowedExtensions []string
}

// Server renders the web client views and proxies form submits to the
// backend API through the typed clients.
type Server struct {
	auth     *authclient.Client
	books    *bookclient.Client
	users    *userclient.Client
	sessions *session.Manager

	views     *viewRenderer
	sanitizer *bluemonday.Policy

	cookieName   string
	cookieSecure bool
	cookieMaxAge time.Duration

	trustedProxies *util.TrustedProxies
	loginLimiter   *ratelimit.FixedWindowLimiter
	signupLimiter  *ratelimit.FixedWindowLimiter
	metrics        *metrics.Collector

	maxUploadBytes    int64
	allowedExtensions map[string]struct{}
}

// New constructs the server with templates parsed and routes configured.
func New(cfg Config) (*Server, error) {
	views, err := newViewRenderer(cfg.AssetBaseURL)
	if err != nil {
		return nil, err
	}
	cookieName := strings.TrimSpace(cfg.CookieName)
	if cookieName == "" {
		cookieName = defaultCookieName
	}
	cookieMaxAge := cfg.CookieMaxAge
	if cookieMaxAge <= 0 {
		cookieMaxAge = 30 * 24 * time.Hour
	}
	s := &Server{
		auth:              cfg.Auth,
		books:             cfg.Books,
		users:             cfg.Users,
		sessions:          cfg.Sessions,
		views:             views,
		sanitizer:         descriptionPolicy(),
		cookieName:        cookieName,
		cookieSecure:      cfg.CookieSecure,
		cookieMaxAge:      cookieMaxAge,
		trustedProxies:    cfg.TrustedProxies,
		loginLimiter:      cfg.LoginLimiter,
		signupLimiter:     cfg.SignupLimiter,
		metrics:           cfg.Metrics,
		maxUploadBytes:    normalizeMaxBytes(cfg.MaxUploadBytes),
		allowedExtensions: normalizeExtensions(cfg.AllowedExtensions),
	}
	return s, nil
}

// Router returns the configured handler with the full middleware chain.
func (s *Server) Router() http.Handler {
	r := chi.NewRouter()

	r.Use(util.WithRequestID)
	r.Use(util.WithRequestLog)
	if s.metrics != nil {
		r.Use(s.metrics.Middleware)
	}
	r.Use(util.WithSecurityHeaders)

	r.Get("/healthz", s.handleHealth)
	if s.metrics != nil {
		r.Method(http.MethodGet, "/metrics", s.metrics.Handler())
	}

	r.Group(func(r chi.Router) {
		r.Use(s.withSession)

		r.Get("/", s.handleRoot)
		r.Post("/role", s.handleSelectRole)
		r.Get("/login", s.showLogin)
		r.Post("/login", s.handleLogin)
		r.Get("/signup", s.showSignup)
		r.Post("/signup", s.handleSignup)
		r.Post("/logout", s.handleLogout)

		r.Group(func(r chi.Router) {
			r.Use(s.requireRole(domain.RoleReader))
			r.Get("/reader", s.handleReaderDashboard)
			r.Get("/read/{id}", s.handleReadingView)
		})

		r.Group(func(r chi.Router) {
			r.Use(s.requireRole(domain.RoleWriter))
			r.Get("/writer", s.handleWriterDashboard)
			r.Post("/writer/books", s.handleCreateBook)
			r.Post("/writer/books/{id}", s.handleUpdateBook)
			r.Post("/writer/books/{id}/delete", s.handleDeleteBook)
		})

		r.Group(func(r chi.Router) {
			r.Use(s.requireAuth)
			r.Get("/profile", s.showProfile)
			r.Post("/profile", s.handleUpdateProfile)
			r.Post("/profile/delete", s.handleDeleteAccount)
		})

		// Unknown paths unconditionally land on the root.
		r.NotFound(func(w http.ResponseWriter, r *http.Request) {
			http.Redirect(w, r, "/", http.StatusFound)
		})
	})

	return r
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte(`{"status":"ok"}`))
}

func (s *Server) audit(r *http.Request, event, outcome string, attrs ...any) {
	logAttrs := []any{
		"event", event,
		"outcome", outcome,
		"path", r.URL.Path,
		"method", r.Method,
		"ip", util.ClientIP(r, s.trustedProxies),
		"request_id", util.RequestIDFromRequest(r),
	}
	logAttrs = append(logAttrs, attrs...)
	if outcome == "success" {
		slog.Info("security_event", logAttrs...)
		return
	}
	slog.Warn("security_event", logAttrs...)
}

func (s *Server) allowRate(w http.ResponseWriter, r *http.Request, limiter *ratelimit.FixedWindowLimiter) bool {
	key := r.URL.Path + "|" + util.ClientIP(r, s.trustedProxies)
	if limiter.Allow(key) {
		return true
	}
	w.Header().Set("Retry-After", "60")
	return false
}

func normalizeMaxBytes(value int64) int64 {
	if value <= 0 {
		return 50 * 1024 * 1024
	}
	return value
}

func normalizeExtensions(exts []string) map[string]struct{} {
	if len(exts) == 0 {
		exts = []string{".pdf", ".epub", ".txt"}
	}
	out := make(map[string]struct{}, len(exts))
	for _, ext := range exts {
		ext = strings.ToLower(strings.TrimSpace(ext))
		if ext == "" {
			continue
		}
		if !strings.HasPrefix(ext, ".") {
			ext = "." + ext
		}
		out[ext] = struct{}{}
	}
	return out
}
