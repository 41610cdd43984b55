package main

import (
	"log"
	"log/slog"
	"net/http"
	"time"

	"inkshelf/internal/authclient"
	"inkshelf/internal/bookclient"
	"inkshelf/internal/config"
	"inkshelf/internal/metrics"
	"inkshelf/internal/ratelimit"
	"inkshelf/internal/server"
	"inkshelf/internal/session"
	"inkshelf/internal/userclient"
	"inkshelf/internal/util"
)

func main() {
	cfg, err := config.Load(config.ConfigPath)
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}
	sessionTTL, err := config.ParseSessionTTL(cfg.SessionTTL)
	if err != nil {
		log.Fatalf("failed to parse session TTL: %v", err)
	}

	logger := util.InitLogger(cfg.LogLevel)

	trustedProxies, err := util.NewTrustedProxies(cfg.TrustedProxyCIDRs)
	if err != nil {
		log.Fatalf("failed to parse trusted proxies: %v", err)
	}

	var store session.Store
	if cfg.RedisAddr != "" {
		store = session.NewRedisStore(cfg.RedisAddr, cfg.RedisPassword, sessionTTL)
	} else {
		slog.Warn("no redis configured, sessions are in-memory and lost on restart")
		store = session.NewMemoryStore()
	}
	sessions := session.NewManager(store)

	var loginLimiter, signupLimiter *ratelimit.FixedWindowLimiter
	if cfg.RedisAddr != "" {
		if cfg.LoginRateLimitPerMinute > 0 {
			loginLimiter, err = ratelimit.NewRedisFixedWindowLimiter(cfg.RedisAddr, cfg.RedisPassword, "inkshelf:ratelimit:login", cfg.LoginRateLimitPerMinute, time.Minute)
			if err != nil {
				log.Fatalf("failed to init login limiter: %v", err)
			}
		}
		if cfg.SignupRateLimitPerMinute > 0 {
			signupLimiter, err = ratelimit.NewRedisFixedWindowLimiter(cfg.RedisAddr, cfg.RedisPassword, "inkshelf:ratelimit:signup", cfg.SignupRateLimitPerMinute, time.Minute)
			if err != nil {
				log.Fatalf("failed to init signup limiter: %v", err)
			}
		}
	}

	assetBase := cfg.AssetBaseURL
	if assetBase == "" {
		assetBase = cfg.APIBaseURL
	}

	srv, err := server.New(server.Config{
		Auth:              authclient.NewClient(cfg.APIBaseURL),
		Books:             bookclient.NewClient(cfg.APIBaseURL),
		Users:             userclient.NewClient(cfg.APIBaseURL),
		Sessions:          sessions,
		AssetBaseURL:      assetBase,
		CookieName:        cfg.SessionCookieName,
		CookieSecure:      cfg.SessionCookieSecure,
		CookieMaxAge:      sessionTTL,
		TrustedProxies:    trustedProxies,
		LoginLimiter:      loginLimiter,
		SignupLimiter:     signupLimiter,
		Metrics:           metrics.NewCollector(),
		MaxUploadBytes:    cfg.MaxUploadBytes,
		AllowedExtensions: cfg.AllowedExtensions,
	})
	if err != nil {
		log.Fatalf("failed to init server: %v", err)
	}

	addr := ":" + cfg.Port
	httpServer := &http.Server{
		Addr:         addr,
		Handler:      srv.Router(),
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 60 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	slog.Info("web client listening", "addr", addr, "api", cfg.APIBaseURL)
	if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		logger.Error("server error", "err", err)
	}
}
