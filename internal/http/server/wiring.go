// Package server arma el handler HTTP completo a partir de la config y lo sirve.
package server

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/dropDatabas3/incidentauth/internal/audit"
	"github.com/dropDatabas3/incidentauth/internal/cache"
	"github.com/dropDatabas3/incidentauth/internal/config"
	"github.com/dropDatabas3/incidentauth/internal/email"
	httpx "github.com/dropDatabas3/incidentauth/internal/http"
	authctrl "github.com/dropDatabas3/incidentauth/internal/http/controllers/auth"
	healthctrl "github.com/dropDatabas3/incidentauth/internal/http/controllers/health"
	mw "github.com/dropDatabas3/incidentauth/internal/http/middlewares"
	"github.com/dropDatabas3/incidentauth/internal/http/router"
	authsvc "github.com/dropDatabas3/incidentauth/internal/http/services/auth"
	healthsvc "github.com/dropDatabas3/incidentauth/internal/http/services/health"
	jwtx "github.com/dropDatabas3/incidentauth/internal/jwt"
	"github.com/dropDatabas3/incidentauth/internal/observability/logger"
	"github.com/dropDatabas3/incidentauth/internal/security/password"
	"github.com/dropDatabas3/incidentauth/internal/store"
	"github.com/dropDatabas3/incidentauth/internal/tenant"
)

// App es el resultado del wiring.
type App struct {
	Handler http.Handler
	DAL     store.DataAccessLayer
	Cache   cache.Client

	cleanups []func() error
}

// Close libera store y cache en orden inverso.
func (a *App) Close() error {
	var errs []error
	for i := len(a.cleanups) - 1; i >= 0; i-- {
		if err := a.cleanups[i](); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// Options permite reemplazar colaboradores (tests).
type Options struct {
	DAL     store.DataAccessLayer
	Sender  email.Sender
	Version string
}

// Build conecta store, cache, issuer, notifier y arma el router.
// Si cfg.Flags.Migrate está activo aplica las migraciones embebidas.
func Build(ctx context.Context, cfg *config.Config, opts Options) (_ *App, err error) {
	log := logger.From(ctx).With(logger.Component("server"), logger.Op("Build"))
	app := &App{}
	defer func() {
		if err != nil {
			_ = app.Close()
		}
	}()

	// Store
	dal := opts.DAL
	if dal == nil {
		dal, err = store.Open(ctx, store.AdapterConfig{
			Driver:       cfg.Storage.Driver,
			DSN:          cfg.Storage.DSN,
			MaxOpenConns: cfg.Storage.Postgres.MaxOpenConns,
			MaxIdleConns: cfg.Storage.Postgres.MaxIdleConns,
		})
		if err != nil {
			return nil, fmt.Errorf("server: open store: %w", err)
		}
		app.cleanups = append(app.cleanups, dal.Close)
	}
	app.DAL = dal

	if cfg.Flags.Migrate {
		m, ok := dal.(store.Migratable)
		if !ok {
			return nil, fmt.Errorf("server: driver %q does not support migrations", cfg.Storage.Driver)
		}
		res, err := m.Migrate(ctx)
		if err != nil {
			return nil, fmt.Errorf("server: migrate: %w", err)
		}
		log.Info("migrations applied", logger.Int("applied", len(res.Applied)), logger.Int("skipped", len(res.Skipped)))
	}

	// Cache (tenant keys)
	c, err := cache.New(cache.Config{
		Kind:       cfg.Cache.Kind,
		Addr:       cfg.Cache.Redis.Addr,
		Password:   cfg.Cache.Redis.Password,
		DB:         cfg.Cache.Redis.DB,
		Prefix:     cfg.Cache.Redis.Prefix,
		DefaultTTL: cfg.Cache.TenantTTL,
	})
	if err != nil {
		return nil, fmt.Errorf("server: cache: %w", err)
	}
	app.cleanups = append(app.cleanups, c.Close)
	app.Cache = c

	// JWT
	issuer, err := jwtx.NewIssuer(cfg.JWT.Issuer, cfg.JWT.Audience, []byte(cfg.JWT.Key), cfg.AccessTTL(), cfg.JWT.ClockSkew)
	if err != nil {
		return nil, fmt.Errorf("server: issuer: %w", err)
	}

	// Email
	sender := opts.Sender
	if sender == nil {
		if cfg.SMTP.Host == "" {
			log.Warn("smtp.host empty: OTP emails will be dropped")
			sender = email.DisabledSender{}
		} else {
			sender = email.NewSMTPSender(email.SMTPConfig{
				Host:               cfg.SMTP.Host,
				Port:               cfg.SMTP.Port,
				Username:           cfg.SMTP.Username,
				Password:           cfg.SMTP.Password,
				From:               cfg.SMTP.From,
				TLSMode:            cfg.SMTP.TLS,
				InsecureSkipVerify: cfg.SMTP.InsecureSkipVerify,
			})
		}
	}
	notifier, err := email.NewOTPNotifier(sender)
	if err != nil {
		return nil, fmt.Errorf("server: notifier: %w", err)
	}

	// Metrics
	var (
		metrics     *httpx.Metrics
		metricsMW   mw.Middleware
		metricsHTTP http.Handler
		authMetrics authsvc.Metrics
	)
	if cfg.Metrics.Enabled {
		metrics, err = httpx.NewMetrics(nil)
		if err != nil {
			return nil, fmt.Errorf("server: metrics: %w", err)
		}
		metricsMW, metricsHTTP, authMetrics = metrics.Middleware(), metrics.Handler(), metrics
	}

	pp := cfg.Security.PasswordPolicy
	sessions, err := authsvc.NewSessionService(authsvc.Deps{
		DAL:      dal,
		Issuer:   issuer,
		Tenants:  tenant.NewResolver(dal.Tenants(), c, cfg.Cache.TenantTTL),
		Notifier: notifier,
		Auditor:  audit.Multi{audit.StoreAuditor{Repo: dal.Audit()}, audit.LogAuditor{}},
		Metrics:  authMetrics,
		Config: authsvc.Config{
			RefreshTTL:  cfg.RefreshTTL(),
			OTPValidity: cfg.OTPValidity(),
			PasswordPolicy: password.Policy{
				MinLength:    pp.MinLength,
				RequireDigit: pp.RequireDigit,
				RequireUpper: pp.RequireUpper,
			},
		},
	})
	if err != nil {
		return nil, fmt.Errorf("server: session service: %w", err)
	}

	health := healthsvc.NewHealthService(healthsvc.Deps{
		DBCheck:    dal.Ping,
		CacheCheck: c.Ping,
		Version:    opts.Version,
	})

	app.Handler = router.New(router.Deps{
		Auth:           authctrl.NewControllers(sessions),
		Health:         healthctrl.NewHealthController(health),
		Tokens:         issuer,
		CORSOrigins:    cfg.Server.CORSAllowedOrigins,
		Metrics:        metricsMW,
		MetricsHandler: metricsHTTP,
	})
	return app, nil
}
