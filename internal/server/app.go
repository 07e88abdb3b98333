// Package server wires the account service together: database, migrations,
// limiter, mailer, services, the HTTP API, the janitor and the gRPC health
// endpoint. It also handles graceful shutdown.
package server

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/dmitrijs2005/tripkeeper/internal/dbx"
	"github.com/dmitrijs2005/tripkeeper/internal/logging"
	"github.com/dmitrijs2005/tripkeeper/internal/server/auth"
	"github.com/dmitrijs2005/tripkeeper/internal/server/config"
	"github.com/dmitrijs2005/tripkeeper/internal/server/httpapi"
	"github.com/dmitrijs2005/tripkeeper/internal/server/janitor"
	"github.com/dmitrijs2005/tripkeeper/internal/server/mailer"
	"github.com/dmitrijs2005/tripkeeper/internal/server/ratelimit"
	"github.com/dmitrijs2005/tripkeeper/internal/server/repositories/repomanager"
	"github.com/dmitrijs2005/tripkeeper/internal/server/services"
	"golang.org/x/time/rate"

	gs "github.com/dmitrijs2005/tripkeeper/internal/server/grpc"
	_ "github.com/jackc/pgx/v5/stdlib"
)

const healthInterval = 15 * time.Second

type App struct {
	config  *config.Config
	logger  logging.Logger
	db      *sql.DB
	service *services.AuthService
	http    *httpapi.Server
	health  *gs.HealthServer
	janitor *janitor.Janitor
}

// sqlOpen and runMigrations are replaced in tests.
var (
	sqlOpen       = sql.Open
	runMigrations = func(ctx context.Context, rm repomanager.RepositoryManager, db *sql.DB) error {
		return rm.RunMigrations(ctx, db)
	}
)

func NewApp(ctx context.Context, c *config.Config, logger logging.Logger) (*App, error) {
	db, err := sqlOpen("pgx", c.DatabaseDSN)
	if err != nil {
		return nil, fmt.Errorf("db init error: %w", err)
	}

	rm := repomanager.NewPostgresRepositoryManager()
	if err := runMigrations(ctx, rm, db); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrations error: %w", err)
	}

	var limiter ratelimit.Limiter
	tasks := []janitor.Task{
		{Name: "otp_codes", Sweep: rm.OTPCodes(db).DeleteExpired},
		{Name: "password_reset_tokens", Sweep: rm.ResetTokens(db).DeleteExpired},
	}

	switch c.LimiterBackend {
	case config.LimiterMemory:
		mem := ratelimit.NewCooldown(c.SendCodeCooldown)
		limiter = mem
		tasks = append(tasks, sweepMemory("send_code_limiter", mem))
	default:
		limiter = ratelimit.NewPostgres(rm.RateLimits(db), c.SendCodeCooldown)
		tasks = append(tasks, janitor.Task{Name: "rate_limits", Sweep: rm.RateLimits(db).DeleteExpired})
	}

	ipLimiter := ratelimit.NewMemory(rate.Limit(c.IPRequestRate), c.IPRequestBurst, 10*time.Minute)
	tasks = append(tasks, sweepMemory("ip_limiter", ipLimiter))

	var m mailer.Mailer
	if c.SMTPHost == "" {
		logger.Warn(ctx, "SMTP host not set, emails will be logged instead of sent")
		m = mailer.NewLogMailer(logger)
	} else {
		m = mailer.NewSMTPMailer(mailer.SMTPConfig{
			Host:     c.SMTPHost,
			Port:     c.SMTPPort,
			User:     c.SMTPUser,
			Password: c.SMTPPassword,
			From:     c.MailFrom,
		})
	}

	svc := services.NewAuthService(services.Deps{
		DB:      db,
		Tx:      dbx.NewTransactor(db, nil),
		Repos:   rm,
		Limiter: limiter,
		Mailer:  m,
		Issuer:  auth.NewIssuer([]byte(c.SecretKey), c.SessionTokenValidity),
		Hasher:  auth.BcryptHasher{Cost: auth.PasswordCost},
		Logger:  logger,
	}, c)

	router, err := httpapi.NewRouter(svc, db, logger, httpapi.Options{
		RequestTimeout: c.RequestTimeout,
		IPLimiter:      ipLimiter,
		TrustedProxies: c.TrustedProxies,
	})
	if err != nil {
		db.Close()
		return nil, err
	}

	return &App{
		config:  c,
		logger:  logger,
		db:      db,
		service: svc,
		http:    httpapi.NewServer(c.HTTPAddr, router, logger),
		health:  gs.NewHealthServer(c.GRPCHealthAddr, logger, db, healthInterval),
		janitor: janitor.New(c.JanitorInterval, logger, tasks...),
	}, nil
}

func sweepMemory(name string, m *ratelimit.Memory) janitor.Task {
	return janitor.Task{Name: name, Sweep: func(context.Context, time.Time) (int64, error) {
		return int64(m.Sweep()), nil
	}}
}

func (app *App) initSignalHandler(cancelFunc context.CancelFunc) {
	sigs := make(chan os.Signal, 1)
	signal.Notify(sigs, syscall.SIGINT, syscall.SIGTERM, syscall.SIGQUIT)

	go func() {
		<-sigs
		cancelFunc()
	}()
}

// Run blocks until a signal arrives or a listener fails, then stops every
// component and waits for pending mail before closing the database.
func (app *App) Run(ctx context.Context) {
	ctx, cancelFunc := context.WithCancel(ctx)
	defer cancelFunc()

	app.logger.Info(ctx, "Starting app...", "environment", app.config.Environment)

	app.initSignalHandler(cancelFunc)

	var wg sync.WaitGroup

	wg.Add(3)
	go func() {
		defer wg.Done()
		if err := app.http.Run(ctx); err != nil {
			app.logger.Error(ctx, "HTTP server failed", "error", err)
			cancelFunc()
		}
	}()
	go func() {
		defer wg.Done()
		if err := app.health.Run(ctx); err != nil {
			app.logger.Error(ctx, "gRPC health server failed", "error", err)
			cancelFunc()
		}
	}()
	go func() {
		defer wg.Done()
		app.janitor.Run(ctx)
	}()

	wg.Wait()

	app.service.Wait()
	if err := app.db.Close(); err != nil {
		app.logger.Error(ctx, "db close failed", "error", err)
	}
	app.logger.Info(ctx, "App stopped")
}
