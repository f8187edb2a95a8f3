// Package server wires the messagely components together: configuration,
// logging, PostgreSQL, Redis, the SMS provider, the HTTP API and the gRPC
// health endpoint. It also handles graceful shutdown on OS signals.
package server

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"os/signal"
	"sync"
	"syscall"

	"github.com/dmitrijs2005/messagely/internal/logging"
	"github.com/dmitrijs2005/messagely/internal/server/config"
	"github.com/dmitrijs2005/messagely/internal/server/httpapi"
	"github.com/dmitrijs2005/messagely/internal/server/repositories/repomanager"
	"github.com/dmitrijs2005/messagely/internal/server/services"
	"github.com/dmitrijs2005/messagely/internal/server/sms"
	"github.com/redis/go-redis/v9"

	gs "github.com/dmitrijs2005/messagely/internal/server/grpc"
)

type App struct {
	config      *config.Config
	logger      logging.Logger
	db          *sql.DB
	rdb         *redis.Client
	repomanager repomanager.RepositoryManager
	messages    *services.MessageService
	httpServer  *httpapi.HTTPServer
	grpcServer  *gs.GRPCServer
}

func NewApp(c *config.Config) (*App, error) {

	logger, err := logging.New(c.LogFormat, c.LogLevel)
	if err != nil {
		return nil, fmt.Errorf("logger init error: %w", err)
	}

	db, err := sql.Open("pgx", c.DatabaseDSN)
	if err != nil {
		return nil, fmt.Errorf("db init error: %w", err)
	}

	rm, err := repomanager.NewPostgresRepositoryManager(db)
	if err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("db init error: %w", err)
	}

	var rdb *redis.Client
	var codes redis.Cmdable
	if !useTwilioVerify(c) {
		if c.VerificationMode == config.VerificationModeTwilio {
			logger.Warn(context.Background(), "twilio verify is not configured, falling back to local codes")
		}
		rdb = redis.NewClient(&redis.Options{
			Addr:     c.RedisAddr,
			Password: c.RedisPassword,
			DB:       0,
		})
		codes = rdb
	}

	sender, verifier := newSMS(c, logger, codes)

	us := services.NewUserService(db, rm, c)
	ms := services.NewMessageService(db, rm, sender, logger.With("module", "messages"))
	rs := services.NewPasswordResetService(us, verifier, logger.With("module", "password_reset"))

	h := httpapi.NewHandler(us, ms, rs, db, logger.With("module", "http_api"))
	router := httpapi.NewRouter(h, []byte(c.SecretKey), logger.With("module", "http_api"))

	app := &App{
		config:      c,
		logger:      logger,
		db:          db,
		rdb:         rdb,
		repomanager: rm,
		messages:    ms,
		httpServer:  httpapi.NewHTTPServer(c.EndpointAddrHTTP, router, logger),
	}
	if c.EndpointAddrGRPC != "" {
		app.grpcServer = gs.NewGRPCServer(c.EndpointAddrGRPC, logger)
	}

	return app, nil
}

func useTwilioVerify(c *config.Config) bool {
	return c.VerificationMode == config.VerificationModeTwilio && c.SMSEnabled() && c.TwilioVerifyServiceSID != ""
}

// newSMS picks the SMS sender and the phone verifier. Without provider
// credentials messages are only logged. Verification goes through Twilio
// Verify when that mode is selected and configured, otherwise codes are kept
// in rdb and delivered with the sender.
func newSMS(c *config.Config, logger logging.Logger, rdb redis.Cmdable) (sms.Sender, sms.Verifier) {
	smsLogger := logger.With("module", "sms")

	if !c.SMSEnabled() {
		sender := sms.NewLogSender(smsLogger)
		return sender, sms.NewCodeVerifier(rdb, sender, smsLogger, c.VerificationCodeTTL, c.VerificationCooldown)
	}

	twilio := sms.NewTwilioClient(c, smsLogger)
	if useTwilioVerify(c) {
		return twilio, twilio
	}
	return twilio, sms.NewCodeVerifier(rdb, twilio, smsLogger, c.VerificationCodeTTL, c.VerificationCooldown)
}

func (app *App) initSignalHandler(cancelFunc context.CancelFunc) {
	// Channel to catch OS signals.
	sigs := make(chan os.Signal, 1)
	signal.Notify(sigs, syscall.SIGINT, syscall.SIGTERM, syscall.SIGQUIT)

	go func() {
		<-sigs
		cancelFunc()
	}()
}

func (app *App) startHTTPServer(ctx context.Context, cancelFunc context.CancelFunc) {
	if err := app.httpServer.Run(ctx); err != nil {
		app.logger.Error(ctx, err.Error())
		cancelFunc()
	}
}

func (app *App) startGRPCServer(ctx context.Context, cancelFunc context.CancelFunc) {
	if err := app.grpcServer.Run(ctx); err != nil {
		app.logger.Error(ctx, err.Error())
		cancelFunc()
	}
}

func (app *App) Run(ctx context.Context) error {

	ctx, cancelFunc := context.WithCancel(ctx)
	defer cancelFunc()

	app.logger.Info(ctx, "Starting app...")

	defer app.close(ctx)

	if err := app.repomanager.RunMigrations(ctx, app.db); err != nil {
		return fmt.Errorf("migrations error: %w", err)
	}

	app.initSignalHandler(cancelFunc)

	var wg sync.WaitGroup

	wg.Add(1)
	go func() {
		defer wg.Done()
		app.startHTTPServer(ctx, cancelFunc)
	}()

	if app.grpcServer != nil {
		wg.Add(1)
		go func() {
			defer wg.Done()
			app.startGRPCServer(ctx, cancelFunc)
		}()
	}

	wg.Wait()

	// pending SMS notifications are bounded by their own timeout
	app.messages.Wait()

	app.logger.Info(ctx, "App stopped")
	return nil
}

func (app *App) close(ctx context.Context) {
	if err := app.db.Close(); err != nil {
		app.logger.Warn(ctx, "db close", "error", err)
	}
	if app.rdb != nil {
		if err := app.rdb.Close(); err != nil {
			app.logger.Warn(ctx, "redis close", "error", err)
		}
	}
	if s, ok := app.logger.(interface{ Sync() error }); ok {
		_ = s.Sync()
	}
}
