// Package server wires the taskkeeper components together and runs them
// until the process is asked to stop.
package server

import (
	"context"
	"database/sql"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/dmitrijs2005/taskkeeper/internal/dbx"
	"github.com/dmitrijs2005/taskkeeper/internal/logging"
	"github.com/dmitrijs2005/taskkeeper/internal/server/auth"
	"github.com/dmitrijs2005/taskkeeper/internal/server/config"
	"github.com/dmitrijs2005/taskkeeper/internal/server/httpapi"
	"github.com/dmitrijs2005/taskkeeper/internal/server/mail"
	"github.com/dmitrijs2005/taskkeeper/internal/server/repositories/repomanager"
	"github.com/dmitrijs2005/taskkeeper/internal/server/services"
	"github.com/dmitrijs2005/taskkeeper/internal/server/storage"
	"github.com/redis/go-redis/v9"
)

const (
	revocationCleanupInterval = 5 * time.Minute
	tokenPurgeInterval        = time.Hour
	drainTimeout              = 15 * time.Second
)

type App struct {
	config      *config.Config
	logger      logging.Logger
	db          *sql.DB
	redis       *redis.Client
	memRevoker  *auth.MemoryRevoker
	dispatcher  *mail.Dispatcher
	userService *services.UserService
	httpServer  *httpapi.Server
}

func NewApp(ctx context.Context, c *config.Config) (*App, error) {
	logger := logging.NewJSONLogger(os.Stdout, c.LogLevel)

	if err := c.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	app := &App{config: c, logger: logger}
	ok := false
	defer func() {
		if !ok {
			app.closeResources()
		}
	}()

	db, err := dbx.Open(ctx, "pgx", c.DatabaseDSN, dbx.DefaultPoolOptions)
	if err != nil {
		return nil, fmt.Errorf("db init error: %w", err)
	}
	app.db = db

	rm := repomanager.NewPostgresRepositoryManager()
	if err := rm.RunMigrations(ctx, db); err != nil {
		return nil, fmt.Errorf("migrations error: %w", err)
	}

	issuer, err := auth.NewTokenIssuer([]byte(c.SecretKey), c.SigningAlgorithm, c.AccessTokenValidityDuration)
	if err != nil {
		return nil, err
	}

	revoker, err := app.newRevoker(ctx)
	if err != nil {
		return nil, err
	}

	pictures, err := newObjectStore(ctx, c)
	if err != nil {
		return nil, fmt.Errorf("storage init error: %w", err)
	}

	app.dispatcher = mail.NewDispatcher(newMailSender(c, logger), logger,
		c.MailQueueSize, c.MailWorkers, c.MailSendTimeout)

	app.userService = services.NewUserService(db, rm, c, issuer, revoker, app.dispatcher, pictures, logger)
	taskService := services.NewTaskService(db, rm, logger)
	app.httpServer = httpapi.NewServer(c, app.userService, taskService, logger)

	ok = true
	return app, nil
}

// newRevoker uses Redis when configured so revocations survive restarts and
// are shared between replicas.
func (app *App) newRevoker(ctx context.Context) (auth.Revoker, error) {
	if app.config.RedisAddr == "" {
		app.memRevoker = auth.NewMemoryRevoker()
		return app.memRevoker, nil
	}

	client := redis.NewClient(&redis.Options{
		Addr:     app.config.RedisAddr,
		Password: app.config.RedisPassword,
		DB:       app.config.RedisDB,
	})
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("redis init error: %w", err)
	}
	app.redis = client
	return auth.NewRedisRevoker(client), nil
}

func newMailSender(c *config.Config, logger logging.Logger) mail.Sender {
	switch c.MailProvider {
	case config.MailProviderAPI:
		return mail.NewAPISender(c.MailAPIEndpoint, c.MailAPIKey, &http.Client{Timeout: c.MailSendTimeout})
	case config.MailProviderSMTP:
		return mail.NewSMTPSender(c.SMTPHost, c.SMTPPort, c.SMTPUser, c.SMTPPassword)
	default:
		return mail.NewLogSender(logger)
	}
}

func newObjectStore(ctx context.Context, c *config.Config) (storage.ObjectStore, error) {
	if c.StorageBackend == config.StorageBackendS3 {
		return storage.NewS3Store(ctx, storage.S3Config{
			Region:       c.S3Region,
			AccessKey:    c.S3RootUser,
			SecretKey:    c.S3RootPassword,
			Bucket:       c.S3Bucket,
			BaseEndpoint: c.S3BaseEndpoint,
		})
	}
	return storage.NewLocalStore(c.UploadDir, storage.LocalURLPrefix)
}

func (app *App) initSignalHandler(cancelFunc context.CancelFunc) {
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

func (app *App) purgeExpiredTokens(ctx context.Context) {
	ticker := time.NewTicker(tokenPurgeInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			n, err := app.userService.PurgeExpiredTokens(ctx)
			if err != nil {
				app.logger.Error(ctx, "token purge failed", "error", err)
				continue
			}
			app.logger.Debug(ctx, "expired tokens purged", "count", n)
		}
	}
}

// Run blocks until a termination signal arrives or the HTTP server fails,
// then drains queued email and releases connections.
func (app *App) Run(ctx context.Context) {
	ctx, cancelFunc := context.WithCancel(ctx)
	defer cancelFunc()

	app.logger.Info(ctx, "Starting app...")

	app.initSignalHandler(cancelFunc)

	var wg sync.WaitGroup

	wg.Add(1)
	go func() {
		defer wg.Done()
		app.startHTTPServer(ctx, cancelFunc)
	}()

	wg.Add(1)
	go func() {
		defer wg.Done()
		app.purgeExpiredTokens(ctx)
	}()

	if app.memRevoker != nil {
		wg.Add(1)
		go func() {
			defer wg.Done()
			app.memRevoker.RunCleanup(ctx, revocationCleanupInterval)
		}()
	}

	wg.Wait()

	app.logger.Info(context.Background(), "Stopping app...")
	app.closeResources()
}

func (app *App) closeResources() {
	ctx := context.Background()

	if app.dispatcher != nil {
		drainCtx, cancel := context.WithTimeout(ctx, drainTimeout)
		if err := app.dispatcher.Close(drainCtx); err != nil {
			app.logger.Error(ctx, "mail queue not drained", "error", err)
		}
		cancel()
	}
	if app.redis != nil {
		_ = app.redis.Close()
	}
	if app.db != nil {
		_ = app.db.Close()
	}
}
