// Package httpapi exposes the account and task services over HTTP.
package httpapi

import (
	"context"
	"errors"
	"io"
	"net"
	"net/http"
	"time"

	"github.com/dmitrijs2005/taskkeeper/internal/logging"
	"github.com/dmitrijs2005/taskkeeper/internal/server/auth"
	"github.com/dmitrijs2005/taskkeeper/internal/server/config"
	"github.com/dmitrijs2005/taskkeeper/internal/server/models"
	"github.com/dmitrijs2005/taskkeeper/internal/server/services"
)

const (
	shutdownTimeout   = 15 * time.Second
	requestTimeout    = 60 * time.Second
	readHeaderTimeout = 10 * time.Second
)

// AccountService is the part of *services.UserService the handlers use.
type AccountService interface {
	Register(ctx context.Context, fullName, email, password string) (*models.User, error)
	Login(ctx context.Context, email, password string) (string, error)
	Logout(ctx context.Context, claims *auth.Claims) error
	Authenticate(ctx context.Context, bearer string) (*models.User, *auth.Claims, error)
	VerifyEmail(ctx context.Context, token string) error
	ForgotPassword(ctx context.Context, email string) (string, error)
	ResetPassword(ctx context.Context, token, newPassword string) error
	ChangePassword(ctx context.Context, user *models.User, oldPassword, newPassword string) error
	GetProfile(ctx context.Context, user *models.User) (*services.Profile, error)
	UpdateProfile(ctx context.Context, user *models.User, fullName, bio *string) (*services.Profile, error)
	SetProfilePicture(ctx context.Context, user *models.User, contentType string, body io.Reader, size int64) (*services.Profile, error)
}

// TaskService is the part of *services.TaskService the handlers use.
type TaskService interface {
	List(ctx context.Context, userID int64, status string) ([]*models.Task, error)
	Create(ctx context.Context, userID int64, task *models.Task) (*models.Task, error)
	Update(ctx context.Context, userID, id int64, patch models.TaskPatch) (*models.Task, error)
	Delete(ctx context.Context, userID, id int64) error
	MarkDone(ctx context.Context, userID, id int64) (*models.Task, error)
}

type Server struct {
	address  string
	config   *config.Config
	accounts AccountService
	tasks    TaskService
	limiter  *ipLimiter
	logger   logging.Logger
}

func NewServer(cfg *config.Config, accounts AccountService, tasks TaskService, l logging.Logger) *Server {
	s := &Server{
		address:  cfg.EndpointAddrHTTP,
		config:   cfg,
		accounts: accounts,
		tasks:    tasks,
		logger:   l.With("module", "http_server"),
	}
	if cfg.RateLimitRPS > 0 {
		s.limiter = newIPLimiter(cfg.RateLimitRPS, cfg.RateLimitBurst)
	}
	return s
}

// Run listens on the configured address and serves until ctx is cancelled.
func (s *Server) Run(ctx context.Context) error {
	ln, err := net.Listen("tcp", s.address)
	if err != nil {
		return err
	}
	return s.Serve(ctx, ln)
}

// Serve accepts connections on ln until ctx is cancelled, then shuts down
// gracefully, giving in-flight requests up to 15 seconds.
func (s *Server) Serve(ctx context.Context, ln net.Listener) error {
	srv := &http.Server{
		Handler:           s.Handler(),
		ReadHeaderTimeout: readHeaderTimeout,
	}

	if s.limiter != nil {
		go s.limiter.RunCleanup(ctx, time.Minute)
	}

	stopped := make(chan error, 1)
	go func() {
		<-ctx.Done()
		s.logger.Info(ctx, "Stopping HTTP server...")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		stopped <- srv.Shutdown(shutdownCtx)
	}()

	s.logger.Info(ctx, "Starting HTTP server", "address", ln.Addr().String())

	if err := srv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return <-stopped
}
