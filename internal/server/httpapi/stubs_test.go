package httpapi

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/dmitrijs2005/taskkeeper/internal/common"
	"github.com/dmitrijs2005/taskkeeper/internal/logging"
	"github.com/dmitrijs2005/taskkeeper/internal/server/auth"
	"github.com/dmitrijs2005/taskkeeper/internal/server/config"
	"github.com/dmitrijs2005/taskkeeper/internal/server/models"
	"github.com/dmitrijs2005/taskkeeper/internal/server/services"
	"github.com/golang-jwt/jwt/v5"
)

const goodToken = "good-token"

var testUser = &models.User{ID: 7, FullName: "Test User", Email: "test@example.com"}

// stubAccounts answers Authenticate for goodToken and delegates the rest to
// optional funcs. An unset func fails the test.
type stubAccounts struct {
	t *testing.T

	register       func(fullName, email, password string) (*models.User, error)
	login          func(email, password string) (string, error)
	logout         func(claims *auth.Claims) error
	verifyEmail    func(token string) error
	forgotPassword func(email string) (string, error)
	resetPassword  func(token, newPassword string) error
	changePassword func(user *models.User, oldPassword, newPassword string) error
	updateProfile  func(user *models.User, fullName, bio *string) (*services.Profile, error)
	setPicture     func(user *models.User, contentType string, body io.Reader, size int64) (*services.Profile, error)
}

func (s *stubAccounts) missing(name string) error {
	s.t.Helper()
	s.t.Fatalf("unexpected call to %s", name)
	return nil
}

func (s *stubAccounts) Register(_ context.Context, fullName, email, password string) (*models.User, error) {
	if s.register == nil {
		return nil, s.missing("Register")
	}
	return s.register(fullName, email, password)
}

func (s *stubAccounts) Login(_ context.Context, email, password string) (string, error) {
	if s.login == nil {
		return "", s.missing("Login")
	}
	return s.login(email, password)
}

func (s *stubAccounts) Logout(_ context.Context, claims *auth.Claims) error {
	if s.logout == nil {
		return s.missing("Logout")
	}
	return s.logout(claims)
}

func (s *stubAccounts) Authenticate(_ context.Context, bearer string) (*models.User, *auth.Claims, error) {
	if bearer != goodToken {
		return nil, nil, fmt.Errorf("%w: %w", common.ErrorUnauthorized, common.ErrInvalidToken)
	}
	u := *testUser
	claims := &auth.Claims{RegisteredClaims: jwt.RegisteredClaims{Subject: u.Email, ID: "jti-1"}}
	return &u, claims, nil
}

func (s *stubAccounts) VerifyEmail(_ context.Context, token string) error {
	if s.verifyEmail == nil {
		return s.missing("VerifyEmail")
	}
	return s.verifyEmail(token)
}

func (s *stubAccounts) ForgotPassword(_ context.Context, email string) (string, error) {
	if s.forgotPassword == nil {
		return "", s.missing("ForgotPassword")
	}
	return s.forgotPassword(email)
}

func (s *stubAccounts) ResetPassword(_ context.Context, token, newPassword string) error {
	if s.resetPassword == nil {
		return s.missing("ResetPassword")
	}
	return s.resetPassword(token, newPassword)
}

func (s *stubAccounts) ChangePassword(_ context.Context, user *models.User, oldPassword, newPassword string) error {
	if s.changePassword == nil {
		return s.missing("ChangePassword")
	}
	return s.changePassword(user, oldPassword, newPassword)
}

func (s *stubAccounts) GetProfile(_ context.Context, user *models.User) (*services.Profile, error) {
	return &services.Profile{User: user, PictureURL: "/static/uploads/pic.png"}, nil
}

func (s *stubAccounts) UpdateProfile(_ context.Context, user *models.User, fullName, bio *string) (*services.Profile, error) {
	if s.updateProfile == nil {
		return nil, s.missing("UpdateProfile")
	}
	return s.updateProfile(user, fullName, bio)
}

func (s *stubAccounts) SetProfilePicture(_ context.Context, user *models.User, contentType string, body io.Reader, size int64) (*services.Profile, error) {
	if s.setPicture == nil {
		return nil, s.missing("SetProfilePicture")
	}
	return s.setPicture(user, contentType, body, size)
}

type stubTasks struct {
	t *testing.T

	list     func(userID int64, status string) ([]*models.Task, error)
	create   func(userID int64, task *models.Task) (*models.Task, error)
	update   func(userID, id int64, patch models.TaskPatch) (*models.Task, error)
	remove   func(userID, id int64) error
	markDone func(userID, id int64) (*models.Task, error)
}

func (s *stubTasks) missing(name string) error {
	s.t.Helper()
	s.t.Fatalf("unexpected call to %s", name)
	return nil
}

func (s *stubTasks) List(_ context.Context, userID int64, status string) ([]*models.Task, error) {
	if s.list == nil {
		return nil, s.missing("List")
	}
	return s.list(userID, status)
}

func (s *stubTasks) Create(_ context.Context, userID int64, task *models.Task) (*models.Task, error) {
	if s.create == nil {
		return nil, s.missing("Create")
	}
	return s.create(userID, task)
}

func (s *stubTasks) Update(_ context.Context, userID, id int64, patch models.TaskPatch) (*models.Task, error) {
	if s.update == nil {
		return nil, s.missing("Update")
	}
	return s.update(userID, id, patch)
}

func (s *stubTasks) Delete(_ context.Context, userID, id int64) error {
	if s.remove == nil {
		return s.missing("Delete")
	}
	return s.remove(userID, id)
}

func (s *stubTasks) MarkDone(_ context.Context, userID, id int64) (*models.Task, error) {
	if s.markDone == nil {
		return nil, s.missing("MarkDone")
	}
	return s.markDone(userID, id)
}

func testConfig(t *testing.T) *config.Config {
	t.Helper()
	cfg := &config.Config{}
	cfg.LoadDefaults()
	cfg.StaticDir = t.TempDir()
	cfg.UploadDir = ""
	cfg.RateLimitRPS = 0
	return cfg
}

type harness struct {
	accounts *stubAccounts
	tasks    *stubTasks
	cfg      *config.Config
	handler  http.Handler
}

func newHarness(t *testing.T, mutate ...func(c *config.Config)) *harness {
	t.Helper()
	h := &harness{
		accounts: &stubAccounts{t: t},
		tasks:    &stubTasks{t: t},
		cfg:      testConfig(t),
	}
	for _, fn := range mutate {
		fn(h.cfg)
	}
	h.handler = NewServer(h.cfg, h.accounts, h.tasks, logging.Nop()).Handler()
	return h
}

func (h *harness) do(method, target, contentType, body string, authed bool) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, target, strings.NewReader(body))
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	if authed {
		req.Header.Set("Authorization", "Bearer "+goodToken)
	}
	rec := httptest.NewRecorder()
	h.handler.ServeHTTP(rec, req)
	return rec
}

func (h *harness) json(method, target, body string, authed bool) *httptest.ResponseRecorder {
	return h.do(method, target, "application/json", body, authed)
}
