// Package services contains server-side business logic. This file implements
// UserService: registration, login and logout, email verification, password
// reset and change, and the profile endpoints.
package services

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"io"
	"net/url"
	"strings"
	"time"

	"github.com/dmitrijs2005/taskkeeper/internal/common"
	"github.com/dmitrijs2005/taskkeeper/internal/cryptox"
	"github.com/dmitrijs2005/taskkeeper/internal/dbx"
	"github.com/dmitrijs2005/taskkeeper/internal/logging"
	"github.com/dmitrijs2005/taskkeeper/internal/server/auth"
	"github.com/dmitrijs2005/taskkeeper/internal/server/config"
	"github.com/dmitrijs2005/taskkeeper/internal/server/mail"
	"github.com/dmitrijs2005/taskkeeper/internal/server/models"
	"github.com/dmitrijs2005/taskkeeper/internal/server/repositories/repomanager"
	"github.com/dmitrijs2005/taskkeeper/internal/server/storage"
)

// accountTokenBytes is the entropy of emailed tokens (hex doubles it).
const accountTokenBytes = 32

// Mailer queues outgoing email. *mail.Dispatcher satisfies it.
type Mailer interface {
	Enqueue(ctx context.Context, msg mail.Message) error
}

// Profile is a user together with a fetchable picture URL.
type Profile struct {
	User       *models.User
	PictureURL string
}

type UserService struct {
	db          *sql.DB
	repomanager repomanager.RepositoryManager
	config      *config.Config
	hasher      *cryptox.Hasher
	tokens      *auth.TokenIssuer
	revoker     auth.Revoker
	mailer      Mailer
	pictures    storage.ObjectStore
	logger      logging.Logger
	now         func() time.Time
}

func NewUserService(db *sql.DB, m repomanager.RepositoryManager, cfg *config.Config,
	tokens *auth.TokenIssuer, revoker auth.Revoker, mailer Mailer,
	pictures storage.ObjectStore, logger logging.Logger) *UserService {
	return &UserService{
		db:          db,
		repomanager: m,
		config:      cfg,
		hasher:      cryptox.NewHasher(cfg.BcryptCost, cfg.PasswordMinLength),
		tokens:      tokens,
		revoker:     revoker,
		mailer:      mailer,
		pictures:    pictures,
		logger:      logger.With("module", "users"),
		now:         time.Now,
	}
}

// Register creates an unverified account and emails a verification link.
// The user row and its verification token are written in one transaction.
func (s *UserService) Register(ctx context.Context, fullName, email, password string) (*models.User, error) {
	fullName = strings.TrimSpace(fullName)
	email = normalizeEmail(email)

	if fullName == "" || email == "" {
		return nil, fmt.Errorf("%w: full name and email are required", common.ErrorValidation)
	}
	if err := s.hasher.Validate(password); err != nil {
		return nil, err
	}

	_, err := s.repomanager.Users(s.db).GetByEmail(ctx, email)
	switch {
	case err == nil:
		return nil, common.ErrConflict
	case !errors.Is(err, common.ErrorNotFound):
		return nil, fmt.Errorf("error checking email: %w", err)
	}

	hash, err := s.hasher.Hash(password)
	if err != nil {
		return nil, err
	}

	token, err := common.MakeRandHexString(accountTokenBytes)
	if err != nil {
		return nil, common.ErrorInternal
	}

	user := &models.User{FullName: fullName, Email: email, PasswordHash: hash}

	err = dbx.WithTx(ctx, s.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		created, err := s.repomanager.Users(tx).Create(ctx, user)
		if err != nil {
			return err
		}
		user = created

		return s.repomanager.AccountTokens(tx).Replace(ctx, &models.AccountToken{
			UserID:    user.ID,
			Purpose:   models.PurposeVerifyEmail,
			TokenHash: common.HashToken(token),
			ExpiresAt: s.now().Add(s.config.VerificationTokenValidityDuration),
		})
	})
	if err != nil {
		if errors.Is(err, common.ErrConflict) {
			return nil, common.ErrConflict
		}
		return nil, fmt.Errorf("error creating user: %w", err)
	}

	s.logger.Info(ctx, "user registered", "user_id", user.ID)

	msg, err := mail.VerificationMessage(s.config.MailFrom, user.Email, user.FullName,
		s.link("/verify-email", token), s.config.VerificationTokenValidityDuration.String())
	s.enqueue(ctx, msg, err)

	return user, nil
}

// Login checks credentials and issues a bearer token. Unknown email and
// wrong password are indistinguishable to the caller.
func (s *UserService) Login(ctx context.Context, email, password string) (string, error) {
	user, err := s.repomanager.Users(s.db).GetByEmail(ctx, normalizeEmail(email))
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			return "", common.ErrorUnauthorized
		}
		return "", fmt.Errorf("%w: %v", common.ErrorInternal, err)
	}

	if !s.hasher.Check(password, user.PasswordHash) {
		return "", common.ErrorUnauthorized
	}

	if s.config.RequireVerifiedEmail && !user.Verified() {
		return "", fmt.Errorf("%w: email not verified", common.ErrForbidden)
	}

	token, _, err := s.tokens.Issue(user.Email)
	if err != nil {
		return "", fmt.Errorf("%w: %v", common.ErrorInternal, err)
	}
	return token, nil
}

// Logout revokes the presented token until its natural expiry.
func (s *UserService) Logout(ctx context.Context, claims *auth.Claims) error {
	if claims == nil || claims.ExpiresAt == nil {
		return common.ErrorUnauthorized
	}
	if err := s.revoker.Revoke(ctx, claims.ID, claims.ExpiresAt.Time); err != nil {
		return fmt.Errorf("error revoking token: %w", err)
	}
	return nil
}

// Authenticate resolves a bearer token to its user. Every failure wraps
// common.ErrorUnauthorized.
func (s *UserService) Authenticate(ctx context.Context, bearer string) (*models.User, *auth.Claims, error) {
	claims, err := s.tokens.Verify(bearer)
	if err != nil {
		return nil, nil, fmt.Errorf("%w: %w", common.ErrorUnauthorized, err)
	}

	revoked, err := s.revoker.IsRevoked(ctx, claims.ID)
	if err != nil {
		return nil, nil, fmt.Errorf("error checking revocation: %w", err)
	}
	if revoked {
		return nil, nil, fmt.Errorf("%w: %w", common.ErrorUnauthorized, common.ErrTokenRevoked)
	}

	user, err := s.repomanager.Users(s.db).GetByEmail(ctx, claims.Subject)
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			return nil, nil, fmt.Errorf("%w: user not found", common.ErrorUnauthorized)
		}
		return nil, nil, fmt.Errorf("error loading user: %w", err)
	}

	return user, claims, nil
}

// VerifyEmail consumes a verification token and marks the address
// verified. Unknown, used and expired tokens all yield common.ErrInvalidToken.
func (s *UserService) VerifyEmail(ctx context.Context, token string) error {
	if token == "" {
		return common.ErrInvalidToken
	}

	now := s.now()
	var userID int64

	err := dbx.WithTx(ctx, s.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		id, err := s.consume(ctx, tx, models.PurposeVerifyEmail, token, now)
		if err != nil {
			return err
		}
		userID = id
		return s.repomanager.Users(tx).MarkEmailVerified(ctx, id, now)
	})
	if err != nil {
		if errors.Is(err, common.ErrInvalidToken) {
			return common.ErrInvalidToken
		}
		return fmt.Errorf("error verifying email: %w", err)
	}

	s.logger.Info(ctx, "email verified", "user_id", userID)
	return nil
}

// ForgotPassword replaces any live reset token of the user with a fresh one,
// emails the reset link and returns the token.
func (s *UserService) ForgotPassword(ctx context.Context, email string) (string, error) {
	user, err := s.repomanager.Users(s.db).GetByEmail(ctx, normalizeEmail(email))
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			return "", common.ErrorNotFound
		}
		return "", fmt.Errorf("error loading user: %w", err)
	}

	token, err := common.MakeRandHexString(accountTokenBytes)
	if err != nil {
		return "", common.ErrorInternal
	}

	err = dbx.WithTx(ctx, s.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		return s.repomanager.AccountTokens(tx).Replace(ctx, &models.AccountToken{
			UserID:    user.ID,
			Purpose:   models.PurposeResetPassword,
			TokenHash: common.HashToken(token),
			ExpiresAt: s.now().Add(s.config.ResetTokenValidityDuration),
		})
	})
	if err != nil {
		return "", fmt.Errorf("error storing reset token: %w", err)
	}

	msg, err := mail.ResetMessage(s.config.MailFrom, user.Email,
		s.link("/reset-password", token), s.config.ResetTokenValidityDuration.String())
	s.enqueue(ctx, msg, err)

	return token, nil
}

// ResetPassword sets a new password for the owner of a live reset token.
// The policy is checked first so a weak password does not burn the token.
func (s *UserService) ResetPassword(ctx context.Context, token, newPassword string) error {
	if err := s.hasher.Validate(newPassword); err != nil {
		return err
	}
	if token == "" {
		return common.ErrInvalidToken
	}

	hash, err := s.hasher.Hash(newPassword)
	if err != nil {
		return err
	}

	now := s.now()
	var userID int64

	err = dbx.WithTx(ctx, s.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		id, err := s.consume(ctx, tx, models.PurposeResetPassword, token, now)
		if err != nil {
			return err
		}
		userID = id
		return s.repomanager.Users(tx).UpdatePassword(ctx, id, hash)
	})
	if err != nil {
		if errors.Is(err, common.ErrInvalidToken) {
			return common.ErrInvalidToken
		}
		return fmt.Errorf("error resetting password: %w", err)
	}

	s.logger.Info(ctx, "password reset", "user_id", userID)
	return nil
}

// ChangePassword replaces the password of an authenticated user after
// checking the current one.
func (s *UserService) ChangePassword(ctx context.Context, user *models.User, oldPassword, newPassword string) error {
	if !s.hasher.Check(oldPassword, user.PasswordHash) {
		return fmt.Errorf("%w: incorrect old password", common.ErrBadRequest)
	}
	if err := s.hasher.Validate(newPassword); err != nil {
		return err
	}

	hash, err := s.hasher.Hash(newPassword)
	if err != nil {
		return err
	}

	if err := s.repomanager.Users(s.db).UpdatePassword(ctx, user.ID, hash); err != nil {
		return fmt.Errorf("error updating password: %w", err)
	}
	user.PasswordHash = hash

	s.logger.Info(ctx, "password changed", "user_id", user.ID)
	return nil
}

func (s *UserService) GetProfile(ctx context.Context, user *models.User) (*Profile, error) {
	p := &Profile{User: user}
	if user.ProfilePic == "" {
		return p, nil
	}

	u, err := s.pictures.URL(ctx, user.ProfilePic)
	if err != nil {
		return nil, fmt.Errorf("error resolving picture url: %w", err)
	}
	p.PictureURL = u
	return p, nil
}

// UpdateProfile changes the supplied fields; nil leaves a field as is.
func (s *UserService) UpdateProfile(ctx context.Context, user *models.User, fullName, bio *string) (*Profile, error) {
	name := user.FullName
	if fullName != nil {
		name = strings.TrimSpace(*fullName)
		if name == "" {
			return nil, fmt.Errorf("%w: full name must not be empty", common.ErrorValidation)
		}
	}
	newBio := user.Bio
	if bio != nil {
		newBio = *bio
	}

	updated, err := s.repomanager.Users(s.db).UpdateProfile(ctx, user.ID, name, newBio)
	if err != nil {
		return nil, fmt.Errorf("error updating profile: %w", err)
	}
	return s.GetProfile(ctx, updated)
}

// SetProfilePicture stores an uploaded image and points the profile at it.
func (s *UserService) SetProfilePicture(ctx context.Context, user *models.User, contentType string, body io.Reader, size int64) (*Profile, error) {
	ext, ok := storage.PictureExtension(contentType)
	if !ok {
		return nil, fmt.Errorf("%w: unsupported image type %q", common.ErrorValidation, contentType)
	}
	if size > storage.MaxPictureSize {
		return nil, fmt.Errorf("%w: image larger than %d bytes", common.ErrorValidation, storage.MaxPictureSize)
	}

	key := storage.NewPictureKey(user.ID, ext)
	if err := s.pictures.Put(ctx, key, contentType, body, size); err != nil {
		return nil, fmt.Errorf("error storing picture: %w", err)
	}

	if err := s.repomanager.Users(s.db).SetProfilePic(ctx, user.ID, key); err != nil {
		return nil, fmt.Errorf("error saving picture: %w", err)
	}
	user.ProfilePic = key

	return s.GetProfile(ctx, user)
}

// PurgeExpiredTokens deletes account tokens that can no longer be used.
func (s *UserService) PurgeExpiredTokens(ctx context.Context) (int64, error) {
	n, err := s.repomanager.AccountTokens(s.db).DeleteExpired(ctx, s.now())
	if err != nil {
		return 0, fmt.Errorf("error purging tokens: %w", err)
	}
	return n, nil
}

func (s *UserService) consume(ctx context.Context, tx dbx.DBTX, purpose models.TokenPurpose, token string, now time.Time) (int64, error) {
	return s.repomanager.AccountTokens(tx).Consume(ctx, purpose, common.HashToken(token), now)
}

func (s *UserService) link(path, token string) string {
	return strings.TrimRight(s.config.PublicBaseURL, "/") + path + "?token=" + url.QueryEscape(token)
}

// enqueue hands msg to the mailer. Failures are logged only: the account
// operation has already succeeded.
func (s *UserService) enqueue(ctx context.Context, msg mail.Message, renderErr error) {
	if renderErr != nil {
		s.logger.Error(ctx, "failed to render email", "error", renderErr)
		return
	}
	if err := s.mailer.Enqueue(ctx, msg); err != nil {
		s.logger.Error(ctx, "failed to queue email", "to", msg.To, "error", err)
	}
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
