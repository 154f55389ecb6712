package httpapi

import (
	"errors"
	"net/http"
	"strings"

	"github.com/dmitrijs2005/taskkeeper/internal/common"
)

func (s *Server) handleRegister(w http.ResponseWriter, r *http.Request) error {
	var req registerRequest
	if err := decodeJSON(w, r, &req); err != nil {
		return err
	}

	user, err := s.accounts.Register(r.Context(), req.FullName, req.Email, req.Password)
	if err != nil {
		if errors.Is(err, common.ErrConflict) {
			return errBadRequest("Email already exists", err)
		}
		return err
	}

	s.logger.Info(r.Context(), "Registered", "user_id", user.ID)
	writeJSON(w, http.StatusOK, map[string]any{
		"message": "User created successfully",
		"user":    newUserResponse(user, ""),
	})
	return nil
}

// handleLogin takes an OAuth2 password form: username carries the email.
func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) error {
	r.Body = http.MaxBytesReader(w, r.Body, maxJSONBody)
	if err := r.ParseForm(); err != nil {
		return errUnprocessable("Invalid form body", err)
	}

	username := strings.TrimSpace(r.PostForm.Get("username"))
	password := r.PostForm.Get("password")
	if username == "" || password == "" {
		return errUnprocessable("username and password are required", nil)
	}

	token, err := s.accounts.Login(r.Context(), username, password)
	if err != nil {
		if errors.Is(err, common.ErrorUnauthorized) {
			return errUnauthorized(msgInvalidCredentials, err)
		}
		return err
	}

	writeJSON(w, http.StatusOK, tokenResponse{AccessToken: token, TokenType: "bearer"})
	return nil
}

func (s *Server) handleLogout(w http.ResponseWriter, r *http.Request) error {
	if err := s.accounts.Logout(r.Context(), currentClaims(r.Context())); err != nil {
		return err
	}
	writeMessage(w, "Logged out")
	return nil
}

// handleVerifyEmail answers with an HTML page since the link is opened from
// an email client.
func (s *Server) handleVerifyEmail(w http.ResponseWriter, r *http.Request) {
	err := s.accounts.VerifyEmail(r.Context(), r.URL.Query().Get("token"))
	switch {
	case err == nil:
		writePage(w, http.StatusOK, pageData{
			Title:    "Email verified",
			Text:     "Your email address has been verified. You can now log in.",
			LoginURL: s.config.FrontendLoginURL,
		})
	case errors.Is(err, common.ErrInvalidToken):
		writePage(w, http.StatusBadRequest, pageData{
			Title: "Verification failed",
			Text:  "This verification link is invalid or expired.",
		})
	default:
		s.logger.Error(r.Context(), "email verification failed", "error", err)
		writePage(w, http.StatusInternalServerError, pageData{
			Title: "Verification failed",
			Text:  "Something went wrong. Please try again later.",
		})
	}
}

func (s *Server) handleForgotPassword(w http.ResponseWriter, r *http.Request) error {
	var req forgotPasswordRequest
	if err := decodeJSON(w, r, &req); err != nil {
		return err
	}

	token, err := s.accounts.ForgotPassword(r.Context(), req.Email)
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			return errUnauthorized("user not found", err)
		}
		return err
	}

	resp := map[string]string{"msg": "Password reset link sent"}
	if !s.config.HideResetToken {
		resp["otp"] = token
	}
	writeJSON(w, http.StatusOK, resp)
	return nil
}

func (s *Server) handleResetPassword(w http.ResponseWriter, r *http.Request) error {
	var req resetPasswordRequest
	if err := decodeJSON(w, r, &req); err != nil {
		return err
	}

	if err := s.accounts.ResetPassword(r.Context(), req.Token, req.NewPassword); err != nil {
		return err
	}

	writeMessage(w, "Password has been reset successfully")
	return nil
}
