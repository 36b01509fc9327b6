// Package auth signs users in and out against the TracerX auth API and
// records the result in the session manager.
package auth

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/nhle/tracerx/internal/api"
	"github.com/nhle/tracerx/internal/logging"
	"github.com/nhle/tracerx/internal/model"
	"github.com/nhle/tracerx/internal/session"
)

// Fallback messages when the server explains nothing.
const (
	msgLoginFailed        = "Login failed"
	msgRegistrationFailed = "Registration failed"
	msgProfileFailed      = "Failed fetching profile"
	msgUpdateFailed       = "Failed updating profile"
	msgPasswordFailed     = "Failed changing password"
	msgNotAuthenticated   = "Not authenticated"
	msgFillAllFields      = "Please fill in all fields"
	msgPasswordTooShort   = "Password must be at least 6 characters long"
)

// MinPasswordLength is the shortest password accepted at registration.
const MinPasswordLength = 6

// Service performs authentication calls and owns session transitions.
type Service struct {
	client   *api.Client
	sessions *session.Manager
	logger   *logging.Logger
}

// NewService creates an auth service for the auth API at baseURL.
func NewService(
	baseURL string,
	sessions *session.Manager,
	timeout time.Duration,
	logger *logging.Logger,
) *Service {
	logger = logging.OrDiscard(logger).WithComponent(logging.ComponentAuth)
	return &Service{
		client:   api.NewClient(baseURL, sessions, timeout, logger),
		sessions: sessions,
		logger:   logger,
	}
}

// ProfileUpdate is a partial profile change; empty fields are not sent.
type ProfileUpdate struct {
	Name  string `json:"name,omitempty"`
	Email string `json:"email,omitempty"`
}

// ValidateLogin checks login input before any network call.
func ValidateLogin(email, password string) error {
	if strings.TrimSpace(email) == "" || strings.TrimSpace(password) == "" {
		return model.NewValidationError("email", msgFillAllFields)
	}
	return nil
}

// ValidateRegistration checks registration input before any network call.
func ValidateRegistration(name, email, password string) error {
	if strings.TrimSpace(name) == "" || strings.TrimSpace(email) == "" || strings.TrimSpace(password) == "" {
		return model.NewValidationError("name", msgFillAllFields)
	}
	if len(password) < MinPasswordLength {
		return model.NewValidationError("password", msgPasswordTooShort)
	}
	return nil
}

// Login authenticates and persists the new session.
func (s *Service) Login(ctx context.Context, email, password string) (*model.User, error) {
	if err := ValidateLogin(email, password); err != nil {
		return nil, err
	}
	body := map[string]string{"email": strings.TrimSpace(email), "password": password}
	return s.startSession(ctx, "/login", body, msgLoginFailed)
}

// Register creates an account and persists the new session.
func (s *Service) Register(ctx context.Context, name, email, password string) (*model.User, error) {
	if err := ValidateRegistration(name, email, password); err != nil {
		return nil, err
	}
	body := map[string]string{
		"name":     strings.TrimSpace(name),
		"email":    strings.TrimSpace(email),
		"password": password,
	}
	return s.startSession(ctx, "/register", body, msgRegistrationFailed)
}

func (s *Service) startSession(
	ctx context.Context,
	path string,
	body map[string]string,
	fallback string,
) (*model.User, error) {
	raw, err := s.client.Post(ctx, path, body)
	if err != nil {
		s.logger.Warn("authentication failed", logging.FieldPath, path, logging.FieldError, err)
		return nil, withFallback(err, fallback)
	}
	token, user, err := api.DecodeSession(path, raw)
	if err != nil {
		s.logger.Warn("unexpected auth response", logging.FieldPath, path, logging.FieldError, err)
		return nil, withFallback(err, fallback)
	}
	if err := s.sessions.Save(token, *user); err != nil {
		return nil, err
	}
	return user, nil
}

// Logout clears the persisted session.
func (s *Service) Logout() error {
	return s.sessions.Clear()
}

// Me fetches the signed-in user's profile and refreshes the stored copy.
func (s *Service) Me(ctx context.Context) (*model.User, error) {
	if err := s.requireToken("/me"); err != nil {
		return nil, err
	}
	raw, err := s.client.Get(ctx, "/me")
	if err != nil {
		return nil, withFallback(err, msgProfileFailed)
	}
	user, err := api.DecodeUser("/me", raw)
	if err != nil {
		return nil, withFallback(err, msgProfileFailed)
	}
	if err := s.sessions.SetUser(*user); err != nil {
		s.logger.Warn("refreshing stored user", logging.FieldError, err)
	}
	return user, nil
}

// UpdateProfile changes the user's name or email.
func (s *Service) UpdateProfile(ctx context.Context, u ProfileUpdate) (*model.User, error) {
	if err := s.requireToken("/profile"); err != nil {
		return nil, err
	}
	raw, err := s.client.Put(ctx, "/profile", u)
	if err != nil {
		return nil, withFallback(err, msgUpdateFailed)
	}
	user, err := api.DecodeUser("/profile", raw)
	if err != nil {
		return nil, withFallback(err, msgUpdateFailed)
	}
	if err := s.sessions.SetUser(*user); err != nil {
		s.logger.Warn("refreshing stored user", logging.FieldError, err)
	}
	return user, nil
}

// ChangePassword replaces the user's password.
func (s *Service) ChangePassword(ctx context.Context, current, next string) error {
	if strings.TrimSpace(current) == "" || strings.TrimSpace(next) == "" {
		return model.NewValidationError("password", msgFillAllFields)
	}
	if len(next) < MinPasswordLength {
		return model.NewValidationError("password", msgPasswordTooShort)
	}
	if err := s.requireToken("/change-password"); err != nil {
		return err
	}
	body := map[string]string{"currentPassword": current, "newPassword": next}
	if _, err := s.client.Put(ctx, "/change-password", body); err != nil {
		return withFallback(err, msgPasswordFailed)
	}
	return nil
}

func (s *Service) requireToken(path string) error {
	if s.sessions.Token() != "" {
		return nil
	}
	return &api.APIError{
		Status:  http.StatusUnauthorized,
		Message: msgNotAuthenticated,
		Path:    path,
	}
}

// withFallback substitutes the operation-specific message when the
// server sent none.
func withFallback(err error, fallback string) error {
	apiErr, ok := api.AsAPIError(err)
	if !ok || apiErr.Message != "" {
		return err
	}
	out := *apiErr
	out.Message = fallback
	return &out
}
