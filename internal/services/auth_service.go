package services

import (
	"context"
	"errors"
	"strings"

	"github.com/sirupsen/logrus"

	"github.com/Wikid82/ballot/backend/internal/credentials"
	"github.com/Wikid82/ballot/backend/internal/logger"
	"github.com/Wikid82/ballot/backend/internal/metrics"
	"github.com/Wikid82/ballot/backend/internal/util"
)

// LoginResult is returned by a successful login.
type LoginResult struct {
	Token string           `json:"token"`
	User  credentials.User `json:"user"`
}

// AuthService registers and logs in users against the credential store and
// issues bearer tokens.
type AuthService struct {
	provider credentials.Provider
	tokens   *TokenService
}

func NewAuthService(provider credentials.Provider, tokens *TokenService) *AuthService {
	return &AuthService{provider: provider, tokens: tokens}
}

// Register creates a voter account.
func (s *AuthService) Register(ctx context.Context, email, password, name string) (*credentials.User, error) {
	email = strings.TrimSpace(email)
	name = strings.TrimSpace(name)
	if email == "" || password == "" || name == "" {
		return nil, Validation("Missing required fields")
	}

	user, err := s.provider.SignUp(ctx, email, password, name)
	if err != nil {
		if errors.Is(err, credentials.ErrEmailTaken) || errors.Is(err, credentials.ErrWeakPassword) || errors.Is(err, credentials.ErrPasswordTooLong) {
			return nil, newError(KindValidation, err.Error(), err)
		}
		return nil, Upstream("sign up", err)
	}

	logger.WithFields(logrus.Fields{"user_id": user.ID, "email": util.MaskEmail(user.Email)}).Info("user registered")
	return user, nil
}

// Login verifies the password and returns a token whose admin claim is
// taken from the account metadata at this moment.
func (s *AuthService) Login(ctx context.Context, email, password string) (*LoginResult, error) {
	if strings.TrimSpace(email) == "" || password == "" {
		return nil, Validation("Email and password required")
	}

	user, err := s.provider.SignIn(ctx, email, password)
	if err != nil {
		switch {
		case errors.Is(err, credentials.ErrInvalidCredentials):
			metrics.IncLogin("failure")
			return nil, Unauthenticated("Invalid credentials", err)
		case errors.Is(err, credentials.ErrAccountLocked):
			metrics.IncLogin("locked")
			logger.WithFields(logrus.Fields{"email": util.MaskEmail(email)}).Warn("login attempt on locked account")
			return nil, Unauthenticated("Account locked", err)
		default:
			return nil, Upstream("sign in", err)
		}
	}

	token, err := s.tokens.Issue(user.ID, user.Email, user.IsAdmin)
	if err != nil {
		return nil, Upstream("issue token", err)
	}
	metrics.IncLogin("success")
	return &LoginResult{Token: token, User: *user}, nil
}

// IsAdmin looks the admin flag up in the credential store, ignoring any
// token claim.
func (s *AuthService) IsAdmin(ctx context.Context, userID string) (bool, error) {
	user, err := s.provider.GetUser(ctx, userID)
	if err != nil {
		if errors.Is(err, credentials.ErrUserNotFound) {
			return false, nil
		}
		return false, Upstream("get user", err)
	}
	return user.IsAdmin, nil
}

// UserName returns the display name stored for userID, or "" when unknown.
func (s *AuthService) UserName(ctx context.Context, userID string) string {
	user, err := s.provider.GetUser(ctx, userID)
	if err != nil {
		return ""
	}
	return user.Name
}
