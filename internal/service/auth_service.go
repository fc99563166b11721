package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"github.com/noah-isme/classroom-api/internal/models"
	appErrors "github.com/noah-isme/classroom-api/pkg/errors"
)

type authUserRepository interface {
	FindByUsername(ctx context.Context, username string) (*models.User, error)
	UpdateLastLogin(ctx context.Context, id int64, ip string, ts time.Time) error
	CreateAuditLog(ctx context.Context, log *models.AuditLog) error
}

type profileEnricher interface {
	Enrich(ctx context.Context, user *models.User) error
}

// AuthConfig defines configuration for authentication flows.
type AuthConfig struct {
	// InactiveStatus is the HTTP status reported for inactive accounts.
	InactiveStatus int
}

// AuthService verifies credentials and manages session tokens.
type AuthService struct {
	repo      authUserRepository
	profiles  profileEnricher
	tokens    *TokenService
	validator *validator.Validate
	logger    *zap.Logger
	metrics   *MetricsService
	config    AuthConfig
}

// NewAuthService constructs an AuthService instance.
func NewAuthService(repo authUserRepository, profiles profileEnricher, tokens *TokenService, validate *validator.Validate, logger *zap.Logger, metrics *MetricsService, config AuthConfig) *AuthService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if validate == nil {
		validate = validator.New()
	}
	if config.InactiveStatus == 0 {
		config.InactiveStatus = http.StatusForbidden
	}
	return &AuthService{repo: repo, profiles: profiles, tokens: tokens, validator: validate, logger: logger, metrics: metrics, config: config}
}

// Tokens exposes the session token codec.
func (s *AuthService) Tokens() *TokenService {
	return s.tokens
}

func (s *AuthService) inactiveError() *appErrors.Error {
	return appErrors.New(appErrors.ErrInactiveAccount.Code, s.config.InactiveStatus, appErrors.ErrInactiveAccount.Message)
}

// Verify checks a username and password. On success the login time and origin are recorded
// and the user is returned with its role and role-dependent profile attached.
func (s *AuthService) Verify(ctx context.Context, username, password, origin string) (*models.User, error) {
	user, err := s.repo.FindByUsername(ctx, username)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.ErrNotRegistered
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to fetch user")
	}

	if !user.IsActive {
		return nil, s.inactiveError()
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		return nil, appErrors.ErrInvalidCredentials
	}

	now := s.tokens.Now().UTC()
	if err := s.repo.UpdateLastLogin(ctx, user.ID, origin, now); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to record login")
	}
	user.LastLogin = &now
	user.LoginIP = &origin

	if s.profiles != nil {
		if err := s.profiles.Enrich(ctx, user); err != nil {
			return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load profile")
		}
	}
	return user, nil
}

// Login verifies credentials and issues a session.
func (s *AuthService) Login(ctx context.Context, req models.LoginRequest) (*models.Session, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "username and password are required")
	}

	user, err := s.Verify(ctx, req.Username, req.Password, req.IP)
	if err != nil {
		s.metrics.RecordLogin(false)
		return nil, err
	}

	session, err := s.issue(user)
	if err != nil {
		return nil, err
	}
	s.metrics.RecordLogin(true)
	s.audit(ctx, user.ID, models.AuditActionLogin, req.IP, req.UserAgent, `{"status":"success"}`)
	return session, nil
}

// Refresh exchanges a refresh token for a new session. The identity is re-resolved by the
// username embedded in the token.
func (s *AuthService) Refresh(ctx context.Context, req models.RefreshTokenRequest) (*models.Session, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "refresh token is required")
	}

	claims, err := s.tokens.ValidateRefresh(req.RefreshToken)
	if err != nil {
		return nil, err
	}

	user, err := s.repo.FindByUsername(ctx, claims.Username)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "user not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load user")
	}
	if !user.IsActive {
		return nil, s.inactiveError()
	}

	session, err := s.issue(user)
	if err != nil {
		return nil, err
	}
	s.audit(ctx, user.ID, models.AuditActionRefresh, req.IP, req.UserAgent, `{"refresh":"rotated"}`)
	return session, nil
}

// Logout records the logout of whoever owns token. Sessions are stateless so an unreadable
// token is not an error.
func (s *AuthService) Logout(ctx context.Context, token string, meta models.RequestMeta) {
	if token == "" {
		return
	}
	claims, err := s.tokens.Decode(token)
	if err != nil {
		return
	}
	s.audit(ctx, claims.UserID, models.AuditActionLogout, meta.IP, meta.UserAgent, `{"status":"logout"}`)
}

func (s *AuthService) issue(user *models.User) (*models.Session, error) {
	pair, err := s.tokens.Issue(user)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create session token")
	}
	return &models.Session{
		User:         user,
		ExpiresIn:    pair.ExpiresInMs,
		RefreshToken: pair.RefreshToken,
		Token:        pair.Token,
		ExpiresAt:    pair.ExpiresAt,
	}, nil
}

func (s *AuthService) audit(ctx context.Context, userID int64, action, ip, userAgent, payload string) {
	resourceID := fmt.Sprintf("%d", userID)
	if err := s.repo.CreateAuditLog(ctx, &models.AuditLog{
		UserID:     &userID,
		Action:     action,
		Resource:   "auth",
		ResourceID: &resourceID,
		NewValues:  []byte(payload),
		IPAddress:  ip,
		UserAgent:  userAgent,
	}); err != nil {
		s.logger.Warn("failed to record auth audit log", zap.String("action", action), zap.Error(err))
	}
}
