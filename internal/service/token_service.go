package service

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/noah-isme/classroom-api/internal/models"
	appErrors "github.com/noah-isme/classroom-api/pkg/errors"
)

// TokenConfig carries the signing secret and lifetime of session tokens.
type TokenConfig struct {
	Secret    string
	ExpiresIn time.Duration
}

// TokenPair is the result of issuing a session.
type TokenPair struct {
	Token        string
	RefreshToken string
	ExpiresAt    time.Time
	// ExpiresInMs is the token lifetime in milliseconds.
	ExpiresInMs int64
}

// TokenService signs and decodes HS256 session tokens. Decoding checks the signature only;
// callers compare the expiry against Now.
type TokenService struct {
	config TokenConfig
	now    func() time.Time
}

// NewTokenService constructs a TokenService.
func NewTokenService(cfg TokenConfig) *TokenService {
	return &TokenService{config: cfg, now: time.Now}
}

// WithClock overrides the clock used for issuing and expiry checks.
func (s *TokenService) WithClock(now func() time.Time) *TokenService {
	if now != nil {
		s.now = now
	}
	return s
}

// Now returns the service clock reading.
func (s *TokenService) Now() time.Time {
	return s.now()
}

// Issue signs an access token carrying {id, role} and a refresh token carrying {id, username}.
// Both expire after the configured lifetime.
func (s *TokenService) Issue(user *models.User) (*TokenPair, error) {
	if user == nil {
		return nil, errors.New("issue token: nil user")
	}
	issuedAt := s.now().UTC()
	expiresAt := issuedAt.Add(s.config.ExpiresIn)
	registered := jwt.RegisteredClaims{
		IssuedAt:  jwt.NewNumericDate(issuedAt),
		ExpiresAt: jwt.NewNumericDate(expiresAt),
	}

	token, err := s.sign(&models.SessionClaims{
		UserID:           user.ID,
		Role:             user.RoleName(),
		Type:             models.TokenTypeAccess,
		RegisteredClaims: registered,
	})
	if err != nil {
		return nil, fmt.Errorf("sign access token: %w", err)
	}

	refresh, err := s.sign(&models.SessionClaims{
		UserID:           user.ID,
		Username:         user.Username,
		Type:             models.TokenTypeRefresh,
		RegisteredClaims: registered,
	})
	if err != nil {
		return nil, fmt.Errorf("sign refresh token: %w", err)
	}

	return &TokenPair{
		Token:        token,
		RefreshToken: refresh,
		ExpiresAt:    expiresAt,
		ExpiresInMs:  s.config.ExpiresIn.Milliseconds(),
	}, nil
}

func (s *TokenService) sign(claims *models.SessionClaims) (string, error) {
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(s.config.Secret))
}

// Decode verifies the signature and returns the claims without judging expiry.
func (s *TokenService) Decode(tokenString string) (*models.SessionClaims, error) {
	if tokenString == "" {
		return nil, appErrors.Clone(appErrors.ErrUnauthorized, "token is required")
	}
	claims := &models.SessionClaims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(token *jwt.Token) (interface{}, error) {
		return []byte(s.config.Secret), nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}), jwt.WithoutClaimsValidation())
	if err != nil || !token.Valid {
		return nil, appErrors.Wrap(err, appErrors.ErrUnauthorized.Code, appErrors.ErrUnauthorized.Status, "invalid token")
	}
	return claims, nil
}

// ValidateAccess decodes an access token and rejects it once expired.
func (s *TokenService) ValidateAccess(tokenString string) (*models.SessionClaims, error) {
	claims, err := s.Decode(tokenString)
	if err != nil {
		return nil, err
	}
	if claims.Type != models.TokenTypeAccess {
		return nil, appErrors.Clone(appErrors.ErrUnauthorized, "invalid token type")
	}
	if claims.Expired(s.now()) {
		return nil, appErrors.Clone(appErrors.ErrUnauthorized, "token has expired")
	}
	return claims, nil
}

// ValidateRefresh decodes a refresh token. Expiry is reported as a session expiry.
func (s *TokenService) ValidateRefresh(tokenString string) (*models.SessionClaims, error) {
	claims, err := s.Decode(tokenString)
	if err != nil {
		return nil, err
	}
	if claims.Type != models.TokenTypeRefresh || claims.Username == "" {
		return nil, appErrors.Clone(appErrors.ErrUnauthorized, "invalid refresh token")
	}
	if claims.Expired(s.now()) {
		return nil, appErrors.Clone(appErrors.ErrSessionExpired, "refresh token has expired")
	}
	return claims, nil
}
