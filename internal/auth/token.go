package auth

import (
	"errors"
	"time"

	"auth_api/internal/apperror"
	"auth_api/internal/config"
	"auth_api/internal/models"

	"github.com/gofrs/uuid"
	"github.com/golang-jwt/jwt/v5"
)

const (
	TypeAccess  = "access"
	TypeRefresh = "refresh"
)

type Claims struct {
	User      models.TokenUser `json:"user"`
	TokenType string           `json:"type"`
	jwt.RegisteredClaims
}

// TokenService signs and verifies the access/refresh token pair. Access and
// refresh tokens use separate symmetric secrets and independent TTLs.
type TokenService struct {
	accessSecret  []byte
	refreshSecret []byte
	accessTTL     time.Duration
	refreshTTL    time.Duration
}

func NewTokenService(cfg config.JWT) *TokenService {
	return &TokenService{
		accessSecret:  []byte(cfg.AccessSecret),
		refreshSecret: []byte(cfg.RefreshSecret),
		accessTTL:     cfg.AccessTTL,
		refreshTTL:    cfg.RefreshTTL,
	}
}

func (s *TokenService) GenerateAccessToken(user models.TokenUser) (string, error) {
	return s.generate(user, TypeAccess, s.accessSecret, s.accessTTL)
}

func (s *TokenService) GenerateRefreshToken(user models.TokenUser) (string, error) {
	return s.generate(user, TypeRefresh, s.refreshSecret, s.refreshTTL)
}

func (s *TokenService) VerifyAccessToken(token string) (*Claims, error) {
	return s.verify(token, TypeAccess, s.accessSecret)
}

func (s *TokenService) VerifyRefreshToken(token string) (*Claims, error) {
	return s.verify(token, TypeRefresh, s.refreshSecret)
}

func (s *TokenService) generate(user models.TokenUser, tokenType string, secret []byte, ttl time.Duration) (string, error) {
	now := time.Now()
	claims := Claims{
		User:      user,
		TokenType: tokenType,
		RegisteredClaims: jwt.RegisteredClaims{
			// jti makes two tokens issued within the same second distinct.
			ID:        uuid.Must(uuid.NewV4()).String(),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)

	return token.SignedString(secret)
}

func (s *TokenService) verify(tokenStr, wantType string, secret []byte) (*Claims, error) {
	claims := &Claims{}

	token, err := jwt.ParseWithClaims(tokenStr, claims, func(t *jwt.Token) (interface{}, error) {
		return secret, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Name}))
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, apperror.ErrTokenExpired
		}
		return nil, apperror.ErrTokenInvalid
	}

	if !token.Valid || claims.TokenType != wantType {
		return nil, apperror.ErrTokenInvalid
	}

	return claims, nil
}
