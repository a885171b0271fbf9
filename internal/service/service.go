package service

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"net/http"

	"auth_api/internal/apperror"
	"auth_api/internal/auth"
	"auth_api/internal/hasher"
	"auth_api/internal/models"
	"auth_api/internal/storage"

	"github.com/gofrs/uuid"
)

const RefreshCookieName = "refresh_token"

// RefreshCookie tells the HTTP layer how to deliver the refresh token.
// MaxAge 0 leaves a session cookie, -1 deletes it.
type RefreshCookie struct {
	Name     string
	Value    string
	MaxAge   int
	HTTPOnly bool
	Secure   bool
	SameSite http.SameSite
}

type AuthResult struct {
	AccessToken string
	Cookie      RefreshCookie
}

type Service interface {
	Register(ctx context.Context, email, fullName, password string) (AuthResult, error)
	Login(ctx context.Context, email, password string) (AuthResult, error)
	Refresh(ctx context.Context, refreshToken string) (AuthResult, error)
	Logout(ctx context.Context, userID uuid.UUID) (RefreshCookie, error)
	GetUserByID(ctx context.Context, userID uuid.UUID) (models.User, error)
}

type authService struct {
	storage storage.Storage
	hasher  hasher.Hasher
	tokens  *auth.TokenService
}

func NewService(st storage.Storage, h hasher.Hasher, tokens *auth.TokenService) *authService {
	return &authService{
		storage: st,
		hasher:  h,
		tokens:  tokens,
	}
}

func (s *authService) Register(ctx context.Context, email, fullName, password string) (AuthResult, error) {
	const op = "service.Register"

	if _, err := s.storage.GetUserByEmail(ctx, email); err == nil {
		return AuthResult{}, apperror.ErrEmailTaken
	}

	hashedPassword, err := s.hasher.Hash(password)
	if err != nil {
		return AuthResult{}, fmt.Errorf("%s: %w", op, err)
	}

	user, err := s.storage.CreateUser(ctx, storage.CreateUserParams{
		Email:          email,
		FullName:       fullName,
		HashedPassword: hashedPassword,
		IsActive:       true,
		IsAdmin:        false,
	})
	if err != nil {
		return AuthResult{}, fmt.Errorf("%s: %w", op, err)
	}

	return s.issueTokens(ctx, user)
}

func (s *authService) Login(ctx context.Context, email, password string) (AuthResult, error) {
	const op = "service.Login"

	user, err := s.storage.GetUserByEmail(ctx, email)
	if err != nil {
		return AuthResult{}, fmt.Errorf("%s: %w", op, err)
	}

	if ok := s.hasher.Verify(password, user.HashedPassword); !ok {
		return AuthResult{}, apperror.ErrInvalidCredentials
	}

	return s.issueTokens(ctx, user)
}

func (s *authService) Refresh(ctx context.Context, refreshToken string) (AuthResult, error) {
	const op = "service.Refresh"

	if refreshToken == "" {
		return AuthResult{}, apperror.ErrMissingRefreshToken
	}

	claims, err := s.tokens.VerifyRefreshToken(refreshToken)
	if err != nil {
		return AuthResult{}, err
	}

	// reload the row so rotated hashes and profile changes are picked up
	user, err := s.storage.GetUserByID(ctx, claims.User.ID)
	if err != nil {
		return AuthResult{}, fmt.Errorf("%s: %w", op, err)
	}

	if user.HashedRefreshToken == nil {
		return AuthResult{}, apperror.ErrInvalidRefreshToken
	}
	if ok := s.hasher.Verify(fingerprint(refreshToken), *user.HashedRefreshToken); !ok {
		return AuthResult{}, apperror.ErrInvalidRefreshToken
	}

	return s.issueTokens(ctx, user)
}

func (s *authService) Logout(ctx context.Context, userID uuid.UUID) (RefreshCookie, error) {
	const op = "service.Logout"

	_, err := s.storage.UpdateUser(ctx, userID, storage.UserUpdate{ClearRefreshToken: true})
	if err != nil {
		return RefreshCookie{}, fmt.Errorf("%s: %w", op, err)
	}

	cookie := newRefreshCookie("")
	cookie.MaxAge = -1

	return cookie, nil
}

func (s *authService) GetUserByID(ctx context.Context, userID uuid.UUID) (models.User, error) {
	const op = "service.GetUserByID"

	user, err := s.storage.GetUserByID(ctx, userID)
	if err != nil {
		return models.User{}, fmt.Errorf("%s: %w", op, err)
	}

	return user, nil
}

// issueTokens is the single rotation point: storing the new refresh hash
// invalidates every previously issued refresh token for the user.
func (s *authService) issueTokens(ctx context.Context, user models.User) (AuthResult, error) {
	const op = "service.issueTokens"

	payload := user.Public()

	accessToken, err := s.tokens.GenerateAccessToken(payload)
	if err != nil {
		return AuthResult{}, fmt.Errorf("%s: %w", op, err)
	}

	refreshToken, err := s.tokens.GenerateRefreshToken(payload)
	if err != nil {
		return AuthResult{}, fmt.Errorf("%s: %w", op, err)
	}

	refreshHash, err := s.hasher.Hash(fingerprint(refreshToken))
	if err != nil {
		return AuthResult{}, fmt.Errorf("%s: %w", op, err)
	}

	if _, err := s.storage.UpdateUser(ctx, user.ID, storage.UserUpdate{HashedRefreshToken: &refreshHash}); err != nil {
		return AuthResult{}, fmt.Errorf("%s: %w", op, err)
	}

	return AuthResult{
		AccessToken: accessToken,
		Cookie:      newRefreshCookie(refreshToken),
	}, nil
}

// fingerprint condenses the token before bcrypt, which rejects inputs
// longer than 72 bytes; a signed JWT always exceeds that.
func fingerprint(token string) string {
	sum := sha256.Sum256([]byte(token))
	return hex.EncodeToString(sum[:])
}

func newRefreshCookie(token string) RefreshCookie {
	return RefreshCookie{
		Name:     RefreshCookieName,
		Value:    token,
		HTTPOnly: true,
		Secure:   true,
		SameSite: http.SameSiteStrictMode,
	}
}
