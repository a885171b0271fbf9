package apperror

import "errors"

// Kind groups domain errors the way the HTTP layer maps them to status codes.
type Kind int

const (
	KindInternal Kind = iota
	KindNotFound
	KindBadRequest
	KindUnauthorized
	KindConflict
)

var (
	ErrUserNotFound        = errors.New("user not found")
	ErrInvalidCredentials  = errors.New("invalid credentials")
	ErrInvalidRefreshToken = errors.New("invalid refresh token")
	ErrMissingRefreshToken = errors.New("missing refresh token")
	ErrTokenExpired        = errors.New("token expired")
	ErrTokenInvalid        = errors.New("invalid token")
	ErrEmailTaken          = errors.New("email already in use")
)

func KindOf(err error) Kind {
	switch {
	case errors.Is(err, ErrUserNotFound):
		return KindNotFound
	case errors.Is(err, ErrInvalidCredentials), errors.Is(err, ErrInvalidRefreshToken):
		return KindBadRequest
	case errors.Is(err, ErrMissingRefreshToken), errors.Is(err, ErrTokenExpired), errors.Is(err, ErrTokenInvalid):
		return KindUnauthorized
	case errors.Is(err, ErrEmailTaken):
		return KindConflict
	default:
		return KindInternal
	}
}
