package service

import (
	"context"
	"net/http"
	"testing"
	"time"

	"auth_api/internal/apperror"
	"auth_api/internal/auth"
	"auth_api/internal/config"
	"auth_api/internal/storage"

	"github.com/gofrs/uuid"
	"github.com/stretchr/testify/require"
)

// fakeHasher is a deterministic stand-in for bcrypt.
type fakeHasher struct{}

func (fakeHasher) Hash(plaintext string) (string, error) { return "hashed:" + plaintext, nil }
func (fakeHasher) Verify(plaintext, hash string) bool    { return hash == "hashed:"+plaintext }

func testJWTConfig() config.JWT {
	return config.JWT{
		AccessSecret:  "access-secret",
		RefreshSecret: "refresh-secret",
		AccessTTL:     time.Hour,
		RefreshTTL:    7 * 24 * time.Hour,
	}
}

func newTestService() (*authService, *storage.InMemoryStorage) {
	st := storage.NewInMemoryStorage()
	return NewService(st, fakeHasher{}, auth.NewTokenService(testJWTConfig())), st
}

func registerAlice(t *testing.T, svc *authService) AuthResult {
	t.Helper()

	res, err := svc.Register(context.Background(), "alice@example.com", "Alice Liddell", "Secret123!")
	require.NoError(t, err)

	return res
}

func TestRegister_IssuesTokenPair(t *testing.T) {
	t.Parallel()

	svc, st := newTestService()
	res := registerAlice(t, svc)

	require.NotEmpty(t, res.AccessToken)
	require.Equal(t, RefreshCookieName, res.Cookie.Name)
	require.NotEmpty(t, res.Cookie.Value)
	require.True(t, res.Cookie.HTTPOnly)
	require.True(t, res.Cookie.Secure)
	require.Equal(t, http.SameSiteStrictMode, res.Cookie.SameSite)

	user, err := st.GetUserByEmail(context.Background(), "alice@example.com")
	require.NoError(t, err)
	require.True(t, user.IsActive)
	require.False(t, user.IsAdmin)
	require.NotNil(t, user.HashedRefreshToken)
}

func TestRegister_DuplicateEmail(t *testing.T) {
	t.Parallel()

	svc, st := newTestService()
	registerAlice(t, svc)

	_, err := svc.Register(context.Background(), "alice@example.com", "Mallory", "Other456?")
	require.ErrorIs(t, err, apperror.ErrEmailTaken)
	require.Equal(t, apperror.KindConflict, apperror.KindOf(err))

	// first registration is untouched
	user, err := st.GetUserByEmail(context.Background(), "alice@example.com")
	require.NoError(t, err)
	require.Equal(t, "Alice Liddell", user.FullName)
}

func TestLogin_UnknownEmail(t *testing.T) {
	t.Parallel()

	svc, _ := newTestService()

	_, err := svc.Login(context.Background(), "nobody@example.com", "whatever")
	require.ErrorIs(t, err, apperror.ErrUserNotFound)
	require.Equal(t, apperror.KindNotFound, apperror.KindOf(err))
}

func TestLogin_WrongPassword(t *testing.T) {
	t.Parallel()

	svc, _ := newTestService()
	registerAlice(t, svc)

	_, err := svc.Login(context.Background(), "alice@example.com", "WrongPass")
	require.ErrorIs(t, err, apperror.ErrInvalidCredentials)
	require.Equal(t, apperror.KindBadRequest, apperror.KindOf(err))
}

func TestRefresh_RotationScenario(t *testing.T) {
	t.Parallel()

	svc, _ := newTestService()
	ctx := context.Background()
	registerAlice(t, svc)

	login, err := svc.Login(ctx, "alice@example.com", "Secret123!")
	require.NoError(t, err)
	a1, r1 := login.AccessToken, login.Cookie.Value

	first, err := svc.Refresh(ctx, r1)
	require.NoError(t, err)
	a2, r2 := first.AccessToken, first.Cookie.Value
	require.NotEqual(t, a1, a2)
	require.NotEqual(t, r1, r2)

	// r1 was superseded by r2
	_, err = svc.Refresh(ctx, r1)
	require.ErrorIs(t, err, apperror.ErrInvalidRefreshToken)

	_, err = svc.Refresh(ctx, r2)
	require.NoError(t, err)
}

func TestRefresh_MissingToken(t *testing.T) {
	t.Parallel()

	svc, _ := newTestService()

	_, err := svc.Refresh(context.Background(), "")
	require.ErrorIs(t, err, apperror.ErrMissingRefreshToken)
	require.Equal(t, apperror.KindUnauthorized, apperror.KindOf(err))
}

func TestRefresh_MalformedToken(t *testing.T) {
	t.Parallel()

	svc, _ := newTestService()

	_, err := svc.Refresh(context.Background(), "not.a.jwt")
	require.ErrorIs(t, err, apperror.ErrTokenInvalid)
}

func TestRefresh_ExpiredToken(t *testing.T) {
	t.Parallel()

	cfg := testJWTConfig()
	cfg.RefreshTTL = -time.Second

	st := storage.NewInMemoryStorage()
	svc := NewService(st, fakeHasher{}, auth.NewTokenService(cfg))

	res, err := svc.Register(context.Background(), "alice@example.com", "Alice Liddell", "Secret123!")
	require.NoError(t, err)

	_, err = svc.Refresh(context.Background(), res.Cookie.Value)
	require.ErrorIs(t, err, apperror.ErrTokenExpired)
}

func TestRefresh_DeletedUser(t *testing.T) {
	t.Parallel()

	svc, _ := newTestService()
	res := registerAlice(t, svc)

	claims, err := auth.NewTokenService(testJWTConfig()).VerifyRefreshToken(res.Cookie.Value)
	require.NoError(t, err)

	// empty store: same token, user row gone
	emptySvc := NewService(storage.NewInMemoryStorage(), fakeHasher{}, auth.NewTokenService(testJWTConfig()))
	_, err = emptySvc.Refresh(context.Background(), res.Cookie.Value)
	require.ErrorIs(t, err, apperror.ErrUserNotFound)
	require.Equal(t, claims.User.Email, "alice@example.com")
}

func TestRefresh_PicksUpProfileChanges(t *testing.T) {
	t.Parallel()

	svc, st := newTestService()
	ctx := context.Background()
	res := registerAlice(t, svc)

	user, err := st.GetUserByEmail(ctx, "alice@example.com")
	require.NoError(t, err)

	newName := "Alice in Wonderland"
	_, err = st.UpdateUser(ctx, user.ID, storage.UserUpdate{FullName: &newName})
	require.NoError(t, err)

	refreshed, err := svc.Refresh(ctx, res.Cookie.Value)
	require.NoError(t, err)

	claims, err := auth.NewTokenService(testJWTConfig()).VerifyAccessToken(refreshed.AccessToken)
	require.NoError(t, err)
	require.Equal(t, newName, claims.User.FullName)
}

func TestLogout_InvalidatesRefreshToken(t *testing.T) {
	t.Parallel()

	svc, st := newTestService()
	ctx := context.Background()
	res := registerAlice(t, svc)

	user, err := st.GetUserByEmail(ctx, "alice@example.com")
	require.NoError(t, err)

	cookie, err := svc.Logout(ctx, user.ID)
	require.NoError(t, err)
	require.Equal(t, RefreshCookieName, cookie.Name)
	require.Empty(t, cookie.Value)
	require.Equal(t, -1, cookie.MaxAge)

	// the token still verifies cryptographically but its stored hash is gone
	_, err = svc.Refresh(ctx, res.Cookie.Value)
	require.ErrorIs(t, err, apperror.ErrInvalidRefreshToken)
}

func TestLogout_UnknownUser(t *testing.T) {
	t.Parallel()

	svc, _ := newTestService()

	_, err := svc.Logout(context.Background(), uuid.Must(uuid.NewV4()))
	require.ErrorIs(t, err, apperror.ErrUserNotFound)
}

// Inactive users can still log in and refresh. Nothing checks is_active
// today; this pins the permissive behavior so changing it is a conscious
// contract change.
func TestLogin_InactiveUserStillAllowed(t *testing.T) {
	t.Parallel()

	svc, st := newTestService()
	ctx := context.Background()
	registerAlice(t, svc)

	user, err := st.GetUserByEmail(ctx, "alice@example.com")
	require.NoError(t, err)

	disabled := false
	_, err = st.UpdateUser(ctx, user.ID, storage.UserUpdate{IsActive: &disabled})
	require.NoError(t, err)

	res, err := svc.Login(ctx, "alice@example.com", "Secret123!")
	require.NoError(t, err)

	_, err = svc.Refresh(ctx, res.Cookie.Value)
	require.NoError(t, err)
}
