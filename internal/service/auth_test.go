package service

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/creamcroissant/shopboard/internal/auth/token"
	"github.com/creamcroissant/shopboard/internal/repository"
	"github.com/creamcroissant/shopboard/internal/security"
)

type authFixture struct {
	store    repository.Store
	auth     AuthService
	register RegistrationService
	users    UserService
}

func newAuthFixture(t *testing.T, attempts int) *authFixture {
	t.Helper()
	store := newTestStore(t)
	hasher := newTestHasher(t)
	mgr, err := token.NewManager(token.Options{SigningKey: []byte("test-signing-key-0123456789"), Issuer: "shopboard"})
	require.NoError(t, err)
	limiter, err := security.NewRateLimiter(newTestCache())
	require.NoError(t, err)
	return &authFixture{
		store:    store,
		auth:     NewAuthService(store, hasher, mgr, limiter, nil, AuthOptions{LoginAttempts: attempts, LoginWindow: time.Minute}),
		register: NewRegistrationService(store, hasher, limiter),
		users:    NewUserService(store, hasher, nil),
	}
}

func (f *authFixture) signUp(t *testing.T, email, password string) *repository.User {
	t.Helper()
	u, err := f.register.Register(context.Background(), RegistrationInput{Email: email, Password: password, Name: "Ada"})
	require.NoError(t, err)
	return u
}

func TestRegister(t *testing.T) {
	f := newAuthFixture(t, 10)
	ctx := context.Background()

	u := f.signUp(t, "  Ada@Example.com ", "secret123")
	assert.Equal(t, "ada@example.com", u.Email)
	assert.Equal(t, repository.RoleCustomer, u.Role)
	assert.NotEqual(t, "secret123", u.Password)

	tests := map[string]struct {
		input RegistrationInput
		want  error
	}{
		"duplicate email": {input: RegistrationInput{Email: "ada@example.com", Password: "secret123"}, want: ErrEmailExists},
		"bad email":       {input: RegistrationInput{Email: "not-an-email", Password: "secret123"}, want: ErrInvalidEmail},
		"short password":  {input: RegistrationInput{Email: "bob@example.com", Password: "a1"}, want: ErrInvalidPassword},
		"no digit":        {input: RegistrationInput{Email: "bob@example.com", Password: "onlyletters"}, want: ErrInvalidPassword},
	}
	for name, tc := range tests {
		t.Run(name, func(t *testing.T) {
			_, err := f.register.Register(ctx, tc.input)
			assert.ErrorIs(t, err, tc.want)
		})
	}

	require.NoError(t, f.store.Settings().Upsert(ctx, &repository.Setting{Key: SettingStopRegister, Value: "1", Category: "auth"}))
	_, err := f.register.Register(ctx, RegistrationInput{Email: "late@example.com", Password: "secret123"})
	assert.ErrorIs(t, err, ErrRegistrationClosed)
}

func TestLogin(t *testing.T) {
	f := newAuthFixture(t, 10)
	ctx := context.Background()
	u := f.signUp(t, "ada@example.com", "secret123")

	res, err := f.auth.Login(ctx, LoginInput{Email: "ADA@example.com", Password: "secret123", ClientMeta: ClientMeta{IP: "1.2.3.4"}})
	require.NoError(t, err)
	assert.NotEmpty(t, res.Token)
	assert.NotEmpty(t, res.RefreshToken)
	assert.Equal(t, "Bearer", res.TokenType)
	assert.Equal(t, u.ID, res.User.ID)
	assert.True(t, res.RefreshExpiresAt.After(res.ExpiresAt))

	claims, err := f.auth.Verify(ctx, res.Token)
	require.NoError(t, err)
	assert.Equal(t, u.ID, claims.UserID)
	assert.Equal(t, repository.RoleCustomer, claims.Role)
	assert.False(t, claims.IsAdmin)

	_, err = f.auth.Verify(ctx, res.RefreshToken)
	assert.ErrorIs(t, err, ErrUnauthorized, "refresh token must not authenticate requests")

	_, err = f.auth.Login(ctx, LoginInput{Email: "ada@example.com", Password: "wrong123"})
	assert.ErrorIs(t, err, ErrInvalidCredentials)
	_, err = f.auth.Login(ctx, LoginInput{Email: "nobody@example.com", Password: "secret123"})
	assert.ErrorIs(t, err, ErrInvalidCredentials)
}

func TestLogin_BannedUser(t *testing.T) {
	f := newAuthFixture(t, 10)
	ctx := context.Background()
	u := f.signUp(t, "ada@example.com", "secret123")
	res, err := f.auth.Login(ctx, LoginInput{Email: "ada@example.com", Password: "secret123"})
	require.NoError(t, err)

	u.Banned = true
	require.NoError(t, f.store.Users().Update(ctx, u))

	_, err = f.auth.Login(ctx, LoginInput{Email: "ada@example.com", Password: "secret123"})
	assert.ErrorIs(t, err, ErrAccountDisabled)
	_, err = f.auth.Verify(ctx, res.Token)
	assert.ErrorIs(t, err, ErrAccountDisabled)
	_, err = f.auth.Refresh(ctx, RefreshInput{RefreshToken: res.RefreshToken})
	assert.ErrorIs(t, err, ErrAccountDisabled)
}

func TestLogin_RateLimited(t *testing.T) {
	f := newAuthFixture(t, 2)
	ctx := context.Background()
	f.signUp(t, "ada@example.com", "secret123")
	meta := ClientMeta{IP: "10.0.0.1"}

	for i := 0; i < 2; i++ {
		_, err := f.auth.Login(ctx, LoginInput{Email: "ada@example.com", Password: "wrong123", ClientMeta: meta})
		require.ErrorIs(t, err, ErrInvalidCredentials)
	}
	_, err := f.auth.Login(ctx, LoginInput{Email: "ada@example.com", Password: "secret123", ClientMeta: meta})
	assert.ErrorIs(t, err, ErrRateLimited)

	_, err = f.auth.Login(ctx, LoginInput{Email: "ada@example.com", Password: "secret123", ClientMeta: ClientMeta{IP: "10.0.0.2"}})
	assert.NoError(t, err, "limit is per ip and email")
}

func TestRefresh_RotationAndReplay(t *testing.T) {
	f := newAuthFixture(t, 10)
	ctx := context.Background()
	f.signUp(t, "ada@example.com", "secret123")

	first, err := f.auth.Login(ctx, LoginInput{Email: "ada@example.com", Password: "secret123"})
	require.NoError(t, err)

	second, err := f.auth.Refresh(ctx, RefreshInput{RefreshToken: first.RefreshToken})
	require.NoError(t, err)
	assert.NotEqual(t, first.RefreshToken, second.RefreshToken)

	_, err = f.auth.Refresh(ctx, RefreshInput{RefreshToken: first.RefreshToken})
	assert.ErrorIs(t, err, ErrInvalidRefreshToken)

	// 重放旧令牌后，该用户的全部刷新令牌都被吊销。
	_, err = f.auth.Refresh(ctx, RefreshInput{RefreshToken: second.RefreshToken})
	assert.ErrorIs(t, err, ErrInvalidRefreshToken)

	_, err = f.auth.Refresh(ctx, RefreshInput{RefreshToken: "garbage"})
	assert.ErrorIs(t, err, ErrInvalidRefreshToken)
	_, err = f.auth.Refresh(ctx, RefreshInput{RefreshToken: first.Token})
	assert.ErrorIs(t, err, ErrInvalidRefreshToken, "access token cannot refresh")
}

func TestLogout(t *testing.T) {
	f := newAuthFixture(t, 10)
	ctx := context.Background()
	f.signUp(t, "ada@example.com", "secret123")
	res, err := f.auth.Login(ctx, LoginInput{Email: "ada@example.com", Password: "secret123"})
	require.NoError(t, err)

	require.NoError(t, f.auth.Logout(ctx, res.RefreshToken))
	_, err = f.auth.Refresh(ctx, RefreshInput{RefreshToken: res.RefreshToken})
	assert.ErrorIs(t, err, ErrInvalidRefreshToken)
	assert.NoError(t, f.auth.Logout(ctx, ""))
}

func TestChangePassword(t *testing.T) {
	f := newAuthFixture(t, 10)
	ctx := context.Background()
	u := f.signUp(t, "ada@example.com", "secret123")
	res, err := f.auth.Login(ctx, LoginInput{Email: "ada@example.com", Password: "secret123"})
	require.NoError(t, err)

	err = f.users.ChangePassword(ctx, u.ID, ChangePasswordInput{OldPassword: "wrong123", NewPassword: "newpass123"})
	assert.ErrorIs(t, err, ErrInvalidCredentials)
	err = f.users.ChangePassword(ctx, u.ID, ChangePasswordInput{OldPassword: "secret123", NewPassword: "short1"})
	assert.ErrorIs(t, err, ErrInvalidPassword)

	require.NoError(t, f.users.ChangePassword(ctx, u.ID, ChangePasswordInput{OldPassword: "secret123", NewPassword: "newpass123"}))
	_, err = f.auth.Refresh(ctx, RefreshInput{RefreshToken: res.RefreshToken})
	assert.ErrorIs(t, err, ErrInvalidRefreshToken, "password change revokes sessions")
	_, err = f.auth.Login(ctx, LoginInput{Email: "ada@example.com", Password: "newpass123"})
	assert.NoError(t, err)
}

func TestUpdateProfile(t *testing.T) {
	f := newAuthFixture(t, 10)
	ctx := context.Background()
	u := f.signUp(t, "ada@example.com", "secret123")

	name := "<b>Ada</b> L"
	phone := "+44 20 1234"
	updated, err := f.users.UpdateProfile(ctx, u.ID, UpdateProfileInput{Name: &name, Phone: &phone})
	require.NoError(t, err)
	assert.Equal(t, "Ada L", updated.Name)
	assert.Equal(t, phone, updated.Phone)

	empty := "  "
	_, err = f.users.UpdateProfile(ctx, u.ID, UpdateProfileInput{Name: &empty})
	assert.ErrorIs(t, err, ErrInvalidInput)
}

func TestAdminUsers(t *testing.T) {
	f := newAuthFixture(t, 10)
	ctx := context.Background()
	admin := NewAdminUserService(f.store, newTestHasher(t), nil)

	root, err := admin.Create(ctx, AdminUserCreateInput{Email: "root@example.com", Password: "secret123", Role: repository.RoleAdmin})
	require.NoError(t, err)
	customer := f.signUp(t, "ada@example.com", "secret123")
	res, err := f.auth.Login(ctx, LoginInput{Email: "ada@example.com", Password: "secret123"})
	require.NoError(t, err)

	list, err := admin.List(ctx, AdminUserListInput{Query: "ada"})
	require.NoError(t, err)
	require.Len(t, list.Users, 1)
	assert.Equal(t, int64(1), list.Total)

	_, err = admin.SetBanned(ctx, root.ID, root.ID, true)
	assert.ErrorIs(t, err, ErrSelfModification)

	banned, err := admin.SetBanned(ctx, root.ID, customer.ID, true)
	require.NoError(t, err)
	assert.True(t, banned.Banned)
	_, err = f.auth.Refresh(ctx, RefreshInput{RefreshToken: res.RefreshToken})
	assert.Error(t, err)

	_, err = admin.SetRole(ctx, root.ID, customer.ID, "superuser")
	assert.ErrorIs(t, err, ErrInvalidRole)
	promoted, err := admin.SetRole(ctx, root.ID, customer.ID, repository.RoleStaff)
	require.NoError(t, err)
	assert.Equal(t, repository.RoleStaff, promoted.Role)

	_, err = admin.Create(ctx, AdminUserCreateInput{Email: "root@example.com", Password: "secret123"})
	assert.ErrorIs(t, err, ErrEmailExists)
}
