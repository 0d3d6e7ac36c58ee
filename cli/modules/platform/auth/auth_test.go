package auth

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/fpokrzywa/weaver-live/cli/modules/core/accounts"
	"github.com/fpokrzywa/weaver-live/cli/modules/platform/database"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

func newTestAuth(t *testing.T) (*Authenticator, *accounts.Service) {
	t.Helper()
	ctx := context.Background()

	db, err := database.Open(ctx, database.Config{URL: filepath.Join(t.TempDir(), "auth.db")})
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	svc := accounts.NewService(accounts.NewRepository(db))
	svc.SetPasswordCost(bcrypt.MinCost)
	require.NoError(t, svc.SeedDefaults(ctx, &accounts.BootstrapAdmin{Email: "root@example.com", Password: "rootpw"}))

	a, err := New(svc, Config{Secret: "test-secret", Issuer: "weaver-test", ExpiryHours: 1})
	require.NoError(t, err)
	return a, svc
}

func createUser(t *testing.T, svc *accounts.Service, email, role string) *accounts.User {
	t.Helper()
	ctx := context.Background()
	roles, err := svc.ListRoles(ctx)
	require.NoError(t, err)
	for _, r := range roles {
		if r.Name == role {
			u, err := svc.CreateUser(ctx, accounts.NewUser{Email: email, Password: "pw", RoleID: r.ID})
			require.NoError(t, err)
			return u
		}
	}
	t.Fatalf("no role %s", role)
	return nil
}

func TestLoginAdmin(t *testing.T) {
	t.Parallel()

	a, _ := newTestAuth(t)
	session, err := a.Login(context.Background(), "root@example.com", "rootpw")
	require.NoError(t, err)
	require.True(t, session.Identity.IsAdmin)
	require.Equal(t, "Admin", session.Identity.Role)
	require.NotNil(t, session.User.LastLogin)
	require.NotEmpty(t, session.Token)

	identity, err := a.Verify(session.Token)
	require.NoError(t, err)
	require.Equal(t, session.Identity, *identity)
}

func TestLoginRegularUser(t *testing.T) {
	t.Parallel()

	a, svc := newTestAuth(t)
	createUser(t, svc, "jane@example.com", "Manager")

	session, err := a.Login(context.Background(), "jane@example.com", "pw")
	require.NoError(t, err)
	require.False(t, session.Identity.IsAdmin)
}

func TestLoginFailures(t *testing.T) {
	t.Parallel()

	a, svc := newTestAuth(t)
	ctx := context.Background()
	u := createUser(t, svc, "off@example.com", "User")
	_, err := svc.SetUserActive(ctx, u.ID, false)
	require.NoError(t, err)

	_, err = a.Login(ctx, "", "pw")
	require.ErrorIs(t, err, ErrMissingCredentials)
	_, err = a.Login(ctx, "nobody@example.com", "pw")
	require.ErrorIs(t, err, ErrInvalidCredentials)
	_, err = a.Login(ctx, "root@example.com", "wrong")
	require.ErrorIs(t, err, ErrInvalidCredentials)
	_, err = a.Login(ctx, "off@example.com", "pw")
	require.ErrorIs(t, err, ErrAccountDisabled)
}

func TestVerifyRejectsForeignAndExpiredTokens(t *testing.T) {
	t.Parallel()

	a, svc := newTestAuth(t)
	other, err := New(svc, Config{Secret: "another-secret", Issuer: "weaver-test"})
	require.NoError(t, err)

	token, _, err := other.Issue(Identity{UserID: 1, Email: "x@example.com", IsAdmin: true})
	require.NoError(t, err)
	_, err = a.Verify(token)
	require.ErrorIs(t, err, ErrInvalidToken)

	token, _, err = a.Issue(Identity{UserID: 1, Email: "x@example.com"})
	require.NoError(t, err)
	a.now = func() time.Time { return time.Now().Add(2 * time.Hour) }
	_, err = a.Verify(token)
	require.ErrorIs(t, err, ErrInvalidToken)

	_, err = a.Verify("not-a-token")
	require.ErrorIs(t, err, ErrInvalidToken)
}

func TestIdentityContext(t *testing.T) {
	t.Parallel()

	_, ok := FromContext(context.Background())
	require.False(t, ok)

	ctx := WithIdentity(context.Background(), &Identity{Email: "a@example.com"})
	got, ok := FromContext(ctx)
	require.True(t, ok)
	require.Equal(t, "a@example.com", got.Email)
}

func TestIsAdminPermissions(t *testing.T) {
	t.Parallel()

	require.True(t, IsAdminPermissions([]string{"basic_access", "user_management"}))
	require.False(t, IsAdminPermissions([]string{"basic_access", "team_management"}))
	require.False(t, IsAdminPermissions(nil))
}
