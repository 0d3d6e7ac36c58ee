package auth

import (
	"context"
	"crypto/rand"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/fpokrzywa/weaver-live/cli/modules/core/accounts"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

var (
	ErrMissingCredentials = errors.New("email and password are required")
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrAccountDisabled    = errors.New("account is disabled")
	ErrInvalidToken       = errors.New("invalid token")
)

// Config holds token settings
type Config struct {
	Secret      string `yaml:"secret"`
	Issuer      string `yaml:"issuer"`
	ExpiryHours int    `yaml:"expiry_hours"`
}

// Identity is what the rest of the application knows about a signed-in user
type Identity struct {
	UserID  int64  `json:"user_id"`
	Email   string `json:"email"`
	Role    string `json:"role"`
	IsAdmin bool   `json:"is_admin"`
}

// Session is the result of a successful login
type Session struct {
	User      accounts.User `json:"user"`
	Token     string        `json:"token"`
	ExpiresAt time.Time     `json:"expires_at"`
	Identity  Identity      `json:"-"`
}

// Claims are the JWT claims issued by the Authenticator
type Claims struct {
	Email string `json:"email"`
	Role  string `json:"role"`
	Admin bool   `json:"admin"`
	jwt.RegisteredClaims
}

// Authenticator checks credentials against the account store and issues tokens
type Authenticator struct {
	accounts *accounts.Service
	secret   []byte
	issuer   string
	ttl      time.Duration
	now      func() time.Time
}

// New creates an Authenticator. An empty secret is replaced by a random one,
// which invalidates tokens on restart.
func New(svc *accounts.Service, cfg Config) (*Authenticator, error) {
	secret := []byte(cfg.Secret)
	if len(secret) == 0 {
		secret = make([]byte, 32)
		if _, err := rand.Read(secret); err != nil {
			return nil, fmt.Errorf("failed to generate token secret: %w", err)
		}
	}

	issuer := cfg.Issuer
	if issuer == "" {
		issuer = "weaver"
	}

	hours := cfg.ExpiryHours
	if hours <= 0 {
		hours = 24
	}

	return &Authenticator{
		accounts: svc,
		secret:   secret,
		issuer:   issuer,
		ttl:      time.Duration(hours) * time.Hour,
		now:      time.Now,
	}, nil
}

// IsAdminPermissions reports whether a permission set grants the admin console
func IsAdminPermissions(perms []string) bool {
	for _, p := range perms {
		if p == accounts.PermUserManagement {
			return true
		}
	}
	return false
}

// Login verifies credentials, records the login and issues a token
func (a *Authenticator) Login(ctx context.Context, email, password string) (*Session, error) {
	if email == "" || password == "" {
		return nil, ErrMissingCredentials
	}

	creds, err := a.accounts.Credentials(ctx, email)
	if errors.Is(err, accounts.ErrUserNotFound) {
		return nil, ErrInvalidCredentials
	}
	if err != nil {
		return nil, err
	}
	if !accounts.CheckPassword(creds.PasswordHash, password) {
		return nil, ErrInvalidCredentials
	}
	if !creds.IsActive {
		return nil, ErrAccountDisabled
	}

	perms, err := a.accounts.RolePermissions(ctx, creds.RoleID)
	if err != nil && !errors.Is(err, accounts.ErrRoleNotFound) {
		return nil, err
	}

	if err := a.accounts.RecordLogin(ctx, creds.ID); err != nil {
		return nil, fmt.Errorf("failed to record login: %w", err)
	}
	user, err := a.accounts.GetUser(ctx, creds.ID)
	if err != nil {
		return nil, err
	}

	identity := Identity{
		UserID:  user.ID,
		Email:   user.Email,
		Role:    user.RoleName,
		IsAdmin: IsAdminPermissions(perms),
	}
	token, expires, err := a.Issue(identity)
	if err != nil {
		return nil, err
	}

	return &Session{User: *user, Token: token, ExpiresAt: expires, Identity: identity}, nil
}

// Issue signs a token for identity
func (a *Authenticator) Issue(identity Identity) (string, time.Time, error) {
	now := a.now()
	expires := now.Add(a.ttl)
	claims := Claims{
		Email: identity.Email,
		Role:  identity.Role,
		Admin: identity.IsAdmin,
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        uuid.NewString(),
			Issuer:    a.issuer,
			Subject:   strconv.FormatInt(identity.UserID, 10),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(expires),
		},
	}

	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(a.secret)
	if err != nil {
		return "", time.Time{}, fmt.Errorf("failed to sign token: %w", err)
	}
	return signed, expires, nil
}

// Verify parses a token and returns its identity
func (a *Authenticator) Verify(token string) (*Identity, error) {
	var claims Claims
	_, err := jwt.ParseWithClaims(token, &claims, func(*jwt.Token) (interface{}, error) {
		return a.secret, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithIssuer(a.issuer),
		jwt.WithTimeFunc(a.now),
	)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}

	id, err := strconv.ParseInt(claims.Subject, 10, 64)
	if err != nil {
		return nil, fmt.Errorf("%w: bad subject", ErrInvalidToken)
	}

	return &Identity{UserID: id, Email: claims.Email, Role: claims.Role, IsAdmin: claims.Admin}, nil
}

type contextKey struct{}

// WithIdentity stores identity in ctx
func WithIdentity(ctx context.Context, identity *Identity) context.Context {
	return context.WithValue(ctx, contextKey{}, identity)
}

// FromContext returns the identity stored in ctx, if any
func FromContext(ctx context.Context) (*Identity, bool) {
	identity, ok := ctx.Value(contextKey{}).(*Identity)
	return identity, ok && identity != nil
}
