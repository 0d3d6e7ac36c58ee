package accounts

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"golang.org/x/crypto/bcrypt"
)

// Service provides user and role management operations
type Service struct {
	repo         *Repository
	passwordCost int
}

// NewService creates a new accounts service
func NewService(repo *Repository) *Service {
	return &Service{
		repo:         repo,
		passwordCost: bcrypt.DefaultCost,
	}
}

// SetPasswordCost overrides the bcrypt cost, mostly for tests
func (s *Service) SetPasswordCost(cost int) {
	s.passwordCost = cost
}

// HashPassword hashes a password with bcrypt
func (s *Service) HashPassword(password string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), s.passwordCost)
	if err != nil {
		return "", fmt.Errorf("failed to hash password: %w", err)
	}
	return string(hash), nil
}

// CheckPassword reports whether password matches hash
func CheckPassword(hash, password string) bool {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(password)) == nil
}

// ============================================
// Users
// ============================================

// ListUsers returns users newest first
func (s *Service) ListUsers(ctx context.Context, f UserFilter) ([]User, error) {
	return s.repo.ListUsers(ctx, f)
}

// GetUser returns a user by id
func (s *Service) GetUser(ctx context.Context, id int64) (*User, error) {
	return s.repo.GetUser(ctx, id)
}

// CreateUser validates and stores a new user
func (s *Service) CreateUser(ctx context.Context, in NewUser) (*User, error) {
	in.Email = normalizeEmail(in.Email)
	if in.Email == "" || in.Password == "" || in.RoleID == 0 {
		return nil, ErrUserFieldsRequired
	}
	if _, err := s.repo.GetRole(ctx, in.RoleID); err != nil {
		return nil, err
	}

	hash, err := s.HashPassword(in.Password)
	if err != nil {
		return nil, err
	}
	return s.repo.CreateUser(ctx, in, hash)
}

// UpdateUser applies a partial update
func (s *Service) UpdateUser(ctx context.Context, id int64, in UserUpdate) (*User, error) {
	if in.Email != nil {
		email := normalizeEmail(*in.Email)
		if email == "" {
			return nil, ErrUserFieldsRequired
		}
		in.Email = &email
	}
	if in.RoleID != nil {
		if _, err := s.repo.GetRole(ctx, *in.RoleID); err != nil {
			return nil, err
		}
	}
	return s.repo.UpdateUser(ctx, id, in)
}

// SetUserActive enables or disables an account
func (s *Service) SetUserActive(ctx context.Context, id int64, active bool) (*User, error) {
	return s.repo.UpdateUser(ctx, id, UserUpdate{IsActive: &active})
}

// DeleteUser removes a user
func (s *Service) DeleteUser(ctx context.Context, id int64) error {
	return s.repo.DeleteUser(ctx, id)
}

// Credentials returns the stored credentials for email
func (s *Service) Credentials(ctx context.Context, email string) (*Credentials, error) {
	return s.repo.GetCredentials(ctx, normalizeEmail(email))
}

// RecordLogin stamps the last login time of a user
func (s *Service) RecordLogin(ctx context.Context, id int64) error {
	return s.repo.TouchLastLogin(ctx, id, time.Now().UTC())
}

// ============================================
// Roles
// ============================================

// ListRoles returns roles ordered by name
func (s *Service) ListRoles(ctx context.Context) ([]Role, error) {
	return s.repo.ListRoles(ctx)
}

// GetRole returns a role by id
func (s *Service) GetRole(ctx context.Context, id int64) (*Role, error) {
	return s.repo.GetRole(ctx, id)
}

// CreateRole validates and stores a new role
func (s *Service) CreateRole(ctx context.Context, in NewRole) (*Role, error) {
	in.Name = strings.TrimSpace(in.Name)
	if in.Name == "" || in.Permissions == nil {
		return nil, ErrRoleFieldsRequired
	}
	if err := ValidatePermissions(in.Permissions); err != nil {
		return nil, err
	}
	return s.repo.CreateRole(ctx, in)
}

// UpdateRole applies a partial update
func (s *Service) UpdateRole(ctx context.Context, id int64, in RoleUpdate) (*Role, error) {
	if in.Name != nil {
		name := strings.TrimSpace(*in.Name)
		if name == "" {
			return nil, ErrRoleFieldsRequired
		}
		in.Name = &name
	}
	if in.Permissions != nil {
		if err := ValidatePermissions(*in.Permissions); err != nil {
			return nil, err
		}
	}
	return s.repo.UpdateRole(ctx, id, in)
}

// DeleteRole removes a role that no user references
func (s *Service) DeleteRole(ctx context.Context, id int64) error {
	return s.repo.DeleteRole(ctx, id)
}

// RolePermissions returns the permissions of the role with id
func (s *Service) RolePermissions(ctx context.Context, id int64) ([]string, error) {
	role, err := s.repo.GetRole(ctx, id)
	if err != nil {
		return nil, err
	}
	return role.Permissions, nil
}

// ValidatePermissions rejects names outside AvailablePermissions
func ValidatePermissions(perms []string) error {
	known := make(map[string]bool)
	for _, p := range AvailablePermissions() {
		known[p] = true
	}
	for _, p := range perms {
		if !known[p] {
			return fmt.Errorf("%w: %s", ErrUnknownPermission, p)
		}
	}
	return nil
}

// ============================================
// Seeding
// ============================================

// SeedDefaults creates the default roles when missing, then the bootstrap admin if one is configured
func (s *Service) SeedDefaults(ctx context.Context, admin *BootstrapAdmin) error {
	var adminRole *Role
	for _, def := range DefaultRoles() {
		role, err := s.repo.GetRoleByName(ctx, def.Name)
		if errors.Is(err, ErrRoleNotFound) {
			role, err = s.repo.CreateRole(ctx, def)
		}
		if err != nil {
			return fmt.Errorf("failed to seed role %s: %w", def.Name, err)
		}
		if role.Has(PermUserManagement) && adminRole == nil {
			adminRole = role
		}
	}

	if admin == nil || admin.Email == "" || admin.Password == "" {
		return nil
	}

	if _, err := s.repo.GetCredentials(ctx, normalizeEmail(admin.Email)); err == nil {
		return nil
	} else if !errors.Is(err, ErrUserNotFound) {
		return err
	}
	if adminRole == nil {
		return fmt.Errorf("no role grants %s, cannot seed admin user", PermUserManagement)
	}

	_, err := s.CreateUser(ctx, NewUser{
		Email:     admin.Email,
		Password:  admin.Password,
		FirstName: admin.FirstName,
		LastName:  admin.LastName,
		RoleID:    adminRole.ID,
	})
	if err != nil {
		return fmt.Errorf("failed to seed admin user: %w", err)
	}
	return nil
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
