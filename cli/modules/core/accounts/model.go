package accounts

import (
	"errors"
	"time"
)

var (
	ErrUserNotFound       = errors.New("user not found")
	ErrRoleNotFound       = errors.New("role not found")
	ErrEmailExists        = errors.New("email already exists")
	ErrRoleNameExists     = errors.New("role name already exists")
	ErrRoleInUse          = errors.New("cannot delete role that is assigned to users")
	ErrUserFieldsRequired = errors.New("email, password, and role are required")
	ErrRoleFieldsRequired = errors.New("name and permissions are required")
	ErrUnknownPermission  = errors.New("unknown permission")
)

// Permission names understood by the console
const (
	PermUserManagement = "user_management"
	PermRoleManagement = "role_management"
	PermSystemSettings = "system_settings"
	PermBasicAccess    = "basic_access"
	PermTeamManagement = "team_management"
	PermReporting      = "reporting"
	PermAnalytics      = "analytics"
)

// AvailablePermissions lists every permission a role may carry
func AvailablePermissions() []string {
	return []string{
		PermUserManagement,
		PermRoleManagement,
		PermSystemSettings,
		PermBasicAccess,
		PermTeamManagement,
		PermReporting,
		PermAnalytics,
	}
}

// User is an account as exposed to clients. The password hash never leaves the repository.
type User struct {
	ID        int64      `json:"id"`
	Email     string     `json:"email"`
	FirstName string     `json:"first_name"`
	LastName  string     `json:"last_name"`
	RoleID    int64      `json:"role_id"`
	RoleName  string     `json:"role_name"`
	IsActive  bool       `json:"is_active"`
	CreatedAt time.Time  `json:"created_at"`
	UpdatedAt time.Time  `json:"updated_at"`
	LastLogin *time.Time `json:"last_login"`
}

// FullName returns "First Last", or the email when both are empty
func (u *User) FullName() string {
	switch {
	case u.FirstName != "" && u.LastName != "":
		return u.FirstName + " " + u.LastName
	case u.FirstName != "":
		return u.FirstName
	case u.LastName != "":
		return u.LastName
	default:
		return u.Email
	}
}

// Role groups permissions
type Role struct {
	ID          int64     `json:"id"`
	Name        string    `json:"name"`
	Description string    `json:"description"`
	Permissions []string  `json:"permissions"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// Has reports whether the role grants perm
func (r *Role) Has(perm string) bool {
	for _, p := range r.Permissions {
		if p == perm {
			return true
		}
	}
	return false
}

// Credentials pairs a user with its password hash, for authentication only
type Credentials struct {
	User
	PasswordHash string
}

// NewUser is the payload for creating a user
type NewUser struct {
	Email     string `json:"email"`
	Password  string `json:"password"`
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
	RoleID    int64  `json:"role_id"`
}

// UserUpdate is a partial update. Nil fields are left untouched.
type UserUpdate struct {
	Email     *string `json:"email,omitempty"`
	FirstName *string `json:"first_name,omitempty"`
	LastName  *string `json:"last_name,omitempty"`
	RoleID    *int64  `json:"role_id,omitempty"`
	IsActive  *bool   `json:"is_active,omitempty"`
}

// IsEmpty reports whether the update changes nothing
func (u UserUpdate) IsEmpty() bool {
	return u.Email == nil && u.FirstName == nil && u.LastName == nil && u.RoleID == nil && u.IsActive == nil
}

// NewRole is the payload for creating a role. A nil Permissions slice means "missing".
type NewRole struct {
	Name        string   `json:"name"`
	Description string   `json:"description"`
	Permissions []string `json:"permissions"`
}

// RoleUpdate is a partial update. Nil fields are left untouched.
type RoleUpdate struct {
	Name        *string   `json:"name,omitempty"`
	Description *string   `json:"description,omitempty"`
	Permissions *[]string `json:"permissions,omitempty"`
}

// IsEmpty reports whether the update changes nothing
func (u RoleUpdate) IsEmpty() bool {
	return u.Name == nil && u.Description == nil && u.Permissions == nil
}

// UserFilter narrows a user listing
type UserFilter struct {
	Query  string // Matches email, first or last name, case-insensitive
	RoleID int64  // 0 means any role
}

// BootstrapAdmin is an optional first administrator created at startup
type BootstrapAdmin struct {
	Email     string
	Password  string
	FirstName string
	LastName  string
}

// DefaultRoles are created when missing
func DefaultRoles() []NewRole {
	return []NewRole{
		{Name: "Admin", Description: "Full system access", Permissions: []string{PermUserManagement, PermRoleManagement, PermSystemSettings}},
		{Name: "User", Description: "Standard user access", Permissions: []string{PermBasicAccess}},
		{Name: "Manager", Description: "Manager level access", Permissions: []string{PermBasicAccess, PermTeamManagement}},
	}
}
