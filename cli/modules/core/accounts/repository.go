package accounts

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/fpokrzywa/weaver-live/cli/modules/platform/database"
)

const userColumns = `u.id, u.email, u.first_name, u.last_name, u.role_id, COALESCE(r.name, ''),
	u.is_active, u.created_at, u.updated_at, u.last_login`

const userFrom = ` FROM users u LEFT JOIN roles r ON r.id = u.role_id`

const roleColumns = `id, name, description, permissions, created_at, updated_at`

// Repository persists users and roles
type Repository struct {
	db *database.DB
}

// NewRepository creates a repository on db
func NewRepository(db *database.DB) *Repository {
	return &Repository{db: db}
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanUser(row rowScanner, extra ...any) (*User, error) {
	var (
		u         User
		lastLogin sql.NullTime
	)
	dest := []any{&u.ID, &u.Email, &u.FirstName, &u.LastName, &u.RoleID, &u.RoleName,
		&u.IsActive, &u.CreatedAt, &u.UpdatedAt, &lastLogin}
	if err := row.Scan(append(dest, extra...)...); err != nil {
		return nil, err
	}
	if lastLogin.Valid {
		t := lastLogin.Time
		u.LastLogin = &t
	}
	return &u, nil
}

func scanRole(row rowScanner) (*Role, error) {
	var (
		r     Role
		perms string
	)
	if err := row.Scan(&r.ID, &r.Name, &r.Description, &perms, &r.CreatedAt, &r.UpdatedAt); err != nil {
		return nil, err
	}
	if err := json.Unmarshal([]byte(perms), &r.Permissions); err != nil {
		return nil, fmt.Errorf("role %d has malformed permissions: %w", r.ID, err)
	}
	if r.Permissions == nil {
		r.Permissions = []string{}
	}
	return &r, nil
}

// ListUsers returns users newest first
func (r *Repository) ListUsers(ctx context.Context, f UserFilter) ([]User, error) {
	query := `SELECT ` + userColumns + userFrom
	var (
		where []string
		args  []any
	)
	if q := strings.TrimSpace(f.Query); q != "" {
		like := "%" + strings.ToLower(q) + "%"
		where = append(where, `(LOWER(u.email) LIKE ? OR LOWER(u.first_name) LIKE ? OR LOWER(u.last_name) LIKE ?)`)
		args = append(args, like, like, like)
	}
	if f.RoleID != 0 {
		where = append(where, `u.role_id = ?`)
		args = append(args, f.RoleID)
	}
	if len(where) > 0 {
		query += ` WHERE ` + strings.Join(where, " AND ")
	}
	query += ` ORDER BY u.created_at DESC, u.id DESC`

	rows, err := r.db.QueryContext(ctx, r.db.Rebind(query), args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	users := make([]User, 0)
	for rows.Next() {
		u, err := scanUser(rows)
		if err != nil {
			return nil, err
		}
		users = append(users, *u)
	}
	return users, rows.Err()
}

// GetUser returns a user by id
func (r *Repository) GetUser(ctx context.Context, id int64) (*User, error) {
	row := r.db.QueryRowContext(ctx, r.db.Rebind(`SELECT `+userColumns+userFrom+` WHERE u.id = ?`), id)
	u, err := scanUser(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrUserNotFound
	}
	return u, err
}

// GetCredentials returns a user and its password hash by email
func (r *Repository) GetCredentials(ctx context.Context, email string) (*Credentials, error) {
	var c Credentials
	row := r.db.QueryRowContext(ctx, r.db.Rebind(`SELECT `+userColumns+`, u.password_hash`+userFrom+` WHERE LOWER(u.email) = ?`),
		strings.ToLower(email))
	u, err := scanUser(row, &c.PasswordHash)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrUserNotFound
	}
	if err != nil {
		return nil, err
	}
	c.User = *u
	return &c, nil
}

// CreateUser inserts a user with an already hashed password
func (r *Repository) CreateUser(ctx context.Context, in NewUser, passwordHash string) (*User, error) {
	now := database.Now()
	var id int64
	err := r.db.QueryRowContext(ctx, r.db.Rebind(`
		INSERT INTO users (email, password_hash, first_name, last_name, role_id, is_active, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?) RETURNING id`),
		in.Email, passwordHash, in.FirstName, in.LastName, in.RoleID, true, now, now,
	).Scan(&id)
	if err != nil {
		if database.IsUniqueViolation(err) {
			return nil, ErrEmailExists
		}
		return nil, err
	}
	return r.GetUser(ctx, id)
}

// UpdateUser applies a partial update and bumps updated_at
func (r *Repository) UpdateUser(ctx context.Context, id int64, in UserUpdate) (*User, error) {
	if in.IsEmpty() {
		return r.GetUser(ctx, id)
	}

	var (
		sets []string
		args []any
	)
	if in.Email != nil {
		sets, args = append(sets, "email = ?"), append(args, *in.Email)
	}
	if in.FirstName != nil {
		sets, args = append(sets, "first_name = ?"), append(args, *in.FirstName)
	}
	if in.LastName != nil {
		sets, args = append(sets, "last_name = ?"), append(args, *in.LastName)
	}
	if in.RoleID != nil {
		sets, args = append(sets, "role_id = ?"), append(args, *in.RoleID)
	}
	if in.IsActive != nil {
		sets, args = append(sets, "is_active = ?"), append(args, *in.IsActive)
	}
	sets, args = append(sets, "updated_at = ?"), append(args, database.Now())
	args = append(args, id)

	res, err := r.db.ExecContext(ctx, r.db.Rebind(`UPDATE users SET `+strings.Join(sets, ", ")+` WHERE id = ?`), args...)
	if err != nil {
		if database.IsUniqueViolation(err) {
			return nil, ErrEmailExists
		}
		return nil, err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return nil, ErrUserNotFound
	}
	return r.GetUser(ctx, id)
}

// DeleteUser removes a user
func (r *Repository) DeleteUser(ctx context.Context, id int64) error {
	res, err := r.db.ExecContext(ctx, r.db.Rebind(`DELETE FROM users WHERE id = ?`), id)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrUserNotFound
	}
	return nil
}

// TouchLastLogin records a successful sign-in
func (r *Repository) TouchLastLogin(ctx context.Context, id int64, at time.Time) error {
	_, err := r.db.ExecContext(ctx, r.db.Rebind(`UPDATE users SET last_login = ? WHERE id = ?`), at, id)
	return err
}

// CountUsers returns the number of users
func (r *Repository) CountUsers(ctx context.Context) (int, error) {
	var n int
	err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM users`).Scan(&n)
	return n, err
}

// ListRoles returns roles ordered by name
func (r *Repository) ListRoles(ctx context.Context) ([]Role, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT `+roleColumns+` FROM roles ORDER BY name`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	roles := make([]Role, 0)
	for rows.Next() {
		role, err := scanRole(rows)
		if err != nil {
			return nil, err
		}
		roles = append(roles, *role)
	}
	return roles, rows.Err()
}

// GetRole returns a role by id
func (r *Repository) GetRole(ctx context.Context, id int64) (*Role, error) {
	row := r.db.QueryRowContext(ctx, r.db.Rebind(`SELECT `+roleColumns+` FROM roles WHERE id = ?`), id)
	role, err := scanRole(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrRoleNotFound
	}
	return role, err
}

// GetRoleByName returns a role by exact name
func (r *Repository) GetRoleByName(ctx context.Context, name string) (*Role, error) {
	row := r.db.QueryRowContext(ctx, r.db.Rebind(`SELECT `+roleColumns+` FROM roles WHERE name = ?`), name)
	role, err := scanRole(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrRoleNotFound
	}
	return role, err
}

// CreateRole inserts a role
func (r *Repository) CreateRole(ctx context.Context, in NewRole) (*Role, error) {
	perms, err := json.Marshal(in.Permissions)
	if err != nil {
		return nil, err
	}

	now := database.Now()
	var id int64
	err = r.db.QueryRowContext(ctx, r.db.Rebind(`
		INSERT INTO roles (name, description, permissions, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?) RETURNING id`),
		in.Name, in.Description, string(perms), now, now,
	).Scan(&id)
	if err != nil {
		if database.IsUniqueViolation(err) {
			return nil, ErrRoleNameExists
		}
		return nil, err
	}
	return r.GetRole(ctx, id)
}

// UpdateRole applies a partial update and bumps updated_at
func (r *Repository) UpdateRole(ctx context.Context, id int64, in RoleUpdate) (*Role, error) {
	if in.IsEmpty() {
		return r.GetRole(ctx, id)
	}

	var (
		sets []string
		args []any
	)
	if in.Name != nil {
		sets, args = append(sets, "name = ?"), append(args, *in.Name)
	}
	if in.Description != nil {
		sets, args = append(sets, "description = ?"), append(args, *in.Description)
	}
	if in.Permissions != nil {
		perms, err := json.Marshal(*in.Permissions)
		if err != nil {
			return nil, err
		}
		sets, args = append(sets, "permissions = ?"), append(args, string(perms))
	}
	sets, args = append(sets, "updated_at = ?"), append(args, database.Now())
	args = append(args, id)

	res, err := r.db.ExecContext(ctx, r.db.Rebind(`UPDATE roles SET `+strings.Join(sets, ", ")+` WHERE id = ?`), args...)
	if err != nil {
		if database.IsUniqueViolation(err) {
			return nil, ErrRoleNameExists
		}
		return nil, err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return nil, ErrRoleNotFound
	}
	return r.GetRole(ctx, id)
}

// DeleteRole removes a role unless users still reference it
func (r *Repository) DeleteRole(ctx context.Context, id int64) error {
	return r.db.WithTx(ctx, func(tx *sql.Tx) error {
		var n int
		if err := tx.QueryRowContext(ctx, r.db.Rebind(`SELECT COUNT(*) FROM users WHERE role_id = ?`), id).Scan(&n); err != nil {
			return err
		}
		if n > 0 {
			return ErrRoleInUse
		}

		res, err := tx.ExecContext(ctx, r.db.Rebind(`DELETE FROM roles WHERE id = ?`), id)
		if err != nil {
			return err
		}
		if n, _ := res.RowsAffected(); n == 0 {
			return ErrRoleNotFound
		}
		return nil
	})
}
