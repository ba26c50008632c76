package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"cassette/model"
)

// UserRepository defines the interface for user data operations.
type UserRepository interface {
	CreateUser(ctx context.Context, user *model.User) (int64, error)
	GetUserByID(ctx context.Context, id int64) (*model.User, error)
	GetUserByEmail(ctx context.Context, email string) (*model.User, error)
	ListUsers(ctx context.Context) ([]*model.User, error)
	UpdateUserRole(ctx context.Context, id int64, role model.Role) error
	SetUserBlacklisted(ctx context.Context, id int64, blacklisted bool) error
	SetUserDarkMode(ctx context.Context, id int64, darkMode bool) error
	SetUserProfilePic(ctx context.Context, id int64, path string) error
	CountUsersByRole(ctx context.Context, role model.Role) (int64, error)
}

// mysqlUserRepository implements UserRepository for MySQL.
type mysqlUserRepository struct {
	db *sql.DB
}

// NewMySQLUserRepository creates a new mysqlUserRepository.
func NewMySQLUserRepository(db *sql.DB) UserRepository {
	return &mysqlUserRepository{db: db}
}

const userColumns = "id, name, email, password_hash, role, profile_pic, blacklisted, dark_mode, created_at, updated_at"

func scanUser(row interface{ Scan(...interface{}) error }) (*model.User, error) {
	user := &model.User{}
	var profilePic sql.NullString
	err := row.Scan(&user.ID, &user.Name, &user.Email, &user.PasswordHash, &user.Role,
		&profilePic, &user.Blacklisted, &user.DarkMode, &user.CreatedAt, &user.UpdatedAt)
	if err != nil {
		return nil, err
	}
	user.ProfilePic = profilePic.String
	return user, nil
}

// CreateUser adds a new user to the database.
func (r *mysqlUserRepository) CreateUser(ctx context.Context, user *model.User) (int64, error) {
	query := `INSERT INTO users (name, email, password_hash, role, profile_pic, blacklisted, dark_mode, created_at, updated_at)
	           VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`
	now := time.Now()
	res, err := r.db.ExecContext(ctx, query,
		user.Name, user.Email, user.PasswordHash, user.Role, user.ProfilePic,
		user.Blacklisted, user.DarkMode, now, now)
	if err != nil {
		return 0, fmt.Errorf("failed to execute create user statement: %w", err)
	}

	id, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("failed to get last insert ID for user: %w", err)
	}
	return id, nil
}

// GetUserByID retrieves a user by their ID.
func (r *mysqlUserRepository) GetUserByID(ctx context.Context, id int64) (*model.User, error) {
	query := "SELECT " + userColumns + " FROM users WHERE id = ?"
	user, err := scanUser(r.db.QueryRowContext(ctx, query, id))
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil // User not found
		}
		return nil, fmt.Errorf("failed to scan user row for ID %d: %w", id, err)
	}
	return user, nil
}

// GetUserByEmail retrieves a user by their email address.
func (r *mysqlUserRepository) GetUserByEmail(ctx context.Context, email string) (*model.User, error) {
	query := "SELECT " + userColumns + " FROM users WHERE email = ?"
	user, err := scanUser(r.db.QueryRowContext(ctx, query, email))
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil // User not found
		}
		return nil, fmt.Errorf("failed to scan user row for email %s: %w", email, err)
	}
	return user, nil
}

// ListUsers retrieves every user, newest first.
func (r *mysqlUserRepository) ListUsers(ctx context.Context) ([]*model.User, error) {
	query := "SELECT " + userColumns + " FROM users ORDER BY created_at DESC"
	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to query users: %w", err)
	}
	defer rows.Close()

	users := make([]*model.User, 0)
	for rows.Next() {
		user, err := scanUser(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan user in ListUsers: %w", err)
		}
		users = append(users, user)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("error during rows iteration in ListUsers: %w", err)
	}
	return users, nil
}

// UpdateUserRole changes a user's role.
func (r *mysqlUserRepository) UpdateUserRole(ctx context.Context, id int64, role model.Role) error {
	_, err := r.db.ExecContext(ctx, "UPDATE users SET role = ?, updated_at = NOW() WHERE id = ?", role, id)
	if err != nil {
		return fmt.Errorf("failed to update role for user %d: %w", id, err)
	}
	return nil
}

// SetUserBlacklisted sets the blacklist flag on a user.
func (r *mysqlUserRepository) SetUserBlacklisted(ctx context.Context, id int64, blacklisted bool) error {
	_, err := r.db.ExecContext(ctx, "UPDATE users SET blacklisted = ?, updated_at = NOW() WHERE id = ?", blacklisted, id)
	if err != nil {
		return fmt.Errorf("failed to update blacklist flag for user %d: %w", id, err)
	}
	return nil
}

// SetUserDarkMode sets the dark mode preference on a user.
func (r *mysqlUserRepository) SetUserDarkMode(ctx context.Context, id int64, darkMode bool) error {
	_, err := r.db.ExecContext(ctx, "UPDATE users SET dark_mode = ?, updated_at = NOW() WHERE id = ?", darkMode, id)
	if err != nil {
		return fmt.Errorf("failed to update dark mode for user %d: %w", id, err)
	}
	return nil
}

// SetUserProfilePic stores the profile picture path for a user.
func (r *mysqlUserRepository) SetUserProfilePic(ctx context.Context, id int64, path string) error {
	_, err := r.db.ExecContext(ctx, "UPDATE users SET profile_pic = ?, updated_at = NOW() WHERE id = ?", path, id)
	if err != nil {
		return fmt.Errorf("failed to update profile picture for user %d: %w", id, err)
	}
	return nil
}

// CountUsersByRole counts users holding the given role.
func (r *mysqlUserRepository) CountUsersByRole(ctx context.Context, role model.Role) (int64, error) {
	var count int64
	err := r.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM users WHERE role = ?", role).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("failed to count users by role %d: %w", role, err)
	}
	return count, nil
}
