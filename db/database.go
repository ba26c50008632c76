package db

import (
	"database/sql"
	"fmt"

	"cassette/config"
	"cassette/core/auth"
	"cassette/logger"
	"cassette/model"

	_ "github.com/go-sql-driver/mysql" // MySQL driver
)

// DB is the shared database handle used by the repositories.
var DB *sql.DB

// ConnectDB establishes a connection to the database.
func ConnectDB(cfg *config.Config) error {
	dsn := fmt.Sprintf("%s:%s@tcp(%s:%s)/%s?parseTime=true",
		cfg.DBUser, cfg.DBPassword, cfg.DBHost, cfg.DBPort, cfg.DBName)

	var err error
	DB, err = sql.Open("mysql", dsn)
	if err != nil {
		return fmt.Errorf("failed to open database connection: %w", err)
	}

	if err = DB.Ping(); err != nil {
		DB.Close()
		return fmt.Errorf("failed to ping database: %w", err)
	}

	logger.Info("connected to the database",
		logger.String("host", cfg.DBHost),
		logger.String("database", cfg.DBName))
	return nil
}

// CloseDB closes the shared database handle.
func CloseDB() error {
	if DB == nil {
		return nil
	}
	return DB.Close()
}

// EnsureAdmin provisions the singleton admin account if it is absent.
// The admin role value is 0 and is never assigned any other way.
func EnsureAdmin(cfg *config.Config) error {
	var existingID int64
	err := DB.QueryRow("SELECT id FROM users WHERE email = ?", cfg.AdminEmail).Scan(&existingID)
	if err == nil {
		logger.Info("admin account already provisioned", logger.Int64("userId", existingID))
		return nil
	}
	if err != sql.ErrNoRows {
		return fmt.Errorf("failed to check for admin account: %w", err)
	}

	if cfg.AdminPassword == "" {
		return fmt.Errorf("ADMIN_PASSWORD must be set to provision the admin account")
	}
	hash, err := auth.HashPassword(cfg.AdminPassword)
	if err != nil {
		return fmt.Errorf("failed to hash admin password: %w", err)
	}

	res, err := DB.Exec(
		"INSERT INTO users (name, email, password_hash, role, blacklisted, dark_mode, created_at, updated_at) VALUES (?, ?, ?, ?, false, false, NOW(), NOW())",
		cfg.AdminName, cfg.AdminEmail, hash, model.RoleAdmin)
	if err != nil {
		return fmt.Errorf("failed to insert admin account: %w", err)
	}

	id, err := res.LastInsertId()
	if err != nil {
		return fmt.Errorf("failed to get admin account id: %w", err)
	}
	logger.Info("admin account provisioned", logger.Int64("userId", id))
	return nil
}
