package model

import "time"

// Role is the access level assigned to an account at creation.
// The admin account is a singleton provisioned at startup; standard
// accounts may upgrade to creator exactly once and never back.
type Role int8

const (
	RoleAdmin    Role = 0
	RoleStandard Role = 1
	RoleCreator  Role = 2
)

func (r Role) String() string {
	switch r {
	case RoleAdmin:
		return "admin"
	case RoleStandard:
		return "standard"
	case RoleCreator:
		return "creator"
	default:
		return "unknown"
	}
}

// User represents an account in the system.
type User struct {
	ID           int64     `gorm:"primaryKey;autoIncrement" json:"id"`
	Name         string    `gorm:"size:100;not null" json:"name"`
	Email        string    `gorm:"size:255;not null;uniqueIndex" json:"email"`
	PasswordHash string    `gorm:"size:255;not null" json:"-"` // Not exposed in API responses
	Role         Role      `gorm:"not null;default:1" json:"role"`
	ProfilePic   string    `gorm:"size:767" json:"profilePic,omitempty"`
	Blacklisted  bool      `gorm:"not null;default:false" json:"blacklisted"`
	DarkMode     bool      `gorm:"not null;default:false" json:"darkMode"`
	CreatedAt    time.Time `json:"createdAt"`
	UpdatedAt    time.Time `json:"updatedAt"`
}

// TableName overrides the gorm default so raw SQL and AutoMigrate agree.
func (User) TableName() string { return "users" }
