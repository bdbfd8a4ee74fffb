package models

import "time"

// Role is a user's permission level.
type Role string

const (
	RoleAdmin Role = "admin"
	RoleUser  Role = "user"
)

// User represents an account in the user directory. Password holds the
// bcrypt hash that acts as the credential handle.
type User struct {
	Base
	Name                string     `gorm:"not null" json:"name"`
	Email               string     `gorm:"uniqueIndex;not null" json:"email"`
	Mobile              string     `json:"mobile,omitempty"`
	Role                Role       `gorm:"not null;default:user" json:"role"`
	Password            string     `gorm:"not null" json:"-"`
	ForcePasswordChange bool       `gorm:"not null;default:false" json:"force_password_change"`
	RecoveryCodeHash    string     `json:"-"`
	FailedLoginAttempts int        `gorm:"default:0" json:"-"`
	LockedUntil         *time.Time `json:"-"`
	LastLoginAt         *time.Time `json:"last_login_at,omitempty"`
}

// IsAdmin reports whether the user has the admin role.
func (u *User) IsAdmin() bool {
	return u.Role == RoleAdmin
}
