package services

import (
	"fmt"

	"gorm.io/gorm"

	"framex/internal/config"
	"framex/internal/models"
)

// VisibilityRule decides which entries a non-admin user may see. Admins
// always see every entry.
type VisibilityRule string

const (
	// VisibilityPaidBy shows entries the user paid or received.
	VisibilityPaidBy VisibilityRule = config.VisibilityPaidBy
	// VisibilityPaidByOrCreated also shows entries the user recorded for others.
	VisibilityPaidByOrCreated VisibilityRule = config.VisibilityPaidByOrCreated
)

// ParseVisibilityRule converts a configuration value into a rule.
func ParseVisibilityRule(s string) (VisibilityRule, error) {
	switch r := VisibilityRule(s); r {
	case VisibilityPaidBy, VisibilityPaidByOrCreated:
		return r, nil
	case "":
		return VisibilityPaidBy, nil
	}
	return "", fmt.Errorf("unknown visibility rule %q", s)
}

// Allows reports whether user may see entry.
func (r VisibilityRule) Allows(user *models.User, entry *models.Entry) bool {
	if user == nil || entry == nil {
		return false
	}
	if user.IsAdmin() || entry.PaidBy == user.ID {
		return true
	}
	return r == VisibilityPaidByOrCreated && entry.CreatedBy == user.ID
}

// Scope returns a GORM scope restricting an entries query to what user may see.
func (r VisibilityRule) Scope(user *models.User) func(db *gorm.DB) *gorm.DB {
	return func(db *gorm.DB) *gorm.DB {
		switch {
		case user == nil:
			return db.Where("1 = 0")
		case user.IsAdmin():
			return db
		case r == VisibilityPaidByOrCreated:
			return db.Where("(paid_by = ? OR created_by = ?)", user.ID, user.ID)
		default:
			return db.Where("paid_by = ?", user.ID)
		}
	}
}
