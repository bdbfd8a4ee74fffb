package models

import (
	"time"

	"framex/internal/uuid"

	"gorm.io/gorm"
)

// Base contains common columns for all tables. IDs are time-ordered, so
// ordering by id reproduces insertion order.
type Base struct {
	ID        string    `gorm:"type:uuid;primaryKey" json:"id"`
	CreatedAt time.Time `gorm:"not null" json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// BeforeCreate hook generates a UUIDv7 for new records
func (b *Base) BeforeCreate(tx *gorm.DB) error {
	if b.ID == "" {
		b.ID = uuid.New()
	}
	return nil
}

// All lists every persisted model, in dependency order, for AutoMigrate.
func All() []any {
	return []any{
		&User{},
		&CompanyInfo{},
		&MasterData{},
		&Entry{},
		&AuditLog{},
	}
}
