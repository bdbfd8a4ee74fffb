package models

import "time"

// CompanyInfoID is the fixed primary key of the company singleton.
const CompanyInfoID = 1

// CompanyInfo holds the details captured during initial setup.
type CompanyInfo struct {
	ID          uint      `gorm:"primaryKey;autoIncrement:false" json:"id"`
	Name        string    `gorm:"not null" json:"name"`
	Address     string    `json:"address"`
	TaxCountry  string    `json:"tax_country"`
	TaxIDType   string    `json:"tax_id_type"`
	TaxIDNumber string    `json:"tax_id_number"`
	LogoKey     string    `json:"-"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// TableName keeps the singular table name used by the migrations.
func (CompanyInfo) TableName() string {
	return "company_info"
}
