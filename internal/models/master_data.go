package models

import "fmt"

// MasterDataType identifies one of the four reference-value categories.
type MasterDataType string

const (
	MasterDataCostCenter       MasterDataType = "cost_center"
	MasterDataProjectCode      MasterDataType = "project_code"
	MasterDataExpensesCategory MasterDataType = "expenses_category"
	MasterDataParty            MasterDataType = "party"
)

// MasterDataTypes lists the categories in display order.
var MasterDataTypes = []MasterDataType{
	MasterDataCostCenter,
	MasterDataProjectCode,
	MasterDataExpensesCategory,
	MasterDataParty,
}

// Valid reports whether t is a known category.
func (t MasterDataType) Valid() bool {
	for _, known := range MasterDataTypes {
		if t == known {
			return true
		}
	}
	return false
}

// EntryColumn returns the entries column that stores names of this type.
func (t MasterDataType) EntryColumn() (string, error) {
	switch t {
	case MasterDataCostCenter:
		return "cost_center", nil
	case MasterDataProjectCode:
		return "project_code", nil
	case MasterDataExpensesCategory:
		return "expenses_category", nil
	case MasterDataParty:
		return "party", nil
	}
	return "", fmt.Errorf("unknown master data type %q", t)
}

// MasterData is a named lookup value (cost center, project code, expenses
// category or party). Names are unique per type, ignoring case.
type MasterData struct {
	Base
	Type MasterDataType `gorm:"not null;index:idx_master_data_type" json:"type"`
	Name string         `gorm:"not null" json:"name"`
}

// TableName keeps the singular table name used by the migrations.
func (MasterData) TableName() string {
	return "master_data"
}
