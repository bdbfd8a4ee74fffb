package models

import "github.com/shopspring/decimal"

// TransactionType distinguishes money going out from money coming in.
type TransactionType string

const (
	TransactionTypePayment TransactionType = "payment"
	TransactionTypeReceipt TransactionType = "receipt"
)

// Valid reports whether t is a known transaction type.
func (t TransactionType) Valid() bool {
	return t == TransactionTypePayment || t == TransactionTypeReceipt
}

// Entry is one payment or receipt in the ledger. Master data values are
// stored by name, so renaming a value leaves historical entries untouched.
type Entry struct {
	Base
	TransactionType  TransactionType `gorm:"not null;index" json:"transaction_type"`
	Party            string          `gorm:"not null;index" json:"party"`
	Amount           decimal.Decimal `gorm:"type:decimal(14,2);not null" json:"amount"`
	ExpenseNature    string          `json:"expense_nature"`
	CostCenter       string          `gorm:"not null;index" json:"cost_center"`
	ProjectCode      string          `gorm:"not null;index" json:"project_code"`
	ExpensesCategory string          `gorm:"not null;index" json:"expenses_category"`
	PaidBy           string          `gorm:"type:uuid;not null;index" json:"paid_by"`
	CreatedBy        string          `gorm:"type:uuid;not null;index" json:"created_by"`
}

// IsPayment reports whether the entry is a payment.
func (e *Entry) IsPayment() bool {
	return e.TransactionType == TransactionTypePayment
}
