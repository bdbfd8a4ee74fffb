package testutil

import (
	"fmt"
	"strings"
	"sync/atomic"
	"testing"

	"framex/internal/models"

	"github.com/shopspring/decimal"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

// TestPassword is the plain-text password of every fixture user.
const TestPassword = "password123"

// counter provides unique values across fixtures within a test run.
var counter atomic.Int64

func nextID() int64 {
	return counter.Add(1)
}

// CreateTestUser creates a regular user with a hashed password and unique email.
func CreateTestUser(t *testing.T, db *gorm.DB) *models.User {
	t.Helper()
	email := fmt.Sprintf("user%d@test.com", nextID())
	return CreateTestUserWithRole(t, db, email, models.RoleUser)
}

// CreateTestAdmin creates an admin user with a unique email.
func CreateTestAdmin(t *testing.T, db *gorm.DB) *models.User {
	t.Helper()
	email := fmt.Sprintf("admin%d@test.com", nextID())
	return CreateTestUserWithRole(t, db, email, models.RoleAdmin)
}

// CreateTestUserWithRole creates a user with the given email and role.
func CreateTestUserWithRole(t *testing.T, db *gorm.DB, email string, role models.Role) *models.User {
	t.Helper()

	hash, err := bcrypt.GenerateFromPassword([]byte(TestPassword), bcrypt.MinCost)
	if err != nil {
		t.Fatalf("failed to hash password: %v", err)
	}

	user := &models.User{
		Name:     "Test " + strings.SplitN(email, "@", 2)[0],
		Email:    strings.ToLower(email),
		Role:     role,
		Password: string(hash),
	}
	if err := db.Create(user).Error; err != nil {
		t.Fatalf("failed to create test user: %v", err)
	}
	return user
}

// CreateTestMasterData creates a master data value of the given type.
// An empty name gets a unique generated one.
func CreateTestMasterData(t *testing.T, db *gorm.DB, typ models.MasterDataType, name string) *models.MasterData {
	t.Helper()

	if name == "" {
		name = fmt.Sprintf("Test %s %d", typ, nextID())
	}
	item := &models.MasterData{Type: typ, Name: name}
	if err := db.Create(item).Error; err != nil {
		t.Fatalf("failed to create test master data: %v", err)
	}
	return item
}

// MasterSet is one value of each entry-referenced master data type.
type MasterSet struct {
	CostCenter  *models.MasterData
	ProjectCode *models.MasterData
	Category    *models.MasterData
	Party       *models.MasterData
}

// CreateTestMasterSet creates one value of every master data type.
func CreateTestMasterSet(t *testing.T, db *gorm.DB) MasterSet {
	t.Helper()
	return MasterSet{
		CostCenter:  CreateTestMasterData(t, db, models.MasterDataCostCenter, ""),
		ProjectCode: CreateTestMasterData(t, db, models.MasterDataProjectCode, ""),
		Category:    CreateTestMasterData(t, db, models.MasterDataExpensesCategory, ""),
		Party:       CreateTestMasterData(t, db, models.MasterDataParty, ""),
	}
}

// CreateTestEntry inserts an entry directly, bypassing service validation.
func CreateTestEntry(t *testing.T, db *gorm.DB, set MasterSet, paidBy, createdBy string, txType models.TransactionType, amount string) *models.Entry {
	t.Helper()

	entry := &models.Entry{
		TransactionType:  txType,
		Party:            set.Party.Name,
		Amount:           decimal.RequireFromString(amount),
		ExpenseNature:    fmt.Sprintf("Test entry %d", nextID()),
		CostCenter:       set.CostCenter.Name,
		ProjectCode:      set.ProjectCode.Name,
		ExpensesCategory: set.Category.Name,
		PaidBy:           paidBy,
		CreatedBy:        createdBy,
	}
	if err := db.Create(entry).Error; err != nil {
		t.Fatalf("failed to create test entry: %v", err)
	}
	return entry
}

// CreateTestCompany stores the singleton company row, completing setup.
func CreateTestCompany(t *testing.T, db *gorm.DB) *models.CompanyInfo {
	t.Helper()

	company := &models.CompanyInfo{
		ID:         models.CompanyInfoID,
		Name:       "Test Company",
		Address:    "1 Test Street",
		TaxCountry: "IN",
	}
	if err := db.Create(company).Error; err != nil {
		t.Fatalf("failed to create test company: %v", err)
	}
	return company
}
