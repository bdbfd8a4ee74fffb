package services

import (
	"context"
	"io"
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"framex/internal/export"
	"framex/internal/models"
	"framex/internal/pagination"
	"framex/internal/report"
)

// UserDraft carries the editable fields of a user account.
type UserDraft struct {
	Name   string
	Email  string
	Mobile string
	Role   models.Role
}

// SetupResult is returned once, when the first admin is created.
type SetupResult struct {
	User         *models.User        `json:"user"`
	Company      *models.CompanyInfo `json:"company"`
	RecoveryCode string              `json:"recovery_code"`
}

// UserServicer defines the contract for the user directory.
type UserServicer interface {
	CreateUser(draft UserDraft) (*models.User, string, error)
	SignUp(name, email, password string) (*models.User, error)
	Setup(admin UserDraft, password string, company CompanyDraft) (*SetupResult, error)
	UpdateUser(id string, draft UserDraft) (*models.User, error)
	DeleteUser(id string) error
	GetUserByID(id string) (*models.User, error)
	GetUserByEmail(email string) (*models.User, error)
	ListUsers() ([]models.User, error)
	CountUsers() (int64, error)
	Authenticate(email, password string) (*models.User, error)
	AttemptLogin(email, password string) (*models.User, error)
	ChangePassword(id, currentPassword, newPassword string) (*models.User, error)
	ResetPassword(email, recoveryCode, newPassword string) (string, error)
}

// MasterDataServicer defines the contract for the reference data store.
type MasterDataServicer interface {
	ListMasterData(typ models.MasterDataType) ([]models.MasterData, error)
	ListAllMasterData() (map[models.MasterDataType][]models.MasterData, error)
	CreateMasterData(typ models.MasterDataType, name string) (*models.MasterData, error)
	UpdateMasterData(typ models.MasterDataType, id, name string) (*models.MasterData, error)
	DeleteMasterData(typ models.MasterDataType, id string) error
	EnsureParty(tx *gorm.DB, name string) (*models.MasterData, bool, error)
}

// EntryDraft carries the replaceable fields of a ledger entry.
type EntryDraft struct {
	TransactionType  models.TransactionType
	Party            string
	Amount           decimal.Decimal
	ExpenseNature    string
	CostCenter       string
	ProjectCode      string
	ExpensesCategory string
	PaidBy           string
}

// EntryFilter holds optional filter parameters for listing entries.
type EntryFilter struct {
	FromDate         *time.Time
	ToDate           *time.Time
	Type             *models.TransactionType
	ExpensesCategory *string
	CostCenter       *string
	ProjectCode      *string
	PaidBy           *string
}

// EntryServicer defines the contract for the ledger.
type EntryServicer interface {
	CreateEntry(draft EntryDraft, createdBy string) (*models.Entry, error)
	UpdateEntry(user *models.User, id string, draft EntryDraft) (*models.Entry, error)
	DeleteEntry(user *models.User, id string) error
	GetEntryByID(user *models.User, id string) (*models.Entry, error)
	VisibleTo(user *models.User) ([]models.Entry, error)
	ListVisible(user *models.User, page pagination.PageRequest, filter EntryFilter) (*pagination.PageResponse[models.Entry], error)
}

// CompanyDraft carries the editable company fields.
type CompanyDraft struct {
	Name        string
	Address     string
	TaxCountry  string
	TaxIDType   string
	TaxIDNumber string
}

// LogoStore persists company logo images.
type LogoStore interface {
	Upload(ctx context.Context, key string, body io.Reader, contentType string, size int64) (string, error)
	Delete(ctx context.Context, key string) error
	GeneratePresignedURL(ctx context.Context, key string, expiry time.Duration) (string, error)
}

// CompanyServicer defines the contract for the company singleton.
type CompanyServicer interface {
	IsSetupRequired() (bool, error)
	GetCompanyInfo() (*models.CompanyInfo, error)
	UpdateCompanyInfo(draft CompanyDraft) (*models.CompanyInfo, error)
	SetLogo(ctx context.Context, data []byte) (*models.CompanyInfo, error)
	LogoURL(ctx context.Context) (string, error)
}

// Summary is the analytics view over the entries visible to one user.
type Summary struct {
	ByCategory    []report.Point  `json:"by_category"`
	ByMonth       []report.Point  `json:"by_month"`
	TotalPayments decimal.Decimal `json:"total_payments"`
	TotalReceipts decimal.Decimal `json:"total_receipts"`
	EntryCount    int             `json:"entry_count"`
}

// Bootstrap is everything a client needs to render its first screen.
type Bootstrap struct {
	User       *models.User                                  `json:"user"`
	Users      []models.User                                 `json:"users"`
	Entries    []models.Entry                                `json:"entries"`
	Company    *models.CompanyInfo                           `json:"company"`
	MasterData map[models.MasterDataType][]models.MasterData `json:"master_data"`
}

// AnalyticsServicer combines ledger visibility with reporting and export.
type AnalyticsServicer interface {
	Summary(user *models.User) (*Summary, error)
	Export(user *models.User, format export.Format) ([]byte, error)
	Bootstrap(ctx context.Context, user *models.User) (*Bootstrap, error)
}

// AuditServicer defines the contract for audit logging.
type AuditServicer interface {
	Log(userID, action, resourceType, resourceID, ipAddress string, changes map[string]interface{})
}
