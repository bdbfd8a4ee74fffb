package services

import (
	"errors"
	"strings"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	apperrors "framex/internal/errors"
	"framex/internal/models"
	"framex/internal/pagination"
	"framex/internal/uuid"
)

// MaxEntryAmount is the exclusive upper bound of an entry amount; the
// amount column is NUMERIC(14,2).
var MaxEntryAmount = decimal.New(1, 12)

// entryService handles ledger entries.
type entryService struct {
	db         *gorm.DB
	masterData MasterDataServicer
	rule       VisibilityRule
}

// NewEntryService creates a new EntryServicer. Parties named on entries are
// registered through masterData; rule decides non-admin visibility.
func NewEntryService(db *gorm.DB, masterData MasterDataServicer, rule VisibilityRule) EntryServicer {
	return &entryService{db: db, masterData: masterData, rule: rule}
}

// newestFirst is the canonical display order of the ledger.
func newestFirst(db *gorm.DB) *gorm.DB {
	return db.Order("created_at DESC").Order("id DESC")
}

// normalizeDraft trims text fields and checks the entry invariants.
func normalizeDraft(draft *EntryDraft) error {
	draft.Party = strings.TrimSpace(draft.Party)
	draft.ExpenseNature = strings.TrimSpace(draft.ExpenseNature)
	draft.CostCenter = strings.TrimSpace(draft.CostCenter)
	draft.ProjectCode = strings.TrimSpace(draft.ProjectCode)
	draft.ExpensesCategory = strings.TrimSpace(draft.ExpensesCategory)
	draft.PaidBy = strings.TrimSpace(draft.PaidBy)

	if !draft.TransactionType.Valid() {
		return apperrors.WithMessage(apperrors.ErrInvalidInput, "transaction_type must be payment or receipt")
	}

	var missing []string
	for _, f := range []struct{ name, value string }{
		{"party", draft.Party},
		{"cost_center", draft.CostCenter},
		{"project_code", draft.ProjectCode},
		{"expenses_category", draft.ExpensesCategory},
		{"paid_by", draft.PaidBy},
	} {
		if f.value == "" {
			missing = append(missing, f.name)
		}
	}
	if len(missing) > 0 {
		return apperrors.WithMessagef(apperrors.ErrInvalidInput, "missing required fields: %s", strings.Join(missing, ", "))
	}

	if !uuid.IsValid(draft.PaidBy) {
		return apperrors.WithMessage(apperrors.ErrInvalidInput, "paid_by must be a user id")
	}
	if !draft.Amount.IsPositive() {
		return apperrors.WithMessage(apperrors.ErrInvalidInput, "amount must be greater than zero")
	}
	if draft.Amount.GreaterThanOrEqual(MaxEntryAmount) {
		return apperrors.WithMessagef(apperrors.ErrInvalidInput, "amount must be less than %s", MaxEntryAmount.String())
	}
	if !draft.Amount.Equal(draft.Amount.Round(2)) {
		return apperrors.WithMessage(apperrors.ErrInvalidInput, "amount must have at most two decimal places")
	}
	return nil
}

// resolveReferences checks that paid_by and the three admin-managed master
// values exist, and rewrites the names to their stored spelling.
func resolveReferences(tx *gorm.DB, draft *EntryDraft) error {
	var users int64
	if err := tx.Model(&models.User{}).Where("id = ?", draft.PaidBy).Count(&users).Error; err != nil {
		return apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	if users == 0 {
		return apperrors.WithMessage(apperrors.ErrInvalidInput, "paid_by does not match any user")
	}

	for _, ref := range []struct {
		typ  models.MasterDataType
		name *string
	}{
		{models.MasterDataCostCenter, &draft.CostCenter},
		{models.MasterDataProjectCode, &draft.ProjectCode},
		{models.MasterDataExpensesCategory, &draft.ExpensesCategory},
	} {
		item, err := findByName(tx, ref.typ, *ref.name, "")
		if err != nil {
			return err
		}
		if item == nil {
			return apperrors.WithMessagef(apperrors.ErrInvalidInput, "unknown %s %q", ref.typ, *ref.name)
		}
		*ref.name = item.Name
	}
	return nil
}

// CreateEntry records a new entry. Registering an unknown party and
// inserting the entry happen in one transaction.
func (s *entryService) CreateEntry(draft EntryDraft, createdBy string) (*models.Entry, error) {
	if err := normalizeDraft(&draft); err != nil {
		return nil, err
	}
	if createdBy == "" {
		return nil, apperrors.ErrUnauthorized
	}

	var entry *models.Entry
	err := s.db.Transaction(func(tx *gorm.DB) error {
		if err := resolveReferences(tx, &draft); err != nil {
			return err
		}
		party, _, err := s.masterData.EnsureParty(tx, draft.Party)
		if err != nil {
			return err
		}

		entry = &models.Entry{
			TransactionType:  draft.TransactionType,
			Party:            party.Name,
			Amount:           draft.Amount,
			ExpenseNature:    draft.ExpenseNature,
			CostCenter:       draft.CostCenter,
			ProjectCode:      draft.ProjectCode,
			ExpensesCategory: draft.ExpensesCategory,
			PaidBy:           draft.PaidBy,
			CreatedBy:        createdBy,
		}
		if err := tx.Create(entry).Error; err != nil {
			return apperrors.Wrap(apperrors.ErrInternalServer, err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return entry, nil
}

func (s *entryService) findVisible(db *gorm.DB, user *models.User, id string) (*models.Entry, error) {
	var entry models.Entry
	if err := db.Scopes(s.rule.Scope(user)).Where("id = ?", id).First(&entry).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.ErrEntryNotFound
		}
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return &entry, nil
}

// GetEntryByID returns an entry the user may see. Entries outside the
// user's visibility are reported as not found.
func (s *entryService) GetEntryByID(user *models.User, id string) (*models.Entry, error) {
	return s.findVisible(s.db, user, id)
}

// UpdateEntry replaces every mutable field of an entry. ID, created_at and
// created_by are preserved.
func (s *entryService) UpdateEntry(user *models.User, id string, draft EntryDraft) (*models.Entry, error) {
	if err := normalizeDraft(&draft); err != nil {
		return nil, err
	}

	var entry *models.Entry
	err := s.db.Transaction(func(tx *gorm.DB) error {
		var err error
		entry, err = s.findVisible(tx, user, id)
		if err != nil {
			return err
		}
		if err := resolveReferences(tx, &draft); err != nil {
			return err
		}
		party, _, err := s.masterData.EnsureParty(tx, draft.Party)
		if err != nil {
			return err
		}

		entry.TransactionType = draft.TransactionType
		entry.Party = party.Name
		entry.Amount = draft.Amount
		entry.ExpenseNature = draft.ExpenseNature
		entry.CostCenter = draft.CostCenter
		entry.ProjectCode = draft.ProjectCode
		entry.ExpensesCategory = draft.ExpensesCategory
		entry.PaidBy = draft.PaidBy
		if err := tx.Save(entry).Error; err != nil {
			return apperrors.Wrap(apperrors.ErrInternalServer, err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return entry, nil
}

// DeleteEntry removes an entry the user may see.
func (s *entryService) DeleteEntry(user *models.User, id string) error {
	return s.db.Transaction(func(tx *gorm.DB) error {
		entry, err := s.findVisible(tx, user, id)
		if err != nil {
			return err
		}
		if err := tx.Delete(&models.Entry{}, "id = ?", entry.ID).Error; err != nil {
			return apperrors.Wrap(apperrors.ErrInternalServer, err)
		}
		return nil
	})
}

// VisibleTo returns every entry the user may see, newest first.
func (s *entryService) VisibleTo(user *models.User) ([]models.Entry, error) {
	var entries []models.Entry
	if err := s.db.Scopes(s.rule.Scope(user), newestFirst).Find(&entries).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	if entries == nil {
		entries = []models.Entry{}
	}
	return entries, nil
}

// applyEntryFilter applies optional filters to an entries query.
func applyEntryFilter(q *gorm.DB, filter EntryFilter) *gorm.DB {
	if filter.FromDate != nil {
		q = q.Where("created_at >= ?", *filter.FromDate)
	}
	if filter.ToDate != nil {
		q = q.Where("created_at <= ?", *filter.ToDate)
	}
	if filter.Type != nil {
		q = q.Where("transaction_type = ?", *filter.Type)
	}
	if filter.ExpensesCategory != nil {
		q = q.Where("expenses_category = ?", *filter.ExpensesCategory)
	}
	if filter.CostCenter != nil {
		q = q.Where("cost_center = ?", *filter.CostCenter)
	}
	if filter.ProjectCode != nil {
		q = q.Where("project_code = ?", *filter.ProjectCode)
	}
	if filter.PaidBy != nil {
		q = q.Where("paid_by = ?", *filter.PaidBy)
	}
	return q
}

// ListVisible returns one page of the entries the user may see, newest first.
func (s *entryService) ListVisible(user *models.User, page pagination.PageRequest, filter EntryFilter) (*pagination.PageResponse[models.Entry], error) {
	page.Defaults()

	base := applyEntryFilter(s.rule.Scope(user)(s.db.Model(&models.Entry{})), filter)

	var totalItems int64
	if err := base.Count(&totalItems).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	var entries []models.Entry
	if err := base.Scopes(newestFirst, pagination.Paginate(page)).Find(&entries).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	result := pagination.NewPageResponse(entries, page.Page, page.PageSize, totalItems)
	return &result, nil
}
