package services

import (
	"errors"
	"strings"

	"gorm.io/gorm"

	apperrors "framex/internal/errors"
	"framex/internal/models"
)

// masterDataService handles the four reference-value collections.
type masterDataService struct {
	db *gorm.DB
}

// NewMasterDataService creates a new MasterDataServicer.
func NewMasterDataService(db *gorm.DB) MasterDataServicer {
	return &masterDataService{db: db}
}

func checkType(typ models.MasterDataType) error {
	if !typ.Valid() {
		return apperrors.WithMessagef(apperrors.ErrInvalidInput, "unknown master data type %q", typ)
	}
	return nil
}

// findByName looks up a value of typ by name, ignoring case. Folding is
// done in Go because SQLite's LOWER only handles ASCII; per-type lists are
// small.
func findByName(db *gorm.DB, typ models.MasterDataType, name, exceptID string) (*models.MasterData, error) {
	var items []models.MasterData
	q := db.Where("type = ?", typ)
	if exceptID != "" {
		q = q.Where("id <> ?", exceptID)
	}
	if err := q.Order("id ASC").Find(&items).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	for i := range items {
		if strings.EqualFold(items[i].Name, name) {
			return &items[i], nil
		}
	}
	return nil, nil
}

// ListMasterData returns the values of one type in insertion order.
func (s *masterDataService) ListMasterData(typ models.MasterDataType) ([]models.MasterData, error) {
	if err := checkType(typ); err != nil {
		return nil, err
	}

	var items []models.MasterData
	if err := s.db.Where("type = ?", typ).Order("id ASC").Find(&items).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	if items == nil {
		items = []models.MasterData{}
	}
	return items, nil
}

// ListAllMasterData returns every type, each in insertion order.
func (s *masterDataService) ListAllMasterData() (map[models.MasterDataType][]models.MasterData, error) {
	var items []models.MasterData
	if err := s.db.Order("id ASC").Find(&items).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	out := make(map[models.MasterDataType][]models.MasterData, len(models.MasterDataTypes))
	for _, typ := range models.MasterDataTypes {
		out[typ] = []models.MasterData{}
	}
	for _, item := range items {
		out[item.Type] = append(out[item.Type], item)
	}
	return out, nil
}

// CreateMasterData adds a value to a type.
func (s *masterDataService) CreateMasterData(typ models.MasterDataType, name string) (*models.MasterData, error) {
	if err := checkType(typ); err != nil {
		return nil, err
	}
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, apperrors.WithMessage(apperrors.ErrInvalidInput, "name is required")
	}

	var item *models.MasterData
	err := s.db.Transaction(func(tx *gorm.DB) error {
		existing, err := findByName(tx, typ, name, "")
		if err != nil {
			return err
		}
		if existing != nil {
			return apperrors.ErrDuplicateMasterData
		}

		item = &models.MasterData{Type: typ, Name: name}
		if err := tx.Create(item).Error; err != nil {
			return apperrors.Wrap(apperrors.ErrInternalServer, err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return item, nil
}

func (s *masterDataService) getByID(db *gorm.DB, typ models.MasterDataType, id string) (*models.MasterData, error) {
	var item models.MasterData
	if err := db.Where("id = ? AND type = ?", id, typ).First(&item).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.ErrMasterDataNotFound
		}
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return &item, nil
}

// UpdateMasterData renames a value. Entries keep the name they were saved
// with; the rename does not cascade.
func (s *masterDataService) UpdateMasterData(typ models.MasterDataType, id, name string) (*models.MasterData, error) {
	if err := checkType(typ); err != nil {
		return nil, err
	}
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, apperrors.WithMessage(apperrors.ErrInvalidInput, "name is required")
	}

	var item *models.MasterData
	err := s.db.Transaction(func(tx *gorm.DB) error {
		var err error
		item, err = s.getByID(tx, typ, id)
		if err != nil {
			return err
		}

		existing, err := findByName(tx, typ, name, item.ID)
		if err != nil {
			return err
		}
		if existing != nil {
			return apperrors.ErrDuplicateMasterData
		}

		item.Name = name
		if err := tx.Save(item).Error; err != nil {
			return apperrors.Wrap(apperrors.ErrInternalServer, err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return item, nil
}

// DeleteMasterData removes a value unless an entry still stores its exact
// current name in the matching column.
func (s *masterDataService) DeleteMasterData(typ models.MasterDataType, id string) error {
	if err := checkType(typ); err != nil {
		return err
	}
	column, err := typ.EntryColumn()
	if err != nil {
		return apperrors.Wrap(apperrors.ErrInvalidInput, err)
	}

	return s.db.Transaction(func(tx *gorm.DB) error {
		item, err := s.getByID(tx, typ, id)
		if err != nil {
			return err
		}

		var refs int64
		if err := tx.Model(&models.Entry{}).Where(column+" = ?", item.Name).Count(&refs).Error; err != nil {
			return apperrors.Wrap(apperrors.ErrInternalServer, err)
		}
		if refs > 0 {
			return apperrors.WithMessagef(apperrors.ErrMasterDataInUse, "%q is used by %d entries", item.Name, refs)
		}

		if err := tx.Delete(&models.MasterData{}, "id = ?", item.ID).Error; err != nil {
			return apperrors.Wrap(apperrors.ErrInternalServer, err)
		}
		return nil
	})
}

// EnsureParty makes sure a party named name exists, matching case-insensitively.
// It runs on tx so callers can make the registration part of a larger write.
// The bool reports whether a new party was created.
func (s *masterDataService) EnsureParty(tx *gorm.DB, name string) (*models.MasterData, bool, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, false, apperrors.WithMessage(apperrors.ErrInvalidInput, "party is required")
	}

	existing, err := findByName(tx, models.MasterDataParty, name, "")
	if err != nil {
		return nil, false, err
	}
	if existing != nil {
		return existing, false, nil
	}

	party := &models.MasterData{Type: models.MasterDataParty, Name: name}
	if err := tx.Create(party).Error; err != nil {
		return nil, false, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return party, true, nil
}
