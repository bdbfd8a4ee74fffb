package services

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"gorm.io/gorm"

	apperrors "framex/internal/errors"
	"framex/internal/logger"
	"framex/internal/models"
	"framex/internal/storage"
)

// companyService manages the company singleton and its logo.
type companyService struct {
	db        *gorm.DB
	logos     LogoStore
	urlExpiry time.Duration
}

// NewCompanyService creates a new CompanyServicer. logos may be nil when no
// object storage is configured; logo operations then fail with
// STORAGE_UNAVAILABLE.
func NewCompanyService(db *gorm.DB, logos LogoStore, urlExpiry time.Duration) CompanyServicer {
	if urlExpiry <= 0 {
		urlExpiry = time.Hour
	}
	return &companyService{db: db, logos: logos, urlExpiry: urlExpiry}
}

func validateCompanyDraft(draft *CompanyDraft) error {
	draft.Name = strings.TrimSpace(draft.Name)
	draft.Address = strings.TrimSpace(draft.Address)
	draft.TaxCountry = strings.TrimSpace(draft.TaxCountry)
	draft.TaxIDType = strings.TrimSpace(draft.TaxIDType)
	draft.TaxIDNumber = strings.TrimSpace(draft.TaxIDNumber)
	if draft.Name == "" {
		return apperrors.WithMessage(apperrors.ErrInvalidInput, "company name is required")
	}
	return nil
}

// IsSetupRequired reports whether initial setup has yet to run.
func (s *companyService) IsSetupRequired() (bool, error) {
	var count int64
	if err := s.db.Model(&models.CompanyInfo{}).Count(&count).Error; err != nil {
		return false, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return count == 0, nil
}

// GetCompanyInfo returns the company record.
func (s *companyService) GetCompanyInfo() (*models.CompanyInfo, error) {
	var company models.CompanyInfo
	if err := s.db.Where("id = ?", models.CompanyInfoID).First(&company).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.ErrCompanyNotFound
		}
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return &company, nil
}

// UpdateCompanyInfo replaces the editable company fields.
func (s *companyService) UpdateCompanyInfo(draft CompanyDraft) (*models.CompanyInfo, error) {
	if err := validateCompanyDraft(&draft); err != nil {
		return nil, err
	}
	company, err := s.GetCompanyInfo()
	if err != nil {
		return nil, err
	}

	company.Name = draft.Name
	company.Address = draft.Address
	company.TaxCountry = draft.TaxCountry
	company.TaxIDType = draft.TaxIDType
	company.TaxIDNumber = draft.TaxIDNumber
	if err := s.db.Save(company).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return company, nil
}

// SetLogo normalises an uploaded image, stores it and points the company at
// it. The previous logo object is removed best-effort.
func (s *companyService) SetLogo(ctx context.Context, data []byte) (*models.CompanyInfo, error) {
	if s.logos == nil {
		return nil, apperrors.ErrStorageUnavailable
	}
	company, err := s.GetCompanyInfo()
	if err != nil {
		return nil, err
	}

	processed, err := storage.ProcessLogo(data)
	if err != nil {
		if errors.Is(err, storage.ErrLogoTooLarge) ||
			errors.Is(err, storage.ErrInvalidImageData) ||
			errors.Is(err, storage.ErrLogoDimensions) {
			return nil, apperrors.WithMessage(apperrors.ErrUnsupportedImage, err.Error())
		}
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	key := fmt.Sprintf("logos/logo_%d.png", time.Now().UnixMilli())
	if _, err := s.logos.Upload(ctx, key, bytes.NewReader(processed), storage.LogoContentType, int64(len(processed))); err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	previous := company.LogoKey
	if err := s.db.Model(company).Update("logo_key", key).Error; err != nil {
		if delErr := s.logos.Delete(ctx, key); delErr != nil {
			logger.Get().Warnw("failed to remove orphaned logo", "key", key, "error", delErr)
		}
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	company.LogoKey = key

	if previous != "" && previous != key {
		if err := s.logos.Delete(ctx, previous); err != nil {
			logger.Get().Warnw("failed to remove previous logo", "key", previous, "error", err)
		}
	}
	return company, nil
}

// LogoURL returns a presigned URL for the current logo, or "" when there is
// no logo or no storage.
func (s *companyService) LogoURL(ctx context.Context) (string, error) {
	company, err := s.GetCompanyInfo()
	if err != nil {
		return "", err
	}
	if company.LogoKey == "" || s.logos == nil {
		return "", nil
	}
	url, err := s.logos.GeneratePresignedURL(ctx, company.LogoKey, s.urlExpiry)
	if err != nil {
		return "", apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return url, nil
}
