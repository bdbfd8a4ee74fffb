package services

import (
	"errors"
	"strings"
	"time"

	"gorm.io/gorm"

	apperrors "framex/internal/errors"
	"framex/internal/models"
)

const (
	// MaxFailedLoginAttempts locks the account once reached.
	MaxFailedLoginAttempts = 5
	// LockoutDuration is how long a locked account stays locked.
	LockoutDuration = 15 * time.Minute
)

// userService handles user-related business logic.
type userService struct {
	db *gorm.DB
}

// NewUserService creates a new UserServicer.
func NewUserService(db *gorm.DB) UserServicer {
	return &userService{db: db}
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// validateDraft trims the draft in place and checks required fields.
func validateDraft(draft *UserDraft) error {
	draft.Name = strings.TrimSpace(draft.Name)
	draft.Email = normalizeEmail(draft.Email)
	draft.Mobile = strings.TrimSpace(draft.Mobile)
	if draft.Name == "" || draft.Email == "" {
		return apperrors.WithMessage(apperrors.ErrInvalidInput, "name and email are required")
	}
	switch draft.Role {
	case "":
		draft.Role = models.RoleUser
	case models.RoleAdmin, models.RoleUser:
	default:
		return apperrors.WithMessagef(apperrors.ErrInvalidInput, "unknown role %q", draft.Role)
	}
	return nil
}

// emailTaken reports whether another user already owns email.
func emailTaken(db *gorm.DB, email, exceptID string) (bool, error) {
	var count int64
	q := db.Model(&models.User{}).Where("LOWER(email) = ?", normalizeEmail(email))
	if exceptID != "" {
		q = q.Where("id <> ?", exceptID)
	}
	if err := q.Count(&count).Error; err != nil {
		return false, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return count > 0, nil
}

// CreateUser provisions an account on behalf of an admin. The generated
// temporary password is returned once and must be changed at first login.
func (s *userService) CreateUser(draft UserDraft) (*models.User, string, error) {
	if err := validateDraft(&draft); err != nil {
		return nil, "", err
	}

	taken, err := emailTaken(s.db, draft.Email, "")
	if err != nil {
		return nil, "", err
	}
	if taken {
		return nil, "", apperrors.ErrDuplicateEmail
	}

	tempPassword, err := generateTempPassword()
	if err != nil {
		return nil, "", apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	hashed, err := hashSecret(tempPassword)
	if err != nil {
		return nil, "", err
	}

	user := &models.User{
		Name:                draft.Name,
		Email:               draft.Email,
		Mobile:              draft.Mobile,
		Role:                draft.Role,
		Password:            hashed,
		ForcePasswordChange: true,
	}
	if err := s.db.Create(user).Error; err != nil {
		return nil, "", apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	return user, tempPassword, nil
}

// SignUp registers a self-service account. The very first account in an
// empty directory becomes an admin.
func (s *userService) SignUp(name, email, password string) (*models.User, error) {
	draft := UserDraft{Name: name, Email: email}
	if err := validateDraft(&draft); err != nil {
		return nil, err
	}
	if err := validatePassword(password); err != nil {
		return nil, err
	}

	hashed, err := hashSecret(password)
	if err != nil {
		return nil, err
	}

	var user *models.User
	err = s.db.Transaction(func(tx *gorm.DB) error {
		taken, err := emailTaken(tx, draft.Email, "")
		if err != nil {
			return err
		}
		if taken {
			return apperrors.ErrDuplicateEmail
		}

		var existing int64
		if err := tx.Model(&models.User{}).Count(&existing).Error; err != nil {
			return apperrors.Wrap(apperrors.ErrInternalServer, err)
		}
		role := models.RoleUser
		if existing == 0 {
			role = models.RoleAdmin
		}

		user = &models.User{
			Name:     draft.Name,
			Email:    draft.Email,
			Role:     role,
			Password: hashed,
		}
		if err := tx.Create(user).Error; err != nil {
			return apperrors.Wrap(apperrors.ErrInternalServer, err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return user, nil
}

// Setup creates the first admin together with the company record. It is
// only allowed while no company record exists.
func (s *userService) Setup(admin UserDraft, password string, company CompanyDraft) (*SetupResult, error) {
	admin.Role = models.RoleAdmin
	if err := validateDraft(&admin); err != nil {
		return nil, err
	}
	if err := validatePassword(password); err != nil {
		return nil, err
	}
	if err := validateCompanyDraft(&company); err != nil {
		return nil, err
	}

	hashed, err := hashSecret(password)
	if err != nil {
		return nil, err
	}
	recoveryCode, err := generateRecoveryCode()
	if err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	recoveryHash, err := hashSecret(recoveryCode)
	if err != nil {
		return nil, err
	}

	result := &SetupResult{RecoveryCode: recoveryCode}
	err = s.db.Transaction(func(tx *gorm.DB) error {
		var companies int64
		if err := tx.Model(&models.CompanyInfo{}).Count(&companies).Error; err != nil {
			return apperrors.Wrap(apperrors.ErrInternalServer, err)
		}
		if companies > 0 {
			return apperrors.ErrSetupCompleted
		}

		taken, err := emailTaken(tx, admin.Email, "")
		if err != nil {
			return err
		}
		if taken {
			return apperrors.ErrDuplicateEmail
		}

		result.User = &models.User{
			Name:             admin.Name,
			Email:            admin.Email,
			Mobile:           admin.Mobile,
			Role:             models.RoleAdmin,
			Password:         hashed,
			RecoveryCodeHash: recoveryHash,
		}
		if err := tx.Create(result.User).Error; err != nil {
			return apperrors.Wrap(apperrors.ErrInternalServer, err)
		}

		result.Company = &models.CompanyInfo{
			ID:          models.CompanyInfoID,
			Name:        company.Name,
			Address:     company.Address,
			TaxCountry:  company.TaxCountry,
			TaxIDType:   company.TaxIDType,
			TaxIDNumber: company.TaxIDNumber,
		}
		if err := tx.Create(result.Company).Error; err != nil {
			return apperrors.Wrap(apperrors.ErrInternalServer, err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

// UpdateUser replaces the editable fields of a user. An empty role keeps
// the current one. The last admin cannot be demoted.
func (s *userService) UpdateUser(id string, draft UserDraft) (*models.User, error) {
	user, err := s.GetUserByID(id)
	if err != nil {
		return nil, err
	}

	keepRole := draft.Role == ""
	if err := validateDraft(&draft); err != nil {
		return nil, err
	}
	if keepRole {
		draft.Role = user.Role
	}

	err = s.db.Transaction(func(tx *gorm.DB) error {
		taken, err := emailTaken(tx, draft.Email, user.ID)
		if err != nil {
			return err
		}
		if taken {
			return apperrors.ErrDuplicateEmail
		}

		if user.IsAdmin() && draft.Role != models.RoleAdmin {
			if err := ensureAnotherAdmin(tx, user.ID); err != nil {
				return err
			}
		}

		user.Name = draft.Name
		user.Email = draft.Email
		user.Mobile = draft.Mobile
		user.Role = draft.Role
		if err := tx.Save(user).Error; err != nil {
			return apperrors.Wrap(apperrors.ErrInternalServer, err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return user, nil
}

// DeleteUser removes a user unless an entry still names them as paid_by.
func (s *userService) DeleteUser(id string) error {
	user, err := s.GetUserByID(id)
	if err != nil {
		return err
	}

	return s.db.Transaction(func(tx *gorm.DB) error {
		var refs int64
		if err := tx.Model(&models.Entry{}).Where("paid_by = ?", user.ID).Count(&refs).Error; err != nil {
			return apperrors.Wrap(apperrors.ErrInternalServer, err)
		}
		if refs > 0 {
			return apperrors.WithMessagef(apperrors.ErrUserInUse, "user is paid_by on %d entries", refs)
		}

		if user.IsAdmin() {
			if err := ensureAnotherAdmin(tx, user.ID); err != nil {
				return err
			}
		}

		if err := tx.Delete(&models.User{}, "id = ?", user.ID).Error; err != nil {
			return apperrors.Wrap(apperrors.ErrInternalServer, err)
		}
		return nil
	})
}

func ensureAnotherAdmin(tx *gorm.DB, exceptID string) error {
	var admins int64
	if err := tx.Model(&models.User{}).
		Where("role = ? AND id <> ?", models.RoleAdmin, exceptID).
		Count(&admins).Error; err != nil {
		return apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	if admins == 0 {
		return apperrors.WithMessage(apperrors.ErrInvalidInput, "at least one admin is required")
	}
	return nil
}

// GetUserByEmail retrieves a user by email, ignoring case.
func (s *userService) GetUserByEmail(email string) (*models.User, error) {
	var user models.User
	if err := s.db.Where("LOWER(email) = ?", normalizeEmail(email)).First(&user).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.ErrUserNotFound
		}
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return &user, nil
}

// GetUserByID retrieves a user by ID
func (s *userService) GetUserByID(id string) (*models.User, error) {
	var user models.User
	if err := s.db.Where("id = ?", id).First(&user).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.ErrUserNotFound
		}
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return &user, nil
}

// ListUsers returns every user in creation order.
func (s *userService) ListUsers() ([]models.User, error) {
	var users []models.User
	if err := s.db.Order("id ASC").Find(&users).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	if users == nil {
		users = []models.User{}
	}
	return users, nil
}

func (s *userService) CountUsers() (int64, error) {
	var count int64
	if err := s.db.Model(&models.User{}).Count(&count).Error; err != nil {
		return 0, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return count, nil
}

// Authenticate checks credentials without touching lockout state.
func (s *userService) Authenticate(email, password string) (*models.User, error) {
	user, err := s.GetUserByEmail(email)
	if err != nil {
		if errors.Is(err, apperrors.ErrUserNotFound) {
			return nil, apperrors.ErrInvalidCredentials
		}
		return nil, err
	}
	if !secretMatches(user.Password, password) {
		return nil, apperrors.ErrInvalidCredentials
	}
	return user, nil
}

// AttemptLogin authenticates and tracks failures. After
// MaxFailedLoginAttempts consecutive failures the account is locked for
// LockoutDuration.
func (s *userService) AttemptLogin(email, password string) (*models.User, error) {
	user, err := s.GetUserByEmail(email)
	if err != nil {
		if errors.Is(err, apperrors.ErrUserNotFound) {
			return nil, apperrors.ErrInvalidCredentials
		}
		return nil, err
	}

	now := time.Now()
	if user.LockedUntil != nil && user.LockedUntil.After(now) {
		return nil, apperrors.ErrAccountLocked
	}

	if !secretMatches(user.Password, password) {
		updates := map[string]any{"failed_login_attempts": gorm.Expr("failed_login_attempts + 1")}
		if user.FailedLoginAttempts+1 >= MaxFailedLoginAttempts {
			updates["locked_until"] = now.Add(LockoutDuration)
		}
		if err := s.db.Model(&models.User{}).Where("id = ?", user.ID).Updates(updates).Error; err != nil {
			return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
		}
		return nil, apperrors.ErrInvalidCredentials
	}

	user.FailedLoginAttempts = 0
	user.LockedUntil = nil
	user.LastLoginAt = &now
	if err := s.db.Model(&models.User{}).Where("id = ?", user.ID).Updates(map[string]any{
		"failed_login_attempts": 0,
		"locked_until":          nil,
		"last_login_at":         now,
	}).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return user, nil
}

// ChangePassword replaces the password after verifying the current one and
// clears force_password_change.
func (s *userService) ChangePassword(id, currentPassword, newPassword string) (*models.User, error) {
	user, err := s.GetUserByID(id)
	if err != nil {
		return nil, err
	}
	if !secretMatches(user.Password, currentPassword) {
		return nil, apperrors.ErrInvalidCredentials
	}
	if err := validatePassword(newPassword); err != nil {
		return nil, err
	}
	if currentPassword == newPassword {
		return nil, apperrors.WithMessage(apperrors.ErrInvalidInput, "new password must differ from the current one")
	}

	hashed, err := hashSecret(newPassword)
	if err != nil {
		return nil, err
	}
	if err := s.db.Model(user).Updates(map[string]any{
		"password":              hashed,
		"force_password_change": false,
	}).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	user.Password = hashed
	user.ForcePasswordChange = false
	return user, nil
}

// ResetPassword sets a new password using a recovery code. The code is
// single-use: a fresh one is issued and returned on success.
func (s *userService) ResetPassword(email, recoveryCode, newPassword string) (string, error) {
	user, err := s.GetUserByEmail(email)
	if err != nil {
		if errors.Is(err, apperrors.ErrUserNotFound) {
			return "", apperrors.ErrInvalidRecoveryCode
		}
		return "", err
	}
	if !secretMatches(user.RecoveryCodeHash, normalizeRecoveryCode(recoveryCode)) {
		return "", apperrors.ErrInvalidRecoveryCode
	}
	if err := validatePassword(newPassword); err != nil {
		return "", err
	}

	hashed, err := hashSecret(newPassword)
	if err != nil {
		return "", err
	}
	nextCode, err := generateRecoveryCode()
	if err != nil {
		return "", apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	nextHash, err := hashSecret(nextCode)
	if err != nil {
		return "", err
	}

	if err := s.db.Model(user).Updates(map[string]any{
		"password":              hashed,
		"recovery_code_hash":    nextHash,
		"force_password_change": false,
		"failed_login_attempts": 0,
		"locked_until":          nil,
	}).Error; err != nil {
		return "", apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return nextCode, nil
}
