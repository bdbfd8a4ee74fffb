package handlers

import (
	"io"
	"net/http"

	"github.com/gin-gonic/gin"

	apperrors "framex/internal/errors"
	"framex/internal/logger"
	"framex/internal/services"
	"framex/internal/storage"
)

// CompanyHandler handles the company record and logo.
type CompanyHandler struct {
	companyService services.CompanyServicer
	auditService   services.AuditServicer
}

// NewCompanyHandler creates a new CompanyHandler
func NewCompanyHandler(companyService services.CompanyServicer, auditService services.AuditServicer) *CompanyHandler {
	return &CompanyHandler{companyService: companyService, auditService: auditService}
}

func (h *CompanyHandler) respondWithCompany(c *gin.Context, status int) {
	company, err := h.companyService.GetCompanyInfo()
	if err != nil {
		respondWithError(c, err)
		return
	}

	logoURL, err := h.companyService.LogoURL(c.Request.Context())
	if err != nil {
		logger.Get().Warnw("failed to sign logo url", "error", err)
		logoURL = ""
	}

	c.JSON(status, gin.H{"company": company, "logo_url": logoURL})
}

// GetCompany returns the company details
// @Summary     Get company info
// @Description Public so the login screen can show branding. logo_url is empty when no logo is stored.
// @Tags        company
// @Produce     json
// @Success     200 {object} map[string]interface{}
// @Failure     404 {object} ErrorResponse "Setup not completed"
// @Router      /company [get]
func (h *CompanyHandler) GetCompany(c *gin.Context) {
	h.respondWithCompany(c, http.StatusOK)
}

// UpdateCompany replaces the company details
// @Summary     Update company info
// @Tags        company
// @Accept      json
// @Produce     json
// @Security    BearerAuth
// @Param       request body CompanyRequest true "Company details"
// @Success     200 {object} map[string]interface{}
// @Failure     400 {object} ErrorResponse "Invalid input"
// @Router      /company [put]
func (h *CompanyHandler) UpdateCompany(c *gin.Context) {
	user, err := getCurrentUser(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	var req CompanyRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondWithError(c, bindError(err))
		return
	}

	company, err := h.companyService.UpdateCompanyInfo(req.draft())
	if err != nil {
		respondWithError(c, err)
		return
	}

	h.auditService.Log(user.ID, services.AuditActionUpdate, "company", user.ID, c.ClientIP(),
		map[string]interface{}{"name": company.Name})

	h.respondWithCompany(c, http.StatusOK)
}

// UploadLogo stores a new company logo
// @Summary     Upload company logo
// @Description PNG, JPEG or GIF up to 2 MB. Stored as PNG scaled to at most 512 px wide.
// @Tags        company
// @Accept      multipart/form-data
// @Produce     json
// @Security    BearerAuth
// @Param       logo formData file true "Logo image"
// @Success     200 {object} map[string]interface{}
// @Failure     400 {object} ErrorResponse "Unsupported image"
// @Failure     503 {object} ErrorResponse "Storage not configured"
// @Router      /company/logo [post]
func (h *CompanyHandler) UploadLogo(c *gin.Context) {
	user, err := getCurrentUser(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	header, err := c.FormFile("logo")
	if err != nil {
		respondWithError(c, apperrors.WithMessage(apperrors.ErrInvalidInput, "logo file is required"))
		return
	}
	if header.Size > storage.MaxLogoSize {
		respondWithError(c, apperrors.WithMessage(apperrors.ErrUnsupportedImage, storage.ErrLogoTooLarge.Error()))
		return
	}

	file, err := header.Open()
	if err != nil {
		respondWithError(c, apperrors.Wrap(apperrors.ErrInternalServer, err))
		return
	}
	defer file.Close()

	data, err := io.ReadAll(io.LimitReader(file, storage.MaxLogoSize+1))
	if err != nil {
		respondWithError(c, apperrors.Wrap(apperrors.ErrInternalServer, err))
		return
	}

	company, err := h.companyService.SetLogo(c.Request.Context(), data)
	if err != nil {
		respondWithError(c, err)
		return
	}

	h.auditService.Log(user.ID, services.AuditActionUpdate, "company", user.ID, c.ClientIP(),
		map[string]interface{}{"logo_key": company.LogoKey})

	h.respondWithCompany(c, http.StatusOK)
}
