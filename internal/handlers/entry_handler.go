package handlers

import (
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"

	apperrors "framex/internal/errors"
	"framex/internal/export"
	"framex/internal/models"
	"framex/internal/pagination"
	"framex/internal/services"
	"framex/internal/uuid"
)

// EntryHandler handles ledger requests.
type EntryHandler struct {
	entryService     services.EntryServicer
	analyticsService services.AnalyticsServicer
	auditService     services.AuditServicer
	loc              *time.Location
}

// NewEntryHandler creates a new EntryHandler. loc interprets date-only
// filters and names export files.
func NewEntryHandler(entryService services.EntryServicer, analyticsService services.AnalyticsServicer, auditService services.AuditServicer, loc *time.Location) *EntryHandler {
	if loc == nil {
		loc = time.UTC
	}
	return &EntryHandler{
		entryService:     entryService,
		analyticsService: analyticsService,
		auditService:     auditService,
		loc:              loc,
	}
}

// EntryRequest represents the payload for creating or replacing an entry.
// paid_by defaults to the requesting user.
type EntryRequest struct {
	TransactionType  models.TransactionType `json:"transaction_type" binding:"required,transaction_type"`
	Party            string                 `json:"party" binding:"required,max=200"`
	Amount           decimal.Decimal        `json:"amount" binding:"required,decimal_positive,decimal_places2" swaggertype:"string" example:"1250.50"`
	ExpenseNature    string                 `json:"expense_nature" binding:"max=1000"`
	CostCenter       string                 `json:"cost_center" binding:"required,max=200"`
	ProjectCode      string                 `json:"project_code" binding:"required,max=200"`
	ExpensesCategory string                 `json:"expenses_category" binding:"required,max=200"`
	PaidBy           string                 `json:"paid_by" binding:"omitempty,uuid"`
}

func (r EntryRequest) draft(user *models.User) services.EntryDraft {
	paidBy := r.PaidBy
	if paidBy == "" {
		paidBy = user.ID
	}
	return services.EntryDraft{
		TransactionType:  r.TransactionType,
		Party:            r.Party,
		Amount:           r.Amount,
		ExpenseNature:    r.ExpenseNature,
		CostCenter:       r.CostCenter,
		ProjectCode:      r.ProjectCode,
		ExpensesCategory: r.ExpensesCategory,
		PaidBy:           paidBy,
	}
}

func entryChanges(e *models.Entry) map[string]interface{} {
	return map[string]interface{}{
		"transaction_type": e.TransactionType,
		"amount":           e.Amount.StringFixed(2),
		"party":            e.Party,
		"paid_by":          e.PaidBy,
	}
}

// ListEntries returns a page of the entries visible to the caller
// @Summary     List entries
// @Description Newest first. Non-admins only see entries allowed by the visibility rule.
// @Tags        entries
// @Produce     json
// @Security    BearerAuth
// @Param       page              query int    false "Page number"
// @Param       page_size         query int    false "Page size (default 50, max 200)"
// @Param       from_date         query string false "RFC3339 or YYYY-MM-DD"
// @Param       to_date           query string false "RFC3339 or YYYY-MM-DD (inclusive)"
// @Param       type              query string false "payment or receipt"
// @Param       expenses_category query string false "Exact category name"
// @Param       cost_center       query string false "Exact cost center name"
// @Param       project_code      query string false "Exact project code"
// @Param       paid_by           query string false "User ID"
// @Success     200 {object} pagination.PageResponse[models.Entry]
// @Failure     400 {object} ErrorResponse "Invalid filter"
// @Router      /entries [get]
func (h *EntryHandler) ListEntries(c *gin.Context) {
	user, err := getCurrentUser(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	var page pagination.PageRequest
	if err := c.ShouldBindQuery(&page); err != nil {
		respondWithError(c, bindError(err))
		return
	}

	filter, err := h.parseEntryFilter(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	result, err := h.entryService.ListVisible(user, page, filter)
	if err != nil {
		respondWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, result)
}

func (h *EntryHandler) parseEntryFilter(c *gin.Context) (services.EntryFilter, error) {
	var filter services.EntryFilter

	if v := c.Query("from_date"); v != "" {
		t, err := parseDate(v, h.loc, false)
		if err != nil {
			return filter, apperrors.WithMessage(apperrors.ErrInvalidInput, "invalid from_date format, use RFC3339 or YYYY-MM-DD")
		}
		filter.FromDate = &t
	}

	if v := c.Query("to_date"); v != "" {
		t, err := parseDate(v, h.loc, true)
		if err != nil {
			return filter, apperrors.WithMessage(apperrors.ErrInvalidInput, "invalid to_date format, use RFC3339 or YYYY-MM-DD")
		}
		filter.ToDate = &t
	}

	if v := c.Query("type"); v != "" {
		txType := models.TransactionType(v)
		if !txType.Valid() {
			return filter, apperrors.WithMessage(apperrors.ErrInvalidInput, "invalid type, must be payment or receipt")
		}
		filter.Type = &txType
	}

	if v := c.Query("expenses_category"); v != "" {
		filter.ExpensesCategory = &v
	}
	if v := c.Query("cost_center"); v != "" {
		filter.CostCenter = &v
	}
	if v := c.Query("project_code"); v != "" {
		filter.ProjectCode = &v
	}

	if v := c.Query("paid_by"); v != "" {
		id, err := uuid.Parse(v)
		if err != nil {
			return filter, apperrors.WithMessage(apperrors.ErrInvalidInput, "invalid paid_by")
		}
		filter.PaidBy = &id
	}

	return filter, nil
}

// CreateEntry records a payment or receipt
// @Summary     Create an entry
// @Description Unknown parties are registered automatically in the same transaction.
// @Tags        entries
// @Accept      json
// @Produce     json
// @Security    BearerAuth
// @Param       request body EntryRequest true "Entry details"
// @Success     201 {object} map[string]models.Entry
// @Failure     400 {object} ErrorResponse "Invalid input"
// @Failure     401 {object} ErrorResponse "Unauthorized"
// @Router      /entries [post]
func (h *EntryHandler) CreateEntry(c *gin.Context) {
	user, err := getCurrentUser(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	var req EntryRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondWithError(c, bindError(err))
		return
	}

	entry, err := h.entryService.CreateEntry(req.draft(user), user.ID)
	if err != nil {
		respondWithError(c, err)
		return
	}

	h.auditService.Log(user.ID, services.AuditActionCreate, "entry", entry.ID, c.ClientIP(), entryChanges(entry))

	c.JSON(http.StatusCreated, gin.H{"entry": entry})
}

// GetEntry returns one visible entry
// @Summary     Get entry by ID
// @Tags        entries
// @Produce     json
// @Security    BearerAuth
// @Param       id path string true "Entry ID"
// @Success     200 {object} map[string]models.Entry
// @Failure     404 {object} ErrorResponse "Entry not found"
// @Router      /entries/{id} [get]
func (h *EntryHandler) GetEntry(c *gin.Context) {
	user, err := getCurrentUser(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	id, err := parsePathID(c, "id")
	if err != nil {
		respondWithError(c, err)
		return
	}

	entry, err := h.entryService.GetEntryByID(user, id)
	if err != nil {
		respondWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"entry": entry})
}

// UpdateEntry replaces the mutable fields of a visible entry
// @Summary     Update entry
// @Tags        entries
// @Accept      json
// @Produce     json
// @Security    BearerAuth
// @Param       id      path string       true "Entry ID"
// @Param       request body EntryRequest true "Entry details"
// @Success     200 {object} map[string]models.Entry
// @Failure     400 {object} ErrorResponse "Invalid input"
// @Failure     404 {object} ErrorResponse "Entry not found"
// @Router      /entries/{id} [put]
func (h *EntryHandler) UpdateEntry(c *gin.Context) {
	user, err := getCurrentUser(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	id, err := parsePathID(c, "id")
	if err != nil {
		respondWithError(c, err)
		return
	}

	var req EntryRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondWithError(c, bindError(err))
		return
	}

	entry, err := h.entryService.UpdateEntry(user, id, req.draft(user))
	if err != nil {
		respondWithError(c, err)
		return
	}

	h.auditService.Log(user.ID, services.AuditActionUpdate, "entry", entry.ID, c.ClientIP(), entryChanges(entry))

	c.JSON(http.StatusOK, gin.H{"entry": entry})
}

// DeleteEntry removes a visible entry
// @Summary     Delete entry
// @Tags        entries
// @Security    BearerAuth
// @Param       id path string true "Entry ID"
// @Success     204
// @Failure     404 {object} ErrorResponse "Entry not found"
// @Router      /entries/{id} [delete]
func (h *EntryHandler) DeleteEntry(c *gin.Context) {
	user, err := getCurrentUser(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	id, err := parsePathID(c, "id")
	if err != nil {
		respondWithError(c, err)
		return
	}

	if err := h.entryService.DeleteEntry(user, id); err != nil {
		respondWithError(c, err)
		return
	}

	h.auditService.Log(user.ID, services.AuditActionDelete, "entry", id, c.ClientIP(), nil)

	c.Status(http.StatusNoContent)
}

// ExportEntries downloads the visible entries
// @Summary     Export entries
// @Description CSV or XLSX. Admin exports include the User column.
// @Tags        entries
// @Produce     text/csv
// @Produce     application/vnd.openxmlformats-officedocument.spreadsheetml.sheet
// @Security    BearerAuth
// @Param       format query string false "csv (default) or xlsx"
// @Success     200 {file} file
// @Failure     400 {object} ErrorResponse "Unsupported format"
// @Router      /entries/export [get]
func (h *EntryHandler) ExportEntries(c *gin.Context) {
	user, err := getCurrentUser(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	format, ok := export.ParseFormat(c.Query("format"))
	if !ok {
		respondWithError(c, apperrors.ErrUnsupportedExport)
		return
	}

	data, err := h.analyticsService.Export(user, format)
	if err != nil {
		respondWithError(c, err)
		return
	}

	filename := export.Filename(format, time.Now().In(h.loc))
	c.Header("Content-Disposition", fmt.Sprintf(`attachment; filename="%s"`, filename))
	c.Data(http.StatusOK, format.ContentType(), data)
}
