package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	apperrors "framex/internal/errors"
	"framex/internal/models"
	"framex/internal/services"
)

// MasterDataHandler handles the reference value lists.
type MasterDataHandler struct {
	masterDataService services.MasterDataServicer
	auditService      services.AuditServicer
}

// NewMasterDataHandler creates a new MasterDataHandler
func NewMasterDataHandler(masterDataService services.MasterDataServicer, auditService services.AuditServicer) *MasterDataHandler {
	return &MasterDataHandler{masterDataService: masterDataService, auditService: auditService}
}

// MasterDataRequest names a reference value.
type MasterDataRequest struct {
	Name string `json:"name" binding:"required,max=200"`
}

// ListAll returns all four lists keyed by type
// @Summary     List all master data
// @Tags        master-data
// @Produce     json
// @Security    BearerAuth
// @Success     200 {object} map[string][]models.MasterData
// @Router      /master-data [get]
func (h *MasterDataHandler) ListAll(c *gin.Context) {
	all, err := h.masterDataService.ListAllMasterData()
	if err != nil {
		respondWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, all)
}

// List returns one list in insertion order
// @Summary     List master data of one type
// @Tags        master-data
// @Produce     json
// @Security    BearerAuth
// @Param       type path string true "cost_center, project_code, expenses_category or party"
// @Success     200 {object} map[string][]models.MasterData
// @Failure     400 {object} ErrorResponse "Unknown type"
// @Router      /master-data/{type} [get]
func (h *MasterDataHandler) List(c *gin.Context) {
	typ, err := parseMasterDataType(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	items, err := h.masterDataService.ListMasterData(typ)
	if err != nil {
		respondWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"items": items})
}

// Create adds a value. Any user may add a party; other types are admin only.
// @Summary     Create master data
// @Tags        master-data
// @Accept      json
// @Produce     json
// @Security    BearerAuth
// @Param       type    path string            true "Master data type"
// @Param       request body MasterDataRequest true "Name"
// @Success     201 {object} map[string]models.MasterData
// @Failure     400 {object} ErrorResponse "Invalid input"
// @Failure     403 {object} ErrorResponse "Admin only"
// @Failure     409 {object} ErrorResponse "Duplicate name"
// @Router      /master-data/{type} [post]
func (h *MasterDataHandler) Create(c *gin.Context) {
	user, err := getCurrentUser(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	typ, err := parseMasterDataType(c)
	if err != nil {
		respondWithError(c, err)
		return
	}
	if typ != models.MasterDataParty && !user.IsAdmin() {
		respondWithError(c, apperrors.WithMessage(apperrors.ErrForbidden, "Admin access required"))
		return
	}

	var req MasterDataRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondWithError(c, bindError(err))
		return
	}

	item, err := h.masterDataService.CreateMasterData(typ, req.Name)
	if err != nil {
		respondWithError(c, err)
		return
	}

	h.auditService.Log(user.ID, services.AuditActionCreate, "master_data", item.ID, c.ClientIP(),
		map[string]interface{}{"type": typ, "name": item.Name})

	c.JSON(http.StatusCreated, gin.H{"item": item})
}

// Update renames a value. Existing entries keep the old name.
// @Summary     Rename master data
// @Tags        master-data
// @Accept      json
// @Produce     json
// @Security    BearerAuth
// @Param       type    path string            true "Master data type"
// @Param       id      path string            true "Item ID"
// @Param       request body MasterDataRequest true "New name"
// @Success     200 {object} map[string]models.MasterData
// @Failure     404 {object} ErrorResponse "Not found"
// @Failure     409 {object} ErrorResponse "Duplicate name"
// @Router      /master-data/{type}/{id} [put]
func (h *MasterDataHandler) Update(c *gin.Context) {
	user, err := getCurrentUser(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	typ, err := parseMasterDataType(c)
	if err != nil {
		respondWithError(c, err)
		return
	}
	id, err := parsePathID(c, "id")
	if err != nil {
		respondWithError(c, err)
		return
	}

	var req MasterDataRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondWithError(c, bindError(err))
		return
	}

	item, err := h.masterDataService.UpdateMasterData(typ, id, req.Name)
	if err != nil {
		respondWithError(c, err)
		return
	}

	h.auditService.Log(user.ID, services.AuditActionUpdate, "master_data", item.ID, c.ClientIP(),
		map[string]interface{}{"type": typ, "name": item.Name})

	c.JSON(http.StatusOK, gin.H{"item": item})
}

// Delete removes a value no entry refers to
// @Summary     Delete master data
// @Tags        master-data
// @Security    BearerAuth
// @Param       type path string true "Master data type"
// @Param       id   path string true "Item ID"
// @Success     204
// @Failure     404 {object} ErrorResponse "Not found"
// @Failure     409 {object} ErrorResponse "In use"
// @Router      /master-data/{type}/{id} [delete]
func (h *MasterDataHandler) Delete(c *gin.Context) {
	user, err := getCurrentUser(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	typ, err := parseMasterDataType(c)
	if err != nil {
		respondWithError(c, err)
		return
	}
	id, err := parsePathID(c, "id")
	if err != nil {
		respondWithError(c, err)
		return
	}

	if err := h.masterDataService.DeleteMasterData(typ, id); err != nil {
		respondWithError(c, err)
		return
	}

	h.auditService.Log(user.ID, services.AuditActionDelete, "master_data", id, c.ClientIP(),
		map[string]interface{}{"type": typ})

	c.Status(http.StatusNoContent)
}
