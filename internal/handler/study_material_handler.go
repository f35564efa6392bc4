package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/campushub/campus-api/internal/service"
	appErrors "github.com/campushub/campus-api/pkg/errors"
	"github.com/campushub/campus-api/pkg/response"
)

// StudyMaterialHandler manages study material endpoints.
type StudyMaterialHandler struct {
	service *service.StudyMaterialService
}

// NewStudyMaterialHandler constructs handler.
func NewStudyMaterialHandler(svc *service.StudyMaterialService) *StudyMaterialHandler {
	return &StudyMaterialHandler{service: svc}
}

// List godoc
// @Summary List study materials visible to the caller
// @Tags StudyMaterials
// @Produce json
// @Security BearerAuth
// @Success 200 {object} response.Envelope
// @Router /study-materials [get]
func (h *StudyMaterialHandler) List(c *gin.Context) {
	caller, ok := callerFromContext(c)
	if !ok {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}
	materials, err := h.service.ListVisible(c.Request.Context(), caller)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, materials, nil)
}

// Get godoc
// @Summary Get a study material
// @Tags StudyMaterials
// @Produce json
// @Security BearerAuth
// @Param id path string true "Material ID"
// @Success 200 {object} response.Envelope
// @Router /study-materials/{id} [get]
func (h *StudyMaterialHandler) Get(c *gin.Context) {
	caller, ok := callerFromContext(c)
	if !ok {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}
	material, err := h.service.Get(c.Request.Context(), caller, c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, material, nil)
}

// DownloadToken godoc
// @Summary Issue a signed download token for a material's file
// @Tags StudyMaterials
// @Produce json
// @Security BearerAuth
// @Param id path string true "Material ID"
// @Success 200 {object} response.Envelope
// @Router /study-materials/{id}/download [get]
func (h *StudyMaterialHandler) DownloadToken(c *gin.Context) {
	caller, ok := callerFromContext(c)
	if !ok {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}
	token, expiresAt, err := h.service.DownloadToken(c.Request.Context(), caller, c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, gin.H{"token": token, "expires_at": expiresAt}, nil)
}

// Create godoc
// @Summary Publish a study material
// @Tags StudyMaterials
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param payload body service.CreateStudyMaterialRequest true "Material payload"
// @Success 201 {object} response.Envelope
// @Router /study-materials [post]
func (h *StudyMaterialHandler) Create(c *gin.Context) {
	caller, ok := callerFromContext(c)
	if !ok {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}
	var req service.CreateStudyMaterialRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid payload"))
		return
	}
	material, err := h.service.Create(c.Request.Context(), caller, req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, material)
}

// Update godoc
// @Summary Update a study material
// @Tags StudyMaterials
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path string true "Material ID"
// @Param payload body service.UpdateStudyMaterialRequest true "Material payload"
// @Success 200 {object} response.Envelope
// @Router /study-materials/{id} [put]
func (h *StudyMaterialHandler) Update(c *gin.Context) {
	caller, ok := callerFromContext(c)
	if !ok {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}
	var req service.UpdateStudyMaterialRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid payload"))
		return
	}
	material, err := h.service.Update(c.Request.Context(), caller, c.Param("id"), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, material, nil)
}

// Delete godoc
// @Summary Delete a study material
// @Tags StudyMaterials
// @Security BearerAuth
// @Param id path string true "Material ID"
// @Success 204
// @Router /study-materials/{id} [delete]
func (h *StudyMaterialHandler) Delete(c *gin.Context) {
	caller, ok := callerFromContext(c)
	if !ok {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}
	if err := h.service.Delete(c.Request.Context(), caller, c.Param("id")); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}
