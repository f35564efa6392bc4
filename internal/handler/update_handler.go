package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/campushub/campus-api/internal/service"
	appErrors "github.com/campushub/campus-api/pkg/errors"
	"github.com/campushub/campus-api/pkg/response"
)

// UpdateHandler manages campus update endpoints.
type UpdateHandler struct {
	service *service.UpdateService
}

// NewUpdateHandler constructs handler.
func NewUpdateHandler(svc *service.UpdateService) *UpdateHandler {
	return &UpdateHandler{service: svc}
}

// List godoc
// @Summary List updates visible to the caller
// @Tags Updates
// @Produce json
// @Security BearerAuth
// @Success 200 {object} response.Envelope
// @Router /updates [get]
func (h *UpdateHandler) List(c *gin.Context) {
	caller, ok := callerFromContext(c)
	if !ok {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}
	updates, err := h.service.ListVisible(c.Request.Context(), caller)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, updates, nil)
}

// Get godoc
// @Summary Get an update
// @Tags Updates
// @Produce json
// @Security BearerAuth
// @Param id path string true "Update ID"
// @Success 200 {object} response.Envelope
// @Router /updates/{id} [get]
func (h *UpdateHandler) Get(c *gin.Context) {
	caller, ok := callerFromContext(c)
	if !ok {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}
	update, err := h.service.Get(c.Request.Context(), caller, c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, update, nil)
}

// Create godoc
// @Summary Publish an update
// @Tags Updates
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param payload body service.CreateUpdateRequest true "Update payload"
// @Success 201 {object} response.Envelope
// @Router /updates [post]
func (h *UpdateHandler) Create(c *gin.Context) {
	caller, ok := callerFromContext(c)
	if !ok {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}
	var req service.CreateUpdateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid payload"))
		return
	}
	update, err := h.service.Create(c.Request.Context(), caller, req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, update)
}

// Update godoc
// @Summary Edit an update
// @Tags Updates
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path string true "Update ID"
// @Param payload body service.UpdateUpdateRequest true "Update payload"
// @Success 200 {object} response.Envelope
// @Router /updates/{id} [put]
func (h *UpdateHandler) Update(c *gin.Context) {
	caller, ok := callerFromContext(c)
	if !ok {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}
	var req service.UpdateUpdateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid payload"))
		return
	}
	update, err := h.service.Update(c.Request.Context(), caller, c.Param("id"), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, update, nil)
}

// Delete godoc
// @Summary Delete an update
// @Tags Updates
// @Security BearerAuth
// @Param id path string true "Update ID"
// @Success 204
// @Router /updates/{id} [delete]
func (h *UpdateHandler) Delete(c *gin.Context) {
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
