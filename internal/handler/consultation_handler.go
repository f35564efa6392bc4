package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/campushub/campus-api/internal/service"
	appErrors "github.com/campushub/campus-api/pkg/errors"
	"github.com/campushub/campus-api/pkg/response"
)

// ConsultationHandler manages consultation endpoints.
type ConsultationHandler struct {
	service *service.ConsultationService
}

// NewConsultationHandler constructs handler.
func NewConsultationHandler(svc *service.ConsultationService) *ConsultationHandler {
	return &ConsultationHandler{service: svc}
}

// List godoc
// @Summary List the lecturer's consultations
// @Tags Consultations
// @Produce json
// @Security BearerAuth
// @Success 200 {object} response.Envelope
// @Router /consultations [get]
func (h *ConsultationHandler) List(c *gin.Context) {
	caller, ok := callerFromContext(c)
	if !ok {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}
	consultations, err := h.service.List(c.Request.Context(), caller)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, consultations, nil)
}

// Get godoc
// @Summary Get one consultation
// @Tags Consultations
// @Produce json
// @Security BearerAuth
// @Param id path string true "Consultation ID"
// @Success 200 {object} response.Envelope
// @Router /consultations/{id} [get]
func (h *ConsultationHandler) Get(c *gin.Context) {
	caller, ok := callerFromContext(c)
	if !ok {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}
	consultation, err := h.service.Get(c.Request.Context(), caller, c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, consultation, nil)
}

// Create godoc
// @Summary Create a consultation
// @Tags Consultations
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param payload body service.CreateConsultationRequest true "Consultation payload"
// @Success 201 {object} response.Envelope
// @Router /consultations [post]
func (h *ConsultationHandler) Create(c *gin.Context) {
	caller, ok := callerFromContext(c)
	if !ok {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}
	var req service.CreateConsultationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid payload"))
		return
	}
	consultation, err := h.service.Create(c.Request.Context(), caller, req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, consultation)
}

// UpdateStatus godoc
// @Summary Update a consultation's status
// @Tags Consultations
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path string true "Consultation ID"
// @Param payload body object true "New status"
// @Success 200 {object} response.Envelope
// @Router /consultations/{id}/status [put]
func (h *ConsultationHandler) UpdateStatus(c *gin.Context) {
	caller, ok := callerFromContext(c)
	if !ok {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}
	var req struct {
		Status string `json:"status"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid payload"))
		return
	}
	consultation, err := h.service.UpdateStatus(c.Request.Context(), caller, c.Param("id"), req.Status)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, consultation, nil)
}

// Delete godoc
// @Summary Delete a consultation
// @Tags Consultations
// @Security BearerAuth
// @Param id path string true "Consultation ID"
// @Success 204
// @Router /consultations/{id} [delete]
func (h *ConsultationHandler) Delete(c *gin.Context) {
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
