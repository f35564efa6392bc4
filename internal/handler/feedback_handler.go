package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/campushub/campus-api/internal/service"
	appErrors "github.com/campushub/campus-api/pkg/errors"
	"github.com/campushub/campus-api/pkg/response"
)

// FeedbackHandler manages feedback endpoints.
type FeedbackHandler struct {
	service *service.FeedbackService
}

// NewFeedbackHandler constructs handler.
func NewFeedbackHandler(svc *service.FeedbackService) *FeedbackHandler {
	return &FeedbackHandler{service: svc}
}

// List godoc
// @Summary List feedback visible to the caller
// @Tags Feedback
// @Produce json
// @Security BearerAuth
// @Success 200 {object} response.Envelope
// @Router /feedback [get]
func (h *FeedbackHandler) List(c *gin.Context) {
	caller, ok := callerFromContext(c)
	if !ok {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}
	feedback, err := h.service.List(c.Request.Context(), caller)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, feedback, nil)
}

// Get godoc
// @Summary Get one feedback entry
// @Tags Feedback
// @Produce json
// @Security BearerAuth
// @Param id path string true "Feedback ID"
// @Success 200 {object} response.Envelope
// @Router /feedback/{id} [get]
func (h *FeedbackHandler) Get(c *gin.Context) {
	caller, ok := callerFromContext(c)
	if !ok {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}
	feedback, err := h.service.Get(c.Request.Context(), caller, c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, feedback, nil)
}

// Create godoc
// @Summary Submit feedback
// @Tags Feedback
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param payload body service.CreateFeedbackRequest true "Feedback payload"
// @Success 201 {object} response.Envelope
// @Router /feedback [post]
func (h *FeedbackHandler) Create(c *gin.Context) {
	caller, ok := callerFromContext(c)
	if !ok {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}
	var req service.CreateFeedbackRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid payload"))
		return
	}
	feedback, err := h.service.Create(c.Request.Context(), caller, req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, feedback)
}

// Respond godoc
// @Summary Respond to feedback
// @Tags Feedback
// @Accept json
// @Security BearerAuth
// @Param id path string true "Feedback ID"
// @Param payload body service.RespondFeedbackRequest true "Response payload"
// @Success 204
// @Router /feedback/{id}/respond [put]
func (h *FeedbackHandler) Respond(c *gin.Context) {
	caller, ok := callerFromContext(c)
	if !ok {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}
	var req service.RespondFeedbackRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid payload"))
		return
	}
	if err := h.service.Respond(c.Request.Context(), caller, c.Param("id"), req); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}

// Delete godoc
// @Summary Delete one of the caller's feedback entries
// @Tags Feedback
// @Security BearerAuth
// @Param id path string true "Feedback ID"
// @Success 204
// @Router /feedback/{id} [delete]
func (h *FeedbackHandler) Delete(c *gin.Context) {
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
