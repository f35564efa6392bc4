package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/campushub/campus-api/internal/service"
	appErrors "github.com/campushub/campus-api/pkg/errors"
	"github.com/campushub/campus-api/pkg/response"
)

// PushHandler manages push subscription endpoints.
type PushHandler struct {
	service *service.PushService
}

// NewPushHandler constructs handler.
func NewPushHandler(svc *service.PushService) *PushHandler {
	return &PushHandler{service: svc}
}

// Subscribe godoc
// @Summary Register a push delivery channel
// @Tags Push
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param payload body service.SubscribePushRequest true "Subscription payload"
// @Success 201 {object} response.Envelope
// @Router /push/subscriptions [post]
func (h *PushHandler) Subscribe(c *gin.Context) {
	caller, ok := callerFromContext(c)
	if !ok {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}
	var req service.SubscribePushRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid payload"))
		return
	}
	sub, err := h.service.Subscribe(c.Request.Context(), caller, req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, sub)
}

// Unsubscribe godoc
// @Summary Remove a push delivery channel
// @Tags Push
// @Accept json
// @Security BearerAuth
// @Param payload body object true "Endpoint to remove"
// @Success 204
// @Router /push/subscriptions [delete]
func (h *PushHandler) Unsubscribe(c *gin.Context) {
	caller, ok := callerFromContext(c)
	if !ok {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}
	var req struct {
		Endpoint string `json:"endpoint"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid payload"))
		return
	}
	if err := h.service.Unsubscribe(c.Request.Context(), caller, req.Endpoint); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}

// List godoc
// @Summary List the caller's push delivery channels
// @Tags Push
// @Produce json
// @Security BearerAuth
// @Success 200 {object} response.Envelope
// @Router /push/subscriptions [get]
func (h *PushHandler) List(c *gin.Context) {
	caller, ok := callerFromContext(c)
	if !ok {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}
	subs, err := h.service.List(c.Request.Context(), caller)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, subs, nil)
}
