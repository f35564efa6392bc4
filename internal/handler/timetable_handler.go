package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/campushub/campus-api/internal/service"
	appErrors "github.com/campushub/campus-api/pkg/errors"
	"github.com/campushub/campus-api/pkg/response"
)

// TimetableHandler manages class timetable endpoints.
type TimetableHandler struct {
	service *service.TimetableService
}

// NewTimetableHandler constructs handler.
func NewTimetableHandler(svc *service.TimetableService) *TimetableHandler {
	return &TimetableHandler{service: svc}
}

// ListMine godoc
// @Summary List the lecturer's timetable entries
// @Tags Timetable
// @Produce json
// @Security BearerAuth
// @Success 200 {object} response.Envelope
// @Router /timetable/mine [get]
func (h *TimetableHandler) ListMine(c *gin.Context) {
	caller, ok := callerFromContext(c)
	if !ok {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}
	entries, err := h.service.ListMine(c.Request.Context(), caller)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, entries, nil)
}

// ListForClass godoc
// @Summary List the caller's class timetable
// @Tags Timetable
// @Produce json
// @Security BearerAuth
// @Param dayOfWeek query string false "Filter by day"
// @Success 200 {object} response.Envelope
// @Router /timetable [get]
func (h *TimetableHandler) ListForClass(c *gin.Context) {
	caller, ok := callerFromContext(c)
	if !ok {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}
	entries, err := h.service.ListForClass(c.Request.Context(), caller, c.Query("dayOfWeek"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, entries, nil)
}

// Get godoc
// @Summary Get a timetable entry
// @Tags Timetable
// @Produce json
// @Security BearerAuth
// @Param id path string true "Entry ID"
// @Success 200 {object} response.Envelope
// @Router /timetable/{id} [get]
func (h *TimetableHandler) Get(c *gin.Context) {
	caller, ok := callerFromContext(c)
	if !ok {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}
	entry, err := h.service.Get(c.Request.Context(), caller, c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, entry, nil)
}

// Create godoc
// @Summary Create a timetable entry
// @Tags Timetable
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param payload body service.CreateTimetableEntryRequest true "Entry payload"
// @Success 201 {object} response.Envelope
// @Router /timetable [post]
func (h *TimetableHandler) Create(c *gin.Context) {
	caller, ok := callerFromContext(c)
	if !ok {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}
	var req service.CreateTimetableEntryRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid payload"))
		return
	}
	entry, err := h.service.Create(c.Request.Context(), caller, req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, entry)
}

// Update godoc
// @Summary Update a timetable entry
// @Tags Timetable
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path string true "Entry ID"
// @Param payload body service.UpdateTimetableEntryRequest true "Entry payload"
// @Success 200 {object} response.Envelope
// @Router /timetable/{id} [put]
func (h *TimetableHandler) Update(c *gin.Context) {
	caller, ok := callerFromContext(c)
	if !ok {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}
	var req service.UpdateTimetableEntryRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid payload"))
		return
	}
	entry, err := h.service.Update(c.Request.Context(), caller, c.Param("id"), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, entry, nil)
}

// Delete godoc
// @Summary Delete a timetable entry
// @Tags Timetable
// @Security BearerAuth
// @Param id path string true "Entry ID"
// @Success 204
// @Router /timetable/{id} [delete]
func (h *TimetableHandler) Delete(c *gin.Context) {
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
