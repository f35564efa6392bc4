package handler

import (
	"io"

	"github.com/gin-gonic/gin"

	"github.com/campushub/campus-api/internal/authz"
	"github.com/campushub/campus-api/internal/feed"
	appErrors "github.com/campushub/campus-api/pkg/errors"
	"github.com/campushub/campus-api/pkg/response"
)

// Collections that may be streamed live. Delivery is still filtered per
// event through the ownership predicate; this list only rejects unknown
// path segments early.
var streamableCollections = map[authz.Collection]struct{}{
	authz.CollectionSchedules:      {},
	authz.CollectionNotifications:  {},
	authz.CollectionTimetable:      {},
	authz.CollectionAssignments:    {},
	authz.CollectionStudyMaterials: {},
	authz.CollectionUpdates:        {},
}

// FeedHandler streams live row inserts over server-sent events.
type FeedHandler struct {
	hub *feed.Hub
}

// NewFeedHandler constructs handler.
func NewFeedHandler(hub *feed.Hub) *FeedHandler {
	return &FeedHandler{hub: hub}
}

// Stream godoc
// @Summary Stream inserts of a collection as server-sent events
// @Tags Feed
// @Produce text/event-stream
// @Security BearerAuth
// @Param collection path string true "Collection name"
// @Success 200
// @Router /feed/{collection} [get]
func (h *FeedHandler) Stream(c *gin.Context) {
	caller, ok := callerFromContext(c)
	if !ok {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}
	collection := authz.Collection(c.Param("collection"))
	if _, ok := streamableCollections[collection]; !ok {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "unknown collection"))
		return
	}

	sub := h.hub.Subscribe(collection, caller)
	defer sub.Close()

	c.Writer.Header().Set("Content-Type", "text/event-stream")
	c.Writer.Header().Set("Cache-Control", "no-cache")
	c.Writer.Header().Set("Connection", "keep-alive")
	c.Writer.Flush()

	c.Stream(func(w io.Writer) bool {
		select {
		case ev, open := <-sub.C:
			if !open {
				return false
			}
			c.SSEvent("insert", ev)
			return true
		case <-c.Request.Context().Done():
			return false
		}
	})
}
