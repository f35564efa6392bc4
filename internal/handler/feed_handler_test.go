package handler

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/campushub/campus-api/internal/feed"
	"github.com/campushub/campus-api/internal/middleware"
	"github.com/campushub/campus-api/internal/models"
)

func TestFeedHandlerRejectsUnknownCollection(t *testing.T) {
	gin.SetMode(gin.TestMode)
	handler := NewFeedHandler(feed.NewHub(4, nil, nil))

	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	req, err := http.NewRequest(http.MethodGet, "/feed/users", nil)
	require.NoError(t, err)
	c.Request = req
	c.Params = gin.Params{{Key: "collection", Value: "users"}}
	c.Set(middleware.ContextUserKey, &models.JWTClaims{UserID: "u-1", Role: models.RoleStudent})

	handler.Stream(c)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestFeedHandlerRequiresClaims(t *testing.T) {
	gin.SetMode(gin.TestMode)
	handler := NewFeedHandler(feed.NewHub(4, nil, nil))

	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	req, err := http.NewRequest(http.MethodGet, "/feed/notifications", nil)
	require.NoError(t, err)
	c.Request = req
	c.Params = gin.Params{{Key: "collection", Value: "notifications"}}

	handler.Stream(c)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}
