package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/user/corral/backend/pkg/jwt"
)

func TestAuthMiddlewareSetsIdentity(t *testing.T) {
	gin.SetMode(gin.TestMode)
	manager := jwt.NewManager("test-secret")
	userID := uuid.New()
	pair, err := manager.GenerateTokenPair(userID, "maria@ranch.example", "tablet-1")
	require.NoError(t, err)

	r := gin.New()
	r.Use(AuthMiddleware(manager))
	r.GET("/whoami", func(c *gin.Context) {
		gotUser, ok := GetUserID(c)
		assert.True(t, ok)
		assert.Equal(t, userID, gotUser)

		email, ok := GetEmail(c)
		assert.True(t, ok)
		assert.Equal(t, "maria@ranch.example", email)

		device, ok := GetDeviceID(c)
		assert.True(t, ok)
		assert.Equal(t, "tablet-1", device)

		c.Status(http.StatusOK)
	})

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/whoami", nil)
	req.Header.Set(AuthorizationHeader, BearerPrefix+pair.AccessToken)
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
}

func TestAuthMiddlewareRejectsMissingHeader(t *testing.T) {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(AuthMiddleware(jwt.NewManager("test-secret")))
	r.GET("/whoami", func(c *gin.Context) { c.Status(http.StatusOK) })

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/whoami", nil))

	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestAuthMiddlewareRejectsBadScheme(t *testing.T) {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(AuthMiddleware(jwt.NewManager("test-secret")))
	r.GET("/whoami", func(c *gin.Context) { c.Status(http.StatusOK) })

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/whoami", nil)
	req.Header.Set(AuthorizationHeader, "Basic abc123")
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestAuthMiddlewareRejectsForeignToken(t *testing.T) {
	gin.SetMode(gin.TestMode)
	pair, err := jwt.NewManager("another-secret").GenerateTokenPair(uuid.New(), "x@y.example", "")
	require.NoError(t, err)

	r := gin.New()
	r.Use(AuthMiddleware(jwt.NewManager("test-secret")))
	r.GET("/whoami", func(c *gin.Context) { c.Status(http.StatusOK) })

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/whoami", nil)
	req.Header.Set(AuthorizationHeader, BearerPrefix+pair.AccessToken)
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusUnauthorized, w.Code)
}
