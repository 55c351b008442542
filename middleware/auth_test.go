package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	config "github.com/sourcecrowd/crowdfund-go/config"
	utils "github.com/sourcecrowd/crowdfund-go/utils"
)

func protectedRouter(cfg *config.Config) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.GET("/protected", AuthMiddleware(cfg), func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"user_id": c.GetString("user_id")})
	})
	return r
}

func TestAuthMiddlewareAcceptsValidToken(t *testing.T) {
	cfg := &config.Config{JWTSecret: "test-secret"}
	r := protectedRouter(cfg)

	token, err := utils.GenerateToken("64f1c0ffee", cfg.JWTSecret)
	require.NoError(t, err)

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/protected", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "64f1c0ffee")
}

func TestAuthMiddlewareRejectsMissingHeader(t *testing.T) {
	r := protectedRouter(&config.Config{JWTSecret: "test-secret"})

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/protected", nil))

	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestAuthMiddlewareRejectsMalformedHeader(t *testing.T) {
	r := protectedRouter(&config.Config{JWTSecret: "test-secret"})

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/protected", nil)
	req.Header.Set("Authorization", "Token abc")
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestAuthMiddlewareRejectsForgedToken(t *testing.T) {
	r := protectedRouter(&config.Config{JWTSecret: "test-secret"})

	forged, err := utils.GenerateToken("64f1c0ffee", "attacker-secret")
	require.NoError(t, err)

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/protected", nil)
	req.Header.Set("Authorization", "Bearer "+forged)
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusUnauthorized, w.Code)
}
