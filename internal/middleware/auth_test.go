package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/deskflow-io/deskflow/internal/auth"
	"github.com/deskflow-io/deskflow/internal/models"
)

func authTestRouter(mgr *auth.JWTManager) *gin.Engine {
	router := gin.New()
	router.Use(Auth(mgr))
	router.GET("/whoami", func(c *gin.Context) {
		id := GetIdentity(c)
		c.JSON(http.StatusOK, gin.H{"user_id": id.UserID, "role": string(id.Role)})
	})
	return router
}

func TestAuth_MissingHeader(t *testing.T) {
	router := authTestRouter(auth.NewJWTManager("secret", time.Hour))

	req, _ := http.NewRequest("GET", "/whoami", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Contains(t, w.Body.String(), "core:unauthorized")
}

func TestAuth_MalformedHeader(t *testing.T) {
	router := authTestRouter(auth.NewJWTManager("secret", time.Hour))

	req, _ := http.NewRequest("GET", "/whoami", nil)
	req.Header.Set("Authorization", "Basic dXNlcjpwdw==")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Contains(t, w.Body.String(), "core:invalid_token")
}

func TestAuth_TamperedToken(t *testing.T) {
	issuer := auth.NewJWTManager("secret-a", time.Hour)
	router := authTestRouter(auth.NewJWTManager("secret-b", time.Hour))

	token, err := issuer.Issue(&models.User{ID: 1, OrganizationID: 1, Role: models.RoleAdmin})
	require.NoError(t, err)

	req, _ := http.NewRequest("GET", "/whoami", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestAuth_ValidTokenSetsIdentity(t *testing.T) {
	mgr := auth.NewJWTManager("secret", time.Hour)
	router := authTestRouter(mgr)

	token, err := mgr.Issue(&models.User{ID: 7, OrganizationID: 10, Role: models.RoleEmployee})
	require.NoError(t, err)

	req, _ := http.NewRequest("GET", "/whoami", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"user_id":7`)
	assert.Contains(t, w.Body.String(), `"role":"EMPLOYEE"`)
}
