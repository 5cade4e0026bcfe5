package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"

	"github.com/deskflow-io/deskflow/internal/models"
	"github.com/deskflow-io/deskflow/internal/scope"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func TestRateLimiter_AllowsRequestsWithinLimit(t *testing.T) {
	rl := NewRateLimiter()
	key := "test:within-limit"
	limit := 10

	for i := 0; i < limit; i++ {
		allowed := rl.Allow(key, limit)
		assert.True(t, allowed, "request %d should be allowed", i+1)
	}
}

func TestRateLimiter_BlocksRequestsOverLimit(t *testing.T) {
	rl := NewRateLimiter()
	key := "test:over-limit"
	limit := 5

	for i := 0; i < limit; i++ {
		rl.Allow(key, limit)
	}

	allowed := rl.Allow(key, limit)
	assert.False(t, allowed, "request over limit should be blocked")
}

func TestRateLimiter_DifferentKeysHaveSeparateLimits(t *testing.T) {
	rl := NewRateLimiter()
	limit := 3

	for i := 0; i < limit; i++ {
		rl.Allow("key1", limit)
	}

	assert.False(t, rl.Allow("key1", limit), "key1 should be blocked")
	assert.True(t, rl.Allow("key2", limit), "key2 should be allowed")
}

func TestRateLimiter_RemainingReturnsCorrectCount(t *testing.T) {
	rl := NewRateLimiter()
	key := "test:remaining"
	limit := 10

	for i := 0; i < 3; i++ {
		rl.Allow(key, limit)
	}

	assert.Equal(t, 7, rl.Remaining(key), "should have 7 tokens remaining")
}

func TestRateLimitMiddleware_AddsHeaders(t *testing.T) {
	router := gin.New()
	router.Use(RateLimit())
	router.GET("/test", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"success": true})
	})

	req, _ := http.NewRequest("GET", "/test", nil)
	req.RemoteAddr = "192.168.1.100:12345"
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.NotEmpty(t, w.Header().Get("X-RateLimit-Limit"))
	assert.NotEmpty(t, w.Header().Get("X-RateLimit-Remaining"))
}

func TestRateLimitMiddleware_BlocksAfterLimitExceeded(t *testing.T) {
	oldLimiter := globalRateLimiter
	globalRateLimiter = NewRateLimiter()
	defer func() { globalRateLimiter = oldLimiter }()

	router := gin.New()
	router.Use(RateLimitByIP(5))
	router.GET("/test", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"success": true})
	})

	for i := 0; i < 5; i++ {
		req, _ := http.NewRequest("GET", "/test", nil)
		req.RemoteAddr = "10.0.0.1:12345"
		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)
		assert.Equal(t, http.StatusOK, w.Code, "request %d should succeed", i+1)
	}

	req, _ := http.NewRequest("GET", "/test", nil)
	req.RemoteAddr = "10.0.0.1:12345"
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusTooManyRequests, w.Code, "should return 429 when rate limited")
	assert.NotEmpty(t, w.Header().Get("Retry-After"))
}

func TestRateLimitMiddleware_KeysOnAuthenticatedUser(t *testing.T) {
	oldLimiter := globalRateLimiter
	globalRateLimiter = NewRateLimiter()
	defer func() { globalRateLimiter = oldLimiter }()

	router := gin.New()
	// Two users behind the same IP must not share a bucket.
	router.Use(func(c *gin.Context) {
		userID := c.GetHeader("X-Test-User")
		id := scope.Identity{OrganizationID: 10, Role: models.RoleAdmin}
		if userID == "1" {
			id.UserID = 1
		} else {
			id.UserID = 2
		}
		c.Set(identityKey, id)
		c.Next()
	})
	router.Use(RateLimit())
	router.GET("/test", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"success": true})
	})

	do := func(user string) *httptest.ResponseRecorder {
		req, _ := http.NewRequest("GET", "/test", nil)
		req.RemoteAddr = "10.0.0.1:12345"
		req.Header.Set("X-Test-User", user)
		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)
		return w
	}

	for i := 0; i < DefaultRateLimit; i++ {
		do("1")
	}
	assert.Equal(t, http.StatusTooManyRequests, do("1").Code, "user 1 should be exhausted")
	assert.Equal(t, http.StatusOK, do("2").Code, "user 2 should have a fresh bucket")
}
