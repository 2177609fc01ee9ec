package httpkit

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"lead_intel_backend/platform/apperr"
	"lead_intel_backend/platform/logger"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

const testSecret = "middleware-secret"

type testJWTConfig struct{}

func (testJWTConfig) GetJWTAccessSecret() string { return testSecret }

func newAuthEngine(extra ...gin.HandlerFunc) *gin.Engine {
	gin.SetMode(gin.TestMode)
	engine := gin.New()
	handlers := append([]gin.HandlerFunc{AuthRequired(testJWTConfig{})}, extra...)
	handlers = append(handlers, func(c *gin.Context) {
		id, ok := MustGetIdentity(c)
		if !ok {
			return
		}
		c.JSON(http.StatusOK, gin.H{"user": id.UserID.String(), "roles": id.Roles})
	})
	engine.GET("/me", handlers...)
	return engine
}

func serve(engine *gin.Engine, req *http.Request) *httptest.ResponseRecorder {
	rec := httptest.NewRecorder()
	engine.ServeHTTP(rec, req)
	return rec
}

func TestAuthRequiredAcceptsBearerAndQueryToken(t *testing.T) {
	engine := newAuthEngine()
	token, err := SignAccessToken(testSecret, uuid.New(), []string{"collector"}, time.Hour)
	if err != nil {
		t.Fatalf("sign: %v", err)
	}

	req := httptest.NewRequest(http.MethodGet, "/me", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	if rec := serve(engine, req); rec.Code != http.StatusOK {
		t.Fatalf("bearer: expected 200, got %d", rec.Code)
	}

	req = httptest.NewRequest(http.MethodGet, "/me?token="+token, nil)
	if rec := serve(engine, req); rec.Code != http.StatusOK {
		t.Fatalf("query: expected 200, got %d", rec.Code)
	}
}

func TestAuthRequiredRejectsBadTokens(t *testing.T) {
	engine := newAuthEngine()

	expired, _ := SignAccessToken(testSecret, uuid.New(), nil, -time.Minute)
	wrongSecret, _ := SignAccessToken("other", uuid.New(), nil, time.Hour)
	refresh, _ := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"sub":  uuid.NewString(),
		"type": "refresh",
		"exp":  time.Now().Add(time.Hour).Unix(),
	}).SignedString([]byte(testSecret))
	badSubject, _ := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"sub":  "not-a-uuid",
		"type": TokenTypeAccess,
		"exp":  time.Now().Add(time.Hour).Unix(),
	}).SignedString([]byte(testSecret))

	cases := map[string]string{
		"missing":      "",
		"expired":      expired,
		"wrong secret": wrongSecret,
		"refresh":      refresh,
		"bad subject":  badSubject,
	}
	for name, token := range cases {
		req := httptest.NewRequest(http.MethodGet, "/me", nil)
		if token != "" {
			req.Header.Set("Authorization", "Bearer "+token)
		}
		if rec := serve(engine, req); rec.Code != http.StatusUnauthorized {
			t.Errorf("%s: expected 401, got %d", name, rec.Code)
		}
	}
}

func TestRequireRole(t *testing.T) {
	engine := newAuthEngine(RequireRole("collector", "admin"))

	for roles, want := range map[string]int{
		"admin":  http.StatusOK,
		"viewer": http.StatusForbidden,
	} {
		token, _ := SignAccessToken(testSecret, uuid.New(), []string{roles}, time.Hour)
		req := httptest.NewRequest(http.MethodGet, "/me", nil)
		req.Header.Set("Authorization", "Bearer "+token)
		if rec := serve(engine, req); rec.Code != want {
			t.Errorf("role %s: expected %d, got %d", roles, want, rec.Code)
		}
	}
}

func TestRateLimitPerIP(t *testing.T) {
	gin.SetMode(gin.TestMode)
	limiter := NewIPRateLimiter(0.0001, 2, logger.Nop())
	engine := gin.New()
	engine.GET("/", limiter.RateLimit(), func(c *gin.Context) { c.Status(http.StatusNoContent) })

	call := func(ip string) int {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.RemoteAddr = ip + ":1234"
		return serve(engine, req).Code
	}

	if call("10.0.0.1") != http.StatusNoContent || call("10.0.0.1") != http.StatusNoContent {
		t.Fatalf("expected burst of two to pass")
	}
	if code := call("10.0.0.1"); code != http.StatusTooManyRequests {
		t.Fatalf("expected 429 after burst, got %d", code)
	}
	if code := call("10.0.0.2"); code != http.StatusNoContent {
		t.Fatalf("expected other IP unaffected, got %d", code)
	}
}

func TestPerMinuteLimiterDisabled(t *testing.T) {
	gin.SetMode(gin.TestMode)
	limiter := NewPerMinuteLimiter(0, nil)
	engine := gin.New()
	engine.GET("/", limiter.RateLimit(), func(c *gin.Context) { c.Status(http.StatusNoContent) })

	for range 50 {
		if code := serve(engine, httptest.NewRequest(http.MethodGet, "/", nil)).Code; code != http.StatusNoContent {
			t.Fatalf("expected unlimited, got %d", code)
		}
	}
}

func TestRequestIDPropagates(t *testing.T) {
	gin.SetMode(gin.TestMode)
	engine := gin.New()
	engine.Use(RequestID())
	engine.GET("/", func(c *gin.Context) {
		Error(c, http.StatusTeapot, "nope", nil)
	})

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set(HeaderRequestID, "req-123")
	rec := serve(engine, req)
	if rec.Header().Get(HeaderRequestID) != "req-123" {
		t.Fatalf("expected request id echoed, got %q", rec.Header().Get(HeaderRequestID))
	}
	if body := rec.Body.String(); body != `{"error":"nope","requestId":"req-123"}` {
		t.Fatalf("unexpected body %s", body)
	}

	rec = serve(engine, httptest.NewRequest(http.MethodGet, "/", nil))
	if _, err := uuid.Parse(rec.Header().Get(HeaderRequestID)); err != nil {
		t.Fatalf("expected generated uuid, got %q", rec.Header().Get(HeaderRequestID))
	}
}

func TestHandleErrorMapsKinds(t *testing.T) {
	gin.SetMode(gin.TestMode)
	cases := []struct {
		err  error
		want int
	}{
		{apperr.NotFound("lead not found"), http.StatusNotFound},
		{apperr.Conflict("already actioned"), http.StatusConflict},
		{apperr.Validation("bad payload"), http.StatusUnprocessableEntity},
		{errors.New("boom"), http.StatusInternalServerError},
	}
	for _, tc := range cases {
		rec := httptest.NewRecorder()
		c, _ := gin.CreateTestContext(rec)
		if !HandleError(c, tc.err) {
			t.Fatalf("expected handled")
		}
		if rec.Code != tc.want {
			t.Errorf("%v: expected %d, got %d", tc.err, tc.want, rec.Code)
		}
	}

	c, _ := gin.CreateTestContext(httptest.NewRecorder())
	if HandleError(c, nil) {
		t.Fatalf("nil error must not be handled")
	}
}
