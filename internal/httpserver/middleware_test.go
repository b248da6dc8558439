package httpserver

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"pipecrm/internal/handler"
	"pipecrm/internal/util"
	"pipecrm/pkg/rbac"
	"pipecrm/pkg/trace"
)

const testSecret = "test-secret"

func testToken(t *testing.T, role string) string {
	t.Helper()
	token, err := util.GenerateJWT(util.Claims{
		UserID:   "user-1",
		TenantID: "tenant-1",
		Role:     role,
	}, testSecret)
	if err != nil {
		t.Fatalf("GenerateJWT: %v", err)
	}
	return token
}

func newTestRouter() *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(TraceMiddleware())
	return r
}

func TestTraceMiddlewareEchoesCallerTraceID(t *testing.T) {
	r := newTestRouter()
	r.GET("/ping", func(c *gin.Context) {
		c.String(http.StatusOK, trace.FromContext(c.Request.Context()))
	})

	req := httptest.NewRequest(http.MethodGet, "/ping", nil)
	req.Header.Set(trace.HeaderName(), "trace-123")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	if w.Body.String() != "trace-123" {
		t.Errorf("expected trace id in context, got %q", w.Body.String())
	}
	if got := w.Header().Get(trace.HeaderName()); got != "trace-123" {
		t.Errorf("expected trace id echoed, got %q", got)
	}
}

func TestTraceMiddlewareGeneratesTraceID(t *testing.T) {
	r := newTestRouter()
	r.GET("/ping", func(c *gin.Context) { c.Status(http.StatusOK) })

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/ping", nil))

	if w.Header().Get(trace.HeaderName()) == "" {
		t.Error("expected a generated trace id in the response")
	}
}

func TestAuthMiddleware(t *testing.T) {
	r := newTestRouter()
	r.GET("/me", AuthMiddleware(testSecret, zap.NewNop()), func(c *gin.Context) {
		claims, ok := handler.ClaimsFrom(c)
		if !ok {
			c.Status(http.StatusInternalServerError)
			return
		}
		c.String(http.StatusOK, claims.TenantID)
	})

	tests := []struct {
		name       string
		authHeader string
		wantStatus int
	}{
		{"missing token", "", http.StatusUnauthorized},
		{"malformed header", "nonsense", http.StatusUnauthorized},
		{"garbage token", "Bearer not.a.token", http.StatusUnauthorized},
		{"valid token", "Bearer " + testToken(t, rbac.RoleMember), http.StatusOK},
	}
	for _, tt := range tests {
		req := httptest.NewRequest(http.MethodGet, "/me", nil)
		if tt.authHeader != "" {
			req.Header.Set("Authorization", tt.authHeader)
		}
		w := httptest.NewRecorder()
		r.ServeHTTP(w, req)

		if w.Code != tt.wantStatus {
			t.Errorf("%s: expected status %d, got %d", tt.name, tt.wantStatus, w.Code)
		}
		if tt.wantStatus == http.StatusOK && w.Body.String() != "tenant-1" {
			t.Errorf("%s: expected tenant from claims, got %q", tt.name, w.Body.String())
		}
	}
}

func TestRequirePermission(t *testing.T) {
	r := newTestRouter()
	r.DELETE("/records/:id",
		AuthMiddleware(testSecret, zap.NewNop()),
		RequirePermission(rbac.PermissionDeleteRecord),
		func(c *gin.Context) { c.Status(http.StatusNoContent) },
	)

	memberReq := httptest.NewRequest(http.MethodDelete, "/records/1", nil)
	memberReq.Header.Set("Authorization", "Bearer "+testToken(t, rbac.RoleMember))
	w := httptest.NewRecorder()
	r.ServeHTTP(w, memberReq)
	if w.Code != http.StatusForbidden {
		t.Errorf("expected member to be forbidden, got %d", w.Code)
	}

	adminReq := httptest.NewRequest(http.MethodDelete, "/records/1", nil)
	adminReq.Header.Set("Authorization", "Bearer "+testToken(t, rbac.RoleAdmin))
	w = httptest.NewRecorder()
	r.ServeHTTP(w, adminReq)
	if w.Code != http.StatusNoContent {
		t.Errorf("expected admin delete to pass, got %d", w.Code)
	}
}
