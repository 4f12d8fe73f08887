package rbac

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"opsconsole/internal/auth"

	"github.com/gin-gonic/gin"
)

func routerWithRole(role string, mw gin.HandlerFunc) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.GET("/x", func(c *gin.Context) {
		ctx := auth.WithIdentity(c.Request.Context(), "u", role)
		c.Request = c.Request.WithContext(ctx)
		c.Next()
	}, mw, func(c *gin.Context) {
		c.Status(200)
	})
	return r
}

func TestRequireAnyRole_AdminBypasses(t *testing.T) {
	r := routerWithRole(RoleAdmin, RequireAnyRole(RoleFinanceOps))

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/x", nil))
	if w.Code != 200 {
		t.Fatalf("expected 200, got %d", w.Code)
	}
}

func TestRequireAnyRole_HiddenRoleDeniedUnlessAllowed(t *testing.T) {
	r := routerWithRole(RoleScheduler, RequireAnyRole(RoleFinanceOps))

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/x", nil))
	if w.Code != 403 {
		t.Fatalf("expected 403, got %d", w.Code)
	}

	r = routerWithRole(RoleScheduler, RequireAnyRole(RoleScheduler))
	w = httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/x", nil))
	if w.Code != 200 {
		t.Fatalf("expected 200 when hidden role explicitly allowed, got %d", w.Code)
	}
}

func TestRequireAnyRole_MissingRole(t *testing.T) {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.GET("/x", RequireAnyRole(RoleAuditor), func(c *gin.Context) { c.Status(200) })

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/x", nil))
	if w.Code != 401 {
		t.Fatalf("expected 401, got %d", w.Code)
	}
}

func TestDecisionAllowed_PerKind(t *testing.T) {
	cases := []struct {
		role, kind string
		want       bool
	}{
		{RoleComplianceOfficer, "compliance", true},
		{RoleComplianceOfficer, "recon_exception", false},
		{RoleFinanceOps, "recon_exception", true},
		{RoleMerchOps, "merch_alert", true},
		{RoleProcurementManager, "procurement", true},
		{RoleAuditor, "compliance", false},
		{RoleAdmin, "merch_alert", true},
		{RoleScheduler, "compliance", true},
		{RoleScheduler, "recon_exception", true},
		{RoleScheduler, "merch_alert", false},
	}
	for _, c := range cases {
		if got := DecisionAllowed(c.role, c.kind); got != c.want {
			t.Fatalf("%s/%s: expected %v", c.role, c.kind, c.want)
		}
	}
}
