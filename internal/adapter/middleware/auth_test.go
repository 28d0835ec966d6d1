package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/labstack/echo/v4"

	"vehicle-loan-backend/internal/domain/actor"
	"vehicle-loan-backend/internal/infrastructure/auth"
)

func newAuthEcho(t *testing.T) (*echo.Echo, *auth.JWTService) {
	t.Helper()
	svc, err := auth.NewJWTService(auth.JWTConfig{Secret: "test-secret", Issuer: "vehicle-loan"})
	if err != nil {
		t.Fatalf("jwt: %v", err)
	}
	e := echo.New()
	e.Use(Auth(svc))
	e.GET("/whoami", func(c echo.Context) error {
		a := ActorFrom(c)
		return c.JSON(http.StatusOK, map[string]any{
			"id":      a.ID,
			"role":    a.Role,
			"approve": a.Has(actor.CapApprove),
		})
	})
	return e, svc
}

func TestAuth(t *testing.T) {
	e, svc := newAuthEcho(t)

	token, err := svc.GenerateToken("fin-1", actor.RoleFinanceManager)
	if err != nil {
		t.Fatalf("GenerateToken: %v", err)
	}
	other, err := auth.NewJWTService(auth.JWTConfig{Secret: "other-secret", Issuer: "vehicle-loan"})
	if err != nil {
		t.Fatalf("jwt: %v", err)
	}
	forged, _ := other.GenerateToken("fin-1", actor.RoleAdmin)

	cases := map[string]struct {
		header string
		want   int
	}{
		"valid":         {"Bearer " + token, http.StatusOK},
		"lower scheme":  {"bearer " + token, http.StatusOK},
		"missing":       {"", http.StatusUnauthorized},
		"wrong scheme":  {"Basic " + token, http.StatusUnauthorized},
		"empty token":   {"Bearer ", http.StatusUnauthorized},
		"bad signature": {"Bearer " + forged, http.StatusUnauthorized},
		"garbage":       {"Bearer not.a.jwt", http.StatusUnauthorized},
	}
	for name, tc := range cases {
		t.Run(name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/whoami", nil)
			if tc.header != "" {
				req.Header.Set(echo.HeaderAuthorization, tc.header)
			}
			rec := httptest.NewRecorder()
			e.ServeHTTP(rec, req)
			if rec.Code != tc.want {
				t.Fatalf("want %d, got %d (%s)", tc.want, rec.Code, rec.Body.String())
			}
			if tc.want == http.StatusOK && rec.Body.String() != `{"approve":true,"id":"fin-1","role":"finance_manager"}`+"\n" {
				t.Fatalf("unexpected actor: %s", rec.Body.String())
			}
		})
	}
}

func TestActorFrom_Anonymous(t *testing.T) {
	c := echo.New().NewContext(httptest.NewRequest(http.MethodGet, "/", nil), httptest.NewRecorder())
	if a := ActorFrom(c); a.ID != "" || a.Has(actor.CapApply) {
		t.Fatalf("expected anonymous actor, got %+v", a)
	}
}
