package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/chrism0rs/Taskie/internal/auth"
	"github.com/gin-gonic/gin"
)

func newAuthRouter(cfg auth.TokenConfig) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.GET("/", RequireAuth(cfg), func(c *gin.Context) {
		uid, ok := UserIDFromContext(c)
		if !ok {
			c.Status(http.StatusInternalServerError)
			return
		}
		c.JSON(http.StatusOK, gin.H{"userId": uid})
	})
	return r
}

func TestRequireAuth_SetsUserID(t *testing.T) {
	cfg := auth.TokenConfig{Secret: "secret", Expiry: time.Hour, Issuer: "test"}
	tok, err := auth.CreateToken(42, cfg)
	if err != nil {
		t.Fatalf("CreateToken: %v", err)
	}

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Authorization", "Bearer "+tok)
	w := httptest.NewRecorder()
	newAuthRouter(cfg).ServeHTTP(w, req)
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}
	if w.Body.String() != `{"userId":42}` {
		t.Fatalf("unexpected body %s", w.Body.String())
	}
}

func TestRequireAuth_Rejects(t *testing.T) {
	cfg := auth.TokenConfig{Secret: "secret", Expiry: time.Hour, Issuer: "test"}
	other, err := auth.CreateToken(42, auth.TokenConfig{Secret: "other", Expiry: time.Hour})
	if err != nil {
		t.Fatalf("CreateToken: %v", err)
	}

	for name, header := range map[string]string{
		"missing":      "",
		"wrong scheme": "Basic abc",
		"empty token":  "Bearer ",
		"garbage":      "Bearer not-a-jwt",
		"wrong secret": "Bearer " + other,
	} {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		if header != "" {
			req.Header.Set("Authorization", header)
		}
		w := httptest.NewRecorder()
		newAuthRouter(cfg).ServeHTTP(w, req)
		if w.Code != http.StatusUnauthorized {
			t.Fatalf("%s: expected 401, got %d", name, w.Code)
		}
	}
}
