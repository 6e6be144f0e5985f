package middleware

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"tourbook/internal/domain"
	"tourbook/internal/domain/models"

	"github.com/gin-gonic/gin"
)

type stubUsers struct {
	user    models.User
	changed time.Time
	missing bool
}

func (s stubUsers) Credentials(ctx context.Context, id int64) (models.User, time.Time, error) {
	if s.missing {
		return models.User{}, time.Time{}, domain.ErrNoDocument()
	}
	return s.user, s.changed, nil
}

var testSecret = []byte("test-secret")

func gateRouter(t *testing.T, users stubUsers, roles ...string) (*gin.Engine, *bool) {
	t.Helper()
	gin.SetMode(gin.TestMode)

	gate := AuthGate{Users: users, Secret: testSecret}
	reached := false

	r := gin.New()
	chain := []gin.HandlerFunc{gate.Protect()}
	if len(roles) > 0 {
		chain = append(chain, gate.RestrictTo(roles...))
	}
	chain = append(chain, func(c *gin.Context) {
		reached = true
		c.JSON(http.StatusOK, gin.H{"status": "success"})
	})
	r.POST("/guarded", chain...)
	return r, &reached
}

func doRequest(r *gin.Engine, token string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, "/guarded", nil)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func message(t *testing.T, w *httptest.ResponseRecorder) string {
	t.Helper()
	var body map[string]any
	if err := json.Unmarshal(w.Body.Bytes(), &body); err != nil {
		t.Fatalf("bad body %q: %v", w.Body.String(), err)
	}
	msg, _ := body["message"].(string)
	return msg
}

func TestProtectMissingToken(t *testing.T) {
	r, reached := gateRouter(t, stubUsers{user: models.User{ID: 1, Role: "user"}})
	w := doRequest(r, "")
	if w.Code != http.StatusUnauthorized {
		t.Fatalf("status = %d, want 401", w.Code)
	}
	if message(t, w) != "You are not logged in! Please log in to get access." {
		t.Fatalf("wrong message: %q", message(t, w))
	}
	if *reached {
		t.Fatalf("handler must not run without a token")
	}
}

func TestProtectTamperedToken(t *testing.T) {
	r, reached := gateRouter(t, stubUsers{user: models.User{ID: 1, Role: "user"}})
	forged, err := SignToken([]byte("wrong-secret"), 1, time.Hour)
	if err != nil {
		t.Fatalf("sign: %v", err)
	}
	w := doRequest(r, forged)
	if w.Code != http.StatusUnauthorized || *reached {
		t.Fatalf("tampered token must 401 before the handler, got %d reached=%v", w.Code, *reached)
	}
}

func TestProtectExpiredToken(t *testing.T) {
	r, reached := gateRouter(t, stubUsers{user: models.User{ID: 1, Role: "user"}})
	expired, err := SignToken(testSecret, 1, -time.Hour)
	if err != nil {
		t.Fatalf("sign: %v", err)
	}
	w := doRequest(r, expired)
	if w.Code != http.StatusUnauthorized || *reached {
		t.Fatalf("expired token must 401 before the handler, got %d reached=%v", w.Code, *reached)
	}
}

func TestProtectDeletedAccount(t *testing.T) {
	r, reached := gateRouter(t, stubUsers{missing: true})
	token, _ := SignToken(testSecret, 42, time.Hour)
	w := doRequest(r, token)
	if w.Code != http.StatusUnauthorized || *reached {
		t.Fatalf("deleted account must 401, got %d reached=%v", w.Code, *reached)
	}
	if message(t, w) != "The user belonging to this token does no longer exist." {
		t.Fatalf("wrong message: %q", message(t, w))
	}
}

func TestProtectStalePassword(t *testing.T) {
	// password changed after the token was issued
	r, reached := gateRouter(t, stubUsers{
		user:    models.User{ID: 1, Role: "user"},
		changed: time.Now().Add(time.Hour),
	})
	token, _ := SignToken(testSecret, 1, time.Hour)
	w := doRequest(r, token)
	if w.Code != http.StatusUnauthorized || *reached {
		t.Fatalf("stale token must 401, got %d reached=%v", w.Code, *reached)
	}
	if message(t, w) != "User recently changed password! Please log in again." {
		t.Fatalf("wrong message: %q", message(t, w))
	}
}

func TestRestrictToRejectsRole(t *testing.T) {
	r, reached := gateRouter(t, stubUsers{user: models.User{ID: 1, Role: "user"}}, "admin", "lead-guide")
	token, _ := SignToken(testSecret, 1, time.Hour)
	w := doRequest(r, token)
	if w.Code != http.StatusForbidden || *reached {
		t.Fatalf("forbidden role must 403 before the handler, got %d reached=%v", w.Code, *reached)
	}
	if message(t, w) != "You do not have permission to perform this action" {
		t.Fatalf("wrong message: %q", message(t, w))
	}
}

func TestRestrictToAllowsListedRole(t *testing.T) {
	r, reached := gateRouter(t, stubUsers{user: models.User{ID: 1, Role: "admin"}}, "admin")
	token, _ := SignToken(testSecret, 1, time.Hour)
	w := doRequest(r, token)
	if w.Code != http.StatusOK || !*reached {
		t.Fatalf("allowed role must pass, got %d reached=%v", w.Code, *reached)
	}
}

func TestCookieTransport(t *testing.T) {
	gin.SetMode(gin.TestMode)
	gate := AuthGate{Users: stubUsers{user: models.User{ID: 1, Role: "user"}}, Secret: testSecret}
	r := gin.New()
	r.GET("/p", gate.Protect(), func(c *gin.Context) { c.Status(http.StatusOK) })

	token, _ := SignToken(testSecret, 1, time.Hour)
	req := httptest.NewRequest(http.MethodGet, "/p", nil)
	req.AddCookie(&http.Cookie{Name: CookieName, Value: token})
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	if w.Code != http.StatusOK {
		t.Fatalf("cookie auth failed: %d", w.Code)
	}
}

func TestOptionalAuthProceedsAnonymously(t *testing.T) {
	gin.SetMode(gin.TestMode)
	gate := AuthGate{Users: stubUsers{user: models.User{ID: 1, Role: "user"}}, Secret: testSecret}
	r := gin.New()
	var anonymous bool
	r.GET("/page", gate.OptionalAuth(), func(c *gin.Context) {
		_, ok := domain.PrincipalFrom(c.Request.Context())
		anonymous = !ok
		c.Status(http.StatusOK)
	})

	forged, _ := SignToken([]byte("wrong-secret"), 1, time.Hour)
	req := httptest.NewRequest(http.MethodGet, "/page", nil)
	req.Header.Set("Authorization", "Bearer "+forged)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	if w.Code != http.StatusOK || !anonymous {
		t.Fatalf("optional auth must proceed anonymously, got %d anonymous=%v", w.Code, anonymous)
	}
}
