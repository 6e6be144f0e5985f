package render

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"tourbook/internal/domain"

	"github.com/gin-gonic/gin"
)

func serve(t *testing.T, err error) map[string]any {
	t.Helper()
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.GET("/boom", func(c *gin.Context) { Error(c, err) })

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/boom", nil))

	var body map[string]any
	if jerr := json.Unmarshal(w.Body.Bytes(), &body); jerr != nil {
		t.Fatalf("bad body %q: %v", w.Body.String(), jerr)
	}
	body["_code"] = float64(w.Code)
	return body
}

func TestVerboseModeEchoesDiagnostics(t *testing.T) {
	SetMode(false)
	body := serve(t, domain.NotFound("No document found with that ID"))
	if body["_code"] != float64(404) || body["status"] != "fail" {
		t.Fatalf("wrong envelope: %v", body)
	}
	if body["message"] != "No document found with that ID" {
		t.Fatalf("wrong message: %v", body["message"])
	}
	if _, ok := body["stack"]; !ok {
		t.Fatalf("development mode must include a stack")
	}
}

func TestTerseModeKeepsOperationalMessage(t *testing.T) {
	SetMode(true)
	defer SetMode(false)

	body := serve(t, domain.Forbidden("You do not have permission to perform this action"))
	if body["message"] != "You do not have permission to perform this action" {
		t.Fatalf("operational message must survive terse mode: %v", body)
	}
	if _, leaked := body["stack"]; leaked {
		t.Fatalf("terse mode must not leak a stack")
	}
}

func TestTerseModeHidesUnexpectedFailures(t *testing.T) {
	SetMode(true)
	defer SetMode(false)

	body := serve(t, errors.New("pq: connection refused"))
	if body["_code"] != float64(500) || body["status"] != "error" {
		t.Fatalf("wrong envelope: %v", body)
	}
	if body["message"] != "Something went wrong" {
		t.Fatalf("internal detail leaked: %v", body["message"])
	}
}

func TestDefaultStatusIs500(t *testing.T) {
	SetMode(false)
	body := serve(t, errors.New("plain failure"))
	if body["_code"] != float64(500) || body["status"] != "error" {
		t.Fatalf("bare errors must default to 500/error: %v", body)
	}
}
