package handlers

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"tourbook/internal/domain/models"
	"tourbook/internal/repositories"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/gin-gonic/gin"
)

func tourTestRouter(t *testing.T) (*gin.Engine, sqlmock.Sqlmock, func()) {
	t.Helper()
	gin.SetMode(gin.TestMode)

	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock init error: %v", err)
	}
	repo := repositories.ToursRepository{DB: db}

	r := gin.New()
	r.GET("/tours", GetAll[models.Tour](repo))
	r.POST("/tours", CreateOne[models.Tour](repo))
	r.GET("/tours/:id", GetOne[models.Tour](repo))
	r.DELETE("/tours/:id", DeleteOne[models.Tour](repo))
	return r, mock, func() { db.Close() }
}

func decode(t *testing.T, w *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var body map[string]any
	if err := json.Unmarshal(w.Body.Bytes(), &body); err != nil {
		t.Fatalf("bad body %q: %v", w.Body.String(), err)
	}
	return body
}

func TestGetOneMalformedIDIsNotFound(t *testing.T) {
	r, mock, closeDB := tourTestRouter(t)
	defer closeDB()

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/tours/not-an-id", nil))
	if w.Code != http.StatusNotFound {
		t.Fatalf("status = %d, want 404", w.Code)
	}
	body := decode(t, w)
	if body["message"] != "No document found with that ID" {
		t.Fatalf("wrong message: %v", body["message"])
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("malformed id must not reach the store: %v", err)
	}
}

func TestGetOneMissingRow(t *testing.T) {
	r, mock, closeDB := tourTestRouter(t)
	defer closeDB()

	mock.ExpectQuery("FROM tours WHERE id = \\?").
		WithArgs(int64(42)).
		WillReturnRows(sqlmock.NewRows([]string{"id"}))

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/tours/42", nil))
	if w.Code != http.StatusNotFound {
		t.Fatalf("status = %d, want 404", w.Code)
	}
	if decode(t, w)["message"] != "No document found with that ID" {
		t.Fatalf("wrong message")
	}
}

func TestGetAllPageBeyondTotal(t *testing.T) {
	r, mock, closeDB := tourTestRouter(t)
	defer closeDB()

	mock.ExpectQuery("SELECT COUNT\\(\\*\\) FROM tours").
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(3))

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/tours?page=2&limit=100", nil))
	if w.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", w.Code)
	}
	body := decode(t, w)
	if body["status"] != "fail" || body["message"] != "This page does not exist" {
		t.Fatalf("wrong envelope: %v", body)
	}
	// the listing query must never have run
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unexpected store access: %v", err)
	}
}

func TestGetAllReturnsCountAndList(t *testing.T) {
	r, mock, closeDB := tourTestRouter(t)
	defer closeDB()

	now := time.Now()
	rows := sqlmock.NewRows([]string{
		"id", "name", "slug", "duration", "max_group_size", "difficulty",
		"ratings_average", "ratings_quantity", "price", "price_discount",
		"summary", "description", "image_cover", "secret_tour",
		"created_at", "updated_at",
	}).
		AddRow(1, "A", "a", 3, 10, "easy", 4.5, 0, 100.0, 0.0, "", "", "", false, now, now).
		AddRow(2, "B", "b", 5, 12, "medium", 4.5, 0, 200.0, 0.0, "", "", "", false, now, now)
	mock.ExpectQuery("FROM tours .*ORDER BY created_at DESC LIMIT \\? OFFSET \\?").
		WillReturnRows(rows)

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/tours", nil))
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200: %s", w.Code, w.Body.String())
	}
	body := decode(t, w)
	if body["status"] != "success" || body["results"] != float64(2) {
		t.Fatalf("wrong envelope: %v", body)
	}
	data := body["data"].(map[string]any)
	if _, ok := data["tours"]; !ok {
		t.Fatalf("list must be keyed by the plural resource name: %v", data)
	}
}

func TestDeleteOneNoBody(t *testing.T) {
	r, mock, closeDB := tourTestRouter(t)
	defer closeDB()

	mock.ExpectExec("DELETE FROM tours WHERE id = \\?").
		WithArgs(int64(5)).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec("DELETE FROM tour_dates WHERE tour_id = \\?").
		WithArgs(int64(5)).
		WillReturnResult(sqlmock.NewResult(0, 0))

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodDelete, "/tours/5", nil))
	if w.Code != http.StatusNoContent {
		t.Fatalf("status = %d, want 204", w.Code)
	}
	if w.Body.Len() != 0 {
		t.Fatalf("204 must carry no body, got %q", w.Body.String())
	}
}

func TestCreateThenFetchRoundTrip(t *testing.T) {
	r, mock, closeDB := tourTestRouter(t)
	defer closeDB()

	now := time.Now()
	created := sqlmock.NewRows([]string{
		"id", "name", "slug", "duration", "max_group_size", "difficulty",
		"ratings_average", "ratings_quantity", "price", "price_discount",
		"summary", "description", "image_cover", "secret_tour",
		"created_at", "updated_at",
	}).AddRow(9, "The Forest Hiker", "the-forest-hiker", 5, 25, "easy",
		4.5, 0, 397.0, 0.0, "short", "", "", false, now, now)

	mock.ExpectExec("INSERT INTO tours").
		WillReturnResult(sqlmock.NewResult(9, 1))
	mock.ExpectQuery("FROM tours WHERE id = \\?").
		WithArgs(int64(9)).
		WillReturnRows(created)
	mock.ExpectQuery("FROM tour_dates WHERE tour_id = \\?").
		WithArgs(int64(9)).
		WillReturnRows(sqlmock.NewRows([]string{"start_date"}))

	payload := `{"name":"The Forest Hiker","price":397,"difficulty":"easy","duration":5,"maxGroupSize":25,"summary":"short"}`
	req := httptest.NewRequest(http.MethodPost, "/tours", strings.NewReader(payload))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	if w.Code != http.StatusCreated {
		t.Fatalf("status = %d, want 201: %s", w.Code, w.Body.String())
	}

	body := decode(t, w)
	tour := body["data"].(map[string]any)["tour"].(map[string]any)
	if tour["name"] != "The Forest Hiker" || tour["price"] != float64(397) {
		t.Fatalf("created entity fields wrong: %v", tour)
	}
	if tour["slug"] != "the-forest-hiker" {
		t.Fatalf("slug not derived from name: %v", tour["slug"])
	}
}
