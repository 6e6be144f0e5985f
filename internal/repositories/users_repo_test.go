package repositories

import (
	"context"
	"testing"

	"tourbook/internal/domain"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/go-sql-driver/mysql"
)

func TestFindByResetTokenExpiredOrUnknown(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock init error: %v", err)
	}
	defer db.Close()

	mock.ExpectQuery("password_reset_token = \\? AND password_reset_expires > NOW\\(\\)").
		WillReturnRows(sqlmock.NewRows([]string{"id"}))

	repo := UsersRepository{DB: db}
	_, err = repo.FindByResetToken(context.Background(), "deadbeef")
	if err == nil {
		t.Fatalf("expected error")
	}
	app := domain.Wrap(err)
	if app.Code != 400 || app.Message != "Token is invalid or has expired" {
		t.Fatalf("wrong failure: %+v", app)
	}
}

func TestSignupDuplicateEmail(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock init error: %v", err)
	}
	defer db.Close()

	mock.ExpectExec("INSERT INTO users").
		WillReturnError(&mysql.MySQLError{Number: 1062, Message: "duplicate"})

	repo := UsersRepository{DB: db}
	_, err = repo.Signup(context.Background(), "Jo", "jo@example.com", "hash", "user")
	if err == nil || err.Error() != "This email is already registered" {
		t.Fatalf("expected duplicate-email failure, got %v", err)
	}
}

func TestAdminCreateRouteRefusesService(t *testing.T) {
	repo := UsersRepository{}
	_, err := repo.Create(context.Background(), map[string]any{"name": "x"})
	app := domain.Wrap(err)
	if app == nil || app.Code != 500 || !app.Operational {
		t.Fatalf("expected operational 500, got %+v", app)
	}
	if app.Message != "This route is not yet defined! Please use /signup instead." {
		t.Fatalf("wrong message: %q", app.Message)
	}
}
