package repository

import (
	"context"
	"database/sql"
	"errors"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
)

func TestUserCreateNormalizesEmail(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock new: %v", err)
	}
	defer db.Close()

	mock.ExpectExec("INSERT INTO users").
		WithArgs("user@example.com", sqlmock.AnyArg(), "CUSTOMER").
		WillReturnResult(sqlmock.NewResult(11, 1))

	id, err := NewUserRepo(db).Create(context.Background(), "  User@Example.COM ", "pw", "CUSTOMER", 4)
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if id != 11 {
		t.Errorf("id = %d, want 11", id)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("expectations: %v", err)
	}
}

func TestUserCreateDuplicateEmail(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock new: %v", err)
	}
	defer db.Close()

	mock.ExpectExec("INSERT INTO users").
		WillReturnError(errors.New("Error 1062: Duplicate entry 'user@example.com' for key 'users.email'"))

	_, err = NewUserRepo(db).Create(context.Background(), "user@example.com", "pw", "CUSTOMER", 4)
	if err != ErrEmailExists {
		t.Fatalf("err = %v, want ErrEmailExists", err)
	}
}

func TestValidateRefreshRejectsRevokedAndExpired(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock new: %v", err)
	}
	defer db.Close()
	repo := NewTokenRepo(db)
	ctx := context.Background()
	cols := []string{"user_id", "expires_at", "revoked_at"}

	// Active token.
	mock.ExpectQuery("SELECT user_id, expires_at, revoked_at FROM refresh_tokens").
		WithArgs("hash-ok").
		WillReturnRows(sqlmock.NewRows(cols).AddRow(5, time.Now().Add(time.Hour), nil))
	uid, err := repo.ValidateRefresh(ctx, "hash-ok")
	if err != nil || uid != 5 {
		t.Fatalf("active token: uid=%d err=%v", uid, err)
	}

	// Revoked token.
	mock.ExpectQuery("SELECT user_id, expires_at, revoked_at FROM refresh_tokens").
		WithArgs("hash-revoked").
		WillReturnRows(sqlmock.NewRows(cols).AddRow(5, time.Now().Add(time.Hour), time.Now()))
	if _, err := repo.ValidateRefresh(ctx, "hash-revoked"); err != sql.ErrNoRows {
		t.Fatalf("revoked token: err = %v, want ErrNoRows", err)
	}

	// Expired token.
	mock.ExpectQuery("SELECT user_id, expires_at, revoked_at FROM refresh_tokens").
		WithArgs("hash-expired").
		WillReturnRows(sqlmock.NewRows(cols).AddRow(5, time.Now().Add(-time.Hour), nil))
	if _, err := repo.ValidateRefresh(ctx, "hash-expired"); err != sql.ErrNoRows {
		t.Fatalf("expired token: err = %v, want ErrNoRows", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("expectations: %v", err)
	}
}
