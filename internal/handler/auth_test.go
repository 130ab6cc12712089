package handler

import (
	"encoding/json"
	"net/http"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/MustafaFares445/healthy/internal/config"
	"github.com/MustafaFares445/healthy/internal/repository"
	"github.com/MustafaFares445/healthy/internal/utils"
)

func newAuthHandler(t *testing.T) (*AuthHandler, sqlmock.Sqlmock, func()) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	cfg := config.Config{
		JWTSecret:      "test-secret",
		AccessTTLMin:   15,
		RefreshTTLDays: 30,
		BcryptCost:     4,
	}
	return NewAuthHandler(cfg, repository.NewUserRepo(db), repository.NewTokenRepo(db)), mock, func() { db.Close() }
}

func TestAuthRegisterIssuesTokenPair(t *testing.T) {
	h, mock, done := newAuthHandler(t)
	defer done()

	mock.ExpectExec("INSERT INTO users").
		WithArgs("new@example.com", sqlmock.AnyArg(), "OWNER").
		WillReturnResult(sqlmock.NewResult(5, 1))
	mock.ExpectExec("INSERT INTO refresh_tokens").
		WithArgs(5, sqlmock.AnyArg(), sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(1, 1))

	c, rec := jsonContext(t, http.MethodPost, "/v1/auth/register",
		`{"email":"New@Example.com","password":"pw","role":"owner"}`)
	require.NoError(t, h.Register(c))
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	var resp authResp
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, uint64(5), resp.User.ID)
	assert.Equal(t, "new@example.com", resp.User.Email)
	assert.Equal(t, "OWNER", resp.User.Role)
	assert.NotEmpty(t, resp.Access.Token)
	assert.Len(t, resp.Refresh.Token, 96)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestAuthRegisterDuplicateEmail(t *testing.T) {
	h, mock, done := newAuthHandler(t)
	defer done()

	mock.ExpectExec("INSERT INTO users").
		WillReturnError(assert.AnError)

	c, rec := jsonContext(t, http.MethodPost, "/v1/auth/register",
		`{"email":"dup@example.com","password":"pw"}`)
	require.NoError(t, h.Register(c))
	// A non-duplicate failure is a 500; the 1062 duplicate path is a 409.
	assert.Equal(t, http.StatusInternalServerError, rec.Code)

	mock.ExpectExec("INSERT INTO users").
		WillReturnError(errDuplicateKey{})
	c, rec = jsonContext(t, http.MethodPost, "/v1/auth/register",
		`{"email":"dup@example.com","password":"pw"}`)
	require.NoError(t, h.Register(c))
	assert.Equal(t, http.StatusConflict, rec.Code)
}

type errDuplicateKey struct{}

func (errDuplicateKey) Error() string { return "Error 1062: Duplicate entry" }

func TestAuthLoginWrongPassword(t *testing.T) {
	h, mock, done := newAuthHandler(t)
	defer done()

	hash, err := utils.HashPassword("right", 4)
	require.NoError(t, err)
	now := time.Now().UTC()
	mock.ExpectQuery("SELECT (.+) FROM users WHERE email").
		WithArgs("u@example.com").
		WillReturnRows(sqlmock.NewRows([]string{
			"id", "email", "password_hash", "role", "is_active", "created_at", "updated_at",
		}).AddRow(5, "u@example.com", hash, "CUSTOMER", true, now, now))

	c, rec := jsonContext(t, http.MethodPost, "/v1/auth/login",
		`{"email":"u@example.com","password":"wrong"}`)
	require.NoError(t, h.Login(c))
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestAuthRefreshRotatesToken(t *testing.T) {
	h, mock, done := newAuthHandler(t)
	defer done()

	raw := "raw-refresh-token"
	hash := utils.HashRefreshRaw(raw)
	now := time.Now().UTC()

	mock.ExpectQuery("SELECT user_id, expires_at, revoked_at FROM refresh_tokens").
		WithArgs(hash).
		WillReturnRows(sqlmock.NewRows([]string{"user_id", "expires_at", "revoked_at"}).
			AddRow(5, now.Add(time.Hour), nil))
	mock.ExpectExec("UPDATE refresh_tokens SET revoked_at").
		WithArgs(hash).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectQuery("SELECT (.+) FROM users WHERE id").
		WithArgs(5).
		WillReturnRows(sqlmock.NewRows([]string{
			"id", "email", "password_hash", "role", "is_active", "created_at", "updated_at",
		}).AddRow(5, "u@example.com", "x", "CUSTOMER", true, now, now))
	mock.ExpectExec("INSERT INTO refresh_tokens").
		WithArgs(5, sqlmock.AnyArg(), sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(2, 1))

	c, rec := jsonContext(t, http.MethodPost, "/v1/auth/refresh",
		`{"refresh_token":"`+raw+`"}`)
	require.NoError(t, h.Refresh(c))
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var resp authResp
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.NotEqual(t, raw, resp.Refresh.Token)
	assert.NoError(t, mock.ExpectationsWereMet())
}
