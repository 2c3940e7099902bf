package refreshtokens

import (
	"context"
	"database/sql"
	"errors"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/dmitrijs2005/tipsync/internal/common"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const (
	insertQuery = `(?s)^\s*INSERT\s+INTO\s+refresh_tokens\b.*VALUES\s*\(\$1,\s*\$2,\s*\$3\)\s*$`
	findQuery   = `(?s)^\s*SELECT\s+user_id,\s*expires_at,\s*created_at\s+FROM\s+refresh_tokens\s+WHERE\s+token\s*=\s*\$1\s*$`
	deleteQuery = `(?s)^\s*DELETE\s+FROM\s+refresh_tokens\s+WHERE\s+token\s*=\s*\$1\s*$`
)

var fixedNow = time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)

func newRepoWithMock(t *testing.T) (*PostgresRepository, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	require.NoError(t, err)
	t.Cleanup(func() {
		assert.NoError(t, mock.ExpectationsWereMet())
		_ = db.Close()
	})
	repo := NewPostgresRepository(db)
	repo.now = func() time.Time { return fixedNow }
	return repo, mock
}

func TestPostgresCreate(t *testing.T) {
	repo, mock := newRepoWithMock(t)

	mock.ExpectExec(insertQuery).
		WithArgs("u1", "tok123", fixedNow.Add(30*time.Minute)).
		WillReturnResult(sqlmock.NewResult(0, 1))

	require.NoError(t, repo.Create(context.Background(), "u1", "tok123", 30*time.Minute))
}

func TestPostgresCreate_DBError(t *testing.T) {
	repo, mock := newRepoWithMock(t)

	mock.ExpectExec(insertQuery).
		WithArgs("u1", "tok123", sqlmock.AnyArg()).
		WillReturnError(errors.New("boom"))

	err := repo.Create(context.Background(), "u1", "tok123", time.Minute)
	assert.ErrorContains(t, err, "db error: boom")
}

func TestPostgresFind(t *testing.T) {
	repo, mock := newRepoWithMock(t)
	exp := fixedNow.Add(time.Hour)

	mock.ExpectQuery(findQuery).
		WithArgs("tok").
		WillReturnRows(sqlmock.NewRows([]string{"user_id", "expires_at", "created_at"}).AddRow("u1", exp, fixedNow))

	got, err := repo.Find(context.Background(), "tok")
	require.NoError(t, err)
	assert.Equal(t, "u1", got.UserID)
	assert.Equal(t, "tok", got.Token)
	assert.Equal(t, exp, got.Expires)
	assert.Equal(t, fixedNow, got.CreatedAt)
}

func TestPostgresFind_Errors(t *testing.T) {
	tests := []struct {
		name    string
		dbErr   error
		wantIs  error
		wantMsg string
	}{
		{name: "not found", dbErr: sql.ErrNoRows, wantIs: common.ErrorNotFound},
		{name: "db error", dbErr: errors.New("conn reset"), wantMsg: "db error: conn reset"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			repo, mock := newRepoWithMock(t)
			mock.ExpectQuery(findQuery).WithArgs("tok").WillReturnError(tt.dbErr)

			_, err := repo.Find(context.Background(), "tok")
			require.Error(t, err)
			if tt.wantIs != nil {
				assert.ErrorIs(t, err, tt.wantIs)
			}
			if tt.wantMsg != "" {
				assert.ErrorContains(t, err, tt.wantMsg)
			}
		})
	}
}

func TestPostgresDelete(t *testing.T) {
	repo, mock := newRepoWithMock(t)
	mock.ExpectExec(deleteQuery).WithArgs("tok").WillReturnResult(sqlmock.NewResult(0, 0))

	require.NoError(t, repo.Delete(context.Background(), "tok"))
}

func TestPostgresDelete_DBError(t *testing.T) {
	repo, mock := newRepoWithMock(t)
	mock.ExpectExec(deleteQuery).WithArgs("tok").WillReturnError(errors.New("boom"))

	assert.ErrorContains(t, repo.Delete(context.Background(), "tok"), "db error: boom")
}

func TestPostgresDeleteExpired(t *testing.T) {
	repo, mock := newRepoWithMock(t)
	mock.ExpectExec(`(?s)^DELETE\s+FROM\s+refresh_tokens\s+WHERE\s+expires_at\s*<\s*\$1$`).
		WithArgs(fixedNow).
		WillReturnResult(sqlmock.NewResult(0, 3))

	n, err := repo.DeleteExpired(context.Background())
	require.NoError(t, err)
	assert.EqualValues(t, 3, n)
}
