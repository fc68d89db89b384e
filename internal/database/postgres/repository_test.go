package postgres

import (
	"context"
	"database/sql"
	"errors"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/assert"
	"github.com/vadimbarashkov/tinylink/internal/database"
	"github.com/vadimbarashkov/tinylink/internal/models"
)

var errUnknown = errors.New("unknown error")

var columns = []string{"id", "code", "url", "clicks", "created_at", "last_clicked"}

func setupLinkRepository(t testing.TB) (*LinkRepository, sqlmock.Sqlmock) {
	t.Helper()

	mockDB, mock, err := sqlmock.New()
	if err != nil {
		t.Fatal(err)
	}

	db := sqlx.NewDb(mockDB, "sqlmock")
	repo := NewLinkRepository(db)

	t.Cleanup(func() {
		mockDB.Close()
		db.Close()
	})

	return repo, mock
}

func TestLinkRepository_Create(t *testing.T) {
	t.Run("code exists", func(t *testing.T) {
		repo, mock := setupLinkRepository(t)

		mock.ExpectQuery(`INSERT INTO links`).
			WithArgs("code01", "https://example.com").
			WillReturnError(&pgconn.PgError{Code: uniqueViolationErrCode})

		link, err := repo.Create(context.TODO(), "code01", "https://example.com")

		assert.Error(t, err)
		assert.ErrorIs(t, err, database.ErrCodeExists)
		assert.Nil(t, link)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("unknown error", func(t *testing.T) {
		repo, mock := setupLinkRepository(t)

		mock.ExpectQuery(`INSERT INTO links`).
			WithArgs("code01", "https://example.com").
			WillReturnError(errUnknown)

		link, err := repo.Create(context.TODO(), "code01", "https://example.com")

		assert.Error(t, err)
		assert.ErrorIs(t, err, errUnknown)
		assert.Nil(t, link)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("success", func(t *testing.T) {
		repo, mock := setupLinkRepository(t)

		rows := sqlmock.NewRows(columns).
			AddRow(1, "code01", "https://example.com", 0, time.Time{}, nil)

		mock.ExpectQuery(`INSERT INTO links`).
			WithArgs("code01", "https://example.com").
			WillReturnRows(rows)

		wantLink := models.Link{
			ID:   1,
			Code: "code01",
			URL:  "https://example.com",
		}

		link, err := repo.Create(context.TODO(), "code01", "https://example.com")

		assert.NoError(t, err)
		assert.NotNil(t, link)
		assert.Equal(t, wantLink, *link)
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestLinkRepository_GetByCode(t *testing.T) {
	t.Run("link not found", func(t *testing.T) {
		repo, mock := setupLinkRepository(t)

		mock.ExpectQuery(`SELECT (.+) FROM links`).
			WithArgs("code02").
			WillReturnError(sql.ErrNoRows)

		link, err := repo.GetByCode(context.TODO(), "code02")

		assert.Error(t, err)
		assert.ErrorIs(t, err, database.ErrLinkNotFound)
		assert.Nil(t, link)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("unknown error", func(t *testing.T) {
		repo, mock := setupLinkRepository(t)

		mock.ExpectQuery(`SELECT (.+) FROM links`).
			WithArgs("code01").
			WillReturnError(errUnknown)

		link, err := repo.GetByCode(context.TODO(), "code01")

		assert.Error(t, err)
		assert.ErrorIs(t, err, errUnknown)
		assert.Nil(t, link)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("success", func(t *testing.T) {
		repo, mock := setupLinkRepository(t)

		lastClicked := time.Date(2025, time.March, 1, 12, 0, 0, 0, time.UTC)

		rows := sqlmock.NewRows(columns).
			AddRow(1, "code01", "https://example.com", 3, time.Time{}, lastClicked)

		mock.ExpectQuery(`SELECT (.+) FROM links`).
			WithArgs("code01").
			WillReturnRows(rows)

		link, err := repo.GetByCode(context.TODO(), "code01")

		assert.NoError(t, err)
		assert.NotNil(t, link)
		assert.Equal(t, "code01", link.Code)
		assert.Equal(t, int64(3), link.Clicks)
		assert.NotNil(t, link.LastClickedAt)
		assert.Equal(t, lastClicked, *link.LastClickedAt)
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestLinkRepository_List(t *testing.T) {
	t.Run("unknown error", func(t *testing.T) {
		repo, mock := setupLinkRepository(t)

		mock.ExpectQuery(`SELECT (.+) FROM links`).
			WillReturnError(errUnknown)

		links, err := repo.List(context.TODO())

		assert.Error(t, err)
		assert.ErrorIs(t, err, errUnknown)
		assert.Nil(t, links)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("no links", func(t *testing.T) {
		repo, mock := setupLinkRepository(t)

		mock.ExpectQuery(`SELECT (.+) FROM links`).
			WillReturnRows(sqlmock.NewRows(columns))

		links, err := repo.List(context.TODO())

		assert.NoError(t, err)
		assert.Empty(t, links)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("success", func(t *testing.T) {
		repo, mock := setupLinkRepository(t)

		newer := time.Date(2025, time.March, 2, 0, 0, 0, 0, time.UTC)
		older := time.Date(2025, time.March, 1, 0, 0, 0, 0, time.UTC)

		rows := sqlmock.NewRows(columns).
			AddRow(2, "code02", "https://example.org", 0, newer, nil).
			AddRow(1, "code01", "https://example.com", 5, older, nil)

		mock.ExpectQuery(`SELECT (.+) FROM links`).
			WillReturnRows(rows)

		links, err := repo.List(context.TODO())

		assert.NoError(t, err)
		assert.Len(t, links, 2)
		assert.Equal(t, "code02", links[0].Code)
		assert.Equal(t, "code01", links[1].Code)
		assert.True(t, links[0].CreatedAt.After(links[1].CreatedAt))
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestLinkRepository_RegisterClick(t *testing.T) {
	t.Run("link not found", func(t *testing.T) {
		repo, mock := setupLinkRepository(t)

		mock.ExpectQuery(`UPDATE links`).
			WithArgs("code02").
			WillReturnError(sql.ErrNoRows)

		link, err := repo.RegisterClick(context.TODO(), "code02")

		assert.Error(t, err)
		assert.ErrorIs(t, err, database.ErrLinkNotFound)
		assert.Nil(t, link)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("unknown error", func(t *testing.T) {
		repo, mock := setupLinkRepository(t)

		mock.ExpectQuery(`UPDATE links`).
			WithArgs("code01").
			WillReturnError(errUnknown)

		link, err := repo.RegisterClick(context.TODO(), "code01")

		assert.Error(t, err)
		assert.ErrorIs(t, err, errUnknown)
		assert.Nil(t, link)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("success", func(t *testing.T) {
		repo, mock := setupLinkRepository(t)

		clickedAt := time.Date(2025, time.March, 1, 12, 0, 0, 0, time.UTC)

		rows := sqlmock.NewRows(columns).
			AddRow(1, "code01", "https://example.com", 1, time.Time{}, clickedAt)

		mock.ExpectQuery(`UPDATE links`).
			WithArgs("code01").
			WillReturnRows(rows)

		link, err := repo.RegisterClick(context.TODO(), "code01")

		assert.NoError(t, err)
		assert.NotNil(t, link)
		assert.Equal(t, int64(1), link.Clicks)
		assert.NotNil(t, link.LastClickedAt)
		assert.Equal(t, clickedAt, *link.LastClickedAt)
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestLinkRepository_Delete(t *testing.T) {
	t.Run("link not found", func(t *testing.T) {
		repo, mock := setupLinkRepository(t)

		mock.ExpectQuery(`DELETE FROM links`).
			WithArgs("code02").
			WillReturnError(sql.ErrNoRows)

		link, err := repo.Delete(context.TODO(), "code02")

		assert.Error(t, err)
		assert.ErrorIs(t, err, database.ErrLinkNotFound)
		assert.Nil(t, link)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("success", func(t *testing.T) {
		repo, mock := setupLinkRepository(t)

		rows := sqlmock.NewRows(columns).
			AddRow(1, "code01", "https://example.com", 2, time.Time{}, nil)

		mock.ExpectQuery(`DELETE FROM links`).
			WithArgs("code01").
			WillReturnRows(rows)

		link, err := repo.Delete(context.TODO(), "code01")

		assert.NoError(t, err)
		assert.NotNil(t, link)
		assert.Equal(t, "code01", link.Code)
		assert.Equal(t, int64(2), link.Clicks)
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}
