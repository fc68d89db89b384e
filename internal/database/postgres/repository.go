package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/vadimbarashkov/tinylink/internal/database"
	"github.com/vadimbarashkov/tinylink/internal/models"
)

type linkRecord struct {
	ID          int64        `db:"id"`
	Code        string       `db:"code"`
	URL         string       `db:"url"`
	Clicks      int64        `db:"clicks"`
	CreatedAt   time.Time    `db:"created_at"`
	LastClicked sql.NullTime `db:"last_clicked"`
}

func (r *linkRecord) ToLink() *models.Link {
	link := &models.Link{
		ID:        r.ID,
		Code:      r.Code,
		URL:       r.URL,
		Clicks:    r.Clicks,
		CreatedAt: r.CreatedAt,
	}

	if r.LastClicked.Valid {
		t := r.LastClicked.Time
		link.LastClickedAt = &t
	}

	return link
}

// LinkRepository persists links in PostgreSQL. Every method runs a single
// statement, so per-record atomicity is provided by the database itself.
type LinkRepository struct {
	db *sqlx.DB
}

func NewLinkRepository(db *sqlx.DB) *LinkRepository {
	return &LinkRepository{
		db: db,
	}
}

// Create inserts a new link record. Uniqueness of the code is enforced by
// the unique constraint on the links table, which makes the insert the
// authoritative check under concurrent creators.
func (r *LinkRepository) Create(ctx context.Context, code, url string) (*models.Link, error) {
	const op = "database.postgres.LinkRepository.Create"

	rec := new(linkRecord)
	query := `INSERT INTO links(code, url)
		VALUES ($1, $2)
		RETURNING *`

	err := r.db.GetContext(ctx, rec, query, code, url)
	if err != nil {
		if isUniqueViolationError(err) {
			return nil, fmt.Errorf("%s: %w", op, database.ErrCodeExists)
		}

		return nil, fmt.Errorf("%s: failed to create link record: %w", op, err)
	}

	return rec.ToLink(), nil
}

func (r *LinkRepository) GetByCode(ctx context.Context, code string) (*models.Link, error) {
	const op = "database.postgres.LinkRepository.GetByCode"

	rec := new(linkRecord)
	query := `SELECT * FROM links
		WHERE code = $1`

	err := r.db.GetContext(ctx, rec, query, code)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("%s: %w", op, database.ErrLinkNotFound)
		}

		return nil, fmt.Errorf("%s: failed to get link record: %w", op, err)
	}

	return rec.ToLink(), nil
}

func (r *LinkRepository) List(ctx context.Context) ([]*models.Link, error) {
	const op = "database.postgres.LinkRepository.List"

	var recs []linkRecord
	query := `SELECT * FROM links
		ORDER BY created_at DESC`

	err := r.db.SelectContext(ctx, &recs, query)
	if err != nil {
		return nil, fmt.Errorf("%s: failed to list link records: %w", op, err)
	}

	links := make([]*models.Link, 0, len(recs))
	for i := range recs {
		links = append(links, recs[i].ToLink())
	}

	return links, nil
}

// RegisterClick increments the click counter and stamps the click time in
// one statement, so concurrent redirects to the same code never lose updates.
func (r *LinkRepository) RegisterClick(ctx context.Context, code string) (*models.Link, error) {
	const op = "database.postgres.LinkRepository.RegisterClick"

	rec := new(linkRecord)
	query := `UPDATE links
		SET clicks = clicks + 1,
			last_clicked = now()
		WHERE code = $1
		RETURNING *`

	err := r.db.GetContext(ctx, rec, query, code)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("%s: %w", op, database.ErrLinkNotFound)
		}

		return nil, fmt.Errorf("%s: failed to register click: %w", op, err)
	}

	return rec.ToLink(), nil
}

// Delete removes a link record and returns it.
func (r *LinkRepository) Delete(ctx context.Context, code string) (*models.Link, error) {
	const op = "database.postgres.LinkRepository.Delete"

	rec := new(linkRecord)
	query := `DELETE FROM links
		WHERE code = $1
		RETURNING *`

	err := r.db.GetContext(ctx, rec, query, code)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("%s: %w", op, database.ErrLinkNotFound)
		}

		return nil, fmt.Errorf("%s: failed to delete link record: %w", op, err)
	}

	return rec.ToLink(), nil
}
