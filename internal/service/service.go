package service

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strings"

	"github.com/vadimbarashkov/tinylink/internal/database"
	"github.com/vadimbarashkov/tinylink/internal/models"
	"github.com/vadimbarashkov/tinylink/internal/shortcode"
)

// ErrInvalidURL is returned when the URL to shorten is missing or doesn't
// parse as an absolute URL.
var ErrInvalidURL = errors.New("invalid url")

// LinkRepository defines the interface for working with links at the business logic layer.
type LinkRepository interface {
	// Create inserts a new link into the repository.
	// Returns database.ErrCodeExists if the code is already taken.
	Create(ctx context.Context, code, url string) (*models.Link, error)

	// GetByCode retrieves a link by its code without side effects.
	// Returns database.ErrLinkNotFound if no link exists for the code.
	GetByCode(ctx context.Context, code string) (*models.Link, error)

	// List retrieves all links, most recently created first.
	List(ctx context.Context) ([]*models.Link, error)

	// RegisterClick atomically increments the click counter and sets the
	// last-clicked timestamp for the link with the given code.
	// Returns database.ErrLinkNotFound if no link exists for the code.
	RegisterClick(ctx context.Context, code string) (*models.Link, error)

	// Delete removes a link by its code and returns the removed link.
	// Returns database.ErrLinkNotFound if no link exists for the code.
	Delete(ctx context.Context, code string) (*models.Link, error)
}

// LinkService provides methods to manage short links.
// The service uses a LinkRepository interface to interact with the underlying database.
type LinkService struct {
	repo    LinkRepository
	gen     *shortcode.Generator
	baseURL string
}

// NewLinkService creates a new instance of LinkService. baseURL is the
// external address short URLs are composed from; codeLength controls the
// length of generated codes.
func NewLinkService(repo LinkRepository, baseURL string, codeLength int) *LinkService {
	svc := &LinkService{
		repo:    repo,
		baseURL: strings.TrimRight(baseURL, "/"),
	}
	svc.gen = shortcode.NewGenerator(codeLength, svc.codeExists)

	return svc
}

func (s *LinkService) codeExists(ctx context.Context, code string) (bool, error) {
	_, err := s.repo.GetByCode(ctx, code)
	if err != nil {
		if errors.Is(err, database.ErrLinkNotFound) {
			return false, nil
		}

		return false, err
	}

	return true, nil
}

// ShortURL derives the externally visible short URL for a code.
func (s *LinkService) ShortURL(code string) string {
	return s.baseURL + "/" + code
}

// CreateLink shortens rawURL and stores the mapping. If customCode is empty
// a code is generated; otherwise customCode is validated and used as-is.
// It returns ErrInvalidURL or shortcode.ErrInvalidCode on malformed input and
// database.ErrCodeExists when the code is already taken, including the case
// where a concurrent creator wins the race at insert time.
func (s *LinkService) CreateLink(ctx context.Context, rawURL, customCode string) (*models.Link, error) {
	const op = "service.LinkService.CreateLink"

	u, err := url.Parse(rawURL)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return nil, fmt.Errorf("%s: %w", op, ErrInvalidURL)
	}

	code := customCode

	if code != "" {
		if err := shortcode.Validate(code); err != nil {
			return nil, fmt.Errorf("%s: %w", op, err)
		}

		taken, err := s.codeExists(ctx, code)
		if err != nil {
			return nil, fmt.Errorf("%s: failed to check code existence: %w", op, err)
		}
		if taken {
			return nil, fmt.Errorf("%s: %w", op, database.ErrCodeExists)
		}
	} else {
		code, err = s.gen.Generate(ctx)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", op, err)
		}
	}

	link, err := s.repo.Create(ctx, code, rawURL)
	if err != nil {
		return nil, fmt.Errorf("%s: failed to create link: %w", op, err)
	}

	return link, nil
}

// ListLinks retrieves all links, most recently created first.
func (s *LinkService) ListLinks(ctx context.Context) ([]*models.Link, error) {
	const op = "service.LinkService.ListLinks"

	links, err := s.repo.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("%s: failed to list links: %w", op, err)
	}

	return links, nil
}

// GetLinkStats retrieves the link associated with the provided code without
// affecting its click statistics.
func (s *LinkService) GetLinkStats(ctx context.Context, code string) (*models.Link, error) {
	const op = "service.LinkService.GetLinkStats"

	link, err := s.repo.GetByCode(ctx, code)
	if err != nil {
		return nil, fmt.Errorf("%s: failed to get link stats: %w", op, err)
	}

	return link, nil
}

// DeleteLink removes the link associated with the provided code.
func (s *LinkService) DeleteLink(ctx context.Context, code string) (*models.Link, error) {
	const op = "service.LinkService.DeleteLink"

	link, err := s.repo.Delete(ctx, code)
	if err != nil {
		return nil, fmt.Errorf("%s: failed to delete link: %w", op, err)
	}

	return link, nil
}

// Redirect resolves a code to its link, registering the visit as a side
// effect. The increment and the timestamp update happen in a single storage
// operation, so each successful redirect is counted exactly once even under
// concurrent requests for the same code.
func (s *LinkService) Redirect(ctx context.Context, code string) (*models.Link, error) {
	const op = "service.LinkService.Redirect"

	link, err := s.repo.RegisterClick(ctx, code)
	if err != nil {
		return nil, fmt.Errorf("%s: failed to resolve code: %w", op, err)
	}

	return link, nil
}
