package http

import (
	"context"
	"net/http"
	"reflect"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/go-chi/httplog/v2"
	"github.com/go-playground/validator/v10"
	"github.com/vadimbarashkov/tinylink/internal/models"
)

// LinkService defines the interface for the core link management business logic.
type LinkService interface {
	// CreateLink shortens the provided URL, generating a code when customCode
	// is empty. It returns the created link or an error if the input is
	// malformed or the code is already taken.
	CreateLink(ctx context.Context, rawURL, customCode string) (*models.Link, error)

	// ListLinks retrieves all links, most recently created first.
	ListLinks(ctx context.Context) ([]*models.Link, error)

	// GetLinkStats retrieves the link for a code without registering a visit.
	// It returns an error if the link is not found.
	GetLinkStats(ctx context.Context, code string) (*models.Link, error)

	// DeleteLink removes the link for a code, returning the removed link.
	// It returns an error if the link is not found.
	DeleteLink(ctx context.Context, code string) (*models.Link, error)

	// Redirect resolves a code to its link, registering the visit.
	// It returns an error if the link is not found.
	Redirect(ctx context.Context, code string) (*models.Link, error)

	// ShortURL derives the externally visible short URL for a code.
	ShortURL(code string) string
}

// getValidate initializes a new validator instance for validating incoming request payloads.
// It customizes tag name extraction from struct fields to match JSON tags.
func getValidate() *validator.Validate {
	validate := validator.New()

	validate.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})

	return validate
}

// NewRouter initializes and returns a new HTTP router with all routes and middleware configured.
// version is reported by the health probe.
func NewRouter(logger *httplog.Logger, linkSvc LinkService, version string) http.Handler {
	r := chi.NewRouter()

	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{"https://*", "http://*"},
		AllowedMethods:   []string{"POST", "GET", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Content-Type", "Accept"},
		AllowCredentials: false,
		MaxAge:           84600,
	}))
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(httplog.RequestLogger(logger))
	r.Use(middleware.Recoverer)

	r.Get("/healthz", handleHealthz(version))
	r.Get("/{code}", handleRedirect(linkSvc))

	r.Route("/api/v1/links", func(r chi.Router) {
		validate := getValidate()

		r.Post("/", handleCreateLink(linkSvc, validate))
		r.Get("/", handleListLinks(linkSvc))

		r.Route("/{code}", func(r chi.Router) {
			r.Get("/", handleGetLinkStats(linkSvc))
			r.Delete("/", handleDeleteLink(linkSvc))
		})
	})

	return r
}
