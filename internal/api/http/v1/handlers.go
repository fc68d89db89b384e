package http

import (
	"errors"
	"io"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/httplog/v2"
	"github.com/go-chi/render"
	"github.com/go-playground/validator/v10"
	"github.com/vadimbarashkov/tinylink/internal/database"
	"github.com/vadimbarashkov/tinylink/internal/models"
	"github.com/vadimbarashkov/tinylink/internal/service"
	"github.com/vadimbarashkov/tinylink/internal/shortcode"
	"github.com/vadimbarashkov/tinylink/pkg/response"
)

// healthzResponse represents the health probe payload.
type healthzResponse struct {
	Status  string `json:"status"`
	Version string `json:"version"`
}

// handleHealthz handles liveness requests. It reports server health only and
// doesn't touch storage.
func handleHealthz(version string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		render.Status(r, http.StatusOK)
		render.JSON(w, r, healthzResponse{
			Status:  "ok",
			Version: version,
		})
	}
}

// createLinkRequest represents the request payload for creating a short link.
// Code is optional; when present it must be a 6-8 character alphanumeric string.
type createLinkRequest struct {
	URL  string `json:"url" validate:"required,url"`
	Code string `json:"code,omitempty" validate:"omitempty,alphanum,min=6,max=8"`
}

// linkResponse represents the response payload for a link operation.
type linkResponse struct {
	ID          int64      `json:"id"`
	Code        string     `json:"code"`
	URL         string     `json:"url"`
	ShortURL    string     `json:"short_url,omitempty"`
	Clicks      int64      `json:"clicks"`
	CreatedAt   time.Time  `json:"created_at"`
	LastClicked *time.Time `json:"last_clicked,omitempty"`
}

// toLinkResponse converts a link model from the business layer into a response payload.
func toLinkResponse(link *models.Link) linkResponse {
	return linkResponse{
		ID:          link.ID,
		Code:        link.Code,
		URL:         link.URL,
		Clicks:      link.Clicks,
		CreatedAt:   link.CreatedAt,
		LastClicked: link.LastClickedAt,
	}
}

// handleCreateLink handles POST requests to create a short link.
//
// The request must contain a valid URL and may carry a custom code. The
// handler validates the input, calls the link service, and returns the
// created link with its derived short URL.
func handleCreateLink(svc LinkService, validate *validator.Validate) http.HandlerFunc {
	const op = "api.http.handleCreateLink"
	const successMsg = "The link has been created successfully."

	return func(w http.ResponseWriter, r *http.Request) {
		var req createLinkRequest

		if err := render.DecodeJSON(r.Body, &req); err != nil {
			if errors.Is(err, io.EOF) {
				render.Status(r, http.StatusBadRequest)
				render.JSON(w, r, response.EmptyRequestBodyResponse)
				return
			}

			render.Status(r, http.StatusBadRequest)
			render.JSON(w, r, response.BadRequestResponse)
			return
		}

		if err := validate.Struct(req); err != nil {
			render.Status(r, http.StatusBadRequest)
			render.JSON(w, r, response.ValidationErrorResponse(err))
			return
		}

		link, err := svc.CreateLink(r.Context(), req.URL, req.Code)
		if err != nil {
			switch {
			case errors.Is(err, service.ErrInvalidURL), errors.Is(err, shortcode.ErrInvalidCode):
				render.Status(r, http.StatusBadRequest)
				render.JSON(w, r, response.ValidationErrorResponse(err))
			case errors.Is(err, database.ErrCodeExists):
				render.Status(r, http.StatusConflict)
				render.JSON(w, r, response.CodeExistsResponse)
			default:
				httplog.LogEntrySetFields(r.Context(), map[string]any{"op": op, "err": err})

				render.Status(r, http.StatusInternalServerError)
				render.JSON(w, r, response.ServerErrorResponse)
			}
			return
		}

		data := toLinkResponse(link)
		data.ShortURL = svc.ShortURL(link.Code)

		render.Status(r, http.StatusCreated)
		render.JSON(w, r, response.SuccessResponse(successMsg, data))
	}
}

// handleListLinks handles GET requests to list all links, newest first.
func handleListLinks(svc LinkService) http.HandlerFunc {
	const op = "api.http.handleListLinks"
	const successMsg = "The links retrieved successfully."

	return func(w http.ResponseWriter, r *http.Request) {
		links, err := svc.ListLinks(r.Context())
		if err != nil {
			httplog.LogEntrySetFields(r.Context(), map[string]any{"op": op, "err": err})

			render.Status(r, http.StatusInternalServerError)
			render.JSON(w, r, response.ServerErrorResponse)
			return
		}

		data := make([]linkResponse, 0, len(links))
		for _, link := range links {
			data = append(data, toLinkResponse(link))
		}

		render.Status(r, http.StatusOK)
		render.JSON(w, r, response.SuccessResponse(successMsg, data))
	}
}

// handleGetLinkStats handles GET requests to retrieve usage statistics for a link.
//
// The handler fetches the click count and last-click time for the given code,
// returning the data or a 404 error if the link doesn't exist.
func handleGetLinkStats(svc LinkService) http.HandlerFunc {
	const op = "api.http.handleGetLinkStats"
	const successMsg = "The link statistics retrieved successfully."

	return func(w http.ResponseWriter, r *http.Request) {
		code := chi.URLParam(r, "code")

		link, err := svc.GetLinkStats(r.Context(), code)
		if err != nil {
			if errors.Is(err, database.ErrLinkNotFound) {
				render.Status(r, http.StatusNotFound)
				render.JSON(w, r, response.ResourceNotFoundResponse)
				return
			}

			httplog.LogEntrySetFields(r.Context(), map[string]any{"op": op, "err": err})

			render.Status(r, http.StatusInternalServerError)
			render.JSON(w, r, response.ServerErrorResponse)
			return
		}

		render.Status(r, http.StatusOK)
		render.JSON(w, r, response.SuccessResponse(successMsg, toLinkResponse(link)))
	}
}

// handleDeleteLink handles DELETE requests to remove a link.
//
// The handler returns a success message if deletion succeeds or a 404 error
// if the code doesn't exist. Retrying a delete yields 404 again.
func handleDeleteLink(svc LinkService) http.HandlerFunc {
	const op = "api.http.handleDeleteLink"
	const successMsg = "The link was successfully deleted."

	return func(w http.ResponseWriter, r *http.Request) {
		code := chi.URLParam(r, "code")

		_, err := svc.DeleteLink(r.Context(), code)
		if err != nil {
			if errors.Is(err, database.ErrLinkNotFound) {
				render.Status(r, http.StatusNotFound)
				render.JSON(w, r, response.ResourceNotFoundResponse)
				return
			}

			httplog.LogEntrySetFields(r.Context(), map[string]any{"op": op, "err": err})

			render.Status(r, http.StatusInternalServerError)
			render.JSON(w, r, response.ServerErrorResponse)
			return
		}

		render.Status(r, http.StatusOK)
		render.JSON(w, r, response.SuccessResponse(successMsg))
	}
}

// handleRedirect handles GET requests on short links.
//
// The handler resolves the code, registers the visit, and sends the client to
// the target URL with a temporary redirect. Unknown codes yield a 404
// response rather than a redirect.
func handleRedirect(svc LinkService) http.HandlerFunc {
	const op = "api.http.handleRedirect"

	return func(w http.ResponseWriter, r *http.Request) {
		code := chi.URLParam(r, "code")

		link, err := svc.Redirect(r.Context(), code)
		if err != nil {
			if errors.Is(err, database.ErrLinkNotFound) {
				render.Status(r, http.StatusNotFound)
				render.JSON(w, r, response.ResourceNotFoundResponse)
				return
			}

			httplog.LogEntrySetFields(r.Context(), map[string]any{"op": op, "err": err})

			render.Status(r, http.StatusInternalServerError)
			render.JSON(w, r, response.ServerErrorResponse)
			return
		}

		http.Redirect(w, r, link.URL, http.StatusFound)
	}
}
