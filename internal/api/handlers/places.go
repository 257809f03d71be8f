package handlers

import (
	"encoding/json"
	"errors"
	"io"
	"mime"
	"net/http"

	"github.com/healthhive/server/internal/api/middleware"
	"github.com/healthhive/server/internal/api/problem"
	"github.com/healthhive/server/internal/audit"
	"github.com/healthhive/server/internal/auth"
	"github.com/healthhive/server/internal/domain/ids"
	"github.com/healthhive/server/internal/domain/places"
)

type PlacesHandler struct {
	Service *places.Service
	Env     string
	BaseURL string
	// Audit records owner writes; nil disables it.
	Audit *audit.Logger
}

func NewPlacesHandler(service *places.Service, env string, baseURL string) *PlacesHandler {
	return &PlacesHandler{Service: service, Env: env, BaseURL: baseURL}
}

type placeListResponse struct {
	Items      []places.Place `json:"items"`
	Total      int            `json:"total"`
	Page       int            `json:"page"`
	Limit      int            `json:"limit"`
	TotalPages int            `json:"total_pages"`
}

func (h *PlacesHandler) List(w http.ResponseWriter, r *http.Request) {
	result, err := h.Service.Search(r.Context(), r.URL.Query())
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, placeListResponse{
		Items:      result.Places,
		Total:      result.Total,
		Page:       result.Page,
		Limit:      result.Limit,
		TotalPages: result.TotalPages(),
	})
}

func (h *PlacesHandler) Create(w http.ResponseWriter, r *http.Request) {
	in, ok := h.decodeInput(w, r)
	if !ok {
		return
	}

	place, err := h.Service.Create(r.Context(), auth.UserID(r.Context()), in)
	if err != nil {
		h.audit(r, audit.ActionPlaceCreate, "", err)
		h.writeError(w, r, err)
		return
	}
	h.audit(r, audit.ActionPlaceCreate, place.ID, nil)

	if uri, err := ids.BuildCanonicalURI(h.BaseURL, "api/v1/places", place.ID); err == nil {
		w.Header().Set("Location", uri)
	}
	writeJSON(w, http.StatusCreated, place)
}

func (h *PlacesHandler) Get(w http.ResponseWriter, r *http.Request) {
	place, err := h.Service.Get(r.Context(), r.PathValue("id"))
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, place)
}

// Update replaces every mutable field; partial bodies fail validation.
func (h *PlacesHandler) Update(w http.ResponseWriter, r *http.Request) {
	in, ok := h.decodeInput(w, r)
	if !ok {
		return
	}

	place, err := h.Service.Update(r.Context(), r.PathValue("id"), auth.UserID(r.Context()), in)
	h.audit(r, audit.ActionPlaceUpdate, r.PathValue("id"), err)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, place)
}

func (h *PlacesHandler) Delete(w http.ResponseWriter, r *http.Request) {
	err := h.Service.Delete(r.Context(), r.PathValue("id"), auth.UserID(r.Context()))
	h.audit(r, audit.ActionPlaceDelete, r.PathValue("id"), err)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *PlacesHandler) Tags(w http.ResponseWriter, r *http.Request) {
	tags, err := h.Service.Tags(r.Context())
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, tags)
}

// Export returns every place matching the query filters as a downloadable
// JSON array.
func (h *PlacesHandler) Export(w http.ResponseWriter, r *http.Request) {
	list, err := h.Service.Export(r.Context(), r.URL.Query())
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	w.Header().Set("Content-Disposition", `attachment; filename="places.json"`)
	writeJSON(w, http.StatusOK, list)
}

// Mine lists the caller's own places, newest first.
func (h *PlacesHandler) Mine(w http.ResponseWriter, r *http.Request) {
	list, err := h.Service.Mine(r.Context(), auth.UserID(r.Context()))
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, list)
}

// audit skips validation failures; only attempts that reached the store or
// the ownership check are recorded.
func (h *PlacesHandler) audit(r *http.Request, action, placeID string, err error) {
	status := audit.StatusSuccess
	var details map[string]string
	switch {
	case err == nil:
	case places.KindOf(err) == places.KindValidation:
		return
	case places.KindOf(err) == places.KindAuthorization:
		status = audit.StatusDenied
	default:
		status = audit.StatusFailure
		details = map[string]string{"kind": string(places.KindOf(err))}
	}
	h.Audit.LogFromRequest(r, action, placeID, status, middleware.GetRequestID(r.Context()), details)
}

// decodeInput reads a JSON or form body. It writes the problem response
// itself and reports false when the body cannot be read.
func (h *PlacesHandler) decodeInput(w http.ResponseWriter, r *http.Request) (places.Input, bool) {
	var in places.Input

	mediaType, _, _ := mime.ParseMediaType(r.Header.Get("Content-Type"))
	switch mediaType {
	case "application/x-www-form-urlencoded", "multipart/form-data":
		var err error
		if mediaType == "multipart/form-data" {
			err = r.ParseMultipartForm(middleware.DefaultMaxBodySize)
		} else {
			err = r.ParseForm()
		}
		if err != nil {
			h.writeBodyError(w, r, err)
			return in, false
		}
		return places.InputFromForm(r.PostForm), true
	case "", "application/json":
		if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
			h.writeBodyError(w, r, err)
			return in, false
		}
		return in, true
	default:
		problem.Write(w, r, http.StatusUnsupportedMediaType, problem.TypeValidation, "Unsupported media type", nil, h.Env,
			problem.WithDetail("send application/json or a form body"),
			problem.WithRequestID(middleware.GetRequestID(r.Context())))
		return in, false
	}
}

func (h *PlacesHandler) writeBodyError(w http.ResponseWriter, r *http.Request, err error) {
	var tooLarge *http.MaxBytesError
	if errors.As(err, &tooLarge) {
		problem.Write(w, r, http.StatusRequestEntityTooLarge, problem.TypeTooLarge, "Payload too large", err, h.Env,
			problem.WithDetail("request body exceeds the allowed size"),
			problem.WithRequestID(middleware.GetRequestID(r.Context())))
		return
	}
	detail := "request body is not valid"
	if errors.Is(err, io.EOF) {
		detail = "request body is empty"
	}
	problem.Write(w, r, http.StatusBadRequest, problem.TypeValidation, "Invalid request", err, h.Env,
		problem.WithDetail(detail),
		problem.WithRequestID(middleware.GetRequestID(r.Context())))
}

// writeError maps the error kind to a status. Only the safe message reaches
// the client outside development and test.
func (h *PlacesHandler) writeError(w http.ResponseWriter, r *http.Request, err error) {
	var perr *places.Error
	if !errors.As(err, &perr) {
		perr = &places.Error{Kind: places.KindDatabase, Message: "unexpected failure", Err: err}
	}

	opts := []problem.Option{
		problem.WithDetail(perr.Error()),
		problem.WithRequestID(middleware.GetRequestID(r.Context())),
	}

	var status int
	var typ, title string
	switch perr.Kind {
	case places.KindValidation:
		status, typ, title = http.StatusBadRequest, problem.TypeValidation, "Invalid request"
		opts = append(opts, problem.WithFieldError(perr.Field, perr.Message))
	case places.KindNotFound:
		status, typ, title = http.StatusNotFound, problem.TypeNotFound, "Not found"
	case places.KindAuthorization:
		status, typ, title = http.StatusForbidden, problem.TypeForbidden, "Forbidden"
	default:
		status, typ, title = http.StatusInternalServerError, problem.TypeServerError, "Server error"
		if perr.Duplicate() {
			status, typ, title = http.StatusConflict, problem.TypeConflict, "Conflict"
		}
	}

	var cause error = perr
	if perr.Err != nil {
		cause = perr.Err
	}
	problem.Write(w, r, status, typ, title, cause, h.Env, opts...)
}
