package api

import (
	"encoding/json"
	"io"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/pkg/errors"
	"github.com/spf13/cast"
	"go.uber.org/zap"

	"pharmapos/m/domain"
)

type envelope map[string]any

var errEmptyBody = &domain.ValidationError{Message: "request body is required"}

func decodeJSON(r *http.Request, dest interface{}) error {
	decoder := json.NewDecoder(r.Body)
	decoder.DisallowUnknownFields()
	if err := decoder.Decode(dest); err != nil {
		if errors.Is(err, io.EOF) {
			return errEmptyBody
		}
		return &domain.ValidationError{Message: "invalid request body: " + err.Error()}
	}
	return nil
}

func respondJSON(w http.ResponseWriter, status int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	encoder := json.NewEncoder(w)
	encoder.SetEscapeHTML(false)
	_ = encoder.Encode(payload)
}

func respondData(w http.ResponseWriter, status int, data interface{}) {
	respondJSON(w, status, envelope{"success": true, "data": data})
}

// respondPage writes one page of a list together with its total row count.
func respondPage(w http.ResponseWriter, data interface{}, total int64, limit, offset int) {
	respondJSON(w, http.StatusOK, envelope{
		"success": true,
		"data":    data,
		"total":   total,
		"limit":   limit,
		"offset":  offset,
	})
}

func respondError(w http.ResponseWriter, status int, message string) {
	respondJSON(w, status, envelope{"success": false, "error": message})
}

// fail maps err onto an HTTP status. Unexpected errors are logged and hidden
// from the client.
func (h *Handler) fail(w http.ResponseWriter, r *http.Request, err error) {
	var ve *domain.ValidationError
	switch {
	case errors.As(err, &ve):
		body := envelope{"success": false, "error": ve.Error()}
		if ve.Field != "" {
			body["fields"] = map[string]string{ve.Field: ve.Message}
		}
		respondJSON(w, http.StatusBadRequest, body)
	case errors.Is(err, domain.ErrNotFound):
		respondError(w, http.StatusNotFound, err.Error())
	case errors.Is(err, domain.ErrInsufficientPayment):
		respondError(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, domain.ErrConflict),
		errors.Is(err, domain.ErrLastAdmin),
		errors.Is(err, domain.ErrInsufficientStock):
		respondError(w, http.StatusConflict, err.Error())
	case errors.Is(err, domain.ErrInvalidCredentials):
		respondError(w, http.StatusUnauthorized, err.Error())
	case errors.Is(err, domain.ErrInactiveUser):
		respondError(w, http.StatusForbidden, err.Error())
	default:
		h.log.Error("request failed",
			zap.Error(err),
			zap.String("method", r.Method),
			zap.String("path", r.URL.Path),
			zap.String("request_id", middleware.GetReqID(r.Context())))
		respondError(w, http.StatusInternalServerError, "internal server error")
	}
}

func pathID(r *http.Request) (int64, error) {
	id, err := cast.ToInt64E(chi.URLParam(r, "id"))
	if err != nil || id <= 0 {
		return 0, domain.Invalid("id", "must be a positive integer")
	}
	return id, nil
}

func queryInt(r *http.Request, key string) (int, error) {
	raw := strings.TrimSpace(r.URL.Query().Get(key))
	if raw == "" {
		return 0, nil
	}
	v, err := cast.ToIntE(raw)
	if err != nil {
		return 0, domain.Invalid(key, "must be an integer")
	}
	return v, nil
}

func queryInt64(r *http.Request, key string) (int64, error) {
	v, err := queryInt(r, key)
	return int64(v), err
}

func queryBool(r *http.Request, key string) (bool, error) {
	raw := strings.TrimSpace(r.URL.Query().Get(key))
	if raw == "" {
		return false, nil
	}
	v, err := cast.ToBoolE(raw)
	if err != nil {
		return false, domain.Invalid(key, "must be true or false")
	}
	return v, nil
}

// page reads limit and offset; limit defaults to 50 and is capped at 500.
func page(r *http.Request) (limit, offset int, err error) {
	if limit, err = queryInt(r, "limit"); err != nil {
		return 0, 0, err
	}
	if offset, err = queryInt(r, "offset"); err != nil {
		return 0, 0, err
	}
	if limit < 0 || offset < 0 {
		return 0, 0, domain.Invalid("limit", "limit and offset must not be negative")
	}
	switch {
	case limit == 0:
		limit = 50
	case limit > 500:
		limit = 500
	}
	return limit, offset, nil
}
