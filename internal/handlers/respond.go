package handlers

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strconv"
	"strings"

	"github.com/rs/zerolog"
	"github.com/stanstork/tickr-api/internal/models"
	"github.com/stanstork/tickr-api/internal/service"
)

const maxBodyBytes = 1 << 20

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if v != nil {
		json.NewEncoder(w).Encode(v)
	}
}

func writeDetail(w http.ResponseWriter, status int, detail string) {
	writeJSON(w, status, map[string]string{"detail": detail})
}

// writeError maps service error kinds onto HTTP statuses. Unknown errors are logged and reported as 500.
func writeError(w http.ResponseWriter, logger zerolog.Logger, err error) {
	status := statusFor(err)
	if status == http.StatusInternalServerError {
		logger.Error().Err(err).Msg("request failed")
		writeDetail(w, status, "internal server error")
		return
	}
	reason, _ := service.Reason(err)
	writeDetail(w, status, reason)
}

func statusFor(err error) int {
	switch {
	case errors.Is(err, service.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, service.ErrForbidden):
		return http.StatusForbidden
	case errors.Is(err, service.ErrConflict):
		return http.StatusConflict
	case errors.Is(err, service.ErrInvalidState):
		return http.StatusBadRequest
	case errors.Is(err, service.ErrValidation):
		return http.StatusUnprocessableEntity
	case errors.Is(err, service.ErrUnauthorized):
		return http.StatusUnauthorized
	default:
		return http.StatusInternalServerError
	}
}

// decodeJSON reads the request body into dst. An empty body leaves dst untouched.
func decodeJSON(w http.ResponseWriter, r *http.Request, dst interface{}) bool {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	if err := dec.Decode(dst); err != nil && !errors.Is(err, io.EOF) {
		writeDetail(w, http.StatusBadRequest, "invalid request body")
		return false
	}
	return true
}

// pageFromQuery reads the page and page_size parameters.
func pageFromQuery(r *http.Request) models.Page {
	q := r.URL.Query()
	number, _ := strconv.Atoi(q.Get("page"))
	size, _ := strconv.Atoi(q.Get("page_size"))
	return models.Page{Number: number, Size: size}.Normalize()
}

// queryDays reads the days parameter. A missing value yields 0, a malformed one -1.
func queryDays(r *http.Request) int {
	raw := queryString(r, "days")
	if raw == "" {
		return 0
	}
	days, err := strconv.Atoi(raw)
	if err != nil {
		return -1
	}
	return days
}

func queryString(r *http.Request, key string) string {
	return strings.TrimSpace(r.URL.Query().Get(key))
}
