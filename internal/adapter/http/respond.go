package http

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/couchcryptid/disaster-response-service/internal/domain"
)

// HeaderDataSource tells clients whether a feed came from a live source,
// a static fixture or the cache.
const HeaderDataSource = "X-Data-Source"

type errorBody struct {
	Error string `json:"error"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v) //nolint:errcheck // client may have gone away
}

// statusFor maps the domain error taxonomy onto a status code and the
// message returned to the client.
func statusFor(err error) (int, string) {
	var (
		vErr *domain.ValidationError
		rErr *domain.ResolutionError
		pErr *domain.PersistenceError
	)
	switch {
	case errors.As(err, &vErr):
		return http.StatusBadRequest, vErr.Msg
	case errors.Is(err, domain.ErrNotFound):
		return http.StatusNotFound, "Disaster not found"
	case errors.As(err, &rErr):
		return http.StatusBadRequest, "Location extraction failed: " + rErr.Msg
	case errors.As(err, &pErr):
		return http.StatusBadRequest, pErr.Err.Error()
	default:
		return http.StatusInternalServerError, err.Error()
	}
}
