package http

import (
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"math"
	"net/http"
	"strconv"

	"github.com/couchcryptid/disaster-response-service/internal/domain"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
)

const maxBodyBytes = 1 << 20

type handlers struct {
	disasters DisasterService
	feeds     FeedService
	resolver  LocationResolver
	logger    *slog.Logger
}

type createDisasterRequest struct {
	Title       string   `json:"title"`
	Description string   `json:"description"`
	Tags        []string `json:"tags"`
}

type verifyImageRequest struct {
	ImageURL string `json:"image_url"`
}

type geocodeRequest struct {
	Description string `json:"description"`
}

type geocodeResponse struct {
	domain.GeocodeResult
	OriginalDescription string `json:"original_description"`
}

type deleteResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
}

func (h *handlers) createDisaster(w http.ResponseWriter, r *http.Request) {
	var req createDisasterRequest
	if !h.decode(w, r, &req) {
		return
	}
	user, _ := UserFrom(r.Context())

	d, err := h.disasters.Create(r.Context(), domain.CreateDisasterInput{
		Title:       req.Title,
		Description: req.Description,
		Tags:        req.Tags,
		OwnerID:     user.ID,
	})
	if err != nil {
		h.fail(w, r, "create disaster", err)
		return
	}
	writeJSON(w, http.StatusOK, d)
}

func (h *handlers) listDisasters(w http.ResponseWriter, r *http.Request) {
	disasters, err := h.disasters.List(r.Context(), r.URL.Query().Get("tag"))
	if err != nil {
		h.fail(w, r, "list disasters", err)
		return
	}
	if disasters == nil {
		disasters = []domain.Disaster{}
	}
	writeJSON(w, http.StatusOK, disasters)
}

func (h *handlers) updateDisaster(w http.ResponseWriter, r *http.Request) {
	var req domain.UpdateDisasterInput
	if !h.decode(w, r, &req) {
		return
	}
	user, _ := UserFrom(r.Context())

	d, err := h.disasters.Update(r.Context(), chi.URLParam(r, "id"), user.ID, req)
	if err != nil {
		h.fail(w, r, "update disaster", err)
		return
	}
	writeJSON(w, http.StatusOK, d)
}

func (h *handlers) deleteDisaster(w http.ResponseWriter, r *http.Request) {
	user, _ := UserFrom(r.Context())

	if err := h.disasters.Delete(r.Context(), chi.URLParam(r, "id"), user.ID); err != nil {
		h.fail(w, r, "delete disaster", err)
		return
	}
	writeJSON(w, http.StatusOK, deleteResponse{Success: true, Message: "Disaster deleted successfully"})
}

func (h *handlers) socialMedia(w http.ResponseWriter, r *http.Request) {
	posts, source, err := h.feeds.SocialMedia(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		h.failFeed(w, r, "social media", err)
		return
	}
	writeFeed(w, source, posts)
}

func (h *handlers) resources(w http.ResponseWriter, r *http.Request) {
	lat, latOK := parseCoordinate(r.URL.Query().Get("lat"))
	lng, lngOK := parseCoordinate(r.URL.Query().Get("lng"))
	if !latOK || !lngOK {
		writeJSON(w, http.StatusBadRequest, errorBody{Error: "Valid lat and lng parameters are required"})
		return
	}

	resources, source, err := h.feeds.Resources(r.Context(), chi.URLParam(r, "id"), lat, lng)
	if err != nil {
		h.failFeed(w, r, "resources", err)
		return
	}
	writeFeed(w, source, resources)
}

func (h *handlers) officialUpdates(w http.ResponseWriter, r *http.Request) {
	updates, source, err := h.feeds.OfficialUpdates(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		h.failFeed(w, r, "official updates", err)
		return
	}
	writeFeed(w, source, updates)
}

func (h *handlers) verifyImage(w http.ResponseWriter, r *http.Request) {
	var req verifyImageRequest
	if !h.decode(w, r, &req) {
		return
	}

	v, source, err := h.feeds.VerifyImage(r.Context(), chi.URLParam(r, "id"), req.ImageURL)
	if err != nil {
		h.failFeed(w, r, "verify image", err)
		return
	}
	writeFeed(w, source, v)
}

func (h *handlers) geocode(w http.ResponseWriter, r *http.Request) {
	var req geocodeRequest
	if !h.decode(w, r, &req) {
		return
	}
	if req.Description == "" {
		writeJSON(w, http.StatusBadRequest, errorBody{Error: "description is required"})
		return
	}

	result, err := h.resolver.Resolve(r.Context(), req.Description)
	if err != nil {
		// Resolution failures are server-side here, unlike disaster creation.
		h.logger.ErrorContext(r.Context(), "geocode failed",
			"request_id", middleware.GetReqID(r.Context()),
			"error", err,
		)
		writeJSON(w, http.StatusInternalServerError, errorBody{Error: resolutionMessage(err)})
		return
	}
	writeJSON(w, http.StatusOK, geocodeResponse{GeocodeResult: result, OriginalDescription: req.Description})
}

// decode reads a JSON body. An empty body decodes as the zero value so
// missing-field validation produces the usual message.
func (h *handlers) decode(w http.ResponseWriter, r *http.Request, v any) bool {
	err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes)).Decode(v)
	if err == nil || errors.Is(err, io.EOF) {
		return true
	}
	h.logger.WarnContext(r.Context(), "invalid request body",
		"request_id", middleware.GetReqID(r.Context()),
		"error", err,
	)
	writeJSON(w, http.StatusBadRequest, errorBody{Error: "Invalid JSON body"})
	return false
}

func (h *handlers) fail(w http.ResponseWriter, r *http.Request, op string, err error) {
	status, msg := statusFor(err)
	h.log(r, op, status, err)
	writeJSON(w, status, errorBody{Error: msg})
}

// failFeed reports feed errors. Only validation is the caller's fault; a
// failing store or upstream is a 500.
func (h *handlers) failFeed(w http.ResponseWriter, r *http.Request, op string, err error) {
	status, msg := http.StatusInternalServerError, err.Error()
	var vErr *domain.ValidationError
	if errors.As(err, &vErr) {
		status, msg = http.StatusBadRequest, vErr.Msg
	}
	h.log(r, op, status, err)
	writeJSON(w, status, errorBody{Error: msg})
}

func (h *handlers) log(r *http.Request, op string, status int, err error) {
	level := slog.LevelWarn
	if status >= http.StatusInternalServerError {
		level = slog.LevelError
	}
	h.logger.Log(r.Context(), level, op+" failed",
		"request_id", middleware.GetReqID(r.Context()),
		"status", status,
		"error", err,
	)
}

func writeFeed(w http.ResponseWriter, source domain.DataSource, v any) {
	w.Header().Set(HeaderDataSource, string(source))
	writeJSON(w, http.StatusOK, v)
}

func parseCoordinate(s string) (float64, bool) {
	if s == "" {
		return 0, false
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil || math.IsNaN(v) || math.IsInf(v, 0) {
		return 0, false
	}
	return v, true
}

func resolutionMessage(err error) string {
	var rErr *domain.ResolutionError
	if errors.As(err, &rErr) {
		return rErr.Msg
	}
	return err.Error()
}
