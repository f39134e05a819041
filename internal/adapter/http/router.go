package http

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/couchcryptid/disaster-response-service/internal/domain"
	"github.com/couchcryptid/disaster-response-service/internal/observability"
	sharedobs "github.com/couchcryptid/storm-data-shared/observability"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Banner is returned by the unauthenticated root and /test routes.
const Banner = "Disaster Response Coordination Platform API"

// DisasterService is the disaster record service.
type DisasterService interface {
	Create(ctx context.Context, in domain.CreateDisasterInput) (domain.Disaster, error)
	List(ctx context.Context, tag string) ([]domain.Disaster, error)
	Update(ctx context.Context, id, userID string, in domain.UpdateDisasterInput) (domain.Disaster, error)
	Delete(ctx context.Context, id, userID string) error
}

// FeedService serves the per-disaster auxiliary feeds.
type FeedService interface {
	SocialMedia(ctx context.Context, disasterID string) ([]domain.SocialPost, domain.DataSource, error)
	Resources(ctx context.Context, disasterID string, lat, lng float64) ([]domain.Resource, domain.DataSource, error)
	OfficialUpdates(ctx context.Context, disasterID string) ([]domain.OfficialUpdate, domain.DataSource, error)
	VerifyImage(ctx context.Context, disasterID, imageURL string) (domain.Verification, domain.DataSource, error)
}

// LocationResolver backs the standalone /geocode route.
type LocationResolver interface {
	Resolve(ctx context.Context, description string) (domain.GeocodeResult, error)
}

// RouterConfig carries everything NewRouter mounts.
type RouterConfig struct {
	Disasters   DisasterService
	Feeds       FeedService
	Resolver    LocationResolver
	Ready       sharedobs.ReadinessChecker
	WebSocket   http.Handler
	AdminUsers  []string
	CORSOrigins []string
	Logger      *slog.Logger
	Metrics     *observability.Metrics
}

// NewRouter builds the chi router. Everything under /disasters and /geocode
// requires the x-user header.
func NewRouter(cfg RouterConfig) http.Handler {
	h := &handlers{
		disasters: cfg.Disasters,
		feeds:     cfg.Feeds,
		resolver:  cfg.Resolver,
		logger:    cfg.Logger,
	}

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: cfg.CORSOrigins,
		AllowedMethods: []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders: []string{"Content-Type", HeaderUser},
		ExposedHeaders: []string{HeaderDataSource},
		MaxAge:         300,
	}))
	r.Use(requestLogger(cfg.Logger))
	r.Use(instrument(cfg.Metrics))

	r.Get("/", banner)
	r.Get("/test", banner)
	r.Get("/healthz", sharedobs.LivenessHandler())
	r.Get("/readyz", sharedobs.ReadinessHandler(cfg.Ready))
	r.Handle("/metrics", promhttp.Handler())
	if cfg.WebSocket != nil {
		r.Handle("/ws", cfg.WebSocket)
	}

	r.Group(func(r chi.Router) {
		r.Use(requireUser(cfg.AdminUsers, cfg.Logger))

		r.Route("/disasters", func(r chi.Router) {
			r.Post("/", h.createDisaster)
			r.Get("/", h.listDisasters)
			r.Put("/{id}", h.updateDisaster)
			r.Delete("/{id}", h.deleteDisaster)
			r.Get("/{id}/social-media", h.socialMedia)
			r.Get("/{id}/resources", h.resources)
			r.Get("/{id}/official-updates", h.officialUpdates)
			r.Post("/{id}/verify-image", h.verifyImage)
		})
		r.Post("/geocode", h.geocode)
	})

	return r
}

func banner(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	_, _ = w.Write([]byte(Banner))
}
