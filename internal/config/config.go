package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	sharedcfg "github.com/couchcryptid/storm-data-shared/config"
	"github.com/joho/godotenv"
)

// Geocoder providers and cache backends.
const (
	ProviderGoogle = "google"
	ProviderMapbox = "mapbox"

	CacheMemory   = "memory"
	CacheRedis    = "redis"
	CachePostgres = "postgres"
)

// Config holds all service settings, populated from environment variables.
type Config struct {
	HTTPAddr           string
	LogLevel           string
	LogFormat          string
	ShutdownTimeout    time.Duration
	CORSAllowedOrigins []string
	AdminUsers         []string

	// Upstream providers.
	UpstreamTimeout    time.Duration
	GeminiAPIKey       string
	GeminiModel        string
	GeminiVisionModel  string
	GeocoderProvider   string
	GoogleMapsAPIKey   string
	MapboxToken        string
	NominatimUserAgent string
	NominatimReferer   string
	OfficialUpdatesURL string
	ScrapeTimeout      time.Duration

	// Storage. An empty DatabaseURL selects the in-memory store.
	DatabaseURL          string
	CacheBackend         string
	RedisURL             string
	CacheMaxEntries      int
	ResourceRadiusMeters float64

	// Kafka. No brokers disables the event stream and the intake pipeline.
	KafkaBrokers       []string
	KafkaEventsTopic   string
	KafkaIntakeTopic   string
	KafkaGroupID       string
	BatchSize          int
	BatchFlushInterval time.Duration
}

// Load reads configuration from environment variables, applying defaults
// where unset. A .env file in the working directory is loaded first and
// never overrides variables already set.
func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("load .env: %w", err)
	}

	shutdownTimeout, err := sharedcfg.ParseShutdownTimeout()
	if err != nil {
		return nil, err
	}
	upstreamTimeout, err := parseDuration("UPSTREAM_TIMEOUT", "15s")
	if err != nil {
		return nil, err
	}
	scrapeTimeout, err := parseDuration("SCRAPE_TIMEOUT", "10s")
	if err != nil {
		return nil, err
	}
	batchSize, err := sharedcfg.ParseBatchSize()
	if err != nil {
		return nil, err
	}
	flushInterval, err := sharedcfg.ParseBatchFlushInterval()
	if err != nil {
		return nil, err
	}
	cacheMaxEntries, err := parsePositiveInt("CACHE_MAX_ENTRIES", 10000)
	if err != nil {
		return nil, err
	}
	radius, err := parsePositiveFloat("RESOURCE_RADIUS_METERS", 10000)
	if err != nil {
		return nil, err
	}

	var brokers []string
	if v := os.Getenv("KAFKA_BROKERS"); v != "" {
		brokers = sharedcfg.ParseBrokers(v)
	}

	cfg := &Config{
		HTTPAddr:           sharedcfg.EnvOrDefault("HTTP_ADDR", ":5001"),
		LogLevel:           sharedcfg.EnvOrDefault("LOG_LEVEL", "info"),
		LogFormat:          sharedcfg.EnvOrDefault("LOG_FORMAT", "json"),
		ShutdownTimeout:    shutdownTimeout,
		CORSAllowedOrigins: splitList(sharedcfg.EnvOrDefault("CORS_ALLOWED_ORIGINS", "*")),
		AdminUsers:         splitList(sharedcfg.EnvOrDefault("ADMIN_USERS", "netrunnerX,reliefAdmin")),

		UpstreamTimeout:    upstreamTimeout,
		GeminiAPIKey:       os.Getenv("GEMINI_API_KEY"),
		GeminiModel:        sharedcfg.EnvOrDefault("GEMINI_MODEL", "gemini-pro"),
		GeminiVisionModel:  sharedcfg.EnvOrDefault("GEMINI_VISION_MODEL", "gemini-pro-vision"),
		GeocoderProvider:   strings.ToLower(sharedcfg.EnvOrDefault("GEOCODER_PROVIDER", ProviderGoogle)),
		GoogleMapsAPIKey:   os.Getenv("GOOGLE_MAPS_API_KEY"),
		MapboxToken:        os.Getenv("MAPBOX_TOKEN"),
		NominatimUserAgent: os.Getenv("NOMINATIM_USER_AGENT"),
		NominatimReferer:   os.Getenv("NOMINATIM_REFERER"),
		OfficialUpdatesURL: sharedcfg.EnvOrDefault("OFFICIAL_UPDATES_URL", "https://www.fema.gov/"),
		ScrapeTimeout:      scrapeTimeout,

		DatabaseURL:          os.Getenv("DATABASE_URL"),
		CacheBackend:         strings.ToLower(sharedcfg.EnvOrDefault("CACHE_BACKEND", CacheMemory)),
		RedisURL:             os.Getenv("REDIS_URL"),
		CacheMaxEntries:      cacheMaxEntries,
		ResourceRadiusMeters: radius,

		KafkaBrokers:       brokers,
		KafkaEventsTopic:   sharedcfg.EnvOrDefault("KAFKA_EVENTS_TOPIC", "disaster-events"),
		KafkaIntakeTopic:   sharedcfg.EnvOrDefault("KAFKA_INTAKE_TOPIC", "disaster-reports"),
		KafkaGroupID:       sharedcfg.EnvOrDefault("KAFKA_GROUP_ID", "disaster-intake"),
		BatchSize:          batchSize,
		BatchFlushInterval: flushInterval,
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// KafkaEnabled reports whether brokers were configured.
func (c *Config) KafkaEnabled() bool {
	return len(c.KafkaBrokers) > 0
}

func (c *Config) validate() error {
	switch c.GeocoderProvider {
	case ProviderGoogle, ProviderMapbox:
	default:
		return fmt.Errorf("invalid GEOCODER_PROVIDER %q: want google or mapbox", c.GeocoderProvider)
	}

	switch c.CacheBackend {
	case CacheMemory:
	case CacheRedis:
		if c.RedisURL == "" {
			return errors.New("CACHE_BACKEND is redis but REDIS_URL is not set")
		}
	case CachePostgres:
		if c.DatabaseURL == "" {
			return errors.New("CACHE_BACKEND is postgres but DATABASE_URL is not set")
		}
	default:
		return fmt.Errorf("invalid CACHE_BACKEND %q: want memory, redis or postgres", c.CacheBackend)
	}

	if c.KafkaEnabled() {
		if c.KafkaEventsTopic == "" {
			return errors.New("KAFKA_EVENTS_TOPIC is required")
		}
		if c.KafkaIntakeTopic == "" {
			return errors.New("KAFKA_INTAKE_TOPIC is required")
		}
	}
	return nil
}

func parseDuration(key, def string) (time.Duration, error) {
	d, err := time.ParseDuration(sharedcfg.EnvOrDefault(key, def))
	if err != nil || d <= 0 {
		return 0, fmt.Errorf("invalid %s", key)
	}
	return d, nil
}

func parsePositiveInt(key string, def int) (int, error) {
	s := os.Getenv(key)
	if s == "" {
		return def, nil
	}
	n, err := strconv.Atoi(s)
	if err != nil || n <= 0 {
		return 0, fmt.Errorf("invalid %s", key)
	}
	return n, nil
}

func parsePositiveFloat(key string, def float64) (float64, error) {
	s := os.Getenv(key)
	if s == "" {
		return def, nil
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil || f <= 0 {
		return 0, fmt.Errorf("invalid %s", key)
	}
	return f, nil
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}
