package services

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/sirupsen/logrus"

	"github.com/temcen/moviepick/internal/catalog"
	"github.com/temcen/moviepick/internal/config"
	"github.com/temcen/moviepick/internal/database"
	"github.com/temcen/moviepick/internal/messaging"
	"github.com/temcen/moviepick/internal/sampler"
)

type Services struct {
	Auth            *AuthService
	Health          *HealthService
	RateLimit       *RateLimitService
	EventBus        *messaging.EventBus
	Metrics         *MetricsCollector
	Recommendations *RecommendationService
	Export          *ExportService
}

func New(cfg *config.Config, logger *logrus.Logger, db *database.Database, c *catalog.Catalog, reg prometheus.Registerer) (*Services, error) {
	s, err := sampler.New(sampler.Config{
		Mode:         sampler.Mode(cfg.Sampler.Mode),
		Rounds:       cfg.Sampler.Rounds,
		PoolCap:      cfg.Sampler.PoolCap,
		NoiseSize:    cfg.Sampler.NoiseSize,
		FallbackSize: cfg.Sampler.FallbackSize,
		Seed:         cfg.Sampler.Seed,
	})
	if err != nil {
		return nil, err
	}

	// Interfaces stay nil, not typed-nil, when a backend is off
	var sessions SessionStore
	if cfg.Session.Enabled && db.Redis != nil {
		sessions = NewRedisSessionStore(db.Redis, cfg.Session.TTL)
	}

	eventBus := messaging.NewEventBus(cfg, logger)
	var events EventPublisher
	if eventBus.Enabled() {
		events = eventBus
	}

	metrics := NewMetricsCollector(reg)
	recommendations := NewRecommendationService(c, s, sessions, events, metrics, cfg, logger)

	svc := &Services{
		Auth:            NewAuthService(&cfg.Auth, logger),
		Health:          NewHealthService(c, sessions, reg, logger),
		EventBus:        eventBus,
		Metrics:         metrics,
		Recommendations: recommendations,
		Export:          NewExportService(recommendations, cfg.Export.Dir, events, metrics, logger),
	}

	if cfg.Auth.Enabled && cfg.Auth.RateLimit.Enabled && db.Redis != nil {
		svc.RateLimit = NewRateLimitService(&cfg.Auth.RateLimit, logger, db.Redis)
	}

	return svc, nil
}

// Close releases resources owned by the services; the database is closed by
// its owner.
func (s *Services) Close() error {
	return s.EventBus.Close()
}
