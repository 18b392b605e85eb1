package handlers

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/sirupsen/logrus"

	"github.com/temcen/moviepick/internal/services"
)

type Handlers struct {
	Health         *HealthHandler
	Recommendation *RecommendationHandler
	Export         *ExportHandler
	Auth           *AuthHandler
	Metrics        *MetricsHandler
}

func New(logger *logrus.Logger, services *services.Services, gatherer prometheus.Gatherer) *Handlers {
	return &Handlers{
		Health:         NewHealthHandler(logger, services.Health),
		Recommendation: NewRecommendationHandler(services.Recommendations, logger),
		Export:         NewExportHandler(services.Export, logger),
		Auth:           NewAuthHandler(services.Auth, logger),
		Metrics:        NewMetricsHandler(gatherer),
	}
}
