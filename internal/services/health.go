package services

import (
	"context"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/sirupsen/logrus"

	"github.com/temcen/moviepick/internal/catalog"
)

type HealthService struct {
	catalog  *catalog.Catalog
	sessions SessionStore
	logger   *logrus.Logger

	// Prometheus metrics
	healthCheckStatus *prometheus.GaugeVec
	catalogSize       *prometheus.GaugeVec
}

type HealthStatus struct {
	Status      string                 `json:"status"`
	Timestamp   time.Time              `json:"timestamp"`
	Services    map[string]string      `json:"services"`
	Critical    []string               `json:"critical_failures,omitempty"`
	NonCritical []string               `json:"non_critical_failures,omitempty"`
	Details     map[string]interface{} `json:"details,omitempty"`
}

// NewHealthService registers its gauges with reg; sessions may be nil.
func NewHealthService(c *catalog.Catalog, sessions SessionStore, reg prometheus.Registerer, logger *logrus.Logger) *HealthService {
	hs := &HealthService{
		catalog:  c,
		sessions: sessions,
		logger:   logger,
	}

	hs.healthCheckStatus = prometheus.NewGaugeVec(prometheus.GaugeOpts{
		Name: "health_check_status",
		Help: "Health check status (1 = healthy, 0 = unhealthy)",
	}, []string{"service"})

	hs.catalogSize = prometheus.NewGaugeVec(prometheus.GaugeOpts{
		Name: "catalog_size",
		Help: "Rows loaded into the in-memory catalog",
	}, []string{"table"})

	// Register metrics with error handling - ignore if already registered
	for _, c := range []prometheus.Collector{hs.healthCheckStatus, hs.catalogSize} {
		if err := reg.Register(c); err != nil {
			if _, ok := err.(prometheus.AlreadyRegisteredError); !ok {
				logger.WithError(err).Warn("Failed to register health metric")
			}
		}
	}

	if c != nil {
		hs.catalogSize.WithLabelValues("movies").Set(float64(c.Len()))
		hs.catalogSize.WithLabelValues("ratings").Set(float64(c.RatingCount()))
	}

	return hs
}

func (s *HealthService) CheckHealth(ctx context.Context) *HealthStatus {
	status := &HealthStatus{
		Timestamp: time.Now(),
		Services:  make(map[string]string),
		Details:   make(map[string]interface{}),
	}

	// The catalog is the only critical dependency
	if s.catalog == nil || s.catalog.Len() == 0 {
		status.Services["catalog"] = "unhealthy"
		status.Critical = append(status.Critical, "catalog")
		s.updateHealthMetrics("catalog", false)
	} else {
		status.Services["catalog"] = "healthy"
		status.Details["movies"] = s.catalog.Len()
		status.Details["ratings"] = s.catalog.RatingCount()
		s.updateHealthMetrics("catalog", true)
	}

	// Session storage is optional
	if s.sessions != nil {
		ctx, cancel := context.WithTimeout(ctx, 2*time.Second)
		defer cancel()

		if err := s.sessions.Ping(ctx); err != nil {
			status.Services["session_store"] = "unhealthy"
			status.NonCritical = append(status.NonCritical, "session_store")
			s.logger.WithError(err).Warn("Non-critical service session_store is unhealthy")
			s.updateHealthMetrics("session_store", false)
		} else {
			status.Services["session_store"] = "healthy"
			s.updateHealthMetrics("session_store", true)
		}
	}

	switch {
	case len(status.Critical) > 0:
		status.Status = "unhealthy"
	case len(status.NonCritical) > 0:
		status.Status = "degraded"
	default:
		status.Status = "healthy"
	}

	return status
}

func (s *HealthService) updateHealthMetrics(serviceName string, healthy bool) {
	if healthy {
		s.healthCheckStatus.WithLabelValues(serviceName).Set(1)
	} else {
		s.healthCheckStatus.WithLabelValues(serviceName).Set(0)
	}
}
