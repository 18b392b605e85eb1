package services

import (
	"context"
	"errors"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
)

func TestHealthService_Healthy(t *testing.T) {
	sessions := &MockSessionStore{}
	sessions.On("Ping", mock.Anything).Return(nil)

	hs := NewHealthService(testCatalog(t), sessions, prometheus.NewRegistry(), testLogger())
	status := hs.CheckHealth(context.Background())

	assert.Equal(t, "healthy", status.Status)
	assert.Equal(t, "healthy", status.Services["catalog"])
	assert.Equal(t, "healthy", status.Services["session_store"])
	assert.Equal(t, 6, status.Details["movies"])
	assert.Equal(t, float64(6), testutil.ToFloat64(hs.catalogSize.WithLabelValues("movies")))
	assert.Equal(t, float64(1), testutil.ToFloat64(hs.healthCheckStatus.WithLabelValues("catalog")))
}

func TestHealthService_DegradedWithoutSessionStore(t *testing.T) {
	sessions := &MockSessionStore{}
	sessions.On("Ping", mock.Anything).Return(errors.New("connection refused"))

	hs := NewHealthService(testCatalog(t), sessions, prometheus.NewRegistry(), testLogger())
	status := hs.CheckHealth(context.Background())

	assert.Equal(t, "degraded", status.Status)
	assert.Equal(t, []string{"session_store"}, status.NonCritical)
	assert.Empty(t, status.Critical)
}

func TestHealthService_SessionsDisabled(t *testing.T) {
	hs := NewHealthService(testCatalog(t), nil, prometheus.NewRegistry(), testLogger())
	status := hs.CheckHealth(context.Background())

	assert.Equal(t, "healthy", status.Status)
	_, present := status.Services["session_store"]
	assert.False(t, present)
}

func TestHealthService_NoCatalog(t *testing.T) {
	hs := NewHealthService(nil, nil, prometheus.NewRegistry(), testLogger())
	status := hs.CheckHealth(context.Background())

	assert.Equal(t, "unhealthy", status.Status)
	assert.Equal(t, []string{"catalog"}, status.Critical)
}

func TestHealthService_RegistersTwice(t *testing.T) {
	reg := prometheus.NewRegistry()
	NewHealthService(testCatalog(t), nil, reg, testLogger())

	assert.NotPanics(t, func() {
		NewHealthService(testCatalog(t), nil, reg, testLogger())
	})
}
