package services

import (
	"context"

	"github.com/temcen/moviepick/internal/messaging"
	"github.com/temcen/moviepick/pkg/models"
)

// RecommendationServiceInterface defines the interface for recommendation operations
type RecommendationServiceInterface interface {
	Recommend(ctx context.Context, query *RecommendationQuery) (*models.RecommendationResponse, error)
	Preferences(ctx context.Context, userID string, minRating *float64) (*models.PreferenceProfile, error)
	LastResult(ctx context.Context, userID int) (*models.RecommendationResult, error)
	Genres() []string
}

// ExportServiceInterface defines the interface for result export
type ExportServiceInterface interface {
	SaveForUser(ctx context.Context, userID string) (*models.ExportResponse, error)
	CSVForUser(ctx context.Context, userID string) (string, []byte, error)
}

// EventPublisher receives recommendation lifecycle events.
type EventPublisher interface {
	Publish(ctx context.Context, event messaging.RecommendationEvent) error
}
