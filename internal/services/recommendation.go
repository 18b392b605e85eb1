package services

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/temcen/moviepick/internal/catalog"
	"github.com/temcen/moviepick/internal/config"
	"github.com/temcen/moviepick/internal/messaging"
	"github.com/temcen/moviepick/internal/sampler"
	"github.com/temcen/moviepick/pkg/models"
)

const maxRecommendationCount = 100

// RecommendationQuery is one request for recommendations. Zero values mean
// "use the configured default".
type RecommendationQuery struct {
	UserID    string
	Genres    []string
	MinRating *float64
	Count     int
	Mode      string
}

// RecommendationService resolves a preference profile, samples the catalog
// and remembers the result for the user's session.
type RecommendationService struct {
	catalog  *catalog.Catalog
	sampler  *sampler.Sampler
	sessions SessionStore
	events   EventPublisher
	metrics  *MetricsCollector
	prefs    config.PreferencesConfig
	size     int
	logger   *logrus.Logger
}

// NewRecommendationService wires the service. sessions, events and metrics
// may be nil.
func NewRecommendationService(
	c *catalog.Catalog,
	s *sampler.Sampler,
	sessions SessionStore,
	events EventPublisher,
	metrics *MetricsCollector,
	cfg *config.Config,
	logger *logrus.Logger,
) *RecommendationService {
	return &RecommendationService{
		catalog:  c,
		sampler:  s,
		sessions: sessions,
		events:   events,
		metrics:  metrics,
		prefs:    cfg.Preferences,
		size:     cfg.Sampler.Size,
		logger:   logger,
	}
}

// ParseUserID parses an optional user identifier. An empty string yields nil.
func ParseUserID(s string) (*int, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil, nil
	}

	id, err := strconv.Atoi(s)
	if err != nil || id <= 0 {
		return nil, fmt.Errorf("%w: user id must be a positive integer, got %q", models.ErrInvalidInput, s)
	}
	return &id, nil
}

func (s *RecommendationService) minRating(v *float64) (float64, error) {
	if v == nil {
		return s.prefs.MinRating, nil
	}
	if *v < 1 || *v > 5 {
		return 0, fmt.Errorf("%w: min rating must be within [1, 5], got %v", models.ErrInvalidInput, *v)
	}
	return *v, nil
}

// Recommend generates a fresh result. Explicit genres take precedence over
// genres derived from the user's ratings.
func (s *RecommendationService) Recommend(ctx context.Context, query *RecommendationQuery) (*models.RecommendationResponse, error) {
	startTime := time.Now()

	userID, err := ParseUserID(query.UserID)
	if err != nil {
		return nil, err
	}

	minRating, err := s.minRating(query.MinRating)
	if err != nil {
		return nil, err
	}

	count := query.Count
	if count == 0 {
		count = s.size
	}
	if count > maxRecommendationCount {
		return nil, fmt.Errorf("%w: count must not exceed %d, got %d", models.ErrInvalidInput, maxRecommendationCount, count)
	}

	mode := s.sampler.Config().Mode
	if query.Mode != "" {
		if mode, err = sampler.ParseMode(query.Mode); err != nil {
			return nil, err
		}
	}

	profile := s.resolveProfile(userID, query.Genres, minRating)

	sample, err := s.sampler.SampleWithMode(s.catalog.Movies(), profile.Genres, count, mode)
	if err != nil {
		return nil, err
	}
	// Guarded: the fallback rule makes an empty sample unreachable.
	if len(sample.Movies) == 0 {
		return nil, fmt.Errorf("%w: no candidates after fallback", models.ErrMissingData)
	}

	result := &models.RecommendationResult{
		ID:            uuid.New(),
		UserID:        userID,
		Movies:        sample.Movies,
		Profile:       profile,
		Mode:          string(sample.Mode),
		CandidatePool: sample.PoolSize,
		Fallback:      sample.Fallback,
		GeneratedAt:   time.Now(),
	}

	stored := false
	if userID != nil && s.sessions != nil {
		if err := s.sessions.Save(ctx, *userID, result); err != nil {
			s.metrics.RecordSessionStoreError()
			s.logger.WithError(err).WithField("user_id", *userID).Warn("Failed to store session result")
		} else {
			stored = true
		}
	}

	latency := time.Since(startTime)
	s.metrics.RecordRecommendation(result.Mode, profile.Source, sample.PoolSize, len(result.Movies), sample.Fallback, latency)
	s.publish(ctx, messaging.EventRecommendationsGenerated, result, "")

	s.logger.WithFields(logrus.Fields{
		"result_id": result.ID,
		"user_id":   query.UserID,
		"genres":    profile.Genres,
		"source":    profile.Source,
		"mode":      result.Mode,
		"pool":      sample.PoolSize,
		"count":     len(result.Movies),
		"fallback":  sample.Fallback,
		"latency":   latency,
	}).Info("Recommendations generated")

	return &models.RecommendationResponse{Result: result, SessionStored: stored}, nil
}

func (s *RecommendationService) resolveProfile(userID *int, genres []string, minRating float64) models.PreferenceProfile {
	profile := models.PreferenceProfile{UserID: userID, MinRating: minRating}

	explicit := make([]string, 0, len(genres))
	for _, g := range genres {
		if g = strings.TrimSpace(g); g != "" {
			explicit = append(explicit, g)
		}
	}

	switch {
	case len(explicit) > 0:
		profile.Genres = explicit
		profile.Source = models.PreferenceSourceExplicit
	case userID != nil:
		profile.Genres = DerivePreferences(s.catalog, *userID, minRating, s.prefs.TopGenres)
		profile.Source = models.PreferenceSourceRatings
		if len(profile.Genres) == 0 {
			profile.Source = models.PreferenceSourceNone
		}
	default:
		profile.Genres = []string{}
		profile.Source = models.PreferenceSourceNone
	}
	return profile
}

// Preferences returns the rating-derived profile of a user.
func (s *RecommendationService) Preferences(ctx context.Context, userID string, minRating *float64) (*models.PreferenceProfile, error) {
	id, err := ParseUserID(userID)
	if err != nil {
		return nil, err
	}
	if id == nil {
		return nil, fmt.Errorf("%w: user id is required", models.ErrInvalidInput)
	}

	threshold, err := s.minRating(minRating)
	if err != nil {
		return nil, err
	}

	profile := s.resolveProfile(id, nil, threshold)
	return &profile, nil
}

// LastResult returns the result most recently generated for the user.
func (s *RecommendationService) LastResult(ctx context.Context, userID int) (*models.RecommendationResult, error) {
	if s.sessions == nil {
		return nil, fmt.Errorf("%w: session storage is disabled", models.ErrMissingData)
	}
	return s.sessions.Load(ctx, userID)
}

func (s *RecommendationService) Genres() []string {
	return s.catalog.Genres()
}

func (s *RecommendationService) publish(ctx context.Context, eventType string, result *models.RecommendationResult, filename string) {
	publishEvent(ctx, s.events, s.logger, eventType, result, filename)
}

func publishEvent(ctx context.Context, events EventPublisher, logger *logrus.Logger, eventType string, result *models.RecommendationResult, filename string) {
	if events == nil {
		return
	}

	movieIDs := make([]int, len(result.Movies))
	for i, m := range result.Movies {
		movieIDs[i] = m.ID
	}

	event := messaging.RecommendationEvent{
		EventID:   uuid.New(),
		Type:      eventType,
		ResultID:  result.ID,
		UserID:    result.UserID,
		MovieIDs:  movieIDs,
		Genres:    result.Profile.Genres,
		Mode:      result.Mode,
		Fallback:  result.Fallback,
		Filename:  filename,
		Timestamp: time.Now(),
	}

	if err := events.Publish(ctx, event); err != nil {
		logger.WithError(err).WithField("event_type", eventType).Warn("Failed to publish recommendation event")
	}
}
