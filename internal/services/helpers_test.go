package services

import (
	"context"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/temcen/moviepick/internal/catalog"
	"github.com/temcen/moviepick/internal/messaging"
	"github.com/temcen/moviepick/pkg/models"
)

func testLogger() *logrus.Logger {
	logger := logrus.New()
	logger.SetLevel(logrus.WarnLevel)
	return logger
}

func testMovies() []models.Movie {
	return []models.Movie{
		{ID: 1, Title: "Toy Story (1995)", Genres: []string{"Adventure", "Animation", "Children", "Comedy", "Fantasy"}},
		{ID: 2, Title: "Jumanji (1995)", Genres: []string{"Adventure", "Children", "Fantasy"}},
		{ID: 3, Title: "Heat (1995)", Genres: []string{"Action", "Crime", "Thriller"}},
		{ID: 4, Title: "Grumpier Old Men (1995)", Genres: []string{"Comedy", "Romance"}},
		{ID: 5, Title: "Sabrina (1995)", Genres: []string{"Comedy", "Romance"}},
		{ID: 6, Title: "Unknown Pleasures (2003)", Genres: []string{models.NoGenresListed}},
	}
}

func testRatings() []models.Rating {
	return []models.Rating{
		{UserID: 1, MovieID: 1, Value: 5.0, Timestamp: 964982703},
		{UserID: 1, MovieID: 3, Value: 4.5, Timestamp: 964982931},
		{UserID: 1, MovieID: 4, Value: 4.0, Timestamp: 964983815},
		{UserID: 1, MovieID: 2, Value: 2.0, Timestamp: 964984041},
		{UserID: 2, MovieID: 6, Value: 5.0, Timestamp: 964982224},
		{UserID: 3, MovieID: 1, Value: 2.0, Timestamp: 964981247},
		{UserID: 4, MovieID: 999, Value: 5.0, Timestamp: 964982653},
	}
}

func testCatalog(t *testing.T) *catalog.Catalog {
	t.Helper()
	c, err := catalog.New(testMovies(), testRatings())
	require.NoError(t, err)
	return c
}

func testRedis(t *testing.T) (*miniredis.Miniredis, *redis.Client) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { client.Close() })
	return mr, client
}

type MockEventPublisher struct {
	mock.Mock
}

func (m *MockEventPublisher) Publish(ctx context.Context, event messaging.RecommendationEvent) error {
	args := m.Called(ctx, event)
	return args.Error(0)
}

type MockSessionStore struct {
	mock.Mock
}

func (m *MockSessionStore) Save(ctx context.Context, userID int, result *models.RecommendationResult) error {
	args := m.Called(ctx, userID, result)
	return args.Error(0)
}

func (m *MockSessionStore) Load(ctx context.Context, userID int) (*models.RecommendationResult, error) {
	args := m.Called(ctx, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.RecommendationResult), args.Error(1)
}

func (m *MockSessionStore) Ping(ctx context.Context) error {
	args := m.Called(ctx)
	return args.Error(0)
}
