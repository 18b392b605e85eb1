package services

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/temcen/moviepick/internal/messaging"
	"github.com/temcen/moviepick/pkg/models"
)

type MockRecommendationService struct {
	mock.Mock
}

func (m *MockRecommendationService) Recommend(ctx context.Context, query *RecommendationQuery) (*models.RecommendationResponse, error) {
	args := m.Called(ctx, query)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.RecommendationResponse), args.Error(1)
}

func (m *MockRecommendationService) Preferences(ctx context.Context, userID string, minRating *float64) (*models.PreferenceProfile, error) {
	args := m.Called(ctx, userID, minRating)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.PreferenceProfile), args.Error(1)
}

func (m *MockRecommendationService) LastResult(ctx context.Context, userID int) (*models.RecommendationResult, error) {
	args := m.Called(ctx, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.RecommendationResult), args.Error(1)
}

func (m *MockRecommendationService) Genres() []string {
	args := m.Called()
	return args.Get(0).([]string)
}

func sampleResult(userID int) *models.RecommendationResult {
	return &models.RecommendationResult{
		ID:     uuid.New(),
		UserID: &userID,
		Movies: []models.Movie{
			{ID: 1, Title: "Toy Story (1995)", Genres: []string{"Adventure", "Animation"}},
			{ID: 11, Title: "American President, The (1995)", Genres: []string{"Comedy", "Drama", "Romance"}},
			{ID: 6, Title: "Unknown Pleasures (2003)", Genres: []string{}},
		},
		Mode: "rerank",
	}
}

func TestWriteCSV(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteCSV(&buf, sampleResult(1).Movies))

	expected := "movieId,title,genres\n" +
		"1,Toy Story (1995),Adventure|Animation\n" +
		"11,\"American President, The (1995)\",Comedy|Drama|Romance\n" +
		"6,Unknown Pleasures (2003),\n"
	assert.Equal(t, expected, buf.String())
}

func TestWriteCSV_RoundTrip(t *testing.T) {
	movies := sampleResult(1).Movies
	movies = append(movies, models.Movie{ID: 99, Title: `Say "Cheese", Again (2001)`, Genres: []string{"Comedy"}})

	var buf bytes.Buffer
	require.NoError(t, WriteCSV(&buf, movies))

	parsed, err := ParseCSV(&buf)
	require.NoError(t, err)
	assert.Equal(t, movies, parsed)
}

func TestWriteCSV_Empty(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteCSV(&buf, nil))
	assert.Equal(t, "movieId,title,genres\n", buf.String())

	parsed, err := ParseCSV(&buf)
	require.NoError(t, err)
	assert.Empty(t, parsed)
}

func TestParseCSV_Malformed(t *testing.T) {
	for _, input := range []string{
		"",
		"movieId,title,genres\nx,Title,Drama\n",
		"movieId,title,genres\n1,Title\n",
	} {
		_, err := ParseCSV(strings.NewReader(input))
		assert.ErrorIs(t, err, models.ErrIOFailure, input)
	}
}

func TestExportFilename(t *testing.T) {
	assert.Equal(t, "recommendations_user_7.csv", ExportFilename(7))
}

func TestSaveForUser(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "exports")
	recs := &MockRecommendationService{}
	recs.On("LastResult", mock.Anything, 7).Return(sampleResult(7), nil)

	events := &MockEventPublisher{}
	events.On("Publish", mock.Anything, mock.MatchedBy(func(e messaging.RecommendationEvent) bool {
		return e.Type == messaging.EventRecommendationsExported && e.Filename == "recommendations_user_7.csv"
	})).Return(nil).Once()

	metrics := NewMetricsCollector(prometheus.NewRegistry())
	svc := NewExportService(recs, dir, events, metrics, testLogger())

	resp, err := svc.SaveForUser(context.Background(), "7")
	require.NoError(t, err)
	assert.Equal(t, 7, resp.UserID)
	assert.Equal(t, "recommendations_user_7.csv", resp.Filename)
	assert.Equal(t, 3, resp.Count)
	assert.True(t, filepath.IsAbs(resp.Path))

	f, err := os.Open(filepath.Join(dir, "recommendations_user_7.csv"))
	require.NoError(t, err)
	defer f.Close()

	parsed, err := ParseCSV(f)
	require.NoError(t, err)
	assert.Equal(t, sampleResult(7).Movies, parsed)

	// No temp files are left behind
	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	assert.Len(t, entries, 1)

	assert.Equal(t, float64(1), testutil.ToFloat64(metrics.exports.WithLabelValues("file")))
	recs.AssertExpectations(t)
	events.AssertExpectations(t)
}

func TestSaveForUser_Overwrites(t *testing.T) {
	dir := t.TempDir()
	first := sampleResult(7)
	second := sampleResult(7)
	second.Movies = second.Movies[:1]

	recs := &MockRecommendationService{}
	recs.On("LastResult", mock.Anything, 7).Return(first, nil).Once()
	recs.On("LastResult", mock.Anything, 7).Return(second, nil).Once()

	svc := NewExportService(recs, dir, nil, nil, testLogger())

	_, err := svc.SaveForUser(context.Background(), "7")
	require.NoError(t, err)
	resp, err := svc.SaveForUser(context.Background(), "7")
	require.NoError(t, err)
	assert.Equal(t, 1, resp.Count)

	data, err := os.ReadFile(filepath.Join(dir, "recommendations_user_7.csv"))
	require.NoError(t, err)
	assert.Equal(t, "movieId,title,genres\n1,Toy Story (1995),Adventure|Animation\n", string(data))
}

func TestSaveForUser_Errors(t *testing.T) {
	tests := []struct {
		name        string
		userID      string
		setup       func(m *MockRecommendationService)
		expectedErr error
	}{
		{
			name:        "missing user id",
			userID:      "",
			setup:       func(m *MockRecommendationService) {},
			expectedErr: models.ErrInvalidInput,
		},
		{
			name:        "invalid user id",
			userID:      "seven",
			setup:       func(m *MockRecommendationService) {},
			expectedErr: models.ErrInvalidInput,
		},
		{
			name:   "nothing generated",
			userID: "7",
			setup: func(m *MockRecommendationService) {
				m.On("LastResult", mock.Anything, 7).Return(nil, models.ErrMissingData)
			},
			expectedErr: models.ErrMissingData,
		},
		{
			name:   "empty result",
			userID: "7",
			setup: func(m *MockRecommendationService) {
				m.On("LastResult", mock.Anything, 7).Return(&models.RecommendationResult{}, nil)
			},
			expectedErr: models.ErrMissingData,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			dir := t.TempDir()
			recs := &MockRecommendationService{}
			tt.setup(recs)

			svc := NewExportService(recs, dir, nil, nil, testLogger())
			_, err := svc.SaveForUser(context.Background(), tt.userID)
			assert.ErrorIs(t, err, tt.expectedErr)

			entries, err := os.ReadDir(dir)
			require.NoError(t, err)
			assert.Empty(t, entries)
		})
	}
}

func TestSaveForUser_UnwritableDir(t *testing.T) {
	blocker := filepath.Join(t.TempDir(), "file")
	require.NoError(t, os.WriteFile(blocker, []byte("x"), 0o644))

	recs := &MockRecommendationService{}
	recs.On("LastResult", mock.Anything, 7).Return(sampleResult(7), nil)

	svc := NewExportService(recs, filepath.Join(blocker, "exports"), nil, nil, testLogger())
	_, err := svc.SaveForUser(context.Background(), "7")
	assert.ErrorIs(t, err, models.ErrIOFailure)
}

func TestCSVForUser(t *testing.T) {
	recs := &MockRecommendationService{}
	recs.On("LastResult", mock.Anything, 3).Return(sampleResult(3), nil)
	recs.On("LastResult", mock.Anything, 4).Return(nil, models.ErrMissingData)

	svc := NewExportService(recs, t.TempDir(), nil, nil, testLogger())

	filename, data, err := svc.CSVForUser(context.Background(), "3")
	require.NoError(t, err)
	assert.Equal(t, "recommendations_user_3.csv", filename)
	assert.True(t, strings.HasPrefix(string(data), "movieId,title,genres\n1,Toy Story"))

	_, _, err = svc.CSVForUser(context.Background(), "4")
	assert.ErrorIs(t, err, models.ErrMissingData)
}
