package sampler

import (
	"errors"
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/stat"
	"gonum.org/v1/gonum/stat/distuv"

	"github.com/temcen/moviepick/pkg/models"
)

var allModes = []Mode{ModeUniform, ModeRerank, ModeWeighted}

func newTestSampler(t *testing.T, mode Mode) *Sampler {
	t.Helper()
	cfg := DefaultConfig()
	cfg.Mode = mode
	cfg.Seed = 42
	s, err := New(cfg)
	require.NoError(t, err)
	return s
}

func movie(id int, genres string) models.Movie {
	return models.Movie{ID: id, Title: fmt.Sprintf("Movie %d", id), Genres: models.SplitGenres(genres)}
}

func makeCatalog(n int, genres func(i int) string) []models.Movie {
	movies := make([]models.Movie, n)
	for i := range movies {
		movies[i] = movie(i+1, genres(i))
	}
	return movies
}

func ids(movies []models.Movie) []int {
	out := make([]int, len(movies))
	for i, m := range movies {
		out[i] = m.ID
	}
	return out
}

func TestSample_ExactSizeAndUnique(t *testing.T) {
	catalog := makeCatalog(200, func(i int) string {
		if i%3 == 0 {
			return "Action|Drama"
		}
		return "Comedy"
	})

	for _, mode := range allModes {
		for _, prefs := range [][]string{nil, {"Action"}, {"Comedy", "Drama"}, {"Western"}} {
			t.Run(fmt.Sprintf("%s/%v", mode, prefs), func(t *testing.T) {
				s := newTestSampler(t, mode)
				for trial := 0; trial < 50; trial++ {
					got, err := s.Sample(catalog, prefs, 10)
					require.NoError(t, err)
					require.Len(t, got, 10)

					seen := make(map[int]bool)
					for _, m := range got {
						assert.False(t, seen[m.ID], "duplicate id %d", m.ID)
						seen[m.ID] = true
					}
				}
			})
		}
	}
}

func TestSample_Scenario(t *testing.T) {
	catalog := []models.Movie{
		{ID: 1, Title: "A", Genres: []string{"Action"}},
		{ID: 2, Title: "B", Genres: []string{"Comedy"}},
		{ID: 3, Title: "C", Genres: []string{"Action", "Drama"}},
	}

	for _, mode := range allModes {
		t.Run(string(mode), func(t *testing.T) {
			s := newTestSampler(t, mode)
			res, err := s.SampleWithMode(catalog, []string{"Action"}, 10, mode)
			require.NoError(t, err)

			assert.ElementsMatch(t, []int{1, 3}, ids(res.Movies))
			assert.Equal(t, 2, res.PoolSize)
			assert.False(t, res.Fallback)
		})
	}
}

func TestSample_EmptyPreferencesSmallSize(t *testing.T) {
	catalog := makeCatalog(5, func(int) string { return "Drama" })

	for _, mode := range allModes {
		s := newTestSampler(t, mode)
		got, err := s.Sample(catalog, nil, 2)
		require.NoError(t, err)
		require.Len(t, got, 2)
		assert.NotEqual(t, got[0].ID, got[1].ID)
	}
}

func TestSample_AllMatchingReturnsOnlyMatches(t *testing.T) {
	catalog := makeCatalog(80, func(i int) string {
		return []string{"Action", "Action|Comedy", "Sci-Fi|Action", "Adventure|action"}[i%4]
	})

	for _, mode := range allModes {
		s := newTestSampler(t, mode)
		for trial := 0; trial < 100; trial++ {
			got, err := s.Sample(catalog, []string{"Action"}, 10)
			require.NoError(t, err)
			for _, m := range got {
				assert.Contains(t, strings.ToLower(m.GenreString()), "action")
			}
		}
	}
}

func TestSample_NoMatchFallsBackToCatalog(t *testing.T) {
	catalog := makeCatalog(30, func(int) string { return "Comedy" })

	for _, mode := range allModes {
		t.Run(string(mode), func(t *testing.T) {
			s := newTestSampler(t, mode)
			res, err := s.SampleWithMode(catalog, []string{"Horror"}, 10, mode)
			require.NoError(t, err)

			assert.Len(t, res.Movies, 10)
			assert.True(t, res.Fallback)
			assert.Equal(t, 30, res.PoolSize)
		})
	}
}

func TestSample_FallbackSubsample(t *testing.T) {
	catalog := makeCatalog(30, func(int) string { return "Comedy" })

	cfg := DefaultConfig()
	cfg.Seed = 7
	cfg.FallbackSize = 10
	s, err := New(cfg)
	require.NoError(t, err)

	res, err := s.SampleWithMode(catalog, []string{"Horror"}, 10, ModeUniform)
	require.NoError(t, err)
	assert.True(t, res.Fallback)
	assert.Equal(t, 10, res.PoolSize)
	assert.Len(t, res.Movies, 10)
}

func TestSample_CaseInsensitiveSubstring(t *testing.T) {
	catalog := []models.Movie{
		movie(1, "Sci-Fi|Thriller"),
		movie(2, "Comedy"),
		movie(3, "Film-Noir"),
	}

	s := newTestSampler(t, ModeUniform)
	got, err := s.Sample(catalog, []string{"  sci ", "NOIR", ""}, 10)
	require.NoError(t, err)
	assert.ElementsMatch(t, []int{1, 3}, ids(got))
}

func TestSample_InvalidInput(t *testing.T) {
	s := newTestSampler(t, ModeUniform)

	_, err := s.Sample(nil, []string{"Action"}, 10)
	assert.True(t, errors.Is(err, models.ErrInvalidInput))

	_, err = s.Sample([]models.Movie{movie(1, "Action")}, nil, 0)
	assert.True(t, errors.Is(err, models.ErrInvalidInput))

	_, err = s.Sample([]models.Movie{movie(1, "Action")}, nil, -3)
	assert.True(t, errors.Is(err, models.ErrInvalidInput))

	_, err = s.SampleWithMode([]models.Movie{movie(1, "Action")}, nil, 1, Mode("genetic"))
	assert.True(t, errors.Is(err, models.ErrInvalidInput))
}

func TestSample_DeterministicWithSeed(t *testing.T) {
	catalog := makeCatalog(500, func(i int) string {
		return []string{"Action", "Comedy", "Drama|Romance", "Action|Thriller"}[i%4]
	})

	for _, mode := range allModes {
		a := newTestSampler(t, mode)
		b := newTestSampler(t, mode)
		for trial := 0; trial < 5; trial++ {
			ga, err := a.Sample(catalog, []string{"Action", "Drama"}, 10)
			require.NoError(t, err)
			gb, err := b.Sample(catalog, []string{"Action", "Drama"}, 10)
			require.NoError(t, err)
			assert.Equal(t, ids(ga), ids(gb))
		}
	}
}

func TestSample_DoesNotMutateCatalog(t *testing.T) {
	catalog := makeCatalog(100, func(int) string { return "Action|Drama" })
	snapshot := make([]models.Movie, len(catalog))
	copy(snapshot, catalog)

	s := newTestSampler(t, ModeRerank)
	for trial := 0; trial < 20; trial++ {
		got, err := s.Sample(catalog, []string{"Action"}, 10)
		require.NoError(t, err)
		for _, m := range got {
			assert.Equal(t, fmt.Sprintf("Movie %d", m.ID), m.Title, "noise must not leak titles")
		}
	}
	assert.Equal(t, snapshot, catalog)
}

func TestRerank_PoolBoundedAndPrefersHigherScores(t *testing.T) {
	// 20 movies match both preferences, 180 only one.
	catalog := makeCatalog(200, func(i int) string {
		if i < 20 {
			return "Action|Drama"
		}
		return "Action"
	})

	s := newTestSampler(t, ModeRerank)
	res, err := s.SampleWithMode(catalog, []string{"Action", "Drama"}, 10, ModeRerank)
	require.NoError(t, err)
	assert.LessOrEqual(t, res.PoolSize, 50)

	// The top-scoring rows always survive selection.
	counts := make(map[int]int)
	for trial := 0; trial < 300; trial++ {
		got, err := s.Sample(catalog, []string{"Action", "Drama"}, 10)
		require.NoError(t, err)
		for _, m := range got {
			counts[m.ID]++
		}
	}
	for id := 1; id <= 20; id++ {
		assert.Greater(t, counts[id], 0, "high scoring movie %d never sampled", id)
	}
}

func TestUniform_ChiSquare(t *testing.T) {
	const (
		n      = 20
		size   = 2
		trials = 20000
	)
	catalog := makeCatalog(n, func(int) string { return "Drama" })

	for _, mode := range allModes {
		t.Run(string(mode), func(t *testing.T) {
			s := newTestSampler(t, mode)
			obs := make([]float64, n)
			for trial := 0; trial < trials; trial++ {
				got, err := s.Sample(catalog, nil, size)
				require.NoError(t, err)
				for _, m := range got {
					obs[m.ID-1]++
				}
			}

			exp := make([]float64, n)
			for i := range exp {
				exp[i] = float64(trials*size) / n
			}

			chi := stat.ChiSquare(obs, exp)
			p := 1 - distuv.ChiSquared{K: n - 1}.CDF(chi)
			assert.Greater(t, p, 0.001, "chi-square %.2f rejects uniformity", chi)
		})
	}
}

func TestWeighted_ProportionalToScore(t *testing.T) {
	catalog := []models.Movie{
		movie(1, "Action"),
		movie(2, "Action|Adventure"),
	}

	s := newTestSampler(t, ModeWeighted)
	const trials = 10000
	hits := 0
	for trial := 0; trial < trials; trial++ {
		got, err := s.Sample(catalog, []string{"Action", "Adventure"}, 1)
		require.NoError(t, err)
		require.Len(t, got, 1)
		if got[0].ID == 2 {
			hits++
		}
	}

	// Score 2 vs 1 gives an expected share of 2/3.
	share := float64(hits) / trials
	assert.InDelta(t, 2.0/3.0, share, 0.03)
}

func TestParseMode(t *testing.T) {
	m, err := ParseMode(" Weighted ")
	require.NoError(t, err)
	assert.Equal(t, ModeWeighted, m)

	_, err = ParseMode("")
	assert.True(t, errors.Is(err, models.ErrInvalidInput))
}

func TestNew_RejectsNegativeLimits(t *testing.T) {
	cfg := DefaultConfig()
	cfg.PoolCap = -1
	_, err := New(cfg)
	assert.True(t, errors.Is(err, models.ErrInvalidInput))
}
