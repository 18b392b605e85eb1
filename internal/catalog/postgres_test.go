package catalog

import (
	"context"
	"errors"
	"testing"

	"github.com/pashagolub/pgxmock/v3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/temcen/moviepick/pkg/models"
)

func TestLoadFromDatabase(t *testing.T) {
	mockDB, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mockDB.Close()

	mockDB.ExpectQuery("SELECT movie_id, title, genres FROM movies").
		WillReturnRows(pgxmock.NewRows([]string{"movie_id", "title", "genres"}).
			AddRow(1, "Toy Story (1995)", "Adventure|Animation").
			AddRow(2, "Heat (1995)", "Action|Crime|Thriller"))

	mockDB.ExpectQuery("SELECT user_id, movie_id, rating, rated_at FROM ratings").
		WillReturnRows(pgxmock.NewRows([]string{"user_id", "movie_id", "rating", "rated_at"}).
			AddRow(5, 2, 4.5, int64(964982703)))

	c, err := LoadFromDatabase(context.Background(), mockDB, testLogger())
	require.NoError(t, err)

	assert.Equal(t, 2, c.Len())
	assert.Equal(t, 1, c.RatingCount())

	m, ok := c.Movie(2)
	require.True(t, ok)
	assert.Equal(t, []string{"Action", "Crime", "Thriller"}, m.Genres)
	assert.Equal(t, 4.5, c.RatingsByUser(5)[0].Value)

	require.NoError(t, mockDB.ExpectationsWereMet())
}

func TestLoadFromDatabase_EmptyMovies(t *testing.T) {
	mockDB, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mockDB.Close()

	mockDB.ExpectQuery("SELECT movie_id, title, genres FROM movies").
		WillReturnRows(pgxmock.NewRows([]string{"movie_id", "title", "genres"}))

	_, err = LoadFromDatabase(context.Background(), mockDB, testLogger())
	require.Error(t, err)
	assert.True(t, errors.Is(err, models.ErrIOFailure))
	assert.Contains(t, err.Error(), "movies table is empty")
}

func TestLoadFromDatabase_QueryError(t *testing.T) {
	mockDB, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mockDB.Close()

	mockDB.ExpectQuery("SELECT movie_id, title, genres FROM movies").
		WillReturnError(errors.New("connection refused"))

	_, err = LoadFromDatabase(context.Background(), mockDB, testLogger())
	require.Error(t, err)
	assert.True(t, errors.Is(err, models.ErrIOFailure))
	assert.Contains(t, err.Error(), "connection refused")
}
