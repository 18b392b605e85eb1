package catalog

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/sirupsen/logrus"

	"github.com/temcen/moviepick/pkg/models"
)

// DatabaseQuerier interface for database operations
type DatabaseQuerier interface {
	Query(ctx context.Context, sql string, args ...interface{}) (pgx.Rows, error)
}

const (
	moviesQuery  = `SELECT movie_id, title, genres FROM movies ORDER BY movie_id`
	ratingsQuery = `SELECT user_id, movie_id, rating, rated_at FROM ratings ORDER BY user_id, rated_at`
)

// LoadFromDatabase reads the movies and ratings tables and builds a Catalog.
// The genres column holds the pipe-delimited source form.
func LoadFromDatabase(ctx context.Context, db DatabaseQuerier, logger *logrus.Logger) (*Catalog, error) {
	movies, err := queryMovies(ctx, db)
	if err != nil {
		return nil, err
	}

	ratings, err := queryRatings(ctx, db)
	if err != nil {
		return nil, err
	}

	c, err := New(movies, ratings)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", models.ErrIOFailure, err)
	}

	logger.WithFields(logrus.Fields{
		"movies":  c.Len(),
		"ratings": c.RatingCount(),
		"users":   c.UserCount(),
	}).Info("Catalog loaded from PostgreSQL")

	return c, nil
}

func queryMovies(ctx context.Context, db DatabaseQuerier) ([]models.Movie, error) {
	rows, err := db.Query(ctx, moviesQuery)
	if err != nil {
		return nil, fmt.Errorf("%w: query movies: %v", models.ErrIOFailure, err)
	}
	defer rows.Close()

	var movies []models.Movie
	for rows.Next() {
		var (
			id     int
			title  string
			genres string
		)
		if err := rows.Scan(&id, &title, &genres); err != nil {
			return nil, fmt.Errorf("%w: scan movie: %v", models.ErrIOFailure, err)
		}
		movies = append(movies, models.Movie{
			ID:     id,
			Title:  cleanTitle(title),
			Genres: models.SplitGenres(genres),
		})
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: iterate movies: %v", models.ErrIOFailure, err)
	}

	if len(movies) == 0 {
		return nil, fmt.Errorf("%w: movies table is empty", models.ErrIOFailure)
	}
	return movies, nil
}

func queryRatings(ctx context.Context, db DatabaseQuerier) ([]models.Rating, error) {
	rows, err := db.Query(ctx, ratingsQuery)
	if err != nil {
		return nil, fmt.Errorf("%w: query ratings: %v", models.ErrIOFailure, err)
	}
	defer rows.Close()

	var ratings []models.Rating
	for rows.Next() {
		var r models.Rating
		if err := rows.Scan(&r.UserID, &r.MovieID, &r.Value, &r.Timestamp); err != nil {
			return nil, fmt.Errorf("%w: scan rating: %v", models.ErrIOFailure, err)
		}
		ratings = append(ratings, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: iterate ratings: %v", models.ErrIOFailure, err)
	}

	return ratings, nil
}
