package catalog

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/sirupsen/logrus"

	"github.com/temcen/moviepick/pkg/models"
)

var (
	movieHeader  = []string{"movieId", "title", "genres"}
	ratingHeader = []string{"userId", "movieId", "rating", "timestamp"}
)

// LoadCSV reads the movie and rating files and builds a Catalog. Any missing
// file, unexpected header or malformed row fails the whole load.
func LoadCSV(moviesPath, ratingsPath string, logger *logrus.Logger) (*Catalog, error) {
	movies, err := readMoviesFile(moviesPath)
	if err != nil {
		return nil, err
	}

	ratings, err := readRatingsFile(ratingsPath)
	if err != nil {
		return nil, err
	}

	c, err := New(movies, ratings)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %v", models.ErrIOFailure, moviesPath, err)
	}

	logger.WithFields(logrus.Fields{
		"movies":       c.Len(),
		"ratings":      c.RatingCount(),
		"users":        c.UserCount(),
		"genres":       len(c.genres),
		"movies_path":  moviesPath,
		"ratings_path": ratingsPath,
	}).Info("Catalog loaded from CSV")

	return c, nil
}

func readMoviesFile(path string) ([]models.Movie, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("%w: open movies file: %v", models.ErrIOFailure, err)
	}
	defer f.Close()

	movies, err := ReadMovies(f)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return movies, nil
}

func readRatingsFile(path string) ([]models.Rating, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("%w: open ratings file: %v", models.ErrIOFailure, err)
	}
	defer f.Close()

	ratings, err := ReadRatings(f)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return ratings, nil
}

// ReadMovies parses movieId,title,genres rows. An input with a header and no
// rows is an error.
func ReadMovies(r io.Reader) ([]models.Movie, error) {
	reader := newReader(r, len(movieHeader))
	if err := readHeader(reader, movieHeader); err != nil {
		return nil, err
	}

	var movies []models.Movie
	for {
		record, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("%w: %v", models.ErrIOFailure, err)
		}
		line, _ := reader.FieldPos(0)

		id, err := strconv.Atoi(strings.TrimSpace(record[0]))
		if err != nil {
			return nil, fmt.Errorf("%w: line %d: invalid movieId %q", models.ErrIOFailure, line, record[0])
		}

		movies = append(movies, models.Movie{
			ID:     id,
			Title:  cleanTitle(record[1]),
			Genres: models.SplitGenres(record[2]),
		})
	}

	if len(movies) == 0 {
		return nil, fmt.Errorf("%w: no movie rows", models.ErrIOFailure)
	}
	return movies, nil
}

// ReadRatings parses userId,movieId,rating,timestamp rows. An empty rating
// log is allowed; preference derivation then finds nothing.
func ReadRatings(r io.Reader) ([]models.Rating, error) {
	reader := newReader(r, len(ratingHeader))
	if err := readHeader(reader, ratingHeader); err != nil {
		return nil, err
	}

	var ratings []models.Rating
	for {
		record, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("%w: %v", models.ErrIOFailure, err)
		}
		line, _ := reader.FieldPos(0)

		rating, err := parseRating(record)
		if err != nil {
			return nil, fmt.Errorf("%w: line %d: %v", models.ErrIOFailure, line, err)
		}
		ratings = append(ratings, rating)
	}

	return ratings, nil
}

func parseRating(record []string) (models.Rating, error) {
	userID, err := strconv.Atoi(strings.TrimSpace(record[0]))
	if err != nil {
		return models.Rating{}, fmt.Errorf("invalid userId %q", record[0])
	}
	movieID, err := strconv.Atoi(strings.TrimSpace(record[1]))
	if err != nil {
		return models.Rating{}, fmt.Errorf("invalid movieId %q", record[1])
	}
	value, err := strconv.ParseFloat(strings.TrimSpace(record[2]), 64)
	if err != nil {
		return models.Rating{}, fmt.Errorf("invalid rating %q", record[2])
	}
	ts, err := strconv.ParseInt(strings.TrimSpace(record[3]), 10, 64)
	if err != nil {
		return models.Rating{}, fmt.Errorf("invalid timestamp %q", record[3])
	}

	return models.Rating{UserID: userID, MovieID: movieID, Value: value, Timestamp: ts}, nil
}

func newReader(r io.Reader, fields int) *csv.Reader {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = fields
	reader.ReuseRecord = true
	return reader
}

func readHeader(reader *csv.Reader, want []string) error {
	header, err := reader.Read()
	if errors.Is(err, io.EOF) {
		return fmt.Errorf("%w: empty file", models.ErrIOFailure)
	}
	if err != nil {
		return fmt.Errorf("%w: read header: %v", models.ErrIOFailure, err)
	}

	for i, col := range want {
		got := strings.TrimPrefix(strings.TrimSpace(header[i]), "\ufeff")
		if !strings.EqualFold(got, col) {
			return fmt.Errorf("%w: unexpected header %v, want %v", models.ErrIOFailure, header, want)
		}
	}
	return nil
}
