package catalog

import (
	"fmt"
	"sort"

	"github.com/temcen/moviepick/pkg/models"
)

// Catalog is the immutable movie table and rating log shared by all requests.
// It is never mutated after New returns, so concurrent reads need no locking.
type Catalog struct {
	movies        []models.Movie
	byID          map[int]int
	ratingsByUser map[int][]models.Rating
	ratingCount   int
	genres        []string
}

// New builds a catalog from loaded rows. Ratings that reference unknown movies
// are kept; they simply never join to a movie.
func New(movies []models.Movie, ratings []models.Rating) (*Catalog, error) {
	if len(movies) == 0 {
		return nil, fmt.Errorf("%w: catalog has no movies", models.ErrInvalidInput)
	}

	c := &Catalog{
		movies:        make([]models.Movie, len(movies)),
		byID:          make(map[int]int, len(movies)),
		ratingsByUser: make(map[int][]models.Rating),
		ratingCount:   len(ratings),
	}

	genreSet := make(map[string]struct{})
	for i, m := range movies {
		if _, dup := c.byID[m.ID]; dup {
			return nil, fmt.Errorf("%w: duplicate movie id %d", models.ErrInvalidInput, m.ID)
		}
		c.byID[m.ID] = i

		genres := make([]string, len(m.Genres))
		copy(genres, m.Genres)
		c.movies[i] = models.Movie{ID: m.ID, Title: m.Title, Genres: genres}

		for _, g := range genres {
			if g != models.NoGenresListed {
				genreSet[g] = struct{}{}
			}
		}
	}

	for _, r := range ratings {
		c.ratingsByUser[r.UserID] = append(c.ratingsByUser[r.UserID], r)
	}

	c.genres = make([]string, 0, len(genreSet))
	for g := range genreSet {
		c.genres = append(c.genres, g)
	}
	sort.Strings(c.genres)

	return c, nil
}

// Movies returns the catalog rows in load order. Callers must not modify
// the returned slice.
func (c *Catalog) Movies() []models.Movie {
	return c.movies
}

func (c *Catalog) Movie(id int) (models.Movie, bool) {
	i, ok := c.byID[id]
	if !ok {
		return models.Movie{}, false
	}
	return c.movies[i], true
}

func (c *Catalog) Len() int {
	return len(c.movies)
}

// Genres returns the distinct genres of the catalog, sorted.
func (c *Catalog) Genres() []string {
	out := make([]string, len(c.genres))
	copy(out, c.genres)
	return out
}

// RatingsByUser returns the user's ratings in load order.
func (c *Catalog) RatingsByUser(userID int) []models.Rating {
	return c.ratingsByUser[userID]
}

func (c *Catalog) RatingCount() int {
	return c.ratingCount
}

func (c *Catalog) UserCount() int {
	return len(c.ratingsByUser)
}
