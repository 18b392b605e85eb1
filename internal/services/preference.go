package services

import (
	"sort"

	"github.com/temcen/moviepick/internal/catalog"
	"github.com/temcen/moviepick/pkg/models"
)

// DerivePreferences returns the user's topN genres by frequency among movies
// they rated at or above minRating. Ties keep the order in which the genres
// were first seen while walking the user's ratings. Users without qualifying
// ratings get an empty list.
func DerivePreferences(c *catalog.Catalog, userID int, minRating float64, topN int) []string {
	if topN <= 0 {
		return []string{}
	}

	type genreCount struct {
		genre string
		count int
		first int
	}

	counts := make(map[string]*genreCount)
	order := 0
	for _, r := range c.RatingsByUser(userID) {
		if r.Value < minRating {
			continue
		}
		m, ok := c.Movie(r.MovieID)
		if !ok {
			continue
		}
		for _, g := range m.Genres {
			if g == models.NoGenresListed {
				continue
			}
			gc, ok := counts[g]
			if !ok {
				gc = &genreCount{genre: g, first: order}
				counts[g] = gc
				order++
			}
			gc.count++
		}
	}

	ranked := make([]*genreCount, 0, len(counts))
	for _, gc := range counts {
		ranked = append(ranked, gc)
	}
	sort.Slice(ranked, func(i, j int) bool {
		if ranked[i].count != ranked[j].count {
			return ranked[i].count > ranked[j].count
		}
		return ranked[i].first < ranked[j].first
	})

	if len(ranked) > topN {
		ranked = ranked[:topN]
	}

	genres := make([]string, len(ranked))
	for i, gc := range ranked {
		genres[i] = gc.genre
	}
	return genres
}
