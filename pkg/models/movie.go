package models

import "strings"

// GenreSeparator joins genres in the MovieLens source form.
const GenreSeparator = "|"

// NoGenresListed is the MovieLens marker for movies without genres.
const NoGenresListed = "(no genres listed)"

type Movie struct {
	ID     int      `json:"movie_id" db:"movie_id"`
	Title  string   `json:"title" db:"title"`
	Genres []string `json:"genres" db:"genres"`
}

// GenreString returns the genres in pipe-delimited source form.
func (m Movie) GenreString() string {
	return strings.Join(m.Genres, GenreSeparator)
}

type Rating struct {
	UserID    int     `json:"user_id" db:"user_id"`
	MovieID   int     `json:"movie_id" db:"movie_id"`
	Value     float64 `json:"rating" db:"rating"`
	Timestamp int64   `json:"timestamp" db:"timestamp"`
}

// SplitGenres parses a pipe-delimited genre string, dropping empty entries.
func SplitGenres(s string) []string {
	if strings.TrimSpace(s) == "" {
		return []string{}
	}

	parts := strings.Split(s, GenreSeparator)
	genres := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			genres = append(genres, p)
		}
	}
	return genres
}
