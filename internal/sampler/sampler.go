// Package sampler draws bounded, preference-biased samples from a movie
// catalog. It holds no catalog state of its own: every call receives the
// read-only movie slice and works on a private copy of the candidates.
package sampler

import (
	"fmt"
	"math"
	"math/rand/v2"
	"sort"
	"strings"
	"sync"
	"time"

	"golang.org/x/text/cases"
	"gonum.org/v1/gonum/floats"

	"github.com/temcen/moviepick/pkg/models"
)

// Mode selects how the candidate pool is turned into a result.
type Mode string

const (
	// ModeUniform filters on preferences and draws a uniform sample.
	ModeUniform Mode = "uniform"
	// ModeRerank runs iterative re-ranking with injected noise before the
	// uniform draw.
	ModeRerank Mode = "rerank"
	// ModeWeighted draws without replacement with probability proportional
	// to the genre match score.
	ModeWeighted Mode = "weighted"
)

// ParseMode validates a mode name.
func ParseMode(s string) (Mode, error) {
	switch m := Mode(strings.ToLower(strings.TrimSpace(s))); m {
	case ModeUniform, ModeRerank, ModeWeighted:
		return m, nil
	default:
		return "", fmt.Errorf("%w: unknown sampling mode %q", models.ErrInvalidInput, s)
	}
}

type Config struct {
	Mode Mode
	// Rounds of select + noise in ModeRerank.
	Rounds int
	// PoolCap bounds the pool kept by each selection round; 0 disables it.
	PoolCap int
	// NoiseSize is how many retained candidates get title-shuffled copies
	// appended per round.
	NoiseSize int
	// FallbackSize, when positive, replaces the full-catalog fallback of an
	// unmatched preference list with a uniform subsample of this size.
	FallbackSize int
	// Seed for the random source; 0 seeds from the clock.
	Seed int64
}

func DefaultConfig() Config {
	return Config{
		Mode:      ModeRerank,
		Rounds:    3,
		PoolCap:   50,
		NoiseSize: 10,
	}
}

// Result is a sample plus the facts about how it was drawn.
type Result struct {
	Movies   []models.Movie
	Mode     Mode
	PoolSize int
	// Fallback is set when preferences were given but matched nothing.
	Fallback bool
}

// Sampler is safe for concurrent use; the random source is guarded by mu.
type Sampler struct {
	config Config

	rng *rand.Rand
	mu  sync.Mutex
}

func New(cfg Config) (*Sampler, error) {
	if _, err := ParseMode(string(cfg.Mode)); err != nil {
		return nil, err
	}
	if cfg.Rounds < 0 || cfg.PoolCap < 0 || cfg.NoiseSize < 0 || cfg.FallbackSize < 0 {
		return nil, fmt.Errorf("%w: sampler limits must not be negative", models.ErrInvalidInput)
	}

	seed := uint64(cfg.Seed)
	if seed == 0 {
		seed = uint64(time.Now().UnixNano())
	}

	return &Sampler{
		config: cfg,
		rng:    rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15)),
	}, nil
}

func (s *Sampler) Config() Config {
	return s.config
}

// Sample returns up to size movies from catalog biased toward preferences,
// using the configured mode.
func (s *Sampler) Sample(catalog []models.Movie, preferences []string, size int) ([]models.Movie, error) {
	res, err := s.SampleWithMode(catalog, preferences, size, s.config.Mode)
	if err != nil {
		return nil, err
	}
	return res.Movies, nil
}

// SampleWithMode is Sample with an explicit mode.
func (s *Sampler) SampleWithMode(catalog []models.Movie, preferences []string, size int, mode Mode) (*Result, error) {
	if len(catalog) == 0 {
		return nil, fmt.Errorf("%w: catalog is empty", models.ErrInvalidInput)
	}
	if size <= 0 {
		return nil, fmt.Errorf("%w: sample size must be positive, got %d", models.ErrInvalidInput, size)
	}
	if _, err := ParseMode(string(mode)); err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	m := newMatcher(preferences)
	pool, fallback := s.candidatePool(catalog, m)

	var picked []candidate
	switch mode {
	case ModeRerank:
		// Without matched preferences every score is zero and ranking would
		// only keep the first PoolCap rows of the catalog.
		if !m.empty() && !fallback {
			pool = s.rerank(pool)
		}
		pool = dedupe(pool)
		picked = s.uniform(pool, size)
	case ModeWeighted:
		pool = dedupe(pool)
		picked = s.weighted(pool, size, m.empty() || fallback)
	default:
		pool = dedupe(pool)
		picked = s.uniform(pool, size)
	}

	movies := make([]models.Movie, len(picked))
	for i, c := range picked {
		// Resolve against the catalog so working-copy noise never escapes.
		movies[i] = catalog[c.index]
	}

	return &Result{
		Movies:   movies,
		Mode:     mode,
		PoolSize: len(pool),
		Fallback: fallback,
	}, nil
}

// candidate is the sampler's private working copy of a catalog row.
type candidate struct {
	index  int
	id     int
	title  string
	folded string
	score  int
}

func (s *Sampler) candidatePool(catalog []models.Movie, m *matcher) ([]candidate, bool) {
	all := make([]candidate, 0, len(catalog))
	matched := make([]candidate, 0)

	for i, movie := range catalog {
		c := candidate{
			index:  i,
			id:     movie.ID,
			title:  movie.Title,
			folded: m.fold(movie.GenreString()),
		}
		c.score = m.score(c.folded)
		all = append(all, c)
		if c.score > 0 {
			matched = append(matched, c)
		}
	}

	if m.empty() {
		return all, false
	}
	if len(matched) > 0 {
		return matched, false
	}

	if s.config.FallbackSize > 0 && s.config.FallbackSize < len(all) {
		return s.uniform(all, s.config.FallbackSize), true
	}
	return all, true
}

// rerank is iterative re-ranking with injected noise: each round keeps the
// best PoolCap candidates by score (stable on ties), then appends copies of a
// random subsample with their titles shuffled among themselves. Copies carry
// the original id and score, so they only compete for pool slots.
func (s *Sampler) rerank(pool []candidate) []candidate {
	for round := 0; round < s.config.Rounds; round++ {
		sort.SliceStable(pool, func(i, j int) bool {
			return pool[i].score > pool[j].score
		})
		if s.config.PoolCap > 0 && len(pool) > s.config.PoolCap {
			pool = pool[:s.config.PoolCap]
		}

		if s.config.NoiseSize == 0 {
			continue
		}
		noise := s.uniform(pool, s.config.NoiseSize)
		s.rng.Shuffle(len(noise), func(i, j int) {
			noise[i].title, noise[j].title = noise[j].title, noise[i].title
		})

		next := make([]candidate, 0, len(pool)+len(noise))
		next = append(next, pool...)
		pool = append(next, noise...)
	}
	return pool
}

// uniform draws min(k, len(pool)) distinct positions of pool uniformly. The
// returned slice is a copy.
func (s *Sampler) uniform(pool []candidate, k int) []candidate {
	if k > len(pool) {
		k = len(pool)
	}
	perm := s.rng.Perm(len(pool))

	out := make([]candidate, k)
	for i := 0; i < k; i++ {
		out[i] = pool[perm[i]]
	}
	return out
}

// weighted draws without replacement with probability proportional to score,
// using exponential keys: the k smallest of -ln(u)/w form the sample.
func (s *Sampler) weighted(pool []candidate, k int, flat bool) []candidate {
	if k > len(pool) {
		k = len(pool)
	}

	keys := make([]float64, len(pool))
	for i, c := range pool {
		w := float64(c.score)
		if flat {
			w = 1
		}
		if w <= 0 {
			keys[i] = math.Inf(1)
			continue
		}
		u := 1 - s.rng.Float64() // (0, 1]
		keys[i] = -math.Log(u) / w
	}

	inds := make([]int, len(keys))
	floats.Argsort(keys, inds)

	out := make([]candidate, 0, k)
	for _, idx := range inds[:k] {
		out = append(out, pool[idx])
	}
	return out
}

// dedupe drops repeated ids keeping the first occurrence.
func dedupe(pool []candidate) []candidate {
	seen := make(map[int]struct{}, len(pool))
	out := make([]candidate, 0, len(pool))
	for _, c := range pool {
		if _, ok := seen[c.id]; ok {
			continue
		}
		seen[c.id] = struct{}{}
		out = append(out, c)
	}
	return out
}

// matcher does case-insensitive substring matching of preference tokens
// against pipe-joined genre strings.
type matcher struct {
	caser  cases.Caser
	tokens []string
}

func newMatcher(preferences []string) *matcher {
	m := &matcher{caser: cases.Fold()}

	seen := make(map[string]struct{}, len(preferences))
	for _, p := range preferences {
		tok := m.fold(strings.TrimSpace(p))
		if tok == "" {
			continue
		}
		if _, ok := seen[tok]; ok {
			continue
		}
		seen[tok] = struct{}{}
		m.tokens = append(m.tokens, tok)
	}
	return m
}

func (m *matcher) fold(s string) string {
	return m.caser.String(s)
}

func (m *matcher) empty() bool {
	return len(m.tokens) == 0
}

// score counts occurrences of every token in the folded genre string.
func (m *matcher) score(folded string) int {
	n := 0
	for _, tok := range m.tokens {
		n += strings.Count(folded, tok)
	}
	return n
}
