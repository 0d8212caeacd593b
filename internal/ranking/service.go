// Package ranking builds monthly box-office top lists from upstream discovery
// and per-movie detail data.
package ranking

import (
	"context"
	"math"
	"sort"
	"time"

	"github.com/hashicorp/go-hclog"
	"golang.org/x/sync/errgroup"

	"github.com/Clark-Hu/boxoffice-monthly/internal/apperr"
	"github.com/Clark-Hu/boxoffice-monthly/internal/domain"
	"github.com/Clark-Hu/boxoffice-monthly/internal/logging"
	"github.com/Clark-Hu/boxoffice-monthly/internal/tmdb"
)

const (
	// TopN is the maximum length of a ranking.
	TopN = 10
	// MaxPages bounds sequential discovery fetches per request.
	MaxPages = 3
	// FallbackScale converts a popularity score into a box-office proxy.
	FallbackScale = 100000
)

// Upstream is the subset of the metadata client the ranking needs.
type Upstream interface {
	Discover(ctx context.Context, startDate, endDate string, page int) (*tmdb.DiscoverPage, error)
	FetchDetail(ctx context.Context, id int64) (*domain.Detail, error)
	FetchWatchProviders(ctx context.Context, id int64) tmdb.ProviderLookup
}

// GenreResolver resolves genre ids to names.
type GenreResolver interface {
	EnsureLoaded(ctx context.Context)
	Resolve(id int) (string, bool)
}

// Options tunes a Service. Zero values select defaults.
type Options struct {
	ImageBaseURL string
	Now          func() time.Time
}

// Service produces ranked monthly lists.
type Service struct {
	upstream  Upstream
	genres    GenreResolver
	validator Validator
	imageBase string
	logger    hclog.Logger
}

// NewService wires a Service. genres may be nil, in which case only detail
// genre names are used.
func NewService(upstream Upstream, genres GenreResolver, logger hclog.Logger, opts Options) *Service {
	imageBase := opts.ImageBaseURL
	if imageBase == "" {
		imageBase = tmdb.DefaultImageBaseURL
	}
	return &Service{
		upstream:  upstream,
		genres:    genres,
		validator: NewValidator(opts.Now),
		imageBase: imageBase,
		logger:    logging.OrNull(logger).Named("ranking"),
	}
}

// Fallback is the deterministic box-office proxy for a movie without
// reported revenue: floor(popularity * FallbackScale), never negative.
func Fallback(popularity float64) int64 {
	if math.IsNaN(popularity) || popularity <= 0 {
		return 0
	}
	v := math.Floor(popularity * FallbackScale)
	if v >= math.MaxInt64 {
		return math.MaxInt64
	}
	return int64(v)
}

// Top returns up to TopN movies released in the given month, ordered by box
// office descending with dense 1-based ranks.
//
// Known revenue usually outranks the popularity fallback because both share
// one numeric sort key; a very popular movie with no reported revenue can
// still pass a movie with small reported revenue.
func (s *Service) Top(ctx context.Context, year, month int) ([]domain.RankedMovie, error) {
	if err := s.validator.Validate(year, month); err != nil {
		return nil, err
	}
	start, end := MonthRange(year, month)

	if s.genres != nil {
		s.genres.EnsureLoaded(ctx)
	}

	candidates, err := s.discover(ctx, start, end)
	if err != nil {
		return nil, err
	}

	results := make([]enrichment, len(candidates))
	var g errgroup.Group
	for i, c := range candidates {
		i, c := i, c
		g.Go(func() error {
			results[i] = s.enrich(ctx, c)
			return nil
		})
	}
	_ = g.Wait()

	type scored struct {
		enrichment
		boxOffice int64
		estimated bool
	}
	ranked := make([]scored, 0, len(results))
	for _, r := range results {
		entry := scored{enrichment: r}
		if r.detail != nil && r.detail.Revenue > 0 {
			entry.boxOffice = r.detail.Revenue
		} else {
			entry.boxOffice = Fallback(r.candidate.Popularity)
			entry.estimated = true
		}
		ranked = append(ranked, entry)
	}

	sort.SliceStable(ranked, func(i, j int) bool {
		return ranked[i].boxOffice > ranked[j].boxOffice
	})
	if len(ranked) > TopN {
		ranked = ranked[:TopN]
	}

	movies := make([]domain.RankedMovie, 0, len(ranked))
	for i, r := range ranked {
		movie := s.toRankedMovie(r.enrichment)
		movie.BoxOffice = r.boxOffice
		movie.Estimated = r.estimated
		movie.Rank = i + 1
		movies = append(movies, movie)
	}

	s.logger.Debug("ranking built", "year", year, "month", month,
		"candidates", len(candidates), "returned", len(movies))
	return movies, nil
}

// discover pages through discovery results. A first-page failure is
// returned; later failures end paging with what was gathered.
func (s *Service) discover(ctx context.Context, start, end string) ([]domain.Candidate, error) {
	var candidates []domain.Candidate
	seen := make(map[int64]struct{})

	for page := 1; page <= MaxPages && len(candidates) < TopN; page++ {
		result, err := s.upstream.Discover(ctx, start, end, page)
		if err != nil {
			if page == 1 {
				return nil, apperr.From(err)
			}
			s.logger.Warn("discovery page failed, using partial results", "page", page, "error", err)
			break
		}
		if result == nil || len(result.Candidates) == 0 {
			break
		}
		for _, c := range result.Candidates {
			if _, dup := seen[c.ID]; dup {
				continue
			}
			seen[c.ID] = struct{}{}
			candidates = append(candidates, c)
		}
		if result.TotalPages > 0 && page >= result.TotalPages {
			break
		}
	}
	return candidates, nil
}

func (s *Service) toRankedMovie(r enrichment) domain.RankedMovie {
	c := r.candidate
	movie := domain.RankedMovie{
		ID:             c.ID,
		Title:          c.Title,
		ReleaseDate:    c.ReleaseDate,
		Genres:         s.resolveGenres(c.GenreIDs),
		WatchProviders: make([]domain.WatchProvider, 0, len(r.providers)),
	}
	posterPath := c.PosterPath

	if d := r.detail; d != nil {
		if d.Title != "" {
			movie.Title = d.Title
		}
		if d.ReleaseDate != "" {
			movie.ReleaseDate = d.ReleaseDate
		}
		if d.PosterPath != "" {
			posterPath = d.PosterPath
		}
		movie.Overview = d.Overview
		movie.Runtime = d.Runtime
		if len(movie.Genres) == 0 && len(d.Genres) > 0 {
			movie.Genres = append(movie.Genres, d.Genres...)
		}
	}
	movie.PosterURL = tmdb.ImageURL(s.imageBase, tmdb.PosterSize, posterPath)

	for _, p := range r.providers {
		p.LogoURL = tmdb.ImageURL(s.imageBase, tmdb.LogoSize, p.LogoPath)
		movie.WatchProviders = append(movie.WatchProviders, p)
	}
	return movie
}

// resolveGenres maps ids through the cache, silently dropping unknown ids.
func (s *Service) resolveGenres(ids []int) []string {
	names := make([]string, 0, len(ids))
	if s.genres == nil {
		return names
	}
	for _, id := range ids {
		if name, ok := s.genres.Resolve(id); ok {
			names = append(names, name)
		}
	}
	return names
}
