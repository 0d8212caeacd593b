package tmdb

import (
	"strings"

	"github.com/Clark-Hu/boxoffice-monthly/internal/domain"
)

// Image host layout and the sizes used for each asset kind.
const (
	DefaultImageBaseURL = "https://image.tmdb.org/t/p/"
	PosterSize          = "w500"
	LogoSize            = "w92"
)

// ImageURL substitutes size and path into the image host pattern. An empty
// path yields "".
func ImageURL(baseURL, size, path string) string {
	path = strings.TrimSpace(path)
	if path == "" {
		return ""
	}
	if baseURL == "" {
		baseURL = DefaultImageBaseURL
	}
	return strings.TrimRight(baseURL, "/") + "/" + size + "/" + strings.TrimLeft(path, "/")
}

type discoverResponse struct {
	Page         int              `json:"page"`
	Results      []discoverResult `json:"results"`
	TotalPages   int              `json:"total_pages"`
	TotalResults int              `json:"total_results"`
}

type discoverResult struct {
	ID          int64   `json:"id"`
	Title       string  `json:"title"`
	ReleaseDate string  `json:"release_date"`
	PosterPath  *string `json:"poster_path"`
	GenreIDs    []int   `json:"genre_ids"`
	Popularity  float64 `json:"popularity"`
}

func (r discoverResponse) toPage() *DiscoverPage {
	page := &DiscoverPage{
		Page:       r.Page,
		TotalPages: r.TotalPages,
		Candidates: make([]domain.Candidate, 0, len(r.Results)),
	}
	for _, res := range r.Results {
		page.Candidates = append(page.Candidates, domain.Candidate{
			ID:          res.ID,
			Title:       res.Title,
			ReleaseDate: res.ReleaseDate,
			PosterPath:  derefString(res.PosterPath),
			GenreIDs:    res.GenreIDs,
			Popularity:  res.Popularity,
		})
	}
	return page
}

type detailResponse struct {
	ID          int64          `json:"id"`
	Title       string         `json:"title"`
	ReleaseDate string         `json:"release_date"`
	PosterPath  *string        `json:"poster_path"`
	Genres      []domain.Genre `json:"genres"`
	Overview    string         `json:"overview"`
	Revenue     *int64         `json:"revenue"`
	Runtime     *int           `json:"runtime"`
	VoteAverage float64        `json:"vote_average"`
	VoteCount   int64          `json:"vote_count"`
}

func (r detailResponse) toDetail() *domain.Detail {
	detail := &domain.Detail{
		ID:          r.ID,
		Title:       r.Title,
		ReleaseDate: r.ReleaseDate,
		PosterPath:  derefString(r.PosterPath),
		Genres:      make([]string, 0, len(r.Genres)),
		Overview:    r.Overview,
		VoteAverage: r.VoteAverage,
		VoteCount:   r.VoteCount,
	}
	if r.Revenue != nil && *r.Revenue > 0 {
		detail.Revenue = *r.Revenue
	}
	if r.Runtime != nil && *r.Runtime > 0 {
		detail.Runtime = *r.Runtime
	}
	for _, g := range r.Genres {
		if g.Name != "" {
			detail.Genres = append(detail.Genres, g.Name)
		}
	}
	return detail
}

type watchProvidersResponse struct {
	ID      int64                   `json:"id"`
	Results map[string]regionOffers `json:"results"`
}

type regionOffers struct {
	Link     string          `json:"link"`
	Flatrate []providerEntry `json:"flatrate"`
	Rent     []providerEntry `json:"rent"`
	Buy      []providerEntry `json:"buy"`
}

type providerEntry struct {
	ProviderID      int64   `json:"provider_id"`
	ProviderName    string  `json:"provider_name"`
	LogoPath        *string `json:"logo_path"`
	DisplayPriority int     `json:"display_priority"`
}

// mergeProviders flattens offer lists in priority order, keeping the first
// entry seen for each provider id.
func mergeProviders(lists ...[]providerEntry) []domain.WatchProvider {
	seen := make(map[int64]struct{})
	merged := make([]domain.WatchProvider, 0)
	for _, list := range lists {
		for _, entry := range list {
			if _, dup := seen[entry.ProviderID]; dup {
				continue
			}
			seen[entry.ProviderID] = struct{}{}
			merged = append(merged, domain.WatchProvider{
				ID:       entry.ProviderID,
				Name:     entry.ProviderName,
				LogoPath: derefString(entry.LogoPath),
			})
		}
	}
	return merged
}

type genreListResponse struct {
	Genres []domain.Genre `json:"genres"`
}

func derefString(ptr *string) string {
	if ptr == nil {
		return ""
	}
	return *ptr
}
