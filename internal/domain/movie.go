package domain

// Candidate is a single discovery result before enrichment.
type Candidate struct {
	ID          int64
	Title       string
	ReleaseDate string
	PosterPath  string
	GenreIDs    []int
	Popularity  float64
}

// Detail is the authoritative per-movie record. Revenue of 0 means the
// upstream did not report a figure; it is never negative.
type Detail struct {
	ID          int64
	Title       string
	ReleaseDate string
	PosterPath  string
	Genres      []string
	Overview    string
	Revenue     int64
	Runtime     int
	VoteAverage float64
	VoteCount   int64
}

// Genre maps an upstream genre identifier to its display name.
type Genre struct {
	ID   int    `json:"id"`
	Name string `json:"name"`
}

// WatchProvider is a streaming/rental/purchase outlet in one region.
type WatchProvider struct {
	ID       int64  `json:"id"`
	Name     string `json:"name"`
	LogoPath string `json:"logoPath,omitempty"`
	LogoURL  string `json:"logoUrl,omitempty"`
}

// RankedMovie is one entry of a monthly top list.
type RankedMovie struct {
	ID                 int64           `json:"id"`
	Title              string          `json:"title"`
	BoxOffice          int64           `json:"boxOffice"`
	BoxOfficeFormatted string          `json:"boxOfficeFormatted,omitempty"`
	Estimated          bool            `json:"estimated"`
	Rank               int             `json:"rank"`
	PosterURL          string          `json:"posterUrl,omitempty"`
	ReleaseDate        string          `json:"releaseDate"`
	Genres             []string        `json:"genres"`
	Overview           string          `json:"overview,omitempty"`
	Runtime            int             `json:"runtime,omitempty"`
	WatchProviders     []WatchProvider `json:"watchProviders"`
}
