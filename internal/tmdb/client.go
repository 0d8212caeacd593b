package tmdb

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/hashicorp/go-hclog"

	"github.com/Clark-Hu/boxoffice-monthly/internal/apperr"
	"github.com/Clark-Hu/boxoffice-monthly/internal/domain"
	"github.com/Clark-Hu/boxoffice-monthly/internal/logging"
)

// DefaultTimeout bounds every upstream call.
const DefaultTimeout = 10 * time.Second

// DiscoverPage is one page of discovery results.
type DiscoverPage struct {
	Page       int
	TotalPages int
	Candidates []domain.Candidate
}

// ProviderLookup is the outcome of a watch-provider fetch. Providers is
// always usable; Err only records why the list may be empty.
type ProviderLookup struct {
	Providers []domain.WatchProvider
	Err       error
}

// Client defines the contract for the upstream metadata API.
type Client interface {
	Discover(ctx context.Context, startDate, endDate string, page int) (*DiscoverPage, error)
	FetchDetail(ctx context.Context, id int64) (*domain.Detail, error)
	FetchWatchProviders(ctx context.Context, id int64) ProviderLookup
	FetchGenres(ctx context.Context) ([]domain.Genre, error)
	Ping(ctx context.Context) error
}

// HTTPClient implements Client over HTTP.
type HTTPClient struct {
	baseURL  *url.URL
	apiKey   string
	language string
	region   string
	timeout  time.Duration
	client   *http.Client
	logger   hclog.Logger
}

var _ Client = (*HTTPClient)(nil)

// Option configures an HTTPClient.
type Option func(*HTTPClient)

// WithHTTPClient overrides the default HTTP client.
func WithHTTPClient(client *http.Client) Option {
	return func(c *HTTPClient) {
		if client != nil {
			c.client = client
		}
	}
}

// WithLanguage sets the language parameter sent with every request.
func WithLanguage(language string) Option {
	return func(c *HTTPClient) {
		c.language = strings.TrimSpace(language)
	}
}

// WithWatchRegion selects the country whose watch providers are kept.
func WithWatchRegion(region string) Option {
	return func(c *HTTPClient) {
		if region = strings.ToUpper(strings.TrimSpace(region)); region != "" {
			c.region = region
		}
	}
}

// NewHTTPClient constructs a new HTTP-backed TMDB client. A non-positive
// timeout selects DefaultTimeout.
func NewHTTPClient(baseURL, apiKey string, timeout time.Duration, logger hclog.Logger, opts ...Option) (*HTTPClient, error) {
	apiKey = strings.TrimSpace(apiKey)
	if apiKey == "" {
		return nil, errors.New("tmdb api key required")
	}
	baseURL = strings.TrimSpace(baseURL)
	if baseURL == "" {
		return nil, errors.New("tmdb base url required")
	}
	parsed, err := url.Parse(strings.TrimRight(baseURL, "/"))
	if err != nil {
		return nil, fmt.Errorf("parse tmdb url: %w", err)
	}
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	c := &HTTPClient{
		baseURL: parsed,
		apiKey:  apiKey,
		region:  "US",
		timeout: timeout,
		client: &http.Client{
			Timeout: timeout,
			Transport: &http.Transport{
				Proxy: http.ProxyFromEnvironment,
				DialContext: (&net.Dialer{
					Timeout:   timeout,
					KeepAlive: 30 * time.Second,
				}).DialContext,
				TLSHandshakeTimeout:   timeout,
				ResponseHeaderTimeout: timeout,
				ExpectContinueTimeout: 1 * time.Second,
				MaxIdleConnsPerHost:   32,
			},
		},
		logger: logging.OrNull(logger).Named("tmdb"),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

// Discover fetches one page of movies released between startDate and
// endDate (inclusive, YYYY-MM-DD), sorted by popularity.
func (c *HTTPClient) Discover(ctx context.Context, startDate, endDate string, page int) (*DiscoverPage, error) {
	if page < 1 {
		return nil, apperr.Validation("page must be positive")
	}
	params := url.Values{}
	params.Set("primary_release_date.gte", startDate)
	params.Set("primary_release_date.lte", endDate)
	params.Set("sort_by", "popularity.desc")
	params.Set("include_adult", "false")
	params.Set("page", strconv.Itoa(page))

	var payload discoverResponse
	if err := c.getJSON(ctx, "/discover/movie", params, &payload); err != nil {
		return nil, err
	}
	return payload.toPage(), nil
}

// FetchDetail fetches the authoritative record for one movie.
func (c *HTTPClient) FetchDetail(ctx context.Context, id int64) (*domain.Detail, error) {
	if id <= 0 {
		return nil, apperr.Validation("movie id must be positive")
	}
	var payload detailResponse
	if err := c.getJSON(ctx, fmt.Sprintf("/movie/%d", id), nil, &payload); err != nil {
		return nil, err
	}
	return payload.toDetail(), nil
}

// FetchWatchProviders fetches the configured region's providers. Failures
// degrade to an empty list.
func (c *HTTPClient) FetchWatchProviders(ctx context.Context, id int64) ProviderLookup {
	var payload watchProvidersResponse
	if err := c.getJSON(ctx, fmt.Sprintf("/movie/%d/watch/providers", id), nil, &payload); err != nil {
		return ProviderLookup{Providers: []domain.WatchProvider{}, Err: err}
	}
	region, ok := payload.Results[c.region]
	if !ok {
		return ProviderLookup{Providers: []domain.WatchProvider{}}
	}
	return ProviderLookup{Providers: mergeProviders(region.Flatrate, region.Rent, region.Buy)}
}

// FetchGenres fetches the movie genre reference list.
func (c *HTTPClient) FetchGenres(ctx context.Context) ([]domain.Genre, error) {
	var payload genreListResponse
	if err := c.getJSON(ctx, "/genre/movie/list", nil, &payload); err != nil {
		return nil, err
	}
	return payload.Genres, nil
}

// Ping checks credentials and connectivity against the configuration
// resource.
func (c *HTTPClient) Ping(ctx context.Context) error {
	var payload json.RawMessage
	return c.getJSON(ctx, "/configuration", nil, &payload)
}

func (c *HTTPClient) getJSON(ctx context.Context, path string, params url.Values, dst interface{}) error {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	if params == nil {
		params = url.Values{}
	}
	params.Set("api_key", c.apiKey)
	if c.language != "" {
		params.Set("language", c.language)
	}
	endpoint := *c.baseURL
	endpoint.Path = c.baseURL.Path + path
	endpoint.RawQuery = params.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint.String(), nil)
	if err != nil {
		return apperr.Server(fmt.Errorf("build request: %w", err))
	}
	req.Header.Set("Accept", "application/json")

	start := time.Now()
	resp, err := c.client.Do(req)
	latency := time.Since(start)
	if err != nil {
		classified := classifyTransportError(err)
		c.logger.Debug("request failed", "path", path, "latency", latency, "error", err)
		return classified
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		c.logger.Warn("unexpected status", "path", path, "status", resp.StatusCode, "latency", latency)
		return apperr.FromStatus(resp.StatusCode)
	}

	if err := json.NewDecoder(resp.Body).Decode(dst); err != nil {
		if isTimeout(err) {
			return apperr.Timeout(err)
		}
		return apperr.Wrap(apperr.CodeExternalAPI, "Malformed response from external API", fmt.Errorf("decode %s: %w", path, err))
	}
	c.logger.Trace("request complete", "path", path, "latency", latency)
	return nil
}

func classifyTransportError(err error) error {
	if isTimeout(err) {
		return apperr.Timeout(err)
	}
	return apperr.Network(err)
}

func isTimeout(err error) bool {
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	var netErr net.Error
	return errors.As(err, &netErr) && netErr.Timeout()
}
