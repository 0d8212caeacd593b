package tmdb

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/hashicorp/go-hclog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Clark-Hu/boxoffice-monthly/internal/apperr"
)

func newTestClient(t *testing.T, handler http.HandlerFunc, opts ...Option) *HTTPClient {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	client, err := NewHTTPClient(server.URL+"/3", "key", time.Second, hclog.NewNullLogger(), opts...)
	require.NoError(t, err)
	return client
}

func TestNewHTTPClientRequiresKeyAndURL(t *testing.T) {
	_, err := NewHTTPClient("https://example.com", " ", time.Second, nil)
	assert.Error(t, err)

	_, err = NewHTTPClient("", "key", time.Second, nil)
	assert.Error(t, err)

	client, err := NewHTTPClient("https://example.com/3/", "key", 0, nil)
	require.NoError(t, err)
	assert.Equal(t, DefaultTimeout, client.timeout)
}

func TestDiscoverBuildsQuery(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/3/discover/movie", r.URL.Path)
		q := r.URL.Query()
		assert.Equal(t, "key", q.Get("api_key"))
		assert.Equal(t, "2024-02-01", q.Get("primary_release_date.gte"))
		assert.Equal(t, "2024-02-29", q.Get("primary_release_date.lte"))
		assert.Equal(t, "popularity.desc", q.Get("sort_by"))
		assert.Equal(t, "2", q.Get("page"))
		assert.Equal(t, "ja-JP", q.Get("language"))

		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"page":2,"total_pages":5,"results":[
			{"id":7,"title":"Dune: Part Two","release_date":"2024-02-27","poster_path":"/d2.jpg","genre_ids":[878,12],"popularity":812.5},
			{"id":8,"title":"No Poster","release_date":"2024-02-02","poster_path":null,"genre_ids":[],"popularity":1.25}
		]}`))
	}, WithLanguage("ja-JP"))

	page, err := client.Discover(context.Background(), "2024-02-01", "2024-02-29", 2)
	require.NoError(t, err)
	assert.Equal(t, 5, page.TotalPages)
	require.Len(t, page.Candidates, 2)
	assert.Equal(t, int64(7), page.Candidates[0].ID)
	assert.Equal(t, "/d2.jpg", page.Candidates[0].PosterPath)
	assert.Equal(t, []int{878, 12}, page.Candidates[0].GenreIDs)
	assert.Equal(t, 812.5, page.Candidates[0].Popularity)
	assert.Empty(t, page.Candidates[1].PosterPath)
}

func TestDiscoverRejectsBadPage(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		t.Fatal("no request expected")
	})
	_, err := client.Discover(context.Background(), "2024-01-01", "2024-01-31", 0)
	assert.True(t, errors.Is(err, apperr.New(apperr.CodeValidation, "")))
}

func TestStatusMapping(t *testing.T) {
	tests := []struct {
		status int
		code   apperr.Code
	}{
		{http.StatusUnauthorized, apperr.CodeExternalAPI},
		{http.StatusNotFound, apperr.CodeNotFound},
		{http.StatusTooManyRequests, apperr.CodeRateLimit},
		{http.StatusInternalServerError, apperr.CodeExternalAPI},
		{http.StatusBadGateway, apperr.CodeExternalAPI},
		{http.StatusServiceUnavailable, apperr.CodeExternalAPI},
		{http.StatusTeapot, apperr.CodeNetwork},
	}
	for _, tt := range tests {
		t.Run(http.StatusText(tt.status), func(t *testing.T) {
			client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.status)
				_, _ = w.Write([]byte(`{"status_code":7}`))
			})

			_, err := client.Discover(context.Background(), "2023-01-01", "2023-01-31", 1)
			require.Error(t, err)
			var typed *apperr.Error
			require.True(t, errors.As(err, &typed))
			assert.Equal(t, tt.code, typed.Code)
			assert.Equal(t, tt.status, typed.UpstreamStatus)

			_, err = client.FetchDetail(context.Background(), 1)
			require.True(t, errors.As(err, &typed))
			assert.Equal(t, tt.code, typed.Code)
		})
	}
}

func TestTimeoutIsDistinct(t *testing.T) {
	release := make(chan struct{})
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-release:
		case <-r.Context().Done():
		}
	}))
	t.Cleanup(server.Close)
	t.Cleanup(func() { close(release) })

	client, err := NewHTTPClient(server.URL, "key", 50*time.Millisecond, nil)
	require.NoError(t, err)

	_, err = client.FetchDetail(context.Background(), 42)
	var typed *apperr.Error
	require.True(t, errors.As(err, &typed), "got %v", err)
	assert.Equal(t, apperr.CodeTimeout, typed.Code)
}

func TestNetworkFailure(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	url := server.URL
	server.Close()

	client, err := NewHTTPClient(url, "key", time.Second, nil)
	require.NoError(t, err)

	_, err = client.FetchGenres(context.Background())
	var typed *apperr.Error
	require.True(t, errors.As(err, &typed))
	assert.Equal(t, apperr.CodeNetwork, typed.Code)
}

func TestMalformedBody(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"id":`))
	})
	_, err := client.FetchDetail(context.Background(), 3)
	var typed *apperr.Error
	require.True(t, errors.As(err, &typed))
	assert.Equal(t, apperr.CodeExternalAPI, typed.Code)
}

func TestFetchDetail(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/3/movie/693134", r.URL.Path)
		_, _ = w.Write([]byte(`{"id":693134,"title":"Dune: Part Two","release_date":"2024-02-27",
			"poster_path":"/p.jpg","overview":"Paul unites with the Fremen.","revenue":714444358,
			"runtime":167,"vote_average":8.1,"vote_count":6000,
			"genres":[{"id":878,"name":"Science Fiction"},{"id":12,"name":"Adventure"}]}`))
	})

	detail, err := client.FetchDetail(context.Background(), 693134)
	require.NoError(t, err)
	assert.Equal(t, int64(714444358), detail.Revenue)
	assert.Equal(t, 167, detail.Runtime)
	assert.Equal(t, []string{"Science Fiction", "Adventure"}, detail.Genres)
	assert.Equal(t, "/p.jpg", detail.PosterPath)
}

func TestFetchDetailNullRevenue(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"id":5,"title":"Indie","revenue":null,"runtime":null,"genres":[]}`))
	})
	detail, err := client.FetchDetail(context.Background(), 5)
	require.NoError(t, err)
	assert.Zero(t, detail.Revenue)
	assert.Zero(t, detail.Runtime)
}

func TestFetchWatchProvidersDedupesByPriority(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/3/movie/9/watch/providers", r.URL.Path)
		_, _ = w.Write([]byte(`{"id":9,"results":{
			"JP":{"flatrate":[{"provider_id":8,"provider_name":"Netflix JP"}]},
			"US":{
				"flatrate":[{"provider_id":8,"provider_name":"Netflix","logo_path":"/n.png"},{"provider_id":337,"provider_name":"Disney Plus"}],
				"rent":[{"provider_id":2,"provider_name":"Apple TV"},{"provider_id":8,"provider_name":"Netflix Rent"}],
				"buy":[{"provider_id":2,"provider_name":"Apple TV Buy"},{"provider_id":3,"provider_name":"Google Play"}]
			}}}`))
	})

	lookup := client.FetchWatchProviders(context.Background(), 9)
	require.NoError(t, lookup.Err)
	require.Len(t, lookup.Providers, 4)

	names := make([]string, 0, len(lookup.Providers))
	for _, p := range lookup.Providers {
		names = append(names, p.Name)
	}
	assert.Equal(t, []string{"Netflix", "Disney Plus", "Apple TV", "Google Play"}, names)
	assert.Equal(t, "/n.png", lookup.Providers[0].LogoPath)
}

func TestFetchWatchProvidersRegionSelection(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"id":9,"results":{"JP":{"buy":[{"provider_id":1,"provider_name":"U-NEXT"}]}}}`))
	}, WithWatchRegion("jp"))

	lookup := client.FetchWatchProviders(context.Background(), 9)
	require.Len(t, lookup.Providers, 1)
	assert.Equal(t, "U-NEXT", lookup.Providers[0].Name)
}

func TestFetchWatchProvidersFailureDegrades(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	})

	lookup := client.FetchWatchProviders(context.Background(), 9)
	assert.NotNil(t, lookup.Providers)
	assert.Empty(t, lookup.Providers)
	assert.Error(t, lookup.Err)

	missing := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"id":9,"results":{}}`))
	})
	lookup = missing.FetchWatchProviders(context.Background(), 9)
	assert.NoError(t, lookup.Err)
	assert.Empty(t, lookup.Providers)
}

func TestFetchGenresAndPing(t *testing.T) {
	var pings atomic.Int32
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/3/genre/movie/list":
			_, _ = w.Write([]byte(`{"genres":[{"id":28,"name":"Action"},{"id":18,"name":"Drama"}]}`))
		case "/3/configuration":
			pings.Add(1)
			_, _ = w.Write([]byte(`{"images":{}}`))
		default:
			w.WriteHeader(http.StatusNotFound)
		}
	})

	genres, err := client.FetchGenres(context.Background())
	require.NoError(t, err)
	require.Len(t, genres, 2)
	assert.Equal(t, "Action", genres[0].Name)

	require.NoError(t, client.Ping(context.Background()))
	assert.Equal(t, int32(1), pings.Load())
}

func TestImageURL(t *testing.T) {
	assert.Equal(t, "https://image.tmdb.org/t/p/w500/abc.jpg", ImageURL("", PosterSize, "/abc.jpg"))
	assert.Equal(t, "https://cdn.example/t/p/w92/logo.png", ImageURL("https://cdn.example/t/p/", LogoSize, "logo.png"))
	assert.Empty(t, ImageURL(DefaultImageBaseURL, PosterSize, ""))
}

func TestWithHTTPClientStillBoundsCalls(t *testing.T) {
	release := make(chan struct{})
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-release:
		case <-r.Context().Done():
		}
	}))
	t.Cleanup(server.Close)
	t.Cleanup(func() { close(release) })

	client, err := NewHTTPClient(server.URL, "key", 50*time.Millisecond, nil, WithHTTPClient(server.Client()))
	require.NoError(t, err)

	err = client.Ping(context.Background())
	var typed *apperr.Error
	require.True(t, errors.As(err, &typed), "got %v", err)
	assert.Equal(t, apperr.CodeTimeout, typed.Code)
}
