package main

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/hashicorp/go-hclog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Clark-Hu/boxoffice-monthly/internal/apperr"
	"github.com/Clark-Hu/boxoffice-monthly/internal/config"
	"github.com/Clark-Hu/boxoffice-monthly/internal/domain"
	"github.com/Clark-Hu/boxoffice-monthly/internal/genres"
	httpserver "github.com/Clark-Hu/boxoffice-monthly/internal/http"
	"github.com/Clark-Hu/boxoffice-monthly/internal/ranking"
	"github.com/Clark-Hu/boxoffice-monthly/internal/tmdb"
)

func startMock(t *testing.T, key string) *httptest.Server {
	t.Helper()
	var fx fixture
	require.NoError(t, json.Unmarshal(defaultFixture, &fx))
	server := httptest.NewServer(newRouter(fx, key, false, hclog.NewNullLogger()))
	t.Cleanup(server.Close)
	return server
}

func newPipeline(t *testing.T, baseURL, key string) (*ranking.Service, *tmdb.HTTPClient, *genres.Cache) {
	t.Helper()
	client, err := tmdb.NewHTTPClient(baseURL+"/3", key, 2*time.Second, hclog.NewNullLogger())
	require.NoError(t, err)
	cache := genres.NewCache(client, nil)
	svc := ranking.NewService(client, cache, nil, ranking.Options{
		Now: func() time.Time { return time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC) },
	})
	return svc, client, cache
}

func TestMarch2024AgainstFixture(t *testing.T) {
	mock := startMock(t, "")
	svc, _, cache := newPipeline(t, mock.URL, "local")

	movies, err := svc.Top(context.Background(), 2024, 3)
	require.NoError(t, err)
	require.Len(t, movies, 10)

	wantIDs := []int64{823464, 1011985, 940551, 967847, 1096197, 1049948, 1114513, 1072790, 1041613, 1111873}
	for i, m := range movies {
		assert.Equal(t, i+1, m.Rank)
		assert.Equal(t, wantIDs[i], m.ID, "rank %d", i+1)
	}

	godzilla := movies[0]
	assert.Equal(t, int64(567650016), godzilla.BoxOffice)
	assert.False(t, godzilla.Estimated)
	assert.Equal(t, []string{"Science Fiction", "Action", "Adventure"}, godzilla.Genres)
	assert.Equal(t, "https://image.tmdb.org/t/p/w500/z1p34vh7dEOnLDmyCrlUVLuoDzd.jpg", godzilla.PosterURL)
	require.Len(t, godzilla.WatchProviders, 3)
	assert.Equal(t, "Max", godzilla.WatchProviders[0].Name)

	assert.True(t, movies[4].Estimated, "No Way Up has no reported revenue")
	assert.Empty(t, movies[6].PosterURL, "Arthur the King has no poster")
	assert.Greater(t, cache.Len(), 0)
}

func TestEmptyMonthAgainstFixture(t *testing.T) {
	mock := startMock(t, "")
	svc, _, _ := newPipeline(t, mock.URL, "local")

	movies, err := svc.Top(context.Background(), 1999, 1)
	require.NoError(t, err)
	assert.Empty(t, movies)
}

func TestBadKeyAgainstFixture(t *testing.T) {
	mock := startMock(t, "expected")
	svc, client, cache := newPipeline(t, mock.URL, "wrong")

	_, err := svc.Top(context.Background(), 2024, 3)
	var typed *apperr.Error
	require.True(t, errors.As(err, &typed))
	assert.Equal(t, apperr.CodeExternalAPI, typed.Code)
	assert.Equal(t, "Invalid API key", typed.Message)
	assert.Zero(t, cache.Len())
	assert.Error(t, client.Ping(context.Background()))
}

func TestMissingMovieIsNotFound(t *testing.T) {
	mock := startMock(t, "")
	_, client, _ := newPipeline(t, mock.URL, "local")

	_, err := client.FetchDetail(context.Background(), 1)
	assert.True(t, errors.Is(err, apperr.New(apperr.CodeNotFound, "")))
}

func TestServiceOverFixture(t *testing.T) {
	mock := startMock(t, "")
	svc, client, _ := newPipeline(t, mock.URL, "local")

	srv := httpserver.New(config.Config{Port: "0", JPYExchangeRate: 150}, svc, client, nil)
	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/movies/box-office?year=2024&month=2&currency=USD", nil))
	require.Equal(t, http.StatusOK, rec.Code)

	var body struct {
		Success bool `json:"success"`
		Data    struct {
			Movies []domain.RankedMovie `json:"movies"`
			Note   string               `json:"note"`
		} `json:"data"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.True(t, body.Success)
	require.Len(t, body.Data.Movies, 1)
	assert.Equal(t, "Dune: Part Two", body.Data.Movies[0].Title)
	assert.Equal(t, "$714,444,358", body.Data.Movies[0].BoxOfficeFormatted)
	assert.NotEmpty(t, body.Data.Note)

	health := httptest.NewRecorder()
	srv.Handler().ServeHTTP(health, httptest.NewRequest(http.MethodGet, "/healthz", nil))
	assert.Contains(t, health.Body.String(), `"tmdb":{"status":"healthy"`)
}
