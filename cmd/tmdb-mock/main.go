// Command tmdb-mock serves a fixture-backed stand-in for the TMDB endpoints
// used by the box-office service, for local runs and smoke tests.
package main

import (
	_ "embed"
	"encoding/json"
	"flag"
	"net/http"
	"os"
	"sort"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/hashicorp/go-hclog"

	"github.com/Clark-Hu/boxoffice-monthly/internal/domain"
	"github.com/Clark-Hu/boxoffice-monthly/internal/logging"
)

//go:embed fixture.json
var defaultFixture []byte

const pageSize = 20

type fixture struct {
	Genres []domain.Genre `json:"genres"`
	Movies []fixtureMovie `json:"movies"`
}

type fixtureMovie struct {
	ID          int64                      `json:"id"`
	Title       string                     `json:"title"`
	ReleaseDate string                     `json:"release_date"`
	PosterPath  *string                    `json:"poster_path"`
	GenreIDs    []int                      `json:"genre_ids"`
	Popularity  float64                    `json:"popularity"`
	Overview    string                     `json:"overview"`
	Revenue     *int64                     `json:"revenue"`
	Runtime     *int                       `json:"runtime"`
	VoteAverage float64                    `json:"vote_average"`
	VoteCount   int64                      `json:"vote_count"`
	Providers   map[string]json.RawMessage `json:"providers,omitempty"`
}

func main() {
	var (
		port    = flag.String("port", "9099", "port to listen on")
		data    = flag.String("data", "", "path to fixture file (defaults to the embedded fixture)")
		apiKey  = flag.String("key", "", "api key to require (any non-empty key when unset)")
		verbose = flag.Bool("log", false, "enable request logging")
	)
	flag.Parse()

	logger := logging.New(logging.Options{Name: "tmdb-mock"})

	raw := defaultFixture
	if *data != "" {
		file, err := os.ReadFile(*data)
		if err != nil {
			logger.Error("read fixture", "error", err)
			os.Exit(1)
		}
		raw = file
	}

	var fx fixture
	if err := json.Unmarshal(raw, &fx); err != nil {
		logger.Error("parse fixture", "error", err)
		os.Exit(1)
	}

	addr := ":" + *port
	logger.Info("mock tmdb listening", "addr", addr, "movies", len(fx.Movies), "genres", len(fx.Genres))
	if err := http.ListenAndServe(addr, newRouter(fx, *apiKey, *verbose, logger)); err != nil {
		logger.Error("server error", "error", err)
		os.Exit(1)
	}
}

func newRouter(fx fixture, apiKey string, verbose bool, logger hclog.Logger) http.Handler {
	byID := make(map[int64]fixtureMovie, len(fx.Movies))
	for _, m := range fx.Movies {
		byID[m.ID] = m
	}
	genreNames := make(map[int]string, len(fx.Genres))
	for _, g := range fx.Genres {
		genreNames[g.ID] = g.Name
	}

	r := chi.NewRouter()
	if verbose {
		r.Use(middleware.RequestLogger(&middleware.DefaultLogFormatter{Logger: logging.Standard(logger), NoColor: true}))
	}
	r.Use(requireKey(apiKey))

	r.Route("/3", func(r chi.Router) {
		r.Get("/configuration", func(w http.ResponseWriter, r *http.Request) {
			writeJSON(w, http.StatusOK, map[string]interface{}{
				"images": map[string]interface{}{
					"secure_base_url": "https://image.tmdb.org/t/p/",
					"poster_sizes":    []string{"w92", "w500", "original"},
				},
			})
		})

		r.Get("/genre/movie/list", func(w http.ResponseWriter, r *http.Request) {
			writeJSON(w, http.StatusOK, map[string]interface{}{"genres": fx.Genres})
		})

		r.Get("/discover/movie", func(w http.ResponseWriter, r *http.Request) {
			q := r.URL.Query()
			gte, lte := q.Get("primary_release_date.gte"), q.Get("primary_release_date.lte")
			page, err := strconv.Atoi(q.Get("page"))
			if err != nil || page < 1 {
				page = 1
			}

			matches := make([]fixtureMovie, 0)
			for _, m := range fx.Movies {
				if (gte == "" || m.ReleaseDate >= gte) && (lte == "" || m.ReleaseDate <= lte) {
					matches = append(matches, m)
				}
			}
			sort.SliceStable(matches, func(i, j int) bool { return matches[i].Popularity > matches[j].Popularity })

			totalPages := (len(matches) + pageSize - 1) / pageSize
			results := make([]map[string]interface{}, 0, pageSize)
			for i := (page - 1) * pageSize; i < len(matches) && i < page*pageSize; i++ {
				m := matches[i]
				results = append(results, map[string]interface{}{
					"id":           m.ID,
					"title":        m.Title,
					"release_date": m.ReleaseDate,
					"poster_path":  m.PosterPath,
					"genre_ids":    m.GenreIDs,
					"popularity":   m.Popularity,
				})
			}
			writeJSON(w, http.StatusOK, map[string]interface{}{
				"page":          page,
				"results":       results,
				"total_pages":   totalPages,
				"total_results": len(matches),
			})
		})

		r.Get("/movie/{id}", func(w http.ResponseWriter, r *http.Request) {
			m, ok := lookup(byID, chi.URLParam(r, "id"))
			if !ok {
				writeStatus(w, http.StatusNotFound, 34, "The resource you requested could not be found.")
				return
			}
			genres := make([]domain.Genre, 0, len(m.GenreIDs))
			for _, id := range m.GenreIDs {
				if name, ok := genreNames[id]; ok {
					genres = append(genres, domain.Genre{ID: id, Name: name})
				}
			}
			writeJSON(w, http.StatusOK, map[string]interface{}{
				"id":           m.ID,
				"title":        m.Title,
				"release_date": m.ReleaseDate,
				"poster_path":  m.PosterPath,
				"overview":     m.Overview,
				"revenue":      m.Revenue,
				"runtime":      m.Runtime,
				"vote_average": m.VoteAverage,
				"vote_count":   m.VoteCount,
				"genres":       genres,
			})
		})

		r.Get("/movie/{id}/watch/providers", func(w http.ResponseWriter, r *http.Request) {
			m, ok := lookup(byID, chi.URLParam(r, "id"))
			if !ok {
				writeStatus(w, http.StatusNotFound, 34, "The resource you requested could not be found.")
				return
			}
			results := m.Providers
			if results == nil {
				results = map[string]json.RawMessage{}
			}
			writeJSON(w, http.StatusOK, map[string]interface{}{"id": m.ID, "results": results})
		})
	})
	return r
}

// requireKey rejects requests without an api_key, or with a different one
// when expected is set, the way TMDB answers bad credentials.
func requireKey(expected string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			key := r.URL.Query().Get("api_key")
			if key == "" || (expected != "" && key != expected) {
				writeStatus(w, http.StatusUnauthorized, 7, "Invalid API key: You must be granted a valid key.")
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

func lookup(byID map[int64]fixtureMovie, raw string) (fixtureMovie, bool) {
	id, err := strconv.ParseInt(strings.TrimSpace(raw), 10, 64)
	if err != nil {
		return fixtureMovie{}, false
	}
	m, ok := byID[id]
	return m, ok
}

func writeStatus(w http.ResponseWriter, status, code int, message string) {
	writeJSON(w, status, map[string]interface{}{
		"success":        false,
		"status_code":    code,
		"status_message": message,
	})
}

func writeJSON(w http.ResponseWriter, status int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}
