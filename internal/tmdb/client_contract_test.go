package tmdb

import (
	"context"
	"os"
	"testing"
	"time"
)

// TestHTTPClientSmoke runs against a live or mock TMDB endpoint when
// TMDB_API_KEY is exported, checking that one discovery page and one
// detail record decode.
func TestHTTPClientSmoke(t *testing.T) {
	apiKey := os.Getenv("TMDB_API_KEY")
	if apiKey == "" {
		t.Skip("TMDB_API_KEY not provided")
	}
	baseURL := os.Getenv("TMDB_BASE_URL")
	if baseURL == "" {
		baseURL = "https://api.themoviedb.org/3"
	}
	client, err := NewHTTPClient(baseURL, apiKey, 5*time.Second, nil)
	if err != nil {
		t.Fatalf("create http client: %v", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()

	page, err := client.Discover(ctx, "2024-03-01", "2024-03-31", 1)
	if err != nil {
		t.Fatalf("discover: %v", err)
	}
	if len(page.Candidates) == 0 {
		t.Fatalf("expected at least one candidate for March 2024")
	}
	detail, err := client.FetchDetail(ctx, page.Candidates[0].ID)
	if err != nil {
		t.Fatalf("detail %d: %v", page.Candidates[0].ID, err)
	}
	if detail.Title == "" {
		t.Fatalf("unexpected detail payload: %+v", detail)
	}
}
