package ranking

import (
	"context"
	"fmt"
	"sync"

	"github.com/Clark-Hu/boxoffice-monthly/internal/apperr"
	"github.com/Clark-Hu/boxoffice-monthly/internal/domain"
)

// enrichment is the per-candidate outcome. detail is nil when the detail
// fetch failed; detailErr then records why.
type enrichment struct {
	candidate domain.Candidate
	detail    *domain.Detail
	detailErr error
	providers []domain.WatchProvider
}

// enrich fetches detail and watch providers for one candidate concurrently.
// It always returns a usable result.
func (s *Service) enrich(ctx context.Context, candidate domain.Candidate) enrichment {
	result := enrichment{candidate: candidate, providers: []domain.WatchProvider{}}

	var wg sync.WaitGroup
	wg.Add(2)
	go func() {
		defer wg.Done()
		defer func() {
			if r := recover(); r != nil {
				result.detail = nil
				result.detailErr = apperr.Server(fmt.Errorf("detail panic: %v", r))
			}
		}()
		result.detail, result.detailErr = s.upstream.FetchDetail(ctx, candidate.ID)
	}()

	var providers []domain.WatchProvider
	go func() {
		defer wg.Done()
		defer func() {
			if r := recover(); r != nil {
				providers = nil
				s.logger.Error("watch provider lookup panicked", "movie_id", candidate.ID, "panic", r)
			}
		}()
		lookup := s.upstream.FetchWatchProviders(ctx, candidate.ID)
		if lookup.Err != nil {
			s.logger.Debug("watch providers unavailable", "movie_id", candidate.ID, "error", lookup.Err)
		}
		providers = lookup.Providers
	}()
	wg.Wait()

	if providers != nil {
		result.providers = providers
	}
	if result.detailErr != nil {
		result.detail = nil
		code, _ := apperr.Public(result.detailErr)
		if code == apperr.CodeServer {
			s.logger.Error("movie detail failed", "movie_id", candidate.ID, "error", result.detailErr)
		} else {
			s.logger.Warn("movie detail failed", "movie_id", candidate.ID, "code", code, "error", result.detailErr)
		}
	} else if result.detail == nil {
		result.detailErr = apperr.Server(fmt.Errorf("empty detail for movie %d", candidate.ID))
	}
	return result
}
