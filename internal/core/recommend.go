// Package core - Related manga
// Genre-overlap scoring with a newest-first cold start
package core

import (
	"context"
	"errors"
	"math"
	"sort"

	"mangareader/internal/repository"
	"mangareader/pkg/logger"
	"mangareader/pkg/metrics"
	"mangareader/pkg/models"
)

const (
	// MaxSourceTags bounds how many of the source's genres are matched
	MaxSourceTags = 10

	DefaultRelatedResults = 8
	MaxRelatedResults     = 50

	sharedTagWeight = 10.0
	ratingWeight    = 2.0
	viewsPerPoint   = 10000.0
	maxViewsScore   = 10.0
)

// RecommendService finds manga related to a given one
type RecommendService interface {
	GetRelated(ctx context.Context, mangaID string, maxResults int) ([]models.Manga, error)
}

type recommendService struct {
	mangaRepo repository.MangaRepository
	defaultN  int
	maxN      int
}

// NewRecommendService creates a recommendation service. Non-positive
// bounds fall back to 8 results by default and at most 50.
func NewRecommendService(mangaRepo repository.MangaRepository, defaultN, maxN int) RecommendService {
	if defaultN <= 0 {
		defaultN = DefaultRelatedResults
	}
	if maxN <= 0 {
		maxN = MaxRelatedResults
	}
	return &recommendService{mangaRepo: mangaRepo, defaultN: defaultN, maxN: maxN}
}

// SourceTags returns the genres used for matching
func SourceTags(source models.Manga) []string {
	if len(source.Genres) > MaxSourceTags {
		return source.Genres[:MaxSourceTags]
	}
	return source.Genres
}

// ScoreCandidate is 10 per shared tag, twice the rating and one point per
// 10k views capped at 10
func ScoreCandidate(tags map[string]struct{}, candidate models.Manga) float64 {
	shared := 0
	seen := make(map[string]struct{}, len(candidate.Genres))
	for _, g := range candidate.Genres {
		if _, dup := seen[g]; dup {
			continue
		}
		seen[g] = struct{}{}
		if _, ok := tags[g]; ok {
			shared++
		}
	}
	viewsScore := math.Min(float64(candidate.Views)/viewsPerPoint, maxViewsScore)
	return sharedTagWeight*float64(shared) + ratingWeight*candidate.Rating + viewsScore
}

// RankRelated scores candidates against the source and returns the top n,
// highest score first with ties broken by ascending ID. The source itself
// is never returned.
func RankRelated(source models.Manga, candidates []models.Manga, n int) []models.Manga {
	tags := make(map[string]struct{}, MaxSourceTags)
	for _, t := range SourceTags(source) {
		tags[t] = struct{}{}
	}

	type scored struct {
		manga models.Manga
		score float64
	}
	ranked := make([]scored, 0, len(candidates))
	for _, c := range candidates {
		if c.ID == source.ID {
			continue
		}
		ranked = append(ranked, scored{manga: c, score: ScoreCandidate(tags, c)})
	}

	sort.SliceStable(ranked, func(i, j int) bool {
		if ranked[i].score != ranked[j].score {
			return ranked[i].score > ranked[j].score
		}
		return ranked[i].manga.ID < ranked[j].manga.ID
	})

	if n > len(ranked) {
		n = len(ranked)
	}
	out := make([]models.Manga, 0, n)
	for _, r := range ranked[:n] {
		out = append(out, r.manga)
	}
	return out
}

// GetRelated returns up to maxResults manga related to mangaID
func (s *recommendService) GetRelated(ctx context.Context, mangaID string, maxResults int) ([]models.Manga, error) {
	if maxResults <= 0 {
		maxResults = s.defaultN
	}
	if maxResults > s.maxN {
		maxResults = s.maxN
	}

	source, err := s.mangaRepo.GetByID(ctx, mangaID)
	if err != nil {
		return nil, err
	}

	tags := SourceTags(*source)
	if len(tags) == 0 {
		metrics.RecommendationsServedTotal.WithLabelValues("cold_start").Inc()
		return s.coldStart(ctx, source.ID, maxResults)
	}

	candidates, err := s.mangaRepo.ListByAnyGenre(ctx, tags)
	if err != nil {
		return nil, err
	}
	metrics.RecommendationsServedTotal.WithLabelValues("scored").Inc()
	return RankRelated(*source, candidates, maxResults), nil
}

// coldStart returns the newest manga other than the source
func (s *recommendService) coldStart(ctx context.Context, sourceID string, n int) ([]models.Manga, error) {
	recent, err := s.mangaRepo.ListRecent(ctx, n+1)
	if errors.Is(err, models.ErrIndexRequired) {
		logger.Warnf("Recent manga query needs an index, sorting in memory: %v", err)
		metrics.CatalogFallbacksTotal.WithLabelValues("recent").Inc()
		recent, err = s.mangaRepo.ListUnordered(ctx, models.MangaListRequest{})
		if err == nil {
			sortManga(recent, models.SortNewest)
		}
	}
	if err != nil {
		return nil, err
	}

	out := make([]models.Manga, 0, n)
	for _, m := range recent {
		if m.ID == sourceID {
			continue
		}
		if len(out) == n {
			break
		}
		out = append(out, m)
	}
	return out, nil
}
