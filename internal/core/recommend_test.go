package core

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"mangareader/pkg/models"
)

func tagSet(tags ...string) map[string]struct{} {
	out := make(map[string]struct{}, len(tags))
	for _, t := range tags {
		out[t] = struct{}{}
	}
	return out
}

func TestScoreCandidate(t *testing.T) {
	tags := tagSet("Action", "Fantasy")

	a := models.Manga{ID: "a", Genres: []string{"Action", "Fantasy"}, Rating: 4.5, Views: 50000}
	b := models.Manga{ID: "b", Genres: []string{"Action", "Romance"}, Rating: 5.0, Views: 200000}

	assert.InDelta(t, 34.0, ScoreCandidate(tags, a), 1e-9)
	assert.InDelta(t, 30.0, ScoreCandidate(tags, b), 1e-9)
}

func TestScoreCandidate_MonotonicInSharedTags(t *testing.T) {
	tags := tagSet("A", "B", "C")
	prev := -1.0
	for _, genres := range [][]string{{}, {"A"}, {"A", "B"}, {"A", "B", "C"}} {
		score := ScoreCandidate(tags, models.Manga{Genres: genres, Rating: 3, Views: 1000})
		assert.Greater(t, score, prev)
		prev = score
	}
}

func TestScoreCandidate_ViewsCapped(t *testing.T) {
	tags := tagSet("A")
	big := ScoreCandidate(tags, models.Manga{Views: 10_000_000})
	assert.InDelta(t, 10.0, big, 1e-9)
}

func TestRankRelated(t *testing.T) {
	source := models.Manga{ID: "src", Genres: []string{"Action", "Fantasy"}}
	candidates := []models.Manga{
		{ID: "b", Genres: []string{"Action"}, Rating: 5.0, Views: 200000},
		source,
		{ID: "a", Genres: []string{"Action", "Fantasy"}, Rating: 4.5, Views: 50000},
	}

	ranked := RankRelated(source, candidates, 10)
	require.Len(t, ranked, 2)
	assert.Equal(t, "a", ranked[0].ID)
	assert.Equal(t, "b", ranked[1].ID)
}

func TestRankRelated_TiesByID(t *testing.T) {
	source := models.Manga{ID: "src", Genres: []string{"X"}}
	candidates := []models.Manga{
		{ID: "c", Genres: []string{"X"}},
		{ID: "a", Genres: []string{"X"}},
		{ID: "b", Genres: []string{"X"}},
	}
	ranked := RankRelated(source, candidates, 2)
	require.Len(t, ranked, 2)
	assert.Equal(t, "a", ranked[0].ID)
	assert.Equal(t, "b", ranked[1].ID)
}

func TestSourceTagsBounded(t *testing.T) {
	genres := make([]string, 15)
	for i := range genres {
		genres[i] = fmt.Sprintf("g%d", i)
	}
	assert.Len(t, SourceTags(models.Manga{Genres: genres}), MaxSourceTags)
}

func TestRecommend_GetRelatedExcludesSource(t *testing.T) {
	repo := newFakeMangaRepo(
		models.Manga{ID: "src", Genres: []string{"Action", "Fantasy"}},
		models.Manga{ID: "a", Genres: []string{"Action", "Fantasy"}, Rating: 4.5, Views: 50000},
		models.Manga{ID: "b", Genres: []string{"Action"}, Rating: 5.0, Views: 200000},
		models.Manga{ID: "c", Genres: []string{"Drama"}},
	)
	svc := NewRecommendService(repo, 0, 0)

	related, err := svc.GetRelated(context.Background(), "src", 5)
	require.NoError(t, err)
	require.Len(t, related, 2)
	assert.Equal(t, "a", related[0].ID)
	for _, m := range related {
		assert.NotEqual(t, "src", m.ID)
	}

	_, err = svc.GetRelated(context.Background(), "missing", 5)
	assert.ErrorIs(t, err, models.ErrMangaNotFound)
}

func TestRecommend_ColdStartNewestFirst(t *testing.T) {
	base := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	repo := newFakeMangaRepo(
		models.Manga{ID: "src", CreatedAt: base.Add(5 * time.Hour)},
		models.Manga{ID: "old", Genres: []string{"X"}, CreatedAt: base},
		models.Manga{ID: "mid", CreatedAt: base.Add(time.Hour)},
		models.Manga{ID: "new", CreatedAt: base.Add(2 * time.Hour)},
	)
	svc := NewRecommendService(repo, 8, 50)

	related, err := svc.GetRelated(context.Background(), "src", 2)
	require.NoError(t, err)
	require.Len(t, related, 2)
	assert.Equal(t, "new", related[0].ID)
	assert.Equal(t, "mid", related[1].ID)
}

func TestRecommend_ColdStartFallsBackWithoutIndex(t *testing.T) {
	base := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	repo := newFakeMangaRepo(
		models.Manga{ID: "src", CreatedAt: base},
		models.Manga{ID: "a", CreatedAt: base.Add(time.Hour)},
		models.Manga{ID: "b", CreatedAt: base.Add(2 * time.Hour)},
	)
	repo.listErr = models.ErrIndexRequired
	svc := NewRecommendService(repo, 8, 50)

	related, err := svc.GetRelated(context.Background(), "src", 10)
	require.NoError(t, err)
	require.Len(t, related, 2)
	assert.Equal(t, "b", related[0].ID)
}

func TestRecommend_ResultCountClamped(t *testing.T) {
	items := []models.Manga{{ID: "src", Genres: []string{"X"}}}
	for i := 0; i < 20; i++ {
		items = append(items, models.Manga{ID: fmt.Sprintf("m%02d", i), Genres: []string{"X"}})
	}
	svc := NewRecommendService(newFakeMangaRepo(items...), 3, 5)

	def, err := svc.GetRelated(context.Background(), "src", 0)
	require.NoError(t, err)
	assert.Len(t, def, 3)

	capped, err := svc.GetRelated(context.Background(), "src", 100)
	require.NoError(t, err)
	assert.Len(t, capped, 5)
}
