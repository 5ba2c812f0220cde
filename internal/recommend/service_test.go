package recommend

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"moodtunes/internal/cache"
	"moodtunes/internal/catalog"
	"moodtunes/internal/core"
	"moodtunes/internal/feedback"
	"moodtunes/internal/mood"
)

type stubRatings struct {
	summaries map[string]feedback.Summary
	err       error
	calls     int
}

func (s *stubRatings) AverageRatings(_ context.Context, _ []string) (map[string]feedback.Summary, error) {
	s.calls++
	return s.summaries, s.err
}

type failingCache struct{}

func (failingCache) Get(context.Context, string) ([]byte, error) {
	return nil, errors.New("connection refused")
}

func (failingCache) Set(context.Context, string, []byte, time.Duration) error {
	return errors.New("connection refused")
}

func (failingCache) Close() error { return nil }

func testCatalog(t *testing.T) *catalog.Catalog {
	t.Helper()
	happy := func(w float64) map[core.Mood]float64 { return map[core.Mood]float64{core.MoodHappy: w} }
	c, err := catalog.New([]core.Song{
		{ID: "a", Title: "A", Artist: "x", Moods: happy(0.9)},
		{ID: "b", Title: "B", Artist: "x", Moods: happy(0.8)},
		{ID: "c", Title: "C", Artist: "x", Moods: happy(0.8)},
		{ID: "d", Title: "D", Artist: "x", Moods: map[core.Mood]float64{core.MoodSad: 1}},
	})
	require.NoError(t, err)
	return c
}

func songIDs(rec *core.Recommendation) []string {
	ids := make([]string, len(rec.Songs))
	for i, s := range rec.Songs {
		ids[i] = s.ID
	}
	return ids
}

func TestRecommend_RanksByMoodWeight(t *testing.T) {
	svc := NewService(nil, testCatalog(t), nil, nil, Config{Limit: 5})

	rec, err := svc.Recommend(context.Background(), "  I am happy ", 0)
	require.NoError(t, err)
	assert.Equal(t, "I am happy", rec.MoodText)
	assert.Equal(t, core.MoodHappy, rec.Mood)
	assert.Equal(t, []string{"happy"}, rec.Matched)
	assert.InDelta(t, 1.0, rec.Confidence, 1e-9)
	assert.Equal(t, []string{"a", "b", "c"}, songIDs(rec))
}

func TestRecommend_Limit(t *testing.T) {
	svc := NewService(nil, testCatalog(t), nil, nil, Config{Limit: 2})

	rec, err := svc.Recommend(context.Background(), "happy", 0)
	require.NoError(t, err)
	assert.Len(t, rec.Songs, 2)

	rec, err = svc.Recommend(context.Background(), "happy", 1)
	require.NoError(t, err)
	assert.Equal(t, []string{"a"}, songIDs(rec))
}

func TestRecommend_RatingBoostReorders(t *testing.T) {
	ratings := &stubRatings{summaries: map[string]feedback.Summary{
		"a": {Average: 1, Count: 3},
		"c": {Average: 5, Count: 1},
	}}
	svc := NewService(nil, testCatalog(t), ratings, nil, Config{})

	rec, err := svc.Recommend(context.Background(), "happy", 0)
	require.NoError(t, err)
	assert.Equal(t, []string{"c", "b", "a"}, songIDs(rec))
	assert.InDelta(t, 1.0, rec.Songs[0].Score, 1e-9)
	assert.Equal(t, 5.0, rec.Songs[0].AvgRating)
	assert.Zero(t, rec.Songs[1].AvgRating)
}

func TestRecommend_RatingErrorFallsBack(t *testing.T) {
	ratings := &stubRatings{err: errors.New("db down")}
	svc := NewService(nil, testCatalog(t), ratings, nil, Config{})

	rec, err := svc.Recommend(context.Background(), "happy", 0)
	require.NoError(t, err)
	assert.Equal(t, []string{"a", "b", "c"}, songIDs(rec))
}

func TestRecommend_UsesCache(t *testing.T) {
	ratings := &stubRatings{}
	c := cache.NewLocalCache(0)
	svc := NewService(nil, testCatalog(t), ratings, c, Config{CacheTTL: time.Minute})
	ctx := context.Background()

	first, err := svc.Recommend(ctx, "happy", 0)
	require.NoError(t, err)
	second, err := svc.Recommend(ctx, "so glad", 0)
	require.NoError(t, err)

	assert.Equal(t, 1, ratings.calls)
	assert.Equal(t, 1, c.Len())
	assert.Equal(t, first.Songs, second.Songs)
	assert.Equal(t, "so glad", second.MoodText)
	assert.Equal(t, []string{"glad"}, second.Matched)

	_, err = svc.Recommend(ctx, "happy", 1)
	require.NoError(t, err)
	assert.Equal(t, 2, ratings.calls)
}

func TestRecommend_CacheErrorsAreNotFatal(t *testing.T) {
	svc := NewService(nil, testCatalog(t), nil, failingCache{}, Config{})

	rec, err := svc.Recommend(context.Background(), "happy", 0)
	require.NoError(t, err)
	assert.Len(t, rec.Songs, 3)
}

func TestRecommend_NoSongsForMood(t *testing.T) {
	svc := NewService(mood.NewAnalyzer(nil), testCatalog(t), nil, nil, Config{})

	rec, err := svc.Recommend(context.Background(), "furious", 0)
	require.NoError(t, err)
	assert.Equal(t, core.MoodAngry, rec.Mood)
	assert.NotNil(t, rec.Songs)
	assert.Empty(t, rec.Songs)
}

func TestRecommend_InvalidText(t *testing.T) {
	svc := NewService(nil, testCatalog(t), nil, nil, Config{})

	tests := []struct {
		name string
		text string
	}{
		{"empty", ""},
		{"whitespace", "   \t\n"},
		{"too long", strings.Repeat("a", MaxMoodTextLength+1)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := svc.Recommend(context.Background(), tt.text, 0)
			appErr := core.AsAppError(err)
			require.NotNil(t, appErr)
			assert.Equal(t, core.ErrorTypeInvalidRequest, appErr.Type)
		})
	}

	_, err := svc.Recommend(context.Background(), strings.Repeat("é", MaxMoodTextLength), 0)
	assert.NoError(t, err)
}

func TestRatingBoost(t *testing.T) {
	assert.InDelta(t, -RatingWeight, RatingBoost(1), 1e-9)
	assert.Zero(t, RatingBoost(3))
	assert.InDelta(t, RatingWeight, RatingBoost(5), 1e-9)
}
