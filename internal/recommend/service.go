// Package recommend turns a mood description into a ranked song list.
package recommend

import (
	"context"
	"encoding/json"
	"sort"
	"strconv"
	"strings"
	"time"
	"unicode/utf8"

	"moodtunes/internal/cache"
	"moodtunes/internal/catalog"
	"moodtunes/internal/core"
	"moodtunes/internal/feedback"
	"moodtunes/internal/mood"
)

const (
	// MaxMoodTextLength bounds the mood text, in characters.
	MaxMoodTextLength = 500
	// DefaultLimit applies when neither the call nor Config sets a limit.
	DefaultLimit = 5
	// RatingWeight scales the community rating boost. An average of 5 adds
	// RatingWeight to a song's score; an average of 1 subtracts it.
	RatingWeight = 0.2

	cacheNamespace = "recommend"
)

// RatingSource supplies aggregated song ratings.
type RatingSource interface {
	AverageRatings(ctx context.Context, songIDs []string) (map[string]feedback.Summary, error)
}

// Config tunes the service.
type Config struct {
	Limit    int
	CacheTTL time.Duration
}

// Service ranks catalog songs for a mood text.
type Service struct {
	analyzer *mood.Analyzer
	catalog  *catalog.Catalog
	ratings  RatingSource
	cache    cache.Cache
	cfg      Config
}

// NewService creates a recommendation service. ratings and c may be nil to
// disable the rating boost and the cache respectively.
func NewService(analyzer *mood.Analyzer, cat *catalog.Catalog, ratings RatingSource, c cache.Cache, cfg Config) *Service {
	if analyzer == nil {
		analyzer = mood.NewAnalyzer(nil)
	}
	if cfg.Limit <= 0 {
		cfg.Limit = DefaultLimit
	}
	return &Service{
		analyzer: analyzer,
		catalog:  cat,
		ratings:  ratings,
		cache:    c,
		cfg:      cfg,
	}
}

// Catalog returns the catalog the service ranks from.
func (s *Service) Catalog() *catalog.Catalog {
	return s.catalog
}

// Recommend analyses moodText and returns up to limit songs for the detected
// mood. A non-positive limit uses the configured default.
func (s *Service) Recommend(ctx context.Context, moodText string, limit int) (*core.Recommendation, error) {
	text := strings.TrimSpace(moodText)
	if text == "" {
		return nil, core.NewInvalidRequestError("mood_text is required", nil)
	}
	if n := utf8.RuneCountInString(text); n > MaxMoodTextLength {
		return nil, core.NewInvalidRequestError(
			"mood_text must be at most "+strconv.Itoa(MaxMoodTextLength)+" characters", nil)
	}
	if limit <= 0 {
		limit = s.cfg.Limit
	}

	analysis := s.analyzer.Analyze(text)
	songs := s.rankedSongs(ctx, analysis.Mood, limit)
	recommendationsTotal.WithLabelValues(string(analysis.Mood)).Inc()

	return &core.Recommendation{
		MoodText:   text,
		Mood:       analysis.Mood,
		Confidence: analysis.Score,
		Matched:    analysis.Matched,
		Songs:      songs,
	}, nil
}

func (s *Service) rankedSongs(ctx context.Context, m core.Mood, limit int) []core.ScoredSong {
	key := cache.Key(cacheNamespace, string(m), strconv.Itoa(limit))

	if s.cache != nil {
		data, err := s.cache.Get(ctx, key)
		switch {
		case err != nil:
			cacheLookups.WithLabelValues("error").Inc()
			core.Logger(ctx).Warn("recommendation cache read failed", "mood", m, "error", err)
		case data != nil:
			var songs []core.ScoredSong
			if err := json.Unmarshal(data, &songs); err == nil {
				cacheLookups.WithLabelValues("hit").Inc()
				return songs
			}
			cacheLookups.WithLabelValues("error").Inc()
			core.Logger(ctx).Warn("discarding undecodable cache entry", "mood", m)
		default:
			cacheLookups.WithLabelValues("miss").Inc()
		}
	}

	songs := s.rank(ctx, m, limit)

	if s.cache != nil {
		data, err := json.Marshal(songs)
		if err == nil {
			err = s.cache.Set(ctx, key, data, s.cfg.CacheTTL)
		}
		if err != nil {
			core.Logger(ctx).Warn("recommendation cache write failed", "mood", m, "error", err)
		}
	}
	return songs
}

func (s *Service) rank(ctx context.Context, m core.Mood, limit int) []core.ScoredSong {
	candidates := s.catalog.ByMood(m)
	if len(candidates) == 0 {
		return []core.ScoredSong{}
	}

	var summaries map[string]feedback.Summary
	if s.ratings != nil {
		ids := make([]string, len(candidates))
		for i, song := range candidates {
			ids[i] = song.ID
		}
		var err error
		summaries, err = s.ratings.AverageRatings(ctx, ids)
		if err != nil {
			core.Logger(ctx).Warn("ranking without ratings", "mood", m, "error", err)
			summaries = nil
		}
	}

	scored := make([]core.ScoredSong, len(candidates))
	for i, song := range candidates {
		scored[i] = core.ScoredSong{Song: song, Score: song.Moods[m]}
		if sum, ok := summaries[song.ID]; ok && sum.Count > 0 {
			scored[i].AvgRating = sum.Average
			scored[i].Score += RatingBoost(sum.Average)
		}
	}

	sort.SliceStable(scored, func(i, j int) bool {
		if scored[i].Score != scored[j].Score {
			return scored[i].Score > scored[j].Score
		}
		return scored[i].ID < scored[j].ID
	})
	if len(scored) > limit {
		scored = scored[:limit]
	}
	return scored
}

// RatingBoost maps an average rating in [1, 5] to a score adjustment in
// [-RatingWeight, RatingWeight]; 3 is neutral.
func RatingBoost(avg float64) float64 {
	return RatingWeight * (avg - 3) / 2
}
