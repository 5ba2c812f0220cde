package core

import (
	"fmt"
	"strings"
	"time"
)

// Mood is one of the moods the recommender understands.
type Mood string

const (
	MoodHappy     Mood = "happy"
	MoodSad       Mood = "sad"
	MoodEnergetic Mood = "energetic"
	MoodCalm      Mood = "calm"
	MoodAngry     Mood = "angry"
	MoodRomantic  Mood = "romantic"
)

// AllMoods lists every supported mood in display order.
var AllMoods = []Mood{MoodHappy, MoodSad, MoodEnergetic, MoodCalm, MoodAngry, MoodRomantic}

// ParseMood returns the Mood named by s (case-insensitive).
func ParseMood(s string) (Mood, error) {
	m := Mood(strings.ToLower(strings.TrimSpace(s)))
	for _, known := range AllMoods {
		if m == known {
			return m, nil
		}
	}
	return "", fmt.Errorf("unknown mood %q", s)
}

// Song is a catalog entry.
type Song struct {
	ID     string `json:"id" yaml:"id"`
	Title  string `json:"title" yaml:"title"`
	Artist string `json:"artist" yaml:"artist"`
	Genre  string `json:"genre" yaml:"genre"`
	// Moods maps each mood the song fits to a weight in (0, 1].
	Moods map[Mood]float64 `json:"moods" yaml:"moods"`
	URL   string           `json:"url,omitempty" yaml:"url,omitempty"`
}

// ScoredSong is a song ranked for a specific mood.
type ScoredSong struct {
	Song
	Score     float64 `json:"score"`
	AvgRating float64 `json:"avg_rating,omitempty"`
}

// Recommendation is the result of analysing a mood text.
type Recommendation struct {
	MoodText   string       `json:"mood_text"`
	Mood       Mood         `json:"mood"`
	Confidence float64      `json:"confidence"`
	Matched    []string     `json:"matched,omitempty"`
	Songs      []ScoredSong `json:"songs"`
}

// User is a registered account.
type User struct {
	ID           string    `json:"id"`
	Username     string    `json:"username"`
	PasswordHash string    `json:"-"`
	CreatedAt    time.Time `json:"created_at"`
}

// HistoryEntry records one recommendation served to a user.
type HistoryEntry struct {
	ID        string    `json:"id"`
	UserID    string    `json:"user_id"`
	MoodText  string    `json:"mood_text"`
	Mood      Mood      `json:"mood"`
	SongIDs   []string  `json:"song_ids"`
	CreatedAt time.Time `json:"created_at"`
}

// Feedback is a user's rating of a song.
type Feedback struct {
	ID        string    `json:"id"`
	UserID    string    `json:"user_id"`
	SongID    string    `json:"song_id"`
	Rating    int       `json:"rating"`
	CreatedAt time.Time `json:"created_at"`
}

// MinRating and MaxRating bound Feedback.Rating.
const (
	MinRating = 1
	MaxRating = 5
)

// Validate checks the rating range and required identifiers.
func (f *Feedback) Validate() error {
	if f.UserID == "" {
		return fmt.Errorf("user id is required")
	}
	if f.SongID == "" {
		return fmt.Errorf("song id is required")
	}
	if f.Rating < MinRating || f.Rating > MaxRating {
		return fmt.Errorf("rating must be between %d and %d, got %d", MinRating, MaxRating, f.Rating)
	}
	return nil
}
