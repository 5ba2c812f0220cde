// Package catalog holds the song catalog the recommender draws from.
package catalog

import (
	_ "embed"
	"fmt"
	"sort"

	"gopkg.in/yaml.v3"

	"moodtunes/internal/core"
)

//go:embed songs.yaml
var defaultSongs []byte

type catalogFile struct {
	Songs []core.Song `yaml:"songs"`
}

// Catalog is an immutable, indexed set of songs.
type Catalog struct {
	songs  []core.Song
	byID   map[string]int
	byMood map[core.Mood][]core.Song
}

// Default parses the embedded catalog.
func Default() (*Catalog, error) {
	return Parse(defaultSongs)
}

// Parse builds a catalog from YAML with a top-level "songs" list.
func Parse(data []byte) (*Catalog, error) {
	var f catalogFile
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("failed to parse song catalog: %w", err)
	}
	return New(f.Songs)
}

// New validates songs and indexes them by id and mood.
func New(songs []core.Song) (*Catalog, error) {
	c := &Catalog{
		songs:  make([]core.Song, 0, len(songs)),
		byID:   make(map[string]int, len(songs)),
		byMood: make(map[core.Mood][]core.Song),
	}

	for _, s := range songs {
		if s.ID == "" {
			return nil, fmt.Errorf("song %q has no id", s.Title)
		}
		if _, dup := c.byID[s.ID]; dup {
			return nil, fmt.Errorf("duplicate song id %q", s.ID)
		}
		if s.Title == "" || s.Artist == "" {
			return nil, fmt.Errorf("song %q needs a title and an artist", s.ID)
		}
		if len(s.Moods) == 0 {
			return nil, fmt.Errorf("song %q has no moods", s.ID)
		}
		for m, w := range s.Moods {
			if _, err := core.ParseMood(string(m)); err != nil {
				return nil, fmt.Errorf("song %q: %w", s.ID, err)
			}
			if w <= 0 || w > 1 {
				return nil, fmt.Errorf("song %q: weight for %s must be in (0, 1], got %v", s.ID, m, w)
			}
			c.byMood[m] = append(c.byMood[m], s)
		}
		c.byID[s.ID] = len(c.songs)
		c.songs = append(c.songs, s)
	}

	for m, list := range c.byMood {
		sort.SliceStable(list, func(i, j int) bool {
			wi, wj := list[i].Moods[m], list[j].Moods[m]
			if wi != wj {
				return wi > wj
			}
			return list[i].ID < list[j].ID
		})
	}
	return c, nil
}

// Get returns the song with the given id.
func (c *Catalog) Get(id string) (core.Song, bool) {
	i, ok := c.byID[id]
	if !ok {
		return core.Song{}, false
	}
	return c.songs[i], true
}

// ByMood returns songs tagged with m, strongest weight first, ties by id.
// The returned slice is a copy.
func (c *Catalog) ByMood(m core.Mood) []core.Song {
	list := c.byMood[m]
	out := make([]core.Song, len(list))
	copy(out, list)
	return out
}

// All returns every song in file order.
func (c *Catalog) All() []core.Song {
	out := make([]core.Song, len(c.songs))
	copy(out, c.songs)
	return out
}

// Len returns the number of songs.
func (c *Catalog) Len() int {
	return len(c.songs)
}
