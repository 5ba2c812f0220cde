package mood

import "moodtunes/internal/core"

// Term is a lexicon entry: the mood a word signals and how strongly.
type Term struct {
	Mood   core.Mood
	Weight float64
}

// Lexicon maps lower-case words to the mood they signal.
type Lexicon map[string]Term

// DefaultLexicon is the built-in English word list.
func DefaultLexicon() Lexicon {
	lex := Lexicon{}
	add := func(m core.Mood, weight float64, words ...string) {
		for _, w := range words {
			lex[w] = Term{Mood: m, Weight: weight}
		}
	}

	add(core.MoodHappy, 1.0, "happy", "joy", "joyful", "glad", "cheerful", "delighted", "great", "awesome", "wonderful", "fantastic", "excited", "good", "fun", "smile", "smiling", "sunny", "amazing", "blessed", "content")
	add(core.MoodHappy, 0.6, "fine", "nice", "okay", "ok", "better")
	add(core.MoodSad, 1.0, "sad", "unhappy", "depressed", "down", "miserable", "lonely", "heartbroken", "cry", "crying", "tears", "gloomy", "blue", "grief", "lost", "hopeless", "sorrow")
	add(core.MoodSad, 0.6, "tired", "bad", "meh", "bored", "empty")
	add(core.MoodEnergetic, 1.0, "energetic", "energized", "pumped", "hyped", "workout", "gym", "run", "running", "dance", "dancing", "party", "wild", "motivated", "power", "active")
	add(core.MoodEnergetic, 0.6, "awake", "ready", "upbeat", "fast")
	add(core.MoodCalm, 1.0, "calm", "relaxed", "relax", "relaxing", "peaceful", "chill", "quiet", "serene", "sleepy", "sleep", "rest", "mellow", "tranquil", "focus", "study")
	add(core.MoodCalm, 0.6, "slow", "soft", "cozy", "rainy")
	add(core.MoodAngry, 1.0, "angry", "mad", "furious", "rage", "annoyed", "frustrated", "irritated", "hate", "pissed", "livid")
	add(core.MoodAngry, 0.6, "stressed", "upset", "fed")
	add(core.MoodRomantic, 1.0, "love", "loving", "romantic", "romance", "crush", "date", "kiss", "darling", "sweetheart", "valentine", "passion", "passionate")
	add(core.MoodRomantic, 0.6, "heart", "together", "cuddle", "wedding")

	return lex
}

// negators flip the mood of a term that follows within negationWindow tokens.
var negators = map[string]struct{}{
	"not": {}, "no": {}, "never": {}, "dont": {}, "don't": {}, "isnt": {}, "isn't": {},
	"wasnt": {}, "wasn't": {}, "aint": {}, "ain't": {}, "cant": {}, "can't": {}, "nor": {}, "without": {},
}

// intensifiers scale the weight of the next lexicon term.
var intensifiers = map[string]float64{
	"very":       1.5,
	"so":         1.5,
	"really":     1.5,
	"extremely":  2.0,
	"super":      1.5,
	"totally":    1.5,
	"incredibly": 2.0,
	"slightly":   0.5,
	"somewhat":   0.5,
	"bit":        0.5,
}

// opposites gives the mood a negated term counts toward.
var opposites = map[core.Mood]core.Mood{
	core.MoodHappy:     core.MoodSad,
	core.MoodSad:       core.MoodHappy,
	core.MoodEnergetic: core.MoodCalm,
	core.MoodCalm:      core.MoodEnergetic,
	core.MoodAngry:     core.MoodCalm,
	core.MoodRomantic:  core.MoodSad,
}

// Opposite returns the mood a negated term of m counts toward.
func Opposite(m core.Mood) core.Mood {
	if o, ok := opposites[m]; ok {
		return o
	}
	return core.MoodCalm
}
