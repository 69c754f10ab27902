// package identity derives the key used to match songs across services with different metadata
// conventions.
//
// Keys are deliberately lossy: edition markers in parentheses are dropped, so "Lights" and
// "Lights (Single Version)" share a key. When one source holds both, the [Policy] decides which
// one survives.
package identity

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/desertthunder/lovesync/internal/models"
	"github.com/desertthunder/lovesync/internal/shared"
)

var (
	leadingArticle = regexp.MustCompile(`(?i)^(the|el|la|los|las|le|les)\s+`)
	nonLetters     = regexp.MustCompile(`(?i)[^a-z]+`)

	// Non-greedy, so a nested group like "(a (b) c)" stops at the first ")" and leaves " c)".
	parenthetical = regexp.MustCompile(`\(.*?\)`)
)

// NormalizeArtist strips one leading article and everything that is not an ASCII letter.
func NormalizeArtist(artist string) string {
	artist = leadingArticle.ReplaceAllString(artist, "")
	artist = nonLetters.ReplaceAllString(artist, "")
	return strings.ToLower(artist)
}

// NormalizeTitle removes parenthesized spans and everything that is not an ASCII letter.
func NormalizeTitle(title string) string {
	title = parenthetical.ReplaceAllString(title, "")
	title = nonLetters.ReplaceAllString(title, "")
	return strings.TrimSpace(strings.ToLower(title))
}

// Normalize returns the identity key "{artist}-{title}" for a song.
//
// It never fails. Empty segments are allowed, so an artist made only of punctuation yields "-title".
func Normalize(artist, title string) string {
	return NormalizeArtist(artist) + "-" + NormalizeTitle(title)
}

// Key is shorthand for [Normalize] on a [models.Song].
func Key(s models.Song) string {
	return Normalize(s.Artist, s.Title)
}

// Policy decides what happens when two songs of one source share a key.
type Policy int

const (
	// KeepLast lets every later song overwrite the earlier one. The entry keeps the position of the
	// first occurrence.
	KeepLast Policy = iota
	// KeepFirst ignores every song after the first with a given key.
	KeepFirst
	// KeepAll performs no deduplication.
	KeepAll
)

func (p Policy) String() string {
	switch p {
	case KeepLast:
		return "keep-last"
	case KeepFirst:
		return "keep-first"
	case KeepAll:
		return "keep-all"
	default:
		return ""
	}
}

// ParsePolicy maps a configuration value to a [Policy]. The empty string selects [KeepLast].
func ParsePolicy(s string) (Policy, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "keep-last", "last":
		return KeepLast, nil
	case "keep-first", "first":
		return KeepFirst, nil
	case "keep-all", "all":
		return KeepAll, nil
	default:
		return KeepLast, fmt.Errorf("%w: unknown collision policy %q (want keep-last, keep-first or keep-all)", shared.ErrInvalidArgument, s)
	}
}

// Build keys every song of a source and folds them into a [models.Snapshot] according to policy.
func Build(source string, songs []models.Song, policy Policy) models.Snapshot {
	snapshot := models.Snapshot{Source: source, Songs: make([]models.KeyedSong, 0, len(songs))}
	index := make(map[string]int, len(songs))

	for _, song := range songs {
		keyed := models.KeyedSong{Artist: song.Artist, Title: song.Title, Key: Key(song)}

		if policy == KeepAll {
			snapshot.Songs = append(snapshot.Songs, keyed)
			continue
		}

		i, seen := index[keyed.Key]
		switch {
		case !seen:
			index[keyed.Key] = len(snapshot.Songs)
			snapshot.Songs = append(snapshot.Songs, keyed)
		case policy == KeepLast:
			snapshot.Songs[i] = keyed
		}
	}

	return snapshot
}

// Collisions returns, for each key that appears more than once in songs, every song mapping to it in
// source order. Used to warn the operator about songs that a deduplicating policy drops.
func Collisions(songs []models.Song) map[string][]models.Song {
	byKey := make(map[string][]models.Song)
	for _, song := range songs {
		k := Key(song)
		byKey[k] = append(byKey[k], song)
	}

	for k, group := range byKey {
		if len(group) < 2 {
			delete(byKey, k)
		}
	}
	return byKey
}
