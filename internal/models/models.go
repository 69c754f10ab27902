package models

import "time"

// Song is a favorite as returned by a source.
type Song struct {
	Artist string `json:"artist"`
	Title  string `json:"title"`
}

// String formats the song as "Artist - Title".
func (s Song) String() string {
	return s.Artist + " - " + s.Title
}

// KeyedSong is a [Song] with its identity key.
//
// Key alone decides equality when diffing. Artist and Title are kept for display and because remote
// mutations need the original strings.
type KeyedSong struct {
	Artist string `json:"artist"`
	Title  string `json:"title"`
	Key    string `json:"key"`
}

// Song drops the key.
func (k KeyedSong) Song() Song {
	return Song{Artist: k.Artist, Title: k.Title}
}

// Snapshot is the ordered favorite list of one source.
type Snapshot struct {
	Source string      `json:"source"`
	Songs  []KeyedSong `json:"songs"`
}

// Len returns the number of songs in the snapshot.
func (s Snapshot) Len() int {
	return len(s.Songs)
}

// Keys returns the set of keys present in the snapshot.
func (s Snapshot) Keys() map[string]struct{} {
	keys := make(map[string]struct{}, len(s.Songs))
	for _, song := range s.Songs {
		keys[song.Key] = struct{}{}
	}
	return keys
}

// Delta describes what must change on the remote loved list.
//
// Missing songs are local favorites absent from the remote list. Extra songs are loved remotely but
// not favorited locally.
type Delta struct {
	Missing []KeyedSong `json:"missing"`
	Extra   []KeyedSong `json:"extra"`
}

// Empty reports whether the two lists already agree.
func (d Delta) Empty() bool {
	return len(d.Missing) == 0 && len(d.Extra) == 0
}

// Total is the number of remote mutations the delta implies.
func (d Delta) Total() int {
	return len(d.Missing) + len(d.Extra)
}

// Session is a cached scrobble service session key.
type Session struct {
	ID         string    `json:"id"`
	Service    string    `json:"service"`
	Username   string    `json:"username"`
	SessionKey string    `json:"-"`
	CreatedAt  time.Time `json:"created_at"`
	UpdatedAt  time.Time `json:"updated_at"`
}
