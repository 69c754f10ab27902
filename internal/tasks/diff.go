package tasks

import "github.com/desertthunder/lovesync/internal/models"

// Diff compares two keyed snapshots by key alone.
//
// Missing holds the local songs whose key is absent remotely, in local order. Extra holds the remote
// songs whose key is absent locally, in remote order. Both slices are non-nil.
func Diff(local, remote models.Snapshot) models.Delta {
	localKeys := local.Keys()
	remoteKeys := remote.Keys()

	delta := models.Delta{
		Missing: []models.KeyedSong{},
		Extra:   []models.KeyedSong{},
	}

	for _, song := range local.Songs {
		if _, found := remoteKeys[song.Key]; !found {
			delta.Missing = append(delta.Missing, song)
		}
	}

	for _, song := range remote.Songs {
		if _, found := localKeys[song.Key]; !found {
			delta.Extra = append(delta.Extra, song)
		}
	}

	return delta
}
