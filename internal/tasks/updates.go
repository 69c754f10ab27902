package tasks

import (
	"fmt"

	"github.com/desertthunder/lovesync/internal/models"
)

// ProgressUpdate represents a progress event during a reconciliation run.
//
// Used to send real-time updates to the CLI layer for display.
type ProgressUpdate struct {
	Phase   Phase  // Operation phase
	Step    int    // Current step number within phase
	Total   int    // Total steps in this phase
	Message string // Human-readable message for display
	Data    any    // Optional phase-specific data
}

// Operation phase enumeration
type Phase int

const (
	FetchLocal Phase = iota
	FetchRemote
	Compare
	RemoveExtra
	AddMissing
)

func (p Phase) String() string {
	switch p {
	case FetchLocal:
		return "fetch_local"
	case FetchRemote:
		return "fetch_remote"
	case Compare:
		return "compare"
	case RemoveExtra:
		return "remove_extra"
	case AddMissing:
		return "add_missing"
	default:
		return ""
	}
}

// sendProgress sends a progress update through the channel without blocking.
func sendProgress(progress chan<- ProgressUpdate, update ProgressUpdate) {
	if progress == nil {
		return
	}
	select {
	case progress <- update:
	default:
		// Channel full, skip this update
	}
}

func fetchingUpdate(phase Phase, name string) ProgressUpdate {
	return ProgressUpdate{
		Phase:   phase,
		Step:    0,
		Total:   1,
		Message: fmt.Sprintf("Fetching favorites from %s...", name),
	}
}

func fetchedUpdate(phase Phase, snapshot models.Snapshot) ProgressUpdate {
	return ProgressUpdate{
		Phase:   phase,
		Step:    1,
		Total:   1,
		Message: fmt.Sprintf("Found %d favorites on %s", snapshot.Len(), snapshot.Source),
		Data:    snapshot,
	}
}

func compareUpdate(delta models.Delta) ProgressUpdate {
	return ProgressUpdate{
		Phase:   Compare,
		Step:    1,
		Total:   1,
		Message: fmt.Sprintf("%d missing, %d extra", len(delta.Missing), len(delta.Extra)),
		Data:    delta,
	}
}

func mutationUpdate(phase Phase, step, total int, song models.KeyedSong) ProgressUpdate {
	verb := "Loving"
	if phase == RemoveExtra {
		verb = "Unloving"
	}
	return ProgressUpdate{
		Phase:   phase,
		Step:    step,
		Total:   total,
		Message: fmt.Sprintf("[%d/%d] %s: %s - %s", step, total, verb, song.Artist, song.Title),
		Data:    song,
	}
}
