package tasks

import (
	"fmt"

	"github.com/desertthunder/ltx/internal/cache"
	"github.com/desertthunder/ltx/internal/models"
)

// ProgressUpdate represents a progress event during a sync run.
//
// Used to send real-time updates to the CLI layer for display.
type ProgressUpdate struct {
	Service string // Target the update belongs to
	Phase   Phase  // Operation phase
	Step    int    // Current step number within phase
	Total   int    // Total steps in this phase
	Message string // Human-readable message for display
	Data    any    // Optional phase-specific data
}

// Operation phase enumeration
type Phase int

const (
	Authenticate Phase = iota
	LoadCache
	Resolve
	SaveCache
	UpdatePlaylist
	Done
	Failed
)

func (p Phase) String() string {
	switch p {
	case Authenticate:
		return "authenticate"
	case LoadCache:
		return "load_cache"
	case Resolve:
		return "resolve"
	case SaveCache:
		return "save_cache"
	case UpdatePlaylist:
		return "update_playlist"
	case Done:
		return "done"
	case Failed:
		return "failed"
	default:
		return ""
	}
}

func authenticateUpdate(service string) ProgressUpdate {
	return ProgressUpdate{
		Service: service,
		Phase:   Authenticate,
		Step:    1,
		Total:   1,
		Message: fmt.Sprintf("Authenticating with %s...", service),
	}
}

func loadCacheUpdate(service string, entries int) ProgressUpdate {
	return ProgressUpdate{
		Service: service,
		Phase:   LoadCache,
		Step:    1,
		Total:   1,
		Message: fmt.Sprintf("Loaded %d cached entries for %s", entries, service),
	}
}

func searchUpdate(service string, step, total int, tr models.Track) ProgressUpdate {
	return ProgressUpdate{
		Service: service,
		Phase:   Resolve,
		Step:    step,
		Total:   total,
		Message: fmt.Sprintf("[%s %d/%d] %s", service, step, total, tr),
	}
}

func saveCacheUpdate(service string, pruned, entries int) ProgressUpdate {
	return ProgressUpdate{
		Service: service,
		Phase:   SaveCache,
		Step:    1,
		Total:   1,
		Message: fmt.Sprintf("Saved %d entries for %s (%d pruned)", entries, service, pruned),
	}
}

func updatePlaylistUpdate(service, playlistID string, tracks int) ProgressUpdate {
	return ProgressUpdate{
		Service: service,
		Phase:   UpdatePlaylist,
		Step:    1,
		Total:   1,
		Message: fmt.Sprintf("Replacing %s playlist %s with %d tracks...", service, playlistID, tracks),
	}
}

func doneUpdate(service string, stats cache.Stats) ProgressUpdate {
	return ProgressUpdate{
		Service: service,
		Phase:   Done,
		Step:    stats.Total,
		Total:   stats.Total,
		Message: fmt.Sprintf("✓ %s: %d/%d accepted", service, stats.Accepted, stats.Total),
		Data:    stats,
	}
}

func failedUpdate(service string, err error) ProgressUpdate {
	return ProgressUpdate{
		Service: service,
		Phase:   Failed,
		Step:    1,
		Total:   1,
		Message: fmt.Sprintf("✗ %s: %v", service, err),
	}
}
