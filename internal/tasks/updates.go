package tasks

import (
	"fmt"

	"github.com/desertthunder/tunex/internal/models"
)

// ProgressUpdate represents a progress event during a long-running operation.
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
	FetchCollection Phase = iota
	ExportCollection
)

func (p Phase) String() string {
	switch p {
	case FetchCollection:
		return "fetch_collection"
	case ExportCollection:
		return "export_collection"
	default:
		return ""
	}
}

func fetchingUpdate(total int, kind models.Kind) ProgressUpdate {
	return ProgressUpdate{
		Phase:   FetchCollection,
		Step:    0,
		Total:   total,
		Message: fmt.Sprintf("Fetching %d %ss...", total, kind),
	}
}

func exportingUpdate(step, total int, c *Collection) ProgressUpdate {
	return ProgressUpdate{
		Phase:   FetchCollection,
		Step:    step,
		Total:   total,
		Message: fmt.Sprintf("[%d/%d] Exporting: %s (%d songs)...", step, total, c.Name, len(c.Songs)),
		Data:    c,
	}
}

func exportCompletedUpdate(step, total int, name string, filesCount int) ProgressUpdate {
	return ProgressUpdate{
		Phase:   ExportCollection,
		Step:    step,
		Total:   total,
		Message: fmt.Sprintf("[%d/%d] ✓ %s (%d files)", step, total, name, filesCount),
	}
}

func exportFailedUpdate(step, total int, name string, err error) ProgressUpdate {
	return ProgressUpdate{
		Phase:   ExportCollection,
		Step:    step,
		Total:   total,
		Message: fmt.Sprintf("[%d/%d] ✗ %s: %v", step, total, name, err),
	}
}
