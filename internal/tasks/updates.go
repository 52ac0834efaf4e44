package tasks

import (
	"fmt"

	"github.com/desertthunder/crate/internal/formatter"
)

// ProgressUpdate represents a progress event during a snapshot export.
//
// Used to send real-time updates to the CLI for display.
type ProgressUpdate struct {
	Phase   Phase  // Operation phase
	Step    int    // Current step number within phase
	Total   int    // Total steps in this phase, 0 when unknown
	Message string // Human-readable message for display
}

// Operation phase enumeration
type Phase int

const (
	FetchCatalog Phase = iota
	FetchSubscriptions
	WriteFiles
)

func (p Phase) String() string {
	switch p {
	case FetchCatalog:
		return "fetch_catalog"
	case FetchSubscriptions:
		return "fetch_subscriptions"
	case WriteFiles:
		return "write_files"
	default:
		return ""
	}
}

func fetchingPageUpdate(page, albums int) ProgressUpdate {
	return ProgressUpdate{
		Phase:   FetchCatalog,
		Step:    page,
		Message: fmt.Sprintf("Fetched catalog page %d (%d albums so far)", page, albums),
	}
}

func fetchingSubscriptionsUpdate() ProgressUpdate {
	return ProgressUpdate{
		Phase:   FetchSubscriptions,
		Step:    1,
		Total:   1,
		Message: "Fetching subscriptions...",
	}
}

func fileWrittenUpdate(step, total int, name string, format formatter.Format) ProgressUpdate {
	return ProgressUpdate{
		Phase:   WriteFiles,
		Step:    step,
		Total:   total,
		Message: fmt.Sprintf("Wrote %s (%s)", name, format),
	}
}

func fileFailedUpdate(step, total int, name, reason string) ProgressUpdate {
	return ProgressUpdate{
		Phase:   WriteFiles,
		Step:    step,
		Total:   total,
		Message: fmt.Sprintf("Failed to write %s: %s", name, reason),
	}
}
