package tasks

import "fmt"

// ProgressUpdate represents a progress event during a long-running operation.
//
// Used to send real-time updates to the CLI or UI layer for display.
type ProgressUpdate struct {
	Phase   Phase  // Operation phase
	Step    int    // Current step number within phase
	Total   int    // Total steps in this phase
	Message string // Human-readable message for display
	Data    any    // Optional phase-specific data for advanced UIs
}

// Operation phase enumeration
type Phase int

const (
	Queue Phase = iota
	Recommend
	WriteManifest
)

func (p Phase) String() string {
	switch p {
	case Queue:
		return "queue"
	case Recommend:
		return "recommend"
	case WriteManifest:
		return "write_manifest"
	default:
		return ""
	}
}

func queuedUpdate(total, workers int) ProgressUpdate {
	return ProgressUpdate{
		Phase:   Queue,
		Step:    0,
		Total:   total,
		Message: fmt.Sprintf("Queued %d seeds across %d workers...", total, workers),
	}
}

func seedCompletedUpdate(step, total int, res SeedResult) ProgressUpdate {
	label := res.Seed
	if res.SeedName != "" {
		label = fmt.Sprintf("%s (%s)", res.Seed, res.SeedName)
	}
	return ProgressUpdate{
		Phase:   Recommend,
		Step:    step,
		Total:   total,
		Message: fmt.Sprintf("[%d/%d] ✓ %s: %d songs", step, total, label, res.Items),
		Data:    res,
	}
}

func seedFailedUpdate(step, total int, res SeedResult) ProgressUpdate {
	return ProgressUpdate{
		Phase:   Recommend,
		Step:    step,
		Total:   total,
		Message: fmt.Sprintf("[%d/%d] ✗ %s: %s", step, total, res.Seed, res.Message),
		Data:    res,
	}
}

func manifestUpdate(total int, path string) ProgressUpdate {
	return ProgressUpdate{
		Phase:   WriteManifest,
		Step:    total,
		Total:   total,
		Message: fmt.Sprintf("Wrote %s", path),
		Data:    path,
	}
}
