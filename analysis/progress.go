package analysis

import "time"

// State describes the orchestrator's run lifecycle. A run moves
// idle → running → one terminal outcome, then the orchestrator returns to
// idle; the terminal outcome stays readable via LastOutcome.
type State string

const (
	StateIdle      State = "idle"
	StateRunning   State = "running"
	StateCompleted State = "completed"
	StateFailed    State = "failed"
	StateCancelled State = "cancelled"
)

// Progress is a point-in-time snapshot of the in-flight run. It lives in a
// single slot overwritten by the orchestrator: observers see the latest
// state, not every intermediate update.
type Progress struct {
	StartedAt      time.Time `json:"started_at"`
	CurrentFile    string    `json:"current_file,omitempty"`
	FilesProcessed int       `json:"files_processed"`
	// TotalFiles is 0 while unknown; incremental runs learn it once the
	// changed set has been enumerated.
	TotalFiles      int  `json:"total_files,omitempty"`
	ViolationsFound int  `json:"violations_found"`
	Running         bool `json:"running"`
}
