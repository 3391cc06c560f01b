package constants

// RunStatus is the canonical status for rows in runs.
type RunStatus string

// Stable values (store these exact strings in the DB).
const (
	RunStatusQueued    RunStatus = "QUEUED"    // accepted, not yet processing
	RunStatusRunning   RunStatus = "RUNNING"   // pipeline in progress
	RunStatusCompleted RunStatus = "COMPLETED" // terminal success (zero biomarkers is still success)
	RunStatusFailed    RunStatus = "FAILED"    // terminal failure
)
