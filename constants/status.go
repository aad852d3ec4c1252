package constants

// RunStatus is the canonical status for rows in runs.
type RunStatus string

// Stable values (store these exact strings in DB).
const (
	RunStatusSucceeded RunStatus = "SUCCEEDED" // schedule extracted and aggregated
	RunStatusNoData    RunStatus = "NO_DATA"   // response carried no usable structured block
	RunStatusFailed    RunStatus = "FAILED"    // upstream or internal failure
)
