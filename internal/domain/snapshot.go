package domain

import "strings"

// JobStatus is the tri-state outcome of one polling step. It only moves forward.
type JobStatus string

const (
	JobStatusPending JobStatus = "pending"
	JobStatusReady   JobStatus = "ready"
	JobStatusFailed  JobStatus = "failed"
)

func (s JobStatus) String() string {
	return string(s)
}

func (s JobStatus) IsTerminal() bool {
	return s == JobStatusReady || s == JobStatusFailed
}

// ParseJobStatus maps a provider status token onto a JobStatus.
// Unknown and empty tokens mean the job is still pending.
func ParseJobStatus(raw string) JobStatus {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "ready", "completed", "done":
		return JobStatusReady
	case "failed", "error":
		return JobStatusFailed
	default:
		return JobStatusPending
	}
}

type SnapshotFormat string

const (
	SnapshotFormatJSON SnapshotFormat = "json"
	SnapshotFormatCSV  SnapshotFormat = "csv"
)

func (f SnapshotFormat) IsValid() bool {
	return f == SnapshotFormatJSON || f == SnapshotFormatCSV
}

// Record is one raw provider row, either a decoded JSON object or a CSV row keyed by header.
type Record map[string]any
