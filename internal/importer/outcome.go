package importer

import (
	"errors"
	"sort"
)

// Error taxonomy for per-file failures. All of these are file-scoped and
// never abort the batch.
var (
	ErrNotFound        = errors.New("source not found")
	ErrInvalidSource   = errors.New("source cannot contain destination")
	ErrUnsupportedFile = errors.New("unsupported file")
	ErrPlacement       = errors.New("placement failed")
)

// Status is the terminal state of one file's import.
type Status int

const (
	StatusSuccess Status = iota
	StatusSkipped
	StatusFailed
)

func (s Status) String() string {
	switch s {
	case StatusSuccess:
		return "success"
	case StatusSkipped:
		return "skipped"
	default:
		return "failed"
	}
}

// Outcome is the result of one file, independent of all others.
type Outcome struct {
	Source      string
	Destination string
	Status      Status
	Reason      string
}

// Report aggregates outcomes for one batch.
type Report struct {
	Outcomes []Outcome
}

// Add appends an outcome. Callers serialize access (the importer holds its
// reporting lock).
func (r *Report) Add(outcome Outcome) {
	r.Outcomes = append(r.Outcomes, outcome)
}

// Counts returns success, skipped, and failed totals.
func (r *Report) Counts() (success, skipped, failed int) {
	for _, outcome := range r.Outcomes {
		switch outcome.Status {
		case StatusSuccess:
			success++
		case StatusSkipped:
			skipped++
		default:
			failed++
		}
	}
	return success, skipped, failed
}

// HasFailures reports whether any file failed; it drives the process exit
// status. Skipped files are not failures.
func (r *Report) HasFailures() bool {
	for _, outcome := range r.Outcomes {
		if outcome.Status == StatusFailed {
			return true
		}
	}
	return false
}

// Sorted returns the outcomes ordered by source path for deterministic
// rendering.
func (r *Report) Sorted() []Outcome {
	sorted := make([]Outcome, len(r.Outcomes))
	copy(sorted, r.Outcomes)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].Source < sorted[j].Source })
	return sorted
}
