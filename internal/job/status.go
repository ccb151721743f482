// Package job defines the lifecycle state machine for scraping jobs.
//
// Valid status graph:
//
//	PENDING ──► RUNNING ──► COMPLETED
//	                │
//	                └─────► FAILED
//
// COMPLETED and FAILED are terminal states. A job is created directly in
// RUNNING by the discovery stage; PENDING is reserved for queued runs.
package job

import "fmt"

// Status values mirror the status column of scraping_jobs in PostgreSQL.
type Status string

const (
	StatusPending   Status = "pending"
	StatusRunning   Status = "running"
	StatusCompleted Status = "completed"
	StatusFailed    Status = "failed"
)

// validTransitions lists every allowed (from → to) pair.
var validTransitions = map[Status][]Status{
	StatusPending: {StatusRunning},
	StatusRunning: {StatusCompleted, StatusFailed},
	// COMPLETED and FAILED are terminal — no outgoing transitions
}

// ParseStatus converts a raw string to a Status, returning an error for
// unknown values.
func ParseStatus(s string) (Status, error) {
	st := Status(s)
	switch st {
	case StatusPending, StatusRunning, StatusCompleted, StatusFailed:
		return st, nil
	}
	return "", fmt.Errorf("unknown job status %q", s)
}

// IsTransitionAllowed returns true when moving from → to is permitted by the
// state machine.
func IsTransitionAllowed(from, to Status) bool {
	allowed, ok := validTransitions[from]
	if !ok {
		return false // terminal state — no outgoing transitions
	}
	for _, s := range allowed {
		if s == to {
			return true
		}
	}
	return false
}

// IsTerminal returns true for COMPLETED and FAILED. Re-running a source
// never resurrects a terminal job; a new one is created instead.
func IsTerminal(s Status) bool {
	return s == StatusCompleted || s == StatusFailed
}
