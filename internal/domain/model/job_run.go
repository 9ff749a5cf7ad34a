package model

import "time"

type JobRunStatus string

const (
	JobRunStatusSuccess     JobRunStatus = "success"
	JobRunStatusPartialFail JobRunStatus = "partial_fail"
)

// JobRun is the immutable audit record of one lifecycle sweep.
type JobRun struct {
	ID             string // ULID, sortable by run time
	JobName        string
	Status         JobRunStatus
	ProcessedCount int
	Errors         []string
	FinishedAt     time.Time
}
