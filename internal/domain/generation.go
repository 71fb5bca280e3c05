package domain

import "time"

// GenerationStatus is the outcome of one AI invocation.
type GenerationStatus string

const (
	GenerationSuccess         GenerationStatus = "success"
	GenerationFailure         GenerationStatus = "failure"
	GenerationValidationError GenerationStatus = "validation_error"
)

// GenerationLogEntry is an immutable record of one AI invocation attempt.
type GenerationLogEntry struct {
	ID             string
	QueueRef       string
	ContentType    ContentType
	TargetSlug     string
	PromptLength   int
	ResponseLength int
	DurationMS     int64
	Status         GenerationStatus
	ErrorDetail    string
	CreatedAt      time.Time
}

// BatchResult counts the terminal outcomes of one orchestrator batch.
// Processed always equals Success + Failed + Skipped.
type BatchResult struct {
	Processed int `json:"processed"`
	Success   int `json:"success"`
	Failed    int `json:"failed"`
	Skipped   int `json:"skipped"`
}

// Record adds one terminal outcome.
func (b *BatchResult) Record(outcome Status) {
	switch outcome {
	case StatusCompleted:
		b.Success++
	case StatusSkipped:
		b.Skipped++
	default:
		b.Failed++
	}
	b.Processed++
}

// PopulateResult describes one populator pass.
type PopulateResult struct {
	Candidates  int `json:"candidates"`
	Outstanding int `json:"outstanding"`
	Published   int `json:"published"`
	Enqueued    int `json:"enqueued"`
}

// RunSummary is returned by a pipeline run. Skipped is set when another run
// held the guard and nothing was touched.
type RunSummary struct {
	Skipped       bool            `json:"skipped"`
	Reaped        int             `json:"reaped,omitempty"`
	Populate      *PopulateResult `json:"populate,omitempty"`
	PopulateError string          `json:"populate_error,omitempty"`
	Batch         BatchResult     `json:"batch"`
	StartedAt     time.Time       `json:"started_at"`
	Duration      time.Duration   `json:"duration"`
}
