package generator

import (
	"fmt"
	"time"
)

// Workflow stage names, in execution order.
const (
	StagePlanning = "planning"
	StageCitation = "citation"
	StageWriting  = "writing"
	StageSEO      = "seo"
)

// EventType identifies a progress event.
type EventType string

const (
	EventStageStarted   EventType = "stage.started"
	EventStageCompleted EventType = "stage.completed"
	EventStageFailed    EventType = "stage.failed"
)

// Event reports stage progress to a run observer.
type Event struct {
	Type      EventType     `json:"type"`
	Stage     string        `json:"stage"`
	Duration  time.Duration `json:"duration,omitempty"`
	Error     string        `json:"error,omitempty"`
	Timestamp time.Time     `json:"timestamp"`
}

// StageError wraps the failure of a single stage.
type StageError struct {
	Stage string
	Err   error
}

func (e *StageError) Error() string {
	return fmt.Sprintf("%s stage: %v", e.Stage, e.Err)
}

func (e *StageError) Unwrap() error { return e.Err }
