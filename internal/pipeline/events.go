// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package pipeline

// Stage identifies one step of the pipeline in client-facing events.
type Stage string

// Stages, in the order the pipeline runs them. StageComplete and
// StageError are terminal and never carry an in-progress event.
const (
	StageQueryProcessing Stage = "query_processing"
	StageSearching       Stage = "searching"
	StageRanking         Stage = "ranking"
	StageSummarizing     Stage = "summarizing"
	StageFiltering       Stage = "filtering"
	StageAnalysis        Stage = "analysis"
	StageFormatting      Stage = "formatting"
	StageComplete        Stage = "complete"
	StageError           Stage = "error"
)

// StatusComplete marks the second of the two events every non-terminal
// stage emits.
const StatusComplete = "Complete"

// StageEvent is one progress notification streamed to the client. Events
// are transient and never persisted.
type StageEvent struct {
	Stage  Stage  `json:"stage"`
	Status string `json:"status"`
	Data   any    `json:"data,omitempty"`
}

// EventSink receives stage events in emission order. A sink error stops
// the run at the next suspension point; the orchestrator does not retry
// delivery.
type EventSink func(StageEvent) error
