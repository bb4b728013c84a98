package domain

import "github.com/google/uuid"

type ProgressStage string

const (
	ProgressProbeComplete     ProgressStage = "probe_complete"
	ProgressTeachingStart     ProgressStage = "teaching_start"
	ProgressTeachingComplete  ProgressStage = "teaching_complete"
	ProgressStoneStart        ProgressStage = "stone_start"
	ProgressStoneComplete     ProgressStage = "stone_complete"
	ProgressFinalAttemptStart ProgressStage = "final_attempt_start"
	ProgressFinalAttemptDone  ProgressStage = "final_attempt_complete"
	ProgressRewardComputed    ProgressStage = "reward_computed"
	ProgressScanStart         ProgressStage = "contradiction_scan_start"
	ProgressScanComplete      ProgressStage = "contradiction_scan_complete"
	ProgressIterationComplete ProgressStage = "iteration_complete"
	ProgressSessionComplete   ProgressStage = "session_complete"
	ProgressSessionAborted    ProgressStage = "session_aborted"
)

// ProgressEvent is emitted at well-defined checkpoints. It is observational
// only: handlers must never block or influence control flow.
type ProgressEvent struct {
	SessionID uuid.UUID      `json:"session_id"`
	Stage     ProgressStage  `json:"stage"`
	Iteration int            `json:"iteration"`
	Detail    map[string]any `json:"detail,omitempty"`
}

type ProgressFunc func(ProgressEvent)
