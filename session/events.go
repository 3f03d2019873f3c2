package session

import (
	"fmt"
	"time"

	"github.com/absmach/tabula/pipeline"
	"github.com/absmach/tabula/table"
)

const stageTopicTemplate = "sessions/%s/stages/%s"

// StageEvent is published after every committed stage.
type StageEvent struct {
	SessionID   string         `json:"session_id"`
	Stage       pipeline.Kind  `json:"stage"`
	State       pipeline.State `json:"state"`
	Version     uint64         `json:"version"`
	Fingerprint string         `json:"fingerprint"`
	Delta       *table.Delta   `json:"delta,omitempty"`
	Timestamp   time.Time      `json:"timestamp"`
}

// StageTopic returns the topic events for the given session and stage are
// published on. Pass "+" as stage to match every stage.
func StageTopic(sessionID, stage string) string {
	return fmt.Sprintf(stageTopicTemplate, sessionID, stage)
}
