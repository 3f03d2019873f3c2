// Package session manages preprocessing sessions. Each session owns exactly
// one dataset and the pipeline controller that transforms it.
package session

import (
	"context"
	"time"

	"github.com/absmach/tabula/compute"
	"github.com/absmach/tabula/pipeline"
	"github.com/absmach/tabula/session/samples"
)

type Format string

const (
	CSV  Format = "csv"
	XLSX Format = "xlsx"
)

// Upload is a dataset submitted to start a session.
type Upload struct {
	Name   string
	Format Format
	Data   []byte
	Sheet  string
	Task   compute.TaskKind
}

type Session struct {
	ID        string           `json:"id"`
	Name      string           `json:"name"`
	Source    string           `json:"source,omitempty"`
	Task      compute.TaskKind `json:"task"`
	CreatedAt time.Time        `json:"created_at"`
	UpdatedAt time.Time        `json:"updated_at"`
}

type SessionPage struct {
	Offset   uint64    `json:"offset"`
	Limit    uint64    `json:"limit"`
	Total    uint64    `json:"total"`
	Sessions []Session `json:"sessions"`
}

// View is a session with its store contents and a preview window of the
// current dataset.
type View struct {
	Session

	Dataset pipeline.View `json:"dataset"`
	Header  []string      `json:"header"`
	Preview [][]string    `json:"preview"`
}

// StageResult is a committed stage with the resulting dataset fingerprint.
type StageResult struct {
	SessionID string `json:"session_id"`
	pipeline.Result

	Fingerprint string `json:"fingerprint"`
}

// TrainingInput is what model training consumes. Classes[k] is the class
// behind label k when the target was label-encoded.
type TrainingInput struct {
	SessionID string           `json:"session_id"`
	Target    string           `json:"target"`
	Task      compute.TaskKind `json:"task"`
	XTrain    [][]string       `json:"x_train"`
	XTest     [][]string       `json:"x_test"`
	YTrain    []float64        `json:"y_train"`
	YTest     []float64        `json:"y_test"`
	Classes   []string         `json:"classes,omitempty"`
}

type Sample = samples.Sample

type Service interface {
	CreateSession(ctx context.Context, upload Upload) (Session, error)
	CloneSample(ctx context.Context, sampleID string, task compute.TaskKind) (Session, error)
	ListSamples(ctx context.Context) ([]Sample, error)
	GetSession(ctx context.Context, id string, previewRows int) (View, error)
	ListSessions(ctx context.Context, offset, limit uint64) (SessionPage, error)
	SetTarget(ctx context.Context, id, target string) (View, error)
	RunStage(ctx context.Context, id string, stage pipeline.Stage) (StageResult, error)
	GetSplit(ctx context.Context, id string) (TrainingInput, error)
	Train(ctx context.Context, id, model string) (compute.TrainResult, error)
	ClearSession(ctx context.Context, id string) error
}
