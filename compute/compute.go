// Package compute defines the contract with the dataset-processing service
// that executes preprocessing stages. Every call carries the complete
// snapshot and is a single request/response round trip.
package compute

import (
	"context"
	"errors"
	"fmt"

	"github.com/absmach/tabula/table"
)

// ErrRemoteCompute matches every *RemoteComputeError.
var ErrRemoteCompute = errors.New("remote compute failed")

// Stage names used on the wire and in errors.
const (
	StageStatistics    = "statistics"
	StageMissingCheck  = "missing-check"
	StageMissingHandle = "missing-handle"
	StageEncode        = "encode"
	StageScale         = "scale"
	StageSplit         = "split"
	StageRestore       = "restore"
	StageRegister      = "register"
	StageTrain         = "train"
)

// TaskKind is the learning task the dataset is prepared for.
type TaskKind string

const (
	Regression     TaskKind = "regression"
	Classification TaskKind = "classification"
)

// Valid reports whether k is a known task kind.
func (k TaskKind) Valid() bool {
	return k == Regression || k == Classification
}

// ScaleMethod selects the feature scaler.
type ScaleMethod string

const (
	Standard ScaleMethod = "standard"
	MinMax   ScaleMethod = "minmax"
)

// Valid reports whether m is a known scaling method.
func (m ScaleMethod) Valid() bool {
	return m == Standard || m == MinMax
}

// Provenance is the handle used to resubmit or recall a dataset. Raw holds
// the original upload bytes when the dataset lives only on this side;
// DatasetID is set when the compute service retains the original.
type Provenance struct {
	Raw       []byte `json:"-"`
	DatasetID string `json:"dataset_id,omitempty"`
}

// Retained reports whether the compute service holds the original.
func (p Provenance) Retained() bool {
	return p.DatasetID != ""
}

// Snapshot is one complete version of a session's dataset.
type Snapshot struct {
	Table      table.Table
	Provenance Provenance
}

// ColumnStatistics maps a column to its statistic values (numbers or strings).
type ColumnStatistics map[string]map[string]any

// MissingReport maps a column to its count of missing cells.
type MissingReport map[string]int

// SplitArtifacts are the train/test partitions produced by the split stage.
// X tables exclude the target column; Y slices align row-for-row with them.
type SplitArtifacts struct {
	XTrain table.Table `json:"x_train"`
	XTest  table.Table `json:"x_test"`
	YTrain []float64   `json:"y_train"`
	YTest  []float64   `json:"y_test"`
}

// Validate checks the alignment invariants of the artifacts.
func (a SplitArtifacts) Validate(target string) error {
	if err := a.XTrain.Validate(); err != nil {
		return fmt.Errorf("x_train: %w", err)
	}
	if err := a.XTest.Validate(); err != nil {
		return fmt.Errorf("x_test: %w", err)
	}
	if a.XTrain.NumRows() != len(a.YTrain) {
		return fmt.Errorf("x_train has %d rows, y_train has %d labels", a.XTrain.NumRows(), len(a.YTrain))
	}
	if a.XTest.NumRows() != len(a.YTest) {
		return fmt.Errorf("x_test has %d rows, y_test has %d labels", a.XTest.NumRows(), len(a.YTest))
	}
	if a.XTrain.HasColumn(target) || a.XTest.HasColumn(target) {
		return fmt.Errorf("target %q present in feature tables", target)
	}

	return nil
}

// Service executes preprocessing stages against a full snapshot.
type Service interface {
	ComputeStatistics(ctx context.Context, s Snapshot) (ColumnStatistics, error)
	CheckMissing(ctx context.Context, s Snapshot) (MissingReport, error)
	HandleMissing(ctx context.Context, s Snapshot, target string, kind TaskKind) (table.Table, []string, error)
	// EncodeCategorical also returns the target classes in label order when
	// the target was label-encoded, and nil otherwise.
	EncodeCategorical(ctx context.Context, s Snapshot, target string) (table.Table, []string, error)
	// ScaleFeatures also returns the service's note on what was scaled.
	ScaleFeatures(ctx context.Context, s Snapshot, method ScaleMethod, target string) (table.Table, string, error)
	SplitDataset(ctx context.Context, s Snapshot, target string, testFraction int, kind TaskKind) (SplitArtifacts, error)
	RestoreOriginal(ctx context.Context, s Snapshot) (table.Table, error)
}

// Registry is implemented by services that can retain an original dataset
// and hand it back on restore.
type Registry interface {
	RegisterDataset(ctx context.Context, name string, raw []byte) (string, error)
}

// TrainRequest is what the training collaborator receives. Feature tables are
// sent header row first.
type TrainRequest struct {
	ModelName string     `json:"model_name"`
	XTrain    [][]string `json:"X_train"`
	YTrain    []float64  `json:"y_train"`
	XTest     [][]string `json:"X_test"`
	YTest     []float64  `json:"y_test"`
	SessionID string     `json:"session_id"`
	Task      TaskKind   `json:"-"`
}

// TrainResult is returned by the training collaborator and not interpreted.
type TrainResult struct {
	Message   string         `json:"message"`
	Metrics   map[string]any `json:"metrics"`
	ModelInfo map[string]any `json:"model_info"`
}

// Trainer forwards split artifacts to model training.
type Trainer interface {
	Train(ctx context.Context, req TrainRequest) (TrainResult, error)
}

// RemoteComputeError reports a failed round trip or an invalid response.
type RemoteComputeError struct {
	Stage string
	Cause error
}

// NewError wraps cause as a failure of stage.
func NewError(stage string, cause error) *RemoteComputeError {
	return &RemoteComputeError{Stage: stage, Cause: cause}
}

func (e *RemoteComputeError) Error() string {
	if e.Cause == nil {
		return fmt.Sprintf("remote compute %s failed", e.Stage)
	}

	return fmt.Sprintf("remote compute %s failed: %s", e.Stage, e.Cause)
}

func (e *RemoteComputeError) Unwrap() error {
	return e.Cause
}

func (e *RemoteComputeError) Is(target error) bool {
	return target == ErrRemoteCompute
}
