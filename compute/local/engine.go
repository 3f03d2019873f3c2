// Package local implements the dataset-processing stages in-process. It backs
// the compute service binary and doubles as an in-memory compute.Service.
package local

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/absmach/tabula/compute"
	"github.com/absmach/tabula/pkg/storage"
	"github.com/absmach/tabula/table"
	"github.com/google/uuid"
)

// DefaultSeed matches the random state used for splits by the original backend.
const DefaultSeed = 42

// ErrInvalidInput reports a request the stage cannot be applied to.
var ErrInvalidInput = errors.New("invalid input")

var (
	_ compute.Service  = (*Engine)(nil)
	_ compute.Registry = (*Engine)(nil)
)

type Config struct {
	Seed     uint64
	Datasets storage.Storage
}

type Engine struct {
	seed     uint64
	datasets storage.Storage
}

// dataset is the stored form of a registered upload.
type dataset struct {
	ID   string `json:"id"`
	Name string `json:"name"`
	Data []byte `json:"data"`
}

func New(cfg Config) *Engine {
	if cfg.Datasets == nil {
		cfg.Datasets = storage.NewInMemoryStorage()
	}

	return &Engine{
		seed:     cfg.Seed,
		datasets: cfg.Datasets,
	}
}

func (e *Engine) ComputeStatistics(_ context.Context, s compute.Snapshot) (compute.ColumnStatistics, error) {
	if err := s.Table.Validate(); err != nil {
		return nil, compute.NewError(compute.StageStatistics, err)
	}

	return statistics(s.Table), nil
}

func (e *Engine) CheckMissing(_ context.Context, s compute.Snapshot) (compute.MissingReport, error) {
	if err := s.Table.Validate(); err != nil {
		return nil, compute.NewError(compute.StageMissingCheck, err)
	}

	return missingReport(s.Table), nil
}

func (e *Engine) HandleMissing(_ context.Context, s compute.Snapshot, target string, kind compute.TaskKind) (table.Table, []string, error) {
	if err := s.Table.Validate(); err != nil {
		return table.Table{}, nil, compute.NewError(compute.StageMissingHandle, err)
	}
	if !kind.Valid() {
		return table.Table{}, nil, compute.NewError(compute.StageMissingHandle, fmt.Errorf("%w: unknown task %q", ErrInvalidInput, kind))
	}

	t, changes, err := handleMissing(s.Table, target, kind)
	if err != nil {
		return table.Table{}, nil, compute.NewError(compute.StageMissingHandle, err)
	}

	return t, changes, nil
}

func (e *Engine) EncodeCategorical(_ context.Context, s compute.Snapshot, target string) (table.Table, []string, error) {
	if err := s.Table.Validate(); err != nil {
		return table.Table{}, nil, compute.NewError(compute.StageEncode, err)
	}

	t, classes, err := encode(s.Table, target)
	if err != nil {
		return table.Table{}, nil, compute.NewError(compute.StageEncode, err)
	}

	return t, classes, nil
}

func (e *Engine) ScaleFeatures(_ context.Context, s compute.Snapshot, method compute.ScaleMethod, target string) (table.Table, string, error) {
	if err := s.Table.Validate(); err != nil {
		return table.Table{}, "", compute.NewError(compute.StageScale, err)
	}
	if !method.Valid() {
		return table.Table{}, "", compute.NewError(compute.StageScale, fmt.Errorf("%w: unknown scaling method %q", ErrInvalidInput, method))
	}

	t, msg, err := scale(s.Table, method, target)
	if err != nil {
		return table.Table{}, "", compute.NewError(compute.StageScale, err)
	}

	return t, msg, nil
}

func (e *Engine) SplitDataset(_ context.Context, s compute.Snapshot, target string, testFraction int, kind compute.TaskKind) (compute.SplitArtifacts, error) {
	if err := s.Table.Validate(); err != nil {
		return compute.SplitArtifacts{}, compute.NewError(compute.StageSplit, err)
	}
	if !kind.Valid() {
		return compute.SplitArtifacts{}, compute.NewError(compute.StageSplit, fmt.Errorf("%w: unknown task %q", ErrInvalidInput, kind))
	}

	a, err := split(s.Table, target, testFraction, kind, e.seed)
	if err != nil {
		return compute.SplitArtifacts{}, compute.NewError(compute.StageSplit, err)
	}

	return a, nil
}

// RestoreOriginal reparses the raw upload, or loads the registered dataset
// when the snapshot carries a dataset id.
func (e *Engine) RestoreOriginal(ctx context.Context, s compute.Snapshot) (table.Table, error) {
	if s.Provenance.Retained() {
		return e.Restore(ctx, s.Provenance.DatasetID)
	}

	t, err := table.Parse(s.Provenance.Raw)
	if err != nil {
		return table.Table{}, compute.NewError(compute.StageRestore, err)
	}

	return t, nil
}

// RegisterDataset stores the raw upload and returns its id.
func (e *Engine) RegisterDataset(ctx context.Context, name string, raw []byte) (string, error) {
	if _, err := table.Parse(raw); err != nil {
		return "", compute.NewError(compute.StageRegister, err)
	}

	d := dataset{
		ID:   uuid.NewString(),
		Name: name,
		Data: raw,
	}
	data, err := json.Marshal(d)
	if err != nil {
		return "", compute.NewError(compute.StageRegister, err)
	}
	if err := e.datasets.Create(ctx, d.ID, data); err != nil {
		return "", compute.NewError(compute.StageRegister, err)
	}

	return d.ID, nil
}

// Restore returns the registered dataset with the given id.
func (e *Engine) Restore(ctx context.Context, id string) (table.Table, error) {
	val, err := e.datasets.Get(ctx, id)
	if err != nil {
		return table.Table{}, compute.NewError(compute.StageRestore, err)
	}
	data, ok := val.([]byte)
	if !ok {
		return table.Table{}, compute.NewError(compute.StageRestore, fmt.Errorf("dataset %s: unexpected value %T", id, val))
	}

	var d dataset
	if err := json.Unmarshal(data, &d); err != nil {
		return table.Table{}, compute.NewError(compute.StageRestore, err)
	}

	t, err := table.Parse(d.Data)
	if err != nil {
		return table.Table{}, compute.NewError(compute.StageRestore, err)
	}

	return t, nil
}
