package pipeline_test

import (
	"context"
	"sync"
	"testing"

	"github.com/absmach/tabula/compute"
	"github.com/absmach/tabula/compute/local"
	"github.com/absmach/tabula/pipeline"
	"github.com/absmach/tabula/session/samples"
	"github.com/absmach/tabula/table"
	"github.com/stretchr/testify/require"
)

// countingService records every call and the row count it received before
// delegating to the in-process engine.
type countingService struct {
	next compute.Service

	mu    sync.Mutex
	calls map[string]int
	rows  []int
	fail  map[string]error
	hook  func(stage string, s compute.Snapshot)
}

var _ compute.Service = (*countingService)(nil)

func newCountingService() *countingService {
	return &countingService{
		next:  local.New(local.Config{Seed: local.DefaultSeed}),
		calls: make(map[string]int),
		fail:  make(map[string]error),
	}
}

func (c *countingService) record(stage string, s compute.Snapshot) error {
	c.mu.Lock()
	c.calls[stage]++
	c.rows = append(c.rows, s.Table.NumRows())
	err := c.fail[stage]
	hook := c.hook
	c.mu.Unlock()

	if hook != nil {
		hook(stage, s)
	}

	return err
}

func (c *countingService) failOn(stage string, err error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if err == nil {
		delete(c.fail, stage)

		return
	}
	c.fail[stage] = err
}

func (c *countingService) total() int {
	c.mu.Lock()
	defer c.mu.Unlock()

	n := 0
	for _, v := range c.calls {
		n += v
	}

	return n
}

func (c *countingService) count(stage string) int {
	c.mu.Lock()
	defer c.mu.Unlock()

	return c.calls[stage]
}

func (c *countingService) received() []int {
	c.mu.Lock()
	defer c.mu.Unlock()

	return append([]int(nil), c.rows...)
}

func (c *countingService) ComputeStatistics(ctx context.Context, s compute.Snapshot) (compute.ColumnStatistics, error) {
	if err := c.record(compute.StageStatistics, s); err != nil {
		return nil, err
	}

	return c.next.ComputeStatistics(ctx, s)
}

func (c *countingService) CheckMissing(ctx context.Context, s compute.Snapshot) (compute.MissingReport, error) {
	if err := c.record(compute.StageMissingCheck, s); err != nil {
		return nil, err
	}

	return c.next.CheckMissing(ctx, s)
}

func (c *countingService) HandleMissing(ctx context.Context, s compute.Snapshot, target string, kind compute.TaskKind) (table.Table, []string, error) {
	if err := c.record(compute.StageMissingHandle, s); err != nil {
		return table.Table{}, nil, err
	}

	return c.next.HandleMissing(ctx, s, target, kind)
}

func (c *countingService) EncodeCategorical(ctx context.Context, s compute.Snapshot, target string) (table.Table, []string, error) {
	if err := c.record(compute.StageEncode, s); err != nil {
		return table.Table{}, nil, err
	}

	return c.next.EncodeCategorical(ctx, s, target)
}

func (c *countingService) ScaleFeatures(ctx context.Context, s compute.Snapshot, method compute.ScaleMethod, target string) (table.Table, string, error) {
	if err := c.record(compute.StageScale, s); err != nil {
		return table.Table{}, "", err
	}

	return c.next.ScaleFeatures(ctx, s, method, target)
}

func (c *countingService) SplitDataset(ctx context.Context, s compute.Snapshot, target string, testFraction int, kind compute.TaskKind) (compute.SplitArtifacts, error) {
	if err := c.record(compute.StageSplit, s); err != nil {
		return compute.SplitArtifacts{}, err
	}

	return c.next.SplitDataset(ctx, s, target, testFraction, kind)
}

func (c *countingService) RestoreOriginal(ctx context.Context, s compute.Snapshot) (table.Table, error) {
	if err := c.record(compute.StageRestore, s); err != nil {
		return table.Table{}, err
	}

	return c.next.RestoreOriginal(ctx, s)
}

func irisController(t *testing.T) (*pipeline.Controller, *countingService) {
	t.Helper()

	raw := samples.Iris()
	tbl, err := table.Parse(raw)
	require.NoError(t, err)

	store, err := pipeline.NewStore(compute.Snapshot{Table: tbl, Provenance: compute.Provenance{Raw: raw}}, compute.Classification)
	require.NoError(t, err)

	svc := newCountingService()

	return pipeline.NewController(store, svc, nil), svc
}
