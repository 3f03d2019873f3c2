// Package pipeline sequences preprocessing stages over one session's dataset.
// A Controller validates each stage, runs it against a compute.Service on a
// copy of the current snapshot and commits the outcome to its Store.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/absmach/tabula/compute"
	pkgerrors "github.com/absmach/tabula/pkg/errors"
	"github.com/absmach/tabula/table"
)

var (
	ErrInvalidParameter = errors.New("invalid parameter")
	ErrMissingTarget    = errors.New("target variable not selected")
	ErrSplitNotReady    = errors.New("dataset has not been split")
	ErrNoDataset        = fmt.Errorf("%w: no dataset loaded", pkgerrors.ErrNotFound)
)

// Result describes a committed stage.
type Result struct {
	Kind       Kind                     `json:"stage"`
	State      State                    `json:"state"`
	Version    uint64                   `json:"version"`
	Statistics compute.ColumnStatistics `json:"statistics,omitempty"`
	Missing    compute.MissingReport    `json:"missing_values,omitempty"`
	Changes    []string                 `json:"changes,omitempty"`
	Classes    []string                 `json:"classes,omitempty"`
	Message    string                   `json:"message,omitempty"`
	Delta      *table.Delta             `json:"delta,omitempty"`
	TrainRows  int                      `json:"train_rows,omitempty"`
	TestRows   int                      `json:"test_rows,omitempty"`
}

type outcome struct {
	table      table.Table
	statistics compute.ColumnStatistics
	missing    compute.MissingReport
	changes    []string
	classes    []string
	message    string
	split      *compute.SplitArtifacts
}

type runner struct {
	gated bool
	run   func(ctx context.Context, svc compute.Service, in input, st Stage) (outcome, error)
}

// runners is the single dispatch table from stage kind to adapter call.
var runners = map[Kind]runner{
	Statistics: {
		run: func(ctx context.Context, svc compute.Service, in input, _ Stage) (outcome, error) {
			stats, err := svc.ComputeStatistics(ctx, in.snapshot)
			return outcome{statistics: stats}, err
		},
	},
	MissingCheck: {
		run: func(ctx context.Context, svc compute.Service, in input, _ Stage) (outcome, error) {
			report, err := svc.CheckMissing(ctx, in.snapshot)
			return outcome{missing: report}, err
		},
	},
	MissingHandle: {
		gated: true,
		run: func(ctx context.Context, svc compute.Service, in input, _ Stage) (outcome, error) {
			t, changes, err := svc.HandleMissing(ctx, in.snapshot, in.target, in.task)
			return outcome{table: t, changes: changes}, err
		},
	},
	Encode: {
		gated: true,
		run: func(ctx context.Context, svc compute.Service, in input, _ Stage) (outcome, error) {
			t, classes, err := svc.EncodeCategorical(ctx, in.snapshot, in.target)
			return outcome{table: t, classes: classes}, err
		},
	},
	Scale: {
		gated: true,
		run: func(ctx context.Context, svc compute.Service, in input, st Stage) (outcome, error) {
			t, msg, err := svc.ScaleFeatures(ctx, in.snapshot, st.Method, in.target)
			return outcome{table: t, message: msg}, err
		},
	},
	Split: {
		gated: true,
		run: func(ctx context.Context, svc compute.Service, in input, st Stage) (outcome, error) {
			a, err := svc.SplitDataset(ctx, in.snapshot, in.target, st.TestFraction, in.task)
			if err != nil {
				return outcome{}, err
			}
			if err := a.Validate(in.target); err != nil {
				return outcome{}, compute.NewError(compute.StageSplit, err)
			}

			return outcome{split: &a}, nil
		},
	},
	Restore: {
		run: func(ctx context.Context, svc compute.Service, in input, _ Stage) (outcome, error) {
			// Only a server-retained original needs a round trip.
			if !in.snapshot.Provenance.Retained() {
				return outcome{table: in.original}, nil
			}
			t, err := svc.RestoreOriginal(ctx, in.snapshot)
			return outcome{table: t}, err
		},
	},
}

type Controller struct {
	store  *Store
	svc    compute.Service
	logger *slog.Logger
}

// NewController binds a store to a compute service. A nil logger discards.
func NewController(store *Store, svc compute.Service, logger *slog.Logger) *Controller {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}

	return &Controller{
		store:  store,
		svc:    svc,
		logger: logger,
	}
}

func (c *Controller) Store() *Store {
	return c.store
}

// Splits returns a read-only view of the split artifacts.
func (c *Controller) Splits() SplitHolder {
	return SplitHolder{store: c.store}
}

// SetTarget selects the target column.
func (c *Controller) SetTarget(name string) (State, error) {
	state, _, err := c.store.setTarget(name)

	return state, err
}

// Run validates st, calls the compute service and commits the outcome. On
// any error the store keeps its last committed state.
func (c *Controller) Run(ctx context.Context, st Stage) (Result, error) {
	if err := st.validate(); err != nil {
		return Result{}, err
	}
	r := runners[st.Kind]

	in, err := c.store.input()
	if err != nil {
		return Result{}, err
	}
	if r.gated {
		if in.target == "" {
			return Result{}, fmt.Errorf("%w: %s requires a target", ErrMissingTarget, st.Kind)
		}
		if !in.snapshot.Table.HasColumn(in.target) {
			return Result{}, fmt.Errorf("%w: target %q not in dataset", ErrMissingTarget, in.target)
		}
	}

	start := time.Now()
	out, err := r.run(ctx, c.svc, in, st)
	if err != nil {
		c.logger.DebugContext(ctx, "stage failed", slog.String("stage", st.Kind.String()), slog.Any("error", err))

		return Result{}, err
	}
	if st.Kind == Restore || transformStates[st.Kind] != 0 {
		if err := out.table.Validate(); err != nil {
			return Result{}, compute.NewError(st.Kind.String(), err)
		}
	}

	state, version, err := c.store.commit(st.Kind, out)
	if err != nil {
		return Result{}, err
	}
	c.logger.DebugContext(ctx, "stage committed",
		slog.String("stage", st.Kind.String()),
		slog.String("state", state.String()),
		slog.Uint64("version", version),
		slog.String("duration", time.Since(start).String()),
	)

	res := Result{
		Kind:       st.Kind,
		State:      state,
		Version:    version,
		Statistics: out.statistics,
		Missing:    out.missing,
		Changes:    out.changes,
		Classes:    out.classes,
		Message:    out.message,
	}
	if !out.table.IsZero() {
		delta := table.Diff(in.snapshot.Table, out.table)
		res.Delta = &delta
	}
	if out.split != nil {
		res.TrainRows = out.split.XTrain.NumRows()
		res.TestRows = out.split.XTest.NumRows()
	}

	return res, nil
}

func (c *Controller) LoadStatistics(ctx context.Context) (compute.ColumnStatistics, error) {
	res, err := c.Run(ctx, Stage{Kind: Statistics})

	return res.Statistics, err
}

func (c *Controller) CheckMissing(ctx context.Context) (compute.MissingReport, error) {
	res, err := c.Run(ctx, Stage{Kind: MissingCheck})

	return res.Missing, err
}

// HandleMissing imputes or drops missing values and returns the change log.
func (c *Controller) HandleMissing(ctx context.Context) ([]string, error) {
	res, err := c.Run(ctx, Stage{Kind: MissingHandle})

	return res.Changes, err
}

func (c *Controller) Encode(ctx context.Context) error {
	_, err := c.Run(ctx, Stage{Kind: Encode})

	return err
}

func (c *Controller) Scale(ctx context.Context, method compute.ScaleMethod) error {
	_, err := c.Run(ctx, Stage{Kind: Scale, Method: method})

	return err
}

// Split derives train/test artifacts with testFraction percent of the rows
// held out. The current snapshot is left untouched.
func (c *Controller) Split(ctx context.Context, testFraction int) error {
	_, err := c.Run(ctx, Stage{Kind: Split, TestFraction: testFraction})

	return err
}

// Restore replaces the current snapshot with the original and clears every
// derived result, including the target.
func (c *Controller) Restore(ctx context.Context) error {
	_, err := c.Run(ctx, Stage{Kind: Restore})

	return err
}
