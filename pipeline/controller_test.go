package pipeline_test

import (
	"context"
	"errors"
	"math"
	"strconv"
	"sync"
	"testing"

	"github.com/absmach/tabula/compute"
	"github.com/absmach/tabula/pipeline"
	pkgerrors "github.com/absmach/tabula/pkg/errors"
	"github.com/absmach/tabula/table"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGatedStagesRequireTarget(t *testing.T) {
	t.Parallel()

	cases := []struct {
		desc  string
		stage pipeline.Stage
	}{
		{desc: "handle missing", stage: pipeline.Stage{Kind: pipeline.MissingHandle}},
		{desc: "encode", stage: pipeline.Stage{Kind: pipeline.Encode}},
		{desc: "scale", stage: pipeline.Stage{Kind: pipeline.Scale, Method: compute.Standard}},
		{desc: "split", stage: pipeline.Stage{Kind: pipeline.Split, TestFraction: 20}},
	}

	for _, tc := range cases {
		t.Run(tc.desc, func(t *testing.T) {
			t.Parallel()

			c, svc := irisController(t)
			before := c.Store().View()

			_, err := c.Run(context.Background(), tc.stage)
			assert.ErrorIs(t, err, pipeline.ErrMissingTarget)
			assert.Zero(t, svc.total(), "no remote call without a target")
			assert.Equal(t, before.Version, c.Store().View().Version)
		})
	}
}

func TestInvalidParameters(t *testing.T) {
	t.Parallel()

	cases := []struct {
		desc  string
		stage pipeline.Stage
	}{
		{desc: "split at zero", stage: pipeline.Stage{Kind: pipeline.Split, TestFraction: 0}},
		{desc: "split at hundred", stage: pipeline.Stage{Kind: pipeline.Split, TestFraction: 100}},
		{desc: "negative split", stage: pipeline.Stage{Kind: pipeline.Split, TestFraction: -1}},
		{desc: "unknown scaler", stage: pipeline.Stage{Kind: pipeline.Scale, Method: "robust"}},
		{desc: "unknown stage", stage: pipeline.Stage{Kind: pipeline.Kind(99)}},
		{desc: "zero stage", stage: pipeline.Stage{}},
	}

	for _, tc := range cases {
		t.Run(tc.desc, func(t *testing.T) {
			t.Parallel()

			c, svc := irisController(t)
			_, err := c.SetTarget("species")
			require.NoError(t, err)

			_, err = c.Run(context.Background(), tc.stage)
			assert.ErrorIs(t, err, pipeline.ErrInvalidParameter)
			assert.Zero(t, svc.total())
		})
	}
}

func TestSetTarget(t *testing.T) {
	t.Parallel()

	c, _ := irisController(t)

	_, err := c.SetTarget("colour")
	assert.ErrorIs(t, err, pipeline.ErrInvalidParameter)
	assert.Equal(t, pipeline.Uploaded, c.Store().View().State)

	state, err := c.SetTarget("species")
	require.NoError(t, err)
	assert.Equal(t, pipeline.TargetSelected, state)
	assert.Equal(t, "species", c.Store().View().Target)
}

func TestIrisPipeline(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	c, svc := irisController(t)

	stats, err := c.LoadStatistics(ctx)
	require.NoError(t, err)
	assert.Len(t, stats, 4)
	assert.Equal(t, pipeline.StatisticsLoaded, c.Store().View().State)

	_, err = c.SetTarget("species")
	require.NoError(t, err)

	missing, err := c.CheckMissing(ctx)
	require.NoError(t, err)
	require.Len(t, missing, 5)
	for col, n := range missing {
		assert.Zero(t, n, col)
	}
	assert.Equal(t, pipeline.MissingChecked, c.Store().View().State)

	require.NoError(t, c.Encode(ctx))
	assert.Equal(t, pipeline.Encoded, c.Store().View().State)
	require.NoError(t, c.Scale(ctx, compute.Standard))
	assert.Equal(t, pipeline.Scaled, c.Store().View().State)

	before := c.Store().View()
	require.NoError(t, c.Split(ctx, 20))

	view := c.Store().View()
	assert.Equal(t, pipeline.ReadyForTraining, view.State)
	assert.True(t, view.SplitReady)
	assert.True(t, before.Table.Equal(view.Table), "split does not replace the snapshot")

	xTrain, err := c.Splits().XTrain()
	require.NoError(t, err)
	xTest, err := c.Splits().XTest()
	require.NoError(t, err)
	yTrain, err := c.Splits().YTrain()
	require.NoError(t, err)
	yTest, err := c.Splits().YTest()
	require.NoError(t, err)

	assert.Equal(t, 120, xTrain.NumRows())
	assert.Equal(t, 30, xTest.NumRows())
	assert.Len(t, yTrain, 120)
	assert.Len(t, yTest, 30)
	assert.False(t, xTrain.HasColumn("species"))
	assert.False(t, xTest.HasColumn("species"))

	for _, n := range svc.received() {
		assert.Equal(t, 150, n, "every stage receives the full dataset")
	}
}

func TestSplitFractions(t *testing.T) {
	t.Parallel()

	for _, pct := range []int{1, 10, 25, 33, 50, 67, 99} {
		c, _ := irisController(t)
		ctx := context.Background()

		_, err := c.SetTarget("species")
		require.NoError(t, err)
		require.NoError(t, c.Encode(ctx))
		require.NoError(t, c.Split(ctx, pct))

		a, err := c.Splits().Artifacts()
		require.NoError(t, err)
		total := a.XTrain.NumRows() + a.XTest.NumRows()
		assert.Equal(t, 150, total)
		got := math.Round(float64(a.XTest.NumRows()) / float64(total) * 100)
		assert.InDelta(t, float64(pct), got, 1, "pct %d", pct)
	}
}

func TestHandleMissingTwiceOnCleanData(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	c, _ := irisController(t)
	_, err := c.SetTarget("species")
	require.NoError(t, err)

	original := c.Store().View()
	for range 2 {
		changes, err := c.HandleMissing(ctx)
		require.NoError(t, err)
		assert.Empty(t, changes)

		view := c.Store().View()
		assert.Equal(t, original.Fingerprint, view.Fingerprint)
		assert.True(t, original.Table.Equal(view.Table))
		assert.Equal(t, pipeline.MissingHandled, view.State)
	}
}

func TestRemoteFailureKeepsSnapshot(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	c, svc := irisController(t)
	_, err := c.SetTarget("species")
	require.NoError(t, err)
	require.NoError(t, c.Encode(ctx))

	before := c.Store().View()
	svc.failOn(compute.StageScale, compute.NewError(compute.StageScale, errors.New("connection refused")))

	err = c.Scale(ctx, compute.Standard)
	assert.ErrorIs(t, err, compute.ErrRemoteCompute)
	var rce *compute.RemoteComputeError
	require.ErrorAs(t, err, &rce)
	assert.Equal(t, compute.StageScale, rce.Stage)

	after := c.Store().View()
	assert.True(t, before.Table.Equal(after.Table))
	assert.Equal(t, before.Version, after.Version)
	assert.Equal(t, pipeline.Encoded, after.State)

	require.NoError(t, c.Split(ctx, 20))
	a, err := c.Splits().Artifacts()
	require.NoError(t, err)
	assert.Equal(t, 30, a.XTest.NumRows())
}

func TestInvalidReturnedTableIsRejected(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	c, svc := irisController(t)
	_, err := c.SetTarget("species")
	require.NoError(t, err)

	bad := &badTableService{countingService: svc}
	c = pipeline.NewController(c.Store(), bad, nil)

	before := c.Store().View()
	err = c.Encode(ctx)
	assert.ErrorIs(t, err, compute.ErrRemoteCompute)
	assert.ErrorIs(t, err, table.ErrMalformedTable)
	assert.Equal(t, before.Version, c.Store().View().Version)
}

type badTableService struct {
	*countingService
}

func (b *badTableService) EncodeCategorical(context.Context, compute.Snapshot, string) (table.Table, []string, error) {
	return table.Table{Header: []string{"a", "a"}}, nil, nil
}

func TestRestore(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	c, svc := irisController(t)
	original := c.Store().Original()

	_, err := c.LoadStatistics(ctx)
	require.NoError(t, err)
	_, err = c.SetTarget("species")
	require.NoError(t, err)
	_, err = c.CheckMissing(ctx)
	require.NoError(t, err)
	require.NoError(t, c.Encode(ctx))
	require.NoError(t, c.Scale(ctx, compute.MinMax))
	require.NoError(t, c.Split(ctx, 20))
	require.False(t, c.Store().View().Table.Equal(original))

	require.NoError(t, c.Restore(ctx))
	assert.Zero(t, svc.count(compute.StageRestore), "raw upload restores without a round trip")

	view := c.Store().View()
	assert.True(t, view.Table.Equal(original))
	assert.Nil(t, view.Statistics)
	assert.Nil(t, view.Missing)
	assert.Empty(t, view.Changes)
	assert.False(t, view.SplitReady)
	assert.Empty(t, view.Target)
	assert.Equal(t, pipeline.Uploaded, view.State)

	_, err = c.Splits().Artifacts()
	assert.ErrorIs(t, err, pipeline.ErrSplitNotReady)
}

func TestEncodeAndScaleReportDetails(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	c, _ := irisController(t)
	_, err := c.SetTarget("species")
	require.NoError(t, err)

	res, err := c.Run(ctx, pipeline.Stage{Kind: pipeline.Encode})
	require.NoError(t, err)
	classes := []string{"setosa", "versicolor", "virginica"}
	assert.Equal(t, classes, res.Classes)
	assert.Equal(t, classes, c.Store().View().Classes)

	// The target is numeric now, so a second encode keeps the first mapping.
	res, err = c.Run(ctx, pipeline.Stage{Kind: pipeline.Encode})
	require.NoError(t, err)
	assert.Nil(t, res.Classes)
	assert.Equal(t, classes, c.Store().Classes())

	res, err = c.Run(ctx, pipeline.Stage{Kind: pipeline.Scale, Method: compute.MinMax})
	require.NoError(t, err)
	assert.Equal(t, "Scaling applied using MinMaxScaler.", res.Message)

	_, err = c.SetTarget("sepal_length")
	require.NoError(t, err)
	assert.Nil(t, c.Store().Classes(), "classes belong to the previous target")

	require.NoError(t, c.Restore(ctx))
	assert.Nil(t, c.Store().View().Classes)
}

func TestRestoreUsesStoredOriginal(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	tbl, err := table.New([]string{"note", "label"}, [][]string{{"first\rline", "1"}, {"b", "0"}})
	require.NoError(t, err)

	// The raw bytes intentionally differ from tbl: restore must not reparse them.
	store, err := pipeline.NewStore(compute.Snapshot{Table: tbl, Provenance: compute.Provenance{Raw: []byte("x\n1\n")}}, compute.Classification)
	require.NoError(t, err)
	svc := newCountingService()
	c := pipeline.NewController(store, svc, nil)

	_, err = c.SetTarget("label")
	require.NoError(t, err)
	require.NoError(t, c.Encode(ctx))
	require.NoError(t, c.Restore(ctx))

	assert.True(t, c.Store().View().Table.Equal(tbl))
	assert.Zero(t, svc.count(compute.StageRestore))
}

func TestSplitHolderBeforeSplit(t *testing.T) {
	t.Parallel()

	c, _ := irisController(t)
	h := c.Splits()

	_, err := h.Artifacts()
	assert.ErrorIs(t, err, pipeline.ErrSplitNotReady)
	_, err = h.XTrain()
	assert.ErrorIs(t, err, pipeline.ErrSplitNotReady)
	_, err = h.XTest()
	assert.ErrorIs(t, err, pipeline.ErrSplitNotReady)
	_, err = h.YTrain()
	assert.ErrorIs(t, err, pipeline.ErrSplitNotReady)
	_, err = h.YTest()
	assert.ErrorIs(t, err, pipeline.ErrSplitNotReady)
	_, err = h.Target()
	assert.ErrorIs(t, err, pipeline.ErrSplitNotReady)
}

func TestTargetChangeClearsSplit(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	c, _ := irisController(t)
	_, err := c.SetTarget("species")
	require.NoError(t, err)
	require.NoError(t, c.Encode(ctx))
	require.NoError(t, c.Split(ctx, 20))

	state, err := c.SetTarget("petal_width")
	require.NoError(t, err)
	assert.Equal(t, pipeline.Encoded, state)

	view := c.Store().View()
	assert.False(t, view.SplitReady)
	assert.ElementsMatch(t, []pipeline.Kind{pipeline.Encode, pipeline.Split}, view.Stale)

	require.NoError(t, c.Encode(ctx))
	assert.Equal(t, []pipeline.Kind{pipeline.Split}, c.Store().View().Stale)
}

func TestTransformAfterSplitInvalidatesSplit(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	c, _ := irisController(t)
	_, err := c.SetTarget("species")
	require.NoError(t, err)
	require.NoError(t, c.Encode(ctx))
	require.NoError(t, c.Split(ctx, 20))
	require.NoError(t, c.Scale(ctx, compute.Standard))

	_, err = c.Splits().Artifacts()
	assert.ErrorIs(t, err, pipeline.ErrSplitNotReady)
	assert.Equal(t, pipeline.Scaled, c.Store().View().State)
}

func TestPreviewDoesNotFeedStages(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	c, svc := irisController(t)

	preview := table.Preview(c.Store().View().Table, 20)
	assert.Equal(t, 20, preview.NumRows())
	preview.Rows[0][0] = "mutated"

	_, err := c.LoadStatistics(ctx)
	require.NoError(t, err)
	assert.Equal(t, []int{150}, svc.received())
	assert.NotEqual(t, "mutated", c.Store().View().Table.Rows[0][0])
}

func TestLastWriteWins(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	c, svc := irisController(t)
	_, err := c.SetTarget("species")
	require.NoError(t, err)
	require.NoError(t, c.Encode(ctx))
	start := c.Store().View().Version

	entered := make(chan struct{})
	release := make(chan struct{})
	var once sync.Once
	svc.mu.Lock()
	svc.hook = func(stage string, _ compute.Snapshot) {
		if stage != compute.StageScale {
			return
		}
		first := false
		once.Do(func() { first = true })
		if first {
			close(entered)
			<-release
		}
	}
	svc.mu.Unlock()

	errs := make(chan error, 1)
	go func() {
		errs <- c.Scale(ctx, compute.MinMax)
	}()
	<-entered

	require.NoError(t, c.Scale(ctx, compute.Standard))
	standard := c.Store().View().Table
	close(release)
	require.NoError(t, <-errs)

	view := c.Store().View()
	assert.Equal(t, start+2, view.Version)
	assert.False(t, view.Table.Equal(standard), "the slower minmax result arrives last and wins")
	for _, row := range view.Table.Rows {
		for _, cell := range row[:4] {
			v := parse(t, cell)
			assert.GreaterOrEqual(t, v, 0.0)
			assert.LessOrEqual(t, v, 1.0)
		}
	}
}

func TestClearedStore(t *testing.T) {
	t.Parallel()

	c, svc := irisController(t)
	c.Store().Clear()

	_, err := c.LoadStatistics(context.Background())
	assert.ErrorIs(t, err, pipeline.ErrNoDataset)
	assert.ErrorIs(t, err, pkgerrors.ErrNotFound)
	assert.Zero(t, svc.total())

	_, err = c.SetTarget("species")
	assert.ErrorIs(t, err, pipeline.ErrNoDataset)
}

func TestNewStoreValidates(t *testing.T) {
	t.Parallel()

	_, err := pipeline.NewStore(compute.Snapshot{Table: table.Table{Header: []string{"a"}, Rows: [][]string{{"1", "2"}}}}, compute.Regression)
	assert.ErrorIs(t, err, table.ErrMalformedTable)

	tbl, err := table.New([]string{"a"}, [][]string{{"1"}})
	require.NoError(t, err)
	_, err = pipeline.NewStore(compute.Snapshot{Table: tbl}, compute.TaskKind("ranking"))
	assert.ErrorIs(t, err, pipeline.ErrInvalidParameter)

	s, err := pipeline.NewStore(compute.Snapshot{Table: tbl}, "")
	require.NoError(t, err)
	assert.Equal(t, compute.Classification, s.View().Task)
}

func parse(t *testing.T, cell string) float64 {
	t.Helper()

	v, err := strconv.ParseFloat(cell, 64)
	require.NoError(t, err)

	return v
}
