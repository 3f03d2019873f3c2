package pipeline_test

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/absmach/tabula/compute"
	"github.com/absmach/tabula/pipeline"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const irisRecipe = `schema_version: v1
target: species
steps:
  - stage: missing-check
  - stage: encode
  - stage: scale
    method: minmax
  - stage: split
    test_percentage: 20
`

func TestParseRecipe(t *testing.T) {
	t.Parallel()

	cases := []struct {
		desc   string
		raw    string
		stages []pipeline.Stage
		err    error
	}{
		{
			desc: "full recipe",
			raw:  irisRecipe,
			stages: []pipeline.Stage{
				{Kind: pipeline.MissingCheck},
				{Kind: pipeline.Encode},
				{Kind: pipeline.Scale, Method: compute.MinMax},
				{Kind: pipeline.Split, TestFraction: 20},
			},
		},
		{
			desc:   "schema defaults and scale defaults to standard",
			raw:    "target: y\nsteps:\n  - stage: scale\n",
			stages: []pipeline.Stage{{Kind: pipeline.Scale, Method: compute.Standard}},
		},
		{
			desc: "unsupported schema",
			raw:  "schema_version: v2\nsteps: []\n",
			err:  pipeline.ErrInvalidParameter,
		},
		{
			desc: "unknown stage",
			raw:  "steps:\n  - stage: normalise\n",
			err:  pipeline.ErrInvalidParameter,
		},
		{
			desc: "split out of range",
			raw:  "steps:\n  - stage: split\n    test_percentage: 100\n",
			err:  pipeline.ErrInvalidParameter,
		},
		{
			desc: "not yaml",
			raw:  "steps: [",
			err:  pipeline.ErrInvalidParameter,
		},
	}

	for _, tc := range cases {
		t.Run(tc.desc, func(t *testing.T) {
			t.Parallel()

			r, err := pipeline.ParseRecipe([]byte(tc.raw))
			if tc.err != nil {
				assert.ErrorIs(t, err, tc.err)

				return
			}
			require.NoError(t, err)
			assert.Equal(t, pipeline.RecipeSchema, r.SchemaVersion)

			stages, err := r.Stages()
			require.NoError(t, err)
			assert.Equal(t, tc.stages, stages)
		})
	}
}

func TestRecipeApply(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "iris.yaml")
	require.NoError(t, os.WriteFile(path, []byte(irisRecipe), 0o600))

	r, err := pipeline.LoadRecipe(path)
	require.NoError(t, err)

	c, _ := irisController(t)
	results, err := r.Apply(context.Background(), c)
	require.NoError(t, err)
	require.Len(t, results, 4)
	assert.Equal(t, pipeline.ReadyForTraining, results[3].State)
	assert.Equal(t, 120, results[3].TrainRows)
	assert.Equal(t, 30, results[3].TestRows)
	assert.Equal(t, "species", c.Store().View().Target)
}

func TestRecipeApplyStopsOnError(t *testing.T) {
	t.Parallel()

	r, err := pipeline.ParseRecipe([]byte(irisRecipe))
	require.NoError(t, err)

	c, svc := irisController(t)
	svc.failOn(compute.StageScale, compute.NewError(compute.StageScale, assert.AnError))

	results, err := r.Apply(context.Background(), c)
	assert.ErrorIs(t, err, compute.ErrRemoteCompute)
	assert.Len(t, results, 2)
	assert.Zero(t, svc.calls[compute.StageSplit])
}

func TestParseKind(t *testing.T) {
	t.Parallel()

	k, err := pipeline.ParseKind("missing-handle")
	require.NoError(t, err)
	assert.Equal(t, pipeline.MissingHandle, k)

	_, err = pipeline.ParseKind("train")
	assert.ErrorIs(t, err, pipeline.ErrInvalidParameter)

	_, err = pipeline.Kind(42).MarshalText()
	assert.ErrorIs(t, err, pipeline.ErrInvalidParameter)
}
