package http_test

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"

	"github.com/absmach/tabula/compute"
	computeapi "github.com/absmach/tabula/compute/api"
	computehttp "github.com/absmach/tabula/compute/http"
	"github.com/absmach/tabula/compute/local"
	"github.com/absmach/tabula/session/samples"
	"github.com/absmach/tabula/table"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newComputeServer(t *testing.T) *httptest.Server {
	t.Helper()

	engine := local.New(local.Config{Seed: local.DefaultSeed})
	srv := httptest.NewServer(computeapi.MakeHandler(engine, slog.New(slog.DiscardHandler), "test"))
	t.Cleanup(srv.Close)

	return srv
}

func irisSnapshot(t *testing.T) compute.Snapshot {
	t.Helper()

	raw := samples.Iris()
	tbl, err := table.Parse(raw)
	require.NoError(t, err)

	return compute.Snapshot{Table: tbl, Provenance: compute.Provenance{Raw: raw}}
}

func TestClientStages(t *testing.T) {
	t.Parallel()

	for _, gzip := range []bool{false, true} {
		srv := newComputeServer(t)
		c := computehttp.NewClient(computehttp.Config{URL: srv.URL, Gzip: gzip})
		ctx := context.Background()
		s := irisSnapshot(t)

		stats, err := c.ComputeStatistics(ctx, s)
		require.NoError(t, err)
		assert.Len(t, stats, 4)
		assert.Equal(t, json.Number("150"), stats["sepal_length"]["count"])

		missing, err := c.CheckMissing(ctx, s)
		require.NoError(t, err)
		assert.Equal(t, compute.MissingReport{"sepal_length": 0, "sepal_width": 0, "petal_length": 0, "petal_width": 0, "species": 0}, missing)

		handled, changes, err := c.HandleMissing(ctx, s, "species", compute.Classification)
		require.NoError(t, err)
		assert.Empty(t, changes)
		assert.NotNil(t, changes)
		assert.True(t, handled.Equal(s.Table))

		encoded, classes, err := c.EncodeCategorical(ctx, s, "species")
		require.NoError(t, err)
		assert.Equal(t, "species", encoded.Header[len(encoded.Header)-1])
		assert.Equal(t, []string{"setosa", "versicolor", "virginica"}, classes)
		s.Table = encoded

		scaled, msg, err := c.ScaleFeatures(ctx, s, compute.Standard, "species")
		require.NoError(t, err)
		assert.Equal(t, "Scaling applied using StandardScaler.", msg)
		assert.Equal(t, encoded.Header, scaled.Header)
		s.Table = scaled

		a, err := c.SplitDataset(ctx, s, "species", 20, compute.Classification)
		require.NoError(t, err)
		assert.Equal(t, 120, a.XTrain.NumRows())
		assert.Equal(t, 30, a.XTest.NumRows())
		assert.False(t, a.XTest.HasColumn("species"))
	}
}

func TestClientRegisterAndRestore(t *testing.T) {
	t.Parallel()

	srv := newComputeServer(t)
	c := computehttp.NewClient(computehttp.Config{URL: srv.URL})
	ctx := context.Background()
	s := irisSnapshot(t)

	id, err := c.RegisterDataset(ctx, "iris.csv", s.Provenance.Raw)
	require.NoError(t, err)
	require.NotEmpty(t, id)

	restored, err := c.RestoreOriginal(ctx, compute.Snapshot{Provenance: compute.Provenance{DatasetID: id}})
	require.NoError(t, err)
	assert.True(t, restored.Equal(s.Table))

	_, err = c.RestoreOriginal(ctx, compute.Snapshot{Provenance: compute.Provenance{DatasetID: "missing"}})
	assert.ErrorIs(t, err, compute.ErrRemoteCompute)

	_, err = c.RegisterDataset(ctx, "bad.csv", []byte("a,b\n1\n"))
	assert.ErrorIs(t, err, compute.ErrRemoteCompute)
}

func TestClientRestoreRawIsLocal(t *testing.T) {
	t.Parallel()

	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusInternalServerError)
	}))
	t.Cleanup(srv.Close)

	c := computehttp.NewClient(computehttp.Config{URL: srv.URL})
	s := irisSnapshot(t)

	restored, err := c.RestoreOriginal(context.Background(), s)
	require.NoError(t, err)
	assert.True(t, restored.Equal(s.Table))
	assert.Zero(t, calls.Load())
}

func TestClientInvalidResponses(t *testing.T) {
	t.Parallel()

	cases := []struct {
		desc   string
		status int
		body   string
		call   func(c *computehttp.Client, s compute.Snapshot) error
		extra  error
	}{
		{
			desc:   "ragged dataset",
			status: http.StatusOK,
			body:   `{"dataset":[["a","b"],[1]]}`,
			call: func(c *computehttp.Client, s compute.Snapshot) error {
				_, _, err := c.EncodeCategorical(context.Background(), s, "b")
				return err
			},
			extra: table.ErrMalformedTable,
		},
		{
			desc:   "empty dataset",
			status: http.StatusOK,
			body:   `{"dataset":[]}`,
			call: func(c *computehttp.Client, s compute.Snapshot) error {
				_, _, err := c.ScaleFeatures(context.Background(), s, compute.MinMax, "b")
				return err
			},
			extra: table.ErrMalformedTable,
		},
		{
			desc:   "server error",
			status: http.StatusInternalServerError,
			body:   `{"error":"boom"}`,
			call: func(c *computehttp.Client, s compute.Snapshot) error {
				_, err := c.ComputeStatistics(context.Background(), s)
				return err
			},
		},
		{
			desc:   "undecodable body",
			status: http.StatusOK,
			body:   `not json`,
			call: func(c *computehttp.Client, s compute.Snapshot) error {
				_, err := c.CheckMissing(context.Background(), s)
				return err
			},
		},
		{
			desc:   "missing report for unknown column",
			status: http.StatusOK,
			body:   `{"missing_values":{"zzz":1}}`,
			call: func(c *computehttp.Client, s compute.Snapshot) error {
				_, err := c.CheckMissing(context.Background(), s)
				return err
			},
		},
		{
			desc:   "split loses rows",
			status: http.StatusOK,
			body:   `{"x_train":[["a"],["1"]],"x_test":[["a"]],"y_train":[0],"y_test":[]}`,
			call: func(c *computehttp.Client, s compute.Snapshot) error {
				_, err := c.SplitDataset(context.Background(), s, "b", 50, compute.Regression)
				return err
			},
		},
		{
			desc:   "split keeps target",
			status: http.StatusOK,
			body:   `{"x_train":[["a","b"],["1","2"]],"x_test":[["a","b"],["3","4"]],"y_train":[2],"y_test":[4]}`,
			call: func(c *computehttp.Client, s compute.Snapshot) error {
				_, err := c.SplitDataset(context.Background(), s, "b", 50, compute.Regression)
				return err
			},
		},
	}

	for _, tc := range cases {
		t.Run(tc.desc, func(t *testing.T) {
			t.Parallel()

			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
				w.Header().Set("Content-Type", "application/json")
				w.WriteHeader(tc.status)
				_, _ = io.WriteString(w, tc.body)
			}))
			t.Cleanup(srv.Close)

			tbl, err := table.New([]string{"a", "b"}, [][]string{{"1", "2"}, {"3", "4"}})
			require.NoError(t, err)

			err = tc.call(computehttp.NewClient(computehttp.Config{URL: srv.URL}), compute.Snapshot{Table: tbl})
			require.Error(t, err)
			assert.ErrorIs(t, err, compute.ErrRemoteCompute)
			if tc.extra != nil {
				assert.ErrorIs(t, err, tc.extra)
			}
		})
	}
}

func TestClientSendsFullDataset(t *testing.T) {
	t.Parallel()

	var rows atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		file, _, err := r.FormFile("file")
		if err != nil {
			w.WriteHeader(http.StatusBadRequest)
			return
		}
		defer file.Close()
		data, _ := io.ReadAll(file)
		tbl, err := table.Parse(data)
		if err != nil {
			w.WriteHeader(http.StatusBadRequest)
			return
		}
		rows.Store(int32(tbl.NumRows()))
		_, _ = io.WriteString(w, `{"statistics":{}}`)
	}))
	t.Cleanup(srv.Close)

	c := computehttp.NewClient(computehttp.Config{URL: srv.URL})
	_, err := c.ComputeStatistics(context.Background(), irisSnapshot(t))
	require.NoError(t, err)
	assert.Equal(t, int32(150), rows.Load())
}

func TestClientTrain(t *testing.T) {
	t.Parallel()

	cases := []struct {
		desc string
		task compute.TaskKind
		path string
	}{
		{desc: "classification", task: compute.Classification, path: "/train-classifier"},
		{desc: "regression", task: compute.Regression, path: "/train"},
	}

	for _, tc := range cases {
		t.Run(tc.desc, func(t *testing.T) {
			t.Parallel()

			paths := make(chan string, 1)
			bodies := make(chan compute.TrainRequest, 1)
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				var body compute.TrainRequest
				_ = json.NewDecoder(r.Body).Decode(&body)
				paths <- r.URL.Path
				bodies <- body
				_, _ = io.WriteString(w, `{"message":"trained","metrics":{"accuracy":0.9},"model_info":{"name":"rf"}}`)
			}))
			t.Cleanup(srv.Close)

			c := computehttp.NewClient(computehttp.Config{URL: "http://unused", TrainerURL: srv.URL})
			req := compute.TrainRequest{
				ModelName: "rf",
				XTrain:    [][]string{{"a"}, {"1"}},
				YTrain:    []float64{0},
				XTest:     [][]string{{"a"}, {"2"}},
				YTest:     []float64{1},
				SessionID: "s1",
				Task:      tc.task,
			}
			res, err := c.Train(context.Background(), req)
			require.NoError(t, err)
			assert.Equal(t, tc.path, <-paths)
			assert.Equal(t, "trained", res.Message)
			got := <-bodies
			assert.Equal(t, "rf", got.ModelName)
			assert.Equal(t, req.XTrain, got.XTrain)
			assert.Equal(t, "s1", got.SessionID)
		})
	}
}
