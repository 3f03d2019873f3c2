package cli

import (
	"bytes"
	"encoding/json"
	"log/slog"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/absmach/tabula/compute/local"
	"github.com/absmach/tabula/pkg/sdk"
	"github.com/absmach/tabula/pkg/storage"
	"github.com/absmach/tabula/session"
	"github.com/absmach/tabula/session/api"
	"github.com/absmach/tabula/session/samples"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// These tests share the package SDK and are not run in parallel.

func setup(t *testing.T) {
	t.Helper()

	svc := session.NewService(session.Config{}, storage.NewInMemoryStorage(), local.New(local.Config{}), nil, nil, nil)
	ts := httptest.NewServer(api.MakeHandler(svc, slog.New(slog.DiscardHandler), "test", nil))
	t.Cleanup(ts.Close)

	SetSDK(sdk.NewSDK(sdk.Config{ManagerURL: ts.URL}))
	SetPretty(false)
}

func execute(t *testing.T, args ...string) (string, string) {
	t.Helper()

	root := NewSessionsCmd()
	var out, errOut bytes.Buffer
	root.SetOut(&out)
	root.SetErr(&errOut)
	root.SetArgs(args)
	require.NoError(t, root.Execute())

	return out.String(), errOut.String()
}

func TestSessionsCommands(t *testing.T) {
	setup(t)

	path := filepath.Join(t.TempDir(), "iris.csv")
	require.NoError(t, os.WriteFile(path, samples.Iris(), 0o600))

	out, errOut := execute(t, "create", path)
	require.Empty(t, errOut)
	var s session.Session
	require.NoError(t, json.Unmarshal([]byte(out), &s))
	assert.Equal(t, "iris.csv", s.Name)

	selectTarget = func(columns []string) (string, error) {
		return columns[len(columns)-1], nil
	}
	out, errOut = execute(t, "target", s.ID)
	require.Empty(t, errOut)
	assert.Contains(t, out, `"target":"species"`)

	recipe := filepath.Join(t.TempDir(), "recipe.yaml")
	require.NoError(t, os.WriteFile(recipe, []byte(`schema_version: v1
steps:
  - stage: missing-handle
  - stage: encode
  - stage: scale
  - stage: split
    test_percentage: 20
`), 0o600))
	out, errOut = execute(t, "run", s.ID, recipe)
	require.Empty(t, errOut)
	var results []session.StageResult
	require.NoError(t, json.Unmarshal([]byte(out), &results))
	assert.Len(t, results, 4)

	out, errOut = execute(t, "split", s.ID)
	require.Empty(t, errOut)
	var in session.TrainingInput
	require.NoError(t, json.Unmarshal([]byte(out), &in))
	assert.Len(t, in.YTest, 30)

	out, _ = execute(t, "clear", s.ID)
	assert.Contains(t, out, "ok")

	_, errOut = execute(t, "view", s.ID)
	assert.Contains(t, errOut, "404")
}

func TestSessionsCommandErrors(t *testing.T) {
	setup(t)

	tests := []struct {
		name string
		args []string
		out  string
		err  string
	}{
		{name: "create without file", args: []string{"create"}, out: "usage"},
		{name: "create missing file", args: []string{"create", "/no/such/file.csv"}, err: "no such file"},
		{name: "unknown stage", args: []string{"stage", "id", "normalize"}, err: "unknown stage"},
		{name: "train without model", args: []string{"train", "id"}, out: "usage"},
		{name: "watch without broker", args: []string{"watch", "id"}, err: "mqtt address not configured"},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			out, errOut := execute(t, tc.args...)
			if tc.out != "" {
				assert.Contains(t, out, tc.out)
			}
			if tc.err != "" {
				assert.Contains(t, errOut, tc.err)
			}
		})
	}
}
