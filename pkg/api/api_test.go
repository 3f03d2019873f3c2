package api_test

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	apiutil "github.com/absmach/supermq/api/http/util"
	"github.com/absmach/tabula/compute"
	"github.com/absmach/tabula/pipeline"
	"github.com/absmach/tabula/pkg/api"
	pkgerrors "github.com/absmach/tabula/pkg/errors"
	"github.com/absmach/tabula/table"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStatusCode(t *testing.T) {
	t.Parallel()

	cases := []struct {
		desc string
		err  error
		code int
	}{
		{desc: "malformed table", err: fmt.Errorf("%w: empty header", table.ErrMalformedTable), code: http.StatusBadRequest},
		{desc: "invalid parameter", err: pipeline.ErrInvalidParameter, code: http.StatusBadRequest},
		{desc: "missing target", err: pipeline.ErrMissingTarget, code: http.StatusBadRequest},
		{desc: "validation", err: errors.Join(apiutil.ErrValidation, errors.New("bad")), code: http.StatusBadRequest},
		{desc: "not found", err: pkgerrors.ErrNotFound, code: http.StatusNotFound},
		{desc: "no dataset", err: pipeline.ErrNoDataset, code: http.StatusNotFound},
		{desc: "split not ready", err: pipeline.ErrSplitNotReady, code: http.StatusConflict},
		{desc: "entity exists", err: pkgerrors.ErrEntityExists, code: http.StatusConflict},
		{desc: "remote compute", err: compute.NewError(compute.StageEncode, errors.New("timeout")), code: http.StatusBadGateway},
		{desc: "unknown", err: errors.New("boom"), code: http.StatusInternalServerError},
	}

	for _, tc := range cases {
		t.Run(tc.desc, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tc.code, api.StatusCode(tc.err))
		})
	}
}

func TestEncodeError(t *testing.T) {
	t.Parallel()

	w := httptest.NewRecorder()
	api.EncodeError(context.Background(), pipeline.ErrSplitNotReady, w)

	assert.Equal(t, http.StatusConflict, w.Code)
	assert.Equal(t, api.ContentType, w.Header().Get("Content-Type"))

	var body map[string]string
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Equal(t, pipeline.ErrSplitNotReady.Error(), body["error"])
}
