package badger_test

import (
	"context"
	"fmt"
	"testing"

	pkgerrors "github.com/absmach/tabula/pkg/errors"
	"github.com/absmach/tabula/pkg/storage/badger"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newStore(t *testing.T) *badger.Store {
	t.Helper()

	s, err := badger.New(t.TempDir(), "datasets:")
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })

	return s
}

func TestCreateGet(t *testing.T) {
	t.Parallel()
	s := newStore(t)
	ctx := context.Background()

	cases := []struct {
		desc  string
		key   string
		value any
		err   error
	}{
		{desc: "create bytes", key: "a", value: []byte("a,b\n1,2\n")},
		{desc: "create string", key: "b", value: "x\n1\n"},
		{desc: "duplicate key", key: "a", value: []byte("c"), err: pkgerrors.ErrEntityExists},
		{desc: "empty key", key: "", value: []byte("c"), err: pkgerrors.ErrEmptyKey},
		{desc: "unsupported value", key: "c", value: 42, err: pkgerrors.ErrInvalidData},
	}

	for _, tc := range cases {
		err := s.Create(ctx, tc.key, tc.value)
		if tc.err == nil {
			assert.NoError(t, err, tc.desc)

			continue
		}
		assert.ErrorIs(t, err, tc.err, tc.desc)
	}

	got, err := s.Get(ctx, "a")
	require.NoError(t, err)
	assert.Equal(t, []byte("a,b\n1,2\n"), got)

	got, err = s.Get(ctx, "b")
	require.NoError(t, err)
	assert.Equal(t, []byte("x\n1\n"), got)

	_, err = s.Get(ctx, "missing")
	assert.ErrorIs(t, err, pkgerrors.ErrNotFound)
}

func TestUpdateDelete(t *testing.T) {
	t.Parallel()
	s := newStore(t)
	ctx := context.Background()

	assert.ErrorIs(t, s.Update(ctx, "a", []byte("v")), pkgerrors.ErrNotFound)
	require.NoError(t, s.Create(ctx, "a", []byte("v1")))
	require.NoError(t, s.Update(ctx, "a", []byte("v2")))

	got, err := s.Get(ctx, "a")
	require.NoError(t, err)
	assert.Equal(t, []byte("v2"), got)

	require.NoError(t, s.Delete(ctx, "a"))
	assert.ErrorIs(t, s.Delete(ctx, "a"), pkgerrors.ErrNotFound)
	_, err = s.Get(ctx, "a")
	assert.ErrorIs(t, err, pkgerrors.ErrNotFound)
}

func TestList(t *testing.T) {
	t.Parallel()
	s := newStore(t)
	ctx := context.Background()

	for i := range 5 {
		require.NoError(t, s.Create(ctx, fmt.Sprintf("k%d", i), fmt.Sprintf("v%d", i)))
	}

	cases := []struct {
		desc   string
		offset uint64
		limit  uint64
		want   []any
	}{
		{desc: "first page", offset: 0, limit: 2, want: []any{[]byte("v0"), []byte("v1")}},
		{desc: "middle page", offset: 2, limit: 2, want: []any{[]byte("v2"), []byte("v3")}},
		{desc: "last page", offset: 4, limit: 2, want: []any{[]byte("v4")}},
		{desc: "past the end", offset: 9, limit: 2, want: nil},
	}

	for _, tc := range cases {
		items, total, err := s.List(ctx, tc.offset, tc.limit)
		require.NoError(t, err, tc.desc)
		assert.Equal(t, uint64(5), total, tc.desc)
		assert.Equal(t, tc.want, items, tc.desc)
	}
}
