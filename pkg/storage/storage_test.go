package storage_test

import (
	"context"
	"fmt"
	"sync"
	"testing"

	pkgerrors "github.com/absmach/tabula/pkg/errors"
	"github.com/absmach/tabula/pkg/storage"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestInMemoryStorage(t *testing.T) {
	t.Parallel()
	s := storage.NewInMemoryStorage()
	ctx := context.Background()

	require.NoError(t, s.Create(ctx, "a", 1))
	assert.ErrorIs(t, s.Create(ctx, "a", 2), pkgerrors.ErrEntityExists)
	assert.ErrorIs(t, s.Create(ctx, "", 2), pkgerrors.ErrEmptyKey)

	v, err := s.Get(ctx, "a")
	require.NoError(t, err)
	assert.Equal(t, 1, v)

	require.NoError(t, s.Update(ctx, "a", 3))
	v, err = s.Get(ctx, "a")
	require.NoError(t, err)
	assert.Equal(t, 3, v)
	assert.ErrorIs(t, s.Update(ctx, "b", 3), pkgerrors.ErrNotFound)

	require.NoError(t, s.Delete(ctx, "a"))
	_, err = s.Get(ctx, "a")
	assert.ErrorIs(t, err, pkgerrors.ErrNotFound)
	assert.ErrorIs(t, s.Delete(ctx, "a"), pkgerrors.ErrNotFound)
}

func TestInMemoryStorageList(t *testing.T) {
	t.Parallel()
	s := storage.NewInMemoryStorage()
	ctx := context.Background()

	for i := range 5 {
		require.NoError(t, s.Create(ctx, fmt.Sprintf("k%d", i), i))
	}

	cases := []struct {
		desc          string
		offset, limit uint64
		want          []any
	}{
		{desc: "first page", offset: 0, limit: 3, want: []any{0, 1, 2}},
		{desc: "rest", offset: 3, limit: 3, want: []any{3, 4}},
		{desc: "past the end", offset: 5, limit: 3, want: nil},
	}

	for _, tc := range cases {
		got, total, err := s.List(ctx, tc.offset, tc.limit)
		require.NoError(t, err, tc.desc)
		assert.Equal(t, uint64(5), total, tc.desc)
		assert.Equal(t, tc.want, got, tc.desc)
	}
}

func TestInMemoryStorageKeyOrder(t *testing.T) {
	t.Parallel()
	s := storage.NewInMemoryStorage()
	ctx := context.Background()

	for _, k := range []string{"c", "a", "e", "b", "d"} {
		require.NoError(t, s.Create(ctx, k, k))
	}
	require.NoError(t, s.Delete(ctx, "c"))
	require.NoError(t, s.Update(ctx, "e", "E"))

	got, total, err := s.List(ctx, 0, 10)
	require.NoError(t, err)
	assert.Equal(t, uint64(4), total)
	assert.Equal(t, []any{"a", "b", "d", "E"}, got)

	got, _, err = s.List(ctx, 1, 0)
	require.NoError(t, err)
	assert.Empty(t, got)
}

func TestInMemoryStorageConcurrentCreate(t *testing.T) {
	t.Parallel()
	s := storage.NewInMemoryStorage()
	ctx := context.Background()

	var wg sync.WaitGroup
	for i := range 50 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			assert.NoError(t, s.Create(ctx, fmt.Sprintf("k%02d", i), i))
		}()
	}
	wg.Wait()

	got, total, err := s.List(ctx, 0, 100)
	require.NoError(t, err)
	assert.Equal(t, uint64(50), total)
	for i, v := range got {
		assert.Equal(t, i, v)
	}
}

func TestNew(t *testing.T) {
	t.Parallel()

	cases := []struct {
		desc    string
		cfg     storage.Config
		wantErr bool
	}{
		{desc: "default", cfg: storage.Config{}},
		{desc: "memory", cfg: storage.Config{Type: "memory"}},
		{desc: "redis", cfg: storage.Config{Type: "redis", RedisAddress: "localhost:6379"}},
		{desc: "badger", cfg: storage.Config{Type: "badger", BadgerPath: t.TempDir()}},
		{desc: "unknown", cfg: storage.Config{Type: "etcd"}, wantErr: true},
	}

	for _, tc := range cases {
		s, err := storage.New(tc.cfg)
		if tc.wantErr {
			assert.Error(t, err, tc.desc)

			continue
		}
		require.NoError(t, err, tc.desc)
		assert.NotNil(t, s, tc.desc)
		if c, ok := s.(interface{ Close() error }); ok {
			assert.NoError(t, c.Close(), tc.desc)
		}
	}
}
