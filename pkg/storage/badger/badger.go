// Package badger is an embedded on-disk backend for storage.Storage.
package badger

import (
	"context"
	"errors"
	"fmt"

	pkgerrors "github.com/absmach/tabula/pkg/errors"
	badgerdb "github.com/dgraph-io/badger/v4"
)

var (
	ErrDBConnection = errors.New("badger database connection error")
	ErrDBQuery      = errors.New("database query error")
	ErrUpdate       = errors.New("update error")
	ErrDelete       = errors.New("delete error")
)

type Store struct {
	db     *badgerdb.DB
	prefix []byte
}

// New opens or creates the database at path. Keys are namespaced by prefix.
func New(path, prefix string) (*Store, error) {
	opts := badgerdb.DefaultOptions(path)
	opts.Logger = nil
	db, err := badgerdb.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrDBConnection, err)
	}

	return &Store{db: db, prefix: []byte(prefix)}, nil
}

func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) key(k string) []byte {
	return append(append([]byte{}, s.prefix...), k...)
}

func (s *Store) Create(_ context.Context, key string, value any) error {
	if key == "" {
		return pkgerrors.ErrEmptyKey
	}
	val, err := encode(value)
	if err != nil {
		return err
	}

	err = s.db.Update(func(txn *badgerdb.Txn) error {
		_, err := txn.Get(s.key(key))
		switch {
		case err == nil:
			return pkgerrors.ErrEntityExists
		case !errors.Is(err, badgerdb.ErrKeyNotFound):
			return err
		}

		return txn.Set(s.key(key), val)
	})
	if err != nil {
		if errors.Is(err, pkgerrors.ErrEntityExists) {
			return err
		}

		return fmt.Errorf("%w: %w", ErrUpdate, err)
	}

	return nil
}

func (s *Store) Get(_ context.Context, key string) (any, error) {
	if key == "" {
		return nil, pkgerrors.ErrEmptyKey
	}

	var val []byte
	err := s.db.View(func(txn *badgerdb.Txn) error {
		item, err := txn.Get(s.key(key))
		if err != nil {
			return err
		}
		val, err = item.ValueCopy(nil)

		return err
	})
	if err != nil {
		if errors.Is(err, badgerdb.ErrKeyNotFound) {
			return nil, pkgerrors.ErrNotFound
		}

		return nil, fmt.Errorf("%w: %w", ErrDBQuery, err)
	}

	return val, nil
}

func (s *Store) Update(_ context.Context, key string, value any) error {
	if key == "" {
		return pkgerrors.ErrEmptyKey
	}
	val, err := encode(value)
	if err != nil {
		return err
	}

	err = s.db.Update(func(txn *badgerdb.Txn) error {
		if _, err := txn.Get(s.key(key)); err != nil {
			return err
		}

		return txn.Set(s.key(key), val)
	})
	if err != nil {
		if errors.Is(err, badgerdb.ErrKeyNotFound) {
			return pkgerrors.ErrNotFound
		}

		return fmt.Errorf("%w: %w", ErrUpdate, err)
	}

	return nil
}

// List pages over values in key order.
func (s *Store) List(_ context.Context, offset, limit uint64) ([]any, uint64, error) {
	var (
		items []any
		total uint64
	)
	err := s.db.View(func(txn *badgerdb.Txn) error {
		opts := badgerdb.DefaultIteratorOptions
		opts.PrefetchSize = int(min(max(limit, 1), 100))
		it := txn.NewIterator(opts)
		defer it.Close()

		for it.Seek(s.prefix); it.ValidForPrefix(s.prefix); it.Next() {
			total++
			if total <= offset || uint64(len(items)) >= limit {
				continue
			}
			val, err := it.Item().ValueCopy(nil)
			if err != nil {
				return err
			}
			items = append(items, val)
		}

		return nil
	})
	if err != nil {
		return nil, 0, fmt.Errorf("%w: %w", ErrDBQuery, err)
	}

	return items, total, nil
}

func (s *Store) Delete(_ context.Context, key string) error {
	if key == "" {
		return pkgerrors.ErrEmptyKey
	}

	err := s.db.Update(func(txn *badgerdb.Txn) error {
		if _, err := txn.Get(s.key(key)); err != nil {
			return err
		}

		return txn.Delete(s.key(key))
	})
	if err != nil {
		if errors.Is(err, badgerdb.ErrKeyNotFound) {
			return pkgerrors.ErrNotFound
		}

		return fmt.Errorf("%w: %w", ErrDelete, err)
	}

	return nil
}

func encode(value any) ([]byte, error) {
	switch v := value.(type) {
	case []byte:
		return v, nil
	case string:
		return []byte(v), nil
	default:
		return nil, fmt.Errorf("%w: badger stores []byte or string values, got %T", pkgerrors.ErrInvalidData, value)
	}
}
