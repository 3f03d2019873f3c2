// Package redis stores raw byte values in Redis under a key prefix.
package redis

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"time"

	pkgerrors "github.com/absmach/tabula/pkg/errors"
	goredis "github.com/redis/go-redis/v9"
)

const scanCount = 100

type Config struct {
	Address  string
	Password string
	DB       int
	Prefix   string
	TTL      time.Duration
}

// Store implements storage.Storage. Values must be []byte or string; Get
// always returns []byte.
type Store struct {
	client *goredis.Client
	prefix string
	ttl    time.Duration
}

func New(cfg Config) *Store {
	client := goredis.NewClient(&goredis.Options{
		Addr:     cfg.Address,
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	return NewWithClient(client, cfg.Prefix, cfg.TTL)
}

func NewWithClient(client *goredis.Client, prefix string, ttl time.Duration) *Store {
	return &Store{client: client, prefix: prefix, ttl: ttl}
}

func (s *Store) Create(ctx context.Context, key string, value any) error {
	if key == "" {
		return pkgerrors.ErrEmptyKey
	}
	data, err := toBytes(value)
	if err != nil {
		return err
	}

	ok, err := s.client.SetNX(ctx, s.prefix+key, data, s.ttl).Result()
	if err != nil {
		return fmt.Errorf("redis SETNX failed: %w", err)
	}
	if !ok {
		return pkgerrors.ErrEntityExists
	}

	return nil
}

func (s *Store) Get(ctx context.Context, key string) (any, error) {
	if key == "" {
		return nil, pkgerrors.ErrEmptyKey
	}

	data, err := s.client.Get(ctx, s.prefix+key).Bytes()
	switch {
	case errors.Is(err, goredis.Nil):
		return nil, pkgerrors.ErrNotFound
	case err != nil:
		return nil, fmt.Errorf("redis GET failed: %w", err)
	}

	return data, nil
}

func (s *Store) Update(ctx context.Context, key string, value any) error {
	if key == "" {
		return pkgerrors.ErrEmptyKey
	}
	data, err := toBytes(value)
	if err != nil {
		return err
	}

	ok, err := s.client.SetXX(ctx, s.prefix+key, data, s.ttl).Result()
	if err != nil {
		return fmt.Errorf("redis SETXX failed: %w", err)
	}
	if !ok {
		return pkgerrors.ErrNotFound
	}

	return nil
}

func (s *Store) List(ctx context.Context, offset, limit uint64) ([]any, uint64, error) {
	var keys []string
	iter := s.client.Scan(ctx, 0, s.prefix+"*", scanCount).Iterator()
	for iter.Next(ctx) {
		keys = append(keys, iter.Val())
	}
	if err := iter.Err(); err != nil {
		return nil, 0, fmt.Errorf("redis SCAN failed: %w", err)
	}
	slices.Sort(keys)

	total := uint64(len(keys))
	if offset >= total {
		return nil, total, nil
	}
	end := min(offset+limit, total)

	values, err := s.client.MGet(ctx, keys[offset:end]...).Result()
	if err != nil {
		return nil, 0, fmt.Errorf("redis MGET failed: %w", err)
	}
	result := make([]any, 0, len(values))
	for _, v := range values {
		str, ok := v.(string)
		if !ok {
			// Expired between SCAN and MGET.
			continue
		}
		result = append(result, []byte(str))
	}

	return result, total, nil
}

func (s *Store) Delete(ctx context.Context, key string) error {
	if key == "" {
		return pkgerrors.ErrEmptyKey
	}

	n, err := s.client.Del(ctx, s.prefix+key).Result()
	if err != nil {
		return fmt.Errorf("redis DEL failed: %w", err)
	}
	if n == 0 {
		return pkgerrors.ErrNotFound
	}

	return nil
}

func (s *Store) Close() error {
	return s.client.Close()
}

func toBytes(value any) ([]byte, error) {
	switch v := value.(type) {
	case []byte:
		return v, nil
	case string:
		return []byte(v), nil
	default:
		return nil, pkgerrors.ErrInvalidData
	}
}
