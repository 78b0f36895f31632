package kv

import (
	"context"
	"errors"
	"fmt"
	"strconv"

	"github.com/redis/go-redis/v9"
)

// RedisConfig holds connection settings for a Redis-backed store.
type RedisConfig struct {
	Addr     string
	Password string
	DB       int
	// Prefix namespaces every Redis key written by the store.
	Prefix string
}

// RedisStore implements Store on Redis.
//
// Each logical key k is kept as three Redis entries: the value at
// prefix+"d:"+k, a monotonically increasing version at prefix+"v:"+k and a
// member k of the sorted set prefix+"keys" (score 0) that provides ordered
// range scans via ZRANGEBYLEX.
type RedisStore struct {
	client *redis.Client
	prefix string
}

// OpenRedis connects to Redis and verifies the connection.
func OpenRedis(ctx context.Context, cfg RedisConfig) (*RedisStore, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("connect to redis at %s: %w", cfg.Addr, err)
	}
	return NewRedisStore(client, cfg.Prefix), nil
}

// NewRedisStore wraps an existing client.
func NewRedisStore(client *redis.Client, prefix string) *RedisStore {
	return &RedisStore{client: client, prefix: prefix}
}

func (s *RedisStore) dataKey(key []byte) string    { return s.prefix + "d:" + string(key) }
func (s *RedisStore) versionKey(key []byte) string { return s.prefix + "v:" + string(key) }
func (s *RedisStore) indexKey() string             { return s.prefix + "keys" }

// Get returns the item stored under key.
func (s *RedisStore) Get(ctx context.Context, key []byte) (*Item, error) {
	vals, err := s.client.MGet(ctx, s.dataKey(key), s.versionKey(key)).Result()
	if err != nil {
		return nil, err
	}
	return toItem(key, vals[0], vals[1])
}

func toItem(key []byte, data, version any) (*Item, error) {
	value, ok := data.(string)
	if !ok {
		return nil, ErrNotFound
	}
	item := &Item{Key: append([]byte(nil), key...), Value: []byte(value), Version: 1}
	if v, ok := version.(string); ok {
		n, err := strconv.ParseUint(v, 10, 64)
		if err != nil {
			return nil, fmt.Errorf("parse version of %q: %w", key, err)
		}
		item.Version = n
	}
	return item, nil
}

func (s *RedisStore) write(ctx context.Context, pipe redis.Pipeliner, key, value []byte) {
	pipe.Set(ctx, s.dataKey(key), value, 0)
	pipe.Incr(ctx, s.versionKey(key))
	pipe.ZAdd(ctx, s.indexKey(), redis.Z{Score: 0, Member: string(key)})
}

// Set stores value under key.
func (s *RedisStore) Set(ctx context.Context, key, value []byte) error {
	_, err := s.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		s.write(ctx, pipe, key, value)
		return nil
	})
	return err
}

// CompareAndSwap watches the value and version keys so a concurrent write
// aborts the transaction.
func (s *RedisStore) CompareAndSwap(ctx context.Context, key, value []byte, version uint64) error {
	dataKey, versionKey := s.dataKey(key), s.versionKey(key)
	err := s.client.Watch(ctx, func(tx *redis.Tx) error {
		vals, err := tx.MGet(ctx, dataKey, versionKey).Result()
		if err != nil {
			return err
		}
		current, err := toItem(key, vals[0], vals[1])
		switch {
		case errors.Is(err, ErrNotFound):
			if version != 0 {
				return ErrVersionMismatch
			}
		case err != nil:
			return err
		case current.Version != version:
			return ErrVersionMismatch
		}

		_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			s.write(ctx, pipe, key, value)
			return nil
		})
		return err
	}, dataKey, versionKey)
	if errors.Is(err, redis.TxFailedErr) {
		return ErrVersionMismatch
	}
	return err
}

// Delete removes key. The version counter is kept so a recreated key never
// reuses an old version.
func (s *RedisStore) Delete(ctx context.Context, key []byte) error {
	_, err := s.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Del(ctx, s.dataKey(key))
		pipe.ZRem(ctx, s.indexKey(), string(key))
		return nil
	})
	return err
}

// Scan pages through the key index with ZRANGEBYLEX and resolves each page
// with a single MGET.
func (s *RedisStore) Scan(ctx context.Context, start, end []byte, fn func(*Item) error) error {
	lo := "[" + string(start)
	if len(start) == 0 {
		lo = "-"
	}
	hi := "+"
	if end != nil {
		hi = "(" + string(end)
	}

	for {
		keys, err := s.client.ZRangeByLex(ctx, s.indexKey(), &redis.ZRangeBy{
			Min:   lo,
			Max:   hi,
			Count: scanPageSize,
		}).Result()
		if err != nil {
			return err
		}
		if len(keys) == 0 {
			return nil
		}

		lookup := make([]string, 0, 2*len(keys))
		for _, k := range keys {
			lookup = append(lookup, s.dataKey([]byte(k)), s.versionKey([]byte(k)))
		}
		vals, err := s.client.MGet(ctx, lookup...).Result()
		if err != nil {
			return err
		}

		for i, k := range keys {
			item, err := toItem([]byte(k), vals[2*i], vals[2*i+1])
			if errors.Is(err, ErrNotFound) {
				// deleted between ZRANGEBYLEX and MGET
				continue
			}
			if err != nil {
				return err
			}
			if err := fn(item); err != nil {
				if errors.Is(err, ErrStopScan) {
					return nil
				}
				return err
			}
		}

		if len(keys) < scanPageSize {
			return nil
		}
		lo = "(" + keys[len(keys)-1]
	}
}

// DeletePrefix removes every key starting with prefix. Version counters are
// kept, as in Delete.
func (s *RedisStore) DeletePrefix(ctx context.Context, prefix []byte) error {
	var batch [][]byte
	flush := func() error {
		if len(batch) == 0 {
			return nil
		}
		_, err := s.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			members := make([]any, 0, len(batch))
			for _, k := range batch {
				pipe.Del(ctx, s.dataKey(k))
				members = append(members, string(k))
			}
			pipe.ZRem(ctx, s.indexKey(), members...)
			return nil
		})
		batch = batch[:0]
		return err
	}

	err := ScanPrefix(ctx, s, prefix, func(item *Item) error {
		batch = append(batch, item.Key)
		if len(batch) >= scanPageSize {
			return flush()
		}
		return nil
	})
	if err != nil {
		return err
	}
	return flush()
}

// Ping checks the connection.
func (s *RedisStore) Ping(ctx context.Context) error {
	return s.client.Ping(ctx).Err()
}

// Close closes the client.
func (s *RedisStore) Close() error {
	return s.client.Close()
}
