package kvstore

import (
	"context"
	"errors"
	"strings"

	goredis "github.com/redis/go-redis/v9"

	perrors "github.com/kbukum/goplatform/errors"
)

const scanBatch = 256

// Redis is a Store backed by a redis database. With a prefix, every key is
// stored as prefix + ":" + key and Clear/Size only see those keys.
type Redis struct {
	rdb    goredis.UniversalClient
	prefix string
}

var _ Store = (*Redis)(nil)

// NewRedis creates a store on an existing client.
func NewRedis(rdb goredis.UniversalClient, prefix string) *Redis {
	return &Redis{rdb: rdb, prefix: prefix}
}

func (r *Redis) fullKey(key string) string {
	if r.prefix == "" {
		return key
	}
	return r.prefix + ":" + key
}

func (r *Redis) pattern() string {
	if r.prefix == "" {
		return "*"
	}
	return escapeGlob(r.prefix) + ":*"
}

func (r *Redis) fail(err error, method, key string) error {
	return perrors.Classify(err, moduleName, method, key)
}

func (r *Redis) Get(ctx context.Context, key string) (string, bool, error) {
	v, err := r.rdb.Get(ctx, r.fullKey(key)).Result()
	if errors.Is(err, goredis.Nil) {
		return "", false, nil
	}
	if err != nil {
		return "", false, r.fail(err, "get", key)
	}
	return v, true, nil
}

func (r *Redis) GetBytes(ctx context.Context, key string) ([]byte, bool, error) {
	v, err := r.rdb.Get(ctx, r.fullKey(key)).Bytes()
	if errors.Is(err, goredis.Nil) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, r.fail(err, "getUint8Array", key)
	}
	return v, true, nil
}

func (r *Redis) Set(ctx context.Context, key, value string) error {
	if err := r.rdb.Set(ctx, r.fullKey(key), value, 0).Err(); err != nil {
		return r.fail(err, "set", key)
	}
	return nil
}

func (r *Redis) SetBytes(ctx context.Context, key string, value []byte) error {
	if err := r.rdb.Set(ctx, r.fullKey(key), value, 0).Err(); err != nil {
		return r.fail(err, "set", key)
	}
	return nil
}

func (r *Redis) Remove(ctx context.Context, key string) error {
	if err := r.rdb.Del(ctx, r.fullKey(key)).Err(); err != nil {
		return r.fail(err, "remove", key)
	}
	return nil
}

func (r *Redis) Clear(ctx context.Context) error {
	return r.scan(ctx, "clear", func(batch []string) error {
		return r.rdb.Del(ctx, batch...).Err()
	})
}

func (r *Redis) Size(ctx context.Context) (int, error) {
	n := 0
	err := r.scan(ctx, "size", func(batch []string) error {
		n += len(batch)
		return nil
	})
	return n, err
}

func (r *Redis) keys(ctx context.Context) ([]string, error) {
	var out []string
	err := r.scan(ctx, "keys", func(batch []string) error {
		for _, k := range batch {
			if r.prefix != "" {
				k = strings.TrimPrefix(k, r.prefix+":")
			}
			out = append(out, k)
		}
		return nil
	})
	return out, err
}

func (r *Redis) scan(ctx context.Context, method string, fn func(batch []string) error) error {
	var cursor uint64
	for {
		batch, next, err := r.rdb.Scan(ctx, cursor, r.pattern(), scanBatch).Result()
		if err != nil {
			return r.fail(err, method, r.prefix)
		}
		if len(batch) > 0 {
			if err := fn(batch); err != nil {
				return r.fail(err, method, r.prefix)
			}
		}
		if next == 0 {
			return nil
		}
		cursor = next
	}
}

func escapeGlob(s string) string {
	var b strings.Builder
	for _, c := range s {
		switch c {
		case '*', '?', '[', ']', '\\':
			b.WriteByte('\\')
		}
		b.WriteRune(c)
	}
	return b.String()
}
