package kvstore

import (
	"context"
	"strings"

	"github.com/kbukum/goplatform/errors"
)

const moduleName = "KeyValueStore"

// Store is a key-value store. Get and GetBytes report a missing key with
// ok=false rather than an error.
type Store interface {
	Get(ctx context.Context, key string) (value string, ok bool, err error)
	GetBytes(ctx context.Context, key string) (value []byte, ok bool, err error)
	Set(ctx context.Context, key, value string) error
	SetBytes(ctx context.Context, key string, value []byte) error
	Remove(ctx context.Context, key string) error
	Clear(ctx context.Context) error
	Size(ctx context.Context) (int, error)
}

// Has reports whether key is present.
func Has(ctx context.Context, s Store, key string) (bool, error) {
	_, ok, err := s.GetBytes(ctx, key)
	return ok, err
}

// IsEmpty reports whether the store holds no keys.
func IsEmpty(ctx context.Context, s Store) (bool, error) {
	n, err := s.Size(ctx)
	return n == 0, err
}

// Modify replaces the value of key with fn(value) and returns the new value.
// A missing key is left untouched and ok is false.
func Modify(ctx context.Context, s Store, key string, fn func(string) string) (string, bool, error) {
	v, ok, err := s.Get(ctx, key)
	if err != nil || !ok {
		return "", false, err
	}
	v = fn(v)
	if err := s.Set(ctx, key, v); err != nil {
		return "", false, err
	}
	return v, true, nil
}

// ModifyBytes is Modify for byte values.
func ModifyBytes(ctx context.Context, s Store, key string, fn func([]byte) []byte) ([]byte, bool, error) {
	v, ok, err := s.GetBytes(ctx, key)
	if err != nil || !ok {
		return nil, false, err
	}
	v = fn(v)
	if err := s.SetBytes(ctx, key, v); err != nil {
		return nil, false, err
	}
	return v, true, nil
}

// Prefixed returns a view of s restricted to keys starting with prefix.
// Keys passed to the view are relative to prefix. Clear and Size only
// touch keys under the prefix.
func Prefixed(s Store, prefix string) Store {
	return &prefixed{inner: s, prefix: prefix}
}

// keyLister is implemented by backends that can enumerate their keys.
type keyLister interface {
	keys(ctx context.Context) ([]string, error)
}

type prefixed struct {
	inner  Store
	prefix string
}

func (p *prefixed) Get(ctx context.Context, key string) (string, bool, error) {
	return p.inner.Get(ctx, p.prefix+key)
}

func (p *prefixed) GetBytes(ctx context.Context, key string) ([]byte, bool, error) {
	return p.inner.GetBytes(ctx, p.prefix+key)
}

func (p *prefixed) Set(ctx context.Context, key, value string) error {
	return p.inner.Set(ctx, p.prefix+key, value)
}

func (p *prefixed) SetBytes(ctx context.Context, key string, value []byte) error {
	return p.inner.SetBytes(ctx, p.prefix+key, value)
}

func (p *prefixed) Remove(ctx context.Context, key string) error {
	return p.inner.Remove(ctx, p.prefix+key)
}

func (p *prefixed) Clear(ctx context.Context) error {
	keys, err := p.keys(ctx)
	if err != nil {
		return err
	}
	for _, k := range keys {
		if err := p.inner.Remove(ctx, p.prefix+k); err != nil {
			return err
		}
	}
	return nil
}

func (p *prefixed) Size(ctx context.Context) (int, error) {
	keys, err := p.keys(ctx)
	return len(keys), err
}

func (p *prefixed) keys(ctx context.Context) ([]string, error) {
	lister, ok := p.inner.(keyLister)
	if !ok {
		return nil, errors.NewBadArgument(moduleName, "prefixed", "backend cannot list keys")
	}
	all, err := lister.keys(ctx)
	if err != nil {
		return nil, err
	}
	var out []string
	for _, k := range all {
		if rest, ok := strings.CutPrefix(k, p.prefix); ok {
			out = append(out, rest)
		}
	}
	return out, nil
}
