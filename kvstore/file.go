package kvstore

import (
	"context"
	"encoding/json"
	"errors"
	"io/fs"
	"maps"
	"path/filepath"
	"slices"
	"sync"

	"github.com/google/uuid"
	"github.com/spf13/afero"

	perrors "github.com/kbukum/goplatform/errors"
)

// File is a Store persisted as a single JSON document. Every mutation
// rewrites the document through a temporary file and a rename, so a
// crash never leaves a half-written store behind.
type File struct {
	fs   afero.Fs
	path string

	mu     sync.Mutex
	data   map[string][]byte
	loaded bool
}

var _ Store = (*File)(nil)

// NewFile creates a store backed by path on fsys. The file is read on
// first use and created on first write.
func NewFile(fsys afero.Fs, path string) *File {
	return &File{fs: fsys, path: path}
}

func (f *File) load(method string) error {
	if f.loaded {
		return nil
	}
	raw, err := afero.ReadFile(f.fs, f.path)
	switch {
	case errors.Is(err, fs.ErrNotExist):
		f.data = make(map[string][]byte)
	case err != nil:
		return perrors.Classify(err, moduleName, method, f.path)
	default:
		data := make(map[string][]byte)
		if err := json.Unmarshal(raw, &data); err != nil {
			return &perrors.SystemError{
				Reason: perrors.ReasonInvalidData, Module: moduleName, Method: method,
				PathOrDescriptor: f.path, Message: err.Error(), Cause: err,
			}
		}
		f.data = data
	}
	f.loaded = true
	return nil
}

func (f *File) persist(method string) error {
	raw, err := json.Marshal(f.data)
	if err != nil {
		return perrors.Classify(err, moduleName, method, f.path)
	}
	if dir := filepath.Dir(f.path); dir != "." {
		if err := f.fs.MkdirAll(dir, 0o755); err != nil {
			return perrors.Classify(err, moduleName, method, f.path)
		}
	}
	tmp := f.path + ".tmp-" + uuid.NewString()
	if err := afero.WriteFile(f.fs, tmp, raw, 0o644); err != nil {
		return perrors.Classify(err, moduleName, method, tmp)
	}
	if err := f.fs.Rename(tmp, f.path); err != nil {
		_ = f.fs.Remove(tmp)
		return perrors.Classify(err, moduleName, method, f.path)
	}
	return nil
}

func (f *File) Get(ctx context.Context, key string) (string, bool, error) {
	v, ok, err := f.GetBytes(ctx, key)
	return string(v), ok, err
}

func (f *File) GetBytes(_ context.Context, key string) ([]byte, bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.load("get"); err != nil {
		return nil, false, err
	}
	v, ok := f.data[key]
	if !ok {
		return nil, false, nil
	}
	return slices.Clone(v), true, nil
}

func (f *File) Set(ctx context.Context, key, value string) error {
	return f.SetBytes(ctx, key, []byte(value))
}

func (f *File) SetBytes(_ context.Context, key string, value []byte) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.load("set"); err != nil {
		return err
	}
	prev, had := f.data[key]
	f.data[key] = slices.Clone(value)
	if err := f.persist("set"); err != nil {
		if had {
			f.data[key] = prev
		} else {
			delete(f.data, key)
		}
		return err
	}
	return nil
}

func (f *File) Remove(_ context.Context, key string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.load("remove"); err != nil {
		return err
	}
	prev, had := f.data[key]
	if !had {
		return nil
	}
	delete(f.data, key)
	if err := f.persist("remove"); err != nil {
		f.data[key] = prev
		return err
	}
	return nil
}

func (f *File) Clear(_ context.Context) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.load("clear"); err != nil {
		return err
	}
	prev := f.data
	f.data = make(map[string][]byte)
	if err := f.persist("clear"); err != nil {
		f.data = prev
		return err
	}
	return nil
}

func (f *File) Size(_ context.Context) (int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.load("size"); err != nil {
		return 0, err
	}
	return len(f.data), nil
}

func (f *File) keys(_ context.Context) ([]string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.load("keys"); err != nil {
		return nil, err
	}
	return slices.Collect(maps.Keys(f.data)), nil
}
