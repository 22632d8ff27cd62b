package filesystem

import (
	"context"
	"encoding/hex"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/afero"
	"golang.org/x/sys/unix"

	"github.com/kbukum/goplatform/errors"
	"github.com/kbukum/goplatform/scope"
	"github.com/kbukum/goplatform/stream"
)

const moduleName = "FileSystem"

// AccessOptions selects the permissions Access checks in addition to
// existence.
type AccessOptions struct {
	Readable bool
	Writable bool
}

// CopyOptions controls Copy.
type CopyOptions struct {
	Overwrite          bool
	PreserveTimestamps bool
}

// MakeDirectoryOptions controls MakeDirectory. A zero Mode means 0o777
// before umask.
type MakeDirectoryOptions struct {
	Recursive bool
	Mode      fs.FileMode
}

// TempOptions controls the temporary directory and file constructors.
// Directory defaults to the system temp directory.
type TempOptions struct {
	Directory string
	Prefix    string
}

// OpenOptions controls Open. A zero Mode means 0o666 before umask.
type OpenOptions struct {
	Flag OpenFlag
	Mode fs.FileMode
}

// ReadDirectoryOptions controls ReadDirectory.
type ReadDirectoryOptions struct {
	// Recursive lists every descendant as a path relative to the directory.
	Recursive bool
}

// RemoveOptions controls Remove. Force ignores a missing path and implies
// Recursive.
type RemoveOptions struct {
	Recursive bool
	Force     bool
}

// WriteFileOptions controls WriteFile. The zero value truncates or creates.
type WriteFileOptions struct {
	Flag OpenFlag
	Mode fs.FileMode
}

// FileSystem performs file system operations against an afero.Fs.
type FileSystem struct {
	fs   afero.Fs
	isOS bool
}

// New creates a FileSystem over fsys.
func New(fsys afero.Fs) *FileSystem {
	_, isOS := fsys.(*afero.OsFs)
	return &FileSystem{fs: fsys, isOS: isOS}
}

// NewOS creates a FileSystem over the host file system.
func NewOS() *FileSystem {
	return New(afero.NewOsFs())
}

// Fs returns the underlying afero file system.
func (f *FileSystem) Fs() afero.Fs { return f.fs }

func fail(err error, method, path string) error {
	if err == nil {
		return nil
	}
	if _, ok := err.(*errors.BadArgument); ok {
		return err
	}
	return errors.Classify(err, moduleName, method, path)
}

// Access checks that path exists and, optionally, that it is readable or
// writable by the current process.
func (f *FileSystem) Access(ctx context.Context, path string, opts AccessOptions) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if f.isOS {
		mode := uint32(unix.F_OK)
		if opts.Readable {
			mode |= unix.R_OK
		}
		if opts.Writable {
			mode |= unix.W_OK
		}
		if err := unix.Access(path, mode); err != nil {
			return fail(&fs.PathError{Op: "access", Path: path, Err: err}, "access", path)
		}
		return nil
	}

	fi, err := f.fs.Stat(path)
	if err != nil {
		return fail(err, "access", path)
	}
	perm := fi.Mode().Perm()
	if (opts.Readable && perm&0o444 == 0) || (opts.Writable && perm&0o222 == 0) {
		return fail(&fs.PathError{Op: "access", Path: path, Err: fs.ErrPermission}, "access", path)
	}
	return nil
}

// Exists reports whether path exists. Failures other than NotFound are
// returned.
func (f *FileSystem) Exists(ctx context.Context, path string) (bool, error) {
	err := f.Access(ctx, path, AccessOptions{})
	if err == nil {
		return true, nil
	}
	if errors.ReasonOf(err) == errors.ReasonNotFound {
		return false, nil
	}
	return false, err
}

// Chmod changes the permission bits of path.
func (f *FileSystem) Chmod(_ context.Context, path string, mode fs.FileMode) error {
	return fail(f.fs.Chmod(path, mode), "chmod", path)
}

// Chown changes the owner of path.
func (f *FileSystem) Chown(_ context.Context, path string, uid, gid int) error {
	return fail(f.fs.Chown(path, uid, gid), "chown", path)
}

// CopyFile copies the contents and permission bits of a regular file,
// replacing the destination if it exists.
func (f *FileSystem) CopyFile(ctx context.Context, from, to string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	fi, err := f.fs.Stat(from)
	if err != nil {
		return fail(err, "copyFile", from)
	}
	return fail(f.copyRegular(from, to, fi, false), "copyFile", from)
}

// Copy copies a file or directory tree. Without Overwrite an existing
// destination fails with AlreadyExists.
func (f *FileSystem) Copy(ctx context.Context, from, to string, opts CopyOptions) error {
	root, err := f.fs.Stat(from)
	if err != nil {
		return fail(err, "copy", from)
	}
	if !opts.Overwrite {
		if _, err := f.fs.Stat(to); err == nil {
			return errors.NewSystemError(errors.ReasonAlreadyExists, moduleName, "copy", to, fmt.Sprintf("'%s' already exists", to))
		}
	}
	if !root.IsDir() {
		return fail(f.copyRegular(from, to, root, opts.PreserveTimestamps), "copy", from)
	}

	err = afero.Walk(f.fs, from, func(path string, fi fs.FileInfo, err error) error {
		if err != nil {
			return err
		}
		if err := ctx.Err(); err != nil {
			return err
		}
		rel, err := filepath.Rel(from, path)
		if err != nil {
			return err
		}
		target := filepath.Join(to, rel)
		if fi.IsDir() {
			if err := f.fs.MkdirAll(target, fi.Mode().Perm()); err != nil {
				return err
			}
			if opts.PreserveTimestamps {
				return f.fs.Chtimes(target, fi.ModTime(), fi.ModTime())
			}
			return nil
		}
		return f.copyRegular(path, target, fi, opts.PreserveTimestamps)
	})
	return fail(err, "copy", from)
}

func (f *FileSystem) copyRegular(from, to string, fi fs.FileInfo, preserveTimes bool) (err error) {
	src, err := f.fs.Open(from)
	if err != nil {
		return err
	}
	defer src.Close() //nolint:errcheck // read side

	dst, err := f.fs.OpenFile(to, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, fi.Mode().Perm())
	if err != nil {
		return err
	}
	defer func() {
		if cerr := dst.Close(); err == nil {
			err = cerr
		}
	}()

	if _, err = io.Copy(dst, src); err != nil {
		return err
	}
	if preserveTimes {
		return f.fs.Chtimes(to, fi.ModTime(), fi.ModTime())
	}
	return nil
}

// Link creates a hard link. Only the OS backend supports it.
func (f *FileSystem) Link(_ context.Context, existing, newPath string) error {
	if !f.isOS {
		return errors.NewSystemError(errors.ReasonUnknown, moduleName, "link", existing, "hard links are not supported by "+f.fs.Name())
	}
	return fail(os.Link(existing, newPath), "link", existing)
}

// MakeDirectory creates a directory, and its parents when Recursive is set.
func (f *FileSystem) MakeDirectory(_ context.Context, path string, opts MakeDirectoryOptions) error {
	mode := opts.Mode
	if mode == 0 {
		mode = 0o777
	}
	if opts.Recursive {
		return fail(f.fs.MkdirAll(path, mode), "makeDirectory", path)
	}
	return fail(f.fs.Mkdir(path, mode), "makeDirectory", path)
}

// MakeTempDirectory creates a new temporary directory and returns its path.
func (f *FileSystem) MakeTempDirectory(ctx context.Context, opts TempOptions) (string, error) {
	return f.makeTempDirectory(ctx, "makeTempDirectory", opts)
}

func (f *FileSystem) makeTempDirectory(ctx context.Context, method string, opts TempOptions) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	dir, err := afero.TempDir(f.fs, opts.Directory, opts.Prefix)
	if err != nil {
		return "", fail(err, method, opts.Directory)
	}
	return dir, nil
}

// MakeTempDirectoryScoped creates a temporary directory that is removed,
// with its contents, when sc closes.
func (f *FileSystem) MakeTempDirectoryScoped(ctx context.Context, sc *scope.Scope, opts TempOptions) (string, error) {
	const method = "makeTempDirectoryScoped"
	dir, err := f.makeTempDirectory(ctx, method, opts)
	if err != nil {
		return "", err
	}
	if err := sc.AddFinalizer(f.removeAllFinalizer(method, dir)); err != nil {
		return "", err
	}
	return dir, nil
}

// MakeTempFile creates an empty file with a random name inside a new
// temporary directory and returns its path.
func (f *FileSystem) MakeTempFile(ctx context.Context, opts TempOptions) (string, error) {
	return f.makeTempFile(ctx, "makeTempFile", opts)
}

func (f *FileSystem) makeTempFile(ctx context.Context, method string, opts TempOptions) (string, error) {
	dir, err := f.makeTempDirectory(ctx, method, opts)
	if err != nil {
		return "", err
	}
	id := uuid.New()
	path := filepath.Join(dir, hex.EncodeToString(id[:6]))
	file, err := f.fs.OpenFile(path, os.O_RDWR|os.O_CREATE|os.O_TRUNC, defaultOpenFileMode)
	if err != nil {
		return "", fail(err, method, path)
	}
	if err := file.Close(); err != nil {
		return "", fail(err, method, path)
	}
	return path, nil
}

// MakeTempFileScoped creates a temporary file whose directory is removed
// when sc closes.
func (f *FileSystem) MakeTempFileScoped(ctx context.Context, sc *scope.Scope, opts TempOptions) (string, error) {
	const method = "makeTempFileScoped"
	path, err := f.makeTempFile(ctx, method, opts)
	if err != nil {
		return "", err
	}
	if err := sc.AddFinalizer(f.removeAllFinalizer(method, filepath.Dir(path))); err != nil {
		return "", err
	}
	return path, nil
}

func (f *FileSystem) removeAllFinalizer(method, path string) scope.Finalizer {
	return func(context.Context) error {
		return fail(f.fs.RemoveAll(path), method, path)
	}
}

// Open opens path and ties the file to sc, which closes it.
func (f *FileSystem) Open(ctx context.Context, sc *scope.Scope, path string, opts OpenOptions) (*File, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	flag, err := opts.Flag.osFlag("open")
	if err != nil {
		return nil, err
	}
	mode := opts.Mode
	if mode == 0 {
		mode = defaultOpenFileMode
	}
	af, err := f.fs.OpenFile(path, flag, mode)
	if err != nil {
		return nil, fail(err, "open", path)
	}
	file := &File{f: af, path: path, append: opts.Flag.isAppend()}
	if err := sc.AddFinalizer(func(context.Context) error { return file.close("open") }); err != nil {
		return nil, err
	}
	return file, nil
}

// ReadDirectory lists the entries of a directory. Names are returned for a
// flat listing and relative paths for a recursive one.
func (f *FileSystem) ReadDirectory(ctx context.Context, path string, opts ReadDirectoryOptions) ([]string, error) {
	if !opts.Recursive {
		entries, err := afero.ReadDir(f.fs, path)
		if err != nil {
			return nil, fail(err, "readDirectory", path)
		}
		names := make([]string, 0, len(entries))
		for _, e := range entries {
			names = append(names, e.Name())
		}
		return names, nil
	}

	var paths []string
	err := afero.Walk(f.fs, path, func(p string, _ fs.FileInfo, err error) error {
		if err != nil {
			return err
		}
		if err := ctx.Err(); err != nil {
			return err
		}
		if p == path {
			return nil
		}
		rel, err := filepath.Rel(path, p)
		if err != nil {
			return err
		}
		paths = append(paths, rel)
		return nil
	})
	if err != nil {
		return nil, fail(err, "readDirectory", path)
	}
	return paths, nil
}

// ReadFile returns the contents of path.
func (f *FileSystem) ReadFile(ctx context.Context, path string) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	data, err := afero.ReadFile(f.fs, path)
	if err != nil {
		return nil, fail(err, "readFile", path)
	}
	return data, nil
}

// ReadFileString returns the contents of path as text.
func (f *FileSystem) ReadFileString(ctx context.Context, path string) (string, error) {
	data, err := f.ReadFile(ctx, path)
	return string(data), err
}

// ReadLink returns the target of a symbolic link.
func (f *FileSystem) ReadLink(_ context.Context, path string) (string, error) {
	lr, ok := f.fs.(afero.LinkReader)
	if !ok {
		return "", errors.NewSystemError(errors.ReasonUnknown, moduleName, "readLink", path, "symbolic links are not supported by "+f.fs.Name())
	}
	target, err := lr.ReadlinkIfPossible(path)
	if err != nil {
		return "", fail(err, "readLink", path)
	}
	return target, nil
}

// RealPath returns the absolute, symlink-free form of path. Backends other
// than the OS resolve lexically after checking that path exists.
func (f *FileSystem) RealPath(_ context.Context, path string) (string, error) {
	if f.isOS {
		abs, err := filepath.Abs(path)
		if err != nil {
			return "", fail(err, "realPath", path)
		}
		resolved, err := filepath.EvalSymlinks(abs)
		if err != nil {
			return "", fail(err, "realPath", path)
		}
		return resolved, nil
	}
	if _, err := f.fs.Stat(path); err != nil {
		return "", fail(err, "realPath", path)
	}
	abs, err := filepath.Abs(path)
	if err != nil {
		return "", fail(err, "realPath", path)
	}
	return abs, nil
}

// Remove deletes path.
func (f *FileSystem) Remove(ctx context.Context, path string, opts RemoveOptions) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if opts.Recursive || opts.Force {
		if _, err := f.fs.Stat(path); err != nil {
			if opts.Force && errors.ReasonOf(err) == errors.ReasonNotFound {
				return nil
			}
			return fail(err, "remove", path)
		}
		return fail(f.fs.RemoveAll(path), "remove", path)
	}
	return fail(f.fs.Remove(path), "remove", path)
}

// Rename moves oldPath to newPath.
func (f *FileSystem) Rename(_ context.Context, oldPath, newPath string) error {
	return fail(f.fs.Rename(oldPath, newPath), "rename", oldPath)
}

// Stat describes path, following symbolic links.
func (f *FileSystem) Stat(_ context.Context, path string) (Info, error) {
	fi, err := f.fs.Stat(path)
	if err != nil {
		return Info{}, fail(err, "stat", path)
	}
	return infoFrom(fi), nil
}

// Symlink creates path as a symbolic link to target.
func (f *FileSystem) Symlink(_ context.Context, target, path string) error {
	linker, ok := f.fs.(afero.Linker)
	if !ok {
		return errors.NewSystemError(errors.ReasonUnknown, moduleName, "symlink", path, "symbolic links are not supported by "+f.fs.Name())
	}
	return fail(linker.SymlinkIfPossible(target, path), "symlink", target)
}

// Truncate resizes the file at path to length bytes.
func (f *FileSystem) Truncate(_ context.Context, path string, length int64) (err error) {
	file, err := f.fs.OpenFile(path, os.O_WRONLY, 0)
	if err != nil {
		return fail(err, "truncate", path)
	}
	defer func() {
		if cerr := file.Close(); err == nil {
			err = fail(cerr, "truncate", path)
		}
	}()
	return fail(file.Truncate(length), "truncate", path)
}

// Utimes sets the access and modification times of path.
func (f *FileSystem) Utimes(_ context.Context, path string, atime, mtime time.Time) error {
	return fail(f.fs.Chtimes(path, atime, mtime), "utime", path)
}

// WriteFile writes data to path.
func (f *FileSystem) WriteFile(ctx context.Context, path string, data []byte, opts WriteFileOptions) (err error) {
	if err := ctx.Err(); err != nil {
		return err
	}
	flagName := opts.Flag
	if flagName == "" {
		flagName = FlagWrite
	}
	flag, err := flagName.osFlag("writeFile")
	if err != nil {
		return err
	}
	mode := opts.Mode
	if mode == 0 {
		mode = defaultOpenFileMode
	}
	file, err := f.fs.OpenFile(path, flag, mode)
	if err != nil {
		return fail(err, "writeFile", path)
	}
	defer func() {
		if cerr := file.Close(); err == nil {
			err = fail(cerr, "writeFile", path)
		}
	}()
	if _, err := file.Write(data); err != nil {
		return fail(err, "writeFile", path)
	}
	return nil
}

// WriteFileString writes text to path.
func (f *FileSystem) WriteFileString(ctx context.Context, path, text string, opts WriteFileOptions) error {
	return f.WriteFile(ctx, path, []byte(text), opts)
}

// Stream reads path as a byte stream. Every iteration opens the file anew.
func (f *FileSystem) Stream(path string, opts ...stream.ReaderOption) *stream.Stream[[]byte] {
	return stream.FromFunc(func(ctx context.Context) stream.Iterator[[]byte] {
		file, err := f.fs.Open(path)
		if err != nil {
			return stream.Fail[[]byte](fail(err, "stream", path)).Iter(ctx)
		}
		onError := func(err error) error { return fail(err, "stream", path) }
		return stream.FromReader(file, onError, opts...).Iter(ctx)
	})
}

// Sink writes a byte stream to path. The file is opened when consumption
// starts, with FlagWrite unless opts says otherwise.
func (f *FileSystem) Sink(path string, opts WriteFileOptions) stream.Sink[[]byte] {
	return stream.SinkFunc[[]byte](func(ctx context.Context, s *stream.Stream[[]byte]) error {
		flagName := opts.Flag
		if flagName == "" {
			flagName = FlagWrite
		}
		flag, err := flagName.osFlag("sink")
		if err != nil {
			return err
		}
		mode := opts.Mode
		if mode == 0 {
			mode = defaultOpenFileMode
		}
		file, err := f.fs.OpenFile(path, flag, mode)
		if err != nil {
			return fail(err, "sink", path)
		}
		onError := func(err error) error { return fail(err, "sink", path) }
		return stream.ToWriter(file, onError).Consume(ctx, s)
	})
}
