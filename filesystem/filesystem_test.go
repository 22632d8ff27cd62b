package filesystem

import (
	"context"
	stderrors "errors"
	"io"
	"path/filepath"
	"sort"
	"strings"
	"testing"

	"github.com/spf13/afero"

	"github.com/kbukum/goplatform/errors"
	"github.com/kbukum/goplatform/scope"
	"github.com/kbukum/goplatform/stream"
)

func backends(t *testing.T) map[string]*FileSystem {
	t.Helper()
	return map[string]*FileSystem{
		"os":  NewOS(),
		"mem": New(afero.NewMemMapFs()),
	}
}

func tempOpts(t *testing.T, fsys *FileSystem) TempOptions {
	t.Helper()
	if fsys.isOS {
		return TempOptions{Directory: t.TempDir()}
	}
	return TempOptions{}
}

func requireReason(t *testing.T, err error, reason errors.Reason, method string) {
	t.Helper()
	sysErr, ok := errors.AsSystemError(err)
	if !ok {
		t.Fatalf("expected SystemError, got %T: %v", err, err)
	}
	if sysErr.Reason != reason {
		t.Errorf("reason = %s, want %s", sysErr.Reason, reason)
	}
	if sysErr.Module != "FileSystem" {
		t.Errorf("module = %q, want FileSystem", sysErr.Module)
	}
	if method != "" && sysErr.Method != method {
		t.Errorf("method = %q, want %q", sysErr.Method, method)
	}
}

func TestAccess_NotFound(t *testing.T) {
	ctx := context.Background()
	for name, fsys := range backends(t) {
		t.Run(name, func(t *testing.T) {
			err := fsys.Access(ctx, "/definitely/not/here", AccessOptions{})
			requireReason(t, err, errors.ReasonNotFound, "access")

			ok, err := fsys.Exists(ctx, "/definitely/not/here")
			if err != nil || ok {
				t.Fatalf("Exists = %v, %v; want false, nil", ok, err)
			}
		})
	}
}

func TestMakeTempDirectory_Survives(t *testing.T) {
	ctx := context.Background()
	for name, fsys := range backends(t) {
		t.Run(name, func(t *testing.T) {
			dir, err := fsys.MakeTempDirectory(ctx, tempOpts(t, fsys))
			if err != nil {
				t.Fatalf("MakeTempDirectory: %v", err)
			}
			info, err := fsys.Stat(ctx, dir)
			if err != nil {
				t.Fatalf("Stat: %v", err)
			}
			if info.Type != TypeDirectory {
				t.Errorf("type = %s, want Directory", info.Type)
			}
		})
	}
}

func TestMakeTempDirectoryScoped_RemovedOnClose(t *testing.T) {
	ctx := context.Background()
	for name, fsys := range backends(t) {
		t.Run(name, func(t *testing.T) {
			var dir string
			err := scope.Use(ctx, func(ctx context.Context, sc *scope.Scope) error {
				var err error
				dir, err = fsys.MakeTempDirectoryScoped(ctx, sc, tempOpts(t, fsys))
				if err != nil {
					return err
				}
				_, err = fsys.Stat(ctx, dir)
				return err
			})
			if err != nil {
				t.Fatalf("scope: %v", err)
			}
			_, err = fsys.Stat(ctx, dir)
			requireReason(t, err, errors.ReasonNotFound, "stat")
		})
	}
}

func TestTruncate_Path(t *testing.T) {
	ctx := context.Background()
	for name, fsys := range backends(t) {
		t.Run(name, func(t *testing.T) {
			path, err := fsys.MakeTempFile(ctx, tempOpts(t, fsys))
			if err != nil {
				t.Fatalf("MakeTempFile: %v", err)
			}
			if err := fsys.WriteFileString(ctx, path, "hello world", WriteFileOptions{}); err != nil {
				t.Fatalf("WriteFile: %v", err)
			}
			if text, _ := fsys.ReadFileString(ctx, path); text != "hello world" {
				t.Fatalf("before = %q", text)
			}
			if err := fsys.Truncate(ctx, path, 0); err != nil {
				t.Fatalf("Truncate: %v", err)
			}
			if text, _ := fsys.ReadFileString(ctx, path); text != "" {
				t.Errorf("after = %q, want empty", text)
			}
		})
	}
}

func TestRemove(t *testing.T) {
	ctx := context.Background()
	fsys := New(afero.NewMemMapFs())

	if err := fsys.MakeDirectory(ctx, "/a/b", MakeDirectoryOptions{Recursive: true}); err != nil {
		t.Fatalf("MakeDirectory: %v", err)
	}
	if err := fsys.WriteFileString(ctx, "/a/b/c.txt", "x", WriteFileOptions{}); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}

	err := fsys.Remove(ctx, "/missing", RemoveOptions{})
	requireReason(t, err, errors.ReasonNotFound, "remove")

	if err := fsys.Remove(ctx, "/missing", RemoveOptions{Force: true}); err != nil {
		t.Errorf("forced remove of missing path: %v", err)
	}
	if err := fsys.Remove(ctx, "/a", RemoveOptions{Recursive: true}); err != nil {
		t.Fatalf("recursive remove: %v", err)
	}
	if ok, _ := fsys.Exists(ctx, "/a/b/c.txt"); ok {
		t.Error("expected tree to be gone")
	}
}

func TestCopy_Tree(t *testing.T) {
	ctx := context.Background()
	fsys := New(afero.NewMemMapFs())

	_ = fsys.MakeDirectory(ctx, "/src/nested", MakeDirectoryOptions{Recursive: true})
	_ = fsys.WriteFileString(ctx, "/src/one.txt", "1", WriteFileOptions{})
	_ = fsys.WriteFileString(ctx, "/src/nested/two.txt", "2", WriteFileOptions{})

	if err := fsys.Copy(ctx, "/src", "/dst", CopyOptions{}); err != nil {
		t.Fatalf("Copy: %v", err)
	}
	entries, err := fsys.ReadDirectory(ctx, "/dst", ReadDirectoryOptions{Recursive: true})
	if err != nil {
		t.Fatalf("ReadDirectory: %v", err)
	}
	sort.Strings(entries)
	want := []string{"nested", filepath.Join("nested", "two.txt"), "one.txt"}
	if strings.Join(entries, ",") != strings.Join(want, ",") {
		t.Errorf("entries = %v, want %v", entries, want)
	}

	err = fsys.Copy(ctx, "/src", "/dst", CopyOptions{})
	requireReason(t, err, errors.ReasonAlreadyExists, "copy")

	if err := fsys.Copy(ctx, "/src", "/dst", CopyOptions{Overwrite: true}); err != nil {
		t.Errorf("overwrite copy: %v", err)
	}
}

func TestSymlinkAndReadLink(t *testing.T) {
	ctx := context.Background()
	fsys := NewOS()
	dir := t.TempDir()
	target := filepath.Join(dir, "target.txt")
	link := filepath.Join(dir, "link")

	if err := fsys.WriteFileString(ctx, target, "data", WriteFileOptions{}); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}
	if err := fsys.Symlink(ctx, target, link); err != nil {
		t.Fatalf("Symlink: %v", err)
	}
	got, err := fsys.ReadLink(ctx, link)
	if err != nil || got != target {
		t.Fatalf("ReadLink = %q, %v", got, err)
	}
	resolved, err := fsys.RealPath(ctx, link)
	if err != nil {
		t.Fatalf("RealPath: %v", err)
	}
	wantResolved, _ := filepath.EvalSymlinks(target)
	if resolved != wantResolved {
		t.Errorf("RealPath = %q, want %q", resolved, wantResolved)
	}

	mem := New(afero.NewMemMapFs())
	if err := mem.Link(ctx, "/a", "/b"); err == nil {
		t.Error("expected hard links to be unsupported in memory")
	}
}

func TestStreamAndSink(t *testing.T) {
	ctx := context.Background()
	fsys := New(afero.NewMemMapFs())

	src := stream.FromValues([]byte("one\n"), []byte("two\n"))
	if err := stream.Run(ctx, src, fsys.Sink("/out.txt", WriteFileOptions{})); err != nil {
		t.Fatalf("sink: %v", err)
	}

	lines, err := stream.Collect(ctx, stream.Lines(fsys.Stream("/out.txt", stream.WithChunkSize(3))))
	if err != nil {
		t.Fatalf("collect: %v", err)
	}
	if strings.Join(lines, ",") != "one,two" {
		t.Errorf("lines = %v", lines)
	}

	// a file stream reopens the file on every run
	again, err := stream.Text(ctx, fsys.Stream("/out.txt"))
	if err != nil || again != "one\ntwo\n" {
		t.Errorf("second run = %q, %v", again, err)
	}

	_, err = stream.Collect(ctx, fsys.Stream("/missing"))
	requireReason(t, err, errors.ReasonNotFound, "stream")
}

func TestOpen_UnknownFlag(t *testing.T) {
	ctx := context.Background()
	fsys := New(afero.NewMemMapFs())
	err := scope.Use(ctx, func(ctx context.Context, sc *scope.Scope) error {
		_, err := fsys.Open(ctx, sc, "/x", OpenOptions{Flag: "q"})
		return err
	})
	var bad *errors.BadArgument
	if !stderrors.As(err, &bad) || bad.Method != "open" {
		t.Fatalf("expected BadArgument from open, got %v", err)
	}
}

var _ io.Reader = (*fileReader)(nil)

type fileReader struct{ f *File }

func (r *fileReader) Read(p []byte) (int, error) {
	n, err := r.f.Read(p)
	if n == 0 && err == nil {
		return 0, io.EOF
	}
	return n, err
}
