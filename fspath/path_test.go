package fspath

import (
	stderrors "errors"
	"testing"

	"github.com/kbukum/goplatform/errors"
)

func fixed() *Path {
	return New(WithCwd(func() (string, error) { return "/work/dir", nil }))
}

func TestBasenameDirnameExtname(t *testing.T) {
	p := fixed()
	tests := []struct {
		path, base, dir, ext string
	}{
		{"/home/user/file.txt", "file.txt", "/home/user", ".txt"},
		{"/home/user/dir/", "dir", "/home/user", ""},
		{"file", "file", ".", ""},
		{".bashrc", ".bashrc", ".", ""},
		{"archive.tar.gz", "archive.tar.gz", ".", ".gz"},
		{"/", "", "/", ""},
		{"/file", "file", "/", ""},
		{"a//b", "b", "a", ""},
	}
	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			if got := p.Basename(tt.path); got != tt.base {
				t.Errorf("Basename = %q, want %q", got, tt.base)
			}
			if got := p.Dirname(tt.path); got != tt.dir {
				t.Errorf("Dirname = %q, want %q", got, tt.dir)
			}
			if got := p.Extname(tt.path); got != tt.ext {
				t.Errorf("Extname = %q, want %q", got, tt.ext)
			}
		})
	}

	if got := p.Basename("/a/b.html", ".html"); got != "b" {
		t.Errorf("Basename with suffix = %q", got)
	}
	if got := p.Basename("/a/.html", ".html"); got != ".html" {
		t.Errorf("Basename with whole-name suffix = %q", got)
	}
}

func TestJoinNormalize(t *testing.T) {
	p := fixed()
	if got := p.Join("/foo", "bar", "baz/asdf", "quux", ".."); got != "/foo/bar/baz/asdf" {
		t.Errorf("Join = %q", got)
	}
	if got := p.Join(); got != "." {
		t.Errorf("empty Join = %q", got)
	}
	if got := p.Normalize("/foo/bar//baz/asdf/quux/../"); got != "/foo/bar/baz/asdf/" {
		t.Errorf("Normalize = %q", got)
	}
}

func TestResolveRelative(t *testing.T) {
	p := fixed()
	if got := p.Resolve("/foo/bar", "./baz"); got != "/foo/bar/baz" {
		t.Errorf("Resolve = %q", got)
	}
	if got := p.Resolve("/foo/bar", "/tmp/file/"); got != "/tmp/file" {
		t.Errorf("Resolve absolute = %q", got)
	}
	if got := p.Resolve("a", "b"); got != "/work/dir/a/b" {
		t.Errorf("Resolve relative = %q", got)
	}
	if got := p.Relative("/data/orandea/test/aaa", "/data/orandea/impl/bbb"); got != "../../impl/bbb" {
		t.Errorf("Relative = %q", got)
	}
	if got := p.Relative("/a", "/a"); got != "" {
		t.Errorf("Relative same = %q", got)
	}
}

func TestParseFormat(t *testing.T) {
	p := fixed()
	parsed := p.Parse("/home/user/dir/file.txt")
	want := Parsed{Root: "/", Dir: "/home/user/dir", Base: "file.txt", Ext: ".txt", Name: "file"}
	if parsed != want {
		t.Fatalf("Parse = %+v, want %+v", parsed, want)
	}
	if got := p.Format(parsed); got != "/home/user/dir/file.txt" {
		t.Errorf("Format = %q", got)
	}
	if got := p.Format(Parsed{Root: "/", Name: "file", Ext: ".txt"}); got != "/file.txt" {
		t.Errorf("Format root only = %q", got)
	}
	if got := p.Parse("file.txt"); got.Dir != "" || got.Root != "" {
		t.Errorf("Parse relative = %+v", got)
	}
}

func TestFileURLs(t *testing.T) {
	p := fixed()
	got, err := p.FromFileURL("file:///tmp/a%20b.txt")
	if err != nil || got != "/tmp/a b.txt" {
		t.Fatalf("FromFileURL = %q, %v", got, err)
	}

	u, err := p.ToFileURL("/tmp/a b.txt")
	if err != nil {
		t.Fatalf("ToFileURL: %v", err)
	}
	if u.String() != "file:///tmp/a%20b.txt" {
		t.Errorf("ToFileURL = %s", u)
	}

	for _, tc := range []struct {
		name   string
		call   func() error
		method string
	}{
		{"http url", func() error { _, err := p.FromFileURL("http://example.com/x"); return err }, "fromFileUrl"},
		{"remote host", func() error { _, err := p.FromFileURL("file://server/share"); return err }, "fromFileUrl"},
		{"relative path", func() error { _, err := p.ToFileURL("rel/path"); return err }, "toFileUrl"},
	} {
		t.Run(tc.name, func(t *testing.T) {
			var bad *errors.BadArgument
			if err := tc.call(); !stderrors.As(err, &bad) {
				t.Fatalf("expected BadArgument, got %v", err)
			}
			if bad.Module != "Path" || bad.Method != tc.method {
				t.Errorf("got %s.%s", bad.Module, bad.Method)
			}
		})
	}
}
