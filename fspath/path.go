// Package fspath manipulates host file system paths and file URLs.
package fspath

import (
	"net/url"
	"os"
	"path/filepath"
	"strings"

	"github.com/kbukum/goplatform/errors"
)

const moduleName = "Path"

// Sep is the host path separator.
const Sep = string(filepath.Separator)

// Parsed is a path split into its components. Root is "/" for absolute
// paths, Base is Name plus Ext.
type Parsed struct {
	Root string
	Dir  string
	Base string
	Ext  string
	Name string
}

// Path resolves relative paths against a working directory.
type Path struct {
	cwd func() (string, error)
}

// Option configures a Path.
type Option func(*Path)

// WithCwd overrides how the working directory is looked up.
func WithCwd(fn func() (string, error)) Option {
	return func(p *Path) { p.cwd = fn }
}

// New creates a Path that resolves against the process working directory.
func New(opts ...Option) *Path {
	p := &Path{cwd: os.Getwd}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Sep returns the path separator.
func (p *Path) Sep() string { return Sep }

// Basename returns the last element of path, ignoring trailing separators.
// A matching suffix is removed unless it is the whole name.
func (p *Path) Basename(path string, suffix ...string) string {
	trimmed := trimTrailing(path)
	if trimmed == Sep || trimmed == "" {
		return ""
	}
	base := filepath.Base(trimmed)
	if len(suffix) > 0 && suffix[0] != "" && base != suffix[0] {
		base = strings.TrimSuffix(base, suffix[0])
	}
	return base
}

// Dirname returns everything but the last element of path.
func (p *Path) Dirname(path string) string {
	if path == "" {
		return "."
	}
	trimmed := trimTrailing(path)
	if trimmed == Sep {
		return Sep
	}
	i := strings.LastIndex(trimmed, Sep)
	switch {
	case i < 0:
		return "."
	case i == 0:
		return Sep
	}
	return strings.TrimRight(trimmed[:i], Sep)
}

// Extname returns the extension of the last element, from its last dot.
// Leading dots do not start an extension.
func (p *Path) Extname(path string) string {
	base := p.Basename(path)
	i := strings.LastIndex(base, ".")
	if i <= 0 || strings.Trim(base, ".") == "" {
		return ""
	}
	return base[i:]
}

// IsAbsolute reports whether path is absolute.
func (p *Path) IsAbsolute(path string) bool { return filepath.IsAbs(path) }

// Join joins the non-empty elements and normalizes the result. Joining
// nothing yields ".".
func (p *Path) Join(elems ...string) string {
	joined := strings.Join(nonEmpty(elems), Sep)
	if joined == "" {
		return "."
	}
	return p.Normalize(joined)
}

// Normalize resolves "." and ".." lexically and collapses separators while
// keeping a trailing separator.
func (p *Path) Normalize(path string) string {
	if path == "" {
		return "."
	}
	cleaned := filepath.Clean(path)
	if strings.HasSuffix(path, Sep) && cleaned != Sep {
		cleaned += Sep
	}
	return cleaned
}

// Resolve resolves the elements from right to left until an absolute path
// is formed, falling back to the working directory.
func (p *Path) Resolve(elems ...string) string {
	var parts []string
	for i := len(elems) - 1; i >= 0; i-- {
		if elems[i] == "" {
			continue
		}
		parts = append([]string{elems[i]}, parts...)
		if filepath.IsAbs(elems[i]) {
			return filepath.Join(parts...)
		}
	}
	cwd, err := p.cwd()
	if err != nil {
		cwd = Sep
	}
	return filepath.Join(append([]string{cwd}, parts...)...)
}

// Relative returns the path from "from" to "to", both resolved first.
func (p *Path) Relative(from, to string) string {
	rel, err := filepath.Rel(p.Resolve(from), p.Resolve(to))
	if err != nil || rel == "." {
		return ""
	}
	return rel
}

// Parse splits path into its components.
func (p *Path) Parse(path string) Parsed {
	var parsed Parsed
	if filepath.IsAbs(path) {
		parsed.Root = Sep
	}
	parsed.Base = p.Basename(path)
	parsed.Ext = p.Extname(path)
	parsed.Name = strings.TrimSuffix(parsed.Base, parsed.Ext)
	if strings.Contains(trimTrailing(path), Sep) {
		parsed.Dir = p.Dirname(path)
	}
	return parsed
}

// Format is the inverse of Parse. Dir wins over Root and Base over Name
// plus Ext.
func (p *Path) Format(parsed Parsed) string {
	dir := parsed.Dir
	if dir == "" {
		dir = parsed.Root
	}
	base := parsed.Base
	if base == "" {
		base = parsed.Name + parsed.Ext
	}
	switch {
	case dir == "":
		return base
	case dir == parsed.Root:
		return dir + base
	}
	return dir + Sep + base
}

// FromFileURL converts a file URL to a path.
func (p *Path) FromFileURL(raw string) (string, error) {
	u, err := url.Parse(raw)
	if err != nil {
		return "", &errors.BadArgument{Module: moduleName, Method: "fromFileUrl", Message: err.Error(), Cause: err}
	}
	if u.Scheme != "file" {
		return "", errors.NewBadArgument(moduleName, "fromFileUrl", "must be a file URL: "+raw)
	}
	if u.Host != "" && u.Host != "localhost" {
		return "", errors.NewBadArgument(moduleName, "fromFileUrl", "file URL host must be empty or localhost: "+raw)
	}
	if u.Path == "" {
		return "", errors.NewBadArgument(moduleName, "fromFileUrl", "file URL has no path: "+raw)
	}
	return filepath.FromSlash(u.Path), nil
}

// ToFileURL converts an absolute path to a file URL.
func (p *Path) ToFileURL(path string) (*url.URL, error) {
	if !filepath.IsAbs(path) {
		return nil, errors.NewBadArgument(moduleName, "toFileUrl", "path must be absolute: "+path)
	}
	return &url.URL{Scheme: "file", Path: filepath.ToSlash(path)}, nil
}

// ToNamespacedPath returns path unchanged; namespaced paths only exist on
// Windows.
func (p *Path) ToNamespacedPath(path string) string { return path }

func trimTrailing(path string) string {
	if path == "" {
		return ""
	}
	trimmed := strings.TrimRight(path, Sep)
	if trimmed == "" {
		return Sep
	}
	return trimmed
}

func nonEmpty(elems []string) []string {
	out := make([]string, 0, len(elems))
	for _, e := range elems {
		if e != "" {
			out = append(out, e)
		}
	}
	return out
}
