// Package filesystem provides file system access backed by afero.
//
// Every operation reports failures as *errors.SystemError tagged with module
// "FileSystem" and the failing method, so callers can branch on the reason
// (NotFound, PermissionDenied, AlreadyExists, ...) regardless of backend.
//
// The OS backend (afero.NewOsFs) supports the full surface. In-memory
// backends support everything except hard links; access checks fall back to
// permission bits and RealPath to lexical resolution.
//
// Resources with a lifetime (open files, scoped temp directories) are tied to
// a scope.Scope and released when it closes:
//
//	fsys := filesystem.NewOS()
//	err := scope.Use(ctx, func(ctx context.Context, sc *scope.Scope) error {
//	    dir, err := fsys.MakeTempDirectoryScoped(ctx, sc, filesystem.TempOptions{})
//	    ...
//	})
package filesystem
