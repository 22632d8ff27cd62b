// Package scope provides explicit resource scopes.
//
// A resource acquired in a scope registers a finalizer at acquisition time.
// Closing the scope, whether after success, failure or cancellation, runs
// every finalizer exactly once in reverse order of registration. Child
// scopes created with Fork are closed before their parent's own finalizers
// run. A failing finalizer is reported as an errors.Defect.
//
//	err := scope.Use(ctx, func(ctx context.Context, sc *scope.Scope) error {
//	    p, err := exec.Start(ctx, sc, command.Make("cat"))
//	    ...
//	})
package scope
