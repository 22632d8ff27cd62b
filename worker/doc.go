// Package worker implements a small message protocol between a manager and
// long-lived workers.
//
// Frames are CBOR arrays of a tag and an optional payload. Tag 0 with a
// payload is a request; tag 0 without one is the ready signal a runner
// sends once it listens on a port. Any other frame arriving at a runner
// disposes the port it arrived on, which ends the run when it is the last
// port.
//
// The worker side:
//
//	latch := worker.NewLatch()
//	r := worker.NewRunner(worker.NewStreamPort(os.Stdin, os.Stdout))
//	err := worker.Serve(ctx, r.Start(latch), func(ctx context.Context, n int, emit func(int) error) error {
//		return emit(n + 1)
//	})
//
// The manager side:
//
//	w, err := worker.SpawnProcess(ctx, sc, executor, command.Make("my-worker"))
//	out, err := worker.ExecuteOne[int, int](ctx, w, 41)
package worker
