// Package stream provides lazy, pull-based streams and sinks.
//
// A Stream is a description: nothing happens until it is iterated, and each
// iteration pulls values on demand, which gives natural backpressure. A Sink
// consumes a stream and reports when it is done.
//
// The byte bridges connect streams to the operating system:
//
//   - FromReader turns an io.ReadCloser (a pipe from a child process, a file)
//     into a finite, non-restartable stream of chunks.
//   - ToWriter turns an io.WriteCloser into a sink whose writes are
//     sequenced and whose writer is closed exactly once.
//
// Scoped ties the lifetime of resources to the consumption of a stream,
// which is how interior stages of a process pipeline are kept alive for
// exactly as long as their output is read.
//
//	out := stream.Lines(proc.Stdout())
//	lines, err := stream.Collect(ctx, out)
package stream
