// Package errors provides the error taxonomy shared by every platform service.
//
// Low-level failures coming from the operating system are classified into a
// closed set of reasons (see Reason and Classify) and carried as *SystemError
// values that name the failing module, method and path. Invalid caller input
// is reported as *BadArgument, worker protocol failures as *WorkerError and
// finalizer failures during scope release as *Defect.
//
// AppError is the service-facing envelope: ToAppError converts any of the
// above into a code plus retryable flag suitable for CLI and log output.
package errors
