// Command platformctl exercises the platform services from the shell: it
// runs command pipelines, edits the key-value store and drives workers.
package main

import (
	"context"
	stderrors "errors"
	"fmt"
	"os"

	"github.com/kbukum/goplatform/errors"
	"github.com/kbukum/goplatform/process"
	"github.com/kbukum/goplatform/runtime"
)

func main() {
	runtime.RunMain(func(ctx context.Context) error {
		err := newRootCmd().ExecuteContext(ctx)
		report(err)
		return err
	})
}

// report prints err for the user. A command's own exit status is not
// reported, its stderr already went to the terminal.
func report(err error) {
	var exitErr *process.ExitError
	if err == nil || stderrors.As(err, &exitErr) || stderrors.Is(err, context.Canceled) {
		return
	}
	fmt.Fprintf(os.Stderr, "platformctl: [%s] %v\n", errors.ToAppError(err).Code, err)
}
