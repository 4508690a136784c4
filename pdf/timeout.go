package pdf

import (
	"context"
	"fmt"
	"time"
)

// runWithTimeout runs op until it returns, ctx is done or timeout elapses.
// pdfcpu and MuPDF calls cannot be interrupted, so on timeout op keeps
// running in the background and its result is dropped.
func runWithTimeout(ctx context.Context, timeout time.Duration, op func() error) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	done := make(chan error, 1)
	go func() {
		done <- op()
	}()

	select {
	case err := <-done:
		return err
	case <-ctx.Done():
		if ctx.Err() == context.DeadlineExceeded {
			return fmt.Errorf("operation timed out after %v", timeout)
		}
		return ctx.Err()
	}
}
