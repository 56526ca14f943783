package pipeline

import (
	"context"
	"os"
)

// FileReader is the byte source collaborator. Implementations must honor
// context cancellation and deadlines.
type FileReader interface {
	Read(ctx context.Context, path string) ([]byte, error)
}

// OSReader reads from the local filesystem. The read runs in its own
// goroutine so a deadline can cut the wait short even when the underlying
// filesystem stalls.
type OSReader struct{}

type readResult struct {
	data []byte
	err  error
}

func (OSReader) Read(ctx context.Context, path string) ([]byte, error) {
	done := make(chan readResult, 1)
	go func() {
		data, err := os.ReadFile(path)
		done <- readResult{data: data, err: err}
	}()

	select {
	case r := <-done:
		return r.data, r.err
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}
