// Package datasource abstracts where an exported input table is read from.
package datasource

import (
	"bytes"
	"context"
	"io"
)

// Source opens one input table.
type Source interface {
	// Open returns a fresh reader over the whole table.
	Open(ctx context.Context) (io.ReadCloser, error)
	// Name identifies the source in logs and errors.
	Name() string
}

// Memory is an in-memory Source, mostly useful in tests and for callers that
// already hold the export bytes.
type Memory struct {
	Label string
	Data  []byte
}

func (m Memory) Name() string { return m.Label }

func (m Memory) Open(ctx context.Context) (io.ReadCloser, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return io.NopCloser(bytes.NewReader(m.Data)), nil
}
