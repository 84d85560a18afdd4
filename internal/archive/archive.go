// Package archive persists raw scrape datasets for later inspection.
package archive

import "context"

// Provider stores one raw dataset payload and returns its location URI.
type Provider interface {
	Store(ctx context.Context, path string, data []byte) (string, error)
}

// NoOp discards everything. Used when archival is disabled.
type NoOp struct{}

// Store drops the payload and returns an empty URI.
func (NoOp) Store(_ context.Context, _ string, _ []byte) (string, error) {
	return "", nil
}
