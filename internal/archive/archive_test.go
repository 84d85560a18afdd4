package archive

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestNoOpStore(t *testing.T) {
	t.Parallel()

	uri, err := NoOp{}.Store(context.Background(), "task-1/listings.json", []byte(`[]`))
	require.NoError(t, err)
	require.Empty(t, uri)
}

func TestNewGCSValidation(t *testing.T) {
	t.Parallel()

	_, err := NewGCS(nil, "bucket", "datasets")
	require.Error(t, err)
}
