package notify

import (
	"context"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestMemoryPublishRecordsEvents(t *testing.T) {
	t.Parallel()

	pub := NewMemory()

	id1, err := pub.Publish(context.Background(), RowEvent{TaskID: "t1", Link: "https://jobs/1"})
	require.NoError(t, err)
	id2, err := pub.Publish(context.Background(), RowEvent{TaskID: "t1", Link: "https://jobs/2"})
	require.NoError(t, err)
	require.NotEqual(t, id1, id2)

	events := pub.Events()
	require.Len(t, events, 2)
	require.Equal(t, "https://jobs/1", events[0].Link)
	require.Equal(t, "https://jobs/2", events[1].Link)
}

func TestMemoryPublishConcurrent(t *testing.T) {
	t.Parallel()

	pub := NewMemory()
	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, _ = pub.Publish(context.Background(), RowEvent{TaskID: "t"})
		}()
	}
	wg.Wait()

	require.Len(t, pub.Events(), 20)
}

func TestNoOpPublish(t *testing.T) {
	t.Parallel()

	id, err := NoOp{}.Publish(context.Background(), RowEvent{})
	require.NoError(t, err)
	require.Empty(t, id)
}
