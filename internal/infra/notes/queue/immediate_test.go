package queue

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestImmediateQueueDetachesFromCallerContext(t *testing.T) {
	t.Parallel()

	release := make(chan struct{})
	got := make(chan error, 1)
	q := NewImmediateQueue(func(ctx context.Context, name string, payload map[string]any) {
		<-release
		got <- ctx.Err()
	})

	ctx, cancel := context.WithCancel(context.Background())
	require.NoError(t, q.Enqueue(ctx, "process_note", map[string]any{"note_id": "n-1"}))
	cancel()
	close(release)

	select {
	case err := <-got:
		require.NoError(t, err, "background job should not inherit request cancellation")
	case <-time.After(time.Second):
		t.Fatal("handler was not invoked")
	}
}

func TestImmediateQueueDeliversNameAndPayload(t *testing.T) {
	t.Parallel()

	type delivery struct {
		name    string
		payload map[string]any
	}
	got := make(chan delivery, 1)
	q := NewImmediateQueue(func(_ context.Context, name string, payload map[string]any) {
		got <- delivery{name: name, payload: payload}
	})

	require.NoError(t, q.Enqueue(context.Background(), "process_note", map[string]any{"note_id": "n-2"}))

	select {
	case d := <-got:
		require.Equal(t, "process_note", d.name)
		require.Equal(t, "n-2", d.payload["note_id"])
	case <-time.After(time.Second):
		t.Fatal("handler was not invoked")
	}
}

func TestImmediateQueueWithoutHandler(t *testing.T) {
	t.Parallel()

	q := NewImmediateQueue(nil)
	require.NoError(t, q.Enqueue(context.Background(), "process_note", nil))
	q.Close()
}
