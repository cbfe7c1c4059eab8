package queue

import (
	"io"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestValkeyQueueCloseIsIdempotent(t *testing.T) {
	t.Parallel()

	q := NewValkeyQueue(nil, "jobs", slog.New(slog.NewTextHandler(io.Discard, nil)))
	q.Close()
	q.Close()

	select {
	case <-q.stop:
	default:
		t.Fatal("stop channel should be closed")
	}
	require.Equal(t, "jobs", q.queueKey)
}
