package store

import (
	"context"
	"fmt"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

var baseTime = time.Date(2024, 1, 1, 12, 0, 0, 123456789, time.UTC)

func openTestDB(t *testing.T) *DB {
	t.Helper()
	db, err := Open(filepath.Join(t.TempDir(), "events.db"))
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return db
}

// seqEvents returns n events with ids e1..en, one minute apart.
func seqEvents(n int) []Event {
	events := make([]Event, 0, n)
	for i := 1; i <= n; i++ {
		events = append(events, Event{
			ID:        fmt.Sprintf("e%d", i),
			Type:      "created",
			Data:      fmt.Sprintf(`{"n":%d}`, i),
			Timestamp: baseTime.Add(time.Duration(i) * time.Minute),
		})
	}
	return events
}

func ids(events []Event) []string {
	out := make([]string, len(events))
	for i, e := range events {
		out[i] = e.ID
	}
	return out
}

func TestDB_AppendAndCount(t *testing.T) {
	db := openTestDB(t)
	ctx := context.Background()

	added, err := db.Append(ctx, "orders", seqEvents(3))
	require.NoError(t, err)
	require.Equal(t, 3, added)

	// Re-appending the same ids is a no-op.
	added, err = db.Append(ctx, "orders", seqEvents(4))
	require.NoError(t, err)
	require.Equal(t, 1, added)

	n, err := db.Count(ctx, "orders")
	require.NoError(t, err)
	require.Equal(t, int64(4), n)

	n, err = db.Count(ctx, "other")
	require.NoError(t, err)
	require.Zero(t, n)
}

func TestDB_AppendRequiresID(t *testing.T) {
	db := openTestDB(t)

	_, err := db.Append(context.Background(), "orders", []Event{{Timestamp: baseTime}})
	require.Error(t, err)

	n, err := db.Count(context.Background(), "orders")
	require.NoError(t, err)
	require.Zero(t, n, "failed batch must be rolled back")
}

func TestDB_Window(t *testing.T) {
	db := openTestDB(t)
	ctx := context.Background()
	_, err := db.Append(ctx, "orders", seqEvents(5))
	require.NoError(t, err)

	events, err := db.Window(ctx, "orders", 1, 3)
	require.NoError(t, err)
	require.Equal(t, []string{"e2", "e3", "e4"}, ids(events))
	require.Equal(t, int64(1), events[0].Position)
	require.Equal(t, int64(3), events[2].Position)
	require.True(t, events[0].Timestamp.Equal(baseTime.Add(2*time.Minute)))
	require.Equal(t, `{"n":2}`, events[0].Data)

	events, err = db.Window(ctx, "orders", 10, 3)
	require.NoError(t, err)
	require.Empty(t, events)
}

func TestDB_FeedsAreIsolated(t *testing.T) {
	db := openTestDB(t)
	ctx := context.Background()
	_, err := db.Append(ctx, "a", seqEvents(2))
	require.NoError(t, err)
	_, err = db.Append(ctx, "b", seqEvents(3))
	require.NoError(t, err)

	events, err := db.Window(ctx, "a", 0, 10)
	require.NoError(t, err)
	require.Equal(t, []string{"e1", "e2"}, ids(events))
}

func TestDB_Contains(t *testing.T) {
	db := openTestDB(t)
	ctx := context.Background()
	_, err := db.Append(ctx, "orders", seqEvents(1))
	require.NoError(t, err)

	ok, err := db.Contains(ctx, "orders", "e1")
	require.NoError(t, err)
	require.True(t, ok)

	ok, err = db.Contains(ctx, "orders", "e2")
	require.NoError(t, err)
	require.False(t, ok)
}

func TestDB_ReopenKeepsData(t *testing.T) {
	path := filepath.Join(t.TempDir(), "events.db")
	db, err := Open(path)
	require.NoError(t, err)
	_, err = db.Append(context.Background(), "orders", seqEvents(2))
	require.NoError(t, err)
	require.NoError(t, db.Close())

	db, err = Open(path)
	require.NoError(t, err)
	defer db.Close()
	n, err := db.Count(context.Background(), "orders")
	require.NoError(t, err)
	require.Equal(t, int64(2), n)
}
