package eventstore

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryStorePutGet(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	s := NewMemoryStore(ctx, time.Hour)

	ev := Event{EventID: "100", EventName: "FNO", EventHost: "vZDC"}
	require.NoError(t, s.Put(ctx, ev))

	got, ok := s.Get(ctx, "100")
	require.True(t, ok)
	assert.Equal(t, "FNO", got.EventName)
	assert.Equal(t, "vZDC", got.EventHost)
}

func TestMemoryStoreRejectsEmptyID(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	s := NewMemoryStore(ctx, time.Hour)

	assert.Error(t, s.Put(ctx, Event{EventName: "no id"}))
}

func TestMemoryStoreMissReturnsFalse(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	s := NewMemoryStore(ctx, time.Hour)

	_, ok := s.Get(ctx, "nope")
	assert.False(t, ok)
}

func TestMemoryStoreExpiry(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	s := NewMemoryStore(ctx, 10*time.Millisecond)

	require.NoError(t, s.Put(ctx, Event{EventID: "100"}))

	_, ok := s.Get(ctx, "100")
	require.True(t, ok)

	time.Sleep(25 * time.Millisecond)
	_, ok = s.Get(ctx, "100")
	assert.False(t, ok, "expired entries must not be served")
}

func TestMemoryStoreOverwriteRefreshes(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	s := NewMemoryStore(ctx, time.Hour)

	require.NoError(t, s.Put(ctx, Event{EventID: "100", EventName: "old"}))
	require.NoError(t, s.Put(ctx, Event{EventID: "100", EventName: "new"}))

	got, ok := s.Get(ctx, "100")
	require.True(t, ok)
	assert.Equal(t, "new", got.EventName)
}
