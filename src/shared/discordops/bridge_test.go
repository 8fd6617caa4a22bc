package discordops

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRunBeforeStartFailsFast(t *testing.T) {
	b := New()

	_, err := b.Run(func(ctx context.Context) (interface{}, error) {
		t.Fatal("op must not execute before Start")
		return nil, nil
	})
	assert.ErrorIs(t, err, ErrNotReady)
}

func TestRunReturnsOpResult(t *testing.T) {
	b := New()
	b.Start(context.Background())
	defer b.Stop()

	v, err := b.Run(func(ctx context.Context) (interface{}, error) {
		return "message-id-123", nil
	})
	require.NoError(t, err)
	assert.Equal(t, "message-id-123", v)
}

func TestRunPropagatesOpError(t *testing.T) {
	b := New()
	b.Start(context.Background())
	defer b.Stop()

	boom := errors.New("missing permissions")
	_, err := b.Run(func(ctx context.Context) (interface{}, error) {
		return nil, boom
	})
	assert.ErrorIs(t, err, boom)
}

func TestStartTwiceIsNoOp(t *testing.T) {
	b := New()
	b.Start(context.Background())
	b.Start(context.Background())
	defer b.Stop()

	v, err := b.Run(func(ctx context.Context) (interface{}, error) { return 1, nil })
	require.NoError(t, err)
	assert.Equal(t, 1, v)
}

func TestRunAfterStopFailsFast(t *testing.T) {
	b := New()
	b.Start(context.Background())
	b.Stop()

	_, err := b.Run(func(ctx context.Context) (interface{}, error) { return nil, nil })
	assert.ErrorIs(t, err, ErrNotReady)
}

func TestConcurrentCallersAllGetReplies(t *testing.T) {
	b := New()
	b.Start(context.Background())
	defer b.Stop()

	const callers = 20
	var wg sync.WaitGroup
	results := make([]interface{}, callers)
	for i := 0; i < callers; i++ {
		wg.Add(1)
		go func(n int) {
			defer wg.Done()
			v, err := b.Run(func(ctx context.Context) (interface{}, error) { return n, nil })
			require.NoError(t, err)
			results[n] = v
		}(i)
	}
	wg.Wait()

	for i := 0; i < callers; i++ {
		assert.Equal(t, i, results[i])
	}
}
