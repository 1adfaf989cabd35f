package bridge

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestRegistry(t *testing.T, opener Opener) *Registry {
	t.Helper()
	r, err := NewRegistry(opener)
	require.NoError(t, err)
	t.Cleanup(func() { _ = r.Close() })
	return r
}

func TestNewRegistry_NilOpener(t *testing.T) {
	_, err := NewRegistry(nil)
	assert.ErrorIs(t, err, ErrInvalidArgument)
}

func TestRegistry_InitIdempotent(t *testing.T) {
	opener := newMemOpener()
	r := newTestRegistry(t, opener)
	ctx := context.Background()

	var wg sync.WaitGroup
	for range 32 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			assert.NoError(t, r.Init(ctx, "ddj"))
		}()
	}
	wg.Wait()
	require.NoError(t, r.Init(ctx, "ddj"))

	assert.Equal(t, 1, opener.callCount("ddj"))
	assert.Equal(t, []string{"ddj"}, r.Topics())
	assert.Equal(t, []LagSnapshot{{Topic: "ddj", Lag: 0}}, r.LagSnapshotAll(ctx))
}

func TestRegistry_PushCreatesLazily(t *testing.T) {
	opener := newMemOpener()
	r := newTestRegistry(t, opener)

	require.NoError(t, r.Push(context.Background(), "late", []byte("x")))
	assert.Equal(t, 1, opener.callCount("late"))
	assert.Equal(t, []string{"late"}, r.Topics())
}

func TestRegistry_LagEqualsSuccessfulPushes(t *testing.T) {
	env := openQueue(t)
	r := newTestRegistry(t, QueueOpener(env))
	ctx := context.Background()

	require.NoError(t, r.Init(ctx, "ddj"))
	for i := range 1000 {
		require.NoError(t, r.Push(ctx, "ddj", fmt.Appendf(nil, "msg:%d", i)))
	}
	assert.Equal(t, []LagSnapshot{{Topic: "ddj", Lag: 1000}}, r.LagSnapshotAll(ctx))

	c, err := env.Consumer("ddj")
	require.NoError(t, err)
	items, err := c.PopFrontN(1000)
	require.NoError(t, err)
	require.Len(t, items, 1000)
	for i, it := range items {
		assert.Equal(t, fmt.Sprintf("msg:%d", i), string(it.Payload))
	}
}

func TestRegistry_ConcurrentTopicsKeepOrder(t *testing.T) {
	env := openQueue(t)
	r := newTestRegistry(t, QueueOpener(env))
	ctx := context.Background()

	topics := []string{"a", "b", "c", "d"}
	const perTopic = 100

	var wg sync.WaitGroup
	for _, topic := range topics {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := range perTopic {
				assert.NoError(t, r.Push(ctx, topic, fmt.Appendf(nil, "%s:%d", topic, i)))
			}
		}()
	}
	wg.Wait()

	snaps := r.LagSnapshotAll(ctx)
	require.Len(t, snaps, len(topics))
	for i, s := range snaps {
		assert.Equal(t, topics[i], s.Topic)
		assert.Equal(t, uint64(perTopic), s.Lag)
	}

	for _, topic := range topics {
		c, err := env.Consumer(topic)
		require.NoError(t, err)
		items, err := c.PopFrontN(perTopic)
		require.NoError(t, err)
		for i, it := range items {
			assert.Equal(t, fmt.Sprintf("%s:%d", topic, i), string(it.Payload))
		}
	}
}

func TestRegistry_SlowTopicDoesNotBlockOthers(t *testing.T) {
	opener := newMemOpener()
	release := make(chan struct{})
	opener.producers["slow"] = &memProducer{block: release}
	r := newTestRegistry(t, opener)
	ctx := context.Background()

	slowDone := make(chan error, 1)
	go func() { slowDone <- r.Push(ctx, "slow", []byte("x")) }()

	fastDone := make(chan error, 1)
	go func() { fastDone <- r.Push(ctx, "fast", []byte("y")) }()

	select {
	case err := <-fastDone:
		require.NoError(t, err)
	case <-time.After(2 * time.Second):
		t.Fatal("push to fast topic blocked by slow topic")
	}
	snaps := r.LagSnapshotAll(ctx)
	assert.Contains(t, snaps, LagSnapshot{Topic: "fast", Lag: 1})

	close(release)
	require.NoError(t, <-slowDone)
}

func TestRegistry_LagFailureIsolated(t *testing.T) {
	opener := newMemOpener()
	opener.producers["b"] = &memProducer{lagErr: assert.AnError}
	r := newTestRegistry(t, opener)
	ctx := context.Background()

	require.NoError(t, r.Push(ctx, "a", []byte("1")))
	require.NoError(t, r.Push(ctx, "a", []byte("2")))
	require.NoError(t, r.Push(ctx, "b", []byte("3")))
	require.NoError(t, r.Push(ctx, "c", []byte("4")))

	assert.Equal(t, []LagSnapshot{
		{Topic: "a", Lag: 2},
		{Topic: "b", Lag: 0},
		{Topic: "c", Lag: 1},
	}, r.LagSnapshotAll(ctx))
}

func TestRegistry_Errors(t *testing.T) {
	ctx := context.Background()

	t.Run("append", func(t *testing.T) {
		opener := newMemOpener()
		opener.producers["t"] = &memProducer{appendErr: assert.AnError}
		r := newTestRegistry(t, opener)
		err := r.Push(ctx, "t", []byte("x"))
		assert.ErrorIs(t, err, ErrAppend)
		assert.ErrorIs(t, err, assert.AnError)
	})

	t.Run("open is retried", func(t *testing.T) {
		opener := newMemOpener()
		opener.openErr = assert.AnError
		r := newTestRegistry(t, opener)

		assert.ErrorIs(t, r.Init(ctx, "t"), ErrOpenQueue)
		assert.Empty(t, r.Topics())

		opener.mu.Lock()
		opener.openErr = nil
		opener.mu.Unlock()
		require.NoError(t, r.Init(ctx, "t"))
		assert.Equal(t, 2, opener.callCount("t"))
	})

	t.Run("empty topic", func(t *testing.T) {
		r := newTestRegistry(t, newMemOpener())
		assert.ErrorIs(t, r.Push(ctx, "", []byte("x")), ErrInvalidArgument)
	})

	t.Run("closed", func(t *testing.T) {
		r, err := NewRegistry(newMemOpener())
		require.NoError(t, err)
		require.NoError(t, r.Init(ctx, "t"))
		require.NoError(t, r.Close())
		require.NoError(t, r.Close())

		assert.ErrorIs(t, r.Push(ctx, "t", []byte("x")), ErrClosed)
		assert.ErrorIs(t, r.Init(ctx, "t"), ErrClosed)
		assert.Empty(t, r.LagSnapshotAll(ctx))
	})
}
