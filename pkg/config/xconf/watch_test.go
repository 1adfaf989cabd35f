package xconf

import (
	"context"
	"os"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

func TestWatch_RejectsBytesConfig(t *testing.T) {
	cfg, err := NewFromBytes(nil, FormatYAML)
	require.NoError(t, err)
	_, err = Watch(cfg, nil)
	assert.ErrorIs(t, err, ErrNotReloadable)
}

func TestWatch_ReloadsOnWrite(t *testing.T) {
	path := writeFile(t, "bridge.yaml", "log:\n  level: info\n")
	cfg, err := New(path)
	require.NoError(t, err)

	var (
		mu     sync.Mutex
		levels []string
	)
	w, err := Watch(cfg, func(c Config, err error) {
		if err != nil {
			return
		}
		var got bridgeFile
		if c.Unmarshal("", &got) == nil {
			mu.Lock()
			levels = append(levels, got.Log.Level)
			mu.Unlock()
		}
	}, WithDebounce(20*time.Millisecond))
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- w.Run(ctx) }()

	require.NoError(t, os.WriteFile(path, []byte("log:\n  level: debug\n"), 0o600))

	assert.Eventually(t, func() bool {
		mu.Lock()
		defer mu.Unlock()
		return len(levels) > 0 && levels[len(levels)-1] == "debug"
	}, 2*time.Second, 10*time.Millisecond)

	cancel()
	assert.NoError(t, <-done)
}

func TestWatch_IgnoresOtherFiles(t *testing.T) {
	path := writeFile(t, "bridge.yaml", "log:\n  level: info\n")
	cfg, err := New(path)
	require.NoError(t, err)

	calls := make(chan struct{}, 8)
	w, err := Watch(cfg, func(Config, error) { calls <- struct{}{} }, WithDebounce(10*time.Millisecond))
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- w.Run(ctx) }()

	require.NoError(t, os.WriteFile(path+".bak", []byte("x"), 0o600))
	select {
	case <-calls:
		t.Fatal("unexpected reload for unrelated file")
	case <-time.After(100 * time.Millisecond):
	}

	cancel()
	assert.NoError(t, <-done)
}
