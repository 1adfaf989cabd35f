package main

import (
	"bytes"
	"context"
	"errors"
	"net"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"

	"github.com/omeyang/xbridge/pkg/mq/xcoord"
	"github.com/omeyang/xbridge/pkg/mq/xqueue"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

func TestExitCode(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want int
	}{
		{"exit_error", &exitError{code: 3}, 3},
		{"usage_error", usagef("bad %s", "thing"), 2},
		{"wrapped_usage", errors.Join(errors.New("x"), usagef("y")), 2},
		{"cli_unknown_flag", errors.New("flag provided but not defined: -nope"), 2},
		{"cli_required", errors.New(`Required flag "topic" not set`), 2},
		{"runtime", errors.New("boom"), 1},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var stderr bytes.Buffer
			assert.Equal(t, tt.want, exitCode(&stderr, tt.err))
		})
	}
}

func TestRun_UsageErrors(t *testing.T) {
	var stdout, stderr bytes.Buffer

	code := run(context.Background(), []string{"xbridge", "push", "--nope"}, &stdout, &stderr)
	assert.Equal(t, 2, code)

	code = run(context.Background(), []string{"xbridge", "drain"}, &stdout, &stderr)
	assert.Equal(t, 2, code, "missing required --topic")
}

func TestRun_Version(t *testing.T) {
	var stdout, stderr bytes.Buffer
	code := run(context.Background(), []string{"xbridge", "--version"}, &stdout, &stderr)
	assert.Equal(t, 0, code)
	assert.Contains(t, stdout.String(), Version)
}

func seedQueue(t *testing.T, dir, topic string, msgs ...string) {
	t.Helper()
	env, err := xqueue.Open(dir, xqueue.WithNoSync())
	require.NoError(t, err)
	p, err := env.Producer(topic)
	require.NoError(t, err)
	for _, m := range msgs {
		require.NoError(t, p.Append([]byte(m)))
	}
	require.NoError(t, env.Close())
}

func TestCmdLag(t *testing.T) {
	dir := t.TempDir()
	seedQueue(t, dir, "ddj", "a", "b", "c")
	seedQueue(t, dir, "orders")

	var out bytes.Buffer
	require.NoError(t, cmdLag(dir, &out))

	lines := strings.Split(strings.TrimSpace(out.String()), "\n")
	require.Len(t, lines, 3)
	assert.Equal(t, []string{"TOPIC", "LAG"}, strings.Fields(lines[0]))
	assert.Equal(t, []string{"ddj", "3"}, strings.Fields(lines[1]))
	assert.Equal(t, []string{"orders", "0"}, strings.Fields(lines[2]))
}

func TestCmdDrain(t *testing.T) {
	dir := t.TempDir()
	seedQueue(t, dir, "ddj", "m0", "m1", "m2", "m3", "m4")
	ctx := context.Background()

	var out bytes.Buffer
	require.NoError(t, cmdDrain(ctx, dir, "ddj", 2, 3, &out))
	assert.Equal(t, "0\tm0\n1\tm1\n2\tm2\n", out.String())

	out.Reset()
	require.NoError(t, cmdDrain(ctx, dir, "ddj", 10, 0, &out))
	assert.Equal(t, "3\tm3\n4\tm4\n", out.String())

	out.Reset()
	require.NoError(t, cmdLag(dir, &out))
	assert.Contains(t, out.String(), "ddj")
	assert.Equal(t, []string{"ddj", "0"}, strings.Fields(strings.Split(strings.TrimSpace(out.String()), "\n")[1]))
}

func TestCmdDrain_Errors(t *testing.T) {
	dir := t.TempDir()
	seedQueue(t, dir, "ddj")
	ctx := context.Background()

	var usageErr *usageError
	assert.ErrorAs(t, cmdDrain(ctx, dir, "ddj", 0, 0, &bytes.Buffer{}), &usageErr)
	assert.ErrorAs(t, cmdDrain(ctx, dir, "ddj", 1, -1, &bytes.Buffer{}), &usageErr)
	assert.ErrorIs(t, cmdDrain(ctx, dir, "missing", 1, 0, &bytes.Buffer{}), xqueue.ErrUnknownTopic)
}

func startFake(t *testing.T) string {
	t.Helper()
	lis, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- xcoord.NewFakeServer(nil).Serve(ctx, lis) }()
	t.Cleanup(func() {
		cancel()
		require.NoError(t, <-done)
	})
	return lis.Addr().String()
}

func receive(t *testing.T, addr, topic string, n int) []string {
	t.Helper()
	cc, err := grpc.NewClient(addr, grpc.WithTransportCredentials(insecure.NewCredentials()))
	require.NoError(t, err)
	defer cc.Close()
	client, err := xcoord.NewClient(cc)
	require.NoError(t, err)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	stream, err := client.Subscribe(ctx, &xcoord.SubscribeRequest{QueueID: topic})
	require.NoError(t, err)

	got := make([]string, 0, n)
	for len(got) < n {
		msg, err := stream.Recv()
		require.NoError(t, err)
		got = append(got, string(msg.Message))
	}
	return got
}

func TestCmdPush(t *testing.T) {
	addr := startFake(t)
	ctx := context.Background()

	var stdout, stderr bytes.Buffer
	require.NoError(t, cmdPush(ctx, pushArgs{
		server: addr, topic: "ddj", retries: 1, timeout: 5 * time.Second,
		msgs: []string{"solo"},
	}, &stdout, &stderr))
	require.NoError(t, cmdPush(ctx, pushArgs{
		server: addr, topic: "ddj", retries: 1, timeout: 5 * time.Second,
		msgs: []string{"b1", "b2"},
	}, &stdout, &stderr))

	assert.Contains(t, stdout.String(), "pushed 1 message(s)")
	assert.Contains(t, stdout.String(), "pushed 2 message(s)")
	assert.Empty(t, stderr.String())
	assert.Equal(t, []string{"solo", "b1", "b2"}, receive(t, addr, "ddj", 3))
}

func TestCmdPush_Usage(t *testing.T) {
	ctx := context.Background()
	var usageErr *usageError

	err := cmdPush(ctx, pushArgs{server: "x", topic: "", msgs: []string{"m"}}, &bytes.Buffer{}, &bytes.Buffer{})
	assert.ErrorAs(t, err, &usageErr)

	err = cmdPush(ctx, pushArgs{server: "x", topic: "t"}, &bytes.Buffer{}, &bytes.Buffer{})
	assert.ErrorAs(t, err, &usageErr)

	err = cmdPush(ctx, pushArgs{server: "x", topic: "t", retries: -1, msgs: []string{"m"}}, &bytes.Buffer{}, &bytes.Buffer{})
	assert.ErrorAs(t, err, &usageErr)
}

func TestCmdPush_RetriesThenFails(t *testing.T) {
	lis, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	addr := lis.Addr().String()
	require.NoError(t, lis.Close())

	var stdout, stderr bytes.Buffer
	err = cmdPush(context.Background(), pushArgs{
		server: addr, topic: "ddj", retries: 1, timeout: 500 * time.Millisecond,
		msgs: []string{"m"},
	}, &stdout, &stderr)

	require.Error(t, err)
	assert.Contains(t, stderr.String(), "push attempt 1 failed")
	assert.Empty(t, stdout.String())
}
