package xcoord

import (
	"context"
	"io"
	"net"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/credentials/insecure"
	"google.golang.org/grpc/status"
	"google.golang.org/grpc/test/bufconn"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

const bufSize = 1 << 20

func startFake(t *testing.T) (*FakeServer, *grpc.ClientConn) {
	t.Helper()
	lis := bufconn.Listen(bufSize)
	fake := NewFakeServer(nil)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- fake.Serve(ctx, lis) }()

	conn, err := grpc.NewClient("passthrough:///bufnet",
		grpc.WithContextDialer(func(ctx context.Context, _ string) (net.Conn, error) {
			return lis.DialContext(ctx)
		}),
		grpc.WithTransportCredentials(insecure.NewCredentials()),
	)
	require.NoError(t, err)
	t.Cleanup(func() {
		_ = conn.Close()
		cancel()
		assert.NoError(t, <-done)
	})
	return fake, conn
}

func newTestClient(t *testing.T, conn grpc.ClientConnInterface, opts ...ClientOption) Client {
	t.Helper()
	c, err := NewClient(conn, opts...)
	require.NoError(t, err)
	return c
}

func TestNewClient_NilConn(t *testing.T) {
	_, err := NewClient(nil)
	assert.ErrorIs(t, err, ErrNilConn)
}

func TestSubscribe_ReceivesPushedMessages(t *testing.T) {
	fake, conn := startFake(t)
	c := newTestClient(t, conn)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	stream, err := c.Subscribe(ctx, &SubscribeRequest{QueueID: "ddj"})
	require.NoError(t, err)
	require.Eventually(t, func() bool { return fake.Subscribers("ddj") == 1 }, 2*time.Second, 5*time.Millisecond)

	_, err = c.Push(ctx, &QueueMessage{QueueID: "ddj", Message: []byte("one")})
	require.NoError(t, err)
	_, err = c.PushBatch(ctx, &PushBatchRequest{QueueID: "ddj", Messages: [][]byte{[]byte("two"), []byte("three")}})
	require.NoError(t, err)

	for _, want := range []string{"one", "two", "three"} {
		msg, err := stream.Recv()
		require.NoError(t, err)
		assert.Equal(t, "ddj", msg.QueueID)
		assert.Equal(t, want, string(msg.Message))
	}
}

func TestSubscribe_PendingDeliveredOnAttach(t *testing.T) {
	fake, conn := startFake(t)
	c := newTestClient(t, conn)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	_, err := c.Push(ctx, &QueueMessage{QueueID: "late", Message: []byte("early")})
	require.NoError(t, err)
	assert.Zero(t, fake.Subscribers("late"))

	stream, err := c.Subscribe(ctx, &SubscribeRequest{QueueID: "late"})
	require.NoError(t, err)
	msg, err := stream.Recv()
	require.NoError(t, err)
	assert.Equal(t, "early", string(msg.Message))
}

func TestSubscribe_EndStreams(t *testing.T) {
	fake, conn := startFake(t)
	c := newTestClient(t, conn)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	stream, err := c.Subscribe(ctx, &SubscribeRequest{QueueID: "t"})
	require.NoError(t, err)
	require.Eventually(t, func() bool { return fake.Subscribers("t") == 1 }, 2*time.Second, 5*time.Millisecond)
	assert.Equal(t, 1, fake.EndStreams("t", nil))
	_, err = stream.Recv()
	assert.ErrorIs(t, err, io.EOF)

	stream, err = c.Subscribe(ctx, &SubscribeRequest{QueueID: "t"})
	require.NoError(t, err)
	require.Eventually(t, func() bool { return fake.Subscribers("t") == 1 }, 2*time.Second, 5*time.Millisecond)
	fake.EndStreams("t", status.Error(codes.Unavailable, "going away"))
	_, err = stream.Recv()
	assert.Equal(t, codes.Unavailable, status.Code(err))
}

func TestSubscribe_EmptyQueueID(t *testing.T) {
	_, conn := startFake(t)
	c := newTestClient(t, conn)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	stream, err := c.Subscribe(ctx, &SubscribeRequest{})
	require.NoError(t, err)
	_, err = stream.Recv()
	assert.Equal(t, codes.InvalidArgument, status.Code(err))

	_, err = c.Push(ctx, &QueueMessage{Message: []byte("x")})
	assert.Equal(t, codes.InvalidArgument, status.Code(err))
}

func TestHeartbeat_CarriesInstanceAndLags(t *testing.T) {
	fake, conn := startFake(t)
	c := newTestClient(t, conn, WithInstanceID("bridge-1"))

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	lags := []QueueLag{{QueueID: "a", Lag: 3}, {QueueID: "b", Lag: 0}}
	_, err := c.Heartbeat(ctx, &HeartbeatRequest{QueueLags: lags})
	require.NoError(t, err)

	hbs := fake.Heartbeats()
	require.Len(t, hbs, 1)
	assert.Equal(t, "bridge-1", hbs[0].Instance)
	assert.Equal(t, lags, hbs[0].Lags)

	fake.SetHeartbeatError(status.Error(codes.Unavailable, "busy"))
	_, err = c.Heartbeat(ctx, &HeartbeatRequest{})
	assert.Equal(t, codes.Unavailable, status.Code(err))
	assert.Len(t, fake.Heartbeats(), 2)
}

func TestUnimplementedServer(t *testing.T) {
	lis := bufconn.Listen(bufSize)
	gs := grpc.NewServer(ServerOptions()...)
	RegisterServer(gs, UnimplementedServer{})
	go func() { _ = gs.Serve(lis) }()
	defer gs.Stop()

	conn, err := grpc.NewClient("passthrough:///bufnet",
		grpc.WithContextDialer(func(ctx context.Context, _ string) (net.Conn, error) {
			return lis.DialContext(ctx)
		}),
		grpc.WithTransportCredentials(insecure.NewCredentials()),
	)
	require.NoError(t, err)
	defer conn.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	_, err = newTestClient(t, conn).Push(ctx, &QueueMessage{QueueID: "q"})
	assert.Equal(t, codes.Unimplemented, status.Code(err))
}
