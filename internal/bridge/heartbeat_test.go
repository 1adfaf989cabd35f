package bridge

import (
	"context"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"
	"google.golang.org/grpc"

	"github.com/omeyang/xbridge/pkg/mq/xcoord"
	"github.com/omeyang/xbridge/pkg/mq/xcoord/xcoordmock"
)

type staticLags []LagSnapshot

func (s staticLags) LagSnapshotAll(context.Context) []LagSnapshot { return s }

func TestNewHeartbeat_InvalidArgs(t *testing.T) {
	_, err := NewHeartbeat("ep", nil, staticLags{})
	assert.ErrorIs(t, err, ErrInvalidArgument)
}

func TestHeartbeat_SendsLagsImmediately(t *testing.T) {
	ctrl := gomock.NewController(t)
	client := xcoordmock.NewMockClient(ctrl)

	want := &xcoord.HeartbeatRequest{QueueLags: []xcoord.QueueLag{
		{QueueID: "a", Lag: 5},
		{QueueID: "b", Lag: 0},
	}}
	sent := make(chan struct{})
	client.EXPECT().
		Heartbeat(gomock.Any(), want).
		DoAndReturn(func(context.Context, *xcoord.HeartbeatRequest, ...grpc.CallOption) (*xcoord.Empty, error) {
			close(sent)
			return &xcoord.Empty{}, nil
		})

	hb, err := NewHeartbeat("ep", client, staticLags{{Topic: "a", Lag: 5}, {Topic: "b"}},
		WithHeartbeatInterval(time.Hour))
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- hb.Run(ctx) }()

	select {
	case <-sent:
	case <-time.After(2 * time.Second):
		t.Fatal("no immediate heartbeat")
	}
	cancel()
	assert.ErrorIs(t, <-done, context.Canceled)
}

func TestHeartbeat_FailureDoesNotStopTicking(t *testing.T) {
	ctrl := gomock.NewController(t)
	client := xcoordmock.NewMockClient(ctrl)

	var calls atomic.Int32
	client.EXPECT().
		Heartbeat(gomock.Any(), gomock.Any()).
		DoAndReturn(func(context.Context, *xcoord.HeartbeatRequest, ...grpc.CallOption) (*xcoord.Empty, error) {
			calls.Add(1)
			return nil, assert.AnError
		}).
		MinTimes(3)

	hb, err := NewHeartbeat("ep", client, staticLags{{Topic: "a", Lag: 1}},
		WithHeartbeatInterval(5*time.Millisecond))
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- hb.Run(ctx) }()

	require.Eventually(t, func() bool { return calls.Load() >= 3 }, 2*time.Second, time.Millisecond)
	cancel()
	assert.ErrorIs(t, <-done, context.Canceled)
}

func TestHeartbeat_Timeout(t *testing.T) {
	ctrl := gomock.NewController(t)
	client := xcoordmock.NewMockClient(ctrl)

	client.EXPECT().
		Heartbeat(gomock.Any(), gomock.Any()).
		DoAndReturn(func(ctx context.Context, _ *xcoord.HeartbeatRequest, _ ...grpc.CallOption) (*xcoord.Empty, error) {
			_, ok := ctx.Deadline()
			assert.True(t, ok, "per-call deadline expected")
			<-ctx.Done()
			return nil, ctx.Err()
		})

	hb, err := NewHeartbeat("ep", client, staticLags{}, WithHeartbeatTimeout(10*time.Millisecond))
	require.NoError(t, err)
	assert.NoError(t, hb.beat(context.Background()))
}
