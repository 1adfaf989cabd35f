package bridge

import (
	"context"
	"errors"
	"fmt"
	"net"
	"slices"
	"sync"
	"time"

	"go.opentelemetry.io/contrib/instrumentation/google.golang.org/grpc/otelgrpc"
	"google.golang.org/grpc"
	"google.golang.org/grpc/connectivity"
	"google.golang.org/grpc/credentials/insecure"
	"google.golang.org/grpc/keepalive"

	"github.com/omeyang/xbridge/pkg/context/xctx"
	"github.com/omeyang/xbridge/pkg/mq/xcoord"
	"github.com/omeyang/xbridge/pkg/observability/xlog"
)

// 服务端默认 keepalive MinTime 为 5 分钟，更频繁的 ping 会被 GOAWAY。
const minGRPCKeepAlive = 5 * time.Minute

// ConnManager 为每个协调器端点维护一条共享连接。
type ConnManager struct {
	opts   options
	logger xlog.Logger

	mu      sync.Mutex
	conns   map[string]*grpc.ClientConn
	clients map[string]xcoord.Client
	order   []string
	closed  bool
}

// NewConnManager 创建连接管理器。
func NewConnManager(opts ...Option) *ConnManager {
	o := applyOptions(opts)
	return &ConnManager{
		opts:    o,
		logger:  o.logger.With(xlog.Component("connmgr")),
		conns:   make(map[string]*grpc.ClientConn),
		clients: make(map[string]xcoord.Client),
	}
}

// Connect 连接端点并等待连接就绪。同一端点重复调用返回同一连接。
// 连接进入 TRANSIENT_FAILURE 或超过连接期限时返回 ErrConnect，不重试。
func (m *ConnManager) Connect(ctx context.Context, endpoint string) (*grpc.ClientConn, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.closed {
		return nil, ErrClosed
	}
	if conn, ok := m.conns[endpoint]; ok {
		return conn, nil
	}

	ctx, _ = xctx.WithEndpoint(ctx, endpoint)
	conn, err := grpc.NewClient(endpoint, m.dialOptions()...)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %w", ErrConnect, endpoint, err)
	}
	if err := m.waitReady(ctx, conn); err != nil {
		_ = conn.Close()
		m.logger.Error(ctx, "connect failed", xlog.Err(err))
		return nil, fmt.Errorf("%w: %s: %w", ErrConnect, endpoint, err)
	}

	client, err := xcoord.NewClient(conn, xcoord.WithInstanceID(m.opts.instanceID))
	if err != nil {
		_ = conn.Close()
		return nil, err
	}
	m.conns[endpoint] = conn
	m.clients[endpoint] = client
	m.order = append(m.order, endpoint)
	m.logger.Info(ctx, "connected")
	return conn, nil
}

// ConnectAll 依次连接所有端点，遇到第一个失败即返回。
func (m *ConnManager) ConnectAll(ctx context.Context, endpoints []string) error {
	for _, ep := range endpoints {
		if _, err := m.Connect(ctx, ep); err != nil {
			return err
		}
	}
	return nil
}

// Client 返回端点的协调器客户端，端点未连接时返回 ErrUnknownEndpoint。
func (m *ConnManager) Client(endpoint string) (xcoord.Client, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	c, ok := m.clients[endpoint]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownEndpoint, endpoint)
	}
	return c, nil
}

// Endpoints 按连接顺序返回已连接的端点。
func (m *ConnManager) Endpoints() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return slices.Clone(m.order)
}

// Close 关闭所有连接，可重复调用。
func (m *ConnManager) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.closed {
		return nil
	}
	m.closed = true

	var errs []error
	for _, ep := range m.order {
		if err := m.conns[ep].Close(); err != nil {
			errs = append(errs, fmt.Errorf("close %s: %w", ep, err))
		}
	}
	clear(m.conns)
	clear(m.clients)
	m.order = nil
	return errors.Join(errs...)
}

func (m *ConnManager) dialOptions() []grpc.DialOption {
	dialer := &net.Dialer{Timeout: m.opts.connectTimeout, KeepAlive: m.opts.tcpKeepAlive}
	opts := []grpc.DialOption{
		grpc.WithTransportCredentials(insecure.NewCredentials()),
		grpc.WithContextDialer(func(ctx context.Context, addr string) (net.Conn, error) {
			return dialer.DialContext(ctx, "tcp", addr)
		}),
		grpc.WithKeepaliveParams(keepalive.ClientParameters{
			Time:    max(m.opts.tcpKeepAlive, minGRPCKeepAlive),
			Timeout: 20 * time.Second,
		}),
		grpc.WithStatsHandler(otelgrpc.NewClientHandler()),
	}
	return append(opts, m.opts.dialOptions...)
}

func (m *ConnManager) waitReady(ctx context.Context, conn *grpc.ClientConn) error {
	ctx, cancel := context.WithTimeout(ctx, m.opts.connectTimeout)
	defer cancel()

	conn.Connect()
	for {
		state := conn.GetState()
		switch state {
		case connectivity.Ready:
			return nil
		case connectivity.TransientFailure, connectivity.Shutdown:
			return fmt.Errorf("connection state %s", state)
		}
		if !conn.WaitForStateChange(ctx, state) {
			return fmt.Errorf("connection state %s: %w", state, context.Cause(ctx))
		}
	}
}
