package xctx

import "context"

// Relay Key 常量，遵循下划线分隔的命名约定
const (
	KeyInstanceID = "instance_id"
	KeyEndpoint   = "endpoint"
	KeyTopic      = "topic"

	relayFieldCount = 3
)

const (
	keyInstanceID = contextKey("xctx:instance_id")
	keyEndpoint   = contextKey("xctx:endpoint")
	keyTopic      = contextKey("xctx:topic")
)

// WithInstanceID 将桥接实例 ID 注入 context。
// 如果 ctx 为 nil，返回 ErrNilContext。
func WithInstanceID(ctx context.Context, id string) (context.Context, error) {
	return withString(ctx, keyInstanceID, id)
}

// InstanceID 从 context 提取实例 ID，不存在返回空字符串
func InstanceID(ctx context.Context) string {
	return stringValue(ctx, keyInstanceID)
}

// RequireInstanceID 从 context 获取实例 ID，不存在则返回 ErrMissingInstanceID。
func RequireInstanceID(ctx context.Context) (string, error) {
	return requireString(ctx, keyInstanceID, ErrMissingInstanceID)
}

// WithEndpoint 将协调器地址注入 context。
func WithEndpoint(ctx context.Context, endpoint string) (context.Context, error) {
	return withString(ctx, keyEndpoint, endpoint)
}

// Endpoint 从 context 提取协调器地址，不存在返回空字符串
func Endpoint(ctx context.Context) string {
	return stringValue(ctx, keyEndpoint)
}

// RequireEndpoint 从 context 获取协调器地址，不存在则返回 ErrMissingEndpoint。
func RequireEndpoint(ctx context.Context) (string, error) {
	return requireString(ctx, keyEndpoint, ErrMissingEndpoint)
}

// WithTopic 将主题名称注入 context。
func WithTopic(ctx context.Context, topic string) (context.Context, error) {
	return withString(ctx, keyTopic, topic)
}

// Topic 从 context 提取主题名称，不存在返回空字符串
func Topic(ctx context.Context) string {
	return stringValue(ctx, keyTopic)
}

// RequireTopic 从 context 获取主题名称，不存在则返回 ErrMissingTopic。
func RequireTopic(ctx context.Context) (string, error) {
	return requireString(ctx, keyTopic, ErrMissingTopic)
}

// Relay 中继字段的批量视图。
type Relay struct {
	InstanceID string
	Endpoint   string
	Topic      string
}

// GetRelay 批量读取中继字段。
func GetRelay(ctx context.Context) Relay {
	return Relay{
		InstanceID: InstanceID(ctx),
		Endpoint:   Endpoint(ctx),
		Topic:      Topic(ctx),
	}
}

// WithRelay 批量注入中继字段，只注入非空字段。
//
// 父 context 中已存在的字段会被保留，允许入口层设置 instance_id，
// 各工作协程再补充 endpoint/topic。
func WithRelay(ctx context.Context, r Relay) (context.Context, error) {
	if ctx == nil {
		return nil, ErrNilContext
	}
	fields := [relayFieldCount]struct {
		key   contextKey
		value string
	}{
		{keyInstanceID, r.InstanceID},
		{keyEndpoint, r.Endpoint},
		{keyTopic, r.Topic},
	}
	for _, f := range fields {
		if f.value == "" {
			continue
		}
		ctx = context.WithValue(ctx, f.key, f.value)
	}
	return ctx, nil
}
