package xqueue

import "errors"

var (
	// ErrEmptyDir 数据目录为空。
	ErrEmptyDir = errors.New("xqueue: empty data dir")

	// ErrEmptyTopic 主题名为空。
	ErrEmptyTopic = errors.New("xqueue: empty topic")

	// ErrUnknownTopic 主题尚未创建。
	ErrUnknownTopic = errors.New("xqueue: unknown topic")

	// ErrClosed Env 已关闭。
	ErrClosed = errors.New("xqueue: env closed")

	// ErrCorrupt 主题 bucket 缺少计数器或消息。
	ErrCorrupt = errors.New("xqueue: corrupt topic bucket")
)
