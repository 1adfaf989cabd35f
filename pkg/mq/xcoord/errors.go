package xcoord

import "errors"

var (
	// ErrUnsupportedMessage 编解码器收到了本包以外的消息类型。
	ErrUnsupportedMessage = errors.New("xcoord: unsupported message type")

	// ErrMalformed 消息二进制格式错误。
	ErrMalformed = errors.New("xcoord: malformed message")

	// ErrNilConn NewClient 传入了 nil 连接。
	ErrNilConn = errors.New("xcoord: nil client conn")

	// ErrEmptyQueueID 请求缺少 queue_id。
	ErrEmptyQueueID = errors.New("xcoord: empty queue id")
)
