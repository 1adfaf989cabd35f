package xcoord

import (
	"fmt"

	"google.golang.org/grpc/encoding"
)

// CodecName 与 protobuf 编解码器同名，线上 content-type 为 application/grpc+proto。
const CodecName = "proto"

type codec struct{}

var _ encoding.Codec = codec{}

// Codec 返回本包消息类型的编解码器。
func Codec() encoding.Codec { return codec{} }

func (codec) Name() string { return CodecName }

func (codec) Marshal(v any) ([]byte, error) {
	m, ok := v.(wireMessage)
	if !ok {
		return nil, fmt.Errorf("%w: %T", ErrUnsupportedMessage, v)
	}
	return m.appendWire(nil), nil
}

func (codec) Unmarshal(data []byte, v any) error {
	m, ok := v.(wireMessage)
	if !ok {
		return fmt.Errorf("%w: %T", ErrUnsupportedMessage, v)
	}
	return m.unmarshalWire(data)
}
