package xcoord

import (
	"bytes"
	"fmt"

	"google.golang.org/protobuf/encoding/protowire"
)

// SubscribeRequest 订阅一个队列。
type SubscribeRequest struct {
	QueueID string // 1
}

// QueueMessage 是一条队列消息。
type QueueMessage struct {
	QueueID string // 1
	Message []byte // 2
}

// QueueLag 是一个队列的积压量。
type QueueLag struct {
	QueueID string // 1
	Lag     uint64 // 2
}

// HeartbeatRequest 上报本实例所有队列的积压量。
type HeartbeatRequest struct {
	QueueLags []QueueLag // 1
}

// PushBatchRequest 批量推送同一队列的消息。
type PushBatchRequest struct {
	QueueID  string   // 1
	Messages [][]byte // 2
}

// Empty 空响应。
type Empty struct{}

// wireMessage 由本包所有消息类型实现。
type wireMessage interface {
	appendWire(b []byte) []byte
	unmarshalWire(b []byte) error
}

var (
	_ wireMessage = (*SubscribeRequest)(nil)
	_ wireMessage = (*QueueMessage)(nil)
	_ wireMessage = (*QueueLag)(nil)
	_ wireMessage = (*HeartbeatRequest)(nil)
	_ wireMessage = (*PushBatchRequest)(nil)
	_ wireMessage = (*Empty)(nil)
)

func (m *SubscribeRequest) appendWire(b []byte) []byte {
	return appendString(b, 1, m.QueueID)
}

func (m *SubscribeRequest) unmarshalWire(b []byte) error {
	*m = SubscribeRequest{}
	return walkFields(b, func(num protowire.Number, typ protowire.Type, b []byte) (int, bool) {
		if num == 1 && typ == protowire.BytesType {
			v, n := protowire.ConsumeString(b)
			m.QueueID = v
			return n, true
		}
		return 0, false
	})
}

func (m *QueueMessage) appendWire(b []byte) []byte {
	b = appendString(b, 1, m.QueueID)
	if len(m.Message) > 0 {
		b = protowire.AppendTag(b, 2, protowire.BytesType)
		b = protowire.AppendBytes(b, m.Message)
	}
	return b
}

func (m *QueueMessage) unmarshalWire(b []byte) error {
	*m = QueueMessage{}
	return walkFields(b, func(num protowire.Number, typ protowire.Type, b []byte) (int, bool) {
		if typ != protowire.BytesType {
			return 0, false
		}
		switch num {
		case 1:
			v, n := protowire.ConsumeString(b)
			m.QueueID = v
			return n, true
		case 2:
			v, n := protowire.ConsumeBytes(b)
			m.Message = bytes.Clone(v)
			return n, true
		}
		return 0, false
	})
}

func (m *QueueLag) appendWire(b []byte) []byte {
	b = appendString(b, 1, m.QueueID)
	if m.Lag != 0 {
		b = protowire.AppendTag(b, 2, protowire.VarintType)
		b = protowire.AppendVarint(b, m.Lag)
	}
	return b
}

func (m *QueueLag) unmarshalWire(b []byte) error {
	*m = QueueLag{}
	return walkFields(b, func(num protowire.Number, typ protowire.Type, b []byte) (int, bool) {
		switch {
		case num == 1 && typ == protowire.BytesType:
			v, n := protowire.ConsumeString(b)
			m.QueueID = v
			return n, true
		case num == 2 && typ == protowire.VarintType:
			v, n := protowire.ConsumeVarint(b)
			m.Lag = v
			return n, true
		}
		return 0, false
	})
}

func (m *HeartbeatRequest) appendWire(b []byte) []byte {
	var scratch []byte
	for i := range m.QueueLags {
		scratch = m.QueueLags[i].appendWire(scratch[:0])
		b = protowire.AppendTag(b, 1, protowire.BytesType)
		b = protowire.AppendBytes(b, scratch)
	}
	return b
}

func (m *HeartbeatRequest) unmarshalWire(b []byte) error {
	*m = HeartbeatRequest{}
	var nested error
	err := walkFields(b, func(num protowire.Number, typ protowire.Type, b []byte) (int, bool) {
		if num != 1 || typ != protowire.BytesType {
			return 0, false
		}
		v, n := protowire.ConsumeBytes(b)
		if n < 0 {
			return n, true
		}
		var lag QueueLag
		if err := lag.unmarshalWire(v); err != nil {
			nested = err
			return -1, true
		}
		m.QueueLags = append(m.QueueLags, lag)
		return n, true
	})
	if nested != nil {
		return nested
	}
	return err
}

func (m *PushBatchRequest) appendWire(b []byte) []byte {
	b = appendString(b, 1, m.QueueID)
	for _, msg := range m.Messages {
		b = protowire.AppendTag(b, 2, protowire.BytesType)
		b = protowire.AppendBytes(b, msg)
	}
	return b
}

func (m *PushBatchRequest) unmarshalWire(b []byte) error {
	*m = PushBatchRequest{}
	return walkFields(b, func(num protowire.Number, typ protowire.Type, b []byte) (int, bool) {
		if typ != protowire.BytesType {
			return 0, false
		}
		switch num {
		case 1:
			v, n := protowire.ConsumeString(b)
			m.QueueID = v
			return n, true
		case 2:
			v, n := protowire.ConsumeBytes(b)
			if n >= 0 {
				m.Messages = append(m.Messages, bytes.Clone(v))
			}
			return n, true
		}
		return 0, false
	})
}

func (*Empty) appendWire(b []byte) []byte { return b }

func (*Empty) unmarshalWire(b []byte) error {
	return walkFields(b, func(protowire.Number, protowire.Type, []byte) (int, bool) {
		return 0, false
	})
}

// appendString 写入非空字符串字段，proto3 默认值不编码。
func appendString(b []byte, num protowire.Number, s string) []byte {
	if s == "" {
		return b
	}
	b = protowire.AppendTag(b, num, protowire.BytesType)
	return protowire.AppendString(b, s)
}

// walkFields 逐个解析字段。field 返回 (消耗字节数, 是否识别)，
// 未识别的字段按 wire type 跳过，负的字节数表示解析失败。
func walkFields(b []byte, field func(num protowire.Number, typ protowire.Type, b []byte) (int, bool)) error {
	for len(b) > 0 {
		num, typ, n := protowire.ConsumeTag(b)
		if n < 0 {
			return fmt.Errorf("%w: %w", ErrMalformed, protowire.ParseError(n))
		}
		b = b[n:]

		m, ok := field(num, typ, b)
		if !ok {
			m = protowire.ConsumeFieldValue(num, typ, b)
		}
		if m < 0 {
			return fmt.Errorf("%w: field %d: %w", ErrMalformed, num, protowire.ParseError(m))
		}
		b = b[m:]
	}
	return nil
}
