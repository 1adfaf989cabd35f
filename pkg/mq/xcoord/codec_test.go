package xcoord

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/protobuf/encoding/protowire"
)

type wireField struct {
	num   protowire.Number
	typ   protowire.Type
	bytes []byte
	vint  uint64
}

// decodeFields 只解析顶层字段，用于核对字段编号和 wire type。
func decodeFields(t *testing.T, b []byte) []wireField {
	t.Helper()
	var out []wireField
	for len(b) > 0 {
		num, typ, n := protowire.ConsumeTag(b)
		require.GreaterOrEqual(t, n, 0)
		b = b[n:]
		f := wireField{num: num, typ: typ}
		switch typ {
		case protowire.BytesType:
			f.bytes, n = protowire.ConsumeBytes(b)
		case protowire.VarintType:
			f.vint, n = protowire.ConsumeVarint(b)
		default:
			t.Fatalf("unexpected wire type %v", typ)
		}
		require.GreaterOrEqual(t, n, 0)
		b = b[n:]
		out = append(out, f)
	}
	return out
}

func TestCodec_Name(t *testing.T) {
	assert.Equal(t, "proto", Codec().Name())
}

func TestCodec_QueueMessageFields(t *testing.T) {
	b, err := Codec().Marshal(&QueueMessage{QueueID: "ddj", Message: []byte("hi")})
	require.NoError(t, err)

	fields := decodeFields(t, b)
	require.Len(t, fields, 2)
	assert.Equal(t, protowire.Number(1), fields[0].num)
	assert.Equal(t, "ddj", string(fields[0].bytes))
	assert.Equal(t, protowire.Number(2), fields[1].num)
	assert.Equal(t, "hi", string(fields[1].bytes))

	var got QueueMessage
	require.NoError(t, Codec().Unmarshal(b, &got))
	assert.Equal(t, "ddj", got.QueueID)
	assert.Equal(t, []byte("hi"), got.Message)
}

func TestCodec_HeartbeatNestedLags(t *testing.T) {
	in := &HeartbeatRequest{QueueLags: []QueueLag{{QueueID: "a", Lag: 300}, {QueueID: "b"}}}
	b, err := Codec().Marshal(in)
	require.NoError(t, err)

	fields := decodeFields(t, b)
	require.Len(t, fields, 2)
	for _, f := range fields {
		assert.Equal(t, protowire.Number(1), f.num)
		assert.Equal(t, protowire.BytesType, f.typ)
	}
	first := decodeFields(t, fields[0].bytes)
	require.Len(t, first, 2)
	assert.Equal(t, "a", string(first[0].bytes))
	assert.Equal(t, protowire.Number(2), first[1].num)
	assert.Equal(t, protowire.VarintType, first[1].typ)
	assert.Equal(t, uint64(300), first[1].vint)

	// lag 为 0 时按 proto3 省略
	assert.Len(t, decodeFields(t, fields[1].bytes), 1)

	var got HeartbeatRequest
	require.NoError(t, Codec().Unmarshal(b, &got))
	assert.Equal(t, in.QueueLags, got.QueueLags)
}

func TestCodec_PushBatchKeepsEmptyMessages(t *testing.T) {
	in := &PushBatchRequest{QueueID: "q", Messages: [][]byte{[]byte("x"), {}, []byte("z")}}
	b, err := Codec().Marshal(in)
	require.NoError(t, err)
	assert.Len(t, decodeFields(t, b), 4)

	var got PushBatchRequest
	require.NoError(t, Codec().Unmarshal(b, &got))
	assert.Equal(t, "q", got.QueueID)
	require.Len(t, got.Messages, 3)
	assert.Equal(t, "x", string(got.Messages[0]))
	assert.Empty(t, got.Messages[1])
	assert.Equal(t, "z", string(got.Messages[2]))
}

func TestCodec_SkipsUnknownFields(t *testing.T) {
	var b []byte
	b = protowire.AppendTag(b, 9, protowire.VarintType)
	b = protowire.AppendVarint(b, 42)
	b = protowire.AppendTag(b, 1, protowire.BytesType)
	b = protowire.AppendString(b, "ddj")
	b = protowire.AppendTag(b, 7, protowire.BytesType)
	b = protowire.AppendBytes(b, []byte("ignored"))

	var got SubscribeRequest
	require.NoError(t, Codec().Unmarshal(b, &got))
	assert.Equal(t, "ddj", got.QueueID)

	require.NoError(t, Codec().Unmarshal(b, &Empty{}))
}

func TestCodec_Errors(t *testing.T) {
	_, err := Codec().Marshal("not a message")
	assert.ErrorIs(t, err, ErrUnsupportedMessage)
	assert.ErrorIs(t, Codec().Unmarshal(nil, new(int)), ErrUnsupportedMessage)

	truncated := []byte{0x0a, 0x05, 'a'}
	assert.ErrorIs(t, Codec().Unmarshal(truncated, &QueueMessage{}), ErrMalformed)

	var hb []byte
	hb = protowire.AppendTag(hb, 1, protowire.BytesType)
	hb = protowire.AppendBytes(hb, truncated)
	assert.ErrorIs(t, Codec().Unmarshal(hb, &HeartbeatRequest{}), ErrMalformed)
}

func TestUnmarshal_ResetsTarget(t *testing.T) {
	m := &QueueMessage{QueueID: "old", Message: []byte("old")}
	require.NoError(t, Codec().Unmarshal(nil, m))
	assert.Empty(t, m.QueueID)
	assert.Nil(t, m.Message)
}
