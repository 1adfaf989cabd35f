package xmetrics

import (
	"math"

	"go.opentelemetry.io/otel/attribute"
)

func String(key, value string) Attr { return attribute.String(key, value) }

func Int(key string, value int) Attr { return attribute.Int(key, value) }

func Int64(key string, value int64) Attr { return attribute.Int64(key, value) }

// Uint64 超出 int64 的值截断为 MaxInt64，OTel 没有无符号属性。
func Uint64(key string, value uint64) Attr {
	return attribute.Int64(key, clampInt64(value))
}

func clampInt64(v uint64) int64 {
	if v > math.MaxInt64 {
		return math.MaxInt64
	}
	return int64(v)
}
