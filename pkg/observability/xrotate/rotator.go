package xrotate

import "io"

// Rotator 日志轮转器接口
//
// Close 后调用 Write 或 Rotate 返回 [ErrClosed]，重复 Close 同样返回 [ErrClosed]。
type Rotator interface {
	io.WriteCloser

	// Rotate 手动触发轮转：关闭当前文件，重命名为备份，创建新文件
	Rotate() error
}
