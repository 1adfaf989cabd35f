package mqcore

import "errors"

var (
	// ErrNilConsumeFunc 表示传入的消费函数为空。
	ErrNilConsumeFunc = errors.New("mq: nil consume func")
)

// progressError 标记一次在失败前已取得进展的消费迭代。
type progressError struct {
	err error
}

func (e *progressError) Error() string { return e.err.Error() }

func (e *progressError) Unwrap() error { return e.err }

// Progress 包装 err，表明本次迭代失败前至少处理了一条消息。
// RunConsumeLoop 遇到此类错误时先重置退避计数再计算延迟。
// err 为 nil 时返回 nil。
func Progress(err error) error {
	if err == nil {
		return nil
	}
	return &progressError{err: err}
}

// IsProgress 报告 err 是否由 Progress 包装。
func IsProgress(err error) bool {
	var pe *progressError
	return errors.As(err, &pe)
}
