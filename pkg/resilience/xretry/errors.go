package xretry

import "errors"

var (
	// ErrNilRetryer Retryer 为 nil
	ErrNilRetryer = errors.New("xretry: nil retryer")

	// ErrNilContext context 为 nil
	ErrNilContext = errors.New("xretry: nil context")

	// ErrNilFunc 执行函数为 nil
	ErrNilFunc = errors.New("xretry: nil func")
)

// PermanentError 永久性错误（不应重试）
type PermanentError struct {
	Err error
}

// NewPermanentError 创建永久性错误
func NewPermanentError(err error) *PermanentError {
	return &PermanentError{Err: err}
}

func (e *PermanentError) Error() string {
	if e.Err == nil {
		return "permanent error"
	}
	return e.Err.Error()
}

func (e *PermanentError) Unwrap() error {
	return e.Err
}

// IsRetryable 检查错误是否可重试
// nil 不需要重试；错误链中含 PermanentError 不可重试；其余默认可重试。
func IsRetryable(err error) bool {
	if err == nil {
		return false
	}
	var pe *PermanentError
	return !errors.As(err, &pe)
}
