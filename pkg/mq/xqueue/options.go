package xqueue

import "time"

const (
	// DefaultFileName 数据目录下的数据库文件名。
	DefaultFileName = "queue.db"

	defaultOpenTimeout = time.Second
)

// Option 配置 Open。
type Option func(*envOptions)

type envOptions struct {
	fileName    string
	openTimeout time.Duration
	noSync      bool
}

func defaultEnvOptions() envOptions {
	return envOptions{fileName: DefaultFileName, openTimeout: defaultOpenTimeout}
}

// WithFileName 覆盖数据库文件名。
func WithFileName(name string) Option {
	return func(o *envOptions) {
		if name != "" {
			o.fileName = name
		}
	}
}

// WithOpenTimeout 设置等待文件锁的时间，默认 1s。
func WithOpenTimeout(d time.Duration) Option {
	return func(o *envOptions) {
		if d > 0 {
			o.openTimeout = d
		}
	}
}

// WithNoSync 关闭每次提交后的 fsync，仅用于测试。
func WithNoSync() Option {
	return func(o *envOptions) {
		o.noSync = true
	}
}
