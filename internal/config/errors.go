package config

import "errors"

var (
	// ErrInvalid 配置校验失败，Validate 返回的每个问题都包装此错误。
	ErrInvalid = errors.New("config: invalid")

	// ErrLoad 配置文件或环境变量加载失败。
	ErrLoad = errors.New("config: load failed")
)
