package config

import (
	"context"
	"log/slog"

	"github.com/omeyang/xbridge/pkg/config/xconf"
	"github.com/omeyang/xbridge/pkg/observability/xlog"
)

// LevelSetter 支持运行时调整级别的日志器。
type LevelSetter interface {
	SetLevel(level xlog.Level)
}

// WatchLogLevel 监视配置文件，log.level 变化时应用到 target。
// 返回的函数阻塞到 ctx 取消，适合作为后台任务运行。
func WatchLogLevel(path string, target LevelSetter, logger xlog.Logger) (func(ctx context.Context) error, error) {
	file, err := xconf.New(path)
	if err != nil {
		return nil, err
	}
	if logger == nil {
		logger = xlog.Discard()
	}

	w, err := xconf.Watch(file, func(cfg xconf.Config, err error) {
		ctx := context.Background()
		if err != nil {
			logger.Warn(ctx, "config reload failed", xlog.Err(err))
			return
		}
		applyLogLevel(ctx, cfg, target, logger)
	})
	if err != nil {
		return nil, err
	}
	return w.Run, nil
}

func applyLogLevel(ctx context.Context, cfg xconf.Config, target LevelSetter, logger xlog.Logger) {
	if !cfg.Exists("log.level") {
		return
	}
	var l Log
	if err := cfg.Unmarshal("log", &l); err != nil {
		logger.Warn(ctx, "config reload: decode log section", xlog.Err(err))
		return
	}
	level, err := xlog.ParseLevel(l.Level)
	if err != nil {
		logger.Warn(ctx, "config reload: ignore log level", xlog.Err(err))
		return
	}
	target.SetLevel(level)
	logger.Info(ctx, "log level applied", slog.String("level", level.String()))
}
