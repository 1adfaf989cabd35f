// Package config 加载 xbridge 进程配置。
//
// 优先级从低到高：内置默认值、CONFIG_FILE 指定的 YAML/JSON 文件、环境变量。
package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"

	"github.com/omeyang/xbridge/pkg/config/xconf"
	"github.com/omeyang/xbridge/pkg/observability/xlog"
	"github.com/omeyang/xbridge/pkg/resilience/xretry"
)

// Config 进程配置。
type Config struct {
	Servers  []string `koanf:"servers" env:"SERVERS" envSeparator:","`
	Topics   []string `koanf:"topics" env:"TOPICS" envSeparator:","`
	DataPath string   `koanf:"data_path" env:"DATA_PATH"`

	HeartbeatInterval time.Duration `koanf:"heartbeat_interval" env:"HEARTBEAT_INTERVAL"`
	// HeartbeatTimeout 单次心跳 RPC 超时，0 表示不设超时。
	HeartbeatTimeout time.Duration `koanf:"heartbeat_timeout" env:"HEARTBEAT_TIMEOUT"`

	Backoff Backoff `koanf:"backoff"`

	ConnectTimeout time.Duration `koanf:"connect_timeout" env:"CONNECT_TIMEOUT"`
	TCPKeepAlive   time.Duration `koanf:"tcp_keepalive" env:"TCP_KEEPALIVE"`

	Log Log `koanf:"log"`

	// ConfigFile 仅来自环境变量或命令行，不从文件读取。
	ConfigFile string `koanf:"-" env:"CONFIG_FILE"`
}

// Backoff 订阅重连退避参数。
type Backoff struct {
	Initial    time.Duration `koanf:"initial" env:"BACKOFF_INITIAL"`
	Max        time.Duration `koanf:"max" env:"BACKOFF_MAX"`
	Multiplier float64       `koanf:"multiplier" env:"BACKOFF_MULTIPLIER"`
	Jitter     float64       `koanf:"jitter" env:"BACKOFF_JITTER"`
}

// Log 日志参数。File 为空时输出到 stderr。
type Log struct {
	Level  string `koanf:"level" env:"LOG_LEVEL"`
	Format string `koanf:"format" env:"LOG_FORMAT"`
	File   string `koanf:"file" env:"LOG_FILE"`
}

// Default 返回内置默认配置。
func Default() Config {
	return Config{
		Servers:           []string{"127.0.0.1:50051"},
		Topics:            []string{"ddj"},
		DataPath:          "/tmp/queue-bridge",
		HeartbeatInterval: time.Second,
		Backoff: Backoff{
			Initial:    time.Second,
			Max:        30 * time.Second,
			Multiplier: 2,
			Jitter:     0.1,
		},
		ConnectTimeout: 10 * time.Second,
		TCPKeepAlive:   60 * time.Second,
		Log: Log{
			Level:  "info",
			Format: "text",
		},
	}
}

// LoadOption 配置 Load。
type LoadOption func(*loadOptions)

type loadOptions struct {
	file    string
	environ map[string]string
}

// WithFile 指定配置文件，优先于 CONFIG_FILE。
func WithFile(path string) LoadOption {
	return func(o *loadOptions) { o.file = path }
}

// WithEnvironment 用给定变量表代替进程环境变量。
func WithEnvironment(environ map[string]string) LoadOption {
	return func(o *loadOptions) { o.environ = environ }
}

// Load 按默认值、配置文件、环境变量的顺序加载配置并校验。
func Load(opts ...LoadOption) (*Config, error) {
	var o loadOptions
	for _, opt := range opts {
		if opt != nil {
			opt(&o)
		}
	}
	envOpts := env.Options{Environment: o.environ}

	path := o.file
	if path == "" {
		var boot struct {
			ConfigFile string `env:"CONFIG_FILE"`
		}
		if err := env.ParseWithOptions(&boot, envOpts); err != nil {
			return nil, fmt.Errorf("%w: env: %w", ErrLoad, err)
		}
		path = boot.ConfigFile
	}

	cfg := Default()
	if path != "" {
		file, err := xconf.New(path)
		if err != nil {
			return nil, fmt.Errorf("%w: %w", ErrLoad, err)
		}
		if err := cfg.merge(file); err != nil {
			return nil, err
		}
	}
	if err := env.ParseWithOptions(&cfg, envOpts); err != nil {
		return nil, fmt.Errorf("%w: env: %w", ErrLoad, err)
	}
	cfg.ConfigFile = path

	cfg.normalize()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// merge 将文件中出现的键覆盖到 c。
// 列表整体替换，不与默认值逐项合并。
func (c *Config) merge(file xconf.Config) error {
	if file.Exists("servers") {
		c.Servers = nil
	}
	if file.Exists("topics") {
		c.Topics = nil
	}
	if err := file.Unmarshal("", c); err != nil {
		return fmt.Errorf("%w: %w", ErrLoad, err)
	}
	return nil
}

func (c *Config) normalize() {
	c.Servers = trimAll(c.Servers)
	c.Topics = trimAll(c.Topics)
	c.DataPath = strings.TrimSpace(c.DataPath)
	c.Log.Format = strings.ToLower(strings.TrimSpace(c.Log.Format))
}

func trimAll(in []string) []string {
	out := make([]string, 0, len(in))
	for _, s := range in {
		out = append(out, strings.TrimSpace(s))
	}
	return out
}

// Validate 检查配置，返回所有问题的 errors.Join。
func (c *Config) Validate() error {
	var errs []error
	add := func(format string, args ...any) {
		errs = append(errs, fmt.Errorf("%w: "+format, append([]any{ErrInvalid}, args...)...))
	}

	if len(c.Servers) == 0 {
		add("no servers")
	}
	for i, s := range c.Servers {
		if s == "" {
			add("servers[%d] is empty", i)
		}
	}

	if len(c.Topics) == 0 {
		add("no topics")
	}
	seen := make(map[string]struct{}, len(c.Topics))
	for i, t := range c.Topics {
		if t == "" {
			add("topics[%d] is empty", i)
			continue
		}
		if _, dup := seen[t]; dup {
			add("duplicate topic %q", t)
		}
		seen[t] = struct{}{}
	}

	if c.DataPath == "" {
		add("data path is empty")
	}
	if c.HeartbeatInterval <= 0 {
		add("heartbeat interval must be positive, got %s", c.HeartbeatInterval)
	}
	if c.HeartbeatTimeout < 0 {
		add("heartbeat timeout must not be negative, got %s", c.HeartbeatTimeout)
	}

	b := c.Backoff
	if b.Initial <= 0 {
		add("backoff initial must be positive, got %s", b.Initial)
	}
	if b.Max < b.Initial {
		add("backoff max %s is below initial %s", b.Max, b.Initial)
	}
	if b.Multiplier < 1 {
		add("backoff multiplier must be >= 1, got %g", b.Multiplier)
	}
	if b.Jitter < 0 || b.Jitter > 1 {
		add("backoff jitter must be within [0, 1], got %g", b.Jitter)
	}

	if c.ConnectTimeout <= 0 {
		add("connect timeout must be positive, got %s", c.ConnectTimeout)
	}
	if c.TCPKeepAlive <= 0 {
		add("tcp keepalive must be positive, got %s", c.TCPKeepAlive)
	}

	if _, err := xlog.ParseLevel(c.Log.Level); err != nil {
		add("log level: %w", err)
	}
	if c.Log.Format != "text" && c.Log.Format != "json" {
		add("log format must be text or json, got %q", c.Log.Format)
	}

	return errors.Join(errs...)
}

// BackoffPolicy 按配置构建订阅退避策略。
func (c *Config) BackoffPolicy() xretry.BackoffPolicy {
	return xretry.NewExponentialBackoff(
		xretry.WithInitialDelay(c.Backoff.Initial),
		xretry.WithMaxDelay(c.Backoff.Max),
		xretry.WithMultiplier(c.Backoff.Multiplier),
		xretry.WithJitter(c.Backoff.Jitter),
	)
}
