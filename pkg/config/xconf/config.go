package xconf

// Format 配置文件格式。
type Format string

const (
	FormatYAML Format = "yaml"
	FormatJSON Format = "json"
)

// Config 已加载的配置。所有方法并发安全。
type Config interface {
	// Unmarshal 将 path 下的配置解码到 target，path 为空时解码整个配置。
	// 字符串形式的时长（如 "5s"）会解码为 time.Duration。
	Unmarshal(path string, target any) error

	// Exists 报告 key 是否出现在配置中。
	Exists(key string) bool

	// Reload 重新读取配置文件。从字节创建的配置返回 [ErrNotReloadable]。
	Reload() error

	// Path 返回配置文件路径，从字节创建时为空。
	Path() string

	// Format 返回配置格式。
	Format() Format
}
