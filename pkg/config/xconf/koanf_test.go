package xconf

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type bridgeFile struct {
	Servers []string `koanf:"servers"`
	Log     struct {
		Level string `koanf:"level"`
	} `koanf:"log"`
	Heartbeat time.Duration `koanf:"heartbeat"`
}

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func TestNew_YAML(t *testing.T) {
	path := writeFile(t, "bridge.yaml", `
servers: [a:1, b:2]
log:
  level: debug
heartbeat: 2s
`)
	cfg, err := New(path)
	require.NoError(t, err)
	assert.Equal(t, FormatYAML, cfg.Format())
	assert.Equal(t, path, cfg.Path())
	assert.True(t, cfg.Exists("log.level"))
	assert.False(t, cfg.Exists("log.format"))

	var got bridgeFile
	require.NoError(t, cfg.Unmarshal("", &got))
	assert.Equal(t, []string{"a:1", "b:2"}, got.Servers)
	assert.Equal(t, "debug", got.Log.Level)
	assert.Equal(t, 2*time.Second, got.Heartbeat)
}

func TestNew_Errors(t *testing.T) {
	_, err := New("")
	assert.ErrorIs(t, err, ErrEmptyPath)

	_, err = New(writeFile(t, "bridge.toml", "a = 1"))
	assert.ErrorIs(t, err, ErrUnsupportedFormat)

	_, err = New(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.ErrorIs(t, err, ErrLoadFailed)

	_, err = New(writeFile(t, "bad.json", "{not json"))
	assert.ErrorIs(t, err, ErrParseFailed)
}

func TestNewFromBytes(t *testing.T) {
	cfg, err := NewFromBytes([]byte(`{"log":{"level":"warn"}}`), FormatJSON)
	require.NoError(t, err)

	var got bridgeFile
	require.NoError(t, cfg.Unmarshal("", &got))
	assert.Equal(t, "warn", got.Log.Level)
	assert.Empty(t, cfg.Path())
	assert.ErrorIs(t, cfg.Reload(), ErrNotReloadable)

	empty, err := NewFromBytes(nil, FormatYAML)
	require.NoError(t, err)
	assert.False(t, empty.Exists("log"))

	_, err = NewFromBytes([]byte("x"), Format("toml"))
	assert.ErrorIs(t, err, ErrUnsupportedFormat)
}

func TestReload_KeepsOldOnParseError(t *testing.T) {
	path := writeFile(t, "bridge.yml", "log:\n  level: info\n")
	cfg, err := New(path)
	require.NoError(t, err)

	require.NoError(t, os.WriteFile(path, []byte("log: [unclosed"), 0o600))
	assert.ErrorIs(t, cfg.Reload(), ErrParseFailed)

	var got bridgeFile
	require.NoError(t, cfg.Unmarshal("", &got))
	assert.Equal(t, "info", got.Log.Level)

	require.NoError(t, os.WriteFile(path, []byte("log:\n  level: error\n"), 0o600))
	require.NoError(t, cfg.Reload())
	require.NoError(t, cfg.Unmarshal("log", &got.Log))
	assert.Equal(t, "error", got.Log.Level)
}

func TestWithDelimAndTag(t *testing.T) {
	type tagged struct {
		Level string `json:"level"`
	}
	cfg, err := NewFromBytes([]byte("log:\n  level: debug\n"), FormatYAML, WithDelim("/"), WithTag("json"))
	require.NoError(t, err)
	assert.True(t, cfg.Exists("log/level"))

	var got tagged
	require.NoError(t, cfg.Unmarshal("log", &got))
	assert.Equal(t, "debug", got.Level)
}
