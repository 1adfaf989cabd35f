package xfile

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// DefaultDirPerm 默认目录权限（所有者 rwx，组 r-x，其他无）
const DefaultDirPerm = 0o750

// EnsureDir 确保文件的父目录存在，已存在时不报错
//
// 底层使用 os.MkdirAll，会跟随符号链接。
func EnsureDir(filename string) error {
	if filename == "" {
		return fmt.Errorf("filename is required: %w", ErrEmptyPath)
	}
	if strings.IndexByte(filename, 0) >= 0 {
		return fmt.Errorf("filename contains null byte: %w", ErrNullByte)
	}
	dir := filepath.Dir(filename)
	if dir == "" || dir == "." {
		return nil
	}
	return os.MkdirAll(dir, DefaultDirPerm)
}

// EnsureDirAll 确保目录 dir 本身存在，返回规范化后的路径
//
// dir 已存在但不是目录时返回 ErrNotDir。
func EnsureDirAll(dir string) (string, error) {
	if dir == "" {
		return "", fmt.Errorf("dir is required: %w", ErrEmptyPath)
	}
	if strings.IndexByte(dir, 0) >= 0 {
		return "", fmt.Errorf("dir contains null byte: %w", ErrNullByte)
	}
	cleaned := filepath.Clean(dir)
	if err := os.MkdirAll(cleaned, DefaultDirPerm); err != nil {
		if info, statErr := os.Stat(cleaned); statErr == nil && !info.IsDir() {
			return "", fmt.Errorf("%s: %w", cleaned, ErrNotDir)
		}
		return "", err
	}
	return cleaned, nil
}
