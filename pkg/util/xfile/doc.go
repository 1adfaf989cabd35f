// Package xfile 提供文件路径校验与目录创建工具。
//
//   - [SanitizePath]: 规范化文件路径，拒绝空路径、空字节、相对穿越和目录路径
//   - [EnsureDir]: 确保文件的父目录存在
//   - [EnsureDirAll]: 确保目录本身存在（数据目录）
//
// 创建目录默认使用 [DefaultDirPerm]（0750）。
package xfile
