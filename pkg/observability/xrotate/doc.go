// Package xrotate 提供日志文件轮转功能。
//
// [Rotator] 定义轮转器的核心行为（Write/Close/Rotate），实现并发安全。
// 当前实现 [NewLumberjack] 基于 lumberjack v2 按大小轮转。
package xrotate
