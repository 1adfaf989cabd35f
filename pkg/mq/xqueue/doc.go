// Package xqueue 提供基于 bbolt 的本地持久化 FIFO 队列。
//
// 每个主题对应 topics/<topic> 下的一个 bucket：
//
//	head  下一条待消费消息的序号（大端 uint64）
//	tail  下一条追加消息的序号（大端 uint64）
//	msgs  序号 → 消息体
//
// 积压量 lag = tail - head。追加和弹出各自在一个 bbolt 写事务内完成，
// 同一数据库文件同一时刻只允许一个进程打开。
package xqueue
