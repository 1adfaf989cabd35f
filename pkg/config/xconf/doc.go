// Package xconf 基于 koanf 加载 YAML/JSON 配置文件。
//
// 文件格式由扩展名决定（.yaml/.yml/.json），也可通过 NewFromBytes
// 从内存数据创建。Reload 原子替换内部 koanf 实例，并发读取安全。
//
// Watcher 基于 fsnotify 监视配置文件所在目录，防抖后调用 Reload，
// 并将结果交给回调。Run 阻塞到 ctx 取消，可直接作为 xrun 任务运行。
package xconf
