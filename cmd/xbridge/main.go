// xbridge 把远端协调器上的消息流桥接到本地持久队列，并周期上报积压量。
//
// 用法:
//
//	xbridge [全局选项] [命令] [命令参数]
//
// 全局选项:
//
//	-c, --config   YAML/JSON 配置文件，优先于环境变量 CONFIG_FILE
//
// 命令:
//
//	run            运行桥接（默认命令）
//	push           通过 Push/PushBatch 向协调器注入消息
//	lag            打印本地队列各 topic 的积压量
//	drain          弹出并打印本地队列中的消息
//	serve-fake     启动内存协调器，用于本地联调
//
// 其余配置来自环境变量，见 internal/config。
//
// 退出码:
//
//	0: 成功，或收到 SIGINT/SIGTERM 后正常退出
//	1: 运行错误或启动失败
//	2: 参数错误
//
// 示例:
//
//	SERVERS=10.0.0.1:50051,10.0.0.2:50051 TOPICS=orders xbridge
//	xbridge serve-fake --listen 127.0.0.1:50051
//	xbridge push --server 127.0.0.1:50051 --topic orders hello world
//	xbridge drain --topic orders --batch 10
package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/urfave/cli/v3"
)

// 版本信息，可通过 -ldflags "-X main.Version=..." 注入。
var (
	Version   = "0.1.0-dev"
	GitCommit = "unknown"
	BuildTime = "unknown"
)

func main() {
	os.Exit(run(context.Background(), os.Args, os.Stdout, os.Stderr))
}

func createApp(stdout, stderr io.Writer) *cli.Command {
	return &cli.Command{
		Name:      "xbridge",
		Usage:     "远端协调器到本地持久队列的桥接进程",
		Version:   fmt.Sprintf("%s (commit: %s, built: %s)", Version, GitCommit, BuildTime),
		Writer:    stdout,
		ErrWriter: stderr,
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "config",
				Aliases: []string{"c"},
				Usage:   "配置文件路径（.yaml/.yml/.json）",
			},
		},
		Commands:       createCommands(),
		DefaultCommand: "run",
		// 退出码由 run 统一映射，不让 urfave/cli 直接 os.Exit。
		ExitErrHandler: func(_ context.Context, _ *cli.Command, err error) {
			if _, ok := err.(cli.ExitCoder); ok {
				fmt.Fprintln(stderr, err)
			}
		},
	}
}

func run(ctx context.Context, args []string, stdout, stderr io.Writer) int {
	app := createApp(stdout, stderr)
	if err := app.Run(ctx, args); err != nil {
		return exitCode(stderr, err)
	}
	return 0
}

// exitCode 输出错误并映射退出码。
func exitCode(stderr io.Writer, err error) int {
	var exitErr *exitError
	if errors.As(err, &exitErr) {
		return exitErr.code
	}
	var usageErr *usageError
	if errors.As(err, &usageErr) {
		fmt.Fprintf(stderr, "参数错误: %v\n", usageErr)
		return 2
	}
	if isCLIUsageError(err) {
		fmt.Fprintf(stderr, "参数错误: %v\n", err)
		return 2
	}
	fmt.Fprintf(stderr, "错误: %v\n", err)
	return 1
}

// exitError 命令已完成输出，只需设置退出码。
type exitError struct {
	code int
}

func (e *exitError) Error() string { return "" }

// usageError 参数错误，退出码 2。
type usageError struct {
	msg string
}

func (e *usageError) Error() string { return e.msg }

func usagef(format string, args ...any) error {
	return &usageError{msg: fmt.Sprintf(format, args...)}
}

// cliUsageMarkers urfave/cli 参数解析错误的消息特征。
var cliUsageMarkers = []string{
	"flag provided but not defined",
	"invalid value",
	"required flag",
	"no help topic for",
	"flag needs an argument",
}

func isCLIUsageError(err error) bool {
	msg := strings.ToLower(err.Error())
	for _, m := range cliUsageMarkers {
		if strings.Contains(msg, m) {
			return true
		}
	}
	return false
}
