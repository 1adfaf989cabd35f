package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net"
	"os"
	"os/signal"
	"syscall"
	"text/tabwriter"
	"time"

	"github.com/google/uuid"
	"github.com/urfave/cli/v3"

	"github.com/omeyang/xbridge/internal/bridge"
	"github.com/omeyang/xbridge/internal/config"
	"github.com/omeyang/xbridge/pkg/mq/xcoord"
	"github.com/omeyang/xbridge/pkg/mq/xqueue"
	"github.com/omeyang/xbridge/pkg/observability/xlog"
	"github.com/omeyang/xbridge/pkg/observability/xmetrics"
	"github.com/omeyang/xbridge/pkg/resilience/xretry"
)

const (
	defaultPushTimeout = 5 * time.Second
	defaultPushRetries = 3
	defaultDrainBatch  = 100
	defaultFakeListen  = "127.0.0.1:50051"
)

func createCommands() []*cli.Command {
	return []*cli.Command{
		createRunCommand(),
		createPushCommand(),
		createLagCommand(),
		createDrainCommand(),
		createServeFakeCommand(),
	}
}

func createRunCommand() *cli.Command {
	return &cli.Command{
		Name:  "run",
		Usage: "运行桥接，直到收到 SIGINT/SIGTERM",
		Action: func(ctx context.Context, cmd *cli.Command) error {
			return cmdRun(ctx, cmd.String("config"), cmd.Root().ErrWriter)
		},
	}
}

func createPushCommand() *cli.Command {
	return &cli.Command{
		Name:      "push",
		Usage:     "向协调器注入消息，多条时使用 PushBatch",
		ArgsUsage: "<message> [message...]",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "server", Aliases: []string{"s"}, Usage: "协调器地址", Value: defaultFakeListen},
			&cli.StringFlag{Name: "topic", Aliases: []string{"t"}, Usage: "目标 topic", Required: true},
			&cli.IntFlag{Name: "retries", Usage: "失败后的重试次数", Value: defaultPushRetries},
			&cli.DurationFlag{Name: "timeout", Usage: "单次调用超时", Value: defaultPushTimeout},
		},
		Action: withSignals(func(ctx context.Context, cmd *cli.Command) error {
			return cmdPush(ctx, pushArgs{
				server:  cmd.String("server"),
				topic:   cmd.String("topic"),
				retries: cmd.Int("retries"),
				timeout: cmd.Duration("timeout"),
				msgs:    cmd.Args().Slice(),
			}, cmd.Root().Writer, cmd.Root().ErrWriter)
		}),
	}
}

func createLagCommand() *cli.Command {
	return &cli.Command{
		Name:  "lag",
		Usage: "打印本地队列各 topic 的积压量",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "data-path", Usage: "队列目录，默认取 DATA_PATH"},
		},
		Action: func(ctx context.Context, cmd *cli.Command) error {
			dir, err := dataPath(cmd)
			if err != nil {
				return err
			}
			return cmdLag(dir, cmd.Root().Writer)
		},
	}
}

func createDrainCommand() *cli.Command {
	return &cli.Command{
		Name:  "drain",
		Usage: "按顺序弹出并打印本地队列中的消息",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "topic", Aliases: []string{"t"}, Usage: "本地 topic", Required: true},
			&cli.IntFlag{Name: "batch", Aliases: []string{"b"}, Usage: "每次弹出的条数", Value: defaultDrainBatch},
			&cli.IntFlag{Name: "max", Usage: "最多弹出的条数，0 表示直到队列为空"},
			&cli.StringFlag{Name: "data-path", Usage: "队列目录，默认取 DATA_PATH"},
		},
		Action: withSignals(func(ctx context.Context, cmd *cli.Command) error {
			dir, err := dataPath(cmd)
			if err != nil {
				return err
			}
			return cmdDrain(ctx, dir, cmd.String("topic"), cmd.Int("batch"), cmd.Int("max"), cmd.Root().Writer)
		}),
	}
}

func createServeFakeCommand() *cli.Command {
	return &cli.Command{
		Name:  "serve-fake",
		Usage: "启动内存协调器，用于本地联调",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "listen", Aliases: []string{"l"}, Usage: "监听地址", Value: defaultFakeListen},
		},
		Action: withSignals(func(ctx context.Context, cmd *cli.Command) error {
			return cmdServeFake(ctx, cmd.String("listen"), cmd.Root().ErrWriter)
		}),
	}
}

// withSignals 收到 SIGINT/SIGTERM 时取消 ctx。run 命令由 xrun 自行处理信号。
func withSignals(action cli.ActionFunc) cli.ActionFunc {
	return func(ctx context.Context, cmd *cli.Command) error {
		ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
		defer stop()
		return action(ctx, cmd)
	}
}

// cmdRun 按配置装配各组件并运行桥接。
// 关闭顺序：桥接（连接、Registry）、队列引擎、日志。
func cmdRun(ctx context.Context, configFile string, stderr io.Writer) (err error) {
	cfg, err := config.Load(config.WithFile(configFile))
	if err != nil {
		return err
	}

	instanceID := uuid.NewString()
	logger, closeLog, err := buildLogger(cfg.Log, stderr)
	if err != nil {
		return err
	}
	defer func() { err = errors.Join(err, closeLog()) }()

	observer, err := xmetrics.NewOTelObserver()
	if err != nil {
		return err
	}

	env, err := xqueue.Open(cfg.DataPath)
	if err != nil {
		return fmt.Errorf("%w: %w", bridge.ErrOpenQueue, err)
	}
	defer func() { err = errors.Join(err, env.Close()) }()

	opts := []bridge.Option{
		bridge.WithLogger(logger),
		bridge.WithObserver(observer),
		bridge.WithInstanceID(instanceID),
		bridge.WithConnectTimeout(cfg.ConnectTimeout),
		bridge.WithTCPKeepAlive(cfg.TCPKeepAlive),
		bridge.WithBackoff(cfg.BackoffPolicy()),
		bridge.WithHeartbeatInterval(cfg.HeartbeatInterval),
		bridge.WithHeartbeatTimeout(cfg.HeartbeatTimeout),
	}
	if watch := levelWatcher(cfg, logger); watch != nil {
		opts = append(opts, bridge.WithTask("config-watch", watch))
	}

	registry, err := bridge.NewRegistry(bridge.QueueOpener(env), opts...)
	if err != nil {
		return err
	}
	conns := bridge.NewConnManager(opts...)
	b, err := bridge.New(cfg.Servers, cfg.Topics, conns, registry, opts...)
	if err != nil {
		return errors.Join(err, conns.Close(), registry.Close())
	}

	logger.Info(ctx, "bridge starting",
		xlog.Component("main"),
		xlog.Count(int64(len(cfg.Servers)*len(cfg.Topics))),
	)
	if err := b.Run(ctx); err != nil {
		return err
	}
	logger.Info(ctx, "bridge stopped", xlog.Component("main"))
	return nil
}

// levelWatcher 配置文件存在且未通过 LOG_LEVEL 固定级别时，返回热更新任务。
func levelWatcher(cfg *config.Config, logger xlog.LoggerWithLevel) func(context.Context) error {
	if cfg.ConfigFile == "" {
		return nil
	}
	if _, pinned := os.LookupEnv("LOG_LEVEL"); pinned {
		return nil
	}
	watch, err := config.WatchLogLevel(cfg.ConfigFile, logger, logger)
	if err != nil {
		logger.Warn(context.Background(), "log level reload disabled", xlog.Err(err))
		return nil
	}
	return watch
}

func buildLogger(cfg config.Log, stderr io.Writer) (xlog.LoggerWithLevel, func() error, error) {
	b := xlog.New().
		SetOutput(stderr).
		SetLevelString(cfg.Level).
		SetFormat(cfg.Format)
	if cfg.File != "" {
		b = b.SetRotation(cfg.File)
	}
	return b.Build()
}

type pushArgs struct {
	server  string
	topic   string
	retries int
	timeout time.Duration
	msgs    []string
}

// cmdPush 把消息推给协调器，连接失败和调用失败都按退避重试。
func cmdPush(ctx context.Context, args pushArgs, stdout, stderr io.Writer) error {
	if args.topic == "" {
		return usagef("topic is required")
	}
	if len(args.msgs) == 0 {
		return usagef("at least one message is required")
	}
	if args.retries < 0 {
		return usagef("retries must not be negative, got %d", args.retries)
	}

	conns := bridge.NewConnManager(
		bridge.WithInstanceID(uuid.NewString()),
		bridge.WithConnectTimeout(args.timeout),
	)
	defer func() { _ = conns.Close() }()

	retryer := xretry.NewRetryer(
		xretry.WithRetryPolicy(xretry.NewFixedRetry(args.retries+1)),
		xretry.WithBackoffPolicy(xretry.NewExponentialBackoff(
			xretry.WithInitialDelay(200*time.Millisecond),
			xretry.WithMaxDelay(5*time.Second),
		)),
		xretry.WithOnRetry(func(attempt int, err error) {
			fmt.Fprintf(stderr, "push attempt %d failed: %v\n", attempt, err)
		}),
	)

	err := retryer.Do(ctx, func(ctx context.Context) error {
		if _, err := conns.Connect(ctx, args.server); err != nil {
			return err
		}
		client, err := conns.Client(args.server)
		if err != nil {
			return xretry.NewPermanentError(err)
		}
		callCtx, cancel := context.WithTimeout(ctx, args.timeout)
		defer cancel()
		return pushMessages(callCtx, client, args.topic, args.msgs)
	})
	if err != nil {
		return err
	}
	fmt.Fprintf(stdout, "pushed %d message(s) to %s/%s\n", len(args.msgs), args.server, args.topic)
	return nil
}

func pushMessages(ctx context.Context, client xcoord.Client, topic string, msgs []string) error {
	if len(msgs) == 1 {
		_, err := client.Push(ctx, &xcoord.QueueMessage{QueueID: topic, Message: []byte(msgs[0])})
		return err
	}
	batch := make([][]byte, len(msgs))
	for i, m := range msgs {
		batch[i] = []byte(m)
	}
	_, err := client.PushBatch(ctx, &xcoord.PushBatchRequest{QueueID: topic, Messages: batch})
	return err
}

// dataPath 优先取 --data-path，否则取配置中的 DATA_PATH。
func dataPath(cmd *cli.Command) (string, error) {
	if dir := cmd.String("data-path"); dir != "" {
		return dir, nil
	}
	cfg, err := config.Load(config.WithFile(cmd.String("config")))
	if err != nil {
		return "", err
	}
	return cfg.DataPath, nil
}

// cmdLag 打印每个 topic 的积压量。
// 队列文件被运行中的桥接独占时，打开会在超时后失败。
func cmdLag(dir string, stdout io.Writer) (err error) {
	env, err := xqueue.Open(dir)
	if err != nil {
		return err
	}
	defer func() { err = errors.Join(err, env.Close()) }()

	topics, err := env.Topics()
	if err != nil {
		return err
	}

	tw := tabwriter.NewWriter(stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "TOPIC\tLAG")
	for _, topic := range topics {
		c, err := env.Consumer(topic)
		if err != nil {
			return err
		}
		lag, err := c.Lag()
		if err != nil {
			return err
		}
		fmt.Fprintf(tw, "%s\t%d\n", topic, lag)
	}
	return tw.Flush()
}

// cmdDrain 分批弹出消息并逐行打印 "seq<TAB>payload"，直到队列为空、
// 达到 limit 或 ctx 取消。
func cmdDrain(ctx context.Context, dir, topic string, batch, limit int, stdout io.Writer) (err error) {
	if batch <= 0 {
		return usagef("batch must be positive, got %d", batch)
	}
	if limit < 0 {
		return usagef("max must not be negative, got %d", limit)
	}

	env, err := xqueue.Open(dir)
	if err != nil {
		return err
	}
	defer func() { err = errors.Join(err, env.Close()) }()

	c, err := env.Consumer(topic)
	if err != nil {
		return err
	}

	drained := 0
	for ctx.Err() == nil {
		n := batch
		if limit > 0 {
			n = min(n, limit-drained)
		}
		if n == 0 {
			break
		}
		items, err := c.PopFrontN(n)
		if err != nil {
			return err
		}
		if len(items) == 0 {
			break
		}
		for _, it := range items {
			fmt.Fprintf(stdout, "%d\t%s\n", it.Seq, it.Payload)
		}
		drained += len(items)
	}
	return nil
}

// cmdServeFake 在 addr 上运行内存协调器直到 ctx 取消。
func cmdServeFake(ctx context.Context, addr string, stderr io.Writer) error {
	logger, closeLog, err := xlog.New().SetOutput(stderr).SetLevel(xlog.LevelDebug).Build()
	if err != nil {
		return err
	}
	defer func() { _ = closeLog() }()

	var lc net.ListenConfig
	lis, err := lc.Listen(ctx, "tcp", addr)
	if err != nil {
		return fmt.Errorf("listen %s: %w", addr, err)
	}
	logger.Info(ctx, "fake coordinator listening", xlog.Component("serve-fake"), slog.String("addr", lis.Addr().String()))
	return xcoord.NewFakeServer(logger).Serve(ctx, lis)
}
