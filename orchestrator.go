package devwatch

import (
	"context"
	"fmt"
	"time"

	"github.com/charmbracelet/log"
)

// Runner 是 Orchestrator 驱动的子进程管理者，*Supervisor 实现了它
type Runner interface {
	Start(cmd CommandConfig) error
	Stop()
}

const (
	// DefaultPollInterval 是无事件时重新检查停止信号的间隔
	DefaultPollInterval = time.Second

	// DefaultRestartDelay 是检测到变更后、重启前的短暂停顿，让编辑器写完文件
	DefaultRestartDelay = 100 * time.Millisecond
)

// Orchestrator 是监控-过滤-防抖-托管的控制循环
//
// 状态只有 Running 与 Stopped：Run 在启动子进程、注册监控路径后进入 Running，
// ctx 被取消后停止子进程一次并返回，进入 Stopped。
// 重启是同步的：重启期间到达的事件在事件源里排队，重启完成后再逐个判断。
type Orchestrator struct {
	watch WatchConfig
	cmd   CommandConfig

	logger       *log.Logger
	source       EventSource
	runner       Runner
	shutdown     ShutdownSource
	filter       *ChangeFilter
	debouncer    *Debouncer
	now          func() time.Time
	pollInterval time.Duration
	restartDelay time.Duration
}

// Option 配置 Orchestrator
type Option func(*Orchestrator)

// WithLogger 设置 logger，同时用于默认创建的 Supervisor 与 FSWatcher
func WithLogger(l *log.Logger) Option {
	return func(o *Orchestrator) {
		o.logger = l
	}
}

// WithEventSource 替换默认的 FSWatcher
func WithEventSource(src EventSource) Option {
	return func(o *Orchestrator) {
		o.source = src
	}
}

// WithRunner 替换默认的 Supervisor
func WithRunner(r Runner) Option {
	return func(o *Orchestrator) {
		o.runner = r
	}
}

// WithShutdownSource 替换平台默认的中断处理；传 nil 表示不安装
func WithShutdownSource(s ShutdownSource) Option {
	return func(o *Orchestrator) {
		o.shutdown = s
	}
}

// WithPollInterval 设置等待事件的最长时间
func WithPollInterval(d time.Duration) Option {
	return func(o *Orchestrator) {
		if d > 0 {
			o.pollInterval = d
		}
	}
}

// WithClock 设置防抖使用的时钟
func WithClock(now func() time.Time) Option {
	return func(o *Orchestrator) {
		o.now = now
	}
}

// WithRestartDelay 设置重启前的停顿，0 表示不停顿
func WithRestartDelay(d time.Duration) Option {
	return func(o *Orchestrator) {
		if d >= 0 {
			o.restartDelay = d
		}
	}
}

// New 创建 Orchestrator；watch 与 cmd 在整个运行期间不再改变
func New(watch WatchConfig, cmd CommandConfig, opts ...Option) *Orchestrator {
	o := &Orchestrator{
		watch:        watch,
		cmd:          cmd,
		logger:       discardLogger(),
		shutdown:     NewShutdownSource(),
		now:          time.Now,
		pollInterval: DefaultPollInterval,
		restartDelay: DefaultRestartDelay,
	}
	for _, opt := range opts {
		opt(o)
	}

	o.filter = NewChangeFilter(watch, WithMatcherLogger(o.logger))
	o.debouncer = NewDebouncer(watch.Debounce)
	if o.runner == nil {
		o.runner = NewSupervisor(WithSupervisorLogger(o.logger))
	}
	return o
}

// Run 是 New(...).Run(ctx) 的简写
func Run(ctx context.Context, watch WatchConfig, cmd CommandConfig, opts ...Option) error {
	return New(watch, cmd, opts...).Run(ctx)
}

// Run 运行控制循环，直到 ctx 被取消或收到中断
//
// 只有中断处理注册失败、事件源无法创建会返回错误，且都发生在启动子进程之前；
// 正常停止返回 nil。
func (o *Orchestrator) Run(ctx context.Context) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	if o.shutdown != nil {
		if err := o.shutdown.Install(cancel); err != nil {
			return fmt.Errorf("install shutdown handler: %w", err)
		}
		defer o.shutdown.Close()
	}

	if o.source == nil {
		w, err := NewFSWatcher(
			WithIgnore(o.filter.ignore),
			WithWatcherLogger(o.logger),
		)
		if err != nil {
			return err
		}
		o.source = w
	}
	defer o.source.Close()

	o.logger.Info("starting devwatch daemon")
	if err := o.runner.Start(o.cmd); err != nil {
		o.logger.Error("initial start failed, waiting for changes", "err", err)
	}

	for _, p := range o.watch.Paths {
		if err := o.source.Add(p); err != nil {
			o.logger.Error("failed to watch path", "path", p, "err", err)
			continue
		}
		o.logger.Info("watching path for changes", "path", p)
	}

	o.loop(ctx)

	o.runner.Stop()
	o.logger.Info("devwatch daemon stopped")
	return nil
}

// loop 在 ctx 被取消前处理事件
func (o *Orchestrator) loop(ctx context.Context) {
	events := o.source.Events()
	errs := o.source.Errors()

	ticker := time.NewTicker(o.pollInterval)
	defer ticker.Stop()

	for ctx.Err() == nil {
		select {
		case <-ctx.Done():
			return

		case ev, ok := <-events:
			if !ok {
				o.logger.Warn("event source closed")
				events = nil
				continue
			}
			o.handle(ctx, ev)

		case err, ok := <-errs:
			if !ok {
				errs = nil
				continue
			}
			o.logger.Error("watch error", "err", err)

		case <-ticker.C:
			// 超时：回到循环顶部重新检查 ctx
		}
	}
}

// handle 对单个事件执行过滤、防抖与重启
func (o *Orchestrator) handle(ctx context.Context, ev Event) {
	if !o.filter.Qualifies(ev) {
		o.logger.Debug("ignoring event", "kind", ev.Kind, "paths", ev.Paths)
		return
	}
	if !o.debouncer.Accept(o.now()) {
		o.logger.Debug("debounced event", "kind", ev.Kind, "paths", ev.Paths)
		return
	}

	o.logger.Info("change detected", "kind", ev.Kind, "path", ev.Paths[0])
	if o.restartDelay > 0 {
		timer := time.NewTimer(o.restartDelay)
		select {
		case <-timer.C:
		case <-ctx.Done():
			timer.Stop()
			return
		}
	}

	if ctx.Err() != nil {
		return
	}

	o.logger.Info("restarting server")
	if err := o.runner.Start(o.cmd); err != nil {
		o.logger.Error("restart failed", "err", err)
	}
}
