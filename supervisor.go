package devwatch

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/exec"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	"github.com/google/uuid"
)

// State 表示被托管进程的状态
type State int

const (
	// StateIdle 从未启动过子进程，或启动失败
	StateIdle State = iota
	// StateRunning 子进程正在运行
	StateRunning
	// StateExited 子进程已退出（自行退出或被停止）
	StateExited
)

// String 返回状态名
func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateRunning:
		return "running"
	case StateExited:
		return "exited"
	default:
		return fmt.Sprintf("unknown(%d)", int(s))
	}
}

// Status 是当前（或最近一个）子进程的快照
//
// ExitCode 在进程未退出时为 -1
type Status struct {
	State    State
	RunID    string
	PID      int
	Started  time.Time
	ExitCode int
	Err      error
}

// DefaultStopTimeout 是发送终止请求后等待退出的默认时长，超时后强制 kill
const DefaultStopTimeout = 5 * time.Second

// Supervisor 托管至多一个子进程
//
// Start 总是先完整停止并回收旧进程，再启动新进程，因此任何时刻最多只跟踪一个子进程。
// 子进程的 stdout/stderr 默认继承父进程的控制台。
type Supervisor struct {
	// opMu 串行化 Start/Stop
	opMu sync.Mutex

	// mu 保护 current 与 last
	mu      sync.Mutex
	current *child
	last    *child

	logger      *log.Logger
	stdout      io.Writer
	stderr      io.Writer
	stopTimeout time.Duration
}

// child 是一次启动对应的子进程
type child struct {
	id      string
	program string
	cmd     *exec.Cmd
	started time.Time

	// done 在子进程被回收后关闭
	done chan struct{}

	// 以下字段在 done 关闭前由 wait 写入
	err      error
	exitCode int
	stopping bool
}

// SupervisorOption 配置 Supervisor
type SupervisorOption func(*Supervisor)

// WithSupervisorLogger 设置 logger
func WithSupervisorLogger(l *log.Logger) SupervisorOption {
	return func(s *Supervisor) {
		s.logger = l
	}
}

// WithOutput 设置子进程的 stdout / stderr，nil 表示丢弃
func WithOutput(stdout, stderr io.Writer) SupervisorOption {
	return func(s *Supervisor) {
		s.stdout = stdout
		s.stderr = stderr
	}
}

// WithStopTimeout 设置终止请求后的等待时长，<= 0 表示一直等待
func WithStopTimeout(d time.Duration) SupervisorOption {
	return func(s *Supervisor) {
		s.stopTimeout = d
	}
}

// NewSupervisor 创建 Supervisor
func NewSupervisor(opts ...SupervisorOption) *Supervisor {
	s := &Supervisor{
		logger:      discardLogger(),
		stdout:      os.Stdout,
		stderr:      os.Stderr,
		stopTimeout: DefaultStopTimeout,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Start 停止已有子进程后按 cmd 启动新的子进程
//
// 启动失败时记录日志并返回错误，Supervisor 保持没有子进程的状态。
func (s *Supervisor) Start(cmd CommandConfig) error {
	s.opMu.Lock()
	defer s.opMu.Unlock()

	s.stopLocked()

	if err := cmd.Validate(); err != nil {
		s.logger.Error("failed to start server", "err", err)
		return err
	}

	c := &child{
		id:       uuid.NewString(),
		program:  cmd.Program,
		cmd:      buildCmd(cmd, s.stdout, s.stderr),
		done:     make(chan struct{}),
		exitCode: -1,
	}

	s.logger.Info("starting server", "program", cmd.Program, "args", cmd.Args, "run", c.id)
	if err := c.cmd.Start(); err != nil {
		s.logger.Error("failed to start server", "program", cmd.Program, "err", err)
		return fmt.Errorf("start %s: %w", cmd.Program, err)
	}
	c.started = time.Now()

	s.mu.Lock()
	s.current = c
	s.mu.Unlock()

	go s.wait(c)

	s.logger.Info("server started", "pid", c.cmd.Process.Pid, "run", c.id)
	return nil
}

// Stop 停止并回收当前子进程；没有子进程时什么也不做
func (s *Supervisor) Stop() {
	s.opMu.Lock()
	defer s.opMu.Unlock()
	s.stopLocked()
}

// RunOnce 启动子进程并阻塞到它退出或 ctx 被取消
//
// ctx 被取消时停止子进程并返回 nil；否则返回子进程的退出错误。
func (s *Supervisor) RunOnce(ctx context.Context, cmd CommandConfig) error {
	if err := s.Start(cmd); err != nil {
		return err
	}

	s.mu.Lock()
	c := s.current
	s.mu.Unlock()
	if c == nil {
		return nil
	}

	select {
	case <-c.done:
		return c.err
	case <-ctx.Done():
		s.Stop()
		return nil
	}
}

// Status 返回当前子进程状态；没有子进程时返回最近一个子进程的结果
func (s *Supervisor) Status() Status {
	s.mu.Lock()
	c := s.current
	if c == nil {
		c = s.last
	}
	s.mu.Unlock()

	if c == nil {
		return Status{State: StateIdle, PID: -1, ExitCode: -1}
	}

	st := Status{
		RunID:    c.id,
		PID:      c.cmd.Process.Pid,
		Started:  c.started,
		State:    StateRunning,
		ExitCode: -1,
	}
	select {
	case <-c.done:
		st.State = StateExited
		st.ExitCode = c.exitCode
		st.Err = c.err
	default:
	}
	return st
}

// Running 返回是否有正在运行的子进程
func (s *Supervisor) Running() bool {
	return s.Status().State == StateRunning
}

// stopLocked 在持有 opMu 时调用
func (s *Supervisor) stopLocked() {
	s.mu.Lock()
	c := s.current
	s.mu.Unlock()
	if c == nil {
		return
	}

	select {
	case <-c.done:
		// 已经自行退出
	default:
		s.logger.Info("stopping server", "pid", c.cmd.Process.Pid, "run", c.id)
		s.mu.Lock()
		c.stopping = true
		s.mu.Unlock()

		if err := terminate(c.cmd.Process); err != nil && !errors.Is(err, os.ErrProcessDone) {
			s.logger.Warn("failed to send termination request", "run", c.id, "err", err)
		}
		s.awaitExit(c)
		s.logger.Info("server stopped", "run", c.id)
	}

	s.mu.Lock()
	s.current = nil
	s.last = c
	s.mu.Unlock()
}

// awaitExit 等待子进程退出，超过 stopTimeout 后强制 kill
func (s *Supervisor) awaitExit(c *child) {
	if s.stopTimeout <= 0 {
		<-c.done
		return
	}

	timer := time.NewTimer(s.stopTimeout)
	defer timer.Stop()

	select {
	case <-c.done:
	case <-timer.C:
		s.logger.Warn("server did not exit in time, killing", "timeout", s.stopTimeout, "run", c.id)
		if err := kill(c.cmd.Process); err != nil && !errors.Is(err, os.ErrProcessDone) {
			s.logger.Error("failed to kill server", "run", c.id, "err", err)
		}
		<-c.done
	}
}

// wait 回收子进程并记录退出状态
func (s *Supervisor) wait(c *child) {
	err := c.cmd.Wait()

	code := -1
	if c.cmd.ProcessState != nil {
		code = c.cmd.ProcessState.ExitCode()
	}

	s.mu.Lock()
	c.err = err
	c.exitCode = code
	stopping := c.stopping
	s.mu.Unlock()
	close(c.done)

	if stopping {
		return
	}
	if err != nil {
		s.logger.Error("server exited", "program", c.program, "code", code, "err", err, "run", c.id)
		return
	}
	s.logger.Info("server exited", "program", c.program, "code", code, "run", c.id)
}

// buildCmd 组装 exec.Cmd：参数、工作目录、叠加后的环境变量
func buildCmd(cfg CommandConfig, stdout, stderr io.Writer) *exec.Cmd {
	cmd := exec.Command(cfg.Program, cfg.Args...)
	if cfg.Dir != "" {
		cmd.Dir = cfg.Dir
	}
	cmd.Env = mergeEnv(os.Environ(), cfg.Env)
	cmd.Stdout = stdout
	cmd.Stderr = stderr
	setProcAttr(cmd)
	return cmd
}

// mergeEnv 把覆盖项追加在继承的环境变量之后；exec.Cmd 对重复的键只取最后一个
func mergeEnv(base []string, overrides []EnvVar) []string {
	env := make([]string, 0, len(base)+len(overrides))
	env = append(env, base...)
	for _, e := range overrides {
		env = append(env, e.String())
	}
	return env
}
