package devwatch

import (
	"errors"
	"os"
	"os/signal"
	"sync"
	"sync/atomic"
)

// ShutdownSource 把操作者的中断请求转换为一次停止调用
//
// Install 注册处理函数，第一次收到中断时调用 stop，且只调用一次；
// 处理函数本身不停止子进程，只负责通知。
type ShutdownSource interface {
	Install(stop func()) error
	Close() error
}

// ErrShutdownInstalled 表示本进程已经注册过中断处理
var ErrShutdownInstalled = errors.New("shutdown handler already installed")

// installed 保证整个进程只有一个中断处理
var installed atomic.Bool

// NewShutdownSource 返回当前平台的实现（见 shutdown_unix.go / shutdown_windows.go）
func NewShutdownSource() ShutdownSource {
	return &signalSource{signals: interruptSignals()}
}

// signalSource 基于 os/signal 的 ShutdownSource
type signalSource struct {
	signals []os.Signal

	mu   sync.Mutex
	ch   chan os.Signal
	quit chan struct{}
	wg   sync.WaitGroup
}

// Install 开始监听中断信号
func (s *signalSource) Install(stop func()) error {
	if stop == nil {
		return errors.New("shutdown: nil stop func")
	}
	if len(s.signals) == 0 {
		return errors.New("shutdown: no interrupt signals on this platform")
	}
	if !installed.CompareAndSwap(false, true) {
		return ErrShutdownInstalled
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	s.ch = make(chan os.Signal, 1)
	s.quit = make(chan struct{})
	signal.Notify(s.ch, s.signals...)

	s.wg.Add(1)
	go func(ch <-chan os.Signal, quit <-chan struct{}) {
		defer s.wg.Done()
		select {
		case <-ch:
			stop()
		case <-quit:
		}
	}(s.ch, s.quit)

	return nil
}

// Close 取消信号注册；之后可以重新 Install
func (s *signalSource) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.ch == nil {
		return nil
	}
	signal.Stop(s.ch)
	close(s.quit)
	s.wg.Wait()
	s.ch = nil
	s.quit = nil
	installed.Store(false)
	return nil
}
