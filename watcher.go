package devwatch

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sync"

	"github.com/charmbracelet/log"
	"github.com/fsnotify/fsnotify"
)

// EventSource 向 Orchestrator 提供文件系统事件
//
// Add：递归注册一个根路径
// Events / Errors：事件与后端错误通道，Close 之后关闭
type EventSource interface {
	Add(root string) error
	Events() <-chan Event
	Errors() <-chan error
	Close() error
}

// ErrWatcherClosed 表示 FSWatcher 已经关闭
var ErrWatcherClosed = errors.New("watcher closed")

// FSWatcher 基于 fsnotify 的递归 EventSource
//
// fsWatcher：底层 github.com/fsnotify/fsnotify
// ignore：命中的目录在遍历时整棵跳过
// events：缓冲通道，满了会阻塞，重启期间到达的事件在此排队
// stopChan：通知后台 goroutine 退出
type FSWatcher struct {
	mu        sync.Mutex
	fsWatcher *fsnotify.Watcher
	ignore    *PathMatcher
	logger    *log.Logger
	closed    bool

	events   chan Event
	errors   chan error
	stopChan chan struct{}
	wg       sync.WaitGroup
}

// FSWatcherOption 配置 FSWatcher
type FSWatcherOption func(*FSWatcher)

// WithIgnore 设置遍历时跳过的目录规则
func WithIgnore(m *PathMatcher) FSWatcherOption {
	return func(w *FSWatcher) {
		w.ignore = m
	}
}

// WithWatcherLogger 设置 logger
func WithWatcherLogger(l *log.Logger) FSWatcherOption {
	return func(w *FSWatcher) {
		w.logger = l
	}
}

// WithBufferSize 设置事件通道容量，默认 256
func WithBufferSize(n int) FSWatcherOption {
	return func(w *FSWatcher) {
		if n > 0 {
			w.events = make(chan Event, n)
		}
	}
}

// NewFSWatcher 创建 FSWatcher 并启动事件读取 goroutine
func NewFSWatcher(opts ...FSWatcherOption) (*FSWatcher, error) {
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("failed to create fsnotify watcher: %w", err)
	}

	w := &FSWatcher{
		fsWatcher: fsw,
		logger:    discardLogger(),
		events:    make(chan Event, 256),
		errors:    make(chan error, 16),
		stopChan:  make(chan struct{}),
	}
	for _, opt := range opts {
		opt(w)
	}

	w.wg.Add(1)
	go w.runFsNotify()

	return w, nil
}

// Add 递归监控 root
//
// root 是目录时遍历所有子目录并逐个注册（fsnotify 本身不递归），命中忽略规则的目录整棵跳过；
// root 是文件时直接注册。单个子目录注册失败只记录警告。
func (w *FSWatcher) Add(root string) error {
	w.mu.Lock()
	closed := w.closed
	w.mu.Unlock()
	if closed {
		return ErrWatcherClosed
	}

	info, err := os.Stat(root)
	if err != nil {
		return fmt.Errorf("failed to stat watch path %s: %w", root, err)
	}
	if !info.IsDir() {
		if err := w.fsWatcher.Add(root); err != nil {
			return fmt.Errorf("failed to watch %s: %w", root, err)
		}
		return nil
	}

	err = filepath.WalkDir(root, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			if p == root {
				return err
			}
			w.logger.Warn("cannot walk dir", "path", p, "err", err)
			return nil
		}
		if !d.IsDir() {
			return nil
		}
		if p != root && w.dirIgnored(p) {
			return filepath.SkipDir
		}
		if e := w.fsWatcher.Add(p); e != nil {
			w.logger.Warn("cannot watch dir", "path", p, "err", e)
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("failed to walk watch path %s: %w", root, err)
	}
	return nil
}

// dirIgnored 目录本身或其下内容命中规则时返回 true（"**/node_modules/**" 需要 dir/ 形式才能命中）
func (w *FSWatcher) dirIgnored(dir string) bool {
	return w.ignore.Match(dir) || w.ignore.Match(dir+"/")
}

// Events 返回事件通道
func (w *FSWatcher) Events() <-chan Event {
	return w.events
}

// Errors 返回后端错误通道
func (w *FSWatcher) Errors() <-chan error {
	return w.errors
}

// WatchList 返回当前注册的路径
func (w *FSWatcher) WatchList() []string {
	return w.fsWatcher.WatchList()
}

// Close 停止后台 goroutine，关闭 fsnotify 以及对外通道；重复调用无副作用
func (w *FSWatcher) Close() error {
	w.mu.Lock()
	if w.closed {
		w.mu.Unlock()
		return nil
	}
	w.closed = true
	w.mu.Unlock()

	close(w.stopChan)
	err := w.fsWatcher.Close()
	w.wg.Wait()
	close(w.events)
	close(w.errors)
	return err
}

// runFsNotify 不断读取 fsnotify 的事件并投递到事件通道
func (w *FSWatcher) runFsNotify() {
	defer w.wg.Done()

	for {
		select {
		case ev, ok := <-w.fsWatcher.Events:
			if !ok {
				return
			}
			// 如果是新建目录，需要额外Add
			if ev.Op.Has(fsnotify.Create) {
				if fi, err := os.Stat(ev.Name); err == nil && fi.IsDir() && !w.dirIgnored(ev.Name) {
					if err := w.Add(ev.Name); err != nil {
						w.logger.Warn("cannot watch new dir", "path", ev.Name, "err", err)
					}
				}
			}
			select {
			case w.events <- fromFsnotify(ev):
			case <-w.stopChan:
				return
			}

		case err, ok := <-w.fsWatcher.Errors:
			if !ok {
				return
			}
			select {
			case w.errors <- err:
			case <-w.stopChan:
				return
			default:
				w.logger.Warn("dropping watcher error", "err", err)
			}

		case <-w.stopChan:
			return
		}
	}
}

var _ EventSource = (*FSWatcher)(nil)
