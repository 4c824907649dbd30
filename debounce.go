package devwatch

import (
	"sync"
	"time"
)

// Debouncer 保证两次被接受的重启之间至少间隔 window
//
// 窗口内到达的事件直接丢弃，不排队也不延后重试。
// 上一次接受的时间只在 Accept 内部读写，读-判断-写在同一把锁内完成。
type Debouncer struct {
	window time.Duration

	mu       sync.Mutex
	last     time.Time
	accepted bool
}

// NewDebouncer 创建 Debouncer；window <= 0 时总是接受
func NewDebouncer(window time.Duration) *Debouncer {
	if window < 0 {
		window = 0
	}
	return &Debouncer{window: window}
}

// Accept 判断 now 时刻的事件能否触发重启，接受时记录 now
func (d *Debouncer) Accept(now time.Time) bool {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.accepted && now.Sub(d.last) < d.window {
		return false
	}
	d.last = now
	d.accepted = true
	return true
}

// Last 返回最近一次被接受的时间，从未接受过时为零值
func (d *Debouncer) Last() time.Time {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.last
}

// Window 返回最小间隔
func (d *Debouncer) Window() time.Duration {
	return d.window
}
