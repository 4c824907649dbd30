//go:build windows

package devwatch

import "os"

// interruptSignals 在 Windows 上监听控制台中断（CTRL_C / CTRL_BREAK 都以 os.Interrupt 送达）
func interruptSignals() []os.Signal {
	return []os.Signal{os.Interrupt}
}
