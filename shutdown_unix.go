//go:build !windows

package devwatch

import (
	"os"

	"golang.org/x/sys/unix"
)

// interruptSignals 在 POSIX 系统上监听 SIGINT 与 SIGTERM
func interruptSignals() []os.Signal {
	return []os.Signal{unix.SIGINT, unix.SIGTERM}
}
