//go:build !windows

package devwatch

import (
	"os"
	"os/exec"
	"syscall"

	"golang.org/x/sys/unix"
)

// setProcAttr 让子进程成为新进程组的组长，停止时整组一起结束
func setProcAttr(cmd *exec.Cmd) {
	cmd.SysProcAttr = &syscall.SysProcAttr{Setpgid: true}
}

// terminate 向子进程所在进程组发送 SIGTERM
func terminate(p *os.Process) error {
	return signalGroup(p, unix.SIGTERM)
}

// kill 向子进程所在进程组发送 SIGKILL
func kill(p *os.Process) error {
	return signalGroup(p, unix.SIGKILL)
}

func signalGroup(p *os.Process, sig unix.Signal) error {
	if err := unix.Kill(-p.Pid, sig); err == nil {
		return nil
	}
	// 进程组不存在时退回到只对子进程本身发送
	return p.Signal(sig)
}
