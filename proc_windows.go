//go:build windows

package devwatch

import (
	"os"
	"os/exec"
)

func setProcAttr(cmd *exec.Cmd) {}

// terminate 在 Windows 上没有 SIGTERM，直接结束进程
func terminate(p *os.Process) error {
	return p.Kill()
}

func kill(p *os.Process) error {
	return p.Kill()
}
