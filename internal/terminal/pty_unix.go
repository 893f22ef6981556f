//go:build linux || darwin

package terminal

import (
	"os"
	"os/exec"

	"github.com/creack/pty"
)

type unixHandle struct {
	ptmx *os.File
	cmd  *exec.Cmd
}

func startShell(shell string) (ptyHandle, error) {
	cmd := exec.Command(shell)
	cmd.Env = append(os.Environ(), "TERM=xterm-256color")

	ptmx, err := pty.StartWithSize(cmd, &pty.Winsize{Cols: 80, Rows: 24})
	if err != nil {
		return nil, err
	}
	return &unixHandle{ptmx: ptmx, cmd: cmd}, nil
}

func (h *unixHandle) Read(p []byte) (int, error)  { return h.ptmx.Read(p) }
func (h *unixHandle) Write(p []byte) (int, error) { return h.ptmx.Write(p) }

func (h *unixHandle) Resize(cols, rows uint16) error {
	return pty.Setsize(h.ptmx, &pty.Winsize{Cols: cols, Rows: rows})
}

func (h *unixHandle) Close() error {
	if h.cmd.Process != nil {
		_ = h.cmd.Process.Kill()
	}
	err := h.ptmx.Close()
	_ = h.cmd.Wait()
	return err
}
