//go:build !linux && !darwin

package terminal

func startShell(_ string) (ptyHandle, error) {
	return nil, errPTYUnsupported
}
