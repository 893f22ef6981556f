//go:build linux || darwin

package terminal

import (
	"bytes"
	"testing"
	"time"

	"github.com/deskhub-app/deskhub/internal/domain"
)

func TestSessionLifecycle(t *testing.T) {
	t.Setenv("SHELL", "/bin/sh")
	manager := NewManager()
	defer manager.CloseAll()

	id, err := manager.Create()
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if len(manager.List()) != 1 {
		t.Fatalf("expected one live session")
	}

	if err := manager.Write(id, []byte("echo terminal-roundtrip\n")); err != nil {
		t.Fatalf("write: %v", err)
	}

	var output []byte
	deadline := time.Now().Add(5 * time.Second)
	for time.Now().Before(deadline) {
		chunk, err := manager.Read(id)
		if err != nil {
			t.Fatalf("read: %v", err)
		}
		output = append(output, chunk...)
		if bytes.Contains(output, []byte("terminal-roundtrip")) {
			break
		}
		time.Sleep(50 * time.Millisecond)
	}
	if !bytes.Contains(output, []byte("terminal-roundtrip")) {
		t.Fatalf("shell output never arrived: %q", output)
	}

	if err := manager.Resize(id, 120, 40); err != nil {
		t.Fatalf("resize: %v", err)
	}
	if err := manager.Resize(id, 0, 40); err == nil {
		t.Fatalf("expected error for zero size")
	}

	if err := manager.Close(id); err != nil {
		t.Fatalf("close: %v", err)
	}
	if len(manager.List()) != 0 {
		t.Fatalf("session still listed after close")
	}
}

func TestUnknownSessionIsNotFound(t *testing.T) {
	manager := NewManager()

	_, err := manager.Read("nope")
	appErr, ok := domain.AsAppError(err)
	if !ok || appErr.Code != domain.CodeNotFound {
		t.Fatalf("expected not_found, got %v", err)
	}
	if err := manager.Write("nope", []byte("x")); err == nil {
		t.Fatalf("expected error writing to unknown session")
	}
	if err := manager.Close("nope"); err == nil {
		t.Fatalf("expected error closing unknown session")
	}
}
