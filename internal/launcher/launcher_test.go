package launcher

import (
	"context"
	"errors"
	"strings"
	"syscall"
	"testing"
	"time"
)

func TestBuildCommand(t *testing.T) {
	got := BuildCommand("uvicorn src.api.dataAPI:app --host {host} --port {port}", "0.0.0.0", 8010)
	want := "uvicorn src.api.dataAPI:app --host 0.0.0.0 --port 8010"
	if got != want {
		t.Errorf("BuildCommand = %q, want %q", got, want)
	}

	// Repeated placeholders all expand.
	got = BuildCommand("echo {port} {port} {host}", "h", 1)
	if got != "echo 1 1 h" {
		t.Errorf("BuildCommand = %q", got)
	}
}

func newTestLauncher(command string) *Launcher {
	return New(Options{
		Command:   command,
		Host:      "127.0.0.1",
		Port:      0,
		StopGrace: 2 * time.Second,
	})
}

func processAlive(pid int) bool {
	return syscall.Kill(pid, 0) == nil
}

func TestStartStop(t *testing.T) {
	l := newTestLauncher("sleep 30")

	if err := l.Start(context.Background()); err != nil {
		t.Fatalf("Start: %v", err)
	}
	pid := l.Pid()
	if pid == 0 {
		t.Fatal("no pid after start")
	}
	if !processAlive(pid) {
		t.Fatal("child not alive after start")
	}

	// A second start while running must fail.
	if err := l.Start(context.Background()); err == nil {
		t.Error("second Start succeeded")
	}

	if err := l.Stop(); err != nil {
		t.Fatalf("Stop: %v", err)
	}
	if processAlive(pid) {
		t.Error("child alive after stop")
	}
	if l.Pid() != 0 {
		t.Error("pid reported after stop")
	}

	// Stopping again is a no-op.
	if err := l.Stop(); err != nil {
		t.Errorf("second Stop: %v", err)
	}
}

func TestDoneObservesChildExit(t *testing.T) {
	l := newTestLauncher("true")

	if err := l.Start(context.Background()); err != nil {
		t.Fatalf("Start: %v", err)
	}

	select {
	case err := <-l.Done():
		if err != nil {
			t.Errorf("child exit error: %v", err)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("child exit not observed")
	}

	// Stop after the child already exited must not hang.
	if err := l.Stop(); err != nil {
		t.Errorf("Stop after exit: %v", err)
	}
}

func TestRestartReplacesProcess(t *testing.T) {
	l := newTestLauncher("sleep 30")

	if err := l.Start(context.Background()); err != nil {
		t.Fatalf("Start: %v", err)
	}
	first := l.Pid()

	if err := l.Restart(context.Background()); err != nil {
		t.Fatalf("Restart: %v", err)
	}
	defer l.Stop()

	second := l.Pid()
	if second == 0 || second == first {
		t.Errorf("restart pids: first=%d second=%d", first, second)
	}
	if processAlive(first) {
		t.Error("old child alive after restart")
	}
	if !processAlive(second) {
		t.Error("new child not alive after restart")
	}
}

func TestWaitReady(t *testing.T) {
	var calls int
	probe := func(context.Context) error {
		calls++
		if calls < 3 {
			return errors.New("connection refused")
		}
		return nil
	}

	if err := WaitReady(context.Background(), probe, time.Second, 5*time.Millisecond); err != nil {
		t.Fatalf("WaitReady: %v", err)
	}
	if calls != 3 {
		t.Errorf("probe called %d times, want 3", calls)
	}
}

func TestWaitReadyTimeout(t *testing.T) {
	probe := func(context.Context) error { return errors.New("connection refused") }

	err := WaitReady(context.Background(), probe, 50*time.Millisecond, 10*time.Millisecond)
	if err == nil {
		t.Fatal("expected timeout error")
	}
	if !strings.Contains(err.Error(), "not ready") {
		t.Errorf("error = %v", err)
	}
}
