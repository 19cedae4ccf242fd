// Package launcher starts and supervises the climate API server
// process: command construction, port clearing, readiness polling and
// watched-file restarts.
package launcher

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"strconv"
	"strings"
	"sync"
	"syscall"
	"time"

	"go.uber.org/zap"
)

// Options configures a Launcher.
type Options struct {
	// Command is the server command line, with {host} and {port}
	// placeholders.
	Command string
	Host    string
	Port    int

	// StopGrace is how long a stopped child gets to exit after
	// SIGTERM before its process group is SIGKILLed.
	StopGrace time.Duration

	Logger *zap.Logger
}

// Launcher runs the server command in its own process group so that a
// stop reaches the whole tree (sh and whatever it spawned).
type Launcher struct {
	opts Options
	log  *zap.Logger

	mu   sync.Mutex
	cmd  *exec.Cmd
	done chan error
}

// New builds a Launcher.
func New(opts Options) *Launcher {
	log := opts.Logger
	if log == nil {
		log = zap.NewNop()
	}
	return &Launcher{opts: opts, log: log}
}

// BuildCommand expands the {host} and {port} placeholders of a server
// command template.
func BuildCommand(template, host string, port int) string {
	out := strings.ReplaceAll(template, "{host}", host)
	return strings.ReplaceAll(out, "{port}", strconv.Itoa(port))
}

// Start launches the server command via sh -c. The child inherits our
// stdout/stderr so server logs stay visible.
func (l *Launcher) Start(ctx context.Context) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.cmd != nil {
		return errors.New("server already running")
	}

	cmdline := BuildCommand(l.opts.Command, l.opts.Host, l.opts.Port)
	cmd := exec.CommandContext(ctx, "sh", "-c", cmdline)
	cmd.Stdout = os.Stdout
	cmd.Stderr = os.Stderr
	cmd.SysProcAttr = &syscall.SysProcAttr{Setpgid: true}

	if err := cmd.Start(); err != nil {
		return fmt.Errorf("start server: %w", err)
	}

	done := make(chan error, 1)
	go func() {
		done <- cmd.Wait()
		// Closing lets both Stop and Done observers proceed.
		close(done)
	}()

	l.cmd = cmd
	l.done = done
	l.log.Info("server started",
		zap.Int("pid", cmd.Process.Pid),
		zap.String("command", cmdline))
	return nil
}

// Pid returns the child PID, or 0 when not running.
func (l *Launcher) Pid() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.cmd == nil || l.cmd.Process == nil {
		return 0
	}
	return l.cmd.Process.Pid
}

// Done exposes the current child's exit channel. It yields once, when
// the child exits on its own; a nil channel is returned when nothing
// runs.
func (l *Launcher) Done() <-chan error {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.done
}

// Stop terminates the child: SIGTERM to the process group, a grace
// period, then SIGKILL. Stopping an already-stopped launcher is a
// no-op.
func (l *Launcher) Stop() error {
	l.mu.Lock()
	cmd, done := l.cmd, l.done
	l.cmd, l.done = nil, nil
	l.mu.Unlock()

	if cmd == nil || cmd.Process == nil {
		return nil
	}
	pid := cmd.Process.Pid

	// Negative PID addresses the whole process group.
	_ = syscall.Kill(-pid, syscall.SIGTERM)

	select {
	case <-done:
	case <-time.After(l.opts.StopGrace):
		_ = syscall.Kill(-pid, syscall.SIGKILL)
		<-done
	}

	l.log.Info("server stopped", zap.Int("pid", pid))
	return nil
}

// Restart stops the child and starts a fresh one.
func (l *Launcher) Restart(ctx context.Context) error {
	if err := l.Stop(); err != nil {
		return err
	}
	return l.Start(ctx)
}

// WaitReady polls probe until it succeeds or timeout elapses.
func WaitReady(ctx context.Context, probe func(context.Context) error, timeout, interval time.Duration) error {
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	var lastErr error
	for {
		err := probe(ctx)
		if err == nil {
			return nil
		}
		lastErr = err

		select {
		case <-ctx.Done():
			if lastErr != nil {
				return fmt.Errorf("server not ready after %s: %w", timeout, lastErr)
			}
			return ctx.Err()
		case <-ticker.C:
		}
	}
}
