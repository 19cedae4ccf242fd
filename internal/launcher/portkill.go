package launcher

import (
	"context"
	"errors"
	"fmt"
	"os/exec"
	"strconv"
	"strings"
	"syscall"
	"time"

	"go.uber.org/zap"
)

// escalation is the fixed signal sequence used against processes that
// occupy the target port.
var escalation = []syscall.Signal{syscall.SIGINT, syscall.SIGTERM, syscall.SIGKILL}

// PortScanner lists the PIDs listening on a TCP port.
type PortScanner func(ctx context.Context, port int) ([]int, error)

// SignalFunc delivers a signal to one process.
type SignalFunc func(pid int, sig syscall.Signal) error

// PortKiller clears a TCP port by signalling its listeners with
// increasing severity, waiting a fixed delay between stages.
type PortKiller struct {
	scan   PortScanner
	signal SignalFunc
	wait   time.Duration
	log    *zap.Logger
}

// NewPortKiller builds a PortKiller backed by lsof (fuser as
// fallback) and real signals.
func NewPortKiller(wait time.Duration, log *zap.Logger) *PortKiller {
	if log == nil {
		log = zap.NewNop()
	}
	return &PortKiller{
		scan:   scanPort,
		signal: func(pid int, sig syscall.Signal) error { return syscall.Kill(pid, sig) },
		wait:   wait,
		log:    log,
	}
}

// KillListeners escalates SIGINT, SIGTERM then SIGKILL against
// whatever listens on port, rescanning after each stage. PIDs still
// alive after the last stage are returned alongside the error.
func (k *PortKiller) KillListeners(ctx context.Context, port int) ([]int, error) {
	pids, err := k.scan(ctx, port)
	if err != nil {
		return nil, err
	}
	if len(pids) == 0 {
		return nil, nil
	}

	for _, sig := range escalation {
		k.log.Info("signalling port listeners",
			zap.Int("port", port),
			zap.String("signal", sig.String()),
			zap.Ints("pids", pids))

		for _, pid := range pids {
			if err := k.signal(pid, sig); err != nil && !errors.Is(err, syscall.ESRCH) {
				k.log.Warn("signal failed",
					zap.Int("pid", pid),
					zap.String("signal", sig.String()),
					zap.Error(err))
			}
		}

		select {
		case <-ctx.Done():
			return pids, ctx.Err()
		case <-time.After(k.wait):
		}

		pids, err = k.scan(ctx, port)
		if err != nil {
			return nil, err
		}
		if len(pids) == 0 {
			return nil, nil
		}
	}

	return pids, fmt.Errorf("port %d still has %d listener(s) after SIGKILL", port, len(pids))
}

// scanPort shells out to lsof, falling back to fuser when lsof is not
// installed. A non-zero exit with empty output means no listeners.
func scanPort(ctx context.Context, port int) ([]int, error) {
	out, err := exec.CommandContext(ctx, "lsof", "-t", fmt.Sprintf("-iTCP:%d", port), "-sTCP:LISTEN").Output()
	if err == nil || isExitError(err) {
		return parsePIDs(string(out)), nil
	}
	if errors.Is(err, exec.ErrNotFound) {
		out, err = exec.CommandContext(ctx, "fuser", fmt.Sprintf("%d/tcp", port)).Output()
		if err == nil || isExitError(err) {
			return parsePIDs(string(out)), nil
		}
	}
	return nil, fmt.Errorf("scan port %d: %w", port, err)
}

func isExitError(err error) bool {
	var exitErr *exec.ExitError
	return errors.As(err, &exitErr)
}

// parsePIDs extracts PIDs from lsof -t or fuser output.
func parsePIDs(out string) []int {
	var pids []int
	for _, field := range strings.Fields(out) {
		pid, err := strconv.Atoi(field)
		if err != nil || pid <= 0 {
			continue
		}
		pids = append(pids, pid)
	}
	return pids
}
