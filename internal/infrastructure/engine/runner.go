package engine

import (
	"context"
	"fmt"
	"os/exec"
	"sync"
	"syscall"
	"time"

	"gridcast/internal/core/domain"
	"gridcast/internal/core/ports"
	"gridcast/pkg/tracing"

	"go.uber.org/zap"
)

// Runner launches and supervises the external transcoding process.
type Runner struct {
	binary      string
	stopTimeout time.Duration
	logger      *zap.SugaredLogger
}

func NewRunner(binary string, stopTimeout time.Duration, logger *zap.SugaredLogger) *Runner {
	return &Runner{
		binary:      binary,
		stopTimeout: stopTimeout,
		logger:      logger,
	}
}

func (r *Runner) Start(ctx context.Context, spec *domain.PipelineSpec, endpoint domain.Endpoint) (ports.ProcessHandle, error) {
	ctx, span := tracing.TraceEngineOperation(ctx, "spawn", endpoint.URL)
	defer span.End()

	args := Render(spec, endpoint)
	r.logger.Debugw("launching engine", "binary", r.binary, "args", args)

	handle, err := startProcess(r.binary, args, r.stopTimeout)
	if err != nil {
		tracing.RecordError(ctx, err)
		return nil, err
	}
	return handle, nil
}

// process owns one running engine subprocess. done delivers the exit exactly
// once; reaped is closed after Wait has returned, so Stop can block until
// the process is truly gone before the caller releases its port.
type process struct {
	cmd         *exec.Cmd
	tail        *stderrTail
	stopTimeout time.Duration

	done   chan ports.ProcessExit
	reaped chan struct{}

	termOnce sync.Once
}

func startProcess(binary string, args []string, stopTimeout time.Duration) (*process, error) {
	cmd := exec.Command(binary, args...)
	tail := newStderrTail(4096)
	cmd.Stderr = tail

	if err := cmd.Start(); err != nil {
		return nil, fmt.Errorf("launch %s: %w", binary, err)
	}

	p := &process{
		cmd:         cmd,
		tail:        tail,
		stopTimeout: stopTimeout,
		done:        make(chan ports.ProcessExit, 1),
		reaped:      make(chan struct{}),
	}
	go p.wait()
	return p, nil
}

func (p *process) wait() {
	err := p.cmd.Wait()

	exit := ports.ProcessExit{
		Err:    err,
		Stderr: p.tail.String(),
	}
	if ee, ok := err.(*exec.ExitError); ok {
		exit.ExitCode = ee.ExitCode()
	} else if err != nil {
		exit.ExitCode = -1
	}

	p.done <- exit
	close(p.reaped)
}

func (p *process) Done() <-chan ports.ProcessExit {
	return p.done
}

// Stop sends SIGTERM and waits for the process to be reaped, escalating to
// SIGKILL after the configured timeout. It never returns before the process
// has actually exited.
func (p *process) Stop(ctx context.Context) error {
	p.termOnce.Do(func() {
		p.cmd.Process.Signal(syscall.SIGTERM)
	})

	timer := time.NewTimer(p.stopTimeout)
	defer timer.Stop()

	select {
	case <-p.reaped:
		return nil
	case <-timer.C:
	case <-ctx.Done():
	}

	p.cmd.Process.Kill()
	<-p.reaped

	if ctx.Err() != nil {
		return fmt.Errorf("graceful stop aborted: %w", ctx.Err())
	}
	return fmt.Errorf("process did not exit within %s, killed", p.stopTimeout)
}

// stderrTail keeps the last max bytes of the process's error stream for
// crash diagnostics.
type stderrTail struct {
	mu  sync.Mutex
	buf []byte
	max int
}

func newStderrTail(max int) *stderrTail {
	return &stderrTail{max: max}
}

func (t *stderrTail) Write(p []byte) (int, error) {
	t.mu.Lock()
	defer t.mu.Unlock()

	t.buf = append(t.buf, p...)
	if len(t.buf) > t.max {
		t.buf = t.buf[len(t.buf)-t.max:]
	}
	return len(p), nil
}

func (t *stderrTail) String() string {
	t.mu.Lock()
	defer t.mu.Unlock()
	return string(t.buf)
}
