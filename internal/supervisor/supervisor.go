package supervisor

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os/exec"
	"sync"
	"syscall"

	"github.com/shirou/gopsutil/v3/process"
	"go.uber.org/zap"

	"github.com/admitra/ultron-host/internal/infrastructure/logging"
	"github.com/admitra/ultron-host/internal/infrastructure/monitoring"
)

// Status is the observed lifecycle state of the backend process.
type Status int

const (
	StatusNotStarted Status = iota
	StatusRunning
	StatusExited
	StatusCrashed
)

// String returns a human-readable status label.
func (s Status) String() string {
	switch s {
	case StatusNotStarted:
		return "not-started"
	case StatusRunning:
		return "running"
	case StatusExited:
		return "exited"
	case StatusCrashed:
		return "crashed"
	default:
		return "unknown"
	}
}

// ErrAlreadyStarted is returned when Start is called on a supervisor
// that already owns a live process. Exactly one backend instance
// exists per application run.
var ErrAlreadyStarted = errors.New("backend process already started")

// LaunchError wraps a failed spawn (bad path, permission). It is
// non-fatal to the host.
type LaunchError struct {
	Spec LaunchSpec
	Err  error
}

func (e *LaunchError) Error() string {
	return fmt.Sprintf("launch %s: %v", e.Spec.Path, e.Err)
}

func (e *LaunchError) Unwrap() error { return e.Err }

// Supervisor owns the single backend process handle. It is constructed
// once at startup and passed to the host's lifecycle hooks; nothing is
// held at package scope.
type Supervisor struct {
	spec    LaunchSpec
	logger  *logging.Logger
	metrics *monitoring.Metrics

	mu       sync.Mutex
	cmd      *exec.Cmd
	pid      int
	status   Status
	exitCode int
	stopping bool
	done     chan struct{}
}

// New creates a supervisor for the given launch spec.
func New(spec LaunchSpec, logger *logging.Logger) *Supervisor {
	return &Supervisor{
		spec:   spec,
		logger: logger,
		done:   make(chan struct{}),
	}
}

// WithMetrics attaches a metrics collector.
func (s *Supervisor) WithMetrics(m *monitoring.Metrics) *Supervisor {
	s.metrics = m
	return s
}

// Start spawns the backend with piped standard streams, attaches the
// line forwarders and the exit observer. A spawn failure is logged and
// returned as a *LaunchError; the host treats it as non-fatal.
func (s *Supervisor) Start() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.cmd != nil {
		return ErrAlreadyStarted
	}

	cmd := exec.Command(s.spec.Path, s.spec.Args...)
	cmd.Dir = s.spec.Dir

	stdout, err := cmd.StdoutPipe()
	if err != nil {
		return &LaunchError{Spec: s.spec, Err: err}
	}
	stderr, err := cmd.StderrPipe()
	if err != nil {
		return &LaunchError{Spec: s.spec, Err: err}
	}

	if err := cmd.Start(); err != nil {
		lerr := &LaunchError{Spec: s.spec, Err: err}
		s.logger.Error("backend launch failed",
			zap.String("path", s.spec.Path),
			zap.Error(err),
		)
		return lerr
	}

	s.cmd = cmd
	s.pid = cmd.Process.Pid
	s.status = StatusRunning

	if s.metrics != nil {
		s.metrics.ProcessStarts.Inc()
	}
	s.logger.Info("backend started",
		zap.String("path", s.spec.Path),
		zap.Int("pid", s.pid),
	)

	go s.forward(stdout, "stdout")
	go s.forward(stderr, "stderr")
	go s.observe(cmd)

	return nil
}

// Stop sends a termination signal to the live handle, if any, and
// clears it. Idempotent: safe when never started, already stopped, or
// mid-shutdown. The signal is fire-and-forget; Stop does not await
// process exit.
func (s *Supervisor) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.cmd == nil {
		return
	}

	s.stopping = true
	if s.cmd.Process != nil {
		if err := s.cmd.Process.Signal(syscall.SIGTERM); err != nil {
			s.logger.Warn("termination signal failed", zap.Error(err))
		} else {
			s.logger.Info("termination signal sent", zap.Int("pid", s.pid))
		}
	}
	s.cmd = nil
}

// OnReady is the host "ready" transition: launch the backend.
func (s *Supervisor) OnReady() error {
	return s.Start()
}

// OnAllWindowsClosed is the host "all windows closed" transition.
func (s *Supervisor) OnAllWindowsClosed() {
	s.Stop()
}

// OnBeforeQuit is the host "before quit" transition.
func (s *Supervisor) OnBeforeQuit() {
	s.Stop()
}

// OnFatal handles an uncaught fatal host error: shut the backend down
// before the host process terminates.
func (s *Supervisor) OnFatal(err error) {
	s.logger.Error("fatal host error, stopping backend", zap.Error(err))
	s.Stop()
}

// Status returns the observed process status.
func (s *Supervisor) Status() Status {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.status
}

// ExitCode returns the terminal exit code. Valid only once Status is
// StatusExited or StatusCrashed.
func (s *Supervisor) ExitCode() (int, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.status != StatusExited && s.status != StatusCrashed {
		return 0, false
	}
	return s.exitCode, true
}

// Done is closed once the exit observer has recorded the terminal
// state.
func (s *Supervisor) Done() <-chan struct{} {
	return s.done
}

// Alive probes whether the spawned process still exists. Informational
// only: it never drives a restart.
func (s *Supervisor) Alive() bool {
	s.mu.Lock()
	pid := s.pid
	status := s.status
	s.mu.Unlock()

	if pid == 0 || status != StatusRunning {
		return false
	}

	p, err := process.NewProcess(int32(pid))
	if err != nil {
		return false
	}
	running, err := p.IsRunning()
	return err == nil && running
}

// forward copies one piped stream to the log sink, line by line, as it
// arrives.
func (s *Supervisor) forward(r io.Reader, stream string) {
	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for sc.Scan() {
		if stream == "stderr" {
			s.logger.Warn("backend", zap.String("line", sc.Text()))
		} else {
			s.logger.Info("backend", zap.String("line", sc.Text()))
		}
	}
}

// observe waits for the process and records its terminal state. A
// non-zero exit or signal that the supervisor did not itself request
// is a crash; it is logged and nothing more.
func (s *Supervisor) observe(cmd *exec.Cmd) {
	err := cmd.Wait()

	s.mu.Lock()
	code := cmd.ProcessState.ExitCode()
	s.exitCode = code
	crashed := (err != nil || code != 0) && !s.stopping
	if crashed {
		s.status = StatusCrashed
	} else {
		s.status = StatusExited
	}
	stopping := s.stopping
	s.mu.Unlock()

	outcome := "clean"
	if crashed {
		outcome = "crashed"
		s.logger.Error("backend crashed",
			zap.Int("exit_code", code),
			zap.Error(err),
		)
	} else {
		s.logger.Info("backend exited",
			zap.Int("exit_code", code),
			zap.Bool("requested", stopping),
		)
	}
	if s.metrics != nil {
		s.metrics.ProcessExits.WithLabelValues(outcome).Inc()
	}

	close(s.done)
}
