package supervisor

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"github.com/admitra/ultron-host/internal/infrastructure/logging"
)

func newTestSupervisor(spec LaunchSpec) (*Supervisor, *observer.ObservedLogs) {
	core, logs := observer.New(zapcore.DebugLevel)
	logger := &logging.Logger{Logger: zap.New(core)}
	return New(spec, logger), logs
}

func waitExit(t *testing.T, s *Supervisor) {
	t.Helper()
	select {
	case <-s.Done():
	case <-time.After(5 * time.Second):
		t.Fatal("timed out waiting for backend exit")
	}
}

func TestStartCleanExit(t *testing.T) {
	s, _ := newTestSupervisor(LaunchSpec{Path: "sh", Args: []string{"-c", "exit 0"}})

	require.NoError(t, s.Start())
	waitExit(t, s)

	assert.Equal(t, StatusExited, s.Status())
	code, ok := s.ExitCode()
	require.True(t, ok)
	assert.Equal(t, 0, code)
}

func TestStartCrashObserved(t *testing.T) {
	s, logs := newTestSupervisor(LaunchSpec{Path: "sh", Args: []string{"-c", "exit 3"}})

	require.NoError(t, s.Start())
	waitExit(t, s)

	assert.Equal(t, StatusCrashed, s.Status())
	code, ok := s.ExitCode()
	require.True(t, ok)
	assert.Equal(t, 3, code)

	// crash is logged only; no relaunch happens
	assert.Equal(t, 1, logs.FilterMessage("backend crashed").Len())
	assert.False(t, s.Alive())
}

func TestOutputForwardedLineOriented(t *testing.T) {
	s, logs := newTestSupervisor(LaunchSpec{
		Path: "sh",
		Args: []string{"-c", "echo first; echo second; echo oops >&2"},
	})

	require.NoError(t, s.Start())
	waitExit(t, s)

	require.Eventually(t, func() bool {
		return logs.FilterMessage("backend").Len() >= 3
	}, 2*time.Second, 10*time.Millisecond)

	var stdout, stderr []string
	for _, e := range logs.FilterMessage("backend").All() {
		line := e.ContextMap()["line"].(string)
		if e.Level == zapcore.WarnLevel {
			stderr = append(stderr, line)
		} else {
			stdout = append(stdout, line)
		}
	}
	assert.Equal(t, []string{"first", "second"}, stdout)
	assert.Equal(t, []string{"oops"}, stderr)
}

func TestStartFailureIsLaunchError(t *testing.T) {
	s, logs := newTestSupervisor(LaunchSpec{Path: "/nonexistent/ultron-backend"})

	err := s.Start()
	require.Error(t, err)

	var lerr *LaunchError
	require.ErrorAs(t, err, &lerr)
	assert.Equal(t, "/nonexistent/ultron-backend", lerr.Spec.Path)
	assert.Equal(t, StatusNotStarted, s.Status())
	assert.Equal(t, 1, logs.FilterMessage("backend launch failed").Len())

	// a failed launch leaves no handle; stop is still safe
	s.Stop()
}

func TestStartTwiceRejected(t *testing.T) {
	s, _ := newTestSupervisor(LaunchSpec{Path: "sh", Args: []string{"-c", "sleep 30"}})
	defer s.Stop()

	require.NoError(t, s.Start())
	assert.ErrorIs(t, s.Start(), ErrAlreadyStarted)
}

func TestStopIdempotent(t *testing.T) {
	t.Run("never started", func(t *testing.T) {
		s, _ := newTestSupervisor(LaunchSpec{Path: "sh"})
		s.Stop()
		s.Stop()
		assert.Equal(t, StatusNotStarted, s.Status())
	})

	t.Run("running then stopped twice", func(t *testing.T) {
		s, logs := newTestSupervisor(LaunchSpec{Path: "sh", Args: []string{"-c", "sleep 30"}})
		require.NoError(t, s.Start())

		s.Stop()
		s.Stop() // handle already cleared; no second signal

		waitExit(t, s)
		assert.Equal(t, StatusExited, s.Status())
		assert.Equal(t, 1, logs.FilterMessage("termination signal sent").Len())
	})
}

func TestAliveWhileRunning(t *testing.T) {
	s, _ := newTestSupervisor(LaunchSpec{Path: "sh", Args: []string{"-c", "sleep 30"}})
	require.NoError(t, s.Start())
	defer s.Stop()

	assert.True(t, s.Alive())
}

func TestLifecycleTransitions(t *testing.T) {
	s, logs := newTestSupervisor(LaunchSpec{Path: "sh", Args: []string{"-c", "sleep 30"}})

	require.NoError(t, s.OnReady())
	assert.Equal(t, StatusRunning, s.Status())

	s.OnBeforeQuit()
	waitExit(t, s)
	assert.Equal(t, StatusExited, s.Status())

	// fatal path is safe after shutdown already happened
	s.OnFatal(assert.AnError)
	assert.Equal(t, 1, logs.FilterMessage("fatal host error, stopping backend").Len())
}
