package engine

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestProcess_StopTerminatesBeforeReturning(t *testing.T) {
	p, err := startProcess("sleep", []string{"60"}, 2*time.Second)
	require.NoError(t, err)

	start := time.Now()
	p.Stop(context.Background())
	assert.Less(t, time.Since(start), 2*time.Second)

	// Exit is observable after Stop returns; the process is reaped.
	select {
	case <-p.Done():
	case <-time.After(time.Second):
		t.Fatal("exit not delivered after Stop")
	}
}

func TestProcess_CrashDeliversStderrAndExitCode(t *testing.T) {
	p, err := startProcess("sh", []string{"-c", "echo 'source unreachable' >&2; exit 3"}, time.Second)
	require.NoError(t, err)

	select {
	case exit := <-p.Done():
		assert.Equal(t, 3, exit.ExitCode)
		assert.Contains(t, exit.Stderr, "source unreachable")
		assert.Error(t, exit.Err)
	case <-time.After(2 * time.Second):
		t.Fatal("exit not delivered")
	}
}

func TestProcess_CleanExitCodeZero(t *testing.T) {
	p, err := startProcess("true", nil, time.Second)
	require.NoError(t, err)

	select {
	case exit := <-p.Done():
		assert.Equal(t, 0, exit.ExitCode)
		assert.NoError(t, exit.Err)
	case <-time.After(2 * time.Second):
		t.Fatal("exit not delivered")
	}
}

func TestStartProcess_MissingBinary(t *testing.T) {
	_, err := startProcess("definitely-not-a-binary-5481", nil, time.Second)
	assert.Error(t, err)
}

func TestStderrTail_KeepsOnlyLastBytes(t *testing.T) {
	tail := newStderrTail(8)
	tail.Write([]byte("0123456789abcdef"))
	assert.Equal(t, "89abcdef", tail.String())

	tail.Write([]byte("XY"))
	assert.Equal(t, "abcdefXY", tail.String())
}
