package audit

import (
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestLog(t *testing.T) *Log {
	t.Helper()
	l := New(filepath.Join(t.TempDir(), "logs", "audit_api.log"))
	l.now = func() time.Time { return time.Date(2025, 6, 2, 13, 4, 5, 678000000, time.UTC) }
	return l
}

func TestAppendFormat(t *testing.T) {
	l := newTestLog(t)

	require.NoError(t, l.Append(ActionKillPort, "3000", StatusSuccess, "PID 4120"))
	require.NoError(t, l.Append("restart", "7", StatusSuccess, ""))

	data, err := os.ReadFile(l.Path())
	require.NoError(t, err)
	assert.Equal(t,
		"[2025-06-02T13:04:05.678Z] ACTION: KILL_PORT | TARGET: 3000 | STATUS: SUCESSO | PID 4120\n"+
			"[2025-06-02T13:04:05.678Z] ACTION: restart | TARGET: 7 | STATUS: SUCESSO | \n",
		string(data))
}

func TestAppendFlattensMultilineDetails(t *testing.T) {
	l := newTestLog(t)

	require.NoError(t, l.Append(ActionUpdate, "api", StatusError, "fatal: not a git repository\r\nhint: x\n"))

	lines, err := l.Recent(10)
	require.NoError(t, err)
	require.Len(t, lines, 1)
	assert.Contains(t, lines[0], "| fatal: not a git repository hint: x")
}

func TestRecentNewestFirst(t *testing.T) {
	l := newTestLog(t)

	for i := 0; i < 150; i++ {
		require.NoError(t, l.Append("restart", fmt.Sprint(i), StatusSuccess, ""))
	}

	lines, err := l.Recent(DefaultRecent)
	require.NoError(t, err)
	require.Len(t, lines, 100)
	assert.Contains(t, lines[0], "TARGET: 149 |")
	assert.Contains(t, lines[99], "TARGET: 50 |")
}

func TestRecentMissingFile(t *testing.T) {
	l := New(filepath.Join(t.TempDir(), "none.log"))

	lines, err := l.Recent(0)
	require.NoError(t, err)
	assert.Empty(t, lines)
	assert.NotNil(t, lines)
}

func TestAppendConcurrent(t *testing.T) {
	l := newTestLog(t)

	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			assert.NoError(t, l.Append("stop", fmt.Sprint(i), StatusSuccess, "ok"))
		}(i)
	}
	wg.Wait()

	lines, err := l.Recent(50)
	require.NoError(t, err)
	assert.Len(t, lines, 20)
	for _, line := range lines {
		assert.Regexp(t, `^\[.+\] ACTION: stop \| TARGET: \d+ \| STATUS: SUCESSO \| ok$`, line)
	}
}
