package supervisor

import (
	"context"
	"testing"

	"github.com/grupotelles/comercial/internal/lib/shell"
	"github.com/pkg/errors"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const jlistFixture = `[PM2] Spawning PM2 daemon
[{"pid":4120,"name":"api-vendas","pm_id":0,"monit":{"memory":52428800,"cpu":1.5},
  "pm2_env":{"status":"online","restart_time":3,"pm_uptime":1717000000000,
  "pm_cwd":"C:\\apps\\api-vendas","pm_exec_path":"C:\\apps\\api-vendas\\server.js",
  "pm_out_log_path":"C:\\logs\\out-0.log","pm_err_log_path":"C:\\logs\\err-0.log",
  "env":{"PORT":"3000","URL":"http://localhost:3000"}}},
 {"pid":0,"name":"worker","pm_id":1,"monit":{"memory":0,"cpu":0},
  "pm2_env":{"status":"stopped","restart_time":0,"pm_uptime":0}}]`

type fakeRunner struct {
	calls  []shell.Command
	result *shell.Result
	err    error
}

func (f *fakeRunner) Run(_ context.Context, cmd shell.Command) (*shell.Result, error) {
	f.calls = append(f.calls, cmd)
	return f.result, f.err
}

func newTestPM2(r *fakeRunner) *PM2 {
	logger := zerolog.Nop()
	return NewPM2(r, "", &logger)
}

func TestParseJList(t *testing.T) {
	list, err := ParseJList([]byte(jlistFixture))
	require.NoError(t, err)
	require.Len(t, list, 2)

	p := list[0]
	assert.Equal(t, 0, p.ID)
	assert.Equal(t, "api-vendas", p.Name)
	assert.Equal(t, 4120, p.PID)
	assert.Equal(t, "online", p.Status)
	assert.Equal(t, 1.5, p.CPU)
	assert.Equal(t, uint64(52428800), p.Memory)
	assert.Equal(t, "50 MiB", p.MemoryText)
	assert.Equal(t, 3, p.Restarts)
	assert.Equal(t, `C:\apps\api-vendas`, p.Cwd)
	assert.Equal(t, `C:\logs\err-0.log`, p.ErrLogPath)
	assert.Contains(t, string(p.Env), "localhost:3000")

	assert.Equal(t, "stopped", list[1].Status)
	assert.Empty(t, list[1].Cwd)
}

func TestParseJListEmpty(t *testing.T) {
	list, err := ParseJList([]byte("  \n"))
	require.NoError(t, err)
	assert.Empty(t, list)

	_, err = ParseJList([]byte("daemon not running"))
	assert.Error(t, err)
}

func TestDescribeByIDAndName(t *testing.T) {
	r := &fakeRunner{result: &shell.Result{Stdout: jlistFixture}}
	pm2 := newTestPM2(r)

	p, err := pm2.Describe(context.Background(), "1")
	require.NoError(t, err)
	assert.Equal(t, "worker", p.Name)

	p, err = pm2.Describe(context.Background(), "api-vendas")
	require.NoError(t, err)
	assert.Equal(t, 0, p.ID)

	_, err = pm2.Describe(context.Background(), "9")
	assert.True(t, errors.Is(err, ErrNotFound))

	assert.Equal(t, []string{"jlist"}, r.calls[0].Args)
	assert.Equal(t, "pm2", r.calls[0].Name)
}

func TestDoRunsAction(t *testing.T) {
	r := &fakeRunner{result: &shell.Result{}}
	pm2 := newTestPM2(r)

	require.NoError(t, pm2.Do(context.Background(), ActionRestart, "3"))
	assert.Equal(t, []string{"restart", "3"}, r.calls[0].Args)

	err := pm2.Do(context.Background(), ActionUpdate, "3")
	assert.True(t, errors.Is(err, ErrInvalidAction))
}

func TestDoNotFound(t *testing.T) {
	r := &fakeRunner{
		result: &shell.Result{Stderr: "[PM2][ERROR] Process or Namespace 42 not found"},
		err:    &shell.ExitError{Command: "pm2 stop 42", ExitCode: 1, Stderr: "[PM2][ERROR] Process or Namespace 42 not found"},
	}
	pm2 := newTestPM2(r)

	err := pm2.Do(context.Background(), ActionStop, "42")
	assert.True(t, errors.Is(err, ErrNotFound))
}

func TestParseAction(t *testing.T) {
	a, err := ParseAction("reload")
	require.NoError(t, err)
	assert.Equal(t, ActionReload, a)

	_, err = ParseAction("explode")
	assert.True(t, errors.Is(err, ErrInvalidAction))
}

func TestMatches(t *testing.T) {
	p := Process{ID: 2, Name: "api"}
	assert.True(t, p.Matches(" 2 "))
	assert.True(t, p.Matches("api"))
	assert.False(t, p.Matches("3"))
}
