package service

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/grupotelles/comercial/internal/audit"
	"github.com/grupotelles/comercial/internal/config"
	"github.com/grupotelles/comercial/internal/errs"
	"github.com/grupotelles/comercial/internal/supervisor"
	"github.com/pkg/errors"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type processFixture struct {
	svc    *ProcessService
	sup    *fakeSupervisor
	runner *fakeRunner
	alerts *fakeAlerts
	audit  *audit.Log
	appDir string
}

func newProcessFixture(t *testing.T) *processFixture {
	t.Helper()
	dir := t.TempDir()
	appDir := filepath.Join(dir, "api-vendas")
	require.NoError(t, os.MkdirAll(appDir, 0o755))

	f := &processFixture{
		sup: &fakeSupervisor{procs: []supervisor.Process{
			{ID: 0, Name: "api-vendas", PID: 4120, Status: "online", CPU: 1.5, Memory: 52428800, Restarts: 3, Cwd: appDir},
			{ID: 1, Name: "worker", Status: "stopped"},
		}},
		runner: &fakeRunner{fail: map[string]error{}},
		alerts: &fakeAlerts{},
		audit:  audit.New(filepath.Join(dir, "audit.log")),
		appDir: appDir,
	}
	logger := zerolog.Nop()
	f.svc = NewProcessService(f.sup, f.runner, f.audit, f.alerts, config.ManagerConfig{
		GitPath: "git",
		NpmPath: "npm",
	}, &logger)
	return f
}

func statusOf(t *testing.T, err error) int {
	t.Helper()
	var httpErr *errs.HTTPError
	require.True(t, errors.As(err, &httpErr), "expected *errs.HTTPError, got %v", err)
	return httpErr.Status
}

func (f *processFixture) auditLines(t *testing.T) []string {
	t.Helper()
	lines, err := f.audit.Recent(audit.DefaultRecent)
	require.NoError(t, err)
	return lines
}

func TestListSummarizes(t *testing.T) {
	f := newProcessFixture(t)

	list, err := f.svc.List(context.Background())
	require.NoError(t, err)
	require.Len(t, list, 2)

	assert.Equal(t, "api-vendas", list[0].Name)
	assert.Equal(t, "1.5%", list[0].CPU)
	assert.Equal(t, "50.00 MB", list[0].Memory)
	assert.Equal(t, "api-vendas", list[0].Folder)
	assert.Equal(t, "N/A", list[1].Path)
	assert.Equal(t, "---", list[1].Folder)
}

func TestListSupervisorDown(t *testing.T) {
	f := newProcessFixture(t)
	f.sup.listErr = errors.New("pm2 not found")

	_, err := f.svc.List(context.Background())
	assert.Equal(t, http.StatusInternalServerError, statusOf(t, err))
}

func TestDescribeUnknown(t *testing.T) {
	f := newProcessFixture(t)

	_, err := f.svc.Describe(context.Background(), "nope")
	assert.Equal(t, http.StatusNotFound, statusOf(t, err))
}

func TestDoValidatesInput(t *testing.T) {
	f := newProcessFixture(t)

	_, err := f.svc.Do(context.Background(), "restart", "  ", "")
	assert.Equal(t, http.StatusBadRequest, statusOf(t, err))

	_, err = f.svc.Do(context.Background(), "explode", "0", "")
	assert.Equal(t, http.StatusBadRequest, statusOf(t, err))
}

func TestDoRestartAudits(t *testing.T) {
	f := newProcessFixture(t)

	res, err := f.svc.Do(context.Background(), "restart", "api-vendas", "")
	require.NoError(t, err)
	assert.True(t, res.Success)
	assert.Equal(t, []string{"restart api-vendas"}, f.sup.done)

	lines := f.auditLines(t)
	require.Len(t, lines, 1)
	assert.Contains(t, lines[0], "ACTION: restart | TARGET: api-vendas | STATUS: SUCESSO")
	assert.Empty(t, f.alerts.sent)
}

func TestDoStopAlerts(t *testing.T) {
	f := newProcessFixture(t)

	_, err := f.svc.Do(context.Background(), "stop", "0", "")
	require.NoError(t, err)
	require.Len(t, f.alerts.sent, 1)
	assert.Equal(t, "stop", f.alerts.sent[0].Action)
}

func TestDoFailureAuditsError(t *testing.T) {
	f := newProcessFixture(t)
	f.sup.doErr = errors.New("pm2 crashed")

	_, err := f.svc.Do(context.Background(), "reload", "0", "")
	assert.Equal(t, http.StatusInternalServerError, statusOf(t, err))
	assert.Contains(t, f.auditLines(t)[0], "STATUS: ERRO")
	assert.Len(t, f.alerts.sent, 1)
}

func TestUpdatePullsWhenGitPresent(t *testing.T) {
	f := newProcessFixture(t)
	require.NoError(t, os.Mkdir(filepath.Join(f.appDir, ".git"), 0o755))

	res, err := f.svc.Do(context.Background(), "update", "api-vendas", "")
	require.NoError(t, err)
	assert.Equal(t, "Update e npm install realizados!", res.Message)

	require.Len(t, f.runner.calls, 2)
	assert.Equal(t, "git pull", f.runner.calls[0].String())
	assert.Equal(t, f.appDir, f.runner.calls[0].Dir)
	assert.Equal(t, "npm install", f.runner.calls[1].String())
	assert.Equal(t, []string{"restart api-vendas"}, f.sup.done)

	lines := f.auditLines(t)
	require.Len(t, lines, 2)
	assert.Contains(t, lines[0], "ACTION: UPDATE | TARGET: api-vendas | STATUS: SUCESSO")
	assert.Contains(t, lines[1], "STATUS: INFO")
	require.Len(t, f.alerts.sent, 1)
	assert.Equal(t, audit.StatusSuccess, f.alerts.sent[0].Status)
}

func TestUpdateClonesWithRepoURL(t *testing.T) {
	f := newProcessFixture(t)

	_, err := f.svc.Do(context.Background(), "update", "api-vendas", "https://git.example.com/api.git")
	require.NoError(t, err)
	assert.Equal(t, "git clone https://git.example.com/api.git .", f.runner.calls[0].String())

	lines := f.auditLines(t)
	assert.Contains(t, lines[len(lines)-1], "ACTION: CLONE | TARGET: api-vendas | STATUS: INICIANDO")
}

func TestUpdateWithoutGitOrRepo(t *testing.T) {
	f := newProcessFixture(t)

	_, err := f.svc.Do(context.Background(), "update", "api-vendas", "")
	assert.Equal(t, http.StatusBadRequest, statusOf(t, err))
	assert.Empty(t, f.runner.calls)
}

func TestUpdateRejectsOptionLikeRepoURL(t *testing.T) {
	f := newProcessFixture(t)

	for _, repo := range []string{"--upload-pack=touch /tmp/x", "https://git.local/app.git\nSTATUS: SUCESSO"} {
		_, err := f.svc.Do(context.Background(), "update", "api-vendas", repo)
		assert.Equal(t, http.StatusBadRequest, statusOf(t, err), repo)
	}
	assert.Empty(t, f.runner.calls)
}

func TestUpdateNpmFailureStops(t *testing.T) {
	f := newProcessFixture(t)
	require.NoError(t, os.Mkdir(filepath.Join(f.appDir, ".git"), 0o755))
	f.runner.fail["npm"] = errors.New("exit status 1")

	_, err := f.svc.Do(context.Background(), "update", "api-vendas", "")
	require.Error(t, err)

	var httpErr *errs.HTTPError
	require.True(t, errors.As(err, &httpErr))
	assert.Equal(t, "Git OK, mas falha no npm install.", httpErr.Message)
	assert.Empty(t, f.sup.done)
	assert.Contains(t, f.auditLines(t)[0], "Falha no npm install")
}

func TestUpdatePullFailure(t *testing.T) {
	f := newProcessFixture(t)
	require.NoError(t, os.Mkdir(filepath.Join(f.appDir, ".git"), 0o755))
	f.runner.fail["git"] = errors.New("exit status 128")

	_, err := f.svc.Do(context.Background(), "update", "api-vendas", "")
	assert.Equal(t, http.StatusInternalServerError, statusOf(t, err))
	assert.Len(t, f.runner.calls, 1)
}

func TestLogsTail(t *testing.T) {
	f := newProcessFixture(t)
	path := filepath.Join(f.appDir, "out.log")
	var b strings.Builder
	for i := 1; i <= 500; i++ {
		fmt.Fprintf(&b, "line %d\n", i)
	}
	require.NoError(t, os.WriteFile(path, []byte(b.String()), 0o644))
	f.sup.procs[0].OutLogPath = path

	lines, err := f.svc.Logs(context.Background(), "api-vendas", 3, "out")
	require.NoError(t, err)
	assert.Equal(t, []string{"line 498", "line 499", "line 500"}, lines)

	lines, err = f.svc.Logs(context.Background(), "api-vendas", 0, "out")
	require.NoError(t, err)
	assert.Len(t, lines, DefaultLogLines)
	assert.Equal(t, "line 401", lines[0])
}

func TestLogsMissingFile(t *testing.T) {
	f := newProcessFixture(t)

	lines, err := f.svc.Logs(context.Background(), "api-vendas", 10, "err")
	require.NoError(t, err)
	assert.Equal(t, []string{LogFileMissing}, lines)
}

func TestTailLinesShortFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "short.log")
	require.NoError(t, os.WriteFile(path, []byte("a\r\nb\n"), 0o644))

	lines, err := tailLines(path, 10)
	require.NoError(t, err)
	assert.Equal(t, []string{"a", "b"}, lines)
}

func TestUpdateOutlivesCaller(t *testing.T) {
	f := newProcessFixture(t)
	require.NoError(t, os.Mkdir(filepath.Join(f.appDir, ".git"), 0o755))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	res, err := f.svc.Do(ctx, "update", "api-vendas", "")
	require.NoError(t, err)
	assert.True(t, res.Success)

	require.Len(t, f.runner.ctxErrs, 2)
	for _, ctxErr := range f.runner.ctxErrs {
		assert.NoError(t, ctxErr)
	}
	assert.Equal(t, []string{"restart api-vendas"}, f.sup.done)
}
