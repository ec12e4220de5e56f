package service

import (
	"context"
	"encoding/json"
	"net/http"
	"path/filepath"
	"testing"

	"github.com/grupotelles/comercial/internal/audit"
	"github.com/grupotelles/comercial/internal/ports"
	"github.com/grupotelles/comercial/internal/supervisor"
	"github.com/pkg/errors"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type portFixture struct {
	svc       *PortService
	inspector *fakeInspector
	sup       *fakeSupervisor
	alerts    *fakeAlerts
	audit     *audit.Log
}

func newPortFixture(t *testing.T) *portFixture {
	t.Helper()
	name := "node.exe"
	f := &portFixture{
		inspector: &fakeInspector{sockets: []ports.Socket{
			{Protocol: "TCP", LocalAddress: "0.0.0.0:3000", State: "LISTENING", PID: 4120, Process: &name},
			{Protocol: "TCP", LocalAddress: "0.0.0.0:8080", State: "LISTENING", PID: 7000},
		}},
		sup: &fakeSupervisor{procs: []supervisor.Process{
			{ID: 0, Name: "api-vendas", PID: 4120, Status: "online"},
			{ID: 3, Name: "painel", PID: 0, Status: "stopped", Env: json.RawMessage(`{"PORT":"8080"}`)},
		}},
		alerts: &fakeAlerts{},
		audit:  audit.New(filepath.Join(t.TempDir(), "audit.log")),
	}
	logger := zerolog.Nop()
	f.svc = NewPortService(f.inspector, f.sup, f.audit, f.alerts, &logger)
	return f
}

func TestInspectPort(t *testing.T) {
	f := newPortFixture(t)

	used, err := f.svc.Inspect(context.Background(), "3000")
	require.NoError(t, err)
	assert.True(t, used.Used)
	assert.Equal(t, 3000, used.Port)
	require.Len(t, used.Details, 1)
	assert.Equal(t, 4120, used.Details[0].PID)

	free, err := f.svc.Inspect(context.Background(), "5000")
	require.NoError(t, err)
	assert.False(t, free.Used)
	assert.Nil(t, free.Details)
}

func TestInvalidPort(t *testing.T) {
	f := newPortFixture(t)

	for _, raw := range []string{"abc", "0", "70000", ""} {
		_, err := f.svc.Inspect(context.Background(), raw)
		assert.Equal(t, http.StatusBadRequest, statusOf(t, err), raw)
	}
}

func TestListPortsFailure(t *testing.T) {
	f := newPortFixture(t)
	f.inspector.listErr = errors.New("netstat missing")

	_, err := f.svc.List(context.Background())
	assert.Equal(t, http.StatusInternalServerError, statusOf(t, err))
}

func TestKillPort(t *testing.T) {
	f := newPortFixture(t)

	res, err := f.svc.Kill(context.Background(), "3000")
	require.NoError(t, err)
	assert.Equal(t, &PortKill{Success: true, Port: 3000, PID: 4120}, res)
	assert.Equal(t, []int{4120}, f.inspector.killed)

	lines, err := f.audit.Recent(10)
	require.NoError(t, err)
	require.Len(t, lines, 1)
	assert.Contains(t, lines[0], "ACTION: KILL_PORT | TARGET: 3000 | STATUS: SUCESSO | PID 4120")
	require.Len(t, f.alerts.sent, 1)
}

func TestKillUnusedPort(t *testing.T) {
	f := newPortFixture(t)

	_, err := f.svc.Kill(context.Background(), "5000")
	assert.Equal(t, http.StatusNotFound, statusOf(t, err))
	assert.Empty(t, f.inspector.killed)
}

func TestKillFailureAudited(t *testing.T) {
	f := newPortFixture(t)
	f.inspector.killErr = errors.New("access denied")

	_, err := f.svc.Kill(context.Background(), "3000")
	assert.Equal(t, http.StatusInternalServerError, statusOf(t, err))

	lines, err := f.audit.Recent(10)
	require.NoError(t, err)
	assert.Contains(t, lines[0], "STATUS: ERRO | access denied")
}

func TestOwnerByPID(t *testing.T) {
	f := newPortFixture(t)

	owner, err := f.svc.Owner(context.Background(), "3000")
	require.NoError(t, err)
	assert.True(t, owner.PM2)
	require.NotNil(t, owner.ID)
	assert.Equal(t, 0, *owner.ID)
	assert.Equal(t, "api-vendas", owner.Name)
}

func TestOwnerByEnvironment(t *testing.T) {
	f := newPortFixture(t)

	owner, err := f.svc.Owner(context.Background(), "8080")
	require.NoError(t, err)
	assert.True(t, owner.PM2)
	assert.Equal(t, "painel", owner.Name)
}

func TestOwnerNotSupervised(t *testing.T) {
	f := newPortFixture(t)

	owner, err := f.svc.Owner(context.Background(), "5432")
	require.NoError(t, err)
	assert.Equal(t, &PortOwner{PM2: false}, owner)

	raw, err := json.Marshal(owner)
	require.NoError(t, err)
	assert.JSONEq(t, `{"pm2":false}`, string(raw))
}
