package service

import (
	"context"
	"sync"

	"github.com/grupotelles/comercial/internal/lib/job"
	"github.com/grupotelles/comercial/internal/lib/shell"
	"github.com/grupotelles/comercial/internal/ports"
	"github.com/grupotelles/comercial/internal/supervisor"
)

type fakeSupervisor struct {
	procs   []supervisor.Process
	listErr error
	doErr   error
	done    []string
}

func (f *fakeSupervisor) List(context.Context) ([]supervisor.Process, error) {
	return f.procs, f.listErr
}

func (f *fakeSupervisor) Describe(_ context.Context, target string) (*supervisor.Process, error) {
	if f.listErr != nil {
		return nil, f.listErr
	}
	for i := range f.procs {
		if f.procs[i].Matches(target) {
			return &f.procs[i], nil
		}
	}
	return nil, supervisor.ErrNotFound
}

func (f *fakeSupervisor) Do(_ context.Context, action supervisor.Action, target string) error {
	if _, err := f.Describe(context.Background(), target); err != nil {
		return err
	}
	f.done = append(f.done, string(action)+" "+target)
	return f.doErr
}

// fakeRunner fails the commands whose name is in fail.
type fakeRunner struct {
	calls   []shell.Command
	ctxErrs []error
	fail    map[string]error
}

func (f *fakeRunner) Run(ctx context.Context, cmd shell.Command) (*shell.Result, error) {
	f.calls = append(f.calls, cmd)
	f.ctxErrs = append(f.ctxErrs, ctx.Err())
	if err := f.fail[cmd.Name]; err != nil {
		return &shell.Result{Stderr: "boom", ExitCode: 1}, err
	}
	return &shell.Result{}, nil
}

type fakeAlerts struct {
	mu   sync.Mutex
	sent []job.ProcessAlertPayload
}

func (f *fakeAlerts) EnqueueProcessAlert(_ context.Context, p job.ProcessAlertPayload) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.sent = append(f.sent, p)
}

type fakeInspector struct {
	sockets []ports.Socket
	listErr error
	killErr error
	killed  []int
}

func (f *fakeInspector) List(context.Context) ([]ports.Socket, error) {
	return f.sockets, f.listErr
}

func (f *fakeInspector) Kill(_ context.Context, pid int) error {
	f.killed = append(f.killed, pid)
	return f.killErr
}
