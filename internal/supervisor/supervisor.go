// Package supervisor talks to the PM2 process supervisor through its CLI.
//
// Process state comes from `pm2 jlist`; mutating actions run
// `pm2 <action> <target>`. Every call goes through a shell.Runner so the
// command timeout and output capture are shared with git and npm.
package supervisor

import (
	"bytes"
	"context"
	"encoding/json"
	"strconv"
	"strings"

	"github.com/dustin/go-humanize"
	"github.com/grupotelles/comercial/internal/lib/shell"
	"github.com/pkg/errors"
	"github.com/rs/zerolog"
)

var (
	ErrNotFound      = errors.New("process not found")
	ErrInvalidAction = errors.New("invalid action")
)

// Action is a supervisor command applied to one process.
type Action string

const (
	ActionRestart Action = "restart"
	ActionStop    Action = "stop"
	ActionDelete  Action = "delete"
	ActionReload  Action = "reload"
	// ActionUpdate is orchestrated by the management service, not PM2.
	ActionUpdate Action = "update"
)

// ParseAction validates a path parameter.
func ParseAction(s string) (Action, error) {
	switch a := Action(s); a {
	case ActionRestart, ActionStop, ActionDelete, ActionReload, ActionUpdate:
		return a, nil
	}
	return "", errors.Wrap(ErrInvalidAction, s)
}

// Process is one supervised application.
type Process struct {
	ID         int             `json:"id"`
	Name       string          `json:"name"`
	PID        int             `json:"pid"`
	Status     string          `json:"status"`
	CPU        float64         `json:"cpu"`
	Memory     uint64          `json:"memory"`
	MemoryText string          `json:"memory_human"`
	Restarts   int             `json:"restarts"`
	Uptime     int64           `json:"uptime"`
	Cwd        string          `json:"cwd"`
	Script     string          `json:"script,omitempty"`
	OutLogPath string          `json:"out_log_path"`
	ErrLogPath string          `json:"err_log_path"`
	Env        json.RawMessage `json:"env,omitempty"`
}

// Matches reports whether target names this process by id or name.
func (p Process) Matches(target string) bool {
	target = strings.TrimSpace(target)
	if id, err := strconv.Atoi(target); err == nil {
		return p.ID == id
	}
	return p.Name == target
}

// Supervisor is the process supervisor contract the services depend on.
type Supervisor interface {
	List(ctx context.Context) ([]Process, error)
	Describe(ctx context.Context, target string) (*Process, error)
	Do(ctx context.Context, action Action, target string) error
}

// PM2 implements Supervisor on top of the pm2 binary.
type PM2 struct {
	runner shell.Runner
	binary string
	logger *zerolog.Logger
}

func NewPM2(runner shell.Runner, binary string, logger *zerolog.Logger) *PM2 {
	if binary == "" {
		binary = "pm2"
	}
	return &PM2{runner: runner, binary: binary, logger: logger}
}

func (p *PM2) List(ctx context.Context) ([]Process, error) {
	res, err := p.runner.Run(ctx, shell.Command{Name: p.binary, Args: []string{"jlist"}})
	if err != nil {
		return nil, errors.Wrapf(err, "pm2 jlist: %s", shell.Output(res, err))
	}
	return ParseJList([]byte(res.Stdout))
}

func (p *PM2) Describe(ctx context.Context, target string) (*Process, error) {
	list, err := p.List(ctx)
	if err != nil {
		return nil, err
	}
	for i := range list {
		if list[i].Matches(target) {
			return &list[i], nil
		}
	}
	return nil, errors.Wrap(ErrNotFound, target)
}

func (p *PM2) Do(ctx context.Context, action Action, target string) error {
	switch action {
	case ActionRestart, ActionStop, ActionDelete, ActionReload:
	default:
		return errors.Wrap(ErrInvalidAction, string(action))
	}

	res, err := p.runner.Run(ctx, shell.Command{Name: p.binary, Args: []string{string(action), target}})
	if err != nil {
		out := shell.Output(res, err)
		if strings.Contains(strings.ToLower(out), "not found") {
			return errors.Wrap(ErrNotFound, target)
		}
		return errors.Errorf("pm2 %s %s: %s", action, target, out)
	}

	p.logger.Info().Str("action", string(action)).Str("target", target).Msg("supervisor action completed")
	return nil
}

type jlistEntry struct {
	PMID  int    `json:"pm_id"`
	Name  string `json:"name"`
	PID   int    `json:"pid"`
	Monit struct {
		Memory uint64  `json:"memory"`
		CPU    float64 `json:"cpu"`
	} `json:"monit"`
	Env json.RawMessage `json:"pm2_env"`
}

type pm2Env struct {
	Status      string `json:"status"`
	RestartTime int    `json:"restart_time"`
	PMUptime    int64  `json:"pm_uptime"`
	PMCwd       string `json:"pm_cwd"`
	ExecPath    string `json:"pm_exec_path"`
	OutLogPath  string `json:"pm_out_log_path"`
	ErrLogPath  string `json:"pm_err_log_path"`
}

// ParseJList decodes `pm2 jlist` output. PM2 may print banners before the
// JSON array, so decoding starts at the first '['.
func ParseJList(out []byte) ([]Process, error) {
	start := bytes.IndexByte(out, '[')
	if start < 0 {
		if len(bytes.TrimSpace(out)) == 0 {
			return []Process{}, nil
		}
		return nil, errors.New("pm2 jlist returned no JSON array")
	}

	var entries []jlistEntry
	if err := json.Unmarshal(out[start:], &entries); err != nil {
		return nil, errors.Wrap(err, "decode pm2 jlist")
	}

	processes := make([]Process, 0, len(entries))
	for _, e := range entries {
		var env pm2Env
		if len(e.Env) > 0 {
			if err := json.Unmarshal(e.Env, &env); err != nil {
				return nil, errors.Wrapf(err, "decode pm2_env of %s", e.Name)
			}
		}
		processes = append(processes, Process{
			ID:         e.PMID,
			Name:       e.Name,
			PID:        e.PID,
			Status:     env.Status,
			CPU:        e.Monit.CPU,
			Memory:     e.Monit.Memory,
			MemoryText: humanize.IBytes(e.Monit.Memory),
			Restarts:   env.RestartTime,
			Uptime:     env.PMUptime,
			Cwd:        env.PMCwd,
			Script:     env.ExecPath,
			OutLogPath: env.OutLogPath,
			ErrLogPath: env.ErrLogPath,
			Env:        e.Env,
		})
	}
	return processes, nil
}
