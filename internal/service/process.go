package service

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/grupotelles/comercial/internal/audit"
	"github.com/grupotelles/comercial/internal/config"
	"github.com/grupotelles/comercial/internal/errs"
	"github.com/grupotelles/comercial/internal/lib/job"
	"github.com/grupotelles/comercial/internal/lib/shell"
	"github.com/grupotelles/comercial/internal/lib/utils"
	"github.com/grupotelles/comercial/internal/supervisor"
	"github.com/im7mortal/kmutex"
	"github.com/pkg/errors"
	"github.com/rs/zerolog"
)

// DefaultLogLines is how many log lines are returned when none are asked for.
const DefaultLogLines = 100

// LogFileMissing is returned in place of log lines when the file is absent.
const LogFileMissing = "Arquivo de log não encontrado."

// alertQueue schedules operator alerts.
type alertQueue interface {
	EnqueueProcessAlert(ctx context.Context, p job.ProcessAlertPayload)
}

// ProcessSummary is one row of the process list.
type ProcessSummary struct {
	ID       int    `json:"id"`
	Name     string `json:"name"`
	Status   string `json:"status"`
	CPU      string `json:"cpu"`
	Memory   string `json:"memory"`
	Restarts int    `json:"restarts"`
	Path     string `json:"path"`
	Uptime   int64  `json:"uptime"`
	Folder   string `json:"folder"`
}

// ActionResult is the answer to a successful process action.
type ActionResult struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
}

// ProcessService manages the supervised applications and audits every
// mutating action.
type ProcessService struct {
	supervisor supervisor.Supervisor
	runner     shell.Runner
	audit      *audit.Log
	alerts     alertQueue
	locks      *kmutex.Kmutex
	cfg        config.ManagerConfig
	logger     *zerolog.Logger
}

func NewProcessService(
	sup supervisor.Supervisor,
	runner shell.Runner,
	auditLog *audit.Log,
	alerts alertQueue,
	cfg config.ManagerConfig,
	logger *zerolog.Logger,
) *ProcessService {
	return &ProcessService{
		supervisor: sup,
		runner:     runner,
		audit:      auditLog,
		alerts:     alerts,
		locks:      kmutex.New(),
		cfg:        cfg,
		logger:     logger,
	}
}

func summarize(p supervisor.Process) ProcessSummary {
	path := p.Cwd
	if path == "" {
		path = "N/A"
	}
	return ProcessSummary{
		ID:       p.ID,
		Name:     p.Name,
		Status:   p.Status,
		CPU:      strconv.FormatFloat(p.CPU, 'f', -1, 64) + "%",
		Memory:   fmt.Sprintf("%.2f MB", float64(p.Memory)/1024/1024),
		Restarts: p.Restarts,
		Path:     path,
		Uptime:   p.Uptime,
		Folder:   utils.LastFolder(p.Cwd, "---"),
	}
}

func (s *ProcessService) List(ctx context.Context) ([]ProcessSummary, error) {
	procs, err := s.supervisor.List(ctx)
	if err != nil {
		return nil, errs.NewOperationFailedError("Erro ao conectar ao PM2").WithDetails(err.Error())
	}
	out := make([]ProcessSummary, 0, len(procs))
	for _, p := range procs {
		out = append(out, summarize(p))
	}
	return out, nil
}

func (s *ProcessService) describe(ctx context.Context, target string) (*supervisor.Process, error) {
	proc, err := s.supervisor.Describe(ctx, target)
	if errors.Is(err, supervisor.ErrNotFound) {
		return nil, errs.NewNotFoundError("App não encontrado", true, nil)
	}
	if err != nil {
		return nil, errs.NewOperationFailedError("Erro ao conectar ao PM2").WithDetails(err.Error())
	}
	return proc, nil
}

// Describe returns the full record of one process.
func (s *ProcessService) Describe(ctx context.Context, target string) (*supervisor.Process, error) {
	return s.describe(ctx, target)
}

// Logs returns the last lines of the process' stdout or stderr log.
func (s *ProcessService) Logs(ctx context.Context, target string, lines int, kind string) ([]string, error) {
	if lines <= 0 {
		lines = DefaultLogLines
	}
	proc, err := s.describe(ctx, target)
	if err != nil {
		return nil, err
	}

	path := proc.OutLogPath
	if kind == "err" {
		path = proc.ErrLogPath
	}
	if path == "" || !isFile(path) {
		return []string{LogFileMissing}, nil
	}

	out, err := tailLines(path, lines)
	if err != nil {
		return nil, errs.NewOperationFailedError("Falha ao ler log").WithDetails(err.Error())
	}
	return out, nil
}

// Do applies action to target. "update" pulls or clones the working
// directory, installs dependencies and restarts; the others go straight to
// the supervisor.
func (s *ProcessService) Do(ctx context.Context, actionName, target, repoURL string) (*ActionResult, error) {
	target = strings.TrimSpace(target)
	if target == "" {
		return nil, errs.NewBadRequestError("Informe o ID.", true, nil, nil, nil)
	}
	action, err := supervisor.ParseAction(actionName)
	if err != nil {
		return nil, errs.NewBadRequestError("Ação inválida", true, nil, nil, nil)
	}
	if action == supervisor.ActionUpdate {
		return s.update(ctx, target, strings.TrimSpace(repoURL))
	}

	if err := s.supervisor.Do(ctx, action, target); err != nil {
		if errors.Is(err, supervisor.ErrNotFound) {
			return nil, errs.NewNotFoundError("App não encontrado", true, nil)
		}
		s.record(ctx, string(action), target, audit.StatusError, err.Error())
		return nil, errs.NewOperationFailedError(err.Error())
	}

	s.record(ctx, string(action), target, audit.StatusSuccess, "")
	return &ActionResult{Success: true, Message: fmt.Sprintf("Ação %s concluída", action)}, nil
}

// update runs to completion even when the caller disconnects. Each step is
// bounded by the update timeout.
func (s *ProcessService) update(ctx context.Context, target, repoURL string) (*ActionResult, error) {
	ctx = context.WithoutCancel(ctx)

	s.locks.Lock(target)
	defer s.locks.Unlock(target)

	proc, err := s.describe(ctx, target)
	if err != nil {
		return nil, err
	}
	dir := proc.Cwd

	switch {
	case isDir(filepath.Join(dir, ".git")):
		res, err := s.runner.Run(ctx, s.gitCommand(dir, "pull"))
		if err != nil {
			details := shell.Output(res, err)
			s.record(ctx, audit.ActionUpdate, target, audit.StatusError, details)
			return nil, errs.NewOperationFailedError("Erro no pull").WithDetails(details)
		}
	case repoURL != "":
		if strings.HasPrefix(repoURL, "-") || utils.HasControl(repoURL) {
			return nil, errs.NewBadRequestError("repoUrl inválido.", true, nil, nil, nil)
		}
		s.record(ctx, audit.ActionClone, target, audit.StatusStarted, repoURL)
		res, err := s.runner.Run(ctx, s.gitCommand(dir, "clone", repoURL, "."))
		if err != nil {
			details := shell.Output(res, err)
			s.record(ctx, audit.ActionClone, target, audit.StatusError, details)
			return nil, errs.NewOperationFailedError("Erro no clone").WithDetails(details)
		}
	default:
		return nil, errs.NewBadRequestError("Pasta sem .git e sem repoUrl fornecido.", true, nil, nil, nil)
	}

	s.record(ctx, audit.ActionUpdate, target, audit.StatusInfo, "Rodando npm install...")
	res, err := s.runner.Run(ctx, shell.Command{
		Name:    s.cfg.NpmPath,
		Args:    []string{"install"},
		Dir:     dir,
		Timeout: s.cfg.UpdateTimeout,
	})
	if err != nil {
		s.record(ctx, audit.ActionUpdate, target, audit.StatusError, "Falha no npm install")
		return nil, errs.NewOperationFailedError("Git OK, mas falha no npm install.").WithDetails(shell.Output(res, err))
	}

	if err := s.supervisor.Do(ctx, supervisor.ActionRestart, target); err != nil {
		s.record(ctx, audit.ActionUpdate, target, audit.StatusError, err.Error())
		return nil, errs.NewOperationFailedError("Update OK, mas falha ao reiniciar.").WithDetails(err.Error())
	}

	s.record(ctx, audit.ActionUpdate, target, audit.StatusSuccess, "Update completo")
	return &ActionResult{Success: true, Message: "Update e npm install realizados!"}, nil
}

func (s *ProcessService) gitCommand(dir string, args ...string) shell.Command {
	return shell.Command{Name: s.cfg.GitPath, Args: args, Dir: dir, Timeout: s.cfg.UpdateTimeout}
}

// record writes the audit line and alerts operators about failures and
// destructive actions. Audit write failures are logged, never returned.
func (s *ProcessService) record(ctx context.Context, action, target, status, details string) {
	if err := s.audit.Append(action, target, status, details); err != nil {
		s.logger.Error().Err(err).Str("action", action).Str("target", target).Msg("failed to write audit log")
	}

	if status != audit.StatusError && action != string(supervisor.ActionDelete) && action != string(supervisor.ActionStop) &&
		!(action == audit.ActionUpdate && status == audit.StatusSuccess) {
		return
	}
	if s.alerts == nil {
		return
	}
	s.alerts.EnqueueProcessAlert(context.WithoutCancel(ctx), job.ProcessAlertPayload{
		Action:     action,
		Target:     target,
		Status:     status,
		Details:    details,
		Host:       utils.Hostname(),
		OccurredAt: time.Now(),
	})
}

// Audit returns the newest audit lines first.
func (s *ProcessService) Audit() ([]string, error) {
	return s.audit.Recent(audit.DefaultRecent)
}

func isDir(path string) bool {
	info, err := os.Stat(path)
	return err == nil && info.IsDir()
}

// tailLines returns the last n lines of path, reading backwards in blocks so
// large logs are not loaded whole.
func tailLines(path string, n int) ([]string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	info, err := f.Stat()
	if err != nil {
		return nil, err
	}

	const block = 64 * 1024
	var (
		buf    []byte
		offset = info.Size()
	)
	for offset > 0 && strings.Count(strings.TrimRight(string(buf), "\r\n"), "\n") < n {
		size := int64(block)
		if offset < size {
			size = offset
		}
		offset -= size
		chunk := make([]byte, size)
		if _, err := f.ReadAt(chunk, offset); err != nil && err != io.EOF {
			return nil, err
		}
		buf = append(chunk, buf...)
	}

	text := strings.TrimSpace(string(buf))
	if text == "" {
		return []string{}, nil
	}
	lines := strings.Split(text, "\n")
	if len(lines) > n {
		lines = lines[len(lines)-n:]
	}
	for i, l := range lines {
		lines[i] = strings.TrimRight(l, "\r")
	}
	return lines, nil
}
