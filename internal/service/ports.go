package service

import (
	"context"
	"strconv"
	"strings"
	"time"

	"github.com/grupotelles/comercial/internal/audit"
	"github.com/grupotelles/comercial/internal/errs"
	"github.com/grupotelles/comercial/internal/lib/job"
	"github.com/grupotelles/comercial/internal/lib/utils"
	"github.com/grupotelles/comercial/internal/ports"
	"github.com/grupotelles/comercial/internal/supervisor"
	"github.com/rs/zerolog"
)

// PortUsage answers whether a port is bound and by which sockets.
type PortUsage struct {
	Used    bool           `json:"used"`
	Port    int            `json:"port"`
	Details []ports.Socket `json:"details,omitempty"`
}

// PortKill is the answer to a successful kill.
type PortKill struct {
	Success bool `json:"success"`
	Port    int  `json:"port"`
	PID     int  `json:"pid"`
}

// PortOwner tells whether a port belongs to a supervised application.
type PortOwner struct {
	PM2    bool   `json:"pm2"`
	ID     *int   `json:"id,omitempty"`
	Name   string `json:"name,omitempty"`
	Status string `json:"status,omitempty"`
}

type PortService struct {
	inspector  ports.Inspector
	supervisor supervisor.Supervisor
	audit      *audit.Log
	alerts     alertQueue
	logger     *zerolog.Logger
}

func NewPortService(
	inspector ports.Inspector,
	sup supervisor.Supervisor,
	auditLog *audit.Log,
	alerts alertQueue,
	logger *zerolog.Logger,
) *PortService {
	return &PortService{
		inspector:  inspector,
		supervisor: sup,
		audit:      auditLog,
		alerts:     alerts,
		logger:     logger,
	}
}

func parsePort(s string) (int, error) {
	port, err := ports.ParsePort(s)
	if err != nil {
		return 0, errs.NewBadRequestError("Porta inválida.", true, nil, nil, nil)
	}
	return port, nil
}

func (s *PortService) List(ctx context.Context) ([]ports.Socket, error) {
	sockets, err := s.inspector.List(ctx)
	if err != nil {
		return nil, errs.NewOperationFailedError("Falha ao listar portas").WithDetails(err.Error())
	}
	if sockets == nil {
		sockets = []ports.Socket{}
	}
	return sockets, nil
}

func (s *PortService) owners(ctx context.Context, port int) ([]ports.Socket, error) {
	sockets, err := s.List(ctx)
	if err != nil {
		return nil, err
	}
	return ports.Filter(sockets, port), nil
}

// Inspect reports the sockets bound to a port.
func (s *PortService) Inspect(ctx context.Context, raw string) (*PortUsage, error) {
	port, err := parsePort(raw)
	if err != nil {
		return nil, err
	}
	found, err := s.owners(ctx, port)
	if err != nil {
		return nil, err
	}
	if len(found) == 0 {
		return &PortUsage{Used: false, Port: port}, nil
	}
	return &PortUsage{Used: true, Port: port, Details: found}, nil
}

// Kill terminates the first process bound to the port.
func (s *PortService) Kill(ctx context.Context, raw string) (*PortKill, error) {
	port, err := parsePort(raw)
	if err != nil {
		return nil, err
	}
	found, err := s.owners(ctx, port)
	if err != nil {
		return nil, err
	}
	pid := firstPID(found)
	if pid == 0 {
		return nil, errs.NewNotFoundError("Porta não está em uso", true, nil)
	}

	target := strconv.Itoa(port)
	if err := s.inspector.Kill(ctx, pid); err != nil {
		s.record(ctx, target, audit.StatusError, err.Error())
		return nil, errs.NewOperationFailedError("Falha ao matar processo").WithDetails(err.Error())
	}

	s.record(ctx, target, audit.StatusSuccess, "PID "+strconv.Itoa(pid))
	return &PortKill{Success: true, Port: port, PID: pid}, nil
}

// Owner finds the supervised application listening on the port, matching
// the socket PID first and falling back to the port appearing in the
// application's environment.
func (s *PortService) Owner(ctx context.Context, raw string) (*PortOwner, error) {
	port, err := parsePort(raw)
	if err != nil {
		return nil, err
	}
	found, err := s.owners(ctx, port)
	if err != nil {
		return nil, err
	}
	procs, err := s.supervisor.List(ctx)
	if err != nil {
		return nil, errs.NewOperationFailedError("Erro ao conectar ao PM2").WithDetails(err.Error())
	}

	pids := make(map[int]bool, len(found))
	for _, sock := range found {
		if sock.PID > 0 {
			pids[sock.PID] = true
		}
	}
	for _, p := range procs {
		if p.PID > 0 && pids[p.PID] {
			return owner(p), nil
		}
	}

	needle := ":" + strconv.Itoa(port)
	quoted := `"` + strconv.Itoa(port) + `"`
	for _, p := range procs {
		env := string(p.Env)
		if strings.Contains(env, needle) || strings.Contains(env, quoted) {
			return owner(p), nil
		}
	}
	return &PortOwner{PM2: false}, nil
}

func owner(p supervisor.Process) *PortOwner {
	id := p.ID
	return &PortOwner{PM2: true, ID: &id, Name: p.Name, Status: p.Status}
}

func firstPID(sockets []ports.Socket) int {
	for _, s := range sockets {
		if s.PID > 0 {
			return s.PID
		}
	}
	return 0
}

func (s *PortService) record(ctx context.Context, port, status, details string) {
	if err := s.audit.Append(audit.ActionKillPort, port, status, details); err != nil {
		s.logger.Error().Err(err).Str("port", port).Msg("failed to write audit log")
	}
	if s.alerts == nil {
		return
	}
	s.alerts.EnqueueProcessAlert(context.WithoutCancel(ctx), job.ProcessAlertPayload{
		Action:     audit.ActionKillPort,
		Target:     port,
		Status:     status,
		Details:    details,
		Host:       utils.Hostname(),
		OccurredAt: time.Now(),
	})
}
