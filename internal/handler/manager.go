package handler

import (
	"github.com/grupotelles/comercial/internal/ports"
	"github.com/grupotelles/comercial/internal/server"
	"github.com/grupotelles/comercial/internal/service"
	"github.com/grupotelles/comercial/internal/supervisor"
	"github.com/labstack/echo/v4"
)

// LogsResponse carries log or audit lines.
type LogsResponse struct {
	Logs []string `json:"logs"`
}

// ProcessHandler exposes the process supervisor.
type ProcessHandler struct {
	Handler
	processes *service.ProcessService
}

func NewProcessHandler(s *server.Server, processes *service.ProcessService) *ProcessHandler {
	return &ProcessHandler{
		Handler:   NewHandler(s),
		processes: processes,
	}
}

func (h *ProcessHandler) List(c echo.Context, _ *NoRequest) ([]service.ProcessSummary, error) {
	return h.processes.List(c.Request().Context())
}

func (h *ProcessHandler) Describe(c echo.Context, req *TargetRequest) (*supervisor.Process, error) {
	return h.processes.Describe(c.Request().Context(), req.ID)
}

func (h *ProcessHandler) Logs(c echo.Context, req *LogsRequest) (*LogsResponse, error) {
	lines, err := h.processes.Logs(c.Request().Context(), req.ID, req.LineCount(), req.Type)
	if err != nil {
		return nil, err
	}
	return &LogsResponse{Logs: lines}, nil
}

func (h *ProcessHandler) Do(c echo.Context, req *ProcessActionRequest) (*service.ActionResult, error) {
	return h.processes.Do(c.Request().Context(), req.Action, string(req.ID), req.RepoURL)
}

func (h *ProcessHandler) Audit(c echo.Context, _ *NoRequest) (*LogsResponse, error) {
	lines, err := h.processes.Audit()
	if err != nil {
		return nil, err
	}
	return &LogsResponse{Logs: lines}, nil
}

// PortHandler exposes TCP port inspection.
type PortHandler struct {
	Handler
	ports *service.PortService
}

func NewPortHandler(s *server.Server, ports *service.PortService) *PortHandler {
	return &PortHandler{
		Handler: NewHandler(s),
		ports:   ports,
	}
}

func (h *PortHandler) List(c echo.Context, _ *NoRequest) ([]ports.Socket, error) {
	return h.ports.List(c.Request().Context())
}

func (h *PortHandler) Inspect(c echo.Context, req *PortRequest) (*service.PortUsage, error) {
	return h.ports.Inspect(c.Request().Context(), req.Port)
}

func (h *PortHandler) Kill(c echo.Context, req *PortRequest) (*service.PortKill, error) {
	return h.ports.Kill(c.Request().Context(), req.Port)
}

func (h *PortHandler) Owner(c echo.Context, req *PortRequest) (*service.PortOwner, error) {
	return h.ports.Owner(c.Request().Context(), req.Port)
}
