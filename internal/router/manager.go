package router

import (
	"net/http"

	"github.com/grupotelles/comercial/internal/handler"
	"github.com/labstack/echo/v4"
)

func registerManagerRoutes(r *echo.Echo, h *handler.ManagerHandlers) {
	base := h.Health.Handler
	p := h.Processes

	r.GET("/list", handler.Handle(base, p.List, http.StatusOK, handler.NewRequest[handler.NoRequest]))
	r.GET("/describe/:id", handler.Handle(base, p.Describe, http.StatusOK, handler.NewRequest[handler.TargetRequest]))
	r.GET("/logs/:id", handler.Handle(base, p.Logs, http.StatusOK, handler.NewRequest[handler.LogsRequest]))
	r.POST("/process/:action", handler.Handle(base, p.Do, http.StatusOK, handler.NewRequest[handler.ProcessActionRequest]))
	r.GET("/view-audit", handler.Handle(base, p.Audit, http.StatusOK, handler.NewRequest[handler.NoRequest]))

	ports := h.Ports
	r.GET("/ports", handler.Handle(base, ports.List, http.StatusOK, handler.NewRequest[handler.NoRequest]))
	r.GET("/ports/:port", handler.Handle(base, ports.Inspect, http.StatusOK, handler.NewRequest[handler.PortRequest]))
	r.DELETE("/ports/:port", handler.Handle(base, ports.Kill, http.StatusOK, handler.NewRequest[handler.PortRequest]))
	r.GET("/ports/:port/pm2", handler.Handle(base, ports.Owner, http.StatusOK, handler.NewRequest[handler.PortRequest]))
}
