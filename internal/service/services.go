package service

import (
	"context"

	"github.com/grupotelles/comercial/internal/audit"
	"github.com/grupotelles/comercial/internal/lib/directory"
	"github.com/grupotelles/comercial/internal/lib/job"
	"github.com/grupotelles/comercial/internal/permission"
	"github.com/grupotelles/comercial/internal/ports"
	"github.com/grupotelles/comercial/internal/repository"
	"github.com/grupotelles/comercial/internal/server"
	"github.com/grupotelles/comercial/internal/session"
	"github.com/grupotelles/comercial/internal/supervisor"
)

// Services is the dashboard's service set.
type Services struct {
	Auth        *AuthService
	Reports     *ReportService
	MachineLoad *MachineLoadService
	Panels      *PanelService
	Invoices    *InvoiceService
	Catalog     *CatalogService

	Directory *directory.Client
	Sessions  *session.Manager
	AllowList *permission.AllowList
}

func NewService(s *server.Server, repos *repository.Repositories) (*Services, error) {
	cfg := s.Config

	dir := directory.NewClient(directory.Config{
		DirectoryURL: cfg.Auth.DirectoryURL,
		InvoicesURL:  cfg.Invoices.APIURL,
		Company:      cfg.Invoices.Company,
		Timeout:      cfg.Auth.RequestTimeout,
		InsecureTLS:  cfg.Auth.InsecureTLS,
	}, s.Logger)

	var store session.Store
	if s.RedisAvailable {
		store = session.NewRedisStore(s.Redis)
	} else {
		s.Logger.Warn().Msg("sessions kept in memory, they will not survive a restart")
		store = session.NewMemoryStore()
	}
	sessions := session.NewManager(store, session.Options{
		CookieName: cfg.Auth.CookieName,
		Secret:     cfg.Auth.SecretKey,
		TTL:        cfg.Auth.SessionTTL,
		Secure:     cfg.Auth.CookieSecure,
	})

	allow := permission.NewAllowList(cfg.Auth.InvoiceUsersFile, s.Logger)
	if err := allow.Start(context.Background()); err != nil {
		s.Logger.Warn().Err(err).Str("file", cfg.Auth.InvoiceUsersFile).Msg("invoice allow-list not watched")
	}

	return &Services{
		Auth:        NewAuthService(dir, sessions, allow, s.Logger),
		Reports:     NewReportService(repos),
		MachineLoad: NewMachineLoadService(repos),
		Panels:      NewPanelService(repos),
		Invoices:    NewInvoiceService(repos, dir, cfg.Invoices, s.Logger),
		Catalog:     NewCatalogService(repos),
		Directory:   dir,
		Sessions:    sessions,
		AllowList:   allow,
	}, nil
}

// Close stops the allow-list watcher.
func (s *Services) Close() {
	s.AllowList.Stop()
}

// ManagerServices is the process manager's service set.
type ManagerServices struct {
	Processes *ProcessService
	Ports     *PortService
	Job       *job.JobService
}

func NewManagerService(s *server.Server) *ManagerServices {
	cfg := s.Config.Manager

	sup := supervisor.NewPM2(s.Runner, cfg.PM2Path, s.Logger)
	auditLog := audit.New(cfg.AuditLogPath)

	return &ManagerServices{
		Processes: NewProcessService(sup, s.Runner, auditLog, s.Job, cfg, s.Logger),
		Ports:     NewPortService(ports.NewSystemInspector(s.Runner, s.Logger), sup, auditLog, s.Job, s.Logger),
		Job:       s.Job,
	}
}
