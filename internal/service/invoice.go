package service

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/grupotelles/comercial/internal/config"
	"github.com/grupotelles/comercial/internal/errs"
	"github.com/grupotelles/comercial/internal/lib/utils"
	"github.com/grupotelles/comercial/internal/repository"
	"github.com/grupotelles/comercial/internal/sqlerr"
	"github.com/rs/zerolog"
)

// invoiceAPI is what the invoice flow needs from the intranet file service.
type invoiceAPI interface {
	RequestInvoice(ctx context.Context, cnpj, nf string) error
	FileURL(path string) string
}

// InvoiceFiles describes the PDFs available for one invoice.
type InvoiceFiles struct {
	Cliente   string
	CNPJ      string
	Numero    string
	HasNote   bool
	HasSlip   bool
	NoteURL   string
	SlipURL   string
	NotePath  string
	SlipPath  string
	Attempted int
}

type InvoiceService struct {
	repos  *repository.Repositories
	api    invoiceAPI
	cfg    config.InvoicesConfig
	logger *zerolog.Logger
}

func NewInvoiceService(repos *repository.Repositories, api invoiceAPI, cfg config.InvoicesConfig, logger *zerolog.Logger) *InvoiceService {
	return &InvoiceService{repos: repos, api: api, cfg: cfg, logger: logger}
}

// Search finds invoices by substring filters.
func (s *InvoiceService) Search(ctx context.Context, f repository.InvoiceFilter) (*Report, error) {
	rs, err := s.repos.Invoices.Search(ctx, f)
	return report("Notas Fiscais Encontradas", "Notas", rs, err)
}

// Paths returns where the file service drops the invoice and bank slip PDFs.
func (s *InvoiceService) Paths(cnpj, nf string) (note, slip string) {
	note = filepath.Join(s.cfg.RootDir, "nota"+cnpj, "nota"+nf+".pdf")
	slip = filepath.Join(s.cfg.RootDir, "boleto"+cnpj, "boleto"+nf+".pdf")
	return note, slip
}

// Prepare makes sure the invoice PDF exists. When it does not, the file
// service is asked to export it and the folder is polled until it appears or
// the attempts run out. A missing PDF after polling is not an error: the page
// reports it.
func (s *InvoiceService) Prepare(ctx context.Context, cnpj, nf string) (*InvoiceFiles, error) {
	cnpj = utils.DigitsOnly(cnpj)
	nf = utils.DigitsOnly(nf)
	if cnpj == "" || nf == "" {
		return nil, errs.NewBadRequestError("CNPJ e número da nota são obrigatórios.", true, nil, nil, nil)
	}

	files := s.check(cnpj, nf)
	if !files.HasNote {
		if err := s.api.RequestInvoice(ctx, cnpj, nf); err != nil {
			return nil, errs.NewBadGatewayError("Falha ao solicitar a nota fiscal.").WithDetails(err.Error())
		}

		for files.Attempted < s.cfg.PollAttempts && !files.HasNote {
			if err := sleepContext(ctx, s.cfg.PollInterval); err != nil {
				return nil, err
			}
			attempted := files.Attempted + 1
			files = s.check(cnpj, nf)
			files.Attempted = attempted
			s.logger.Debug().Int("attempt", attempted).Bool("available", files.HasNote).Str("nf", nf).Msg("waiting for invoice pdf")
		}
	}

	cliente, err := s.repos.Invoices.Client(ctx, cnpj, nf)
	if err != nil {
		return nil, sqlerr.HandleError(err)
	}
	if cliente == "" {
		cliente = "Não encontrado"
	}
	files.Cliente = cliente
	return files, nil
}

func (s *InvoiceService) check(cnpj, nf string) *InvoiceFiles {
	note, slip := s.Paths(cnpj, nf)
	files := &InvoiceFiles{
		CNPJ:     cnpj,
		Numero:   nf,
		NotePath: note,
		SlipPath: slip,
		HasNote:  isFile(note),
		HasSlip:  isFile(slip),
	}
	if files.HasNote {
		files.NoteURL = s.api.FileURL(filepath.ToSlash(note))
	}
	if files.HasSlip {
		files.SlipURL = s.api.FileURL(filepath.ToSlash(slip))
	}
	return files
}

// ResolveDownload returns the cleaned path of a file under the invoice root.
// Anything outside the root, missing or not a regular file is a 404.
func (s *InvoiceService) ResolveDownload(path string) (string, error) {
	notFound := errs.NewNotFoundError("Arquivo não encontrado.", true, nil)
	if strings.TrimSpace(path) == "" {
		return "", notFound
	}

	root, err := filepath.Abs(s.cfg.RootDir)
	if err != nil {
		return "", notFound
	}
	target, err := filepath.Abs(filepath.FromSlash(path))
	if err != nil {
		return "", notFound
	}

	rel, err := filepath.Rel(root, target)
	if err != nil || rel == "." || rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
		return "", notFound
	}
	if !isFile(target) {
		return "", notFound
	}
	return target, nil
}

func isFile(path string) bool {
	info, err := os.Stat(path)
	return err == nil && info.Mode().IsRegular()
}

func sleepContext(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
