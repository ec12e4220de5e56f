package handler

import (
	"fmt"
	"net/http"
	"net/url"
	"path/filepath"

	"github.com/grupotelles/comercial/internal/lib/utils"
	"github.com/grupotelles/comercial/internal/repository"
	"github.com/grupotelles/comercial/internal/server"
	"github.com/grupotelles/comercial/internal/service"
	"github.com/grupotelles/comercial/internal/validation"
	"github.com/grupotelles/comercial/internal/view"
	"github.com/labstack/echo/v4"
)

// InvoiceHandler serves invoice search and PDF retrieval.
type InvoiceHandler struct {
	Handler
	invoices *service.InvoiceService
}

func NewInvoiceHandler(s *server.Server, invoices *service.InvoiceService) *InvoiceHandler {
	return &InvoiceHandler{
		Handler:  NewHandler(s),
		invoices: invoices,
	}
}

func (h *InvoiceHandler) Search(c echo.Context, req *InvoiceSearchRequest) (*ReportPage, error) {
	r, err := h.invoices.Search(c.Request().Context(), repository.InvoiceFilter{
		Cliente:       req.Cliente,
		Representante: req.Representante,
		NF:            req.NF,
		CNPJ:          req.CNPJ,
		Inadimplente:  req.Inadimplente,
		Status:        req.Status,
	})
	if err != nil {
		return nil, err
	}
	return &ReportPage{Report: r, Page: view.PageInvoices}, nil
}

// Download prepares the PDFs of one invoice and shows where to fetch them.
func (h *InvoiceHandler) Download(c echo.Context, req *InvoiceRequest) (*view.DownloadView, error) {
	files, err := h.invoices.Prepare(c.Request().Context(), req.CNPJ, req.NF)
	if err != nil {
		return nil, err
	}
	return &view.DownloadView{
		Cliente:    files.Cliente,
		CNPJ:       files.CNPJ,
		Numero:     files.Numero,
		TemNota:    view.YesNo(files.HasNote),
		TemBoleto:  view.YesNo(files.HasSlip),
		LinkNota:   files.NoteURL,
		LinkBoleto: files.SlipURL,
	}, nil
}

// DownloadManual turns the manual form into the canonical download URL.
func (h *InvoiceHandler) DownloadManual(c echo.Context) error {
	req := new(InvoiceRequest)
	if err := validation.BindAndValidate(c, req); err != nil {
		return err
	}
	return c.Redirect(http.StatusFound, fmt.Sprintf("%s/baixar_pdf/%s/%s",
		view.BasePath, url.PathEscape(utils.DigitsOnly(req.CNPJ)), url.PathEscape(utils.DigitsOnly(req.NF))))
}

// File streams a PDF from the invoice folder.
func (h *InvoiceHandler) File(c echo.Context) error {
	req := new(DownloadRequest)
	if err := validation.BindAndValidate(c, req); err != nil {
		return err
	}
	path, err := h.invoices.ResolveDownload(req.Path)
	if err != nil {
		return err
	}
	return c.Attachment(path, filepath.Base(path))
}
