package handler

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/grupotelles/comercial/internal/database"
	"github.com/grupotelles/comercial/internal/middleware"
	"github.com/grupotelles/comercial/internal/service"
	"github.com/grupotelles/comercial/internal/view"
	"github.com/labstack/echo/v4"
	"github.com/newrelic/go-agent/v3/newrelic"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// FormatCSV is the value of ?format= that downloads a report.
const FormatCSV = "csv"

// ReportJSON is the JSON rendition of a report table.
type ReportJSON struct {
	Titulo  string   `json:"titulo"`
	Periodo string   `json:"periodo,omitempty"`
	Colunas []string `json:"colunas"`
	Dados   [][]any  `json:"dados"`
}

// ReportPage is a report together with how its page is laid out.
type ReportPage struct {
	Report *service.Report
	Form   *view.Form
	Page   string
}

// page fills the chrome every template needs.
func page(c echo.Context, title, tab string, data any) view.Page {
	return view.Page{
		Title:       title,
		Usuario:     middleware.GetUser(c),
		PermissaoNF: middleware.HasInvoiceAccess(c),
		Aba:         tab,
		Data:        data,
	}
}

// PageResponseHandler renders a template with the handler result as data.
type PageResponseHandler struct {
	name  string
	title string
	tab   string
}

func NewPageResponseHandler(name, title, tab string) PageResponseHandler {
	return PageResponseHandler{name: name, title: title, tab: tab}
}

func (h PageResponseHandler) Handle(c echo.Context, result interface{}) error {
	return c.Render(http.StatusOK, h.name, page(c, h.title, h.tab, result))
}

func (h PageResponseHandler) GetOperation() string {
	return "handler_page"
}

func (h PageResponseHandler) AddAttributes(txn *newrelic.Transaction, result interface{}) {
	if txn != nil && result == nil {
		txn.AddAttribute("page.name", h.name)
	}
}

// ReportResponseHandler writes a *ReportPage as a page, as JSON for JSON
// clients or as a CSV download with ?format=csv.
type ReportResponseHandler struct{}

func (h ReportResponseHandler) Handle(c echo.Context, result interface{}) error {
	rp := result.(*ReportPage)
	r := rp.Report
	rows := r.Rows
	if rows == nil {
		rows = &database.RowSet{Columns: []string{}, Rows: [][]any{}}
	}

	if c.QueryParam("format") == FormatCSV {
		return writeCSV(c, r.Title, rows)
	}

	if middleware.WantsJSON(c) {
		return c.JSON(http.StatusOK, ReportJSON{
			Titulo:  r.Title,
			Periodo: r.Period,
			Colunas: rows.Columns,
			Dados:   rows.Rows,
		})
	}

	table := view.TableView{
		Columns:   rows.Columns,
		Rows:      rows.Rows,
		Form:      rp.Form,
		CSVURL:    csvURL(c),
		Note:      r.Period,
		CNPJIndex: rows.Index("CNPJ/CPF"),
		NFIndex:   rows.Index("NF"),
	}
	name := rp.Page
	if name == "" {
		name = view.PageReport
	}
	return c.Render(http.StatusOK, name, page(c, r.Title, r.Tab, table))
}

func (h ReportResponseHandler) GetOperation() string {
	return "handler_report"
}

func (h ReportResponseHandler) AddAttributes(txn *newrelic.Transaction, result interface{}) {
	if txn == nil {
		return
	}
	if rp, ok := result.(*ReportPage); ok && rp.Report != nil {
		txn.AddAttribute("report.title", rp.Report.Title)
		txn.AddAttribute("report.rows", rp.Report.Rows.Len())
	}
}

// csvURL links the CSV export of a GET page. Filtered POST pages have no
// stable URL to link.
func csvURL(c echo.Context) string {
	if c.Request().Method != http.MethodGet {
		return ""
	}
	q := c.Request().URL.Query()
	q.Set("format", FormatCSV)
	return c.Request().URL.Path + "?" + q.Encode()
}

// writeCSV sends rows as a semicolon separated file with a UTF-8 BOM, which
// is what spreadsheet software in pt-BR locales opens correctly.
func writeCSV(c echo.Context, title string, rows *database.RowSet) error {
	var buf bytes.Buffer
	buf.WriteString("\ufeff")

	w := csv.NewWriter(&buf)
	w.Comma = ';'
	if err := w.Write(rows.Columns); err != nil {
		return err
	}
	record := make([]string, len(rows.Columns))
	for _, row := range rows.Rows {
		for i, v := range row {
			record[i] = view.FormatCell(v)
		}
		if err := w.Write(record); err != nil {
			return err
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return err
	}

	c.Response().Header().Set(echo.HeaderContentDisposition,
		fmt.Sprintf(`attachment; filename="%s"`, csvFilename(title, time.Now())))
	return c.Blob(http.StatusOK, "text/csv; charset=utf-8", buf.Bytes())
}

var titleCaser = cases.Title(language.BrazilianPortuguese)

// csvFilename builds an ASCII file name out of a report title.
func csvFilename(title string, now time.Time) string {
	var b strings.Builder
	for _, word := range strings.Fields(titleCaser.String(title)) {
		for _, r := range word {
			if r < 128 && (r >= 'a' && r <= 'z' || r >= 'A' && r <= 'Z' || r >= '0' && r <= '9') {
				b.WriteRune(r)
			}
		}
	}
	name := b.String()
	if name == "" {
		name = "Relatorio"
	}
	return name + "_" + now.Format("20060102_150405") + ".csv"
}
