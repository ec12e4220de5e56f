package view

import (
	"bytes"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestRenderer(t *testing.T) *Renderer {
	t.Helper()
	r, err := New()
	require.NoError(t, err)
	return r
}

func TestAllPagesParse(t *testing.T) {
	r := newTestRenderer(t)
	for _, p := range pages {
		assert.True(t, r.Has(p), p)
	}
	assert.False(t, r.Has("missing"))
}

func TestRenderReportTable(t *testing.T) {
	r := newTestRenderer(t)

	var buf bytes.Buffer
	err := r.Render(&buf, PageReport, Page{
		Title:   "Saldo Expedição - TRIMBOX",
		Usuario: "JOAO",
		Aba:     "Expedição",
		Data: TableView{
			Columns: []string{"Item", "Saldo"},
			Rows:    [][]any{{"<CX-01>", decimal.RequireFromString("1234.5")}},
			CSVURL:  "/comercial/consulta-saldo-exp?format=csv",
		},
	}, nil)
	require.NoError(t, err)

	html := buf.String()
	assert.Contains(t, html, "Saldo Expedição - TRIMBOX")
	assert.Contains(t, html, "&lt;CX-01&gt;")
	assert.Contains(t, html, "1.234,50")
	assert.Contains(t, html, "Exportar CSV")
	assert.Contains(t, html, `href="/comercial/logout"`)
}

func TestRenderLoginWithoutNav(t *testing.T) {
	r := newTestRenderer(t)

	var buf bytes.Buffer
	err := r.Render(&buf, PageLogin, Page{
		Title: "Login",
		Data:  LoginView{Erro: "Usuário ou senha inválidos", Detalhe: "Credenciais inválidas"},
	}, nil)
	require.NoError(t, err)

	assert.Contains(t, buf.String(), "Usuário ou senha inválidos")
	assert.Contains(t, buf.String(), "Credenciais inválidas")
	assert.NotContains(t, buf.String(), "/logout")
}

func TestRenderErrorPage(t *testing.T) {
	r := newTestRenderer(t)

	var buf bytes.Buffer
	err := r.Render(&buf, PageError, Page{Data: ErrorView{Code: 404, Message: "Máquina não encontrada."}}, nil)
	require.NoError(t, err)
	assert.Contains(t, buf.String(), "404")
	assert.Contains(t, buf.String(), "Máquina não encontrada.")
}

func TestRenderUnknownPage(t *testing.T) {
	r := newTestRenderer(t)
	assert.Error(t, r.Render(&bytes.Buffer{}, "nope", nil, nil))
}

func TestFormatting(t *testing.T) {
	assert.Equal(t, "1.234,57", FormatNumber(1234.567, 2))
	assert.Equal(t, "R$ 10,00", FormatCurrency(10))
	assert.Equal(t, "-12,5%", FormatPercent(-12.5))
	assert.Equal(t, "3", FormatCell(decimal.NewFromInt(3)))
	assert.Equal(t, "2,25", FormatCell(2.25))
	assert.Equal(t, "Sim", FormatCell(true))
	assert.Equal(t, "", FormatCell(nil))
	assert.Equal(t, "Não", YesNo(false))
}
