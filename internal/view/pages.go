package view

// Form is a filter form rendered above a table.
type Form struct {
	Action string
	Fields []Field
}

// Field is one form input. Type is an HTML input type.
type Field struct {
	Name  string
	Label string
	Type  string
	Value string
}

// TableView is the data of PageReport and PageInvoices.
type TableView struct {
	Columns []string
	Rows    [][]any
	Form    *Form
	CSVURL  string
	Note    string

	// Invoice listings link every row to its PDF page.
	CNPJIndex int
	NFIndex   int
}

// ErrorView is the data of PageError.
type ErrorView struct {
	Code    int
	Title   string
	Message string
	Detail  string
}

// LoginView is the data of PageLogin.
type LoginView struct {
	Usuario string
	Erro    string
	Detalhe string
}

// DownloadView is the data of PageDownload.
type DownloadView struct {
	Cliente    string
	CNPJ       string
	Numero     string
	TemNota    string
	TemBoleto  string
	LinkNota   string
	LinkBoleto string
}

// YesNo renders a flag the way the invoice page shows it.
func YesNo(b bool) string {
	if b {
		return "Sim"
	}
	return "Não"
}
