package handler

import (
	"encoding/json"
	"strconv"
	"strings"

	"github.com/grupotelles/comercial/internal/service"
	"github.com/grupotelles/comercial/internal/validation"
	"github.com/pkg/errors"
)

// Requests bind from path, query, form and JSON alike: the dashboard posts
// forms while the page scripts post JSON.

type LoginRequest struct {
	Usuario string `form:"usuario" json:"usuario"`
	Senha   string `form:"senha" json:"senha"`
}

func (r *LoginRequest) Validate() error { return nil }

type StockBalanceRequest struct {
	Item     string `query:"item" form:"item" json:"item"`
	Deposito string `query:"deposito" form:"deposito" json:"deposito"`
}

func (r *StockBalanceRequest) Validate() error { return nil }

type PositionRequest struct {
	Data string `query:"dataPosicaoEstoque" form:"dataPosicaoEstoque" json:"dataPosicaoEstoque"`
}

func (r *PositionRequest) Validate() error { return nil }

type MachineStatusRequest struct {
	MaquinaID string `param:"maquinaId" validate:"required"`
}

func (r *MachineStatusRequest) Validate() error { return validation.Struct(r) }

type MaintenanceRequest struct {
	Date    string `form:"date" json:"date"`
	Machine string `form:"machine" json:"machine"`
}

func (r *MaintenanceRequest) Validate() error { return nil }

type OrderDetailsRequest struct {
	Date    string `form:"date" json:"date"`
	Machine string `form:"machine" json:"machine"`
	Filtro  string `form:"filtro" json:"filtro"`
	Entrega string `form:"entrega" json:"entrega"`
	Familia string `form:"familia" json:"familia"`
	Ativo   string `form:"ativo" json:"ativo"`
	Atraso  string `form:"atraso" json:"atraso"`
}

func (r *OrderDetailsRequest) Validate() error { return nil }

type ChartRequest struct {
	StartDate string `form:"startDate" json:"startDate" validate:"omitempty,isodate"`
	EndDate   string `form:"endDate" json:"endDate" validate:"omitempty,isodate"`
	TipoData  string `form:"tipoData" json:"tipoData"`
	Filtro    string `form:"filtroSelect" json:"filtroSelect"`
	Entrega   string `form:"tipoEntrega" json:"tipoEntrega"`
	Familia   string `form:"familia" json:"familia"`
	Ativo     string `form:"ativo" json:"ativo"`
	Atraso    string `form:"atraso" json:"atraso"`
}

func (r *ChartRequest) Validate() error { return validation.Struct(r) }

type PeriodRequest struct {
	StartDate string `form:"startDate" json:"startDate" validate:"required,isodate"`
	EndDate   string `form:"endDate" json:"endDate" validate:"required,isodate"`
}

func (r *PeriodRequest) Validate() error { return validation.Struct(r) }

type IntegrationRequest struct {
	StartDate     string `form:"startDate" json:"startDate" validate:"required,isodate"`
	EndDate       string `form:"endDate" json:"endDate" validate:"required,isodate"`
	Cliente       string `form:"cliente" json:"cliente"`
	Produto       string `form:"produto" json:"produto"`
	Representante string `form:"representante" json:"representante"`
	Pedido        string `form:"pedido" json:"pedido"`
	Agendamento   string `form:"agendamento" json:"agendamento"`
	Triangular    string `form:"triangular" json:"triangular"`
	Status        string `form:"status" json:"status"`
}

func (r *IntegrationRequest) Validate() error { return validation.Struct(r) }

type ItemSearchRequest struct {
	Cliente string `form:"cliente" json:"cliente"`
	Produto string `form:"produto" json:"produto"`
	Repres  string `form:"repres" json:"repres"`
}

func (r *ItemSearchRequest) Validate() error { return nil }

type ItemStatusRequest struct {
	Cliente string `form:"cliente" json:"cliente"`
	Item    string `form:"item" json:"item"`
	Pedido  string `form:"pedido" json:"pedido"`
}

func (r *ItemStatusRequest) Validate() error { return nil }

type OrderWeightRequest struct {
	Item   string `form:"item" json:"item"`
	Pedido string `form:"pedido" json:"pedido"`
}

func (r *OrderWeightRequest) Validate() error { return nil }

type FGVRequest struct {
	DataInicio string `query:"dataInicio" validate:"required,isodate"`
	DataFim    string `query:"dataFim" validate:"required,isodate"`
}

func (r *FGVRequest) Validate() error { return validation.Struct(r) }

type CatalogReportRequest struct {
	TipoRelatorio string `form:"tipoRelatorio" json:"tipoRelatorio"`
	ColunaData    string `form:"colunaData" json:"colunaData"`
	DataInicio    string `form:"dataInicio" json:"dataInicio" validate:"omitempty,isodate"`
	DataFim       string `form:"dataFim" json:"dataFim" validate:"omitempty,isodate"`
}

func (r *CatalogReportRequest) Validate() error { return validation.Struct(r) }

type ObservationRequest struct {
	Pedido     string `form:"pedido" json:"pedido"`
	Observacao string `form:"observacao" json:"observacao"`
}

func (r *ObservationRequest) Validate() error { return nil }

// Complete reports whether both fields carry text.
func (r *ObservationRequest) Complete() bool {
	return strings.TrimSpace(r.Pedido) != "" && strings.TrimSpace(r.Observacao) != ""
}

type InvoiceSearchRequest struct {
	Cliente       string `form:"cliente" json:"cliente"`
	Representante string `form:"representante" json:"representante"`
	NF            string `form:"nf" json:"nf"`
	CNPJ          string `form:"cnpj" json:"cnpj"`
	Inadimplente  string `form:"inadimplente" json:"inadimplente"`
	Status        string `form:"status" json:"status"`
}

func (r *InvoiceSearchRequest) Validate() error { return nil }

type InvoiceRequest struct {
	CNPJ string `param:"cnpj" form:"cnpj" json:"cnpj" validate:"required"`
	NF   string `param:"nf" form:"nf" json:"nf" validate:"required"`
}

func (r *InvoiceRequest) Validate() error { return validation.Struct(r) }

type DownloadRequest struct {
	Path string `query:"path" validate:"required"`
}

func (r *DownloadRequest) Validate() error { return validation.Struct(r) }

// Manager requests.

type TargetRequest struct {
	ID string `param:"id" validate:"required"`
}

func (r *TargetRequest) Validate() error { return validation.Struct(r) }

// MaxLogLines caps how many lines one logs request may ask for.
const MaxLogLines = 5000

type LogsRequest struct {
	ID    string `param:"id" validate:"required"`
	Lines string `query:"lines"`
	Type  string `query:"type" validate:"omitempty,oneof=out err"`
}

func (r *LogsRequest) Validate() error { return validation.Struct(r) }

// LineCount returns the requested number of lines. Anything that is not a
// positive number falls back to the default; large values are capped.
func (r *LogsRequest) LineCount() int {
	n, err := strconv.Atoi(strings.TrimSpace(r.Lines))
	if err != nil || n <= 0 {
		return service.DefaultLogLines
	}
	return min(n, MaxLogLines)
}

// ProcessID names a supervised process by its numeric id or its name. JSON
// clients send either a number or a string.
type ProcessID string

func (id *ProcessID) UnmarshalJSON(data []byte) error {
	if string(data) == "null" {
		*id = ""
		return nil
	}
	if len(data) > 0 && data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*id = ProcessID(s)
		return nil
	}

	var n json.Number
	if err := json.Unmarshal(data, &n); err != nil {
		return errors.New("id must be a number or a string")
	}
	*id = ProcessID(n.String())
	return nil
}

type ProcessActionRequest struct {
	Action  string    `param:"action"`
	ID      ProcessID `json:"id" form:"id"`
	RepoURL string    `json:"repoUrl" form:"repoUrl"`
}

func (r *ProcessActionRequest) Validate() error { return nil }

type PortRequest struct {
	Port string `param:"port"`
}

func (r *PortRequest) Validate() error { return nil }
