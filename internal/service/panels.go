package service

import (
	"context"

	"github.com/grupotelles/comercial/internal/database"
	"github.com/grupotelles/comercial/internal/errs"
	"github.com/grupotelles/comercial/internal/lib/utils"
	"github.com/grupotelles/comercial/internal/repository"
	"github.com/grupotelles/comercial/internal/sqlerr"
)

// BillingKPIs are the headline numbers of the billing panel. Pct* compare
// against the targets, Evolucao* against the comparison period.
type BillingKPIs struct {
	Faturamento           float64
	Volume                float64
	PrecoMedio            float64
	MetaValor             float64
	MetaVolume            float64
	MetaPrecoMedio        float64
	MesAnteriorValor      float64
	MesAnteriorPeso       float64
	PrecoMedioMesAnterior float64
	Carteira              float64
	CarteiraAnterior      float64

	PctFaturamento      float64
	PctFaturamentoMeta  float64
	PctVolume           float64
	PctPesoMeta         float64
	PctPrecoMedio       float64
	PctPrecoMedioMeta   float64
	EvolucaoFaturamento float64
	EvolucaoPeso        float64
	EvolucaoPreco       float64
	EvolucaoCarteira    float64
}

// Logistics summarises shipments of one period.
type Logistics struct {
	QtdEmbarques float64
	QtdClientes  float64
	QtdSKUs      float64
	Toneladas    float64
	EmbarquesDia float64
	DiasUteis    float64
}

type BillingLogistics struct {
	Atual    Logistics
	Anterior Logistics
}

// BillingPanel is the data of the billing page.
type BillingPanel struct {
	Titulo            string
	TituloComparativo string
	KPIs              BillingKPIs
	Logistica         BillingLogistics
	Resumo            *database.RowSet
}

// ProductionKPIs are the totals of the production panel.
type ProductionKPIs struct {
	TotalProducao       float64
	TotalHoras          float64
	TotalParadas        float64
	DiasTotais          float64
	ProdutividadeMedia  float64
	PercentualParadas   float64
	ComparativoProducao float64
	ComparativoParadas  float64
}

// ProductionPanel is the data of the production page.
type ProductionPanel struct {
	Titulo string
	KPIs   ProductionKPIs
	Rows   *database.RowSet
}

type PanelService struct {
	repos *repository.Repositories
}

func NewPanelService(repos *repository.Repositories) *PanelService {
	return &PanelService{repos: repos}
}

func checkPeriod(start, end string) error {
	a, err := utils.ParseISODate(start)
	if err != nil {
		return errs.NewBadRequestError("Período inválido.", true, nil,
			[]errs.FieldError{{Field: "startdate", Error: "must be a date in YYYY-MM-DD format"}}, nil)
	}
	b, err := utils.ParseISODate(end)
	if err != nil {
		return errs.NewBadRequestError("Período inválido.", true, nil,
			[]errs.FieldError{{Field: "enddate", Error: "must be a date in YYYY-MM-DD format"}}, nil)
	}
	if b.Before(a) {
		return errs.NewBadRequestError("A data final deve ser posterior à inicial.", true, nil, nil, nil)
	}
	return nil
}

// Billing rebuilds the billing snapshot for the period and computes the KPIs.
// A period inside one month compares with the previous month, any other
// period with the previous year.
func (s *PanelService) Billing(ctx context.Context, start, end string) (*BillingPanel, error) {
	if err := checkPeriod(start, end); err != nil {
		return nil, err
	}
	if err := s.repos.Panels.GenerateBilling(ctx, start, end); err != nil {
		return nil, sqlerr.HandleError(err)
	}

	snapshot, err := s.repos.Panels.BillingSnapshot(ctx)
	if err != nil {
		return nil, sqlerr.HandleError(err)
	}
	daily, err := s.repos.Panels.DailyBilling(ctx, start, end)
	if err != nil {
		return nil, sqlerr.HandleError(err)
	}

	panel := &BillingPanel{
		Titulo: utils.BRRange(start, end),
		Resumo: daily,
	}
	panel.KPIs, panel.Logistica, panel.TituloComparativo = billingKPIs(snapshot, utils.SameMonth(start, end))
	return panel, nil
}

func billingKPIs(rs *database.RowSet, singleMonth bool) (BillingKPIs, BillingLogistics, string) {
	v := func(column string) float64 { return number(rs, 0, column) }
	pick := func(month, year string) float64 {
		if singleMonth {
			return v(month)
		}
		return v(year)
	}

	title := "Ano Anterior"
	if singleMonth {
		title = "Mês Anterior"
	}

	k := BillingKPIs{
		Faturamento:           v("Faturamento"),
		Volume:                v("Peso"),
		PrecoMedio:            v("PrecoMedio"),
		MetaValor:             v("MetaValor"),
		MetaVolume:            v("MetaVolume"),
		MetaPrecoMedio:        v("MetaPrecoMedio"),
		MesAnteriorValor:      pick("FaturamentoMesAnterior", "FaturamentoAnterior"),
		MesAnteriorPeso:       pick("PesoMesAnterior", "PesoAnterior"),
		PrecoMedioMesAnterior: pick("PrecoMedioMesAnterior", "PrecoMedioAnterior"),
		Carteira:              v("CarteiraAtual"),
		CarteiraAnterior:      pick("CarteiraMesAnterior", "CarteiraAnterior"),
	}
	k.PctFaturamento = utils.Ratio(k.Faturamento, k.MetaValor)
	k.PctFaturamentoMeta = utils.Growth(k.Faturamento, k.MetaValor)
	k.PctVolume = utils.Ratio(k.Volume, k.MetaVolume)
	k.PctPesoMeta = utils.Growth(k.Volume, k.MetaVolume)
	k.PctPrecoMedio = utils.Growth(k.PrecoMedio, k.PrecoMedioMesAnterior)
	k.PctPrecoMedioMeta = utils.Growth(k.PrecoMedio, k.MetaPrecoMedio)
	k.EvolucaoFaturamento = utils.Growth(k.Faturamento, k.MesAnteriorValor)
	k.EvolucaoPeso = utils.Growth(k.Volume, k.MesAnteriorPeso)
	k.EvolucaoPreco = utils.Growth(k.PrecoMedio, k.PrecoMedioMesAnterior)
	k.EvolucaoCarteira = utils.Growth(k.Carteira, k.CarteiraAnterior)

	l := BillingLogistics{
		Atual: Logistics{
			QtdEmbarques: v("QtdEmbarquesAtual"),
			QtdClientes:  v("ClientesAtuais"),
			QtdSKUs:      v("SKUsAtuais"),
			Toneladas:    v("ToneladasAtual"),
			EmbarquesDia: v("EmbarquesPorDiaAtual"),
			DiasUteis:    v("QtdDiasUteisAtual"),
		},
		Anterior: Logistics{
			QtdEmbarques: pick("QtdEmbarquesMesAnterior", "QtdEmbarquesAnterior"),
			QtdClientes:  pick("ClientesMesAnterior", "ClientesAnteriores"),
			QtdSKUs:      pick("SKUsMesAnterior", "SKUsAnteriores"),
			Toneladas:    pick("ToneladasMesAnterior", "ToneladasAnterior"),
			EmbarquesDia: pick("EmbarquesPorDiaMesAnterior", "EmbarquesPorDiaAnterior"),
			DiasUteis:    pick("QtdDiasUteisMesAnterior", "QtdDiasUteisAnterior"),
		},
	}
	return k, l, title
}

// Production rebuilds the production summary and totals it.
func (s *PanelService) Production(ctx context.Context, start, end string) (*ProductionPanel, error) {
	if err := checkPeriod(start, end); err != nil {
		return nil, err
	}
	if err := s.repos.Panels.GenerateProduction(ctx, start, end); err != nil {
		return nil, sqlerr.HandleError(err)
	}

	rs, err := s.repos.Panels.Production(ctx, start, end)
	if err != nil {
		return nil, sqlerr.HandleError(err)
	}

	return &ProductionPanel{
		Titulo: "Produção de " + utils.BRRange(start, end),
		KPIs:   productionKPIs(rs),
		Rows:   rs,
	}, nil
}

func productionKPIs(rs *database.RowSet) ProductionKPIs {
	var k ProductionKPIs
	for i := range rs.Rows {
		k.TotalProducao += number(rs, i, "TotalProducao")
		k.TotalHoras += number(rs, i, "TotalHoras")
		k.TotalParadas += number(rs, i, "TotalParadas")
		k.DiasTotais += number(rs, i, "DiasTrabalhados")
		k.ComparativoProducao += number(rs, i, "ComparativoProducao")
		k.ComparativoParadas += number(rs, i, "ComparativoParadas")
	}
	if k.TotalHoras > 0 {
		k.ProdutividadeMedia = k.TotalProducao / k.TotalHoras
		k.PercentualParadas = k.TotalParadas / k.TotalHoras
	}
	return k
}
