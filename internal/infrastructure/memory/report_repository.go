package memory

import (
	"context"
	"sort"
	"time"

	"github.com/shopspring/decimal"

	"github.com/jhoicas/Ventas-api/internal/domain/entity"
	"github.com/jhoicas/Ventas-api/internal/domain/repository"
)

var _ repository.SalesReportRepository = (*SalesReportRepo)(nil)

// SalesReportRepo estadísticas calculadas sobre las facturas confirmadas.
type SalesReportRepo struct {
	s *Store
}

// NewSalesReportRepository construye el repositorio de reportes.
func NewSalesReportRepository(s *Store) *SalesReportRepo {
	return &SalesReportRepo{s: s}
}

// invoicesInRange facturas no canceladas con CreatedAt en [from, to).
func (r *SalesReportRepo) invoicesInRange(from, to time.Time) []*entity.Invoice {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	var out []*entity.Invoice
	for _, inv := range r.s.invoices {
		if inv.Status == entity.InvoiceStatusCancelled {
			continue
		}
		if inv.CreatedAt.Before(from) || !inv.CreatedAt.Before(to) {
			continue
		}
		out = append(out, copyInvoice(inv))
	}
	return out
}

func (r *SalesReportRepo) Summary(_ context.Context, from, to time.Time) (repository.SalesSummary, error) {
	var sum repository.SalesSummary
	for _, inv := range r.invoicesInRange(from, to) {
		sum.InvoiceCount++
		sum.RevenueCents += inv.SubtotalCents
		for _, it := range inv.Items {
			sum.UnitsSold += it.Quantity
			sum.CostCents += it.UnitCostCents * it.Quantity
		}
	}
	sum.GrossMarginPct = marginPct(sum.RevenueCents, sum.CostCents)
	return sum, nil
}

func (r *SalesReportRepo) TopProducts(_ context.Context, from, to time.Time, limit int) ([]repository.TopProductResult, error) {
	byID := make(map[string]*repository.TopProductResult)
	for _, inv := range r.invoicesInRange(from, to) {
		for _, it := range inv.Items {
			tp, ok := byID[it.ProductID]
			if !ok {
				tp = &repository.TopProductResult{ProductID: it.ProductID, SKU: it.SKU, ProductName: it.ProductName}
				byID[it.ProductID] = tp
			}
			tp.UnitsSold += it.Quantity
			tp.RevenueCents += it.SubtotalCents
		}
	}
	out := make([]repository.TopProductResult, 0, len(byID))
	for _, tp := range byID {
		out = append(out, *tp)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].RevenueCents != out[j].RevenueCents {
			return out[i].RevenueCents > out[j].RevenueCents
		}
		return out[i].ProductID < out[j].ProductID
	})
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

// marginPct (ingresos - costo) / ingresos * 100 con dos decimales; cero sin ingresos.
func marginPct(revenue, cost int64) decimal.Decimal {
	if revenue == 0 {
		return decimal.Zero
	}
	rev := decimal.NewFromInt(revenue)
	return rev.Sub(decimal.NewFromInt(cost)).Div(rev).Mul(decimal.NewFromInt(100)).Round(2)
}
