package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/jhoicas/Ventas-api/internal/domain/repository"
)

var _ repository.SalesReportRepository = (*SalesReportRepo)(nil)

// SalesReportRepo consultas de solo lectura sobre facturas no canceladas.
type SalesReportRepo struct {
	pool *pgxpool.Pool
}

// NewSalesReportRepository construye el repositorio de reportes.
func NewSalesReportRepository(pool *pgxpool.Pool) *SalesReportRepo {
	return &SalesReportRepo{pool: pool}
}

// Summary agrega conteo, unidades, ingresos netos de impuesto, costo y margen bruto en [from, to).
// El margen se calcula en NUMERIC y llega como decimal.Decimal por el codec registrado en el pool.
func (r *SalesReportRepo) Summary(ctx context.Context, from, to time.Time) (repository.SalesSummary, error) {
	const q = `
		WITH inv AS (
			SELECT id, subtotal_cents
			FROM   invoices
			WHERE  status <> 'CANCELLED'
			  AND  created_at >= $1
			  AND  created_at <  $2
		),
		lines AS (
			SELECT COALESCE(SUM(it.quantity), 0)::BIGINT                      AS units,
			       COALESCE(SUM(it.quantity * it.unit_cost_cents), 0)::BIGINT AS cost
			FROM   invoice_items it
			JOIN   inv ON inv.id = it.invoice_id
		),
		totals AS (
			SELECT COUNT(*)                                 AS invoice_count,
			       COALESCE(SUM(subtotal_cents), 0)::BIGINT AS revenue
			FROM   inv
		)
		SELECT t.invoice_count,
		       l.units,
		       t.revenue,
		       l.cost,
		       CASE WHEN t.revenue = 0 THEN 0::NUMERIC
		            ELSE ROUND((t.revenue - l.cost)::NUMERIC * 100 / t.revenue, 2)
		       END AS gross_margin_pct
		FROM   totals t CROSS JOIN lines l`

	var s repository.SalesSummary
	err := r.pool.QueryRow(ctx, q, from, to).Scan(
		&s.InvoiceCount, &s.UnitsSold, &s.RevenueCents, &s.CostCents, &s.GrossMarginPct,
	)
	if err != nil {
		return repository.SalesSummary{}, fmt.Errorf("sales.Summary: %w", err)
	}
	return s, nil
}

// TopProducts productos con más ingresos en [from, to); empate por id.
func (r *SalesReportRepo) TopProducts(ctx context.Context, from, to time.Time, limit int) ([]repository.TopProductResult, error) {
	const q = `
		SELECT it.product_id,
		       MAX(it.sku)                          AS sku,
		       MAX(it.product_name)                 AS product_name,
		       SUM(it.quantity)::BIGINT             AS units_sold,
		       SUM(it.subtotal_cents)::BIGINT       AS revenue
		FROM   invoice_items it
		JOIN   invoices i ON i.id = it.invoice_id
		WHERE  i.status <> 'CANCELLED'
		  AND  i.created_at >= $1
		  AND  i.created_at <  $2
		GROUP  BY it.product_id
		ORDER  BY revenue DESC, it.product_id COLLATE "C"
		LIMIT  $3`

	var lim any // NULL = sin límite
	if limit > 0 {
		lim = limit
	}
	rows, err := r.pool.Query(ctx, q, from, to, lim)
	if err != nil {
		return nil, fmt.Errorf("sales.TopProducts: %w", err)
	}
	defer rows.Close()

	var out []repository.TopProductResult
	for rows.Next() {
		var tp repository.TopProductResult
		if err := rows.Scan(&tp.ProductID, &tp.SKU, &tp.ProductName, &tp.UnitsSold, &tp.RevenueCents); err != nil {
			return nil, fmt.Errorf("sales.TopProducts scan: %w", err)
		}
		out = append(out, tp)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("sales.TopProducts rows: %w", err)
	}
	return out, nil
}
