package postgres

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"

	"github.com/jhoicas/Ventas-api/internal/domain"
	"github.com/jhoicas/Ventas-api/internal/domain/entity"
	"github.com/jhoicas/Ventas-api/internal/domain/repository"
)

var _ repository.ProductRepository = (*ProductRepo)(nil)

const productColumns = `id, sku, name, category, description, price_cents, cost_cents,
		quantity, low_stock_threshold, version, created_at, updated_at`

// ProductRepo implementación del puerto ProductRepository sobre PostgreSQL (usable con pool o tx).
type ProductRepo struct {
	q Querier
}

// NewProductRepository construye el adaptador de persistencia para productos. Pasar pool o tx (Querier).
func NewProductRepository(q Querier) *ProductRepo {
	return &ProductRepo{q: q}
}

func scanProduct(row pgx.Row) (*entity.Product, error) {
	var p entity.Product
	err := row.Scan(
		&p.ID, &p.SKU, &p.Name, &p.Category, &p.Description, &p.PriceCents, &p.CostCents,
		&p.Quantity, &p.LowStockThreshold, &p.Version, &p.CreatedAt, &p.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &p, nil
}

func collectProducts(rows pgx.Rows) ([]*entity.Product, error) {
	defer rows.Close()
	var list []*entity.Product
	for rows.Next() {
		p, err := scanProduct(rows)
		if err != nil {
			return nil, err
		}
		list = append(list, p)
	}
	return list, rows.Err()
}

// Create persiste un nuevo producto con su cantidad inicial.
func (r *ProductRepo) Create(ctx context.Context, product *entity.Product) error {
	query := `
		INSERT INTO products (` + productColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)`
	_, err := r.q.Exec(ctx, query,
		product.ID, product.SKU, product.Name, product.Category, product.Description,
		product.PriceCents, product.CostCents, product.Quantity, product.LowStockThreshold,
		product.Version, product.CreatedAt, product.UpdatedAt,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("sku %s: %w", product.SKU, domain.ErrDuplicate)
		}
		if isCheckViolation(err) {
			return domain.NewValidationError("product", "valores negativos no permitidos")
		}
		return fmt.Errorf("insert product: %w", err)
	}
	return nil
}

// GetByID obtiene un producto por ID.
func (r *ProductRepo) GetByID(ctx context.Context, id string) (*entity.Product, error) {
	query := `SELECT ` + productColumns + ` FROM products WHERE id = $1`
	p, err := scanProduct(r.q.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get product: %w", err)
	}
	return p, nil
}

// GetBySKU obtiene un producto por SKU normalizado.
func (r *ProductRepo) GetBySKU(ctx context.Context, sku string) (*entity.Product, error) {
	query := `SELECT ` + productColumns + ` FROM products WHERE sku = $1`
	p, err := scanProduct(r.q.QueryRow(ctx, query, sku))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get product by sku: %w", err)
	}
	return p, nil
}

// GetByIDs obtiene varios productos en una sola consulta.
func (r *ProductRepo) GetByIDs(ctx context.Context, ids []string) (map[string]*entity.Product, error) {
	out := make(map[string]*entity.Product, len(ids))
	if len(ids) == 0 {
		return out, nil
	}
	rows, err := r.q.Query(ctx, `SELECT `+productColumns+` FROM products WHERE id = ANY($1)`, ids)
	if err != nil {
		return nil, fmt.Errorf("get products by ids: %w", err)
	}
	list, err := collectProducts(rows)
	if err != nil {
		return nil, fmt.Errorf("scan products: %w", err)
	}
	for _, p := range list {
		out[p.ID] = p
	}
	return out, nil
}

// Update actualiza los datos de catálogo. La cantidad y el SKU no se tocan.
func (r *ProductRepo) Update(ctx context.Context, product *entity.Product) error {
	query := `
		UPDATE products
		SET name = $2, category = $3, description = $4, price_cents = $5, cost_cents = $6,
		    low_stock_threshold = $7, updated_at = $8
		WHERE id = $1`
	cmd, err := r.q.Exec(ctx, query,
		product.ID, product.Name, product.Category, product.Description,
		product.PriceCents, product.CostCents, product.LowStockThreshold, product.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("update product: %w", err)
	}
	if cmd.RowsAffected() == 0 {
		return fmt.Errorf("producto %s: %w", product.ID, domain.ErrNotFound)
	}
	return nil
}

// List busca por nombre o SKU (sin distinguir mayúsculas) y filtra por categoría, con paginación.
func (r *ProductRepo) List(ctx context.Context, filter repository.ProductFilter) ([]*entity.Product, int, error) {
	var (
		where []string
		args  []any
	)
	if s := strings.TrimSpace(filter.Search); s != "" {
		args = append(args, likePattern(s))
		where = append(where, fmt.Sprintf("(name ILIKE $%d OR sku ILIKE $%d)", len(args), len(args)))
	}
	if c := strings.TrimSpace(filter.Category); c != "" {
		args = append(args, strings.ToLower(c))
		where = append(where, fmt.Sprintf("lower(category) = $%d", len(args)))
	}
	clause := ""
	if len(where) > 0 {
		clause = " WHERE " + strings.Join(where, " AND ")
	}

	var total int
	if err := r.q.QueryRow(ctx, `SELECT COUNT(*) FROM products`+clause, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("count products: %w", err)
	}

	query := `SELECT ` + productColumns + ` FROM products` + clause + ` ORDER BY name, id`
	query, args = withPage(query, args, filter.Limit, filter.Offset)
	rows, err := r.q.Query(ctx, query, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("list products: %w", err)
	}
	list, err := collectProducts(rows)
	if err != nil {
		return nil, 0, fmt.Errorf("scan products: %w", err)
	}
	return list, total, nil
}

// ListLowStock productos con alerta ACTIVE, de menor a mayor cantidad.
func (r *ProductRepo) ListLowStock(ctx context.Context) ([]*entity.Product, error) {
	query := `
		SELECT p.id, p.sku, p.name, p.category, p.description, p.price_cents, p.cost_cents,
		       p.quantity, p.low_stock_threshold, p.version, p.created_at, p.updated_at
		FROM products p
		JOIN stock_alerts a ON a.product_id = p.id AND a.status = 'ACTIVE'
		ORDER BY p.quantity, p.id`
	rows, err := r.q.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("list low stock: %w", err)
	}
	list, err := collectProducts(rows)
	if err != nil {
		return nil, fmt.Errorf("scan products: %w", err)
	}
	return list, nil
}
