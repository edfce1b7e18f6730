package memory

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/jhoicas/Ventas-api/internal/domain"
	"github.com/jhoicas/Ventas-api/internal/domain/entity"
	"github.com/jhoicas/Ventas-api/internal/domain/repository"
)

var _ repository.ProductRepository = (*ProductRepo)(nil)

// ProductRepo catálogo en memoria.
type ProductRepo struct {
	base
}

// Create persiste un nuevo producto; domain.ErrDuplicate si el SKU o el id ya existen.
func (r *ProductRepo) Create(_ context.Context, product *entity.Product) error {
	return r.write(func(t *tx) error {
		t.lock(lockSKU + product.SKU)
		if _, ok := t.productIDBySKU(product.SKU); ok {
			return fmt.Errorf("sku %s: %w", product.SKU, domain.ErrDuplicate)
		}
		if t.product(product.ID) != nil {
			return fmt.Errorf("producto %s: %w", product.ID, domain.ErrDuplicate)
		}
		t.products[product.ID] = copyProduct(product)
		t.skus[product.SKU] = product.ID
		return nil
	})
}

// GetByID (nil, nil) si no existe.
func (r *ProductRepo) GetByID(_ context.Context, id string) (*entity.Product, error) {
	return r.view().product(id), nil
}

// GetBySKU dentro de una transacción bloquea el SKU hasta el commit, así dos altas con el mismo SKU se serializan.
func (r *ProductRepo) GetBySKU(_ context.Context, sku string) (*entity.Product, error) {
	t := r.view()
	if r.t != nil {
		t.lock(lockSKU + sku)
	}
	id, ok := t.productIDBySKU(sku)
	if !ok {
		return nil, nil
	}
	return t.product(id), nil
}

func (r *ProductRepo) GetByIDs(_ context.Context, ids []string) (map[string]*entity.Product, error) {
	t := r.view()
	out := make(map[string]*entity.Product, len(ids))
	for _, id := range ids {
		if p := t.product(id); p != nil {
			out[id] = p
		}
	}
	return out, nil
}

// Update modifica los datos de catálogo. Cantidad, SKU y versión no se tocan.
func (r *ProductRepo) Update(_ context.Context, product *entity.Product) error {
	return r.write(func(t *tx) error {
		t.lock(lockProduct + product.ID)
		current := t.product(product.ID)
		if current == nil {
			return fmt.Errorf("producto %s: %w", product.ID, domain.ErrNotFound)
		}
		current.Name = product.Name
		current.Category = product.Category
		current.Description = product.Description
		current.PriceCents = product.PriceCents
		current.CostCents = product.CostCents
		current.LowStockThreshold = product.LowStockThreshold
		current.UpdatedAt = product.UpdatedAt
		t.products[current.ID] = current
		return nil
	})
}

func (r *ProductRepo) List(_ context.Context, filter repository.ProductFilter) ([]*entity.Product, int, error) {
	search := strings.ToLower(filter.Search)
	var matched []*entity.Product
	for _, p := range r.view().allProducts() {
		if filter.Category != "" && !strings.EqualFold(p.Category, filter.Category) {
			continue
		}
		if search != "" && !strings.Contains(strings.ToLower(p.Name), search) && !strings.Contains(strings.ToLower(p.SKU), search) {
			continue
		}
		matched = append(matched, p)
	}
	sort.Slice(matched, func(i, j int) bool {
		if matched[i].Name != matched[j].Name {
			return matched[i].Name < matched[j].Name
		}
		return matched[i].ID < matched[j].ID
	})
	return paginate(matched, filter.Limit, filter.Offset), len(matched), nil
}

// ListLowStock productos con alerta ACTIVE, menor cantidad primero.
func (r *ProductRepo) ListLowStock(_ context.Context) ([]*entity.Product, error) {
	t := r.view()
	var out []*entity.Product
	for _, p := range t.allProducts() {
		if t.activeAlertID(p.ID) != "" {
			out = append(out, p)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Quantity != out[j].Quantity {
			return out[i].Quantity < out[j].Quantity
		}
		return out[i].ID < out[j].ID
	})
	return out, nil
}

func paginate[T any](items []T, limit, offset int) []T {
	if offset >= len(items) {
		return []T{}
	}
	items = items[offset:]
	if limit > 0 && limit < len(items) {
		items = items[:limit]
	}
	return items
}
