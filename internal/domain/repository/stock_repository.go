package repository

import (
	"context"

	"github.com/jhoicas/Ventas-api/internal/domain/entity"
)

// StockRepository puerto del libro de stock. Solo tiene sentido dentro de una transacción.
type StockRepository interface {
	// LockLevels bloquea las filas de los productos en orden ascendente de id (SELECT ... FOR UPDATE)
	// y devuelve su nivel actual. Los ids inexistentes no aparecen en el mapa.
	LockLevels(ctx context.Context, productIDs []string) (map[string]entity.StockLevel, error)
	// AddQuantity suma delta (negativo para descontar) con actualización condicional.
	// Devuelve domain.ErrInsufficientStock si el resultado sería negativo y domain.ErrNotFound si no existe.
	AddQuantity(ctx context.Context, productID string, delta int64) (entity.StockLevel, error)
}
