// Package inventory reglas de dominio del inventario que no dependen de la persistencia.
package inventory

import "github.com/shopspring/decimal"

// WeightedAverageCost costo promedio ponderado tras una entrada de mercancía, en centavos.
// NuevoCosto = ((StockActual * CostoActual) + (CantEntrada * CostoEntrada)) / (StockActual + CantEntrada)
// Redondea a centavo (mitad hacia arriba). Con stock actual negativo o cero, el costo es el de la entrada.
func WeightedAverageCost(stockQty, currentCost, receivedQty, receivedCost int64) int64 {
	if stockQty <= 0 {
		return receivedCost
	}
	sum := decimal.NewFromInt(stockQty + receivedQty)
	if sum.LessThanOrEqual(decimal.Zero) {
		return 0
	}
	num := decimal.NewFromInt(stockQty).Mul(decimal.NewFromInt(currentCost)).
		Add(decimal.NewFromInt(receivedQty).Mul(decimal.NewFromInt(receivedCost)))
	return num.DivRound(sum, 4).Round(0).IntPart()
}
