// Package money opera montos en unidades menores (centavos, int64) y los
// convierte a decimal solo para presentación.
package money

import (
	"errors"
	"math"

	"github.com/shopspring/decimal"
)

// ErrOverflow el resultado no cabe en int64.
var ErrOverflow = errors.New("money: desbordamiento de monto")

// Mul devuelve unitCents * qty verificando desbordamiento. Ambos deben ser >= 0.
func Mul(unitCents, qty int64) (int64, error) {
	if unitCents < 0 || qty < 0 {
		return 0, errors.New("money: operandos negativos")
	}
	if unitCents != 0 && qty > math.MaxInt64/unitCents {
		return 0, ErrOverflow
	}
	return unitCents * qty, nil
}

// Add devuelve a + b verificando desbordamiento (montos no negativos).
func Add(a, b int64) (int64, error) {
	if a < 0 || b < 0 {
		return 0, errors.New("money: operandos negativos")
	}
	if a > math.MaxInt64-b {
		return 0, ErrOverflow
	}
	return a + b, nil
}

// Sum suma una lista de montos con verificación de desbordamiento.
func Sum(amounts ...int64) (int64, error) {
	var total int64
	for _, a := range amounts {
		var err error
		if total, err = Add(total, a); err != nil {
			return 0, err
		}
	}
	return total, nil
}

// FromCents convierte centavos a decimal en unidades mayores (1050 -> 10.50).
func FromCents(cents int64) decimal.Decimal {
	return decimal.New(cents, -2)
}

// Format representación con dos decimales ("10.50").
func Format(cents int64) string {
	return FromCents(cents).StringFixed(2)
}

// ToCents convierte un monto en unidades mayores a centavos. Rechaza más de dos decimales.
func ToCents(d decimal.Decimal) (int64, error) {
	scaled := d.Shift(2)
	if !scaled.Equal(scaled.Truncate(0)) {
		return 0, errors.New("money: más de dos decimales")
	}
	if !scaled.IsInteger() || scaled.GreaterThan(decimal.NewFromInt(math.MaxInt64)) || scaled.LessThan(decimal.NewFromInt(math.MinInt64)) {
		return 0, ErrOverflow
	}
	return scaled.IntPart(), nil
}
