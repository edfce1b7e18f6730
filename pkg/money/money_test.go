package money

import (
	"math"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMul(t *testing.T) {
	got, err := Mul(1000, 8)
	require.NoError(t, err)
	assert.Equal(t, int64(8000), got)

	got, err = Mul(0, math.MaxInt64)
	require.NoError(t, err)
	assert.Equal(t, int64(0), got)

	_, err = Mul(math.MaxInt64/2+1, 2)
	assert.ErrorIs(t, err, ErrOverflow)

	_, err = Mul(-1, 2)
	assert.Error(t, err)
}

func TestSum(t *testing.T) {
	got, err := Sum(8000, 1500, 0)
	require.NoError(t, err)
	assert.Equal(t, int64(9500), got)

	_, err = Sum(math.MaxInt64, 1)
	assert.ErrorIs(t, err, ErrOverflow)
}

func TestFormat(t *testing.T) {
	assert.Equal(t, "80.00", Format(8000))
	assert.Equal(t, "0.05", Format(5))
	assert.Equal(t, "1234.50", Format(123450))
	assert.True(t, FromCents(1050).Equal(decimal.RequireFromString("10.5")))
}

func TestToCents(t *testing.T) {
	got, err := ToCents(decimal.RequireFromString("10.50"))
	require.NoError(t, err)
	assert.Equal(t, int64(1050), got)

	_, err = ToCents(decimal.RequireFromString("10.505"))
	assert.Error(t, err)
}
