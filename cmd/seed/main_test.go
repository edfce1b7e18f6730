package main

import (
	"bytes"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/text/encoding/charmap"
	"golang.org/x/text/transform"
)

func TestParseCatalog(t *testing.T) {
	in := "sku,name,category,price,cost,quantity,low_stock_threshold\n" +
		"CAF-1, Café molido ,bebidas,1200,700,40,\n" +
		"TE-1,Té verde,bebidas,500,200,3,5\n"

	rows, err := parseCatalog(strings.NewReader(in))
	require.NoError(t, err)
	require.Len(t, rows, 2)
	assert.Equal(t, "Café molido", rows[0].Name)
	assert.Equal(t, int64(1200), rows[0].Price)
	assert.Nil(t, rows[0].LowStockThreshold)
	require.NotNil(t, rows[1].LowStockThreshold)
	assert.Equal(t, int64(5), *rows[1].LowStockThreshold)
}

func TestParseCatalog_Errores(t *testing.T) {
	_, err := parseCatalog(strings.NewReader("sku,nombre,category,price,cost,quantity,low_stock_threshold\n"))
	assert.ErrorContains(t, err, "cabecera")

	_, err = parseCatalog(strings.NewReader("sku,name,category,price,cost,quantity,low_stock_threshold\nA,B,C,doce,1,1,\n"))
	assert.ErrorContains(t, err, "fila 2")
}

func TestParseCatalog_Latin1(t *testing.T) {
	var buf bytes.Buffer
	w := transform.NewWriter(&buf, charmap.ISO8859_1.NewEncoder())
	_, err := w.Write([]byte("sku,name,category,price,cost,quantity,low_stock_threshold\nPAN-1,Pan de año,panadería,300,100,10,\n"))
	require.NoError(t, err)
	require.NoError(t, w.Close())

	rows, err := parseCatalog(transform.NewReader(&buf, charmap.ISO8859_1.NewDecoder()))
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, "Pan de año", rows[0].Name)
	assert.Equal(t, "panadería", rows[0].Category)
}
