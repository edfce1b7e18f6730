// seed carga un catálogo de productos desde CSV en la base configurada.
//
// Uso: go run ./cmd/seed [-latin1] catalogo.csv
//
// Columnas (con cabecera): sku,name,category,price,cost,quantity,low_stock_threshold
// Precios y costos en centavos. low_stock_threshold vacío = umbral por defecto.
// Los SKU ya existentes se omiten.
package main

import (
	"context"
	"encoding/csv"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"golang.org/x/text/encoding/charmap"
	"golang.org/x/text/transform"

	"github.com/jhoicas/Ventas-api/internal/application/dto"
	"github.com/jhoicas/Ventas-api/internal/application/inventory"
	"github.com/jhoicas/Ventas-api/internal/application/usecase"
	"github.com/jhoicas/Ventas-api/internal/domain"
	"github.com/jhoicas/Ventas-api/internal/infrastructure/postgres"
	"github.com/jhoicas/Ventas-api/pkg/config"
	"github.com/jhoicas/Ventas-api/pkg/logger"
)

var columns = []string{"sku", "name", "category", "price", "cost", "quantity", "low_stock_threshold"}

func main() {
	latin1 := flag.Bool("latin1", false, "el archivo está en ISO-8859-1")
	flag.Parse()
	if flag.NArg() != 1 {
		fmt.Fprintln(os.Stderr, "uso: seed [-latin1] catalogo.csv")
		os.Exit(2)
	}

	f, err := os.Open(flag.Arg(0))
	if err != nil {
		fmt.Fprintf(os.Stderr, "Abrir CSV: %v\n", err)
		os.Exit(1)
	}
	defer f.Close()

	var r io.Reader = f
	if *latin1 {
		r = transform.NewReader(f, charmap.ISO8859_1.NewDecoder())
	}
	rows, err := parseCatalog(r)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Leer CSV: %v\n", err)
		os.Exit(1)
	}

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Cargar configuración: %v\n", err)
		os.Exit(1)
	}
	log := logger.New(logger.Config{Env: cfg.App.Env, Level: cfg.App.LogLevel})

	ctx := context.Background()
	pool, err := postgres.NewPool(ctx, cfg.DB)
	if err != nil {
		log.Fatal().Err(err).Msg("conexión a PostgreSQL")
	}
	defer pool.Close()

	runner := postgres.NewTxRunner(pool)
	emitter := inventory.NewAlertEmitter()
	ledger := inventory.NewStockLedger(runner, emitter, inventory.NewLogNotifier(log.Component("alerts")), log.Component("ledger"))
	uc := usecase.NewProductUseCase(runner, postgres.NewProductRepository(pool), emitter, ledger)

	created, skipped := 0, 0
	for i, req := range rows {
		_, err := uc.Create(ctx, req)
		switch {
		case errors.Is(err, domain.ErrDuplicate):
			skipped++
		case err != nil:
			log.Fatal().Err(err).Int("row", i+2).Str("sku", req.SKU).Msg("crear producto")
		default:
			created++
		}
	}
	fmt.Printf("Catálogo cargado: %d creados, %d omitidos (SKU existente)\n", created, skipped)
}

// parseCatalog lee el CSV completo; la primera fila debe ser la cabecera esperada.
func parseCatalog(r io.Reader) ([]dto.CreateProductRequest, error) {
	cr := csv.NewReader(r)
	cr.TrimLeadingSpace = true
	cr.FieldsPerRecord = len(columns)

	header, err := cr.Read()
	if err != nil {
		return nil, fmt.Errorf("cabecera: %w", err)
	}
	for i, col := range columns {
		if !strings.EqualFold(strings.TrimSpace(header[i]), col) {
			return nil, fmt.Errorf("cabecera: columna %d es %q, se esperaba %q", i+1, header[i], col)
		}
	}

	var out []dto.CreateProductRequest
	for line := 2; ; line++ {
		rec, err := cr.Read()
		if errors.Is(err, io.EOF) {
			return out, nil
		}
		if err != nil {
			return nil, err
		}
		req, err := parseRow(rec)
		if err != nil {
			return nil, fmt.Errorf("fila %d: %w", line, err)
		}
		out = append(out, req)
	}
}

func parseRow(rec []string) (dto.CreateProductRequest, error) {
	req := dto.CreateProductRequest{
		SKU:      strings.TrimSpace(rec[0]),
		Name:     strings.TrimSpace(rec[1]),
		Category: strings.TrimSpace(rec[2]),
	}
	ints := []*int64{&req.Price, &req.Cost, &req.Quantity}
	for i, dst := range ints {
		v, err := strconv.ParseInt(strings.TrimSpace(rec[3+i]), 10, 64)
		if err != nil {
			return req, fmt.Errorf("%s: %w", columns[3+i], err)
		}
		*dst = v
	}
	if s := strings.TrimSpace(rec[6]); s != "" {
		v, err := strconv.ParseInt(s, 10, 64)
		if err != nil {
			return req, fmt.Errorf("%s: %w", columns[6], err)
		}
		req.LowStockThreshold = &v
	}
	return req, nil
}
