package postgres

import (
	"errors"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

// isUniqueViolation verifica si un error es una violación de constraint único (23505).
func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code == "23505" // unique_violation
	}
	return false
}

// isCheckViolation verifica si un error es una violación de CHECK (23514).
func isCheckViolation(err error) bool {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code == "23514"
	}
	return false
}

// likePattern escapa los comodines de LIKE y envuelve el término en %...%.
func likePattern(term string) string {
	r := strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)
	return "%" + r.Replace(strings.TrimSpace(term)) + "%"
}

// execBatch consume los n resultados del lote para que ningún error quede oculto.
func execBatch(results pgx.BatchResults, n int) error {
	for i := 0; i < n; i++ {
		if _, err := results.Exec(); err != nil {
			_ = results.Close()
			return err
		}
	}
	return results.Close()
}

// withPage agrega LIMIT/OFFSET parametrizados cuando limit > 0.
func withPage(query string, args []any, limit, offset int) (string, []any) {
	if limit <= 0 {
		return query, args
	}
	if offset < 0 {
		offset = 0
	}
	args = append(args, limit, offset)
	return query + fmt.Sprintf(" LIMIT $%d OFFSET $%d", len(args)-1, len(args)), args
}
