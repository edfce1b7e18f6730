// Package migration aplica el esquema embebido con golang-migrate sobre el driver pgx/v5.
package migration

import (
	"errors"
	"fmt"
	"strings"

	"github.com/golang-migrate/migrate/v4"
	_ "github.com/golang-migrate/migrate/v4/database/pgx/v5"
	"github.com/golang-migrate/migrate/v4/source/iofs"

	"github.com/jhoicas/Ventas-api/migrations"
	"github.com/jhoicas/Ventas-api/pkg/logger"
)

// Migrator envuelve una instancia de golang-migrate.
type Migrator struct {
	migrate *migrate.Migrate
	log     *logger.Logger
}

// New construye el migrador a partir del connection string de PostgreSQL (postgres:// o postgresql://).
func New(databaseURL string, log *logger.Logger) (*Migrator, error) {
	src, err := iofs.New(migrations.FS, ".")
	if err != nil {
		return nil, fmt.Errorf("migration: abrir fuente embebida: %w", err)
	}
	m, err := migrate.NewWithSourceInstance("iofs", src, pgx5URL(databaseURL))
	if err != nil {
		return nil, fmt.Errorf("migration: crear instancia: %w", err)
	}
	return &Migrator{migrate: m, log: log.Component("migration")}, nil
}

// pgx5URL cambia el esquema de la URL al que registra el driver pgx/v5 de golang-migrate.
func pgx5URL(databaseURL string) string {
	for _, prefix := range []string{"postgresql://", "postgres://"} {
		if strings.HasPrefix(databaseURL, prefix) {
			return "pgx5://" + strings.TrimPrefix(databaseURL, prefix)
		}
	}
	return databaseURL
}

// Up aplica todas las migraciones pendientes.
func (m *Migrator) Up() error {
	err := m.migrate.Up()
	if errors.Is(err, migrate.ErrNoChange) {
		m.log.Info().Msg("sin migraciones pendientes")
		return nil
	}
	if err != nil {
		return fmt.Errorf("migration up: %w", err)
	}
	return m.logVersion("migraciones aplicadas")
}

// Down revierte todas las migraciones.
func (m *Migrator) Down() error {
	err := m.migrate.Down()
	if errors.Is(err, migrate.ErrNoChange) {
		m.log.Info().Msg("sin migraciones que revertir")
		return nil
	}
	if err != nil {
		return fmt.Errorf("migration down: %w", err)
	}
	m.log.Info().Msg("migraciones revertidas")
	return nil
}

// Steps aplica n migraciones (positivo sube, negativo baja).
func (m *Migrator) Steps(n int) error {
	err := m.migrate.Steps(n)
	if errors.Is(err, migrate.ErrNoChange) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("migration steps %d: %w", n, err)
	}
	return m.logVersion("pasos de migración aplicados")
}

// Version devuelve la versión actual; 0 si no hay ninguna aplicada.
func (m *Migrator) Version() (uint, bool, error) {
	v, dirty, err := m.migrate.Version()
	if errors.Is(err, migrate.ErrNilVersion) {
		return 0, false, nil
	}
	if err != nil {
		return 0, false, fmt.Errorf("migration version: %w", err)
	}
	return v, dirty, nil
}

// Force fija la versión sin ejecutar scripts (para reparar un estado dirty).
func (m *Migrator) Force(version int) error {
	m.log.Warn().Int("version", version).Msg("forzando versión de migración")
	if err := m.migrate.Force(version); err != nil {
		return fmt.Errorf("migration force %d: %w", version, err)
	}
	return nil
}

// Close libera la fuente y la conexión.
func (m *Migrator) Close() error {
	srcErr, dbErr := m.migrate.Close()
	return errors.Join(srcErr, dbErr)
}

func (m *Migrator) logVersion(msg string) error {
	v, dirty, err := m.Version()
	if err != nil {
		return err
	}
	m.log.Info().Uint("version", v).Bool("dirty", dirty).Msg(msg)
	return nil
}
