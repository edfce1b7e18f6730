// migrate aplica o revierte el esquema embebido sobre la base configurada (DATABASE_URL o DB_*).
//
// Uso:
//
//	go run ./cmd/migrate up
//	go run ./cmd/migrate down
//	go run ./cmd/migrate steps -1
//	go run ./cmd/migrate version
//	go run ./cmd/migrate force 1
package main

import (
	"fmt"
	"os"
	"strconv"

	"github.com/jhoicas/Ventas-api/internal/infrastructure/migration"
	"github.com/jhoicas/Ventas-api/pkg/config"
	"github.com/jhoicas/Ventas-api/pkg/logger"
)

func main() {
	if len(os.Args) < 2 {
		fmt.Fprintln(os.Stderr, "uso: migrate up|down|steps N|version|force V")
		os.Exit(2)
	}

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintln(os.Stderr, "cargar configuración:", err)
		os.Exit(1)
	}
	log := logger.New(logger.Config{Env: cfg.App.Env, Level: cfg.App.LogLevel})

	m, err := migration.New(cfg.DB.ConnectionString(), log)
	if err != nil {
		log.Fatal().Err(err).Msg("preparar migraciones")
	}
	defer m.Close()

	if err := run(m, os.Args[1], os.Args[2:]); err != nil {
		log.Error().Err(err).Str("command", os.Args[1]).Msg("migración fallida")
		os.Exit(1)
	}
}

func run(m *migration.Migrator, cmd string, args []string) error {
	switch cmd {
	case "up":
		return m.Up()
	case "down":
		return m.Down()
	case "steps":
		n, err := intArg(args)
		if err != nil {
			return err
		}
		return m.Steps(n)
	case "force":
		v, err := intArg(args)
		if err != nil {
			return err
		}
		return m.Force(v)
	case "version":
		v, dirty, err := m.Version()
		if err != nil {
			return err
		}
		fmt.Printf("versión %d (dirty=%t)\n", v, dirty)
		return nil
	default:
		return fmt.Errorf("comando desconocido %q", cmd)
	}
}

func intArg(args []string) (int, error) {
	if len(args) == 0 {
		return 0, fmt.Errorf("falta el argumento numérico")
	}
	return strconv.Atoi(args[0])
}
