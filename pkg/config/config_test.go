package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_ValoresPorDefecto(t *testing.T) {
	t.Setenv("JWT_SECRET", "secreto")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "development", cfg.App.Env)
	assert.Equal(t, StoreDriverPostgres, cfg.Store.Driver)
	assert.Equal(t, WorkflowDirect, cfg.Sales.DefaultWorkflow)
	assert.Equal(t, "0.0.0.0:8080", cfg.HTTP.Addr())
	assert.False(t, cfg.Redis.Enabled())
	assert.Equal(t, "stock-alerts", cfg.Redis.AlertsChannel)
}

func TestLoad_LeeVariablesDeEntorno(t *testing.T) {
	t.Setenv("JWT_SECRET", "secreto")
	t.Setenv("STORE_DRIVER", "MEMORY")
	t.Setenv("SALES_DEFAULT_WORKFLOW", "acceptance")
	t.Setenv("HTTP_PORT", "9090")
	t.Setenv("REDIS_ADDR", "localhost:6379")
	t.Setenv("DB_MIGRATE_ON_START", "true")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, StoreDriverMemory, cfg.Store.Driver)
	assert.Equal(t, WorkflowAcceptance, cfg.Sales.DefaultWorkflow)
	assert.Equal(t, 9090, cfg.HTTP.Port)
	assert.True(t, cfg.Redis.Enabled())
	assert.True(t, cfg.DB.MigrateOnStart)
}

func TestLoad_DriverDesconocido(t *testing.T) {
	t.Setenv("JWT_SECRET", "secreto")
	t.Setenv("STORE_DRIVER", "mongo")

	_, err := Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "STORE_DRIVER")
}

func TestLoad_SinSecretoJWT(t *testing.T) {
	t.Setenv("JWT_SECRET", "")

	_, err := Load()
	require.Error(t, err)
}

func TestDBConfig_DSNEscapaPassword(t *testing.T) {
	c := DBConfig{Host: "db", Port: 5432, User: "app", Password: "p@ss:word", DBName: "ventas", SSLMode: "disable"}
	assert.Equal(t, "postgres://app:p%40ss%3Aword@db:5432/ventas?sslmode=disable", c.DSN())

	c.DatabaseURL = "postgres://otro"
	assert.Equal(t, "postgres://otro", c.ConnectionString())
}
