package config

import (
	"fmt"
	"net/url"
	"strconv"
	"strings"

	"github.com/spf13/viper"
)

// Drivers de persistencia soportados.
const (
	StoreDriverPostgres = "postgres"
	StoreDriverMemory   = "memory"
)

// Flujos de venta: "direct" deja la factura COMPLETED; "acceptance" la deja PENDING hasta que otro actor la acepte.
const (
	WorkflowDirect     = "direct"
	WorkflowAcceptance = "acceptance"
)

// Config agrupa la configuración de la aplicación (lectura vía Viper desde env y opcionalmente archivo).
type Config struct {
	App   AppConfig
	DB    DBConfig
	JWT   JWTConfig
	HTTP  HTTPConfig
	Redis RedisConfig
	Store StoreConfig
	Sales SalesConfig
}

// AppConfig configuración general de la aplicación.
type AppConfig struct {
	Env      string // development, staging, production
	Name     string
	LogLevel string
}

// DBConfig configuración de PostgreSQL.
// Si DatabaseURL no está vacío, se usa como connection string completo.
type DBConfig struct {
	DatabaseURL    string
	Host           string
	Port           int
	User           string
	Password       string
	DBName         string
	SSLMode        string
	MaxConns       int
	MigrateOnStart bool
}

// ConnectionString devuelve el DSN a usar: DATABASE_URL si está definido, si no el construido con DSN().
func (c DBConfig) ConnectionString() string {
	if c.DatabaseURL != "" {
		return c.DatabaseURL
	}
	return c.DSN()
}

// DSN devuelve el connection string para PostgreSQL con URL encoding para caracteres especiales.
func (c DBConfig) DSN() string {
	u := &url.URL{
		Scheme:   "postgres",
		User:     url.UserPassword(c.User, c.Password),
		Host:     fmt.Sprintf("%s:%d", c.Host, c.Port),
		Path:     "/" + c.DBName,
		RawQuery: fmt.Sprintf("sslmode=%s", c.SSLMode),
	}
	return u.String()
}

// JWTConfig configuración de JWT (identidad del cajero que llama al motor).
type JWTConfig struct {
	Secret     string
	Expiration int // minutos
	Issuer     string
}

// HTTPConfig configuración del servidor HTTP.
type HTTPConfig struct {
	Host string
	Port int
}

// Addr devuelve la dirección de escucha (host:port).
func (c HTTPConfig) Addr() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}

// RedisConfig publicación de alertas de stock bajo. Addr vacío = sin Redis (solo log).
type RedisConfig struct {
	Addr          string
	Password      string
	DB            int
	AlertsChannel string
}

// Enabled indica si hay Redis configurado.
func (c RedisConfig) Enabled() bool {
	return c.Addr != ""
}

// StoreConfig selecciona el backend de persistencia.
type StoreConfig struct {
	Driver string // postgres | memory
}

// SalesConfig parámetros del motor de ventas.
type SalesConfig struct {
	DefaultWorkflow string // direct | acceptance
}

// Load lee la configuración desde variables de entorno (y opcionalmente desde archivo).
// Las env vars tienen prioridad. Nombres esperados: APP_ENV, DB_HOST, JWT_SECRET, STORE_DRIVER, etc.
func Load() (*Config, error) {
	v := viper.New()

	// Opcional: archivo .env en el directorio actual
	v.SetConfigName(".env")
	v.SetConfigType("env")
	v.AddConfigPath(".")
	_ = v.ReadInConfig() // ignoramos error si no existe

	v.SetConfigName("config")
	v.AddConfigPath("./config")
	_ = v.ReadInConfig()

	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	cfg := &Config{
		App: AppConfig{
			Env:      getString(v, "APP_ENV", "development"),
			Name:     getString(v, "APP_NAME", "ventas-api"),
			LogLevel: getString(v, "LOG_LEVEL", "info"),
		},
		DB: DBConfig{
			DatabaseURL:    getString(v, "DATABASE_URL", ""),
			Host:           getString(v, "DB_HOST", "localhost"),
			Port:           getInt(v, "DB_PORT", 5432),
			User:           getString(v, "DB_USER", "postgres"),
			Password:       getString(v, "DB_PASSWORD", ""),
			DBName:         getString(v, "DB_NAME", "ventas"),
			SSLMode:        getString(v, "DB_SSLMODE", "disable"),
			MaxConns:       getInt(v, "DB_MAX_CONNS", 25),
			MigrateOnStart: getBool(v, "DB_MIGRATE_ON_START", false),
		},
		JWT: JWTConfig{
			Secret:     getString(v, "JWT_SECRET", ""),
			Expiration: getInt(v, "JWT_EXPIRATION_MINUTES", 60),
			Issuer:     getString(v, "JWT_ISSUER", "ventas-api"),
		},
		HTTP: HTTPConfig{
			Host: getString(v, "HTTP_HOST", "0.0.0.0"),
			Port: getInt(v, "HTTP_PORT", 8080),
		},
		Redis: RedisConfig{
			Addr:          getString(v, "REDIS_ADDR", ""),
			Password:      getString(v, "REDIS_PASSWORD", ""),
			DB:            getInt(v, "REDIS_DB", 0),
			AlertsChannel: getString(v, "ALERTS_CHANNEL", "stock-alerts"),
		},
		Store: StoreConfig{
			Driver: strings.ToLower(getString(v, "STORE_DRIVER", StoreDriverPostgres)),
		},
		Sales: SalesConfig{
			DefaultWorkflow: strings.ToLower(getString(v, "SALES_DEFAULT_WORKFLOW", WorkflowDirect)),
		},
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate rechaza combinaciones que el motor no soporta.
func (c *Config) Validate() error {
	switch c.Store.Driver {
	case StoreDriverPostgres, StoreDriverMemory:
	default:
		return fmt.Errorf("config: STORE_DRIVER desconocido %q", c.Store.Driver)
	}
	switch c.Sales.DefaultWorkflow {
	case WorkflowDirect, WorkflowAcceptance:
	default:
		return fmt.Errorf("config: SALES_DEFAULT_WORKFLOW desconocido %q", c.Sales.DefaultWorkflow)
	}
	if c.JWT.Secret == "" {
		return fmt.Errorf("config: JWT_SECRET es obligatorio")
	}
	return nil
}

func getString(v *viper.Viper, key, def string) string {
	if v.IsSet(key) {
		return v.GetString(key)
	}
	return def
}

func getInt(v *viper.Viper, key string, def int) int {
	if v.IsSet(key) {
		switch v.Get(key).(type) {
		case string:
			n, err := strconv.Atoi(strings.TrimSpace(v.GetString(key)))
			if err != nil {
				return def
			}
			return n
		default:
			return v.GetInt(key)
		}
	}
	return def
}

func getBool(v *viper.Viper, key string, def bool) bool {
	if v.IsSet(key) {
		return v.GetBool(key)
	}
	return def
}
