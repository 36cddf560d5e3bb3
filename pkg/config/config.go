package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/kelseyhightower/envconfig"
)

type Config struct {
	App      AppConfig
	DB       DBConfig
	Redis    RedisConfig
	JWT      JWTConfig
	Fiscal   FiscalConfig
	Printing PrintingConfig
	Company  CompanyConfig
	Scanner  ScannerConfig
	Features FeatureFlagsConfig
}

func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process(EnvPrefix, &cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}
	return &cfg, nil
}

type AppConfig struct {
	Env          string `envconfig:"PDV_APP_ENV" required:"true"`
	Port         string `envconfig:"PDV_APP_PORT" default:"8080"`
	LogLevel     string `envconfig:"PDV_LOG_LEVEL" default:"info"`
	LogWarnStack bool   `envconfig:"PDV_LOG_WARN_STACK" default:"false"`
}

func (a AppConfig) IsDev() bool {
	return strings.EqualFold(a.Env, AppEnvDev)
}

func (a AppConfig) IsProd() bool {
	return strings.EqualFold(a.Env, AppEnvProd)
}

type DBConfig struct {
	DSN    string `envconfig:"PDV_DB_DSN"`
	Driver string `envconfig:"PDV_DB_DRIVER" default:"postgres"`

	MaxOpenConns    int           `envconfig:"PDV_DB_MAX_OPEN_CONNS" default:"20"`
	MaxIdleConns    int           `envconfig:"PDV_DB_MAX_IDLE_CONNS" default:"10"`
	ConnMaxLifetime time.Duration `envconfig:"PDV_DB_CONN_MAX_LIFETIME" default:"1h"`
	ConnMaxIdleTime time.Duration `envconfig:"PDV_DB_CONN_MAX_IDLE_TIME" default:"10m"`
}

type RedisConfig struct {
	URL          string        `envconfig:"PDV_REDIS_URL"`
	Address      string        `envconfig:"PDV_REDIS_ADDR"`
	Password     string        `envconfig:"PDV_REDIS_PASSWORD"`
	DB           int           `envconfig:"PDV_REDIS_DB" default:"0"`
	PoolSize     int           `envconfig:"PDV_REDIS_POOL_SIZE" default:"10"`
	MinIdleConns int           `envconfig:"PDV_REDIS_MIN_IDLE_CONNS" default:"2"`
	DialTimeout  time.Duration `envconfig:"PDV_REDIS_DIAL_TIMEOUT" default:"5s"`
	ReadTimeout  time.Duration `envconfig:"PDV_REDIS_READ_TIMEOUT" default:"5s"`
	WriteTimeout time.Duration `envconfig:"PDV_REDIS_WRITE_TIMEOUT" default:"5s"`
}

type JWTConfig struct {
	Secret            string `envconfig:"PDV_JWT_SECRET" required:"true"`
	Issuer            string `envconfig:"PDV_JWT_ISSUER" required:"true"`
	ExpirationMinutes int    `envconfig:"PDV_JWT_EXPIRATION_MINUTES" default:"480"`
}

// FiscalConfig points at the remote fiscal ledger service that accepts
// finalized sales and issues fiscal documents.
type FiscalConfig struct {
	BaseURL string        `envconfig:"PDV_FISCAL_BASE_URL" required:"true"`
	APIKey  string        `envconfig:"PDV_FISCAL_API_KEY"`
	Timeout time.Duration `envconfig:"PDV_FISCAL_TIMEOUT" default:"30s"`
}

// PrintingConfig points at the local print spooler. Dispatch only; the
// spooler gives no guarantee of physical completion.
type PrintingConfig struct {
	BaseURL string        `envconfig:"PDV_PRINT_BASE_URL" required:"true"`
	Timeout time.Duration `envconfig:"PDV_PRINT_TIMEOUT" default:"10s"`
}

// CompanyConfig carries per-store commercial settings.
type CompanyConfig struct {
	// MaxInstallments of 0 disables the installment payment method.
	MaxInstallments int `envconfig:"PDV_COMPANY_MAX_INSTALLMENTS" default:"12"`
	// AcquirerFeeRates is informational only ("cnpj:rate" pairs); it is
	// never required for submission.
	AcquirerFeeRates []string `envconfig:"PDV_COMPANY_ACQUIRER_FEE_RATES"`
}

// ScannerConfig tunes the scanner-vs-typing heuristic.
type ScannerConfig struct {
	MaxMillisPerChar int `envconfig:"PDV_SCANNER_MAX_MS_PER_CHAR" default:"80"`
	DebounceMillis   int `envconfig:"PDV_SCANNER_DEBOUNCE_MS" default:"500"`
	IdleClearMillis  int `envconfig:"PDV_SCANNER_IDLE_CLEAR_MS" default:"3000"`
	MinLength        int `envconfig:"PDV_SCANNER_MIN_LENGTH" default:"3"`
}

type FeatureFlagsConfig struct {
	UseSQLite   bool `envconfig:"PDV_USE_SQLITE" default:"false"`
	AutoMigrate bool `envconfig:"PDV_AUTO_MIGRATE" default:"false"`
}
