package config

import (
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
)

type Config struct {
	Addr              string        `envconfig:"APP_ADDR" default:":8080"`
	Environment       string        `envconfig:"APP_ENV" default:"development"`
	ShutdownTimeout   time.Duration `envconfig:"APP_SHUTDOWN_TIMEOUT" default:"15s"`
	LogFormat         string        `envconfig:"LOG_FORMAT" default:"text"`
	DatabaseURL       string        `envconfig:"DATABASE_URL"`
	MigrationsDir     string        `envconfig:"MIGRATIONS_DIR" default:"migrations"`
	RedisAddr         string        `envconfig:"REDIS_ADDR" default:"127.0.0.1:6379"`
	LocalCachePrefix  string        `envconfig:"LOCAL_CACHE_PREFIX" default:"gestao:local"`
	JWTSecret         string        `envconfig:"JWT_SECRET"`
	TokenTTL          time.Duration `envconfig:"TOKEN_TTL" default:"12h"`
	DataEncryptionKey string        `envconfig:"DATA_ENCRYPTION_KEY"`
	StorageDir        string        `envconfig:"STORAGE_DIR" default:"storage"`
	CompanyName       string        `envconfig:"COMPANY_NAME" default:"Empresa Demo, Lda"`
	CompanyNIF        string        `envconfig:"COMPANY_NIF" default:"5000000000"`
	CompanyAddress    string        `envconfig:"COMPANY_ADDRESS" default:"Luanda, Angola"`
	SeedAdminEmail    string        `envconfig:"SEED_ADMIN_EMAIL"`
	SeedAdminPassword string        `envconfig:"SEED_ADMIN_PASSWORD"`
	RunMigrations     bool          `envconfig:"RUN_MIGRATIONS" default:"true"`
	RunSeed           bool          `envconfig:"RUN_SEED" default:"true"`
	MaxBodyBytes      int64         `envconfig:"MAX_BODY_BYTES" default:"1048576"`
	RateLimitPerMin   int           `envconfig:"RATE_LIMIT_PER_MINUTE" default:"120"`
	MetricsEnabled    bool          `envconfig:"METRICS_ENABLED" default:"true"`
	JobQueueSize      int           `envconfig:"JOB_QUEUE_SIZE" default:"128"`
	AuthRequired      bool          `envconfig:"AUTH_REQUIRED" default:"false"`

	TaxConfig
	AccountsConfig
}

// TaxConfig carries the statutory parameters. Defaults follow the IRT table of Lei 28/20.
type TaxConfig struct {
	INSSEmployeeRate       string `envconfig:"TAX_INSS_EMPLOYEE_RATE" default:"0.03"`
	INSSEmployerRate       string `envconfig:"TAX_INSS_EMPLOYER_RATE" default:"0.08"`
	IRTExemptThreshold     string `envconfig:"TAX_IRT_EXEMPT_THRESHOLD" default:"100000"`
	FamilyExemptCeiling    string `envconfig:"TAX_FAMILY_EXEMPT_CEILING" default:"5000"`
	TransportExemptCeiling string `envconfig:"TAX_TRANSPORT_EXEMPT_CEILING" default:"30000"`
	FoodExemptCeiling      string `envconfig:"TAX_FOOD_EXEMPT_CEILING" default:"30000"`
	VATRate                string `envconfig:"POS_VAT_RATE" default:"14"`
	RoundingStep           string `envconfig:"PAYROLL_ROUNDING_STEP" default:"100"`
	INSSExemptSubsidies    string `envconfig:"TAX_INSS_EXEMPT_SUBSIDIES" default:"family"`
}

// AccountsConfig names the chart of accounts (PGC) used for payroll journal
// entries.
type AccountsConfig struct {
	SalaryExpenseAccount   string `envconfig:"ACCOUNT_SALARY_EXPENSE" default:"72.2"`
	SocialChargesAccount   string `envconfig:"ACCOUNT_SOCIAL_CHARGES" default:"72.5"`
	SalariesPayableAccount string `envconfig:"ACCOUNT_SALARIES_PAYABLE" default:"36.1.2"`
	IRTPayableAccount      string `envconfig:"ACCOUNT_IRT_PAYABLE" default:"34.3"`
	INSSPayableAccount     string `envconfig:"ACCOUNT_INSS_PAYABLE" default:"34.5"`
	CashAccount            string `envconfig:"ACCOUNT_CASH" default:"45.1"`
}

// Load reads an optional .env file and then the process environment.
func Load() (Config, error) {
	if err := godotenv.Load(); err != nil {
		slog.Debug("no .env file loaded", "err", err)
	}
	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return Config{}, fmt.Errorf("platform/config: %w", err)
	}
	return cfg, nil
}

func (c Config) IsProduction() bool {
	return c.Environment == "production"
}

func (c Config) Validate() error {
	if strings.TrimSpace(c.DatabaseURL) == "" {
		return fmt.Errorf("DATABASE_URL is required")
	}
	if c.IsProduction() {
		if strings.TrimSpace(c.JWTSecret) == "" {
			return fmt.Errorf("JWT_SECRET must be set to a strong value in production")
		}
		if strings.TrimSpace(c.DataEncryptionKey) == "" {
			return fmt.Errorf("DATA_ENCRYPTION_KEY must be set in production for encryption at rest")
		}
		if c.RunSeed && strings.TrimSpace(c.SeedAdminPassword) == "" {
			return fmt.Errorf("SEED_ADMIN_PASSWORD must be changed or RUN_SEED disabled in production")
		}
	}
	if c.MaxBodyBytes < 1024 {
		return fmt.Errorf("MAX_BODY_BYTES must be at least 1024")
	}
	if c.RateLimitPerMin <= 0 {
		return fmt.Errorf("RATE_LIMIT_PER_MINUTE must be positive")
	}
	if c.JobQueueSize <= 0 {
		return fmt.Errorf("JOB_QUEUE_SIZE must be positive")
	}
	return nil
}
