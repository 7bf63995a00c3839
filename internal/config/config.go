package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

type Config struct {
	App struct {
		// dev | staging | prod
		Env      string `yaml:"env"`
		LogLevel string `yaml:"log_level"`
	} `yaml:"app"`

	Server struct {
		Addr               string   `yaml:"addr"`
		CORSAllowedOrigins []string `yaml:"cors_allowed_origins"`
	} `yaml:"server"`

	Storage struct {
		// postgres | memory
		Driver   string `yaml:"driver"`
		DSN      string `yaml:"dsn"`
		Postgres struct {
			MaxOpenConns int `yaml:"max_open_conns"`
			MaxIdleConns int `yaml:"max_idle_conns"`
		} `yaml:"postgres"`
	} `yaml:"storage"`

	JWT struct {
		Issuer   string `yaml:"issuer"`
		Audience string `yaml:"audience"`
		// HS256, mínimo 32 bytes
		Key                string        `yaml:"key"`
		AccessTokenMinutes int           `yaml:"access_token_minutes"`
		RefreshTokenDays   int           `yaml:"refresh_token_days"`
		ClockSkew          time.Duration `yaml:"clock_skew"`
	} `yaml:"jwt"`

	MFA struct {
		OTPMinutes int `yaml:"otp_minutes"`
	} `yaml:"mfa"`

	Cache struct {
		// memory | redis
		Kind  string `yaml:"kind"`
		Redis struct {
			Addr     string `yaml:"addr"`
			Password string `yaml:"password"`
			DB       int    `yaml:"db"`
			Prefix   string `yaml:"prefix"`
		} `yaml:"redis"`
		TenantTTL time.Duration `yaml:"tenant_ttl"`
	} `yaml:"cache"`

	SMTP struct {
		Host               string `yaml:"host"`
		Port               int    `yaml:"port"`
		Username           string `yaml:"username"`
		Password           string `yaml:"password"`
		From               string `yaml:"from"`
		TLS                string `yaml:"tls"`                  // auto | starttls | ssl | none
		InsecureSkipVerify bool   `yaml:"insecure_skip_verify"` // sólo dev
	} `yaml:"smtp"`

	Security struct {
		// base64(32 bytes); cifra connection strings de tenants en reposo
		SecretBoxMasterKey string `yaml:"secretbox_master_key"`

		PasswordPolicy struct {
			MinLength    int  `yaml:"min_length"`
			RequireDigit bool `yaml:"require_digit"`
			RequireUpper bool `yaml:"require_upper"`
		} `yaml:"password_policy"`
	} `yaml:"security"`

	Metrics struct {
		Enabled bool `yaml:"enabled"`
	} `yaml:"metrics"`

	Flags struct {
		Migrate bool `yaml:"migrate"`
	} `yaml:"flags"`
}

// Default devuelve la config con los valores por defecto.
func Default() *Config {
	c := &Config{}
	c.App.Env = "dev"
	c.App.LogLevel = "info"
	c.Server.Addr = ":8080"
	c.Server.CORSAllowedOrigins = []string{"http://localhost:3000"}
	c.Storage.Driver = "postgres"
	c.Storage.Postgres.MaxOpenConns = 10
	c.Storage.Postgres.MaxIdleConns = 2
	c.JWT.AccessTokenMinutes = 15
	c.JWT.RefreshTokenDays = 30
	c.JWT.ClockSkew = 30 * time.Second
	c.MFA.OTPMinutes = 5
	c.Cache.Kind = "memory"
	c.Cache.Redis.Addr = "localhost:6379"
	c.Cache.Redis.Prefix = "incidentauth"
	c.Cache.TenantTTL = time.Minute
	c.SMTP.Port = 587
	c.SMTP.TLS = "auto"
	c.Security.PasswordPolicy.MinLength = 8
	c.Metrics.Enabled = true
	return c
}

// Load lee el YAML (si existe) sobre los defaults, aplica env y valida.
// path vacío o inexistente = defaults + env.
func Load(path string) (*Config, error) {
	c, err := Read(path)
	if err != nil {
		return nil, err
	}
	if err := c.Validate(); err != nil {
		return nil, err
	}
	return c, nil
}

// Read es Load sin validar. La usa incidentctl, que sólo necesita storage.
func Read(path string) (*Config, error) {
	c := Default()
	if path != "" {
		b, err := os.ReadFile(path)
		switch {
		case err == nil:
			if err := yaml.Unmarshal(b, c); err != nil {
				return nil, fmt.Errorf("config: parse %s: %w", path, err)
			}
		case errors.Is(err, fs.ErrNotExist):
			// sólo env
		default:
			return nil, fmt.Errorf("config: read %s: %w", path, err)
		}
	}
	c.applyEnvOverrides()
	return c, nil
}

// ValidateStorage chequea sólo la sección storage.
func (c *Config) ValidateStorage() error {
	switch c.Storage.Driver {
	case "postgres":
		if strings.TrimSpace(c.Storage.DSN) == "" {
			return errors.New("storage.dsn is required for postgres")
		}
		return nil
	case "memory":
		return nil
	default:
		return fmt.Errorf("storage.driver %q not supported", c.Storage.Driver)
	}
}

// Validate chequea lo obligatorio. Devuelve todos los problemas juntos.
func (c *Config) Validate() error {
	var errs []error
	if err := c.ValidateStorage(); err != nil {
		errs = append(errs, err)
	}
	if c.JWT.Issuer == "" {
		errs = append(errs, errors.New("jwt.issuer is required"))
	}
	if c.JWT.Audience == "" {
		errs = append(errs, errors.New("jwt.audience is required"))
	}
	if len(c.JWT.Key) < 32 {
		errs = append(errs, errors.New("jwt.key must be at least 32 bytes"))
	}
	if c.JWT.AccessTokenMinutes <= 0 || c.JWT.RefreshTokenDays <= 0 || c.MFA.OTPMinutes <= 0 {
		errs = append(errs, errors.New("token lifetimes must be positive"))
	}
	if c.JWT.ClockSkew < 0 {
		errs = append(errs, errors.New("jwt.clock_skew must not be negative"))
	}
	switch c.Cache.Kind {
	case "memory", "redis":
	default:
		errs = append(errs, fmt.Errorf("cache.kind %q not supported", c.Cache.Kind))
	}
	switch c.SMTP.TLS {
	case "auto", "starttls", "ssl", "none":
	default:
		errs = append(errs, fmt.Errorf("smtp.tls %q not supported", c.SMTP.TLS))
	}
	if c.SMTP.Host != "" && c.SMTP.From == "" {
		errs = append(errs, errors.New("smtp.from is required when smtp.host is set"))
	}
	return errors.Join(errs...)
}

// AccessTTL, RefreshTTL y OTPValidity en time.Duration.
func (c *Config) AccessTTL() time.Duration {
	return time.Duration(c.JWT.AccessTokenMinutes) * time.Minute
}

func (c *Config) RefreshTTL() time.Duration {
	return time.Duration(c.JWT.RefreshTokenDays) * 24 * time.Hour
}

func (c *Config) OTPValidity() time.Duration {
	return time.Duration(c.MFA.OTPMinutes) * time.Minute
}

// ---- Helpers env ----

func getEnvStr(key string) (string, bool) {
	v := os.Getenv(key)
	return v, v != ""
}

func getEnvInt(key string) (int, bool) {
	if s, ok := getEnvStr(key); ok {
		if i, err := strconv.Atoi(strings.TrimSpace(s)); err == nil {
			return i, true
		}
	}
	return 0, false
}

func getEnvBool(key string) (bool, bool) {
	if s, ok := getEnvStr(key); ok {
		if b, err := strconv.ParseBool(strings.TrimSpace(s)); err == nil {
			return b, true
		}
	}
	return false, false
}

func getEnvDur(key string) (time.Duration, bool) {
	if s, ok := getEnvStr(key); ok {
		if d, err := time.ParseDuration(strings.TrimSpace(s)); err == nil {
			return d, true
		}
	}
	return 0, false
}

func getEnvCSV(key string) ([]string, bool) {
	if s, ok := getEnvStr(key); ok {
		parts := strings.Split(s, ",")
		out := make([]string, 0, len(parts))
		for _, p := range parts {
			p = strings.TrimSpace(p)
			if p != "" {
				out = append(out, p)
			}
		}
		return out, true
	}
	return nil, false
}

// applyEnvOverrides: pisa config.yaml con variables de entorno.
func (c *Config) applyEnvOverrides() {
	// APP
	if v, ok := getEnvStr("APP_ENV"); ok {
		c.App.Env = strings.ToLower(v)
	}
	if v, ok := getEnvStr("LOG_LEVEL"); ok {
		c.App.LogLevel = strings.ToLower(v)
	}

	// SERVER
	if v, ok := getEnvStr("SERVER_ADDR"); ok {
		c.Server.Addr = v
	}
	if v, ok := getEnvCSV("CORS_ALLOWED_ORIGINS"); ok {
		c.Server.CORSAllowedOrigins = v
	}

	// STORAGE
	if v, ok := getEnvStr("STORAGE_DRIVER"); ok {
		c.Storage.Driver = strings.ToLower(v)
	}
	if v, ok := getEnvStr("STORAGE_DSN"); ok {
		c.Storage.DSN = v
	}

	// JWT
	if v, ok := getEnvStr("JWT_ISSUER"); ok {
		c.JWT.Issuer = v
	}
	if v, ok := getEnvStr("JWT_AUDIENCE"); ok {
		c.JWT.Audience = v
	}
	if v, ok := getEnvStr("JWT_KEY"); ok {
		c.JWT.Key = v
	}
	if v, ok := getEnvInt("JWT_ACCESS_TOKEN_MINUTES"); ok {
		c.JWT.AccessTokenMinutes = v
	}
	if v, ok := getEnvInt("JWT_REFRESH_TOKEN_DAYS"); ok {
		c.JWT.RefreshTokenDays = v
	}
	if v, ok := getEnvDur("JWT_CLOCK_SKEW"); ok {
		c.JWT.ClockSkew = v
	}

	// MFA
	if v, ok := getEnvInt("MFA_OTP_MINUTES"); ok {
		c.MFA.OTPMinutes = v
	}

	// CACHE
	if v, ok := getEnvStr("CACHE_KIND"); ok {
		c.Cache.Kind = strings.ToLower(v)
	}
	if v, ok := getEnvStr("REDIS_ADDR"); ok {
		c.Cache.Redis.Addr = v
	}
	if v, ok := getEnvStr("REDIS_PASSWORD"); ok {
		c.Cache.Redis.Password = v
	}
	if v, ok := getEnvInt("REDIS_DB"); ok {
		c.Cache.Redis.DB = v
	}
	if v, ok := getEnvStr("REDIS_PREFIX"); ok {
		c.Cache.Redis.Prefix = v
	}
	if v, ok := getEnvDur("CACHE_TENANT_TTL"); ok {
		c.Cache.TenantTTL = v
	}

	// SMTP
	if v, ok := getEnvStr("SMTP_HOST"); ok {
		c.SMTP.Host = v
	}
	if v, ok := getEnvInt("SMTP_PORT"); ok {
		c.SMTP.Port = v
	}
	if v, ok := getEnvStr("SMTP_USERNAME"); ok {
		c.SMTP.Username = v
	}
	if v, ok := getEnvStr("SMTP_PASSWORD"); ok {
		c.SMTP.Password = v
	}
	if v, ok := getEnvStr("SMTP_FROM"); ok {
		c.SMTP.From = v
	}
	if v, ok := getEnvStr("SMTP_TLS"); ok {
		c.SMTP.TLS = strings.ToLower(v)
	}
	if v, ok := getEnvBool("SMTP_INSECURE_SKIP_VERIFY"); ok {
		c.SMTP.InsecureSkipVerify = v
	}

	// SECURITY
	if v, ok := getEnvStr("SECRETBOX_MASTER_KEY"); ok {
		c.Security.SecretBoxMasterKey = v
	}
	if v, ok := getEnvInt("SECURITY_PASSWORD_POLICY_MIN_LENGTH"); ok {
		c.Security.PasswordPolicy.MinLength = v
	}

	// METRICS / FLAGS
	if v, ok := getEnvBool("METRICS_ENABLED"); ok {
		c.Metrics.Enabled = v
	}
	if v, ok := getEnvBool("FLAGS_MIGRATE"); ok {
		c.Flags.Migrate = v
	}
}
