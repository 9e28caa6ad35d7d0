package config

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/joho/godotenv"
)

const DefaultJWTSecret = "your-super-secret-jwt-key-change-in-production"

const (
	DriverMemory   = "memory"
	DriverMongo    = "mongo"
	DriverPostgres = "postgres"
)

type Config struct {
	Env         string `toml:"env"`
	Port        int    `toml:"port"`
	StoreDriver string `toml:"store_driver"`

	Mongo   MongoConfig   `toml:"mongo"`
	DB      DBConfig      `toml:"db"`
	Auth    AuthConfig    `toml:"auth"`
	HTTP    HTTPConfig    `toml:"http"`
	Otel    OtelConfig    `toml:"otel"`
	Redis   RedisConfig   `toml:"redis"`
	LLM     LLMConfig     `toml:"llm"`
	Advisor AdvisorConfig `toml:"advisor"`
	Seed    SeedConfig    `toml:"seed"`
}

type MongoConfig struct {
	URI        string `toml:"uri"`
	Database   string `toml:"database"`
	Collection string `toml:"collection"`
}

type DBConfig struct {
	// URL, when set, wins over the individual fields.
	URL      string `toml:"url"`
	Host     string `toml:"host"`
	Port     string `toml:"port"`
	User     string `toml:"user"`
	Password string `toml:"password"`
	Name     string `toml:"name"`
	SSLMode  string `toml:"sslmode"`
}

type AuthConfig struct {
	JWTSecret  string   `toml:"jwt_secret"`
	UserTTL    Duration `toml:"user_ttl"`
	GuestTTL   Duration `toml:"guest_ttl"`
	BcryptCost int      `toml:"bcrypt_cost"`
	GuestEmail string   `toml:"guest_email"`
}

type HTTPConfig struct {
	CORSAllowedOrigins []string `toml:"cors_allowed_origins"`
	MaxBodyBytes       int64    `toml:"max_body_bytes"`
}

type OtelConfig struct {
	Enabled  bool   `toml:"enabled"`
	Endpoint string `toml:"endpoint"`
}

type RedisConfig struct {
	Addr     string `toml:"addr"`
	Password string `toml:"password"`
	DB       int    `toml:"db"`
}

type LLMConfig struct {
	BaseURL     string  `toml:"base_url"`
	APIKey      string  `toml:"api_key"`
	Model       string  `toml:"model"`
	MaxTokens   int     `toml:"max_tokens"`
	Temperature float64 `toml:"temperature"`
}

type AdvisorConfig struct {
	HistoryTurns int      `toml:"history_turns"`
	HistoryTTL   Duration `toml:"history_ttl"`
}

// SeedConfig describes an optional account created at startup when absent.
type SeedConfig struct {
	Username string `toml:"username"`
	Email    string `toml:"email"`
	Password string `toml:"password"`
}

func (s SeedConfig) Enabled() bool {
	return s.Email != "" && s.Password != ""
}

// Duration accepts Go duration strings plus a whole-day suffix ("7d").
type Duration struct {
	time.Duration
}

func (d *Duration) UnmarshalText(text []byte) error {
	v, err := ParseDuration(string(text))
	if err != nil {
		return err
	}
	d.Duration = v
	return nil
}

func ParseDuration(s string) (time.Duration, error) {
	s = strings.TrimSpace(s)
	if days, ok := strings.CutSuffix(s, "d"); ok {
		n, err := strconv.Atoi(days)
		if err != nil || n < 0 {
			return 0, fmt.Errorf("invalid duration %q", s)
		}
		return time.Duration(n) * 24 * time.Hour, nil
	}
	return time.ParseDuration(s)
}

// Load resolves configuration from defaults, an optional .env file, an optional
// TOML file named by CONFIG_FILE and finally the process environment.
func Load() (Config, error) {
	// .env is optional; a missing file is not an error
	_ = godotenv.Load()

	cfg := Default()

	if path := getEnv("CONFIG_FILE", ""); path != "" {
		if _, err := toml.DecodeFile(path, &cfg); err != nil {
			return Config{}, fmt.Errorf("decode config file %s: %w", path, err)
		}
	}

	if err := overrideByEnv(&cfg); err != nil {
		return Config{}, err
	}

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func Default() Config {
	return Config{
		Env:         "dev",
		Port:        3000,
		StoreDriver: DriverMemory,
		Mongo: MongoConfig{
			Database:   "evolvia",
			Collection: "users",
		},
		DB: DBConfig{
			Host:     "127.0.0.1",
			Port:     "5432",
			User:     "evolvia",
			Password: "evolvia",
			Name:     "evolvia",
			SSLMode:  "disable",
		},
		Auth: AuthConfig{
			JWTSecret:  DefaultJWTSecret,
			UserTTL:    Duration{7 * 24 * time.Hour},
			GuestTTL:   Duration{24 * time.Hour},
			BcryptCost: 10,
			GuestEmail: "guest@evolvia.com",
		},
		HTTP: HTTPConfig{
			CORSAllowedOrigins: []string{"*"},
			MaxBodyBytes:       1 << 20,
		},
		Otel: OtelConfig{
			Endpoint: "localhost:4317",
		},
		LLM: LLMConfig{
			BaseURL:     "https://api.groq.com/openai/v1",
			Model:       "llama-3.1-8b-instant",
			MaxTokens:   300,
			Temperature: 0.7,
		},
		Advisor: AdvisorConfig{
			HistoryTurns: 6,
			HistoryTTL:   Duration{30 * time.Minute},
		},
	}
}

func (c Config) Validate() error {
	var errs []error

	if strings.TrimSpace(c.Auth.JWTSecret) == "" {
		errs = append(errs, errors.New("JWT_SECRET must not be empty"))
	}
	if c.Env == "prod" && c.Auth.JWTSecret == DefaultJWTSecret {
		errs = append(errs, errors.New("JWT_SECRET must be set in prod"))
	}

	switch c.StoreDriver {
	case DriverMemory, DriverPostgres:
	case DriverMongo:
		if c.Mongo.URI == "" {
			errs = append(errs, errors.New("MONGODB_URI is required for the mongo store"))
		}
	default:
		errs = append(errs, fmt.Errorf("unknown STORE_DRIVER %q", c.StoreDriver))
	}

	if c.Port <= 0 || c.Port > 65535 {
		errs = append(errs, fmt.Errorf("invalid PORT %d", c.Port))
	}
	if c.Auth.UserTTL.Duration <= 0 || c.Auth.GuestTTL.Duration <= 0 {
		errs = append(errs, errors.New("token lifetimes must be positive"))
	}
	if c.HTTP.MaxBodyBytes <= 0 {
		errs = append(errs, errors.New("MAX_BODY_BYTES must be positive"))
	}

	return errors.Join(errs...)
}

func (c Config) HTTPAddr() string {
	return fmt.Sprintf("0.0.0.0:%d", c.Port)
}

func (c Config) DBURL() string {
	d := c.DB
	if d.URL != "" {
		return d.URL
	}
	return "postgres://" + d.User + ":" + d.Password + "@" + d.Host + ":" + d.Port + "/" + d.Name + "?sslmode=" + d.SSLMode
}

func WithTimeout(duration time.Duration) (context.Context, context.CancelFunc) {
	return context.WithTimeout(context.Background(), duration)
}

func overrideByEnv(cfg *Config) error {
	e := &envReader{}

	cfg.Env = e.str("APP_ENV", cfg.Env)
	cfg.Port = e.integer("PORT", cfg.Port)
	cfg.StoreDriver = e.str("STORE_DRIVER", cfg.StoreDriver)

	cfg.Mongo.URI = e.str("MONGODB_URI", cfg.Mongo.URI)
	cfg.Mongo.Database = e.str("MONGODB_DATABASE", cfg.Mongo.Database)
	cfg.Mongo.Collection = e.str("MONGODB_COLLECTION", cfg.Mongo.Collection)

	cfg.DB.URL = e.str("DATABASE_URL", cfg.DB.URL)
	cfg.DB.Host = e.str("DB_HOST", cfg.DB.Host)
	cfg.DB.Port = e.str("DB_PORT", cfg.DB.Port)
	cfg.DB.User = e.str("DB_USER", cfg.DB.User)
	cfg.DB.Password = e.str("DB_PASSWORD", cfg.DB.Password)
	cfg.DB.Name = e.str("DB_NAME", cfg.DB.Name)
	cfg.DB.SSLMode = e.str("DB_SSLMODE", cfg.DB.SSLMode)

	cfg.Auth.JWTSecret = e.str("JWT_SECRET", cfg.Auth.JWTSecret)
	cfg.Auth.UserTTL.Duration = e.duration("JWT_USER_TTL", cfg.Auth.UserTTL.Duration)
	cfg.Auth.GuestTTL.Duration = e.duration("JWT_GUEST_TTL", cfg.Auth.GuestTTL.Duration)
	cfg.Auth.BcryptCost = e.integer("BCRYPT_COST", cfg.Auth.BcryptCost)
	cfg.Auth.GuestEmail = e.str("GUEST_EMAIL", cfg.Auth.GuestEmail)

	if v := e.str("CORS_ALLOWED_ORIGINS", ""); v != "" {
		cfg.HTTP.CORSAllowedOrigins = splitList(v)
	}
	cfg.HTTP.MaxBodyBytes = int64(e.integer("MAX_BODY_BYTES", int(cfg.HTTP.MaxBodyBytes)))

	cfg.Otel.Enabled = e.boolean("OTEL_ENABLED", cfg.Otel.Enabled)
	cfg.Otel.Endpoint = e.str("OTEL_EXPORTER_OTLP_ENDPOINT", cfg.Otel.Endpoint)

	cfg.Redis.Addr = e.str("REDIS_ADDR", cfg.Redis.Addr)
	cfg.Redis.Password = e.str("REDIS_PASSWORD", cfg.Redis.Password)
	cfg.Redis.DB = e.integer("REDIS_DB", cfg.Redis.DB)

	cfg.LLM.BaseURL = e.str("LLM_BASE_URL", cfg.LLM.BaseURL)
	cfg.LLM.APIKey = e.str("LLM_API_KEY", cfg.LLM.APIKey)
	cfg.LLM.Model = e.str("LLM_MODEL", cfg.LLM.Model)
	cfg.LLM.MaxTokens = e.integer("LLM_MAX_TOKENS", cfg.LLM.MaxTokens)
	cfg.LLM.Temperature = e.float("LLM_TEMPERATURE", cfg.LLM.Temperature)

	cfg.Advisor.HistoryTurns = e.integer("ADVISOR_HISTORY_TURNS", cfg.Advisor.HistoryTurns)
	cfg.Advisor.HistoryTTL.Duration = e.duration("ADVISOR_HISTORY_TTL", cfg.Advisor.HistoryTTL.Duration)

	cfg.Seed.Username = e.str("SEED_USERNAME", cfg.Seed.Username)
	cfg.Seed.Email = e.str("SEED_EMAIL", cfg.Seed.Email)
	cfg.Seed.Password = e.str("SEED_PASSWORD", cfg.Seed.Password)

	return errors.Join(e.errs...)
}

// envReader collects parse failures so one bad variable does not hide the rest.
type envReader struct {
	errs []error
}

func (e *envReader) str(key, fallback string) string {
	return getEnv(key, fallback)
}

func (e *envReader) integer(key string, fallback int) int {
	v := getEnv(key, "")
	if v == "" {
		return fallback
	}
	num, err := strconv.Atoi(v)
	if err != nil {
		e.errs = append(e.errs, fmt.Errorf("%s: %w", key, err))
		return fallback
	}
	return num
}

func (e *envReader) float(key string, fallback float64) float64 {
	v := getEnv(key, "")
	if v == "" {
		return fallback
	}
	num, err := strconv.ParseFloat(v, 64)
	if err != nil {
		e.errs = append(e.errs, fmt.Errorf("%s: %w", key, err))
		return fallback
	}
	return num
}

func (e *envReader) boolean(key string, fallback bool) bool {
	v := getEnv(key, "")
	if v == "" {
		return fallback
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		e.errs = append(e.errs, fmt.Errorf("%s: %w", key, err))
		return fallback
	}
	return b
}

func (e *envReader) duration(key string, fallback time.Duration) time.Duration {
	v := getEnv(key, "")
	if v == "" {
		return fallback
	}
	d, err := ParseDuration(v)
	if err != nil {
		e.errs = append(e.errs, fmt.Errorf("%s: %w", key, err))
		return fallback
	}
	return d
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}

	return fallback
}

func splitList(v string) []string {
	parts := strings.Split(v, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
