package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// AdminAccount describes an administrator allowed to sign in.
type AdminAccount struct {
	Name         string
	Email        string
	PasswordHash string
}

// Config holds runtime configuration values for the API service.
type Config struct {
	AppName         string
	AppEnv          string
	AppPort         string
	Timezone        string
	Location        *time.Location
	DatabaseURL     string
	RedisURL        string
	NATSURL         string
	NATSSubject     string
	JWTSecret       string
	JWTTTL          time.Duration
	Admins          []AdminAccount
	LoginRateLimit  int
	LookupRateLimit int
	RateLimitWindow time.Duration
	AutoMigrate     bool
	AllowOrigin     string
}

// HTTPAddress returns the address the HTTP server should listen on.
func (c Config) HTTPAddress() string {
	if strings.HasPrefix(c.AppPort, ":") {
		return c.AppPort
	}

	return fmt.Sprintf(":%s", c.AppPort)
}

// Load reads configuration values from environment variables and optional .env file.
func Load() (Config, error) {
	_ = godotenv.Load()

	v := viper.New()
	v.SetEnvPrefix("REGISTRY")
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	v.SetDefault("app.name", "Participant Registry API")
	v.SetDefault("app.env", "development")
	v.SetDefault("app.port", "5000")
	v.SetDefault("app.timezone", "UTC")
	v.SetDefault("nats.subject", "registry.activity")
	v.SetDefault("jwt.ttl", "12h")
	v.SetDefault("login.rate_limit", 10)
	v.SetDefault("lookup.rate_limit", 30)
	v.SetDefault("rate_limit.window", "1m")
	v.SetDefault("database.auto_migrate", true)
	v.SetDefault("cors.allow_origin", "*")

	ttl, err := parseDuration(v.GetString("jwt.ttl"), 12*time.Hour)
	if err != nil {
		return Config{}, fmt.Errorf("invalid jwt ttl: %w", err)
	}

	window, err := parseDuration(v.GetString("rate_limit.window"), time.Minute)
	if err != nil {
		return Config{}, fmt.Errorf("invalid rate limit window: %w", err)
	}

	timezone := strings.TrimSpace(v.GetString("app.timezone"))
	location, err := time.LoadLocation(timezone)
	if err != nil {
		return Config{}, fmt.Errorf("invalid timezone %q: %w", timezone, err)
	}

	admins, err := ParseAdminAccounts(v.GetString("admin.accounts"))
	if err != nil {
		return Config{}, err
	}

	cfg := Config{
		AppName:         v.GetString("app.name"),
		AppEnv:          v.GetString("app.env"),
		AppPort:         v.GetString("app.port"),
		Timezone:        timezone,
		Location:        location,
		DatabaseURL:     v.GetString("database.url"),
		RedisURL:        v.GetString("redis.url"),
		NATSURL:         v.GetString("nats.url"),
		NATSSubject:     v.GetString("nats.subject"),
		JWTSecret:       v.GetString("jwt.secret"),
		JWTTTL:          ttl,
		Admins:          admins,
		LoginRateLimit:  v.GetInt("login.rate_limit"),
		LookupRateLimit: v.GetInt("lookup.rate_limit"),
		RateLimitWindow: window,
		AutoMigrate:     v.GetBool("database.auto_migrate"),
		AllowOrigin:     v.GetString("cors.allow_origin"),
	}

	if cfg.JWTSecret == "" {
		return Config{}, fmt.Errorf("jwt secret must be provided")
	}

	if cfg.LoginRateLimit <= 0 {
		cfg.LoginRateLimit = 10
	}

	if cfg.LookupRateLimit <= 0 {
		cfg.LookupRateLimit = 30
	}

	return cfg, nil
}

// ParseAdminAccounts decodes a comma separated list of "name:email:bcrypt-hash" entries.
func ParseAdminAccounts(raw string) ([]AdminAccount, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil, nil
	}

	entries := strings.Split(raw, ",")
	accounts := make([]AdminAccount, 0, len(entries))
	for _, entry := range entries {
		entry = strings.TrimSpace(entry)
		if entry == "" {
			continue
		}

		parts := strings.SplitN(entry, ":", 3)
		if len(parts) != 3 {
			return nil, fmt.Errorf("invalid admin account entry %q", entry)
		}

		account := AdminAccount{
			Name:         strings.TrimSpace(parts[0]),
			Email:        strings.ToLower(strings.TrimSpace(parts[1])),
			PasswordHash: strings.TrimSpace(parts[2]),
		}
		if account.Name == "" || account.Email == "" || account.PasswordHash == "" {
			return nil, fmt.Errorf("incomplete admin account entry %q", entry)
		}
		accounts = append(accounts, account)
	}

	return accounts, nil
}

func parseDuration(value string, fallback time.Duration) (time.Duration, error) {
	if strings.TrimSpace(value) == "" {
		return fallback, nil
	}
	return time.ParseDuration(value)
}
