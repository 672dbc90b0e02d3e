package config

import (
	"fmt"
	"os"
	"strings"
	"time"
)

// Role store backends.
const (
	RoleStoreKratos   = "kratos"
	RoleStorePostgres = "postgres"
)

// Route cache backends.
const (
	RouteCacheMemory = "memory"
	RouteCacheRedis  = "redis"
	RouteCacheOff    = "off"
)

const minClaimsSecretLen = 32

// Config holds the application configuration
type Config struct {
	KratosURL         string        // Kratos Frontend API (port 4433)
	KratosAdminURL    string        // Kratos Admin API (port 4434), backs the kratos role store
	Port              string        // Service port
	CacheTTL          time.Duration // Session cache TTL
	CSRFSecret        string        // CSRF secret; empty disables the CSRF check on POST /api/role
	AuthSharedSecret  string        // Shared secret for /internal endpoints
	ClaimsSecret      string        // HS256 key for the claims cookie
	ClaimsIssuer      string
	ClaimsAudience    string
	ClaimsTTL         time.Duration
	CookieSecure      bool
	RoleStore         string
	DatabaseURL       string
	RoleLookupTimeout time.Duration // Bound on the gate's role store fallback read
	RouteCache        string
	RedisURL          string
	RouteCacheTTL     time.Duration
	RoutesFile        string // YAML route table; empty means the built-in table
	UpstreamURL       string // Reverse proxy target; empty serves the placeholder page
}

// Load reads configuration from environment variables with sensible defaults
func Load() (*Config, error) {
	config := &Config{
		KratosURL:         getEnv("KRATOS_URL", "http://kratos:4433"),
		KratosAdminURL:    getEnv("KRATOS_ADMIN_URL", "http://kratos:4434"),
		Port:              getEnv("PORT", "8888"),
		CacheTTL:          5 * time.Minute,
		CSRFSecret:        getEnv("CSRF_SECRET", ""),
		AuthSharedSecret:  getEnv("AUTH_SHARED_SECRET", ""),
		ClaimsSecret:      getEnv("CLAIMS_SECRET", ""),
		ClaimsIssuer:      getEnv("CLAIMS_ISSUER", "cradle-gate"),
		ClaimsAudience:    getEnv("CLAIMS_AUDIENCE", "cradle-web"),
		ClaimsTTL:         15 * time.Minute,
		CookieSecure:      getEnv("COOKIE_SECURE", "true") != "false",
		RoleStore:         strings.ToLower(getEnv("ROLE_STORE", RoleStoreKratos)),
		DatabaseURL:       getEnv("DATABASE_URL", ""),
		RoleLookupTimeout: 2 * time.Second,
		RouteCache:        strings.ToLower(getEnv("ROUTE_CACHE", RouteCacheMemory)),
		RedisURL:          getEnv("REDIS_URL", ""),
		RouteCacheTTL:     30 * time.Second,
		RoutesFile:        getEnv("ROUTES_FILE", ""),
		UpstreamURL:       getEnv("UPSTREAM_URL", ""),
	}

	durations := []struct {
		key string
		dst *time.Duration
	}{
		{"CACHE_TTL", &config.CacheTTL},
		{"CLAIMS_TTL", &config.ClaimsTTL},
		{"ROLE_LOOKUP_TIMEOUT", &config.RoleLookupTimeout},
		{"ROUTE_CACHE_TTL", &config.RouteCacheTTL},
	}
	for _, d := range durations {
		if err := parseDuration(d.key, d.dst); err != nil {
			return nil, err
		}
	}

	if err := config.Validate(); err != nil {
		return nil, err
	}

	return config, nil
}

// Validate checks if the configuration is valid
func (c *Config) Validate() error {
	if c.KratosURL == "" {
		return fmt.Errorf("KRATOS_URL cannot be empty")
	}

	if c.Port == "" {
		return fmt.Errorf("PORT cannot be empty")
	}

	if c.CacheTTL <= 0 {
		return fmt.Errorf("CACHE_TTL must be positive")
	}

	if len(c.ClaimsSecret) < minClaimsSecretLen {
		return fmt.Errorf("CLAIMS_SECRET must be at least %d characters", minClaimsSecretLen)
	}

	if c.ClaimsTTL <= 0 {
		return fmt.Errorf("CLAIMS_TTL must be positive")
	}

	if c.RoleLookupTimeout <= 0 {
		return fmt.Errorf("ROLE_LOOKUP_TIMEOUT must be positive")
	}

	switch c.RoleStore {
	case RoleStoreKratos:
		if c.KratosAdminURL == "" {
			return fmt.Errorf("KRATOS_ADMIN_URL is required when ROLE_STORE=%s", RoleStoreKratos)
		}
	case RoleStorePostgres:
		if c.DatabaseURL == "" {
			return fmt.Errorf("DATABASE_URL is required when ROLE_STORE=%s", RoleStorePostgres)
		}
	default:
		return fmt.Errorf("unknown ROLE_STORE %q", c.RoleStore)
	}

	switch c.RouteCache {
	case RouteCacheMemory, RouteCacheOff:
	case RouteCacheRedis:
		if c.RedisURL == "" {
			return fmt.Errorf("REDIS_URL is required when ROUTE_CACHE=%s", RouteCacheRedis)
		}
	default:
		return fmt.Errorf("unknown ROUTE_CACHE %q", c.RouteCache)
	}

	if c.RouteCache != RouteCacheOff && c.RouteCacheTTL <= 0 {
		return fmt.Errorf("ROUTE_CACHE_TTL must be positive")
	}

	return nil
}

func parseDuration(key string, dst *time.Duration) error {
	raw := getEnv(key, "")
	if raw == "" {
		return nil
	}
	duration, err := time.ParseDuration(raw)
	if err != nil {
		return fmt.Errorf("invalid %s format: %w", key, err)
	}
	*dst = duration
	return nil
}

// getEnv retrieves an environment variable or returns a fallback value.
// KEY_FILE takes precedence over KEY.
func getEnv(key, fallback string) string {
	if fileValue := os.Getenv(key + "_FILE"); fileValue != "" {
		content, err := os.ReadFile(fileValue)
		if err == nil {
			return strings.TrimSpace(string(content))
		}
	}

	if value := os.Getenv(key); value != "" {
		return value
	}
	return fallback
}
