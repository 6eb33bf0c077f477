package config

import (
	"fmt"
	"log"
	"net"
	"net/url"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

const supabaseDomain = ".supabase.co"

type Config struct {
	Server    ServerConfig
	Migration MigrationConfig
	JWT       JWTConfig
	CORS      CORSConfig
	Redis     RedisConfig
	S3        S3Config
}

type ServerConfig struct {
	Port        string
	GinMode     string
	Environment string
	LogLevel    string
	LogFormat   string
}

// MigrationConfig holds everything one migration run needs.
// Required keys are checked by Validate before any connection is opened.
type MigrationConfig struct {
	DatabaseURL        string
	SupabaseURL        string
	SupabaseKey        string
	SupabaseKeyKind    string // service_role, anon
	SupabaseDBPassword string
	ResetBeforeMigrate bool
	Schedule           string // cron expression, empty disables the scheduler
	ReportXLSXPath     string
	HTTPTimeout        time.Duration
}

type JWTConfig struct {
	Secret string // empty disables authentication on the migrate endpoint
}

type CORSConfig struct {
	AllowedOrigins []string
}

type RedisConfig struct {
	URL     string // empty disables the shared run lock
	LockTTL time.Duration
}

type S3Config struct {
	Region          string
	Bucket          string // empty disables report archiving
	AccessKeyID     string
	SecretAccessKey string
	Prefix          string
}

func Load() (*Config, error) {
	// Load .env file if it exists
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, using environment variables")
	}

	supabaseKey, keyKind := firstEnv("SUPABASE_SERVICE_ROLE_KEY", "SUPABASE_ANON_KEY")
	switch keyKind {
	case "SUPABASE_SERVICE_ROLE_KEY":
		keyKind = "service_role"
	case "SUPABASE_ANON_KEY":
		keyKind = "anon"
	}
	supabaseURL, _ := firstEnv("SUPABASE_URL", "NEXT_PUBLIC_SUPABASE_URL")

	config := &Config{
		Server: ServerConfig{
			Port:        getEnv("SERVER_PORT", "8080"),
			GinMode:     getEnv("GIN_MODE", "debug"),
			Environment: getEnv("ENVIRONMENT", "development"),
			LogLevel:    getEnv("LOG_LEVEL", ""),
			LogFormat:   getEnv("LOG_FORMAT", "console"),
		},
		Migration: MigrationConfig{
			DatabaseURL:        getEnv("DATABASE_URL", ""),
			SupabaseURL:        supabaseURL,
			SupabaseKey:        supabaseKey,
			SupabaseKeyKind:    keyKind,
			SupabaseDBPassword: getEnv("SUPABASE_DB_PASSWORD", ""),
			ResetBeforeMigrate: parseBool(getEnv("MIGRATE_RESET_BEFORE", "false")),
			Schedule:           getEnv("MIGRATE_SCHEDULE", ""),
			ReportXLSXPath:     getEnv("MIGRATE_REPORT_XLSX", ""),
			HTTPTimeout:        parseDuration(getEnv("SUPABASE_HTTP_TIMEOUT", "30s"), 30*time.Second),
		},
		JWT: JWTConfig{
			Secret: getEnv("JWT_SECRET", ""),
		},
		CORS: CORSConfig{
			AllowedOrigins: parseSlice(getEnv("ALLOWED_ORIGINS", "*")),
		},
		Redis: RedisConfig{
			URL:     getEnv("REDIS_URL", ""),
			LockTTL: parseDuration(getEnv("MIGRATE_LOCK_TTL", "15m"), 15*time.Minute),
		},
		S3: S3Config{
			Region:          getEnv("AWS_REGION", "us-east-1"),
			Bucket:          getEnv("AWS_S3_BUCKET", ""),
			AccessKeyID:     getEnv("AWS_ACCESS_KEY_ID", ""),
			SecretAccessKey: getEnv("AWS_SECRET_ACCESS_KEY", ""),
			Prefix:          getEnv("AWS_S3_REPORT_PREFIX", "migration-reports"),
		},
	}

	return config, nil
}

// Validate reports every missing required key at once.
func (c *MigrationConfig) Validate() error {
	var missing []string
	if c.DatabaseURL == "" {
		missing = append(missing, "DATABASE_URL")
	}
	if c.SupabaseURL == "" {
		missing = append(missing, "SUPABASE_URL")
	}
	if c.SupabaseKey == "" && c.SupabaseDBPassword == "" {
		missing = append(missing, "SUPABASE_SERVICE_ROLE_KEY")
	}
	if len(missing) > 0 {
		return fmt.Errorf("missing required environment: %s", strings.Join(missing, ", "))
	}

	u, err := url.Parse(c.SupabaseURL)
	if err != nil || u.Host == "" {
		return fmt.Errorf("invalid SUPABASE_URL %q", c.SupabaseURL)
	}
	if c.UseDirectConnection() {
		if _, err := c.DestinationDSN(); err != nil {
			return err
		}
	}
	return nil
}

// UseDirectConnection reports whether the destination is reached over Postgres
// instead of the REST API.
func (c *MigrationConfig) UseDirectConnection() bool {
	return c.SupabaseDBPassword != ""
}

// ProjectRef extracts the project reference from https://<ref>.supabase.co.
func (c *MigrationConfig) ProjectRef() (string, error) {
	u, err := url.Parse(c.SupabaseURL)
	if err != nil || u.Host == "" {
		return "", fmt.Errorf("invalid SUPABASE_URL %q", c.SupabaseURL)
	}
	host := u.Hostname()
	ref, _, found := strings.Cut(host, ".")
	if !found || ref == "" {
		return "", fmt.Errorf("invalid SUPABASE_URL %q", c.SupabaseURL)
	}
	return ref, nil
}

// DestinationDSN builds the direct Postgres URL of the destination. Hosted
// projects (https://<ref>.supabase.co) use db.<ref>.supabase.co over TLS; any
// other host is dialled as is.
func (c *MigrationConfig) DestinationDSN() (string, error) {
	u, err := url.Parse(c.SupabaseURL)
	if err != nil || u.Host == "" {
		return "", fmt.Errorf("invalid SUPABASE_URL %q", c.SupabaseURL)
	}

	host := u.Hostname()
	sslMode := "prefer"
	if strings.HasSuffix(host, supabaseDomain) {
		sslMode = "require"
		if !strings.HasPrefix(host, "db.") {
			ref, err := c.ProjectRef()
			if err != nil {
				return "", err
			}
			host = "db." + ref + supabaseDomain
		}
	}

	dsn := url.URL{
		Scheme:   "postgres",
		User:     url.UserPassword("postgres", c.SupabaseDBPassword),
		Host:     net.JoinHostPort(host, "5432"),
		Path:     "/postgres",
		RawQuery: "sslmode=" + sslMode,
	}
	return dsn.String(), nil
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// firstEnv returns the first non-empty value among keys and the key it came from.
func firstEnv(keys ...string) (string, string) {
	for _, key := range keys {
		if value := os.Getenv(key); value != "" {
			return value, key
		}
	}
	return "", ""
}

func parseDuration(s string, fallback time.Duration) time.Duration {
	duration, err := time.ParseDuration(s)
	if err != nil {
		log.Printf("Invalid duration %s, using default %s", s, fallback)
		return fallback
	}
	return duration
}

func parseBool(s string) bool {
	b, err := strconv.ParseBool(s)
	if err != nil {
		log.Printf("Invalid boolean %s, using false", s)
		return false
	}
	return b
}

func parseSlice(s string) []string {
	if s == "" {
		return []string{}
	}
	var result []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			result = append(result, part)
		}
	}
	return result
}
