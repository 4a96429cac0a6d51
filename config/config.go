package config

import (
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/joho/godotenv"
)

var (
	MAIN_ROUTES   string
	APP_PORT      string
	JWTSecret     string
	JWTExpiration int
	AuthEnabled   bool

	AdminUsername string
	AdminPassword string
	AdminEmail    string

	DBDriver          string
	DBHost            string
	DBPort            string
	DBUser            string
	DBPassword        string
	DBName            string
	DBSSLMode         string
	DBSQLiteDir       string
	DBMaxOpenConns    int
	DBMaxIdleConns    int
	DBConnMaxLifetime time.Duration

	MenuCacheTTL time.Duration

	BackupDir     string
	PgDumpPath    string
	PsqlPath      string
	BackupTimeout time.Duration

	SMTPHost     string
	SMTPPort     int
	SMTPUser     string
	SMTPPassword string
	SMTPFrom     string
	NotifyEmail  string

	SnowflakeNode  int64
	SeedSampleMenu bool

	allowedOrigins map[string]bool
)

// LoadConfig reads .env (when present) and fills the package-level settings.
func LoadConfig() {
	if err := godotenv.Load(); err != nil {
		slog.Warn(".env file not found, using system environment variables")
	}

	MAIN_ROUTES = getEnv("MAIN_ROUTES", "/api")
	APP_PORT = getEnv("APP_PORT", "9000")

	JWTSecret = getEnv("JWT_SECRET", "admin_dashboard_dev_secret")
	JWTExpiration = getEnvAsInt("JWT_EXPIRATION", 86400)
	AuthEnabled = getEnvAsBool("AUTH_ENABLED", true)

	AdminUsername = getEnv("ADMIN_USERNAME", "admin")
	AdminPassword = getEnv("ADMIN_PASSWORD", "admin")
	AdminEmail = getEnv("ADMIN_EMAIL", "admin@example.com")

	DBDriver = getEnv("DB_DRIVER", "postgres")
	DBHost = getEnv("DB_HOST", "localhost")
	DBPort = getEnv("DB_PORT", "5432")
	DBUser = getEnv("DB_USER", "postgres")
	DBPassword = getEnv("DB_PASSWORD", "postgres")
	DBName = getEnv("DB_NAME", "admin_dashboard")
	DBSSLMode = getEnv("DB_SSLMODE", "disable")
	DBSQLiteDir = getEnv("DB_SQLITE_DIR", "./data")
	DBMaxOpenConns = getEnvAsInt("DB_MAX_OPEN_CONNS", 25)
	DBMaxIdleConns = getEnvAsInt("DB_MAX_IDLE_CONNS", 10)
	DBConnMaxLifetime = getEnvAsDuration("DB_CONN_MAX_LIFETIME", 5*time.Minute)

	MenuCacheTTL = getEnvAsDuration("MENU_CACHE_TTL", 10*time.Second)

	BackupDir = getEnv("BACKUP_DIR", "./backups")
	PgDumpPath = getEnv("PG_DUMP_PATH", "pg_dump")
	PsqlPath = getEnv("PSQL_PATH", "psql")
	BackupTimeout = getEnvAsDuration("BACKUP_TIMEOUT", 10*time.Minute)

	SMTPHost = getEnv("SMTP_HOST", "")
	SMTPPort = getEnvAsInt("SMTP_PORT", 587)
	SMTPUser = getEnv("SMTP_USER", "")
	SMTPPassword = getEnv("SMTP_PASSWORD", "")
	SMTPFrom = getEnv("SMTP_FROM", "no-reply@example.com")
	NotifyEmail = getEnv("NOTIFY_EMAIL", "")

	SnowflakeNode = int64(getEnvAsInt("SNOWFLAKE_NODE", 1))
	SeedSampleMenu = getEnvAsBool("SEED_SAMPLE_MENU", false)

	loadAllowedOrigins()
}

// getEnv returns the variable or the fallback when it is unset or empty.
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	valueStr := getEnv(key, "")
	if value, err := strconv.Atoi(valueStr); err == nil {
		return value
	}
	return defaultValue
}

func getEnvAsBool(key string, defaultValue bool) bool {
	valueStr := getEnv(key, "")
	if value, err := strconv.ParseBool(valueStr); err == nil {
		return value
	}
	return defaultValue
}

// getEnvAsDuration accepts Go duration strings ("15s") or a bare number of seconds.
func getEnvAsDuration(key string, defaultValue time.Duration) time.Duration {
	valueStr := getEnv(key, "")
	if valueStr == "" {
		return defaultValue
	}
	if d, err := time.ParseDuration(valueStr); err == nil {
		return d
	}
	if secs, err := strconv.Atoi(valueStr); err == nil {
		return time.Duration(secs) * time.Second
	}
	return defaultValue
}

func loadAllowedOrigins() {
	allowedOrigins = make(map[string]bool)
	originsStr := getEnv("ALLOWED_ORIGINS", "")

	if originsStr == "" {
		allowedOrigins = map[string]bool{
			"http://localhost:3000": true,
			"http://127.0.0.1:3000": true,
		}
		return
	}

	for _, origin := range strings.Split(originsStr, ",") {
		origin = strings.TrimSpace(origin)
		if origin != "" {
			allowedOrigins[origin] = true
		}
	}
}

// IsAllowedOrigin reports whether CORS headers should be sent for origin.
func IsAllowedOrigin(origin string) bool {
	return allowedOrigins[origin]
}

func SetupCORS(app *fiber.App) {
	app.Use(func(c *fiber.Ctx) error {
		origin := c.Get("Origin")
		if allowedOrigins[origin] {
			c.Set("Access-Control-Allow-Origin", origin)
			c.Set("Access-Control-Allow-Methods", "GET,POST,PUT,DELETE,OPTIONS")
			c.Set("Access-Control-Allow-Headers", "Origin, Content-Type, Accept, Authorization")
			c.Set("Access-Control-Allow-Credentials", "true")
		}

		if c.Method() == fiber.MethodOptions {
			return c.SendStatus(fiber.StatusNoContent)
		}
		return c.Next()
	})
}
