package config

import (
	"log"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config stores the application configuration.
type Config struct {
	ServerAddr string
	PublicURL  string // Base URL the browser uses to reach this server
	WebAppDir  string // Path to the web application's UI files

	// Logging
	LogLevel      string
	LogFile       string
	LogMaxSizeMB  int
	LogMaxBackups int
	LogMaxAgeDays int

	DBHost     string
	DBPort     string
	DBUser     string
	DBPassword string
	DBName     string

	// Redis配置
	RedisHost       string
	RedisPort       string
	RedisPassword   string
	RedisDB         int
	CatalogCacheTTL time.Duration

	// MinIO media host
	MinioEndpoint  string
	MinioAccessKey string
	MinioSecretKey string
	MinioBucket    string
	MinioRegion    string
	MinioUseSSL    bool
	MaxUploadMB    int64

	FFmpegPath string

	// Identity
	JWTSecret          string
	JWTTTL             time.Duration
	GoogleClientID     string
	GoogleClientSecret string
	GoogleRedirectURL  string
	FrontendURL        string

	// Roles
	AdminEmails      []string
	PrivilegedEmails []string
	RolesFile        string

	CalendarTZ      string
	JanitorSchedule string
}

// getEnv gets an environment variable or returns a default value.
func getEnv(key, fallback string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return fallback
}

// getEnvInt gets an environment variable as int or returns a default value.
func getEnvInt(key string, fallback int) int {
	if value, exists := os.LookupEnv(key); exists {
		if intVal, err := strconv.Atoi(value); err == nil {
			return intVal
		}
	}
	return fallback
}

func getEnvBool(key string, fallback bool) bool {
	if value, exists := os.LookupEnv(key); exists {
		if b, err := strconv.ParseBool(value); err == nil {
			return b
		}
	}
	return fallback
}

func getEnvDuration(key string, fallback time.Duration) time.Duration {
	if value, exists := os.LookupEnv(key); exists {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
	}
	return fallback
}

// getEnvList splits a comma separated variable, dropping blanks.
func getEnvList(key string) []string {
	raw := os.Getenv(key)
	if raw == "" {
		return nil
	}
	var out []string
	for _, part := range strings.Split(raw, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}

// Load loads configuration from environment variables (via .env file) or defaults.
func Load() *Config {
	// godotenv.Load() will not override existing env vars.
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found or error loading .env, relying on existing environment variables and defaults.")
	}

	publicURL := strings.TrimRight(getEnv("PUBLIC_URL", "http://localhost:8080"), "/")

	return &Config{
		ServerAddr: getEnv("SERVER_ADDR", ":8080"),
		PublicURL:  publicURL,
		WebAppDir:  getEnv("WEBAPP_DIR", "web/ui"),

		LogLevel:      getEnv("LOG_LEVEL", "info"),
		LogFile:       getEnv("LOG_FILE", "logs/audiotheque.log"),
		LogMaxSizeMB:  getEnvInt("LOG_MAX_SIZE_MB", 100),
		LogMaxBackups: getEnvInt("LOG_MAX_BACKUPS", 5),
		LogMaxAgeDays: getEnvInt("LOG_MAX_AGE_DAYS", 30),

		DBHost:     getEnv("DB_HOST", "127.0.0.1"),
		DBPort:     getEnv("DB_PORT", "3306"),
		DBUser:     getEnv("DB_USER", "root"),
		DBPassword: os.Getenv("DB_PASSWORD"), // no hardcoded default for the password
		DBName:     getEnv("DB_NAME", "audiotheque"),

		RedisHost:       getEnv("REDIS_HOST", "127.0.0.1"),
		RedisPort:       getEnv("REDIS_PORT", "6379"),
		RedisPassword:   getEnv("REDIS_PASSWORD", ""),
		RedisDB:         getEnvInt("REDIS_DB", 0),
		CatalogCacheTTL: getEnvDuration("CATALOG_CACHE_TTL", 5*time.Minute),

		MinioEndpoint:  getEnv("MINIO_ENDPOINT", "127.0.0.1:9000"),
		MinioAccessKey: os.Getenv("MINIO_ACCESS_KEY"),
		MinioSecretKey: os.Getenv("MINIO_SECRET_KEY"),
		MinioBucket:    getEnv("MINIO_BUCKET", "audiotheque"),
		MinioRegion:    getEnv("MINIO_REGION", "us-east-1"),
		MinioUseSSL:    getEnvBool("MINIO_USE_SSL", false),
		MaxUploadMB:    int64(getEnvInt("MAX_UPLOAD_MB", 200)),

		FFmpegPath: getEnv("FFMPEG_PATH", "ffmpeg"),

		JWTSecret:          getEnv("JWT_SECRET", "change-me"),
		JWTTTL:             getEnvDuration("JWT_TTL", 7*24*time.Hour),
		GoogleClientID:     os.Getenv("GOOGLE_CLIENT_ID"),
		GoogleClientSecret: os.Getenv("GOOGLE_CLIENT_SECRET"),
		GoogleRedirectURL:  getEnv("GOOGLE_REDIRECT_URL", publicURL+"/api/auth/google/callback"),
		FrontendURL:        getEnv("FRONTEND_URL", publicURL),

		AdminEmails:      getEnvList("ADMIN_EMAILS"),
		PrivilegedEmails: getEnvList("PRIVILEGED_EMAILS"),
		RolesFile:        os.Getenv("ROLES_FILE"),

		CalendarTZ:      getEnv("CALENDAR_TZ", "Local"),
		JanitorSchedule: getEnv("JANITOR_SCHEDULE", "@daily"),
	}
}

// CalendarLocation resolves CalendarTZ, falling back to time.Local.
func (c *Config) CalendarLocation() *time.Location {
	if c.CalendarTZ == "" || c.CalendarTZ == "Local" {
		return time.Local
	}
	loc, err := time.LoadLocation(c.CalendarTZ)
	if err != nil {
		log.Printf("Unknown CALENDAR_TZ %q, using local time: %v", c.CalendarTZ, err)
		return time.Local
	}
	return loc
}

// MaxUploadBytes is the multipart limit for audio uploads.
func (c *Config) MaxUploadBytes() int64 {
	return c.MaxUploadMB << 20
}
