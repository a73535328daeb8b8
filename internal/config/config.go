package config

import (
	"log"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	DBDriver   string
	DBHost     string
	DBPort     string
	DBUser     string
	DBPassword string
	DBName     string
	SQLitePath string
	ServerPort string
	JWTSecret  string
	JWTExpiry  time.Duration
	// Location is where day windows are computed. Zones with DST make the
	// window after a changeover start at 04:00 or 06:00 local time.
	Location              *time.Location
	TemplateCheckInterval time.Duration
	AutoRollover          bool
	AppEnv                string
}

func Load() *Config {
	err := godotenv.Load()
	if err != nil {
		log.Println("No .env file found, using system environment variables")
	}

	return &Config{
		DBDriver:              strings.ToLower(getEnv("DB_DRIVER", "postgres")),
		DBHost:                getEnv("DB_HOST", "localhost"),
		DBPort:                getEnv("DB_PORT", "5432"),
		DBUser:                getEnv("DB_USER", "daytracker"),
		DBPassword:            getEnv("DB_PASSWORD", "daytracker"),
		DBName:                getEnv("DB_NAME", "daytracker"),
		SQLitePath:            getEnv("SQLITE_PATH", "data/daytracker.db"),
		ServerPort:            getEnv("SERVER_PORT", "8080"),
		JWTSecret:             getEnv("JWT_SECRET", "supersecretkey"),
		JWTExpiry:             time.Duration(getEnvInt("JWT_EXPIRY_HOURS", 24)) * time.Hour,
		Location:              getEnvLocation("TIMEZONE", time.UTC),
		TemplateCheckInterval: getEnvDuration("TEMPLATE_CHECK_INTERVAL", time.Minute),
		AutoRollover:          getEnvBool("AUTO_ROLLOVER", false),
		AppEnv:                getEnv("APP_ENV", "production"),
	}
}

func (c *Config) IsDevelopment() bool {
	return c.AppEnv == "development"
}

func getEnv(key, defaultVal string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return defaultVal
}

func getEnvInt(key string, defaultVal int) int {
	value, err := strconv.Atoi(getEnv(key, ""))
	if err != nil || value <= 0 {
		return defaultVal
	}
	return value
}

func getEnvBool(key string, defaultVal bool) bool {
	value, err := strconv.ParseBool(getEnv(key, ""))
	if err != nil {
		return defaultVal
	}
	return value
}

func getEnvDuration(key string, defaultVal time.Duration) time.Duration {
	value, err := time.ParseDuration(getEnv(key, ""))
	if err != nil || value <= 0 {
		return defaultVal
	}
	return value
}

func getEnvLocation(key string, defaultVal *time.Location) *time.Location {
	name := getEnv(key, "")
	if name == "" {
		return defaultVal
	}
	loc, err := time.LoadLocation(name)
	if err != nil {
		log.Printf("Unknown %s %q, falling back to %s", key, name, defaultVal)
		return defaultVal
	}
	return loc
}
