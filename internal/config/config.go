package config

import (
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/2002jaebin-rgb/PTLog/pkg/timegrid"
	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

type Config struct {
	Port               string
	DBUrl              string
	JWTSecret          string
	AppEnv             string
	Grid               timegrid.Grid
	Location           *time.Location
	DBMaxConns         int32
	DBMinConns         int32
	RateLimitPerMinute int
	CORSOrigins        string
}

func LoadConfig() (*Config, error) {
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found")
	}

	v := viper.New()
	v.AutomaticEnv()
	v.SetDefault("PORT", "8080")
	v.SetDefault("APP_ENV", "production")
	v.SetDefault("GRID_START_HOUR", timegrid.DefaultGrid.StartHour)
	v.SetDefault("GRID_END_HOUR", timegrid.DefaultGrid.EndHour)
	v.SetDefault("TIMEZONE", "Local")
	v.SetDefault("DB_MAX_CONNS", 10)
	v.SetDefault("DB_MIN_CONNS", 2)
	v.SetDefault("RATE_LIMIT_PER_MINUTE", 120)
	v.SetDefault("CORS_ORIGINS", "*")

	jwtSecret := strings.TrimSpace(v.GetString("JWT_SECRET"))
	if jwtSecret == "" {
		return nil, fmt.Errorf("JWT_SECRET is required")
	}

	grid := timegrid.Grid{
		StartHour: v.GetInt("GRID_START_HOUR"),
		EndHour:   v.GetInt("GRID_END_HOUR"),
	}
	if err := grid.Validate(); err != nil {
		return nil, fmt.Errorf("GRID_START_HOUR/GRID_END_HOUR: %w", err)
	}

	location, err := time.LoadLocation(v.GetString("TIMEZONE"))
	if err != nil {
		return nil, fmt.Errorf("TIMEZONE: %w", err)
	}

	maxConns, minConns := v.GetInt32("DB_MAX_CONNS"), v.GetInt32("DB_MIN_CONNS")
	if maxConns <= 0 || minConns < 0 || minConns > maxConns {
		return nil, fmt.Errorf("invalid pool size: DB_MIN_CONNS=%d DB_MAX_CONNS=%d", minConns, maxConns)
	}

	return &Config{
		Port:               v.GetString("PORT"),
		DBUrl:              v.GetString("DB_URL"),
		JWTSecret:          jwtSecret,
		AppEnv:             normalizeEnv(v.GetString("APP_ENV")),
		Grid:               grid,
		Location:           location,
		DBMaxConns:         maxConns,
		DBMinConns:         minConns,
		RateLimitPerMinute: v.GetInt("RATE_LIMIT_PER_MINUTE"),
		CORSOrigins:        v.GetString("CORS_ORIGINS"),
	}, nil
}

func normalizeEnv(value string) string {
	switch strings.ToLower(strings.TrimSpace(value)) {
	case "dev", "develop", "development", "local":
		return "development"
	case "prod", "production":
		return "production"
	case "stage", "staging":
		return "staging"
	case "test", "testing":
		return "test"
	default:
		return strings.ToLower(strings.TrimSpace(value))
	}
}

func (c *Config) IsProduction() bool {
	return c != nil && (c.AppEnv == "production" || c.AppEnv == "staging")
}
