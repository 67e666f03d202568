package config

import (
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/viper"
)

type Config struct {
	Server   ServerConfig   `mapstructure:"server"`
	Database DatabaseConfig `mapstructure:"database"`
	Redis    RedisConfig    `mapstructure:"redis"`
	Auth     AuthConfig     `mapstructure:"auth"`
	CORS     CORSConfig     `mapstructure:"cors"`
	Logging  LoggingConfig  `mapstructure:"logging"`
	Engine   EngineConfig   `mapstructure:"engine"`
}

type ServerConfig struct {
	Port    int           `mapstructure:"port" default:"8000"`
	Mode    string        `mapstructure:"mode"`
	Timeout time.Duration `mapstructure:"timeout"`
}

type DatabaseConfig struct {
	Host            string        `mapstructure:"host"`
	Port            int           `mapstructure:"port"`
	User            string        `mapstructure:"user"`
	Password        string        `mapstructure:"password"`
	Name            string        `mapstructure:"name"`
	SSLMode         string        `mapstructure:"sslmode"`
	MaxOpenConns    int           `mapstructure:"max_open_conns"`
	MaxIdleConns    int           `mapstructure:"max_idle_conns"`
	ConnMaxLifetime time.Duration `mapstructure:"conn_max_lifetime"`
}

type RedisConfig struct {
	Host     string `mapstructure:"host"`
	Port     int    `mapstructure:"port"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
}

type AuthConfig struct {
	JWTSecret      string `mapstructure:"jwt_secret"`
	JWTExpiryHours int    `mapstructure:"jwt_expiry_hours"`
	JWTIssuer      string `mapstructure:"jwt_issuer"`
}

type CORSConfig struct {
	AllowedOrigins   []string `mapstructure:"allowed_origins"`
	AllowedMethods   []string `mapstructure:"allowed_methods"`
	AllowedHeaders   []string `mapstructure:"allowed_headers"`
	AllowCredentials bool     `mapstructure:"allow_credentials"`
}

type LoggingConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

// RateLimitPolicyConfig maps an action name to its trailing-window quota.
type RateLimitPolicyConfig struct {
	Max    int           `mapstructure:"max"`
	Window time.Duration `mapstructure:"window"`
}

// EngineConfig holds the progression engine's tunable tables. All values
// have defaults; configuration overrides exist for per-environment tuning.
type EngineConfig struct {
	RateLimits      map[string]RateLimitPolicyConfig `mapstructure:"rate_limits"`
	DefaultMax      int                              `mapstructure:"default_max"`
	DefaultWindow   time.Duration                    `mapstructure:"default_window"`
	StreakRewards   []int                            `mapstructure:"streak_rewards"`
	UsageRetention  time.Duration                    `mapstructure:"usage_retention"`
	PruneBatchSize  int                              `mapstructure:"prune_batch_size"`
	PruneInterval   time.Duration                    `mapstructure:"prune_interval"`
	LeaderboardTTL  time.Duration                    `mapstructure:"leaderboard_ttl"`
	LeaderboardSize int                              `mapstructure:"leaderboard_size"`
}

func getEnv(key, fallback string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return fallback
}

func setEngineDefaults(v *viper.Viper) {
	v.SetDefault("engine.default_max", 100)
	v.SetDefault("engine.default_window", time.Hour)
	v.SetDefault("engine.streak_rewards", []int{25, 50, 75, 100, 150, 200, 500})
	v.SetDefault("engine.usage_retention", 30*24*time.Hour)
	v.SetDefault("engine.prune_batch_size", 1000)
	v.SetDefault("engine.prune_interval", time.Hour)
	v.SetDefault("engine.leaderboard_ttl", 5*time.Minute)
	v.SetDefault("engine.leaderboard_size", 10)
}

func LoadConfig(configPath string) (*Config, error) {
	var config Config

	// If CONFIG_FILE environment variable is set, use it
	if envConfigFile := os.Getenv("CONFIG_FILE"); envConfigFile != "" {
		configPath = envConfigFile
	}

	// Initialize viper
	v := viper.New()
	v.SetConfigType("yaml")
	setEngineDefaults(v)

	// If configPath is provided, use it directly
	if configPath != "" {
		dir := filepath.Dir(configPath)
		file := filepath.Base(configPath)
		ext := filepath.Ext(file)
		name := strings.TrimSuffix(file, ext)

		v.AddConfigPath(dir)
		v.SetConfigName(name)
	} else {
		// Fallback to default locations
		_, filename, _, _ := runtime.Caller(0)
		pkgConfigDir := filepath.Dir(filename)
		projectRoot := filepath.Join(pkgConfigDir, "..", "..")

		v.AddConfigPath(pkgConfigDir)
		v.AddConfigPath(projectRoot)
		v.AddConfigPath(filepath.Join(projectRoot, "pkg", "config"))
		v.SetConfigName("config")
	}

	// Read the config file
	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("error loading config file: %v", err)
	}

	// Enable environment variable override
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	// Override with environment variables if they exist
	envVars := map[string]string{
		"database.host":            "DB_HOST",
		"database.port":            "DB_PORT",
		"database.user":            "DB_USER",
		"database.password":        "DB_PASSWORD",
		"database.name":            "DB_NAME",
		"database.sslmode":         "DB_SSLMODE",
		"server.mode":              "SERVER_MODE",
		"server.timeout":           "SERVER_TIMEOUT",
		"redis.host":               "REDIS_HOST",
		"redis.port":               "REDIS_PORT",
		"redis.password":           "REDIS_PASSWORD",
		"redis.db":                 "REDIS_DB",
		"auth.jwt_secret":          "JWT_SECRET",
		"auth.jwt_issuer":          "JWT_ISSUER",
		"auth.jwt_expiry_hours":    "JWT_EXPIRY_HOURS",
		"engine.usage_retention":   "ENGINE_USAGE_RETENTION",
		"engine.prune_batch_size":  "ENGINE_PRUNE_BATCH_SIZE",
		"engine.prune_interval":    "ENGINE_PRUNE_INTERVAL",
		"logging.level":            "LOG_LEVEL",
		"logging.format":           "LOG_FORMAT",
	}

	for configKey, envVar := range envVars {
		if value := os.Getenv(envVar); value != "" {
			// Handle special cases for type conversion
			switch envVar {
			case "DB_PORT", "REDIS_PORT", "JWT_EXPIRY_HOURS", "REDIS_DB", "ENGINE_PRUNE_BATCH_SIZE":
				if intVal, err := strconv.Atoi(value); err == nil {
					v.Set(configKey, intVal)
				}
			case "SERVER_TIMEOUT", "ENGINE_USAGE_RETENTION", "ENGINE_PRUNE_INTERVAL":
				if d, err := time.ParseDuration(value); err == nil {
					v.Set(configKey, d)
				}
			default:
				v.Set(configKey, value)
			}
		}
	}

	// Unmarshal config
	if err := v.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %v", err)
	}

	return &config, nil
}
