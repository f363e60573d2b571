package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// EnvPrefix namespaces environment overrides, e.g. COGNIQUIZ_REDIS_ADDR.
const EnvPrefix = "COGNIQUIZ"

type Config struct {
	Server struct {
		Port         string `mapstructure:"port"`
		ReadTimeout  string `mapstructure:"read_timeout"`
		WriteTimeout string `mapstructure:"write_timeout"`
	} `mapstructure:"server"`
	OpenTDB struct {
		BaseURL     string `mapstructure:"base_url"`
		Timeout     string `mapstructure:"timeout"`
		MinInterval string `mapstructure:"min_interval"` // spacing between outbound calls
	} `mapstructure:"opentdb"`
	Storage struct {
		Backend  string `mapstructure:"backend"` // memory, file, redis or postgres
		FilePath string `mapstructure:"file_path"`
	} `mapstructure:"storage"`
	Redis struct {
		Addr     string `mapstructure:"addr"`
		Password string `mapstructure:"password"`
		DB       int    `mapstructure:"db"`
		TTL      string `mapstructure:"ttl"`
	} `mapstructure:"redis"`
	Postgres struct {
		URL string `mapstructure:"url"`
	} `mapstructure:"postgres"`
	Categories struct {
		TTL string `mapstructure:"ttl"`
	} `mapstructure:"categories"`
	Sessions struct {
		IdleTTL       string `mapstructure:"idle_ttl"`
		SweepSchedule string `mapstructure:"sweep_schedule"`
	} `mapstructure:"sessions"`
	Quiz struct {
		Difficulty       string `mapstructure:"difficulty"`
		Category         string `mapstructure:"category"`
		NumQuestions     int    `mapstructure:"num_questions"`
		TimePerChallenge int    `mapstructure:"time_per_challenge"`
	} `mapstructure:"quiz"`
	Log LogConfig `mapstructure:"log"`
}

// LogConfig controls logger output and file rotation.
type LogConfig struct {
	Env        string `mapstructure:"env"` // production or development
	Level      string `mapstructure:"level"`
	File       string `mapstructure:"file"`
	MaxSize    int    `mapstructure:"max_size"` // megabytes
	MaxBackups int    `mapstructure:"max_backups"`
	MaxAge     int    `mapstructure:"max_age"` // days
	Compress   bool   `mapstructure:"compress"`
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.port", "8080")
	v.SetDefault("server.read_timeout", "15s")
	v.SetDefault("server.write_timeout", "15s")
	v.SetDefault("opentdb.base_url", "https://opentdb.com")
	v.SetDefault("opentdb.timeout", "10s")
	v.SetDefault("opentdb.min_interval", "5s")
	v.SetDefault("storage.backend", "memory")
	v.SetDefault("storage.file_path", "data/blobs.json")
	v.SetDefault("redis.addr", "")
	v.SetDefault("redis.password", "")
	v.SetDefault("redis.db", 0)
	v.SetDefault("redis.ttl", "10m")
	v.SetDefault("postgres.url", "")
	v.SetDefault("categories.ttl", "1h")
	v.SetDefault("sessions.idle_ttl", "30m")
	v.SetDefault("sessions.sweep_schedule", "@every 1m")
	v.SetDefault("quiz.difficulty", "medium")
	v.SetDefault("quiz.category", "9")
	v.SetDefault("quiz.num_questions", 10)
	v.SetDefault("quiz.time_per_challenge", 20)
	v.SetDefault("log.env", "development")
	v.SetDefault("log.level", "info")
	v.SetDefault("log.file", "")
	v.SetDefault("log.max_size", 10)
	v.SetDefault("log.max_backups", 3)
	v.SetDefault("log.max_age", 7)
	v.SetDefault("log.compress", true)
}

// Load reads YAML config from path, applies defaults and environment
// overrides. A missing file is not an error.
func Load(path string) (Config, error) {
	cfg := Config{}

	v := viper.New()
	v.SetConfigType("yaml")
	setDefaults(v)

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if path != "" {
		if _, err := os.Stat(path); err == nil {
			v.SetConfigFile(path)
			if err := v.ReadInConfig(); err != nil {
				return cfg, fmt.Errorf("error loading config file: %w", err)
			}
		} else if !errors.Is(err, os.ErrNotExist) {
			return cfg, fmt.Errorf("stat config file: %w", err)
		}
	}

	if err := v.Unmarshal(&cfg); err != nil {
		return cfg, fmt.Errorf("error unmarshalling config: %w", err)
	}
	return cfg, nil
}

// TTLDuration parses a duration string or returns the fallback if empty.
func TTLDuration(raw string, fallback time.Duration) time.Duration {
	if raw == "" {
		return fallback
	}
	if d, err := time.ParseDuration(raw); err == nil {
		return d
	}
	return fallback
}
