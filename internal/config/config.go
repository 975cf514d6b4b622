package config

import (
	stderrors "errors"
	"fmt"
	"io/fs"
	"strings"
	"time"

	"github.com/spf13/viper"
)

type Config struct {
	Server  ServerConfig
	Kairos  KairosConfig
	Breaker BreakerConfig
	Redis   RedisConfig
	Session SessionConfig
	Cache   CacheConfig
	Map     MapConfig
	Log     LogConfig
}

type ServerConfig struct {
	Host         string
	Port         int
	Env          string
	AllowOrigins string
}

// KairosConfig - параметры внешнего Kairos REST API
type KairosConfig struct {
	BaseURL        string
	RequestTimeout time.Duration
	RateLimit      float64
	Burst          int
}

type BreakerConfig struct {
	MaxRequests      uint32
	Interval         time.Duration
	Timeout          time.Duration
	FailureThreshold uint32
}

type RedisConfig struct {
	Host     string
	Port     int
	Password string
	DB       int
}

type SessionConfig struct {
	// Store - "redis" или "memory"
	Store       string
	TTL         time.Duration
	CookieName  string
	// IdleTimeout - время жизни состояния карты сессии в памяти без запросов
	IdleTimeout time.Duration
}

type CacheConfig struct {
	ProfileCacheTTL time.Duration
}

// MapConfig - параметры проекции маршрутов на карту
type MapConfig struct {
	MinZoom          float64
	MaxZoom          float64
	SinglePointZoom  float64
	ArrowSpacingKm   float64
	ShowOrderBadges  bool
	DefaultCenterLng float64
	DefaultCenterLat float64
	DefaultZoom      float64
}

type LogConfig struct {
	Level string
}

func setDefaults() {
	viper.SetDefault("API_HOST", "0.0.0.0")
	viper.SetDefault("API_PORT", 8080)
	viper.SetDefault("API_ENV", "production")
	viper.SetDefault("CORS_ALLOW_ORIGINS", "http://localhost:3000,http://localhost:5173")

	viper.SetDefault("KAIROS_API_BASE_URL", "http://localhost:8000")
	viper.SetDefault("KAIROS_API_TIMEOUT", 15)
	viper.SetDefault("KAIROS_API_RPS", 20.0)
	viper.SetDefault("KAIROS_API_BURST", 40)

	viper.SetDefault("BREAKER_MAX_REQUESTS", 3)
	viper.SetDefault("BREAKER_INTERVAL", 60)
	viper.SetDefault("BREAKER_TIMEOUT", 30)
	viper.SetDefault("BREAKER_FAILURE_THRESHOLD", 5)

	viper.SetDefault("REDIS_HOST", "localhost")
	viper.SetDefault("REDIS_PORT", 6379)
	viper.SetDefault("REDIS_DB", 0)

	viper.SetDefault("SESSION_STORE", "redis")
	viper.SetDefault("SESSION_TTL", 7*24*3600)
	viper.SetDefault("SESSION_COOKIE_NAME", "kairos_session")
	viper.SetDefault("SESSION_IDLE_TIMEOUT", 1800)

	viper.SetDefault("PROFILE_CACHE_TTL", 300)

	viper.SetDefault("MAP_MIN_ZOOM", 1)
	viper.SetDefault("MAP_MAX_ZOOM", 15)
	viper.SetDefault("MAP_SINGLE_POINT_ZOOM", 10)
	viper.SetDefault("MAP_ARROW_SPACING_KM", 25)
	viper.SetDefault("MAP_DEFAULT_CENTER_LNG", 0)
	viper.SetDefault("MAP_DEFAULT_CENTER_LAT", 30)
	viper.SetDefault("MAP_DEFAULT_ZOOM", 2)

	viper.SetDefault("LOG_LEVEL", "info")
}

func Load() (*Config, error) {
	viper.SetConfigFile(".env")
	viper.AutomaticEnv()
	setDefaults()

	if err := viper.ReadInConfig(); err != nil && !stderrors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("failed to read config: %w", err)
	}

	cfg := &Config{
		Server: ServerConfig{
			Host:         viper.GetString("API_HOST"),
			Port:         viper.GetInt("API_PORT"),
			Env:          viper.GetString("API_ENV"),
			AllowOrigins: viper.GetString("CORS_ALLOW_ORIGINS"),
		},
		Kairos: KairosConfig{
			BaseURL:        strings.TrimRight(viper.GetString("KAIROS_API_BASE_URL"), "/"),
			RequestTimeout: time.Duration(viper.GetInt("KAIROS_API_TIMEOUT")) * time.Second,
			RateLimit:      viper.GetFloat64("KAIROS_API_RPS"),
			Burst:          viper.GetInt("KAIROS_API_BURST"),
		},
		Breaker: BreakerConfig{
			MaxRequests:      viper.GetUint32("BREAKER_MAX_REQUESTS"),
			Interval:         time.Duration(viper.GetInt("BREAKER_INTERVAL")) * time.Second,
			Timeout:          time.Duration(viper.GetInt("BREAKER_TIMEOUT")) * time.Second,
			FailureThreshold: viper.GetUint32("BREAKER_FAILURE_THRESHOLD"),
		},
		Redis: RedisConfig{
			Host:     viper.GetString("REDIS_HOST"),
			Port:     viper.GetInt("REDIS_PORT"),
			Password: viper.GetString("REDIS_PASSWORD"),
			DB:       viper.GetInt("REDIS_DB"),
		},
		Session: SessionConfig{
			Store:       strings.ToLower(viper.GetString("SESSION_STORE")),
			TTL:         time.Duration(viper.GetInt("SESSION_TTL")) * time.Second,
			CookieName:  viper.GetString("SESSION_COOKIE_NAME"),
			IdleTimeout: time.Duration(viper.GetInt("SESSION_IDLE_TIMEOUT")) * time.Second,
		},
		Cache: CacheConfig{
			ProfileCacheTTL: time.Duration(viper.GetInt("PROFILE_CACHE_TTL")) * time.Second,
		},
		Map: MapConfig{
			MinZoom:          viper.GetFloat64("MAP_MIN_ZOOM"),
			MaxZoom:          viper.GetFloat64("MAP_MAX_ZOOM"),
			SinglePointZoom:  viper.GetFloat64("MAP_SINGLE_POINT_ZOOM"),
			ArrowSpacingKm:   viper.GetFloat64("MAP_ARROW_SPACING_KM"),
			DefaultCenterLng: viper.GetFloat64("MAP_DEFAULT_CENTER_LNG"),
			DefaultCenterLat: viper.GetFloat64("MAP_DEFAULT_CENTER_LAT"),
			DefaultZoom:      viper.GetFloat64("MAP_DEFAULT_ZOOM"),
		},
		Log: LogConfig{
			Level: viper.GetString("LOG_LEVEL"),
		},
	}

	cfg.Map.ShowOrderBadges = cfg.IsDevelopment()

	if cfg.Session.Store != "redis" && cfg.Session.Store != "memory" {
		return nil, fmt.Errorf("unsupported SESSION_STORE %q", cfg.Session.Store)
	}
	if cfg.Map.MinZoom > cfg.Map.MaxZoom {
		return nil, fmt.Errorf("MAP_MIN_ZOOM (%v) must not exceed MAP_MAX_ZOOM (%v)", cfg.Map.MinZoom, cfg.Map.MaxZoom)
	}

	return cfg, nil
}

func (c *Config) GetServerAddr() string {
	return fmt.Sprintf("%s:%d", c.Server.Host, c.Server.Port)
}

func (c *Config) GetRedisAddr() string {
	return fmt.Sprintf("%s:%d", c.Redis.Host, c.Redis.Port)
}

// IsDevelopment - включает отладочные элементы карты (номера маркеров)
func (c *Config) IsDevelopment() bool {
	return c.Server.Env == "development"
}
