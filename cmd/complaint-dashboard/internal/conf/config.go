package conf

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config 应用配置
type Config struct {
	Server        ServerConfig        `mapstructure:"server"`
	Dataset       DatasetConfig       `mapstructure:"dataset"`
	Redis         RedisConfig         `mapstructure:"redis"`
	Cache         CacheConfig         `mapstructure:"cache"`
	Observability ObservabilityConfig `mapstructure:"observability"`
	Resilience    ResilienceConfig    `mapstructure:"resilience"`
	Websocket     WebsocketConfig     `mapstructure:"websocket"`
}

// ServerConfig 服务器配置
type ServerConfig struct {
	HTTPPort        int           `mapstructure:"http_port"`
	MetricsPort     int           `mapstructure:"metrics_port"`
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout"`
	ReadTimeout     time.Duration `mapstructure:"read_timeout"`
	WriteTimeout    time.Duration `mapstructure:"write_timeout"`
}

// DatasetConfig 数据文件配置
type DatasetConfig struct {
	Path          string        `mapstructure:"path"`
	Timezone      string        `mapstructure:"timezone"`
	DateLayouts   []string      `mapstructure:"date_layouts"`
	Watch         bool          `mapstructure:"watch"`
	WatchDebounce time.Duration `mapstructure:"watch_debounce"`
	VisibleOwners int           `mapstructure:"visible_owners"`
}

// Location 解析时区
func (d DatasetConfig) Location() (*time.Location, error) {
	if d.Timezone == "" {
		return time.UTC, nil
	}
	return time.LoadLocation(d.Timezone)
}

// RedisConfig Redis 配置
type RedisConfig struct {
	Enabled      bool          `mapstructure:"enabled"`
	Addr         string        `mapstructure:"addr"`
	Password     string        `mapstructure:"password"`
	DB           int           `mapstructure:"db"`
	PoolSize     int           `mapstructure:"pool_size"`
	MinIdleConns int           `mapstructure:"min_idle_conns"`
	MaxRetries   int           `mapstructure:"max_retries"`
	DialTimeout  time.Duration `mapstructure:"dial_timeout"`
	ReadTimeout  time.Duration `mapstructure:"read_timeout"`
	WriteTimeout time.Duration `mapstructure:"write_timeout"`
}

// CacheConfig 缓存配置
type CacheConfig struct {
	KeyPrefix    string        `mapstructure:"key_prefix"`
	DashboardTTL time.Duration `mapstructure:"dashboard_ttl"`
}

// ObservabilityConfig 可观测性配置
type ObservabilityConfig struct {
	OTELEndpoint   string  `mapstructure:"otel_endpoint"`
	ServiceName    string  `mapstructure:"service_name"`
	ServiceVersion string  `mapstructure:"service_version"`
	Environment    string  `mapstructure:"environment"`
	EnableTrace    bool    `mapstructure:"enable_trace"`
	SamplingRate   float64 `mapstructure:"sampling_rate"`
	EnableMetrics  bool    `mapstructure:"enable_metrics"`
	LogLevel       string  `mapstructure:"log_level"`
	LogFormat      string  `mapstructure:"log_format"`
}

// ResilienceConfig 弹性配置
type ResilienceConfig struct {
	RateLimit      RateLimitConfig      `mapstructure:"rate_limit"`
	CircuitBreaker CircuitBreakerConfig `mapstructure:"circuit_breaker"`
}

// RateLimitConfig 限流配置（固定窗口，依赖 Redis）
type RateLimitConfig struct {
	Enabled     bool          `mapstructure:"enabled"`
	MaxRequests int           `mapstructure:"max_requests"`
	Window      time.Duration `mapstructure:"window"`
}

// CircuitBreakerConfig 熔断器配置
type CircuitBreakerConfig struct {
	MaxRequests uint32        `mapstructure:"max_requests"`
	Interval    time.Duration `mapstructure:"interval"`
	Timeout     time.Duration `mapstructure:"timeout"`
	Threshold   float64       `mapstructure:"threshold"`
	MinRequests uint32        `mapstructure:"min_requests"`
}

// WebsocketConfig WebSocket 配置
type WebsocketConfig struct {
	MaxConnections int      `mapstructure:"max_connections"`
	SendBufferSize int      `mapstructure:"send_buffer_size"`
	AllowedOrigins []string `mapstructure:"allowed_origins"`
}

// Load 加载配置
func Load(configPath string) (*Config, error) {
	v := viper.New()
	setDefaults(v)

	if configPath != "" {
		v.SetConfigFile(configPath)
	} else {
		v.SetConfigName("complaint-dashboard")
		v.SetConfigType("yaml")
		v.AddConfigPath("./configs")
		v.AddConfigPath("../configs")
		v.AddConfigPath("../../configs")
	}

	// 环境变量：COMPLAINT_DATASET_PATH 覆盖 dataset.path
	v.SetEnvPrefix("COMPLAINT")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if configPath != "" || !errors.As(err, &notFound) {
			return nil, fmt.Errorf("read config: %w", err)
		}
	}

	var config Config
	if err := v.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}

	// 从环境变量覆盖敏感配置
	if path := os.Getenv("COMPLAINT_CSV_PATH"); path != "" {
		config.Dataset.Path = path
	}
	if password := os.Getenv("REDIS_PASSWORD"); password != "" {
		config.Redis.Password = password
	}
	if endpoint := os.Getenv("OTEL_ENDPOINT"); endpoint != "" {
		config.Observability.OTELEndpoint = endpoint
	}

	if err := config.Validate(); err != nil {
		return nil, err
	}
	return &config, nil
}

// Validate 校验配置
func (c *Config) Validate() error {
	if c.Dataset.Path == "" {
		return errors.New("dataset.path is required")
	}
	if _, err := c.Dataset.Location(); err != nil {
		return fmt.Errorf("invalid dataset.timezone %q: %w", c.Dataset.Timezone, err)
	}
	if c.Dataset.VisibleOwners < 0 {
		return errors.New("dataset.visible_owners must be non-negative")
	}
	return nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.http_port", 8050)
	v.SetDefault("server.metrics_port", 9050)
	v.SetDefault("server.shutdown_timeout", 10*time.Second)
	v.SetDefault("server.read_timeout", 15*time.Second)
	v.SetDefault("server.write_timeout", 15*time.Second)

	v.SetDefault("dataset.path", "Complaints.csv")
	v.SetDefault("dataset.timezone", "UTC")
	v.SetDefault("dataset.watch", true)
	v.SetDefault("dataset.watch_debounce", 500*time.Millisecond)
	v.SetDefault("dataset.visible_owners", 6)

	v.SetDefault("redis.enabled", false)
	v.SetDefault("redis.addr", "localhost:6379")
	v.SetDefault("redis.pool_size", 10)
	v.SetDefault("redis.dial_timeout", 2*time.Second)
	v.SetDefault("redis.read_timeout", time.Second)
	v.SetDefault("redis.write_timeout", time.Second)

	v.SetDefault("cache.key_prefix", "complaint")
	v.SetDefault("cache.dashboard_ttl", 5*time.Minute)

	v.SetDefault("observability.service_name", "complaint-dashboard")
	v.SetDefault("observability.service_version", "1.0.0")
	v.SetDefault("observability.environment", "development")
	v.SetDefault("observability.otel_endpoint", "localhost:4317")
	v.SetDefault("observability.sampling_rate", 1.0)
	v.SetDefault("observability.enable_metrics", true)
	v.SetDefault("observability.log_level", "info")
	v.SetDefault("observability.log_format", "json")

	v.SetDefault("resilience.rate_limit.max_requests", 120)
	v.SetDefault("resilience.rate_limit.window", time.Minute)
	v.SetDefault("resilience.circuit_breaker.max_requests", 3)
	v.SetDefault("resilience.circuit_breaker.interval", 10*time.Second)
	v.SetDefault("resilience.circuit_breaker.timeout", 30*time.Second)
	v.SetDefault("resilience.circuit_breaker.threshold", 0.5)
	v.SetDefault("resilience.circuit_breaker.min_requests", 3)

	v.SetDefault("websocket.max_connections", 1000)
	v.SetDefault("websocket.send_buffer_size", 16)
}
