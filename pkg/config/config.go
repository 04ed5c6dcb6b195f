package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"

	"minestats/pkg/cache"
	"minestats/pkg/card"
	"minestats/pkg/github"
	"minestats/pkg/history"
	"minestats/pkg/logger"
	"minestats/pkg/warmer"
)

// EnvPrefix 环境变量前缀，例如 MINESTATS_GITHUB_TOKEN
const EnvPrefix = "MINESTATS"

// Config 主配置结构
type Config struct {
	Server       ServerConfig   `mapstructure:"server"`
	GitHub       github.Config  `mapstructure:"github"`
	Cache        CacheConfig    `mapstructure:"cache"`
	AllowUsers   []string       `mapstructure:"allow_users"` // 为空时不限制
	Log          logger.Config  `mapstructure:"log"`
	History      history.Config `mapstructure:"history"`
	Warmer       warmer.Config  `mapstructure:"warmer"`
	Themes       []card.Theme   `mapstructure:"themes"`        // 额外主题，同名覆盖内置主题
	DefaultTheme string         `mapstructure:"default_theme"` // 默认主题名
}

// ServerConfig HTTP 服务配置
type ServerConfig struct {
	ListenStack string `mapstructure:"listen_stack"` // ipv4, ipv6, both
	Port        int    `mapstructure:"port"`
	Mode        string `mapstructure:"mode"` // debug, release, test
}

// CacheConfig 缓存过期配置
type CacheConfig struct {
	Timeout  time.Duration            `mapstructure:"timeout"`  // 所有类型的默认过期时间
	Timeouts map[string]time.Duration `mapstructure:"timeouts"` // 按类型覆盖，键为 kind 标签（忽略大小写）
}

// TimeoutFor 返回某个类型的过期时间
func (c CacheConfig) TimeoutFor(kind cache.Kind) time.Duration {
	for name, d := range c.Timeouts {
		if k, ok := cache.ParseKind(name); ok && k == kind && d > 0 {
			return d
		}
	}
	if c.Timeout > 0 {
		return c.Timeout
	}
	return cache.DefaultTimeout
}

// Default 返回默认配置（不含 GitHub token）
func Default() *Config {
	return &Config{
		Server: ServerConfig{
			ListenStack: "ipv4",
			Port:        8080,
			Mode:        "release",
		},
		GitHub: github.DefaultConfig(),
		Cache: CacheConfig{
			Timeout:  cache.DefaultTimeout,
			Timeouts: map[string]time.Duration{},
		},
		Log: logger.Config{
			Level:  "info",
			Format: "text",
		},
		History:      history.DefaultConfig(),
		Warmer:       warmer.DefaultConfig(),
		DefaultTheme: card.DefaultTheme.Name,
	}
}

// Validate 验证配置
func (c *Config) Validate() error {
	if strings.TrimSpace(c.GitHub.Token) == "" {
		return errors.New("github token cannot be empty")
	}

	switch c.Server.ListenStack {
	case "ipv4", "ipv6", "both":
	default:
		return fmt.Errorf("invalid listen_stack '%s', want ipv4, ipv6 or both", c.Server.ListenStack)
	}

	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		return fmt.Errorf("invalid server port %d", c.Server.Port)
	}

	switch c.Server.Mode {
	case "debug", "release", "test":
	default:
		return fmt.Errorf("invalid server mode '%s'", c.Server.Mode)
	}

	if c.GitHub.RequestTimeout < 0 || c.GitHub.AggregationTimeout < 0 {
		return errors.New("github timeouts cannot be negative")
	}

	if c.Cache.Timeout <= 0 {
		return errors.New("cache timeout must be positive")
	}
	for kind, d := range c.Cache.Timeouts {
		if _, ok := cache.ParseKind(kind); !ok {
			return fmt.Errorf("unknown cache kind '%s' in cache.timeouts", kind)
		}
		if d <= 0 {
			return fmt.Errorf("cache timeout for '%s' must be positive", kind)
		}
	}

	if err := c.History.Validate(); err != nil {
		return err
	}
	if err := c.Warmer.Validate(); err != nil {
		return err
	}

	for i, t := range c.Themes {
		if t.Name == "" {
			return fmt.Errorf("themes[%d] has no name", i)
		}
	}

	return nil
}

// WarmUsers 预热的用户列表，未配置时使用白名单
func (c *Config) WarmUsers() []string {
	if len(c.Warmer.Users) > 0 {
		return c.Warmer.Users
	}
	return c.AllowUsers
}

// Listen 根据 listen_stack 返回 net.Listen 的网络类型与地址。
// ipv4 只监听回环地址，通常放在反向代理之后；ipv6 与 both 监听所有地址，both 使用双栈。
func (c *Config) Listen() (network, address string) {
	port := fmt.Sprintf("%d", c.Server.Port)
	switch c.Server.ListenStack {
	case "ipv6":
		return "tcp6", "[::]:" + port
	case "both":
		return "tcp", ":" + port
	default:
		return "tcp4", "127.0.0.1:" + port
	}
}

// Load 读取配置文件与环境变量。path 为空时在 ./config 和当前目录查找 minestats.yaml，
// 找不到文件时只使用默认值与环境变量。
func Load(path string) (*Config, error) {
	v := viper.New()
	if path != "" {
		v.SetConfigFile(path)
	} else {
		v.SetConfigName("minestats")
		v.SetConfigType("yaml")
		v.AddConfigPath("./config")
		v.AddConfigPath(".")
	}

	setDefaults(v, Default())

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	// 兼容通用的 GITHUB_TOKEN
	if err := v.BindEnv("github.token", EnvPrefix+"_GITHUB_TOKEN", "GITHUB_TOKEN"); err != nil {
		return nil, fmt.Errorf("bind github token env: %w", err)
	}

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	cfg := Default()
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	return cfg, nil
}

func setDefaults(v *viper.Viper, d *Config) {
	v.SetDefault("server.listen_stack", d.Server.ListenStack)
	v.SetDefault("server.port", d.Server.Port)
	v.SetDefault("server.mode", d.Server.Mode)

	v.SetDefault("github.endpoint", d.GitHub.Endpoint)
	v.SetDefault("github.token", "")
	v.SetDefault("github.user_agent", "")
	v.SetDefault("github.request_timeout", d.GitHub.RequestTimeout)
	v.SetDefault("github.aggregation_timeout", d.GitHub.AggregationTimeout)
	v.SetDefault("github.breaker.enabled", d.GitHub.Breaker.Enabled)
	v.SetDefault("github.breaker.max_requests", d.GitHub.Breaker.MaxRequests)
	v.SetDefault("github.breaker.interval", d.GitHub.Breaker.Interval)
	v.SetDefault("github.breaker.timeout", d.GitHub.Breaker.Timeout)
	v.SetDefault("github.breaker.ready_to_trip", d.GitHub.Breaker.ReadyToTrip)

	v.SetDefault("cache.timeout", d.Cache.Timeout)
	v.SetDefault("allow_users", []string{})

	v.SetDefault("log.level", d.Log.Level)
	v.SetDefault("log.format", d.Log.Format)

	v.SetDefault("history.enabled", d.History.Enabled)
	v.SetDefault("history.url", d.History.URL)
	v.SetDefault("history.token", "")
	v.SetDefault("history.org", d.History.Org)
	v.SetDefault("history.bucket", d.History.Bucket)

	v.SetDefault("warmer.schedule", d.Warmer.Schedule)
	v.SetDefault("warmer.users", []string{})
	v.SetDefault("warmer.timeout", d.Warmer.Timeout)

	v.SetDefault("default_theme", d.DefaultTheme)
}
