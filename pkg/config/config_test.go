package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"minestats/pkg/cache"
)

func validConfig() *Config {
	cfg := Default()
	cfg.GitHub.Token = "ghp_test"
	return cfg
}

// TestDefault 测试默认配置是否正确
func TestDefault(t *testing.T) {
	cfg := Default()

	assert.Equal(t, "ipv4", cfg.Server.ListenStack)
	assert.Equal(t, 8080, cfg.Server.Port)
	assert.Equal(t, "release", cfg.Server.Mode)

	assert.Equal(t, "https://api.github.com/graphql", cfg.GitHub.Endpoint)
	assert.Empty(t, cfg.GitHub.Token)
	assert.Equal(t, 15*time.Second, cfg.GitHub.RequestTimeout)
	assert.Equal(t, 60*time.Second, cfg.GitHub.AggregationTimeout)
	assert.True(t, cfg.GitHub.Breaker.Enabled)

	assert.Equal(t, time.Hour, cfg.Cache.Timeout)
	assert.Equal(t, "info", cfg.Log.Level)
	assert.False(t, cfg.History.Enabled)
	assert.Empty(t, cfg.Warmer.Schedule)
	assert.Equal(t, "default", cfg.DefaultTheme)
}

// TestValidate 测试配置验证功能
func TestValidate(t *testing.T) {
	assert.NoError(t, validConfig().Validate(), "带 token 的默认配置应该是有效的")
	assert.Error(t, Default().Validate(), "缺少 token 时应该返回错误")

	cases := []struct {
		name   string
		mutate func(*Config)
	}{
		{
			name:   "空白 token",
			mutate: func(c *Config) { c.GitHub.Token = "  " },
		},
		{
			name:   "未知 listen_stack",
			mutate: func(c *Config) { c.Server.ListenStack = "ipv5" },
		},
		{
			name:   "端口为 0",
			mutate: func(c *Config) { c.Server.Port = 0 },
		},
		{
			name:   "端口越界",
			mutate: func(c *Config) { c.Server.Port = 70000 },
		},
		{
			name:   "未知模式",
			mutate: func(c *Config) { c.Server.Mode = "prod" },
		},
		{
			name:   "负的请求超时",
			mutate: func(c *Config) { c.GitHub.RequestTimeout = -time.Second },
		},
		{
			name:   "缓存超时为 0",
			mutate: func(c *Config) { c.Cache.Timeout = 0 },
		},
		{
			name:   "未知缓存类型",
			mutate: func(c *Config) { c.Cache.Timeouts["Repos"] = time.Minute },
		},
		{
			name:   "类型超时为负",
			mutate: func(c *Config) { c.Cache.Timeouts["TopLangs"] = -time.Minute },
		},
		{
			name:   "历史记录缺少 bucket",
			mutate: func(c *Config) { c.History.Enabled = true; c.History.Bucket = "" },
		},
		{
			name:   "非法调度表达式",
			mutate: func(c *Config) { c.Warmer.Schedule = "every day" },
		},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			cfg := validConfig()
			tc.mutate(cfg)
			assert.Error(t, cfg.Validate())
		})
	}
}

func TestTimeoutFor(t *testing.T) {
	c := CacheConfig{
		Timeout:  30 * time.Minute,
		Timeouts: map[string]time.Duration{"TopLangs": 6 * time.Hour},
	}
	assert.Equal(t, 6*time.Hour, c.TimeoutFor(cache.KindTopLangs))
	assert.Equal(t, 30*time.Minute, c.TimeoutFor(cache.KindUserGithubStats))
	assert.Equal(t, cache.DefaultTimeout, CacheConfig{}.TimeoutFor(cache.KindTopLangs))
}

func TestListen(t *testing.T) {
	cfg := validConfig()
	cfg.Server.Port = 9000

	network, addr := cfg.Listen()
	assert.Equal(t, "tcp4", network)
	assert.Equal(t, "127.0.0.1:9000", addr, "ipv4 只监听回环地址")

	cfg.Server.ListenStack = "ipv6"
	network, addr = cfg.Listen()
	assert.Equal(t, "tcp6", network)
	assert.Equal(t, "[::]:9000", addr)

	cfg.Server.ListenStack = "both"
	network, addr = cfg.Listen()
	assert.Equal(t, "tcp", network)
	assert.Equal(t, ":9000", addr)
}

func TestWarmUsers(t *testing.T) {
	cfg := validConfig()
	cfg.AllowUsers = []string{"alice"}
	assert.Equal(t, []string{"alice"}, cfg.WarmUsers())

	cfg.Warmer.Users = []string{"bob"}
	assert.Equal(t, []string{"bob"}, cfg.WarmUsers())
}

const sampleYAML = `
server:
  listen_stack: both
  port: 9090
  mode: debug
github:
  token: from-file
  aggregation_timeout: 90s
  breaker:
    ready_to_trip: 3
cache:
  timeout: 30m
  timeouts:
    TopLangs: 6h
allow_users:
  - alice
  - bob
log:
  level: debug
  format: json
warmer:
  schedule: "0 */10 * * * *"
themes:
  - name: dracula
    title: "#ff6e96"
    icon: "#79dafa"
    text: "#f8f8f2"
    bg: "#282a36"
default_theme: dracula
`

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "minestats.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestLoadFromFile(t *testing.T) {
	t.Setenv("GITHUB_TOKEN", "")
	cfg, err := Load(writeConfig(t, sampleYAML))
	require.NoError(t, err)

	assert.Equal(t, "both", cfg.Server.ListenStack)
	assert.Equal(t, 9090, cfg.Server.Port)
	assert.Equal(t, "debug", cfg.Server.Mode)

	assert.Equal(t, "from-file", cfg.GitHub.Token)
	assert.Equal(t, 90*time.Second, cfg.GitHub.AggregationTimeout)
	assert.Equal(t, 15*time.Second, cfg.GitHub.RequestTimeout, "未配置的字段保留默认值")
	assert.Equal(t, uint32(3), cfg.GitHub.Breaker.ReadyToTrip)
	assert.True(t, cfg.GitHub.Breaker.Enabled)

	assert.Equal(t, 30*time.Minute, cfg.Cache.TimeoutFor(cache.KindUserGithubStats))
	assert.Equal(t, 6*time.Hour, cfg.Cache.TimeoutFor(cache.KindTopLangs))

	assert.Equal(t, []string{"alice", "bob"}, cfg.AllowUsers)
	assert.Equal(t, "debug", cfg.Log.Level)
	assert.Equal(t, "json", cfg.Log.Format)
	assert.Equal(t, "0 */10 * * * *", cfg.Warmer.Schedule)

	require.Len(t, cfg.Themes, 1)
	assert.Equal(t, "dracula", cfg.Themes[0].Name)
	assert.Equal(t, "#282a36", cfg.Themes[0].Bg)
	assert.Equal(t, "dracula", cfg.DefaultTheme)
}

func TestLoadEnvOverrides(t *testing.T) {
	t.Setenv("GITHUB_TOKEN", "")
	t.Setenv("MINESTATS_GITHUB_TOKEN", "from-env")
	t.Setenv("MINESTATS_SERVER_PORT", "7070")
	t.Setenv("MINESTATS_CACHE_TIMEOUT", "5m")

	cfg, err := Load(writeConfig(t, sampleYAML))
	require.NoError(t, err)

	assert.Equal(t, "from-env", cfg.GitHub.Token)
	assert.Equal(t, 7070, cfg.Server.Port)
	assert.Equal(t, 5*time.Minute, cfg.Cache.Timeout)
}

func TestLoadGenericTokenEnv(t *testing.T) {
	t.Setenv("MINESTATS_GITHUB_TOKEN", "")
	t.Setenv("GITHUB_TOKEN", "generic")

	cfg, err := Load(writeConfig(t, "server:\n  port: 8081\n"))
	require.NoError(t, err)
	assert.Equal(t, "generic", cfg.GitHub.Token)
	assert.Equal(t, 8081, cfg.Server.Port)
}

func TestLoadErrors(t *testing.T) {
	t.Setenv("MINESTATS_GITHUB_TOKEN", "")
	t.Setenv("GITHUB_TOKEN", "")

	_, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err, "显式指定的文件不存在时应该返回错误")

	_, err = Load(writeConfig(t, "server:\n  port: 8081\n"))
	assert.Error(t, err, "缺少 token 时应该返回错误")

	_, err = Load(writeConfig(t, "github:\n  token: x\nserver:\n  listen_stack: nope\n"))
	assert.Error(t, err)
}
