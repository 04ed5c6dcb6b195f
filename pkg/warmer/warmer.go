package warmer

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/sirupsen/logrus"

	"minestats/pkg/logger"
)

// Config 缓存预热配置。Schedule 为空时不启用。
type Config struct {
	Schedule string        `mapstructure:"schedule"` // 秒级 cron 表达式，例如 "0 */30 * * * *"
	Users    []string      `mapstructure:"users"`    // 为空时使用 allow_users
	Timeout  time.Duration `mapstructure:"timeout"`  // 单轮预热的超时时间
}

// DefaultConfig 默认不启用
func DefaultConfig() Config {
	return Config{Timeout: 5 * time.Minute}
}

var parser = cron.NewParser(cron.Second | cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow | cron.Descriptor)

// Validate 验证调度表达式
func (c Config) Validate() error {
	if c.Schedule == "" {
		return nil
	}
	if _, err := parser.Parse(c.Schedule); err != nil {
		return fmt.Errorf("invalid warmer schedule '%s': %w", c.Schedule, err)
	}
	if c.Timeout < 0 {
		return fmt.Errorf("warmer timeout cannot be negative")
	}
	return nil
}

// RefreshFunc 刷新单个用户的缓存
type RefreshFunc func(ctx context.Context, login string) error

// Warmer 按 cron 调度周期性刷新一组用户的缓存
type Warmer struct {
	mu      sync.Mutex
	cron    *cron.Cron
	users   []string
	refresh RefreshFunc
	timeout time.Duration
	running bool
	ctx     context.Context
	cancel  context.CancelFunc
	log     *logrus.Entry
}

// New 创建预热器
func New(cfg Config, users []string, refresh RefreshFunc) (*Warmer, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if cfg.Schedule == "" {
		return nil, fmt.Errorf("warmer schedule cannot be empty")
	}
	if refresh == nil {
		return nil, fmt.Errorf("warmer refresh func not set")
	}
	if cfg.Timeout == 0 {
		cfg.Timeout = DefaultConfig().Timeout
	}

	ctx, cancel := context.WithCancel(context.Background())
	w := &Warmer{
		cron:    cron.New(cron.WithSeconds()),
		users:   append([]string(nil), users...),
		refresh: refresh,
		timeout: cfg.Timeout,
		ctx:     ctx,
		cancel:  cancel,
		log:     logger.WithComponent("warmer"),
	}
	if _, err := w.cron.AddFunc(cfg.Schedule, func() { w.RunOnce(w.ctx) }); err != nil {
		cancel()
		return nil, fmt.Errorf("add warmer job: %w", err)
	}
	return w, nil
}

// Start 启动调度
func (w *Warmer) Start() {
	w.cron.Start()
	w.log.WithField("users", len(w.users)).Info("cache warmer started")
}

// Stop 停止调度并等待正在执行的一轮结束
func (w *Warmer) Stop() {
	w.cancel()
	ctx := w.cron.Stop()

	select {
	case <-ctx.Done():
		w.log.Info("cache warmer stopped")
	case <-time.After(30 * time.Second):
		w.log.Warn("cache warmer stop timed out")
	}
}

// RunOnce 顺序刷新所有用户，返回失败数。上一轮未结束时跳过本轮。
func (w *Warmer) RunOnce(ctx context.Context) int {
	w.mu.Lock()
	if w.running {
		w.mu.Unlock()
		w.log.Warn("previous warm-up still running, skipping")
		return 0
	}
	w.running = true
	w.mu.Unlock()

	defer func() {
		w.mu.Lock()
		w.running = false
		w.mu.Unlock()
	}()

	ctx, cancel := context.WithTimeout(ctx, w.timeout)
	defer cancel()

	start := time.Now()
	failed := 0
	for _, login := range w.users {
		if ctx.Err() != nil {
			failed++
			continue
		}
		if err := w.refresh(ctx, login); err != nil {
			failed++
			w.log.WithError(err).WithField("login", login).Warn("warm-up failed")
		}
	}

	w.log.WithFields(logrus.Fields{
		"users":   len(w.users),
		"failed":  failed,
		"elapsed": time.Since(start).String(),
	}).Info("warm-up finished")
	return failed
}
