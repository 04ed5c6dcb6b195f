package cache

import (
	"context"
	"fmt"
	"time"

	"github.com/sirupsen/logrus"
	"golang.org/x/sync/singleflight"

	"minestats/pkg/logger"
)

// DefaultTimeout 所有值类型共用的默认过期时间（3600 秒）
const DefaultTimeout = 60 * 60 * time.Second

// Outcome GetOrUpdate 的结果类型
type Outcome int

const (
	// OutcomeGet 命中且未过期
	OutcomeGet Outcome = iota
	// OutcomeSet 未命中，首次写入
	OutcomeSet
	// OutcomeUpdate 命中但已过期，重新获取并覆盖
	OutcomeUpdate
)

func (o Outcome) String() string {
	switch o {
	case OutcomeGet:
		return "GET"
	case OutcomeSet:
		return "SET"
	case OutcomeUpdate:
		return "UPDATE"
	default:
		return "UNKNOWN"
	}
}

// Cache 在 Store 之上实现 get-or-update 刷新策略。
// 同一个完整键的并发回源会合并为一次（singleflight）。
type Cache struct {
	store Store
	codec Codec
	now   func() time.Time
	group singleflight.Group
	log   *logrus.Entry
}

// Option Cache 的可选配置
type Option func(*Cache)

// WithClock 替换时钟，测试中用于控制过期
func WithClock(now func() time.Time) Option {
	return func(c *Cache) {
		c.now = now
	}
}

// WithLogger 替换日志器
func WithLogger(log *logrus.Entry) Option {
	return func(c *Cache) {
		c.log = log
	}
}

// New 创建缓存；store 为 nil 时使用内存存储
func New(store Store, opts ...Option) *Cache {
	if store == nil {
		store = NewMemoryStore()
	}
	c := &Cache{
		store: store,
		now:   time.Now,
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.log == nil {
		c.log = logger.WithComponent("cache")
	}
	return c
}

// Keys 列出所有完整键（诊断用）
func (c *Cache) Keys() []string {
	return c.store.Keys()
}

// Len 当前条目数
func (c *Cache) Len() int {
	return c.store.Len()
}

// Get 读取并解码一个条目。条目损坏时会被清除并返回 ErrCacheCorrupted。
func Get[T Cacheable](c *Cache, kind Kind, key string) (T, bool, error) {
	var value T
	data, ok := c.store.Get(kind, key)
	if !ok {
		return value, false, nil
	}
	if err := c.codec.Decode(data, &value); err != nil {
		c.store.Delete(kind, key)
		c.log.WithError(err).Errorf("[Cache][CORRUPTED] %s: %s", kind, key)
		var zero T
		return zero, false, NewCacheError(ErrCacheCorrupted,
			fmt.Sprintf("decode %s", Key(kind, key)), err)
	}
	return value, true, nil
}

// Put 编码并写入一个条目
func Put[T Cacheable](c *Cache, kind Kind, key string, value T) error {
	data, err := c.codec.Encode(value)
	if err != nil {
		return NewCacheError(ErrSerializeFailed, fmt.Sprintf("encode %s", Key(kind, key)), err)
	}
	c.store.Set(kind, key, data)
	return nil
}

// GetOrUpdate 读取 (kind, key)：
//   - 不存在：调用 fetch，写入，返回 OutcomeSet
//   - 存在但创建时间早于 timeout：调用 fetch，覆盖，返回 OutcomeUpdate
//   - 存在且新鲜：直接返回，OutcomeGet
//
// fetch 在锁外执行，失败时不写入任何数据。同一完整键的并发回源只执行一次，
// 回源使用脱离调用方取消信号的 context，调用方放弃等待不会影响其他等待者。
func GetOrUpdate[T Cacheable](
	ctx context.Context,
	c *Cache,
	kind Kind,
	key string,
	timeout time.Duration,
	fetch func(ctx context.Context) (T, error),
) (T, Outcome, error) {
	var zero T
	if !kind.Valid() {
		return zero, OutcomeGet, NewCacheError(ErrInvalidKind, fmt.Sprintf("unknown kind %q", kind), nil)
	}
	if timeout <= 0 {
		timeout = DefaultTimeout
	}

	cached, found, err := Get[T](c, kind, key)
	if err != nil {
		return zero, OutcomeGet, err
	}
	if found && !c.isStale(cached, timeout) {
		c.log.Infof("[Cache][%s] %s: %s", OutcomeGet, kind, key)
		return cached, OutcomeGet, nil
	}

	outcome := OutcomeSet
	if found {
		outcome = OutcomeUpdate
	}

	fetchCtx := context.WithoutCancel(ctx)
	ch := c.group.DoChan(Key(kind, key), func() (interface{}, error) {
		// 前一次回源可能刚刚写入，进入回源前再检查一次
		if cur, ok, err := Get[T](c, kind, key); err == nil && ok && !c.isStale(cur, timeout) {
			return loaded[T]{value: cur}, nil
		}
		value, err := fetch(fetchCtx)
		if err != nil {
			return nil, err
		}
		if err := Put(c, kind, key, value); err != nil {
			return nil, err
		}
		return loaded[T]{value: value, fetched: true}, nil
	})

	select {
	case <-ctx.Done():
		return zero, outcome, ctx.Err()
	case res := <-ch:
		if res.Err != nil {
			c.log.WithError(res.Err).Warnf("[Cache][%s] %s: %s failed", outcome, kind, key)
			return zero, outcome, res.Err
		}
		got, ok := res.Val.(loaded[T])
		if !ok {
			return zero, outcome, NewCacheError(ErrCacheCorrupted,
				fmt.Sprintf("unexpected value type %T for %s", res.Val, Key(kind, key)), nil)
		}
		value := got.value
		if !got.fetched {
			outcome = OutcomeGet
		}
		if res.Shared {
			c.log.Debugf("[Cache][%s] %s: %s (shared fetch)", outcome, kind, key)
		}
		c.log.Infof("[Cache][%s] %s: %s", outcome, kind, key)
		c.log.Tracef("%+v", value)
		return value, outcome, nil
	}
}

// loaded 回源闭包的结果，fetched 为 false 表示条目已被其他调用方刷新
type loaded[T any] struct {
	value   T
	fetched bool
}

func (c *Cache) isStale(v Cacheable, timeout time.Duration) bool {
	return c.now().Sub(v.CreatedAt()) > timeout
}
