package server

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	"minestats/pkg/cache"
	apperr "minestats/pkg/error"
	"minestats/pkg/github"
	"minestats/pkg/history"
)

// Fetcher 上游数据源，生产环境为 *github.Client
type Fetcher interface {
	FetchUserStats(ctx context.Context, login string, hideRepos []string) (github.UserGithubStats, error)
	FetchTopLangs(ctx context.Context, login string) (github.TopLangs, error)
	BreakerState() string
}

// TimeoutFunc 返回某个类型的缓存过期时间
type TimeoutFunc func(kind cache.Kind) time.Duration

// Service 把缓存、上游与历史记录组合在一起
type Service struct {
	cache    *cache.Cache
	fetcher  Fetcher
	timeout  TimeoutFunc
	recorder history.Recorder
}

// NewService 创建服务。timeout 为 nil 时所有类型使用默认过期时间，recorder 为 nil 时不记录历史。
func NewService(c *cache.Cache, fetcher Fetcher, timeout TimeoutFunc, recorder history.Recorder) *Service {
	if timeout == nil {
		timeout = func(cache.Kind) time.Duration { return cache.DefaultTimeout }
	}
	if recorder == nil {
		recorder = history.Noop{}
	}
	return &Service{
		cache:    c,
		fetcher:  fetcher,
		timeout:  timeout,
		recorder: recorder,
	}
}

const (
	// MaxHideRepos hide_repos 最多包含的仓库数
	MaxHideRepos = 10
	// maxRepoName GitHub 仓库名的最大长度
	maxRepoName = 100
)

// normalizeHideRepos 去重并排序；超过数量或长度上限时返回 ErrInvalidArgument。
// 每个不同的列表都会占用一个缓存条目，上限限制了客户端能制造的条目数。
func normalizeHideRepos(hideRepos []string) ([]string, error) {
	if len(hideRepos) == 0 {
		return nil, nil
	}
	seen := make(map[string]struct{}, len(hideRepos))
	out := make([]string, 0, len(hideRepos))
	for _, name := range hideRepos {
		if len(name) > maxRepoName {
			return nil, apperr.NewError(apperr.ErrInvalidArgument, "hide_repos entry too long").
				WithContext("length", len(name))
		}
		if _, dup := seen[name]; dup {
			continue
		}
		seen[name] = struct{}{}
		out = append(out, name)
	}
	if len(out) > MaxHideRepos {
		return nil, apperr.NewError(apperr.ErrInvalidArgument,
			fmt.Sprintf("hide_repos accepts at most %d repositories", MaxHideRepos))
	}
	sort.Strings(out)
	return out, nil
}

// statsKey 带隐藏仓库列表时，规范化后的列表拼入键，避免不同列表共用条目
func statsKey(login string, hidden []string) string {
	if len(hidden) == 0 {
		return login
	}
	return login + "?hide=" + strings.Join(hidden, ",")
}

// UserStats 读取（必要时刷新）用户统计
func (s *Service) UserStats(ctx context.Context, login string, hideRepos []string) (github.UserGithubStats, error) {
	hideRepos, err := normalizeHideRepos(hideRepos)
	if err != nil {
		return github.UserGithubStats{}, err
	}
	kind := cache.KindUserGithubStats
	stats, _, err := cache.GetOrUpdate(ctx, s.cache, kind, statsKey(login, hideRepos), s.timeout(kind),
		func(ctx context.Context) (github.UserGithubStats, error) {
			stats, err := s.fetcher.FetchUserStats(ctx, login, hideRepos)
			if err != nil {
				return stats, err
			}
			if len(hideRepos) == 0 {
				s.recorder.Record(stats)
			}
			return stats, nil
		})
	return stats, err
}

// TopLangs 读取（必要时刷新）用户语言统计
func (s *Service) TopLangs(ctx context.Context, login string) (github.TopLangs, error) {
	kind := cache.KindTopLangs
	langs, _, err := cache.GetOrUpdate(ctx, s.cache, kind, login, s.timeout(kind),
		func(ctx context.Context) (github.TopLangs, error) {
			return s.fetcher.FetchTopLangs(ctx, login)
		})
	return langs, err
}

// Warm 预热一个用户的两类条目
func (s *Service) Warm(ctx context.Context, login string) error {
	if _, err := s.UserStats(ctx, login, nil); err != nil {
		return err
	}
	_, err := s.TopLangs(ctx, login)
	return err
}

// CacheKeys 缓存中的所有完整键
func (s *Service) CacheKeys() []string {
	return s.cache.Keys()
}

// CacheSize 缓存条目数
func (s *Service) CacheSize() int {
	return s.cache.Len()
}

// BreakerState 上游熔断器状态
func (s *Service) BreakerState() string {
	return s.fetcher.BreakerState()
}
