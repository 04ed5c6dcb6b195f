package github

import (
	"sort"
	"time"

	"minestats/pkg/rank"
)

// UserGithubStats 用户的 GitHub 汇总统计。构造后不再修改，刷新时整体替换。
type UserGithubStats struct {
	Login     string    `json:"login"`
	Name      string    `json:"name"`
	Stars     int64     `json:"stars"`
	Commits   int64     `json:"commits"`
	Repos     int64     `json:"repos"`
	PRs       int64     `json:"prs"`
	Issues    int64     `json:"issues"`
	Contribs  int64     `json:"contribs"`
	Followers int64     `json:"followers"`
	Rank      rank.Rank `json:"rank"`
	CreateAt  time.Time `json:"create_at"`
}

// CreatedAt 实现 cache.Cacheable
func (s UserGithubStats) CreatedAt() time.Time {
	return s.CreateAt
}

// RankInputs 转换为评分输入
func (s UserGithubStats) RankInputs() rank.Inputs {
	return rank.Inputs{
		Commits:   s.Commits,
		Contribs:  s.Contribs,
		Issues:    s.Issues,
		Stars:     s.Stars,
		PRs:       s.PRs,
		Followers: s.Followers,
		Repos:     s.Repos,
	}
}

// Lang 单个语言在所有仓库中的累计字节数
type Lang struct {
	Name  string  `json:"name"`
	Color *string `json:"color,omitempty"`
	Size  int64   `json:"size"`
}

// TopLangs 语言名 -> 累计统计。每次刷新从零重建。
type TopLangs struct {
	Langs    map[string]Lang `json:"langs"`
	CreateAt time.Time       `json:"create_at"`
}

// CreatedAt 实现 cache.Cacheable
func (t TopLangs) CreatedAt() time.Time {
	return t.CreateAt
}

// Sorted 按字节数降序返回，字节数相同时按名称排序
func (t TopLangs) Sorted() []Lang {
	out := make([]Lang, 0, len(t.Langs))
	for _, l := range t.Langs {
		out = append(out, l)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Size != out[j].Size {
			return out[i].Size > out[j].Size
		}
		return out[i].Name < out[j].Name
	})
	return out
}

// Total 所有语言的字节数之和
func (t TopLangs) Total() int64 {
	var total int64
	for _, l := range t.Langs {
		total += l.Size
	}
	return total
}

// MergeLang 将一条 (仓库, 语言) 记录合并进 langs。
// 合并满足交换律：结果与记录的遍历顺序无关。
func MergeLang(langs map[string]Lang, name string, color *string, size int64) {
	if size < 0 {
		size = 0
	}
	existing, ok := langs[name]
	if !ok {
		langs[name] = Lang{Name: name, Color: copyColor(color), Size: size}
		return
	}
	existing.Size += size
	if existing.Color == nil {
		existing.Color = copyColor(color)
	}
	langs[name] = existing
}

func copyColor(color *string) *string {
	if color == nil {
		return nil
	}
	c := *color
	return &c
}
