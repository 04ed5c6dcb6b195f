// Package version 记录构建信息，mage build 时通过 -ldflags 覆盖。
package version

var (
	Name     = "minestats"
	Version  = "0.3.0"
	Homepage = "https://github.com/minestats/minestats"
)

// UserAgent 访问上游 API 时使用的 User-Agent
func UserAgent() string {
	return Name + "/" + Version
}
