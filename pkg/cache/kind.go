package cache

import (
	"fmt"
	"strings"
)

// Kind 缓存值的逻辑类型标签，作为完整键的一部分。
// 标签会出现在诊断接口中，属于对外契约，修改前需要考虑兼容性。
type Kind string

const (
	KindUserGithubStats Kind = "UserGithubStats"
	KindTopLangs        Kind = "TopLangs"
)

// KeySeparator 完整键中 kind 与 key 之间的分隔符
const KeySeparator = "__"

var knownKinds = map[Kind]struct{}{
	KindUserGithubStats: {},
	KindTopLangs:        {},
}

// Valid 是否为已注册的类型标签
func (k Kind) Valid() bool {
	_, ok := knownKinds[k]
	return ok
}

func (k Kind) String() string {
	return string(k)
}

// Key 渲染完整键 "{kind}__{key}"
func Key(kind Kind, key string) string {
	return fmt.Sprintf("%s%s%s", kind, KeySeparator, key)
}

// ParseKind 按名称查找类型标签，忽略大小写（配置文件中的键会被转换为小写）
func ParseKind(name string) (Kind, bool) {
	for k := range knownKinds {
		if strings.EqualFold(string(k), name) {
			return k, true
		}
	}
	return "", false
}
