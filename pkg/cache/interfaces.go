package cache

import "time"

// Store 缓存存储：完整键 -> 序列化后的字节。
// 存储层不理解值的类型，也不做过期判断，过期完全由 GetOrUpdate 在读取时解释。
type Store interface {
	// Get 读取 (kind, key) 对应的字节，不存在时 ok 为 false。
	Get(kind Kind, key string) (data []byte, ok bool)
	// Set 插入或覆盖 (kind, key) 对应的字节。
	Set(kind Kind, key string, data []byte)
	// Delete 删除条目，仅用于清理已损坏的数据。
	Delete(kind Kind, key string)
	// Keys 列出所有完整键（"{kind}__{key}"），顺序无保证。
	Keys() []string
	// Len 当前条目数
	Len() int
}

// Cacheable 可缓存的值必须自带创建时间。
// 创建时间随值一起序列化，存储层因此保持无类型。
type Cacheable interface {
	CreatedAt() time.Time
}
