package cache

import (
	"sort"
	"sync"
)

// MemoryStore 线程安全的内存存储实现
type MemoryStore struct {
	mu sync.RWMutex
	db map[string][]byte
}

// NewMemoryStore 创建新的内存存储
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		db: make(map[string][]byte),
	}
}

// Get 读取条目，返回副本
func (s *MemoryStore) Get(kind Kind, key string) ([]byte, bool) {
	s.mu.RLock()
	data, ok := s.db[Key(kind, key)]
	s.mu.RUnlock()

	if !ok {
		return nil, false
	}
	return append([]byte(nil), data...), true
}

// Set 写入条目，保存副本
func (s *MemoryStore) Set(kind Kind, key string, data []byte) {
	buf := append([]byte(nil), data...)

	s.mu.Lock()
	s.db[Key(kind, key)] = buf
	s.mu.Unlock()
}

// Delete 删除条目
func (s *MemoryStore) Delete(kind Kind, key string) {
	s.mu.Lock()
	delete(s.db, Key(kind, key))
	s.mu.Unlock()
}

// Keys 列出所有完整键，按字典序返回
func (s *MemoryStore) Keys() []string {
	s.mu.RLock()
	keys := make([]string, 0, len(s.db))
	for k := range s.db {
		keys = append(keys, k)
	}
	s.mu.RUnlock()

	sort.Strings(keys)
	return keys
}

// Len 当前条目数
func (s *MemoryStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.db)
}
