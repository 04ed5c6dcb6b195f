package cache

import (
	"bytes"
	"encoding/gob"
	"fmt"

	"github.com/klauspost/compress/s2"
)

// Codec 缓存值的二进制编解码：gob 编码后再做 s2 块压缩。
// 所有导出字段（包括内嵌的创建时间）都会完整往返。
type Codec struct{}

// Encode 将值编码为字节
func (Codec) Encode(v any) ([]byte, error) {
	var buf bytes.Buffer
	if err := gob.NewEncoder(&buf).Encode(v); err != nil {
		return nil, fmt.Errorf("gob encode: %w", err)
	}
	return s2.Encode(nil, buf.Bytes()), nil
}

// Decode 将字节解码到 v（必须是指针）
func (Codec) Decode(data []byte, v any) error {
	raw, err := s2.Decode(nil, data)
	if err != nil {
		return fmt.Errorf("s2 decode: %w", err)
	}
	if err := gob.NewDecoder(bytes.NewReader(raw)).Decode(v); err != nil {
		return fmt.Errorf("gob decode: %w", err)
	}
	return nil
}
