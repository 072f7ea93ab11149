package cache

import (
	"context"
	"encoding/json"
	"errors"
	"time"
)

// ErrMiss 键不存在
var ErrMiss = errors.New("cache miss")

// Cache 缓存接口
type Cache interface {
	// GetObject 获取并反序列化，键不存在时返回 ErrMiss
	GetObject(ctx context.Context, key string, dest interface{}) error

	// SetObject 序列化并写入，ttl 为 0 时使用默认过期时间
	SetObject(ctx context.Context, key string, value interface{}, ttl time.Duration) error

	// Delete 删除缓存
	Delete(ctx context.Context, key string) error

	// Ping 连通性检查
	Ping(ctx context.Context) error

	// Close 关闭连接
	Close() error
}

// CacheOptions 缓存选项
type CacheOptions struct {
	// 默认过期时间
	DefaultTTL time.Duration

	// 键前缀
	KeyPrefix string

	// 序列化方式
	Serializer Serializer
}

// Serializer 序列化器接口
type Serializer interface {
	Serialize(v interface{}) ([]byte, error)
	Deserialize(data []byte, v interface{}) error
}

// JSONSerializer JSON序列化器
type JSONSerializer struct{}

// Serialize 序列化
func (s *JSONSerializer) Serialize(v interface{}) ([]byte, error) {
	return json.Marshal(v)
}

// Deserialize 反序列化
func (s *JSONSerializer) Deserialize(data []byte, v interface{}) error {
	return json.Unmarshal(data, v)
}
