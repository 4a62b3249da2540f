package cache

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/fyerfyer/tender-parser/config"
)

// Cache 解析结果缓存接口
// 同一份文档的结构解析是纯函数，按文件内容哈希缓存可直接复用
type Cache interface {
	Get(key string) (value string, found bool, err error)
	Set(key string, value string, ttl time.Duration) error
	Delete(key string) error
	Clear() error
}

// Factory 缓存工厂函数类型
type Factory func(cfg config.CacheConfig) (Cache, error)

// 注册的缓存实现
var registry = make(map[string]Factory)

// RegisterCache 注册缓存实现
func RegisterCache(name string, factory Factory) {
	registry[name] = factory
}

// NewCache 按配置创建缓存实例，未注册的类型回落到内存缓存
func NewCache(cfg config.CacheConfig) (Cache, error) {
	if factory, ok := registry[cfg.Type]; ok {
		return factory(cfg)
	}
	return NewMemoryCache(cfg)
}

// HashFile 计算文件内容的SHA-256摘要，作为缓存键的主体
func HashFile(path string) (string, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", err
	}
	defer f.Close()

	h := sha256.New()
	if _, err := io.Copy(h, f); err != nil {
		return "", err
	}
	return hex.EncodeToString(h.Sum(nil)), nil
}

// ResultKey 生成解析结果的缓存键，形如 parse:<sha256>:<mode>
// mode区分smart/quick等不同解析模式的结果
func ResultKey(fileHash, mode string) string {
	return fmt.Sprintf("parse:%s:%s", fileHash, mode)
}
