package cache

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fyerfyer/tender-parser/config"
)

func TestMemoryCache(t *testing.T) {
	c, err := NewMemoryCache(config.CacheConfig{})
	require.NoError(t, err)

	err = c.Set("parse:abc:smart", `{"success":true}`, time.Minute)
	require.NoError(t, err)

	val, found, err := c.Get("parse:abc:smart")
	require.NoError(t, err)
	assert.True(t, found)
	assert.Equal(t, `{"success":true}`, val)

	_, found, err = c.Get("parse:missing:smart")
	require.NoError(t, err)
	assert.False(t, found)

	err = c.Delete("parse:abc:smart")
	require.NoError(t, err)
	_, found, _ = c.Get("parse:abc:smart")
	assert.False(t, found)
}

func TestRedisCache(t *testing.T) {
	mr, err := miniredis.Run()
	require.NoError(t, err)
	defer mr.Close()

	c, err := NewRedisCache(config.CacheConfig{
		Type:      "redis",
		RedisAddr: mr.Addr(),
	})
	require.NoError(t, err)

	err = c.Set("parse:def:quick", "cached", time.Minute)
	require.NoError(t, err)

	val, found, err := c.Get("parse:def:quick")
	require.NoError(t, err)
	assert.True(t, found)
	assert.Equal(t, "cached", val)

	mr.FastForward(2 * time.Minute)
	_, found, err = c.Get("parse:def:quick")
	require.NoError(t, err)
	assert.False(t, found)
}

func TestNewCacheFallback(t *testing.T) {
	// 未注册的类型回落到内存缓存
	c, err := NewCache(config.CacheConfig{Type: "unknown"})
	require.NoError(t, err)
	assert.IsType(t, &MemoryCache{}, c)
}

func TestHashFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "doc.docx")
	require.NoError(t, os.WriteFile(path, []byte("content"), 0644))

	h1, err := HashFile(path)
	require.NoError(t, err)
	assert.Len(t, h1, 64)

	h2, err := HashFile(path)
	require.NoError(t, err)
	assert.Equal(t, h1, h2)

	require.NoError(t, os.WriteFile(path, []byte("changed"), 0644))
	h3, err := HashFile(path)
	require.NoError(t, err)
	assert.NotEqual(t, h1, h3)
}

func TestResultKey(t *testing.T) {
	assert.Equal(t, "parse:abc123:smart", ResultKey("abc123", "smart"))
}
