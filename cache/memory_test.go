package cache

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryCache_SetGet(t *testing.T) {
	mc := NewMemoryCache(100, 1024*1024)

	mc.Set("/src/main.h", []byte("class A { Q_OBJECT };"))

	got, ok := mc.Get("/src/main.h")
	require.True(t, ok)
	assert.False(t, got.Missing)
	assert.Equal(t, "class A { Q_OBJECT };", string(got.Value))
}

func TestMemoryCache_GetReturnsCopy(t *testing.T) {
	mc := NewMemoryCache(10, 1024)
	mc.Set("k", []byte("abc"))

	got, _ := mc.Get("k")
	got.Value[0] = 'x'

	again, _ := mc.Get("k")
	assert.Equal(t, "abc", string(again.Value))
}

func TestMemoryCache_SetMissing(t *testing.T) {
	mc := NewMemoryCache(10, 1024)
	mc.SetMissing("/src/absent.h")

	got, ok := mc.Get("/src/absent.h")
	require.True(t, ok)
	assert.True(t, got.Missing)
	assert.Empty(t, got.Value)
}

func TestMemoryCache_LRUEviction(t *testing.T) {
	mc := NewMemoryCache(3, 1024*1024)

	mc.Set("key1", []byte("value1"))
	mc.Set("key2", []byte("value2"))
	mc.Set("key3", []byte("value3"))

	// key1 becomes most recently used
	mc.Get("key1")

	mc.Set("key4", []byte("value4"))

	_, ok := mc.Get("key2")
	assert.False(t, ok, "key2 should have been evicted")
	for _, key := range []string{"key1", "key3", "key4"} {
		_, ok := mc.Get(key)
		assert.True(t, ok, "%s should still be cached", key)
	}
}

func TestMemoryCache_SizeEviction(t *testing.T) {
	mc := NewMemoryCache(100, 10)

	mc.Set("a", []byte("12345"))
	mc.Set("b", []byte("12345"))
	mc.Set("c", []byte("1"))

	_, ok := mc.Get("a")
	assert.False(t, ok)
	assert.LessOrEqual(t, mc.Stats().SizeBytes, int64(10))
}

func TestMemoryCache_UpdateAdjustsSize(t *testing.T) {
	mc := NewMemoryCache(10, 1024)
	mc.Set("k", []byte("1234"))
	mc.Set("k", []byte("12"))

	stats := mc.Stats()
	assert.Equal(t, 1, stats.Entries)
	assert.Equal(t, int64(2), stats.SizeBytes)
}

func TestMemoryCache_OversizedEntryIsNotKept(t *testing.T) {
	mc := NewMemoryCache(10, 4)
	mc.Set("small", []byte("12"))
	mc.Set("big", []byte("123456"))

	_, ok := mc.Get("big")
	assert.False(t, ok)
	_, ok = mc.Get("small")
	assert.False(t, ok, "small is evicted first while making room")
	assert.Equal(t, Stats{Entries: 0, SizeBytes: 0, Hits: 0, Misses: 2}, mc.Stats())
}

func TestMemoryCache_HitMissStats(t *testing.T) {
	mc := NewMemoryCache(10, 1024)
	mc.Set("a", []byte("1"))

	mc.Get("a")
	mc.Get("a")
	mc.Get("b")

	stats := mc.Stats()
	assert.Equal(t, 2, stats.Hits)
	assert.Equal(t, 1, stats.Misses)
}
