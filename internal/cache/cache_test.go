package cache

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ppiankov/deepresearch/internal/model"
)

func TestCacheKey(t *testing.T) {
	a := CacheKey("scrape", "https://example.com/a")
	b := CacheKey("scrape", "https://example.com/b")
	s := CacheKey("search", "https://example.com/a")

	assert.True(t, strings.HasPrefix(a, "deepresearch:v1:scrape:"))
	assert.NotEqual(t, a, b)
	assert.NotEqual(t, a, s)
	assert.Equal(t, a, CacheKey("scrape", "https://example.com/a"))
}

func TestMemoryCache(t *testing.T) {
	c := NewMemoryCache(time.Minute, time.Minute)
	require.NoError(t, c.Set("k", []byte("value"), 0))

	got, ok := c.Get("k")
	require.True(t, ok)
	assert.Equal(t, "value", string(got))

	got[0] = 'X'
	again, _ := c.Get("k")
	assert.Equal(t, "value", string(again), "returned slices are copies")
	assert.Equal(t, 1, c.Len())

	require.NoError(t, c.Delete("k"))
	_, ok = c.Get("k")
	assert.False(t, ok)

	require.NoError(t, c.Set("a", []byte("1"), 0))
	require.NoError(t, c.Clear())
	assert.Equal(t, 0, c.Len())
}

func TestMemoryCache_Expiry(t *testing.T) {
	c := NewMemoryCache(time.Minute, time.Minute)
	require.NoError(t, c.Set("k", []byte("v"), time.Millisecond))
	time.Sleep(5 * time.Millisecond)
	_, ok := c.Get("k")
	assert.False(t, ok)
}

func TestDiskCache(t *testing.T) {
	dir := t.TempDir()
	c := NewDiskCache(dir, time.Hour)
	key := CacheKey("scrape", "https://example.com")

	require.NoError(t, c.Set(key, []byte("page"), 0))
	got, ok := c.Get(key)
	require.True(t, ok)
	assert.Equal(t, "page", string(got))

	require.NoError(t, c.Delete(key))
	require.NoError(t, c.Delete(key), "deleting a missing key is fine")
	_, ok = c.Get(key)
	assert.False(t, ok)
}

func TestDiskCache_Expiry(t *testing.T) {
	c := NewDiskCache(t.TempDir(), time.Hour)
	now := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	c.now = func() time.Time { return now }

	key := CacheKey("search", "q")
	require.NoError(t, c.Set(key, []byte("v"), time.Minute))

	now = now.Add(2 * time.Minute)
	_, ok := c.Get(key)
	assert.False(t, ok)
	_, err := os.Stat(c.path(key))
	assert.True(t, os.IsNotExist(err), "expired entry is removed")
}

func TestDiskCache_CorruptEntry(t *testing.T) {
	c := NewDiskCache(t.TempDir(), time.Hour)
	key := CacheKey("scrape", "x")
	require.NoError(t, os.MkdirAll(filepath.Dir(c.path(key)), 0o755))
	require.NoError(t, os.WriteFile(c.path(key), []byte("{not json"), 0o644))

	_, ok := c.Get(key)
	assert.False(t, ok)
}

func TestLayeredCache_PromotesDiskHits(t *testing.T) {
	memory := NewMemoryCache(time.Minute, time.Minute)
	disk := NewDiskCache(t.TempDir(), time.Hour)
	c := NewLayeredCache(memory, disk, 0)

	require.NoError(t, disk.Set("k", []byte("from-disk"), 0))
	got, ok := c.Get("k")
	require.True(t, ok)
	assert.Equal(t, "from-disk", string(got))

	_, inMemory := memory.Get("k")
	assert.True(t, inMemory)

	require.NoError(t, c.Delete("k"))
	_, ok = c.Get("k")
	assert.False(t, ok)
}

func TestJSONHelpers(t *testing.T) {
	c := NewMemoryCache(time.Minute, time.Minute)
	in := []model.SearchResult{{Title: "T", URL: "https://a", Snippet: "s"}}
	require.NoError(t, SetJSON(c, "k", in, 0))

	var out []model.SearchResult
	require.True(t, GetJSON(c, "k", &out))
	assert.Equal(t, in, out)

	require.NoError(t, c.Set("bad", []byte("{"), 0))
	assert.False(t, GetJSON(c, "bad", &out))
	assert.False(t, GetJSON(c, "missing", &out))
}

func TestNew(t *testing.T) {
	_, isNop := New(model.CacheConfig{}).(Nop)
	assert.True(t, isNop)

	_, isMem := New(model.CacheConfig{Enabled: true, MemoryTTL: time.Minute}).(*MemoryCache)
	assert.True(t, isMem)

	_, isLayered := New(model.CacheConfig{Enabled: true, Dir: t.TempDir(), MemoryTTL: time.Minute, DiskTTL: time.Hour}).(*LayeredCache)
	assert.True(t, isLayered)
}
