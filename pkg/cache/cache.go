// Package cache は件数上限付き・期限付きのインメモリキャッシュを提供します。
package cache

import (
	"fmt"
	"time"

	lru "github.com/hashicorp/golang-lru/v2"
)

type entry struct {
	value   any
	expires time.Time // ゼロ値は無期限
}

// MemoryCache は LRU で件数を制限し、アイテムごとの有効期限を持つキャッシュです。
// 複数のゴルーチンから安全に利用できます。
type MemoryCache struct {
	items *lru.Cache[string, entry]
	now   func() time.Time
}

// New は MemoryCache を生成します。maxEntries は 1 以上である必要があります。
func New(maxEntries int) (*MemoryCache, error) {
	items, err := lru.New[string, entry](maxEntries)
	if err != nil {
		return nil, fmt.Errorf("キャッシュの初期化に失敗しました (max_entries=%d): %w", maxEntries, err)
	}
	return &MemoryCache{items: items, now: time.Now}, nil
}

// Get は有効期限内のアイテムを返します。期限切れのアイテムはその場で破棄されます。
func (c *MemoryCache) Get(key string) (any, bool) {
	e, ok := c.items.Get(key)
	if !ok {
		return nil, false
	}
	if !e.expires.IsZero() && !c.now().Before(e.expires) {
		c.items.Remove(key)
		return nil, false
	}
	return e.value, true
}

// Set はアイテムを保存します。d が 0 以下の場合は無期限です。
// 上限件数に達している場合は最も長く参照されていないアイテムが追い出されます。
func (c *MemoryCache) Set(key string, value any, d time.Duration) {
	var expires time.Time
	if d > 0 {
		expires = c.now().Add(d)
	}
	c.items.Add(key, entry{value: value, expires: expires})
}

// Delete はアイテムを削除します。
func (c *MemoryCache) Delete(key string) {
	c.items.Remove(key)
}

// Len は保持しているアイテム数を返します (期限切れを含む)。
func (c *MemoryCache) Len() int {
	return c.items.Len()
}
