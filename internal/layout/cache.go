package layout

type cacheEntry struct {
	Layout TypeLayout
	Err    *LayoutError
}

type cache struct {
	byType map[string]cacheEntry
}

func newCache() *cache {
	return &cache{byType: make(map[string]cacheEntry, 64)}
}

func (c *cache) get(typ string) (cacheEntry, bool) {
	if c == nil {
		return cacheEntry{}, false
	}
	e, ok := c.byType[typ]
	return e, ok
}

func (c *cache) put(typ string, e cacheEntry) {
	if c == nil {
		return
	}
	c.byType[typ] = e
}
