package filter

import (
	"fmt"

	lru "github.com/hashicorp/golang-lru/v2"
)

// DefaultCacheSize is the number of compiled expressions kept by default
const DefaultCacheSize = 100

// CachingCompiler memoizes compiled filters by expression text
type CachingCompiler struct {
	compiler Compiler
	cache    *lru.Cache[string, Filter]
}

// NewCachingCompiler wraps compiler with an LRU cache of the given size
func NewCachingCompiler(compiler Compiler, size int) (*CachingCompiler, error) {
	if size <= 0 {
		size = DefaultCacheSize
	}

	cache, err := lru.New[string, Filter](size)
	if err != nil {
		return nil, fmt.Errorf("failed to create filter cache: %w", err)
	}

	return &CachingCompiler{
		compiler: compiler,
		cache:    cache,
	}, nil
}

// Compile returns the cached filter for expression, compiling it on a miss.
// Failed compilations are not cached.
func (c *CachingCompiler) Compile(expression string) (Filter, error) {
	if f, ok := c.cache.Get(expression); ok {
		return f, nil
	}

	f, err := c.compiler.Compile(expression)
	if err != nil {
		return nil, err
	}

	c.cache.Add(expression, f)
	return f, nil
}

// Clear removes all cached filters
func (c *CachingCompiler) Clear() {
	c.cache.Purge()
}

// Size returns the number of cached filters
func (c *CachingCompiler) Size() int {
	return c.cache.Len()
}
