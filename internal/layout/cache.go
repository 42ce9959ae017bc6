package layout

import (
	lru "github.com/hashicorp/golang-lru/v2"
)

// ChunkCache holds decoded chunks keyed by their file address, so one
// cache can serve every dataset of a file.
type ChunkCache struct {
	lru *lru.Cache[uint64, []byte]
}

// NewChunkCache returns a cache of up to size decoded chunks. onEvict, if
// not nil, is called whenever a chunk is dropped to make room.
func NewChunkCache(size int, onEvict func()) (*ChunkCache, error) {
	c, err := lru.NewWithEvict(size, func(uint64, []byte) {
		if onEvict != nil {
			onEvict()
		}
	})
	if err != nil {
		return nil, err
	}
	return &ChunkCache{lru: c}, nil
}

func (c *ChunkCache) get(addr uint64) ([]byte, bool) {
	if c == nil {
		return nil, false
	}
	return c.lru.Get(addr)
}

func (c *ChunkCache) add(addr uint64, data []byte) {
	if c != nil {
		c.lru.Add(addr, data)
	}
}

// Len returns the number of cached chunks.
func (c *ChunkCache) Len() int {
	if c == nil {
		return 0
	}
	return c.lru.Len()
}

// Purge drops every cached chunk.
func (c *ChunkCache) Purge() {
	if c != nil {
		c.lru.Purge()
	}
}
