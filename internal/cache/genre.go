// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package cache

import (
	"time"

	"github.com/hashicorp/golang-lru/v2/expirable"

	"readlog/internal/models"
)

const (
	DefaultGenreCacheSize = 64
	DefaultGenreCacheTTL  = 10 * time.Minute
)

// GenreCache keeps recently resolved genres in process memory so review
// validation does not hit the database for every submission.
type GenreCache struct {
	lru *expirable.LRU[int64, models.Genre]
}

// NewGenreCache creates a genre cache holding at most size entries for ttl.
func NewGenreCache(size int, ttl time.Duration) *GenreCache {
	if size <= 0 {
		size = DefaultGenreCacheSize
	}
	if ttl <= 0 {
		ttl = DefaultGenreCacheTTL
	}
	return &GenreCache{lru: expirable.NewLRU[int64, models.Genre](size, nil, ttl)}
}

// Get returns a cached genre.
func (c *GenreCache) Get(id int64) (models.Genre, bool) {
	return c.lru.Get(id)
}

// Add caches a genre, replacing any previous entry for its id.
func (c *GenreCache) Add(g models.Genre) {
	c.lru.Add(g.ID, g)
}

// Remove evicts one genre, used after its active flag changes.
func (c *GenreCache) Remove(id int64) {
	c.lru.Remove(id)
}

// Purge evicts every entry.
func (c *GenreCache) Purge() {
	c.lru.Purge()
}

// Len returns the number of cached genres.
func (c *GenreCache) Len() int {
	return c.lru.Len()
}
