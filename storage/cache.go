// SPDX-License-Identifier: ISC
// Copyright (c) 2014-2020 Bitmark Inc.
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package storage

import (
	"time"

	cache "github.com/patrickmn/go-cache"
)

// Cache - read-your-own-writes layer sitting in front of the
// database: staged Puts/Deletes are visible to Get/Has before the
// batch they belong to is ever written.
type Cache interface {
	Get(string) ([]byte, bool)
	Set(op int, key string, value []byte)
	Clear()
}

const (
	dbPut = iota
	dbDelete
)

const (
	defaultExpiration = 2 * time.Minute
	cleanupInterval   = 4 * time.Minute
)

type dbCache struct {
	cache *cache.Cache
}

type cacheEntry struct {
	op    int
	value []byte
}

func newCache() Cache {
	return &dbCache{
		cache: cache.New(defaultExpiration, cleanupInterval),
	}
}

func (c *dbCache) Get(key string) ([]byte, bool) {
	obj, found := c.cache.Get(key)
	if !found {
		return nil, false
	}
	entry := obj.(cacheEntry)
	if dbDelete == entry.op {
		return nil, false
	}
	return entry.value, true
}

func (c *dbCache) Set(op int, key string, value []byte) {
	c.cache.Set(key, cacheEntry{op: op, value: value}, defaultExpiration)
}

func (c *dbCache) Clear() {
	c.cache.Flush()
}
