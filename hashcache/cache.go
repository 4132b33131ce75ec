// SPDX-License-Identifier: ISC
// Copyright (c) 2014-2020 Bitmark Inc.
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package hashcache

import (
	"encoding/binary"
	"sync"

	"github.com/bitmark-inc/datacapsuled/crypto"
)

// DefaultCapacity - the reference table size from the design
const DefaultCapacity = 1024

// Cache - a fixed-size direct-mapped set of hashes
//
// Every method takes the cache's own mutex, so concurrent calls are
// safe; even so, each Reader session owns its own Cache, never shared
// (per the concurrency model's resource-sharing rule).
type Cache struct {
	mutex    sync.Mutex
	capacity int
	table    []crypto.Digest
	occupied []bool
}

// New - create an empty cache with the given capacity (must be a
// power of two so index = low bits of the hash)
func New(capacity int) *Cache {
	if capacity <= 0 {
		capacity = DefaultCapacity
	}
	return &Cache{
		capacity: capacity,
		table:    make([]crypto.Digest, capacity),
		occupied: make([]bool, capacity),
	}
}

// index - the low bits of the hash, taken from its final 8 bytes as
// a big-endian integer; pure function of the hash bytes and the
// table capacity only
func (c *Cache) index(h crypto.Digest) int {
	n := binary.BigEndian.Uint64(h[crypto.DigestLength-8:])
	return int(n % uint64(c.capacity))
}

// Insert - record a hash as proven, evicting whatever previously
// occupied its slot
func (c *Cache) Insert(h crypto.Digest) {
	c.mutex.Lock()
	defer c.mutex.Unlock()
	i := c.index(h)
	c.table[i] = h
	c.occupied[i] = true
}

// Contains - true if h currently occupies its slot
func (c *Cache) Contains(h crypto.Digest) bool {
	c.mutex.Lock()
	defer c.mutex.Unlock()
	i := c.index(h)
	return c.occupied[i] && c.table[i] == h
}

// Clear - empty the cache
func (c *Cache) Clear() {
	c.mutex.Lock()
	defer c.mutex.Unlock()
	for i := range c.occupied {
		c.occupied[i] = false
	}
}

// Snapshot - the currently occupied hashes, in table-index order;
// re-applying Insert over this slice in order reproduces the same
// state, for startCache replay
func (c *Cache) Snapshot() []crypto.Digest {
	c.mutex.Lock()
	defer c.mutex.Unlock()
	result := make([]crypto.Digest, 0, c.capacity)
	for i, ok := range c.occupied {
		if ok {
			result = append(result, c.table[i])
		}
	}
	return result
}

// Replay - re-insert a previously-snapshotted sequence, used by
// startCache to initialise a session cache to match a client's
// persisted one
func (c *Cache) Replay(hashes []crypto.Digest) {
	for _, h := range hashes {
		c.Insert(h)
	}
}

// Capacity - the fixed table size
func (c *Cache) Capacity() int {
	return c.capacity
}
