// Copyright 2025 Aviator Technologies, Inc.
// SPDX-License-Identifier: MIT

// Package cache memoises merge-base lookups for Commit Metadata (C7). An
// in-process LRU always runs; an optional badger-backed layer lets the
// result survive across separate CLI invocations against the same
// repository.
package cache

import (
	"crypto/sha1"
	"encoding/hex"
	"errors"
	"sort"
	"strings"

	badger "github.com/dgraph-io/badger/v4"
	lru "github.com/hashicorp/golang-lru/v2"
	"github.com/go-git/go-git/v5/plumbing"
)

// entry is what's actually cached: the parent set's merge base, and
// whether one was found at all (absence is a real, cacheable answer).
type entry struct {
	base  plumbing.Hash
	found bool
}

// MergeBaseCache memoises merge_base_many results, keyed by the
// (unordered) set of commit ids being based.
type MergeBaseCache struct {
	mem *lru.Cache[string, entry]
	db  *badger.DB
}

// New builds a cache with an in-process LRU of the given size. db may be
// nil to disable the persistent layer.
func New(size int, db *badger.DB) (*MergeBaseCache, error) {
	if size <= 0 {
		size = 256
	}
	mem, err := lru.New[string, entry](size)
	if err != nil {
		return nil, err
	}
	return &MergeBaseCache{mem: mem, db: db}, nil
}

// Get returns a previously cached merge base for ids, if any.
func (c *MergeBaseCache) Get(ids []plumbing.Hash) (base plumbing.Hash, found, ok bool) {
	key := cacheKey(ids)
	if e, hit := c.mem.Get(key); hit {
		return e.base, e.found, true
	}
	if c.db == nil {
		return plumbing.ZeroHash, false, false
	}

	var e entry
	err := c.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get([]byte(key))
		if err != nil {
			return err
		}
		return item.Value(func(val []byte) error {
			e = decodeEntry(val)
			return nil
		})
	})
	if err != nil {
		if !errors.Is(err, badger.ErrKeyNotFound) {
			// A persistent-store read failure degrades to a cache
			// miss; the caller recomputes rather than failing the
			// whole rebase over a cache malfunction.
			return plumbing.ZeroHash, false, false
		}
		return plumbing.ZeroHash, false, false
	}
	c.mem.Add(key, e)
	return e.base, e.found, true
}

// Put records the merge base computed for ids (found=false records a
// cacheable "no common ancestor").
func (c *MergeBaseCache) Put(ids []plumbing.Hash, base plumbing.Hash, found bool) {
	key := cacheKey(ids)
	e := entry{base: base, found: found}
	c.mem.Add(key, e)
	if c.db == nil {
		return
	}
	_ = c.db.Update(func(txn *badger.Txn) error {
		return txn.Set([]byte(key), encodeEntry(e))
	})
}

func cacheKey(ids []plumbing.Hash) string {
	hexes := make([]string, len(ids))
	for i, id := range ids {
		hexes[i] = id.String()
	}
	sort.Strings(hexes)
	sum := sha1.Sum([]byte(strings.Join(hexes, ",")))
	return hex.EncodeToString(sum[:])
}

func encodeEntry(e entry) []byte {
	if !e.found {
		return []byte("-")
	}
	return []byte(e.base.String())
}

func decodeEntry(b []byte) entry {
	if len(b) == 1 && b[0] == '-' {
		return entry{found: false}
	}
	return entry{base: plumbing.NewHash(string(b)), found: true}
}
