// Copyright 2025 Aviator Technologies, Inc.
// SPDX-License-Identifier: MIT

// Package mergebase computes the lowest common ancestor of an arbitrary
// number of commits. go-git's object.Commit only exposes a pairwise
// MergeBase, so this generalizes it to N commits: collect each input's
// reachable set by BFS over parent edges, intersect those sets, and keep
// the leaves of that intersection.
package mergebase

import (
	"fmt"

	"github.com/go-git/go-git/v5/plumbing"
	"github.com/go-git/go-git/v5/plumbing/object"
)

// CommitLister is the sliver of storer.EncodedObjectStorer /
// object.CommitIter needed here, satisfied by go-git's *object.Commit
// walking API.
type CommitLister interface {
	Commit(h plumbing.Hash) (*object.Commit, error)
}

// FindMany returns the lowest common ancestor of ids, or ok=false if no
// commit is reachable from all of them. With more than two ids and a
// criss-cross history, more than one common ancestor can qualify; the
// lexicographically smallest hash is chosen so the result is
// deterministic across runs.
func FindMany(store CommitLister, ids []plumbing.Hash) (plumbing.Hash, bool, error) {
	switch len(ids) {
	case 0:
		return plumbing.ZeroHash, false, nil
	case 1:
		return ids[0], true, nil
	}

	reachableSets := make([]map[plumbing.Hash]bool, len(ids))
	for i, id := range ids {
		set, err := ReachableFrom(store, id)
		if err != nil {
			return plumbing.ZeroHash, false, fmt.Errorf("mergebase: %w", err)
		}
		reachableSets[i] = set
	}

	common := reachableSets[0]
	for _, set := range reachableSets[1:] {
		for h := range common {
			if !set[h] {
				delete(common, h)
			}
		}
	}
	if len(common) == 0 {
		return plumbing.ZeroHash, false, nil
	}

	leaves, err := leavesOf(store, common)
	if err != nil {
		return plumbing.ZeroHash, false, err
	}
	if len(leaves) == 0 {
		return plumbing.ZeroHash, false, nil
	}

	best := leaves[0]
	for _, h := range leaves[1:] {
		if h.String() < best.String() {
			best = h
		}
	}
	return best, true, nil
}

// leavesOf keeps only the commits in the set that are not themselves
// ancestors of another commit in the set.
func leavesOf(store CommitLister, set map[plumbing.Hash]bool) ([]plumbing.Hash, error) {
	candidates := make(map[plumbing.Hash]bool, len(set))
	for h := range set {
		candidates[h] = true
	}
	for h := range set {
		reachable, err := ReachableFrom(store, h)
		if err != nil {
			return nil, err
		}
		for other := range reachable {
			if other != h {
				delete(candidates, other)
			}
		}
	}
	leaves := make([]plumbing.Hash, 0, len(candidates))
	for h := range candidates {
		leaves = append(leaves, h)
	}
	return leaves, nil
}

// ReachableFrom returns every commit (including start) reachable by
// following parent edges from start. Exported so callers with their own
// walk needs (gitstore's rebase-range walk, in particular) don't have to
// reimplement the same BFS.
func ReachableFrom(store CommitLister, start plumbing.Hash) (map[plumbing.Hash]bool, error) {
	reachable := make(map[plumbing.Hash]bool)
	queue := []plumbing.Hash{start}
	for len(queue) > 0 {
		current := queue[0]
		queue = queue[1:]
		if reachable[current] {
			continue
		}
		reachable[current] = true
		commit, err := store.Commit(current)
		if err != nil {
			return nil, fmt.Errorf("failed to get commit %s: %w", current, err)
		}
		queue = append(queue, commit.ParentHashes...)
	}
	return reachable, nil
}
