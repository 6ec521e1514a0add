// Copyright 2025 Aviator Technologies, Inc.
// SPDX-License-Identifier: MIT

package gitstore

import (
	"fmt"
	"sort"

	"github.com/go-git/go-git/v5/plumbing"
	"github.com/go-git/go-git/v5/plumbing/object"
	"github.com/go-git/go-git/v5/plumbing/storer"
)

// topoSortOldestFirst orders delta so that every commit appears after all
// of its in-delta parents, breaking ties by hash so the result is
// reproducible across runs against the same inputs.
func topoSortOldestFirst(storage storer.EncodedObjectStorer, delta map[plumbing.Hash]bool) ([]plumbing.Hash, error) {
	inDegree := make(map[plumbing.Hash]int, len(delta))
	children := make(map[plumbing.Hash][]plumbing.Hash)

	for h := range delta {
		commit, err := object.GetCommit(storage, h)
		if err != nil {
			return nil, fmt.Errorf("failed to get commit %s: %w", h, err)
		}
		count := 0
		for _, p := range commit.ParentHashes {
			if delta[p] {
				count++
				children[p] = append(children[p], h)
			}
		}
		inDegree[h] = count
	}

	var ready []plumbing.Hash
	for h := range delta {
		if inDegree[h] == 0 {
			ready = append(ready, h)
		}
	}

	order := make([]plumbing.Hash, 0, len(delta))
	for len(ready) > 0 {
		sort.Slice(ready, func(i, j int) bool { return ready[i].String() < ready[j].String() })
		current := ready[0]
		ready = ready[1:]
		order = append(order, current)
		for _, c := range children[current] {
			inDegree[c]--
			if inDegree[c] == 0 {
				ready = append(ready, c)
			}
		}
	}

	if len(order) != len(delta) {
		return nil, fmt.Errorf("gitstore: commit graph in range is not acyclic")
	}
	return order, nil
}
