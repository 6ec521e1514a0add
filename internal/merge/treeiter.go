// Copyright 2025 Aviator Technologies, Inc.
// SPDX-License-Identifier: MIT

package merge

import "github.com/mergekit/rebase-engine/internal/model"

// IterEntry is one step of a synchronized multi-tree walk: the item each
// input tree carries at the current name, or nil where that input has
// nothing there.
type IterEntry struct {
	Name   string
	Commit *model.Item
	Old    []*model.Item
	New    []*model.Item
}

// treeCursor walks one tree's already-sorted entry list.
type treeCursor struct {
	items []*model.Item
	idx   int
}

func newTreeCursor(store model.ObjectStore, tree model.TreeRef) (*treeCursor, error) {
	if !tree.Present {
		return &treeCursor{}, nil
	}
	items, err := store.TreeEntries(tree.ID)
	if err != nil {
		return nil, err
	}
	return &treeCursor{items: items}, nil
}

func (c *treeCursor) peek() *model.Item {
	if c == nil || c.idx >= len(c.items) {
		return nil
	}
	return c.items[c.idx]
}

func (c *treeCursor) advance() {
	c.idx++
}

// treeIterator performs the synchronized lexicographic walk (C5) across
// the commit's own tree and every old/new parent tree at one level of the
// hierarchy, relying on TreeEntries returning entries in sorted order.
type treeIterator struct {
	commit *treeCursor
	old    []*treeCursor
	new    []*treeCursor
}

func newTreeIterator(store model.ObjectStore, commitTree model.TreeRef, oldTrees, newTrees []model.TreeRef) (*treeIterator, error) {
	commit, err := newTreeCursor(store, commitTree)
	if err != nil {
		return nil, err
	}
	old := make([]*treeCursor, len(oldTrees))
	for i, t := range oldTrees {
		old[i], err = newTreeCursor(store, t)
		if err != nil {
			return nil, err
		}
	}
	newC := make([]*treeCursor, len(newTrees))
	for i, t := range newTrees {
		newC[i], err = newTreeCursor(store, t)
		if err != nil {
			return nil, err
		}
	}
	return &treeIterator{commit: commit, old: old, new: newC}, nil
}

func (it *treeIterator) minName() (string, bool) {
	min := ""
	found := false
	consider := func(c *treeCursor) {
		if p := c.peek(); p != nil {
			if !found || p.Name < min {
				min = p.Name
				found = true
			}
		}
	}
	consider(it.commit)
	for _, c := range it.old {
		consider(c)
	}
	for _, c := range it.new {
		consider(c)
	}
	return min, found
}

// Next returns the next name in lexicographic order across all inputs,
// along with each input's item there (nil where absent), or ok=false once
// every input is exhausted.
func (it *treeIterator) Next() (entry IterEntry, ok bool) {
	name, found := it.minName()
	if !found {
		return IterEntry{}, false
	}

	entry = IterEntry{
		Name: name,
		Old:  make([]*model.Item, len(it.old)),
		New:  make([]*model.Item, len(it.new)),
	}
	if p := it.commit.peek(); p != nil && p.Name == name {
		entry.Commit = p
		it.commit.advance()
	}
	for i, c := range it.old {
		if p := c.peek(); p != nil && p.Name == name {
			entry.Old[i] = p
			c.advance()
		}
	}
	for i, c := range it.new {
		if p := c.peek(); p != nil && p.Name == name {
			entry.New[i] = p
			c.advance()
		}
	}
	return entry, true
}
