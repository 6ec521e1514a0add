// Copyright 2025 Aviator Technologies, Inc.
// SPDX-License-Identifier: MIT

package rebaseengine

import (
	"fmt"

	"github.com/mergekit/rebase-engine/internal/cache"
	"github.com/mergekit/rebase-engine/internal/model"
)

// commitMetadata is Commit Metadata (C7): the per-commit-being-replayed
// context Merge-Commit Blob Merge consults. Both merge bases are computed
// lazily, on first use, and memoised for the lifetime of this value -
// most commits in a rebase never touch a path that needs them at all.
type commitMetadata struct {
	store      model.ObjectStore
	cache      *cache.MergeBaseCache
	commit     *model.Commit
	newParents []model.CommitID

	oldBaseComputed bool
	oldBase         model.CommitID
	hasOldBase      bool
	oldBaseTree     model.TreeRef

	newBaseComputed bool
	newBase         model.CommitID
	hasNewBase      bool
	newBaseTree     model.TreeRef
}

func newCommitMetadata(store model.ObjectStore, mbCache *cache.MergeBaseCache, commit *model.Commit, newParents []model.CommitID) *commitMetadata {
	if len(newParents) != len(commit.Parents) {
		panic("rebaseengine: newParents must be index-aligned with the commit's own parent list")
	}
	return &commitMetadata{store: store, cache: mbCache, commit: commit, newParents: newParents}
}

func (m *commitMetadata) oldMergeBase() (model.CommitID, bool, error) {
	if m.oldBaseComputed {
		return m.oldBase, m.hasOldBase, nil
	}
	base, ok, err := mergeBaseOf(m.store, m.cache, m.commit.Parents)
	if err != nil {
		return model.CommitID{}, false, err
	}
	m.oldBase, m.hasOldBase, m.oldBaseComputed = base, ok, true
	if ok {
		c, err := m.store.Commit(base)
		if err != nil {
			return model.CommitID{}, false, fmt.Errorf("rebaseengine: old merge base commit %s: %w", base, err)
		}
		m.oldBaseTree = model.PresentTree(c.Tree)
	}
	return m.oldBase, m.hasOldBase, nil
}

func (m *commitMetadata) newMergeBase() (model.CommitID, bool, error) {
	if m.newBaseComputed {
		return m.newBase, m.hasNewBase, nil
	}
	base, ok, err := mergeBaseOf(m.store, m.cache, m.newParents)
	if err != nil {
		return model.CommitID{}, false, err
	}
	m.newBase, m.hasNewBase, m.newBaseComputed = base, ok, true
	if ok {
		c, err := m.store.Commit(base)
		if err != nil {
			return model.CommitID{}, false, fmt.Errorf("rebaseengine: new merge base commit %s: %w", base, err)
		}
		m.newBaseTree = model.PresentTree(c.Tree)
	}
	return m.newBase, m.hasNewBase, nil
}

// OldBaseItem implements merge.BaseLookup.
func (m *commitMetadata) OldBaseItem(path []string) (*model.Item, error) {
	if _, ok, err := m.oldMergeBase(); err != nil {
		return nil, err
	} else if !ok {
		return nil, nil
	}
	return model.ItemAtPath(m.store, m.oldBaseTree, path)
}

// NewBaseItem implements merge.BaseLookup.
func (m *commitMetadata) NewBaseItem(path []string) (*model.Item, error) {
	if _, ok, err := m.newMergeBase(); err != nil {
		return nil, err
	} else if !ok {
		return nil, nil
	}
	return model.ItemAtPath(m.store, m.newBaseTree, path)
}

// ParentAtOldBase implements merge.BaseLookup.
func (m *commitMetadata) ParentAtOldBase(i int) (bool, error) {
	base, ok, err := m.oldMergeBase()
	if err != nil || !ok {
		return false, err
	}
	return m.commit.Parents[i] == base, nil
}

// ParentAtNewBase implements merge.BaseLookup.
func (m *commitMetadata) ParentAtNewBase(i int) (bool, error) {
	base, ok, err := m.newMergeBase()
	if err != nil || !ok {
		return false, err
	}
	return m.newParents[i] == base, nil
}

// mergeBaseOf computes (and caches, for merge commits) the merge base of
// a parent list. A single parent is trivially its own "merge base" -
// there is nothing to reconcile against.
func mergeBaseOf(store model.ObjectStore, mbCache *cache.MergeBaseCache, parents []model.CommitID) (model.CommitID, bool, error) {
	switch len(parents) {
	case 0:
		return model.CommitID{}, false, nil
	case 1:
		return parents[0], true, nil
	}

	if mbCache != nil {
		if base, found, ok := mbCache.Get(parents); ok {
			return base, found, nil
		}
	}
	base, ok, err := store.MergeBaseMany(parents)
	if err != nil {
		return model.CommitID{}, false, fmt.Errorf("rebaseengine: merge base of %v: %w", parents, err)
	}
	if mbCache != nil {
		mbCache.Put(parents, base, ok)
	}
	return base, ok, nil
}
