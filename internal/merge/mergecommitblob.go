// Copyright 2025 Aviator Technologies, Inc.
// SPDX-License-Identifier: MIT

package merge

import "github.com/mergekit/rebase-engine/internal/model"

// BaseLookup answers the questions Merge-Commit Blob Merge (C4) needs
// about the commit being replayed: the item a given path had in the old
// and new merge-base trees, and whether a given parent position already
// sat at one of those bases. It is implemented by the root package's
// per-commit metadata, which lazily computes and memoises the merge
// bases themselves.
type BaseLookup interface {
	OldBaseItem(path []string) (*model.Item, error)
	NewBaseItem(path []string) (*model.Item, error)
	ParentAtOldBase(i int) (bool, error)
	ParentAtNewBase(i int) (bool, error)
}

// MergeCommitBlob is C4, the hard part: reconciling a single blob path of
// a merge commit against both its old-history and new-history parent
// sets. oldParents and newParents are index-aligned with the commit's
// original parent list (including parents that didn't change at this
// path at all - Merge-Commit Blob Merge relies on that alignment for its
// merge-base fallback).
func MergeCommitBlob(store model.ObjectStore, meta BaseLookup, path []string, commitItem *model.Item, oldParents, newParents []*model.Item) (Resolution, error) {
	oldBase, err := meta.OldBaseItem(path)
	if err != nil {
		return Resolution{}, err
	}
	newBase, err := meta.NewBaseItem(path)
	if err != nil {
		return Resolution{}, err
	}
	basesEqual := Matches(oldBase, newBase)

	// Step 1: bring the commit's own blob up to date with whatever moved
	// between the old and new merge base, if anything did.
	current := commitItem
	if !basesEqual {
		res, err := mergeBlob3(store, oldBase, commitItem, newBase)
		if err != nil {
			return Resolution{}, err
		}
		if res.IsConflict() {
			return ConflictResolution, nil
		}
		current = res.Item()
	}

	n := len(oldParents)
	for i := 0; i < n; i++ {
		oldParentItem, newParentItem := oldParents[i], newParents[i]
		if Matches(oldParentItem, newParentItem) {
			continue
		}

		// Step 2a: transport the old parent's blob across the base
		// change too, so it's directly comparable to current.
		updatedOldParent := oldParentItem
		if !basesEqual {
			res, err := mergeBlob3(store, oldBase, oldParentItem, newBase)
			if err != nil {
				return Resolution{}, err
			}
			if res.IsConflict() {
				return ConflictResolution, nil
			}
			updatedOldParent = res.Item()
		}

		// Step 2b: fold this parent's new content into current.
		res, err := mergeBlob3(store, updatedOldParent, current, newParentItem)
		if err != nil {
			return Resolution{}, err
		}
		if res.IsConflict() {
			// The fallback below only applies to genuine merge
			// commits (more than one parent); a single-parent
			// commit hitting a conflict here has nowhere else to
			// go.
			if n <= 1 {
				return ConflictResolution, nil
			}
			atOldBase, err := meta.ParentAtOldBase(i)
			if err != nil {
				return Resolution{}, err
			}
			atNewBase, err := meta.ParentAtNewBase(i)
			if err != nil {
				return Resolution{}, err
			}
			if atOldBase && atNewBase {
				current = commitItem
				continue
			}
			return ConflictResolution, nil
		}
		current = res.Item()
	}

	return takeOrDelete(current), nil
}
