// Copyright 2025 Aviator Technologies, Inc.
// SPDX-License-Identifier: MIT

package merge

import "github.com/mergekit/rebase-engine/internal/model"

// EasyMerge is the single-parent fast path (C2): it resolves a path
// without ever touching the object store's three-way text merge, by
// noticing the change is entirely on one side. ok is false when none of
// the easy cases apply and the caller must fall through to a heavier
// merge (Merge-Commit Blob Merge for blobs, recursion for trees).
func EasyMerge(commitItem, oldParentItem, newParentItem *model.Item) (Resolution, bool) {
	// The rebase target already carries whatever the commit did (or
	// didn't do) at this path; take the commit's own item unchanged.
	if Matches(oldParentItem, newParentItem) {
		return takeOrDelete(commitItem), true
	}

	// Added by the new parent, and the commit never touched this path.
	if oldParentItem == nil && newParentItem != nil && commitItem == nil {
		return takeOrDelete(newParentItem), true
	}

	// Removed by the new parent, and the commit never touched this path.
	if oldParentItem != nil && newParentItem == nil && commitItem == nil {
		return Deleted, true
	}

	// The commit independently introduced the same path the new parent
	// added.
	if oldParentItem == nil && newParentItem != nil && commitItem != nil && Matches(commitItem, newParentItem) {
		return takeOrDelete(commitItem), true
	}

	// The commit left the old parent's content untouched; whatever the
	// new parent now has there wins outright.
	if oldParentItem != nil && Matches(commitItem, oldParentItem) {
		return takeOrDelete(newParentItem), true
	}

	// The commit already converged on what the new parent has.
	if oldParentItem != nil && newParentItem != nil && Matches(commitItem, newParentItem) {
		return takeOrDelete(newParentItem), true
	}

	return Resolution{}, false
}
