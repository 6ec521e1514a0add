// Copyright 2025 Aviator Technologies, Inc.
// SPDX-License-Identifier: MIT

package merge

import "github.com/mergekit/rebase-engine/internal/model"

// Matches is the object-match primitive (C1): two optional items are
// equivalent iff both are absent, or both are present and carry the same
// id, name and kind, with mode additionally compared for blobs. Trees
// never carry a meaningful mode in this object model, so mode is ignored
// once both sides agree on being a subtree.
func Matches(a, b *model.Item) bool {
	if a == nil && b == nil {
		return true
	}
	if a == nil || b == nil {
		return false
	}
	if a.ID != b.ID || a.Name != b.Name {
		return false
	}
	if a.IsTree() != b.IsTree() {
		return false
	}
	if a.IsTree() {
		return true
	}
	return a.Mode == b.Mode
}
