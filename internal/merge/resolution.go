// Copyright 2025 Aviator Technologies, Inc.
// SPDX-License-Identifier: MIT

package merge

import "github.com/mergekit/rebase-engine/internal/model"

type resolutionKind int

const (
	resKeep resolutionKind = iota
	resDeleted
	resConflict
)

// Resolution is the outcome of resolving a single path: keep an item
// (possibly a brand new blob produced by a merge), delete it, or report a
// conflict that the caller must record and move on from.
type Resolution struct {
	kind resolutionKind
	item *model.Item
}

// Deleted signals the path should be absent in the merged result.
var Deleted = Resolution{kind: resDeleted}

// ConflictResolution signals the path could not be reconciled.
var ConflictResolution = Resolution{kind: resConflict}

// Taken wraps an item that should survive into the merged result
// unchanged. A nil item is equivalent to Deleted.
func Taken(item *model.Item) Resolution {
	if item == nil {
		return Deleted
	}
	return Resolution{kind: resKeep, item: item}
}

func takeOrDelete(item *model.Item) Resolution {
	return Taken(item)
}

// IsConflict reports whether the resolution represents an unresolved
// conflict.
func (r Resolution) IsConflict() bool {
	return r.kind == resConflict
}

// Item returns the surviving item, or nil if the resolution is a deletion
// or a conflict.
func (r Resolution) Item() *model.Item {
	if r.kind != resKeep {
		return nil
	}
	return r.item
}
