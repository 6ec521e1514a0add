// Copyright 2025 Aviator Technologies, Inc.
// SPDX-License-Identifier: MIT

// Package rebaseengine implements a merge-preserving rebase: replaying a
// range of commits, merge commits included, onto a new base without
// flattening them into a linear cherry-pick sequence.
package rebaseengine

import "github.com/mergekit/rebase-engine/internal/model"

// These aliases re-export the shared value types so callers outside this
// module's internal tree never need to import internal/model directly;
// the heavy lifting stays internal, this package is the public surface.
type (
	CommitID = model.CommitID
	TreeID   = model.TreeID
	BlobID   = model.BlobID
	Item     = model.Item
	TreeRef  = model.TreeRef
	Commit   = model.Commit
	Conflict = model.Conflict

	// ObjectStore is the external object store the engine replays
	// commits against (§6). internal/gitstore ships the concrete
	// go-git-backed implementation.
	ObjectStore = model.ObjectStore
)

// EmptyTreeID is git's well-known empty-tree hash, substituted whenever
// the tree merger produces an absent (empty) result at the root.
var EmptyTreeID = model.EmptyTreeID
