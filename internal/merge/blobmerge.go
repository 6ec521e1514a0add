// Copyright 2025 Aviator Technologies, Inc.
// SPDX-License-Identifier: MIT

package merge

import "github.com/mergekit/rebase-engine/internal/model"

// syntheticEntryName is the fixed name given to the single entry inserted
// into the throwaway trees built to drive the object store's own
// three-way tree merge over a single blob. The name never escapes this
// package.
const syntheticEntryName = "blob"

// mergeBlob3 is the three-way blob merge primitive (C3). It first tries
// the cheap identity shortcuts, then - for a genuine three-way change -
// defers to the object store's own three-way merge, run over a
// synthetic single-entry tree per side so the store's textual merge and
// its file-mode bookkeeping do the actual reconciliation.
func mergeBlob3(store model.ObjectStore, ancestor, ours, theirs *model.Item) (Resolution, error) {
	if Matches(ours, theirs) {
		return takeOrDelete(ours), nil
	}

	// Neither the ancestor nor their side has this path, but our side
	// introduced content: nothing to reconcile against, so this is a
	// genuine conflict rather than a clean take. Checked ahead of the
	// theirs==ancestor shortcut, which would otherwise take our side.
	if ancestor == nil && theirs == nil && ours != nil {
		return ConflictResolution, nil
	}

	if Matches(theirs, ancestor) {
		return takeOrDelete(ours), nil
	}
	if Matches(ours, ancestor) {
		return takeOrDelete(theirs), nil
	}

	ancestorTree, err := syntheticTree(store, ancestor)
	if err != nil {
		return Resolution{}, err
	}
	oursTree, err := syntheticTree(store, ours)
	if err != nil {
		return Resolution{}, err
	}
	theirsTree, err := syntheticTree(store, theirs)
	if err != nil {
		return Resolution{}, err
	}

	merged, conflicts, err := store.MergeTrees(ancestorTree, oursTree, theirsTree)
	if err != nil {
		return Resolution{}, err
	}
	if len(conflicts) > 0 {
		return ConflictResolution, nil
	}

	return itemFromSyntheticTree(store, merged)
}

func syntheticTree(store model.ObjectStore, item *model.Item) (model.TreeRef, error) {
	if item == nil {
		return model.AbsentTree, nil
	}
	builder := store.NewTreeBuilder()
	if err := builder.Insert(syntheticEntryName, item.ID, item.Mode); err != nil {
		return model.TreeRef{}, err
	}
	id, err := builder.Write()
	if err != nil {
		return model.TreeRef{}, err
	}
	return model.PresentTree(id), nil
}

func itemFromSyntheticTree(store model.ObjectStore, tree model.TreeRef) (Resolution, error) {
	if !tree.Present {
		return Deleted, nil
	}
	entries, err := store.TreeEntries(tree.ID)
	if err != nil {
		return Resolution{}, err
	}
	if len(entries) == 0 {
		return Deleted, nil
	}
	return Taken(entries[0]), nil
}
