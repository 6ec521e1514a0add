// Copyright 2025 Aviator Technologies, Inc.
// SPDX-License-Identifier: MIT

package merge

import (
	"strings"

	"github.com/go-git/go-git/v5/plumbing/filemode"
	"github.com/mergekit/rebase-engine/internal/model"
)

// MergeTrees is the recursive tree merger (C6). commitTree is the
// original commit's tree (or subtree, on recursive calls) at this path;
// oldParents and newParents are index-aligned with the commit's full
// parent list, unreduced at every recursion depth so that
// MergeCommitBlob's merge-base fallback can keep using the commit's
// original parent indices. conflicts accumulates unresolved leaf paths;
// pathStack is the sequence of names from the tree root down to here.
func MergeTrees(store model.ObjectStore, meta BaseLookup, commitTree model.TreeRef, oldParents, newParents []model.TreeRef, conflicts *[]model.Conflict, pathStack []string) (model.TreeRef, error) {
	if len(pathStack) == 0 {
		if shortcut, ok, err := rootShortcut(commitTree, oldParents, newParents); err != nil {
			return model.TreeRef{}, err
		} else if ok {
			return shortcut, nil
		}
	}

	iter, err := newTreeIterator(store, commitTree, oldParents, newParents)
	if err != nil {
		return model.TreeRef{}, err
	}

	builder := store.NewTreeBuilder()
	nonEmpty := false

	for {
		entry, ok := iter.Next()
		if !ok {
			break
		}

		if placed, item, err := resolveEntry(store, meta, entry, conflicts, pathStack); err != nil {
			return model.TreeRef{}, err
		} else if placed {
			if item != nil {
				if err := builder.Insert(entry.Name, item.ID, item.Mode); err != nil {
					return model.TreeRef{}, err
				}
				nonEmpty = true
			}
			continue
		}
	}

	if !nonEmpty {
		return model.AbsentTree, nil
	}
	id, err := builder.Write()
	if err != nil {
		return model.TreeRef{}, err
	}
	return model.PresentTree(id), nil
}

// rootShortcut implements the whole-tree fast paths: no parent pair
// differs at all (keep the commit's tree verbatim), or exactly one pair
// differs and Easy Merge alone settles it.
func rootShortcut(commitTree model.TreeRef, oldParents, newParents []model.TreeRef) (model.TreeRef, bool, error) {
	pairs := differingTreeIndices(oldParents, newParents)
	if len(pairs) == 0 {
		return commitTree, true, nil
	}
	if len(pairs) == 1 {
		i := pairs[0]
		if res, ok := EasyMerge(treeRefToItem(commitTree), treeRefToItem(oldParents[i]), treeRefToItem(newParents[i])); ok {
			return resolutionToTreeRef(res), true, nil
		}
	}
	return model.TreeRef{}, false, nil
}

// resolveEntry decides what happens to a single name emitted by the tree
// iterator: no change, an Easy Merge, a subtree recursion, a blob merge,
// or a kind clash that becomes a conflict. placed reports whether item
// (which may legitimately be nil, meaning "absent") should be written
// into the caller's builder.
func resolveEntry(store model.ObjectStore, meta BaseLookup, entry IterEntry, conflicts *[]model.Conflict, pathStack []string) (placed bool, item *model.Item, err error) {
	pairs := differingItemIndices(entry.Old, entry.New)
	if len(pairs) == 0 {
		return true, entry.Commit, nil
	}
	if len(pairs) == 1 {
		i := pairs[0]
		if res, ok := EasyMerge(entry.Commit, entry.Old[i], entry.New[i]); ok {
			return true, res.Item(), nil
		}
	}

	switch {
	case kindsCompatible(entry.Commit, entry.Old, entry.New, true):
		childOld := make([]model.TreeRef, len(entry.Old))
		for i, it := range entry.Old {
			childOld[i] = itemToTreeRef(it)
		}
		childNew := make([]model.TreeRef, len(entry.New))
		for i, it := range entry.New {
			childNew[i] = itemToTreeRef(it)
		}
		childPath := appendPath(pathStack, entry.Name)
		result, err := MergeTrees(store, meta, itemToTreeRef(entry.Commit), childOld, childNew, conflicts, childPath)
		if err != nil {
			return false, nil, err
		}
		if !result.Present {
			return true, nil, nil
		}
		return true, &model.Item{ID: result.ID, Name: entry.Name, Mode: filemode.Dir}, nil

	case kindsCompatible(entry.Commit, entry.Old, entry.New, false):
		fullPath := appendPath(pathStack, entry.Name)
		res, err := MergeCommitBlob(store, meta, fullPath, entry.Commit, entry.Old, entry.New)
		if err != nil {
			return false, nil, err
		}
		if res.IsConflict() {
			recordConflict(conflicts, fullPath, entry)
			return false, nil, nil
		}
		return true, res.Item(), nil

	default:
		fullPath := appendPath(pathStack, entry.Name)
		recordConflict(conflicts, fullPath, entry)
		return false, nil, nil
	}
}

func recordConflict(conflicts *[]model.Conflict, path []string, entry IterEntry) {
	*conflicts = append(*conflicts, model.Conflict{
		Path:           strings.Join(path, "/"),
		Original:       entry.Commit,
		OldParentItems: entry.Old,
		NewParentItems: entry.New,
	})
}

func appendPath(pathStack []string, name string) []string {
	out := make([]string, len(pathStack)+1)
	copy(out, pathStack)
	out[len(pathStack)] = name
	return out
}

// kindsCompatible reports whether every present item at this name agrees
// on being a subtree (wantTree) or a blob. Absent items are compatible
// with either kind.
func kindsCompatible(commit *model.Item, old, new []*model.Item, wantTree bool) bool {
	check := func(it *model.Item) bool {
		return it == nil || it.IsTree() == wantTree
	}
	if !check(commit) {
		return false
	}
	for _, it := range old {
		if !check(it) {
			return false
		}
	}
	for _, it := range new {
		if !check(it) {
			return false
		}
	}
	return true
}

func differingItemIndices(old, new []*model.Item) []int {
	var out []int
	for i := range old {
		if !Matches(old[i], new[i]) {
			out = append(out, i)
		}
	}
	return out
}

func differingTreeIndices(old, new []model.TreeRef) []int {
	var out []int
	for i := range old {
		if !treeRefEqual(old[i], new[i]) {
			out = append(out, i)
		}
	}
	return out
}

func treeRefEqual(a, b model.TreeRef) bool {
	if a.Present != b.Present {
		return false
	}
	return !a.Present || a.ID == b.ID
}

func treeRefToItem(t model.TreeRef) *model.Item {
	if !t.Present {
		return nil
	}
	return &model.Item{ID: t.ID, Mode: filemode.Dir}
}

func itemToTreeRef(it *model.Item) model.TreeRef {
	if it == nil {
		return model.AbsentTree
	}
	return model.TreeRef{ID: it.ID, Present: true}
}

func resolutionToTreeRef(res Resolution) model.TreeRef {
	return itemToTreeRef(res.Item())
}
