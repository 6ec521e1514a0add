// Copyright 2025 Aviator Technologies, Inc.
// SPDX-License-Identifier: MIT

package gitstore

import (
	"errors"
	"fmt"
	"path"

	"github.com/go-git/go-git/v5/plumbing/filemode"
	"github.com/go-git/go-git/v5/plumbing/object"
	"github.com/go-git/go-git/v5/plumbing/storer"
	"github.com/mergekit/rebase-engine/internal/model"
	"github.com/mergekit/rebase-engine/internal/resolvediff3"
)

// MergeTrees is the store's own three-way tree merge (§6), the primitive
// the engine's C3 leans on for the leaf-level text merge underneath a
// synthetic single-entry tree. It is adapted from an earlier
// two-way-plus-base tree merger: same short-circuits and same
// no-change/take-1/take-2/same-change/conflict classification per path,
// but with a hardwired diff3 leaf resolution instead of a pluggable
// resolver callback, since this store never needs anything else.
func (s *Store) MergeTrees(ancestor, ours, theirs model.TreeRef) (model.TreeRef, []string, error) {
	if treeRefEqual(ours, theirs) {
		return ours, nil, nil
	}
	if treeRefEqual(ours, ancestor) {
		return theirs, nil, nil
	}
	if treeRefEqual(theirs, ancestor) {
		return ours, nil, nil
	}

	tm := &treeThreeWayMerger{storage: s.storage}
	result, err := tm.merge("", ancestor, ours, theirs)
	if err != nil {
		return model.TreeRef{}, nil, err
	}
	return result, tm.conflicts, nil
}

type treeThreeWayMerger struct {
	storage   storer.EncodedObjectStorer
	conflicts []string
}

func treeRefEqual(a, b model.TreeRef) bool {
	if a.Present != b.Present {
		return false
	}
	return !a.Present || a.ID == b.ID
}

func (tm *treeThreeWayMerger) merge(pth string, ancestor, ours, theirs model.TreeRef) (model.TreeRef, error) {
	ancestorEntries, err := tm.entries(ancestor)
	if err != nil {
		return model.TreeRef{}, err
	}
	oursEntries, err := tm.entries(ours)
	if err != nil {
		return model.TreeRef{}, err
	}
	theirsEntries, err := tm.entries(theirs)
	if err != nil {
		return model.TreeRef{}, err
	}

	names := map[string]bool{}
	for _, e := range ancestorEntries {
		names[e.Name] = true
	}
	for _, e := range oursEntries {
		names[e.Name] = true
	}
	for _, e := range theirsEntries {
		names[e.Name] = true
	}

	var result []object.TreeEntry
	for name := range names {
		base := byName(ancestorEntries, name)
		our := byName(oursEntries, name)
		their := byName(theirsEntries, name)

		switch classify(base, our, their) {
		case changeNone:
			if base != nil {
				result = append(result, *base)
			}
		case changeOurs:
			if our != nil {
				result = append(result, *our)
			}
		case changeTheirs:
			if their != nil {
				result = append(result, *their)
			}
		case changeSame:
			if our != nil {
				result = append(result, *our)
			}
		case changeConflict:
			if our != nil && our.Mode == filemode.Dir && their != nil && their.Mode == filemode.Dir {
				var baseTree model.TreeRef
				if base != nil && base.Mode == filemode.Dir {
					baseTree = model.PresentTree(base.Hash)
				}
				sub, err := tm.merge(path.Join(pth, name), baseTree, model.PresentTree(our.Hash), model.PresentTree(their.Hash))
				if err != nil {
					return model.TreeRef{}, err
				}
				if sub.Present {
					result = append(result, object.TreeEntry{Name: name, Mode: filemode.Dir, Hash: sub.ID})
				}
				continue
			}
			if our != nil && our.Mode.IsFile() && their != nil && their.Mode.IsFile() && base != nil && base.Mode.IsFile() {
				merged, hasConflict, err := resolvediff3.Merge(tm.storage, base.Hash, our.Hash, their.Hash, "ours", "theirs")
				if err != nil && !errors.Is(err, resolvediff3.ErrBinaryContent) {
					return model.TreeRef{}, fmt.Errorf("gitstore: three-way merge %q: %w", path.Join(pth, name), err)
				}
				if hasConflict {
					tm.conflicts = append(tm.conflicts, path.Join(pth, name))
					continue
				}
				result = append(result, object.TreeEntry{Name: name, Mode: our.Mode, Hash: merged})
				continue
			}
			tm.conflicts = append(tm.conflicts, path.Join(pth, name))
		}
	}

	if len(result) == 0 {
		return model.AbsentTree, nil
	}
	sortTreeEntries(result)
	tree := object.Tree{Entries: result}
	obj := tm.storage.NewEncodedObject()
	if err := tree.Encode(obj); err != nil {
		return model.TreeRef{}, fmt.Errorf("gitstore: encode merged tree: %w", err)
	}
	id, err := tm.storage.SetEncodedObject(obj)
	if err != nil {
		return model.TreeRef{}, fmt.Errorf("gitstore: save merged tree: %w", err)
	}
	return model.PresentTree(id), nil
}

func (tm *treeThreeWayMerger) entries(ref model.TreeRef) ([]object.TreeEntry, error) {
	if !ref.Present {
		return nil, nil
	}
	tree, err := object.GetTree(tm.storage, ref.ID)
	if err != nil {
		return nil, fmt.Errorf("gitstore: get tree %s: %w", ref.ID, err)
	}
	return tree.Entries, nil
}

func byName(entries []object.TreeEntry, name string) *object.TreeEntry {
	for i := range entries {
		if entries[i].Name == name {
			return &entries[i]
		}
	}
	return nil
}

type changeKind int

const (
	changeNone changeKind = iota
	changeOurs
	changeTheirs
	changeSame
	changeConflict
)

func classify(base, ours, theirs *object.TreeEntry) changeKind {
	changedOurs := entryChanged(base, ours)
	changedTheirs := entryChanged(base, theirs)
	switch {
	case !changedOurs && !changedTheirs:
		return changeNone
	case changedOurs && !changedTheirs:
		return changeOurs
	case !changedOurs && changedTheirs:
		return changeTheirs
	case !entryChanged(ours, theirs):
		return changeSame
	default:
		return changeConflict
	}
}

func entryChanged(a, b *object.TreeEntry) bool {
	if (a == nil) != (b == nil) {
		return true
	}
	if a == nil {
		return false
	}
	return a.Mode != b.Mode || a.Hash != b.Hash
}
