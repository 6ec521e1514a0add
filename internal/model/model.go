// Copyright 2025 Aviator Technologies, Inc.
// SPDX-License-Identifier: MIT

// Package model holds the value types and the ObjectStore boundary shared
// between the tree-merge primitives (internal/merge) and the rebase driver
// (the root package). Keeping them here lets both sides depend on the same
// definitions without an import cycle.
package model

import (
	"github.com/go-git/go-git/v5/plumbing"
	"github.com/go-git/go-git/v5/plumbing/filemode"
	"github.com/go-git/go-git/v5/plumbing/object"
)

// CommitID, TreeID and BlobID are all git object hashes. They're kept as
// distinct names rather than distinct types because the object store
// itself is the only thing that knows which kind of object a given hash
// names; the engine just carries them around.
type (
	CommitID = plumbing.Hash
	TreeID   = plumbing.Hash
	BlobID   = plumbing.Hash
)

// EmptyTreeID is git's well-known hash for a tree with zero entries.
var EmptyTreeID = plumbing.NewHash("4b825dc642cb6eb9a060e54bf8d69288fbee4904")

// Item is a single named directory entry: a blob or a subtree, exactly as
// it appears inside a Tree. A nil *Item denotes absence at a path -
// absence is modelled explicitly everywhere in this package rather than
// with a zero-value sentinel.
type Item struct {
	ID   BlobID
	Name string
	Mode filemode.FileMode
}

// IsTree reports whether the item is a subtree entry. Absent items (nil
// receiver) are not trees.
func (it *Item) IsTree() bool {
	return it != nil && it.Mode == filemode.Dir
}

// TreeRef names a tree that may or may not exist at a given position -
// for example, a parent that doesn't have a given subdirectory at all.
type TreeRef struct {
	ID      TreeID
	Present bool
}

// AbsentTree is the zero value of TreeRef, spelled out for readability at
// call sites.
var AbsentTree = TreeRef{}

// PresentTree wraps an existing tree id.
func PresentTree(id TreeID) TreeRef {
	return TreeRef{ID: id, Present: true}
}

// Commit is the engine's view of a commit: enough to remap parents and
// recreate an equivalent commit elsewhere.
type Commit struct {
	ID        CommitID
	Tree      TreeID
	Parents   []CommitID
	Author    object.Signature
	Committer object.Signature
	Message   string
}

// Conflict is a single unresolved path produced by the tree merger. Once
// appended to a caller-supplied sink it is never mutated.
type Conflict struct {
	Path           string
	Original       *Item
	OldParentItems []*Item
	NewParentItems []*Item
}

// TreeBuilder accumulates entries for a single new tree. It is scratch
// state scoped to one tree-merge invocation.
type TreeBuilder interface {
	Insert(name string, id BlobID, mode filemode.FileMode) error
	Write() (TreeID, error)
}

// ObjectStore is the external, source-addressed object store the engine
// replays commits against. Its CRUD, its own three-way text merge, and
// its lowest-common-ancestor computation are all owned by the host, not
// by this module - the engine only ever calls through this interface.
type ObjectStore interface {
	// Resolve turns a revision expression into a commit id.
	Resolve(revspec string) (CommitID, error)

	// Commit fetches commit metadata.
	Commit(id CommitID) (*Commit, error)

	// MergeBase returns the (a, deterministic-if-ambiguous) lowest common
	// ancestor of a and b, or ok=false if they share no ancestor.
	MergeBase(a, b CommitID) (base CommitID, ok bool, err error)

	// MergeBaseMany is the N-way generalisation used for merge commits.
	MergeBaseMany(ids []CommitID) (base CommitID, ok bool, err error)

	// Walk returns the commits reachable from tip but not from base, in
	// topological order, oldest first. base itself is excluded; tip is
	// included.
	Walk(tip, base CommitID) ([]CommitID, error)

	// TreeEntries lists a tree's immediate children, sorted by name in
	// lexicographic byte order. The zero TreeID is treated as the empty
	// tree and yields no entries.
	TreeEntries(id TreeID) ([]*Item, error)

	// CreateBlob stores content and returns its id.
	CreateBlob(content []byte) (BlobID, error)

	// NewTreeBuilder starts building a new tree.
	NewTreeBuilder() TreeBuilder

	// MergeTrees runs the store's own three-way merge of ours/theirs
	// against ancestor, returning the merged tree id and the paths that
	// could not be reconciled without human input.
	MergeTrees(ancestor, ours, theirs TreeRef) (merged TreeRef, conflictPaths []string, err error)

	// CreateCommit persists a new commit and returns its id.
	CreateCommit(author, committer object.Signature, message string, tree TreeID, parents []CommitID) (CommitID, error)
}

// ItemAtPath descends a tree by name components and returns the item found
// there, or nil if the path doesn't exist. root.Present == false is
// treated as an empty tree.
func ItemAtPath(store ObjectStore, root TreeRef, path []string) (*Item, error) {
	if !root.Present {
		return nil, nil
	}
	current := root.ID
	var found *Item
	for i, name := range path {
		entries, err := store.TreeEntries(current)
		if err != nil {
			return nil, err
		}
		item := lookupByName(entries, name)
		if item == nil {
			return nil, nil
		}
		if i == len(path)-1 {
			found = item
			break
		}
		if !item.IsTree() {
			return nil, nil
		}
		current = item.ID
	}
	return found, nil
}

func lookupByName(entries []*Item, name string) *Item {
	// entries is sorted; a linear scan is fine at the fan-outs real trees
	// have, and keeps this free of a second by-name index per tree.
	for _, e := range entries {
		if e.Name == name {
			return e
		}
	}
	return nil
}
