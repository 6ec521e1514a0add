// Copyright 2025 Aviator Technologies, Inc.
// SPDX-License-Identifier: MIT

// Package gitstore is the concrete ObjectStore adapter (§6) backed by
// go-git/v5, the object-model library this codebase builds everything
// on. It is the only package in this module that touches
// storer.EncodedObjectStorer directly - the engine itself only ever sees
// the model.ObjectStore interface.
package gitstore

import (
	"fmt"

	"github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/plumbing"
	"github.com/go-git/go-git/v5/plumbing/filemode"
	"github.com/go-git/go-git/v5/plumbing/object"
	"github.com/go-git/go-git/v5/plumbing/storer"
	"github.com/mergekit/rebase-engine/internal/mergebase"
	"github.com/mergekit/rebase-engine/internal/model"
)

// Store adapts a go-git repository to model.ObjectStore.
type Store struct {
	repo    *git.Repository
	storage storer.EncodedObjectStorer
}

// New wraps an already-opened go-git repository.
func New(repo *git.Repository) *Store {
	return &Store{repo: repo, storage: repo.Storer}
}

// commitGetter adapts Store to mergebase.CommitLister without exposing
// go-git's object package outside this file.
type commitGetter struct{ storage storer.EncodedObjectStorer }

func (g commitGetter) Commit(h plumbing.Hash) (*object.Commit, error) {
	return object.GetCommit(g.storage, h)
}

func (s *Store) lister() commitGetter {
	return commitGetter{s.storage}
}

func (s *Store) Resolve(revspec string) (model.CommitID, error) {
	h, err := s.repo.ResolveRevision(plumbing.Revision(revspec))
	if err != nil {
		return plumbing.ZeroHash, fmt.Errorf("gitstore: resolve %q: %w", revspec, err)
	}
	return *h, nil
}

func (s *Store) Commit(id model.CommitID) (*model.Commit, error) {
	c, err := object.GetCommit(s.storage, id)
	if err != nil {
		return nil, fmt.Errorf("gitstore: get commit %s: %w", id, err)
	}
	return &model.Commit{
		ID:        c.Hash,
		Tree:      c.TreeHash,
		Parents:   append([]plumbing.Hash(nil), c.ParentHashes...),
		Author:    c.Author,
		Committer: c.Committer,
		Message:   c.Message,
	}, nil
}

func (s *Store) MergeBase(a, b model.CommitID) (model.CommitID, bool, error) {
	commitA, err := object.GetCommit(s.storage, a)
	if err != nil {
		return plumbing.ZeroHash, false, fmt.Errorf("gitstore: get commit %s: %w", a, err)
	}
	commitB, err := object.GetCommit(s.storage, b)
	if err != nil {
		return plumbing.ZeroHash, false, fmt.Errorf("gitstore: get commit %s: %w", b, err)
	}
	bases, err := commitA.MergeBase(commitB)
	if err != nil {
		return plumbing.ZeroHash, false, fmt.Errorf("gitstore: merge base %s/%s: %w", a, b, err)
	}
	if len(bases) == 0 {
		return plumbing.ZeroHash, false, nil
	}
	return bases[0].Hash, true, nil
}

func (s *Store) MergeBaseMany(ids []model.CommitID) (model.CommitID, bool, error) {
	base, ok, err := mergebase.FindMany(s.lister(), ids)
	if err != nil {
		return plumbing.ZeroHash, false, fmt.Errorf("gitstore: %w", err)
	}
	return base, ok, nil
}

// Walk returns the commits reachable from tip but not from base, oldest
// first. Mirrors linear_rebase.go's branch-discovery walk, generalized
// beyond the single-parent-chain case with a Kahn topological sort.
func (s *Store) Walk(tip, base model.CommitID) ([]model.CommitID, error) {
	excluded, err := mergebase.ReachableFrom(s.lister(), base)
	if err != nil {
		return nil, fmt.Errorf("gitstore: walk: %w", err)
	}
	included, err := mergebase.ReachableFrom(s.lister(), tip)
	if err != nil {
		return nil, fmt.Errorf("gitstore: walk: %w", err)
	}

	delta := make(map[plumbing.Hash]bool)
	for h := range included {
		if !excluded[h] {
			delta[h] = true
		}
	}
	return topoSortOldestFirst(s.storage, delta)
}

func (s *Store) TreeEntries(id model.TreeID) ([]*model.Item, error) {
	if id == model.EmptyTreeID || id == plumbing.ZeroHash {
		return nil, nil
	}
	tree, err := object.GetTree(s.storage, id)
	if err != nil {
		return nil, fmt.Errorf("gitstore: get tree %s: %w", id, err)
	}
	items := make([]*model.Item, 0, len(tree.Entries))
	for _, e := range tree.Entries {
		items = append(items, &model.Item{ID: e.Hash, Name: e.Name, Mode: e.Mode})
	}
	sortItemsByName(items)
	return items, nil
}

func (s *Store) CreateBlob(content []byte) (model.BlobID, error) {
	obj := s.storage.NewEncodedObject()
	obj.SetType(plumbing.BlobObject)
	obj.SetSize(int64(len(content)))
	w, err := obj.Writer()
	if err != nil {
		return plumbing.ZeroHash, fmt.Errorf("gitstore: open blob writer: %w", err)
	}
	if _, err := w.Write(content); err != nil {
		_ = w.Close()
		return plumbing.ZeroHash, fmt.Errorf("gitstore: write blob: %w", err)
	}
	if err := w.Close(); err != nil {
		return plumbing.ZeroHash, fmt.Errorf("gitstore: close blob writer: %w", err)
	}
	id, err := s.storage.SetEncodedObject(obj)
	if err != nil {
		return plumbing.ZeroHash, fmt.Errorf("gitstore: save blob: %w", err)
	}
	return id, nil
}

func (s *Store) NewTreeBuilder() model.TreeBuilder {
	return &treeBuilder{storage: s.storage}
}

func (s *Store) CreateCommit(author, committer object.Signature, message string, tree model.TreeID, parents []model.CommitID) (model.CommitID, error) {
	c := &object.Commit{
		Author:       author,
		Committer:    committer,
		Message:      message,
		TreeHash:     tree,
		ParentHashes: append([]plumbing.Hash(nil), parents...),
	}
	obj := s.storage.NewEncodedObject()
	if err := c.Encode(obj); err != nil {
		return plumbing.ZeroHash, fmt.Errorf("gitstore: encode commit: %w", err)
	}
	id, err := s.storage.SetEncodedObject(obj)
	if err != nil {
		return plumbing.ZeroHash, fmt.Errorf("gitstore: save commit: %w", err)
	}
	return id, nil
}

type treeBuilder struct {
	storage storer.EncodedObjectStorer
	entries []object.TreeEntry
}

func (b *treeBuilder) Insert(name string, id model.BlobID, mode filemode.FileMode) error {
	b.entries = append(b.entries, object.TreeEntry{Name: name, Mode: mode, Hash: id})
	return nil
}

func (b *treeBuilder) Write() (model.TreeID, error) {
	sortTreeEntries(b.entries)
	tree := object.Tree{Entries: b.entries}
	obj := b.storage.NewEncodedObject()
	if err := tree.Encode(obj); err != nil {
		return plumbing.ZeroHash, fmt.Errorf("gitstore: encode tree: %w", err)
	}
	id, err := b.storage.SetEncodedObject(obj)
	if err != nil {
		return plumbing.ZeroHash, fmt.Errorf("gitstore: save tree: %w", err)
	}
	return id, nil
}
