// Copyright 2025 Aviator Technologies, Inc.
// SPDX-License-Identifier: MIT

package rebaseengine

import (
	"fmt"

	"github.com/mergekit/rebase-engine/internal/merge"
	"github.com/mergekit/rebase-engine/internal/model"
)

// Rebase is the rebase driver (C8) and the module's one public entry
// point (C9). It replays the commits reachable from opts.Source but not
// from merge_base(Source, Upstream) onto opts.onto(), reconstructing
// merge commits instead of flattening them, and reports every
// irreconcilable path it finds via conflicts.
//
// A failed merge base or an unresolved conflict is reported in the
// returned RebaseResult, not as an error; err is reserved for the object
// store itself misbehaving (§7's StoreError passthrough).
func Rebase(store ObjectStore, opts RebaseOptions, conflicts *[]Conflict) (RebaseResult, error) {
	mergeBase, ok, err := store.MergeBase(opts.Source, opts.Upstream)
	if err != nil {
		return RebaseResult{}, fmt.Errorf("rebaseengine: merge base of source/upstream: %w", err)
	}
	if !ok {
		return RebaseResult{FailureReason: "no merge base between source and upstream"}, nil
	}

	commitIDs, err := store.Walk(opts.Source, mergeBase)
	if err != nil {
		return RebaseResult{}, fmt.Errorf("rebaseengine: walk source range: %w", err)
	}

	mbCache, err := newMergeBaseCache(opts.MergeBaseCacheSize)
	if err != nil {
		return RebaseResult{}, fmt.Errorf("rebaseengine: build merge-base cache: %w", err)
	}

	commitsMap := map[CommitID]CommitID{mergeBase: opts.onto()}
	total := len(commitIDs)

	for i, id := range commitIDs {
		commit, err := store.Commit(id)
		if err != nil {
			return RebaseResult{}, fmt.Errorf("rebaseengine: get commit %s: %w", id, err)
		}

		newParents := make([]CommitID, len(commit.Parents))
		allSame := true
		for pi, p := range commit.Parents {
			np, known := commitsMap[p]
			if !known {
				// A parent outside the replay range (e.g. the other
				// side of a merge commit that isn't itself being
				// rebased) keeps its own identity.
				np = p
			}
			newParents[pi] = np
			if np != p {
				allSame = false
			}
		}

		if allSame && !opts.ForceRebase {
			commitsMap[id] = id
			reportProgress(opts.ProgressHook, ActionReused, i, total, id)
			continue
		}

		meta := newCommitMetadata(store, mbCache, commit, newParents)

		oldParentTrees, err := treesOfCommits(store, commit.Parents)
		if err != nil {
			return RebaseResult{}, err
		}
		newParentTrees, err := treesOfCommits(store, newParents)
		if err != nil {
			return RebaseResult{}, err
		}

		before := len(*conflicts)
		newTree, err := merge.MergeTrees(store, meta, model.PresentTree(commit.Tree), oldParentTrees, newParentTrees, conflicts, nil)
		if err != nil {
			return RebaseResult{}, fmt.Errorf("rebaseengine: merge tree for commit %s: %w", id, err)
		}
		if len(*conflicts) > before {
			reportProgress(opts.ProgressHook, ActionConflicts, i, total, id)
			return RebaseResult{
				FailureReason:   "there were conflicts",
				OffendingCommit: id,
				CommitsMap:      commitsMap,
			}, nil
		}

		treeID := EmptyTreeID
		if newTree.Present {
			treeID = newTree.ID
		}
		newCommitID, err := store.CreateCommit(commit.Author, opts.Committer, commit.Message, treeID, newParents)
		if err != nil {
			return RebaseResult{}, fmt.Errorf("rebaseengine: create commit for %s: %w", id, err)
		}
		commitsMap[id] = newCommitID
		reportProgress(opts.ProgressHook, ActionRebased, i, total, id)
	}

	finalID, ok := commitsMap[opts.Source]
	if !ok {
		// opts.Source was itself the merge base (an empty range); it
		// maps directly onto the new base.
		finalID = opts.onto()
	}
	final, err := store.Commit(finalID)
	if err != nil {
		return RebaseResult{}, fmt.Errorf("rebaseengine: get rebased tip %s: %w", finalID, err)
	}
	return RebaseResult{Commit: final, CommitsMap: commitsMap}, nil
}

func treesOfCommits(store ObjectStore, ids []CommitID) ([]model.TreeRef, error) {
	trees := make([]model.TreeRef, len(ids))
	for i, id := range ids {
		c, err := store.Commit(id)
		if err != nil {
			return nil, fmt.Errorf("rebaseengine: get commit %s: %w", id, err)
		}
		trees[i] = model.PresentTree(c.Tree)
	}
	return trees, nil
}

func reportProgress(hook ProgressHook, action RebaseAction, index, total int, commit CommitID) {
	if hook != nil {
		hook(action, index, total, commit)
	}
}
