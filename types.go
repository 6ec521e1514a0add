// Copyright 2025 Aviator Technologies, Inc.
// SPDX-License-Identifier: MIT

package rebaseengine

import (
	"github.com/go-git/go-git/v5/plumbing/object"
	"github.com/mergekit/rebase-engine/internal/cache"
)

// RebaseAction is reported through ProgressHook as each commit in the
// range is replayed.
type RebaseAction string

const (
	// ActionRebased means a new commit was created for this one.
	ActionRebased RebaseAction = "REBASED"
	// ActionReused means none of this commit's parents moved, so the
	// original commit was kept as-is (§4.8's reuse shortcut).
	ActionReused RebaseAction = "REUSED"
	// ActionConflicts means this commit could not be replayed cleanly
	// and the rebase has stopped.
	ActionConflicts RebaseAction = "CONFLICTS"
)

// ProgressHook is called once per commit in the replay range, in replay
// order.
type ProgressHook func(action RebaseAction, index, total int, commit CommitID)

// RebaseOptions configures a single Rebase call (C9).
type RebaseOptions struct {
	// Source is the tip of the branch being rebased.
	Source CommitID
	// Upstream is the branch Source is rebased against; its merge base
	// with Source delimits the replay range.
	Upstream CommitID
	// Onto overrides the new parent of the range's root commit. It is
	// used only when HasOnto is true; otherwise Upstream is used (the
	// common case).
	Onto CommitID
	HasOnto bool

	// ForceRebase replays every commit in range even when none of its
	// parents moved, instead of taking the reuse shortcut.
	ForceRebase bool

	// Committer is stamped on every newly created commit. The engine
	// never sources this itself; callers read it from their own
	// configuration (see package config for the CLI's own answer).
	Committer object.Signature

	ProgressHook ProgressHook

	// MergeBaseCacheSize bounds the in-process LRU backing Commit
	// Metadata's merge-base memoisation (§4.7). Zero uses a sensible
	// default.
	MergeBaseCacheSize int
}

func (o RebaseOptions) onto() CommitID {
	if o.HasOnto {
		return o.Onto
	}
	return o.Upstream
}

// RebaseResult is the outcome of a Rebase call: either Commit is set
// (success), or FailureReason explains why the rebase stopped.
// CommitsMap is populated on success and on a conflict stop (it is nil
// when there is no merge base) - on success it maps every replayed
// commit to its new equivalent; on a conflict stop it stops at the
// offending commit, letting a caller resume from where it failed.
type RebaseResult struct {
	Commit *Commit

	// FailureReason is empty on success.
	FailureReason string
	// OffendingCommit is the original commit that could not be
	// replayed, set only when FailureReason is "there were conflicts".
	OffendingCommit CommitID

	CommitsMap map[CommitID]CommitID
}

func newMergeBaseCache(size int) (*cache.MergeBaseCache, error) {
	return cache.New(size, nil)
}
