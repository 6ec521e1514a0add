// Copyright 2025 Aviator Technologies, Inc.
// SPDX-License-Identifier: MIT

package rebaseengine

import (
	"io"
	"strings"
	"testing"
	"time"

	"github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/plumbing/filemode"
	"github.com/go-git/go-git/v5/plumbing/object"
	"github.com/go-git/go-git/v5/storage/memory"
	"github.com/stretchr/testify/require"

	"github.com/mergekit/rebase-engine/internal/gitstore"
)

var testSig = object.Signature{Name: "Test", Email: "test@example.com", When: time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)}

// testRepo wraps a gitstore.Store with helpers for building small commit
// graphs directly, without a working tree or the git CLI.
type testRepo struct {
	t     *testing.T
	repo  *git.Repository
	store *gitstore.Store
}

func newTestRepo(t *testing.T) *testRepo {
	t.Helper()
	repo, err := git.Init(memory.NewStorage(), nil)
	require.NoError(t, err)
	return &testRepo{t: t, repo: repo, store: gitstore.New(repo)}
}

// fileEntry is one leaf of a tree built by buildTree/commitTree: content
// plus the mode it should be recorded under.
type fileEntry struct {
	content string
	mode    filemode.FileMode
}

func regular(content string) fileEntry    { return fileEntry{content: content, mode: filemode.Regular} }
func executable(content string) fileEntry { return fileEntry{content: content, mode: filemode.Executable} }

// buildTree writes a tree from a flat map keyed by slash-separated path
// (e.g. "a-dir/A.txt"), creating intermediate subtrees as needed.
func (r *testRepo) buildTree(files map[string]fileEntry) TreeID {
	r.t.Helper()
	builder := r.store.NewTreeBuilder()
	subtrees := map[string]map[string]fileEntry{}
	for path, entry := range files {
		head, rest, nested := strings.Cut(path, "/")
		if !nested {
			blobID, err := r.store.CreateBlob([]byte(entry.content))
			require.NoError(r.t, err)
			require.NoError(r.t, builder.Insert(head, blobID, entry.mode))
			continue
		}
		if subtrees[head] == nil {
			subtrees[head] = map[string]fileEntry{}
		}
		subtrees[head][rest] = entry
	}
	for name, sub := range subtrees {
		subID := r.buildTree(sub)
		require.NoError(r.t, builder.Insert(name, subID, filemode.Dir))
	}
	treeID, err := builder.Write()
	require.NoError(r.t, err)
	return treeID
}

// commitTree is buildTree plus CreateCommit, for scenarios that need
// explicit file modes or nested directories that commitFiles can't express.
func (r *testRepo) commitTree(files map[string]fileEntry, parents ...CommitID) CommitID {
	r.t.Helper()
	treeID := r.buildTree(files)
	id, err := r.store.CreateCommit(testSig, testSig, "msg", treeID, parents)
	require.NoError(r.t, err)
	return id
}

// itemAt descends tree by slash-separated path and returns the entry found
// there, or nil if the path doesn't exist.
func (r *testRepo) itemAt(tree TreeID, path string) *Item {
	r.t.Helper()
	current := tree
	var found *Item
	parts := strings.Split(path, "/")
	for i, name := range parts {
		entries, err := r.store.TreeEntries(current)
		require.NoError(r.t, err)
		found = nil
		for _, e := range entries {
			if e.Name == name {
				found = e
				break
			}
		}
		if found == nil {
			return nil
		}
		if i < len(parts)-1 {
			require.True(r.t, found.IsTree(), "expected %q to be a directory", name)
			current = found.ID
		}
	}
	return found
}

// readFile returns the decoded content of the blob at path in tree.
func (r *testRepo) readFile(tree TreeID, path string) string {
	r.t.Helper()
	item := r.itemAt(tree, path)
	require.NotNil(r.t, item, "expected %q to exist", path)
	blob, err := object.GetBlob(r.repo.Storer, item.ID)
	require.NoError(r.t, err)
	rd, err := blob.Reader()
	require.NoError(r.t, err)
	defer rd.Close()
	content, err := io.ReadAll(rd)
	require.NoError(r.t, err)
	return string(content)
}

// commit creates a commit with a single-file tree {name: content} and the
// given parents.
func (r *testRepo) commit(name, content string, parents ...CommitID) CommitID {
	r.t.Helper()
	blobID, err := r.store.CreateBlob([]byte(content))
	require.NoError(r.t, err)
	builder := r.store.NewTreeBuilder()
	require.NoError(r.t, builder.Insert(name, blobID, filemode.Regular))
	treeID, err := builder.Write()
	require.NoError(r.t, err)
	id, err := r.store.CreateCommit(testSig, testSig, "msg", treeID, parents)
	require.NoError(r.t, err)
	return id
}

// commitFiles creates a commit whose tree holds every entry in files, on
// top of the given parents.
func (r *testRepo) commitFiles(files map[string]string, parents ...CommitID) CommitID {
	r.t.Helper()
	builder := r.store.NewTreeBuilder()
	for name, content := range files {
		blobID, err := r.store.CreateBlob([]byte(content))
		require.NoError(r.t, err)
		require.NoError(r.t, builder.Insert(name, blobID, filemode.Regular))
	}
	treeID, err := builder.Write()
	require.NoError(r.t, err)
	id, err := r.store.CreateCommit(testSig, testSig, "msg", treeID, parents)
	require.NoError(r.t, err)
	return id
}

func TestRebase_LinearHistoryReplaysOntoNewBase(t *testing.T) {
	r := newTestRepo(t)
	base := r.commitFiles(map[string]string{"base.txt": "base"})
	feature := r.commitFiles(map[string]string{"base.txt": "base", "feature.txt": "feature"}, base)
	mainTip := r.commitFiles(map[string]string{"base.txt": "base", "main.txt": "main"}, base)

	var conflicts []Conflict
	result, err := Rebase(r.store, RebaseOptions{
		Source:    feature,
		Upstream:  base,
		Onto:      mainTip,
		HasOnto:   true,
		Committer: testSig,
	}, &conflicts)
	require.NoError(t, err)
	require.Empty(t, conflicts)
	require.Empty(t, result.FailureReason)
	require.NotNil(t, result.Commit)
	require.Equal(t, []CommitID{mainTip}, result.Commit.Parents)

	entries, err := r.store.TreeEntries(result.Commit.Tree)
	require.NoError(t, err)
	names := make([]string, len(entries))
	for i, e := range entries {
		names[i] = e.Name
	}
	require.ElementsMatch(t, []string{"base.txt", "feature.txt", "main.txt"}, names)
}

func TestRebase_ReuseShortcutKeepsOriginalCommit(t *testing.T) {
	r := newTestRepo(t)
	base := r.commitFiles(map[string]string{"base.txt": "base"})
	feature := r.commitFiles(map[string]string{"base.txt": "base", "feature.txt": "feature"}, base)

	var conflicts []Conflict
	result, err := Rebase(r.store, RebaseOptions{
		Source:    feature,
		Upstream:  base,
		Committer: testSig,
	}, &conflicts)
	require.NoError(t, err)
	require.Empty(t, conflicts)
	require.Equal(t, feature, result.Commit.ID, "upstream never moved, so the original commit must be reused verbatim")
}

func TestRebase_ForceRebaseReplaysEvenWhenNothingMoved(t *testing.T) {
	r := newTestRepo(t)
	base := r.commitFiles(map[string]string{"base.txt": "base"})
	feature := r.commitFiles(map[string]string{"base.txt": "base", "feature.txt": "feature"}, base)

	// A distinct committer identity so the recreated commit is guaranteed
	// to hash differently from the untouched original, even though every
	// other field (tree, parents, message) stays the same.
	forcedCommitter := object.Signature{Name: "Forced", Email: "forced@example.com", When: testSig.When.Add(time.Hour)}

	var conflicts []Conflict
	result, err := Rebase(r.store, RebaseOptions{
		Source:      feature,
		Upstream:    base,
		Committer:   forcedCommitter,
		ForceRebase: true,
	}, &conflicts)
	require.NoError(t, err)
	require.Empty(t, conflicts)
	require.NotEqual(t, feature, result.Commit.ID, "ForceRebase must recreate the commit even when its parent didn't move")
}

func TestRebase_PreservesMergeCommitParentCount(t *testing.T) {
	r := newTestRepo(t)
	base := r.commitFiles(map[string]string{"base.txt": "base"})
	branchA := r.commitFiles(map[string]string{"base.txt": "base", "a.txt": "a"}, base)
	branchB := r.commitFiles(map[string]string{"base.txt": "base", "b.txt": "b"}, base)
	merge := r.commitFiles(map[string]string{"base.txt": "base", "a.txt": "a", "b.txt": "b"}, branchA, branchB)
	mainTip := r.commitFiles(map[string]string{"base.txt": "base", "main.txt": "main"}, base)

	var conflicts []Conflict
	result, err := Rebase(r.store, RebaseOptions{
		Source:    merge,
		Upstream:  base,
		Onto:      mainTip,
		HasOnto:   true,
		Committer: testSig,
	}, &conflicts)
	require.NoError(t, err)
	require.Empty(t, conflicts)
	require.NotNil(t, result.Commit)
	require.Len(t, result.Commit.Parents, 2, "the rebased tip must still be a two-parent merge commit")

	entries, err := r.store.TreeEntries(result.Commit.Tree)
	require.NoError(t, err)
	names := make([]string, len(entries))
	for i, e := range entries {
		names[i] = e.Name
	}
	require.ElementsMatch(t, []string{"base.txt", "a.txt", "b.txt", "main.txt"}, names)
}

func TestRebase_ConflictStopsAndReportsOffendingCommit(t *testing.T) {
	r := newTestRepo(t)
	base := r.commit("shared.txt", "base contents\n")
	feature := r.commit("shared.txt", "feature changed this line\n", base)
	mainTip := r.commit("shared.txt", "main changed this line differently\n", base)

	var conflicts []Conflict
	result, err := Rebase(r.store, RebaseOptions{
		Source:    feature,
		Upstream:  base,
		Onto:      mainTip,
		HasOnto:   true,
		Committer: testSig,
	}, &conflicts)
	require.NoError(t, err)
	require.Equal(t, "there were conflicts", result.FailureReason)
	require.Equal(t, feature, result.OffendingCommit)
	require.Len(t, conflicts, 1)
	require.Equal(t, "shared.txt", conflicts[0].Path)
}

func TestRebase_NoMergeBaseIsAFailureNotAnError(t *testing.T) {
	r := newTestRepo(t)
	unrelatedA := r.commitFiles(map[string]string{"a.txt": "a"})
	unrelatedB := r.commitFiles(map[string]string{"b.txt": "b"})

	var conflicts []Conflict
	result, err := Rebase(r.store, RebaseOptions{
		Source:    unrelatedA,
		Upstream:  unrelatedB,
		Committer: testSig,
	}, &conflicts)
	require.NoError(t, err)
	require.Equal(t, "no merge base between source and upstream", result.FailureReason)
}

// --- End-to-end scenarios lifted from the original rebase-- reference
// implementation's own pytest suite (test_simple_rebase.py,
// test_simple_merge_commit.py, test_conflicting_blob_merge_commit.py,
// test_conflicting_blob_merge_commit_change_upstream.py,
// test_deleted_blob.py, test_empty_root_dir.py), plus the invariants
// listed alongside them.

func TestRebase_SimpleLinearRebase(t *testing.T) {
	r := newTestRepo(t)
	base := r.commit("hello_world.txt", "Hello world\n\nThis is the initial commit of the file\n\nWrapping up the file\n")
	mainTip := r.commit("hello_world.txt", "Hello world\n\nWe are modifying the middle of the file\n\nWrapping up the file\n", base)
	other := r.commit("hello_world.txt", "Hello world\n\nThis is the initial commit of the file\n\nWe are modifying the end of the file\n", base)

	var conflicts []Conflict
	result, err := Rebase(r.store, RebaseOptions{
		Source:    other,
		Upstream:  base,
		Onto:      mainTip,
		HasOnto:   true,
		Committer: testSig,
	}, &conflicts)
	require.NoError(t, err)
	require.Empty(t, conflicts)
	require.Empty(t, result.FailureReason)
	require.Equal(t,
		"Hello world\n\nWe are modifying the middle of the file\n\nWe are modifying the end of the file\n",
		r.readFile(result.Commit.Tree, "hello_world.txt"))
}

// TestRebase_MergeCommitFileModeCrossover mirrors test_simple_merge_commit.py:
// rather than replaying B's single commit onto main's tip (which couldn't
// produce a two-parent result without violating topology preservation),
// the fixture's own assertions (result has two parents, neither equal to
// main's original parents or to A) show it is main's *merge* commit being
// rebased onto B - carrying the merge's cross-edits through a rebased
// base via C4/C6.
func TestRebase_MergeCommitFileModeCrossover(t *testing.T) {
	r := newTestRepo(t)

	initial := r.commitTree(map[string]fileEntry{
		"executable":                 executable("This is an executable file\n\nThis is the initial commit of the file\n\nWrapping up the file\n"),
		"non-executable":             regular("This is a non-executable file\n\nThis is the initial commit of the file\n\nWrapping up the file\n"),
		"final-executable-from-main": regular("This file will be turned into executable from main branch\n"),
		"final-executable-from-A":    regular("This file will be turned into executable from branch A\n"),
	})

	mainStep := r.commitTree(map[string]fileEntry{
		"executable":                 regular("This is an executable file\n\nModifying the middle of the file in main... we will make it non-executable\n\nWrapping up the file\n"),
		"non-executable":             regular("This is a non-executable file\n\nThis is the initial commit of the file\n\nModifying the end of the file in main\n"),
		"final-executable-from-main": executable("This file will be turned into executable from main branch\n"),
		"final-executable-from-A":    regular("This file will be turned into executable from branch A\n"),
	}, initial)

	branchA := r.commitTree(map[string]fileEntry{
		"executable":                 executable("This is an executable file\n\nThis is the initial commit of the file\n\nModifying the end of the file in A\n"),
		"non-executable":             executable("This is a non-executable file\n\nModifying the middle of the file in A... we will make it executable\n\nWrapping up the file\n"),
		"final-executable-from-main": regular("This file will be turned into executable from main branch\n"),
		"final-executable-from-A":    executable("This file will be turned into executable from branch A\n"),
	}, initial)

	mainMerge := r.commitTree(map[string]fileEntry{
		"executable":                 regular("This is an executable file\n\nModifying the middle of the file in main... we will make it non-executable\n\nModifying the end of the file in A\n"),
		"non-executable":             executable("This is a non-executable file\n\nModifying the middle of the file in A... we will make it executable\n\nModifying the end of the file in main\n"),
		"final-executable-from-main": executable("This file will be turned into executable from main branch\n"),
		"final-executable-from-A":    executable("This file will be turned into executable from branch A\n"),
	}, mainStep, branchA)

	branchB := r.commitTree(map[string]fileEntry{
		"executable":                 executable("This is an executable file\n\nThis is the initial commit of the file\n\nWrapping up the file\n"),
		"non-executable":             regular("This is a non-executable file\n\nThis is the initial commit of the file\n\nWrapping up the file\n"),
		"final-executable-from-main": regular("This file will be turned into executable from main branch\n"),
		"final-executable-from-A":    regular("This file will be turned into executable from branch A\n"),
		"separate-file.txt":          regular("This is a separate file"),
	}, initial)

	var conflicts []Conflict
	result, err := Rebase(r.store, RebaseOptions{
		Source:    mainMerge,
		Upstream:  initial,
		Onto:      branchB,
		HasOnto:   true,
		Committer: testSig,
	}, &conflicts)
	require.NoError(t, err)
	require.Empty(t, conflicts)
	require.Empty(t, result.FailureReason)
	require.NotNil(t, result.Commit)
	require.Len(t, result.Commit.Parents, 2, "rebasing a merge commit must preserve its parent count")
	require.NotContains(t, result.Commit.Parents, mainStep)
	require.NotContains(t, result.Commit.Parents, branchA)

	require.Equal(t, "This is a separate file", r.readFile(result.Commit.Tree, "separate-file.txt"))

	exeItem := r.itemAt(result.Commit.Tree, "executable")
	require.NotNil(t, exeItem)
	require.Equal(t, filemode.Regular, exeItem.Mode)
	require.Equal(t,
		"This is an executable file\n\nModifying the middle of the file in main... we will make it non-executable\n\nModifying the end of the file in A\n",
		r.readFile(result.Commit.Tree, "executable"))

	nonExeItem := r.itemAt(result.Commit.Tree, "non-executable")
	require.NotNil(t, nonExeItem)
	require.Equal(t, filemode.Executable, nonExeItem.Mode)
	require.Equal(t,
		"This is a non-executable file\n\nModifying the middle of the file in A... we will make it executable\n\nModifying the end of the file in main\n",
		r.readFile(result.Commit.Tree, "non-executable"))

	require.Equal(t, filemode.Executable, r.itemAt(result.Commit.Tree, "final-executable-from-main").Mode)
	require.Equal(t, filemode.Executable, r.itemAt(result.Commit.Tree, "final-executable-from-A").Mode)
}

func TestRebase_MergeCommitReproducesHandResolvedConflict(t *testing.T) {
	r := newTestRepo(t)

	base := r.commitTree(map[string]fileEntry{
		"shared.txt": regular("line one\n\nmiddle line\n\nline three\n"),
	})

	mainTip := r.commitTree(map[string]fileEntry{
		"shared.txt": regular("line one\n\nmain's version of the middle\n\nline three\n"),
	}, base)

	branchA := r.commitTree(map[string]fileEntry{
		"shared.txt": regular("line one\n\nA's version of the middle\n\nline three\n"),
	}, base)

	handResolved := r.commitTree(map[string]fileEntry{
		"shared.txt": regular("line one\n\nThis is how we solved the conflict\n\nline three\n"),
	}, mainTip, branchA)

	branchB := r.commitTree(map[string]fileEntry{
		"shared.txt":         regular("line one\n\nmiddle line\n\nline three\n"),
		"unrelated-file.txt": regular("unrelated\n"),
	}, base)

	var conflicts []Conflict
	result, err := Rebase(r.store, RebaseOptions{
		Source:    branchB,
		Upstream:  base,
		Onto:      handResolved,
		HasOnto:   true,
		Committer: testSig,
	}, &conflicts)
	require.NoError(t, err)
	require.Empty(t, conflicts, "the hand-resolution on the old side must be reproduced, not re-flagged as a conflict")
	require.Empty(t, result.FailureReason)
	require.Equal(t,
		"line one\n\nThis is how we solved the conflict\n\nline three\n",
		r.readFile(result.Commit.Tree, "shared.txt"))
	require.Equal(t, "unrelated\n", r.readFile(result.Commit.Tree, "unrelated-file.txt"))
}

func TestRebase_MergeBaseMoved_UnionOfEditsPreserved(t *testing.T) {
	r := newTestRepo(t)

	lines := func(ls ...string) string { return strings.Join(ls, "\n") + "\n" }

	initial := r.commitTree(map[string]fileEntry{
		"numbered.txt": regular(lines("1", "2", "3", "4", "5", "6", "7", "8", "9", "10", "11", "12", "13", "14", "15", "16", "17", "18", "19", "20")),
	})

	// main: 7->27, 8 gone, 9->29
	mainStep1 := r.commitTree(map[string]fileEntry{
		"numbered.txt": regular(lines("1", "2", "3", "4", "5", "6", "27", "29", "10", "11", "12", "13", "14", "15", "16", "17", "18", "19", "20")),
	}, initial)

	// main: 17 removed
	mainStep2 := r.commitTree(map[string]fileEntry{
		"numbered.txt": regular(lines("1", "2", "3", "4", "5", "6", "27", "29", "10", "11", "12", "13", "14", "15", "16", "18", "19", "20")),
	}, mainStep1)

	// A: 16 gone, 17 -> 37
	branchA := r.commitTree(map[string]fileEntry{
		"numbered.txt": regular(lines("1", "2", "3", "4", "5", "6", "7", "8", "9", "10", "11", "12", "13", "14", "15", "37", "18", "19", "20")),
	}, initial)

	handResolved := r.commitTree(map[string]fileEntry{
		"numbered.txt": regular(lines("1", "2", "3", "4", "5", "6", "27", "29", "10", "11", "12", "13", "14", "15", "16", "Something different", "18", "19", "20")),
	}, mainStep2, branchA)

	// B: branched from the very first commit, deletes lines 2-3.
	branchB := r.commitTree(map[string]fileEntry{
		"numbered.txt": regular(lines("1", "4", "5", "6", "7", "8", "9", "10", "11", "12", "13", "14", "15", "16", "17", "18", "19", "20")),
	}, initial)

	var conflicts []Conflict
	result, err := Rebase(r.store, RebaseOptions{
		Source:    branchB,
		Upstream:  initial,
		Onto:      handResolved,
		HasOnto:   true,
		Committer: testSig,
	}, &conflicts)
	require.NoError(t, err)
	require.Empty(t, conflicts)
	require.Empty(t, result.FailureReason)
	require.Equal(t,
		lines("1", "4", "5", "6", "27", "29", "10", "11", "12", "13", "14", "15", "16", "Something different", "18", "19", "20"),
		r.readFile(result.Commit.Tree, "numbered.txt"))
}

// TestRebase_DeletedBlobConflictDetection mirrors test_deleted_blob.py:
// a two-parent merge resolves a modify/modify clash by deleting the path
// entirely. Rebasing that merge commit forward onto a later commit on one
// parent's lineage that re-edits the same path must surface a conflict -
// the per-parent fallback that would otherwise carry the deletion forward
// unchanged doesn't apply once that parent's content moved.
func TestRebase_DeletedBlobConflictDetection(t *testing.T) {
	r := newTestRepo(t)

	base := r.commitTree(map[string]fileEntry{
		"shared.txt": regular("original\n"),
		"other.txt":  regular("keep\n"),
	})

	mainEdit := r.commitTree(map[string]fileEntry{
		"shared.txt": regular("main's edit before merge\n"),
		"other.txt":  regular("keep\n"),
	}, base)

	otherBranch := r.commitTree(map[string]fileEntry{
		"shared.txt": regular("other's edit\n"),
		"other.txt":  regular("keep\n"),
	}, base)

	// Modify/modify conflict on shared.txt resolved by hand as a deletion.
	deletionMerge := r.commitTree(map[string]fileEntry{
		"other.txt": regular("keep\n"),
	}, otherBranch, mainEdit)

	// Later on main's lineage, shared.txt is re-edited after the deletion.
	mainReintroduce := r.commitTree(map[string]fileEntry{
		"shared.txt": regular("main re-adds conflicting content\n"),
		"other.txt":  regular("changed after merge\n"),
	}, mainEdit)

	var conflicts []Conflict
	result, err := Rebase(r.store, RebaseOptions{
		Source:    deletionMerge,
		Upstream:  mainEdit,
		Onto:      mainReintroduce,
		HasOnto:   true,
		Committer: testSig,
	}, &conflicts)
	require.NoError(t, err)
	require.Equal(t, "there were conflicts", result.FailureReason)
	require.Len(t, conflicts, 1)
	require.Equal(t, "shared.txt", conflicts[0].Path)
}

func TestRebase_EmptyDirectoryOmittedNotEmptySubtree(t *testing.T) {
	r := newTestRepo(t)

	base := r.commitTree(map[string]fileEntry{
		"a-dir/one.txt": regular("one\n"),
		"a-dir/two.txt": regular("two\n"),
		"keep.txt":      regular("keep\n"),
	})

	// main removes one.txt from the directory.
	mainTip := r.commitTree(map[string]fileEntry{
		"a-dir/two.txt": regular("two\n"),
		"keep.txt":      regular("keep\n"),
	}, base)

	// other removes two.txt, independently, on its own branch.
	other := r.commitTree(map[string]fileEntry{
		"a-dir/one.txt": regular("one\n"),
		"keep.txt":      regular("keep\n"),
	}, base)

	var conflicts []Conflict
	result, err := Rebase(r.store, RebaseOptions{
		Source:    other,
		Upstream:  base,
		Onto:      mainTip,
		HasOnto:   true,
		Committer: testSig,
	}, &conflicts)
	require.NoError(t, err)
	require.Empty(t, conflicts)
	require.Empty(t, result.FailureReason)

	require.Nil(t, r.itemAt(result.Commit.Tree, "a-dir"), "a-dir emptied out entirely and must not appear as an empty subtree")
	require.Equal(t, "keep\n", r.readFile(result.Commit.Tree, "keep.txt"))
}

func TestRebase_EmptyTreeSupport_RootCollapsesToCanonicalEmptyTree(t *testing.T) {
	r := newTestRepo(t)

	base := r.commitTree(map[string]fileEntry{
		"only-dir/only.txt": regular("only\n"),
	})

	mainTip := r.commitTree(map[string]fileEntry{}, base)
	other := r.commitTree(map[string]fileEntry{}, base)

	var conflicts []Conflict
	result, err := Rebase(r.store, RebaseOptions{
		Source:    other,
		Upstream:  base,
		Onto:      mainTip,
		HasOnto:   true,
		Committer: testSig,
	}, &conflicts)
	require.NoError(t, err)
	require.Empty(t, conflicts)
	require.Empty(t, result.FailureReason)
	require.Equal(t, EmptyTreeID, result.Commit.Tree)
}

func TestRebase_IdentityWhenSourceEqualsUpstream(t *testing.T) {
	r := newTestRepo(t)
	base := r.commitFiles(map[string]string{"base.txt": "base"})
	tip := r.commitFiles(map[string]string{"base.txt": "base", "feature.txt": "feature"}, base)

	var conflicts []Conflict
	result, err := Rebase(r.store, RebaseOptions{
		Source:    tip,
		Upstream:  tip,
		Committer: testSig,
	}, &conflicts)
	require.NoError(t, err)
	require.Empty(t, conflicts)
	require.Equal(t, tip, result.Commit.ID, "rebasing a tip onto itself must produce no new commits")
}

func TestRebase_DeterminismSameInputsProduceSameOutput(t *testing.T) {
	r := newTestRepo(t)
	base := r.commitFiles(map[string]string{"base.txt": "base"})
	feature := r.commitFiles(map[string]string{"base.txt": "base", "feature.txt": "feature"}, base)
	mainTip := r.commitFiles(map[string]string{"base.txt": "base", "main.txt": "main"}, base)

	opts := RebaseOptions{
		Source:    feature,
		Upstream:  base,
		Onto:      mainTip,
		HasOnto:   true,
		Committer: testSig,
	}

	var conflicts1 []Conflict
	result1, err := Rebase(r.store, opts, &conflicts1)
	require.NoError(t, err)

	var conflicts2 []Conflict
	result2, err := Rebase(r.store, opts, &conflicts2)
	require.NoError(t, err)

	require.Equal(t, result1.Commit.ID, result2.Commit.ID, "identical inputs must reproduce a byte-identical commit id")
}
