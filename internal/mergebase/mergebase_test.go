// Copyright 2025 Aviator Technologies, Inc.
// SPDX-License-Identifier: MIT

package mergebase

import (
	"fmt"
	"testing"

	"github.com/go-git/go-git/v5/plumbing"
	"github.com/go-git/go-git/v5/plumbing/object"
	"github.com/stretchr/testify/require"
)

// fakeCommitLister is a tiny in-memory commit graph keyed by synthetic
// hashes, letting these tests describe a DAG shape directly instead of
// encoding real git objects.
type fakeCommitLister struct {
	commits map[plumbing.Hash]*object.Commit
}

func newFakeGraph() *fakeCommitLister {
	return &fakeCommitLister{commits: map[plumbing.Hash]*object.Commit{}}
}

func hashFor(name string) plumbing.Hash {
	return plumbing.ComputeHash(plumbing.BlobObject, []byte(name))
}

func (g *fakeCommitLister) add(name string, parents ...string) plumbing.Hash {
	h := hashFor(name)
	var parentHashes []plumbing.Hash
	for _, p := range parents {
		parentHashes = append(parentHashes, hashFor(p))
	}
	g.commits[h] = &object.Commit{Hash: h, ParentHashes: parentHashes}
	return h
}

func (g *fakeCommitLister) Commit(h plumbing.Hash) (*object.Commit, error) {
	c, ok := g.commits[h]
	if !ok {
		return nil, fmt.Errorf("no such commit %s", h)
	}
	return c, nil
}

func TestFindMany_LinearChain(t *testing.T) {
	g := newFakeGraph()
	g.add("root")
	g.add("a", "root")
	g.add("b", "a")

	base, ok, err := FindMany(g, []plumbing.Hash{hashFor("b"), hashFor("a")})
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, hashFor("a"), base)
}

func TestFindMany_SingleID(t *testing.T) {
	g := newFakeGraph()
	g.add("solo")
	base, ok, err := FindMany(g, []plumbing.Hash{hashFor("solo")})
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, hashFor("solo"), base)
}

func TestFindMany_Empty(t *testing.T) {
	_, ok, err := FindMany(newFakeGraph(), nil)
	require.NoError(t, err)
	require.False(t, ok)
}

func TestFindMany_NoCommonAncestor(t *testing.T) {
	g := newFakeGraph()
	g.add("root-a")
	g.add("root-b")

	_, ok, err := FindMany(g, []plumbing.Hash{hashFor("root-a"), hashFor("root-b")})
	require.NoError(t, err)
	require.False(t, ok)
}

// TestFindMany_ThreeWayOctopus builds a three-branch merge where each
// branch diverges straight from the same root, so the only common
// ancestor of all three tips is that root commit.
func TestFindMany_ThreeWayOctopus(t *testing.T) {
	g := newFakeGraph()
	g.add("root")
	g.add("branch-a", "root")
	g.add("branch-b", "root")
	g.add("branch-c", "root")

	base, ok, err := FindMany(g, []plumbing.Hash{
		hashFor("branch-a"), hashFor("branch-b"), hashFor("branch-c"),
	})
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, hashFor("root"), base)
}

// TestFindMany_CrissCrossPicksDeterministicLeaf builds a criss-cross
// merge history where two distinct commits both qualify as a common
// ancestor of the two tips; FindMany must deterministically pick the
// lexicographically smaller one rather than an arbitrary map-iteration
// result.
func TestFindMany_CrissCrossPicksDeterministicLeaf(t *testing.T) {
	g := newFakeGraph()
	g.add("root")
	g.add("x1", "root")
	g.add("x2", "root")
	g.add("tip-a", "x1", "x2")
	g.add("tip-b", "x1", "x2")

	base, ok, err := FindMany(g, []plumbing.Hash{hashFor("tip-a"), hashFor("tip-b")})
	require.NoError(t, err)
	require.True(t, ok)

	x1, x2 := hashFor("x1"), hashFor("x2")
	want := x1
	if x2.String() < x1.String() {
		want = x2
	}
	require.Equal(t, want, base)
}

func TestReachableFrom_IncludesStartAndAncestors(t *testing.T) {
	g := newFakeGraph()
	g.add("root")
	g.add("mid", "root")
	g.add("tip", "mid")

	reachable, err := ReachableFrom(g, hashFor("tip"))
	require.NoError(t, err)
	require.True(t, reachable[hashFor("tip")])
	require.True(t, reachable[hashFor("mid")])
	require.True(t, reachable[hashFor("root")])
	require.Len(t, reachable, 3)
}
