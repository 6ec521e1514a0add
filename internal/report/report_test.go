// Copyright 2025 Aviator Technologies, Inc.
// SPDX-License-Identifier: MIT

package report

import (
	"bufio"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/go-git/go-git/v5/plumbing"
	"github.com/go-git/go-git/v5/plumbing/filemode"
	"github.com/klauspost/compress/zstd"
	"github.com/stretchr/testify/require"

	"github.com/mergekit/rebase-engine/internal/model"
)

func TestWriteConflicts_RoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "conflicts.jsonl.zst")
	offending := plumbing.ComputeHash(plumbing.CommitObject, []byte("offending"))
	original := &model.Item{ID: plumbing.ComputeHash(plumbing.BlobObject, []byte("orig")), Name: "f.txt", Mode: filemode.Regular}
	oldParent := &model.Item{ID: plumbing.ComputeHash(plumbing.BlobObject, []byte("old")), Name: "f.txt", Mode: filemode.Regular}

	conflicts := []model.Conflict{
		{
			Path:           "f.txt",
			Original:       original,
			OldParentItems: []*model.Item{oldParent, nil},
			NewParentItems: []*model.Item{nil, nil},
		},
	}

	err := WriteConflicts(path, "run-123", offending, conflicts)
	require.NoError(t, err)

	f, err := os.Open(path)
	require.NoError(t, err)
	defer f.Close()
	zr, err := zstd.NewReader(f)
	require.NoError(t, err)
	defer zr.Close()

	scanner := bufio.NewScanner(zr)
	require.True(t, scanner.Scan())
	var header map[string]string
	require.NoError(t, json.Unmarshal(scanner.Bytes(), &header))
	require.Equal(t, "run-123", header["runID"])
	require.Equal(t, offending.String(), header["offendingCommit"])

	require.True(t, scanner.Scan())
	var record map[string]any
	require.NoError(t, json.Unmarshal(scanner.Bytes(), &record))
	require.Equal(t, "f.txt", record["path"])

	originalRecord, ok := record["original"].(map[string]any)
	require.True(t, ok)
	require.Equal(t, "f.txt", originalRecord["name"])
	require.Equal(t, original.ID.String(), originalRecord["id"])

	oldItems, ok := record["oldParentItems"].([]any)
	require.True(t, ok)
	require.Len(t, oldItems, 2)
	require.NotNil(t, oldItems[0])
	require.Nil(t, oldItems[1])

	newItems, ok := record["newParentItems"].([]any)
	require.True(t, ok)
	require.Len(t, newItems, 2)
	require.Nil(t, newItems[0])
	require.Nil(t, newItems[1])

	require.False(t, scanner.Scan(), "only one conflict was written")
}

func TestWriteConflicts_NoConflictsWritesHeaderOnly(t *testing.T) {
	path := filepath.Join(t.TempDir(), "empty.jsonl.zst")
	offending := plumbing.ComputeHash(plumbing.CommitObject, []byte("none"))

	require.NoError(t, WriteConflicts(path, "run-empty", offending, nil))

	f, err := os.Open(path)
	require.NoError(t, err)
	defer f.Close()
	zr, err := zstd.NewReader(f)
	require.NoError(t, err)
	defer zr.Close()

	scanner := bufio.NewScanner(zr)
	require.True(t, scanner.Scan(), "header line is always written")
	require.False(t, scanner.Scan(), "no conflicts means no further lines")
}
