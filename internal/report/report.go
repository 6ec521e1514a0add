// Copyright 2025 Aviator Technologies, Inc.
// SPDX-License-Identifier: MIT

// Package report writes the conflict sink a halted rebase leaves behind,
// compressed with zstd since a wide rebase can produce a conflict list
// with full per-parent item snapshots at every path.
package report

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/klauspost/compress/zstd"
	"github.com/mergekit/rebase-engine/internal/model"
)

// conflictRecord is the JSON shape persisted per conflict, independent
// of model.Conflict's in-memory layout so the on-disk format doesn't
// silently change if that struct does.
type conflictRecord struct {
	Path           string       `json:"path"`
	Original       *itemRecord  `json:"original,omitempty"`
	OldParentItems []*itemRecord `json:"oldParentItems"`
	NewParentItems []*itemRecord `json:"newParentItems"`
}

type itemRecord struct {
	ID   string `json:"id"`
	Name string `json:"name"`
	Mode string `json:"mode"`
}

// WriteConflicts writes conflicts as zstd-compressed newline-delimited
// JSON to path.
func WriteConflicts(path string, runID string, offendingCommit model.CommitID, conflicts []model.Conflict) error {
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0o644)
	if err != nil {
		return fmt.Errorf("report: open %s: %w", path, err)
	}
	defer f.Close()

	zw, err := zstd.NewWriter(f)
	if err != nil {
		return fmt.Errorf("report: open zstd writer: %w", err)
	}
	defer zw.Close()

	enc := json.NewEncoder(zw)
	header := map[string]string{"runID": runID, "offendingCommit": offendingCommit.String()}
	if err := enc.Encode(header); err != nil {
		return fmt.Errorf("report: write header: %w", err)
	}
	for _, c := range conflicts {
		if err := enc.Encode(toRecord(c)); err != nil {
			return fmt.Errorf("report: write conflict %s: %w", c.Path, err)
		}
	}
	return nil
}

func toRecord(c model.Conflict) conflictRecord {
	old := make([]*itemRecord, len(c.OldParentItems))
	for i, it := range c.OldParentItems {
		old[i] = toItemRecord(it)
	}
	new := make([]*itemRecord, len(c.NewParentItems))
	for i, it := range c.NewParentItems {
		new[i] = toItemRecord(it)
	}
	return conflictRecord{
		Path:           c.Path,
		Original:       toItemRecord(c.Original),
		OldParentItems: old,
		NewParentItems: new,
	}
}

func toItemRecord(it *model.Item) *itemRecord {
	if it == nil {
		return nil
	}
	return &itemRecord{ID: it.ID.String(), Name: it.Name, Mode: it.Mode.String()}
}
