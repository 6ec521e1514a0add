// Copyright 2025 Aviator Technologies, Inc.
// SPDX-License-Identifier: MIT

// Package resolvediff3 wraps epiclabs-io/diff3's textual three-way merge
// as a single blob-to-blob operation. gitstore's tree merger calls this at
// each leaf where both sides changed a file independently; the engine
// itself never imports this package directly.
package resolvediff3

import (
	"bytes"
	"errors"
	"fmt"
	"io"

	"github.com/epiclabs-io/diff3"
	"github.com/epiclabs-io/diff3/linereader"
	"github.com/go-git/go-git/v5/plumbing"
	"github.com/go-git/go-git/v5/plumbing/storer"
)

// ErrBinaryContent is returned when either side of the merge is binary;
// diff3 has no meaningful line-based merge to offer in that case.
var ErrBinaryContent = linereader.ErrBinaryContent

// Merge runs a three-way textual merge of ours/theirs against base and
// stores the result as a new blob. hasConflict reports whether diff3 had
// to emit conflict markers - the caller treats that as an unresolved
// conflict rather than accepting the marked-up content.
func Merge(storage storer.EncodedObjectStorer, base, ours, theirs plumbing.Hash, oursLabel, theirsLabel string) (result plumbing.Hash, hasConflict bool, err error) {
	blobBase, err := storage.EncodedObject(plumbing.BlobObject, base)
	if err != nil {
		return plumbing.ZeroHash, false, fmt.Errorf("resolvediff3: open base blob %s: %w", base, err)
	}
	blobOurs, err := storage.EncodedObject(plumbing.BlobObject, ours)
	if err != nil {
		return plumbing.ZeroHash, false, fmt.Errorf("resolvediff3: open ours blob %s: %w", ours, err)
	}
	blobTheirs, err := storage.EncodedObject(plumbing.BlobObject, theirs)
	if err != nil {
		return plumbing.ZeroHash, false, fmt.Errorf("resolvediff3: open theirs blob %s: %w", theirs, err)
	}

	rdOurs, err := blobOurs.Reader()
	if err != nil {
		return plumbing.ZeroHash, false, fmt.Errorf("resolvediff3: read ours: %w", err)
	}
	defer rdOurs.Close()
	rdBase, err := blobBase.Reader()
	if err != nil {
		return plumbing.ZeroHash, false, fmt.Errorf("resolvediff3: read base: %w", err)
	}
	defer rdBase.Close()
	rdTheirs, err := blobTheirs.Reader()
	if err != nil {
		return plumbing.ZeroHash, false, fmt.Errorf("resolvediff3: read theirs: %w", err)
	}
	defer rdTheirs.Close()

	mr, err := diff3.Merge(rdOurs, rdBase, rdTheirs, false, oursLabel, theirsLabel)
	if err != nil {
		if errors.Is(err, linereader.ErrBinaryContent) {
			return plumbing.ZeroHash, true, ErrBinaryContent
		}
		return plumbing.ZeroHash, false, fmt.Errorf("resolvediff3: diff3 merge: %w", err)
	}

	var buf bytes.Buffer
	if _, err := buf.ReadFrom(mr.Result); err != nil {
		return plumbing.ZeroHash, false, fmt.Errorf("resolvediff3: read merge result: %w", err)
	}
	// diff3 omits the trailing newline it consumed from its input.
	buf.WriteRune('\n')

	obj := storage.NewEncodedObject()
	obj.SetType(plumbing.BlobObject)
	obj.SetSize(int64(buf.Len()))
	wt, err := obj.Writer()
	if err != nil {
		return plumbing.ZeroHash, false, fmt.Errorf("resolvediff3: open blob writer: %w", err)
	}
	if _, err := io.Copy(wt, &buf); err != nil {
		_ = wt.Close()
		return plumbing.ZeroHash, false, fmt.Errorf("resolvediff3: write merge result: %w", err)
	}
	if err := wt.Close(); err != nil {
		return plumbing.ZeroHash, false, fmt.Errorf("resolvediff3: close blob writer: %w", err)
	}
	hash, err := storage.SetEncodedObject(obj)
	if err != nil {
		return plumbing.ZeroHash, false, fmt.Errorf("resolvediff3: save blob: %w", err)
	}
	return hash, mr.Conflicts, nil
}
