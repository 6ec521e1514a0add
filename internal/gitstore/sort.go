// Copyright 2025 Aviator Technologies, Inc.
// SPDX-License-Identifier: MIT

package gitstore

import (
	"sort"

	"github.com/go-git/go-git/v5/plumbing/object"
	"github.com/mergekit/rebase-engine/internal/model"
)

func sortItemsByName(items []*model.Item) {
	sort.Slice(items, func(i, j int) bool { return items[i].Name < items[j].Name })
}

func sortTreeEntries(entries []object.TreeEntry) {
	sort.Sort(object.TreeEntrySorter(entries))
}
