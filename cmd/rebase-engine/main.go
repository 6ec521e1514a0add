// Copyright 2025 Aviator Technologies, Inc.
// SPDX-License-Identifier: MIT

package main

import "github.com/mergekit/rebase-engine/cmd"

func main() {
	cmd.Execute()
}
