// Copyright 2025 Aviator Technologies, Inc.
// SPDX-License-Identifier: MIT

package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/go-git/go-git/v5"
	"github.com/stretchr/testify/require"
)

func initRepo(t *testing.T) *git.Repository {
	t.Helper()
	repo, err := git.PlainInit(t.TempDir(), false)
	require.NoError(t, err)
	return repo
}

func TestLoadCommitter_PrefersRepoConfigFile(t *testing.T) {
	repo := initRepo(t)
	wt, err := repo.Worktree()
	require.NoError(t, err)
	root := wt.Filesystem.Root()

	const contents = "[committer]\nname = \"File Override\"\nemail = \"file@example.com\"\n"
	require.NoError(t, os.WriteFile(filepath.Join(root, FileName), []byte(contents), 0o644))

	gitCfg, err := repo.Config()
	require.NoError(t, err)
	gitCfg.User.Name = "Git Config Name"
	gitCfg.User.Email = "git@example.com"
	require.NoError(t, repo.SetConfig(gitCfg))

	sig, err := LoadCommitter(repo)
	require.NoError(t, err)
	require.Equal(t, "File Override", sig.Name)
	require.Equal(t, "file@example.com", sig.Email)
}

func TestLoadCommitter_FallsBackToGitConfig(t *testing.T) {
	repo := initRepo(t)

	gitCfg, err := repo.Config()
	require.NoError(t, err)
	gitCfg.User.Name = "Git Config Name"
	gitCfg.User.Email = "git@example.com"
	require.NoError(t, repo.SetConfig(gitCfg))

	sig, err := LoadCommitter(repo)
	require.NoError(t, err)
	require.Equal(t, "Git Config Name", sig.Name)
	require.Equal(t, "git@example.com", sig.Email)
}

func TestLoadCommitter_ErrorsWithNoIdentityAnywhere(t *testing.T) {
	repo := initRepo(t)
	_, err := LoadCommitter(repo)
	require.Error(t, err)
}

func TestLoadCommitter_IncompleteConfigFileIsIgnored(t *testing.T) {
	repo := initRepo(t)
	wt, err := repo.Worktree()
	require.NoError(t, err)
	root := wt.Filesystem.Root()

	// A name with no email is treated as absent, not as a partial
	// override, so the git-config fallback still applies.
	const contents = "[committer]\nname = \"Only Name\"\n"
	require.NoError(t, os.WriteFile(filepath.Join(root, FileName), []byte(contents), 0o644))

	gitCfg, err := repo.Config()
	require.NoError(t, err)
	gitCfg.User.Name = "Git Config Name"
	gitCfg.User.Email = "git@example.com"
	require.NoError(t, repo.SetConfig(gitCfg))

	sig, err := LoadCommitter(repo)
	require.NoError(t, err)
	require.Equal(t, "Git Config Name", sig.Name)
}
