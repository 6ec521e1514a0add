// Copyright 2025 Aviator Technologies, Inc.
// SPDX-License-Identifier: MIT

// Package config loads the committer identity the rebase driver stamps
// on every commit it creates. It's deliberately small: a single typed
// struct decoded once, the same shape odvcencio/got's own TOML-backed
// repository config uses.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/plumbing/object"
)

// FileName is the override file this package looks for at the
// repository root; in the user's home directory it is looked up as the
// dotfile "." + FileName.
const FileName = "rebase-engine.toml"

// Config is the on-disk shape of rebase-engine.toml.
type Config struct {
	Committer struct {
		Name  string `toml:"name"`
		Email string `toml:"email"`
	} `toml:"committer"`
}

// LoadCommitter resolves the committer signature to stamp on rebased
// commits: an explicit rebase-engine.toml at the repository root, then
// .rebase-engine.toml in the user's home directory, takes precedence,
// falling back to the
// repository's own user.name/user.email the way plain git itself would.
func LoadCommitter(repo *git.Repository) (object.Signature, error) {
	if cfg, ok, err := loadFile(repoConfigPath(repo)); err != nil {
		return object.Signature{}, err
	} else if ok {
		return signatureFrom(cfg), nil
	}

	if home, err := os.UserHomeDir(); err == nil {
		if cfg, ok, err := loadFile(filepath.Join(home, "."+FileName)); err != nil {
			return object.Signature{}, err
		} else if ok {
			return signatureFrom(cfg), nil
		}
	}

	return committerFromGitConfig(repo)
}

func repoConfigPath(repo *git.Repository) string {
	wt, err := repo.Worktree()
	if err != nil {
		return ""
	}
	return filepath.Join(wt.Filesystem.Root(), FileName)
}

func loadFile(path string) (Config, bool, error) {
	if path == "" {
		return Config{}, false, nil
	}
	if _, err := os.Stat(path); err != nil {
		return Config{}, false, nil
	}
	var cfg Config
	if _, err := toml.DecodeFile(path, &cfg); err != nil {
		return Config{}, false, fmt.Errorf("config: decode %s: %w", path, err)
	}
	if cfg.Committer.Name == "" || cfg.Committer.Email == "" {
		return Config{}, false, nil
	}
	return cfg, true, nil
}

func signatureFrom(cfg Config) object.Signature {
	return object.Signature{Name: cfg.Committer.Name, Email: cfg.Committer.Email, When: time.Now()}
}

func committerFromGitConfig(repo *git.Repository) (object.Signature, error) {
	gitCfg, err := repo.Config()
	if err != nil {
		return object.Signature{}, fmt.Errorf("config: read git config: %w", err)
	}
	if gitCfg.User.Name == "" || gitCfg.User.Email == "" {
		return object.Signature{}, fmt.Errorf("config: no committer identity: set user.name/user.email or write %s", FileName)
	}
	return object.Signature{Name: gitCfg.User.Name, Email: gitCfg.User.Email, When: time.Now()}, nil
}
