// Copyright 2025 Aviator Technologies, Inc.
// SPDX-License-Identifier: MIT

package cmd

import (
	"fmt"
	"time"

	"github.com/fatih/color"
	"github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/plumbing"
	"github.com/google/uuid"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	rebaseengine "github.com/mergekit/rebase-engine"
	"github.com/mergekit/rebase-engine/config"
	"github.com/mergekit/rebase-engine/internal/gitstore"
	"github.com/mergekit/rebase-engine/internal/report"
)

var rebaseArgs struct {
	repoPath       string
	source         string
	upstream       string
	onto           string
	updateRef      string
	forceRebase    bool
	conflictReport string
}

var rebaseCmd = &cobra.Command{
	Use:   "rebase",
	Short: "Rebase a branch onto another, reconstructing merge commits",
	RunE:  runRebase,
}

func init() {
	rootCmd.AddCommand(rebaseCmd)
	rebaseCmd.Flags().StringVar(&rebaseArgs.repoPath, "repo", ".", "Path to the local repository")
	rebaseCmd.Flags().StringVar(&rebaseArgs.source, "source", "", "Revision to rebase (tip of the branch being moved)")
	rebaseCmd.Flags().StringVar(&rebaseArgs.upstream, "upstream", "", "Revision Source is currently based on")
	rebaseCmd.Flags().StringVar(&rebaseArgs.onto, "onto", "", "Revision to replay Source onto, if different from upstream")
	rebaseCmd.Flags().StringVar(&rebaseArgs.updateRef, "update-ref", "", "If set, move this reference to the rebased tip on success")
	rebaseCmd.Flags().BoolVar(&rebaseArgs.forceRebase, "force", false, "Replay every commit even when none of its parents moved")
	rebaseCmd.Flags().StringVar(&rebaseArgs.conflictReport, "conflict-report", "", "Path to write a zstd-compressed conflict dump to on failure")
	_ = rebaseCmd.MarkFlagRequired("source")
	_ = rebaseCmd.MarkFlagRequired("upstream")
}

func runRebase(cmd *cobra.Command, args []string) error {
	runID := uuid.NewString()
	logger, err := zap.NewProduction()
	if err != nil {
		return fmt.Errorf("cmd: build logger: %w", err)
	}
	defer func() { _ = logger.Sync() }()
	log := logger.With(zap.String("runID", runID))

	repo, err := git.PlainOpen(rebaseArgs.repoPath)
	if err != nil {
		return fmt.Errorf("cmd: open repo %s: %w", rebaseArgs.repoPath, err)
	}

	source, err := resolveRevision(repo, rebaseArgs.source)
	if err != nil {
		return fmt.Errorf("cmd: resolve --source %s: %w", rebaseArgs.source, err)
	}
	upstream, err := resolveRevision(repo, rebaseArgs.upstream)
	if err != nil {
		return fmt.Errorf("cmd: resolve --upstream %s: %w", rebaseArgs.upstream, err)
	}

	opts := rebaseengine.RebaseOptions{
		Source:      rebaseengine.CommitID(source),
		Upstream:    rebaseengine.CommitID(upstream),
		ForceRebase: rebaseArgs.forceRebase,
	}
	if rebaseArgs.onto != "" {
		onto, err := resolveRevision(repo, rebaseArgs.onto)
		if err != nil {
			return fmt.Errorf("cmd: resolve --onto %s: %w", rebaseArgs.onto, err)
		}
		opts.Onto, opts.HasOnto = rebaseengine.CommitID(onto), true
	}

	committer, err := config.LoadCommitter(repo)
	if err != nil {
		return fmt.Errorf("cmd: load committer identity: %w", err)
	}
	opts.Committer = committer

	start := time.Now()
	opts.ProgressHook = func(action rebaseengine.RebaseAction, index, total int, commit rebaseengine.CommitID) {
		log.Info("replayed commit",
			zap.String("action", string(action)),
			zap.Int("index", index+1),
			zap.Int("total", total),
			zap.String("commit", commit.String()))
		printProgress(action, index, total, commit)
	}

	store := gitstore.New(repo)
	var conflicts []rebaseengine.Conflict
	result, err := rebaseengine.Rebase(store, opts, &conflicts)
	if err != nil {
		return fmt.Errorf("cmd: rebase: %w", err)
	}
	log.Info("rebase finished", zap.Duration("elapsed", time.Since(start)))

	if result.FailureReason != "" {
		color.Red("rebase stopped: %s (offending commit %s)", result.FailureReason, result.OffendingCommit)
		if rebaseArgs.conflictReport != "" && len(conflicts) > 0 {
			if err := report.WriteConflicts(rebaseArgs.conflictReport, runID, result.OffendingCommit, conflicts); err != nil {
				return fmt.Errorf("cmd: write conflict report: %w", err)
			}
			fmt.Printf("wrote %d conflicts to %s\n", len(conflicts), rebaseArgs.conflictReport)
		}
		return fmt.Errorf("rebase-engine: %s", result.FailureReason)
	}

	color.Green("rebased onto %s", result.Commit.ID)
	if rebaseArgs.updateRef != "" {
		ref := plumbing.NewHashReference(plumbing.ReferenceName(rebaseArgs.updateRef), plumbing.Hash(result.Commit.ID))
		if err := repo.Storer.SetReference(ref); err != nil {
			return fmt.Errorf("cmd: update ref %s: %w", rebaseArgs.updateRef, err)
		}
	}
	return nil
}

func resolveRevision(repo *git.Repository, rev string) (plumbing.Hash, error) {
	h, err := repo.ResolveRevision(plumbing.Revision(rev))
	if err != nil {
		return plumbing.ZeroHash, err
	}
	return *h, nil
}

func printProgress(action rebaseengine.RebaseAction, index, total int, commit rebaseengine.CommitID) {
	line := fmt.Sprintf("[%d/%d] %s %s", index+1, total, action, commit)
	switch action {
	case rebaseengine.ActionRebased:
		color.Cyan(line)
	case rebaseengine.ActionReused:
		color.White(line)
	case rebaseengine.ActionConflicts:
		color.Red(line)
	}
}
