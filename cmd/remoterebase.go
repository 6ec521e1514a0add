// Copyright 2025 Aviator Technologies, Inc.
// SPDX-License-Identifier: MIT

package cmd

import (
	"bytes"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/fatih/color"
	"github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/plumbing"
	"github.com/go-git/go-git/v5/plumbing/format/packfile"
	"github.com/go-git/go-git/v5/plumbing/object"
	"github.com/go-git/go-git/v5/storage/memory"
	"github.com/google/uuid"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	rebaseengine "github.com/mergekit/rebase-engine"
	"github.com/mergekit/rebase-engine/internal/fetch"
	"github.com/mergekit/rebase-engine/internal/gitstore"
	"github.com/mergekit/rebase-engine/internal/push"
	"github.com/mergekit/rebase-engine/internal/report"
)

var remoteRebaseArgs struct {
	repoURL        string
	sourceRef      string
	upstreamRef    string
	ontoRef        string
	updateRef      string
	currentRefHash string
	committerName  string
	committerEmail string
	forceRebase    bool
	conflictReport string
}

var remoteRebaseCmd = &cobra.Command{
	Use:   "remote-rebase",
	Short: "Rebase a branch on a remote repository over the smart HTTP protocol, without a local checkout",
	RunE:  runRemoteRebase,
}

func init() {
	rootCmd.AddCommand(remoteRebaseCmd)
	remoteRebaseCmd.Flags().StringVar(&remoteRebaseArgs.repoURL, "repo-url", "", "Git repository URL")
	remoteRebaseCmd.Flags().StringVar(&remoteRebaseArgs.sourceRef, "source-ref", "", "Ref to rebase (tip of the branch being moved)")
	remoteRebaseCmd.Flags().StringVar(&remoteRebaseArgs.upstreamRef, "upstream-ref", "", "Ref Source is currently based on")
	remoteRebaseCmd.Flags().StringVar(&remoteRebaseArgs.ontoRef, "onto-ref", "", "Ref to replay Source onto, if different from upstream-ref")
	remoteRebaseCmd.Flags().StringVar(&remoteRebaseArgs.updateRef, "update-ref", "", "Remote ref to move to the rebased tip on success")
	remoteRebaseCmd.Flags().StringVar(&remoteRebaseArgs.currentRefHash, "current-ref-hash", "", "Expected current value of --update-ref; leave empty to update unconditionally")
	remoteRebaseCmd.Flags().StringVar(&remoteRebaseArgs.committerName, "committer-name", "", "Committer name stamped on rebased commits")
	remoteRebaseCmd.Flags().StringVar(&remoteRebaseArgs.committerEmail, "committer-email", "", "Committer email stamped on rebased commits")
	remoteRebaseCmd.Flags().BoolVar(&remoteRebaseArgs.forceRebase, "force", false, "Replay every commit even when none of its parents moved")
	remoteRebaseCmd.Flags().StringVar(&remoteRebaseArgs.conflictReport, "conflict-report", "", "Path to write a zstd-compressed conflict dump to on failure")
	_ = remoteRebaseCmd.MarkFlagRequired("repo-url")
	_ = remoteRebaseCmd.MarkFlagRequired("source-ref")
	_ = remoteRebaseCmd.MarkFlagRequired("upstream-ref")
	_ = remoteRebaseCmd.MarkFlagRequired("committer-name")
	_ = remoteRebaseCmd.MarkFlagRequired("committer-email")

	remoteRebaseCmd.Flags().StringVar(&authzHeader, "authz-header", "", "Optional authorization header")
	remoteRebaseCmd.Flags().StringVar(&basicAuthzUser, "basic-authz-user", "", "Optional HTTP Basic Auth user")
	remoteRebaseCmd.Flags().StringVar(&basicAuthzPassword, "basic-authz-password", "", "Optional HTTP Basic Auth password")
}

func runRemoteRebase(cmd *cobra.Command, args []string) error {
	runID := uuid.NewString()
	logger, err := zap.NewProduction()
	if err != nil {
		return fmt.Errorf("cmd: build logger: %w", err)
	}
	defer func() { _ = logger.Sync() }()
	log := logger.With(zap.String("runID", runID), zap.String("repoURL", remoteRebaseArgs.repoURL))

	ctx := cmd.Context()
	client := &http.Client{Transport: &authnRoundtripper{}}

	prefixes := []string{remoteRebaseArgs.sourceRef, remoteRebaseArgs.upstreamRef}
	if remoteRebaseArgs.ontoRef != "" {
		prefixes = append(prefixes, remoteRebaseArgs.ontoRef)
	}
	refLines, _, err := fetch.LsRefs(ctx, remoteRebaseArgs.repoURL, client, prefixes)
	if err != nil {
		return fmt.Errorf("cmd: list remote refs: %w", err)
	}
	refHashes := parseRefAdvertisement(refLines)

	source, err := lookupRef(refHashes, remoteRebaseArgs.sourceRef)
	if err != nil {
		return fmt.Errorf("cmd: --source-ref: %w", err)
	}
	upstream, err := lookupRef(refHashes, remoteRebaseArgs.upstreamRef)
	if err != nil {
		return fmt.Errorf("cmd: --upstream-ref: %w", err)
	}
	wantOids := []plumbing.Hash{source, upstream}

	opts := rebaseengine.RebaseOptions{
		Source:      rebaseengine.CommitID(source),
		Upstream:    rebaseengine.CommitID(upstream),
		ForceRebase: remoteRebaseArgs.forceRebase,
		Committer:   object.Signature{Name: remoteRebaseArgs.committerName, Email: remoteRebaseArgs.committerEmail, When: time.Now()},
	}
	if remoteRebaseArgs.ontoRef != "" {
		onto, err := lookupRef(refHashes, remoteRebaseArgs.ontoRef)
		if err != nil {
			return fmt.Errorf("cmd: --onto-ref: %w", err)
		}
		opts.Onto, opts.HasOnto = rebaseengine.CommitID(onto), true
		wantOids = append(wantOids, onto)
	}

	packfileBytes, debugInfo, err := fetch.FetchFullPackfile(ctx, remoteRebaseArgs.repoURL, client, wantOids, nil)
	if err != nil {
		return fmt.Errorf("cmd: fetch packfile: %w", err)
	}
	log.Info("fetched packfile", zap.Int("bytes", debugInfo.PackfileSize))

	storage := memory.NewStorage()
	parser, err := packfile.NewParserWithStorage(packfile.NewScanner(bytes.NewReader(packfileBytes)), storage)
	if err != nil {
		return fmt.Errorf("cmd: build packfile parser: %w", err)
	}
	if _, err := parser.Parse(); err != nil {
		return fmt.Errorf("cmd: parse packfile: %w", err)
	}

	existing, err := objectHashSet(storage)
	if err != nil {
		return fmt.Errorf("cmd: enumerate fetched objects: %w", err)
	}

	repo, err := git.Open(storage, nil)
	if err != nil {
		return fmt.Errorf("cmd: open in-memory repository: %w", err)
	}
	store := gitstore.New(repo)

	opts.ProgressHook = func(action rebaseengine.RebaseAction, index, total int, commit rebaseengine.CommitID) {
		log.Info("replayed commit",
			zap.String("action", string(action)),
			zap.Int("index", index+1),
			zap.Int("total", total),
			zap.String("commit", commit.String()))
		printProgress(action, index, total, commit)
	}

	start := time.Now()
	var conflicts []rebaseengine.Conflict
	result, err := rebaseengine.Rebase(store, opts, &conflicts)
	if err != nil {
		return fmt.Errorf("cmd: rebase: %w", err)
	}
	log.Info("rebase finished", zap.Duration("elapsed", time.Since(start)))

	if result.FailureReason != "" {
		color.Red("rebase stopped: %s (offending commit %s)", result.FailureReason, result.OffendingCommit)
		if remoteRebaseArgs.conflictReport != "" && len(conflicts) > 0 {
			if err := report.WriteConflicts(remoteRebaseArgs.conflictReport, runID, result.OffendingCommit, conflicts); err != nil {
				return fmt.Errorf("cmd: write conflict report: %w", err)
			}
			fmt.Printf("wrote %d conflicts to %s\n", len(conflicts), remoteRebaseArgs.conflictReport)
		}
		return fmt.Errorf("rebase-engine: %s", result.FailureReason)
	}
	color.Green("rebased onto %s", result.Commit.ID)

	if remoteRebaseArgs.updateRef == "" {
		return nil
	}
	newObjects, err := newObjectHashes(storage, existing)
	if err != nil {
		return fmt.Errorf("cmd: enumerate new objects: %w", err)
	}
	var buf bytes.Buffer
	packEncoder := packfile.NewEncoder(&buf, storage, false)
	if _, err := packEncoder.Encode(newObjects, 0); err != nil {
		return fmt.Errorf("cmd: encode packfile: %w", err)
	}

	var currentRefHash *plumbing.Hash
	if remoteRebaseArgs.currentRefHash != "" {
		h := plumbing.NewHash(remoteRebaseArgs.currentRefHash)
		currentRefHash = &h
	}
	if _, err := push.Push(ctx, remoteRebaseArgs.repoURL, client, &buf, []push.RefUpdate{
		{Name: plumbing.ReferenceName(remoteRebaseArgs.updateRef), OldHash: currentRefHash, NewHash: plumbing.Hash(result.Commit.ID)},
	}); err != nil {
		return fmt.Errorf("cmd: push rebased ref: %w", err)
	}
	return nil
}

func parseRefAdvertisement(lines []string) map[string]plumbing.Hash {
	refs := make(map[string]plumbing.Hash, len(lines))
	for _, line := range lines {
		line = strings.TrimSuffix(line, "\n")
		fields := strings.Fields(line)
		if len(fields) < 2 {
			continue
		}
		refs[fields[1]] = plumbing.NewHash(fields[0])
	}
	return refs
}

func lookupRef(refs map[string]plumbing.Hash, name string) (plumbing.Hash, error) {
	if h, ok := refs[name]; ok {
		return h, nil
	}
	if h, ok := refs["refs/heads/"+name]; ok {
		return h, nil
	}
	return plumbing.ZeroHash, fmt.Errorf("ref not advertised by remote: %s", name)
}

func objectHashSet(storage *memory.Storage) (map[plumbing.Hash]bool, error) {
	iter, err := storage.IterEncodedObjects(plumbing.AnyObject)
	if err != nil {
		return nil, err
	}
	set := make(map[plumbing.Hash]bool)
	err = iter.ForEach(func(obj plumbing.EncodedObject) error {
		set[obj.Hash()] = true
		return nil
	})
	return set, err
}

func newObjectHashes(storage *memory.Storage, existing map[plumbing.Hash]bool) ([]plumbing.Hash, error) {
	iter, err := storage.IterEncodedObjects(plumbing.AnyObject)
	if err != nil {
		return nil, err
	}
	var hashes []plumbing.Hash
	err = iter.ForEach(func(obj plumbing.EncodedObject) error {
		if !existing[obj.Hash()] {
			hashes = append(hashes, obj.Hash())
		}
		return nil
	})
	return hashes, err
}
