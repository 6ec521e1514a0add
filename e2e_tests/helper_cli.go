// Copyright 2024 Aviator Technologies, Inc.
// SPDX-License-Identifier: MIT

package e2e_tests

import (
	"bytes"
	"errors"
	"os"
	"os/exec"
	"path/filepath"
	"testing"

	"github.com/kr/text"
	"github.com/stretchr/testify/require"
)

var rebaseEngineCmdPath string

func init() {
	cmd := exec.Command("go", "build", "../cmd/rebase-engine")
	cmd.Stdout = os.Stderr
	cmd.Stderr = os.Stderr

	if err := cmd.Run(); err != nil {
		panic(err)
	}
	var err error
	rebaseEngineCmdPath, err = filepath.Abs("./rebase-engine")
	if err != nil {
		panic(err)
	}
}

type CLIOutput struct {
	ExitCode int
	Stdout   string
	Stderr   string
}

func cmdInternal(t *testing.T, exe string, args ...string) CLIOutput {
	t.Helper()
	cmd := exec.Command(exe, args...)
	stdout := &bytes.Buffer{}
	stderr := &bytes.Buffer{}
	cmd.Stdout = stdout
	cmd.Stderr = stderr

	err := cmd.Run()
	var exitError *exec.ExitError
	if err != nil && !errors.As(err, &exitError) {
		t.Fatal(err)
	}

	output := CLIOutput{
		ExitCode: cmd.ProcessState.ExitCode(),
		Stdout:   stdout.String(),
		Stderr:   stderr.String(),
	}
	t.Logf("Running rebase-engine\n"+
		"args: %v\n"+
		"exit code: %v\n"+
		"stdout:\n"+
		"%s"+
		"stderr:\n"+
		"%s",
		args,
		cmd.ProcessState.ExitCode(),
		text.Indent(stdout.String(), "  "),
		text.Indent(stderr.String(), "  "),
	)
	return output
}

func RebaseEngine(t *testing.T, args ...string) CLIOutput {
	t.Helper()
	return cmdInternal(t, rebaseEngineCmdPath, args...)
}

func RequireRebaseEngine(t *testing.T, args ...string) CLIOutput {
	t.Helper()
	output := RebaseEngine(t, args...)
	require.Equal(t, 0, output.ExitCode, "rebase-engine %s: exited with %v\nstderr:\n%s", args, output.ExitCode, output.Stderr)
	return output
}
