package main

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/require"

	"github.com/sjansen/bpmn-to-image/internal/domain/conversion"
)

const (
	simpleBPMN = "../../internal/bpmn/testdata/simple.bpmn"
	dinnerDMN  = "../../internal/dmn/testdata/dinner.dmn"
)

type result struct {
	err    error
	stdout string
	stderr string
}

func runWith(args ...string) result {
	var stdout, stderr bytes.Buffer
	err := run(context.TODO(), args, &stdout, &stderr)
	return result{err: err, stdout: stdout.String(), stderr: stderr.String()}
}

func exitCode(t *testing.T, err error) int {
	t.Helper()
	var exitErr *ExitError
	require.True(t, errors.As(err, &exitErr), "expected *ExitError, got %v", err)
	return exitErr.Code
}

func arg(input string, outputs ...string) string {
	return input + conversion.Delimiter + strings.Join(outputs, ",")
}

func TestRunWithoutArgumentsPrintsUsage(t *testing.T) {
	require := require.New(t)

	r := runWith()
	require.Equal(1, exitCode(t, r.err))
	require.Contains(r.stdout, "usage: bpmn-to-image")
}

func TestRunHelpAndVersion(t *testing.T) {
	require := require.New(t)

	r := runWith("--help")
	require.NoError(r.err)
	require.Contains(r.stdout, "--min-dimensions")
	require.Contains(r.stdout, "--dmn-view")

	r = runWith("--version")
	require.NoError(r.err)
	require.Contains(r.stdout, version)
}

func TestRunRejectsUnknownFlag(t *testing.T) {
	r := runWith("--colour=blue", arg(simpleBPMN, "png"))
	require.Equal(t, 1, exitCode(t, r.err))
}

func TestRunRejectsMalformedArgument(t *testing.T) {
	require := require.New(t)

	r := runWith("diagram.bpmn")
	require.Equal(1, exitCode(t, r.err))
	require.Contains(r.stderr, "malformed argument")
	require.Contains(r.stdout, "usage: bpmn-to-image")
}

func TestRunRejectsInvalidOptions(t *testing.T) {
	for _, flag := range []string{
		"--scale=0",
		"--min-dimensions=wide",
		"--dmn-view=table",
		"--log-format=xml",
		"--min-dimensions=",
		"--dmn-view=",
	} {
		flag := flag
		t.Run(flag, func(t *testing.T) {
			output := filepath.Join(t.TempDir(), "simple.dot")
			r := runWith(flag, arg(simpleBPMN, output))
			require.Equal(t, 1, exitCode(t, r.err))
			require.NoFileExists(t, output)
		})
	}
}

func TestRunConverts(t *testing.T) {
	require := require.New(t)

	dir := t.TempDir()
	bpmnOut := filepath.Join(dir, "simple.dot")
	dmnOut := filepath.Join(dir, "dinner.dot")

	// GIVEN one BPMN and one DMN argument
	args := []string{
		"--dmn-view=decision",
		arg(simpleBPMN, bpmnOut, "mmd"),
		arg(dinnerDMN, dmnOut),
	}
	// WHEN the CLI runs
	r := runWith(args...)
	// THEN both files are converted
	require.NoError(r.err)
	require.FileExists(bpmnOut)
	require.FileExists(dmnOut)
	require.Contains(r.stdout, "conversion finished")
	require.Empty(r.stderr)

	data, err := os.ReadFile(dmnOut)
	require.NoError(err)
	require.Contains(string(data), "Spareribs")

	// and the bare extension landed in the working directory
	data, err = os.ReadFile("simple.mmd")
	require.NoError(err)
	require.NoError(os.Remove("simple.mmd"))
	require.Contains(string(data), `"Do work"`)
}

func TestRunConfigPrecedence(t *testing.T) {
	require := require.New(t)

	dir := t.TempDir()
	cfg := filepath.Join(dir, "bpmn-to-image.hcl")
	require.NoError(os.WriteFile(cfg, []byte("title = false\nlog_format = \"logfmt\"\n"), 0600))

	// GIVEN a config file that turns the title off
	output := filepath.Join(dir, "untitled.dot")
	r := runWith("--config="+cfg, "--no-footer", arg(simpleBPMN, output))
	require.NoError(r.err)
	// THEN the diagram has no title
	data, err := os.ReadFile(output)
	require.NoError(err)
	require.NotContains(string(data), `labelloc="t"`)
	// and the log format comes from the file
	require.Contains(r.stdout, "msg=")

	// WHEN the flag asks for a title
	output = filepath.Join(dir, "titled.dot")
	r = runWith("--config="+cfg, "--title", "--no-footer", arg(simpleBPMN, output))
	require.NoError(r.err)
	// THEN the flag wins
	data, err = os.ReadFile(output)
	require.NoError(err)
	require.Contains(string(data), `labelloc="t"`)
}

func TestRunMissingConfig(t *testing.T) {
	r := runWith("--config=missing.hcl", arg(simpleBPMN, "png"))
	require.Equal(t, 1, exitCode(t, r.err))
}

func TestRunReportsRenderFailure(t *testing.T) {
	require := require.New(t)

	output := filepath.Join(t.TempDir(), "missing.dot")
	r := runWith(arg("missing.bpmn", output))
	require.Equal(1, exitCode(t, r.err))
	require.Contains(r.stderr, "conversion failed")
	require.Contains(r.stderr, "missing.bpmn")
}
