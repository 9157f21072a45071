package executors

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"os/exec"
	"strings"

	"github.com/saturn-sh/saturn/pkg/types"
)

// Process runs one pipeline invocation per message as a subprocess,
// feeding the PipelineMessage as JSON on stdin and parsing a
// PipelineResult as JSON from stdout. This is the default executor
// (original_source's default_config.py names "ProcessExecutor" as the
// SATURN_WORKER__EXECUTOR_CLS default, wired here by broker.py's import
// of worker.executors.process).
type Process struct {
	command string
	args    []string
}

// NewProcess builds a Process executor from options["command"] (a
// space-separated command line, e.g. "python -m saturn.pipelines.run").
// A missing command is an error: there is no sensible default binary.
func NewProcess(options map[string]string) (*Process, error) {
	cmdline := strings.TrimSpace(options["command"])
	if cmdline == "" {
		return nil, fmt.Errorf("executors: process executor requires a \"command\" option")
	}
	fields := strings.Fields(cmdline)
	return &Process{command: fields[0], args: fields[1:]}, nil
}

// ProcessMessage runs the configured command, writing msg as JSON to
// its stdin and decoding its stdout as a PipelineResult. A non-zero
// exit or malformed stdout is reported as an error.
func (p *Process) ProcessMessage(ctx context.Context, msg types.PipelineMessage) (types.PipelineResult, error) {
	payload, err := json.Marshal(msg)
	if err != nil {
		return types.PipelineResult{}, fmt.Errorf("executors: encode message: %w", err)
	}

	cmd := exec.CommandContext(ctx, p.command, p.args...)
	cmd.Stdin = bytes.NewReader(payload)

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		return types.PipelineResult{}, fmt.Errorf("executors: %s %v: %w (stderr: %s)", p.command, p.args, err, stderr.String())
	}

	var result types.PipelineResult
	if err := json.Unmarshal(stdout.Bytes(), &result); err != nil {
		return types.PipelineResult{}, fmt.Errorf("executors: decode pipeline result: %w", err)
	}
	return result, nil
}

// Close is a no-op: Process spawns one subprocess per message, there is
// no persistent connection to tear down.
func (p *Process) Close(ctx context.Context) error { return nil }
