package engine

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os/exec"
	"regexp"
	"strconv"
	"strings"
)

// ErrUnavailable wraps failures to launch the engine process, as opposed to
// the engine rejecting a snippet.
var ErrUnavailable = errors.New("formatting engine unavailable")

// Exec formats snippets by piping them through an external command, one
// process per snippet. The command must read code on stdin and write the
// formatted result to stdout ('black -' style).
type Exec struct {
	// Command is the executable to run.
	Command string
	// Args are passed before the line-length flag.
	Args []string
	// LineLengthFlag is appended with the budget value; empty disables it.
	LineLengthFlag string
}

// NewExec builds an Exec engine with the conventional stdin/stdout contract.
func NewExec(command string, args ...string) *Exec {
	return &Exec{Command: command, Args: args, LineLengthFlag: "--line-length"}
}

func (e *Exec) Name() string {
	return e.Command
}

// errLocation matches "line N" or "N:M" position hints in engine stderr.
var errLocation = regexp.MustCompile(`(?:line (\d+)|(\d+):(\d+))`)

func (e *Exec) FormatSnippet(ctx context.Context, code string, lineLength int) (string, error) {
	argv := append([]string{}, e.Args...)
	if e.LineLengthFlag != "" && lineLength > 0 {
		argv = append(argv, e.LineLengthFlag, strconv.Itoa(lineLength))
	}

	cmd := exec.CommandContext(ctx, e.Command, argv...)
	cmd.Stdin = strings.NewReader(code)
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	err := cmd.Run()
	if err == nil {
		return stdout.String(), nil
	}
	if ctx.Err() != nil {
		return "", ctx.Err()
	}

	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) {
		return "", syntaxErrorFrom(stderr.String())
	}
	return "", fmt.Errorf("%w: running %s: %v", ErrUnavailable, e.Command, err)
}

// syntaxErrorFrom extracts a best-effort snippet position from the engine's
// stderr output.
func syntaxErrorFrom(stderr string) *SyntaxError {
	msg := strings.TrimSpace(stderr)
	if i := strings.IndexByte(msg, '\n'); i >= 0 {
		msg = msg[:i]
	}
	se := &SyntaxError{Msg: msg}
	if m := errLocation.FindStringSubmatch(stderr); m != nil {
		if m[1] != "" {
			se.Line, _ = strconv.Atoi(m[1])
		} else {
			se.Line, _ = strconv.Atoi(m[2])
			se.Col, _ = strconv.Atoi(m[3])
		}
	}
	return se
}
