// Package script executes one external command at a time through the system
// shell and reports its exit code.
package script

import (
	"context"
	"errors"
	"fmt"
	"os/exec"
	"runtime"
	"strings"

	"batchrunner/engine"
	"batchrunner/log"
)

// Runner shells out one command per call and blocks until it exits. The shell
// indirection keeps argument handling identical to typing the same line at a
// prompt: quoting, redirection and script shebangs all behave as the user
// expects.
//
// Runner implements engine.ScriptRunner. A command that starts and exits
// returns its exit code with a nil error regardless of the code's value; an
// error return means the command never ran. Errors wrapping
// engine.ErrShellUnavailable indicate the shell itself is broken and nothing
// else will run either.
type Runner struct {
	shell    string
	shellArg string
	lookErr  error
}

// NewRunner resolves the platform shell. Resolution failure is not returned
// here; it surfaces from the first Run call as an environment-level error so
// the engine's fatal-failure path handles it like any other run.
func NewRunner() *Runner {
	name, arg := "sh", "-c"
	if runtime.GOOS == "windows" {
		name, arg = "cmd", "/C"
	}

	path, err := exec.LookPath(name)
	if err != nil {
		log.ErrorLog.Printf("shell %q not found: %v", name, err)
		return &Runner{lookErr: err}
	}
	return &Runner{shell: path, shellArg: arg}
}

// Run executes "command args" through the shell and waits for it to finish.
// Output is discarded; tasks that need their output should redirect it
// themselves.
func (r *Runner) Run(ctx context.Context, command, args string) (int, error) {
	if r.lookErr != nil {
		return 0, fmt.Errorf("%w: %v", engine.ErrShellUnavailable, r.lookErr)
	}

	line := command
	if strings.TrimSpace(args) != "" {
		line = command + " " + args
	}

	cmd := exec.CommandContext(ctx, r.shell, r.shellArg, line)
	err := cmd.Run()
	if err == nil {
		return 0, nil
	}

	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) {
		return exitErr.ExitCode(), nil
	}
	if errors.Is(err, exec.ErrNotFound) {
		return 0, fmt.Errorf("%w: %v", engine.ErrShellUnavailable, err)
	}
	// The shell binary resolved earlier but could not be started now.
	return 0, fmt.Errorf("%w: starting %s: %v", engine.ErrShellUnavailable, r.shell, err)
}
