package installer

import (
	"context"
	"os"
	"os/exec"
)

// Runner abstracts external installer process execution so the install
// path is testable without spawning anything.
type Runner interface {
	// Look reports whether the binary is resolvable on PATH.
	Look(binary string) error
	// Run executes the binary with inherited stdio and returns its
	// exit code.
	Run(ctx context.Context, binary string, args []string) (int, error)
}

type execRunner struct{}

// NewRunner returns the production process runner.
func NewRunner() Runner {
	return execRunner{}
}

func (execRunner) Look(binary string) error {
	_, err := exec.LookPath(binary)
	return err
}

func (execRunner) Run(ctx context.Context, binary string, args []string) (int, error) {
	cmd := exec.CommandContext(ctx, binary, args...)
	cmd.Stdout = os.Stdout
	cmd.Stderr = os.Stderr
	cmd.Stdin = os.Stdin

	err := cmd.Run()
	if err != nil {
		if exitErr, ok := err.(*exec.ExitError); ok {
			return exitErr.ExitCode(), nil
		}
		return -1, err
	}

	return 0, nil
}
