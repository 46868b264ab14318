// CLAUDE:SUMMARY Bounded external command runner with captured output and not-found/timeout classification.
// Package extrun runs external commands with a hard deadline and captured
// output. It is the single choke point through which planforge shells out
// (pdftoppm, DWG converters, analyzer scripts), so timeout and
// missing-binary handling live in one place.
package extrun

import (
	"bytes"
	"context"
	"errors"
	"os/exec"
	"time"
)

// ErrNotFound reports that the requested binary is not on PATH.
var ErrNotFound = errors.New("extrun: executable not found")

// ErrTimeout reports that the command exceeded its deadline and was killed.
var ErrTimeout = errors.New("extrun: command timed out")

// Result holds the captured output of a finished command.
type Result struct {
	Stdout   []byte
	Stderr   []byte
	ExitCode int
	Duration time.Duration
}

// Run executes name with args under ctx, additionally bounded by timeout
// when timeout > 0. Output is captured in full. The returned error wraps
// ErrNotFound or ErrTimeout where applicable; for a non-zero exit the
// Result is still populated so callers can inspect stderr.
func Run(ctx context.Context, timeout time.Duration, name string, args ...string) (*Result, error) {
	if timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}

	cmd := exec.CommandContext(ctx, name, args...)
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	start := time.Now()
	err := cmd.Run()
	res := &Result{
		Stdout:   stdout.Bytes(),
		Stderr:   stderr.Bytes(),
		Duration: time.Since(start),
	}

	if err == nil {
		return res, nil
	}

	// Deadline wins over the generic "signal: killed" exit error.
	if ctx.Err() == context.DeadlineExceeded {
		res.ExitCode = -1
		return res, ErrTimeout
	}

	var execErr *exec.Error
	if errors.As(err, &execErr) && errors.Is(execErr.Err, exec.ErrNotFound) {
		res.ExitCode = -1
		return res, ErrNotFound
	}

	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) {
		res.ExitCode = exitErr.ExitCode()
		return res, err
	}

	res.ExitCode = -1
	return res, err
}

// Available reports whether name resolves on PATH.
func Available(name string) bool {
	_, err := exec.LookPath(name)
	return err == nil
}
