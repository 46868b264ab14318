package extrun

import (
	"context"
	"errors"
	"testing"
	"time"
)

func TestRunCapturesStdout(t *testing.T) {
	res, err := Run(context.Background(), 0, "echo", "hello")
	if err != nil {
		t.Fatal(err)
	}
	if string(res.Stdout) != "hello\n" {
		t.Fatalf("stdout = %q, want %q", res.Stdout, "hello\n")
	}
	if res.ExitCode != 0 {
		t.Fatalf("exit code = %d, want 0", res.ExitCode)
	}
}

func TestRunNotFound(t *testing.T) {
	_, err := Run(context.Background(), 0, "definitely-not-a-binary-7b3f")
	if !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestRunTimeout(t *testing.T) {
	_, err := Run(context.Background(), 50*time.Millisecond, "sleep", "5")
	if !errors.Is(err, ErrTimeout) {
		t.Fatalf("expected ErrTimeout, got %v", err)
	}
}

func TestRunNonZeroExit(t *testing.T) {
	res, err := Run(context.Background(), 0, "sh", "-c", "echo oops >&2; exit 3")
	if err == nil {
		t.Fatal("expected error for non-zero exit")
	}
	if res.ExitCode != 3 {
		t.Fatalf("exit code = %d, want 3", res.ExitCode)
	}
	if string(res.Stderr) != "oops\n" {
		t.Fatalf("stderr = %q, want %q", res.Stderr, "oops\n")
	}
}

func TestAvailable(t *testing.T) {
	if !Available("sh") {
		t.Error("sh should be available")
	}
	if Available("definitely-not-a-binary-7b3f") {
		t.Error("nonexistent binary reported available")
	}
}
