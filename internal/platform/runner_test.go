package platform

import (
	"context"
	"errors"
	"runtime"
	"testing"
	"time"
)

func TestExecRunner(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("uses /bin/sh")
	}
	r := NewExecRunner(0, nil)

	out, err := r.Run(context.Background(), Command{
		Name:  "sh",
		Args:  []string{"-c", "cat; echo oops >&2; exit 3"},
		Stdin: "hello\n",
	})
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if out.ExitCode != 3 {
		t.Errorf("ExitCode = %d, want 3", out.ExitCode)
	}
	if out.Stdout != "hello\n" {
		t.Errorf("Stdout = %q, want %q", out.Stdout, "hello\n")
	}
	if out.Stderr != "oops\n" {
		t.Errorf("Stderr = %q, want %q", out.Stderr, "oops\n")
	}
}

func TestExecRunner_MissingBinary(t *testing.T) {
	r := NewExecRunner(0, nil)
	if _, err := r.Run(context.Background(), Command{Name: "autostart-no-such-tool"}); err == nil {
		t.Fatal("expected an error for a missing binary")
	}
}

func TestExecRunner_Timeout(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("uses sleep")
	}
	r := NewExecRunner(50*time.Millisecond, nil)

	start := time.Now()
	_, err := r.Run(context.Background(), Command{Name: "sleep", Args: []string{"5"}})
	if !errors.Is(err, context.DeadlineExceeded) {
		t.Fatalf("error = %v, want context.DeadlineExceeded", err)
	}
	if time.Since(start) > 4*time.Second {
		t.Error("timeout did not abort the command")
	}
}

func TestRunError(t *testing.T) {
	expired, cancel := context.WithCancel(context.Background())
	cancel()
	startErr := errors.New("exec: no such file")

	tests := []struct {
		name    string
		ctx     context.Context
		err     error
		wantErr error
	}{
		{"finished before the deadline passed", expired, nil, nil},
		{"finished in time", context.Background(), nil, nil},
		{"killed by the deadline", expired, startErr, context.Canceled},
		{"failed to start", context.Background(), startErr, startErr},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var out Output
			err := runError(tt.ctx, "tool", &out, tt.err)
			if tt.wantErr == nil {
				if err != nil {
					t.Errorf("runError() = %v, want nil", err)
				}
				return
			}
			if !errors.Is(err, tt.wantErr) {
				t.Errorf("runError() = %v, want %v", err, tt.wantErr)
			}
		})
	}
}
