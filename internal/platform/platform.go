// Package platform translates autostart registration requests into the native
// per-user login mechanism of each operating system.
// Each supported OS implements the Adapter interface.
package platform

import (
	"context"
	"time"

	"go.uber.org/zap"
)

// Spec describes a login autostart registration.
type Spec struct {
	Key              string
	Command          string
	WorkingDirectory string
}

// State is the tri-state result of a query.
type State int

const (
	StateUnknown State = iota
	StateEnabled
	StateDisabled
)

func (s State) String() string {
	switch s {
	case StateEnabled:
		return "enabled"
	case StateDisabled:
		return "disabled"
	default:
		return "unknown"
	}
}

// Adapter registers, removes and queries autostart entries against one
// operating system's native mechanism. Keys are compared byte-for-byte.
type Adapter interface {
	// Name returns the platform identifier (darwin, linux, windows).
	Name() string

	// Enable creates the native registration for spec.Key.
	Enable(ctx context.Context, spec Spec) error

	// Disable removes the native registration for key.
	Disable(ctx context.Context, key string) error

	// Query reports whether a registration for key exists. A nil error is
	// never returned together with StateUnknown.
	Query(ctx context.Context, key string) (State, error)
}

// Options configures adapter construction. Zero values select defaults.
type Options struct {
	Runner  Runner
	Logger  *zap.Logger
	Timeout time.Duration

	Launchctl string
	Shell     string

	Crontab      string
	MarkerPrefix string

	RunKeyPath string
	OpenRunKey func(path string) (RunKey, error)
}

const (
	defaultLaunchctl    = "launchctl"
	defaultShell        = "/bin/sh"
	defaultCrontab      = "crontab"
	defaultMarkerPrefix = "autostart:"
	defaultRunKeyPath   = `Software\Microsoft\Windows\CurrentVersion\Run`
)

func (o Options) withDefaults() Options {
	if o.Logger == nil {
		o.Logger = zap.NewNop()
	}
	if o.Runner == nil {
		o.Runner = NewExecRunner(o.Timeout, o.Logger)
	}
	if o.Launchctl == "" {
		o.Launchctl = defaultLaunchctl
	}
	if o.Shell == "" {
		o.Shell = defaultShell
	}
	if o.Crontab == "" {
		o.Crontab = defaultCrontab
	}
	if o.MarkerPrefix == "" {
		o.MarkerPrefix = defaultMarkerPrefix
	}
	if o.RunKeyPath == "" {
		o.RunKeyPath = defaultRunKeyPath
	}
	if o.OpenRunKey == nil {
		o.OpenRunKey = openUserRunKey
	}
	return o
}

// New returns the Adapter for the given OS identifier (runtime.GOOS values).
func New(goos string, opts Options) (Adapter, error) {
	opts = opts.withDefaults()
	switch goos {
	case "darwin":
		return NewDarwinAdapter(opts), nil
	case "linux":
		return NewLinuxAdapter(opts), nil
	case "windows":
		// The registry is only reachable from windows builds unless a
		// RunKey opener was supplied.
		if opts.OpenRunKey == nil {
			return nil, Unsupported("resolve", "", goos)
		}
		return NewWindowsAdapter(opts), nil
	default:
		return nil, Unsupported("resolve", "", goos)
	}
}
