package platform

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"
)

// RunKey is the subset of a registry key handle used for autostart values.
// golang.org/x/sys/windows/registry.Key satisfies it.
type RunKey interface {
	GetStringValue(name string) (string, uint32, error)
	SetStringValue(name, value string) error
	DeleteValue(name string) error
	Close() error
}

// WindowsAdapter implements Adapter for Windows using string values under the
// current user's Run key.
type WindowsAdapter struct {
	path   string
	open   func(path string) (RunKey, error)
	logger *zap.Logger
}

// NewWindowsAdapter returns an Adapter that edits the HKCU Run key.
func NewWindowsAdapter(opts Options) *WindowsAdapter {
	opts = opts.withDefaults()
	return &WindowsAdapter{
		path:   opts.RunKeyPath,
		open:   opts.OpenRunKey,
		logger: opts.Logger.Named("registry"),
	}
}

// Name returns the platform identifier.
func (w *WindowsAdapter) Name() string { return "windows" }

// Enable writes the value named spec.Key.
func (w *WindowsAdapter) Enable(ctx context.Context, spec Spec) error {
	return w.withKey(ctx, "enable", spec.Key, func(k RunKey) error {
		if err := k.SetStringValue(spec.Key, runCommand(spec)); err != nil {
			return newError("enable", spec.Key, ErrNativeInvocationFailed, "setting Run value", err)
		}
		w.logger.Debug("Set Run value", zap.String("name", spec.Key))
		return nil
	})
}

// Disable deletes the value named key.
func (w *WindowsAdapter) Disable(ctx context.Context, key string) error {
	return w.withKey(ctx, "disable", key, func(k RunKey) error {
		if err := k.DeleteValue(key); err != nil {
			return newError("disable", key, ErrNativeInvocationFailed, "deleting Run value", err)
		}
		w.logger.Debug("Deleted Run value", zap.String("name", key))
		return nil
	})
}

// Query reports whether a value named key exists.
func (w *WindowsAdapter) Query(ctx context.Context, key string) (State, error) {
	state := StateUnknown
	err := w.withKey(ctx, "query", key, func(k RunKey) error {
		_, _, err := k.GetStringValue(key)
		switch {
		case err == nil:
			state = StateEnabled
		case errors.Is(err, ErrRunValueNotExist):
			state = StateDisabled
		default:
			return newError("query", key, ErrNativeInvocationFailed, "reading Run value", err)
		}
		return nil
	})
	if err != nil {
		return StateUnknown, err
	}
	return state, nil
}

func (w *WindowsAdapter) withKey(ctx context.Context, op, name string, fn func(RunKey) error) error {
	if err := ctx.Err(); err != nil {
		return newError(op, name, ErrNativeInvocationFailed, "", err)
	}
	k, err := w.open(w.path)
	if err != nil {
		return newError(op, name, ErrNativeInvocationFailed, fmt.Sprintf("opening %s", w.path), err)
	}
	defer k.Close()
	return fn(k)
}

// runCommand renders the Run value data: cmd.exe changes into the working
// directory before starting the command.
func runCommand(spec Spec) string {
	return fmt.Sprintf(`cmd.exe /d /c "cd /d "%s" && %s"`, spec.WorkingDirectory, spec.Command)
}
