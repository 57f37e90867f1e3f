// Package autostart is the cross-platform entry point for registering a
// command to run at user login. It validates requests, delegates to the one
// platform.Adapter resolved at construction, and delivers results either as a
// Future or through a callback.
//
// Argument errors are returned synchronously and never reach the Future or
// the callback; every other failure is delivered asynchronously, once.
package autostart

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"

	"github.com/Guliveer/autostart/internal/platform"
)

// Error kinds, shared with package platform.
var (
	ErrInvalidArgument        = platform.ErrInvalidArgument
	ErrUnsupportedPlatform    = platform.ErrUnsupportedPlatform
	ErrAlreadyEnabled         = platform.ErrAlreadyEnabled
	ErrNotEnabled             = platform.ErrNotEnabled
	ErrNativeInvocationFailed = platform.ErrNativeInvocationFailed
	ErrUnexpectedOutput       = platform.ErrUnexpectedOutput
)

// Autostart dispatches autostart operations to a single platform adapter.
// Operations on the same key are serialized within the process.
type Autostart struct {
	adapter  platform.Adapter
	platform string
	logger   *zap.Logger

	locks   *keyLocks
	queries singleflight.Group
}

// Option configures an Autostart.
type Option func(*Autostart)

// WithLogger sets the logger; the default discards everything.
func WithLogger(logger *zap.Logger) Option {
	return func(a *Autostart) {
		if logger != nil {
			a.logger = logger
		}
	}
}

// New returns an Autostart backed by adapter. A nil adapter means the
// running platform is unsupported: every operation then fails with
// ErrUnsupportedPlatform without touching the OS.
func New(adapter platform.Adapter, opts ...Option) *Autostart {
	a := &Autostart{
		adapter: adapter,
		logger:  zap.NewNop(),
		locks:   newKeyLocks(),
	}
	for _, opt := range opts {
		opt(a)
	}
	if adapter != nil {
		a.platform = adapter.Name()
	}
	a.logger = a.logger.Named("autostart")
	return a
}

// NewForPlatform resolves the adapter for goos (a runtime.GOOS style
// identifier) and returns an Autostart bound to it.
func NewForPlatform(goos string, popts platform.Options, opts ...Option) *Autostart {
	adapter, err := platform.New(goos, popts)
	a := New(adapter, opts...)
	if err != nil {
		a.platform = goos
		a.logger.Warn("No autostart adapter for platform", zap.String("platform", goos), zap.Error(err))
	}
	return a
}

// Platform returns the identifier of the platform this instance serves.
func (a *Autostart) Platform() string { return a.platform }

// Supported reports whether an adapter was resolved.
func (a *Autostart) Supported() bool { return a.adapter != nil }

// EnableAutostart registers command to run from workingDirectory at login
// under key. The returned error is non-nil only for invalid arguments.
func (a *Autostart) EnableAutostart(ctx context.Context, key, command, workingDirectory string) (*Future[struct{}], error) {
	spec := platform.Spec{Key: key, Command: command, WorkingDirectory: workingDirectory}
	if err := platform.ValidateSpec("enable", spec); err != nil {
		return nil, err
	}
	return startFuture(func() (struct{}, error) {
		return struct{}{}, a.enable(ctx, spec)
	}), nil
}

// EnableAutostartFunc is EnableAutostart with the outcome passed to done.
func (a *Autostart) EnableAutostartFunc(ctx context.Context, key, command, workingDirectory string, done func(error)) error {
	if done == nil {
		return platform.InvalidArgument("enable", "callback is required")
	}
	f, err := a.EnableAutostart(ctx, key, command, workingDirectory)
	if err != nil {
		return err
	}
	go func() {
		_, err := f.Result()
		done(err)
	}()
	return nil
}

// DisableAutostart removes the registration for key. The returned error is
// non-nil only for invalid arguments.
func (a *Autostart) DisableAutostart(ctx context.Context, key string) (*Future[struct{}], error) {
	if err := platform.ValidateKey("disable", key); err != nil {
		return nil, err
	}
	return startFuture(func() (struct{}, error) {
		return struct{}{}, a.disable(ctx, key)
	}), nil
}

// DisableAutostartFunc is DisableAutostart with the outcome passed to done.
func (a *Autostart) DisableAutostartFunc(ctx context.Context, key string, done func(error)) error {
	if done == nil {
		return platform.InvalidArgument("disable", "callback is required")
	}
	f, err := a.DisableAutostart(ctx, key)
	if err != nil {
		return err
	}
	go func() {
		_, err := f.Result()
		done(err)
	}()
	return nil
}

// IsAutostartEnabled reports whether a registration for key exists. The
// returned error is non-nil only for invalid arguments.
func (a *Autostart) IsAutostartEnabled(ctx context.Context, key string) (*Future[bool], error) {
	if err := platform.ValidateKey("query", key); err != nil {
		return nil, err
	}
	return startFuture(func() (bool, error) {
		return a.isEnabled(ctx, key)
	}), nil
}

// IsAutostartEnabledFunc is IsAutostartEnabled with the outcome passed to
// done. enabled is meaningful only when err is nil.
func (a *Autostart) IsAutostartEnabledFunc(ctx context.Context, key string, done func(err error, enabled bool)) error {
	if done == nil {
		return platform.InvalidArgument("query", "callback is required")
	}
	f, err := a.IsAutostartEnabled(ctx, key)
	if err != nil {
		return err
	}
	go func() {
		enabled, err := f.Result()
		done(err, enabled)
	}()
	return nil
}

// Enable is the blocking form of EnableAutostart.
func (a *Autostart) Enable(ctx context.Context, key, command, workingDirectory string) error {
	f, err := a.EnableAutostart(ctx, key, command, workingDirectory)
	if err != nil {
		return err
	}
	_, err = f.Await(ctx)
	return err
}

// Disable is the blocking form of DisableAutostart.
func (a *Autostart) Disable(ctx context.Context, key string) error {
	f, err := a.DisableAutostart(ctx, key)
	if err != nil {
		return err
	}
	_, err = f.Await(ctx)
	return err
}

// IsEnabled is the blocking form of IsAutostartEnabled.
func (a *Autostart) IsEnabled(ctx context.Context, key string) (bool, error) {
	f, err := a.IsAutostartEnabled(ctx, key)
	if err != nil {
		return false, err
	}
	return f.Await(ctx)
}

func (a *Autostart) enable(ctx context.Context, spec platform.Spec) error {
	log := a.opLogger("enable", spec.Key)
	if a.adapter == nil {
		return a.finish(log, platform.Unsupported("enable", spec.Key, a.platform))
	}

	unlock := a.locks.lock(spec.Key)
	defer unlock()
	// Queries that start after this operation must not join an earlier flight.
	defer a.queries.Forget(spec.Key)

	state, err := a.query(ctx, "enable", spec.Key)
	if err != nil {
		return a.finish(log, err)
	}
	if state == platform.StateEnabled {
		return a.finish(log, platform.StateConflict("enable", spec.Key, ErrAlreadyEnabled))
	}
	return a.finish(log, a.adapter.Enable(ctx, spec))
}

func (a *Autostart) disable(ctx context.Context, key string) error {
	log := a.opLogger("disable", key)
	if a.adapter == nil {
		return a.finish(log, platform.Unsupported("disable", key, a.platform))
	}

	unlock := a.locks.lock(key)
	defer unlock()
	// Queries that start after this operation must not join an earlier flight.
	defer a.queries.Forget(key)

	state, err := a.query(ctx, "disable", key)
	if err != nil {
		return a.finish(log, err)
	}
	if state == platform.StateDisabled {
		return a.finish(log, platform.StateConflict("disable", key, ErrNotEnabled))
	}
	return a.finish(log, a.adapter.Disable(ctx, key))
}

// isEnabled coalesces concurrent queries for the same key into one native
// invocation. enable and disable query the adapter directly so they never
// observe a result computed before they took the key lock, and forget the
// key on the way out so later queries start a fresh flight.
func (a *Autostart) isEnabled(ctx context.Context, key string) (bool, error) {
	log := a.opLogger("query", key)
	if a.adapter == nil {
		return false, a.finish(log, platform.Unsupported("query", key, a.platform))
	}

	v, err, shared := a.queries.Do(key, func() (interface{}, error) {
		return a.query(ctx, "query", key)
	})
	if err != nil {
		return false, a.finish(log, err)
	}
	state := v.(platform.State)
	log.Debug("Query answered", zap.Stringer("state", state), zap.Bool("shared", shared))
	return state == platform.StateEnabled, a.finish(log, nil)
}

// query asks the adapter for the state of key and refuses to turn an
// undetermined state into a boolean.
func (a *Autostart) query(ctx context.Context, op, key string) (platform.State, error) {
	state, err := a.adapter.Query(ctx, key)
	if err != nil {
		return platform.StateUnknown, err
	}
	if state != platform.StateEnabled && state != platform.StateDisabled {
		return platform.StateUnknown, &platform.Error{
			Op:     op,
			Key:    key,
			Kind:   ErrUnexpectedOutput,
			Detail: "adapter reported state " + state.String(),
		}
	}
	return state, nil
}

func (a *Autostart) opLogger(op, key string) *zap.Logger {
	return a.logger.With(
		zap.String("op_id", uuid.NewString()),
		zap.String("op", op),
		zap.String("key", key),
		zap.String("platform", a.platform))
}

func (a *Autostart) finish(log *zap.Logger, err error) error {
	switch {
	case err == nil:
		log.Info("Autostart operation succeeded")
	case errors.Is(err, ErrAlreadyEnabled), errors.Is(err, ErrNotEnabled):
		log.Info("Autostart operation rejected", zap.Error(err))
	default:
		log.Warn("Autostart operation failed", zap.Error(err))
	}
	return err
}
