package platform_test

import (
	"context"
	"errors"
	"testing"

	"github.com/Guliveer/autostart/internal/platform"
	"github.com/Guliveer/autostart/internal/platform/platformtest"
)

func TestWindowsAdapter_Lifecycle(t *testing.T) {
	ctx := context.Background()
	reg := platformtest.NewRegistry()
	adapter := platform.NewWindowsAdapter(platform.Options{OpenRunKey: reg.Open})

	spec := platform.Spec{Key: "com.test.app", Command: "app.exe --tray", WorkingDirectory: `C:\Program Files\App`}

	state, err := adapter.Query(ctx, spec.Key)
	if err != nil || state != platform.StateDisabled {
		t.Fatalf("Query before enable = %v, %v; want disabled", state, err)
	}

	if err := adapter.Enable(ctx, spec); err != nil {
		t.Fatalf("Enable: %v", err)
	}
	value, ok := reg.Value(spec.Key)
	if !ok {
		t.Fatal("Run value was not written")
	}
	want := `cmd.exe /d /c "cd /d "C:\Program Files\App" && app.exe --tray"`
	if value != want {
		t.Errorf("value = %q, want %q", value, want)
	}

	state, err = adapter.Query(ctx, spec.Key)
	if err != nil || state != platform.StateEnabled {
		t.Fatalf("Query after enable = %v, %v; want enabled", state, err)
	}

	if err := adapter.Disable(ctx, spec.Key); err != nil {
		t.Fatalf("Disable: %v", err)
	}
	if _, ok := reg.Value(spec.Key); ok {
		t.Error("Run value still present after disable")
	}
	if reg.Opens() != 4 {
		t.Errorf("key opened %d times, want once per operation (4)", reg.Opens())
	}
}

func TestWindowsAdapter_OpenFailure(t *testing.T) {
	reg := platformtest.NewRegistry()
	reg.OpenErr = errors.New("Access is denied.")
	adapter := platform.NewWindowsAdapter(platform.Options{OpenRunKey: reg.Open})

	state, err := adapter.Query(context.Background(), "k")
	if state != platform.StateUnknown {
		t.Errorf("state = %v, want unknown", state)
	}
	if !errors.Is(err, platform.ErrNativeInvocationFailed) {
		t.Errorf("error = %v, want ErrNativeInvocationFailed", err)
	}
	if !errors.Is(err, reg.OpenErr) {
		t.Errorf("error = %v should wrap the registry error", err)
	}
}

func TestWindowsAdapter_DisableMissingValue(t *testing.T) {
	reg := platformtest.NewRegistry()
	adapter := platform.NewWindowsAdapter(platform.Options{OpenRunKey: reg.Open})

	err := adapter.Disable(context.Background(), "k")
	if !errors.Is(err, platform.ErrNativeInvocationFailed) {
		t.Errorf("error = %v, want ErrNativeInvocationFailed", err)
	}
}

func TestWindowsAdapter_CancelledContext(t *testing.T) {
	reg := platformtest.NewRegistry()
	adapter := platform.NewWindowsAdapter(platform.Options{OpenRunKey: reg.Open})

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	if _, err := adapter.Query(ctx, "k"); !errors.Is(err, context.Canceled) {
		t.Errorf("error = %v, want context.Canceled", err)
	}
	if reg.Opens() != 0 {
		t.Errorf("key opened %d times after cancellation", reg.Opens())
	}
}
