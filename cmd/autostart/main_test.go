package main

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Guliveer/autostart/internal/autostart"
	"github.com/Guliveer/autostart/internal/config"
	"github.com/Guliveer/autostart/internal/platform/platformtest"
)

type harness struct {
	app     *app
	out     bytes.Buffer
	log     bytes.Buffer
	crontab *platformtest.Crontab
	reg     *platformtest.Registry
}

func newHarness(t *testing.T) *harness {
	t.Helper()
	for _, name := range []string{"AUTOSTART_PLATFORM", "AUTOSTART_LOG_LEVEL", "AUTOSTART_TIMEOUT"} {
		t.Setenv(name, "")
	}
	h := &harness{crontab: platformtest.NewCrontab(), reg: platformtest.NewRegistry()}
	h.app = &app{out: &h.out, logOut: &h.log, runner: h.crontab, openKey: h.reg.Open}
	return h
}

func (h *harness) run(args ...string) error {
	h.out.Reset()
	defer h.app.teardown()
	root := newRootCmd(h.app)
	root.SetArgs(append([]string{"--config", ""}, args...))
	return root.Execute()
}

func TestCLI_Lifecycle(t *testing.T) {
	h := newHarness(t)

	require.NoError(t, h.run("--platform", "linux", "enable", "com.test.app", "echo hi", "/tmp"))
	assert.Equal(t, "com.test.app enabled\n", h.out.String())
	assert.Contains(t, h.crontab.Table(), "# autostart:com.test.app")

	require.NoError(t, h.run("--platform", "linux", "status", "com.test.app", "com.other"))
	lines := strings.Split(strings.TrimSpace(h.out.String()), "\n")
	require.Len(t, lines, 3)
	assert.Equal(t, []string{"KEY", "STATE"}, strings.Fields(lines[0]))
	assert.Equal(t, []string{"com.test.app", "enabled"}, strings.Fields(lines[1]))
	assert.Equal(t, []string{"com.other", "disabled"}, strings.Fields(lines[2]))

	require.NoError(t, h.run("--platform", "linux", "disable", "com.test.app"))
	assert.Equal(t, "com.test.app disabled\n", h.out.String())
	assert.NotContains(t, h.crontab.Table(), "com.test.app")
}

func TestCLI_Errors(t *testing.T) {
	h := newHarness(t)

	err := h.run("--platform", "linux", "disable", "com.test.app")
	assert.ErrorIs(t, err, autostart.ErrNotEnabled)

	err = h.run("--platform", "linux", "enable", "bad key", "echo hi", "/tmp")
	assert.ErrorIs(t, err, autostart.ErrInvalidArgument)

	err = h.run("--platform", "plan9", "status", "com.test.app")
	assert.Error(t, err, "unknown platform is rejected by config validation")

	assert.Error(t, h.run("--platform", "linux", "enable", "only-key"))
}

func TestCLI_Windows(t *testing.T) {
	h := newHarness(t)

	require.NoError(t, h.run("--platform", "windows", "enable", "com.test.app", "app.exe", `C:\App`))
	data, ok := h.reg.Value("com.test.app")
	require.True(t, ok)
	assert.Contains(t, data, "app.exe")

	err := h.run("--platform", "windows", "enable", "com.test.app", "app.exe", `C:\App`)
	assert.ErrorIs(t, err, autostart.ErrAlreadyEnabled)
}

func TestCLI_LogLevelAndTimeoutFlags(t *testing.T) {
	h := newHarness(t)

	require.NoError(t, h.run("--platform", "linux", "--log-level", "debug", "--timeout", "3s", "status", "com.test.app"))
	assert.Equal(t, "debug", h.app.cfg.Logging.Level)
	assert.Equal(t, "3s", h.app.cfg.CommandTimeout.Duration.String())
	assert.Contains(t, h.log.String(), "com.test.app")
}

func TestCLI_ConfigInit(t *testing.T) {
	h := newHarness(t)
	path := filepath.Join(t.TempDir(), "autostart", "config.yaml")

	require.NoError(t, h.run("--platform", "darwin", "config", "init", path))
	assert.Equal(t, "wrote "+path+"\n", h.out.String())

	cfg, err := config.Load(path)
	require.NoError(t, err)
	assert.Equal(t, "darwin", cfg.Platform)

	assert.Error(t, h.run("config", "init", path), "existing file needs --force")
	require.NoError(t, h.run("config", "init", "--force", path))

	_, err = os.Stat(path)
	assert.NoError(t, err)
}

func TestCLI_Version(t *testing.T) {
	h := newHarness(t)

	// an invalid platform must not matter for version
	require.NoError(t, h.run("--platform", "plan9", "version"))
	assert.Equal(t, "autostart dev\n", h.out.String())
}
