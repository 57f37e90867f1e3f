package platform

import (
	"context"
	"fmt"
	"strings"

	"go.uber.org/zap"
)

// DarwinAdapter implements Adapter for macOS using per-user launchd jobs
// submitted through launchctl.
type DarwinAdapter struct {
	runner    Runner
	launchctl string
	shell     string
	logger    *zap.Logger
}

// NewDarwinAdapter returns an Adapter that drives launchctl.
func NewDarwinAdapter(opts Options) *DarwinAdapter {
	opts = opts.withDefaults()
	return &DarwinAdapter{
		runner:    opts.Runner,
		launchctl: opts.Launchctl,
		shell:     opts.Shell,
		logger:    opts.Logger.Named("launchd"),
	}
}

// Name returns the platform identifier.
func (d *DarwinAdapter) Name() string { return "darwin" }

// Enable submits a job labelled spec.Key that runs spec.Command from
// spec.WorkingDirectory.
func (d *DarwinAdapter) Enable(ctx context.Context, spec Spec) error {
	script := fmt.Sprintf("cd %s && %s", shellQuote(spec.WorkingDirectory), spec.Command)
	cmd := Command{
		Name: d.launchctl,
		Args: []string{"submit", "-l", spec.Key, "--", d.shell, "-c", script},
	}
	out, err := d.runner.Run(ctx, cmd)
	if err := checkInvocation("enable", spec.Key, out, err); err != nil {
		return err
	}
	d.logger.Debug("Submitted launchd job", zap.String("label", spec.Key))
	return nil
}

// Disable removes the job labelled key.
func (d *DarwinAdapter) Disable(ctx context.Context, key string) error {
	out, err := d.runner.Run(ctx, Command{Name: d.launchctl, Args: []string{"remove", key}})
	if err := checkInvocation("disable", key, out, err); err != nil {
		return err
	}
	d.logger.Debug("Removed launchd job", zap.String("label", key))
	return nil
}

// Query lists the user's launchd jobs and looks for a Label equal to key.
func (d *DarwinAdapter) Query(ctx context.Context, key string) (State, error) {
	out, err := d.runner.Run(ctx, Command{Name: d.launchctl, Args: []string{"list"}})
	if err != nil || out.ExitCode != 0 {
		return StateUnknown, checkInvocation("query", key, out, err)
	}
	return parseLaunchctlList("query", key, out.Stdout)
}

// parseLaunchctlList scans the tab separated "PID Status Label" table printed
// by `launchctl list`. An empty listing is not evidence of absence: the
// user's own session always has jobs, so it is reported as unexpected.
func parseLaunchctlList(op, key, listing string) (State, error) {
	lines := strings.Split(strings.ReplaceAll(listing, "\r\n", "\n"), "\n")

	headerSeen := false
	state := StateDisabled
	for _, line := range lines {
		if strings.TrimSpace(line) == "" {
			continue
		}
		fields := strings.SplitN(line, "\t", 3)
		for i := range fields {
			fields[i] = strings.TrimSpace(fields[i])
		}
		if !headerSeen {
			if len(fields) != 3 || fields[0] != "PID" || fields[1] != "Status" || fields[2] != "Label" {
				return StateUnknown, newError(op, key, ErrUnexpectedOutput,
					fmt.Sprintf("missing launchctl list header, got %q", line), nil)
			}
			headerSeen = true
			continue
		}
		if len(fields) != 3 {
			return StateUnknown, newError(op, key, ErrUnexpectedOutput,
				fmt.Sprintf("malformed launchctl list row %q", line), nil)
		}
		if fields[2] == key {
			state = StateEnabled
		}
	}
	if !headerSeen {
		return StateUnknown, newError(op, key, ErrUnexpectedOutput, "empty launchctl list output", nil)
	}
	return state, nil
}

// shellQuote wraps s in single quotes for /bin/sh.
func shellQuote(s string) string {
	return "'" + strings.ReplaceAll(s, "'", `'\''`) + "'"
}
