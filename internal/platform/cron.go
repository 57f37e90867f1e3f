package platform

import (
	"context"
	"fmt"
	"strings"

	"go.uber.org/zap"
)

// LinuxAdapter implements Adapter for Linux using an @reboot line in the
// user's crontab. Each entry ends with a "# <prefix><key>" marker which is
// the only thing ever matched.
type LinuxAdapter struct {
	runner  Runner
	crontab string
	prefix  string
	logger  *zap.Logger
}

// NewLinuxAdapter returns an Adapter that edits the user's crontab.
func NewLinuxAdapter(opts Options) *LinuxAdapter {
	opts = opts.withDefaults()
	return &LinuxAdapter{
		runner:  opts.Runner,
		crontab: opts.Crontab,
		prefix:  opts.MarkerPrefix,
		logger:  opts.Logger.Named("cron"),
	}
}

// Name returns the platform identifier.
func (l *LinuxAdapter) Name() string { return "linux" }

// Enable appends an @reboot entry for spec and installs the new table.
func (l *LinuxAdapter) Enable(ctx context.Context, spec Spec) error {
	// A line break would leave part of the entry without its marker.
	if err := ValidateSpec("enable", spec); err != nil {
		return err
	}
	lines, err := l.readTable(ctx, "enable", spec.Key)
	if err != nil {
		return err
	}
	lines = append(lines, l.entry(spec))
	if err := l.writeTable(ctx, "enable", spec.Key, lines); err != nil {
		return err
	}
	l.logger.Debug("Added crontab entry", zap.String("key", spec.Key))
	return nil
}

// Disable drops every entry marked with key and installs the new table.
// Lines that do not belong to key are kept as they were.
func (l *LinuxAdapter) Disable(ctx context.Context, key string) error {
	lines, err := l.readTable(ctx, "disable", key)
	if err != nil {
		return err
	}
	kept := lines[:0]
	removed := 0
	for _, line := range lines {
		if l.matches(line, key) {
			removed++
			continue
		}
		kept = append(kept, line)
	}
	if err := l.writeTable(ctx, "disable", key, kept); err != nil {
		return err
	}
	l.logger.Debug("Removed crontab entries", zap.String("key", key), zap.Int("count", removed))
	return nil
}

// Query reports whether the table holds an entry marked with key.
func (l *LinuxAdapter) Query(ctx context.Context, key string) (State, error) {
	lines, err := l.readTable(ctx, "query", key)
	if err != nil {
		return StateUnknown, err
	}
	for _, line := range lines {
		if l.matches(line, key) {
			return StateEnabled, nil
		}
	}
	return StateDisabled, nil
}

// entry renders the crontab line for spec. cron treats an unescaped % as a
// newline, so it is escaped in the command part.
func (l *LinuxAdapter) entry(spec Spec) string {
	command := strings.ReplaceAll(spec.Command, "%", `\%`)
	dir := strings.ReplaceAll(shellQuote(spec.WorkingDirectory), "%", `\%`)
	return fmt.Sprintf("@reboot cd %s && %s # %s%s", dir, command, l.prefix, spec.Key)
}

// matches reports whether line is an entry whose trailing marker is exactly
// prefix+key.
func (l *LinuxAdapter) matches(line, key string) bool {
	trimmed := strings.TrimSpace(line)
	if trimmed == "" || strings.HasPrefix(trimmed, "#") {
		return false
	}
	idx := strings.LastIndex(trimmed, " # ")
	if idx < 0 {
		return false
	}
	return strings.TrimSpace(trimmed[idx+3:]) == l.prefix+key
}

// readTable returns the current crontab lines. A user without a crontab has
// an empty table.
func (l *LinuxAdapter) readTable(ctx context.Context, op, key string) ([]string, error) {
	out, err := l.runner.Run(ctx, Command{Name: l.crontab, Args: []string{"-l"}})
	if err != nil {
		return nil, newError(op, key, ErrNativeInvocationFailed, "", err)
	}
	if out.ExitCode != 0 {
		if out.ExitCode == 1 && strings.Contains(strings.ToLower(out.Stderr), "no crontab for") {
			return nil, nil
		}
		return nil, checkInvocation(op, key, out, nil)
	}

	text := strings.TrimRight(strings.ReplaceAll(out.Stdout, "\r\n", "\n"), "\n")
	if text == "" {
		return nil, nil
	}
	return strings.Split(text, "\n"), nil
}

func (l *LinuxAdapter) writeTable(ctx context.Context, op, key string, lines []string) error {
	table := ""
	if len(lines) > 0 {
		table = strings.Join(lines, "\n") + "\n"
	}
	out, err := l.runner.Run(ctx, Command{Name: l.crontab, Args: []string{"-"}, Stdin: table})
	return checkInvocation(op, key, out, err)
}
