// Package platformtest provides in-memory stand-ins for the native tools and
// registry keys driven by package platform.
package platformtest

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"

	"github.com/Guliveer/autostart/internal/platform"
)

// Launchctl emulates the launchctl submit/remove/list subcommands.
type Launchctl struct {
	mu    sync.Mutex
	jobs  map[string]string
	calls []platform.Command
}

// NewLaunchctl returns a fake whose listing already holds the given labels.
func NewLaunchctl(labels ...string) *Launchctl {
	l := &Launchctl{jobs: make(map[string]string)}
	for _, label := range labels {
		l.jobs[label] = "/usr/bin/true"
	}
	return l
}

// Run implements platform.Runner.
func (l *Launchctl) Run(ctx context.Context, cmd platform.Command) (platform.Output, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.calls = append(l.calls, cmd)

	if err := ctx.Err(); err != nil {
		return platform.Output{}, err
	}
	if len(cmd.Args) == 0 {
		return platform.Output{Stderr: "usage: launchctl <subcommand>\n", ExitCode: 64}, nil
	}

	switch cmd.Args[0] {
	case "submit":
		if len(cmd.Args) < 5 || cmd.Args[1] != "-l" || cmd.Args[3] != "--" {
			return platform.Output{Stderr: "usage: launchctl submit -l <label> -- <command>\n", ExitCode: 64}, nil
		}
		label := cmd.Args[2]
		if _, ok := l.jobs[label]; ok {
			return platform.Output{Stderr: fmt.Sprintf("%s: Job already loaded\n", label), ExitCode: 1}, nil
		}
		l.jobs[label] = strings.Join(cmd.Args[4:], " ")
		return platform.Output{}, nil
	case "remove":
		if len(cmd.Args) != 2 {
			return platform.Output{Stderr: "usage: launchctl remove <label>\n", ExitCode: 64}, nil
		}
		if _, ok := l.jobs[cmd.Args[1]]; !ok {
			return platform.Output{Stderr: "Could not find specified service\n", ExitCode: 113}, nil
		}
		delete(l.jobs, cmd.Args[1])
		return platform.Output{}, nil
	case "list":
		labels := make([]string, 0, len(l.jobs))
		for label := range l.jobs {
			labels = append(labels, label)
		}
		sort.Strings(labels)
		var b strings.Builder
		b.WriteString("PID\tStatus\tLabel\n")
		for _, label := range labels {
			fmt.Fprintf(&b, "-\t0\t%s\n", label)
		}
		return platform.Output{Stdout: b.String()}, nil
	default:
		return platform.Output{Stderr: "Unrecognized subcommand: " + cmd.Args[0] + "\n", ExitCode: 64}, nil
	}
}

// Program returns the program submitted for label.
func (l *Launchctl) Program(label string) (string, bool) {
	l.mu.Lock()
	defer l.mu.Unlock()
	p, ok := l.jobs[label]
	return p, ok
}

// Calls returns a copy of every command seen so far.
func (l *Launchctl) Calls() []platform.Command {
	l.mu.Lock()
	defer l.mu.Unlock()
	return append([]platform.Command(nil), l.calls...)
}

// Crontab emulates `crontab -l` and `crontab -` for a single user.
type Crontab struct {
	mu       sync.Mutex
	table    string
	hasTable bool
	calls    []platform.Command
}

// NewCrontab returns a fake user without a crontab.
func NewCrontab() *Crontab {
	return &Crontab{}
}

// NewCrontabWithTable returns a fake user whose crontab is table.
func NewCrontabWithTable(table string) *Crontab {
	return &Crontab{table: table, hasTable: true}
}

// Run implements platform.Runner.
func (c *Crontab) Run(ctx context.Context, cmd platform.Command) (platform.Output, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.calls = append(c.calls, cmd)

	if err := ctx.Err(); err != nil {
		return platform.Output{}, err
	}
	switch {
	case len(cmd.Args) == 1 && cmd.Args[0] == "-l":
		if !c.hasTable {
			return platform.Output{Stderr: "no crontab for tester\n", ExitCode: 1}, nil
		}
		return platform.Output{Stdout: c.table}, nil
	case len(cmd.Args) == 1 && cmd.Args[0] == "-":
		c.table = cmd.Stdin
		c.hasTable = true
		return platform.Output{}, nil
	default:
		return platform.Output{Stderr: "crontab: usage error\n", ExitCode: 1}, nil
	}
}

// Table returns the installed crontab.
func (c *Crontab) Table() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.table
}

// Calls returns a copy of every command seen so far.
func (c *Crontab) Calls() []platform.Command {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]platform.Command(nil), c.calls...)
}

// Registry is an in-memory Run key.
type Registry struct {
	mu      sync.Mutex
	values  map[string]string
	opens   int
	OpenErr error
}

// NewRegistry returns an empty Run key.
func NewRegistry() *Registry {
	return &Registry{values: make(map[string]string)}
}

// Open is a platform.Options.OpenRunKey implementation.
func (r *Registry) Open(path string) (platform.RunKey, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.opens++
	if r.OpenErr != nil {
		return nil, r.OpenErr
	}
	return &runKey{r: r}, nil
}

// Value returns the data stored under name.
func (r *Registry) Value(name string) (string, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	v, ok := r.values[name]
	return v, ok
}

// Opens returns how many times the key was opened.
func (r *Registry) Opens() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.opens
}

type runKey struct{ r *Registry }

func (k *runKey) GetStringValue(name string) (string, uint32, error) {
	k.r.mu.Lock()
	defer k.r.mu.Unlock()
	v, ok := k.r.values[name]
	if !ok {
		return "", 0, platform.ErrRunValueNotExist
	}
	return v, 1, nil
}

func (k *runKey) SetStringValue(name, value string) error {
	k.r.mu.Lock()
	defer k.r.mu.Unlock()
	k.r.values[name] = value
	return nil
}

func (k *runKey) DeleteValue(name string) error {
	k.r.mu.Lock()
	defer k.r.mu.Unlock()
	if _, ok := k.r.values[name]; !ok {
		return platform.ErrRunValueNotExist
	}
	delete(k.r.values, name)
	return nil
}

func (k *runKey) Close() error { return nil }
