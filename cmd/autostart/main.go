// Package main is the autostart command line tool. It registers, removes and
// inspects commands that the current user's OS starts at login.
package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/Guliveer/autostart/internal/autostart"
	"github.com/Guliveer/autostart/internal/config"
	"github.com/Guliveer/autostart/internal/logging"
	"github.com/Guliveer/autostart/internal/platform"
)

// version is set at build time via -ldflags.
var version = "dev"

// app carries what the commands share once the root pre-run has loaded the
// configuration.
type app struct {
	out     io.Writer
	logOut  io.Writer
	runner  platform.Runner
	openKey func(path string) (platform.RunKey, error)

	configPath string
	platform   string
	logLevel   string
	timeout    time.Duration

	cfg      *config.Config
	logger   *zap.Logger
	closeLog func()
	svc      *autostart.Autostart
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	a := &app{out: os.Stdout, logOut: os.Stderr}
	err := newRootCmd(a).ExecuteContext(ctx)
	a.teardown()
	if err != nil {
		fmt.Fprintf(os.Stderr, "autostart: %v\n", err)
		stop()
		os.Exit(1)
	}
}

func newRootCmd(a *app) *cobra.Command {
	root := &cobra.Command{
		Use:   "autostart",
		Short: "Manage commands started at user login",
		CompletionOptions: cobra.CompletionOptions{
			DisableDefaultCmd: true,
		},
		SilenceErrors:     true,
		PersistentPreRunE: a.setup,
		PersistentPostRun: func(cmd *cobra.Command, args []string) {
			a.teardown()
		},
	}
	root.SetOut(a.out)

	flags := root.PersistentFlags()
	flags.StringVarP(&a.configPath, "config", "c", "", "Path to configuration file (default: search standard locations)")
	flags.StringVar(&a.platform, "platform", "", "Force an adapter: darwin, linux or windows")
	flags.StringVar(&a.logLevel, "log-level", "", "Log level: debug, info, warn or error")
	flags.DurationVar(&a.timeout, "timeout", 0, "Bound on each native command, e.g. 10s")

	root.AddCommand(
		newEnableCmd(a),
		newDisableCmd(a),
		newStatusCmd(a),
		newConfigCmd(a),
		newVersionCmd(),
	)
	return root
}

// setup loads the layered configuration, builds the logger and resolves the
// platform adapter.
func (a *app) setup(cmd *cobra.Command, args []string) error {
	cmd.SilenceUsage = true

	cli := config.CLIOverrides{Platform: a.platform, LogLevel: a.logLevel, Timeout: a.timeout}
	var (
		cfg *config.Config
		err error
	)
	if cmd.Flags().Changed("config") {
		cfg, err = config.LoadLayered(cli, embeddedConfig, a.configPath)
	} else {
		cfg, err = config.LoadLayered(cli, embeddedConfig)
	}
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}
	a.cfg = cfg

	logger, closeLog, err := logging.New(cfg.Logging, a.logOut)
	if err != nil {
		return err
	}
	a.logger, a.closeLog = logger, closeLog

	goos := cfg.Platform
	if goos == "" {
		host := platform.Detect(cmd.Context())
		logger.Debug("Detected host",
			zap.String("os", host.OS),
			zap.String("name", host.Name),
			zap.String("version", host.Version))
		goos = host.OS
	}

	a.svc = autostart.NewForPlatform(goos, platform.Options{
		Runner:       a.runner,
		Logger:       logger,
		Timeout:      cfg.CommandTimeout.Duration,
		Launchctl:    cfg.Launchd.Launchctl,
		Shell:        cfg.Launchd.Shell,
		Crontab:      cfg.Cron.Crontab,
		MarkerPrefix: cfg.Cron.MarkerPrefix,
		RunKeyPath:   cfg.Registry.RunKey,
		OpenRunKey:   a.openKey,
	}, autostart.WithLogger(logger))
	return nil
}

func (a *app) teardown() {
	if a.closeLog != nil {
		a.closeLog()
		a.closeLog = nil
	}
}
