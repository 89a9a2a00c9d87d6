// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package cli

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/jeranaias/queryosity-tui/internal/api"
	"github.com/jeranaias/queryosity-tui/internal/config"
	"github.com/jeranaias/queryosity-tui/internal/session"
)

// Version information (set via ldflags or from main)
var (
	Version   = "dev"
	GitCommit = "unknown"
	BuildDate = "unknown"
)

// annotationTUI marks commands that own the terminal. Their logs go to the
// log file instead of stderr.
const annotationTUI = "tui"

// =============================================================================
// APP
// =============================================================================

// App carries the state shared by every command of one invocation.
type App struct {
	In  io.Reader
	Out io.Writer
	Err io.Writer

	// Now is the clock used for expiry checks.
	Now func() time.Time

	Config *config.Config
	Client *api.Client
	Store  *session.Store
	Logger *slog.Logger

	storage   session.Storage
	logCloser io.Closer
	reader    *bufio.Reader

	configPath string
	baseURL    string
	verbose    bool
}

// NewApp returns an App bound to the process's standard streams.
func NewApp() *App {
	return &App{
		In:  os.Stdin,
		Out: os.Stdout,
		Err: os.Stderr,
		Now: time.Now,
	}
}

// Command builds the command tree.
func (a *App) Command() *cobra.Command {
	root := &cobra.Command{
		Use:   "queryosity",
		Short: "Ask questions about your documents from the terminal",
		Long: `queryosity is a terminal client for a Queryosity document-QA server.

Run without arguments to open the interactive UI. Subcommands expose the
same operations for scripting; all of them share the stored session.`,
		Version:           fmt.Sprintf("%s (commit %s, built %s)", Version, GitCommit, BuildDate),
		Annotations:       map[string]string{annotationTUI: "true"},
		SilenceUsage:      true,
		SilenceErrors:     true,
		Args:              cobra.NoArgs,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error { return a.setup(cmd) },
		PersistentPostRun: func(cmd *cobra.Command, args []string) { a.Close() },
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.runTUI(cmd.Context())
		},
	}

	root.SetIn(a.In)
	root.SetOut(a.Out)
	root.SetErr(a.Err)

	flags := root.PersistentFlags()
	flags.StringVar(&a.configPath, "config", "", "config file (default ~/.queryosity/config.toml)")
	flags.StringVar(&a.baseURL, "base-url", "", "backend origin, overrides the config file")
	flags.BoolVarP(&a.verbose, "verbose", "v", false, "log requests to stderr")

	root.AddCommand(
		a.tuiCmd(),
		a.registerCmd(),
		a.loginCmd(),
		a.logoutCmd(),
		a.whoamiCmd(),
		a.filesCmd(),
		a.uploadCmd(),
		a.deleteCmd(),
		a.askCmd(),
		a.clearCmd(),
		a.chatCmd(),
		a.configCmd(),
	)
	return root
}

func (a *App) tuiCmd() *cobra.Command {
	return &cobra.Command{
		Use:         "tui",
		Short:       "Open the interactive UI (the default)",
		Annotations: map[string]string{annotationTUI: "true"},
		Args:        cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.runTUI(cmd.Context())
		},
	}
}

// setup loads configuration and builds the client and session store.
func (a *App) setup(cmd *cobra.Command) error {
	var (
		cfg *config.Config
		err error
	)
	if a.configPath != "" {
		cfg, err = config.LoadFromPath(a.configPath)
	} else {
		cfg, err = config.Load()
	}
	if err != nil {
		return err
	}
	if a.baseURL != "" {
		cfg.Server.BaseURL = strings.TrimRight(a.baseURL, "/")
		if err := cfg.Validate(); err != nil {
			return fmt.Errorf("invalid --base-url: %w", err)
		}
	}
	config.SetGlobal(cfg)
	a.Config = cfg

	if err := config.EnsureConfigDir(); err != nil {
		return err
	}

	logger, closer, err := newLogger(cfg, a.Err, a.verbose, ownsTerminal(cmd))
	if err != nil {
		return err
	}
	a.Logger = logger
	a.logCloser = closer
	slog.SetDefault(logger)

	path, err := cfg.SessionPath()
	if err != nil {
		return err
	}
	storage, err := session.OpenStorage(cfg.Session.Backend, path)
	if err != nil {
		return NewCommandError("startup", "cannot open session storage", err)
	}
	a.storage = storage
	a.Store = session.NewStore(storage)

	a.Client = api.NewClientWithConfig(&api.ClientConfig{
		BaseURL:   cfg.Server.BaseURL,
		Timeout:   cfg.Server.Timeout(),
		RateLimit: cfg.Server.RateLimit,
		UserAgent: "queryosity/" + Version,
		Logger:    logger,
	})

	logger.Debug("startup", "version", Version, "base_url", cfg.Server.BaseURL, "session_backend", cfg.Session.Backend)
	return nil
}

// Close releases the session storage and the log file.
func (a *App) Close() {
	if a.storage != nil {
		if err := session.CloseStorage(a.storage); err != nil && a.Logger != nil {
			a.Logger.Warn("closing session storage", "error", err)
		}
		a.storage = nil
	}
	if a.logCloser != nil {
		a.logCloser.Close()
		a.logCloser = nil
	}
}

func ownsTerminal(cmd *cobra.Command) bool {
	return cmd.Annotations[annotationTUI] == "true"
}

// =============================================================================
// SESSION HELPERS
// =============================================================================

// requireSession returns the stored credential and its claims. Expired and
// malformed credentials are removed from storage.
func (a *App) requireSession() (string, *session.Claims, error) {
	token, claims, err := a.Store.LoadValid(a.Now())
	switch {
	case err == nil:
		return token, claims, nil
	case errors.Is(err, session.ErrNoToken):
		return "", nil, ErrNotLoggedIn
	case errors.Is(err, session.ErrTokenExpired), errors.Is(err, session.ErrMalformedToken):
		return "", nil, ErrSessionExpired
	default:
		return "", nil, err
	}
}

// interruptible returns a context canceled by SIGINT or SIGTERM.
func interruptible(parent context.Context) (context.Context, context.CancelFunc) {
	if parent == nil {
		parent = context.Background()
	}
	return signal.NotifyContext(parent, os.Interrupt, syscall.SIGTERM)
}

// =============================================================================
// ENTRY POINT
// =============================================================================

// Execute runs the command line and returns the process exit code.
func Execute() int {
	return NewApp().Run(os.Args[1:])
}

// Run executes args and returns the exit code.
func (a *App) Run(args []string) int {
	root := a.Command()
	root.SetArgs(args)
	defer a.Close()

	err := root.ExecuteContext(context.Background())
	if err == nil {
		return ExitSuccess
	}
	DisplayError(a.Err, err)
	if isUsageError(err) {
		return ExitUsageError
	}
	return ExitCode(err)
}

// isUsageError reports cobra's argument and flag errors.
func isUsageError(err error) bool {
	msg := err.Error()
	return strings.HasPrefix(msg, "unknown command") ||
		strings.HasPrefix(msg, "unknown flag") ||
		strings.HasPrefix(msg, "unknown shorthand flag") ||
		strings.Contains(msg, "arg(s)") ||
		strings.HasPrefix(msg, "required flag")
}
