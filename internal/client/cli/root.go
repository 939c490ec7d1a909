package cli

import (
	"context"
	"fmt"
	"io"
	"os"
	"sync"

	"github.com/spf13/cobra"

	"github.com/dmitrijs2005/gophblog/internal/buildinfo"
	"github.com/dmitrijs2005/gophblog/internal/client/config"
	"github.com/dmitrijs2005/gophblog/internal/logging"
)

// logOutput receives diagnostic logs. Tests point it at a buffer.
var logOutput io.Writer = os.Stderr

// Execute runs the gbcli command tree with args, reading user input from in
// and writing command output to out.
func Execute(ctx context.Context, args []string, in io.Reader, out io.Writer) error {
	root := newRootCmd(in, out)
	root.SetArgs(args)
	root.SetIn(in)
	root.SetOut(out)
	root.SetErr(out)
	return root.ExecuteContext(ctx)
}

func newRootCmd(in io.Reader, out io.Writer) *cobra.Command {
	root := &cobra.Command{
		Use:   "gbcli",
		Short: "GophBlog command-line client",
		Long:  "gbcli reads and publishes GophBlog articles and manages your account.",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cmd, in, out, runInteractive)
		},
		SilenceUsage: true,
	}
	config.RegisterFlags(root.PersistentFlags())

	simple := func(use, short string, run func(a *App, ctx context.Context) error) *cobra.Command {
		return &cobra.Command{
			Use:   use,
			Short: short,
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, args []string) error {
				return withApp(cmd, in, out, func(ctx context.Context, a *App) error {
					a.session.Initialize(ctx)
					return run(a, ctx)
				})
			},
		}
	}

	root.AddCommand(
		&cobra.Command{
			Use:   "repl",
			Short: "Start the interactive shell (default)",
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, args []string) error {
				return withApp(cmd, in, out, runInteractive)
			},
		},
		simple("login", "Log in and remember the session", (*App).Login),
		simple("logout", "Forget the stored session", (*App).Logout),
		simple("whoami", "Show the logged in user", (*App).Whoami),
		simple("register", "Create an account", (*App).Register),
		simple("articles", "List articles, newest first", (*App).Articles),
		simple("publish", "Publish a new article", (*App).Publish),
		simple("forgot", "Reset a forgotten password", (*App).ForgotPassword),
		simple("ping", "Check that the server is reachable", (*App).Ping),
		&cobra.Command{
			Use:   "article <id>",
			Short: "Show a single article",
			Args:  cobra.ExactArgs(1),
			RunE: func(cmd *cobra.Command, args []string) error {
				return withApp(cmd, in, out, func(ctx context.Context, a *App) error {
					a.session.Initialize(ctx)
					return a.Show(ctx, args)
				})
			},
		},
		&cobra.Command{
			Use:   "version",
			Short: "Print version information",
			Args:  cobra.NoArgs,
			Run: func(cmd *cobra.Command, args []string) {
				buildinfo.PrintBuildData(cmd.OutOrStdout())
			},
		},
	)

	return root
}

// withApp loads configuration from the command's flags, builds the App, runs
// fn and releases the App afterwards.
func withApp(cmd *cobra.Command, in io.Reader, out io.Writer, fn func(ctx context.Context, a *App) error) error {
	ctx := cmd.Context()
	flags := cmd.Flags()

	path, err := flags.GetString(config.FlagConfig)
	if err != nil {
		return err
	}
	cfg, err := config.LoadConfig(path, flags)
	if err != nil {
		return err
	}

	logger, err := logging.New(logOutput, cfg.LogLevel, cfg.LogFormat)
	if err != nil {
		return err
	}

	app, err := NewApp(ctx, cfg, logger, in, out)
	if err != nil {
		return err
	}
	defer func() {
		if cerr := app.Close(); cerr != nil {
			logger.Error(ctx, "error closing app", "error", cerr)
		}
	}()

	return fn(ctx, app)
}

// runInteractive restores the session in the background and starts the REPL.
// The prompt reports "loading" until the stored token has been checked.
func runInteractive(ctx context.Context, a *App) error {
	fmt.Fprintln(a.out, "Welcome to GophBlog CLI (type 'help' for commands)")

	watchCtx, stop := context.WithCancel(ctx)
	var wg sync.WaitGroup
	defer func() {
		stop()
		// Neither goroutine may outlive the database.
		wg.Wait()
	}()

	wg.Add(2)
	go func() {
		defer wg.Done()
		a.watchSession(watchCtx)
	}()
	go func() {
		defer wg.Done()
		a.restoreSession(ctx)
	}()

	runREPL(ctx, a, a.getStatus, a.reader, a.out)
	return nil
}
