// Package main is the snackhack command line client. Every invocation
// restores the session from the configured store, applies one command and
// writes the result back, so a sequence of commands behaves like one
// continuous session.
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
	"go.uber.org/fx"

	"github.com/snackhack/client/internal/infrastructure/config"
	"github.com/snackhack/client/internal/infrastructure/container"
)

// cli holds what the subcommands share
type cli struct {
	out io.Writer
	in  io.Reader

	configPath string
	storeFlag  string
	verbose    bool

	// loadConfig is swapped in tests
	loadConfig func(path string) (*config.Config, error)

	cfg   *config.Config
	fxApp *fx.App
	app   container.App
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := newCLI(os.Stdin, os.Stdout).execute(ctx, os.Args[1:]); err != nil {
		os.Exit(exitStatus(err))
	}
}

func newCLI(in io.Reader, out io.Writer) *cli {
	return &cli{in: in, out: out, loadConfig: config.Load}
}

func (c *cli) command() *cobra.Command {
	root := &cobra.Command{
		Use:   "snackhack",
		Short: "SnackHack - turn what is in the fridge into recipes",
		Long: `SnackHack collects ingredients, validates them against the recipe
backend and asks it for recipes once enough are listed.

The session (ingredients, preferences, mode and last recipes) is kept in
the configured store between invocations.`,
		SilenceUsage:      true,
		SilenceErrors:     true,
		PersistentPreRunE: c.setup,
		PersistentPostRunE: func(cmd *cobra.Command, args []string) error {
			return c.teardown()
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.printStatus(cmd.Context())
		},
	}
	root.SetOut(c.out)
	root.SetErr(c.out)

	root.PersistentFlags().StringVarP(&c.configPath, "config", "c", "", "config file (default ./snackhack.yaml)")
	root.PersistentFlags().StringVar(&c.storeFlag, "store", "", "override storage.driver (sqlite, redis, memory)")
	root.PersistentFlags().BoolVarP(&c.verbose, "verbose", "v", false, "debug logging")

	root.AddCommand(
		c.statusCmd(),
		c.startCmd(),
		c.moreCmd(),
		c.homeCmd(),
		c.addCmd(),
		c.removeCmd(),
		c.clearCmd(),
		c.prefsCmd(),
		c.randomCmd(),
		c.detectCmd(),
		c.lookupCmd(),
		c.shellCmd(),
		c.recipesCmd(),
		c.loginCmd(),
		c.registerCmd(),
		c.logoutCmd(),
		c.profileCmd(),
		c.favouritesCmd(),
		c.nutritionCmd(),
		c.doctorCmd(),
	)
	return root
}

// execute runs one command line and reports any failure. The application
// is stopped even when the command fails, which cobra's post-run hooks do
// not cover.
func (c *cli) execute(ctx context.Context, args []string) error {
	root := c.command()
	root.SetArgs(args)
	err := root.ExecuteContext(ctx)
	if stopErr := c.teardown(); err == nil {
		err = stopErr
	}
	if err != nil {
		c.report(err)
	}
	return err
}

func (c *cli) setup(cmd *cobra.Command, args []string) error {
	cfg, err := c.loadConfig(c.configPath)
	if err != nil {
		return err
	}
	if c.storeFlag != "" {
		cfg.Storage.Driver = c.storeFlag
		if err := cfg.Validate(); err != nil {
			return fmt.Errorf("invalid configuration: %w", err)
		}
	}
	if c.verbose {
		cfg.App.LogLevel = "debug"
	}
	c.cfg = cfg

	c.fxApp = container.New(cfg, &c.app)
	if err := c.fxApp.Err(); err != nil {
		return fmt.Errorf("failed to build application: %w", err)
	}

	startCtx, cancel := context.WithTimeout(cmd.Context(), 15*time.Second)
	defer cancel()
	return c.fxApp.Start(startCtx)
}

func (c *cli) teardown() error {
	if c.fxApp == nil {
		return nil
	}
	stopCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	err := c.fxApp.Stop(stopCtx)
	if c.app.Logger != nil {
		_ = c.app.Logger.Sync()
	}
	c.fxApp = nil
	return err
}

func (c *cli) printf(format string, a ...interface{}) {
	fmt.Fprintf(c.out, format, a...)
}
