package main

import (
	"bufio"
	"context"
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/snackhack/client/internal/application/typeahead"
	"github.com/snackhack/client/internal/domain/lookup"
	"github.com/snackhack/client/internal/domain/session"
)

// settlePoll is how often a waiting command looks at the engine
const settlePoll = 20 * time.Millisecond

func (c *cli) lookupCmd() *cobra.Command {
	var add bool
	cmd := &cobra.Command{
		Use:   "lookup <text>",
		Short: "Validate an ingredient and show autocomplete suggestions",
		Long: `Types text into the ingredient field, waits for the debounced
validation and autocomplete lookups and prints what came back. With --add
the value is then confirmed into the list, using the corrected spelling
when the backend offered one.`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			c.app.Engine.SetInput(strings.Join(args, " "))
			c.printLookup(c.waitSettled(ctx))
			if !add {
				return nil
			}
			added, err := c.app.Session.ConfirmInput(ctx)
			if err != nil || added == "" {
				return err
			}
			c.printf("Added %s.\n", added)
			return nil
		},
	}
	cmd.Flags().BoolVar(&add, "add", false, "confirm the value into the ingredient list")
	return cmd
}

func (c *cli) shellCmd() *cobra.Command {
	var metricsAddr string
	cmd := &cobra.Command{
		Use:   "shell",
		Short: "Interactive ingredient entry",
		Long: `Reads ingredient text line by line. Each line replaces the field
content and shows validation and suggestions once the lookups settle.

  (empty line)  add the current value to the list
  /pick <n>     put suggestion n into the field
  /recipes      ask for recipes
  /more         go back to adding ingredients
  /status       show the session
  /quit         leave`,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			if metricsAddr != "" && c.cfg.Monitoring.EnableMetrics {
				stop := c.serveMetrics(metricsAddr)
				defer stop()
			}
			if err := c.ensureAdding(ctx); err != nil {
				return err
			}
			return c.runShell(ctx)
		},
	}
	cmd.Flags().StringVar(&metricsAddr, "metrics-addr", "", "serve Prometheus metrics on this address while the shell runs")
	return cmd
}

func (c *cli) runShell(ctx context.Context) error {
	scanner := bufio.NewScanner(c.in)
	c.printf("> ")
	for scanner.Scan() {
		if ctx.Err() != nil {
			return nil
		}
		line := strings.TrimSpace(scanner.Text())
		quit, err := c.shellLine(ctx, line)
		switch {
		case err == nil:
		case blocking(err):
			c.printf("! %s\n", describe(err))
		default:
			c.printf("(not now: %s)\n", describe(err))
		}
		if quit {
			return nil
		}
		c.printf("> ")
	}
	return scanner.Err()
}

func (c *cli) shellLine(ctx context.Context, line string) (quit bool, err error) {
	switch {
	case line == "":
		added, err := c.app.Session.ConfirmInput(ctx)
		if err != nil {
			return false, err
		}
		if added == "" {
			c.printf("Nothing to add.\n")
			return false, nil
		}
		c.printf("Added %s.\n", added)
		return false, c.printIngredients()

	case line == "/quit" || line == "/exit":
		return true, nil

	case line == "/status":
		return false, c.printStatus(ctx)

	case line == "/more":
		return false, c.app.Session.AddMoreIngredients(ctx)

	case line == "/recipes":
		c.printf("Generating recipes...\n")
		result, err := c.app.Session.RequestRecipes(ctx)
		if err != nil {
			return false, err
		}
		c.printFetch(result)
		return false, nil

	case strings.HasPrefix(line, "/pick "):
		n, err := strconv.Atoi(strings.TrimSpace(strings.TrimPrefix(line, "/pick ")))
		snap := c.app.Engine.Snapshot()
		if err != nil || n < 1 || n > len(snap.Suggestions) {
			return false, errors.New("no such suggestion")
		}
		c.app.Engine.Select(snap.Suggestions[n-1].Name)
		c.printf("Field: %s\n", c.app.Engine.Snapshot().Input)
		return false, nil

	case strings.HasPrefix(line, "/"):
		return false, errors.New("unknown command " + line)

	default:
		c.app.Engine.SetInput(line)
		c.printLookup(c.waitSettled(ctx))
		return false, nil
	}
}

// ensureAdding moves a fresh session into ingredient entry
func (c *cli) ensureAdding(ctx context.Context) error {
	st := c.app.Session.State()
	if st.Mode == session.ModeInitial {
		return c.app.Session.StartNewRecipe(ctx)
	}
	return nil
}

// waitSettled blocks until the engine has no timer armed and no query
// running for the current input.
func (c *cli) waitSettled(ctx context.Context) typeahead.Snapshot {
	ticker := time.NewTicker(settlePoll)
	defer ticker.Stop()
	for {
		snap := c.app.Engine.Snapshot()
		if !snap.Pending {
			return snap
		}
		select {
		case <-ctx.Done():
			return snap
		case <-ticker.C:
		}
	}
}

func (c *cli) printLookup(snap typeahead.Snapshot) {
	if v := snap.Validation; v != nil {
		c.printf("%s\n", validationLine(*v))
	}
	if snap.ShowDropdown() {
		for i, s := range snap.Suggestions {
			c.printf("  %d. %s (%s)\n", i+1, s.Name, s.CategoryOr("other"))
		}
	}
}

func validationLine(v lookup.ValidationResult) string {
	switch {
	case !v.Known():
		return "? could not check " + v.Original
	case v.Valid():
		if corrected, ok := v.Correction(); ok && corrected != v.Original {
			return "ok " + corrected
		}
		return "ok " + v.Original
	default:
		line := "x " + v.Original + " is not a known ingredient"
		if corrected, ok := v.Correction(); ok {
			line += ", did you mean " + corrected + "?"
		} else if len(v.Suggestions) > 0 {
			line += ", try " + strings.Join(v.Suggestions, ", ")
		}
		return line
	}
}

// serveMetrics exposes the collector until the returned func is called
func (c *cli) serveMetrics(addr string) func() {
	srv := &http.Server{
		Addr:              addr,
		Handler:           c.app.Metrics.Handler(),
		ReadHeaderTimeout: 5 * time.Second,
	}
	go func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			c.app.Logger.Error("Metrics server failed", zap.Error(err))
		}
	}()
	c.app.Logger.Info("Serving metrics", zap.String("addr", addr))
	return func() {
		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		_ = srv.Shutdown(ctx)
	}
}
