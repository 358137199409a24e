// Command ingest runs one-off ingestion jobs against the configured storage.
//
// Usage:
//
//	esports-ingest poll
//	esports-ingest process "LCK/2026 Season/Spring_Week 1_1_1"
//	esports-ingest backfill --region LCK --since 2026-01-15 --force
//	esports-ingest test-connection
//	esports-ingest weights
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	sonic "github.com/bytedance/sonic"
	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/riskibarqy/esports-fantasy/internal/app"
	"github.com/riskibarqy/esports-fantasy/internal/config"
	"github.com/riskibarqy/esports-fantasy/internal/observability"
	"github.com/riskibarqy/esports-fantasy/internal/platform/logging"
	"github.com/riskibarqy/esports-fantasy/internal/usecase"
)

func main() {
	_ = godotenv.Load(".env")

	root := &cobra.Command{
		Use:           "esports-ingest",
		Short:         "Leaguepedia match ingestion jobs",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	root.AddCommand(pollCmd())
	root.AddCommand(processCmd())
	root.AddCommand(backfillCmd())
	root.AddCommand(testConnectionCmd())
	root.AddCommand(weightsCmd())

	if err := root.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}

func pollCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "poll",
		Short: "Run one poll cycle over the configured regions",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withContainer(func(ctx context.Context, c *app.Container) error {
				summary, err := c.Poller.PollOnce(ctx)
				if printErr := printJSON(summary); printErr != nil {
					return printErr
				}
				return err
			})
		},
	}
}

func processCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "process <game-id>",
		Short: "Ingest a single game by its Leaguepedia GameId",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withContainer(func(ctx context.Context, c *app.Container) error {
				result := c.Pipeline.ProcessExternalID(ctx, args[0])
				if err := printJSON(result); err != nil {
					return err
				}
				return result.Err()
			})
		},
	}
}

func backfillCmd() *cobra.Command {
	var (
		region  string
		since   string
		force   bool
		workers int
	)
	cmd := &cobra.Command{
		Use:   "backfill",
		Short: "Re-ingest completed games of a region",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			sinceTime, err := parseSince(since)
			if err != nil {
				return err
			}
			return withContainer(func(ctx context.Context, c *app.Container) error {
				result, err := c.Backfill.Run(ctx, usecase.BackfillInput{
					Region:     region,
					Since:      sinceTime,
					Force:      force,
					MaxWorkers: workers,
					Delay:      c.Config.BackfillDelay,
				})
				if printErr := printJSON(result); printErr != nil {
					return printErr
				}
				return err
			})
		},
	}
	cmd.Flags().StringVar(&region, "region", "", "Region code (LCK, LPL, LEC, LCS)")
	cmd.Flags().StringVar(&since, "since", "", "Only games on or after this time (RFC3339 or YYYY-MM-DD, UTC)")
	cmd.Flags().BoolVar(&force, "force", false, "Reprocess games that are already stored")
	cmd.Flags().IntVar(&workers, "workers", 1, "Concurrent games in flight (max 2)")
	_ = cmd.MarkFlagRequired("region")
	return cmd
}

func testConnectionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "test-connection",
		Short: "Check that Leaguepedia answers a one-row query",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withContainer(func(ctx context.Context, c *app.Container) error {
				if !c.Fetcher.TestConnection(ctx) {
					return fmt.Errorf("leaguepedia connection test failed")
				}
				fmt.Println("leaguepedia connection ok, authenticated:", c.Client.Authenticated())
				return nil
			})
		},
	}
}

func weightsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "weights",
		Short: "Print the effective scoring weights",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load()
			if err != nil {
				return err
			}
			for _, warning := range cfg.ScoringWeights.Warnings() {
				fmt.Fprintln(os.Stderr, "warning:", warning)
			}
			return printJSON(cfg.ScoringWeights)
		},
	}
}

func withContainer(fn func(ctx context.Context, c *app.Container) error) error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}

	logger := logging.NewJSON(cfg.LogLevel)
	logging.SetDefault(logger)
	defer func() { _ = logger.Sync() }()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	telemetry, err := observability.Start(cfg, logger, observability.Options{})
	if err != nil {
		return err
	}
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		_ = telemetry.Shutdown(shutdownCtx)
	}()

	c, err := app.Build(ctx, cfg, logger)
	if err != nil {
		return fmt.Errorf("build app: %w", err)
	}
	defer func() {
		if err := c.Close(); err != nil {
			logger.Error("close app", "error", err)
		}
	}()

	start := time.Now()
	err = fn(ctx, c)
	logger.Info("job finished", "duration", time.Since(start).Round(time.Millisecond), "error", err)
	return err
}

func parseSince(raw string) (*time.Time, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil, nil
	}
	for _, layout := range []string{time.RFC3339, time.DateOnly} {
		if t, err := time.Parse(layout, raw); err == nil {
			t = t.UTC()
			return &t, nil
		}
	}
	return nil, fmt.Errorf("invalid --since %q, expected RFC3339 or YYYY-MM-DD", raw)
}

func printJSON(v any) error {
	data, err := sonic.ConfigStd.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("encode output: %w", err)
	}
	fmt.Println(string(data))
	return nil
}
