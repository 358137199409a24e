// Command migration applies the SQL files under db/migrations.
//
//	esports-migrate up
//	esports-migrate down 1
//	esports-migrate goto 20260301000002
//	esports-migrate force 20260301000001
//	esports-migrate version
//	esports-migrate create add_match_patch
package main

import (
	"errors"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/golang-migrate/migrate/v4"
	_ "github.com/golang-migrate/migrate/v4/database/postgres"
	_ "github.com/golang-migrate/migrate/v4/source/file"
	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/riskibarqy/esports-fantasy/internal/platform/logging"
)

const applicationName = "esports-fantasy-migration"

var defaultMigrationDirs = []string{"./db/migrations", "/app/db/migrations"}

type options struct {
	dbURL string
	dir   string
}

func main() {
	_ = godotenv.Load(".env")

	if err := rootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}

func rootCmd() *cobra.Command {
	opts := &options{}
	root := &cobra.Command{
		Use:           "esports-migrate",
		Short:         "Apply esports fantasy schema migrations",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.PersistentFlags().StringVar(&opts.dbURL, "db-url", os.Getenv("DB_URL"), "postgres URL (default $DB_URL)")
	root.PersistentFlags().StringVar(&opts.dir, "dir", firstNonEmpty(os.Getenv("MIGRATIONS_DIR"), os.Getenv("MIGRATIONS_PATH")), "migrations directory")

	root.AddCommand(
		upCmd(opts),
		downCmd(opts),
		gotoCmd(opts),
		forceCmd(opts),
		versionCmd(opts),
		createCmd(opts),
	)
	return root
}

func upCmd(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "up [steps]",
		Short: "Apply all pending migrations, or only the next N",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(_ *cobra.Command, args []string) error {
			return withMigrator(opts, func(m *migrate.Migrate, log *logging.Logger) error {
				if len(args) == 0 {
					return report(log, m.Up(), "migrations applied")
				}
				steps, err := parseSteps(args)
				if err != nil {
					return err
				}
				return report(log, m.Steps(steps), "migrations applied", "steps", steps)
			})
		},
	}
}

func downCmd(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "down [steps]",
		Short: "Roll back the last N migrations (default 1)",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(_ *cobra.Command, args []string) error {
			steps, err := parseSteps(args)
			if err != nil {
				return err
			}
			return withMigrator(opts, func(m *migrate.Migrate, log *logging.Logger) error {
				return report(log, m.Steps(-steps), "migrations rolled back", "steps", steps)
			})
		},
	}
}

func gotoCmd(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:     "goto <version>",
		Aliases: []string{"migrate"},
		Short:   "Migrate up or down to an exact version",
		Args:    cobra.ExactArgs(1),
		RunE: func(_ *cobra.Command, args []string) error {
			target, err := parseTarget(args[0])
			if err != nil {
				return err
			}
			return withMigrator(opts, func(m *migrate.Migrate, log *logging.Logger) error {
				return report(log, m.Migrate(target), "migrated", "version", target)
			})
		},
	}
}

func forceCmd(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "force <version>",
		Short: "Set the version and clear the dirty flag without running SQL",
		Args:  cobra.ExactArgs(1),
		RunE: func(_ *cobra.Command, args []string) error {
			version, err := parseVersion(args[0])
			if err != nil {
				return err
			}
			return withMigrator(opts, func(m *migrate.Migrate, log *logging.Logger) error {
				if err := m.Force(version); err != nil {
					return fmt.Errorf("force version %d: %w", version, err)
				}
				log.Info("version forced", "version", version)
				return nil
			})
		},
	}
}

func versionCmd(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the applied version and dirty flag",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withMigrator(opts, func(m *migrate.Migrate, _ *logging.Logger) error {
				version, dirty, err := m.Version()
				switch {
				case errors.Is(err, migrate.ErrNilVersion):
					fmt.Fprintln(cmd.OutOrStdout(), "version: none\ndirty: false")
					return nil
				case err != nil:
					return fmt.Errorf("read version: %w", err)
				}
				fmt.Fprintf(cmd.OutOrStdout(), "version: %d\ndirty: %t\n", version, dirty)
				return nil
			})
		},
	}
}

func createCmd(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "create <name>",
		Short: "Write an empty up/down pair stamped with the current UTC time",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			dir, err := resolveMigrationsDir(opts.dir)
			if err != nil {
				return err
			}
			paths, err := createMigration(dir, args[0], time.Now().UTC())
			if err != nil {
				return err
			}
			for _, p := range paths {
				fmt.Fprintln(cmd.OutOrStdout(), p)
			}
			return nil
		},
	}
}

func withMigrator(opts *options, fn func(m *migrate.Migrate, log *logging.Logger) error) error {
	log := logging.NewJSON(logging.LevelInfo).Named("migration")
	defer func() { _ = log.Sync() }()

	dbURL := strings.TrimSpace(opts.dbURL)
	if dbURL == "" {
		return errors.New("DB_URL is required")
	}
	dir, err := resolveMigrationsDir(opts.dir)
	if err != nil {
		return err
	}

	sourceURL := "file://" + filepath.ToSlash(dir)
	m, err := migrate.New(sourceURL, normalizeDBURL(dbURL))
	if err != nil {
		return fmt.Errorf("create migrator: %w", err)
	}
	m.Log = migrateLogger{log}
	defer func() {
		srcErr, dbErr := m.Close()
		if srcErr != nil || dbErr != nil {
			log.Warn("close migrator", "source_error", srcErr, "db_error", dbErr)
		}
	}()

	log.Info("migrator ready", "source", sourceURL)
	return fn(m, log)
}

// report treats ErrNoChange as success.
func report(log *logging.Logger, err error, msg string, args ...any) error {
	if errors.Is(err, migrate.ErrNoChange) {
		log.Info("no migration changes")
		return nil
	}
	if err != nil {
		return err
	}
	log.Info(msg, args...)
	return nil
}

type migrateLogger struct{ log *logging.Logger }

func (l migrateLogger) Printf(format string, v ...any) {
	l.log.Debug(strings.TrimSpace(fmt.Sprintf(format, v...)))
}

func (l migrateLogger) Verbose() bool { return false }

func parseSteps(args []string) (int, error) {
	if len(args) == 0 {
		return 1, nil
	}
	steps, err := strconv.Atoi(strings.TrimSpace(args[0]))
	if err != nil {
		return 0, fmt.Errorf("invalid steps %q: %w", args[0], err)
	}
	if steps <= 0 {
		return 0, errors.New("steps must be > 0")
	}
	return steps, nil
}

// parseVersion accepts -1, which golang-migrate uses for "no version".
func parseVersion(raw string) (int, error) {
	value, err := strconv.Atoi(strings.TrimSpace(raw))
	if err != nil {
		return 0, fmt.Errorf("invalid version %q: %w", raw, err)
	}
	if value < -1 {
		return 0, errors.New("version must be >= -1")
	}
	return value, nil
}

func parseTarget(raw string) (uint, error) {
	value, err := strconv.ParseUint(strings.TrimSpace(raw), 10, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid target version %q: %w", raw, err)
	}
	return uint(value), nil
}

func resolveMigrationsDir(explicit string) (string, error) {
	candidates := defaultMigrationDirs
	if explicit = strings.TrimSpace(explicit); explicit != "" {
		candidates = []string{explicit}
	}
	for _, candidate := range candidates {
		abs, err := filepath.Abs(candidate)
		if err != nil {
			continue
		}
		if info, err := os.Stat(abs); err == nil && info.IsDir() {
			return abs, nil
		}
	}
	return "", fmt.Errorf("migration directory not found (checked %s)", strings.Join(candidates, ", "))
}

// createMigration writes <stamp>_<name>.up.sql and .down.sql using the
// YYYYMMDDhhmmss version scheme of the existing files.
func createMigration(dir, name string, now time.Time) ([]string, error) {
	name = strings.ToLower(strings.Join(strings.Fields(strings.TrimSpace(name)), "_"))
	if name == "" || strings.ContainsAny(name, `/\.`) {
		return nil, fmt.Errorf("invalid migration name %q", name)
	}

	base := now.Format("20060102150405") + "_" + name
	paths := []string{
		filepath.Join(dir, base+".up.sql"),
		filepath.Join(dir, base+".down.sql"),
	}
	for _, p := range paths {
		f, err := os.OpenFile(p, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o644)
		if err != nil {
			return nil, fmt.Errorf("create %s: %w", filepath.Base(p), err)
		}
		if err := f.Close(); err != nil {
			return nil, err
		}
	}
	return paths, nil
}

// normalizeDBURL tags migration sessions in pg_stat_activity. Key/value DSNs pass through.
func normalizeDBURL(raw string) string {
	parsed, err := url.Parse(raw)
	if err != nil || parsed.Scheme == "" {
		return raw
	}
	query := parsed.Query()
	if query.Get("application_name") == "" {
		query.Set("application_name", applicationName)
		parsed.RawQuery = query.Encode()
	}
	return parsed.String()
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v = strings.TrimSpace(v); v != "" {
			return v
		}
	}
	return ""
}
