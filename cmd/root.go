package cmd

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/jasonDeichert/path-of-claude/internal/config"
	"github.com/jasonDeichert/path-of-claude/internal/db"
	"github.com/jasonDeichert/path-of-claude/internal/ladder"
	"github.com/jasonDeichert/path-of-claude/internal/logger"
)

const dbFileName = ".ladder.db"

var (
	dbPath     string
	configPath string
	verbose    bool

	cfg = config.Default()
	log = logger.Nop()
)

var rootCmd = &cobra.Command{
	Use:           "ladder",
	Short:         "poe.ninja ladder scraper and Path of Building analyzer",
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		var err error
		cfg, err = config.Load(configPath)
		if err != nil {
			return err
		}
		base, err := logger.New(cfg.Environment, verbose)
		if err != nil {
			return fmt.Errorf("creating logger: %w", err)
		}
		log = base.With("cmd", cmd.CommandPath())
		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		if log != nil {
			log.Sync()
		}
	},
}

// Execute runs the CLI. Ctrl-C cancels the command context, which stops an
// in-progress enrichment.
func Execute() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	err := rootCmd.ExecuteContext(ctx)
	stop()
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVar(&dbPath, "db", "", "Path to the snapshot history database ("+dbFileName+")")
	rootCmd.PersistentFlags().StringVar(&configPath, "config", config.DefaultFileName, "Path to TOML config file")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Debug logging")
}

// DiscoverDB finds the database path using priority: env > flag > config > walk-up > XDG fallback.
// With create set, a missing database resolves to the first configured path,
// or the XDG location, instead of failing.
func DiscoverDB(create bool) (string, error) {
	// 1. Environment variable
	if envPath := os.Getenv("LADDER_DB"); envPath != "" {
		if _, err := os.Stat(envPath); err == nil || create {
			return envPath, nil
		}
	}

	// 2. CLI flag
	if dbPath != "" {
		if _, err := os.Stat(dbPath); err == nil || create {
			return dbPath, nil
		}
		return "", fmt.Errorf("database not found at --db path: %s", dbPath)
	}

	// 3. Config file
	if cfg != nil && cfg.Storage.DB != "" {
		if _, err := os.Stat(cfg.Storage.DB); err == nil || create {
			return cfg.Storage.DB, nil
		}
	}

	// 4. Walk up from CWD
	dir, err := os.Getwd()
	if err == nil {
		for {
			candidate := filepath.Join(dir, dbFileName)
			if _, err := os.Stat(candidate); err == nil {
				return candidate, nil
			}
			parent := filepath.Dir(dir)
			if parent == dir {
				break
			}
			dir = parent
		}
	}

	// 5. XDG fallback
	home, err := os.UserHomeDir()
	if err == nil {
		xdgPath := filepath.Join(home, ".local", "share", "path-of-claude", "ladder.db")
		if _, err := os.Stat(xdgPath); err == nil {
			return xdgPath, nil
		}
		if create {
			if err := os.MkdirAll(filepath.Dir(xdgPath), 0755); err != nil {
				return "", fmt.Errorf("creating data dir: %w", err)
			}
			return xdgPath, nil
		}
	}

	return "", fmt.Errorf("no %s found (set LADDER_DB, use --db, or run from a directory containing %s)", dbFileName, dbFileName)
}

// OpenDatabase discovers and opens the database
func OpenDatabase(create bool) (*db.DB, error) {
	path, err := DiscoverDB(create)
	if err != nil {
		return nil, err
	}
	log.Debug("opening snapshot database", "path", path)
	return db.OpenDB(path)
}

// ResolveSnapshot finds a stored snapshot by full ID, ID prefix, or "latest".
func ResolveSnapshot(d *db.DB, reference string) (*db.SnapshotSummary, error) {
	// 1. Newest stored snapshot
	if reference == "latest" {
		all, err := d.ListSnapshots("")
		if err != nil {
			return nil, err
		}
		if len(all) == 0 {
			return nil, fmt.Errorf("no stored snapshots")
		}
		return &all[0], nil
	}

	// 2. Exact ID match
	sum, err := d.GetSnapshot(reference)
	if err == nil {
		return sum, nil
	}
	if !errors.Is(err, db.ErrNotFound) {
		return nil, err
	}

	// 3. ID prefix match (≥4 hex/dash chars)
	if len(reference) >= 4 && isHexDash(reference) {
		matches, err := d.SearchByIDPrefix(reference, 10)
		if err != nil {
			return nil, err
		}
		switch len(matches) {
		case 1:
			return &matches[0], nil
		case 0:
			// fall through to not found
		default:
			lines := make([]string, len(matches))
			for i, m := range matches {
				lines[i] = fmt.Sprintf("  %s %s/%s (%d builds)", truncID(m.ID), m.League, m.Label, m.TotalBuilds)
			}
			return nil, fmt.Errorf("ambiguous reference '%s'. %d matches:\n%s\nUse a full snapshot ID instead.",
				reference, len(matches), strings.Join(lines, "\n"))
		}
	}

	return nil, fmt.Errorf("snapshot not found: %s", reference)
}

// loadSnapshotRef loads a snapshot from a JSON artifact path, or else from
// the history database by reference. The database is opened only when needed.
func loadSnapshotRef(reference string) (*ladder.BuildSnapshot, error) {
	if info, err := os.Stat(reference); err == nil && !info.IsDir() {
		return ladder.LoadJSON(reference)
	}

	d, err := OpenDatabase(false)
	if err != nil {
		return nil, fmt.Errorf("%s is not a snapshot file, and %w", reference, err)
	}
	defer d.Close()

	sum, err := ResolveSnapshot(d, reference)
	if err != nil {
		return nil, err
	}
	return d.LoadSnapshot(sum.ID)
}

func isHexDash(s string) bool {
	for _, c := range s {
		if !((c >= '0' && c <= '9') || (c >= 'a' && c <= 'f') || (c >= 'A' && c <= 'F') || c == '-') {
			return false
		}
	}
	return true
}

func truncID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}
