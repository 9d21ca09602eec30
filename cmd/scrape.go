package cmd

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/jasonDeichert/path-of-claude/internal/ladder"
	"github.com/jasonDeichert/path-of-claude/internal/scrape"
)

var (
	scrapeAscendancy string
	scrapeMinLevel   int
	scrapeMaxLevel   int
	scrapeLimit      int
	scrapeExportPOB  int
	scrapeCodesDir   string
	scrapeOutput     string
	scrapePage       string
	scrapeSave       bool
	scrapeJSON       bool
)

var scrapeCmd = &cobra.Command{
	Use:   "scrape [league] [snapshot]",
	Short: "Scrape a league ladder snapshot (latest, hour-3, day-1, week-1, ...)",
	Long: `Reads the poe.ninja build ladder for a league. The league defaults to
scrape.league from the config file.`,
	Args: cobra.MaximumNArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		league := cfg.Scrape.League
		if len(args) > 0 {
			league = args[0]
		}
		if league == "" {
			return fmt.Errorf("no league given and scrape.league is not configured")
		}
		label := "latest"
		if len(args) > 1 {
			label = args[1]
		}

		limit := scrapeLimit
		if !cmd.Flags().Changed("limit") {
			limit = cfg.Scrape.Limit
		}

		fmt.Fprintf(os.Stderr, "[scrape] League: %s  Snapshot: %s\n", league, label)
		snap, err := scrapeSnapshot(cmd.Context(), league, label, limit)
		if err != nil {
			return err
		}

		if cmd.Flags().Changed("ascendancy") {
			snap = snap.FilterByAscendancy(scrapeAscendancy)
			fmt.Fprintf(os.Stderr, "[scrape] Filtered to %d %s builds\n", len(snap.Builds), scrapeAscendancy)
		}
		if minLevel, maxLevel := levelBounds(cmd); minLevel != nil || maxLevel != nil {
			snap = snap.FilterByLevel(minLevel, maxLevel)
			fmt.Fprintf(os.Stderr, "[scrape] Filtered to %d builds by level\n", len(snap.Builds))
		}

		if scrapeExportPOB > 0 {
			n := min(scrapeExportPOB, len(snap.Builds))
			if _, err := enrichBuilds(cmd.Context(), snap.Builds[:n], codesDir(cmd, "pob-output-dir", scrapeCodesDir)); err != nil {
				return err
			}
		}

		if scrapeOutput != "" {
			if err := ladder.SaveJSON(scrapeOutput, snap); err != nil {
				return err
			}
			fmt.Fprintf(os.Stderr, "[scrape] Saved snapshot to %s\n", scrapeOutput)
		}

		if scrapeSave {
			id, err := saveToHistory(snap)
			if err != nil {
				return err
			}
			fmt.Fprintf(os.Stderr, "[scrape] Stored snapshot %s\n", truncID(id))
		}

		if scrapeJSON {
			data, err := ladder.MarshalSnapshot(snap)
			if err != nil {
				return err
			}
			_, err = fmt.Println(string(data))
			return err
		}

		top := snap.Top(10)
		section(fmt.Sprintf("TOP %d BUILDS  %s / %s%s", len(top), snap.League, snap.Snapshot, filterLabel(snap)))
		printBuildTable(top)
		for i := range top {
			if top[i].Enriched() {
				printBuildDetail(&top[i])
			}
		}
		fmt.Println()
		return nil
	},
}

func init() {
	scrapeCmd.Flags().StringVarP(&scrapeAscendancy, "ascendancy", "a", "", "Keep only this ascendancy")
	scrapeCmd.Flags().IntVar(&scrapeMinLevel, "min-level", 0, "Minimum character level")
	scrapeCmd.Flags().IntVar(&scrapeMaxLevel, "max-level", 0, "Maximum character level")
	scrapeCmd.Flags().IntVarP(&scrapeLimit, "limit", "l", 0, "Max rows to read from the ladder (0 = all)")
	scrapeCmd.Flags().IntVarP(&scrapeExportPOB, "export-pob", "p", 0, "Fetch and decode export codes for the top N builds")
	scrapeCmd.Flags().StringVar(&scrapeCodesDir, "pob-output-dir", "builds/pob_exports", "Directory for fetched export codes (empty = don't save)")
	scrapeCmd.Flags().StringVarP(&scrapeOutput, "output", "o", "", "Save snapshot JSON to this path")
	scrapeCmd.Flags().StringVar(&scrapePage, "page", "", "Read the ladder table from a saved HTML page instead of fetching it")
	scrapeCmd.Flags().BoolVar(&scrapeSave, "save", false, "Store the snapshot in the history database")
	scrapeCmd.Flags().BoolVar(&scrapeJSON, "json", false, "Print the snapshot as JSON")
	rootCmd.AddCommand(scrapeCmd)
}

func levelBounds(cmd *cobra.Command) (minLevel, maxLevel *int) {
	if cmd.Flags().Changed("min-level") {
		minLevel = &scrapeMinLevel
	}
	if cmd.Flags().Changed("max-level") {
		maxLevel = &scrapeMaxLevel
	}
	return minLevel, maxLevel
}

// codesDir prefers an explicit flag, then the configured codes directory.
func codesDir(cmd *cobra.Command, flag, value string) string {
	if !cmd.Flags().Changed(flag) && cfg.Scrape.CodesDir != "" {
		return cfg.Scrape.CodesDir
	}
	return value
}

func newFetcher() scrape.Fetcher {
	return &scrape.AutoFetcher{HTTP: scrape.NewHTTPFetcher(cfg.Scrape.UserAgent)}
}

// scrapeSnapshot reads the ladder table and parses rows into a snapshot.
// Unparseable rows are logged and skipped.
func scrapeSnapshot(ctx context.Context, league, label string, limit int) (*ladder.BuildSnapshot, error) {
	src := &scrape.HTMLRowSource{Fetcher: newFetcher(), BaseURL: cfg.Scrape.BaseURL, Page: scrapePage}
	rows, err := src.Rows(ctx, league, label)
	if err != nil {
		return nil, fmt.Errorf("reading ladder: %w", err)
	}

	builds, rowErrs := ladder.BuildsFromRows(rows, limit)
	for _, re := range rowErrs {
		log.Warn("skipping ladder row", "rank", re.Rank, "error", re.Err)
	}
	fmt.Fprintf(os.Stderr, "[scrape] Extracted %d builds (%d rows visible, %d skipped)\n",
		len(builds), len(rows), len(rowErrs))
	if len(rows) == 0 {
		log.Warn("ladder page had no table rows; it may need client-side rendering", "league", league, "snapshot", label)
	}
	return ladder.NewSnapshot(league, label, builds), nil
}

// enrichBuilds fetches export codes for builds in place and optionally saves them.
func enrichBuilds(ctx context.Context, builds []ladder.Build, dir string) (*scrape.EnrichResult, error) {
	analyzer, err := cfg.Analyzer()
	if err != nil {
		return nil, err
	}
	e := &scrape.Enricher{
		Codes:    &scrape.HTMLCodeSource{Fetcher: newFetcher(), BaseURL: cfg.Scrape.BaseURL},
		Analyzer: analyzer,
		Delay:    cfg.Delay(),
		Log:      log,
		Progress: os.Stderr,
	}
	// Codes fetched before a cancellation are still written.
	result, err := e.Enrich(ctx, builds)
	if result == nil || dir == "" || len(result.Codes) == 0 {
		return result, err
	}
	if _, saveErr := ladder.SaveCodes(dir, result.Codes); saveErr != nil {
		if err == nil {
			err = saveErr
		}
		return result, err
	}
	fmt.Fprintf(os.Stderr, "[scrape] Saved %d export codes to %s/\n", len(result.Codes), dir)
	return result, err
}

func saveToHistory(snap *ladder.BuildSnapshot) (string, error) {
	d, err := OpenDatabase(true)
	if err != nil {
		return "", err
	}
	defer d.Close()
	return d.SaveSnapshot(snap)
}
