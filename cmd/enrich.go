package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/jasonDeichert/path-of-claude/internal/ladder"
	"github.com/jasonDeichert/path-of-claude/internal/scrape"
)

var (
	enrichTop      int
	enrichOutput   string
	enrichCodesDir string
	enrichSave     bool
	enrichJSON     bool
)

var enrichCmd = &cobra.Command{
	Use:   "enrich <snapshot.json|id>",
	Short: "Fetch export codes for the top builds of a saved snapshot",
	Long: `Fetches each build's Path of Building export code from its profile page,
decodes it, and fills in skill setups, items, and keystones. Builds that fail
are logged and left as they were.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		snap, err := loadSnapshotRef(args[0])
		if err != nil {
			return err
		}

		n := len(snap.Builds)
		if enrichTop > 0 {
			n = min(enrichTop, n)
		}
		fmt.Fprintf(os.Stderr, "[enrich] %d builds from %s/%s\n", n, snap.League, snap.Snapshot)
		result, err := enrichBuilds(cmd.Context(), snap.Builds[:n], codesDir(cmd, "codes-dir", enrichCodesDir))
		if err != nil && result == nil {
			return err
		}
		if err != nil {
			log.Warn("enrichment interrupted", "enriched", result.Enriched, "attempted", result.Attempted, "error", err)
		}

		if enrichOutput != "" {
			if err := ladder.SaveJSON(enrichOutput, snap); err != nil {
				return err
			}
			fmt.Fprintf(os.Stderr, "[enrich] Saved snapshot to %s\n", enrichOutput)
		}
		if enrichSave {
			id, err := saveToHistory(snap)
			if err != nil {
				return err
			}
			fmt.Fprintf(os.Stderr, "[enrich] Stored snapshot %s\n", truncID(id))
		}

		if enrichJSON {
			if jsonErr := printJSON(result); jsonErr != nil {
				return jsonErr
			}
			return err
		}
		printEnrichResult(result)
		return err
	},
}

func init() {
	enrichCmd.Flags().IntVar(&enrichTop, "top", 10, "Enrich only the top N builds (0 = all)")
	enrichCmd.Flags().StringVarP(&enrichOutput, "output", "o", "", "Save the enriched snapshot JSON to this path")
	enrichCmd.Flags().StringVar(&enrichCodesDir, "codes-dir", "builds/pob_exports", "Directory for fetched export codes (empty = don't save)")
	enrichCmd.Flags().BoolVar(&enrichSave, "save", false, "Store the enriched snapshot in the history database")
	enrichCmd.Flags().BoolVar(&enrichJSON, "json", false, "Print the run summary as JSON")
	rootCmd.AddCommand(enrichCmd)
}

func printEnrichResult(r *scrape.EnrichResult) {
	section("ENRICHMENT")
	fmt.Printf("  Enriched:  %d/%d\n", r.Enriched, r.Attempted)
	fmt.Printf("  Duration:  %s\n", scrape.FormatDurationShort(r.Duration))
	if len(r.Failures) == 0 {
		fmt.Println()
		return
	}
	fmt.Printf("  Failures:  %d\n", len(r.Failures))
	for _, f := range r.Failures {
		fmt.Printf("    #%-4d %-25s %-6s %s\n", f.Rank, truncName(f.CharacterName, 25), f.Stage, f.Message)
	}
	fmt.Println()
}
