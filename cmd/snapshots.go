package cmd

import (
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/jasonDeichert/path-of-claude/internal/ladder"
)

var (
	snapshotsLeague string
	snapshotsJSON   bool
	exportOutput    string
)

var snapshotsCmd = &cobra.Command{
	Use:     "snapshots",
	Aliases: []string{"snap"},
	Short:   "Manage stored ladder snapshots",
}

var snapshotsListCmd = &cobra.Command{
	Use:   "list",
	Short: "List stored snapshots, newest first",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		d, err := OpenDatabase(false)
		if err != nil {
			return err
		}
		defer d.Close()

		all, err := d.ListSnapshots(snapshotsLeague)
		if err != nil {
			return err
		}
		if snapshotsJSON {
			return printJSON(all)
		}
		if len(all) == 0 {
			fmt.Println("No stored snapshots.")
			return nil
		}
		for _, s := range all {
			fmt.Printf("  %s  %-12s %-10s %5d builds  %s\n",
				truncID(s.ID), truncName(s.League, 12), s.Label, s.TotalBuilds, ago(s.ScrapedAt))
		}
		return nil
	},
}

var snapshotsShowCmd = &cobra.Command{
	Use:   "show <id|prefix|latest>",
	Short: "Show a stored snapshot",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		d, err := OpenDatabase(false)
		if err != nil {
			return err
		}
		defer d.Close()

		sum, err := ResolveSnapshot(d, args[0])
		if err != nil {
			return err
		}
		snap, err := d.LoadSnapshot(sum.ID)
		if err != nil {
			return err
		}
		if snapshotsJSON {
			data, err := ladder.MarshalSnapshot(snap)
			if err != nil {
				return err
			}
			_, err = fmt.Println(string(data))
			return err
		}

		fmt.Printf("\n  Snapshot %s\n", sum.ID)
		fmt.Printf("  League:   %s / %s%s\n", snap.League, snap.Snapshot, filterLabel(snap))
		fmt.Printf("  Scraped:  %s (%s)\n", snap.ScrapedAt.Format(time.RFC3339), ago(snap.ScrapedAt))
		fmt.Printf("  Builds:   %d  (version %s)\n", snap.TotalBuilds, snap.Version)
		section("BUILDS")
		printBuildTable(snap.Builds)
		for i := range snap.Builds {
			if snap.Builds[i].Enriched() {
				printBuildDetail(&snap.Builds[i])
			}
		}
		fmt.Println()
		return nil
	},
}

var snapshotsRmCmd = &cobra.Command{
	Use:   "rm <id|prefix>",
	Short: "Delete a stored snapshot",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		d, err := OpenDatabase(false)
		if err != nil {
			return err
		}
		defer d.Close()

		sum, err := ResolveSnapshot(d, args[0])
		if err != nil {
			return err
		}
		if err := d.DeleteSnapshot(sum.ID); err != nil {
			return err
		}
		log.Info("deleted snapshot", "id", sum.ID, "league", sum.League, "snapshot", sum.Label)
		fmt.Printf("Deleted %s (%s/%s, %d builds)\n", truncID(sum.ID), sum.League, sum.Label, sum.TotalBuilds)
		return nil
	},
}

var snapshotsExportCmd = &cobra.Command{
	Use:   "export <id|prefix|latest>",
	Short: "Write a stored snapshot as a JSON artifact",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		d, err := OpenDatabase(false)
		if err != nil {
			return err
		}
		defer d.Close()

		sum, err := ResolveSnapshot(d, args[0])
		if err != nil {
			return err
		}
		snap, err := d.LoadSnapshot(sum.ID)
		if err != nil {
			return err
		}
		if exportOutput == "" {
			data, err := ladder.MarshalSnapshot(snap)
			if err != nil {
				return err
			}
			_, err = os.Stdout.Write(append(data, '\n'))
			return err
		}
		if err := ladder.SaveJSON(exportOutput, snap); err != nil {
			return err
		}
		fmt.Fprintf(os.Stderr, "Exported %s to %s\n", truncID(sum.ID), exportOutput)
		return nil
	},
}

func init() {
	snapshotsListCmd.Flags().StringVar(&snapshotsLeague, "league", "", "Only snapshots of this league")
	snapshotsCmd.PersistentFlags().BoolVar(&snapshotsJSON, "json", false, "Output as JSON")
	snapshotsExportCmd.Flags().StringVarP(&exportOutput, "output", "o", "", "Output path (default stdout)")

	snapshotsCmd.AddCommand(snapshotsListCmd, snapshotsShowCmd, snapshotsRmCmd, snapshotsExportCmd)
	rootCmd.AddCommand(snapshotsCmd)
}
