package cmd

import (
	"fmt"
	"math"
	"strings"

	"github.com/spf13/cobra"

	"github.com/jasonDeichert/path-of-claude/internal/ladder"
	"github.com/jasonDeichert/path-of-claude/internal/stats"
)

var (
	analyzeJSON       bool
	analyzeAscendancy string
	analyzeMinLevel   int
	analyzeMaxLevel   int
	analyzeTopN       int
	analyzeBuilds     int
)

var analyzeCmd = &cobra.Command{
	Use:   "analyze <snapshot.json|id|latest>...",
	Short: "Meta statistics for a snapshot: ascendancies, skills, combos, levels",
	Long: `Summarizes one snapshot. With several snapshots (oldest first), also prints
how the ascendancy and skill mix shifted between them.`,
	Args: cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		snaps := make([]*ladder.BuildSnapshot, 0, len(args))
		for _, ref := range args {
			snap, err := loadSnapshotRef(ref)
			if err != nil {
				return fmt.Errorf("loading %s: %w", ref, err)
			}
			if cmd.Flags().Changed("ascendancy") {
				snap = snap.FilterByAscendancy(analyzeAscendancy)
			}
			var minLevel, maxLevel *int
			if cmd.Flags().Changed("min-level") {
				minLevel = &analyzeMinLevel
			}
			if cmd.Flags().Changed("max-level") {
				maxLevel = &analyzeMaxLevel
			}
			if minLevel != nil || maxLevel != nil {
				snap = snap.FilterByLevel(minLevel, maxLevel)
			}
			snaps = append(snaps, snap)
		}

		config := &stats.ReportConfig{
			TopAscendancies: analyzeTopN,
			TopSkills:       analyzeTopN,
			TopCombos:       analyzeTopN,
		}
		if !cmd.Flags().Changed("top-n") {
			config = stats.DefaultReportConfig()
		}

		reports := make([]*stats.MetaReport, len(snaps))
		for i, s := range snaps {
			reports[i] = stats.Summarize(s, config)
		}
		var progression []stats.ProgressionStep
		if len(snaps) > 1 {
			progression = stats.Progression(snaps, 5)
		}

		if analyzeJSON {
			if len(snaps) == 1 {
				return printJSON(reports[0])
			}
			return printJSON(struct {
				Reports     []*stats.MetaReport     `json:"reports"`
				Progression []stats.ProgressionStep `json:"progression"`
			}{reports, progression})
		}

		for i, r := range reports {
			printMetaReport(r, snaps[i])
		}
		if progression != nil {
			printProgression(progression)
		}
		return nil
	},
}

func init() {
	analyzeCmd.Flags().BoolVar(&analyzeJSON, "json", false, "Output as JSON")
	analyzeCmd.Flags().StringVarP(&analyzeAscendancy, "ascendancy", "a", "", "Scope analysis to one ascendancy")
	analyzeCmd.Flags().IntVar(&analyzeMinLevel, "min-level", 0, "Minimum character level")
	analyzeCmd.Flags().IntVar(&analyzeMaxLevel, "max-level", 0, "Maximum character level")
	analyzeCmd.Flags().IntVar(&analyzeTopN, "top-n", 10, "Number of top items to show per section")
	analyzeCmd.Flags().IntVar(&analyzeBuilds, "builds", 10, "Number of top builds to list")
	rootCmd.AddCommand(analyzeCmd)
}

func printMetaReport(r *stats.MetaReport, snap *ladder.BuildSnapshot) {
	fmt.Printf("\n  %s / %s%s\n", r.League, r.Snapshot, filterLabel(snap))
	fmt.Printf("  %d builds  avg level %.1f  scraped %s", r.TotalBuilds, r.AverageLevel, ago(r.ScrapedAt))
	if r.Enriched > 0 {
		fmt.Printf("  (%d with export detail)", r.Enriched)
	}
	fmt.Println()

	if r.TotalBuilds == 0 {
		fmt.Println("\n  No builds.")
		return
	}

	section("ASCENDANCIES")
	for _, c := range r.Ascendancies {
		fmt.Printf("  %-20s %4d  %5.1f%%  %s\n", truncName(c.Value, 20), c.Count, c.Percent, bar(c.Percent))
	}

	section("MAIN SKILLS")
	for _, c := range r.Skills {
		fmt.Printf("  %-30s %4d  %5.1f%%\n", truncName(c.Value, 30), c.Count, c.Percent)
	}

	section("ASCENDANCY + SKILL")
	for _, c := range r.Combos {
		fmt.Printf("  %-16s %-28s %4d  %5.1f%%\n",
			truncName(c.Ascendancy, 16), truncName(c.MainSkill, 28), c.Count, c.Percent)
	}

	section("LEVELS")
	for _, b := range r.LevelHistogram {
		if b.Count > 0 {
			barWidth := int(math.Log2(float64(b.Count))) + 2
			fmt.Printf("  %6s: %4d  %5.1f%%  %s\n", b.Label, b.Count, b.Percent, strings.Repeat("=", barWidth))
		}
	}

	if analyzeBuilds > 0 {
		top := snap.Top(analyzeBuilds)
		section(fmt.Sprintf("TOP %d BUILDS", len(top)))
		printBuildTable(top)
	}
	fmt.Println()
}

func printProgression(steps []stats.ProgressionStep) {
	section("PROGRESSION")
	for _, s := range steps {
		fmt.Printf("  %-10s %5d builds\n", s.Snapshot, s.TotalBuilds)
		fmt.Printf("    ascendancies: %s\n", countList(s.Ascendancies))
		fmt.Printf("    skills:       %s\n", countList(s.Skills))
	}
	fmt.Println()
}

func countList(counts []stats.Count) string {
	if len(counts) == 0 {
		return "-"
	}
	parts := make([]string, len(counts))
	for i, c := range counts {
		parts[i] = fmt.Sprintf("%s %.0f%%", c.Value, c.Percent)
	}
	return strings.Join(parts, ", ")
}

// bar draws a 20-cell share bar for a percentage.
func bar(pct float64) string {
	n := int(pct / 5)
	if n > 20 {
		n = 20
	}
	if n < 0 {
		n = 0
	}
	return strings.Repeat("█", n) + strings.Repeat("░", 20-n)
}
