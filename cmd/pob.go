package cmd

import (
	"fmt"
	"io"
	"os"
	"sort"
	"strings"

	"github.com/spf13/cobra"

	"github.com/jasonDeichert/path-of-claude/internal/ladder"
	"github.com/jasonDeichert/path-of-claude/internal/pob"
)

var (
	pobJSON       bool
	similarTop    int
	similarMin    float64
	diffShowNodes bool
)

var pobCmd = &cobra.Command{
	Use:   "pob",
	Short: "Decode and compare Path of Building export codes",
	Long: `Each <code> argument is a file containing an export code, "-" for stdin,
or the code itself.`,
}

var pobDecodeCmd = &cobra.Command{
	Use:   "decode <code>",
	Short: "Print the XML document inside an export code",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		code, err := readCodeArg(args[0])
		if err != nil {
			return err
		}
		doc, err := pob.Decode(code)
		if err != nil {
			return err
		}
		fmt.Println(doc)
		return nil
	},
}

var pobEncodeCmd = &cobra.Command{
	Use:   "encode <document.xml|->",
	Short: "Encode an XML build document as an export code",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		doc, err := readInput(args[0])
		if err != nil {
			return err
		}
		code, err := pob.Encode(doc)
		if err != nil {
			return err
		}
		fmt.Println(code)
		return nil
	},
}

var pobAnalyzeCmd = &cobra.Command{
	Use:   "analyze <code>",
	Short: "Summarize a build: level, ascendancy, skills, keystones, items",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := analyzeArg(args[0])
		if err != nil {
			return err
		}
		if pobJSON {
			return printJSON(a)
		}
		printAnalysis(a)
		return nil
	},
}

var pobDiffCmd = &cobra.Command{
	Use:   "diff <code-a> <code-b>",
	Short: "Compare the passive trees of two builds",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := analyzeArg(args[0])
		if err != nil {
			return err
		}
		b, err := analyzeArg(args[1])
		if err != nil {
			return err
		}
		diff := pob.CompareTrees(a, b)
		sim := pob.TreeSimilarity(a, b)
		if pobJSON {
			return printJSON(struct {
				pob.TreeDiff
				Similarity float64 `json:"similarity"`
			}{diff, sim})
		}

		table, err := nodeTable()
		if err != nil {
			return err
		}
		section("TREE DIFF")
		fmt.Printf("  Similarity: %.1f%%\n", sim*100)
		printNodeGroup("Shared", diff.Common, table)
		printNodeGroup("Only "+codeLabel(args[0]), diff.OnlyA, table)
		printNodeGroup("Only "+codeLabel(args[1]), diff.OnlyB, table)
		fmt.Println()
		return nil
	},
}

var pobCommonCmd = &cobra.Command{
	Use:   "common <code|dir>...",
	Short: "Passive nodes allocated by every build",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		pool, err := loadPool(args)
		if err != nil {
			return err
		}
		analyses := make([]*pob.Analysis, len(pool))
		for i, p := range pool {
			analyses[i] = p.Analysis
		}
		common := pob.CommonNodes(analyses)
		if pobJSON {
			return printJSON(common)
		}

		table, err := nodeTable()
		if err != nil {
			return err
		}
		section(fmt.Sprintf("COMMON NODES  %d builds", len(pool)))
		printNodeGroup("Shared by all", common, table)
		fmt.Println()
		return nil
	},
}

var pobSimilarCmd = &cobra.Command{
	Use:   "similar <target-code> <code|dir>...",
	Short: "Rank builds by passive tree similarity to a target",
	Args:  cobra.MinimumNArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		target, err := analyzeArg(args[0])
		if err != nil {
			return err
		}
		pool, err := loadPool(args[1:])
		if err != nil {
			return err
		}
		results := pob.FindSimilar(target, pool, codeLabel(args[0]), similarTop, similarMin)
		if pobJSON {
			return printJSON(results)
		}

		section(fmt.Sprintf("SIMILAR TO %s", codeLabel(args[0])))
		if len(results) == 0 {
			fmt.Println("  No builds above the similarity threshold.")
		}
		for i, r := range results {
			fmt.Printf("  %2d. %-30s %5.1f%%  %4d shared nodes\n", i+1, truncName(r.Label, 30), r.Similarity*100, r.Shared)
		}
		fmt.Println()
		return nil
	},
}

func init() {
	pobCmd.PersistentFlags().BoolVar(&pobJSON, "json", false, "Output as JSON")
	pobDiffCmd.Flags().BoolVar(&diffShowNodes, "nodes", false, "List raw node IDs as well as named nodes")
	pobSimilarCmd.Flags().IntVar(&similarTop, "top", 5, "Number of similar builds to show")
	pobSimilarCmd.Flags().Float64Var(&similarMin, "min", 0, "Minimum similarity (0-1)")

	pobCmd.AddCommand(pobDecodeCmd, pobEncodeCmd, pobAnalyzeCmd, pobDiffCmd, pobCommonCmd, pobSimilarCmd)
	rootCmd.AddCommand(pobCmd)
}

// readInput returns the contents of a file, or stdin for "-".
func readInput(arg string) (string, error) {
	if arg == "-" {
		data, err := io.ReadAll(os.Stdin)
		if err != nil {
			return "", fmt.Errorf("reading stdin: %w", err)
		}
		return string(data), nil
	}
	data, err := os.ReadFile(arg)
	if err != nil {
		return "", err
	}
	return string(data), nil
}

// readCodeArg treats arg as a file or "-" when one exists, else as a literal code.
func readCodeArg(arg string) (string, error) {
	if arg == "-" {
		return readInput(arg)
	}
	if info, err := os.Stat(arg); err == nil && !info.IsDir() {
		return readInput(arg)
	}
	return arg, nil
}

// codeLabel names an argument in output: file base name, or the literal marker.
func codeLabel(arg string) string {
	switch {
	case arg == "-":
		return "stdin"
	case isFile(arg):
		return ladder.CodeLabel(arg)
	default:
		return truncName(arg, 12)
	}
}

func isFile(path string) bool {
	info, err := os.Stat(path)
	return err == nil && !info.IsDir()
}

func analyzeArg(arg string) (*pob.Analysis, error) {
	analyzer, err := cfg.Analyzer()
	if err != nil {
		return nil, err
	}
	code, err := readCodeArg(arg)
	if err != nil {
		return nil, err
	}
	a, err := analyzer.Analyze(code)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", codeLabel(arg), err)
	}
	return a, nil
}

// loadPool analyzes every code file under args. Files that fail to decode
// are logged and skipped.
func loadPool(args []string) ([]pob.Labeled, error) {
	analyzer, err := cfg.Analyzer()
	if err != nil {
		return nil, err
	}
	files, err := ladder.CodeFiles(args)
	if err != nil {
		return nil, err
	}
	pool := make([]pob.Labeled, 0, len(files))
	for _, f := range files {
		a, err := analyzer.AnalyzeFile(f)
		if err != nil {
			log.Warn("skipping code file", "path", f, "error", err)
			continue
		}
		pool = append(pool, pob.Labeled{Label: ladder.CodeLabel(f), Analysis: a})
	}
	if len(pool) == 0 {
		return nil, fmt.Errorf("no decodable export codes in %s", strings.Join(args, ", "))
	}
	return pool, nil
}

func nodeTable() (pob.NodeTable, error) {
	if cfg.POB.NodeTable == "" {
		return nil, nil
	}
	return pob.LoadNodeTable(cfg.POB.NodeTable)
}

func printNodeGroup(title string, nodes pob.NodeSet, table pob.NodeTable) {
	fmt.Printf("\n  %s: %d nodes\n", title, nodes.Len())
	if table != nil {
		keystones, notables := table.Classify(nodes)
		if len(keystones) > 0 {
			fmt.Printf("    Keystones: %s\n", strings.Join(keystones, ", "))
		}
		if len(notables) > 0 {
			fmt.Printf("    Notables:  %s\n", strings.Join(notables, ", "))
		}
	}
	if diffShowNodes || table == nil {
		ids := nodes.Sorted()
		if len(ids) > 20 && !diffShowNodes {
			fmt.Printf("    %s ... and %d more\n", joinInts(ids[:20]), len(ids)-20)
			return
		}
		if len(ids) > 0 {
			fmt.Printf("    %s\n", joinInts(ids))
		}
	}
}

func joinInts(ids []int) string {
	parts := make([]string, len(ids))
	for i, id := range ids {
		parts[i] = fmt.Sprintf("%d", id)
	}
	return strings.Join(parts, " ")
}

func printAnalysis(a *pob.Analysis) {
	fmt.Printf("\n  Level %d %s\n", a.CharacterLevel, a.Ascendancy)
	if a.MainSkill != nil {
		fmt.Printf("  Main Skill: %s\n", *a.MainSkill)
	}
	fmt.Printf("  Passives:   %d allocated\n", a.PassiveNodeIDs.Len())
	if len(a.Keystones) > 0 {
		fmt.Printf("  Keystones:  %s\n", strings.Join(a.Keystones, ", "))
	}
	if len(a.NotablePassives) > 0 {
		fmt.Printf("  Notables:   %s\n", strings.Join(a.NotablePassives, ", "))
	}

	if len(a.SkillGroups) > 0 {
		section("SKILL SETUPS")
		for i := range a.SkillGroups {
			g := &a.SkillGroups[i]
			main, ok := g.MainSkill()
			if !ok {
				continue
			}
			state := ""
			if !g.Enabled {
				state = " (disabled)"
			}
			slot := g.Slot
			if slot == "" {
				slot = "-"
			}
			fmt.Printf("  %s [%s, %d-link]%s\n", main, slot, g.LinkCount(), state)
			for _, sup := range g.Supports() {
				fmt.Printf("    + %s\n", sup)
			}
		}
	}

	if lines := skillLinkLines(a); len(lines) > 0 {
		section("SKILL LINKS")
		for _, l := range lines {
			fmt.Printf("  %s\n", l)
		}
	}

	if len(a.Items) > 0 {
		section("ITEMS")
		for _, it := range a.Items {
			rarity := ""
			if it.Rarity != "" {
				rarity = " (" + strings.ToLower(it.Rarity) + ")"
			}
			fmt.Printf("  %-14s %s%s\n", it.Slot, it.Name, rarity)
		}
	}
	fmt.Println()
}

// skillLinkLines renders enabled links as "Main: gem, gem", sorted by main skill.
func skillLinkLines(a *pob.Analysis) []string {
	links := a.SkillLinks()
	mains := make([]string, 0, len(links))
	for main := range links {
		mains = append(mains, main)
	}
	sort.Strings(mains)

	lines := make([]string, len(mains))
	for i, main := range mains {
		lines[i] = main + ": " + strings.Join(links[main], ", ")
	}
	return lines
}
