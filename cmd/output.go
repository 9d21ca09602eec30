package cmd

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/dustin/go-humanize"

	"github.com/jasonDeichert/path-of-claude/internal/ladder"
)

const rule = "  ────────────────────────────────────────"

func printJSON(v any) error {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func section(title string) {
	fmt.Printf("\n  %s\n%s\n", title, rule)
}

// shortNumber renders 63000 as "63k" and 1300000 as "1.3M".
func shortNumber(n int) string {
	if n < 1000 {
		return fmt.Sprintf("%d", n)
	}
	value, prefix := humanize.ComputeSI(float64(n))
	return humanize.FtoaWithDigits(value, 1) + prefix
}

func ago(t time.Time) string {
	if t.IsZero() {
		return "unknown"
	}
	return humanize.Time(t)
}

func truncName(s string, max int) string {
	if len(s) <= max {
		return s
	}
	cut := max
	for cut > 0 && !utf8.RuneStart(s[cut]) {
		cut--
	}
	return s[:cut] + "..."
}

func filterLabel(s *ladder.BuildSnapshot) string {
	var parts []string
	if s.AscendancyFilter != nil {
		parts = append(parts, *s.AscendancyFilter)
	}
	switch {
	case s.MinLevel != nil && s.MaxLevel != nil:
		parts = append(parts, fmt.Sprintf("lv%d-%d", *s.MinLevel, *s.MaxLevel))
	case s.MinLevel != nil:
		parts = append(parts, fmt.Sprintf("lv%d+", *s.MinLevel))
	case s.MaxLevel != nil:
		parts = append(parts, fmt.Sprintf("lv<=%d", *s.MaxLevel))
	}
	if len(parts) == 0 {
		return ""
	}
	return " [" + strings.Join(parts, ", ") + "]"
}

// printBuildTable lists builds in ladder order.
func printBuildTable(builds []ladder.Build) {
	for _, b := range builds {
		fmt.Printf("  %3d. [%-15s] Lv%3d  %-25s | Life %6s | EHP %6s | DPS %6s | %s\n",
			b.Rank, truncName(b.Ascendancy, 15), b.Level, truncName(b.CharacterName, 25),
			humanize.Comma(int64(b.Life)), shortNumber(b.EffectiveHP), shortNumber(b.DPS), b.MainSkill)
	}
}

// printBuildDetail prints keystones and skill setups of enriched builds.
func printBuildDetail(b *ladder.Build) {
	fmt.Printf("\n  %d. %s (Lv%d %s)\n", b.Rank, b.CharacterName, b.Level, b.Ascendancy)
	fmt.Printf("     Life: %s | ES: %s | EHP: %s\n",
		humanize.Comma(int64(b.Life)), humanize.Comma(int64(b.EnergyShield)), shortNumber(b.EffectiveHP))
	fmt.Printf("     Main Skill: %s\n", b.MainSkill)
	if len(b.Keystones) > 0 {
		fmt.Printf("     Keystones: %s\n", strings.Join(b.Keystones, ", "))
	} else {
		fmt.Println("     Keystones: None visible")
	}
	if len(b.SkillGroups) == 0 {
		return
	}
	fmt.Println("     Skill Setups:")
	for i := range b.SkillGroups {
		g := &b.SkillGroups[i]
		main, ok := g.MainSkill()
		if !ok {
			continue
		}
		state := ""
		if !g.Enabled {
			state = " (disabled)"
		}
		fmt.Printf("       - %s [%s, %d-link]%s\n", main, g.Slot, g.LinkCount(), state)
		for _, sup := range g.Supports() {
			fmt.Printf("         + %s\n", sup)
		}
	}
}
