// Package stats summarizes ladder snapshots: counts, level distribution, and
// how the ascendancy mix moves between snapshots.
package stats

import (
	"sort"

	"github.com/jasonDeichert/path-of-claude/internal/ladder"
)

// Count is one value in a frequency table
type Count struct {
	Value   string  `json:"value"`
	Count   int     `json:"count"`
	Percent float64 `json:"percent"`
}

// Combo is an (ascendancy, main skill) pair
type Combo struct {
	Ascendancy string  `json:"ascendancy"`
	MainSkill  string  `json:"mainSkill"`
	Count      int     `json:"count"`
	Percent    float64 `json:"percent"`
}

// counter tallies values and remembers first-seen order for tie breaks.
type counter struct {
	order  []string
	counts map[string]int
}

func newCounter() *counter {
	return &counter{counts: make(map[string]int)}
}

func (c *counter) add(v string) {
	if _, ok := c.counts[v]; !ok {
		c.order = append(c.order, v)
	}
	c.counts[v]++
}

// top returns up to k values by count descending; equal counts keep first-seen order.
func (c *counter) top(k, total int) []Count {
	out := make([]Count, 0, len(c.order))
	for _, v := range c.order {
		out = append(out, Count{Value: v, Count: c.counts[v], Percent: percent(c.counts[v], total)})
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Count > out[j].Count })
	if k < 0 {
		k = 0
	}
	if len(out) > k {
		out = out[:k]
	}
	return out
}

// TopAscendancies counts builds per ascendancy.
func TopAscendancies(s *ladder.BuildSnapshot, k int) []Count {
	c := newCounter()
	for i := range s.Builds {
		c.add(s.Builds[i].Ascendancy)
	}
	return c.top(k, len(s.Builds))
}

// TopSkills counts builds per main skill.
func TopSkills(s *ladder.BuildSnapshot, k int) []Count {
	c := newCounter()
	for i := range s.Builds {
		c.add(s.Builds[i].MainSkill)
	}
	return c.top(k, len(s.Builds))
}

// TopCombos counts builds per (ascendancy, main skill) pair.
func TopCombos(s *ladder.BuildSnapshot, k int) []Combo {
	type pair struct{ asc, skill string }

	c := newCounter()
	pairs := make(map[string]pair)
	for i := range s.Builds {
		b := &s.Builds[i]
		// NUL cannot appear in either name
		key := b.Ascendancy + "\x00" + b.MainSkill
		pairs[key] = pair{b.Ascendancy, b.MainSkill}
		c.add(key)
	}

	counts := c.top(k, len(s.Builds))
	out := make([]Combo, 0, len(counts))
	for _, entry := range counts {
		p := pairs[entry.Value]
		out = append(out, Combo{
			Ascendancy: p.asc,
			MainSkill:  p.skill,
			Count:      entry.Count,
			Percent:    entry.Percent,
		})
	}
	return out
}

// AverageLevel is the mean character level, 0 for an empty snapshot.
func AverageLevel(s *ladder.BuildSnapshot) float64 {
	if len(s.Builds) == 0 {
		return 0
	}
	sum := 0
	for i := range s.Builds {
		sum += s.Builds[i].Level
	}
	return float64(sum) / float64(len(s.Builds))
}

func percent(n, total int) float64 {
	if total == 0 {
		return 0
	}
	return float64(n) / float64(total) * 100
}
