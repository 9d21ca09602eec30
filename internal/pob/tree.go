package pob

import "sort"

// TreeDiff is the node-level comparison of two passive trees
type TreeDiff struct {
	Common NodeSet `json:"common"`
	OnlyA  NodeSet `json:"onlyA"`
	OnlyB  NodeSet `json:"onlyB"`
}

// CompareTrees splits the passive nodes of two builds into shared and exclusive sets.
func CompareTrees(a, b *Analysis) TreeDiff {
	return TreeDiff{
		Common: a.PassiveNodeIDs.Intersect(b.PassiveNodeIDs),
		OnlyA:  a.PassiveNodeIDs.Difference(b.PassiveNodeIDs),
		OnlyB:  b.PassiveNodeIDs.Difference(a.PassiveNodeIDs),
	}
}

// CommonNodes returns the passive nodes allocated by every analysis.
// No analyses means no common nodes.
func CommonNodes(analyses []*Analysis) NodeSet {
	if len(analyses) == 0 {
		return make(NodeSet)
	}
	common := analyses[0].PassiveNodeIDs.Clone()
	for _, a := range analyses[1:] {
		common = common.Intersect(a.PassiveNodeIDs)
	}
	return common
}

// TreeSimilarity is the Jaccard overlap of two passive trees.
// Returns 0.0 when both trees are empty.
func TreeSimilarity(a, b *Analysis) float64 {
	union := len(a.PassiveNodeIDs)
	shared := 0
	for id := range b.PassiveNodeIDs {
		if a.PassiveNodeIDs.Has(id) {
			shared++
		} else {
			union++
		}
	}
	if union == 0 {
		return 0.0
	}
	return float64(shared) / float64(union)
}

// Labeled pairs an analysis with the name it was loaded under (file or character).
type Labeled struct {
	Label    string
	Analysis *Analysis
}

// SimilarBuild is a candidate with its tree similarity to a target build.
type SimilarBuild struct {
	Label      string  `json:"label"`
	Similarity float64 `json:"similarity"`
	Shared     int     `json:"shared"`
}

// FindSimilar ranks candidates by tree similarity to target.
// Excludes the candidate labeled excludeLabel. Only returns candidates with
// similarity >= minSimilarity. Ties keep candidate order.
func FindSimilar(target *Analysis, candidates []Labeled, excludeLabel string, topN int, minSimilarity float64) []SimilarBuild {
	var results []SimilarBuild
	for _, c := range candidates {
		if c.Label == excludeLabel || c.Analysis == nil {
			continue
		}
		sim := TreeSimilarity(target, c.Analysis)
		if sim >= minSimilarity {
			results = append(results, SimilarBuild{
				Label:      c.Label,
				Similarity: sim,
				Shared:     target.PassiveNodeIDs.Intersect(c.Analysis.PassiveNodeIDs).Len(),
			})
		}
	}

	sort.SliceStable(results, func(i, j int) bool {
		return results[i].Similarity > results[j].Similarity
	})

	if topN >= 0 && len(results) > topN {
		results = results[:topN]
	}
	return results
}
