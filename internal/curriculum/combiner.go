package curriculum

import "math"

// CanonicalModuleTitles is the fixed scaffold applied to every combined
// analysis regardless of what titles the per-upload analyses suggested.
var CanonicalModuleTitles = []string{
	"Introduction and Foundations",
	"Core Concepts",
	"Applied Practice",
	"Advanced Topics",
	"Integration and Review",
	"Assessment and Conclusion",
}

// AnalyzedUploads returns the uploads that carry an analysis, in order.
func AnalyzedUploads(uploads []Upload) []Upload {
	analyzed := make([]Upload, 0, len(uploads))
	for _, u := range uploads {
		if u.Analysis != nil {
			analyzed = append(analyzed, u)
		}
	}
	return analyzed
}

// CombineAnalyses reduces the analyses of the given uploads into one
// CombinedAnalysis. Uploads without an analysis are ignored. A single
// analyzed upload passes through verbatim except for the canonical title
// scaffold, which always replaces any suggested titles. This is a pure
// reduction with no error conditions.
func CombineAnalyses(uploads []Upload) CombinedAnalysis {
	analyzed := AnalyzedUploads(uploads)

	combined := CombinedAnalysis{
		CanonicalModuleTitles: append([]string(nil), CanonicalModuleTitles...),
	}
	if len(analyzed) == 0 {
		return combined
	}

	difficultySum := 0
	for _, u := range analyzed {
		a := u.Analysis
		combined.KeyTopics = appendUnique(combined.KeyTopics, a.KeyTopics)
		combined.LearningObjectives = appendUnique(combined.LearningObjectives, a.LearningObjectives)
		combined.Prerequisites = appendUnique(combined.Prerequisites, a.Prerequisites)
		combined.EstimatedReadMinutes += a.EstimatedReadMinutes
		difficultySum += a.Difficulty
	}
	combined.Difficulty = int(math.Round(float64(difficultySum) / float64(len(analyzed))))

	return combined
}

// appendUnique appends the items of src not already present in dst,
// preserving first-seen order.
func appendUnique(dst, src []string) []string {
	seen := make(map[string]struct{}, len(dst))
	for _, s := range dst {
		seen[s] = struct{}{}
	}
	for _, s := range src {
		if _, ok := seen[s]; ok {
			continue
		}
		seen[s] = struct{}{}
		dst = append(dst, s)
	}
	return dst
}
