package chatbot

import (
	"sort"

	"github.com/deskflow/helpdesk/internal/domain"
)

// NoSolutionReply is used when a category has neither a default response nor
// a fallback solution.
const NoSolutionReply = "Je n'ai pas trouvé de solution spécifique à votre problème."

// Resolution is the outcome of matching a message against a category.
type Resolution struct {
	Reply           string
	MatchedKeywords []string
	// Solution is nil when the reply is a default or fallback.
	Solution *domain.Solution
}

// Fallback reports whether no solution matched.
func (r Resolution) Fallback() bool {
	return r.Solution == nil
}

// Resolve picks the solution with the strictly greatest keyword overlap. With
// no positive score it returns the category default response, then the
// highest priority fallback solution.
func Resolve(category *domain.Category, solutions []domain.Solution, message string) Resolution {
	msg := Analyze(message)
	var (
		best      *domain.Solution
		bestScore int
		matched   []string
	)
	if !msg.Empty() {
		for i := range solutions {
			hits := msg.MatchedKeywords(solutions[i].Keywords)
			if len(hits) > bestScore {
				best = &solutions[i]
				bestScore = len(hits)
				matched = hits
			}
		}
	}
	if best != nil {
		return Resolution{Reply: best.Content, MatchedKeywords: matched, Solution: best}
	}
	return Resolution{Reply: defaultReply(category, solutions), MatchedKeywords: []string{}}
}

func defaultReply(category *domain.Category, solutions []domain.Solution) string {
	if category != nil && category.DefaultResponse != "" {
		return category.DefaultResponse
	}
	if fb := BestFallback(solutions); fb != nil {
		return fb.Content
	}
	return NoSolutionReply
}

// BestFallback returns the fallback solution with the highest priority. Ties
// keep the earliest solution.
func BestFallback(solutions []domain.Solution) *domain.Solution {
	var candidates []*domain.Solution
	for i := range solutions {
		if solutions[i].IsFallback {
			candidates = append(candidates, &solutions[i])
		}
	}
	if len(candidates) == 0 {
		return nil
	}
	sort.SliceStable(candidates, func(i, j int) bool {
		return candidates[i].FallbackPriority > candidates[j].FallbackPriority
	})
	return candidates[0]
}
