package chatbot

import "github.com/deskflow/helpdesk/internal/domain"

// Detect returns the category whose keywords score highest against message,
// or nil when none scores above zero. On equal scores the earliest category
// wins, so callers must pass categories in a stable order.
func Detect(message string, categories []domain.Category) *domain.Category {
	msg := Analyze(message)
	if msg.Empty() {
		return nil
	}
	var best *domain.Category
	bestScore := 0
	for i := range categories {
		if score := msg.Score(categories[i].Keywords); score > bestScore {
			best = &categories[i]
			bestScore = score
		}
	}
	return best
}
