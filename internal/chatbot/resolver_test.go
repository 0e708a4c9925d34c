package chatbot

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/deskflow/helpdesk/internal/domain"
)

func catalogue() []domain.Category {
	return []domain.Category{
		{ID: "elec", Name: "Electricité", Keywords: []string{"disjoncteur", "sauter", "coupure", "électricité"}},
		{ID: "it", Name: "Informatique", Keywords: []string{"wifi", "internet", "connexion", "réseau"}},
	}
}

func TestDetectPicksBestCategory(t *testing.T) {
	got := Detect("mon wifi ne fonctionne pas", catalogue())
	require.NotNil(t, got)
	assert.Equal(t, "Informatique", got.Name)
}

func TestDetectReturnsNilWithoutMatch(t *testing.T) {
	assert.Nil(t, Detect("bonjour", catalogue()))
	assert.Nil(t, Detect("", catalogue()))
	assert.Nil(t, Detect("wifi", nil))
}

func TestDetectFirstCategoryWinsTies(t *testing.T) {
	cats := []domain.Category{
		{Name: "A", Keywords: []string{"wifi"}},
		{Name: "B", Keywords: []string{"wifi"}},
	}
	assert.Equal(t, "A", Detect("wifi", cats).Name)
}

func TestDetectStrictlyGreaterReplacesBest(t *testing.T) {
	cats := []domain.Category{
		{Name: "A", Keywords: []string{"wifi"}},
		{Name: "B", Keywords: []string{"wifi", "internet"}},
	}
	assert.Equal(t, "B", Detect("wifi et internet", cats).Name)
}

func wifiSolutions() []domain.Solution {
	return []domain.Solution{
		{ID: "s1", Title: "Problème WiFi", Content: "Redémarrez votre box.", Keywords: []string{"wifi", "internet", "connexion", "réseau"}},
		{ID: "s2", Title: "Imprimante", Content: "Vérifiez le câble.", Keywords: []string{"imprimante"}},
	}
}

func TestResolveReturnsMatchedSolution(t *testing.T) {
	cat := &catalogue()[1]
	res := Resolve(cat, wifiSolutions(), "wifi cassé")
	assert.Equal(t, "Redémarrez votre box.", res.Reply)
	assert.Equal(t, []string{"wifi"}, res.MatchedKeywords)
	require.NotNil(t, res.Solution)
	assert.Equal(t, "s1", res.Solution.ID)
	assert.False(t, res.Fallback())
}

func TestResolveFallsBackToDefaultResponse(t *testing.T) {
	cat := &domain.Category{Name: "Informatique", DefaultResponse: "Un agent va vous répondre."}
	res := Resolve(cat, wifiSolutions(), "mon écran est noir")
	assert.Equal(t, "Un agent va vous répondre.", res.Reply)
	assert.Empty(t, res.MatchedKeywords)
	assert.True(t, res.Fallback())
}

func TestResolveUsesHighestPriorityFallbackSolution(t *testing.T) {
	sols := append(wifiSolutions(),
		domain.Solution{Content: "low", IsFallback: true, FallbackPriority: 1},
		domain.Solution{Content: "high", IsFallback: true, FallbackPriority: 5},
		domain.Solution{Content: "high too", IsFallback: true, FallbackPriority: 5},
	)
	res := Resolve(&domain.Category{Name: "Informatique"}, sols, "écran noir")
	assert.Equal(t, "high", res.Reply)
	assert.True(t, res.Fallback())
}

func TestResolveWithoutSolutionsOrDefault(t *testing.T) {
	res := Resolve(&domain.Category{Name: "Vide"}, nil, "wifi")
	assert.Equal(t, NoSolutionReply, res.Reply)
	assert.Empty(t, res.MatchedKeywords)
}

func TestResolveNeverReturnsDefaultWhenASolutionScores(t *testing.T) {
	cat := &domain.Category{Name: "Informatique", DefaultResponse: "default"}
	for _, msg := range []string{"wifi", "internet lent", "connexion perdue au réseau", "imprimante bloquée"} {
		res := Resolve(cat, wifiSolutions(), msg)
		assert.NotEqual(t, "default", res.Reply, msg)
		assert.NotEmpty(t, res.MatchedKeywords, msg)
	}
}
