package chatbot

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestScoreCountsEachKeywordOnce(t *testing.T) {
	assert.Equal(t, 1, Score("wifi wifi WIFI", []string{"wifi"}))
	assert.Equal(t, 2, Score("plus de wifi ni internet", []string{"wifi", "internet", "imprimante"}))
}

func TestScoreEmptyInputs(t *testing.T) {
	assert.Zero(t, Score("", []string{"wifi"}))
	assert.Zero(t, Score("   ?!", []string{"wifi"}))
	assert.Zero(t, Score("mon wifi", nil))
	assert.Zero(t, Score("mon wifi", []string{""}))
}

func TestMatchingIgnoresCaseAccentsAndInflection(t *testing.T) {
	msg := Analyze("Le RESEAU est coupé, les disjoncteurs sautent")
	assert.True(t, msg.Matches("réseau"))
	assert.True(t, msg.Matches("disjoncteur"))
	assert.False(t, msg.Matches("imprimante"))
}

func TestMultiWordKeywordsMustBeContiguous(t *testing.T) {
	assert.True(t, Analyze("j'ai oublié mon mot de passe").Matches("mot de passe"))
	assert.False(t, Analyze("passe le mot de la fin").Matches("mot de passe"))
}

func TestMatchedKeywordsKeepsKeywordSpelling(t *testing.T) {
	got := Analyze("wifi cassé").MatchedKeywords([]string{"wifi", "internet", "connexion", "réseau"})
	assert.Equal(t, []string{"wifi"}, got)

	assert.Equal(t, []string{}, Analyze("rien").MatchedKeywords([]string{"wifi"}))
}

func TestMatchedKeywordsSkipsEquivalentDuplicates(t *testing.T) {
	got := Analyze("le réseau").MatchedKeywords([]string{"réseau", "Reseau"})
	assert.Equal(t, []string{"réseau"}, got)
}
