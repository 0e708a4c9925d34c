// Package chatbot scores free text against keyword lists to pick categories
// and canned solutions.
package chatbot

import (
	"strings"
	"unicode"

	"github.com/kljensen/snowball/french"
	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// Message is a tokenized, stemmed message ready for scoring.
type Message struct {
	terms []string
	set   map[string]struct{}
}

// Analyze tokenizes text on non letter or digit boundaries and normalizes
// every token.
func Analyze(text string) Message {
	terms := normalizeAll(text)
	set := make(map[string]struct{}, len(terms))
	for _, t := range terms {
		set[t] = struct{}{}
	}
	return Message{terms: terms, set: set}
}

// Empty reports whether the message carries no tokens.
func (m Message) Empty() bool {
	return len(m.terms) == 0
}

// Matches reports whether keyword occurs in the message. A multi-word keyword
// must appear as a contiguous run of tokens.
func (m Message) Matches(keyword string) bool {
	kw := normalizeAll(keyword)
	switch len(kw) {
	case 0:
		return false
	case 1:
		_, ok := m.set[kw[0]]
		return ok
	}
	for i := 0; i+len(kw) <= len(m.terms); i++ {
		if equalTerms(m.terms[i:i+len(kw)], kw) {
			return true
		}
	}
	return false
}

// MatchedKeywords returns the keywords found in the message, each at most
// once, in keyword order.
func (m Message) MatchedKeywords(keywords []string) []string {
	matched := []string{}
	seen := make(map[string]struct{}, len(keywords))
	for _, kw := range keywords {
		key := strings.Join(normalizeAll(kw), " ")
		if key == "" {
			continue
		}
		if _, dup := seen[key]; dup {
			continue
		}
		if m.Matches(kw) {
			seen[key] = struct{}{}
			matched = append(matched, kw)
		}
	}
	return matched
}

// Score counts distinct keywords present in the message.
func (m Message) Score(keywords []string) int {
	return len(m.MatchedKeywords(keywords))
}

// Score is a convenience wrapper for one-off scoring.
func Score(text string, keywords []string) int {
	return Analyze(text).Score(keywords)
}

func normalizeAll(text string) []string {
	fields := strings.FieldsFunc(strings.ToLower(text), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	})
	out := make([]string, 0, len(fields))
	for _, f := range fields {
		if term := normalize(f); term != "" {
			out = append(out, term)
		}
	}
	return out
}

// normalize stems a lower-case French word and strips its diacritics so
// "réseau" and "reseau" compare equal.
func normalize(word string) string {
	stem := french.Stem(word, true)
	if stem == "" {
		stem = word
	}
	folded, _, err := transform.String(foldAccents(), stem)
	if err != nil {
		return stem
	}
	return folded
}

func foldAccents() transform.Transformer {
	return transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
}

func equalTerms(a, b []string) bool {
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}
