package matching

import (
	"sort"
	"strings"
	"unicode"
	"unicode/utf8"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

const minTokenLength = 3

// TokenSet is an unordered set of normalized tokens.
type TokenSet map[string]struct{}

func (s TokenSet) Has(token string) bool {
	_, ok := s[token]
	return ok
}

func (s TokenSet) Len() int {
	return len(s)
}

// Sorted returns the tokens in lexical order.
func (s TokenSet) Sorted() []string {
	out := make([]string, 0, len(s))
	for token := range s {
		out = append(out, token)
	}
	sort.Strings(out)
	return out
}

// Overlap returns the share of tokens in s that are also present in other.
// An empty s yields 0.
func (s TokenSet) Overlap(other TokenSet) float64 {
	if len(s) == 0 {
		return 0
	}
	hits := 0
	for token := range s {
		if other.Has(token) {
			hits++
		}
	}
	return float64(hits) / float64(len(s))
}

var stopWords = newTokenSet(
	"a", "an", "the", "and", "or", "but", "in", "on", "at", "to",
	"for", "of", "with", "by", "from", "is", "are", "was", "were",
	"be", "been", "being", "have", "has", "had", "do", "does", "did",
	"will", "would", "could", "should", "may", "might", "can", "shall",
	"must", "need", "it", "its", "this", "that", "these", "those",
	"i", "me", "my", "we", "our", "you", "your", "he", "she", "they",
	"them", "their", "who", "which", "what", "where", "when", "why",
	"how", "all", "each", "every", "both", "few", "more", "most",
	"other", "some", "such", "no", "not", "only", "same", "so",
	"than", "too", "very", "just", "about", "above", "after", "again",
	"also", "any", "as", "because", "before", "between", "during",
	"into", "over", "through", "under", "up", "out", "if", "then",
	"here", "there", "new", "work", "working", "worked", "experience",
	"experienced", "using", "used", "use", "including", "include",
	"well", "able", "ability", "strong", "excellent", "good", "great",
	"best", "etc", "required", "preferred", "minimum", "maximum",
	"years", "year", "responsible", "responsibilities",
)

func newTokenSet(tokens ...string) TokenSet {
	set := make(TokenSet, len(tokens))
	for _, t := range tokens {
		set[t] = struct{}{}
	}
	return set
}

// Tokenize lower-cases text, folds accents and splits it into a set of
// tokens. Tokens keep inner '+', '#' and '.' so "c++", "c#" and "node.js"
// survive. Short tokens and stop words are dropped.
func Tokenize(text string) TokenSet {
	set := make(TokenSet)
	if strings.TrimSpace(text) == "" {
		return set
	}

	fields := strings.FieldsFunc(foldAccents(strings.ToLower(text)), isSeparator)
	for _, field := range fields {
		token := strings.Trim(field, ".")
		if utf8.RuneCountInString(token) < minTokenLength {
			continue
		}
		if stopWords.Has(token) {
			continue
		}
		set[token] = struct{}{}
	}

	return set
}

// wordSet splits already lower-cased text into words without dropping short
// ones or stop words.
func wordSet(lower string) TokenSet {
	set := make(TokenSet)
	for _, field := range strings.FieldsFunc(lower, isSeparator) {
		if word := strings.Trim(field, "."); word != "" {
			set[word] = struct{}{}
		}
	}
	return set
}

func isSeparator(r rune) bool {
	if unicode.IsLetter(r) || unicode.IsDigit(r) {
		return false
	}
	return r != '+' && r != '#' && r != '.'
}

func foldAccents(s string) string {
	t := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	folded, _, err := transform.String(t, s)
	if err != nil {
		return s
	}
	return folded
}
