package phrases

import (
	"strings"
	"unicode"

	"github.com/kljensen/snowball/english"
	"golang.org/x/text/unicode/norm"
)

// DefaultStopwords is the NLTK English stopword list.
var DefaultStopwords = []string{
	"i", "me", "my", "myself", "we", "our", "ours", "ourselves", "you", "your", "yours", "yourself",
	"yourselves", "he", "him", "his", "himself", "she", "her", "hers", "herself", "it", "its", "itself",
	"they", "them", "their", "theirs", "themselves", "what", "which", "who", "whom", "this", "that", "these",
	"those", "am", "is", "are", "was", "were", "be", "been", "being", "have", "has", "had", "having", "do",
	"does", "did", "doing", "a", "an", "the", "and", "but", "if", "or", "because", "as", "until", "while", "of",
	"at", "by", "for", "with", "about", "against", "between", "into", "through", "during", "before", "after",
	"above", "below", "to", "from", "up", "down", "in", "out", "on", "off", "over", "under", "again", "further",
	"then", "once", "here", "there", "when", "where", "why", "how", "all", "any", "both", "each", "few", "more",
	"most", "other", "some", "such", "no", "nor", "not", "only", "own", "same", "so", "than", "too", "very", "s",
	"t", "can", "will", "just", "don", "should", "now",
}

// Normalizer turns a label into the comparison form: accents folded,
// lowercased, punctuation removed, stopwords dropped, tokens stemmed.
type Normalizer struct {
	stop map[string]struct{}
	stem bool
}

// NewNormalizer builds a Normalizer. A nil stopword list uses DefaultStopwords.
func NewNormalizer(stopwords []string, stem bool) *Normalizer {
	if stopwords == nil {
		stopwords = DefaultStopwords
	}
	stop := make(map[string]struct{}, len(stopwords))
	for _, w := range stopwords {
		stop[strings.ToLower(strings.TrimSpace(w))] = struct{}{}
	}
	return &Normalizer{stop: stop, stem: stem}
}

// Tokens returns the normalized tokens of s in order.
func (n *Normalizer) Tokens(s string) []string {
	var b strings.Builder
	for _, r := range norm.NFD.String(s) {
		switch {
		case unicode.Is(unicode.Mn, r):
		case unicode.IsLetter(r), unicode.IsDigit(r), r == '_':
			b.WriteRune(unicode.ToLower(r))
		case unicode.IsSpace(r):
			b.WriteByte(' ')
		}
	}
	fields := strings.Fields(norm.NFC.String(b.String()))
	out := fields[:0]
	for _, f := range fields {
		if _, ok := n.stop[f]; ok {
			continue
		}
		if n.stem {
			f = english.Stem(f, false)
		}
		if f != "" {
			out = append(out, f)
		}
	}
	return out
}

// Normalize joins Tokens with single spaces.
func (n *Normalizer) Normalize(s string) string {
	return strings.Join(n.Tokens(s), " ")
}
