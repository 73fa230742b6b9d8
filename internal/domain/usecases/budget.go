package usecases

import (
	"strings"

	"github.com/0xcro3dile/latentqa-go/internal/domain/entities"
)

// LimitTokens joins documents, one per line, until the next one would push
// the word count past tokenLimit. A document is included whole or not at all,
// so an oversized first document yields "".
//
// Words are whitespace-separated fields, an approximation of model tokens.
func LimitTokens(docs []entities.Document, tokenLimit int) string {
	var sb strings.Builder
	for _, d := range WithinBudget(docs, tokenLimit) {
		sb.WriteString(d.Content)
		sb.WriteByte('\n')
	}
	return strings.TrimSpace(sb.String())
}

// WithinBudget returns the prefix of docs that LimitTokens includes.
func WithinBudget(docs []entities.Document, tokenLimit int) []entities.Document {
	words := 0
	for i, d := range docs {
		n := len(strings.Fields(d.Content))
		if words+n > tokenLimit {
			return docs[:i]
		}
		words += n
	}
	return docs
}
