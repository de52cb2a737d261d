package topics

import (
	"fmt"
	"strings"

	"github.com/jdkato/prose/v2"
)

// Token is a word with its Penn Treebank part-of-speech tag.
type Token struct {
	Text string
	Tag  string
}

// Tagger assigns part-of-speech tags to a word sequence.
type Tagger interface {
	Tag(words []string) ([]Token, error)
}

// ProseTagger tags with prose's averaged perceptron model. The words are
// re-tokenized by prose, so the returned tokens are prose's own.
type ProseTagger struct{}

func (ProseTagger) Tag(words []string) ([]Token, error) {
	if len(words) == 0 {
		return nil, nil
	}
	doc, err := prose.NewDocument(strings.Join(words, " "),
		prose.WithExtraction(false),
		prose.WithSegmentation(false))
	if err != nil {
		return nil, fmt.Errorf("pos tag: %w", err)
	}
	toks := doc.Tokens()
	out := make([]Token, len(toks))
	for i, t := range toks {
		out[i] = Token{Text: t.Text, Tag: t.Tag}
	}
	return out, nil
}
