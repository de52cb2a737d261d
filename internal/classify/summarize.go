package classify

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
)

const (
	DefaultSummaryModel = "facebook/bart-large-cnn"
	DefaultEntityModel  = "dbmdz/bert-large-cased-finetuned-conll03-english"
)

// Summary length bounds, in model tokens.
const (
	SummaryMaxLength = 150
	SummaryMinLength = 30
)

// Summarizer produces a short abstract of a text.
type Summarizer interface {
	Summarize(ctx context.Context, text string) (string, error)
}

// EntityExtractor returns the named-entity words found in a text.
type EntityExtractor interface {
	Entities(ctx context.Context, text string) ([]string, error)
}

type HTTPSummarizer struct {
	client *Client
	model  string
}

func NewHTTPSummarizer(client *Client, model string) *HTTPSummarizer {
	if model == "" {
		model = DefaultSummaryModel
	}
	return &HTTPSummarizer{client: client, model: model}
}

func (s *HTTPSummarizer) Summarize(ctx context.Context, text string) (string, error) {
	body, err := s.client.infer(ctx, s.model, text, map[string]any{
		"max_length": SummaryMaxLength,
		"min_length": SummaryMinLength,
		"do_sample":  false,
	})
	if err != nil {
		return "", err
	}

	var out []struct {
		SummaryText string `json:"summary_text"`
	}
	if err := json.Unmarshal(body, &out); err != nil {
		return "", fmt.Errorf("decode summary: %w", err)
	}
	if len(out) == 0 {
		return "", ErrEmptyResponse
	}
	return strings.TrimSpace(out[0].SummaryText), nil
}

type HTTPEntityExtractor struct {
	client *Client
	model  string
}

func NewHTTPEntityExtractor(client *Client, model string) *HTTPEntityExtractor {
	if model == "" {
		model = DefaultEntityModel
	}
	return &HTTPEntityExtractor{client: client, model: model}
}

// Entities returns entity words in response order. An empty list is a valid
// answer.
func (e *HTTPEntityExtractor) Entities(ctx context.Context, text string) ([]string, error) {
	body, err := e.client.infer(ctx, e.model, text, nil)
	if err != nil {
		return nil, err
	}

	var out []struct {
		Word string `json:"word"`
	}
	if err := json.Unmarshal(body, &out); err != nil {
		return nil, fmt.Errorf("decode entities: %w", err)
	}
	words := make([]string, 0, len(out))
	for _, ent := range out {
		words = append(words, ent.Word)
	}
	return words, nil
}
