package classify

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
)

// Labels produced by the sentiment model.
const (
	LabelPositive = "POSITIVE"
	LabelNegative = "NEGATIVE"
)

const DefaultSentimentModel = "siebert/sentiment-roberta-large-english"

var ErrInvalidPrediction = errors.New("invalid prediction")

// Prediction is one classifier verdict for a text chunk.
type Prediction struct {
	Label string  `json:"label"`
	Score float64 `json:"score"`
}

// Classifier labels a text chunk as positive or negative.
type Classifier interface {
	Classify(ctx context.Context, chunk string) (Prediction, error)
}

// ValidatePrediction checks the label and score ranges.
func ValidatePrediction(p Prediction) error {
	if p.Label != LabelPositive && p.Label != LabelNegative {
		return fmt.Errorf("%w: label %q", ErrInvalidPrediction, p.Label)
	}
	if p.Score < 0 || p.Score > 1 {
		return fmt.Errorf("%w: score %v", ErrInvalidPrediction, p.Score)
	}
	return nil
}

// HTTPClassifier calls a hosted text-classification model.
type HTTPClassifier struct {
	client *Client
	model  string
}

func NewHTTPClassifier(client *Client, model string) *HTTPClassifier {
	if model == "" {
		model = DefaultSentimentModel
	}
	return &HTTPClassifier{client: client, model: model}
}

// Classify returns the highest-scoring label for chunk.
func (c *HTTPClassifier) Classify(ctx context.Context, chunk string) (Prediction, error) {
	body, err := c.client.infer(ctx, c.model, chunk, nil)
	if err != nil {
		return Prediction{}, err
	}
	preds, err := decodePredictions(body)
	if err != nil {
		return Prediction{}, err
	}

	best := preds[0]
	for _, p := range preds[1:] {
		if p.Score > best.Score {
			best = p
		}
	}
	if err := ValidatePrediction(best); err != nil {
		return Prediction{}, err
	}
	return best, nil
}

// decodePredictions accepts both the flat [{label,score}] and the nested
// [[{label,score},...]] response shapes.
func decodePredictions(body []byte) ([]Prediction, error) {
	var flat []Prediction
	if err := json.Unmarshal(body, &flat); err == nil {
		if len(flat) == 0 {
			return nil, ErrEmptyResponse
		}
		return flat, nil
	}

	var nested [][]Prediction
	if err := json.Unmarshal(body, &nested); err != nil {
		return nil, fmt.Errorf("decode predictions: %w (raw: %s)", err, truncate(string(body), 200))
	}
	if len(nested) == 0 || len(nested[0]) == 0 {
		return nil, ErrEmptyResponse
	}
	return nested[0], nil
}
