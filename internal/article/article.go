// Package article holds the records passed between pipeline stages.
package article

// Kind tells the segmenter which shape of input a Source carries.
type Kind int

const (
	KindStructured Kind = iota // styled paragraphs (docx, html, markdown)
	KindLines                  // flat text lines (pdf)
	KindPrebuilt               // already-extracted articles (csv)
)

func (k Kind) String() string {
	switch k {
	case KindStructured:
		return "structured"
	case KindLines:
		return "lines"
	case KindPrebuilt:
		return "prebuilt"
	}
	return "unknown"
}

// Source is the raw content extracted from one input file.
type Source struct {
	Name       string
	Kind       Kind
	Paragraphs []Paragraph // KindStructured
	Lines      []string    // KindLines
	Articles   []Article   // KindPrebuilt
}

// Paragraph is one styled paragraph of a structured document.
type Paragraph struct {
	Text         string
	HeadingLevel int // 0 for body text
}

// Article is one bulletin carved out of a source document.
type Article struct {
	Title string `json:"title"`
	Body  string `json:"article_text"`
}

// Sentiment labels stored with an analysis.
const (
	Positive = "positive"
	Neutral  = "neutral"
	Negative = "negative"
)

// Analysis is the per-article scoring result persisted to the store.
type Analysis struct {
	Title        string  `json:"title"`
	Text         string  `json:"article_text"`
	Sentiment    string  `json:"sentiment"`
	Polarity     float64 `json:"polarity"`
	Subjectivity float64 `json:"subjectivity"`
	Coherence    float64 `json:"coherence"`
	Topics       string  `json:"topics"`
}

// TopicCount is a frequency tally for one topic word.
type TopicCount struct {
	Word  string `json:"word"`
	Count int    `json:"count"`
}

// ReportRow is one ranked topic with the titles of articles that mention it.
type ReportRow struct {
	Topic  string   `json:"topic"`
	Titles []string `json:"titles"`
}
