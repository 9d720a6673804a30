package analyzer

import "strings"

// Sentiment is the closed set of labels an analysis can produce.
type Sentiment string

const (
	SentimentPositive Sentiment = "Positive"
	SentimentNeutral  Sentiment = "Neutral"
	SentimentNegative Sentiment = "Negative"
)

// ParseSentiment coerces a free-text model response into one of the three
// labels. Matching is lenient: case-insensitive, surrounding punctuation
// ignored, and a label embedded in a short phrase still counts. It fails
// unless exactly one label is recognizable.
func ParseSentiment(raw string) (Sentiment, bool) {
	token := strings.ToLower(strings.Trim(strings.TrimSpace(raw), `."'!:`))

	var matches []Sentiment
	for _, s := range []Sentiment{SentimentPositive, SentimentNeutral, SentimentNegative} {
		if strings.Contains(token, strings.ToLower(string(s))) {
			matches = append(matches, s)
		}
	}
	if len(matches) != 1 {
		return "", false
	}
	return matches[0], true
}
