package analyzer

import "testing"

func TestParseSentiment(t *testing.T) {
	cases := []struct {
		raw  string
		want Sentiment
		ok   bool
	}{
		{"Negative", SentimentNegative, true},
		{"positive", SentimentPositive, true},
		{"NEUTRAL", SentimentNeutral, true},
		{"  Negative.  ", SentimentNegative, true},
		{"Sentiment: Negative", SentimentNegative, true},
		{"The sentiment is positive!", SentimentPositive, true},
		{"", "", false},
		{"angry", "", false},
		{"mostly positive but somewhat negative", "", false},
	}

	for _, tc := range cases {
		got, ok := ParseSentiment(tc.raw)
		if ok != tc.ok {
			t.Errorf("ParseSentiment(%q) ok = %v, want %v", tc.raw, ok, tc.ok)
			continue
		}
		if ok && got != tc.want {
			t.Errorf("ParseSentiment(%q) = %q, want %q", tc.raw, got, tc.want)
		}
	}
}
