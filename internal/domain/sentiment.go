package domain

import (
	"fmt"
	"strings"
)

// Sentiment is the market tone of an article. The empty value means the tone
// was not analysed.
type Sentiment string

const (
	SentimentPositive Sentiment = "positive"
	SentimentNegative Sentiment = "negative"
	SentimentNeutral  Sentiment = "neutral"
)

// sentimentOrder numbers the sentiment prompt; answers map back by position.
var sentimentOrder = [...]Sentiment{
	SentimentPositive,
	SentimentNegative,
	SentimentNeutral,
}

// Sentiments returns all sentiments in prompt order.
func Sentiments() []Sentiment {
	out := make([]Sentiment, len(sentimentOrder))
	copy(out, sentimentOrder[:])
	return out
}

// SentimentAt resolves a 1-based position in prompt order.
func SentimentAt(position int) (Sentiment, bool) {
	if position < 1 || position > len(sentimentOrder) {
		return "", false
	}
	return sentimentOrder[position-1], true
}

// Valid reports whether s is one of the known sentiments.
func (s Sentiment) Valid() bool {
	for _, candidate := range sentimentOrder {
		if candidate == s {
			return true
		}
	}
	return false
}

func (s Sentiment) String() string {
	return string(s)
}

// ParseSentiment accepts a known sentiment in any case.
func ParseSentiment(value string) (Sentiment, error) {
	key := Sentiment(strings.ToLower(strings.TrimSpace(value)))
	if key.Valid() {
		return key, nil
	}
	return "", fmt.Errorf("unknown sentiment %q", value)
}
