package classifier

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"NewsClassifier/internal/domain"
)

var sentimentHints = map[domain.Sentiment]string{
	domain.SentimentPositive: "indicates growth, profit, success, or positive market outlook",
	domain.SentimentNegative: "indicates decline, loss, failure, or negative market outlook",
	domain.SentimentNeutral:  "balanced or purely factual information",
}

// BuildSentimentPrompt renders the tone instruction for one article body,
// numbered in domain.Sentiments order.
func BuildSentimentPrompt(text string) string {
	var sb strings.Builder
	tones := domain.Sentiments()

	sb.WriteString("Analyze the sentiment of this financial news article. Choose ONE:\n")
	for i, s := range tones {
		sb.WriteString(fmt.Sprintf("%d. %s (%s)\n", i+1, s, sentimentHints[s]))
	}
	sb.WriteString("\nRules:\n")
	sb.WriteString("1. Consider the overall financial impact and market implications\n")
	sb.WriteString(fmt.Sprintf("2. Respond ONLY with the number (1-%d)\n", len(tones)))
	sb.WriteString("3. Don't explain your choice\n")
	sb.WriteString("\nArticle:\n")
	sb.WriteString(text)
	sb.WriteString("\n\nSentiment number:")

	return sb.String()
}

var (
	positiveWords = regexp.MustCompile(`(?i)\b(positive|bullish|growth|profit\w*|success\w*|gains?|up)\b`)
	negativeWords = regexp.MustCompile(`(?i)\b(negative|bearish|declin\w*|loss(es)?|fail\w*|down)\b`)
)

// NormalizeSentiment maps model output onto a sentiment. A leading number wins,
// with anything outside the list read as neutral; otherwise positive words are
// checked before negative ones. Unmatched text is neutral.
func NormalizeSentiment(raw string) domain.Sentiment {
	text := trimDecoration(raw)

	if m := leadingNumber.FindStringSubmatch(text); m != nil && m[2] == "" {
		n, _ := strconv.Atoi(m[1])
		if s, ok := domain.SentimentAt(n); ok {
			return s
		}
		return domain.SentimentNeutral
	}
	if s, err := domain.ParseSentiment(strings.TrimRight(text, ".!")); err == nil {
		return s
	}
	switch {
	case positiveWords.MatchString(text):
		return domain.SentimentPositive
	case negativeWords.MatchString(text):
		return domain.SentimentNegative
	}
	return domain.SentimentNeutral
}
