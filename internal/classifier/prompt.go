package classifier

import (
	"fmt"
	"strings"

	"NewsClassifier/internal/domain"
)

// BuildPrompt renders the classification instruction for one article body.
// The category list is numbered in canonical order so that a numeric answer
// maps straight back through domain.CategoryAt.
func BuildPrompt(text string) string {
	var sb strings.Builder
	count := domain.CategoryCount()

	sb.WriteString("Classify this financial news article into ONE of these categories:\n\n")
	for i, c := range domain.Categories() {
		sb.WriteString(fmt.Sprintf("%d. %s\n", i+1, c))
	}
	sb.WriteString("\nRules:\n")
	sb.WriteString("1. Choose ONLY ONE category number\n")
	sb.WriteString(fmt.Sprintf("2. If the article doesn't clearly fit into specific categories 1-%d, choose %d (%s)\n",
		count-1, count, domain.CategoryOthers))
	sb.WriteString(fmt.Sprintf("3. Respond ONLY with the category number (1-%d)\n", count))
	sb.WriteString("4. Don't explain your choice, just provide the number\n")
	sb.WriteString("\nArticle:\n")
	sb.WriteString(text)
	sb.WriteString("\n\nCategory number:")

	return sb.String()
}
