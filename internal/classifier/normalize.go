package classifier

import (
	"regexp"
	"strconv"
	"strings"
	"unicode"

	"NewsClassifier/internal/domain"
)

// synonyms maps each category to the keywords that identify it in free-form model
// output. A trailing "*" marks a stem matched as a word prefix; other entries must
// match a whole word or phrase, optionally pluralised. The category's own value is
// always added as well.
var synonyms = map[domain.Category][]string{
	domain.CategoryOilAndGas: {
		"oil and gas", "oil", "gas", "crude", "petroleum", "natural gas", "gasoline",
		"opec", "refiner*", "pipeline", "energy",
	},
	domain.CategoryAgriculture: {
		"agricultur*", "farm*", "crop", "harvest*", "wheat", "corn", "soybean",
		"grain", "livestock", "fertilizer",
	},
	domain.CategoryHousing: {
		"housing", "real estate", "mortgage", "home sales", "home prices",
		"property", "properties", "homebuilder",
	},
	domain.CategoryBanking: {
		"bank*", "lender", "lending", "loan", "deposit",
	},
	domain.CategoryStockMarket: {
		"stock market", "stock", "equit*", "shares", "nasdaq", "dow jones",
		"s&p", "wall street", "ipo",
	},
	domain.CategoryCryptocurrency: {
		"crypto*", "bitcoin", "ethereum", "blockchain", "stablecoin", "btc", "altcoin",
	},
	domain.CategoryForex: {
		"forex", "foreign exchange", "currenc*", "exchange rate", "fx",
	},
	domain.CategoryCommodities: {
		"commodit*", "gold", "silver", "copper", "precious metal", "metals",
	},
	domain.CategoryOthers: {
		"other",
	},
}

type keywordRule struct {
	category domain.Category
	pattern  *regexp.Regexp
}

// keywordRules is built once in canonical category order, which is what makes
// the first matching rule the tie-break winner.
var keywordRules = buildKeywordRules()

func buildKeywordRules() []keywordRule {
	var rules []keywordRule
	for _, c := range domain.Categories() {
		words := append([]string{c.Label()}, synonyms[c]...)
		for _, word := range words {
			rules = append(rules, keywordRule{category: c, pattern: compileKeyword(word)})
		}
	}
	return rules
}

func compileKeyword(word string) *regexp.Regexp {
	if stem, ok := strings.CutSuffix(word, "*"); ok {
		return regexp.MustCompile(`(?i)\b` + regexp.QuoteMeta(stem))
	}
	parts := strings.Fields(word)
	for i, part := range parts {
		parts[i] = regexp.QuoteMeta(part)
	}
	return regexp.MustCompile(`(?i)\b` + strings.Join(parts, `[\s_-]+`) + `(?:s|es)?(?:\W|$)`)
}

// leadingNumber also captures a decimal or thousands tail so that "1.5%" and
// "1,000 shares" are not read as category indices.
var leadingNumber = regexp.MustCompile(`^(\d+)([.,]\d)?`)

// Normalize maps arbitrary model output onto a category. It never fails: text
// that matches nothing resolves to domain.CategoryOthers.
func Normalize(raw string) domain.Category {
	text := trimDecoration(raw)

	if c, ok := matchIndex(text); ok {
		return c
	}
	if c, err := domain.ParseCategory(strings.TrimRight(text, ".!")); err == nil {
		return c
	}
	if c, ok := matchKeyword(text); ok {
		return c
	}
	return domain.CategoryOthers
}

func matchIndex(text string) (domain.Category, bool) {
	m := leadingNumber.FindStringSubmatch(text)
	if m == nil || m[2] != "" {
		return "", false
	}
	n, err := strconv.Atoi(m[1])
	if err != nil {
		return "", false
	}
	return domain.CategoryAt(n)
}

func matchKeyword(text string) (domain.Category, bool) {
	if text == "" {
		return "", false
	}
	for _, rule := range keywordRules {
		if rule.pattern.MatchString(text) {
			return rule.category, true
		}
	}
	return "", false
}

// trimDecoration strips whitespace plus quote and markdown characters models like
// to wrap short answers in, e.g. `**4**` or `"banking"`.
func trimDecoration(raw string) string {
	return strings.TrimFunc(raw, func(r rune) bool {
		return unicode.IsSpace(r) || strings.ContainsRune("\"'`*_#([{", r)
	})
}
