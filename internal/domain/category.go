package domain

import (
	"fmt"
	"strings"
)

// Category is one member of the closed set of news topics.
type Category string

const (
	CategoryOilAndGas      Category = "oil_and_gas"
	CategoryAgriculture    Category = "agriculture"
	CategoryHousing        Category = "housing"
	CategoryBanking        Category = "banking"
	CategoryStockMarket    Category = "stock_market"
	CategoryCryptocurrency Category = "cryptocurrency"
	CategoryForex          Category = "forex"
	CategoryCommodities    Category = "commodities"
	CategoryOthers         Category = "others"
)

// categoryOrder fixes the ordinal of every category. Prompts number categories
// from it and normalization breaks ties with it, so it must never be reordered.
var categoryOrder = [...]Category{
	CategoryOilAndGas,
	CategoryAgriculture,
	CategoryHousing,
	CategoryBanking,
	CategoryStockMarket,
	CategoryCryptocurrency,
	CategoryForex,
	CategoryCommodities,
	CategoryOthers,
}

// Categories returns all categories in canonical order.
func Categories() []Category {
	out := make([]Category, len(categoryOrder))
	copy(out, categoryOrder[:])
	return out
}

// CategoryCount is the size of the category set.
func CategoryCount() int {
	return len(categoryOrder)
}

// CategoryAt resolves a 1-based position in the canonical order.
func CategoryAt(position int) (Category, bool) {
	if position < 1 || position > len(categoryOrder) {
		return "", false
	}
	return categoryOrder[position-1], true
}

// Ordinal returns the 1-based position of c, or 0 for unknown values.
func (c Category) Ordinal() int {
	for i, candidate := range categoryOrder {
		if candidate == c {
			return i + 1
		}
	}
	return 0
}

// Valid reports whether c belongs to the closed set.
func (c Category) Valid() bool {
	return c.Ordinal() > 0
}

// Label renders the category for humans ("oil and gas").
func (c Category) Label() string {
	return strings.ReplaceAll(string(c), "_", " ")
}

func (c Category) String() string {
	return string(c)
}

// ParseCategory accepts the canonical value in any case, with spaces or
// hyphens in place of underscores.
func ParseCategory(value string) (Category, error) {
	key := strings.ToLower(strings.TrimSpace(value))
	key = strings.NewReplacer(" ", "_", "-", "_").Replace(key)
	for _, candidate := range categoryOrder {
		if string(candidate) == key {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("unknown category %q", value)
}
