package calculator

import (
	"fmt"
	"strings"

	"github.com/masapos/api/internal/enum"
	"github.com/shopspring/decimal"
)

// Menu-engineering actions.
const (
	ActionPromote  = "promote"
	ActionReprice  = "reprice"
	ActionOptimize = "optimize"
	ActionRemove   = "remove"
	ActionMonitor  = "monitor"
)

// MenuItem is one dish classified on the popularity/profit matrix.
type MenuItem struct {
	ID              string
	Category        string
	PopularityScore decimal.Decimal
	ProfitMargin    decimal.Decimal
	SellingPrice    *decimal.Decimal
}

// Impact is the expected percentage change.
type Impact struct {
	RevenueChange int
	ProfitChange  int
}

// Recommendation is the advice for one menu item. ExpectedImpact is nil for
// unclassified items.
type Recommendation struct {
	MenuItemID     string
	Category       string
	Action         string
	Reasoning      string
	SuggestedPrice *decimal.Decimal
	ExpectedImpact *Impact
}

// MenuAnalysis is the full response of Recommend.
type MenuAnalysis struct {
	Recommendations []Recommendation
	OverallInsights string
}

type rule struct {
	action      string
	reasoning   string
	priceFactor *decimal.Decimal
	impact      *Impact
}

var (
	repriceDown = decimal.RequireFromString("0.9")
	repriceUp   = decimal.RequireFromString("1.1")
)

var rules = map[string]rule{
	enum.MenuCategoryStar: {
		action:    ActionPromote,
		reasoning: "High profit and high popularity. Feature it on the menu and upsell.",
		impact:    &Impact{RevenueChange: 15, ProfitChange: 20},
	},
	enum.MenuCategoryPuzzle: {
		action:      ActionReprice,
		reasoning:   "High profit but low popularity. Lower the price or market it harder.",
		priceFactor: &repriceDown,
		impact:      &Impact{RevenueChange: 25, ProfitChange: 10},
	},
	enum.MenuCategoryPlowHorse: {
		action:      ActionOptimize,
		reasoning:   "Popular but low profit. Cut ingredient cost or raise the price.",
		priceFactor: &repriceUp,
		impact:      &Impact{RevenueChange: 5, ProfitChange: 30},
	},
	enum.MenuCategoryDog: {
		action:    ActionRemove,
		reasoning: "Low profit and low popularity. Drop it or rework it completely.",
		impact:    &Impact{RevenueChange: -5, ProfitChange: 5},
	},
}

var monitorRule = rule{
	action:    ActionMonitor,
	reasoning: "Not enough data yet.",
}

// Recommend maps each item to a fixed action by category. Only the
// suggested price depends on anything besides the category.
func Recommend(items []MenuItem) MenuAnalysis {
	recs := make([]Recommendation, len(items))
	for i, item := range items {
		r, ok := rules[item.Category]
		if !ok {
			r = monitorRule
		}
		rec := Recommendation{
			MenuItemID: item.ID,
			Category:   item.Category,
			Action:     r.action,
			Reasoning:  r.reasoning,
		}
		if r.impact != nil {
			impact := *r.impact
			rec.ExpectedImpact = &impact
		}
		if r.priceFactor != nil {
			current := decimal.Zero
			if item.SellingPrice != nil {
				current = *item.SellingPrice
			}
			price := current.Mul(*r.priceFactor)
			rec.SuggestedPrice = &price
		}
		recs[i] = rec
	}
	return MenuAnalysis{
		Recommendations: recs,
		OverallInsights: overallInsights(items),
	}
}

func overallInsights(items []MenuItem) string {
	var stars, dogs int
	for _, item := range items {
		switch item.Category {
		case enum.MenuCategoryStar:
			stars++
		case enum.MenuCategoryDog:
			dogs++
		}
	}
	total := len(items)
	if total == 0 {
		total = 1
	}

	var b strings.Builder
	fmt.Fprintf(&b, "Menu analysis: %d items reviewed.\n\n", total)
	fmt.Fprintf(&b, "Stars: %d (%s%%)\n", stars, percent(stars, total))
	fmt.Fprintf(&b, "Dogs: %d (%s%%)\n", dogs, percent(dogs, total))
	return b.String()
}

func percent(n, total int) string {
	return decimal.NewFromInt(int64(n)).
		Mul(decimal.NewFromInt(100)).
		Div(decimal.NewFromInt(int64(total))).
		StringFixed(1)
}
