package service

import (
	"github.com/harborview-tech/fieldops-api/internal/domain"
	"github.com/harborview-tech/fieldops-api/internal/money"
	"github.com/shopspring/decimal"
)

// RateResolution is the effective bill and cost rate for a labor entry
type RateResolution struct {
	BillRate decimal.Decimal
	CostRate decimal.Decimal
}

// ResolveLaborRates determines the effective rates for a time entry.
// An entry-level override wins over the role default; a missing rate
// resolves to zero. Rates keep 4 decimal places so sub-cent rates
// survive until the amount boundary rounds to 2.
func ResolveLaborRates(role *domain.LaborRole, billOverride, costOverride *decimal.Decimal) RateResolution {
	res := RateResolution{}

	switch {
	case billOverride != nil:
		res.BillRate = *billOverride
	case role != nil && role.BillRate != nil:
		res.BillRate = *role.BillRate
	}

	switch {
	case costOverride != nil:
		res.CostRate = *costOverride
	case role != nil && role.CostRate != nil:
		res.CostRate = *role.CostRate
	}

	res.BillRate = money.Round4(res.BillRate)
	res.CostRate = money.Round4(res.CostRate)
	return res
}

// LaborAmount prices a finished time entry: minutes to hours at 4 decimal
// places, times the bill rate, rounded to 2 at the boundary.
func LaborAmount(minutes int, billRate decimal.Decimal) decimal.Decimal {
	return money.Round2(money.MinutesToHours(minutes).Mul(billRate))
}

// ResolvePartPrice determines the effective unit sell price for a part
// usage: the usage override wins over the item's default sell price; a
// missing price resolves to zero.
func ResolvePartPrice(item *domain.CatalogItem, override *decimal.Decimal) decimal.Decimal {
	if override != nil {
		return money.Round2(*override)
	}
	if item != nil && item.DefaultSellPrice != nil {
		return money.Round2(*item.DefaultSellPrice)
	}
	return decimal.Zero
}

// PartAmount prices a part usage line: quantity at 4 decimal places times
// the unit price, rounded to 2.
func PartAmount(qty, unitPrice decimal.Decimal) decimal.Decimal {
	return money.Round2(money.Round4(qty).Mul(unitPrice))
}
