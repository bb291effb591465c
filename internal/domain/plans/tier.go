package plans

import (
	"strings"

	"github.com/shopspring/decimal"
)

const (
	TierNone     = "none"
	TierBasic    = "basic"
	TierFeatured = "featured"
	TierPremium  = "premium"
)

var (
	premiumFloor  = decimal.NewFromInt(199)
	featuredFloor = decimal.NewFromInt(99)
)

// PlanTier returns the effective tier for a plan: the stored tier when it is
// one of the known values, otherwise one inferred from the price.
func PlanTier(p *Plan) string {
	if p == nil {
		return TierNone
	}

	tier := strings.ToLower(strings.TrimSpace(p.Tier))
	switch tier {
	case TierBasic, TierFeatured, TierPremium:
		return tier
	}

	return inferTierFromPrice(p.Price)
}

// inferTierFromPrice covers plans synced from Stripe without tier metadata.
func inferTierFromPrice(price decimal.Decimal) string {
	switch {
	case price.GreaterThanOrEqual(premiumFloor):
		return TierPremium
	case price.GreaterThanOrEqual(featuredFloor):
		return TierFeatured
	default:
		return TierBasic
	}
}

// TierRank orders tiers for directory listings, highest first.
func TierRank(tier string) int {
	switch tier {
	case TierPremium:
		return 3
	case TierFeatured:
		return 2
	case TierBasic:
		return 1
	default:
		return 0
	}
}
