package config

import "github.com/nao1215/couponcheck/internal/model"

// Default source pages and patterns.
const (
	// HFQPDBURL is the community coupon database.
	HFQPDBURL = "https://www.hfqpdb.com"

	// HarborFreightURL is the retailer's site.
	HarborFreightURL = "https://www.harborfreight.com"

	hfqpdbPattern      = `\/coupons\/(.+?)(png|jpg)`
	hfqpdbThumbPrefix  = "/coupons/thumbs/tn_"
	hfqpdbFullPrefix   = HFQPDBURL + "/coupons/"
	hfCouponsPattern   = `https://images\.harborfreight\.com\/hftweb\/weblanding\/coupon-deals\/images\/(.+?)png`
	hfPromotionPattern = `https:\/\/images\.harborfreight\.com\/hftweb\/promotions(.+?)(png|jpg)`
)

// DefaultSources returns the built-in sources: the HFQPDB browse page as the
// database, and the Harbor Freight coupon and promotion pages as the live
// site. A fresh slice is returned on every call.
func DefaultSources() []model.Source {
	return []model.Source{
		{
			Name:        "hfqpdb",
			Role:        model.RoleDatabase,
			PageURL:     HFQPDBURL + "/browse",
			Pattern:     hfqpdbPattern,
			Replace:     hfqpdbThumbPrefix,
			ReplaceWith: hfqpdbFullPrefix,
		},
		{
			Name:    "hf-coupons",
			Role:    model.RoleLive,
			PageURL: HarborFreightURL + "/coupons",
			Pattern: hfCouponsPattern,
		},
		{
			Name:    "hf-promotions",
			Role:    model.RoleLive,
			PageURL: HarborFreightURL + "/promotions",
			Pattern: hfPromotionPattern,
		},
	}
}

// SourcesByRole returns the sources with the given role, in order.
func (c *Config) SourcesByRole(role model.Role) []model.Source {
	out := make([]model.Source, 0, len(c.Sources))
	for _, s := range c.Sources {
		if s.Role == role {
			out = append(out, s)
		}
	}
	return out
}
