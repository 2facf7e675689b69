package models

import "time"

const (
	PromotionTypeFixedCut   = "fixed_cut"
	PromotionTypePercentage = "percentage"
)

const (
	TargetUserAll          = "all"
	TargetUserNew          = "new"
	TargetUserLoyal        = "loyal"
	TargetUserSpecificCity = "specific_city"
)

type Promotion struct {
	ID          int64  `json:"id"`
	Name        string `json:"name"`
	Code        string `json:"code"`
	Description string `json:"description,omitempty"`
	// Type is fixed_cut or percentage. For percentage promotions
	// DiscountAmount is a fractional rate (0.20 = 20%) and
	// MaxDiscountAmount caps the computed discount.
	Type                  string    `json:"type"`
	TargetUser            string    `json:"target_user"`
	DiscountAmount        float64   `json:"discount_amount"`
	MaxDiscountAmount     float64   `json:"max_discount_amount"`
	MinOrderAmount        float64   `json:"min_order_amount"`
	StartDate             time.Time `json:"start_date"`
	EndDate               time.Time `json:"end_date"`
	MaxRedemptions        int       `json:"max_redemptions"`
	MaxRedemptionsPerUser int       `json:"max_redemptions_per_user"`
	CreatedAt             time.Time `json:"created_at"`
	UpdatedAt             time.Time `json:"updated_at"`
}

// PromotionDetail is the read model for a promotion together with the
// cities it is restricted to (relevant for specific_city targeting).
type PromotionDetail struct {
	Promotion
	Cities []City `json:"cities,omitempty"`
}

func (p *PromotionDetail) HasCity(cityID int64) bool {
	for _, c := range p.Cities {
		if c.ID == cityID {
			return true
		}
	}
	return false
}
