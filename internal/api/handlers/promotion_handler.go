package handlers

import (
	"fmt"
	"net/http"
	"time"

	"github.com/ertantorizkyf/promotion-service/internal/apperr"
	"github.com/ertantorizkyf/promotion-service/internal/models"
	"github.com/ertantorizkyf/promotion-service/internal/service"
)

// --- Request DTOs ---

type PromotionRequest struct {
	Name                  string  `json:"name"`
	Code                  string  `json:"code"`
	Description           string  `json:"description,omitempty"`
	Type                  string  `json:"type"`
	TargetUser            string  `json:"target_user"`
	DiscountAmount        float64 `json:"discount_amount"`
	MaxDiscountAmount     float64 `json:"max_discount_amount,omitempty"`
	MinOrderAmount        float64 `json:"min_order_amount,omitempty"`
	StartDate             string  `json:"start_date"` // YYYY-MM-DD
	EndDate               string  `json:"end_date"`   // YYYY-MM-DD
	MaxRedemptions        int     `json:"max_redemptions"`
	MaxRedemptionsPerUser int     `json:"max_redemptions_per_user"`
	CityIDs               []int64 `json:"city_ids,omitempty"`
}

type RedeemPromotionRequest struct {
	Code string `json:"code"`
}

func (req *PromotionRequest) toModel() (*models.PromotionDetail, error) {
	start, err := parseDay(req.StartDate)
	if err != nil {
		return nil, fmt.Errorf("%w: invalid start_date; use YYYY-MM-DD", apperr.ErrValidation)
	}
	end, err := parseDay(req.EndDate)
	if err != nil {
		return nil, fmt.Errorf("%w: invalid end_date; use YYYY-MM-DD", apperr.ErrValidation)
	}

	detail := &models.PromotionDetail{
		Promotion: models.Promotion{
			Name:                  req.Name,
			Code:                  req.Code,
			Description:           req.Description,
			Type:                  req.Type,
			TargetUser:            req.TargetUser,
			DiscountAmount:        req.DiscountAmount,
			MaxDiscountAmount:     req.MaxDiscountAmount,
			MinOrderAmount:        req.MinOrderAmount,
			StartDate:             start,
			EndDate:               end,
			MaxRedemptions:        req.MaxRedemptions,
			MaxRedemptionsPerUser: req.MaxRedemptionsPerUser,
		},
	}
	for _, id := range req.CityIDs {
		detail.Cities = append(detail.Cities, models.City{ID: id})
	}
	return detail, nil
}

func parseDay(s string) (time.Time, error) {
	return time.Parse("2006-01-02", s)
}

// --- Handler struct & constructor ---

type PromotionHandler struct {
	promos *service.PromotionService
}

func NewPromotionHandler(promos *service.PromotionService) *PromotionHandler {
	return &PromotionHandler{promos: promos}
}

// --- Handlers ---

// GetPromotions handles GET /promotions.
func (h *PromotionHandler) GetPromotions(w http.ResponseWriter, r *http.Request) {
	promos, err := h.promos.GetPromotions(r.Context())
	if err != nil {
		respondError(w, err)
		return
	}
	respond(w, http.StatusOK, "promotions", promos)
}

// GetEligiblePromotions handles GET /promotions/eligible.
func (h *PromotionHandler) GetEligiblePromotions(w http.ResponseWriter, r *http.Request) {
	userID, err := callerID(r)
	if err != nil {
		respondError(w, err)
		return
	}

	promos, err := h.promos.GetEligiblePromotions(r.Context(), userID)
	if err != nil {
		respondError(w, err)
		return
	}
	respond(w, http.StatusOK, "eligible promotions", promos)
}

// CreatePromotion handles POST /promotions.
func (h *PromotionHandler) CreatePromotion(w http.ResponseWriter, r *http.Request) {
	var req PromotionRequest
	if err := decodeBody(r, &req); err != nil {
		respondError(w, err)
		return
	}
	promo, err := req.toModel()
	if err != nil {
		respondError(w, err)
		return
	}

	if err := h.promos.CreatePromotion(r.Context(), promo); err != nil {
		respondError(w, err)
		return
	}
	respond(w, http.StatusCreated, "promotion created", promo)
}

// UpdatePromotion handles PUT /promotions/{id}.
func (h *PromotionHandler) UpdatePromotion(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		respondError(w, err)
		return
	}

	var req PromotionRequest
	if err := decodeBody(r, &req); err != nil {
		respondError(w, err)
		return
	}
	promo, err := req.toModel()
	if err != nil {
		respondError(w, err)
		return
	}
	promo.ID = id

	if err := h.promos.UpdatePromotion(r.Context(), promo); err != nil {
		respondError(w, err)
		return
	}
	respond(w, http.StatusOK, "promotion updated", promo)
}

// DeletePromotion handles DELETE /promotions/{id}.
func (h *PromotionHandler) DeletePromotion(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		respondError(w, err)
		return
	}

	if err := h.promos.DeletePromotion(r.Context(), id); err != nil {
		respondError(w, err)
		return
	}
	respond(w, http.StatusOK, "promotion deleted", nil)
}

// RedeemPromotion handles POST /promotions/redemption.
func (h *PromotionHandler) RedeemPromotion(w http.ResponseWriter, r *http.Request) {
	userID, err := callerID(r)
	if err != nil {
		respondError(w, err)
		return
	}

	var req RedeemPromotionRequest
	if err := decodeBody(r, &req); err != nil {
		respondError(w, err)
		return
	}
	if req.Code == "" {
		respondError(w, fmt.Errorf("%w: promotion code is required", apperr.ErrValidation))
		return
	}

	if err := h.promos.RedeemPromotion(r.Context(), userID, req.Code); err != nil {
		respondError(w, err)
		return
	}
	respond(w, http.StatusOK, "promotion redeemed", nil)
}

// RevokeRedemption handles DELETE /promotions/redemption.
func (h *PromotionHandler) RevokeRedemption(w http.ResponseWriter, r *http.Request) {
	userID, err := callerID(r)
	if err != nil {
		respondError(w, err)
		return
	}

	if err := h.promos.RevokePromotionRedemption(r.Context(), userID); err != nil {
		respondError(w, err)
		return
	}
	respond(w, http.StatusOK, "promotion redemption revoked", nil)
}
