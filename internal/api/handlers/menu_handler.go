package handlers

import (
	"context"
	"net/http"

	"github.com/ertantorizkyf/promotion-service/internal/models"
	"github.com/ertantorizkyf/promotion-service/internal/service"
)

type MenuRequest struct {
	Name        string  `json:"name"`
	Description string  `json:"description,omitempty"`
	Price       float64 `json:"price"`
}

type MenuHandler struct {
	menus *service.MenuService
}

func NewMenuHandler(menus *service.MenuService) *MenuHandler {
	return &MenuHandler{menus: menus}
}

// GetMenus handles GET /menus.
func (h *MenuHandler) GetMenus(w http.ResponseWriter, r *http.Request) {
	menus, err := h.menus.GetMenus(r.Context())
	if err != nil {
		respondError(w, err)
		return
	}
	respond(w, http.StatusOK, "menus", menus)
}

// CreateMenu handles POST /menus.
func (h *MenuHandler) CreateMenu(w http.ResponseWriter, r *http.Request) {
	var req MenuRequest
	if err := decodeBody(r, &req); err != nil {
		respondError(w, err)
		return
	}

	menu := &models.Menu{Name: req.Name, Description: req.Description, Price: req.Price}
	if err := h.menus.CreateMenu(r.Context(), menu); err != nil {
		respondError(w, err)
		return
	}
	respond(w, http.StatusCreated, "menu created", menu)
}

// UpdateMenu handles PUT /menus/{id}. A price change re-prices every
// draft order holding the menu before the response is written.
func (h *MenuHandler) UpdateMenu(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		respondError(w, err)
		return
	}

	var req MenuRequest
	if err := decodeBody(r, &req); err != nil {
		respondError(w, err)
		return
	}

	menu := &models.Menu{ID: id, Name: req.Name, Description: req.Description, Price: req.Price}
	if err := h.menus.UpdateMenu(r.Context(), menu); err != nil {
		respondError(w, err)
		return
	}
	respond(w, http.StatusOK, "menu updated", menu)
}

// CityLister is the read surface the city endpoint needs.
type CityLister interface {
	GetCities(ctx context.Context) ([]models.City, error)
}

type CityHandler struct {
	cities CityLister
}

func NewCityHandler(cities CityLister) *CityHandler {
	return &CityHandler{cities: cities}
}

// GetCities handles GET /cities.
func (h *CityHandler) GetCities(w http.ResponseWriter, r *http.Request) {
	cities, err := h.cities.GetCities(r.Context())
	if err != nil {
		respondError(w, err)
		return
	}
	respond(w, http.StatusOK, "cities", cities)
}
