package nutrition

import (
	"errors"
	"net/http"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"github.com/nutridash/nutridash/internal/platform/foodfinder"
)

// unreachableMessage tells the caller how to recover when the discovery
// service cannot be contacted.
const unreachableMessage = "food discovery service is unavailable; start it and retry"

// Handler provides HTTP handlers for the nutrition domain.
type Handler struct {
	svc *Service
}

func NewHandler(svc *Service) *Handler {
	return &Handler{svc: svc}
}

// RegisterRoutes registers nutrition and discovery routes on the API
// group.
func (h *Handler) RegisterRoutes(api *echo.Group) {
	api.GET("/patients/:id/food-items", h.InitialFoodItems)
	api.POST("/patients/:id/warm-cache", h.WarmCache)
	api.POST("/patients/:id/find-food", h.FindFood)
	api.POST("/patients/:id/grocery-basket", h.GroceryBasket)
	api.POST("/patients/:id/meals", h.LogMeals)
	api.GET("/patients/:id/order-out-history", h.OrderOutHistory)
	api.GET("/patients/:id/effective-goals", h.EffectiveGoals)
	api.POST("/cart", h.AddBasketToCart)
	api.GET("/nutrition", h.Nutrition)
}

func patientID(c echo.Context) (uuid.UUID, error) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return uuid.Nil, echo.NewHTTPError(http.StatusBadRequest, "invalid patient id")
	}
	return id, nil
}

// respondError maps domain and upstream failures onto HTTP responses.
// Upstream HTTP failures forward the original status and body; an
// unreachable service becomes a 503 with recovery guidance.
func respondError(c echo.Context, err error) error {
	var ve *ValidationError
	if errors.As(err, &ve) {
		return echo.NewHTTPError(http.StatusBadRequest, ve.Error())
	}
	if errors.Is(err, ErrNotFound) {
		return echo.NewHTTPError(http.StatusNotFound, "patient not found")
	}
	switch foodfinder.KindOf(err) {
	case foodfinder.KindUnreachable:
		return echo.NewHTTPError(http.StatusServiceUnavailable, unreachableMessage)
	case foodfinder.KindUpstream:
		var fe *foodfinder.Error
		errors.As(err, &fe)
		return c.JSONBlob(fe.Status, []byte(fe.Body))
	}
	return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
}

func respondResult(c echo.Context, r *foodfinder.Result) error {
	return c.JSONBlob(r.Status, r.Body)
}

func (h *Handler) InitialFoodItems(c echo.Context) error {
	id, err := patientID(c)
	if err != nil {
		return err
	}
	items, err := h.svc.InitialFoodItems(c.Request().Context(), id)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(http.StatusOK, map[string]interface{}{
		"items": items,
		"count": len(items),
	})
}

func (h *Handler) WarmCache(c echo.Context) error {
	id, err := patientID(c)
	if err != nil {
		return err
	}
	r, err := h.svc.WarmCache(c.Request().Context(), id)
	if err != nil {
		return respondError(c, err)
	}
	return respondResult(c, r)
}

func (h *Handler) FindFood(c echo.Context) error {
	id, err := patientID(c)
	if err != nil {
		return err
	}
	r, err := h.svc.FindFood(c.Request().Context(), id)
	if err != nil {
		return respondError(c, err)
	}
	return respondResult(c, r)
}

func (h *Handler) GroceryBasket(c echo.Context) error {
	id, err := patientID(c)
	if err != nil {
		return err
	}
	r, err := h.svc.GroceryBasket(c.Request().Context(), id)
	if err != nil {
		return respondError(c, err)
	}
	return respondResult(c, r)
}

type cartRequest struct {
	StoreURL string `json:"store_url"`
	Items    []Item `json:"items"`
}

func (h *Handler) AddBasketToCart(c echo.Context) error {
	var req cartRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	r, err := h.svc.AddBasketToCart(c.Request().Context(), req.StoreURL, req.Items)
	if err != nil {
		return respondError(c, err)
	}
	return respondResult(c, r)
}

func (h *Handler) Nutrition(c echo.Context) error {
	q := foodfinder.NutritionQuery{
		Query:       c.QueryParam("q"),
		Description: c.QueryParam("description"),
		ImageURL:    c.QueryParam("image_url"),
		Refresh:     c.QueryParam("refresh") == "true",
	}
	r, err := h.svc.Nutrition(c.Request().Context(), q)
	if err != nil {
		return respondError(c, err)
	}
	return respondResult(c, r)
}

type logMealsRequest struct {
	Date        string `json:"date"`
	MealType    string `json:"meal_type"`
	Items       []Item `json:"items"`
	Observation string `json:"observation"`
	IsOrderOut  bool   `json:"is_order_out"`
}

func (h *Handler) LogMeals(c echo.Context) error {
	id, err := patientID(c)
	if err != nil {
		return err
	}
	var req logMealsRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	result, err := h.svc.LogMeals(c.Request().Context(), id, req.Date, req.MealType, req.Items, req.Observation, req.IsOrderOut)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(http.StatusOK, result)
}

func (h *Handler) OrderOutHistory(c echo.Context) error {
	id, err := patientID(c)
	if err != nil {
		return err
	}
	entries, err := h.svc.OrderOutHistory(c.Request().Context(), id)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(http.StatusOK, map[string]interface{}{
		"entries": entries,
		"count":   len(entries),
	})
}

func (h *Handler) EffectiveGoals(c echo.Context) error {
	id, err := patientID(c)
	if err != nil {
		return err
	}
	goals, err := h.svc.EffectiveGoals(c.Request().Context(), id, c.QueryParam("date"))
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(http.StatusOK, goals)
}
