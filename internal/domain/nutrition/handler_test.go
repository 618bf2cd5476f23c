package nutrition

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/labstack/echo/v4"

	"github.com/nutridash/nutridash/internal/platform/foodfinder"
)

func setupHandler(finder Finder) (*Handler, *mockDirectory) {
	dir := newMockDirectory()
	svc := NewService(dir, finder, testLogger())
	return NewHandler(svc), dir
}

func doRequest(h echo.HandlerFunc, method, target, body string, params map[string]string) (*httptest.ResponseRecorder, error) {
	e := echo.New()
	var reader *strings.Reader
	if body != "" {
		reader = strings.NewReader(body)
	} else {
		reader = strings.NewReader("")
	}
	req := httptest.NewRequest(method, target, reader)
	if body != "" {
		req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	}
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	for k, v := range params {
		c.SetParamNames(k)
		c.SetParamValues(v)
	}
	return rec, h(c)
}

func TestFindFoodHandler_Unreachable(t *testing.T) {
	finder := &mockFinder{resultErr: unreachable("find_food")}
	h, dir := setupHandler(finder)
	id := dir.addPatient(Goals{})

	_, err := doRequest(h.FindFood, http.MethodPost, "/", "", map[string]string{"id": id.String()})
	he, ok := err.(*echo.HTTPError)
	if !ok || he.Code != http.StatusServiceUnavailable {
		t.Fatalf("expected 503, got %v", err)
	}
	if !strings.Contains(he.Message.(string), "unavailable") {
		t.Errorf("expected recovery guidance, got %v", he.Message)
	}
}

func TestFindFoodHandler_UpstreamErrorForwarded(t *testing.T) {
	finder := &mockFinder{resultErr: &foodfinder.Error{
		Kind: foodfinder.KindUpstream, Op: "find_food",
		Status: http.StatusBadGateway, Body: `{"error":"scrape failed"}`,
	}}
	h, dir := setupHandler(finder)
	id := dir.addPatient(Goals{})

	rec, err := doRequest(h.FindFood, http.MethodPost, "/", "", map[string]string{"id": id.String()})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if rec.Code != http.StatusBadGateway {
		t.Errorf("expected upstream status forwarded, got %d", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), "scrape failed") {
		t.Errorf("expected upstream body forwarded, got %s", rec.Body.String())
	}
}

func TestFindFoodHandler_Success(t *testing.T) {
	finder := &mockFinder{result: &foodfinder.Result{Status: 200, Body: json.RawMessage(`{"items":[]}`)}}
	h, dir := setupHandler(finder)
	id := dir.addPatient(Goals{})

	rec, err := doRequest(h.FindFood, http.MethodPost, "/", "", map[string]string{"id": id.String()})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if rec.Code != http.StatusOK || strings.TrimSpace(rec.Body.String()) != `{"items":[]}` {
		t.Errorf("expected verbatim passthrough, got %d %s", rec.Code, rec.Body.String())
	}
}

func TestInitialFoodItemsHandler_EmptyOnFailure(t *testing.T) {
	finder := &mockFinder{
		cachedFoodErr:   unreachable("cached_food"),
		cachedBasketErr: unreachable("cached_grocery_basket"),
	}
	h, dir := setupHandler(finder)
	id := dir.addPatient(Goals{})

	rec, err := doRequest(h.InitialFoodItems, http.MethodGet, "/", "", map[string]string{"id": id.String()})
	if err != nil {
		t.Fatalf("expected 200 with empty list, got %v", err)
	}
	var resp struct {
		Items []Item `json:"items"`
		Count int    `json:"count"`
	}
	json.Unmarshal(rec.Body.Bytes(), &resp)
	if resp.Count != 0 || len(resp.Items) != 0 {
		t.Errorf("expected empty items, got %+v", resp)
	}
}

func TestCartHandler_EmptyItems(t *testing.T) {
	finder := &mockFinder{}
	h, _ := setupHandler(finder)

	_, err := doRequest(h.AddBasketToCart, http.MethodPost, "/cart",
		`{"store_url":"https://store.example","items":[]}`, nil)
	he, ok := err.(*echo.HTTPError)
	if !ok || he.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %v", err)
	}
	if finder.cartCalls != 0 {
		t.Errorf("expected no downstream call, got %d", finder.cartCalls)
	}
}

func TestLogMealsHandler(t *testing.T) {
	h, dir := setupHandler(&mockFinder{})
	id := dir.addPatient(Goals{EnergyKcal: 2000})

	body := `{"date":"2024-01-01","meal_type":"dinner","items":[{"name":"Mystery"}],"is_order_out":true}`
	rec, err := doRequest(h.LogMeals, http.MethodPost, "/", body, map[string]string{"id": id.String()})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}

	var result LogResult
	if err := json.Unmarshal(rec.Body.Bytes(), &result); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if result.Consumed.EnergyKcal != 500 {
		t.Errorf("expected default estimate applied, got %+v", result.Consumed)
	}
	if len(result.Entry.Meals) != 1 {
		t.Errorf("expected 1 meal in entry, got %d", len(result.Entry.Meals))
	}
}

func TestLogMealsHandler_UnknownPatient(t *testing.T) {
	h, _ := setupHandler(&mockFinder{})

	body := `{"date":"2024-01-01","items":[{"name":"Soup"}]}`
	_, err := doRequest(h.LogMeals, http.MethodPost, "/", body,
		map[string]string{"id": "2da7f9a1-94b9-44b2-9f1c-27e52c23f9e8"})
	he, ok := err.(*echo.HTTPError)
	if !ok || he.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %v", err)
	}
}

func TestLogMealsHandler_DirectoryDown(t *testing.T) {
	h, dir := setupHandler(&mockFinder{})
	id := dir.addPatient(Goals{})
	dir.profileErr = errors.New("connection refused")

	body := `{"date":"2024-01-01","items":[{"name":"Soup"}]}`
	_, err := doRequest(h.LogMeals, http.MethodPost, "/", body, map[string]string{"id": id.String()})
	he, ok := err.(*echo.HTTPError)
	if !ok || he.Code != http.StatusInternalServerError {
		t.Fatalf("expected 500 for a directory failure, got %v", err)
	}
}

func TestEffectiveGoalsHandler_BadDate(t *testing.T) {
	h, dir := setupHandler(&mockFinder{})
	id := dir.addPatient(Goals{})

	_, err := doRequest(h.EffectiveGoals, http.MethodGet, "/?date=garbage", "", map[string]string{"id": id.String()})
	he, ok := err.(*echo.HTTPError)
	if !ok || he.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %v", err)
	}
}

func TestOrderOutHistoryHandler(t *testing.T) {
	h, dir := setupHandler(&mockFinder{})
	id := dir.addPatient(Goals{EnergyKcal: 2000})

	svc := NewService(dir, &mockFinder{}, testLogger())
	svc.LogMeals(context.Background(), id, "2024-01-01", "dinner", []Item{{"name": "Pizza"}}, "", true)

	rec, err := doRequest(h.OrderOutHistory, http.MethodGet, "/", "", map[string]string{"id": id.String()})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	var resp struct {
		Entries []OrderOutEntry `json:"entries"`
		Count   int             `json:"count"`
	}
	json.Unmarshal(rec.Body.Bytes(), &resp)
	if resp.Count != 1 || resp.Entries[0].Date != "2024-01-01" {
		t.Errorf("unexpected history %+v", resp)
	}
}

func TestNutritionHandler_MissingQuery(t *testing.T) {
	h, _ := setupHandler(&mockFinder{})

	_, err := doRequest(h.Nutrition, http.MethodGet, "/", "", nil)
	he, ok := err.(*echo.HTTPError)
	if !ok || he.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %v", err)
	}
}
