package foodfinder

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/rs/zerolog"
)

// CachedFood is the response of the cached meal lookup.
type CachedFood struct {
	Items     []map[string]interface{} `json:"items"`
	FromCache bool                     `json:"from_cache"`
}

// CachedBasket is the response of the cached grocery basket lookup.
type CachedBasket struct {
	Items    []map[string]interface{} `json:"items"`
	Store    string                   `json:"store"`
	StoreURL string                   `json:"store_url"`
}

// CartItem names a basket product to place in the store cart.
type CartItem struct {
	Name string `json:"name"`
}

// CartRequest is the body of the add-to-cart operation.
type CartRequest struct {
	StoreURL string     `json:"store_url"`
	Items    []CartItem `json:"items"`
	KeepOpen bool       `json:"keep_open"`
}

// NutritionQuery describes a free-text nutrition facts lookup.
type NutritionQuery struct {
	Query       string `json:"q"`
	Description string `json:"description,omitempty"`
	ImageURL    string `json:"image_url,omitempty"`
	Refresh     bool   `json:"refresh,omitempty"`
}

// Result is a verbatim passthrough of an upstream response.
type Result struct {
	Status int
	Body   json.RawMessage
}

// Client talks to the food-finder service. Each group of endpoints gets
// its own http.Client so slow browser-automation calls cannot starve the
// fast cache reads.
type Client struct {
	baseURL string
	city    string
	logger  zerolog.Logger

	cacheHTTP     *http.Client
	warmHTTP      *http.Client
	liveHTTP      *http.Client
	cartHTTP      *http.Client
	nutritionHTTP *http.Client
}

func newHTTPClient(connect, total time.Duration) *http.Client {
	return &http.Client{
		Timeout: total,
		Transport: &http.Transport{
			DialContext: (&net.Dialer{
				Timeout:   connect,
				KeepAlive: 30 * time.Second,
			}).DialContext,
			MaxIdleConns:        10,
			IdleConnTimeout:     90 * time.Second,
			TLSHandshakeTimeout: connect,
		},
	}
}

// NewClient builds a client for the food-finder service at baseURL.
// city scopes discovery to a delivery region.
func NewClient(baseURL, city string, logger zerolog.Logger) *Client {
	return &Client{
		baseURL:       strings.TrimRight(baseURL, "/"),
		city:          city,
		logger:        logger.With().Str("component", "foodfinder").Logger(),
		cacheHTTP:     newHTTPClient(3*time.Second, 5*time.Second),
		warmHTTP:      newHTTPClient(3*time.Second, 10*time.Second),
		liveHTTP:      newHTTPClient(5*time.Second, 120*time.Second),
		cartHTTP:      newHTTPClient(5*time.Second, 180*time.Second),
		nutritionHTTP: newHTTPClient(3*time.Second, 30*time.Second),
	}
}

// do executes one request and classifies every failure mode. On success
// the status and raw body are returned for the caller to decode.
func (c *Client) do(ctx context.Context, hc *http.Client, op, method, path string, query url.Values, body interface{}) (int, []byte, error) {
	u := c.baseURL + path
	if len(query) > 0 {
		u += "?" + query.Encode()
	}

	var reqBody io.Reader
	if body != nil {
		encoded, err := json.Marshal(body)
		if err != nil {
			return 0, nil, &Error{Kind: KindMalformed, Op: op, Err: fmt.Errorf("encode request: %w", err)}
		}
		reqBody = bytes.NewReader(encoded)
	}

	req, err := http.NewRequestWithContext(ctx, method, u, reqBody)
	if err != nil {
		return 0, nil, &Error{Kind: KindUnreachable, Op: op, Err: err}
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	req.Header.Set("Accept", "application/json")

	start := time.Now()
	resp, err := hc.Do(req)
	if err != nil {
		c.logger.Warn().Str("op", op).Dur("elapsed", time.Since(start)).Err(err).Msg("request failed")
		return 0, nil, &Error{Kind: KindUnreachable, Op: op, Err: err}
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, 4<<20))
	if err != nil {
		return 0, nil, &Error{Kind: KindUnreachable, Op: op, Err: err}
	}

	c.logger.Debug().
		Str("op", op).
		Int("status", resp.StatusCode).
		Dur("elapsed", time.Since(start)).
		Msg("request done")

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		c.logger.Warn().
			Str("op", op).
			Int("status", resp.StatusCode).
			Str("body", truncate(string(raw), 2048)).
			Msg("upstream error")
		// Body carries the full upstream response so handlers can relay
		// it verbatim; only the log line above is truncated.
		return resp.StatusCode, raw, &Error{Kind: KindUpstream, Op: op, Status: resp.StatusCode, Body: string(raw)}
	}
	return resp.StatusCode, raw, nil
}

func (c *Client) decode(op string, raw []byte, out interface{}) error {
	if err := json.Unmarshal(raw, out); err != nil {
		return &Error{Kind: KindMalformed, Op: op, Err: err}
	}
	return nil
}

func (c *Client) passthrough(op string, status int, raw []byte) (*Result, error) {
	if !json.Valid(raw) {
		return nil, &Error{Kind: KindMalformed, Op: op, Err: fmt.Errorf("invalid json body")}
	}
	return &Result{Status: status, Body: raw}, nil
}

func truncate(s string, max int) string {
	if len(s) <= max {
		return s
	}
	return s[:max]
}

func (c *Client) patientQuery(patientID string) url.Values {
	return url.Values{"patient_id": {patientID}, "city": {c.city}}
}

// CachedFood fetches previously discovered meals for the patient without
// triggering a live search.
func (c *Client) CachedFood(ctx context.Context, patientID string) (*CachedFood, error) {
	const op = "cached_food"
	_, raw, err := c.do(ctx, c.cacheHTTP, op, http.MethodGet, "/cached_food", c.patientQuery(patientID), nil)
	if err != nil {
		return nil, err
	}
	var out CachedFood
	if err := c.decode(op, raw, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// CachedGroceryBasket fetches the previously assembled basket for the
// patient without triggering a live search.
func (c *Client) CachedGroceryBasket(ctx context.Context, patientID string) (*CachedBasket, error) {
	const op = "cached_grocery_basket"
	_, raw, err := c.do(ctx, c.cacheHTTP, op, http.MethodGet, "/cached_grocery_basket", c.patientQuery(patientID), nil)
	if err != nil {
		return nil, err
	}
	var out CachedBasket
	if err := c.decode(op, raw, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// WarmCache asks the service to start background discovery for the
// patient. profile is the serialized nutrition profile the discovery
// side uses to pick suitable food. The upstream body passes through
// untouched.
func (c *Client) WarmCache(ctx context.Context, patientID string, profile interface{}) (*Result, error) {
	const op = "warm_cache"
	body := map[string]interface{}{"patient_id": patientID, "patient": profile, "city": c.city}
	status, raw, err := c.do(ctx, c.warmHTTP, op, http.MethodPost, "/warm_cache", nil, body)
	if err != nil {
		return nil, err
	}
	return c.passthrough(op, status, raw)
}

// FindFood runs a live meal search for the patient. Slow: this drives a
// real discovery pass on the other side.
func (c *Client) FindFood(ctx context.Context, patientID string, profile interface{}, maxRestaurants int) (*Result, error) {
	const op = "find_food"
	body := map[string]interface{}{"patient": profile, "patient_id": patientID, "city": c.city}
	if maxRestaurants > 0 {
		body["max_restaurants"] = maxRestaurants
	}
	status, raw, err := c.do(ctx, c.liveHTTP, op, http.MethodPost, "/find_food", nil, body)
	if err != nil {
		return nil, err
	}
	return c.passthrough(op, status, raw)
}

// GroceryBasket runs a live grocery basket assembly for the patient.
func (c *Client) GroceryBasket(ctx context.Context, patientID string, profile interface{}) (*Result, error) {
	const op = "grocery_basket"
	body := map[string]interface{}{"patient": profile, "patient_id": patientID, "city": c.city}
	status, raw, err := c.do(ctx, c.liveHTTP, op, http.MethodPost, "/grocery_basket", nil, body)
	if err != nil {
		return nil, err
	}
	return c.passthrough(op, status, raw)
}

// AddBasketToCart places the named items into the store's online cart.
// The downstream drives browser automation, hence the long budget.
func (c *Client) AddBasketToCart(ctx context.Context, req CartRequest) (*Result, error) {
	const op = "add_basket_to_cart"
	status, raw, err := c.do(ctx, c.cartHTTP, op, http.MethodPost, "/add_basket_to_cart", nil, req)
	if err != nil {
		return nil, err
	}
	return c.passthrough(op, status, raw)
}

// Nutrition looks up nutrition facts for a free-text food query.
func (c *Client) Nutrition(ctx context.Context, q NutritionQuery) (*Result, error) {
	const op = "nutrition"
	query := url.Values{"q": {q.Query}}
	if q.Description != "" {
		query.Set("description", q.Description)
	}
	if q.ImageURL != "" {
		query.Set("image_url", q.ImageURL)
	}
	if q.Refresh {
		// The service only honors "1" on GET requests.
		query.Set("refresh", "1")
	}
	status, raw, err := c.do(ctx, c.nutritionHTTP, op, http.MethodGet, "/nutrition", query, nil)
	if err != nil {
		return nil, err
	}
	return c.passthrough(op, status, raw)
}
