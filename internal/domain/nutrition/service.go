package nutrition

import (
	"context"
	"encoding/json"
	"fmt"
	"math/rand"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/nutridash/nutridash/internal/platform/foodfinder"
)

// MaxInitialItems caps the shuffled item list served on first page load.
const MaxInitialItems = 20

// Profile is the slice of the patient record this domain reads.
type Profile struct {
	ID         uuid.UUID
	Name       string
	City       string
	EnergyUnit string
	Goals      Goals
	State      json.RawMessage
}

// PatientDirectory resolves patients and writes their nutrition state
// back. Implemented by the patient domain, adapted at wiring time.
type PatientDirectory interface {
	Profile(ctx context.Context, id uuid.UUID) (*Profile, error)
	SaveState(ctx context.Context, id uuid.UUID, state json.RawMessage) error
}

// Finder is the discovery service surface this domain consumes.
type Finder interface {
	CachedFood(ctx context.Context, patientID string) (*foodfinder.CachedFood, error)
	CachedGroceryBasket(ctx context.Context, patientID string) (*foodfinder.CachedBasket, error)
	WarmCache(ctx context.Context, patientID string, profile interface{}) (*foodfinder.Result, error)
	FindFood(ctx context.Context, patientID string, profile interface{}, maxRestaurants int) (*foodfinder.Result, error)
	GroceryBasket(ctx context.Context, patientID string, profile interface{}) (*foodfinder.Result, error)
	AddBasketToCart(ctx context.Context, req foodfinder.CartRequest) (*foodfinder.Result, error)
	Nutrition(ctx context.Context, q foodfinder.NutritionQuery) (*foodfinder.Result, error)
}

// Service orchestrates discovery calls and ledger mutations. Requests
// for different patients are independent; mutations of one patient's
// state serialize on a per-patient mutex so concurrent confirmations
// cannot lose updates.
type Service struct {
	dir            PatientDirectory
	finder         Finder
	logger         zerolog.Logger
	maxRestaurants int

	mu    sync.Mutex
	locks map[uuid.UUID]*sync.Mutex
}

func NewService(dir PatientDirectory, finder Finder, logger zerolog.Logger) *Service {
	return &Service{
		dir:            dir,
		finder:         finder,
		logger:         logger.With().Str("component", "nutrition").Logger(),
		maxRestaurants: 5,
		locks:          map[uuid.UUID]*sync.Mutex{},
	}
}

func (s *Service) patientLock(id uuid.UUID) *sync.Mutex {
	s.mu.Lock()
	defer s.mu.Unlock()
	l, ok := s.locks[id]
	if !ok {
		l = &sync.Mutex{}
		s.locks[id] = l
	}
	return l
}

// profile resolves the patient. The directory reports missing patients
// as ErrNotFound; anything else is an infrastructure failure and keeps
// its identity.
func (s *Service) profile(ctx context.Context, id uuid.UUID) (*Profile, error) {
	return s.dir.Profile(ctx, id)
}

// profilePayload serializes the nutrition profile the discovery side
// uses to pick suitable food.
func profilePayload(p *Profile) map[string]interface{} {
	unit := p.EnergyUnit
	if unit == "" {
		unit = "kcal"
	}
	return map[string]interface{}{
		"daily_energy_goal": p.Goals.EnergyKcal,
		"energy_unit":       unit,
		"macro_goals": map[string]float64{
			"protein":      p.Goals.Protein,
			"carbohydrate": p.Goals.Carbohydrate,
			"fat":          p.Goals.Fat,
			"fiber":        p.Goals.Fiber,
		},
		"nutrition_state": p.State,
	}
}

// InitialFoodItems serves the first-page food list: cached restaurant
// meals plus the cached grocery basket, tagged with provenance,
// shuffled and capped. Both sources failing yields an empty list, never
// an error: page rendering must not depend on the discovery service.
func (s *Service) InitialFoodItems(ctx context.Context, patientID uuid.UUID) ([]Item, error) {
	p, err := s.profile(ctx, patientID)
	if err != nil {
		return nil, err
	}

	items := []Item{}

	food, err := s.finder.CachedFood(ctx, p.ID.String())
	if err != nil {
		s.logger.Warn().Err(err).Str("patient_id", p.ID.String()).Msg("cached food fetch failed")
	} else {
		for _, raw := range food.Items {
			it := Item(raw)
			it["from_cache"] = food.FromCache
			items = append(items, it)
		}
	}

	basket, err := s.finder.CachedGroceryBasket(ctx, p.ID.String())
	if err != nil {
		s.logger.Warn().Err(err).Str("patient_id", p.ID.String()).Msg("cached basket fetch failed")
	} else {
		for _, raw := range basket.Items {
			it := Item(raw)
			it["from_cache"] = true
			it["store"] = basket.Store
			it["store_url"] = basket.StoreURL
			items = append(items, it)
		}
	}

	rand.Shuffle(len(items), func(i, j int) { items[i], items[j] = items[j], items[i] })
	if len(items) > MaxInitialItems {
		items = items[:MaxInitialItems]
	}
	return items, nil
}

// WarmCache forwards a cache pre-population request for the patient.
func (s *Service) WarmCache(ctx context.Context, patientID uuid.UUID) (*foodfinder.Result, error) {
	p, err := s.profile(ctx, patientID)
	if err != nil {
		return nil, err
	}
	return s.finder.WarmCache(ctx, p.ID.String(), profilePayload(p))
}

// FindFood forwards a live meal search for the patient.
func (s *Service) FindFood(ctx context.Context, patientID uuid.UUID) (*foodfinder.Result, error) {
	p, err := s.profile(ctx, patientID)
	if err != nil {
		return nil, err
	}
	return s.finder.FindFood(ctx, p.ID.String(), profilePayload(p), s.maxRestaurants)
}

// GroceryBasket forwards a live basket assembly for the patient.
func (s *Service) GroceryBasket(ctx context.Context, patientID uuid.UUID) (*foodfinder.Result, error) {
	p, err := s.profile(ctx, patientID)
	if err != nil {
		return nil, err
	}
	return s.finder.GroceryBasket(ctx, p.ID.String(), profilePayload(p))
}

// AddBasketToCart forwards the basket to the store cart. Items are
// stripped down to their names; nothing else is trusted to the
// downstream automation. The browser session is asked to stay open so
// the patient can review the cart.
func (s *Service) AddBasketToCart(ctx context.Context, storeURL string, items []Item) (*foodfinder.Result, error) {
	if storeURL == "" {
		return nil, &ValidationError{Field: "store_url", Reason: "must not be empty"}
	}
	if len(items) == 0 {
		return nil, &ValidationError{Field: "items", Reason: "must not be empty"}
	}

	req := foodfinder.CartRequest{StoreURL: storeURL, KeepOpen: true}
	for _, it := range items {
		req.Items = append(req.Items, foodfinder.CartItem{Name: it.Name()})
	}
	return s.finder.AddBasketToCart(ctx, req)
}

// Nutrition forwards a nutrition facts lookup.
func (s *Service) Nutrition(ctx context.Context, q foodfinder.NutritionQuery) (*foodfinder.Result, error) {
	if q.Query == "" {
		return nil, &ValidationError{Field: "q", Reason: "must not be empty"}
	}
	return s.finder.Nutrition(ctx, q)
}

// LogResult is the updated diary and ledger snapshot after a log.
type LogResult struct {
	Entry          DiaryEntry `json:"entry"`
	Consumed       Consumed   `json:"consumed"`
	EffectiveGoals Goals      `json:"effective_goals"`
	OrderedOut     bool       `json:"ordered_out"`
}

// LogMeals merges the items into the patient's diary for the date and,
// when the log confirms a takeout order, debits the consumption ledger.
// The full updated state persists atomically or not at all.
func (s *Service) LogMeals(ctx context.Context, patientID uuid.UUID, date, mealType string, items []Item, observation string, isOrderOut bool) (*LogResult, error) {
	if len(items) == 0 {
		return nil, &ValidationError{Field: "items", Reason: "must not be empty"}
	}
	if date == "" {
		date = time.Now().Format("2006-01-02")
	} else if _, err := time.Parse("2006-01-02", date); err != nil {
		return nil, &ValidationError{Field: "date", Reason: "must be YYYY-MM-DD"}
	}

	lock := s.patientLock(patientID)
	lock.Lock()
	defer lock.Unlock()

	p, err := s.profile(ctx, patientID)
	if err != nil {
		return nil, err
	}

	state := ParseState(p.State)
	state.LogMeals(date, mealType, items, observation)
	if isOrderOut {
		state.RecordOrderOut(items, date)
	}

	blob, err := state.Marshal()
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrPersistenceFailed, err)
	}
	if err := s.dir.SaveState(ctx, patientID, blob); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrPersistenceFailed, err)
	}

	s.logger.Info().
		Str("patient_id", patientID.String()).
		Str("date", date).
		Int("items", len(items)).
		Bool("order_out", isOrderOut).
		Msg("meals logged")

	entry := state.entryForDate(date)
	return &LogResult{
		Entry:          *entry,
		Consumed:       state.ConsumedByDate[date],
		EffectiveGoals: state.EffectiveGoals(p.Goals, date),
		OrderedOut:     state.OrderedOutOn(date),
	}, nil
}

// OrderOutHistory returns the patient's takeout history, most recent
// first, with meals in presentation order.
func (s *Service) OrderOutHistory(ctx context.Context, patientID uuid.UUID) ([]OrderOutEntry, error) {
	p, err := s.profile(ctx, patientID)
	if err != nil {
		return nil, err
	}
	state := ParseState(p.State)
	entries := state.OrderOutEntries()
	for i := range entries {
		entries[i].Entry.Meals = DisplayMeals(patientID.String(), entries[i].Entry)
	}
	return entries, nil
}

// EffectiveGoals returns the remaining targets for the date, defaulting
// to today.
func (s *Service) EffectiveGoals(ctx context.Context, patientID uuid.UUID, date string) (Goals, error) {
	if date == "" {
		date = time.Now().Format("2006-01-02")
	} else if _, err := time.Parse("2006-01-02", date); err != nil {
		return Goals{}, &ValidationError{Field: "date", Reason: "must be YYYY-MM-DD"}
	}
	p, err := s.profile(ctx, patientID)
	if err != nil {
		return Goals{}, err
	}
	return ParseState(p.State).EffectiveGoals(p.Goals, date), nil
}
