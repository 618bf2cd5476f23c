package nutrition

import "encoding/json"

// Consumed is one date's accumulator of nutrients taken in via takeout.
// Values only grow within a day as orders are recorded.
type Consumed struct {
	EnergyKcal   float64 `json:"energy_kcal"`
	Protein      float64 `json:"protein"`
	Carbohydrate float64 `json:"carbohydrate"`
	Fat          float64 `json:"fat"`
	Fiber        float64 `json:"fiber"`
}

// DefaultEstimate debits the ledger for an item that carries no usable
// nutrient data. A takeout order with unknown nutrition still counts
// against the day's goals instead of being silently ignored.
var DefaultEstimate = Consumed{
	EnergyKcal:   500,
	Protein:      30,
	Carbohydrate: 55,
	Fat:          17,
	Fiber:        3,
}

// Meal is one logged meal within a diary entry.
type Meal struct {
	MealType string `json:"meal_type"`
	Text     string `json:"text"`
}

// DiaryEntry is one day's record of meals and free-text observations.
type DiaryEntry struct {
	Date         string `json:"date"`
	Meals        []Meal `json:"meals"`
	Observations string `json:"observations,omitempty"`
}

// DietaryHistory holds the food diary plus arbitrary nutritionist-authored
// notes. Unknown keys round-trip untouched.
type DietaryHistory struct {
	FoodDiary []DiaryEntry
	Extra     map[string]json.RawMessage
}

func (d DietaryHistory) MarshalJSON() ([]byte, error) {
	out := make(map[string]json.RawMessage, len(d.Extra)+1)
	for k, v := range d.Extra {
		out[k] = v
	}
	diary, err := json.Marshal(d.FoodDiary)
	if err != nil {
		return nil, err
	}
	out["food_diary"] = diary
	return json.Marshal(out)
}

func (d *DietaryHistory) UnmarshalJSON(data []byte) error {
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	d.FoodDiary = nil
	if diary, ok := raw["food_diary"]; ok {
		if err := json.Unmarshal(diary, &d.FoodDiary); err != nil {
			return err
		}
		delete(raw, "food_diary")
	}
	d.Extra = raw
	return nil
}

// Goals are the per-day nutrition targets a patient is prescribed.
type Goals struct {
	EnergyKcal   float64 `json:"energy_kcal"`
	Protein      float64 `json:"protein"`
	Carbohydrate float64 `json:"carbohydrate"`
	Fat          float64 `json:"fat"`
	Fiber        float64 `json:"fiber"`
}

// State is the nutrition state document stored on the patient record.
// Only this package mutates it. Unknown top-level keys round-trip
// untouched.
type State struct {
	DietaryHistory   DietaryHistory
	LastOrderOutDate string
	ConsumedByDate   map[string]Consumed
	Extra            map[string]json.RawMessage
}

// NewState returns an empty state ready for first use.
func NewState() *State {
	return &State{
		DietaryHistory: DietaryHistory{},
		ConsumedByDate: map[string]Consumed{},
	}
}

// ParseState decodes a stored state blob. A nil or undecodable blob
// yields a fresh empty state rather than an error: a patient without
// history starts clean.
func ParseState(raw json.RawMessage) *State {
	s := NewState()
	if len(raw) == 0 {
		return s
	}
	if err := json.Unmarshal(raw, s); err != nil {
		return NewState()
	}
	if s.ConsumedByDate == nil {
		s.ConsumedByDate = map[string]Consumed{}
	}
	return s
}

func (s State) MarshalJSON() ([]byte, error) {
	out := make(map[string]interface{}, len(s.Extra)+3)
	for k, v := range s.Extra {
		out[k] = v
	}
	out["dietary_history"] = s.DietaryHistory
	out["consumed_by_date"] = s.ConsumedByDate
	if s.LastOrderOutDate != "" {
		out["last_order_out_date"] = s.LastOrderOutDate
	}
	return json.Marshal(out)
}

func (s *State) UnmarshalJSON(data []byte) error {
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	if v, ok := raw["dietary_history"]; ok {
		if err := json.Unmarshal(v, &s.DietaryHistory); err != nil {
			return err
		}
		delete(raw, "dietary_history")
	}
	if v, ok := raw["last_order_out_date"]; ok {
		if err := json.Unmarshal(v, &s.LastOrderOutDate); err != nil {
			return err
		}
		delete(raw, "last_order_out_date")
	}
	if v, ok := raw["consumed_by_date"]; ok {
		if err := json.Unmarshal(v, &s.ConsumedByDate); err != nil {
			return err
		}
		delete(raw, "consumed_by_date")
	}
	s.Extra = raw
	return nil
}

// Marshal encodes the state back to its stored blob form.
func (s *State) Marshal() (json.RawMessage, error) {
	return json.Marshal(s)
}

// entryForDate returns a pointer into the diary for the given date.
func (s *State) entryForDate(date string) *DiaryEntry {
	for i := range s.DietaryHistory.FoodDiary {
		if s.DietaryHistory.FoodDiary[i].Date == date {
			return &s.DietaryHistory.FoodDiary[i]
		}
	}
	return nil
}
