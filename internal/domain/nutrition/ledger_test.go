package nutrition

import (
	"encoding/json"
	"testing"
)

func TestEffectiveGoals_NoConsumption(t *testing.T) {
	s := NewState()
	base := Goals{EnergyKcal: 2000, Protein: 150, Carbohydrate: 200, Fat: 70, Fiber: 30}

	got := s.EffectiveGoals(base, "2024-01-01")
	if got != base {
		t.Errorf("expected base goals unchanged, got %+v", got)
	}
}

func TestEffectiveGoals_Subtracts(t *testing.T) {
	s := NewState()
	s.ConsumedByDate["2024-01-01"] = Consumed{EnergyKcal: 500, Protein: 30, Carbohydrate: 55, Fat: 17, Fiber: 3}
	base := Goals{EnergyKcal: 2000, Protein: 150, Carbohydrate: 200, Fat: 70, Fiber: 30}

	got := s.EffectiveGoals(base, "2024-01-01")
	want := Goals{EnergyKcal: 1500, Protein: 120, Carbohydrate: 145, Fat: 53, Fiber: 27}
	if got != want {
		t.Errorf("expected %+v, got %+v", want, got)
	}
}

func TestEffectiveGoals_FloorsAtZero(t *testing.T) {
	s := NewState()
	s.ConsumedByDate["2024-01-01"] = Consumed{EnergyKcal: 3000, Protein: 200, Carbohydrate: 300, Fat: 100, Fiber: 50}
	base := Goals{EnergyKcal: 2000, Protein: 150, Carbohydrate: 200, Fat: 70, Fiber: 30}

	got := s.EffectiveGoals(base, "2024-01-01")
	if got != (Goals{}) {
		t.Errorf("expected all goals floored at zero, got %+v", got)
	}
}

func TestRecordOrderOut_DefaultEstimate(t *testing.T) {
	s := NewState()
	item := Item{"name": "Mystery Dish", "macronutrient_distribution_in_grams": map[string]interface{}{
		"protein": float64(0), "carbohydrate": float64(0), "fat": float64(0),
	}}

	s.RecordOrderOut([]Item{item}, "2024-01-01")

	got := s.ConsumedByDate["2024-01-01"]
	want := Consumed{EnergyKcal: 500, Protein: 30.0, Carbohydrate: 55.0, Fat: 17.0, Fiber: 3.0}
	if got != want {
		t.Errorf("expected default estimate %+v, got %+v", want, got)
	}
	if s.LastOrderOutDate != "2024-01-01" {
		t.Errorf("expected last order out date set, got %q", s.LastOrderOutDate)
	}
}

func TestRecordOrderOut_ExtractsNutrients(t *testing.T) {
	s := NewState()
	item := Item{
		"name":       "Grilled Chicken",
		"energy_kcal": float64(420),
		"macronutrient_distribution_in_grams": map[string]interface{}{
			"protein": float64(38.25), "carbohydrate": float64(12.1), "fat": float64(9.33),
		},
	}

	s.RecordOrderOut([]Item{item}, "2024-01-02")

	got := s.ConsumedByDate["2024-01-02"]
	if got.EnergyKcal != 420 {
		t.Errorf("expected energy 420, got %v", got.EnergyKcal)
	}
	if got.Protein != 38.3 {
		t.Errorf("expected protein rounded to 38.3, got %v", got.Protein)
	}
	if got.Fat != 9.3 {
		t.Errorf("expected fat rounded to 9.3, got %v", got.Fat)
	}
}

func TestRecordOrderOut_Rounding(t *testing.T) {
	s := NewState()
	item := Item{
		"energy_kcal": float64(100.6),
		"macronutrient_distribution_in_grams": map[string]interface{}{
			"protein": float64(10.04),
		},
	}

	s.RecordOrderOut([]Item{item}, "2024-01-01")

	got := s.ConsumedByDate["2024-01-01"]
	if got.EnergyKcal != 101 {
		t.Errorf("expected energy rounded to 101, got %v", got.EnergyKcal)
	}
	if got.Protein != 10.0 {
		t.Errorf("expected protein rounded to 10.0, got %v", got.Protein)
	}
}

func TestRecordOrderOut_Accumulates(t *testing.T) {
	s := NewState()
	item := Item{"energy_kcal": float64(300), "macronutrient_distribution_in_grams": map[string]interface{}{
		"protein": float64(20),
	}}

	s.RecordOrderOut([]Item{item}, "2024-01-01")
	s.RecordOrderOut([]Item{item}, "2024-01-01")

	got := s.ConsumedByDate["2024-01-01"]
	if got.EnergyKcal != 600 || got.Protein != 40 {
		t.Errorf("expected accumulation 600/40, got %+v", got)
	}
}

func TestOrderOutEntries_DescendingWithSynthesized(t *testing.T) {
	s := NewState()
	s.RecordOrderOut([]Item{{"energy_kcal": float64(100)}}, "2024-01-01")
	s.RecordOrderOut([]Item{{"energy_kcal": float64(200)}}, "2024-03-15")
	s.RecordOrderOut([]Item{{"energy_kcal": float64(300)}}, "2024-02-10")
	s.LogMeals("2024-03-15", "dinner", []Item{{"name": "Pizza"}}, "")

	entries := s.OrderOutEntries()
	if len(entries) != 3 {
		t.Fatalf("expected 3 entries, got %d", len(entries))
	}
	wantDates := []string{"2024-03-15", "2024-02-10", "2024-01-01"}
	for i, want := range wantDates {
		if entries[i].Date != want {
			t.Errorf("entry %d: expected date %s, got %s", i, want, entries[i].Date)
		}
	}

	if len(entries[0].Entry.Meals) != 1 {
		t.Errorf("expected diary entry paired for 2024-03-15, got %+v", entries[0].Entry)
	}
	if entries[1].Entry.Observations != placeholderObservation || len(entries[1].Entry.Meals) != 0 {
		t.Errorf("expected synthesized entry for 2024-02-10, got %+v", entries[1].Entry)
	}
}

func TestOrderedOutOn(t *testing.T) {
	s := NewState()
	if s.OrderedOutOn("2024-01-01") {
		t.Error("expected false with no orders")
	}
	s.RecordOrderOut([]Item{{}}, "2024-01-01")
	if !s.OrderedOutOn("2024-01-01") {
		t.Error("expected true on order date")
	}
	if s.OrderedOutOn("2024-01-02") {
		t.Error("expected false on another date")
	}
}

func TestState_RoundTripPreservesUnknownFields(t *testing.T) {
	blob := json.RawMessage(`{
		"dietary_history": {
			"food_diary": [{"date":"2024-01-01","meals":[{"meal_type":"lunch","text":"Soup"}]}],
			"nutritionist_notes": "prefers fish over red meat"
		},
		"last_order_out_date": "2024-01-01",
		"consumed_by_date": {"2024-01-01": {"energy_kcal":500,"protein":30,"carbohydrate":55,"fat":17,"fiber":3}},
		"clinic_flag": {"reviewed": true}
	}`)

	s := ParseState(blob)
	if len(s.DietaryHistory.FoodDiary) != 1 {
		t.Fatalf("expected 1 diary entry, got %d", len(s.DietaryHistory.FoodDiary))
	}
	if s.LastOrderOutDate != "2024-01-01" {
		t.Errorf("unexpected last order out date %q", s.LastOrderOutDate)
	}

	out, err := s.Marshal()
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	var decoded map[string]json.RawMessage
	if err := json.Unmarshal(out, &decoded); err != nil {
		t.Fatalf("decode round trip: %v", err)
	}
	if string(decoded["clinic_flag"]) != `{"reviewed": true}` {
		t.Errorf("expected clinic_flag preserved, got %s", decoded["clinic_flag"])
	}
	var dh map[string]json.RawMessage
	json.Unmarshal(decoded["dietary_history"], &dh)
	if string(dh["nutritionist_notes"]) != `"prefers fish over red meat"` {
		t.Errorf("expected nutritionist notes preserved, got %s", dh["nutritionist_notes"])
	}
}

func TestParseState_MalformedYieldsFresh(t *testing.T) {
	s := ParseState(json.RawMessage(`{broken`))
	if s == nil || s.ConsumedByDate == nil {
		t.Fatal("expected fresh state for malformed blob")
	}
	if len(s.DietaryHistory.FoodDiary) != 0 {
		t.Error("expected empty diary")
	}
}

func TestParseState_Nil(t *testing.T) {
	s := ParseState(nil)
	if s == nil || s.ConsumedByDate == nil {
		t.Fatal("expected fresh state for nil blob")
	}
}
