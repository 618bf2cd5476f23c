package nutrition

import (
	"math"
	"sort"
)

func round1(v float64) float64 {
	return math.Round(v*10) / 10
}

// RecordOrderOut debits the given date's accumulator with the nutrients
// of every ordered item. Items without usable nutrient data count as
// DefaultEstimate. Energy is rounded to a whole unit, gram quantities
// to one decimal. Also marks the date as the most recent takeout.
func (s *State) RecordOrderOut(items []Item, date string) {
	acc := s.ConsumedByDate[date]
	for _, it := range items {
		c := it.Nutrients()
		if !it.HasNutrients() {
			c = DefaultEstimate
		}
		acc.EnergyKcal += c.EnergyKcal
		acc.Protein += c.Protein
		acc.Carbohydrate += c.Carbohydrate
		acc.Fat += c.Fat
		acc.Fiber += c.Fiber
	}
	acc.EnergyKcal = math.Round(acc.EnergyKcal)
	acc.Protein = round1(acc.Protein)
	acc.Carbohydrate = round1(acc.Carbohydrate)
	acc.Fat = round1(acc.Fat)
	acc.Fiber = round1(acc.Fiber)

	s.ConsumedByDate[date] = acc
	s.LastOrderOutDate = date
}

// EffectiveGoals returns the remaining targets for the date: the base
// goals reduced by whatever was consumed, floored at zero. A date with
// no recorded consumption keeps the base goals unchanged.
func (s *State) EffectiveGoals(base Goals, date string) Goals {
	consumed, ok := s.ConsumedByDate[date]
	if !ok {
		return base
	}
	return Goals{
		EnergyKcal:   math.Max(base.EnergyKcal-consumed.EnergyKcal, 0),
		Protein:      math.Max(base.Protein-consumed.Protein, 0),
		Carbohydrate: math.Max(base.Carbohydrate-consumed.Carbohydrate, 0),
		Fat:          math.Max(base.Fat-consumed.Fat, 0),
		Fiber:        math.Max(base.Fiber-consumed.Fiber, 0),
	}
}

// OrderedOutOn reports whether the most recent takeout happened on the
// given date.
func (s *State) OrderedOutOn(date string) bool {
	return s.LastOrderOutDate != "" && s.LastOrderOutDate == date
}

// OrderOutEntry pairs a takeout date with its diary entry and the
// consumption recorded for it.
type OrderOutEntry struct {
	Date     string     `json:"date"`
	Entry    DiaryEntry `json:"entry"`
	Consumed Consumed   `json:"consumed"`
}

// placeholderObservation backs a consumption record whose date never
// got a diary entry.
const placeholderObservation = "Ordered out."

// OrderOutEntries returns every date with recorded takeout consumption,
// most recent first. A date missing from the diary gets a synthesized
// entry so a consumption record is never shown unpaired.
func (s *State) OrderOutEntries() []OrderOutEntry {
	dates := make([]string, 0, len(s.ConsumedByDate))
	for d := range s.ConsumedByDate {
		dates = append(dates, d)
	}
	sort.Sort(sort.Reverse(sort.StringSlice(dates)))

	entries := make([]OrderOutEntry, 0, len(dates))
	for _, d := range dates {
		e := OrderOutEntry{Date: d, Consumed: s.ConsumedByDate[d]}
		if diary := s.entryForDate(d); diary != nil {
			e.Entry = *diary
		} else {
			e.Entry = DiaryEntry{Date: d, Meals: []Meal{}, Observations: placeholderObservation}
		}
		entries = append(entries, e)
	}
	return entries
}
