package nutrition

// Item is one food item as returned by the discovery service. The shape
// is service-owned and loose, so every accessor tolerates missing or
// malformed fields by returning a zero value.
type Item map[string]interface{}

func (it Item) str(key string) string {
	s, _ := it[key].(string)
	return s
}

func (it Item) num(key string) float64 {
	switch v := it[key].(type) {
	case float64:
		return v
	case int:
		return float64(v)
	}
	return 0
}

// Name returns the item's display name, empty if absent.
func (it Item) Name() string { return it.str("name") }

// Restaurant returns the originating restaurant name, empty if absent.
func (it Item) Restaurant() string { return it.str("restaurant") }

// macros returns the nested macronutrient map, nil if absent.
func (it Item) macros() Item {
	m, _ := it["macronutrient_distribution_in_grams"].(map[string]interface{})
	return Item(m)
}

// Nutrients extracts the nutrient facts carried by the item. Energy is
// read from energy_kcal or calories, grams from the nested macro map
// with a top-level fallback. Anything missing or malformed reads as
// zero.
func (it Item) Nutrients() Consumed {
	c := Consumed{
		EnergyKcal: it.num("energy_kcal"),
		Fiber:      it.num("fiber"),
	}
	if c.EnergyKcal == 0 {
		c.EnergyKcal = it.num("calories")
	}
	if m := it.macros(); m != nil {
		c.Protein = m.num("protein")
		c.Carbohydrate = m.num("carbohydrate")
		c.Fat = m.num("fat")
		if c.Fiber == 0 {
			c.Fiber = m.num("fiber")
		}
	} else {
		c.Protein = it.num("protein")
		c.Carbohydrate = it.num("carbohydrate")
		c.Fat = it.num("fat")
	}
	return c
}

// HasNutrients reports whether the item carries any usable nutrient
// data. An item whose extracted values are all zero gets the default
// estimate instead.
func (it Item) HasNutrients() bool {
	c := it.Nutrients()
	return c.EnergyKcal > 0 || c.Protein > 0 || c.Carbohydrate > 0 || c.Fat > 0 || c.Fiber > 0
}
