package patient

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

// Patient is a tracked person with daily macronutrient goals. The
// NutritionState column carries the diary and order-out ledger as an
// opaque document owned by the nutrition domain.
type Patient struct {
	ID             uuid.UUID       `json:"id"`
	Name           string          `json:"name"`
	City           string          `json:"city,omitempty"`
	EnergyGoalKcal int             `json:"energy_goal_kcal"`
	EnergyUnit     string          `json:"energy_unit"`
	ProteinGoalG   float64         `json:"protein_goal_g"`
	CarbGoalG      float64         `json:"carb_goal_g"`
	FatGoalG       float64         `json:"fat_goal_g"`
	FiberGoalG     float64         `json:"fiber_goal_g"`
	NutritionState json.RawMessage `json:"nutrition_state,omitempty"`
	CreatedAt      time.Time       `json:"created_at"`
	UpdatedAt      time.Time       `json:"updated_at"`
}

// Validate checks the fields a caller controls on create and update,
// defaulting the energy unit when unset.
func (p *Patient) Validate() error {
	if strings.TrimSpace(p.Name) == "" {
		return fmt.Errorf("name is required")
	}
	if p.EnergyUnit == "" {
		p.EnergyUnit = "kcal"
	}
	if p.EnergyGoalKcal < 0 {
		return fmt.Errorf("energy_goal_kcal must not be negative")
	}
	if p.ProteinGoalG < 0 || p.CarbGoalG < 0 || p.FatGoalG < 0 || p.FiberGoalG < 0 {
		return fmt.Errorf("macronutrient goals must not be negative")
	}
	return nil
}
