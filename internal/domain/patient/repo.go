package patient

import (
	"context"
	"encoding/json"

	"github.com/google/uuid"
)

// Repository persists patients and their nutrition state document.
type Repository interface {
	Create(ctx context.Context, p *Patient) error
	GetByID(ctx context.Context, id uuid.UUID) (*Patient, error)
	GetByName(ctx context.Context, name string) (*Patient, error)
	Update(ctx context.Context, p *Patient) error
	UpdateNutritionState(ctx context.Context, id uuid.UUID, state json.RawMessage) error
	Delete(ctx context.Context, id uuid.UUID) error
	List(ctx context.Context, limit, offset int) ([]*Patient, int, error)
}
