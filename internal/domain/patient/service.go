package patient

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/google/uuid"
)

// ErrNotFound is returned when no patient matches the given identifier.
var ErrNotFound = errors.New("patient not found")

// ErrDuplicateName is returned when a patient with the name already
// exists.
var ErrDuplicateName = errors.New("patient name already taken")

// Service wraps the repository with validation.
type Service struct {
	repo Repository
}

func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

func (s *Service) Create(ctx context.Context, p *Patient) error {
	if err := p.Validate(); err != nil {
		return err
	}
	if existing, err := s.repo.GetByName(ctx, p.Name); err == nil && existing != nil {
		return fmt.Errorf("%w: %q", ErrDuplicateName, p.Name)
	}
	return s.repo.Create(ctx, p)
}

func (s *Service) Get(ctx context.Context, id uuid.UUID) (*Patient, error) {
	return s.repo.GetByID(ctx, id)
}

func (s *Service) GetByName(ctx context.Context, name string) (*Patient, error) {
	return s.repo.GetByName(ctx, name)
}

func (s *Service) Update(ctx context.Context, p *Patient) error {
	if err := p.Validate(); err != nil {
		return err
	}
	return s.repo.Update(ctx, p)
}

func (s *Service) UpdateNutritionState(ctx context.Context, id uuid.UUID, state json.RawMessage) error {
	return s.repo.UpdateNutritionState(ctx, id, state)
}

func (s *Service) Delete(ctx context.Context, id uuid.UUID) error {
	return s.repo.Delete(ctx, id)
}

func (s *Service) List(ctx context.Context, limit, offset int) ([]*Patient, int, error) {
	return s.repo.List(ctx, limit, offset)
}
