package service

import (
	"context"
	"strings"

	"github.com/google/uuid"

	"parkreserve/internal/db"
	"parkreserve/internal/entities"
	"parkreserve/internal/errors"
)

type PlanStore interface {
	Create(ctx context.Context, p *db.PaymentPlan) error
	GetByID(ctx context.Context, id string) (*db.PaymentPlan, error)
	Update(ctx context.Context, p *db.PaymentPlan) error
	Delete(ctx context.Context, id string) error
	List(ctx context.Context) ([]db.PaymentPlan, error)
}

type PlanService struct {
	plans PlanStore
}

func NewPlanService(plans PlanStore) *PlanService {
	return &PlanService{plans: plans}
}

type CreatePlanInput struct {
	Name         string
	Type         entities.PlanType
	PriceCents   int64
	DurationDays int
	Description  string
}

type PlanPatch struct {
	Name         *string
	Type         *entities.PlanType
	PriceCents   *int64
	DurationDays *int
	Description  *string
}

func (s *PlanService) Create(ctx context.Context, in CreatePlanInput) (*db.PaymentPlan, error) {
	if strings.TrimSpace(in.Name) == "" {
		return nil, errors.InvalidInput("name is required")
	}
	if err := validatePlanPricing(in.Type, in.PriceCents, in.DurationDays); err != nil {
		return nil, err
	}

	plan := &db.PaymentPlan{
		ID:           uuid.New().String(),
		Name:         in.Name,
		Type:         in.Type,
		PriceCents:   in.PriceCents,
		DurationDays: in.DurationDays,
		Description:  in.Description,
	}
	if err := s.plans.Create(ctx, plan); err != nil {
		return nil, err
	}
	return plan, nil
}

func (s *PlanService) Get(ctx context.Context, id string) (*db.PaymentPlan, error) {
	return s.plans.GetByID(ctx, id)
}

func (s *PlanService) Update(ctx context.Context, id string, patch PlanPatch) (*db.PaymentPlan, error) {
	plan, err := s.plans.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if patch.Name != nil {
		if strings.TrimSpace(*patch.Name) == "" {
			return nil, errors.InvalidInput("name cannot be empty")
		}
		plan.Name = *patch.Name
	}
	if patch.Type != nil {
		plan.Type = *patch.Type
	}
	if patch.PriceCents != nil {
		plan.PriceCents = *patch.PriceCents
	}
	if patch.DurationDays != nil {
		plan.DurationDays = *patch.DurationDays
	}
	if patch.Description != nil {
		plan.Description = *patch.Description
	}
	if err := validatePlanPricing(plan.Type, plan.PriceCents, plan.DurationDays); err != nil {
		return nil, err
	}
	if err := s.plans.Update(ctx, plan); err != nil {
		return nil, err
	}
	return plan, nil
}

func (s *PlanService) Delete(ctx context.Context, id string) error {
	return s.plans.Delete(ctx, id)
}

func (s *PlanService) List(ctx context.Context) ([]db.PaymentPlan, error) {
	return s.plans.List(ctx)
}

// validatePlanPricing enforces the plan price rule: price is never negative
// and must be positive unless the plan is FREE.
func validatePlanPricing(planType entities.PlanType, priceCents int64, durationDays int) error {
	if !entities.ValidPlanType(string(planType)) {
		return errors.InvalidInput("invalid plan type")
	}
	if priceCents < 0 {
		return errors.InvalidInput("price cannot be negative")
	}
	if planType != entities.PlanFree && priceCents <= 0 {
		return errors.InvalidInput("price must be greater than 0 for non-free plans")
	}
	if durationDays < 0 {
		return errors.InvalidInput("duration cannot be negative")
	}
	return nil
}
