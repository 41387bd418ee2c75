package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"parkreserve/internal/db"
	"parkreserve/internal/entities"
	"parkreserve/internal/errors"
)

type stubPlanStore struct {
	plans map[string]*db.PaymentPlan
}

func newStubPlanStore() *stubPlanStore {
	return &stubPlanStore{plans: map[string]*db.PaymentPlan{}}
}

func (s *stubPlanStore) Create(ctx context.Context, p *db.PaymentPlan) error {
	s.plans[p.ID] = p
	return nil
}

func (s *stubPlanStore) GetByID(ctx context.Context, id string) (*db.PaymentPlan, error) {
	p, ok := s.plans[id]
	if !ok {
		return nil, errors.NotFound("payment plan not found")
	}
	copied := *p
	return &copied, nil
}

func (s *stubPlanStore) Update(ctx context.Context, p *db.PaymentPlan) error {
	s.plans[p.ID] = p
	return nil
}

func (s *stubPlanStore) Delete(ctx context.Context, id string) error {
	delete(s.plans, id)
	return nil
}

func (s *stubPlanStore) List(ctx context.Context) ([]db.PaymentPlan, error) {
	var out []db.PaymentPlan
	for _, p := range s.plans {
		out = append(out, *p)
	}
	return out, nil
}

func TestPlanCreate(t *testing.T) {
	svc := NewPlanService(newStubPlanStore())

	plan, err := svc.Create(context.Background(), CreatePlanInput{
		Name:         "Monthly",
		Type:         entities.PlanMonthly,
		PriceCents:   9900,
		DurationDays: 30,
	})

	require.NoError(t, err)
	assert.NotEmpty(t, plan.ID)
	assert.Equal(t, int64(9900), plan.PriceCents)
}

func TestPlanCreateFreeWithZeroPrice(t *testing.T) {
	svc := NewPlanService(newStubPlanStore())

	plan, err := svc.Create(context.Background(), CreatePlanInput{
		Name: "Free hour",
		Type: entities.PlanFree,
	})

	require.NoError(t, err)
	assert.Equal(t, int64(0), plan.PriceCents)
}

func TestPlanCreateNonFreeZeroPrice(t *testing.T) {
	svc := NewPlanService(newStubPlanStore())

	_, err := svc.Create(context.Background(), CreatePlanInput{
		Name: "Monthly",
		Type: entities.PlanMonthly,
	})

	require.Error(t, err)
	assert.Equal(t, errors.KindInvalidInput, errors.KindOf(err))
}

func TestPlanCreateNegativePrice(t *testing.T) {
	svc := NewPlanService(newStubPlanStore())

	_, err := svc.Create(context.Background(), CreatePlanInput{
		Name:       "Broken",
		Type:       entities.PlanFree,
		PriceCents: -1,
	})

	require.Error(t, err)
	assert.Equal(t, errors.KindInvalidInput, errors.KindOf(err))
}

func TestPlanUpdateRevalidatesPricing(t *testing.T) {
	store := newStubPlanStore()
	store.plans["p1"] = &db.PaymentPlan{ID: "p1", Name: "Monthly", Type: entities.PlanMonthly, PriceCents: 9900}
	svc := NewPlanService(store)

	zero := int64(0)
	_, err := svc.Update(context.Background(), "p1", PlanPatch{PriceCents: &zero})

	require.Error(t, err)
	assert.Equal(t, errors.KindInvalidInput, errors.KindOf(err))
	assert.Equal(t, int64(9900), store.plans["p1"].PriceCents, "failed update must not persist")
}

func TestPlanUpdatePatch(t *testing.T) {
	store := newStubPlanStore()
	store.plans["p1"] = &db.PaymentPlan{ID: "p1", Name: "Monthly", Type: entities.PlanMonthly, PriceCents: 9900}
	svc := NewPlanService(store)

	name := "Monthly Plus"
	price := int64(12900)
	plan, err := svc.Update(context.Background(), "p1", PlanPatch{Name: &name, PriceCents: &price})

	require.NoError(t, err)
	assert.Equal(t, "Monthly Plus", plan.Name)
	assert.Equal(t, int64(12900), plan.PriceCents)
}
