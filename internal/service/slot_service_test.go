package service

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"parkreserve/internal/db"
	"parkreserve/internal/entities"
	"parkreserve/internal/errors"
)

type stubSlotStore struct {
	slots     map[string]*db.ParkingSlot
	available []db.ParkingSlot
	deleteErr error
	deleted   []string

	lastWindow entities.TimeWindow
	lastFilter entities.AvailabilityFilter
}

func newStubSlotStore() *stubSlotStore {
	return &stubSlotStore{slots: map[string]*db.ParkingSlot{}}
}

func (s *stubSlotStore) Create(ctx context.Context, slot *db.ParkingSlot) error {
	s.slots[slot.ID] = slot
	return nil
}

func (s *stubSlotStore) GetByID(ctx context.Context, id string) (*db.ParkingSlot, error) {
	slot, ok := s.slots[id]
	if !ok {
		return nil, errors.NotFound("parking slot not found")
	}
	copied := *slot
	return &copied, nil
}

func (s *stubSlotStore) Update(ctx context.Context, slot *db.ParkingSlot) error {
	s.slots[slot.ID] = slot
	return nil
}

func (s *stubSlotStore) Delete(ctx context.Context, id string) error {
	if s.deleteErr != nil {
		return s.deleteErr
	}
	s.deleted = append(s.deleted, id)
	delete(s.slots, id)
	return nil
}

func (s *stubSlotStore) List(ctx context.Context, filter entities.SlotFilter, page entities.Page) ([]db.ParkingSlot, int, error) {
	var out []db.ParkingSlot
	for _, slot := range s.slots {
		out = append(out, *slot)
	}
	return out, len(out), nil
}

func (s *stubSlotStore) FindAvailable(ctx context.Context, window entities.TimeWindow, filter entities.AvailabilityFilter) ([]db.ParkingSlot, error) {
	s.lastWindow = window
	s.lastFilter = filter
	return s.available, nil
}

func TestSlotCreateDefaults(t *testing.T) {
	store := newStubSlotStore()
	svc := NewSlotService(store, &stubAuditor{})

	slot, err := svc.Create(context.Background(), adminActor, CreateSlotInput{SlotNumber: "A-01"})

	require.NoError(t, err)
	assert.Equal(t, entities.SlotTypeRegular, slot.Type)
	assert.Equal(t, entities.SizeMedium, slot.Size)
	assert.Equal(t, entities.VehicleCar, slot.VehicleType)
	assert.True(t, slot.IsAvailable)
	assert.NotEmpty(t, slot.ID)
}

func TestSlotCreateRequiresNumber(t *testing.T) {
	svc := NewSlotService(newStubSlotStore(), &stubAuditor{})

	_, err := svc.Create(context.Background(), adminActor, CreateSlotInput{SlotNumber: "  "})

	require.Error(t, err)
	assert.Equal(t, errors.KindInvalidInput, errors.KindOf(err))
}

func TestSlotCreateRejectsBadEnum(t *testing.T) {
	svc := NewSlotService(newStubSlotStore(), &stubAuditor{})

	_, err := svc.Create(context.Background(), adminActor, CreateSlotInput{
		SlotNumber: "A-01",
		Type:       entities.SlotType("PREMIUM"),
	})

	require.Error(t, err)
	assert.Equal(t, errors.KindInvalidInput, errors.KindOf(err))
}

func TestSlotUpdatePatch(t *testing.T) {
	store := newStubSlotStore()
	store.slots["s1"] = &db.ParkingSlot{
		ID:          "s1",
		SlotNumber:  "A-01",
		Type:        entities.SlotTypeRegular,
		Size:        entities.SizeMedium,
		VehicleType: entities.VehicleCar,
		IsAvailable: true,
	}
	svc := NewSlotService(store, &stubAuditor{})

	unavailable := false
	vip := entities.SlotTypeVIP
	slot, err := svc.Update(context.Background(), adminActor, "s1", SlotPatch{
		Type:        &vip,
		IsAvailable: &unavailable,
	})

	require.NoError(t, err)
	assert.Equal(t, entities.SlotTypeVIP, slot.Type)
	assert.False(t, slot.IsAvailable)
	assert.Equal(t, "A-01", slot.SlotNumber, "untouched fields keep their values")
}

func TestSlotDeleteBlockedByActiveBookings(t *testing.T) {
	store := newStubSlotStore()
	store.deleteErr = errors.Conflict("slot has active bookings")
	svc := NewSlotService(store, &stubAuditor{})

	err := svc.Delete(context.Background(), adminActor, "s1")

	require.Error(t, err)
	assert.Equal(t, errors.KindConflict, errors.KindOf(err))
}

func TestSlotFindAvailable(t *testing.T) {
	store := newStubSlotStore()
	store.available = []db.ParkingSlot{{ID: "s1", SlotNumber: "A-01"}}
	svc := NewSlotService(store, &stubAuditor{})

	start := time.Now().UTC().Add(time.Hour)
	window := entities.TimeWindow{Start: start, End: start.Add(2 * time.Hour)}
	slots, err := svc.FindAvailable(context.Background(), window, entities.AvailabilityFilter{})

	require.NoError(t, err)
	require.Len(t, slots, 1)
	assert.Equal(t, window, store.lastWindow)
}

func TestSlotFindAvailablePastWindowAllowed(t *testing.T) {
	store := newStubSlotStore()
	svc := NewSlotService(store, &stubAuditor{})

	start := time.Now().UTC().Add(-4 * time.Hour)
	_, err := svc.FindAvailable(context.Background(), entities.TimeWindow{Start: start, End: start.Add(time.Hour)}, entities.AvailabilityFilter{})

	require.NoError(t, err)
}

func TestSlotFindAvailableInvertedWindow(t *testing.T) {
	svc := NewSlotService(newStubSlotStore(), &stubAuditor{})

	start := time.Now().UTC()
	_, err := svc.FindAvailable(context.Background(), entities.TimeWindow{Start: start, End: start}, entities.AvailabilityFilter{})

	require.Error(t, err)
	assert.Equal(t, errors.KindInvalidInput, errors.KindOf(err))
}
