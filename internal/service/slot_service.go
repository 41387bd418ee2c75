package service

import (
	"context"
	"log"
	"strings"
	"time"

	"github.com/google/uuid"

	"parkreserve/internal/auth"
	"parkreserve/internal/db"
	"parkreserve/internal/entities"
	"parkreserve/internal/errors"
)

type SlotStore interface {
	Create(ctx context.Context, s *db.ParkingSlot) error
	GetByID(ctx context.Context, id string) (*db.ParkingSlot, error)
	Update(ctx context.Context, s *db.ParkingSlot) error
	Delete(ctx context.Context, id string) error
	List(ctx context.Context, filter entities.SlotFilter, page entities.Page) ([]db.ParkingSlot, int, error)
	FindAvailable(ctx context.Context, window entities.TimeWindow, filter entities.AvailabilityFilter) ([]db.ParkingSlot, error)
}

// SlotService covers the slot inventory and the availability resolver.
type SlotService struct {
	slots   SlotStore
	auditor Auditor
}

func NewSlotService(slots SlotStore, auditor Auditor) *SlotService {
	return &SlotService{slots: slots, auditor: auditor}
}

type CreateSlotInput struct {
	SlotNumber  string
	Type        entities.SlotType
	Size        entities.SlotSize
	VehicleType entities.VehicleType
	IsAvailable *bool
	Location    string
}

type SlotPatch struct {
	SlotNumber  *string
	Type        *entities.SlotType
	Size        *entities.SlotSize
	VehicleType *entities.VehicleType
	IsAvailable *bool
	Location    *string
}

func (s *SlotService) Create(ctx context.Context, actor auth.Actor, in CreateSlotInput) (*db.ParkingSlot, error) {
	if strings.TrimSpace(in.SlotNumber) == "" {
		return nil, errors.InvalidInput("slot_number is required")
	}
	if in.Type == "" {
		in.Type = entities.SlotTypeRegular
	}
	if in.Size == "" {
		in.Size = entities.SizeMedium
	}
	if in.VehicleType == "" {
		in.VehicleType = entities.VehicleCar
	}
	if err := validateSlotEnums(string(in.Type), string(in.Size), string(in.VehicleType)); err != nil {
		return nil, err
	}

	slot := &db.ParkingSlot{
		ID:          uuid.New().String(),
		SlotNumber:  in.SlotNumber,
		Type:        in.Type,
		Size:        in.Size,
		VehicleType: in.VehicleType,
		IsAvailable: true,
		Location:    in.Location,
	}
	if in.IsAvailable != nil {
		slot.IsAvailable = *in.IsAvailable
	}
	if err := s.slots.Create(ctx, slot); err != nil {
		return nil, err
	}
	s.audit(ctx, actor.UserID, "CREATE_SLOT", map[string]any{"slot_id": slot.ID, "slot_number": slot.SlotNumber})
	return slot, nil
}

func (s *SlotService) Get(ctx context.Context, id string) (*db.ParkingSlot, error) {
	return s.slots.GetByID(ctx, id)
}

func (s *SlotService) Update(ctx context.Context, actor auth.Actor, id string, patch SlotPatch) (*db.ParkingSlot, error) {
	slot, err := s.slots.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if patch.SlotNumber != nil {
		if strings.TrimSpace(*patch.SlotNumber) == "" {
			return nil, errors.InvalidInput("slot_number cannot be empty")
		}
		slot.SlotNumber = *patch.SlotNumber
	}
	if patch.Type != nil {
		slot.Type = *patch.Type
	}
	if patch.Size != nil {
		slot.Size = *patch.Size
	}
	if patch.VehicleType != nil {
		slot.VehicleType = *patch.VehicleType
	}
	if patch.IsAvailable != nil {
		slot.IsAvailable = *patch.IsAvailable
	}
	if patch.Location != nil {
		slot.Location = *patch.Location
	}
	if err := validateSlotEnums(string(slot.Type), string(slot.Size), string(slot.VehicleType)); err != nil {
		return nil, err
	}
	if err := s.slots.Update(ctx, slot); err != nil {
		return nil, err
	}
	s.audit(ctx, actor.UserID, "UPDATE_SLOT", map[string]any{"slot_id": slot.ID})
	return slot, nil
}

func (s *SlotService) Delete(ctx context.Context, actor auth.Actor, id string) error {
	if err := s.slots.Delete(ctx, id); err != nil {
		return err
	}
	s.audit(ctx, actor.UserID, "DELETE_SLOT", map[string]any{"slot_id": id})
	return nil
}

func (s *SlotService) List(ctx context.Context, filter entities.SlotFilter, page entities.Page) ([]db.ParkingSlot, int, error) {
	return s.slots.List(ctx, filter, page)
}

// FindAvailable is the availability resolver: slots that are administratively
// available and have no active booking overlapping the window. Read-only.
func (s *SlotService) FindAvailable(ctx context.Context, window entities.TimeWindow, filter entities.AvailabilityFilter) ([]db.ParkingSlot, error) {
	if err := window.Validate(time.Now().UTC(), false); err != nil {
		return nil, err
	}
	return s.slots.FindAvailable(ctx, window, filter)
}

func (s *SlotService) audit(ctx context.Context, userID, action string, details map[string]any) {
	if err := s.auditor.Record(ctx, userID, action, details); err != nil {
		log.Printf("audit %s failed: %v", action, err)
	}
}

func validateSlotEnums(slotType, size, vehicleType string) error {
	if !entities.ValidSlotType(slotType) {
		return errors.InvalidInput("invalid slot type")
	}
	if !entities.ValidSlotSize(size) {
		return errors.InvalidInput("invalid slot size")
	}
	if !entities.ValidVehicleType(vehicleType) {
		return errors.InvalidInput("invalid vehicle type")
	}
	return nil
}
