package service

import (
	"context"
	"encoding/json"
	"log"
	"strings"

	"github.com/google/uuid"

	"parkreserve/internal/auth"
	"parkreserve/internal/db"
	"parkreserve/internal/entities"
	"parkreserve/internal/errors"
)

type VehicleStore interface {
	Create(ctx context.Context, v *db.Vehicle) error
	GetByID(ctx context.Context, id string) (*db.Vehicle, error)
	GetByPlate(ctx context.Context, plate string) (*db.Vehicle, error)
	Update(ctx context.Context, v *db.Vehicle) error
	Delete(ctx context.Context, id string) error
	List(ctx context.Context, filter entities.VehicleFilter, page entities.Page) ([]db.Vehicle, int, error)
}

type VehicleService struct {
	vehicles VehicleStore
	auditor  Auditor
}

func NewVehicleService(vehicles VehicleStore, auditor Auditor) *VehicleService {
	return &VehicleService{vehicles: vehicles, auditor: auditor}
}

type CreateVehicleInput struct {
	PlateNumber string
	Type        entities.VehicleType
	Size        entities.SlotSize
	Attributes  json.RawMessage
}

type VehiclePatch struct {
	PlateNumber *string
	Type        *entities.VehicleType
	Size        *entities.SlotSize
	Attributes  json.RawMessage
}

func (s *VehicleService) Create(ctx context.Context, actor auth.Actor, in CreateVehicleInput) (*db.Vehicle, error) {
	plate := normalizePlate(in.PlateNumber)
	if plate == "" {
		return nil, errors.InvalidInput("plate_number is required")
	}
	if !entities.ValidVehicleType(string(in.Type)) {
		return nil, errors.InvalidInput("invalid vehicle type")
	}
	if !entities.ValidSlotSize(string(in.Size)) {
		return nil, errors.InvalidInput("invalid vehicle size")
	}

	vehicle := &db.Vehicle{
		ID:          uuid.New().String(),
		UserID:      actor.UserID,
		PlateNumber: plate,
		Type:        in.Type,
		Size:        in.Size,
		Attributes:  in.Attributes,
	}
	if err := s.vehicles.Create(ctx, vehicle); err != nil {
		return nil, err
	}
	s.audit(ctx, actor.UserID, "CREATE_VEHICLE", map[string]any{"vehicle_id": vehicle.ID, "plate_number": plate})
	return vehicle, nil
}

func (s *VehicleService) Get(ctx context.Context, actor auth.Actor, id string) (*db.Vehicle, error) {
	vehicle, err := s.vehicles.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if vehicle.UserID != actor.UserID && !actor.IsAdmin() {
		return nil, errors.Forbidden("not authorized to access this vehicle")
	}
	return vehicle, nil
}

func (s *VehicleService) GetByPlate(ctx context.Context, actor auth.Actor, plate string) (*db.Vehicle, error) {
	vehicle, err := s.vehicles.GetByPlate(ctx, normalizePlate(plate))
	if err != nil {
		return nil, err
	}
	if vehicle.UserID != actor.UserID && !actor.IsAdmin() {
		return nil, errors.Forbidden("not authorized to access this vehicle")
	}
	return vehicle, nil
}

func (s *VehicleService) Update(ctx context.Context, actor auth.Actor, id string, patch VehiclePatch) (*db.Vehicle, error) {
	vehicle, err := s.vehicles.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if vehicle.UserID != actor.UserID {
		return nil, errors.Forbidden("not authorized to update this vehicle")
	}
	if patch.PlateNumber != nil {
		plate := normalizePlate(*patch.PlateNumber)
		if plate == "" {
			return nil, errors.InvalidInput("plate_number cannot be empty")
		}
		vehicle.PlateNumber = plate
	}
	if patch.Type != nil {
		if !entities.ValidVehicleType(string(*patch.Type)) {
			return nil, errors.InvalidInput("invalid vehicle type")
		}
		vehicle.Type = *patch.Type
	}
	if patch.Size != nil {
		if !entities.ValidSlotSize(string(*patch.Size)) {
			return nil, errors.InvalidInput("invalid vehicle size")
		}
		vehicle.Size = *patch.Size
	}
	if patch.Attributes != nil {
		vehicle.Attributes = patch.Attributes
	}
	if err := s.vehicles.Update(ctx, vehicle); err != nil {
		return nil, err
	}
	s.audit(ctx, actor.UserID, "UPDATE_VEHICLE", map[string]any{"vehicle_id": vehicle.ID})
	return vehicle, nil
}

func (s *VehicleService) Delete(ctx context.Context, actor auth.Actor, id string) error {
	vehicle, err := s.vehicles.GetByID(ctx, id)
	if err != nil {
		return err
	}
	if vehicle.UserID != actor.UserID {
		return errors.Forbidden("not authorized to delete this vehicle")
	}
	if err := s.vehicles.Delete(ctx, id); err != nil {
		return err
	}
	s.audit(ctx, actor.UserID, "DELETE_VEHICLE", map[string]any{"vehicle_id": id, "plate_number": vehicle.PlateNumber})
	return nil
}

func (s *VehicleService) List(ctx context.Context, actor auth.Actor, filter entities.VehicleFilter, page entities.Page) ([]db.Vehicle, int, error) {
	filter.UserID = actor.UserID
	return s.vehicles.List(ctx, filter, page)
}

func (s *VehicleService) audit(ctx context.Context, userID, action string, details map[string]any) {
	if err := s.auditor.Record(ctx, userID, action, details); err != nil {
		log.Printf("audit %s failed: %v", action, err)
	}
}

func normalizePlate(plate string) string {
	return strings.ToUpper(strings.TrimSpace(plate))
}
