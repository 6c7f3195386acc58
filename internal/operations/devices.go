package operations

import (
	"context"
	"errors"
	"strings"

	"github.com/Thomas-Okram/TapTell/internal/crypto"
	"github.com/Thomas-Okram/TapTell/internal/model"
	"github.com/Thomas-Okram/TapTell/internal/repository"
)

func (s *Service) ListDevices(ctx context.Context, schoolID string) ([]model.Device, error) {
	devices, err := s.store.ListDevices(ctx, schoolID)
	if err != nil {
		return nil, internalError(err)
	}
	return devices, nil
}

func (s *Service) CreateDevice(ctx context.Context, schoolID, name string, location *string) (model.Device, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return model.Device{}, validationError("name is required")
	}
	location = trimmed(location)
	if location != nil && *location == "" {
		location = nil
	}
	key, err := crypto.NewDeviceKey()
	if err != nil {
		return model.Device{}, internalError(err)
	}
	device, err := s.store.CreateDevice(ctx, model.Device{
		SchoolID: schoolID,
		Name:     name,
		Key:      key,
		Location: location,
		Active:   true,
	})
	if err != nil {
		return model.Device{}, internalError(err)
	}
	return device, nil
}

func (s *Service) UpdateDevice(ctx context.Context, schoolID, id string, patch repository.DevicePatch) (model.Device, error) {
	if !validID(id) {
		return model.Device{}, validationError("Invalid device id")
	}
	patch.Name = trimmed(patch.Name)
	patch.Location = trimmed(patch.Location)
	if patch.Name != nil && *patch.Name == "" {
		return model.Device{}, validationError("name cannot be blank")
	}
	device, err := s.store.UpdateDevice(ctx, schoolID, id, patch)
	return deviceResult(device, err)
}

// RotateDeviceKey replaces the key. The old key stops working immediately.
func (s *Service) RotateDeviceKey(ctx context.Context, schoolID, id string) (model.Device, error) {
	if !validID(id) {
		return model.Device{}, validationError("Invalid device id")
	}
	key, err := crypto.NewDeviceKey()
	if err != nil {
		return model.Device{}, internalError(err)
	}
	device, err := s.store.RotateDeviceKey(ctx, schoolID, id, key)
	return deviceResult(device, err)
}

func (s *Service) DeactivateDevice(ctx context.Context, schoolID, id string) error {
	inactive := false
	_, err := s.UpdateDevice(ctx, schoolID, id, repository.DevicePatch{Active: &inactive})
	return err
}

func deviceResult(device model.Device, err error) (model.Device, error) {
	if errors.Is(err, repository.ErrNotFound) {
		return model.Device{}, notFoundError("Device not found")
	}
	if err != nil {
		return model.Device{}, internalError(err)
	}
	return device, nil
}
