package app

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	"plantpal/api/internal/media"
	"plantpal/api/internal/store"
)

// CreatePlant adds a plant to the caller's journal.
func (s *Service) CreatePlant(ctx context.Context, caller Session, plant store.Plant) (store.Plant, error) {
	plant.PlantName = strings.TrimSpace(plant.PlantName)
	if plant.PlantName == "" {
		return store.Plant{}, domainError(http.StatusBadRequest, "INVALID_ARGUMENT", "plantName is required", nil)
	}

	stored, err := s.media.StoreImage(ctx, plant.Image)
	if err != nil {
		if errors.Is(err, media.ErrTooLarge) {
			return store.Plant{}, domainError(http.StatusBadRequest, "IMAGE_TOO_LARGE", "Image exceeds the size limit", nil)
		}
		return store.Plant{}, err
	}

	plant.Image = stored
	plant.UserEmail = caller.Email
	if plant.DateAdded.IsZero() {
		plant.DateAdded = time.Now()
	}
	return s.store.InsertPlant(ctx, plant)
}

func (s *Service) ListPlants(ctx context.Context, caller Session) ([]store.Plant, error) {
	plants, err := s.store.PlantsFor(ctx, caller.Email)
	if err != nil {
		return nil, err
	}
	if plants == nil {
		plants = []store.Plant{}
	}
	return plants, nil
}

// ownedPlant fetches a plant and enforces that the caller owns it. Someone
// else's plant looks absent to the caller.
func (s *Service) ownedPlant(ctx context.Context, caller Session, id string) (store.Plant, error) {
	plant, err := s.store.GetPlant(ctx, id)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return store.Plant{}, domainError(http.StatusNotFound, "NOT_FOUND", "Plant not found", nil)
		}
		return store.Plant{}, err
	}
	if plant.UserEmail != caller.Email {
		return store.Plant{}, domainError(http.StatusNotFound, "NOT_FOUND", "Plant not found", nil)
	}
	return plant, nil
}

func (s *Service) GetPlant(ctx context.Context, caller Session, id string) (store.Plant, error) {
	return s.ownedPlant(ctx, caller, id)
}

// UpdatePlant replaces the editable fields of an owned plant.
func (s *Service) UpdatePlant(ctx context.Context, caller Session, id string, update store.Plant) (store.Plant, error) {
	plant, err := s.ownedPlant(ctx, caller, id)
	if err != nil {
		return store.Plant{}, err
	}

	if name := strings.TrimSpace(update.PlantName); name != "" {
		plant.PlantName = name
	}
	if update.PlantType != "" {
		plant.PlantType = update.PlantType
	}
	if update.Notes != "" {
		plant.Notes = update.Notes
	}
	if update.Image != "" && update.Image != plant.Image {
		stored, err := s.media.StoreImage(ctx, update.Image)
		if err != nil {
			if errors.Is(err, media.ErrTooLarge) {
				return store.Plant{}, domainError(http.StatusBadRequest, "IMAGE_TOO_LARGE", "Image exceeds the size limit", nil)
			}
			return store.Plant{}, err
		}
		plant.Image = stored
	}

	if err := s.store.UpdatePlant(ctx, plant); err != nil {
		return store.Plant{}, err
	}
	return plant, nil
}

func (s *Service) DeletePlant(ctx context.Context, caller Session, id string) error {
	plant, err := s.ownedPlant(ctx, caller, id)
	if err != nil {
		return err
	}
	if err := s.store.DeletePlant(ctx, id, caller.Email); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return domainError(http.StatusNotFound, "NOT_FOUND", "Plant not found", nil)
		}
		return err
	}
	s.media.RemoveImage(ctx, plant.Image)
	return nil
}

// AddPlantEntry appends a daily tracking entry to an owned plant.
func (s *Service) AddPlantEntry(ctx context.Context, caller Session, id string, entry store.DailyEntry) (store.Plant, error) {
	plant, err := s.ownedPlant(ctx, caller, id)
	if err != nil {
		return store.Plant{}, err
	}

	if entry.Date.IsZero() {
		entry.Date = time.Now()
	}
	plant.DailyEntries = append(plant.DailyEntries, entry)

	now := entry.Date
	if entry.Watered {
		plant.CareSchedule.LastWatered = &now
	}
	if entry.Fertilized {
		plant.CareSchedule.LastFertilized = &now
	}

	if err := s.store.UpdatePlant(ctx, plant); err != nil {
		return store.Plant{}, err
	}
	return plant, nil
}

// UpdatePlantSchedule replaces an owned plant's care schedule.
func (s *Service) UpdatePlantSchedule(ctx context.Context, caller Session, id string, schedule store.CareSchedule) (store.Plant, error) {
	if schedule.WateringFrequency < 0 || schedule.FertilizingFrequency < 0 {
		return store.Plant{}, domainError(http.StatusBadRequest, "INVALID_ARGUMENT", "frequencies must not be negative", nil)
	}

	plant, err := s.ownedPlant(ctx, caller, id)
	if err != nil {
		return store.Plant{}, err
	}

	plant.CareSchedule = schedule
	if err := s.store.UpdatePlant(ctx, plant); err != nil {
		return store.Plant{}, err
	}
	return plant, nil
}
