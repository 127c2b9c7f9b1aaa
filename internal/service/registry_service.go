package service

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"alpr-service/internal/domain/alpr"
	"alpr-service/internal/domain/plate"
	"alpr-service/internal/repository"
	"alpr-service/internal/spreadsheet"
	"alpr-service/internal/utils"
)

// VehicleStore is the registry backend: memory, sqlite or postgres.
type VehicleStore interface {
	VehicleLookup
	List(ctx context.Context) ([]alpr.VehicleRecord, error)
	FindByOwner(ctx context.Context, owner string) ([]alpr.VehicleRecord, error)
	FindByJurisdiction(ctx context.Context, code string) ([]alpr.VehicleRecord, error)
	Add(ctx context.Context, rec alpr.VehicleRecord) error
	Delete(ctx context.Context, plateNumber string) (bool, error)
}

type RegistryService struct {
	vehicles VehicleStore
	log      zerolog.Logger
}

func NewRegistryService(vehicles VehicleStore, log zerolog.Logger) *RegistryService {
	return &RegistryService{vehicles: vehicles, log: log}
}

type ListVehiclesFilter struct {
	Owner        string
	Jurisdiction string
}

func (s *RegistryService) List(ctx context.Context, filter ListVehiclesFilter) ([]alpr.VehicleRecord, error) {
	var (
		records []alpr.VehicleRecord
		err     error
	)
	switch {
	case strings.TrimSpace(filter.Owner) != "":
		records, err = s.vehicles.FindByOwner(ctx, filter.Owner)
	case strings.TrimSpace(filter.Jurisdiction) != "":
		records, err = s.vehicles.FindByJurisdiction(ctx, filter.Jurisdiction)
	default:
		records, err = s.vehicles.List(ctx)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to list vehicles: %w", err)
	}

	// owner and jurisdiction together narrow the owner match further
	if filter.Owner != "" && filter.Jurisdiction != "" {
		prefix := utils.PlateKey(filter.Jurisdiction)
		kept := records[:0]
		for _, rec := range records {
			if strings.HasPrefix(rec.Plate, prefix) {
				kept = append(kept, rec)
			}
		}
		records = kept
	}
	return records, nil
}

func (s *RegistryService) Get(ctx context.Context, plateNumber string) (*alpr.VehicleRecord, error) {
	rec, err := s.vehicles.Lookup(ctx, plateNumber)
	if err != nil {
		return nil, fmt.Errorf("failed to look up vehicle: %w", err)
	}
	if rec == nil {
		return nil, ErrNotFound
	}
	return rec, nil
}

// Add registers a vehicle. The plate must classify as-is; registry entries
// are never OCR corrected. Class and a missing jurisdiction are filled in from
// the classifier.
func (s *RegistryService) Add(ctx context.Context, rec alpr.VehicleRecord) (*alpr.VehicleRecord, error) {
	normalized := utils.NormalizePlate(rec.Plate)
	res := plate.Classify(normalized)
	if !res.Valid {
		return nil, fmt.Errorf("%w: %s", ErrInvalidInput, res.Message)
	}
	if strings.TrimSpace(rec.OwnerName) == "" {
		return nil, fmt.Errorf("%w: owner_name is required", ErrInvalidInput)
	}
	if rec.Year != 0 && (rec.Year < 1900 || rec.Year > time.Now().Year()+1) {
		return nil, fmt.Errorf("%w: year %d out of range", ErrInvalidInput, rec.Year)
	}

	rec.Plate = res.Compact()
	rec.OwnerName = strings.TrimSpace(rec.OwnerName)
	rec.PlateClass = res.Class
	if strings.TrimSpace(rec.Jurisdiction) == "" {
		rec.Jurisdiction = res.JurisdictionName
	}

	if err := s.vehicles.Add(ctx, rec); err != nil {
		if errors.Is(err, repository.ErrDuplicate) {
			return nil, fmt.Errorf("%w: vehicle %s already registered", ErrConflict, res.Plate)
		}
		return nil, fmt.Errorf("failed to add vehicle: %w", err)
	}

	s.log.Info().
		Str("plate", res.Plate).
		Str("plate_class", string(rec.PlateClass)).
		Str("owner", rec.OwnerName).
		Msg("vehicle registered")
	return &rec, nil
}

func (s *RegistryService) Delete(ctx context.Context, plateNumber string) error {
	deleted, err := s.vehicles.Delete(ctx, plateNumber)
	if err != nil {
		return fmt.Errorf("failed to delete vehicle: %w", err)
	}
	if !deleted {
		return ErrNotFound
	}
	s.log.Info().Str("plate", utils.PlateKey(plateNumber)).Msg("vehicle removed from registry")
	return nil
}

// Export writes the whole registry as an xlsx workbook.
func (s *RegistryService) Export(ctx context.Context, w io.Writer) error {
	records, err := s.vehicles.List(ctx)
	if err != nil {
		return fmt.Errorf("failed to list vehicles: %w", err)
	}
	return spreadsheet.WriteVehicles(w, records)
}

// ImportResult summarizes a workbook import.
type ImportResult struct {
	Added    int      `json:"added"`
	Skipped  int      `json:"skipped"`
	Failures []string `json:"failures,omitempty"`
}

// Import adds every row of an xlsx workbook. Rows already registered are
// skipped; invalid rows are reported and do not stop the import.
func (s *RegistryService) Import(ctx context.Context, r io.Reader) (ImportResult, error) {
	var out ImportResult

	records, badRows, err := spreadsheet.ReadVehicles(r)
	if err != nil {
		return out, fmt.Errorf("%w: %v", ErrInvalidInput, err)
	}
	for _, row := range badRows {
		out.Failures = append(out.Failures, row.Error())
	}

	for _, rec := range records {
		_, err := s.Add(ctx, rec)
		switch {
		case err == nil:
			out.Added++
		case errors.Is(err, ErrConflict):
			out.Skipped++
		case errors.Is(err, ErrInvalidInput):
			out.Failures = append(out.Failures, fmt.Sprintf("%s: %v", rec.Plate, err))
		default:
			return out, err
		}
	}

	s.log.Info().
		Int("added", out.Added).
		Int("skipped", out.Skipped).
		Int("failed", len(out.Failures)).
		Msg("imported vehicles from workbook")
	return out, nil
}
