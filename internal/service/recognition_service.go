package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"alpr-service/internal/domain/alpr"
	"alpr-service/internal/domain/plate"
	"alpr-service/internal/repository"
	"alpr-service/internal/utils"
)

var (
	ErrInvalidInput = errors.New("invalid input")
	ErrNotFound     = errors.New("not found")
	ErrConflict     = errors.New("conflict")
	ErrUnavailable  = errors.New("not available")
)

// VehicleLookup resolves a canonical or compact plate to a registry record.
// A nil record with a nil error means the plate is not registered.
type VehicleLookup interface {
	Lookup(ctx context.Context, plateNumber string) (*alpr.VehicleRecord, error)
}

type EventStore interface {
	CreateEvent(ctx context.Context, event *alpr.Event) error
	FindEvents(ctx context.Context, plateNumber *string, from, to *time.Time, limit, offset int) ([]repository.RecognitionEvent, error)
	DeleteOldEvents(ctx context.Context, days int) (int64, error)
}

type RecognitionService struct {
	vehicles VehicleLookup
	events   EventStore
	log      zerolog.Logger
}

// NewRecognitionService wires the pipeline. events may be nil, in which case
// recognition events are not recorded.
func NewRecognitionService(vehicles VehicleLookup, events EventStore, log zerolog.Logger) *RecognitionService {
	return &RecognitionService{
		vehicles: vehicles,
		events:   events,
		log:      log,
	}
}

// Recognize runs normalize, correct and classify on one OCR reading and, for
// a valid plate, looks it up in the registry. Format and registration
// outcomes are reported in the result; the error is reserved for lookup
// failures.
func (s *RecognitionService) Recognize(ctx context.Context, raw string) (alpr.RecognitionResult, error) {
	normalized := utils.NormalizePlate(raw)
	corrected := plate.Correct(normalized)
	validation := plate.ClassifyCorrected(normalized, corrected)

	result := alpr.RecognitionResult{
		RawText:    raw,
		Normalized: normalized,
		Corrected:  corrected,
		Validation: validation,
		Status:     alpr.StatusNotApplicable,
	}

	if !validation.Valid {
		s.log.Debug().
			Str("raw", raw).
			Str("normalized", normalized).
			Str("reason", validation.Message).
			Msg("plate text rejected")
		return result, nil
	}

	vehicle, err := s.lookup(ctx, validation)
	if err != nil {
		s.log.Error().
			Err(err).
			Str("plate", validation.Plate).
			Msg("failed to look up vehicle")
		return result, fmt.Errorf("failed to look up vehicle: %w", err)
	}

	if vehicle == nil {
		result.Status = alpr.StatusNotRegistered
		s.log.Debug().
			Str("plate", validation.Plate).
			Str("plate_class", string(validation.Class)).
			Msg("plate not registered")
		return result, nil
	}

	result.Status = alpr.StatusRegistered
	result.Vehicle = vehicle
	s.log.Debug().
		Str("plate", validation.Plate).
		Str("owner", vehicle.OwnerName).
		Bool("corrected", validation.Corrected).
		Msg("plate resolved to vehicle")
	return result, nil
}

// lookup tries the canonical form first, then the compact form, since a
// registry may index either.
func (s *RecognitionService) lookup(ctx context.Context, validation plate.ValidationResult) (*alpr.VehicleRecord, error) {
	vehicle, err := s.vehicles.Lookup(ctx, validation.Plate)
	if err != nil || vehicle != nil {
		return vehicle, err
	}
	return s.vehicles.Lookup(ctx, validation.Compact())
}

// RecognizeBatch handles readings taken from consecutive video frames. Invalid
// readings are counted and dropped; only the first reading of each canonical
// plate is kept.
func (s *RecognitionService) RecognizeBatch(ctx context.Context, readings []string) (alpr.BatchResult, error) {
	batch := alpr.BatchResult{
		Frames:  len(readings),
		Results: []alpr.FrameResult{},
	}
	seen := make(map[string]bool, len(readings))

	for i, raw := range readings {
		res, err := s.Recognize(ctx, raw)
		if err != nil {
			return batch, err
		}
		if !res.Validation.Valid {
			batch.Rejected++
			continue
		}
		if seen[res.Validation.Plate] {
			continue
		}
		seen[res.Validation.Plate] = true
		batch.Results = append(batch.Results, alpr.FrameResult{Frame: i, RecognitionResult: res})
	}

	s.log.Info().
		Int("frames", batch.Frames).
		Int("rejected", batch.Rejected).
		Int("unique_plates", len(batch.Results)).
		Msg("processed frame batch")

	return batch, nil
}

// ProcessIncomingEvent recognizes the plate text of a camera event and records
// the event when an event store is configured.
func (s *RecognitionService) ProcessIncomingEvent(ctx context.Context, payload alpr.EventPayload, defaultCameraModel string) (*alpr.ProcessResult, error) {
	if strings.TrimSpace(payload.RawText) == "" {
		return nil, fmt.Errorf("%w: raw_text is required", ErrInvalidInput)
	}
	if payload.CameraID == "" {
		return nil, fmt.Errorf("%w: camera_id is required", ErrInvalidInput)
	}
	if payload.EventTime.IsZero() {
		return nil, fmt.Errorf("%w: event_time is required", ErrInvalidInput)
	}

	result, err := s.Recognize(ctx, payload.RawText)
	if err != nil {
		return nil, err
	}

	processed := &alpr.ProcessResult{Result: result}
	if s.events == nil {
		return processed, nil
	}

	if payload.CameraModel == "" {
		payload.CameraModel = defaultCameraModel
	}

	event := &alpr.Event{
		EventPayload:       payload,
		VehicleDescription: formatVehicleInfo(&payload.Vehicle.Brand, &payload.Vehicle.Model),
		Result:             result,
	}
	if err := s.events.CreateEvent(ctx, event); err != nil {
		s.log.Error().
			Err(err).
			Str("raw", payload.RawText).
			Str("camera_id", payload.CameraID).
			Msg("failed to create recognition event")
		return nil, fmt.Errorf("failed to create recognition event: %w", err)
	}

	s.log.Info().
		Str("event_id", event.ID.String()).
		Str("plate", result.Validation.Plate).
		Str("raw", payload.RawText).
		Str("camera_id", payload.CameraID).
		Str("status", string(result.Status)).
		Time("event_time", payload.EventTime).
		Msg("saved recognition event to database")

	id := event.ID
	processed.EventID = &id
	processed.Recorded = true
	return processed, nil
}

func (s *RecognitionService) FindEvents(ctx context.Context, plateQuery *string, from, to *string, limit, offset int) ([]EventInfo, error) {
	if s.events == nil {
		return nil, fmt.Errorf("%w: event log is disabled", ErrUnavailable)
	}

	var canonical *string
	if plateQuery != nil {
		normalized := utils.NormalizePlate(*plateQuery)
		if normalized != "" {
			res := plate.Classify(normalized)
			if !res.Valid {
				return nil, fmt.Errorf("%w: %s", ErrInvalidInput, res.Message)
			}
			canonical = &res.Plate
		}
	}

	var fromTime, toTime *time.Time
	if from != nil && *from != "" {
		t, err := time.Parse(time.RFC3339, *from)
		if err != nil {
			return nil, fmt.Errorf("%w: invalid from time format", ErrInvalidInput)
		}
		fromTime = &t
	}
	if to != nil && *to != "" {
		t, err := time.Parse(time.RFC3339, *to)
		if err != nil {
			return nil, fmt.Errorf("%w: invalid to time format", ErrInvalidInput)
		}
		toTime = &t
	}

	if limit <= 0 {
		limit = 50
	}
	if limit > 100 {
		limit = 100
	}
	if offset < 0 {
		offset = 0
	}

	events, err := s.events.FindEvents(ctx, canonical, fromTime, toTime, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("failed to find events: %w", err)
	}

	result := make([]EventInfo, 0, len(events))
	for _, e := range events {
		result = append(result, EventInfo{
			ID:                 e.ID.String(),
			CameraID:           e.CameraID,
			CameraModel:        e.CameraModel,
			Direction:          e.Direction,
			Lane:               e.Lane,
			RawText:            e.RawText,
			NormalizedText:     e.NormalizedText,
			CorrectedText:      e.CorrectedText,
			Valid:              e.Valid,
			Plate:              e.Plate,
			PlateClass:         e.PlateClass,
			JurisdictionCode:   e.JurisdictionCode,
			Confidence:         e.Confidence,
			OCRConfidence:      e.OCRConfidence,
			RegistrationStatus: e.RegistrationStatus,
			OwnerName:          e.OwnerName,
			VehicleColor:       e.VehicleColor,
			VehicleType:        e.VehicleType,
			VehicleDescription: e.VehicleDescription,
			VehicleSpeed:       e.VehicleSpeed,
			SnapshotURL:        e.SnapshotURL,
			EventTime:          e.EventTime,
		})
	}

	return result, nil
}

// CleanupOldEvents deletes recognition events older than days.
func (s *RecognitionService) CleanupOldEvents(ctx context.Context, days int) (int64, error) {
	if s.events == nil || days <= 0 {
		return 0, nil
	}
	deleted, err := s.events.DeleteOldEvents(ctx, days)
	if err != nil {
		s.log.Error().Err(err).Int("days", days).Msg("failed to cleanup old events")
		return 0, err
	}
	if deleted > 0 {
		s.log.Info().Int64("deleted_count", deleted).Int("days", days).Msg("cleaned up old events")
	}
	return deleted, nil
}

// EventsEnabled reports whether recognition events are being recorded.
func (s *RecognitionService) EventsEnabled() bool {
	return s.events != nil
}

// formatVehicleInfo joins the camera-reported brand and model into one
// description, collapsing runs of whitespace.
func formatVehicleInfo(brand, model *string) string {
	parts := make([]string, 0, 2)
	for _, p := range []*string{brand, model} {
		if p == nil {
			continue
		}
		if field := strings.Join(strings.Fields(*p), " "); field != "" {
			parts = append(parts, field)
		}
	}
	return strings.Join(parts, " ")
}

type EventInfo struct {
	ID                 string    `json:"id"`
	CameraID           string    `json:"camera_id"`
	CameraModel        *string   `json:"camera_model,omitempty"`
	Direction          *string   `json:"direction,omitempty"`
	Lane               *int      `json:"lane,omitempty"`
	RawText            string    `json:"raw_text"`
	NormalizedText     string    `json:"normalized_text"`
	CorrectedText      string    `json:"corrected_text"`
	Valid              bool      `json:"valid"`
	Plate              *string   `json:"plate,omitempty"`
	PlateClass         *string   `json:"plate_class,omitempty"`
	JurisdictionCode   *string   `json:"jurisdiction_code,omitempty"`
	Confidence         float64   `json:"confidence"`
	OCRConfidence      *float64  `json:"ocr_confidence,omitempty"`
	RegistrationStatus string    `json:"registration_status"`
	OwnerName          *string   `json:"owner_name,omitempty"`
	VehicleColor       *string   `json:"vehicle_color,omitempty"`
	VehicleType        *string   `json:"vehicle_type,omitempty"`
	VehicleDescription *string   `json:"vehicle_description,omitempty"`
	VehicleSpeed       *float64  `json:"vehicle_speed,omitempty"`
	SnapshotURL        *string   `json:"snapshot_url,omitempty"`
	EventTime          time.Time `json:"event_time"`
}
