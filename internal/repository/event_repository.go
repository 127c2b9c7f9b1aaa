package repository

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"

	"alpr-service/internal/domain/alpr"
)

type EventRepository struct {
	db *gorm.DB
}

func NewEventRepository(db *gorm.DB) *EventRepository {
	return &EventRepository{db: db}
}

func (RecognitionEvent) TableName() string {
	return "alpr_recognition_events"
}

type RecognitionEvent struct {
	ID                 uuid.UUID `gorm:"type:uuid;primaryKey;default:uuid_generate_v4()"`
	CameraID           string    `gorm:"not null"`
	CameraModel        *string
	Direction          *string
	Lane               *int
	RawText            string `gorm:"not null"`
	NormalizedText     string `gorm:"not null"`
	CorrectedText      string `gorm:"not null"`
	Valid              bool   `gorm:"not null"`
	Plate              *string
	PlateClass         *string
	JurisdictionCode   *string
	Confidence         float64 `gorm:"not null"`
	OCRConfidence      *float64
	RegistrationStatus string `gorm:"not null"`
	OwnerName          *string
	VehicleColor       *string
	VehicleType        *string
	VehicleDescription *string
	VehicleSpeed       *float64
	SnapshotURL        *string
	EventTime          time.Time      `gorm:"not null"`
	RawPayload         datatypes.JSON `gorm:"type:jsonb"`
	CreatedAt          time.Time
}

func (r *EventRepository) CreateEvent(ctx context.Context, event *alpr.Event) error {
	res := event.Result
	dbEvent := RecognitionEvent{
		ID:                 uuid.New(),
		CameraID:           event.CameraID,
		RawText:            event.RawText,
		NormalizedText:     res.Normalized,
		CorrectedText:      res.Corrected,
		Valid:              res.Validation.Valid,
		Confidence:         res.Validation.Confidence,
		RegistrationStatus: string(res.Status),
		EventTime:          event.EventTime,
		CreatedAt:          time.Now(),
	}

	if event.CameraModel != "" {
		dbEvent.CameraModel = &event.CameraModel
	}
	if event.Direction != "" {
		dbEvent.Direction = &event.Direction
	}
	if event.Lane != 0 {
		dbEvent.Lane = &event.Lane
	}
	if event.Confidence != 0 {
		dbEvent.OCRConfidence = &event.Confidence
	}
	if res.Validation.Valid {
		canonical := res.Validation.Plate
		class := string(res.Validation.Class)
		code := res.Validation.JurisdictionCode
		dbEvent.Plate = &canonical
		dbEvent.PlateClass = &class
		dbEvent.JurisdictionCode = &code
	}
	if res.Vehicle != nil {
		dbEvent.OwnerName = &res.Vehicle.OwnerName
	}
	if event.Vehicle.Color != "" {
		dbEvent.VehicleColor = &event.Vehicle.Color
	}
	if event.Vehicle.Type != "" {
		dbEvent.VehicleType = &event.Vehicle.Type
	}
	if event.VehicleDescription != "" {
		dbEvent.VehicleDescription = &event.VehicleDescription
	}
	if event.Vehicle.Speed != nil {
		dbEvent.VehicleSpeed = event.Vehicle.Speed
	}
	if event.SnapshotURL != "" {
		dbEvent.SnapshotURL = &event.SnapshotURL
	}
	if len(event.RawPayload) > 0 {
		raw, err := json.Marshal(event.RawPayload)
		if err != nil {
			return fmt.Errorf("marshal raw payload: %w", err)
		}
		dbEvent.RawPayload = datatypes.JSON(raw)
	}

	if err := r.db.WithContext(ctx).Create(&dbEvent).Error; err != nil {
		return fmt.Errorf("failed to create recognition event in database: %w", err)
	}

	event.ID = dbEvent.ID
	return nil
}

func (r *EventRepository) FindEvents(ctx context.Context, plateNumber *string, from, to *time.Time, limit, offset int) ([]RecognitionEvent, error) {
	query := r.db.WithContext(ctx).Model(&RecognitionEvent{})

	if plateNumber != nil {
		query = query.Where("plate = ?", *plateNumber)
	}
	if from != nil {
		query = query.Where("event_time >= ?", *from)
	}
	if to != nil {
		query = query.Where("event_time <= ?", *to)
	}

	query = query.Order("event_time DESC")

	if limit > 0 {
		if limit > 100 {
			limit = 100
		}
		query = query.Limit(limit)
	}
	if offset > 0 {
		query = query.Offset(offset)
	}

	var events []RecognitionEvent
	err := query.Find(&events).Error
	return events, err
}

// DeleteOldEvents removes events created more than days ago.
func (r *EventRepository) DeleteOldEvents(ctx context.Context, days int) (int64, error) {
	cutoffTime := time.Now().AddDate(0, 0, -days)
	result := r.db.WithContext(ctx).
		Where("created_at < ?", cutoffTime).
		Delete(&RecognitionEvent{})

	if result.Error != nil {
		return 0, result.Error
	}

	return result.RowsAffected, nil
}
