package alpr

import (
	"time"

	"github.com/google/uuid"

	"alpr-service/internal/domain/plate"
)

type RegistrationStatus string

const (
	StatusRegistered    RegistrationStatus = "registered"
	StatusNotRegistered RegistrationStatus = "not_registered"
	StatusNotApplicable RegistrationStatus = "not_applicable"
)

// VehicleRecord is a registry entry keyed by the compact plate (KTS123AB).
type VehicleRecord struct {
	Plate        string      `json:"plate"`
	OwnerName    string      `json:"owner_name"`
	Vehicle      string      `json:"vehicle"`
	Color        string      `json:"color,omitempty"`
	Jurisdiction string      `json:"jurisdiction"`
	PlateClass   plate.Class `json:"plate_class"`
	Year         int         `json:"year"`
}

type RecognitionResult struct {
	RawText    string                 `json:"raw_text"`
	Normalized string                 `json:"normalized"`
	Corrected  string                 `json:"corrected"`
	Validation plate.ValidationResult `json:"validation"`
	Status     RegistrationStatus     `json:"registration_status"`
	Vehicle    *VehicleRecord         `json:"vehicle,omitempty"`
}

func (r RecognitionResult) Registered() bool {
	return r.Status == StatusRegistered
}

// FrameResult is one kept reading of a batch, with the index of the frame it
// came from.
type FrameResult struct {
	Frame int `json:"frame"`
	RecognitionResult
}

type BatchResult struct {
	Frames   int           `json:"frames"`
	Rejected int           `json:"rejected"`
	Results  []FrameResult `json:"results"`
}

// VehicleInfo is what the camera itself reports about the vehicle.
type VehicleInfo struct {
	Color string   `json:"color,omitempty"`
	Type  string   `json:"type,omitempty"`
	Brand string   `json:"brand,omitempty"`
	Model string   `json:"model,omitempty"`
	Speed *float64 `json:"speed,omitempty"`
}

type EventPayload struct {
	CameraID    string                 `json:"camera_id"`
	CameraModel string                 `json:"camera_model,omitempty"`
	RawText     string                 `json:"raw_text"`
	Confidence  float64                `json:"ocr_confidence"`
	Direction   string                 `json:"direction,omitempty"`
	Lane        int                    `json:"lane,omitempty"`
	EventTime   time.Time              `json:"event_time"`
	Vehicle     VehicleInfo            `json:"vehicle"`
	SnapshotURL string                 `json:"snapshot_url,omitempty"`
	RawPayload  map[string]interface{} `json:"raw_payload,omitempty"`
}

type Event struct {
	ID uuid.UUID
	EventPayload
	VehicleDescription string
	Result             RecognitionResult
}

type ProcessResult struct {
	EventID  *uuid.UUID        `json:"event_id,omitempty"`
	Recorded bool              `json:"recorded"`
	Result   RecognitionResult `json:"result"`
}
