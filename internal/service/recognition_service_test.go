package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"alpr-service/internal/domain/alpr"
	"alpr-service/internal/domain/plate"
	"alpr-service/internal/repository"
)

type fakeEventStore struct {
	created   []*alpr.Event
	createErr error

	gotPlate *string
	gotLimit int
	events   []repository.RecognitionEvent

	deleteDays int
}

func (f *fakeEventStore) CreateEvent(_ context.Context, event *alpr.Event) error {
	if f.createErr != nil {
		return f.createErr
	}
	event.ID = uuid.New()
	f.created = append(f.created, event)
	return nil
}

func (f *fakeEventStore) FindEvents(_ context.Context, plateNumber *string, _, _ *time.Time, limit, _ int) ([]repository.RecognitionEvent, error) {
	f.gotPlate = plateNumber
	f.gotLimit = limit
	return f.events, nil
}

func (f *fakeEventStore) DeleteOldEvents(_ context.Context, days int) (int64, error) {
	f.deleteDays = days
	return 3, nil
}

type failingLookup struct{}

func (failingLookup) Lookup(context.Context, string) (*alpr.VehicleRecord, error) {
	return nil, errors.New("connection refused")
}

func newTestService(events EventStore) *RecognitionService {
	return NewRecognitionService(repository.NewMemoryVehicleRepository(repository.DefaultVehicles()), events, zerolog.Nop())
}

func TestRecognize(t *testing.T) {
	tests := []struct {
		name       string
		raw        string
		status     alpr.RegistrationStatus
		plate      string
		class      plate.Class
		confidence float64
		corrected  bool
		owner      string
	}{
		{
			name:       "registered personal plate",
			raw:        "kts-123ab",
			status:     alpr.StatusRegistered,
			plate:      "KTS-123AB",
			class:      plate.ClassPersonal,
			confidence: plate.ConfidenceExact,
			owner:      "Lawal Nasiru",
		},
		{
			name:       "spaces and dots are dropped",
			raw:        " K.T.S 123 AB ",
			status:     alpr.StatusRegistered,
			plate:      "KTS-123AB",
			class:      plate.ClassPersonal,
			confidence: plate.ConfidenceExact,
			owner:      "Lawal Nasiru",
		},
		{
			name:       "ocr confusion corrected before lookup",
			raw:        "KT5123AB",
			status:     alpr.StatusRegistered,
			plate:      "KTS-123AB",
			class:      plate.ClassPersonal,
			confidence: plate.ConfidenceCorrected,
			corrected:  true,
			owner:      "Lawal Nasiru",
		},
		{
			name:       "government plate",
			raw:        "FG 234 KT",
			status:     alpr.StatusRegistered,
			plate:      "FG-234KT",
			class:      plate.ClassGovernment,
			confidence: plate.ConfidenceExact,
			owner:      "Federal Government of Nigeria",
		},
		{
			name:       "valid but unknown plate",
			raw:        "ABC-999XY",
			status:     alpr.StatusNotRegistered,
			plate:      "ABC-999XY",
			class:      plate.ClassPersonal,
			confidence: plate.ConfidenceExact,
		},
		{
			name:   "too short",
			raw:    "KT12",
			status: alpr.StatusNotApplicable,
		},
		{
			name:   "no grammar matches",
			raw:    "12345678",
			status: alpr.StatusNotApplicable,
		},
		{
			name:   "empty",
			raw:    "",
			status: alpr.StatusNotApplicable,
		},
	}

	svc := newTestService(nil)
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res, err := svc.Recognize(context.Background(), tt.raw)
			require.NoError(t, err)

			assert.Equal(t, tt.raw, res.RawText)
			assert.Equal(t, tt.status, res.Status)
			if tt.status == alpr.StatusNotApplicable {
				assert.False(t, res.Validation.Valid)
				assert.Nil(t, res.Vehicle)
				return
			}

			assert.True(t, res.Validation.Valid)
			assert.Equal(t, tt.plate, res.Validation.Plate)
			assert.Equal(t, tt.class, res.Validation.Class)
			assert.Equal(t, tt.confidence, res.Validation.Confidence)
			assert.Equal(t, tt.corrected, res.Validation.Corrected)
			if tt.owner == "" {
				assert.Nil(t, res.Vehicle)
				assert.False(t, res.Registered())
				return
			}
			require.NotNil(t, res.Vehicle)
			assert.Equal(t, tt.owner, res.Vehicle.OwnerName)
			assert.True(t, res.Registered())
		})
	}
}

func TestRecognizeEquivalentSpellings(t *testing.T) {
	svc := newTestService(nil)
	ctx := context.Background()

	a, err := svc.Recognize(ctx, "KTS123AB")
	require.NoError(t, err)
	b, err := svc.Recognize(ctx, "kts-123-ab")
	require.NoError(t, err)

	assert.Equal(t, a.Validation, b.Validation)
	assert.Equal(t, a.Vehicle, b.Vehicle)
}

func TestRecognizeLookupFailure(t *testing.T) {
	svc := NewRecognitionService(failingLookup{}, nil, zerolog.Nop())

	_, err := svc.Recognize(context.Background(), "KTS123AB")
	assert.Error(t, err)

	// invalid text never reaches the registry
	res, err := svc.Recognize(context.Background(), "??")
	require.NoError(t, err)
	assert.Equal(t, alpr.StatusNotApplicable, res.Status)
}

func TestRecognizeBatch(t *testing.T) {
	svc := newTestService(nil)

	batch, err := svc.RecognizeBatch(context.Background(), []string{
		"KTS123AB",
		"kts-123ab",
		"xx",
		"KT5123AB",
		"LA567BRT",
	})
	require.NoError(t, err)

	assert.Equal(t, 5, batch.Frames)
	assert.Equal(t, 1, batch.Rejected)
	require.Len(t, batch.Results, 2)
	assert.Equal(t, 0, batch.Results[0].Frame)
	assert.Equal(t, "KTS-123AB", batch.Results[0].Validation.Plate)
	assert.Equal(t, 4, batch.Results[1].Frame)
	assert.Equal(t, "LA-567BRT", batch.Results[1].Validation.Plate)

	empty, err := svc.RecognizeBatch(context.Background(), nil)
	require.NoError(t, err)
	assert.Zero(t, empty.Frames)
	assert.NotNil(t, empty.Results)
}

func TestProcessIncomingEvent(t *testing.T) {
	now := time.Date(2026, 3, 1, 8, 30, 0, 0, time.UTC)
	valid := alpr.EventPayload{
		CameraID:  "gate-1",
		RawText:   "KTS 123 AB",
		EventTime: now,
		Vehicle:   alpr.VehicleInfo{Brand: " Toyota ", Model: "Corolla"},
	}

	t.Run("required fields", func(t *testing.T) {
		svc := newTestService(&fakeEventStore{})
		for _, mutate := range []func(p *alpr.EventPayload){
			func(p *alpr.EventPayload) { p.RawText = "  " },
			func(p *alpr.EventPayload) { p.CameraID = "" },
			func(p *alpr.EventPayload) { p.EventTime = time.Time{} },
		} {
			p := valid
			mutate(&p)
			_, err := svc.ProcessIncomingEvent(context.Background(), p, "")
			assert.ErrorIs(t, err, ErrInvalidInput)
		}
	})

	t.Run("recorded", func(t *testing.T) {
		store := &fakeEventStore{}
		svc := newTestService(store)

		res, err := svc.ProcessIncomingEvent(context.Background(), valid, "DS-TCG405")
		require.NoError(t, err)
		assert.True(t, res.Recorded)
		require.NotNil(t, res.EventID)
		assert.Equal(t, alpr.StatusRegistered, res.Result.Status)

		require.Len(t, store.created, 1)
		ev := store.created[0]
		assert.Equal(t, *res.EventID, ev.ID)
		assert.Equal(t, "DS-TCG405", ev.CameraModel)
		assert.Equal(t, "Toyota Corolla", ev.VehicleDescription)
		assert.Equal(t, "KTS-123AB", ev.Result.Validation.Plate)
	})

	t.Run("invalid plate text is still recorded", func(t *testing.T) {
		store := &fakeEventStore{}
		svc := newTestService(store)

		p := valid
		p.RawText = "N/A"
		res, err := svc.ProcessIncomingEvent(context.Background(), p, "")
		require.NoError(t, err)
		assert.True(t, res.Recorded)
		assert.Equal(t, alpr.StatusNotApplicable, res.Result.Status)
	})

	t.Run("event log disabled", func(t *testing.T) {
		svc := newTestService(nil)
		res, err := svc.ProcessIncomingEvent(context.Background(), valid, "")
		require.NoError(t, err)
		assert.False(t, res.Recorded)
		assert.Nil(t, res.EventID)
	})

	t.Run("store failure", func(t *testing.T) {
		svc := newTestService(&fakeEventStore{createErr: errors.New("disk full")})
		_, err := svc.ProcessIncomingEvent(context.Background(), valid, "")
		assert.Error(t, err)
	})
}

func TestFindEvents(t *testing.T) {
	ctx := context.Background()

	t.Run("disabled", func(t *testing.T) {
		_, err := newTestService(nil).FindEvents(ctx, nil, nil, nil, 0, 0)
		assert.ErrorIs(t, err, ErrUnavailable)
	})

	t.Run("plate query is canonicalized", func(t *testing.T) {
		store := &fakeEventStore{events: []repository.RecognitionEvent{{ID: uuid.New(), CameraID: "gate-1", RawText: "KTS123AB"}}}
		svc := newTestService(store)

		q := "kts 123 ab"
		events, err := svc.FindEvents(ctx, &q, nil, nil, 500, 0)
		require.NoError(t, err)
		require.Len(t, events, 1)
		require.NotNil(t, store.gotPlate)
		assert.Equal(t, "KTS-123AB", *store.gotPlate)
		assert.Equal(t, 100, store.gotLimit)
	})

	t.Run("default limit", func(t *testing.T) {
		store := &fakeEventStore{}
		_, err := newTestService(store).FindEvents(ctx, nil, nil, nil, 0, 0)
		require.NoError(t, err)
		assert.Equal(t, 50, store.gotLimit)
		assert.Nil(t, store.gotPlate)
	})

	t.Run("bad input", func(t *testing.T) {
		svc := newTestService(&fakeEventStore{})
		q := "nonsense"
		_, err := svc.FindEvents(ctx, &q, nil, nil, 0, 0)
		assert.ErrorIs(t, err, ErrInvalidInput)

		from := "yesterday"
		_, err = svc.FindEvents(ctx, nil, &from, nil, 0, 0)
		assert.ErrorIs(t, err, ErrInvalidInput)
	})
}

func TestCleanupOldEvents(t *testing.T) {
	store := &fakeEventStore{}
	svc := newTestService(store)

	deleted, err := svc.CleanupOldEvents(context.Background(), 30)
	require.NoError(t, err)
	assert.Equal(t, int64(3), deleted)
	assert.Equal(t, 30, store.deleteDays)

	deleted, err = newTestService(nil).CleanupOldEvents(context.Background(), 30)
	require.NoError(t, err)
	assert.Zero(t, deleted)
}

func TestFormatVehicleInfo(t *testing.T) {
	tests := []struct {
		name     string
		brand    *string
		model    *string
		expected string
	}{
		{
			name:     "both brand and model",
			brand:    stringPtr("Toyota"),
			model:    stringPtr("Camry"),
			expected: "Toyota Camry",
		},
		{
			name:     "only brand",
			brand:    stringPtr("Toyota"),
			model:    nil,
			expected: "Toyota",
		},
		{
			name:     "only model",
			brand:    nil,
			model:    stringPtr("Camry"),
			expected: "Camry",
		},
		{
			name:     "both empty",
			brand:    nil,
			model:    nil,
			expected: "",
		},
		{
			name:     "brand with spaces",
			brand:    stringPtr("  Toyota  "),
			model:    stringPtr("  Camry  "),
			expected: "Toyota Camry",
		},
		{
			name:     "brand with double spaces",
			brand:    stringPtr("Toyota   Camry"),
			model:    stringPtr("Hybrid"),
			expected: "Toyota Camry Hybrid",
		},
		{
			name:     "empty strings",
			brand:    stringPtr(""),
			model:    stringPtr(""),
			expected: "",
		},
		{
			name:     "empty brand, valid model",
			brand:    stringPtr(""),
			model:    stringPtr("Camry"),
			expected: "Camry",
		},
		{
			name:     "valid brand, empty model",
			brand:    stringPtr("Toyota"),
			model:    stringPtr(""),
			expected: "Toyota",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := formatVehicleInfo(tt.brand, tt.model)
			if result != tt.expected {
				t.Errorf("formatVehicleInfo() = %q, want %q", result, tt.expected)
			}
		})
	}
}

func stringPtr(s string) *string {
	return &s
}
