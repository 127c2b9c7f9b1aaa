package service

import (
	"bytes"
	"context"
	"testing"

	"github.com/brianvoe/gofakeit/v6"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"alpr-service/internal/domain/alpr"
	"alpr-service/internal/domain/plate"
	"alpr-service/internal/repository"
)

func newRegistry(seed []alpr.VehicleRecord) *RegistryService {
	return NewRegistryService(repository.NewMemoryVehicleRepository(seed), zerolog.Nop())
}

func TestRegistryList(t *testing.T) {
	svc := newRegistry(repository.DefaultVehicles())
	ctx := context.Background()

	tests := []struct {
		name   string
		filter ListVehiclesFilter
		want   []string
	}{
		{name: "all", filter: ListVehiclesFilter{}, want: nil},
		{name: "by owner", filter: ListVehiclesFilter{Owner: "TRANSPORT"}, want: []string{"LA567BRT", "OG789PQR"}},
		{name: "by jurisdiction", filter: ListVehiclesFilter{Jurisdiction: "KT"}, want: []string{"KT234KTN", "KTS123AB"}},
		{name: "owner and jurisdiction", filter: ListVehiclesFilter{Owner: "transport", Jurisdiction: "OG"}, want: []string{"OG789PQR"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := svc.List(ctx, tt.filter)
			require.NoError(t, err)
			if tt.want == nil {
				assert.Len(t, got, 10)
				return
			}
			plates := make([]string, 0, len(got))
			for _, v := range got {
				plates = append(plates, v.Plate)
			}
			assert.Equal(t, tt.want, plates)
		})
	}
}

func TestRegistryGet(t *testing.T) {
	svc := newRegistry(repository.DefaultVehicles())

	rec, err := svc.Get(context.Background(), "kd-123abc")
	require.NoError(t, err)
	assert.Equal(t, "Fatima Mohammed", rec.OwnerName)

	_, err = svc.Get(context.Background(), "ZZ-999ZZZ")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestRegistryAdd(t *testing.T) {
	ctx := context.Background()

	t.Run("class and jurisdiction come from the plate", func(t *testing.T) {
		svc := newRegistry(nil)
		rec, err := svc.Add(ctx, alpr.VehicleRecord{Plate: "kn-456 abc", OwnerName: "  Bello Musa ", Year: 2020})
		require.NoError(t, err)
		assert.Equal(t, "KN456ABC", rec.Plate)
		assert.Equal(t, "Bello Musa", rec.OwnerName)
		assert.Equal(t, plate.ClassCommercial, rec.PlateClass)
		assert.Equal(t, "Kano", rec.Jurisdiction)

		got, err := svc.Get(ctx, "KN-456ABC")
		require.NoError(t, err)
		assert.Equal(t, *rec, *got)
	})

	t.Run("explicit jurisdiction kept", func(t *testing.T) {
		svc := newRegistry(nil)
		rec, err := svc.Add(ctx, alpr.VehicleRecord{Plate: "AB-456FG", OwnerName: "FRSC", Jurisdiction: "FCT"})
		require.NoError(t, err)
		assert.Equal(t, plate.ClassGovernment, rec.PlateClass)
		assert.Equal(t, "FCT", rec.Jurisdiction)
	})

	t.Run("rejections", func(t *testing.T) {
		svc := newRegistry(repository.DefaultVehicles())
		tests := []struct {
			name string
			rec  alpr.VehicleRecord
			err  error
		}{
			{name: "duplicate", rec: alpr.VehicleRecord{Plate: "KTS-123AB", OwnerName: "someone"}, err: ErrConflict},
			{name: "bad format", rec: alpr.VehicleRecord{Plate: "1234567", OwnerName: "someone"}, err: ErrInvalidInput},
			{name: "not corrected", rec: alpr.VehicleRecord{Plate: "KT5123AB", OwnerName: "someone"}, err: ErrInvalidInput},
			{name: "no owner", rec: alpr.VehicleRecord{Plate: "EN-123ABC"}, err: ErrInvalidInput},
			{name: "bad year", rec: alpr.VehicleRecord{Plate: "EN-123ABC", OwnerName: "someone", Year: 1066}, err: ErrInvalidInput},
		}
		for _, tt := range tests {
			t.Run(tt.name, func(t *testing.T) {
				_, err := svc.Add(ctx, tt.rec)
				assert.ErrorIs(t, err, tt.err)
			})
		}
	})
}

func TestRegistryDelete(t *testing.T) {
	svc := newRegistry(repository.DefaultVehicles())
	ctx := context.Background()

	require.NoError(t, svc.Delete(ctx, "LA-342BCA"))
	assert.ErrorIs(t, svc.Delete(ctx, "LA-342BCA"), ErrNotFound)

	_, err := svc.Get(ctx, "LA342BCA")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestRegistryExportImport(t *testing.T) {
	ctx := context.Background()
	src := newRegistry(nil)
	faker := gofakeit.New(7)

	for i := 0; i < 20; i++ {
		_, err := src.Add(ctx, alpr.VehicleRecord{
			Plate:     faker.Lexify("??") + faker.Numerify("###") + faker.Lexify("???"),
			OwnerName: faker.Name(),
			Vehicle:   faker.CarMaker() + " " + faker.CarModel(),
			Color:     faker.Color(),
			Year:      faker.Number(1990, 2025),
		})
		if err != nil {
			require.ErrorIs(t, err, ErrConflict)
		}
	}

	var buf bytes.Buffer
	require.NoError(t, src.Export(ctx, &buf))

	want, err := src.List(ctx, ListVehiclesFilter{})
	require.NoError(t, err)

	dst := newRegistry(nil)
	first, err := dst.Import(ctx, bytes.NewReader(buf.Bytes()))
	require.NoError(t, err)
	assert.Equal(t, len(want), first.Added)
	assert.Empty(t, first.Failures)

	got, err := dst.List(ctx, ListVehiclesFilter{})
	require.NoError(t, err)
	assert.Equal(t, want, got)

	again, err := dst.Import(ctx, bytes.NewReader(buf.Bytes()))
	require.NoError(t, err)
	assert.Zero(t, again.Added)
	assert.Equal(t, len(want), again.Skipped)
}

func TestRegistryImportRejectsGarbage(t *testing.T) {
	_, err := newRegistry(nil).Import(context.Background(), bytes.NewReader([]byte("not a workbook")))
	assert.ErrorIs(t, err, ErrInvalidInput)
}

func TestRegistryImportContinuesPastBadRow(t *testing.T) {
	f := excelize.NewFile()
	defer f.Close()
	rows := [][]interface{}{
		{"Plate", "Owner", "Year"},
		{"ABC123DE", "Good Owner", "2020"},
		{"ABD123DE", "Typo Owner", "20x1"},
	}
	for i, row := range rows {
		cell, _ := excelize.CoordinatesToCellName(1, i+1)
		require.NoError(t, f.SetSheetRow("Sheet1", cell, &row))
	}
	var buf bytes.Buffer
	require.NoError(t, f.Write(&buf))

	ctx := context.Background()
	svc := newRegistry(nil)
	res, err := svc.Import(ctx, &buf)
	require.NoError(t, err)
	assert.Equal(t, 1, res.Added)
	assert.Zero(t, res.Skipped)
	require.Len(t, res.Failures, 1)
	assert.Contains(t, res.Failures[0], "ABD123DE")

	got, err := svc.Get(ctx, "ABC-123DE")
	require.NoError(t, err)
	assert.Equal(t, "Good Owner", got.OwnerName)
	assert.Equal(t, 2020, got.Year)

	_, err = svc.Get(ctx, "ABD123DE")
	assert.ErrorIs(t, err, ErrNotFound)
}
