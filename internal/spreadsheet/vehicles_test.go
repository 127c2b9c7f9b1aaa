package spreadsheet

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"alpr-service/internal/domain/alpr"
	"alpr-service/internal/domain/plate"
)

func TestWriteThenReadVehicles(t *testing.T) {
	records := []alpr.VehicleRecord{
		{Plate: "KTS123AB", OwnerName: "Lawal Nasiru", Vehicle: "Toyota Corolla", Color: "Silver", Jurisdiction: "Katsina", PlateClass: plate.ClassPersonal, Year: 2021},
		{Plate: "LA567BRT", OwnerName: "Lagos Transport Ltd", Vehicle: "Toyota Hiace", Jurisdiction: "Lagos", PlateClass: plate.ClassCommercial},
	}

	var buf bytes.Buffer
	require.NoError(t, WriteVehicles(&buf, records))

	got, bad, err := ReadVehicles(&buf)
	require.NoError(t, err)
	assert.Empty(t, bad)
	assert.Equal(t, records, got)
}

func TestReadVehiclesByHeaderName(t *testing.T) {
	f := excelize.NewFile()
	defer f.Close()
	rows := [][]interface{}{
		{"year", "OWNER", "plate"},
		{"2020", "Bello Musa", "KN-456ABC"},
		{"", "", ""},
		{"", "Ada Obi", "AB-456FG"},
	}
	for i, row := range rows {
		cell, _ := excelize.CoordinatesToCellName(1, i+1)
		require.NoError(t, f.SetSheetRow("Sheet1", cell, &row))
	}
	var buf bytes.Buffer
	require.NoError(t, f.Write(&buf))

	got, bad, err := ReadVehicles(&buf)
	require.NoError(t, err)
	assert.Empty(t, bad)
	require.Len(t, got, 2)
	assert.Equal(t, "KN-456ABC", got[0].Plate)
	assert.Equal(t, "Bello Musa", got[0].OwnerName)
	assert.Equal(t, 2020, got[0].Year)
	assert.Equal(t, plate.ClassNone, got[1].PlateClass)
	assert.Zero(t, got[1].Year)
}

func TestReadVehiclesErrors(t *testing.T) {
	tests := []struct {
		name string
		rows [][]interface{}
	}{
		{name: "missing owner column", rows: [][]interface{}{{"Plate"}, {"KTS123AB"}}},
		{name: "missing plate column", rows: [][]interface{}{{"Owner", "Year"}, {"x", "2020"}}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := excelize.NewFile()
			defer f.Close()
			for i, row := range tt.rows {
				cell, _ := excelize.CoordinatesToCellName(1, i+1)
				require.NoError(t, f.SetSheetRow("Sheet1", cell, &row))
			}
			var buf bytes.Buffer
			require.NoError(t, f.Write(&buf))

			_, _, err := ReadVehicles(&buf)
			assert.Error(t, err)
		})
	}
}

func TestReadVehiclesKeepsGoodRowsPastBadYear(t *testing.T) {
	f := excelize.NewFile()
	defer f.Close()
	rows := [][]interface{}{
		{"Plate", "Owner", "Year"},
		{"ABC123DE", "Good Owner", "2020"},
		{"ABD123DE", "Typo Owner", "20x1"},
		{"KTS123AB", "Lawal Nasiru", ""},
	}
	for i, row := range rows {
		cell, _ := excelize.CoordinatesToCellName(1, i+1)
		require.NoError(t, f.SetSheetRow("Sheet1", cell, &row))
	}
	var buf bytes.Buffer
	require.NoError(t, f.Write(&buf))

	got, bad, err := ReadVehicles(&buf)
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, "ABC123DE", got[0].Plate)
	assert.Equal(t, 2020, got[0].Year)
	assert.Equal(t, "KTS123AB", got[1].Plate)

	require.Len(t, bad, 1)
	assert.Equal(t, 3, bad[0].Row)
	assert.Equal(t, "ABD123DE", bad[0].Plate)
	assert.Contains(t, bad[0].Error(), "20x1")
}
