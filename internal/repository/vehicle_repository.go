package repository

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"alpr-service/internal/domain/alpr"
	"alpr-service/internal/domain/plate"
	"alpr-service/internal/utils"
)

type VehicleRepository struct {
	db *gorm.DB
}

func NewVehicleRepository(db *gorm.DB) *VehicleRepository {
	return &VehicleRepository{db: db}
}

func (Vehicle) TableName() string {
	return "alpr_vehicles"
}

type Vehicle struct {
	PlateNumber  string `gorm:"primaryKey"`
	OwnerName    string `gorm:"not null"`
	Description  string `gorm:"not null"`
	Color        *string
	Jurisdiction string `gorm:"not null"`
	PlateClass   string `gorm:"not null"`
	Year         int
	CreatedAt    time.Time
}

func (r *VehicleRepository) Lookup(ctx context.Context, plateNumber string) (*alpr.VehicleRecord, error) {
	key := utils.PlateKey(plateNumber)
	if key == "" {
		return nil, nil
	}
	var vehicle Vehicle
	err := r.db.WithContext(ctx).
		Where("plate_number = ?", key).
		First(&vehicle).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	rec := vehicle.toRecord()
	return &rec, nil
}

func (r *VehicleRepository) List(ctx context.Context) ([]alpr.VehicleRecord, error) {
	return r.find(r.db.WithContext(ctx))
}

func (r *VehicleRepository) FindByOwner(ctx context.Context, owner string) ([]alpr.VehicleRecord, error) {
	pattern := "%" + strings.ToUpper(strings.TrimSpace(owner)) + "%"
	return r.find(r.db.WithContext(ctx).Where("UPPER(owner_name) LIKE ?", pattern))
}

func (r *VehicleRepository) FindByJurisdiction(ctx context.Context, code string) ([]alpr.VehicleRecord, error) {
	prefix := utils.PlateKey(code)
	if prefix == "" {
		return []alpr.VehicleRecord{}, nil
	}
	return r.find(r.db.WithContext(ctx).Where("plate_number LIKE ?", prefix+"%"))
}

func (r *VehicleRepository) Add(ctx context.Context, rec alpr.VehicleRecord) error {
	vehicle := fromRecord(rec)
	vehicle.CreatedAt = time.Now()
	if err := r.db.WithContext(ctx).Create(&vehicle).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return ErrDuplicate
		}
		return fmt.Errorf("failed to create vehicle: %w", err)
	}
	return nil
}

// Seed inserts records that are not present yet and reports how many were added.
func (r *VehicleRepository) Seed(ctx context.Context, records []alpr.VehicleRecord) (int, error) {
	added := 0
	for _, rec := range records {
		vehicle := fromRecord(rec)
		res := r.db.WithContext(ctx).
			Clauses(clause.OnConflict{DoNothing: true}).
			Create(&vehicle)
		if res.Error != nil {
			return added, fmt.Errorf("seed %s: %w", vehicle.PlateNumber, res.Error)
		}
		added += int(res.RowsAffected)
	}
	return added, nil
}

func (r *VehicleRepository) Delete(ctx context.Context, plateNumber string) (bool, error) {
	result := r.db.WithContext(ctx).
		Where("plate_number = ?", utils.PlateKey(plateNumber)).
		Delete(&Vehicle{})
	if result.Error != nil {
		return false, result.Error
	}
	return result.RowsAffected > 0, nil
}

func (r *VehicleRepository) find(query *gorm.DB) ([]alpr.VehicleRecord, error) {
	var vehicles []Vehicle
	if err := query.Order("plate_number").Find(&vehicles).Error; err != nil {
		return nil, err
	}
	out := make([]alpr.VehicleRecord, 0, len(vehicles))
	for _, v := range vehicles {
		out = append(out, v.toRecord())
	}
	return out, nil
}

func (v Vehicle) toRecord() alpr.VehicleRecord {
	rec := alpr.VehicleRecord{
		Plate:        v.PlateNumber,
		OwnerName:    v.OwnerName,
		Vehicle:      v.Description,
		Jurisdiction: v.Jurisdiction,
		PlateClass:   plate.ParseClass(v.PlateClass),
		Year:         v.Year,
	}
	if v.Color != nil {
		rec.Color = *v.Color
	}
	return rec
}

func fromRecord(rec alpr.VehicleRecord) Vehicle {
	v := Vehicle{
		PlateNumber:  utils.PlateKey(rec.Plate),
		OwnerName:    rec.OwnerName,
		Description:  rec.Vehicle,
		Jurisdiction: rec.Jurisdiction,
		PlateClass:   string(rec.PlateClass),
		Year:         rec.Year,
	}
	if rec.Color != "" {
		v.Color = &rec.Color
	}
	return v
}
