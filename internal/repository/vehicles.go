package repository

import (
	"context"
	"errors"
	"sort"
	"strings"
	"sync"

	"alpr-service/internal/domain/alpr"
	"alpr-service/internal/domain/plate"
	"alpr-service/internal/utils"
)

var ErrDuplicate = errors.New("vehicle already registered")

// DefaultVehicles is the demo registry the service starts with.
func DefaultVehicles() []alpr.VehicleRecord {
	return []alpr.VehicleRecord{
		{Plate: "KTS123AB", OwnerName: "Lawal Nasiru", Vehicle: "Toyota Corolla", Color: "Silver", Jurisdiction: "Katsina", PlateClass: plate.ClassPersonal, Year: 2021},
		{Plate: "LAG456CD", OwnerName: "Adewale Johnson", Vehicle: "Honda Accord", Color: "Black", Jurisdiction: "Lagos", PlateClass: plate.ClassPersonal, Year: 2020},
		{Plate: "KT234KTN", OwnerName: "Musa Abdullahi", Vehicle: "Toyota Hiace", Color: "White", Jurisdiction: "Katsina", PlateClass: plate.ClassCommercial, Year: 2019},
		{Plate: "LA567BRT", OwnerName: "Lagos State Transport Authority", Vehicle: "BRT Bus", Color: "Red", Jurisdiction: "Lagos", PlateClass: plate.ClassCommercial, Year: 2018},
		{Plate: "FG234KT", OwnerName: "Federal Government of Nigeria", Vehicle: "Toyota Hilux", Color: "White", Jurisdiction: "Federal", PlateClass: plate.ClassGovernment, Year: 2022},
		{Plate: "LA342BCA", OwnerName: "Aminu Adeyemi", Vehicle: "Private Car", Color: "Silver", Jurisdiction: "Lagos", PlateClass: plate.ClassPersonal, Year: 2022},
		{Plate: "KD123ABC", OwnerName: "Fatima Mohammed", Vehicle: "Sedan", Color: "Black", Jurisdiction: "Kaduna", PlateClass: plate.ClassPersonal, Year: 2021},
		{Plate: "AB567XYZ", OwnerName: "Federal Road Safety Corps", Vehicle: "Official Vehicle", Color: "White", Jurisdiction: "Abuja", PlateClass: plate.ClassGovernment, Year: 2023},
		{Plate: "OG789PQR", OwnerName: "Lagos State Transport Company", Vehicle: "Commercial Bus", Color: "Green", Jurisdiction: "Ogun", PlateClass: plate.ClassCommercial, Year: 2020},
		{Plate: "RI456DEF", OwnerName: "Chinedu Okafor", Vehicle: "Private Truck", Color: "Red", Jurisdiction: "Rivers", PlateClass: plate.ClassPersonal, Year: 2019},
	}
}

// MemoryVehicleRepository keeps the registry in process memory. Reads take a
// shared lock, so lookups from concurrent requests do not serialize.
type MemoryVehicleRepository struct {
	mu       sync.RWMutex
	vehicles map[string]alpr.VehicleRecord
}

func NewMemoryVehicleRepository(seed []alpr.VehicleRecord) *MemoryVehicleRepository {
	r := &MemoryVehicleRepository{vehicles: make(map[string]alpr.VehicleRecord, len(seed))}
	for _, v := range seed {
		v.Plate = utils.PlateKey(v.Plate)
		r.vehicles[v.Plate] = v
	}
	return r
}

func (r *MemoryVehicleRepository) Lookup(_ context.Context, plateNumber string) (*alpr.VehicleRecord, error) {
	key := utils.PlateKey(plateNumber)
	if key == "" {
		return nil, nil
	}

	r.mu.RLock()
	defer r.mu.RUnlock()

	v, ok := r.vehicles[key]
	if !ok {
		return nil, nil
	}
	return &v, nil
}

func (r *MemoryVehicleRepository) List(_ context.Context) ([]alpr.VehicleRecord, error) {
	r.mu.RLock()
	out := make([]alpr.VehicleRecord, 0, len(r.vehicles))
	for _, v := range r.vehicles {
		out = append(out, v)
	}
	r.mu.RUnlock()

	sortByPlate(out)
	return out, nil
}

func (r *MemoryVehicleRepository) FindByOwner(ctx context.Context, owner string) ([]alpr.VehicleRecord, error) {
	needle := strings.ToUpper(strings.TrimSpace(owner))
	return r.filter(ctx, func(v alpr.VehicleRecord) bool {
		return strings.Contains(strings.ToUpper(v.OwnerName), needle)
	})
}

func (r *MemoryVehicleRepository) FindByJurisdiction(ctx context.Context, code string) ([]alpr.VehicleRecord, error) {
	prefix := utils.PlateKey(code)
	if prefix == "" {
		return []alpr.VehicleRecord{}, nil
	}
	return r.filter(ctx, func(v alpr.VehicleRecord) bool {
		return strings.HasPrefix(v.Plate, prefix)
	})
}

func (r *MemoryVehicleRepository) Add(_ context.Context, v alpr.VehicleRecord) error {
	v.Plate = utils.PlateKey(v.Plate)

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.vehicles[v.Plate]; exists {
		return ErrDuplicate
	}
	r.vehicles[v.Plate] = v
	return nil
}

func (r *MemoryVehicleRepository) Seed(ctx context.Context, records []alpr.VehicleRecord) (int, error) {
	added := 0
	for _, rec := range records {
		if err := r.Add(ctx, rec); err == nil {
			added++
		}
	}
	return added, nil
}

func (r *MemoryVehicleRepository) Delete(_ context.Context, plateNumber string) (bool, error) {
	key := utils.PlateKey(plateNumber)

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.vehicles[key]; !exists {
		return false, nil
	}
	delete(r.vehicles, key)
	return true, nil
}

func (r *MemoryVehicleRepository) filter(ctx context.Context, keep func(alpr.VehicleRecord) bool) ([]alpr.VehicleRecord, error) {
	all, err := r.List(ctx)
	if err != nil {
		return nil, err
	}
	out := make([]alpr.VehicleRecord, 0, len(all))
	for _, v := range all {
		if keep(v) {
			out = append(out, v)
		}
	}
	return out, nil
}

func sortByPlate(vs []alpr.VehicleRecord) {
	sort.Slice(vs, func(i, j int) bool { return vs[i].Plate < vs[j].Plate })
}
