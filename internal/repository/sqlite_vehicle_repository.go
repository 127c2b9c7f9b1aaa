package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/mattn/go-sqlite3"

	"alpr-service/internal/domain/alpr"
	"alpr-service/internal/domain/plate"
	"alpr-service/internal/utils"
)

const sqliteSchema = `
CREATE TABLE IF NOT EXISTS alpr_vehicles (
	plate_number TEXT PRIMARY KEY,
	owner_name   TEXT NOT NULL,
	description  TEXT NOT NULL,
	color        TEXT,
	jurisdiction TEXT NOT NULL,
	plate_class  TEXT NOT NULL,
	year         INTEGER,
	created_at   DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
);
CREATE INDEX IF NOT EXISTS idx_alpr_vehicles_owner ON alpr_vehicles(owner_name);
`

const sqliteVehicleColumns = `plate_number, owner_name, description, color, jurisdiction, plate_class, year`

// SQLiteVehicleRepository is a file backed registry for single node setups.
type SQLiteVehicleRepository struct {
	db *sql.DB
}

// OpenSQLiteVehicleRepository opens (or creates) the database at path and
// makes sure the schema exists.
func OpenSQLiteVehicleRepository(path string) (*SQLiteVehicleRepository, error) {
	db, err := sql.Open("sqlite3", path+"?_busy_timeout=5000&_journal_mode=WAL")
	if err != nil {
		return nil, fmt.Errorf("failed to open sqlite registry: %w", err)
	}
	db.SetMaxOpenConns(1)

	if _, err := db.Exec(sqliteSchema); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to create sqlite schema: %w", err)
	}
	return &SQLiteVehicleRepository{db: db}, nil
}

func (r *SQLiteVehicleRepository) Close() error {
	return r.db.Close()
}

func (r *SQLiteVehicleRepository) Ping(ctx context.Context) error {
	return r.db.PingContext(ctx)
}

// Seed inserts records that are not present yet and reports how many were added.
func (r *SQLiteVehicleRepository) Seed(ctx context.Context, records []alpr.VehicleRecord) (int, error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, err
	}
	defer tx.Rollback()

	stmt, err := tx.PrepareContext(ctx, `INSERT OR IGNORE INTO alpr_vehicles (`+sqliteVehicleColumns+`) VALUES (?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return 0, err
	}
	defer stmt.Close()

	added := 0
	for _, rec := range records {
		res, err := stmt.ExecContext(ctx, insertArgs(rec)...)
		if err != nil {
			return added, fmt.Errorf("seed %s: %w", rec.Plate, err)
		}
		if n, _ := res.RowsAffected(); n > 0 {
			added++
		}
	}
	if err := tx.Commit(); err != nil {
		return 0, err
	}
	return added, nil
}

func (r *SQLiteVehicleRepository) Lookup(ctx context.Context, plateNumber string) (*alpr.VehicleRecord, error) {
	key := utils.PlateKey(plateNumber)
	if key == "" {
		return nil, nil
	}
	row := r.db.QueryRowContext(ctx, `SELECT `+sqliteVehicleColumns+` FROM alpr_vehicles WHERE plate_number = ?`, key)
	rec, err := scanVehicle(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &rec, nil
}

func (r *SQLiteVehicleRepository) List(ctx context.Context) ([]alpr.VehicleRecord, error) {
	return r.query(ctx, `SELECT `+sqliteVehicleColumns+` FROM alpr_vehicles ORDER BY plate_number`)
}

func (r *SQLiteVehicleRepository) FindByOwner(ctx context.Context, owner string) ([]alpr.VehicleRecord, error) {
	pattern := "%" + strings.ToUpper(strings.TrimSpace(owner)) + "%"
	return r.query(ctx, `SELECT `+sqliteVehicleColumns+` FROM alpr_vehicles WHERE UPPER(owner_name) LIKE ? ORDER BY plate_number`, pattern)
}

func (r *SQLiteVehicleRepository) FindByJurisdiction(ctx context.Context, code string) ([]alpr.VehicleRecord, error) {
	prefix := utils.PlateKey(code)
	if prefix == "" {
		return []alpr.VehicleRecord{}, nil
	}
	return r.query(ctx, `SELECT `+sqliteVehicleColumns+` FROM alpr_vehicles WHERE plate_number LIKE ? ORDER BY plate_number`, prefix+"%")
}

func (r *SQLiteVehicleRepository) Add(ctx context.Context, rec alpr.VehicleRecord) error {
	_, err := r.db.ExecContext(ctx, `INSERT INTO alpr_vehicles (`+sqliteVehicleColumns+`) VALUES (?, ?, ?, ?, ?, ?, ?)`, insertArgs(rec)...)
	if err != nil {
		var sqliteErr sqlite3.Error
		if errors.As(err, &sqliteErr) && sqliteErr.Code == sqlite3.ErrConstraint {
			return ErrDuplicate
		}
		return fmt.Errorf("failed to insert vehicle: %w", err)
	}
	return nil
}

func (r *SQLiteVehicleRepository) Delete(ctx context.Context, plateNumber string) (bool, error) {
	res, err := r.db.ExecContext(ctx, `DELETE FROM alpr_vehicles WHERE plate_number = ?`, utils.PlateKey(plateNumber))
	if err != nil {
		return false, err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

func (r *SQLiteVehicleRepository) query(ctx context.Context, q string, args ...interface{}) ([]alpr.VehicleRecord, error) {
	rows, err := r.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []alpr.VehicleRecord{}
	for rows.Next() {
		rec, err := scanVehicle(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, rec)
	}
	return out, rows.Err()
}

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanVehicle(row rowScanner) (alpr.VehicleRecord, error) {
	var (
		rec   alpr.VehicleRecord
		color sql.NullString
		class string
		year  sql.NullInt64
	)
	if err := row.Scan(&rec.Plate, &rec.OwnerName, &rec.Vehicle, &color, &rec.Jurisdiction, &class, &year); err != nil {
		return alpr.VehicleRecord{}, err
	}
	rec.Color = color.String
	rec.PlateClass = plate.ParseClass(class)
	rec.Year = int(year.Int64)
	return rec, nil
}

func insertArgs(rec alpr.VehicleRecord) []interface{} {
	var color interface{}
	if rec.Color != "" {
		color = rec.Color
	}
	return []interface{}{
		utils.PlateKey(rec.Plate),
		rec.OwnerName,
		rec.Vehicle,
		color,
		rec.Jurisdiction,
		string(rec.PlateClass),
		rec.Year,
	}
}
