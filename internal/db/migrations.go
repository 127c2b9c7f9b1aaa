package db

import (
	"fmt"

	"gorm.io/gorm"
)

var migrationStatements = []string{
	`CREATE EXTENSION IF NOT EXISTS "uuid-ossp";`,

	// keyed by the compact plate, e.g. KTS123AB
	`CREATE TABLE IF NOT EXISTS alpr_vehicles (
		plate_number    TEXT PRIMARY KEY,
		owner_name      TEXT NOT NULL,
		description     TEXT NOT NULL DEFAULT '',
		color           TEXT,
		jurisdiction    TEXT NOT NULL DEFAULT '',
		plate_class     TEXT NOT NULL DEFAULT '',
		year            INT NOT NULL DEFAULT 0,
		created_at      TIMESTAMPTZ NOT NULL DEFAULT now()
	);`,
	`CREATE INDEX IF NOT EXISTS idx_alpr_vehicles_owner ON alpr_vehicles(UPPER(owner_name));`,

	`CREATE TABLE IF NOT EXISTS alpr_recognition_events (
		id                  UUID PRIMARY KEY DEFAULT uuid_generate_v4(),
		camera_id           TEXT NOT NULL,
		camera_model        TEXT,
		direction           TEXT,
		lane                INT,
		raw_text            TEXT NOT NULL,
		normalized_text     TEXT NOT NULL,
		corrected_text      TEXT NOT NULL,
		valid               BOOLEAN NOT NULL,
		plate               TEXT,
		plate_class         TEXT,
		jurisdiction_code   TEXT,
		confidence          NUMERIC(3,2) NOT NULL,
		ocr_confidence      NUMERIC(5,2),
		registration_status TEXT NOT NULL,
		owner_name          TEXT,
		vehicle_color       TEXT,
		vehicle_type        TEXT,
		vehicle_description TEXT,
		vehicle_speed       NUMERIC(7,2),
		snapshot_url        TEXT,
		event_time          TIMESTAMPTZ NOT NULL,
		raw_payload         JSONB,
		created_at          TIMESTAMPTZ NOT NULL DEFAULT now()
	);`,
	`CREATE INDEX IF NOT EXISTS idx_alpr_events_event_time ON alpr_recognition_events(event_time);`,
	`CREATE INDEX IF NOT EXISTS idx_alpr_events_plate_time ON alpr_recognition_events(plate, event_time DESC);`,
	`CREATE INDEX IF NOT EXISTS idx_alpr_events_created_at ON alpr_recognition_events(created_at);`,

	// columns added after the first release
	`DO $$
	BEGIN
		IF NOT EXISTS (SELECT 1 FROM information_schema.columns
			WHERE table_name = 'alpr_recognition_events' AND column_name = 'vehicle_description') THEN
			ALTER TABLE alpr_recognition_events ADD COLUMN vehicle_description TEXT;
		END IF;
	END $$;`,
}

func runMigrations(db *gorm.DB) error {
	for i, stmt := range migrationStatements {
		if err := db.Exec(stmt).Error; err != nil {
			return fmt.Errorf("migration %d failed: %w", i+1, err)
		}
	}
	return nil
}
