package database

import (
	"context"
	"database/sql"
	"fmt"
)

var schemaStatements = []string{
	`CREATE TABLE IF NOT EXISTS users (
  user_id TEXT PRIMARY KEY,
  full_name TEXT NOT NULL DEFAULT '',
  email TEXT,
  caregiver_chat_id BIGINT,
  created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
)`,
	`CREATE TABLE IF NOT EXISTS reminders (
  id BIGSERIAL PRIMARY KEY,
  user_id TEXT NOT NULL,
  reminder_type TEXT NOT NULL,
  scheduled_time TEXT NOT NULL,
  sent BOOLEAN NOT NULL DEFAULT FALSE,
  sent_at TIMESTAMPTZ,
  acknowledged BOOLEAN NOT NULL DEFAULT FALSE,
  created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
)`,
	`CREATE INDEX IF NOT EXISTS idx_reminders_unsent ON reminders(id) WHERE sent = FALSE`,
	`CREATE TABLE IF NOT EXISTS health_readings (
  id BIGSERIAL PRIMARY KEY,
  user_id TEXT NOT NULL,
  recorded_at TIMESTAMPTZ NOT NULL,
  heart_rate INTEGER NOT NULL,
  hr_alert BOOLEAN NOT NULL,
  systolic INTEGER NOT NULL,
  diastolic INTEGER NOT NULL,
  bp_alert BOOLEAN NOT NULL,
  glucose INTEGER NOT NULL,
  glucose_alert BOOLEAN NOT NULL,
  spo2 INTEGER NOT NULL,
  spo2_alert BOOLEAN NOT NULL,
  alert_triggered BOOLEAN NOT NULL,
  caregiver_notified BOOLEAN NOT NULL,
  created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
)`,
	`CREATE INDEX IF NOT EXISTS idx_health_readings_user_time ON health_readings(user_id, recorded_at)`,
	`CREATE TABLE IF NOT EXISTS safety_events (
  id BIGSERIAL PRIMARY KEY,
  user_id TEXT NOT NULL,
  recorded_at TIMESTAMPTZ NOT NULL,
  movement TEXT NOT NULL,
  fall_detected BOOLEAN NOT NULL,
  impact_force TEXT,
  inactivity_duration INTEGER NOT NULL,
  location TEXT NOT NULL,
  alert_triggered BOOLEAN NOT NULL,
  caregiver_notified BOOLEAN NOT NULL,
  created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
)`,
}

// EnsureSchema creates the tables if they do not exist. It is idempotent.
func EnsureSchema(ctx context.Context, db *sql.DB) error {
	for _, stmt := range schemaStatements {
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("error applying schema: %w", err)
		}
	}
	return nil
}
