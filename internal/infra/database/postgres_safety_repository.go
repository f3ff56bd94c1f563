package database

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"elderly_care_monitor/internal/domain/safety"
)

type PostgresSafetyRepository struct {
	db *sql.DB
}

func NewPostgresSafetyRepository(db *sql.DB) *PostgresSafetyRepository {
	return &PostgresSafetyRepository{db: db}
}

func (r *PostgresSafetyRepository) Create(ctx context.Context, rec *safety.Record) error {
	query := `INSERT INTO safety_events (user_id, recorded_at, movement, fall_detected, impact_force,
                                        inactivity_duration, location, alert_triggered, caregiver_notified)
               VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
               RETURNING id, created_at`
	impact := sql.NullString{String: string(rec.ImpactForce), Valid: rec.ImpactForce != ""}
	err := r.db.QueryRowContext(ctx, query,
		rec.UserID, rec.Timestamp, rec.Movement, rec.FallDetected, impact,
		rec.InactivityDuration, rec.Location, rec.Flags.Aggregate, rec.Flags.CaregiverNotified,
	).Scan(&rec.ID, &rec.CreatedAt)
	if err != nil {
		return fmt.Errorf("error creating safety event: %w", err)
	}
	return nil
}

func (r *PostgresSafetyRepository) ListRecent(ctx context.Context, limit int) ([]*safety.Record, error) {
	query := `SELECT id, user_id, recorded_at, movement, fall_detected, impact_force,
                      inactivity_duration, location, alert_triggered, caregiver_notified, created_at
               FROM safety_events ORDER BY id DESC LIMIT $1`
	rows, err := r.db.QueryContext(ctx, query, limit)
	if err != nil {
		return nil, fmt.Errorf("error querying recent safety events: %w", err)
	}
	defer rows.Close()

	records := make([]*safety.Record, 0)
	for rows.Next() {
		rec := safety.Record{}
		var impact sql.NullString
		if err := rows.Scan(
			&rec.ID, &rec.UserID, &rec.Timestamp, &rec.Movement, &rec.FallDetected, &impact,
			&rec.InactivityDuration, &rec.Location, &rec.Flags.Aggregate, &rec.Flags.CaregiverNotified, &rec.CreatedAt,
		); err != nil {
			return nil, fmt.Errorf("error scanning safety event row: %w", err)
		}
		rec.ImpactForce = safety.ImpactForce(impact.String)
		records = append(records, &rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating safety event rows: %w", err)
	}
	return records, nil
}

func (r *PostgresSafetyRepository) CountAlertsByUser(ctx context.Context, since time.Time) ([]safety.AlertCount, error) {
	query := `SELECT user_id,
                      COUNT(*),
                      COUNT(*) FILTER (WHERE fall_detected),
                      COUNT(*) FILTER (WHERE alert_triggered)
               FROM safety_events
               WHERE recorded_at >= $1
               GROUP BY user_id
               ORDER BY user_id`
	rows, err := r.db.QueryContext(ctx, query, since)
	if err != nil {
		return nil, fmt.Errorf("error counting safety alerts: %w", err)
	}
	defer rows.Close()

	counts := make([]safety.AlertCount, 0)
	for rows.Next() {
		var c safety.AlertCount
		if err := rows.Scan(&c.UserID, &c.Events, &c.Falls, &c.Aggregate); err != nil {
			return nil, fmt.Errorf("error scanning safety count row: %w", err)
		}
		counts = append(counts, c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating safety count rows: %w", err)
	}
	return counts, nil
}
