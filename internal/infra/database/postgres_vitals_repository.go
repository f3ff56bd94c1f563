package database

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"elderly_care_monitor/internal/domain/vitals"

	"github.com/lib/pq" // For pq.Array
)

type PostgresVitalsRepository struct {
	db *sql.DB
}

func NewPostgresVitalsRepository(db *sql.DB) *PostgresVitalsRepository {
	return &PostgresVitalsRepository{db: db}
}

func (r *PostgresVitalsRepository) Create(ctx context.Context, rec *vitals.Record) error {
	query := `INSERT INTO health_readings (user_id, recorded_at, heart_rate, hr_alert, systolic, diastolic, bp_alert,
                                          glucose, glucose_alert, spo2, spo2_alert, alert_triggered, caregiver_notified)
               VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)
               RETURNING id, created_at`
	err := r.db.QueryRowContext(ctx, query,
		rec.UserID, rec.Timestamp,
		rec.HeartRate, rec.Flags.HeartRate,
		rec.BloodPressure.Systolic, rec.BloodPressure.Diastolic, rec.Flags.BloodPressure,
		rec.Glucose, rec.Flags.Glucose,
		rec.SpO2, rec.Flags.SpO2,
		rec.Flags.Aggregate, rec.Flags.CaregiverNotified,
	).Scan(&rec.ID, &rec.CreatedAt)
	if err != nil {
		return fmt.Errorf("error creating health reading: %w", err)
	}
	return nil
}

func (r *PostgresVitalsRepository) ListRecent(ctx context.Context, limit int) ([]*vitals.Record, error) {
	query := `SELECT id, user_id, recorded_at, heart_rate, hr_alert, systolic, diastolic, bp_alert,
                      glucose, glucose_alert, spo2, spo2_alert, alert_triggered, caregiver_notified, created_at
               FROM health_readings ORDER BY id DESC LIMIT $1`
	rows, err := r.db.QueryContext(ctx, query, limit)
	if err != nil {
		return nil, fmt.Errorf("error querying recent health readings: %w", err)
	}
	defer rows.Close()

	records := make([]*vitals.Record, 0)
	for rows.Next() {
		rec := vitals.Record{}
		if err := rows.Scan(
			&rec.ID, &rec.UserID, &rec.Timestamp,
			&rec.HeartRate, &rec.Flags.HeartRate,
			&rec.BloodPressure.Systolic, &rec.BloodPressure.Diastolic, &rec.Flags.BloodPressure,
			&rec.Glucose, &rec.Flags.Glucose,
			&rec.SpO2, &rec.Flags.SpO2,
			&rec.Flags.Aggregate, &rec.Flags.CaregiverNotified, &rec.CreatedAt,
		); err != nil {
			return nil, fmt.Errorf("error scanning health reading row: %w", err)
		}
		records = append(records, &rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating health reading rows: %w", err)
	}
	return records, nil
}

func (r *PostgresVitalsRepository) CountAlertsByUser(ctx context.Context, since time.Time, userIDs []string) ([]vitals.AlertCount, error) {
	query := `SELECT user_id,
                      COUNT(*),
                      COUNT(*) FILTER (WHERE hr_alert),
                      COUNT(*) FILTER (WHERE bp_alert),
                      COUNT(*) FILTER (WHERE glucose_alert),
                      COUNT(*) FILTER (WHERE spo2_alert),
                      COUNT(*) FILTER (WHERE alert_triggered)
               FROM health_readings
               WHERE recorded_at >= $1
                 AND (cardinality($2::text[]) = 0 OR user_id = ANY($2::text[]))
               GROUP BY user_id
               ORDER BY user_id`
	if userIDs == nil {
		userIDs = []string{}
	}
	rows, err := r.db.QueryContext(ctx, query, since, pq.Array(userIDs))
	if err != nil {
		return nil, fmt.Errorf("error counting health alerts: %w", err)
	}
	defer rows.Close()

	counts := make([]vitals.AlertCount, 0)
	for rows.Next() {
		var c vitals.AlertCount
		if err := rows.Scan(&c.UserID, &c.Readings, &c.HeartRate, &c.BloodPressure, &c.Glucose, &c.SpO2, &c.Aggregate); err != nil {
			return nil, fmt.Errorf("error scanning alert count row: %w", err)
		}
		counts = append(counts, c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating alert count rows: %w", err)
	}
	return counts, nil
}
