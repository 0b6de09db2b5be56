package store

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/Teja-9024/black-bus/internal/models"
)

// UpsertVans replaces the cached van roster by primary key. The whole refresh
// runs in one transaction so a crash mid-refresh cannot leave the cache
// half-updated.
func (s *Store) UpsertVans(ctx context.Context, vans []models.Van) error {
	if len(vans) == 0 {
		return nil
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return storageErr("begin van refresh", err)
	}
	defer tx.Rollback()

	for _, v := range vans {
		_, err := tx.ExecContext(ctx, `
			INSERT OR REPLACE INTO vans
			(id, van_no, name, capacity, current_diesel, morning_stock, total_filled, total_delivered, assigned_worker, worker_name)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		`,
			v.ID, v.VanNo, v.Name, v.Capacity, v.CurrentDiesel,
			v.MorningStock, v.TotalFilled, v.TotalDelivered, v.AssignedWorker, v.WorkerName,
		)
		if err != nil {
			return storageErr("upsert van", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return storageErr("commit van refresh", err)
	}
	return nil
}

// ListVans returns the cached van roster.
func (s *Store) ListVans(ctx context.Context) ([]models.Van, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, van_no, name, capacity, current_diesel, morning_stock,
		       total_filled, total_delivered, assigned_worker, worker_name
		FROM vans
		ORDER BY van_no
	`)
	if err != nil {
		return nil, storageErr("list vans", err)
	}
	defer rows.Close()

	var out []models.Van
	for rows.Next() {
		var v models.Van
		err := rows.Scan(
			&v.ID, &v.VanNo, &v.Name, &v.Capacity, &v.CurrentDiesel,
			&v.MorningStock, &v.TotalFilled, &v.TotalDelivered, &v.AssignedWorker, &v.WorkerName,
		)
		if err != nil {
			return nil, storageErr("scan van", err)
		}
		out = append(out, v)
	}
	if err := rows.Err(); err != nil {
		return nil, storageErr("list vans", err)
	}
	return out, nil
}

// SetFuelRate replaces the singleton cached rate wholesale. The table is a
// read-through cache, not an event log: at most one row exists.
func (s *Store) SetFuelRate(ctx context.Context, rate float64, when time.Time) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return storageErr("begin rate update", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `DELETE FROM fuel_rates`); err != nil {
		return storageErr("clear fuel rate", err)
	}
	_, err = tx.ExecContext(ctx,
		`INSERT INTO fuel_rates (rate, updated_at) VALUES (?, ?)`,
		rate, when.UTC().Format(time.RFC3339Nano),
	)
	if err != nil {
		return storageErr("set fuel rate", err)
	}

	if err := tx.Commit(); err != nil {
		return storageErr("commit rate update", err)
	}
	return nil
}

// FuelRate returns the cached rate, or nil when no rate has been cached yet.
// A nil result is not an error: it means "unknown", which callers must not
// conflate with a genuine zero rate.
func (s *Store) FuelRate(ctx context.Context) (*models.FuelRate, error) {
	var rate float64
	var updatedAt string
	err := s.db.QueryRowContext(ctx,
		`SELECT rate, updated_at FROM fuel_rates LIMIT 1`,
	).Scan(&rate, &updatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, storageErr("get fuel rate", err)
	}
	return &models.FuelRate{Rate: rate, UpdatedAt: parseTime(updatedAt)}, nil
}
