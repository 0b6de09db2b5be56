package store

import (
	"context"
	"database/sql"

	"github.com/Teja-9024/black-bus/internal/models"
)

// Domain record tables are append-only: rows are inserted as pending or
// synced and only ever updated to record the server-assigned id. List queries
// return newest-created-first and are valid on an empty table.

// InsertPendingIntake inserts a locally created intake awaiting sync.
func (s *Store) InsertPendingIntake(ctx context.Context, p models.IntakePayload) (int64, error) {
	return s.insertIntake(ctx, p, "", models.SyncPending)
}

// InsertSyncedIntake inserts an intake already confirmed by the remote API.
// Re-inserting the same server id is a no-op and returns 0.
func (s *Store) InsertSyncedIntake(ctx context.Context, p models.IntakePayload, serverID string) (int64, error) {
	return s.insertIntake(ctx, p, serverID, models.SyncSynced)
}

func (s *Store) insertIntake(ctx context.Context, p models.IntakePayload, serverID string, status models.SyncStatus) (int64, error) {
	ts := now()
	res, err := s.db.ExecContext(ctx, `
		INSERT INTO intakes
		(server_id, van_no, pump_name, source_type, source_name, litres, amount, date_time, worker_name, sync_status, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT (server_id) WHERE server_id IS NOT NULL DO NOTHING
	`,
		nullable(serverID), p.VanNo, p.PumpName, p.SourceType, p.SourceName,
		p.Litres, p.Amount, p.DateTime, p.WorkerName, string(status), ts, ts,
	)
	if err != nil {
		return 0, storageErr("insert intake", err)
	}
	return insertedID(res)
}

// MarkIntakeSynced records the server id on a pending intake. Idempotent.
func (s *Store) MarkIntakeSynced(ctx context.Context, localID int64, serverID string) error {
	return s.markRecordSynced(ctx, "intakes", "mark intake synced", localID, serverID)
}

// ListIntakes returns every intake, newest-created-first.
func (s *Store) ListIntakes(ctx context.Context) ([]models.Intake, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT local_id, server_id, van_no, pump_name, source_type, source_name,
		       litres, amount, date_time, worker_name, sync_status, created_at, updated_at
		FROM intakes
		ORDER BY local_id DESC
	`)
	if err != nil {
		return nil, storageErr("list intakes", err)
	}
	defer rows.Close()

	var out []models.Intake
	for rows.Next() {
		var m models.Intake
		var serverID sql.NullString
		var createdAt, updatedAt string
		err := rows.Scan(
			&m.LocalID, &serverID, &m.VanNo, &m.PumpName, &m.SourceType, &m.SourceName,
			&m.Litres, &m.Amount, &m.DateTime, &m.WorkerName, &m.Status, &createdAt, &updatedAt,
		)
		if err != nil {
			return nil, storageErr("scan intake", err)
		}
		m.ServerID = serverID.String
		m.CreatedAt = parseTime(createdAt)
		m.UpdatedAt = parseTime(updatedAt)
		out = append(out, m)
	}
	if err := rows.Err(); err != nil {
		return nil, storageErr("list intakes", err)
	}
	return out, nil
}

// InsertPendingDelivery inserts a locally created delivery awaiting sync.
func (s *Store) InsertPendingDelivery(ctx context.Context, p models.DeliveryPayload) (int64, error) {
	return s.insertDelivery(ctx, p, "", models.SyncPending)
}

// InsertSyncedDelivery inserts a delivery already confirmed by the remote API.
func (s *Store) InsertSyncedDelivery(ctx context.Context, p models.DeliveryPayload, serverID string) (int64, error) {
	return s.insertDelivery(ctx, p, serverID, models.SyncSynced)
}

func (s *Store) insertDelivery(ctx context.Context, p models.DeliveryPayload, serverID string, status models.SyncStatus) (int64, error) {
	ts := now()
	res, err := s.db.ExecContext(ctx, `
		INSERT INTO deliveries
		(server_id, van_no, supplier, customer, litres, amount, date_time, worker_name, sync_status, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT (server_id) WHERE server_id IS NOT NULL DO NOTHING
	`,
		nullable(serverID), p.VanNo, p.Supplier, p.Customer,
		p.Litres, p.Amount, p.DateTime, p.WorkerName, string(status), ts, ts,
	)
	if err != nil {
		return 0, storageErr("insert delivery", err)
	}
	return insertedID(res)
}

// MarkDeliverySynced records the server id on a pending delivery. Idempotent.
func (s *Store) MarkDeliverySynced(ctx context.Context, localID int64, serverID string) error {
	return s.markRecordSynced(ctx, "deliveries", "mark delivery synced", localID, serverID)
}

// ListDeliveries returns every delivery, newest-created-first.
func (s *Store) ListDeliveries(ctx context.Context) ([]models.Delivery, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT local_id, server_id, van_no, supplier, customer,
		       litres, amount, date_time, worker_name, sync_status, created_at, updated_at
		FROM deliveries
		ORDER BY local_id DESC
	`)
	if err != nil {
		return nil, storageErr("list deliveries", err)
	}
	defer rows.Close()

	var out []models.Delivery
	for rows.Next() {
		var m models.Delivery
		var serverID sql.NullString
		var createdAt, updatedAt string
		err := rows.Scan(
			&m.LocalID, &serverID, &m.VanNo, &m.Supplier, &m.Customer,
			&m.Litres, &m.Amount, &m.DateTime, &m.WorkerName, &m.Status, &createdAt, &updatedAt,
		)
		if err != nil {
			return nil, storageErr("scan delivery", err)
		}
		m.ServerID = serverID.String
		m.CreatedAt = parseTime(createdAt)
		m.UpdatedAt = parseTime(updatedAt)
		out = append(out, m)
	}
	if err := rows.Err(); err != nil {
		return nil, storageErr("list deliveries", err)
	}
	return out, nil
}

// markRecordSynced records the server id on a pending row. A list refresh may
// already have mirrored the same server row as a separate synced copy; that
// copy is folded into the original in the same transaction, otherwise the
// unique server_id index would reject the update and strand the pending row.
// The table name comes from the entity constants, never from job data.
func (s *Store) markRecordSynced(ctx context.Context, table, op string, localID int64, serverID string) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return storageErr(op, err)
	}
	defer tx.Rollback()

	_, err = tx.ExecContext(ctx,
		`DELETE FROM `+table+` WHERE server_id = ? AND local_id <> ?`,
		serverID, localID,
	)
	if err != nil {
		return storageErr(op, err)
	}
	_, err = tx.ExecContext(ctx,
		`UPDATE `+table+` SET server_id = ?, sync_status = ?, updated_at = ? WHERE local_id = ?`,
		serverID, string(models.SyncSynced), now(), localID,
	)
	if err != nil {
		return storageErr(op, err)
	}

	if err := tx.Commit(); err != nil {
		return storageErr(op, err)
	}
	return nil
}

// MarkSynced dispatches a server-id reconciliation to the table named on an
// outbox job. Entities with no per-row bookkeeping are a no-op.
func (s *Store) MarkSynced(ctx context.Context, entity string, localID int64, serverID string) error {
	if localID == 0 || serverID == "" {
		return nil
	}
	switch entity {
	case models.EntityIntakes:
		return s.MarkIntakeSynced(ctx, localID, serverID)
	case models.EntityDeliveries:
		return s.MarkDeliverySynced(ctx, localID, serverID)
	default:
		return nil
	}
}

func nullable(v string) any {
	if v == "" {
		return nil
	}
	return v
}

func insertedID(res sql.Result) (int64, error) {
	id, err := res.LastInsertId()
	if err != nil {
		return 0, storageErr("last insert id", err)
	}
	if affected, err := res.RowsAffected(); err == nil && affected == 0 {
		// Conflict on server_id: the row already exists locally.
		return 0, nil
	}
	return id, nil
}
