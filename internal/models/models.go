package models

import (
	"encoding/json"
	"time"
)

// SyncStatus tracks whether a locally created row has been confirmed by the
// remote API. A "failed" row is advisory only and is still retried.
type SyncStatus string

const (
	SyncPending SyncStatus = "pending"
	SyncSynced  SyncStatus = "synced"
	SyncFailed  SyncStatus = "failed"
)

// Intake is one recorded fuel intake. Rows are append-only: once created they
// are never edited locally, only reconciled with the server-assigned id.
type Intake struct {
	LocalID    int64      `db:"local_id"`
	ServerID   string     `db:"server_id"`
	VanNo      string     `db:"van_no"`
	PumpName   string     `db:"pump_name"`
	SourceType string     `db:"source_type"`
	SourceName string     `db:"source_name"`
	Litres     float64    `db:"litres"`
	Amount     float64    `db:"amount"`
	DateTime   string     `db:"date_time"`
	WorkerName string     `db:"worker_name"`
	Status     SyncStatus `db:"sync_status"`
	CreatedAt  time.Time  `db:"created_at"`
	UpdatedAt  time.Time  `db:"updated_at"`
}

// Delivery is one recorded fuel delivery to a customer.
type Delivery struct {
	LocalID    int64      `db:"local_id"`
	ServerID   string     `db:"server_id"`
	VanNo      string     `db:"van_no"`
	Supplier   string     `db:"supplier"`
	Customer   string     `db:"customer"`
	Litres     float64    `db:"litres"`
	Amount     float64    `db:"amount"`
	DateTime   string     `db:"date_time"`
	WorkerName string     `db:"worker_name"`
	Status     SyncStatus `db:"sync_status"`
	CreatedAt  time.Time  `db:"created_at"`
	UpdatedAt  time.Time  `db:"updated_at"`
}

// Van is a read-only mirror of the fleet roster. It is refreshed wholesale
// after successful remote fetches and never written by the app itself.
type Van struct {
	ID             string  `db:"id" json:"_id"`
	VanNo          string  `db:"van_no" json:"vanNo"`
	Name           string  `db:"name" json:"name"`
	Capacity       float64 `db:"capacity" json:"capacity"`
	CurrentDiesel  float64 `db:"current_diesel" json:"currentDiesel"`
	MorningStock   float64 `db:"morning_stock" json:"morningStock"`
	TotalFilled    float64 `db:"total_filled" json:"totalFilled"`
	TotalDelivered float64 `db:"total_delivered" json:"totalDelivered"`
	AssignedWorker string  `db:"assigned_worker" json:"assignedWorker"`
	WorkerName     string  `db:"worker_name" json:"workerName"`
}

// FuelRate is the singleton last-known diesel rate. Absence of a cached rate
// is represented by a nil *FuelRate, never by a zero value.
type FuelRate struct {
	Rate      float64   `db:"rate"`
	UpdatedAt time.Time `db:"updated_at"`
}

// OutboxJob is one durable pending remote operation. Replay order is FIFO by
// ID. Entity and LocalID link the job back to the row it created so the drain
// pass can mark it synced; both are zero for jobs with no row to reconcile.
type OutboxJob struct {
	ID            int64           `db:"id"`
	CorrelationID string          `db:"correlation_id"`
	Entity        string          `db:"entity"`
	LocalID       int64           `db:"local_id"`
	Method        string          `db:"method"`
	URL           string          `db:"url"`
	Body          json.RawMessage `db:"body"`
	Headers       json.RawMessage `db:"headers"`
	Tries         int             `db:"tries"`
	Status        string          `db:"status"`
	CreatedAt     time.Time       `db:"created_at"`
}

// Entity names used on outbox jobs. They double as table names.
const (
	EntityIntakes    = "intakes"
	EntityDeliveries = "deliveries"
	EntityFuelRates  = "fuel_rates"
)
