package models

// Wire shapes returned by the remote API. List endpoints return either a bare
// array or an envelope {"data": [...]}; both are accepted.

// VanRef is the embedded van object on intake/delivery items.
type VanRef struct {
	ID    string `json:"_id"`
	VanNo string `json:"vanNo"`
	Name  string `json:"name"`
}

// WorkerRef is the embedded worker object on intake/delivery items.
type WorkerRef struct {
	ID    string `json:"_id"`
	Email string `json:"email"`
	Name  string `json:"name"`
}

// IntakeItem is one intake as returned by intakes/get-intake.
type IntakeItem struct {
	ID         string    `json:"_id"`
	Van        VanRef    `json:"van"`
	VanNo      string    `json:"vanNo"`
	Worker     WorkerRef `json:"worker"`
	WorkerName string    `json:"workerName"`
	PumpName   string    `json:"pumpName"`
	Litres     float64   `json:"litres"`
	Amount     float64   `json:"amount"`
	DateTime   string    `json:"dateTime"`
	Timestamp  string    `json:"timestamp"`
}

// DeliveryItem is one delivery as returned by deliveries/get-delivery.
type DeliveryItem struct {
	ID         string    `json:"_id"`
	Van        VanRef    `json:"van"`
	VanNo      string    `json:"vanNo"`
	Worker     WorkerRef `json:"worker"`
	WorkerName string    `json:"workerName"`
	Supplier   string    `json:"supplier"`
	Customer   string    `json:"customer"`
	Litres     float64   `json:"litres"`
	Amount     float64   `json:"amount"`
	DateTime   string    `json:"dateTime"`
	Timestamp  string    `json:"timestamp"`
}

// IntakePayload is the validated input for creating an intake. Defaulting and
// validation happen in the UI layer before this core is called.
type IntakePayload struct {
	VanNo      string  `json:"vanNo"`
	PumpName   string  `json:"pumpName,omitempty"`
	SourceType string  `json:"sourceType,omitempty"`
	SourceName string  `json:"sourceName,omitempty"`
	Litres     float64 `json:"litres"`
	Amount     float64 `json:"amount"`
	DateTime   string  `json:"dateTime"`
	WorkerName string  `json:"workerName,omitempty"`
}

// DeliveryPayload is the validated input for creating a delivery.
type DeliveryPayload struct {
	VanNo      string  `json:"vanNo"`
	Supplier   string  `json:"supplier"`
	Customer   string  `json:"customer"`
	Litres     float64 `json:"litres"`
	Amount     float64 `json:"amount"`
	DateTime   string  `json:"dateTime"`
	WorkerName string  `json:"workerName,omitempty"`
}

// RatePayload is the input for fuel-rates/set-diesel-rate.
type RatePayload struct {
	Rate float64 `json:"rate"`
}
