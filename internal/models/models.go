package models

import (
	"time"

	"github.com/google/uuid"
)

type InventoryItem struct {
	ID          uuid.UUID  `json:"id"`
	HouseholdID uuid.UUID  `json:"household_id"`
	ProductID   *uuid.UUID `json:"product_id,omitempty"`
	Name        string     `json:"name"`
	Quantity    float64    `json:"quantity"`
	Unit        *string    `json:"unit,omitempty"`
	MinQuantity *float64   `json:"min_quantity,omitempty"`
	LocationID  *uuid.UUID `json:"location_id,omitempty"`
	ExpiryDate  *time.Time `json:"expiry_date,omitempty"`
	UpdatedAt   time.Time  `json:"updated_at"`
}

type Product struct {
	ID            uuid.UUID `json:"id"`
	HouseholdID   uuid.UUID `json:"household_id"`
	Name          string    `json:"name"`
	TotalQuantity float64   `json:"total_quantity"`
	Unit          *string   `json:"unit,omitempty"`
}

type AssistantEvent struct {
	ID           uuid.UUID `json:"id"`
	Event        string    `json:"event"`
	Outcome      string    `json:"outcome"`
	HouseholdID  string    `json:"household_id"`
	ErrorCode    *string   `json:"error_code,omitempty"`
	Reason       *string   `json:"reason,omitempty"`
	EstimatedUSD float64   `json:"estimated_usd"`
	CreatedAt    time.Time `json:"created_at"`
}
