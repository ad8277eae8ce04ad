package models

import "time"

// Farm is the tenant boundary: every farm-owned row hangs off a farm id.
type Farm struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	OwnerID   string    `json:"ownerId"`
	CreatedAt time.Time `json:"createdAt"`
}
