package model

import "time"

// ActivityEntry is one line of the audit trail.
type ActivityEntry struct {
	ID        string    `json:"id,omitempty"`
	Timestamp time.Time `json:"timestamp"`
	Type      string    `json:"type"`
	Field     string    `json:"field"`
	Value     string    `json:"value"`
	Details   string    `json:"details,omitempty"`
}

// Activity types.
const (
	ActivityItemCreation   = "Item Creation"
	ActivityItemUpdate     = "Item Update"
	ActivityQuantityAdjust = "Quantity Adjust"
	ActivityItemRemoval    = "Item Removal"
)
