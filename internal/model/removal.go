package model

import "time"

// RemovalRecord is an immutable snapshot of stock taken out of inventory.
// Item fields are copied by value at removal time.
type RemovalRecord struct {
	ID       string    `json:"id,omitempty"`
	ItemName string    `json:"itemName"`
	Model    string    `json:"model"`
	UPC      string    `json:"upc"`
	Amount   int       `json:"amount"`
	Employee string    `json:"employee"`
	Purpose  string    `json:"purpose"`
	Store    string    `json:"store"`
	Date     time.Time `json:"date"`
}
