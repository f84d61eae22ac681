package model

// InventoryItem is a stocked product, keyed by UPC.
type InventoryItem struct {
	Name     string `json:"name"`
	UPC      string `json:"upc"`
	Model    string `json:"model"`
	Quantity int    `json:"quantity"`
}

// FindItem returns the index of the item with the given UPC, or -1.
func FindItem(items []InventoryItem, upc string) int {
	for i := range items {
		if items[i].UPC == upc {
			return i
		}
	}
	return -1
}
