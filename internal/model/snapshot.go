package model

// Collection names, as used in API paths and storage keys.
const (
	CollectionInventory = "inventory"
	CollectionRemovals  = "removals"
	CollectionActivity  = "activity"
)

// Snapshot holds all three collections. Slices are ordered as stored:
// inventory in insertion order, removals and activity most-recent-first.
type Snapshot struct {
	Inventory []InventoryItem `json:"inventory"`
	Removals  []RemovalRecord `json:"removals"`
	Activity  []ActivityEntry `json:"activity"`
}

// Clone returns a deep copy so callers can't alias session state.
func (s Snapshot) Clone() Snapshot {
	return Snapshot{
		Inventory: append([]InventoryItem(nil), s.Inventory...),
		Removals:  append([]RemovalRecord(nil), s.Removals...),
		Activity:  append([]ActivityEntry(nil), s.Activity...),
	}
}

// Normalize replaces nil slices with empty ones so they encode as [].
func (s *Snapshot) Normalize() {
	s.Inventory = NonNil(s.Inventory)
	s.Removals = NonNil(s.Removals)
	s.Activity = NonNil(s.Activity)
}

// NonNil returns s, or an empty slice if s is nil.
func NonNil[T any](s []T) []T {
	if s == nil {
		return []T{}
	}
	return s
}
