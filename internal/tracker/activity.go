package tracker

import (
	"github.com/google/uuid"

	"github.com/erazemk/stockroom/internal/model"
)

// record prepends an entry to the activity log. Every successful mutation
// calls it exactly once.
func (s *Session) record(kind, field, value, details string) model.ActivityEntry {
	entry := model.ActivityEntry{
		ID:        uuid.NewString(),
		Timestamp: s.now(),
		Type:      kind,
		Field:     field,
		Value:     value,
		Details:   details,
	}
	s.state.Activity = append([]model.ActivityEntry{entry}, s.state.Activity...)
	return entry
}
