package model

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLegacyDatesDecode(t *testing.T) {
	want := time.Date(2026, 3, 14, 9, 30, 0, 0, time.Local)

	tests := []struct {
		name string
		date string
	}{
		{"en-US", `"3/14/2026, 9:30:00 AM"`},
		{"en-US narrow space", `"3/14/2026, 9:30:00\u202fAM"`},
		{"sl-SI", `"14. 3. 2026, 09:30:00"`},
		{"en-GB", `"14/03/2026, 09:30:00"`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var r RemovalRecord
			require.NoError(t, json.Unmarshal([]byte(`{"itemName":"Drill","upc":"1","amount":2,"date":`+tt.date+`}`), &r))
			assert.True(t, want.Equal(r.Date), "got %v", r.Date)
			assert.Equal(t, "Drill", r.ItemName)
			assert.Equal(t, 2, r.Amount)

			var e ActivityEntry
			require.NoError(t, json.Unmarshal([]byte(`{"type":"Item Removal","timestamp":`+tt.date+`}`), &e))
			assert.True(t, want.Equal(e.Timestamp), "got %v", e.Timestamp)
			assert.Equal(t, ActivityItemRemoval, e.Type)
		})
	}
}

func TestDatesRoundTripRFC3339(t *testing.T) {
	in := RemovalRecord{ID: "r1", ItemName: "Saw", UPC: "9", Amount: 1, Date: time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)}
	data, err := json.Marshal(in)
	require.NoError(t, err)

	var out RemovalRecord
	require.NoError(t, json.Unmarshal(data, &out))
	assert.Equal(t, in.ID, out.ID)
	assert.True(t, in.Date.Equal(out.Date))
}

func TestMissingDateIsZero(t *testing.T) {
	var e ActivityEntry
	require.NoError(t, json.Unmarshal([]byte(`{"type":"Item Update","timestamp":null}`), &e))
	assert.True(t, e.Timestamp.IsZero())

	var r RemovalRecord
	require.NoError(t, json.Unmarshal([]byte(`{"itemName":"Saw"}`), &r))
	assert.True(t, r.Date.IsZero())
}

func TestUnrecognizedDateRejected(t *testing.T) {
	var r RemovalRecord
	err := json.Unmarshal([]byte(`{"date":"sometime last week"}`), &r)
	assert.Error(t, err)

	err = json.Unmarshal([]byte(`{"date":12}`), &r)
	assert.Error(t, err)
}

func TestNonNil(t *testing.T) {
	var items []InventoryItem
	got := NonNil(items)
	require.NotNil(t, got)
	assert.Empty(t, got)

	data, err := json.Marshal(got)
	require.NoError(t, err)
	assert.Equal(t, "[]", string(data))

	kept := []InventoryItem{{Name: "Drill"}}
	assert.Equal(t, kept, NonNil(kept))
}
