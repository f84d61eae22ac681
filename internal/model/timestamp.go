package model

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"
)

// Layouts accepted for dates written by older clients, which stored the
// browser's locale string instead of RFC 3339.
var legacyLayouts = []string{
	"1/2/2006, 3:04:05 PM",
	"1/2/2006 3:04:05 PM",
	"2. 1. 2006, 15:04:05",
	"2.1.2006, 15:04:05",
	"02/01/2006, 15:04:05",
	"2006-01-02 15:04:05",
}

// parseTimestamp decodes a JSON date as RFC 3339 or one of legacyLayouts.
// Legacy strings carry no zone and are read as local time.
func parseTimestamp(raw json.RawMessage) (time.Time, error) {
	if len(raw) == 0 || string(raw) == "null" {
		return time.Time{}, nil
	}

	var s string
	if err := json.Unmarshal(raw, &s); err != nil {
		return time.Time{}, fmt.Errorf("date must be a string: %w", err)
	}
	if s == "" {
		return time.Time{}, nil
	}
	if t, err := time.Parse(time.RFC3339Nano, s); err == nil {
		return t, nil
	}

	// Browsers put narrow or regular no-break spaces before AM/PM.
	s = strings.NewReplacer("\u202f", " ", "\u00a0", " ").Replace(s)
	for _, layout := range legacyLayouts {
		if t, err := time.ParseInLocation(layout, s, time.Local); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("unrecognized date %q", s)
}

func (r *RemovalRecord) UnmarshalJSON(data []byte) error {
	type plain RemovalRecord
	aux := struct {
		*plain
		Date json.RawMessage `json:"date"`
	}{plain: (*plain)(r)}
	if err := json.Unmarshal(data, &aux); err != nil {
		return err
	}

	t, err := parseTimestamp(aux.Date)
	if err != nil {
		return fmt.Errorf("removal record: %w", err)
	}
	r.Date = t
	return nil
}

func (e *ActivityEntry) UnmarshalJSON(data []byte) error {
	type plain ActivityEntry
	aux := struct {
		*plain
		Timestamp json.RawMessage `json:"timestamp"`
	}{plain: (*plain)(e)}
	if err := json.Unmarshal(data, &aux); err != nil {
		return err
	}

	t, err := parseTimestamp(aux.Timestamp)
	if err != nil {
		return fmt.Errorf("activity entry: %w", err)
	}
	e.Timestamp = t
	return nil
}
