// Package realtime turns postgres row-change notifications into per-table
// change streams.
package realtime

import (
	"encoding/json"
	"errors"
	"fmt"
)

// Channel is the NOTIFY channel the row triggers publish on.
const Channel = "table_changes"

const (
	TableItems    = "inventory_items"
	TableRequests = "indent_requests"
)

type Op string

const (
	OpInsert Op = "INSERT"
	OpUpdate Op = "UPDATE"
	OpDelete Op = "DELETE"
	// OpResync tells subscribers that changes may have been missed and a
	// full reload is due.
	OpResync Op = "RESYNC"
)

type Change struct {
	Table  string          `json:"table"`
	Op     Op              `json:"op"`
	Record json.RawMessage `json:"record"`
}

var ErrNoRecord = errors.New("realtime: change has no record")

// ParseChange decodes a trigger payload.
func ParseChange(payload string) (Change, error) {
	var c Change
	if err := json.Unmarshal([]byte(payload), &c); err != nil {
		return c, fmt.Errorf("decode change: %w", err)
	}
	if c.Table == "" {
		return c, errors.New("decode change: missing table")
	}
	switch c.Op {
	case OpInsert, OpUpdate, OpDelete:
	default:
		return c, fmt.Errorf("decode change: unknown op %q", c.Op)
	}
	return c, nil
}

// Decode unmarshals the row image into v.
func (c Change) Decode(v any) error {
	if len(c.Record) == 0 || string(c.Record) == "null" {
		return ErrNoRecord
	}
	return json.Unmarshal(c.Record, v)
}

// RowID extracts the "id" column of the row image.
func (c Change) RowID() (int64, error) {
	var row struct {
		ID *int64 `json:"id"`
	}
	if err := c.Decode(&row); err != nil {
		return 0, err
	}
	if row.ID == nil {
		return 0, errors.New("realtime: record has no id")
	}
	return *row.ID, nil
}
