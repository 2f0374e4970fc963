package models

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
)

// JSON-encoded column types. MySQL stores these as JSON, SQLite as TEXT;
// both round-trip through the same Valuer/Scanner pair.

func scanJSON(src any, dst any) error {
	switch v := src.(type) {
	case nil:
		return nil
	case []byte:
		if len(v) == 0 {
			return nil
		}
		return json.Unmarshal(v, dst)
	case string:
		if v == "" {
			return nil
		}
		return json.Unmarshal([]byte(v), dst)
	default:
		return fmt.Errorf("unsupported column type %T", src)
	}
}

// RollList is a JSON column holding a list of stat rolls.
type RollList []Roll

func (l RollList) Value() (driver.Value, error) {
	if l == nil {
		l = RollList{}
	}
	b, err := json.Marshal(l)
	return string(b), err
}

func (l *RollList) Scan(src any) error {
	return scanJSON(src, l)
}

// IntList is a JSON column holding a list of integers (skill levels,
// active set ids).
type IntList []int

func (l IntList) Value() (driver.Value, error) {
	if l == nil {
		l = IntList{}
	}
	b, err := json.Marshal(l)
	return string(b), err
}

func (l *IntList) Scan(src any) error {
	return scanJSON(src, l)
}

// StatTotals is a JSON column mapping stat id to a summed contribution.
type StatTotals map[Stat]float64

func (t StatTotals) Value() (driver.Value, error) {
	if t == nil {
		t = StatTotals{}
	}
	b, err := json.Marshal(t)
	return string(b), err
}

func (t *StatTotals) Scan(src any) error {
	return scanJSON(src, t)
}
