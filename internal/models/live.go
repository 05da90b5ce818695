// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package models

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"maps"
	"slices"
)

// LiveSnapshot holds the publicly visible field values captured at the
// last publish, keyed by language code and then by field name. It is
// stored as a JSONB column.
type LiveSnapshot map[string]map[string]string

// Get returns the live value of field in lang and whether it was captured.
func (l LiveSnapshot) Get(lang, field string) (string, bool) {
	entry, ok := l[lang]
	if !ok {
		return "", false
	}
	v, ok := entry[field]
	return v, ok
}

// Languages returns the snapshotted language codes, sorted.
func (l LiveSnapshot) Languages() []string {
	return slices.Sorted(maps.Keys(l))
}

// Clone returns a deep copy of the snapshot.
func (l LiveSnapshot) Clone() LiveSnapshot {
	if l == nil {
		return nil
	}
	out := make(LiveSnapshot, len(l))
	for lang, entry := range l {
		out[lang] = maps.Clone(entry)
	}
	return out
}

// Value implements driver.Valuer so the snapshot can be written to JSONB.
func (l LiveSnapshot) Value() (driver.Value, error) {
	if l == nil {
		return []byte("{}"), nil
	}
	b, err := json.Marshal(map[string]map[string]string(l))
	if err != nil {
		return nil, fmt.Errorf("marshal live snapshot: %w", err)
	}
	return b, nil
}

// Scan implements sql.Scanner for JSONB columns.
func (l *LiveSnapshot) Scan(src any) error {
	var raw []byte
	switch v := src.(type) {
	case nil:
		*l = LiveSnapshot{}
		return nil
	case []byte:
		raw = v
	case string:
		raw = []byte(v)
	default:
		return fmt.Errorf("scan live snapshot: unsupported type %T", src)
	}
	snap := LiveSnapshot{}
	if len(raw) > 0 {
		if err := json.Unmarshal(raw, &snap); err != nil {
			return fmt.Errorf("unmarshal live snapshot: %w", err)
		}
	}
	*l = snap
	return nil
}
