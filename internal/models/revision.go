// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package models

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

// Revision is a point-in-time copy of an entity recorded after a
// successful workflow transition. Payload holds the JSON-encoded entity.
type Revision struct {
	ID        int64           `json:"id"`
	EntityID  uuid.UUID       `json:"entity_id"`
	Kind      ContentKind     `json:"kind"`
	Status    Status          `json:"status"`
	Comment   string          `json:"comment"`
	Payload   json.RawMessage `json:"payload"`
	CreatedBy *uuid.UUID      `json:"created_by,omitempty"`
	CreatedAt time.Time       `json:"created_at"`
}
