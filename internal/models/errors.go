// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package models

import (
	"errors"
	"fmt"
)

// ErrValidation matches any *ValidationError via errors.Is.
var ErrValidation = errors.New("validation failed")

// ValidationError reports an entity-specific invariant violation detected
// at save time.
type ValidationError struct {
	Field    string
	Language string
	Message  string
}

func (e *ValidationError) Error() string {
	if e.Language != "" {
		return fmt.Sprintf("%s [%s]: %s", e.Field, e.Language, e.Message)
	}
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// Is lets errors.Is(err, ErrValidation) succeed.
func (e *ValidationError) Is(target error) bool {
	return target == ErrValidation
}

// Kind classifies the error for status mapping.
func (e *ValidationError) Kind() string {
	return "validation"
}
