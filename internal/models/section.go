// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package models

import (
	"fmt"
	"maps"
	"slices"

	"github.com/google/uuid"
)

// SectionLiveFields are snapshotted for every guide section on publish.
var SectionLiveFields = []string{FieldTitle, FieldBody}

// ItemLiveFields are snapshotted for every guide item on publish.
var ItemLiveFields = []string{FieldTitle, FieldTeaser}

// SectionTranslation holds a section's draft values in one language.
type SectionTranslation struct {
	Language string `json:"language"`
	Title    string `json:"title"`
	Body     string `json:"body"`
}

// Section is an ordered block of a guide with its own live snapshot.
type Section struct {
	ID           uuid.UUID                      `json:"id"`
	GuideID      uuid.UUID                      `json:"guide_id"`
	Order        int                            `json:"order"`
	Translations map[string]*SectionTranslation `json:"translations"`
	Live         LiveSnapshot                   `json:"live_i18n"`
	Items        []*Item                        `json:"items,omitempty"`
}

// Languages returns the section's draft languages, sorted.
func (s *Section) Languages() []string {
	return slices.Sorted(maps.Keys(s.Translations))
}

// DraftValue returns the draft value of field in lang.
func (s *Section) DraftValue(field, lang string) string {
	t := s.Translations[lang]
	if t == nil {
		return ""
	}
	switch field {
	case FieldTitle:
		return t.Title
	case FieldBody:
		return t.Body
	}
	return ""
}

// LiveValue returns the snapshotted value of field in lang, or "".
func (s *Section) LiveValue(field, lang string) string {
	v, _ := s.Live.Get(lang, field)
	return v
}

// Label is a human-readable name used in review output.
func (s *Section) Label(lang string) string {
	if v := s.DraftValue(FieldTitle, lang); v != "" {
		return v
	}
	if v, _ := s.Live.Get(lang, FieldTitle); v != "" {
		return v
	}
	return fmt.Sprintf("Section #%d", s.Order)
}

// Validate checks the section's items.
func (s *Section) Validate() error {
	for _, it := range s.Items {
		if err := it.Validate(); err != nil {
			return err
		}
	}
	return nil
}

// ItemKind names what a guide item links to.
type ItemKind string

const (
	ItemGuide      ItemKind = "guide"
	ItemPrompt     ItemKind = "prompt"
	ItemUseCase    ItemKind = "usecase"
	ItemTool       ItemKind = "tool"
	ItemComparison ItemKind = "comparison"
)

// ItemTranslation holds an item's draft values in one language.
type ItemTranslation struct {
	Language string `json:"language"`
	Title    string `json:"title"`
	Teaser   string `json:"teaser"`
}

// Item is an ordered entry inside a guide section that points either to
// another content object or to an external URL.
type Item struct {
	ID           uuid.UUID                   `json:"id"`
	SectionID    uuid.UUID                   `json:"section_id"`
	Kind         ItemKind                    `json:"kind"`
	TargetID     *uuid.UUID                  `json:"target_id,omitempty"`
	URL          string                      `json:"url,omitempty"`
	Order        int                         `json:"order"`
	IsPublished  bool                        `json:"is_published"`
	Translations map[string]*ItemTranslation `json:"translations"`
	Live         LiveSnapshot                `json:"live_i18n"`
}

// Languages returns the item's draft languages, sorted.
func (it *Item) Languages() []string {
	return slices.Sorted(maps.Keys(it.Translations))
}

// DraftValue returns the draft value of field in lang.
func (it *Item) DraftValue(field, lang string) string {
	t := it.Translations[lang]
	if t == nil {
		return ""
	}
	switch field {
	case FieldTitle:
		return t.Title
	case FieldTeaser:
		return t.Teaser
	}
	return ""
}

// LiveValue returns the snapshotted value of field in lang, or "".
func (it *Item) LiveValue(field, lang string) string {
	v, _ := it.Live.Get(lang, field)
	return v
}

// Label is a human-readable name used in review output.
func (it *Item) Label(lang string) string {
	if v := it.DraftValue(FieldTitle, lang); v != "" {
		return v
	}
	if v, _ := it.Live.Get(lang, FieldTitle); v != "" {
		return v
	}
	return fmt.Sprintf("%s item #%d", it.Kind, it.Order)
}

// Validate requires either a target object or an external URL.
func (it *Item) Validate() error {
	if it.TargetID == nil && it.URL == "" {
		return &ValidationError{Field: "url", Message: "either a target object or a URL is required"}
	}
	return nil
}
