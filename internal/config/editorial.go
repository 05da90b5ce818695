// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package config

import (
	"bytes"
	_ "embed"
	"errors"
	"fmt"
	"os"
	"slices"
	"time"

	"github.com/pelletier/go-toml/v2"
	"golang.org/x/text/language"
)

//go:embed editorial.toml
var defaultEditorial []byte

// Editorial is the editorial policy: site languages and who counts as an
// editor.
type Editorial struct {
	Languages           []string `toml:"languages"`
	DefaultLanguage     string   `toml:"default_language"`
	EditorGroups        []string `toml:"editor_groups"`
	PageCacheTTLSeconds int      `toml:"page_cache_ttl_seconds"`
}

// DefaultEditorial returns the built-in policy.
func DefaultEditorial() *Editorial {
	ed, err := decodeEditorial(defaultEditorial)
	if err != nil {
		panic("config: invalid embedded editorial policy: " + err.Error())
	}
	return ed
}

// LoadEditorial reads the policy at path over the built-in defaults. An
// empty path returns the defaults. Keys missing from the file keep their
// default value.
func LoadEditorial(path string) (*Editorial, error) {
	if path == "" {
		return DefaultEditorial(), nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read editorial config: %w", err)
	}
	ed := DefaultEditorial()
	if err := toml.NewDecoder(bytes.NewReader(data)).DisallowUnknownFields().Decode(ed); err != nil {
		return nil, fmt.Errorf("parse editorial config %s: %w", path, err)
	}
	if err := ed.normalize(); err != nil {
		return nil, err
	}
	return ed, nil
}

func decodeEditorial(data []byte) (*Editorial, error) {
	ed := &Editorial{}
	if err := toml.Unmarshal(data, ed); err != nil {
		return nil, err
	}
	if err := ed.normalize(); err != nil {
		return nil, err
	}
	return ed, nil
}

// normalize canonicalizes language tags and validates the policy.
func (e *Editorial) normalize() error {
	if len(e.Languages) == 0 {
		return errors.New("editorial.languages must list at least one language")
	}
	langs := make([]string, 0, len(e.Languages))
	for _, code := range e.Languages {
		c, err := canonical(code)
		if err != nil {
			return err
		}
		if slices.Contains(langs, c) {
			return fmt.Errorf("editorial.languages: duplicate language %q", c)
		}
		langs = append(langs, c)
	}
	e.Languages = langs

	def, err := canonical(e.DefaultLanguage)
	if err != nil {
		return fmt.Errorf("editorial.default_language: %w", err)
	}
	if !slices.Contains(e.Languages, def) {
		return fmt.Errorf("editorial.default_language %q is not one of the site languages", def)
	}
	e.DefaultLanguage = def

	if len(e.EditorGroups) == 0 {
		return errors.New("editorial.editor_groups must name at least one group")
	}
	if e.PageCacheTTLSeconds < 0 {
		return errors.New("editorial.page_cache_ttl_seconds must not be negative")
	}
	return nil
}

func canonical(code string) (string, error) {
	tag, err := language.Parse(code)
	if err != nil {
		return "", fmt.Errorf("invalid language %q: %w", code, err)
	}
	return tag.String(), nil
}

// PageCacheTTL returns the page cache lifetime.
func (e *Editorial) PageCacheTTL() time.Duration {
	return time.Duration(e.PageCacheTTLSeconds) * time.Second
}
