package database

import (
	"database/sql"
	"errors"
	"fmt"
	"log/slog"

	"golang.org/x/crypto/bcrypt"
)

// seedUser is one development account created by Seed.
type seedUser struct {
	email, name, role string
	groups            []string
}

// seedUsers cover the three editorial roles: an admin (superuser), an
// editor who may approve other people's work, and an author who may not.
var seedUsers = []seedUser{
	{email: "admin@mentoro.local", name: "Admin", role: "admin"},
	{email: "editor@mentoro.local", name: "Editor", role: "editor", groups: []string{"Editors"}},
	{email: "author@mentoro.local", name: "Author", role: "author"},
}

// Seed populates the database with initial development data. Each default
// account is created with the password "admin" unless its email already
// exists. New accounts are prompted to set up 2FA on first login.
func Seed(db *sql.DB) error {
	hash, err := bcrypt.GenerateFromPassword([]byte("admin"), bcrypt.DefaultCost)
	if err != nil {
		return fmt.Errorf("seed bcrypt: %w", err)
	}

	tx, err := db.Begin()
	if err != nil {
		return fmt.Errorf("seed begin: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck

	var created []seedUser
	for _, u := range seedUsers {
		var id string
		err := tx.QueryRow(`
			INSERT INTO users (email, password_hash, display_name, role, totp_enabled)
			VALUES ($1, $2, $3, $4, FALSE)
			ON CONFLICT (email) DO NOTHING
			RETURNING id
		`, u.email, string(hash), u.name, u.role).Scan(&id)
		if errors.Is(err, sql.ErrNoRows) {
			continue
		}
		if err != nil {
			return fmt.Errorf("seed insert %s: %w", u.email, err)
		}
		for _, g := range u.groups {
			if _, err := tx.Exec(`INSERT INTO user_groups (user_id, group_name) VALUES ($1, $2)`, id, g); err != nil {
				return fmt.Errorf("seed group %s for %s: %w", g, u.email, err)
			}
		}
		created = append(created, u)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("seed commit: %w", err)
	}

	if len(created) == 0 {
		slog.Info("database already seeded, skipping")
		return nil
	}
	for _, u := range created {
		slog.Info("database seeded user", "email", u.email, "role", u.role, "password", "admin")
	}
	return nil
}
