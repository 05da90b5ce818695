package database

import (
	"testing"
)

func TestSeedIdempotent(t *testing.T) {
	db, err := Connect(testDSN())
	if err != nil {
		t.Skipf("skipping: DB not available: %v", err)
	}
	defer db.Close()

	if err := Migrate(db); err != nil {
		t.Fatalf("Migrate: %v", err)
	}

	// Seed only inserts missing accounts, so running it twice is safe. The
	// database is not cleared first because other test packages may be
	// running against it concurrently.
	if err := Seed(db); err != nil {
		t.Fatalf("first Seed: %v", err)
	}
	if err := Seed(db); err != nil {
		t.Fatalf("second Seed: %v", err)
	}

	for _, u := range seedUsers {
		var n int
		if err := db.QueryRow("SELECT COUNT(*) FROM users WHERE email = $1", u.email).Scan(&n); err != nil {
			t.Fatalf("count %s: %v", u.email, err)
		}
		if n != 1 {
			t.Errorf("users with email %s = %d, want 1", u.email, n)
		}
	}

	var inEditors bool
	err = db.QueryRow(`
		SELECT EXISTS (
			SELECT 1 FROM user_groups g JOIN users u ON u.id = g.user_id
			WHERE u.email = 'editor@mentoro.local' AND g.group_name = 'Editors'
		)`).Scan(&inEditors)
	if err != nil {
		t.Fatalf("check editor group: %v", err)
	}
	if !inEditors {
		t.Error("seeded editor must belong to the Editors group")
	}
}
