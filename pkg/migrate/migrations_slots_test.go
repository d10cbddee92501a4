package migrate_test

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestAssignmentsMigrationContainsConstraints(t *testing.T) {
	matches, err := filepath.Glob(filepath.Join("migrations", "*_create_assignments_tables.sql"))
	if err != nil {
		t.Fatalf("glob migrations: %v", err)
	}
	if len(matches) == 0 {
		t.Fatalf("no assignments migration file found")
	}

	data, err := os.ReadFile(matches[0])
	if err != nil {
		t.Fatalf("read migration file: %v", err)
	}
	content := string(data)

	checks := []string{
		"CREATE TABLE IF NOT EXISTS assignments",
		"CREATE TABLE IF NOT EXISTS assignment_slots",
		"PRIMARY KEY (assignment_id, installer_id)",
		"FOREIGN KEY (assignment_id) REFERENCES assignments(id) ON DELETE CASCADE",
		"CHECK (start_time < end_time)",
		"CREATE INDEX IF NOT EXISTS idx_assignment_slots_installer_date ON assignment_slots (installer_id, date)",
		"DROP TABLE IF EXISTS assignment_slots",
	}

	for _, sub := range checks {
		if !strings.Contains(content, sub) {
			t.Errorf("missing expected statement %q", sub)
		}
	}
}
