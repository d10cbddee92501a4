package migrate_test

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestOutboxMigrationContainsUniqueCompletionIndex(t *testing.T) {
	matches, err := filepath.Glob(filepath.Join("migrations", "*_create_outbox_tables.sql"))
	if err != nil {
		t.Fatalf("glob migrations: %v", err)
	}
	if len(matches) == 0 {
		t.Fatalf("no outbox migration file found")
	}

	data, err := os.ReadFile(matches[0])
	if err != nil {
		t.Fatalf("read migration file: %v", err)
	}
	content := string(data)

	checks := []string{
		"CREATE TABLE IF NOT EXISTS outbox_events",
		"CREATE UNIQUE INDEX IF NOT EXISTS ux_outbox_events_event_aggregate",
		"WHERE event_type = 'installation_completed'",
		"CREATE TABLE IF NOT EXISTS outbox_dlq",
		"CHECK (error_reason IN ('max_attempts', 'non_retryable'))",
		"DROP TABLE IF EXISTS outbox_events",
	}

	for _, sub := range checks {
		if !strings.Contains(content, sub) {
			t.Errorf("missing expected statement %q", sub)
		}
	}
}
