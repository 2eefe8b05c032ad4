package utils

import (
	"context"
	"testing"
)

// The bot runs without DATABASE_URL; the audit trail must then be inert
// rather than an error source.
func TestAuditTrailDisabledWithoutDatabase(t *testing.T) {
	if DB != nil {
		t.Fatal("Expected no database pool in unit tests")
	}

	// A silent no-op: must not panic or block.
	RecordGameEvent(1234, "111", "222", EventGameStarted, "chance=1 cooldown=10s")

	events, err := RecentGameEvents(context.Background(), 10)
	if err != nil {
		t.Errorf("Expected no error without a database, got %v", err)
	}
	if events != nil {
		t.Errorf("Expected no events without a database, got %v", events)
	}
}

func TestSetupDatabaseWithoutURL(t *testing.T) {
	t.Setenv("DATABASE_URL", "")

	if err := SetupDatabase(); err != nil {
		t.Errorf("Expected an unset DATABASE_URL to be accepted, got %v", err)
	}
	if DB != nil {
		t.Error("Expected no pool to be created without DATABASE_URL")
	}
}
