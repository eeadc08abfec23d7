package hunt

import (
	"path/filepath"
	"testing"
	"time"
)

func TestSQLiteStore_RoundTrip(t *testing.T) {
	dsn := filepath.Join(t.TempDir(), "approvals.db")
	store, err := OpenSQLiteStore(dsn)
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	defer store.Close()

	approval := TokenApproval{
		TokenName:     "database_server",
		SourceRule:    "database-connection",
		ValueHash:     "deadbeef",
		LastConfirmed: time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC),
		ApprovedBy:    "op1",
		Sensitivity:   SensitivityMedium,
	}
	if err := store.Put(approval); err != nil {
		t.Fatalf("put: %v", err)
	}

	got, ok, err := store.Get("database_server")
	if err != nil || !ok {
		t.Fatalf("expected to find the approval, err=%v ok=%v", err, ok)
	}
	if got.ApprovedBy != "op1" || !got.LastConfirmed.Equal(approval.LastConfirmed) {
		t.Fatalf("unexpected round trip: %+v", got)
	}

	approval.ApprovedBy = "op2"
	if err := store.Put(approval); err != nil {
		t.Fatalf("upsert: %v", err)
	}
	list, err := store.List()
	if err != nil || len(list) != 1 || list[0].ApprovedBy != "op2" {
		t.Fatalf("expected upsert to replace the row, got %v %+v", err, list)
	}
}

func TestSQLiteStore_GetUnknownReturnsNotFound(t *testing.T) {
	dsn := filepath.Join(t.TempDir(), "approvals.db")
	store, err := OpenSQLiteStore(dsn)
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	defer store.Close()

	_, ok, err := store.Get("ghost")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if ok {
		t.Fatal("expected not-found for an unknown token")
	}
}
